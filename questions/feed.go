package questions

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Feed fetches a JSON array of questions from URL. It backs the extra
// question source appended to the base set.
type Feed struct {
	URL    string
	Client *http.Client
}

func (f *Feed) FetchQuestions(ctx context.Context) ([]Question, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch feed: unexpected status %s", resp.Status)
	}

	var qs []Question
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxSheetBytes)).Decode(&qs); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}

	return qs, nil
}
