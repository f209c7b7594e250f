package questions

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// DefaultSheetURL exports the first tab of a shared Google spreadsheet as CSV.
const DefaultSheetURL = "https://docs.google.com/spreadsheets/d/%s/gviz/tq?tqx=out:csv"

// maxSheetBytes caps how much of a sheet export is read.
const maxSheetBytes = 4 << 20

// Spreadsheet reads questions from a CSV export. Each row is
//
//	question, option 1, option 2[, option 3 ...], answer
//
// where answer is an option letter (A-Z), a 1-based option number, or the
// exact text of the correct option. Letters and numbers are tried before
// option text. A leading header row is skipped.
type Spreadsheet struct {
	ID     string
	URL    string // printf template taking the id; DefaultSheetURL when empty
	Client *http.Client
}

func (s *Spreadsheet) FetchQuestions(ctx context.Context) ([]Question, error) {
	if s.ID == "" {
		return nil, errors.New("missing spreadsheet id")
	}

	tmpl := s.URL
	if tmpl == "" {
		tmpl = DefaultSheetURL
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf(tmpl, url.PathEscape(s.ID)), nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch spreadsheet: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch spreadsheet: unexpected status %s", resp.Status)
	}

	return ParseSheet(io.LimitReader(resp.Body, maxSheetBytes))
}

// ParseSheet decodes CSV rows into questions. Rows that cannot be understood
// are skipped; only a broken CSV stream is an error.
func ParseSheet(r io.Reader) ([]Question, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var out []Question
	for line := 1; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse spreadsheet: %w", err)
		}

		row = trimTrailingEmpty(row)
		if len(row) < 4 {
			continue
		}

		text := strings.TrimSpace(row[0])
		options := make([]string, 0, len(row)-2)
		for _, o := range row[1 : len(row)-1] {
			if o = strings.TrimSpace(o); o != "" {
				options = append(options, o)
			}
		}

		answer, ok := parseAnswer(row[len(row)-1], options)
		if !ok {
			// Typically the header row.
			continue
		}

		out = append(out, Question{
			ID:            strconv.Itoa(line),
			Text:          text,
			Options:       options,
			CorrectAnswer: answer,
		})
	}

	return out, nil
}

func parseAnswer(field string, options []string) (int, bool) {
	field = strings.TrimSpace(field)
	if field == "" {
		return 0, false
	}

	// A single letter or digit is an option label, even when an option's
	// text is that same character.
	if len(field) == 1 {
		c := field[0] | 0x20
		if c >= 'a' && c <= 'z' {
			if i := int(c - 'a'); i < len(options) {
				return i, true
			}
		}
		if n := int(field[0] - '0'); n >= 1 && n <= 9 && n <= len(options) {
			return n - 1, true
		}
	}

	for i, o := range options {
		if strings.EqualFold(o, field) {
			return i, true
		}
	}

	if n, err := strconv.Atoi(field); err == nil && n >= 1 && n <= len(options) {
		return n - 1, true
	}

	return 0, false
}

func trimTrailingEmpty(row []string) []string {
	for len(row) > 0 && strings.TrimSpace(row[len(row)-1]) == "" {
		row = row[:len(row)-1]
	}
	return row
}
