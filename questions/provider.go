package questions

import (
	"context"
	"time"
)

// Provider fetches an ordered question list from somewhere outside the game.
type Provider interface {
	FetchQuestions(ctx context.Context) ([]Question, error)
}

// ProviderFunc adapts a plain function to Provider.
type ProviderFunc func(ctx context.Context) ([]Question, error)

func (f ProviderFunc) FetchQuestions(ctx context.Context) ([]Question, error) {
	return f(ctx)
}

// Static always returns the same set.
type Static []Question

func (s Static) FetchQuestions(context.Context) ([]Question, error) {
	return Sanitize(s), nil
}

// Loader turns a question source id into a complete, validated question set.
//
// A non-empty source id names a spreadsheet; its questions replace the base
// set whenever it yields at least one usable record. An empty id uses the
// base set with the optional extras feed appended. Every failure path ends
// at the bundled defaults, so Load never returns an empty list.
type Loader struct {
	// Base supplies the question bank. Nil means the bundled defaults.
	Base Provider

	// Extras are appended to the base set when no source id is given.
	Extras Provider

	// Sheet builds the provider for a spreadsheet id. Nil disables sheets.
	Sheet func(id string) Provider

	// Timeout bounds a single Load. Zero means no extra deadline.
	Timeout time.Duration

	// Logf receives provider failures. May be nil.
	Logf func(format string, args ...any)
}

func (l *Loader) Load(ctx context.Context, sourceID string) []Question {
	if l.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.Timeout)
		defer cancel()
	}

	if sourceID != "" {
		if l.Sheet == nil {
			l.logf("QUESTIONS: Spreadsheet %q requested but spreadsheets are disabled", sourceID)
		} else if qs := l.fetch(ctx, "spreadsheet "+sourceID, l.Sheet(sourceID)); len(qs) > 0 {
			return qs
		}
	}

	base := Default()
	if l.Base != nil {
		if qs := l.fetch(ctx, "question bank", l.Base); len(qs) > 0 {
			base = qs
		}
	}

	if sourceID == "" && l.Extras != nil {
		base = append(base, l.fetch(ctx, "extras feed", l.Extras)...)
	}

	return base
}

func (l *Loader) fetch(ctx context.Context, name string, p Provider) []Question {
	raw, err := p.FetchQuestions(ctx)
	if err != nil {
		l.logf("QUESTIONS: Failed to load from %s: %v", name, err)
		return nil
	}

	qs := Sanitize(raw)
	if dropped := len(raw) - len(qs); dropped > 0 {
		l.logf("QUESTIONS: Skipped %d malformed record(s) from %s", dropped, name)
	}
	if len(qs) == 0 {
		l.logf("QUESTIONS: %s: %v", name, ErrNoQuestions)
	}

	return qs
}

func (l *Loader) logf(format string, args ...any) {
	if l.Logf != nil {
		l.Logf(format, args...)
	}
}
