/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package questions supplies the multiple-choice records a race is played
// over, and the providers they can be loaded from.
package questions

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoQuestions      = errors.New("no usable questions")
	ErrEmptyText        = errors.New("question text is empty")
	ErrTooFewOptions    = errors.New("question needs at least two options")
	ErrAnswerOutOfRange = errors.New("correct answer index is out of range")
)

// Question is immutable once loaded.
type Question struct {
	ID            string   `json:"id"`
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
}

func (q Question) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return ErrEmptyText
	}
	if len(q.Options) < 2 {
		return fmt.Errorf("%w (got %d)", ErrTooFewOptions, len(q.Options))
	}
	if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
		return fmt.Errorf("%w: %d of %d", ErrAnswerOutOfRange, q.CorrectAnswer, len(q.Options))
	}
	return nil
}

// IsCorrect reports whether option is the right answer.
func (q Question) IsCorrect(option int) bool {
	return option == q.CorrectAnswer
}

// Sanitize drops malformed records and returns deep copies of the rest, so
// callers can never mutate a loaded set through a shared options slice.
// Records without an id get their 1-based position as one.
func Sanitize(qs []Question) []Question {
	out := make([]Question, 0, len(qs))
	for i, q := range qs {
		if q.Validate() != nil {
			continue
		}
		if q.ID == "" {
			q.ID = fmt.Sprintf("%d", i+1)
		}
		q.Options = append([]string(nil), q.Options...)
		out = append(out, q)
	}
	return out
}
