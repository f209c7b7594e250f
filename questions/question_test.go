package questions

import (
	"errors"
	"testing"
)

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		q    Question
		want error
	}{
		{"ok", Question{Text: "q", Options: []string{"a", "b"}, CorrectAnswer: 1}, nil},
		{"blank text", Question{Text: "  ", Options: []string{"a", "b"}}, ErrEmptyText},
		{"one option", Question{Text: "q", Options: []string{"a"}}, ErrTooFewOptions},
		{"no options", Question{Text: "q"}, ErrTooFewOptions},
		{"answer too high", Question{Text: "q", Options: []string{"a", "b"}, CorrectAnswer: 2}, ErrAnswerOutOfRange},
		{"answer negative", Question{Text: "q", Options: []string{"a", "b"}, CorrectAnswer: -1}, ErrAnswerOutOfRange},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.q.Validate()
			if tc.want == nil {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("Validate() = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestSanitizeDropsMalformedAndCopies(t *testing.T) {
	in := []Question{
		{ID: "a", Text: "good", Options: []string{"x", "y"}, CorrectAnswer: 0},
		{ID: "b", Text: "bad", Options: []string{"x"}},
		{Text: "no id", Options: []string{"x", "y", "z"}, CorrectAnswer: 2},
	}

	out := Sanitize(in)
	if len(out) != 2 {
		t.Fatalf("len = %d, want 2", len(out))
	}
	if out[1].ID != "3" {
		t.Errorf("generated id = %q, want %q", out[1].ID, "3")
	}

	out[0].Options[0] = "changed"
	if in[0].Options[0] != "x" {
		t.Errorf("Sanitize shares option slices with its input")
	}
}

func TestDefaultIsValidAndFresh(t *testing.T) {
	a := Default()
	if len(a) != 10 {
		t.Fatalf("len(Default()) = %d, want 10", len(a))
	}
	for _, q := range a {
		if err := q.Validate(); err != nil {
			t.Errorf("default question %s: %v", q.ID, err)
		}
	}

	a[0].Text = "mutated"
	if Default()[0].Text == "mutated" {
		t.Errorf("Default() returned shared storage")
	}
}
