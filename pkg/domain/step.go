package domain

import (
	"errors"
	"fmt"
)

// StepKind defines how a page of the book is rendered and what it collects.
type StepKind string

const (
	// StepCover is the opening page. It collects nothing.
	StepCover StepKind = "cover"
	// StepText collects a single-line answer.
	StepText StepKind = "text"
	// StepChoice collects one of a fixed set of options.
	StepChoice StepKind = "choice"
	// StepFreeText collects a multi-line answer.
	StepFreeText StepKind = "free_text"
	// StepTerminal acknowledges a successful submission. It is reached only by Submit.
	StepTerminal StepKind = "terminal"
)

// IsQuestion reports whether the step collects an answer field.
func (k StepKind) IsQuestion() bool {
	return k == StepText || k == StepChoice || k == StepFreeText
}

// Step describes one page of the signup book.
type Step struct {
	Kind StepKind `json:"kind" yaml:"kind"`

	// Section is the small heading above the question (e.g. "Perfil").
	Section string `json:"section,omitempty" yaml:"section,omitempty"`
	// Title is the large heading. Used by cover and terminal pages.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`
	// Label is the question text.
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
	// Body holds extra lines shown on cover and terminal pages.
	Body []string `json:"body,omitempty" yaml:"body,omitempty"`

	// Field is the answer collected by a question step.
	Field       Field    `json:"field,omitempty" yaml:"field,omitempty"`
	Placeholder string   `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	InputType   string   `json:"input_type,omitempty" yaml:"input_type,omitempty"` // text, number, tel
	Options     []string `json:"options,omitempty" yaml:"options,omitempty"`
}

// Script is the ordered sequence of pages of one flow.
type Script struct {
	Title string `json:"title" yaml:"title"`
	Steps []Step `json:"steps" yaml:"steps"`
}

// ErrInvalidScript is returned when a script cannot drive a flow.
var ErrInvalidScript = errors.New("invalid script")

// Len returns the total number of pages (N).
func (s Script) Len() int {
	return len(s.Steps)
}

// LastQuestion returns the index of the step that submits (N-2).
func (s Script) LastQuestion() int {
	return len(s.Steps) - 2
}

// Terminal returns the index of the acknowledgment page (N-1).
func (s Script) Terminal() int {
	return len(s.Steps) - 1
}

// Validate checks the page layout: a cover first, a terminal last and exactly
// one known, unique field per question in between.
func (s Script) Validate() error {
	if len(s.Steps) < 3 {
		return fmt.Errorf("%w: need at least a cover, one question and a terminal page, got %d pages", ErrInvalidScript, len(s.Steps))
	}
	if s.Steps[0].Kind != StepCover {
		return fmt.Errorf("%w: first page must be %q, got %q", ErrInvalidScript, StepCover, s.Steps[0].Kind)
	}
	if last := s.Steps[s.Terminal()]; last.Kind != StepTerminal {
		return fmt.Errorf("%w: last page must be %q, got %q", ErrInvalidScript, StepTerminal, last.Kind)
	}

	seen := make(map[Field]int)
	for i := 1; i < s.Terminal(); i++ {
		step := s.Steps[i]
		if !step.Kind.IsQuestion() {
			return fmt.Errorf("%w: page %d must be a question, got %q", ErrInvalidScript, i, step.Kind)
		}
		if !step.Field.IsKnown() {
			return fmt.Errorf("%w: page %d: %w %q", ErrInvalidScript, i, ErrUnknownField, step.Field)
		}
		if prev, dup := seen[step.Field]; dup {
			return fmt.Errorf("%w: field %q asked on pages %d and %d", ErrInvalidScript, step.Field, prev, i)
		}
		seen[step.Field] = i
		if step.Kind == StepChoice && len(step.Options) == 0 {
			return fmt.Errorf("%w: choice page %d has no options", ErrInvalidScript, i)
		}
	}
	return nil
}
