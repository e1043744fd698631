package flow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aretw0/bookclub/pkg/domain"
	"github.com/aretw0/bookclub/pkg/ports"
	"github.com/google/uuid"
)

// Controller is the state machine of one signup session. It owns the current
// page and the in-progress answer record.
//
// Navigation is clamped and never fails. Only Submit leaves the last question,
// and the busy flag keeps at most one submission in flight.
type Controller struct {
	mu       sync.Mutex
	script   domain.Script
	state    *domain.FlowState
	inserter ports.Inserter
	now      func() time.Time
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) ControllerOption {
	return func(c *Controller) {
		c.now = now
	}
}

// WithSessionID sets the session ID of a new controller. A random UUID is used otherwise.
func WithSessionID(id string) ControllerOption {
	return func(c *Controller) {
		c.state.SessionID = id
	}
}

// NewController starts a flow on the cover page.
func NewController(script domain.Script, inserter ports.Inserter, opts ...ControllerOption) *Controller {
	c := &Controller{
		script:   script,
		state:    domain.NewFlowState(uuid.NewString(), script.Len()),
		inserter: inserter,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resume continues a persisted flow. The step is clamped to the script.
func Resume(script domain.Script, state *domain.FlowState, inserter ports.Inserter, opts ...ControllerOption) *Controller {
	c := &Controller{
		script:   script,
		state:    state.Snapshot(),
		inserter: inserter,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.state.Total = script.Len()
	c.state.Step = clampStep(c.state.Step, c.state.Total)
	return c
}

func clampStep(step, total int) int {
	if step < 0 || total <= 0 {
		return 0
	}
	if step > total-1 {
		return total - 1
	}
	return step
}

// Script returns the page sequence driving the flow.
func (c *Controller) Script() domain.Script {
	return c.script
}

// Step returns the current page index.
func (c *Controller) Step() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Step
}

// State returns a copy of the current state.
func (c *Controller) State() *domain.FlowState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Snapshot()
}

// Busy reports whether a submission is outstanding.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Submitting
}

// Advance moves to the next page. It is a no-op on the last question, on the
// terminal page and while a submission is outstanding.
func (c *Controller) Advance() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.state
	if s.Submitting || s.Step >= c.script.LastQuestion() {
		return false
	}
	c.moveLocked(s.Step + 1)
	return true
}

// Retreat moves to the previous page. It is a no-op on the cover, on the
// terminal page and while a submission is outstanding.
func (c *Controller) Retreat() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.state
	if s.Submitting || s.Step <= 0 || s.Step >= c.script.Terminal() {
		return false
	}
	c.moveLocked(s.Step - 1)
	return true
}

func (c *Controller) moveLocked(step int) {
	c.state.Step = step
	c.state.History = append(c.state.History, step)
	c.state.Notice = ""
	c.touchLocked()
}

func (c *Controller) touchLocked() {
	c.state.UpdatedAt = c.now().UTC()
}

// SetField writes one answer. The phone field is reformatted as it is typed.
func (c *Controller) SetField(field domain.Field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Submitted {
		return domain.ErrAlreadySubmitted
	}
	if c.state.Submitting {
		return ErrSubmissionInFlight
	}
	if field == domain.FieldPhone {
		value = FormatPhone(value)
	}
	if err := c.state.Answers.Set(field, value); err != nil {
		return err
	}
	c.touchLocked()
	return nil
}

// BeginSubmit raises the busy flag and returns the record to hand to the
// collaborator. FinishSubmit must follow.
func (c *Controller) BeginSubmit() (domain.AnswerRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.state
	switch {
	case s.Submitted:
		return domain.AnswerRecord{}, domain.ErrAlreadySubmitted
	case s.Submitting:
		return domain.AnswerRecord{}, ErrSubmissionInFlight
	case s.Step != c.script.LastQuestion():
		return domain.AnswerRecord{}, fmt.Errorf("%w: on page %d", domain.ErrNotReadyToSubmit, s.Step)
	}

	s.Submitting = true
	s.SubmittingAt = c.now().UTC()
	s.SubmitToken = uuid.NewString()
	s.Notice = ""
	c.touchLocked()
	return s.Answers, nil
}

// FinishSubmit lowers the busy flag. On success the flow rests on the terminal
// page; on failure it stays on the last question with a notice.
func (c *Controller) FinishSubmit(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.state
	s.Submitting = false
	s.SubmittingAt = time.Time{}
	s.SubmitToken = ""
	if err != nil {
		s.Notice = SubmitFailureNotice
		c.touchLocked()
		return
	}
	s.Submitted = true
	c.moveLocked(c.script.Terminal())
}

// Submit hands the answer record to the collaborator and waits for it.
// The lock is not held while the collaborator runs.
func (c *Controller) Submit(ctx context.Context) error {
	record, err := c.BeginSubmit()
	if err != nil {
		return err
	}

	err = c.inserter.Insert(ctx, record)
	c.FinishSubmit(err)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSubmissionFailed, err)
	}
	return nil
}

// View renders the current state for presentation.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return NewView(c.script, c.state)
}
