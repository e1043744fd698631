package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventSessionStart   EventType = "session_start"
	EventStepEnter      EventType = "step_enter"
	EventStepLeave      EventType = "step_leave"
	EventSubmitStart    EventType = "submit_start"
	EventSubmitFinished EventType = "submit_finished"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// StepEvent represents entry or exit from a page of the book.
type StepEvent struct {
	EventBase
	Step     int      `json:"step"`
	StepKind StepKind `json:"step_kind"`
	// From is the page the reader left; only set on step_enter.
	From int `json:"from,omitempty"`
}

// SubmitEvent represents a submission handed to the collaborator.
type SubmitEvent struct {
	EventBase
	Duration time.Duration `json:"duration,omitempty"`
	Err      error         `json:"-"`
}

// Failed reports whether the submission was rejected.
func (e *SubmitEvent) Failed() bool {
	return e.Err != nil
}

// LifecycleHooks defines callbacks for flow observability.
// Nil callbacks are skipped.
type LifecycleHooks struct {
	OnSessionStart   func(context.Context, *StepEvent)
	OnStepEnter      func(context.Context, *StepEvent)
	OnStepLeave      func(context.Context, *StepEvent)
	OnSubmitStart    func(context.Context, *SubmitEvent)
	OnSubmitFinished func(context.Context, *SubmitEvent)
}

// CombineHooks fans every callback out to all the given hooks, in order.
func CombineHooks(all ...LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnSessionStart: func(ctx context.Context, e *StepEvent) {
			for _, h := range all {
				if h.OnSessionStart != nil {
					h.OnSessionStart(ctx, e)
				}
			}
		},
		OnStepEnter: func(ctx context.Context, e *StepEvent) {
			for _, h := range all {
				if h.OnStepEnter != nil {
					h.OnStepEnter(ctx, e)
				}
			}
		},
		OnStepLeave: func(ctx context.Context, e *StepEvent) {
			for _, h := range all {
				if h.OnStepLeave != nil {
					h.OnStepLeave(ctx, e)
				}
			}
		},
		OnSubmitStart: func(ctx context.Context, e *SubmitEvent) {
			for _, h := range all {
				if h.OnSubmitStart != nil {
					h.OnSubmitStart(ctx, e)
				}
			}
		},
		OnSubmitFinished: func(ctx context.Context, e *SubmitEvent) {
			for _, h := range all {
				if h.OnSubmitFinished != nil {
					h.OnSubmitFinished(ctx, e)
				}
			}
		},
	}
}
