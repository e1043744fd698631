package domain

import "time"

// FlowState is the persisted snapshot of one signup session.
type FlowState struct {
	SessionID string `json:"session_id"`

	// Step is the current page index in [0, Total-1].
	Step int `json:"step"`
	// Total is the number of pages of the script the session was started with.
	Total int `json:"total"`

	// Answers holds the in-progress answer record.
	Answers AnswerRecord `json:"answers"`

	// Submitting is the busy flag: a submission has been handed to the collaborator
	// and has not resolved yet.
	// SubmittingAt is renewed while the submitter is alive. SubmitToken tells
	// one raised flag from the next.
	Submitting   bool      `json:"submitting,omitempty"`
	SubmittingAt time.Time `json:"submitting_at,omitempty"`
	SubmitToken  string    `json:"submit_token,omitempty"`

	// Submitted is set once the collaborator accepted the record. The flow then
	// rests on the terminal page.
	Submitted bool `json:"submitted,omitempty"`

	// Notice is a user-visible message about the last failed operation.
	Notice string `json:"notice,omitempty"`

	// History tracks the pages visited, in order.
	History []int `json:"history,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Sealed carries an encrypted copy of the whole state. Stores written
	// through the encryption middleware hold only envelopes.
	Sealed string `json:"sealed,omitempty"`
}

// NewFlowState creates a clean state on the cover page.
func NewFlowState(sessionID string, total int) *FlowState {
	now := time.Now().UTC()
	return &FlowState{
		SessionID: sessionID,
		Step:      0,
		Total:     total,
		History:   []int{0},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Snapshot creates a deep copy of the state.
func (s *FlowState) Snapshot() *FlowState {
	if s == nil {
		return nil
	}
	cp := *s
	if s.History != nil {
		cp.History = make([]int, len(s.History))
		copy(cp.History, s.History)
	}
	return &cp
}
