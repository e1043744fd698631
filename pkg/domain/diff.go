package domain

// StateDiff represents the changes between two flow states.
// It is designed to be serialized to JSON for partial updates on the client.
type StateDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	Step       *int    `json:"step,omitempty"`
	Submitting *bool   `json:"submitting,omitempty"`
	Submitted  *bool   `json:"submitted,omitempty"`
	Notice     *string `json:"notice,omitempty"`

	// Answers contains only changed fields, keyed by column name.
	Answers map[string]string `json:"answers,omitempty"`

	// History contains *new* pages appended to the visit history.
	History *HistoryDelta `json:"history,omitempty"`
}

// HistoryDelta represents pages appended to the history.
type HistoryDelta struct {
	Appended []int `json:"appended"`
}

// Diff calculates the difference between oldState and newState.
// If oldState is nil, it returns a diff representing the entire newState (initial load).
// It returns nil when nothing changed.
func Diff(oldState, newState *FlowState) *StateDiff {
	if newState == nil {
		return nil
	}

	diff := &StateDiff{SessionID: newState.SessionID}

	if oldState == nil || oldState.Step != newState.Step {
		diff.Step = &newState.Step
	}
	if oldState == nil {
		if newState.Submitting {
			diff.Submitting = &newState.Submitting
		}
		if newState.Submitted {
			diff.Submitted = &newState.Submitted
		}
		if newState.Notice != "" {
			diff.Notice = &newState.Notice
		}
	} else {
		if oldState.Submitting != newState.Submitting {
			diff.Submitting = &newState.Submitting
		}
		if oldState.Submitted != newState.Submitted {
			diff.Submitted = &newState.Submitted
		}
		if oldState.Notice != newState.Notice {
			diff.Notice = &newState.Notice
		}
	}

	diff.Answers = diffAnswers(oldState, newState)
	diff.History = diffHistory(oldState, newState)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffAnswers(old, new *FlowState) map[string]string {
	delta := make(map[string]string)
	for _, f := range Fields {
		newVal := new.Answers.Get(f)
		if old == nil {
			if newVal != "" {
				delta[string(f)] = newVal
			}
			continue
		}
		if old.Answers.Get(f) != newVal {
			delta[string(f)] = newVal
		}
	}
	if len(delta) == 0 {
		return nil
	}
	return delta
}

// diffHistory assumes standard append-only behavior for History.
func diffHistory(old, new *FlowState) *HistoryDelta {
	if len(new.History) == 0 {
		return nil
	}
	if old == nil {
		return &HistoryDelta{Appended: new.History}
	}
	if len(new.History) > len(old.History) {
		return &HistoryDelta{Appended: new.History[len(old.History):]}
	}
	return nil
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *StateDiff) IsEmpty() bool {
	return d.Step == nil &&
		d.Submitting == nil &&
		d.Submitted == nil &&
		d.Notice == nil &&
		len(d.Answers) == 0 &&
		d.History == nil
}
