package domain

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestDiff(t *testing.T) {
	tests := []struct {
		name     string
		old      *FlowState
		new      *FlowState
		wantDiff *StateDiff // nil means we expect no diff
	}{
		{
			name: "Initial Load (Old is Nil)",
			old:  nil,
			new: &FlowState{
				SessionID: "sess-1",
				Step:      0,
				Answers:   AnswerRecord{FullName: "Ana"},
				History:   []int{0},
			},
			wantDiff: &StateDiff{
				SessionID: "sess-1",
				Step:      &[]int{0}[0],
				Answers:   map[string]string{"full_name": "Ana"},
				History:   &HistoryDelta{Appended: []int{0}},
			},
		},
		{
			name: "No Changes",
			old: &FlowState{
				SessionID: "sess-1",
				Step:      2,
				Answers:   AnswerRecord{Age: "30"},
				History:   []int{0, 1, 2},
			},
			new: &FlowState{
				SessionID: "sess-1",
				Step:      2,
				Answers:   AnswerRecord{Age: "30"},
				History:   []int{0, 1, 2},
			},
			wantDiff: nil,
		},
		{
			name: "Step Advance",
			old: &FlowState{
				SessionID: "sess-1",
				Step:      1,
				History:   []int{0, 1},
			},
			new: &FlowState{
				SessionID: "sess-1",
				Step:      2,
				History:   []int{0, 1, 2},
			},
			wantDiff: &StateDiff{
				SessionID: "sess-1",
				Step:      &[]int{2}[0],
				History:   &HistoryDelta{Appended: []int{2}},
			},
		},
		{
			name: "Answer Modified",
			old: &FlowState{
				SessionID: "sess-1",
				Step:      3,
				Answers:   AnswerRecord{Phone: "(11) 9"},
			},
			new: &FlowState{
				SessionID: "sess-1",
				Step:      3,
				Answers:   AnswerRecord{Phone: "(11) 98"},
			},
			wantDiff: &StateDiff{
				SessionID: "sess-1",
				Answers:   map[string]string{"phone": "(11) 98"},
			},
		},
		{
			name: "Answer Cleared",
			old: &FlowState{
				Answers: AnswerRecord{Motivation: "livros"},
			},
			new: &FlowState{},
			wantDiff: &StateDiff{
				Answers: map[string]string{"motivation": ""},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(tt.old, tt.new)
			if tt.wantDiff == nil {
				if got != nil {
					t.Errorf("Diff() = %v, want nil", got)
				}
				return
			}

			if got == nil {
				t.Fatalf("Diff() = nil, want %v", tt.wantDiff)
			}

			if got.SessionID != tt.wantDiff.SessionID {
				t.Errorf("Diff().SessionID = %v, want %v", got.SessionID, tt.wantDiff.SessionID)
			}
			if !reflect.DeepEqual(got.Answers, tt.wantDiff.Answers) {
				t.Errorf("Diff().Answers = %v, want %v", got.Answers, tt.wantDiff.Answers)
			}
			if !reflect.DeepEqual(got.History, tt.wantDiff.History) {
				t.Errorf("Diff().History = %v, want %v", got.History, tt.wantDiff.History)
			}
			if !equalPtr(got.Step, tt.wantDiff.Step) {
				t.Errorf("Diff().Step = %v, want %v", got.Step, tt.wantDiff.Step)
			}
		})
	}
}

func TestDiff_BusyFlag(t *testing.T) {
	old := &FlowState{SessionID: "s", Step: 8}
	busy := old.Snapshot()
	busy.Submitting = true

	diff := Diff(old, busy)
	if diff == nil || diff.Submitting == nil || !*diff.Submitting {
		t.Fatalf("expected submitting=true in diff, got %+v", diff)
	}

	done := busy.Snapshot()
	done.Submitting = false
	done.Submitted = true
	done.Step = 9

	diff = Diff(busy, done)
	if diff == nil {
		t.Fatal("expected diff")
	}
	if diff.Submitting == nil || *diff.Submitting {
		t.Errorf("expected submitting=false, got %v", diff.Submitting)
	}
	if diff.Submitted == nil || !*diff.Submitted {
		t.Errorf("expected submitted=true, got %v", diff.Submitted)
	}
}

func TestDiffJSONSerialization(t *testing.T) {
	t.Run("Empty Answers Omitted", func(t *testing.T) {
		s1 := &FlowState{Step: 1}
		s2 := &FlowState{Step: 2}
		diff := Diff(s1, s2)
		if diff == nil {
			t.Fatal("Expected diff, got nil")
		}

		bytes, _ := json.Marshal(diff)
		if strings.Contains(string(bytes), `"answers"`) {
			t.Errorf("JSON should not contain 'answers' when unchanged, got: %s", string(bytes))
		}
	})

	t.Run("Cleared Answer As Empty String", func(t *testing.T) {
		s1 := &FlowState{Answers: AnswerRecord{Age: "30"}}
		s2 := &FlowState{}
		diff := Diff(s1, s2)
		if diff == nil {
			t.Fatal("Expected diff, got nil")
		}

		bytes, _ := json.Marshal(diff)
		if !strings.Contains(string(bytes), `"age":""`) {
			t.Errorf("JSON should contain 'age':\"\" for a cleared field, got: %s", string(bytes))
		}
	})
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}
