package flow

import (
	"github.com/aretw0/bookclub/pkg/book"
	"github.com/aretw0/bookclub/pkg/domain"
)

// PageView is one page of the book with its content and stacking.
type PageView struct {
	book.Page
	Step  domain.Step `json:"step"`
	Value string      `json:"value,omitempty"`
}

// View is the presentation snapshot of a flow. Renderers dispatch on
// Current.Kind and never inspect the controller.
type View struct {
	SessionID string      `json:"session_id"`
	Title     string      `json:"title"`
	Step      int         `json:"step"`
	Total     int         `json:"total"`
	Current   domain.Step `json:"current"`
	Value     string      `json:"value,omitempty"`
	Pages     []PageView  `json:"pages"`

	Answers   domain.AnswerRecord `json:"answers"`
	Busy      bool                `json:"busy"`
	Submitted bool                `json:"submitted"`
	Notice    string              `json:"notice,omitempty"`

	CanAdvance bool `json:"can_advance"`
	CanRetreat bool `json:"can_retreat"`
	CanSubmit  bool `json:"can_submit"`
}

// NewView derives a View from a script and a state.
func NewView(script domain.Script, state *domain.FlowState) View {
	total := script.Len()
	step := clampStep(state.Step, total)

	layout := book.Layout(total, step)
	pages := make([]PageView, len(layout))
	for i, p := range layout {
		pages[i] = PageView{Page: p, Step: script.Steps[i]}
		if f := script.Steps[i].Field; f != "" {
			pages[i].Value = state.Answers.Get(f)
		}
	}

	v := View{
		SessionID: state.SessionID,
		Title:     script.Title,
		Step:      step,
		Total:     total,
		Pages:     pages,
		Answers:   state.Answers,
		Busy:      state.Submitting,
		Submitted: state.Submitted,
		Notice:    state.Notice,
	}
	if total > 0 {
		v.Current = script.Steps[step]
		v.Value = pages[step].Value
	}

	idle := !state.Submitting && !state.Submitted
	v.CanAdvance = idle && step < script.LastQuestion()
	v.CanRetreat = idle && step > 0 && step < script.Terminal()
	v.CanSubmit = idle && step == script.LastQuestion()
	return v
}
