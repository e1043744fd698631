package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/bookclub/pkg/domain"
	"github.com/aretw0/bookclub/pkg/ports"
)

// Mask replaces every masked answer.
const Mask = "***"

type piiMiddleware struct {
	next     ports.StateStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks answers whose field name
// matches one of the patterns. Masking is lossy: use it for stores that only
// archive sessions, not for the store a live flow resumes from.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.StateStore) ports.StateStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Save(ctx context.Context, sessionID string, state *domain.FlowState) error {
	// Clone so the caller's in-memory state keeps the real answers.
	cloned := state.Snapshot()
	for _, f := range domain.Fields {
		if cloned.Answers.Get(f) == "" || !m.matches(string(f)) {
			continue
		}
		_ = cloned.Answers.Set(f, Mask)
	}
	return m.next.Save(ctx, sessionID, cloned)
}

func (m *piiMiddleware) matches(field string) bool {
	for _, p := range m.patterns {
		if p.MatchString(field) {
			return true
		}
	}
	return false
}

func (m *piiMiddleware) Load(ctx context.Context, sessionID string) (*domain.FlowState, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *piiMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
