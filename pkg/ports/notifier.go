package ports

import (
	"context"

	"github.com/aretw0/bookclub/pkg/domain"
)

// Notifier is told about records the submission collaborator accepted.
// Notification failures never fail the submission.
type Notifier interface {
	Notify(ctx context.Context, record domain.AnswerRecord) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, record domain.AnswerRecord) error

func (f NotifierFunc) Notify(ctx context.Context, record domain.AnswerRecord) error {
	return f(ctx, record)
}
