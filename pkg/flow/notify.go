package flow

import (
	"context"
	"log/slog"

	"github.com/aretw0/bookclub/internal/logging"
	"github.com/aretw0/bookclub/pkg/domain"
	"github.com/aretw0/bookclub/pkg/ports"
)

// NotifyingInserter tells every notifier about records the inner inserter
// accepted. Notifier failures are logged and never fail the submission.
type NotifyingInserter struct {
	inner     ports.Inserter
	notifiers []ports.Notifier
	logger    *slog.Logger
}

// NewNotifyingInserter decorates inner. A nil logger discards notifier errors.
func NewNotifyingInserter(inner ports.Inserter, logger *slog.Logger, notifiers ...ports.Notifier) *NotifyingInserter {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &NotifyingInserter{inner: inner, notifiers: notifiers, logger: logger}
}

// Insert implements ports.Inserter.
func (n *NotifyingInserter) Insert(ctx context.Context, record domain.AnswerRecord) error {
	if err := n.inner.Insert(ctx, record); err != nil {
		return err
	}
	for _, notifier := range n.notifiers {
		if err := notifier.Notify(ctx, record); err != nil {
			n.logger.Warn("Notifier failed", "err", err)
		}
	}
	return nil
}
