package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/bookclub/pkg/domain"
)

// LogHooks returns lifecycle hooks that write one structured line per event.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnSessionStart: func(ctx context.Context, e *domain.StepEvent) {
			logger.InfoContext(ctx, "session_start", "session_id", e.SessionID)
		},
		OnStepEnter: func(ctx context.Context, e *domain.StepEvent) {
			logger.DebugContext(ctx, "step_enter",
				"session_id", e.SessionID,
				"step", e.Step,
				"kind", e.StepKind,
				"from", e.From,
			)
		},
		OnStepLeave: func(ctx context.Context, e *domain.StepEvent) {
			logger.DebugContext(ctx, "step_leave", "session_id", e.SessionID, "step", e.Step)
		},
		OnSubmitStart: func(ctx context.Context, e *domain.SubmitEvent) {
			logger.InfoContext(ctx, "submit_start", "session_id", e.SessionID)
		},
		OnSubmitFinished: func(ctx context.Context, e *domain.SubmitEvent) {
			if e.Failed() {
				logger.WarnContext(ctx, "submit_finished",
					"session_id", e.SessionID,
					"duration", e.Duration,
					"error", e.Err,
				)
				return
			}
			logger.InfoContext(ctx, "submit_finished", "session_id", e.SessionID, "duration", e.Duration)
		},
	}
}
