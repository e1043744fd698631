package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/aretw0/bookclub/internal/logging"
	"github.com/aretw0/bookclub/pkg/domain"
	"github.com/aretw0/bookclub/pkg/flow"
)

// ErrInvalidOption is reported when a choice answer matches no option.
var ErrInvalidOption = errors.New("invalid option")

// Flows is the part of the flow service the runner drives.
type Flows interface {
	Start(ctx context.Context, sessionID string) (flow.View, error)
	Advance(ctx context.Context, sessionID string) (flow.View, error)
	Retreat(ctx context.Context, sessionID string) (flow.View, error)
	SetField(ctx context.Context, sessionID string, field domain.Field, value string) (flow.View, error)
	Submit(ctx context.Context, sessionID string) (flow.View, error)
}

// Runner drives a signup flow from a line-oriented interface.
// It uses an IOHandler strategy to abstract the interaction mode (Text vs JSON).
type Runner struct {
	// Handler is the strategy for IO. If nil, a TextHandler on Stdin/Stdout is used.
	Handler IOHandler

	// Logger is used for internal debug logging.
	Logger *slog.Logger

	// SessionID names the persisted session. Empty starts a fresh one.
	SessionID string

	// Renderer transforms page markdown for the default text handler.
	Renderer ContentRenderer
}

// NewRunner creates a new Runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		Logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.SessionID == "" {
		r.SessionID = uuid.NewString()
	}
	if r.Handler == nil {
		r.Handler = NewTextHandler(os.Stdin, os.Stdout, WithTextHandlerRenderer(r.Renderer))
	}
	return r
}

const (
	cmdBack = "voltar"
	cmdExit = "sair"
)

func isExit(s string) bool {
	switch strings.ToLower(s) {
	case cmdExit, "exit", "quit":
		return true
	}
	return false
}

func isBack(s string) bool {
	return strings.EqualFold(s, cmdBack) || s == "<"
}

// Run executes the loop until the flow is submitted or the reader leaves.
// Leaving keeps the session; running again with the same SessionID resumes it.
func (r *Runner) Run(ctx context.Context, flows Flows) (flow.View, error) {
	view, err := flows.Start(ctx, r.SessionID)
	if err != nil {
		return flow.View{}, fmt.Errorf("failed to start session: %w", err)
	}
	r.Logger.Debug("Runner started", "session_id", r.SessionID, "step", view.Step)

	for {
		if err := r.Handler.Output(ctx, view); err != nil {
			return view, fmt.Errorf("failed to render: %w", err)
		}
		if view.Submitted {
			return view, nil
		}

		line, err := r.Handler.Input(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return view, r.leave(ctx)
			}
			return view, err
		}
		line = strings.TrimSpace(line)

		if isExit(line) {
			return view, r.leave(ctx)
		}

		next, err := r.step(ctx, flows, view, line)
		switch {
		case err == nil:
			view = next
		case errors.Is(err, ErrInvalidOption), errors.Is(err, ErrInputTooLarge), errors.Is(err, ErrInvalidUTF8):
			if err := r.Handler.SystemOutput(ctx, hintFor(view, err)); err != nil {
				return view, err
			}
		case errors.Is(err, flow.ErrSubmissionFailed), errors.Is(err, flow.ErrSubmissionInFlight):
			// The notice travels with the view.
			r.Logger.Warn("Submission not accepted", "session_id", r.SessionID, "err", err)
			view = next
		default:
			return view, err
		}
	}
}

func (r *Runner) leave(ctx context.Context) error {
	return r.Handler.SystemOutput(ctx, fmt.Sprintf("Progresso salvo. Sessão: %s", r.SessionID))
}

func (r *Runner) step(ctx context.Context, flows Flows, view flow.View, line string) (flow.View, error) {
	if isBack(line) {
		return flows.Retreat(ctx, r.SessionID)
	}

	if field := view.Current.Field; field != "" && line != "" {
		value, err := SanitizeInput(line)
		if err != nil {
			return view, err
		}
		if view.Current.Kind == domain.StepChoice {
			if value, err = matchOption(view.Current.Options, value); err != nil {
				return view, err
			}
		}
		if view, err = flows.SetField(ctx, r.SessionID, field, value); err != nil {
			return view, err
		}
	}

	switch {
	case view.CanSubmit:
		return flows.Submit(ctx, r.SessionID)
	case view.CanAdvance:
		return flows.Advance(ctx, r.SessionID)
	}
	return view, nil
}

// matchOption accepts a 1-based number or the option text, ignoring case.
func matchOption(options []string, value string) (string, error) {
	if n, err := strconv.Atoi(value); err == nil {
		if n >= 1 && n <= len(options) {
			return options[n-1], nil
		}
		return "", fmt.Errorf("%w: %d", ErrInvalidOption, n)
	}
	for _, opt := range options {
		if strings.EqualFold(opt, value) {
			return opt, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidOption, value)
}

func hintFor(view flow.View, err error) string {
	switch {
	case errors.Is(err, ErrInvalidOption):
		return fmt.Sprintf("Opção inválida. Escolha um número de 1 a %d.", len(view.Current.Options))
	case errors.Is(err, ErrInputTooLarge):
		return "Resposta muito longa."
	}
	return "Resposta inválida."
}
