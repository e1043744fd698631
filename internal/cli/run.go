package cli

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/aretw0/bookclub/internal/presentation/tui"
	"github.com/aretw0/bookclub/pkg/runner"
)

// RunOptions configures a terminal flow session.
type RunOptions struct {
	SessionID string
	JSON      bool
	Plain     bool
	Quiet     bool
	In        io.Reader
	Out       io.Writer
}

// RunFlow drives one signup from the terminal. Interrupting it keeps the
// session so the same ID resumes where the reader stopped.
func (a *App) RunFlow(ctx context.Context, opts RunOptions) error {
	in, out := opts.In, opts.Out
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}

	var handler runner.IOHandler
	switch {
	case opts.JSON:
		handler = runner.NewJSONHandler(in, out)
	case opts.Plain:
		handler = runner.NewTextHandler(in, out)
	default:
		handler = runner.NewTextHandler(in, out, runner.WithTextHandlerRenderer(tui.NewRenderer()))
	}

	if !opts.JSON && !opts.Quiet {
		tui.PrintBanner(out)
	}

	r := runner.NewRunner(
		runner.WithLogger(a.Logger),
		runner.WithSessionID(opts.SessionID),
		runner.WithInputHandler(handler),
	)

	view, err := r.Run(ctx, a.Flows)
	if errors.Is(err, context.Canceled) {
		if !opts.JSON {
			PrintSystemMessage(out, "Interrompido. Sessão: %s", r.SessionID)
		}
		return nil
	}
	if err != nil {
		return err
	}
	if view.Submitted {
		a.Logger.Info("Signup completed from terminal", "session_id", r.SessionID)
	}
	return nil
}
