package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/aretw0/bookclub/internal/cli"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fill in the signup from the terminal",
	Long: `Runs the signup page by page. Type the answer and press Enter; "voltar" turns
back a page and "sair" leaves with the session saved. Use --session with a
persistent session store to resume later.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")
		jsonMode, _ := cmd.Flags().GetBool("json")
		plain, _ := cmd.Flags().GetBool("plain")
		quiet, _ := cmd.Flags().GetBool("quiet")

		app, err := loadApp(cmd)
		if err != nil {
			return fmt.Errorf("error initializing bookclub: %w", err)
		}
		defer app.Close()

		// Glamour output only makes sense on a terminal.
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			plain = true
		}

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		err = app.RunFlow(sigCtx, cli.RunOptions{
			SessionID: sessionID,
			JSON:      jsonMode,
			Plain:     plain,
			Quiet:     quiet,
		})
		if sig := sigCtx.Signal(); sig != nil {
			app.Logger.Debug("Terminal flow stopped by signal", "signal", sig.String())
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringP("session", "s", "", "Session ID to create or resume")
	runCmd.Flags().Bool("json", false, "Exchange JSON lines instead of text")
	runCmd.Flags().Bool("plain", false, "Print raw markdown")
	runCmd.Flags().BoolP("quiet", "q", false, "Skip the banner")
}
