package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/bookclub/internal/cli"
	"github.com/aretw0/bookclub/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "bookclub",
	Short: "Signup book and dashboard for the Club Livro",
	Long: `bookclub runs the paged signup form of the club (in the browser or the terminal)
and the operator dashboard that lists, exports and shares the candidates.

Settings come from defaults, an optional YAML file (--config), BOOKCLUB_*
environment variables and flags, each overriding the previous.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	pf := rootCmd.PersistentFlags()
	pf.StringP("config", "c", "", "YAML configuration file")
	pf.String("log-level", "info", "Log level (debug, info, warn, error)")
	pf.String("log-format", "text", "Log format (text, json)")
	pf.String("session-store", config.StoreMemory, "Flow session store (memory, file, redis)")
	pf.String("session-dir", ".bookclub/sessions", "Directory of the file session store")
	pf.String("record-store", config.StoreMemory, "Candidate store (memory, redis, postgrest, firebase)")
	pf.String("script", "", "YAML step script replacing the built-in signup")
}

// loadApp reads the configuration and wires the app for cmd.
func loadApp(cmd *cobra.Command) (*cli.App, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return nil, err
	}
	logger := cli.NewLogger(cfg.Log)
	return cli.Build(cmd.Context(), cfg, logger)
}

// mustLoadApp is loadApp for commands that cannot continue without one.
func mustLoadApp(cmd *cobra.Command) *cli.App {
	app, err := loadApp(cmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing bookclub: %v\n", err)
		os.Exit(1)
	}
	return app
}
