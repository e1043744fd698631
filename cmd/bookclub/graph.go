package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/bookclub/internal/presentation/graph"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the step script as a Mermaid diagram",
	Long: `Outputs a Mermaid flowchart (graph TD) of the configured step script. With
--session, the pages the reader visited and the current page are highlighted.`,
	Run: func(cmd *cobra.Command, args []string) {
		sessionID, _ := cmd.Flags().GetString("session")

		app := mustLoadApp(cmd)
		defer app.Close()

		var overlay *graph.GraphOverlay
		if sessionID != "" {
			state, err := app.States.Load(cmd.Context(), sessionID)
			if err != nil {
				fmt.Printf("Error loading session '%s': %v\n", sessionID, err)
				os.Exit(1)
			}
			overlay = graph.OverlayFrom(state)
		}

		fmt.Print(graph.GenerateMermaid(app.Script, overlay))
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the step script for consistency",
	Long:  `Loads the script given by --script (or the built-in one) and reports layout errors.`,
	Run: func(cmd *cobra.Command, args []string) {
		app, err := loadApp(cmd)
		if err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}
		defer app.Close()
		fmt.Printf("Script is valid! %d pages, %d questions.\n", app.Script.Len(), app.Script.Len()-2)
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(validateCmd)
	graphCmd.Flags().StringP("session", "s", "", "Highlight the progress of this session")
}
