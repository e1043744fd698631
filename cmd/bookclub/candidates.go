package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aretw0/bookclub/pkg/export"
)

var candidatesCmd = &cobra.Command{
	Use:     "candidates",
	Aliases: []string{"candidatos"},
	Short:   "Review signups in the configured record store",
}

var candidatesLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List candidates, newest first",
	Run: func(cmd *cobra.Command, args []string) {
		app := mustLoadApp(cmd)
		defer app.Close()

		records, err := app.Records.List(cmd.Context())
		if err != nil {
			fmt.Printf("Error listing candidates: %v\n", err)
			os.Exit(1)
		}
		if len(records) == 0 {
			fmt.Println("No candidates yet.")
			return
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tCREATED\tNAME\tPHONE\tAVAILABILITY")
		for _, r := range records {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				r.ID, r.CreatedAt.Local().Format("02/01/2006 15:04"), r.FullName, r.Phone, r.Availability)
		}
		_ = tw.Flush()
	},
}

var candidatesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every candidate as CSV to stdout",
	Run: func(cmd *cobra.Command, args []string) {
		app := mustLoadApp(cmd)
		defer app.Close()

		records, err := app.Records.List(cmd.Context())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing candidates: %v\n", err)
			os.Exit(1)
		}
		if err := export.WriteCSV(os.Stdout, records); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing CSV: %v\n", err)
			os.Exit(1)
		}
	},
}

var candidatesRmCmd = &cobra.Command{
	Use:   "rm <candidate-id>...",
	Short: "Delete one or more candidates",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		app := mustLoadApp(cmd)
		defer app.Close()
		hasError := false

		for _, id := range args {
			if err := app.Records.Delete(cmd.Context(), id); err != nil {
				fmt.Printf("Error removing '%s': %v\n", id, err)
				hasError = true
			} else {
				fmt.Printf("Removed candidate '%s'\n", id)
			}
		}
		if hasError {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(candidatesCmd)
	candidatesCmd.AddCommand(candidatesLsCmd)
	candidatesCmd.AddCommand(candidatesExportCmd)
	candidatesCmd.AddCommand(candidatesRmCmd)
}
