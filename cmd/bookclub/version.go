package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/bookclub"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of bookclub",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "bookclub version %s\n", strings.TrimSpace(bookclub.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
