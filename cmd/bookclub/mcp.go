package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/bookclub/internal/cli"
	"github.com/aretw0/bookclub/pkg/adapters/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Expose the candidate list to MCP clients",
	Long: `Starts a Model Context Protocol server whose tools act as the operator set in
admin.email and admin.password.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		app, err := loadApp(cmd)
		if err != nil {
			return fmt.Errorf("error initializing bookclub: %w", err)
		}
		defer app.Close()

		srv := mcp.NewServer(app.Admin, mcp.Credentials{
			Email:    app.Config.Admin.Email,
			Password: app.Config.Admin.Password,
		}, app.Logger)

		switch transport {
		case "stdio":
			return srv.ServeStdio()
		case "sse":
			sigCtx := cli.NewSignalContext(cmd.Context())
			defer sigCtx.Cancel()
			return srv.ServeSSE(sigCtx, port)
		default:
			return fmt.Errorf("unknown transport %q (want stdio or sse)", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().String("transport", "stdio", "Transport: stdio or sse")
	mcpCmd.Flags().Int("port", 8081, "Port of the SSE transport")
}
