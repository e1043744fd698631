package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/aretw0/bookclub/internal/config"
	"github.com/aretw0/bookclub/pkg/ports"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage dashboard operators",
}

var adminCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register an operator with the configured authenticator",
	Long: `Signs up an operator account. The password is read from the terminal without
echo, or from the first line of stdin when it is not a terminal.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		name, _ := cmd.Flags().GetString("name")
		if strings.TrimSpace(email) == "" {
			return errors.New("--email is required")
		}

		app, err := loadApp(cmd)
		if err != nil {
			return fmt.Errorf("error initializing bookclub: %w", err)
		}
		defer app.Close()

		reg, ok := app.Auth.(ports.Registrar)
		if !ok {
			return errors.New("the configured authenticator cannot register operators")
		}
		if app.Config.Admin.Auth == config.StoreMemory {
			fmt.Fprintln(os.Stderr, "Warning: the memory authenticator forgets operators on exit; set admin.auth=postgrest to keep them.")
		}

		password, err := readPassword()
		if err != nil {
			return err
		}
		if password == "" {
			return errors.New("password must not be empty")
		}

		if err := reg.SignUp(cmd.Context(), email, password, name); err != nil {
			return fmt.Errorf("sign up failed: %w", err)
		}
		fmt.Printf("Operator '%s' created.\n", email)
		return nil
	},
}

func readPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, "Senha: ")
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(adminCreateCmd)
	adminCreateCmd.Flags().String("email", "", "Operator e-mail")
	adminCreateCmd.Flags().String("name", "", "Operator full name")
}
