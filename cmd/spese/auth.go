package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"spesecli/internal/cli"
)

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(statusCmd)

	loginCmd.Flags().StringP("email", "e", "", "Account email (prompted when empty)")
	registerCmd.Flags().StringP("name", "n", "", "Display name (prompted when empty)")
	registerCmd.Flags().StringP("email", "e", "", "Account email (prompted when empty)")
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and remember the session",
	Args:  cobra.NoArgs,
	RunE:  runLogin,
}

func runLogin(cmd *cobra.Command, args []string) error {
	in := bufio.NewReader(os.Stdin)
	email, _ := cmd.Flags().GetString("email")
	email, err := promptIfEmpty(in, email, "Email")
	if err != nil {
		return err
	}
	password, err := cli.PromptPassword(in, os.Stdout, "Password")
	if err != nil {
		return err
	}

	s, err := app.Session.Login(cmd.Context(), email, password)
	if err != nil {
		return err
	}
	note := app.Notifier.Success("Success", fmt.Sprintf("Logged in as %s", s.Name))
	printNotification(os.Stdout, note)
	return nil
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and log in",
	Args:  cobra.NoArgs,
	RunE:  runRegister,
}

func runRegister(cmd *cobra.Command, args []string) error {
	in := bufio.NewReader(os.Stdin)
	name, _ := cmd.Flags().GetString("name")
	email, _ := cmd.Flags().GetString("email")

	name, err := promptIfEmpty(in, name, "Name")
	if err != nil {
		return err
	}
	email, err = promptIfEmpty(in, email, "Email")
	if err != nil {
		return err
	}
	password, err := cli.PromptPassword(in, os.Stdout, "Password")
	if err != nil {
		return err
	}
	confirm, err := cli.PromptPassword(in, os.Stdout, "Confirm password")
	if err != nil {
		return err
	}
	if password != confirm {
		return newUsageError(cmd, "passwords do not match")
	}

	s, err := app.Register(cmd.Context(), name, email, password)
	if err != nil {
		return err
	}
	note := app.Notifier.Success("Success", fmt.Sprintf("Account created for %s", s.Email))
	printNotification(os.Stdout, note)
	return nil
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

func runLogout(cmd *cobra.Command, args []string) error {
	if err := app.Session.Logout(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, "Logged out")
	return nil
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged in user",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

func runWhoami(cmd *cobra.Command, args []string) error {
	s, ok := app.Session.Current()
	if !ok {
		return errNotLoggedIn
	}
	fmt.Fprintf(os.Stdout, "%s <%s>\n", s.Name, s.Email)
	return nil
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the API and its database",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	st := app.Health.Check(cmd.Context())
	fmt.Fprintf(os.Stdout, "API:      %s\n", upDown(st.ServiceUp))
	fmt.Fprintf(os.Stdout, "Database: %s\n", upDown(st.DataStoreUp))
	fmt.Fprintf(os.Stdout, "Session:  %s\n", app.Session.State())
	return app.Health.Guard()
}

func upDown(ok bool) string {
	if ok {
		return "up"
	}
	return "down"
}

func promptIfEmpty(in *bufio.Reader, value, label string) (string, error) {
	if v := strings.TrimSpace(value); v != "" {
		return v, nil
	}
	return cli.PromptText(in, os.Stdout, label)
}
