package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"spesecli/internal/cli"
	"spesecli/internal/log"
	"spesecli/internal/view"
)

const disposeTimeout = 10 * time.Second

// app is built by the root pre-run hook and shared by every subcommand.
var app *cli.App

var rootCmd = &cobra.Command{
	Use:   "spese",
	Short: "Track expenses, budgets and monthly reports",
	Long: `spese talks to the expense tracker API. Log in once; the session is kept
in the local store and reused by later commands until you log out.`,
	SilenceUsage:       true,
	SilenceErrors:      true,
	PersistentPreRunE:  setupApp,
	PersistentPostRunE: disposeApp,
}

func init() {
	rootCmd.PersistentFlags().String("env-file", ".env", "Environment file to load before reading configuration")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error); overrides LOG_LEVEL")
}

func setupApp(cmd *cobra.Command, args []string) error {
	if !needsApp(cmd) {
		return nil
	}
	envFile, _ := cmd.Flags().GetString("env-file")
	if err := cli.LoadEnvFile(envFile); err != nil {
		return err
	}

	level, _ := cmd.Flags().GetString("log-level")
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	if level == "" {
		level = "error"
	}
	logger := cli.SetupLogger(level, os.Getenv("LOG_FORMAT"))

	cfg, err := cli.LoadAndValidateConfig(logger)
	if err != nil {
		return err
	}

	a := cli.NewApp(cfg, logger)
	if err := a.Initialize(cmd.Context()); err != nil {
		// partially built components still hold storage open
		_ = a.Dispose(context.Background())
		return err
	}
	app = a
	return nil
}

// needsApp is false for cobra's built-in help and completion commands.
func needsApp(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "help", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
			return false
		}
	}
	return true
}

func disposeApp(cmd *cobra.Command, args []string) error {
	if app == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), disposeTimeout)
	defer cancel()
	err := app.Dispose(ctx)
	app = nil
	return err
}

// errNotLoggedIn is returned by commands that need a session when none is
// stored.
var errNotLoggedIn = errors.New("not logged in, run 'spese login' first")

// errNotFound is returned when an ID given on the command line matches no
// record the server returned.
var errNotFound = errors.New("not found")

// reportError prints err the way the notifier would show it. Errors raised
// before the app exists, and local usage errors, are printed as they are.
func reportError(w io.Writer, err error) {
	var uerr *usageError
	switch {
	case errors.As(err, &uerr):
		fmt.Fprintf(w, "Error: %v\nRun '%s --help' for usage.\n", uerr.err, uerr.command)
	case app == nil, errors.Is(err, errNotLoggedIn), errors.Is(err, errNotFound):
		fmt.Fprintf(w, "Error: %v\n", err)
	default:
		if n, ok := app.Notifier.Notify(err); ok {
			printNotification(w, n)
		}
	}
	if app == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), disposeTimeout)
	defer cancel()
	if derr := app.Dispose(ctx); derr != nil {
		app.Logger.Warn("Dispose failed", log.FieldError, derr)
	}
	app = nil
}

// requireSession fails fast when no one is logged in.
func requireSession() error {
	if _, ok := app.Session.Current(); !ok {
		return errNotLoggedIn
	}
	return nil
}

func printNotification(w io.Writer, n view.Notification) {
	fmt.Fprintln(w, noteStyle(n.Level).Render(n.Title+": "+n.Message))
}

// usageError marks a bad flag combination detected inside RunE.
type usageError struct {
	command string
	err     error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func newUsageError(cmd *cobra.Command, format string, args ...any) error {
	return &usageError{command: cmd.CommandPath(), err: fmt.Errorf(format, args...)}
}
