package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// readPassword is swapped in tests to avoid touching the terminal.
var readPassword = term.ReadPassword

// isTerminal reports whether stdin is interactive.
var isTerminal = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }

// PromptText writes prompt to w and reads one trimmed line from r.
func PromptText(r *bufio.Reader, w io.Writer, prompt string) (string, error) {
	if _, err := fmt.Fprint(w, prompt+": "); err != nil {
		return "", err
	}
	line, err := r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// PromptPassword reads a password without echo when stdin is a terminal and
// falls back to a plain line read otherwise (pipes, tests).
func PromptPassword(r *bufio.Reader, w io.Writer, prompt string) (string, error) {
	if !isTerminal() {
		return PromptText(r, w, prompt)
	}
	if _, err := fmt.Fprint(w, prompt+": "); err != nil {
		return "", err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}
