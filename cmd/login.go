package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bnema/taskgate/internal/domain"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"
)

type credentialFlags struct {
	username string
	password string
}

func (f *credentialFlags) register(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&f.username, "username", "", "Username (prompted when empty)")
	cmd.PersistentFlags().StringVar(&f.password, "password", "", "Password (prompted when empty)")
}

// authenticate logs the process session in. Flag credentials get a single
// attempt; otherwise the user is prompted up to the configured limit.
func authenticate(cmd *cobra.Command, app *app, flags credentialFlags, in *bufio.Reader) (domain.Principal, error) {
	if flags.username != "" && flags.password != "" {
		return app.auth.Login(cmd.Context(), app.session, flags.username, flags.password)
	}

	prompter := &credentialPrompter{
		in:          in,
		out:         cmd.ErrOrStderr(),
		username:    flags.username,
		maxAttempts: app.maxLoginAttempts,
	}
	if fd, ok := terminalFd(cmd.InOrStdin()); ok {
		prompter.readPassword = func() (string, error) {
			password, err := term.ReadPassword(fd)
			_, _ = fmt.Fprintln(prompter.out)
			return string(password), err
		}
	}

	return app.auth.LoginWithRetries(cmd.Context(), app.session, app.maxLoginAttempts, prompter.prompt)
}

type credentialPrompter struct {
	in          *bufio.Reader
	out         io.Writer
	username    string
	maxAttempts int

	// readPassword reads without echo; nil falls back to a plain line read.
	readPassword func() (string, error)
}

func (p *credentialPrompter) prompt(_ context.Context, attempt int) (string, string, error) {
	if attempt > 1 {
		_, _ = fmt.Fprintf(p.out, "Invalid credentials (attempt %d of %d)\n", attempt, p.maxAttempts)
	}

	username := p.username
	if username == "" {
		value, err := p.readLine("Username: ")
		if err != nil {
			return "", "", fmt.Errorf("read username: %w", err)
		}
		username = value
	}

	password, err := p.readSecret("Password: ")
	if err != nil {
		return "", "", fmt.Errorf("read password: %w", err)
	}

	return username, password, nil
}

func (p *credentialPrompter) readSecret(label string) (string, error) {
	if p.readPassword == nil {
		return p.readLine(label)
	}

	_, _ = fmt.Fprint(p.out, label)
	return p.readPassword()
}

func (p *credentialPrompter) readLine(label string) (string, error) {
	_, _ = fmt.Fprint(p.out, label)

	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}

	return strings.TrimRight(line, "\r\n"), nil
}

// terminalFd reports the descriptor behind in when it is an interactive
// terminal. Piped or in-memory input keeps the line reader.
func terminalFd(in io.Reader) (uintptr, bool) {
	f, ok := in.(interface{ Fd() uintptr })
	if !ok {
		return 0, false
	}

	fd := f.Fd()
	return fd, term.IsTerminal(fd)
}
