package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	taskrender "github.com/bnema/taskgate/internal/adapters/render/tasks"
	"github.com/bnema/taskgate/internal/application"
	"github.com/bnema/taskgate/internal/domain"
	"github.com/spf13/cobra"
)

const configurationHint = "Set AUTH_USER_ID, AUTH_USERNAME and AUTH_PASSWORD in the environment, a .env file or the [auth] table of ~/.taskgate/config.toml, or add [[auth.users]] entries there."

func newDemoCmd(app *app) *cobra.Command {
	creds := &credentialFlags{}

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Log in and walk through every task operation",
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := runDemo(cmd, app, *creds)
			if errors.Is(err, domain.ErrConfiguration) {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), configurationHint)
			}
			return err
		},
	}
	creds.register(cmd)

	return cmd
}

func runDemo(cmd *cobra.Command, app *app, creds credentialFlags) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	rule := strings.Repeat("=", 60)
	_, _ = fmt.Fprintf(out, "%s\ntaskgate: session-gated task demo\n%s\n\n", rule, rule)

	principal, err := authenticate(cmd, app, creds, bufio.NewReader(cmd.InOrStdin()))
	if err != nil {
		return err
	}
	defer app.session.Logout()

	_, _ = fmt.Fprintf(out, "Welcome, %s! You now have access to task operations.\n\n", principal.DisplayName)

	_, _ = fmt.Fprintln(out, "1. Creating tasks...")
	first, err := app.tasks.CreateTask(ctx, app.session, application.CreateTaskCommand{
		Title:       "Complete session authentication",
		Description: "Gate every task operation behind the login session",
		Priority:    domain.PriorityHigh,
		Tags:        []string{"demo", "authentication"},
	})
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "   created %s: %s\n", first.ID, first.Title)

	second, err := app.tasks.CreateTask(ctx, app.session, application.CreateTaskCommand{
		Title:       "Test authentication flow",
		Description: "Verify ownership checks on update and delete",
		Priority:    domain.PriorityMedium,
		Tags:        []string{"demo", "testing"},
	})
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "   created %s: %s\n\n", second.ID, second.Title)

	_, _ = fmt.Fprintln(out, "2. Listing tasks...")
	if err := writeDemoTasks(cmd, app, out); err != nil {
		return err
	}

	_, _ = fmt.Fprintln(out, "3. Updating task...")
	inProgress := domain.TaskStatusInProgress
	updated, err := app.tasks.UpdateTask(ctx, app.session, first.ID, domain.TaskUpdate{Status: &inProgress})
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "   updated %s: status %s\n\n", updated.ID, updated.Status)

	_, _ = fmt.Fprintln(out, "4. Deleting task...")
	if _, err := app.tasks.DeleteTask(ctx, app.session, second.ID); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "   deleted %s: %s\n\n", second.ID, second.Title)

	_, _ = fmt.Fprintln(out, "5. Verifying remaining tasks...")
	if err := writeDemoTasks(cmd, app, out); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(out, "%s\nDemo complete: every task operation ran behind the session gate as %s.\n%s\n", rule, principal.ID, rule)
	return nil
}

func writeDemoTasks(cmd *cobra.Command, app *app, out io.Writer) error {
	tasks, err := app.tasks.ListTasks(cmd.Context(), app.session, application.TaskFilter{})
	if err != nil {
		return err
	}

	if err := writeTasksOutput(out, app, tasks, taskrender.RenderOptions{
		Owner: ownerLabel(app.session.Snapshot()),
	}, false); err != nil {
		return err
	}

	_, _ = fmt.Fprintln(out)
	return nil
}
