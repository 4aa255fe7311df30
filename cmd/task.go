package cmd

import (
	"bufio"
	"errors"
	"fmt"

	taskrender "github.com/bnema/taskgate/internal/adapters/render/tasks"
	"github.com/bnema/taskgate/internal/application"
	"github.com/bnema/taskgate/internal/domain"
	"github.com/spf13/cobra"
)

var errNothingToUpdate = errors.New("nothing to update")

func newTaskCmd(app *app) *cobra.Command {
	creds := &credentialFlags{}

	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage your tasks",
		Long: `Each task subcommand logs in first, using --username/--password or an interactive prompt.

With the default memory backend every invocation starts from an empty store,
so tasks do not survive between commands. Set store.backend = "toml" in
~/.taskgate/config.toml (or TASKGATE_STORE_BACKEND=toml) to keep them in
~/.taskgate/tasks.toml.`,
	}
	creds.register(cmd)

	cmd.AddCommand(
		newTaskCreateCmd(app, creds),
		newTaskListCmd(app, creds),
		newTaskUpdateCmd(app, creds),
		newTaskDeleteCmd(app, creds),
	)

	return cmd
}

func newTaskCreateCmd(app *app, creds *credentialFlags) *cobra.Command {
	var (
		title       string
		description string
		status      string
		priority    string
		tags        []string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task owned by the logged-in user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := authenticate(cmd, app, *creds, bufio.NewReader(cmd.InOrStdin())); err != nil {
				return err
			}

			task, err := app.tasks.CreateTask(cmd.Context(), app.session, application.CreateTaskCommand{
				Title:       title,
				Description: description,
				Status:      domain.TaskStatus(status),
				Priority:    domain.Priority(priority),
				Tags:        tags,
			})
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created %s: %s\n", task.ID, task.Title)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Task title")
	cmd.Flags().StringVar(&description, "description", "", "Task description")
	cmd.Flags().StringVar(&status, "status", "", "Task status: pending, in-progress or done (default pending)")
	cmd.Flags().StringVar(&priority, "priority", "", "Task priority: low, medium or high (default medium)")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Task tag (repeatable or comma separated)")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

func newTaskListCmd(app *app, creds *credentialFlags) *cobra.Command {
	var (
		status   string
		priority string
		tag      string
		asJSON   bool
		verbose  bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the logged-in user's tasks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := authenticate(cmd, app, *creds, bufio.NewReader(cmd.InOrStdin())); err != nil {
				return err
			}

			tasks, err := app.tasks.ListTasks(cmd.Context(), app.session, application.TaskFilter{
				Status:   domain.TaskStatus(status),
				Priority: domain.Priority(priority),
				Tag:      tag,
			})
			if err != nil {
				return err
			}

			return writeTasksOutput(cmd.OutOrStdout(), app, tasks, taskrender.RenderOptions{
				Owner:   ownerLabel(app.session.Snapshot()),
				Verbose: verbose,
			}, asJSON)
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Only show tasks with this status")
	cmd.Flags().StringVar(&priority, "priority", "", "Only show tasks with this priority")
	cmd.Flags().StringVar(&tag, "tag", "", "Only show tasks carrying this tag")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show descriptions and tags")

	return cmd
}

func newTaskUpdateCmd(app *app, creds *credentialFlags) *cobra.Command {
	var (
		title       string
		description string
		status      string
		priority    string
		tags        []string
		clearTags   bool
	)

	cmd := &cobra.Command{
		Use:   "update <task-id>",
		Short: "Update a task you own",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var update domain.TaskUpdate
			flags := cmd.Flags()
			if flags.Changed("title") {
				update.Title = &title
			}
			if flags.Changed("description") {
				update.Description = &description
			}
			if flags.Changed("status") {
				value := domain.TaskStatus(status)
				update.Status = &value
			}
			if flags.Changed("priority") {
				value := domain.Priority(priority)
				update.Priority = &value
			}
			switch {
			case clearTags:
				empty := []string{}
				update.Tags = &empty
			case flags.Changed("tag"):
				update.Tags = &tags
			}
			if update.IsEmpty() {
				return errNothingToUpdate
			}

			if _, err := authenticate(cmd, app, *creds, bufio.NewReader(cmd.InOrStdin())); err != nil {
				return err
			}

			task, err := app.tasks.UpdateTask(cmd.Context(), app.session, domain.TaskID(args[0]), update)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Updated %s: %s (%s, priority %s)\n", task.ID, task.Title, task.Status, task.Priority)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	cmd.Flags().StringVar(&status, "status", "", "New status: pending, in-progress or done")
	cmd.Flags().StringVar(&priority, "priority", "", "New priority: low, medium or high")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Replace tags (repeatable or comma separated)")
	cmd.Flags().BoolVar(&clearTags, "clear-tags", false, "Remove all tags")
	cmd.MarkFlagsMutuallyExclusive("tag", "clear-tags")

	return cmd
}

func newTaskDeleteCmd(app *app, creds *credentialFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <task-id>",
		Short: "Delete a task you own",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := authenticate(cmd, app, *creds, bufio.NewReader(cmd.InOrStdin())); err != nil {
				return err
			}

			id := domain.TaskID(args[0])
			if _, err := app.tasks.DeleteTask(cmd.Context(), app.session, id); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
			return nil
		},
	}
}
