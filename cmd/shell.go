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

const shellHelp = `Commands:
  login [username password]           log in as any configured user (prompts when omitted)
  logout                              end the session
  whoami                              show the session identity
  create <title> [key=value ...]      keys: description, status, priority, tags
  list [key=value ...]                filters: status, priority, tag
  update <task-id> key=value ...      keys: title, description, status, priority, tags
  delete <task-id>                    delete a task you own
  help                                show this help
  exit | quit                         leave the shell`

var (
	errShellUsage      = errors.New("invalid usage")
	errUnknownShellCmd = errors.New("unknown command")
)

func newShellCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive shell keeping one session across commands",
		Long:  "shell reads commands from stdin and runs them against a single session, so you can log in as different users (the AUTH_* user plus any [[auth.users]] entries) and watch the ownership checks.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sh := &shell{
				cmd: cmd,
				app: app,
				in:  bufio.NewReader(cmd.InOrStdin()),
				out: cmd.OutOrStdout(),
			}
			return sh.run()
		},
	}
}

type shell struct {
	cmd *cobra.Command
	app *app
	in  *bufio.Reader
	out io.Writer
}

func (s *shell) run() error {
	_, _ = fmt.Fprintln(s.out, "taskgate shell. Type \"help\" for commands.")

	for {
		_, _ = fmt.Fprint(s.out, s.prompt())

		line, err := s.in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read command: %w", err)
		}
		eof := errors.Is(err, io.EOF)

		fields := strings.Fields(line)
		if len(fields) > 0 {
			quit, execErr := s.exec(fields[0], fields[1:])
			if execErr != nil {
				s.app.logger.Debug("shell command failed", "command", fields[0], "error", execErr)
				_, _ = fmt.Fprintf(s.out, "error: %v\n", execErr)
			}
			if quit {
				return nil
			}
		}

		if eof {
			_, _ = fmt.Fprintln(s.out)
			s.app.session.Logout()
			return nil
		}
	}
}

func (s *shell) prompt() string {
	if state := s.app.session.Snapshot(); state.Authenticated {
		return fmt.Sprintf("taskgate(%s)> ", ownerLabel(state))
	}

	return "taskgate> "
}

func (s *shell) exec(name string, args []string) (bool, error) {
	ctx := s.cmd.Context()

	switch strings.ToLower(name) {
	case "exit", "quit":
		s.app.session.Logout()
		return true, nil
	case "help":
		_, _ = fmt.Fprintln(s.out, shellHelp)
		return false, nil
	case "login":
		return false, s.login(args)
	case "logout":
		s.app.session.Logout()
		_, _ = fmt.Fprintln(s.out, "Logged out")
		return false, nil
	case "whoami":
		return false, s.whoami()
	case "create":
		title, fields := splitShellArgs(args)
		cmd := application.CreateTaskCommand{
			Title:       title,
			Description: fields["description"],
			Status:      domain.TaskStatus(fields["status"]),
			Priority:    domain.Priority(fields["priority"]),
		}
		if tags, ok := fields["tags"]; ok {
			cmd.Tags = strings.Split(tags, ",")
		}

		task, err := s.app.tasks.CreateTask(ctx, s.app.session, cmd)
		if err != nil {
			return false, err
		}
		_, _ = fmt.Fprintf(s.out, "Created %s: %s\n", task.ID, task.Title)
		return false, nil
	case "list":
		_, fields := splitShellArgs(args)
		tasks, err := s.app.tasks.ListTasks(ctx, s.app.session, application.TaskFilter{
			Status:   domain.TaskStatus(fields["status"]),
			Priority: domain.Priority(fields["priority"]),
			Tag:      fields["tag"],
		})
		if err != nil {
			return false, err
		}
		return false, writeTasksOutput(s.out, s.app, tasks, taskrender.RenderOptions{
			Owner:   ownerLabel(s.app.session.Snapshot()),
			Verbose: true,
		}, false)
	case "update":
		if len(args) < 2 {
			return false, fmt.Errorf("%w: update <task-id> key=value ...", errShellUsage)
		}
		update, err := parseShellUpdate(args[1:])
		if err != nil {
			return false, err
		}

		task, err := s.app.tasks.UpdateTask(ctx, s.app.session, domain.TaskID(args[0]), update)
		if err != nil {
			return false, err
		}
		_, _ = fmt.Fprintf(s.out, "Updated %s: %s (%s, priority %s)\n", task.ID, task.Title, task.Status, task.Priority)
		return false, nil
	case "delete":
		if len(args) != 1 {
			return false, fmt.Errorf("%w: delete <task-id>", errShellUsage)
		}
		if _, err := s.app.tasks.DeleteTask(ctx, s.app.session, domain.TaskID(args[0])); err != nil {
			return false, err
		}
		_, _ = fmt.Fprintf(s.out, "Deleted %s\n", args[0])
		return false, nil
	default:
		return false, fmt.Errorf("%w %q (type \"help\")", errUnknownShellCmd, name)
	}
}

func (s *shell) login(args []string) error {
	var creds credentialFlags
	switch len(args) {
	case 0:
	case 1:
		creds.username = args[0]
	case 2:
		creds.username, creds.password = args[0], args[1]
	default:
		return fmt.Errorf("%w: login [username password]", errShellUsage)
	}

	principal, err := authenticate(s.cmd, s.app, creds, s.in)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(s.out, "Welcome, %s (%s)\n", principal.DisplayName, principal.ID)
	return nil
}

func (s *shell) whoami() error {
	identity, err := s.app.session.CurrentUser()
	if err != nil {
		return err
	}

	state := s.app.session.Snapshot()
	_, _ = fmt.Fprintf(s.out, "%s (%s) session %s\n", ownerLabel(state), identity, state.ID)
	return nil
}

// splitShellArgs separates leading words from key=value pairs. Words after a
// pair continue its value, so descriptions may contain spaces.
func splitShellArgs(args []string) (string, map[string]string) {
	var (
		words  []string
		fields = map[string]string{}
		key    string
	)

	for _, arg := range args {
		if k, v, ok := strings.Cut(arg, "="); ok && k != "" {
			key = strings.ToLower(k)
			fields[key] = v
			continue
		}
		if key == "" {
			words = append(words, arg)
			continue
		}
		fields[key] += " " + arg
	}

	return strings.Join(words, " "), fields
}

func parseShellUpdate(args []string) (domain.TaskUpdate, error) {
	rest, fields := splitShellArgs(args)
	if rest != "" {
		return domain.TaskUpdate{}, fmt.Errorf("%w: expected key=value, got %q", errShellUsage, rest)
	}

	var update domain.TaskUpdate
	for key, value := range fields {
		switch key {
		case "title":
			update.Title = &value
		case "description":
			update.Description = &value
		case "status":
			status := domain.TaskStatus(value)
			update.Status = &status
		case "priority":
			priority := domain.Priority(value)
			update.Priority = &priority
		case "tags":
			tags := []string{}
			if value != "" {
				tags = strings.Split(value, ",")
			}
			update.Tags = &tags
		default:
			return domain.TaskUpdate{}, fmt.Errorf("%w: unknown field %q", errShellUsage, key)
		}
	}
	if update.IsEmpty() {
		return domain.TaskUpdate{}, errNothingToUpdate
	}

	return update, nil
}
