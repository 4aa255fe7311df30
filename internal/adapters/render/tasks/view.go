package tasks

import (
	"fmt"
	"strings"

	"github.com/bnema/taskgate/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

type RenderOptions struct {
	// Owner is shown in the header, typically the session display name.
	Owner string
	// Verbose adds description and tag lines under each task.
	Verbose bool
}

func renderView(tasks []domain.Task, opts RenderOptions, s styles) string {
	header := fmt.Sprintf("tasks: %d", len(tasks))
	if opts.Owner != "" {
		header = fmt.Sprintf("%s (owner: %s)", header, opts.Owner)
	}

	lines := []string{
		s.title.Render("Tasks"),
		s.header.Render(header),
	}

	if len(tasks) == 0 {
		lines = append(lines, s.empty.Render("No tasks yet."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, task := range tasks {
		lines = append(lines, renderTask(task, opts, s))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderTask(task domain.Task, opts RenderOptions, s styles) string {
	line := lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.id.Render(fmt.Sprintf("[%s]", task.ID)),
		" ",
		s.taskTitle.Render(task.Title),
		" ",
		statusStyle(task.Status, s).Render(string(task.Status)),
		" ",
		priorityStyle(task.Priority, s).Render(fmt.Sprintf("(priority: %s)", task.Priority)),
	)

	if !opts.Verbose {
		return line
	}

	parts := []string{line}
	if strings.TrimSpace(task.Description) != "" {
		parts = append(parts, s.detail.Render(task.Description))
	}
	if len(task.Tags) > 0 {
		parts = append(parts, s.detail.Render("tags: "+s.tag.Render(strings.Join(task.Tags, ", "))))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func statusStyle(status domain.TaskStatus, s styles) lipgloss.Style {
	switch status {
	case domain.TaskStatusInProgress:
		return s.inProgress
	case domain.TaskStatusDone:
		return s.done
	default:
		return s.pending
	}
}

func priorityStyle(priority domain.Priority, s styles) lipgloss.Style {
	switch priority {
	case domain.PriorityHigh:
		return s.high
	case domain.PriorityLow:
		return s.low
	default:
		return s.medium
	}
}
