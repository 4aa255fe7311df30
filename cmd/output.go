package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	taskrender "github.com/bnema/taskgate/internal/adapters/render/tasks"
	"github.com/bnema/taskgate/internal/domain"
)

type taskJSON struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newTaskJSON(task domain.Task) taskJSON {
	tags := task.Tags
	if tags == nil {
		tags = []string{}
	}

	return taskJSON{
		ID:          string(task.ID),
		OwnerID:     string(task.OwnerID),
		Title:       task.Title,
		Description: task.Description,
		Status:      string(task.Status),
		Priority:    string(task.Priority),
		Tags:        tags,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

func writeTasksOutput(w io.Writer, app *app, tasks []domain.Task, opts taskrender.RenderOptions, asJSON bool) error {
	if asJSON {
		views := make([]taskJSON, 0, len(tasks))
		for _, task := range tasks {
			views = append(views, newTaskJSON(task))
		}

		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(views)
	}

	rendered, err := app.taskRenderer(tasks, opts)
	if err != nil {
		return fmt.Errorf("render tasks: %w", err)
	}

	_, err = fmt.Fprintln(w, rendered)
	return err
}

// ownerLabel prefers the session display name and falls back to the identity.
func ownerLabel(state domain.SessionState) string {
	if state.DisplayName != "" {
		return state.DisplayName
	}

	return string(state.Identity)
}
