package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

type TaskID string

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusDone       TaskStatus = "done"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusDone:
		return true
	default:
		return false
	}
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

type Task struct {
	ID          TaskID
	OwnerID     Identity
	Title       string
	Description string
	Status      TaskStatus
	Priority    Priority
	Tags        []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TaskUpdate carries the fields to overwrite on an existing task. Nil fields
// are left untouched. ID and OwnerID cannot be updated.
type TaskUpdate struct {
	Title       *string
	Description *string
	Status      *TaskStatus
	Priority    *Priority
	Tags        *[]string
}

func (u TaskUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.Status == nil && u.Priority == nil && u.Tags == nil
}

func (t *Task) ApplyDefaults() {
	if t == nil {
		return
	}
	if t.Status == "" {
		t.Status = TaskStatusPending
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidTask)
	}
	if !t.Status.Valid() {
		return fmt.Errorf("%w: unsupported status %q", ErrInvalidTask, t.Status)
	}
	if !t.Priority.Valid() {
		return fmt.Errorf("%w: unsupported priority %q", ErrInvalidTask, t.Priority)
	}

	return nil
}

// Apply merges u into a copy of t. Identity fields are never touched.
func (t Task) Apply(u TaskUpdate) Task {
	updated := t.Clone()
	if u.Title != nil {
		updated.Title = *u.Title
	}
	if u.Description != nil {
		updated.Description = *u.Description
	}
	if u.Status != nil {
		updated.Status = *u.Status
	}
	if u.Priority != nil {
		updated.Priority = *u.Priority
	}
	if u.Tags != nil {
		updated.Tags = slices.Clone(*u.Tags)
		if updated.Tags == nil {
			updated.Tags = []string{}
		}
	}

	return updated
}

func (t Task) Clone() Task {
	clone := t
	if t.Tags != nil {
		clone.Tags = slices.Clone(t.Tags)
	}
	return clone
}

func (t Task) OwnedBy(id Identity) bool {
	return t.OwnerID == id
}

func (t Task) HasTag(tag string) bool {
	return slices.Contains(t.Tags, tag)
}

// NormalizeTags trims tags and drops empties and duplicates, keeping order.
func NormalizeTags(tags []string) []string {
	result := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}

	return result
}

func TaskIDFromSequence(seq int) TaskID {
	return TaskID(fmt.Sprintf("task-%d", seq))
}
