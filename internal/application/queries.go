package application

import "github.com/bnema/taskgate/internal/domain"

// TaskFilter narrows ListTasks. The zero value matches every owned task.
type TaskFilter struct {
	Status   domain.TaskStatus
	Priority domain.Priority
	Tag      string
}

func (f TaskFilter) Matches(task domain.Task) bool {
	if f.Status != "" && task.Status != f.Status {
		return false
	}
	if f.Priority != "" && task.Priority != f.Priority {
		return false
	}
	if f.Tag != "" && !task.HasTag(f.Tag) {
		return false
	}

	return true
}
