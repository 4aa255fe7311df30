package application

import "github.com/bnema/taskgate/internal/domain"

type CreateTaskCommand struct {
	Title       string
	Description string
	Status      domain.TaskStatus
	Priority    domain.Priority
	Tags        []string
}
