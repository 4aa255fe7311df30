package ports

import (
	"context"

	"github.com/bnema/taskgate/internal/domain"
)

// TaskRepository stores tasks in insertion order. Create assigns the next
// sequential id; ids are never handed out twice, even after Delete.
type TaskRepository interface {
	Create(ctx context.Context, task domain.Task) (domain.Task, error)
	GetByID(ctx context.Context, id domain.TaskID) (domain.Task, error)
	List(ctx context.Context) ([]domain.Task, error)
	Update(ctx context.Context, task domain.Task) error
	Delete(ctx context.Context, id domain.TaskID) error
}
