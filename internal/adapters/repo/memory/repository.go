package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/bnema/taskgate/internal/domain"
	"github.com/bnema/taskgate/internal/ports"
)

// Repository keeps tasks in a slice for the lifetime of the process.
type Repository struct {
	mu    sync.RWMutex
	tasks []domain.Task
	seq   int
}

var _ ports.TaskRepository = (*Repository)(nil)

func NewRepository() *Repository {
	return &Repository{}
}

func (r *Repository) Create(ctx context.Context, task domain.Task) (domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return domain.Task{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	task = task.Clone()
	task.ID = domain.TaskIDFromSequence(r.seq)
	r.tasks = append(r.tasks, task)

	return task.Clone(), nil
}

func (r *Repository) GetByID(ctx context.Context, id domain.TaskID) (domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return domain.Task{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(id)
	if i < 0 {
		return domain.Task{}, domain.ErrTaskNotFound
	}

	return r.tasks[i].Clone(), nil
}

func (r *Repository) List(ctx context.Context) ([]domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	tasks := make([]domain.Task, 0, len(r.tasks))
	for _, task := range r.tasks {
		tasks = append(tasks, task.Clone())
	}

	return tasks, nil
}

func (r *Repository) Update(ctx context.Context, task domain.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(task.ID)
	if i < 0 {
		return fmt.Errorf("update %q: %w", task.ID, domain.ErrTaskNotFound)
	}
	r.tasks[i] = task.Clone()

	return nil
}

func (r *Repository) Delete(ctx context.Context, id domain.TaskID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return fmt.Errorf("delete %q: %w", id, domain.ErrTaskNotFound)
	}
	r.tasks = append(r.tasks[:i], r.tasks[i+1:]...)

	return nil
}

// linear scan, the collection is small
func (r *Repository) indexOf(id domain.TaskID) int {
	for i := range r.tasks {
		if r.tasks[i].ID == id {
			return i
		}
	}
	return -1
}
