package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bnema/taskgate/internal/domain"
	"github.com/bnema/taskgate/internal/ports"
)

// TaskService runs task CRUD behind the session gate and enforces that only
// the owning identity may change or remove a task.
type TaskService struct {
	repo   ports.TaskRepository
	clock  ports.Clock
	logger *slog.Logger

	// guards each check-then-write sequence
	mu sync.Mutex
}

func NewTaskService(repo ports.TaskRepository, clock ports.Clock, logger *slog.Logger) *TaskService {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &TaskService{
		repo:   repo,
		clock:  clock,
		logger: loggerOrDiscard(logger),
	}
}

func (s *TaskService) CreateTask(ctx context.Context, gate Gate, cmd CreateTaskCommand) (domain.Task, error) {
	return RequireAuthenticated(gate, func() (domain.Task, error) {
		owner, err := gate.CurrentUser()
		if err != nil {
			return domain.Task{}, err
		}

		now := s.clock.Now()
		task := domain.Task{
			OwnerID:     owner,
			Title:       cmd.Title,
			Description: cmd.Description,
			Status:      cmd.Status,
			Priority:    cmd.Priority,
			Tags:        domain.NormalizeTags(cmd.Tags),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		task.ApplyDefaults()
		if err := task.Validate(); err != nil {
			return domain.Task{}, err
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		created, err := s.repo.Create(ctx, task)
		if err != nil {
			return domain.Task{}, fmt.Errorf("create task: %w", err)
		}

		s.logger.Debug("task created", "task_id", created.ID, "identity", owner)
		return created.Clone(), nil
	})()
}

// ListTasks returns the caller's tasks in insertion order.
func (s *TaskService) ListTasks(ctx context.Context, gate Gate, filter TaskFilter) ([]domain.Task, error) {
	return RequireAuthenticated(gate, func() ([]domain.Task, error) {
		owner, err := gate.CurrentUser()
		if err != nil {
			return nil, err
		}

		tasks, err := s.repo.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("list tasks: %w", err)
		}

		owned := make([]domain.Task, 0, len(tasks))
		for _, task := range tasks {
			if !task.OwnedBy(owner) || !filter.Matches(task) {
				continue
			}
			owned = append(owned, task.Clone())
		}

		return owned, nil
	})()
}

func (s *TaskService) UpdateTask(ctx context.Context, gate Gate, id domain.TaskID, update domain.TaskUpdate) (domain.Task, error) {
	return RequireAuthenticated(gate, func() (domain.Task, error) {
		owner, err := gate.CurrentUser()
		if err != nil {
			return domain.Task{}, err
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		existing, err := s.ownedTask(ctx, owner, id)
		if err != nil {
			return domain.Task{}, err
		}
		if update.IsEmpty() {
			return existing.Clone(), nil
		}

		if update.Tags != nil {
			normalized := domain.NormalizeTags(*update.Tags)
			update.Tags = &normalized
		}

		updated := existing.Apply(update)
		if err := updated.Validate(); err != nil {
			return domain.Task{}, err
		}
		updated.UpdatedAt = s.clock.Now()

		if err := s.repo.Update(ctx, updated); err != nil {
			return domain.Task{}, fmt.Errorf("save task: %w", err)
		}

		s.logger.Debug("task updated", "task_id", id, "identity", owner)
		return updated.Clone(), nil
	})()
}

func (s *TaskService) DeleteTask(ctx context.Context, gate Gate, id domain.TaskID) (bool, error) {
	return RequireAuthenticated(gate, func() (bool, error) {
		owner, err := gate.CurrentUser()
		if err != nil {
			return false, err
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		if _, err := s.ownedTask(ctx, owner, id); err != nil {
			return false, err
		}

		if err := s.repo.Delete(ctx, id); err != nil {
			return false, fmt.Errorf("delete task: %w", err)
		}

		s.logger.Debug("task deleted", "task_id", id, "identity", owner)
		return true, nil
	})()
}

func (s *TaskService) ownedTask(ctx context.Context, owner domain.Identity, id domain.TaskID) (domain.Task, error) {
	task, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Task{}, fmt.Errorf("get task by id %q: %w", id, err)
	}

	if !task.OwnedBy(owner) {
		s.logger.Warn("task access denied", "task_id", id, "identity", owner)
		return domain.Task{}, fmt.Errorf("task %q: %w", id, domain.ErrPermissionDenied)
	}

	return task, nil
}
