package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/bnema/taskgate/internal/domain"
	"github.com/bnema/taskgate/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	TasksPathKey = "tasks.path"

	tasksFileMode   = 0o600
	tasksDirMode    = 0o700
	tasksConfigDir  = ".taskgate"
	tasksConfigFile = "tasks.toml"
	tempFilePattern = ".tasks-*.toml.tmp"
)

// Repository persists tasks in a single TOML file. The id sequence is stored
// alongside the tasks so deleted ids stay retired across processes.
type Repository struct {
	tasksPath string
	mu        *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.TaskRepository = (*Repository)(nil)

func NewRepository(cfg *viper.Viper) (*Repository, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	if !cfg.IsSet(TasksPathKey) {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		cfg.SetDefault(TasksPathKey, filepath.Join(homeDir, tasksConfigDir, tasksConfigFile))
	}

	tasksPath := cfg.GetString(TasksPathKey)
	if tasksPath == "" {
		return nil, fmt.Errorf("%w: tasks path is empty", domain.ErrConfiguration)
	}
	tasksPath, err := normalizeTasksPath(tasksPath)
	if err != nil {
		return nil, err
	}

	return &Repository{tasksPath: tasksPath, mu: lockForPath(tasksPath)}, nil
}

func (r *Repository) Path() string {
	return r.tasksPath
}

func (r *Repository) Create(ctx context.Context, task domain.Task) (domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return domain.Task{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return domain.Task{}, err
	}

	file.LastSeq = max(file.LastSeq, highestSeq(file.Tasks)) + 1
	task.ID = domain.TaskIDFromSequence(file.LastSeq)
	file.Tasks = append(file.Tasks, toSchema(task))

	if err := ctx.Err(); err != nil {
		return domain.Task{}, err
	}

	if err := r.writeSchema(file); err != nil {
		return domain.Task{}, err
	}

	return task.Clone(), nil
}

func (r *Repository) GetByID(ctx context.Context, id domain.TaskID) (domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return domain.Task{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return domain.Task{}, err
	}

	for _, entry := range file.Tasks {
		if entry.ID == string(id) {
			return fromSchema(entry), nil
		}
	}

	return domain.Task{}, domain.ErrTaskNotFound
}

func (r *Repository) List(ctx context.Context) ([]domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return nil, err
	}

	tasks := make([]domain.Task, 0, len(file.Tasks))
	for _, entry := range file.Tasks {
		tasks = append(tasks, fromSchema(entry))
	}

	return tasks, nil
}

func (r *Repository) Update(ctx context.Context, task domain.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}

	i := slices.IndexFunc(file.Tasks, func(entry taskSchema) bool { return entry.ID == string(task.ID) })
	if i < 0 {
		return fmt.Errorf("update %q: %w", task.ID, domain.ErrTaskNotFound)
	}
	file.Tasks[i] = toSchema(task)

	if err := ctx.Err(); err != nil {
		return err
	}

	return r.writeSchema(file)
}

func (r *Repository) Delete(ctx context.Context, id domain.TaskID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}

	i := slices.IndexFunc(file.Tasks, func(entry taskSchema) bool { return entry.ID == string(id) })
	if i < 0 {
		return fmt.Errorf("delete %q: %w", id, domain.ErrTaskNotFound)
	}
	file.LastSeq = max(file.LastSeq, highestSeq(file.Tasks))
	file.Tasks = slices.Delete(file.Tasks, i, i+1)

	if err := ctx.Err(); err != nil {
		return err
	}

	return r.writeSchema(file)
}

func (r *Repository) readSchema() (fileSchema, error) {
	data, err := os.ReadFile(r.tasksPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			file := fileSchema{}
			file.applyDefaults()
			return file, nil
		}
		return fileSchema{}, fmt.Errorf("read tasks file: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, fmt.Errorf("decode tasks file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func normalizeTasksPath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve tasks path: %w", err)
	}

	return filepath.Clean(absPath), nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

func (r *Repository) writeSchema(file fileSchema) error {
	file.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(r.tasksPath), tasksDirMode); err != nil {
		return fmt.Errorf("create tasks directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode tasks file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(r.tasksPath), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp tasks file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp tasks file: %w", err)
	}

	if err := tempFile.Chmod(tasksFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp tasks file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp tasks file: %w", err)
	}

	if err := os.Rename(tempName, r.tasksPath); err != nil {
		return fmt.Errorf("replace tasks file: %w", err)
	}

	cleanup = false
	return nil
}

// highestSeq guards against hand-edited files whose last_seq lags the ids.
func highestSeq(tasks []taskSchema) int {
	highest := 0
	for _, entry := range tasks {
		var seq int
		if _, err := fmt.Sscanf(entry.ID, "task-%d", &seq); err == nil && seq > highest {
			highest = seq
		}
	}
	return highest
}

func toSchema(task domain.Task) taskSchema {
	tags := task.Tags
	if tags == nil {
		tags = []string{}
	}

	return taskSchema{
		ID:          string(task.ID),
		OwnerID:     string(task.OwnerID),
		Title:       task.Title,
		Description: task.Description,
		Status:      string(task.Status),
		Priority:    string(task.Priority),
		Tags:        slices.Clone(tags),
		CreatedAt:   formatTime(task.CreatedAt),
		UpdatedAt:   formatTime(task.UpdatedAt),
	}
}

func fromSchema(entry taskSchema) domain.Task {
	task := domain.Task{
		ID:          domain.TaskID(entry.ID),
		OwnerID:     domain.Identity(entry.OwnerID),
		Title:       entry.Title,
		Description: entry.Description,
		Status:      domain.TaskStatus(entry.Status),
		Priority:    domain.Priority(entry.Priority),
		Tags:        slices.Clone(entry.Tags),
		CreatedAt:   parseTime(entry.CreatedAt),
		UpdatedAt:   parseTime(entry.UpdatedAt),
	}
	task.ApplyDefaults()

	return task
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}

	return parsed
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}

	return value.UTC().Format(time.RFC3339Nano)
}
