package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bnema/taskgate/internal/adapters/repo/memory"
	"github.com/bnema/taskgate/internal/domain"
	"github.com/bnema/taskgate/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*TaskService, *Session) {
	t.Helper()

	clock := mocks.NewMockClock(t)
	clock.EXPECT().Now().Return(fixedNow).Maybe()

	return NewTaskService(memory.NewRepository(), clock, nil), NewSession(clock, nil)
}

func TestCreateTaskAssignsOwnerAndID(t *testing.T) {
	svc, session := newTestService(t)
	require.NoError(t, session.Login("alice", "u1"))

	task, err := svc.CreateTask(context.Background(), session, CreateTaskCommand{Title: "A"})
	require.NoError(t, err)

	assert.Equal(t, domain.Task{
		ID:        "task-1",
		OwnerID:   "u1",
		Title:     "A",
		Status:    domain.TaskStatusPending,
		Priority:  domain.PriorityMedium,
		Tags:      []string{},
		CreatedAt: fixedNow,
		UpdatedAt: fixedNow,
	}, task)
}

func TestCreateTaskKeepsSuppliedFields(t *testing.T) {
	svc, session := newTestService(t)
	require.NoError(t, session.Login("alice", "u1"))

	task, err := svc.CreateTask(context.Background(), session, CreateTaskCommand{
		Title:       "Complete authentication",
		Description: "Implement the gate",
		Status:      domain.TaskStatusInProgress,
		Priority:    domain.PriorityHigh,
		Tags:        []string{"phase-ii", "authentication", "phase-ii"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Implement the gate", task.Description)
	assert.Equal(t, domain.TaskStatusInProgress, task.Status)
	assert.Equal(t, domain.PriorityHigh, task.Priority)
	assert.Equal(t, []string{"phase-ii", "authentication"}, task.Tags)
}

func TestCreateTaskRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		cmd  CreateTaskCommand
	}{
		{name: "empty title", cmd: CreateTaskCommand{}},
		{name: "blank title", cmd: CreateTaskCommand{Title: "  "}},
		{name: "unknown status", cmd: CreateTaskCommand{Title: "A", Status: "blocked"}},
		{name: "unknown priority", cmd: CreateTaskCommand{Title: "A", Priority: "urgent"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, session := newTestService(t)
			require.NoError(t, session.Login("alice", "u1"))

			_, err := svc.CreateTask(context.Background(), session, tc.cmd)
			require.ErrorIs(t, err, domain.ErrInvalidTask)

			tasks, err := svc.ListTasks(context.Background(), session, TaskFilter{})
			require.NoError(t, err)
			assert.Empty(t, tasks)
		})
	}
}

func TestCreatedTaskIsACopy(t *testing.T) {
	svc, session := newTestService(t)
	require.NoError(t, session.Login("alice", "u1"))
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, session, CreateTaskCommand{Title: "A", Tags: []string{"x"}})
	require.NoError(t, err)
	task.Title = "mutated"
	task.Tags[0] = "mutated"

	tasks, err := svc.ListTasks(ctx, session, TaskFilter{})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "A", tasks[0].Title)
	assert.Equal(t, []string{"x"}, tasks[0].Tags)
}

func TestTaskOperationsRequireAuthentication(t *testing.T) {
	repo := mocks.NewMockTaskRepository(t)
	svc := NewTaskService(repo, nil, nil)
	session := NewSession(nil, nil)
	ctx := context.Background()

	_, err := svc.CreateTask(ctx, session, CreateTaskCommand{Title: "A"})
	require.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = svc.ListTasks(ctx, session, TaskFilter{})
	require.ErrorIs(t, err, domain.ErrUnauthenticated)

	title := "B"
	_, err = svc.UpdateTask(ctx, session, "task-1", domain.TaskUpdate{Title: &title})
	require.ErrorIs(t, err, domain.ErrUnauthenticated)

	deleted, err := svc.DeleteTask(ctx, session, "task-1")
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
	assert.False(t, deleted)

	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "List", mock.Anything)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestLogoutThenListFails(t *testing.T) {
	svc, session := newTestService(t)
	ctx := context.Background()
	require.NoError(t, session.Login("alice", "u1"))

	task, err := svc.CreateTask(ctx, session, CreateTaskCommand{Title: "A"})
	require.NoError(t, err)
	assert.Equal(t, domain.Identity("u1"), task.OwnerID)
	assert.Equal(t, domain.TaskID("task-1"), task.ID)

	session.Logout()

	_, err = svc.ListTasks(ctx, session, TaskFilter{})
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestListTasksOnlyReturnsOwnTasks(t *testing.T) {
	svc, session := newTestService(t)
	ctx := context.Background()

	require.NoError(t, session.Login("alice", "u1"))
	_, err := svc.CreateTask(ctx, session, CreateTaskCommand{Title: "alice task"})
	require.NoError(t, err)

	require.NoError(t, session.Login("bob", "u2"))
	_, err = svc.CreateTask(ctx, session, CreateTaskCommand{Title: "bob task"})
	require.NoError(t, err)

	tasks, err := svc.ListTasks(ctx, session, TaskFilter{})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "bob task", tasks[0].Title)
	assert.Equal(t, domain.TaskID("task-2"), tasks[0].ID)

	session.Logout()
	require.NoError(t, session.Login("alice", "u1"))
	tasks, err = svc.ListTasks(ctx, session, TaskFilter{})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, domain.Identity("u1"), tasks[0].OwnerID)
}

func TestListTasksAppliesFilter(t *testing.T) {
	svc, session := newTestService(t)
	ctx := context.Background()
	require.NoError(t, session.Login("alice", "u1"))

	_, err := svc.CreateTask(ctx, session, CreateTaskCommand{Title: "A", Priority: domain.PriorityHigh, Tags: []string{"docs"}})
	require.NoError(t, err)
	_, err = svc.CreateTask(ctx, session, CreateTaskCommand{Title: "B", Status: domain.TaskStatusDone})
	require.NoError(t, err)
	_, err = svc.CreateTask(ctx, session, CreateTaskCommand{Title: "C", Priority: domain.PriorityHigh})
	require.NoError(t, err)

	tests := []struct {
		name   string
		filter TaskFilter
		want   []string
	}{
		{name: "zero filter is pass-through", filter: TaskFilter{}, want: []string{"A", "B", "C"}},
		{name: "status", filter: TaskFilter{Status: domain.TaskStatusDone}, want: []string{"B"}},
		{name: "priority", filter: TaskFilter{Priority: domain.PriorityHigh}, want: []string{"A", "C"}},
		{name: "tag", filter: TaskFilter{Tag: "docs"}, want: []string{"A"}},
		{name: "combined", filter: TaskFilter{Priority: domain.PriorityHigh, Tag: "docs"}, want: []string{"A"}},
		{name: "no match", filter: TaskFilter{Tag: "missing"}, want: []string{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tasks, err := svc.ListTasks(ctx, session, tc.filter)
			require.NoError(t, err)
			titles := make([]string, 0, len(tasks))
			for _, task := range tasks {
				titles = append(titles, task.Title)
			}
			assert.Equal(t, tc.want, titles)
		})
	}
}

func TestUpdateTaskMergesOnlySuppliedFields(t *testing.T) {
	svc, session := newTestService(t)
	ctx := context.Background()
	require.NoError(t, session.Login("alice", "u1"))

	created, err := svc.CreateTask(ctx, session, CreateTaskCommand{Title: "A", Description: "keep", Tags: []string{"x"}})
	require.NoError(t, err)

	status := domain.TaskStatusInProgress
	tags := []string{"y", " ", "y"}
	updated, err := svc.UpdateTask(ctx, session, created.ID, domain.TaskUpdate{Status: &status, Tags: &tags})
	require.NoError(t, err)

	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, created.OwnerID, updated.OwnerID)
	assert.Equal(t, "A", updated.Title)
	assert.Equal(t, "keep", updated.Description)
	assert.Equal(t, domain.TaskStatusInProgress, updated.Status)
	assert.Equal(t, []string{"y"}, updated.Tags)

	tasks, err := svc.ListTasks(ctx, session, TaskFilter{})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, updated, tasks[0])
}

func TestUpdateTaskRejectsInvalidMerge(t *testing.T) {
	svc, session := newTestService(t)
	ctx := context.Background()
	require.NoError(t, session.Login("alice", "u1"))

	created, err := svc.CreateTask(ctx, session, CreateTaskCommand{Title: "A"})
	require.NoError(t, err)

	blank := ""
	_, err = svc.UpdateTask(ctx, session, created.ID, domain.TaskUpdate{Title: &blank})
	require.ErrorIs(t, err, domain.ErrInvalidTask)

	tasks, err := svc.ListTasks(ctx, session, TaskFilter{})
	require.NoError(t, err)
	assert.Equal(t, "A", tasks[0].Title)
}

func TestUpdateTaskOwnedByAnotherUserIsDenied(t *testing.T) {
	svc, session := newTestService(t)
	ctx := context.Background()

	require.NoError(t, session.Login("alice", "u1"))
	_, err := svc.CreateTask(ctx, session, CreateTaskCommand{Title: "A"})
	require.NoError(t, err)
	session.Logout()

	require.NoError(t, session.Login("bob", "u2"))
	title := "stolen"
	_, err = svc.UpdateTask(ctx, session, "task-1", domain.TaskUpdate{Title: &title})
	require.ErrorIs(t, err, domain.ErrPermissionDenied)

	_, err = svc.DeleteTask(ctx, session, "task-1")
	require.ErrorIs(t, err, domain.ErrPermissionDenied)

	session.Logout()
	require.NoError(t, session.Login("alice", "u1"))
	tasks, err := svc.ListTasks(ctx, session, TaskFilter{})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "A", tasks[0].Title)
}

func TestUpdateAndDeleteMissingTask(t *testing.T) {
	svc, session := newTestService(t)
	ctx := context.Background()
	require.NoError(t, session.Login("alice", "u1"))

	title := "B"
	_, err := svc.UpdateTask(ctx, session, "task-9", domain.TaskUpdate{Title: &title})
	require.ErrorIs(t, err, domain.ErrTaskNotFound)

	deleted, err := svc.DeleteTask(ctx, session, "task-9")
	require.ErrorIs(t, err, domain.ErrTaskNotFound)
	assert.False(t, deleted)
}

func TestDeleteTaskRemovesOnlyTarget(t *testing.T) {
	svc, session := newTestService(t)
	ctx := context.Background()
	require.NoError(t, session.Login("alice", "u1"))

	first, err := svc.CreateTask(ctx, session, CreateTaskCommand{Title: "A"})
	require.NoError(t, err)
	second, err := svc.CreateTask(ctx, session, CreateTaskCommand{Title: "B"})
	require.NoError(t, err)
	require.Equal(t, domain.TaskID("task-1"), first.ID)
	require.Equal(t, domain.TaskID("task-2"), second.ID)

	deleted, err := svc.DeleteTask(ctx, session, first.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	tasks, err := svc.ListTasks(ctx, session, TaskFilter{})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, domain.TaskID("task-2"), tasks[0].ID)

	third, err := svc.CreateTask(ctx, session, CreateTaskCommand{Title: "C"})
	require.NoError(t, err)
	assert.Equal(t, domain.TaskID("task-3"), third.ID)
}

func TestTaskServiceWrapsRepositoryErrors(t *testing.T) {
	repoErr := errors.New("disk full")
	repo := mocks.NewMockTaskRepository(t)
	svc := NewTaskService(repo, nil, nil)
	session := NewSession(nil, nil)
	require.NoError(t, session.Login("alice", "u1"))
	ctx := context.Background()

	repo.EXPECT().Create(mockAnyContext(), mock.MatchedBy(func(task domain.Task) bool {
		return task.OwnerID == "u1" && task.Title == "A"
	})).Return(domain.Task{}, repoErr)
	_, err := svc.CreateTask(ctx, session, CreateTaskCommand{Title: "A"})
	require.ErrorIs(t, err, repoErr)
	assert.ErrorContains(t, err, "create task")

	repo.EXPECT().List(mockAnyContext()).Return(nil, repoErr)
	_, err = svc.ListTasks(ctx, session, TaskFilter{})
	require.ErrorIs(t, err, repoErr)

	owned := domain.Task{ID: "task-1", OwnerID: "u1", Title: "A", Status: domain.TaskStatusPending, Priority: domain.PriorityMedium}
	repo.EXPECT().GetByID(mockAnyContext(), domain.TaskID("task-1")).Return(owned, nil)
	repo.EXPECT().Delete(mockAnyContext(), domain.TaskID("task-1")).Return(repoErr)
	deleted, err := svc.DeleteTask(ctx, session, "task-1")
	require.ErrorIs(t, err, repoErr)
	assert.False(t, deleted)
}

func TestUpdateTaskWithEmptyUpdateDoesNotWrite(t *testing.T) {
	repo := mocks.NewMockTaskRepository(t)
	svc := NewTaskService(repo, nil, nil)
	session := NewSession(nil, nil)
	require.NoError(t, session.Login("alice", "u1"))

	owned := domain.Task{ID: "task-1", OwnerID: "u1", Title: "A", Status: domain.TaskStatusPending, Priority: domain.PriorityMedium}
	repo.EXPECT().GetByID(mockAnyContext(), domain.TaskID("task-1")).Return(owned, nil)

	got, err := svc.UpdateTask(context.Background(), session, "task-1", domain.TaskUpdate{})
	require.NoError(t, err)
	assert.Equal(t, owned, got)
}

func TestConcurrentUpdateDeleteListKeepsStoreConsistent(t *testing.T) {
	svc := NewTaskService(memory.NewRepository(), nil, nil)
	alice := NewSession(nil, nil)
	bob := NewSession(nil, nil)
	require.NoError(t, alice.Login("alice", "u1"))
	require.NoError(t, bob.Login("bob", "u2"))
	ctx := context.Background()

	const taskCount = 50
	ids := make([]domain.TaskID, 0, taskCount)
	for i := 0; i < taskCount; i++ {
		task, err := svc.CreateTask(ctx, alice, CreateTaskCommand{Title: "A"})
		require.NoError(t, err)
		ids = append(ids, task.ID)
	}

	type result struct {
		op      string
		err     error
		deleted bool
		tasks   []domain.Task
	}
	results := make(chan result, taskCount*4)

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(4)
		go func() {
			defer wg.Done()
			status := domain.TaskStatusDone
			_, err := svc.UpdateTask(ctx, alice, id, domain.TaskUpdate{Status: &status})
			results <- result{op: "owner update", err: err}
		}()
		go func() {
			defer wg.Done()
			title := "stolen"
			_, err := svc.UpdateTask(ctx, bob, id, domain.TaskUpdate{Title: &title})
			results <- result{op: "foreign update", err: err}
		}()
		go func() {
			defer wg.Done()
			deleted, err := svc.DeleteTask(ctx, alice, id)
			results <- result{op: "delete", err: err, deleted: deleted}
		}()
		go func() {
			defer wg.Done()
			tasks, err := svc.ListTasks(ctx, alice, TaskFilter{})
			results <- result{op: "list", err: err, tasks: tasks}
		}()
	}
	wg.Wait()
	close(results)

	for res := range results {
		switch res.op {
		case "owner update":
			if res.err != nil {
				assert.ErrorIs(t, res.err, domain.ErrTaskNotFound)
			}
		case "foreign update":
			require.Error(t, res.err)
			assert.True(t, errors.Is(res.err, domain.ErrPermissionDenied) || errors.Is(res.err, domain.ErrTaskNotFound), res.err)
		case "delete":
			require.NoError(t, res.err)
			assert.True(t, res.deleted)
		case "list":
			require.NoError(t, res.err)
			for _, task := range res.tasks {
				assert.Equal(t, domain.Identity("u1"), task.OwnerID)
				assert.Equal(t, "A", task.Title)
			}
		}
	}

	remaining, err := svc.ListTasks(ctx, alice, TaskFilter{})
	require.NoError(t, err)
	assert.Empty(t, remaining)

	next, err := svc.CreateTask(ctx, alice, CreateTaskCommand{Title: "after"})
	require.NoError(t, err)
	assert.Equal(t, domain.TaskIDFromSequence(taskCount+1), next.ID)
}

func mockAnyContext() interface{} {
	return mock.MatchedBy(func(ctx context.Context) bool {
		return ctx != nil
	})
}
