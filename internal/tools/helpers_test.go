package tools

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/daybook-ai/daybook/internal/logger"
	"github.com/daybook-ai/daybook/internal/reminder"
	"github.com/daybook-ai/daybook/internal/task"
)

func testLogger() *logger.Logger {
	return &logger.Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// fakeTaskStore is an in-memory TaskStore.
type fakeTaskStore struct {
	nextID  int64
	tasks   []task.Task
	deleted []int64
	err     error
}

func (f *fakeTaskStore) CreateTask(_ context.Context, userID int64, input task.CreateTaskInput) (*task.Task, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.nextID++
	t := task.Task{
		ID:          f.nextID,
		Title:       input.Title,
		Description: input.Description,
		Status:      string(task.StatusPending),
		Priority:    input.Priority,
		GroupID:     input.GroupID,
		CreatedBy:   userID,
		DueDate:     input.DueDate,
		StartTime:   input.StartTime,
		EndTime:     input.EndTime,
		TimeSegment: input.TimeSegment,
		Source:      input.Source,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if t.Priority == "" {
		t.Priority = string(task.PriorityMedium)
	}
	f.tasks = append(f.tasks, t)
	return &t, nil
}

func (f *fakeTaskStore) GetTasks(_ context.Context, userID int64, filters task.Filters) ([]task.Task, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []task.Task
	for _, t := range f.tasks {
		if t.CreatedBy != userID {
			continue
		}
		if filters.Status != "" && t.Status != filters.Status {
			continue
		}
		if filters.DueDate != "" && (t.DueDate == nil || *t.DueDate != filters.DueDate) {
			continue
		}
		if filters.Priority != "" && t.Priority != filters.Priority {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeTaskStore) GetTaskByID(_ context.Context, taskID, userID int64) (*task.Task, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.tasks {
		if f.tasks[i].ID == taskID && f.tasks[i].CreatedBy == userID {
			t := f.tasks[i]
			return &t, nil
		}
	}
	return nil, task.ErrTaskNotFound
}

func (f *fakeTaskStore) UpdateTask(_ context.Context, taskID, userID int64, patch task.UpdateTaskInput) (*task.Task, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.tasks {
		if f.tasks[i].ID != taskID || f.tasks[i].CreatedBy != userID {
			continue
		}
		t := &f.tasks[i]
		if patch.Title != nil {
			t.Title = *patch.Title
		}
		if patch.Description != nil {
			t.Description = *patch.Description
		}
		if patch.Priority != nil {
			t.Priority = *patch.Priority
		}
		if patch.DueDate != nil {
			t.DueDate = patch.DueDate
		}
		if patch.StartTime != nil {
			t.StartTime = patch.StartTime
			t.EndTime = patch.EndTime
			t.TimeSegment = ""
		}
		if patch.TimeSegment != nil {
			t.TimeSegment = *patch.TimeSegment
			t.StartTime = nil
			t.EndTime = nil
		}
		updated := *t
		return &updated, nil
	}
	return nil, task.ErrTaskNotFound
}

func (f *fakeTaskStore) UpdateTaskStatus(_ context.Context, taskID, userID int64, status string) (*task.Task, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.tasks {
		if f.tasks[i].ID == taskID && f.tasks[i].CreatedBy == userID {
			f.tasks[i].Status = status
			t := f.tasks[i]
			return &t, nil
		}
	}
	return nil, task.ErrTaskNotFound
}

func (f *fakeTaskStore) DeleteTask(_ context.Context, taskID, userID int64) error {
	if f.err != nil {
		return f.err
	}
	for i := range f.tasks {
		if f.tasks[i].ID == taskID && f.tasks[i].CreatedBy == userID {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			f.deleted = append(f.deleted, taskID)
			return nil
		}
	}
	return task.ErrTaskNotFound
}

// fakeReminderStore records scheduled reminders.
type fakeReminderStore struct {
	created []reminder.CreateReminderInput
	err     error
}

func (f *fakeReminderStore) Create(_ context.Context, userID int64, input reminder.CreateReminderInput) (*reminder.Reminder, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, input)
	return &reminder.Reminder{
		ID:       "r-1",
		UserID:   userID,
		TaskID:   input.TaskID,
		RemindAt: input.RemindAt,
		Content:  input.Content,
		Status:   string(reminder.StatusPending),
		Channel:  input.Channel,
	}, nil
}

func strPtr(s string) *string { return &s }

// seedTask builds a pending task owned by user 1.
func seedTask(id int64, title, dueDate, start, end, segment string) task.Task {
	t := task.Task{
		ID:        id,
		Title:     title,
		Status:    string(task.StatusPending),
		Priority:  string(task.PriorityMedium),
		CreatedBy: 1,
		DueDate:   strPtr(dueDate),
	}
	if start != "" && end != "" {
		t.StartTime = strPtr(start)
		t.EndTime = strPtr(end)
	} else {
		t.TimeSegment = segment
	}
	return t
}

func testContext(store *fakeTaskStore, reminders *fakeReminderStore) RuntimeContext {
	return RuntimeContext{
		Tasks:           store,
		Reminders:       reminders,
		UserID:          1,
		TZOffsetMinutes: -480,
	}
}

func decodeResult(t *testing.T, raw string) ToolResult {
	t.Helper()
	var result ToolResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		t.Fatalf("result is not valid JSON: %v\n%s", err, raw)
	}
	return result
}
