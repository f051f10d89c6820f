package task

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/daybook-ai/daybook/internal/logger"
	"github.com/lib/pq"
)

// ErrTaskNotFound is returned when a task does not exist or belongs to
// another user.
var ErrTaskNotFound = errors.New("task not found")

// Service handles task persistence. All operations are scoped to a user;
// a task is never visible outside its creator.
type Service struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewService creates a new task service.
func NewService(db *sql.DB, log *logger.Logger) *Service {
	return &Service{
		db:     db,
		logger: log.WithComponent("task-service"),
	}
}

const taskColumns = `id, title, description, status, priority, group_id, created_by,
	assigned_to_ids, due_date, start_time, end_time, time_segment, source, recurrence,
	created_at, updated_at`

func scanTask(row interface{ Scan(...interface{}) error }) (*Task, error) {
	var t Task
	var assigned pq.Int64Array
	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.GroupID, &t.CreatedBy,
		&assigned, &t.DueDate, &t.StartTime, &t.EndTime, &t.TimeSegment, &t.Source, &t.Recurrence,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.AssignedToIDs = []int64(assigned)
	return &t, nil
}

// CreateTask inserts a new task for the user and returns it.
func (s *Service) CreateTask(ctx context.Context, userID int64, input CreateTaskInput) (*Task, error) {
	log := s.logger.WithContext(ctx)

	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("title cannot be empty")
	}
	if input.Priority == "" {
		input.Priority = string(PriorityMedium)
	}
	if !ValidPriority(input.Priority) {
		return nil, fmt.Errorf("invalid priority: %s", input.Priority)
	}
	if input.Source == "" {
		input.Source = string(SourceHuman)
	}
	segment := input.TimeSegment
	if input.StartTime != nil && input.EndTime != nil {
		segment = ""
	} else if segment == "" {
		segment = "all_day"
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO tasks (title, description, priority, group_id, created_by, assigned_to_ids,
			due_date, start_time, end_time, time_segment, source, recurrence)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+taskColumns,
		input.Title, input.Description, input.Priority, input.GroupID, userID,
		pq.Array(input.AssignedToIDs), input.DueDate, input.StartTime, input.EndTime,
		segment, input.Source, input.Recurrence,
	)
	t, err := scanTask(row)
	if err != nil {
		log.Error("failed to create task", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	log.Info("task created",
		slog.Int64("task_id", t.ID),
		slog.Int64("user_id", userID),
		slog.String("source", t.Source))
	return t, nil
}

// GetTasks returns the user's tasks matching the filters, newest first.
func (s *Service) GetTasks(ctx context.Context, userID int64, filters Filters) ([]Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE created_by = $1`
	args := []interface{}{userID}

	if filters.Status != "" {
		args = append(args, filters.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filters.DueDate != "" {
		args = append(args, filters.DueDate)
		query += fmt.Sprintf(" AND due_date = $%d", len(args))
	}
	if filters.Priority != "" {
		args = append(args, filters.Priority)
		query += fmt.Sprintf(" AND priority = $%d", len(args))
	}
	query += " ORDER BY id DESC"
	if filters.Limit > 0 {
		args = append(args, filters.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// GetTaskByID returns one task, or ErrTaskNotFound.
func (s *Service) GetTaskByID(ctx context.Context, taskID, userID int64) (*Task, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND created_by = $2`, taskID, userID)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return t, nil
}

// UpdateTask applies a partial patch and returns the updated task.
func (s *Service) UpdateTask(ctx context.Context, taskID, userID int64, patch UpdateTaskInput) (*Task, error) {
	sets := []string{"updated_at = NOW()"}
	args := []interface{}{}
	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Priority != nil {
		if !ValidPriority(*patch.Priority) {
			return nil, fmt.Errorf("invalid priority: %s", *patch.Priority)
		}
		add("priority", *patch.Priority)
	}
	if patch.DueDate != nil {
		add("due_date", *patch.DueDate)
	}
	if patch.StartTime != nil {
		add("start_time", *patch.StartTime)
	}
	if patch.EndTime != nil {
		add("end_time", *patch.EndTime)
	}
	if patch.TimeSegment != nil {
		add("time_segment", *patch.TimeSegment)
	}
	// an explicit time range clears the segment, and vice versa
	if patch.StartTime != nil && patch.EndTime != nil {
		sets = append(sets, "time_segment = ''")
	} else if patch.TimeSegment != nil && *patch.TimeSegment != "" {
		sets = append(sets, "start_time = NULL", "end_time = NULL")
	}

	args = append(args, taskID, userID)
	query := fmt.Sprintf(`UPDATE tasks SET %s WHERE id = $%d AND created_by = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args)-1, len(args), taskColumns)

	row := s.db.QueryRowContext(ctx, query, args...)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	s.logger.WithContext(ctx).Info("task updated", slog.Int64("task_id", taskID))
	return t, nil
}

// UpdateTaskStatus moves a task to the given lifecycle status.
func (s *Service) UpdateTaskStatus(ctx context.Context, taskID, userID int64, status string) (*Task, error) {
	if !ValidStatus(status) {
		return nil, fmt.Errorf("invalid status: %s", status)
	}
	row := s.db.QueryRowContext(ctx, `
		UPDATE tasks SET status = $1, updated_at = NOW()
		WHERE id = $2 AND created_by = $3
		RETURNING `+taskColumns, status, taskID, userID)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update task status: %w", err)
	}

	s.logger.WithContext(ctx).Info("task status updated",
		slog.Int64("task_id", taskID),
		slog.String("status", status))
	return t, nil
}

// DeleteTask removes a task permanently.
func (s *Service) DeleteTask(ctx context.Context, taskID, userID int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = $1 AND created_by = $2`, taskID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return ErrTaskNotFound
	}

	s.logger.WithContext(ctx).Info("task deleted", slog.Int64("task_id", taskID))
	return nil
}
