package reminder

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/daybook-ai/daybook/internal/logger"
	"github.com/google/uuid"
)

// Service handles reminder persistence.
type Service struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewService creates a new reminder service.
func NewService(db *sql.DB, log *logger.Logger) *Service {
	return &Service{
		db:     db,
		logger: log.WithComponent("reminder-service"),
	}
}

const reminderColumns = `id, user_id, task_id, remind_at, content, status, channel, created_at, updated_at`

func scanReminder(row interface{ Scan(...interface{}) error }) (*Reminder, error) {
	var r Reminder
	err := row.Scan(&r.ID, &r.UserID, &r.TaskID, &r.RemindAt, &r.Content, &r.Status,
		&r.Channel, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Create schedules a new pending reminder for the user.
func (s *Service) Create(ctx context.Context, userID int64, input CreateReminderInput) (*Reminder, error) {
	if input.Channel == "" {
		input.Channel = "app"
	}
	id := uuid.New().String()

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO reminders (id, user_id, task_id, remind_at, content, status, channel)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+reminderColumns,
		id, userID, input.TaskID, input.RemindAt.UTC(), input.Content, string(StatusPending), input.Channel)
	r, err := scanReminder(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create reminder: %w", err)
	}

	s.logger.WithContext(ctx).Info("reminder scheduled",
		slog.String("reminder_id", r.ID),
		slog.Int64("user_id", userID),
		slog.Time("remind_at", r.RemindAt))
	return r, nil
}

// ListByUser returns the user's reminders, soonest first.
func (s *Service) ListByUser(ctx context.Context, userID int64) ([]Reminder, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+reminderColumns+` FROM reminders
		WHERE user_id = $1 ORDER BY remind_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reminders: %w", err)
	}
	defer rows.Close()

	var reminders []Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		reminders = append(reminders, *r)
	}
	return reminders, rows.Err()
}

// ListDue returns pending reminders whose remind time has arrived.
func (s *Service) ListDue(ctx context.Context, now time.Time) ([]Reminder, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+reminderColumns+` FROM reminders
		WHERE status = $1 AND remind_at <= $2
		ORDER BY remind_at ASC`, string(StatusPending), now.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query due reminders: %w", err)
	}
	defer rows.Close()

	var due []Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		due = append(due, *r)
	}
	return due, rows.Err()
}

// Cancel marks a pending reminder as cancelled.
func (s *Service) Cancel(ctx context.Context, reminderID string, userID int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE reminders SET status = $1, updated_at = NOW()
		WHERE id = $2 AND user_id = $3 AND status = $4`,
		string(StatusCancelled), reminderID, userID, string(StatusPending))
	if err != nil {
		return fmt.Errorf("failed to cancel reminder: %w", err)
	}
	return nil
}

// MarkDelivered transitions a reminder out of pending once dispatched.
func (s *Service) MarkDelivered(ctx context.Context, reminderID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE reminders SET status = $1, updated_at = NOW() WHERE id = $2`,
		string(StatusDelivered), reminderID)
	if err != nil {
		return fmt.Errorf("failed to mark reminder delivered: %w", err)
	}
	return nil
}
