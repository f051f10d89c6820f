package reminder

import "time"

// Reminder is a scheduled notification for a user, optionally attached to a
// task. RemindAt is an absolute instant computed by the notification tool,
// never supplied by the LLM.
type Reminder struct {
	ID        string    `json:"id" db:"id"`
	UserID    int64     `json:"userId" db:"user_id"`
	TaskID    *int64    `json:"taskId,omitempty" db:"task_id"`
	RemindAt  time.Time `json:"remindAt" db:"remind_at"`
	Content   string    `json:"content" db:"content"`
	Status    string    `json:"status" db:"status"`
	Channel   string    `json:"channel" db:"channel"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// ReminderStatus represents the lifecycle status of a reminder.
type ReminderStatus string

const (
	StatusPending   ReminderStatus = "pending"
	StatusCancelled ReminderStatus = "cancelled"
	StatusDelivered ReminderStatus = "delivered"
)

// CreateReminderInput is the input for scheduling a reminder.
type CreateReminderInput struct {
	TaskID   *int64
	RemindAt time.Time
	Content  string
	Channel  string
}
