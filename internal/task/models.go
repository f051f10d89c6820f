package task

import "time"

// Task represents a user task. A task carries either an explicit time range
// (StartTime and EndTime, both set) or a coarse time segment, never both.
// TimeSegment defaults to "all_day" when no time information is given.
type Task struct {
	ID            int64     `json:"id" db:"id"`
	Title         string    `json:"title" db:"title"`
	Description   string    `json:"description,omitempty" db:"description"`
	Status        string    `json:"status" db:"status"`
	Priority      string    `json:"priority" db:"priority"`
	GroupID       *int64    `json:"groupId,omitempty" db:"group_id"`
	CreatedBy     int64     `json:"createdBy" db:"created_by"`
	AssignedToIDs []int64   `json:"assignedToIds,omitempty" db:"assigned_to_ids"`
	DueDate       *string   `json:"dueDate,omitempty" db:"due_date"`     // YYYY-MM-DD
	StartTime     *string   `json:"startTime,omitempty" db:"start_time"` // HH:MM
	EndTime       *string   `json:"endTime,omitempty" db:"end_time"`     // HH:MM
	TimeSegment   string    `json:"timeSegment,omitempty" db:"time_segment"`
	Source        string    `json:"source" db:"source"` // "ai" or "human"
	Recurrence    string    `json:"recurrence,omitempty" db:"recurrence"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}

// TaskStatus represents the lifecycle status of a task.
type TaskStatus string

const (
	StatusPending   TaskStatus = "pending"
	StatusCompleted TaskStatus = "completed"
	StatusCancelled TaskStatus = "cancelled"
)

// TaskPriority represents the priority of a task.
type TaskPriority string

const (
	PriorityHigh   TaskPriority = "high"
	PriorityMedium TaskPriority = "medium"
	PriorityLow    TaskPriority = "low"
)

// TaskSource marks who created the task.
type TaskSource string

const (
	SourceAI    TaskSource = "ai"
	SourceHuman TaskSource = "human"
)

// ValidStatus reports whether s is a known task status.
func ValidStatus(s string) bool {
	switch TaskStatus(s) {
	case StatusPending, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// ValidPriority reports whether p is a known task priority.
func ValidPriority(p string) bool {
	switch TaskPriority(p) {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// CreateTaskInput is the input for creating a task.
type CreateTaskInput struct {
	Title         string  `json:"title" binding:"required"`
	Description   string  `json:"description"`
	Priority      string  `json:"priority"`
	GroupID       *int64  `json:"groupId"`
	AssignedToIDs []int64 `json:"assignedToIds"`
	DueDate       *string `json:"dueDate"`
	StartTime     *string `json:"startTime"`
	EndTime       *string `json:"endTime"`
	TimeSegment   string  `json:"timeSegment"`
	Source        string  `json:"source"`
	Recurrence    string  `json:"recurrence"`
}

// UpdateTaskInput is a partial patch; nil fields are left untouched.
type UpdateTaskInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
	DueDate     *string `json:"dueDate"`
	StartTime   *string `json:"startTime"`
	EndTime     *string `json:"endTime"`
	TimeSegment *string `json:"timeSegment"`
}

// Filters narrows GetTasks results. Zero values mean "no filter".
type Filters struct {
	Status   string
	DueDate  string
	Priority string
	Limit    int
}
