// Package tools contains the deterministic capabilities exposed to the
// agents. Every tool returns a uniform JSON ToolResult: the message field is
// read by the LLM as natural-language context, while task and
// conflictingTasks are consumed structurally by the service facade. Expected
// domain conditions (validation failures, conflicts, ambiguous references)
// are always encoded as statuses, never raised as Go errors, so the LLM can
// read and react to them.
package tools

import (
	"context"
	"encoding/json"

	"github.com/daybook-ai/daybook/internal/llm"
	"github.com/daybook-ai/daybook/internal/reminder"
	"github.com/daybook-ai/daybook/internal/task"
)

// Tool defines the interface for executable tools that AI models can call.
type Tool interface {
	// Name returns the unique identifier for this tool
	Name() string

	// Definition returns the OpenAI-compatible function definition
	Definition() llm.ToolDefinition

	// Execute runs the tool with the given arguments and per-invocation
	// runtime context. The returned string is a JSON-encoded ToolResult.
	Execute(ctx context.Context, rc RuntimeContext, args string) (string, error)
}

// TaskStore is the task storage collaborator consumed by the tools.
type TaskStore interface {
	CreateTask(ctx context.Context, userID int64, input task.CreateTaskInput) (*task.Task, error)
	GetTasks(ctx context.Context, userID int64, filters task.Filters) ([]task.Task, error)
	GetTaskByID(ctx context.Context, taskID, userID int64) (*task.Task, error)
	UpdateTask(ctx context.Context, taskID, userID int64, patch task.UpdateTaskInput) (*task.Task, error)
	UpdateTaskStatus(ctx context.Context, taskID, userID int64, status string) (*task.Task, error)
	DeleteTask(ctx context.Context, taskID, userID int64) error
}

// ReminderStore is the reminder storage collaborator.
type ReminderStore interface {
	Create(ctx context.Context, userID int64, input reminder.CreateReminderInput) (*reminder.Reminder, error)
}

// RuntimeContext is the per-invocation context threaded through every tool
// call: the storage handles, whose request this is, and what the user's clock
// reads. It is passed explicitly rather than held in package state so the
// tools stay free of globals.
type RuntimeContext struct {
	Tasks           TaskStore
	Reminders       ReminderStore
	UserID          int64
	TZOffsetMinutes int
}

func (rc RuntimeContext) valid() bool {
	return rc.Tasks != nil && rc.UserID > 0
}

// ToolResult statuses.
const (
	StatusSuccess          = "success"
	StatusConflict         = "conflict"
	StatusNeedConfirmation = "need_confirmation"
	StatusError            = "error"
)

// ToolResult is the uniform contract every tool returns.
type ToolResult struct {
	Status           string                 `json:"status"`
	Message          string                 `json:"message"`
	Task             *task.Task             `json:"task,omitempty"`
	ConflictingTasks []task.Task            `json:"conflictingTasks,omitempty"`
	ActionPerformed  string                 `json:"actionPerformed,omitempty"` // create, update, complete, delete
	Data             map[string]interface{} `json:"data,omitempty"`
}

// JSON encodes the result for the tool-call boundary.
func (r ToolResult) JSON() string {
	b, err := json.Marshal(r)
	if err != nil {
		return `{"status":"error","message":"内部错误：结果序列化失败"}`
	}
	return string(b)
}

func errorResult(message string) string {
	return ToolResult{Status: StatusError, Message: message}.JSON()
}

func needConfirmation(message string) string {
	return ToolResult{Status: StatusNeedConfirmation, Message: message}.JSON()
}

// missingContextResult is the fail-soft answer when the runtime context has
// no storage handle or user identity.
func missingContextResult() string {
	return errorResult("系统暂时无法处理该请求（缺少运行上下文），请稍后再试")
}

// ParseArguments is a helper to parse JSON arguments into a struct.
func ParseArguments(args string, target interface{}) error {
	return json.Unmarshal([]byte(args), target)
}
