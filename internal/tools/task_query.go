package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/daybook-ai/daybook/internal/llm"
	"github.com/daybook-ai/daybook/internal/logger"
	"github.com/daybook-ai/daybook/internal/task"
)

// QueryTasksTool lists tasks filtered by status, due date and priority. An
// empty result is a normal outcome, not a failure.
type QueryTasksTool struct {
	logger *logger.Logger
}

// NewQueryTasksTool creates a new query_tasks tool.
func NewQueryTasksTool(log *logger.Logger) *QueryTasksTool {
	return &QueryTasksTool{logger: log.WithComponent("query-tasks-tool")}
}

func (t *QueryTasksTool) Name() string { return "query_tasks" }

func (t *QueryTasksTool) Definition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Type: "function",
		Function: llm.FunctionDef{
			Name:        "query_tasks",
			Description: "按状态、日期、优先级查询用户的任务列表",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"status": map[string]interface{}{
						"type":        "string",
						"description": "任务状态过滤",
						"enum":        []string{"pending", "completed", "cancelled"},
					},
					"dueDate": map[string]interface{}{
						"type":        "string",
						"description": "任务日期过滤，YYYY-MM-DD",
					},
					"priority": map[string]interface{}{
						"type":        "string",
						"description": "优先级过滤",
						"enum":        []string{"high", "medium", "low"},
					},
				},
				"additionalProperties": false,
			},
		},
	}
}

type queryTasksArgs struct {
	Status   string `json:"status,omitempty"`
	DueDate  string `json:"dueDate,omitempty"`
	Priority string `json:"priority,omitempty"`
}

func (t *QueryTasksTool) Execute(ctx context.Context, rc RuntimeContext, args string) (string, error) {
	var a queryTasksArgs
	if err := ParseArguments(args, &a); err != nil {
		return errorResult("参数解析失败"), nil
	}
	if !rc.valid() {
		return missingContextResult(), nil
	}

	tasks, err := rc.Tasks.GetTasks(ctx, rc.UserID, task.Filters{
		Status:   a.Status,
		DueDate:  a.DueDate,
		Priority: a.Priority,
	})
	if err != nil {
		t.logger.LogError(ctx, err, "failed to query tasks")
		return errorResult("查询任务失败，请稍后再试"), nil
	}

	if len(tasks) == 0 {
		return ToolResult{
			Status:  StatusSuccess,
			Message: "没有找到符合条件的任务",
		}.JSON(), nil
	}

	var lines []string
	lines = append(lines, fmt.Sprintf("找到 %d 个任务：", len(tasks)))
	for _, item := range tasks {
		date := "无日期"
		if item.DueDate != nil {
			date = *item.DueDate
		}
		lines = append(lines, fmt.Sprintf("- [%d] %s（%s %s，%s，%s）",
			item.ID, item.Title, date, describeTaskTime(item), item.Status, item.Priority))
	}

	return ToolResult{
		Status:  StatusSuccess,
		Message: strings.Join(lines, "\n"),
		Data:    map[string]interface{}{"count": len(tasks)},
	}.JSON(), nil
}
