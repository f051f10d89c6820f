package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/daybook-ai/daybook/internal/conflict"
	"github.com/daybook-ai/daybook/internal/llm"
	"github.com/daybook-ai/daybook/internal/logger"
	"github.com/daybook-ai/daybook/internal/task"
	"github.com/daybook-ai/daybook/internal/timeutil"
)

// resolveTargetTask finds the task a mutation refers to. A numeric ID is
// authoritative; otherwise the title is fuzzy-matched against the user's
// pending tasks due today. Zero matches fail, multiple matches ask the user
// to pick an ID. The tool never guesses.
func resolveTargetTask(ctx context.Context, rc RuntimeContext, taskID int64, title string) (*task.Task, string) {
	if taskID > 0 {
		target, err := rc.Tasks.GetTaskByID(ctx, taskID, rc.UserID)
		if errors.Is(err, task.ErrTaskNotFound) {
			return nil, errorResult(fmt.Sprintf("找不到编号为 %d 的任务", taskID))
		}
		if err != nil {
			return nil, errorResult("查询任务失败，请稍后再试")
		}
		return target, ""
	}

	if strings.TrimSpace(title) == "" {
		return nil, errorResult("请提供任务编号或任务标题")
	}

	today := timeutil.TodayDate(rc.TZOffsetMinutes)
	pending, err := rc.Tasks.GetTasks(ctx, rc.UserID, task.Filters{
		Status:  string(task.StatusPending),
		DueDate: today,
	})
	if err != nil {
		return nil, errorResult("查询任务失败，请稍后再试")
	}

	matches := conflict.FindSemanticConflicts(pending, title)
	switch len(matches) {
	case 0:
		return nil, errorResult(fmt.Sprintf("今天没有找到与「%s」匹配的待办任务", title))
	case 1:
		return &matches[0], ""
	default:
		var lines []string
		lines = append(lines, fmt.Sprintf("「%s」匹配到多个任务，请告诉我任务编号：", title))
		for _, m := range matches {
			lines = append(lines, fmt.Sprintf("- [%d] %s（%s）", m.ID, m.Title, describeTaskTime(m)))
		}
		return nil, ToolResult{
			Status:           StatusNeedConfirmation,
			Message:          strings.Join(lines, "\n"),
			ConflictingTasks: matches,
		}.JSON()
	}
}

// targetArgs are the shared reference parameters of the mutation tools.
var targetProperties = map[string]interface{}{
	"taskId": map[string]interface{}{
		"type":        "integer",
		"description": "任务编号。已知编号时必须使用编号",
	},
	"title": map[string]interface{}{
		"type":        "string",
		"description": "任务标题，仅在不知道编号时用于模糊匹配今天的待办任务",
	},
}

// ModifyTaskTool patches an existing task's fields.
type ModifyTaskTool struct {
	logger *logger.Logger
}

// NewModifyTaskTool creates a new modify_task tool.
func NewModifyTaskTool(log *logger.Logger) *ModifyTaskTool {
	return &ModifyTaskTool{logger: log.WithComponent("modify-task-tool")}
}

func (t *ModifyTaskTool) Name() string { return "modify_task" }

func (t *ModifyTaskTool) Definition() llm.ToolDefinition {
	properties := map[string]interface{}{
		"newTitle": map[string]interface{}{
			"type":        "string",
			"description": "新的任务标题",
		},
		"newDescription": map[string]interface{}{
			"type":        "string",
			"description": "新的任务说明",
		},
		"newDueDate": map[string]interface{}{
			"type":        "string",
			"description": "新的任务日期 YYYY-MM-DD",
		},
		"newStartTime": map[string]interface{}{
			"type":        "string",
			"description": "新的开始时间 HH:MM，与 newEndTime 成对",
		},
		"newEndTime": map[string]interface{}{
			"type":        "string",
			"description": "新的结束时间 HH:MM，与 newStartTime 成对",
		},
		"newTimeSegment": map[string]interface{}{
			"type":        "string",
			"description": "新的时间段，与显式时间互斥",
		},
		"newPriority": map[string]interface{}{
			"type":        "string",
			"description": "新的优先级",
			"enum":        []string{"high", "medium", "low"},
		},
	}
	for k, v := range targetProperties {
		properties[k] = v
	}
	return llm.ToolDefinition{
		Type: "function",
		Function: llm.FunctionDef{
			Name:        "modify_task",
			Description: "修改已有任务的标题、日期、时间或优先级",
			Parameters: map[string]interface{}{
				"type":                 "object",
				"properties":           properties,
				"additionalProperties": false,
			},
		},
	}
}

type modifyTaskArgs struct {
	TaskID         int64  `json:"taskId,omitempty"`
	Title          string `json:"title,omitempty"`
	NewTitle       string `json:"newTitle,omitempty"`
	NewDescription string `json:"newDescription,omitempty"`
	NewDueDate     string `json:"newDueDate,omitempty"`
	NewStartTime   string `json:"newStartTime,omitempty"`
	NewEndTime     string `json:"newEndTime,omitempty"`
	NewTimeSegment string `json:"newTimeSegment,omitempty"`
	NewPriority    string `json:"newPriority,omitempty"`
}

func (t *ModifyTaskTool) Execute(ctx context.Context, rc RuntimeContext, args string) (string, error) {
	var a modifyTaskArgs
	if err := ParseArguments(args, &a); err != nil {
		return errorResult("参数解析失败"), nil
	}
	if !rc.valid() {
		return missingContextResult(), nil
	}

	if (a.NewStartTime != "") != (a.NewEndTime != "") {
		return needConfirmation("新的开始和结束时间需要同时给出"), nil
	}

	target, failed := resolveTargetTask(ctx, rc, a.TaskID, a.Title)
	if failed != "" {
		return failed, nil
	}

	patch := task.UpdateTaskInput{}
	changed := false
	if a.NewTitle != "" {
		patch.Title = &a.NewTitle
		changed = true
	}
	if a.NewDescription != "" {
		patch.Description = &a.NewDescription
		changed = true
	}
	if a.NewDueDate != "" {
		if !dateFormatRe.MatchString(a.NewDueDate) {
			return needConfirmation(fmt.Sprintf("日期格式不正确：%s，请使用 YYYY-MM-DD", a.NewDueDate)), nil
		}
		patch.DueDate = &a.NewDueDate
		changed = true
	}
	if a.NewStartTime != "" {
		if _, ok := timeutil.ParseClockMinutes(a.NewStartTime); !ok {
			return needConfirmation(fmt.Sprintf("开始时间格式不正确：%s", a.NewStartTime)), nil
		}
		if _, ok := timeutil.ParseClockMinutes(a.NewEndTime); !ok {
			return needConfirmation(fmt.Sprintf("结束时间格式不正确：%s", a.NewEndTime)), nil
		}
		patch.StartTime = &a.NewStartTime
		patch.EndTime = &a.NewEndTime
		changed = true
	}
	if a.NewTimeSegment != "" {
		if !timeutil.ValidSegment(a.NewTimeSegment) {
			return needConfirmation(fmt.Sprintf("无法识别的时间段：%s", a.NewTimeSegment)), nil
		}
		if patch.StartTime != nil {
			return needConfirmation("时间段与具体时间不能同时设置"), nil
		}
		patch.TimeSegment = &a.NewTimeSegment
		changed = true
	}
	if a.NewPriority != "" {
		if !task.ValidPriority(a.NewPriority) {
			return needConfirmation(fmt.Sprintf("无法识别的优先级：%s", a.NewPriority)), nil
		}
		patch.Priority = &a.NewPriority
		changed = true
	}
	if !changed {
		return needConfirmation("请告诉我要修改任务的哪一项内容"), nil
	}

	updated, err := rc.Tasks.UpdateTask(ctx, target.ID, rc.UserID, patch)
	if err != nil {
		t.logger.LogError(ctx, err, "failed to update task")
		return errorResult("修改任务失败，请稍后再试"), nil
	}

	return ToolResult{
		Status:          StatusSuccess,
		Message:         fmt.Sprintf("已更新任务「%s」（编号 %d）", updated.Title, updated.ID),
		Task:            updated,
		ActionPerformed: "update",
	}.JSON(), nil
}

// FinishTaskTool marks a task completed.
type FinishTaskTool struct {
	logger *logger.Logger
}

// NewFinishTaskTool creates a new finish_task tool.
func NewFinishTaskTool(log *logger.Logger) *FinishTaskTool {
	return &FinishTaskTool{logger: log.WithComponent("finish-task-tool")}
}

func (t *FinishTaskTool) Name() string { return "finish_task" }

func (t *FinishTaskTool) Definition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Type: "function",
		Function: llm.FunctionDef{
			Name:        "finish_task",
			Description: "把一个任务标记为已完成",
			Parameters: map[string]interface{}{
				"type":                 "object",
				"properties":           targetProperties,
				"additionalProperties": false,
			},
		},
	}
}

type targetOnlyArgs struct {
	TaskID int64  `json:"taskId,omitempty"`
	Title  string `json:"title,omitempty"`
}

func (t *FinishTaskTool) Execute(ctx context.Context, rc RuntimeContext, args string) (string, error) {
	var a targetOnlyArgs
	if err := ParseArguments(args, &a); err != nil {
		return errorResult("参数解析失败"), nil
	}
	if !rc.valid() {
		return missingContextResult(), nil
	}

	target, failed := resolveTargetTask(ctx, rc, a.TaskID, a.Title)
	if failed != "" {
		return failed, nil
	}

	updated, err := rc.Tasks.UpdateTaskStatus(ctx, target.ID, rc.UserID, string(task.StatusCompleted))
	if err != nil {
		t.logger.LogError(ctx, err, "failed to complete task")
		return errorResult("完成任务失败，请稍后再试"), nil
	}

	return ToolResult{
		Status:          StatusSuccess,
		Message:         fmt.Sprintf("已完成任务「%s」（编号 %d）", updated.Title, updated.ID),
		Task:            updated,
		ActionPerformed: "complete",
	}.JSON(), nil
}

// RemoveTaskTool deletes a task.
type RemoveTaskTool struct {
	logger *logger.Logger
}

// NewRemoveTaskTool creates a new remove_task tool.
func NewRemoveTaskTool(log *logger.Logger) *RemoveTaskTool {
	return &RemoveTaskTool{logger: log.WithComponent("remove-task-tool")}
}

func (t *RemoveTaskTool) Name() string { return "remove_task" }

func (t *RemoveTaskTool) Definition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Type: "function",
		Function: llm.FunctionDef{
			Name:        "remove_task",
			Description: "删除一个任务",
			Parameters: map[string]interface{}{
				"type":                 "object",
				"properties":           targetProperties,
				"additionalProperties": false,
			},
		},
	}
}

func (t *RemoveTaskTool) Execute(ctx context.Context, rc RuntimeContext, args string) (string, error) {
	var a targetOnlyArgs
	if err := ParseArguments(args, &a); err != nil {
		return errorResult("参数解析失败"), nil
	}
	if !rc.valid() {
		return missingContextResult(), nil
	}

	target, failed := resolveTargetTask(ctx, rc, a.TaskID, a.Title)
	if failed != "" {
		return failed, nil
	}

	if err := rc.Tasks.DeleteTask(ctx, target.ID, rc.UserID); err != nil {
		t.logger.LogError(ctx, err, "failed to delete task")
		return errorResult("删除任务失败，请稍后再试"), nil
	}

	return ToolResult{
		Status:          StatusSuccess,
		Message:         fmt.Sprintf("已删除任务「%s」（编号 %d）", target.Title, target.ID),
		Task:            target,
		ActionPerformed: "delete",
	}.JSON(), nil
}
