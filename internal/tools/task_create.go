package tools

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/daybook-ai/daybook/internal/conflict"
	"github.com/daybook-ai/daybook/internal/llm"
	"github.com/daybook-ai/daybook/internal/logger"
	"github.com/daybook-ai/daybook/internal/task"
	"github.com/daybook-ai/daybook/internal/timeutil"
)

var dateFormatRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// segmentLabels render segments for user-facing messages.
var segmentLabels = map[string]string{
	timeutil.SegmentAllDay:       "全天",
	timeutil.SegmentEarlyMorning: "凌晨",
	timeutil.SegmentMorning:      "早上",
	timeutil.SegmentForenoon:     "上午",
	timeutil.SegmentNoon:         "中午",
	timeutil.SegmentAfternoon:    "下午",
	timeutil.SegmentEvening:      "晚上",
}

func segmentLabel(segment string) string {
	if label, ok := segmentLabels[segment]; ok {
		return label
	}
	return segment
}

// describeTaskTime renders a task's time info for conflict messages.
func describeTaskTime(t task.Task) string {
	if t.StartTime != nil && t.EndTime != nil {
		return fmt.Sprintf("%s-%s", *t.StartTime, *t.EndTime)
	}
	if t.TimeSegment != "" {
		return segmentLabel(t.TimeSegment)
	}
	return segmentLabel(timeutil.SegmentAllDay)
}

// CreateTaskTool creates a task after validating its time slot and checking
// for time and semantic conflicts. Conflicts block creation: a retry must be
// driven by a later user turn, the tool never overrides on its own.
type CreateTaskTool struct {
	logger *logger.Logger
}

// NewCreateTaskTool creates a new create_task tool.
func NewCreateTaskTool(log *logger.Logger) *CreateTaskTool {
	return &CreateTaskTool{logger: log.WithComponent("create-task-tool")}
}

func (t *CreateTaskTool) Name() string { return "create_task" }

func (t *CreateTaskTool) Definition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Type: "function",
		Function: llm.FunctionDef{
			Name:        "create_task",
			Description: "创建一个新任务。从用户话语中提取标题、日期、时间等参数即可；时间是否已过、是否与已有任务冲突由本工具判定，不要自行判断。",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"title": map[string]interface{}{
						"type":        "string",
						"description": "任务标题，保留用户的动词和对象，如“取快递”",
					},
					"description": map[string]interface{}{
						"type":        "string",
						"description": "任务的补充说明，可选",
					},
					"dueDate": map[string]interface{}{
						"type":        "string",
						"description": "任务日期，YYYY-MM-DD。不确定时省略，默认用户的今天",
					},
					"startTime": map[string]interface{}{
						"type":        "string",
						"description": "开始时间 HH:MM，必须与 endTime 成对出现",
					},
					"endTime": map[string]interface{}{
						"type":        "string",
						"description": "结束时间 HH:MM，必须与 startTime 成对出现",
					},
					"timeSegment": map[string]interface{}{
						"type":        "string",
						"description": "时间段，与 startTime/endTime 互斥",
						"enum": []string{
							timeutil.SegmentAllDay, timeutil.SegmentEarlyMorning, timeutil.SegmentMorning,
							timeutil.SegmentForenoon, timeutil.SegmentNoon, timeutil.SegmentAfternoon,
							timeutil.SegmentEvening,
						},
					},
					"priority": map[string]interface{}{
						"type":        "string",
						"description": "优先级，默认 medium",
						"enum":        []string{"high", "medium", "low"},
					},
					"groupId": map[string]interface{}{
						"type":        "integer",
						"description": "任务所属分组，可选",
					},
					"confirmed": map[string]interface{}{
						"type":        "boolean",
						"description": "用户对重复任务提示明确回复确认后重试时设为 true，跳过相似任务检查。时间冲突不受影响，仍会阻止创建",
					},
				},
				"required":             []string{"title"},
				"additionalProperties": false,
			},
		},
	}
}

type createTaskArgs struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	DueDate     string `json:"dueDate,omitempty"`
	StartTime   string `json:"startTime,omitempty"`
	EndTime     string `json:"endTime,omitempty"`
	TimeSegment string `json:"timeSegment,omitempty"`
	Priority    string `json:"priority,omitempty"`
	GroupID     *int64 `json:"groupId,omitempty"`
	Confirmed   bool   `json:"confirmed,omitempty"`
}

func (t *CreateTaskTool) Execute(ctx context.Context, rc RuntimeContext, args string) (string, error) {
	var a createTaskArgs
	if err := ParseArguments(args, &a); err != nil {
		return errorResult("参数解析失败，请重新表述任务内容"), nil
	}
	if !rc.valid() {
		return missingContextResult(), nil
	}
	if strings.TrimSpace(a.Title) == "" {
		return needConfirmation("请告诉我任务的标题是什么"), nil
	}

	hasStart := a.StartTime != ""
	hasEnd := a.EndTime != ""
	if hasStart != hasEnd {
		return needConfirmation("任务的开始和结束时间需要同时给出，请补全另一个时间"), nil
	}

	effectiveDate := a.DueDate
	if effectiveDate == "" {
		effectiveDate = timeutil.TodayDate(rc.TZOffsetMinutes)
	}
	if !dateFormatRe.MatchString(effectiveDate) {
		return needConfirmation(fmt.Sprintf("日期格式不正确：%s，请使用 YYYY-MM-DD", effectiveDate)), nil
	}

	hasRange := hasStart && hasEnd
	segment := ""
	if hasRange {
		if _, ok := timeutil.ParseClockMinutes(a.StartTime); !ok {
			return needConfirmation(fmt.Sprintf("开始时间格式不正确：%s，请使用 HH:MM", a.StartTime)), nil
		}
		if _, ok := timeutil.ParseClockMinutes(a.EndTime); !ok {
			return needConfirmation(fmt.Sprintf("结束时间格式不正确：%s，请使用 HH:MM", a.EndTime)), nil
		}
		if timeutil.IsTimeRangePassedForToday(effectiveDate, a.StartTime, a.EndTime, rc.TZOffsetMinutes) {
			return needConfirmation(fmt.Sprintf(
				"%s %s-%s 已经过去了，请换一个时间，或确认仍要创建", effectiveDate, a.StartTime, a.EndTime)), nil
		}
	} else {
		segment = a.TimeSegment
		if segment == "" {
			segment = timeutil.DefaultTimeSegmentForDate(effectiveDate, rc.TZOffsetMinutes)
		}
		if !timeutil.ValidSegment(segment) {
			return needConfirmation(fmt.Sprintf("无法识别的时间段：%s", segment)), nil
		}
		if !timeutil.IsSegmentAllowedForToday(effectiveDate, segment, rc.TZOffsetMinutes) {
			current := timeutil.CurrentTimeSegment(rc.TZOffsetMinutes)
			return needConfirmation(fmt.Sprintf(
				"现在已经是%s，今天的「%s」时段不再适用。请确认一个更晚的时段，或给出具体时间",
				segmentLabel(current), segmentLabel(segment))), nil
		}
	}

	pending, err := rc.Tasks.GetTasks(ctx, rc.UserID, task.Filters{
		Status:  string(task.StatusPending),
		DueDate: effectiveDate,
	})
	if err != nil {
		t.logger.LogError(ctx, err, "failed to load pending tasks for conflict check")
		return errorResult("查询已有任务失败，请稍后再试"), nil
	}

	var timeConflicts []task.Task
	if hasRange {
		timeConflicts = conflict.FilterTimeConflicts(pending, a.StartTime, a.EndTime)
	}
	// A confirmed retry bypasses the similarity check only; overlapping time
	// ranges are a hard constraint.
	var semanticConflicts []task.Task
	if !a.Confirmed {
		semanticConflicts = conflict.FindSemanticConflicts(pending, a.Title)
	}

	if len(timeConflicts) > 0 || len(semanticConflicts) > 0 {
		merged := conflict.MergeConflictingTasks(timeConflicts, semanticConflicts)
		var lines []string
		lines = append(lines, fmt.Sprintf("「%s」与 %s 已有的 %d 个任务存在冲突：", a.Title, effectiveDate, len(merged)))
		for _, c := range merged {
			lines = append(lines, fmt.Sprintf("- [%d] %s（%s）", c.ID, c.Title, describeTaskTime(c)))
		}
		if len(timeConflicts) == 0 {
			lines = append(lines, "如果确认这是不同的任务，请回复“确认”再次创建")
		} else {
			lines = append(lines, "请换一个时间，或先调整已有任务")
		}
		return ToolResult{
			Status:           StatusConflict,
			Message:          strings.Join(lines, "\n"),
			ConflictingTasks: merged,
		}.JSON(), nil
	}

	input := task.CreateTaskInput{
		Title:       a.Title,
		Description: a.Description,
		Priority:    a.Priority,
		GroupID:     a.GroupID,
		DueDate:     &effectiveDate,
		TimeSegment: segment,
		Source:      string(task.SourceAI),
	}
	if hasRange {
		input.StartTime = &a.StartTime
		input.EndTime = &a.EndTime
	}

	created, err := rc.Tasks.CreateTask(ctx, rc.UserID, input)
	if err != nil {
		t.logger.LogError(ctx, err, "failed to create task")
		return errorResult("创建任务失败，请稍后再试"), nil
	}

	return ToolResult{
		Status:          StatusSuccess,
		Message:         fmt.Sprintf("已创建任务「%s」，日期 %s，时间 %s", created.Title, effectiveDate, describeTaskTime(*created)),
		Task:            created,
		ActionPerformed: "create",
	}.JSON(), nil
}
