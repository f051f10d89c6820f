package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/daybook-ai/daybook/internal/llm"
	"github.com/daybook-ai/daybook/internal/logger"
	"github.com/daybook-ai/daybook/internal/reminder"
	"github.com/daybook-ai/daybook/internal/timeutil"
)

// ScheduleReminderTool schedules a reminder for a task. The remind time is
// computed here from the task date/time and the user's clock; the LLM only
// supplies what the task is, never when to ring.
type ScheduleReminderTool struct {
	logger *logger.Logger
}

// NewScheduleReminderTool creates a new schedule_reminder tool.
func NewScheduleReminderTool(log *logger.Logger) *ScheduleReminderTool {
	return &ScheduleReminderTool{logger: log.WithComponent("schedule-reminder-tool")}
}

func (t *ScheduleReminderTool) Name() string { return "schedule_reminder" }

func (t *ScheduleReminderTool) Definition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Type: "function",
		Function: llm.FunctionDef{
			Name:        "schedule_reminder",
			Description: "为任务安排提醒。只需给出任务标题、日期和开始时间，提醒触发时刻由系统计算，不要自行指定",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"taskTitle": map[string]interface{}{
						"type":        "string",
						"description": "任务标题",
					},
					"taskDate": map[string]interface{}{
						"type":        "string",
						"description": "任务日期 YYYY-MM-DD",
					},
					"startTime": map[string]interface{}{
						"type":        "string",
						"description": "任务开始时间 HH:MM，没有就省略",
					},
					"taskId": map[string]interface{}{
						"type":        "integer",
						"description": "任务编号，可选",
					},
					"weatherInfo": map[string]interface{}{
						"type":        "string",
						"description": "天气信息，会作为出行建议附在提醒内容后，可选",
					},
					"channel": map[string]interface{}{
						"type":        "string",
						"description": "提醒渠道，默认 app",
						"enum":        []string{"app", "email"},
					},
				},
				"required":             []string{"taskTitle", "taskDate"},
				"additionalProperties": false,
			},
		},
	}
}

type scheduleReminderArgs struct {
	TaskTitle   string `json:"taskTitle"`
	TaskDate    string `json:"taskDate"`
	StartTime   string `json:"startTime,omitempty"`
	TaskID      *int64 `json:"taskId,omitempty"`
	WeatherInfo string `json:"weatherInfo,omitempty"`
	Channel     string `json:"channel,omitempty"`
}

// computeRemindAt applies the reminder policy and returns the absolute UTC
// instant to ring at:
//   - cross-day task: 20:00 the day before the task date
//   - same-day task with a start time: two hours before it
//   - same-day task without a time: 08:00 that day
//
// The wall-clock values above are in the user's clock; tzOffsetMinutes (JS
// getTimezoneOffset convention) converts them back to UTC.
func computeRemindAt(now time.Time, tzOffsetMinutes int, taskDate, startTime string) (time.Time, error) {
	date, err := time.Parse(timeutil.DateLayout, taskDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid task date %q", taskDate)
	}

	userToday := now.UTC().Add(-time.Duration(tzOffsetMinutes) * time.Minute).Format(timeutil.DateLayout)

	var local time.Time
	switch {
	case taskDate != userToday:
		local = date.AddDate(0, 0, -1).Add(20 * time.Hour)
	case startTime != "":
		minutes, ok := timeutil.ParseClockMinutes(startTime)
		if !ok {
			return time.Time{}, fmt.Errorf("invalid start time %q", startTime)
		}
		local = date.Add(time.Duration(minutes)*time.Minute - 2*time.Hour)
	default:
		local = date.Add(8 * time.Hour)
	}

	// local is a wall-clock value laid out on the UTC calendar; adding the
	// offset recovers the real instant.
	return local.Add(time.Duration(tzOffsetMinutes) * time.Minute), nil
}

func (t *ScheduleReminderTool) Execute(ctx context.Context, rc RuntimeContext, args string) (string, error) {
	var a scheduleReminderArgs
	if err := ParseArguments(args, &a); err != nil {
		return errorResult("参数解析失败"), nil
	}
	if !rc.valid() || rc.Reminders == nil {
		return missingContextResult(), nil
	}
	if strings.TrimSpace(a.TaskTitle) == "" {
		return needConfirmation("请告诉我要提醒哪个任务"), nil
	}
	if !dateFormatRe.MatchString(a.TaskDate) {
		return needConfirmation(fmt.Sprintf("日期格式不正确：%s，请使用 YYYY-MM-DD", a.TaskDate)), nil
	}

	now := time.Now()
	remindAt, err := computeRemindAt(now, rc.TZOffsetMinutes, a.TaskDate, a.StartTime)
	if err != nil {
		return needConfirmation("时间信息无法解析，请确认任务的日期和时间"), nil
	}
	if !remindAt.After(now) {
		// nothing the user can add will fix an already-expired remind time
		return errorResult(fmt.Sprintf("「%s」的提醒时间已经过去，无法安排提醒", a.TaskTitle)), nil
	}

	content := fmt.Sprintf("记得：%s", a.TaskTitle)
	if a.WeatherInfo != "" {
		content += fmt.Sprintf("（出行建议：%s）", a.WeatherInfo)
	}

	created, err := rc.Reminders.Create(ctx, rc.UserID, reminder.CreateReminderInput{
		TaskID:   a.TaskID,
		RemindAt: remindAt,
		Content:  content,
		Channel:  a.Channel,
	})
	if err != nil {
		t.logger.LogError(ctx, err, "failed to create reminder")
		return errorResult("安排提醒失败，请稍后再试"), nil
	}

	localRemind := remindAt.UTC().Add(-time.Duration(rc.TZOffsetMinutes) * time.Minute)
	return ToolResult{
		Status: StatusSuccess,
		Message: fmt.Sprintf("已为「%s」安排提醒，时间 %s",
			a.TaskTitle, localRemind.Format("2006-01-02 15:04")),
		Data: map[string]interface{}{"reminderId": created.ID, "remindAt": created.RemindAt.Format(time.RFC3339)},
	}.JSON(), nil
}
