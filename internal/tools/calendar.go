package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/daybook-ai/daybook/internal/llm"
	"github.com/daybook-ai/daybook/internal/logger"
	"github.com/daybook-ai/daybook/internal/task"
	"github.com/daybook-ai/daybook/internal/timeutil"
)

// DayScheduleTool lists a day's pending tasks, timed tasks first in start
// order, segment-only tasks trailing.
type DayScheduleTool struct {
	logger *logger.Logger
}

// NewDayScheduleTool creates a new get_day_schedule tool.
func NewDayScheduleTool(log *logger.Logger) *DayScheduleTool {
	return &DayScheduleTool{logger: log.WithComponent("day-schedule-tool")}
}

func (t *DayScheduleTool) Name() string { return "get_day_schedule" }

func (t *DayScheduleTool) Definition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Type: "function",
		Function: llm.FunctionDef{
			Name:        "get_day_schedule",
			Description: "查看某一天的日程安排，按时间排序",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"date": map[string]interface{}{
						"type":        "string",
						"description": "日期 YYYY-MM-DD，省略时为用户的今天",
					},
				},
				"additionalProperties": false,
			},
		},
	}
}

type dayScheduleArgs struct {
	Date string `json:"date,omitempty"`
}

// splitTimed partitions tasks into timed (sorted by start ascending) and
// untimed, preserving the incoming order of untimed tasks.
func splitTimed(tasks []task.Task) (timed, untimed []task.Task) {
	for _, item := range tasks {
		if item.StartTime != nil && item.EndTime != nil {
			timed = append(timed, item)
		} else {
			untimed = append(untimed, item)
		}
	}
	sort.SliceStable(timed, func(i, j int) bool {
		si, _ := timeutil.ParseClockMinutes(*timed[i].StartTime)
		sj, _ := timeutil.ParseClockMinutes(*timed[j].StartTime)
		return si < sj
	})
	return timed, untimed
}

func (t *DayScheduleTool) Execute(ctx context.Context, rc RuntimeContext, args string) (string, error) {
	var a dayScheduleArgs
	if err := ParseArguments(args, &a); err != nil {
		return errorResult("参数解析失败"), nil
	}
	if !rc.valid() {
		return missingContextResult(), nil
	}

	date := a.Date
	if date == "" {
		date = timeutil.TodayDate(rc.TZOffsetMinutes)
	}
	if !dateFormatRe.MatchString(date) {
		return needConfirmation(fmt.Sprintf("日期格式不正确：%s，请使用 YYYY-MM-DD", date)), nil
	}

	tasks, err := rc.Tasks.GetTasks(ctx, rc.UserID, task.Filters{
		Status:  string(task.StatusPending),
		DueDate: date,
	})
	if err != nil {
		t.logger.LogError(ctx, err, "failed to load day schedule")
		return errorResult("查询日程失败，请稍后再试"), nil
	}

	if len(tasks) == 0 {
		return ToolResult{
			Status:  StatusSuccess,
			Message: fmt.Sprintf("%s 没有安排任务", date),
		}.JSON(), nil
	}

	timed, untimed := splitTimed(tasks)
	var lines []string
	lines = append(lines, fmt.Sprintf("%s 共有 %d 个任务：", date, len(tasks)))
	for _, item := range timed {
		lines = append(lines, fmt.Sprintf("- %s-%s [%d] %s", *item.StartTime, *item.EndTime, item.ID, item.Title))
	}
	for _, item := range untimed {
		lines = append(lines, fmt.Sprintf("- %s [%d] %s", describeTaskTime(item), item.ID, item.Title))
	}

	return ToolResult{
		Status:  StatusSuccess,
		Message: strings.Join(lines, "\n"),
		Data:    map[string]interface{}{"count": len(tasks), "timed": len(timed)},
	}.JSON(), nil
}

// FreeSlot is one free interval in a day.
type FreeSlot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// FindFreeSlotsTool scans a bounded hour window for gaps between timed tasks.
type FindFreeSlotsTool struct {
	logger *logger.Logger
}

// NewFindFreeSlotsTool creates a new find_free_slots tool.
func NewFindFreeSlotsTool(log *logger.Logger) *FindFreeSlotsTool {
	return &FindFreeSlotsTool{logger: log.WithComponent("free-slots-tool")}
}

func (t *FindFreeSlotsTool) Name() string { return "find_free_slots" }

func (t *FindFreeSlotsTool) Definition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Type: "function",
		Function: llm.FunctionDef{
			Name:        "find_free_slots",
			Description: "查找某一天的空闲时间段，默认在 9-18 点之间",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"date": map[string]interface{}{
						"type":        "string",
						"description": "日期 YYYY-MM-DD，省略时为用户的今天",
					},
					"startHour": map[string]interface{}{
						"type":        "integer",
						"description": "搜索窗口起始小时，默认 9",
					},
					"endHour": map[string]interface{}{
						"type":        "integer",
						"description": "搜索窗口结束小时，默认 18",
					},
				},
				"additionalProperties": false,
			},
		},
	}
}

type findFreeSlotsArgs struct {
	Date      string `json:"date,omitempty"`
	StartHour *int   `json:"startHour,omitempty"`
	EndHour   *int   `json:"endHour,omitempty"`
}

// computeFreeSlots walks timed tasks in chronological order keeping a cursor
// of the latest covered end time and emits a gap whenever the next start
// exceeds the cursor.
func computeFreeSlots(timed []task.Task, windowStart, windowEnd int) []FreeSlot {
	cursor := windowStart
	var slots []FreeSlot
	for _, item := range timed {
		s, _ := timeutil.ParseClockMinutes(*item.StartTime)
		e, _ := timeutil.ParseClockMinutes(*item.EndTime)
		if e <= cursor {
			continue
		}
		if s > cursor {
			end := s
			if end > windowEnd {
				end = windowEnd
			}
			if end > cursor {
				slots = append(slots, FreeSlot{Start: formatMinutes(cursor), End: formatMinutes(end)})
			}
		}
		if e > cursor {
			cursor = e
		}
		if cursor >= windowEnd {
			return slots
		}
	}
	if cursor < windowEnd {
		slots = append(slots, FreeSlot{Start: formatMinutes(cursor), End: formatMinutes(windowEnd)})
	}
	return slots
}

func formatMinutes(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func (t *FindFreeSlotsTool) Execute(ctx context.Context, rc RuntimeContext, args string) (string, error) {
	var a findFreeSlotsArgs
	if err := ParseArguments(args, &a); err != nil {
		return errorResult("参数解析失败"), nil
	}
	if !rc.valid() {
		return missingContextResult(), nil
	}

	date := a.Date
	if date == "" {
		date = timeutil.TodayDate(rc.TZOffsetMinutes)
	}
	if !dateFormatRe.MatchString(date) {
		return needConfirmation(fmt.Sprintf("日期格式不正确：%s，请使用 YYYY-MM-DD", date)), nil
	}

	startHour, endHour := 9, 18
	if a.StartHour != nil {
		startHour = *a.StartHour
	}
	if a.EndHour != nil {
		endHour = *a.EndHour
	}
	if startHour < 0 || endHour > 24 || startHour >= endHour {
		return needConfirmation(fmt.Sprintf("时间窗口不合法：%d-%d 点", startHour, endHour)), nil
	}

	tasks, err := rc.Tasks.GetTasks(ctx, rc.UserID, task.Filters{
		Status:  string(task.StatusPending),
		DueDate: date,
	})
	if err != nil {
		t.logger.LogError(ctx, err, "failed to load tasks for free slots")
		return errorResult("查询日程失败，请稍后再试"), nil
	}

	timed, _ := splitTimed(tasks)
	slots := computeFreeSlots(timed, startHour*60, endHour*60)

	var header string
	switch {
	case len(tasks) == 0:
		header = fmt.Sprintf("%s 没有任何任务，%d-%d 点全部空闲", date, startHour, endHour)
	case len(timed) == 0:
		header = fmt.Sprintf("%s 有 %d 个任务但都没有具体时间，%d-%d 点视为空闲", date, len(tasks), startHour, endHour)
	default:
		header = fmt.Sprintf("%s 在 %d-%d 点之间有 %d 段空闲：", date, startHour, endHour, len(slots))
	}

	var lines []string
	lines = append(lines, header)
	for _, slot := range slots {
		lines = append(lines, fmt.Sprintf("- %s 到 %s", slot.Start, slot.End))
	}

	slotData := make([]interface{}, 0, len(slots))
	for _, slot := range slots {
		slotData = append(slotData, map[string]interface{}{"start": slot.Start, "end": slot.End})
	}

	return ToolResult{
		Status:  StatusSuccess,
		Message: strings.Join(lines, "\n"),
		Data:    map[string]interface{}{"freeSlots": slotData},
	}.JSON(), nil
}
