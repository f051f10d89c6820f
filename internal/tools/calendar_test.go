package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/daybook-ai/daybook/internal/task"
	"github.com/daybook-ai/daybook/internal/timeutil"
)

func TestComputeFreeSlots(t *testing.T) {
	tests := []struct {
		name       string
		tasks      []task.Task
		start, end int
		want       []FreeSlot
	}{
		{
			name:  "empty day is one big slot",
			start: 9 * 60, end: 18 * 60,
			want: []FreeSlot{{Start: "09:00", End: "18:00"}},
		},
		{
			name: "two meetings leave three gaps",
			tasks: []task.Task{
				seedTask(1, "a", futureDate, "10:00", "11:00", ""),
				seedTask(2, "b", futureDate, "14:00", "15:00", ""),
			},
			start: 9 * 60, end: 18 * 60,
			want: []FreeSlot{
				{Start: "09:00", End: "10:00"},
				{Start: "11:00", End: "14:00"},
				{Start: "15:00", End: "18:00"},
			},
		},
		{
			name: "back to back leaves no middle gap",
			tasks: []task.Task{
				seedTask(1, "a", futureDate, "09:00", "12:00", ""),
				seedTask(2, "b", futureDate, "12:00", "18:00", ""),
			},
			start: 9 * 60, end: 18 * 60,
			want: nil,
		},
		{
			name: "task outside window is ignored",
			tasks: []task.Task{
				seedTask(1, "a", futureDate, "06:00", "07:00", ""),
			},
			start: 9 * 60, end: 18 * 60,
			want: []FreeSlot{{Start: "09:00", End: "18:00"}},
		},
		{
			name: "task straddling window start trims the first slot",
			tasks: []task.Task{
				seedTask(1, "a", futureDate, "08:00", "10:30", ""),
			},
			start: 9 * 60, end: 18 * 60,
			want: []FreeSlot{{Start: "10:30", End: "18:00"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			timed, _ := splitTimed(tt.tasks)
			got := computeFreeSlots(timed, tt.start, tt.end)
			if len(got) != len(tt.want) {
				t.Fatalf("slots = %+v, want %+v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("slot %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSplitTimedOrdering(t *testing.T) {
	tasks := []task.Task{
		seedTask(1, "晚会", futureDate, "19:00", "20:00", ""),
		seedTask(2, "取快递", futureDate, "", "", timeutil.SegmentAllDay),
		seedTask(3, "早会", futureDate, "09:00", "09:30", ""),
	}
	timed, untimed := splitTimed(tasks)
	if len(timed) != 2 || len(untimed) != 1 {
		t.Fatalf("split = %d timed / %d untimed, want 2/1", len(timed), len(untimed))
	}
	if timed[0].ID != 3 || timed[1].ID != 1 {
		t.Errorf("timed order = [%d %d], want [3 1]", timed[0].ID, timed[1].ID)
	}
	if untimed[0].ID != 2 {
		t.Errorf("untimed[0] = %d, want 2", untimed[0].ID)
	}
}

func TestDayScheduleExecute(t *testing.T) {
	store := &fakeTaskStore{
		nextID: 3,
		tasks: []task.Task{
			seedTask(1, "晚会", futureDate, "19:00", "20:00", ""),
			seedTask(2, "取快递", futureDate, "", "", timeutil.SegmentAllDay),
			seedTask(3, "早会", futureDate, "09:00", "09:30", ""),
		},
	}
	rc := testContext(store, nil)
	tool := NewDayScheduleTool(testLogger())

	raw, err := tool.Execute(context.Background(), rc, `{"date":"2099-05-01"}`)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	result := decodeResult(t, raw)
	if result.Status != StatusSuccess {
		t.Fatalf("status = %q, want success: %s", result.Status, result.Message)
	}

	lines := strings.Split(result.Message, "\n")
	if len(lines) != 4 {
		t.Fatalf("message has %d lines, want 4:\n%s", len(lines), result.Message)
	}
	// Timed entries in start order, segment-only entries trailing.
	if !strings.Contains(lines[1], "早会") || !strings.Contains(lines[2], "晚会") || !strings.Contains(lines[3], "取快递") {
		t.Errorf("unexpected ordering:\n%s", result.Message)
	}
}

func TestDayScheduleEmpty(t *testing.T) {
	rc := testContext(&fakeTaskStore{}, nil)
	tool := NewDayScheduleTool(testLogger())

	raw, err := tool.Execute(context.Background(), rc, `{"date":"2099-05-01"}`)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	result := decodeResult(t, raw)
	if result.Status != StatusSuccess {
		t.Fatalf("status = %q, want success", result.Status)
	}
	if !strings.Contains(result.Message, "没有安排任务") {
		t.Errorf("empty day message = %q", result.Message)
	}
}

func TestFindFreeSlotsExecute(t *testing.T) {
	store := &fakeTaskStore{
		nextID: 2,
		tasks: []task.Task{
			seedTask(1, "a", futureDate, "10:00", "11:00", ""),
			seedTask(2, "b", futureDate, "14:00", "15:00", ""),
		},
	}
	rc := testContext(store, nil)
	tool := NewFindFreeSlotsTool(testLogger())

	raw, err := tool.Execute(context.Background(), rc, `{"date":"2099-05-01"}`)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	result := decodeResult(t, raw)
	if result.Status != StatusSuccess {
		t.Fatalf("status = %q, want success: %s", result.Status, result.Message)
	}
	slots, ok := result.Data["freeSlots"].([]interface{})
	if !ok || len(slots) != 3 {
		t.Errorf("freeSlots = %+v, want 3 entries", result.Data["freeSlots"])
	}
}

func TestFindFreeSlotsInvalidWindow(t *testing.T) {
	rc := testContext(&fakeTaskStore{}, nil)
	tool := NewFindFreeSlotsTool(testLogger())

	raw, err := tool.Execute(context.Background(), rc,
		`{"date":"2099-05-01","startHour":18,"endHour":9}`)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if result := decodeResult(t, raw); result.Status != StatusNeedConfirmation {
		t.Errorf("status = %q, want need_confirmation", result.Status)
	}
}
