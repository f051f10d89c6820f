package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/daybook-ai/daybook/internal/task"
	"github.com/daybook-ai/daybook/internal/timeutil"
)

// A far-future date keeps the validity rules for "today" out of the way.
const futureDate = "2099-05-01"

func TestCreateTaskValidation(t *testing.T) {
	tests := []struct {
		name       string
		args       string
		wantStatus string
		wantInMsg  string
	}{
		{
			name:       "missing title",
			args:       `{"title":"  "}`,
			wantStatus: StatusNeedConfirmation,
			wantInMsg:  "标题",
		},
		{
			name:       "start without end",
			args:       `{"title":"开会","dueDate":"2099-05-01","startTime":"10:00"}`,
			wantStatus: StatusNeedConfirmation,
			wantInMsg:  "同时给出",
		},
		{
			name:       "bad date format",
			args:       `{"title":"开会","dueDate":"2099/05/01"}`,
			wantStatus: StatusNeedConfirmation,
			wantInMsg:  "日期格式",
		},
		{
			name:       "bad start time",
			args:       `{"title":"开会","dueDate":"2099-05-01","startTime":"25:00","endTime":"26:00"}`,
			wantStatus: StatusNeedConfirmation,
			wantInMsg:  "开始时间格式",
		},
		{
			name:       "unknown segment",
			args:       `{"title":"开会","dueDate":"2099-05-01","timeSegment":"midnight"}`,
			wantStatus: StatusNeedConfirmation,
			wantInMsg:  "时间段",
		},
		{
			name:       "unparseable arguments",
			args:       `{"title":`,
			wantStatus: StatusError,
			wantInMsg:  "参数解析失败",
		},
	}

	tool := NewCreateTaskTool(testLogger())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := testContext(&fakeTaskStore{}, nil)
			raw, err := tool.Execute(context.Background(), rc, tt.args)
			if err != nil {
				t.Fatalf("Execute returned error: %v", err)
			}
			result := decodeResult(t, raw)
			if result.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", result.Status, tt.wantStatus)
			}
			if !strings.Contains(result.Message, tt.wantInMsg) {
				t.Errorf("message %q does not mention %q", result.Message, tt.wantInMsg)
			}
		})
	}
}

func TestCreateTaskMissingContext(t *testing.T) {
	tool := NewCreateTaskTool(testLogger())
	raw, err := tool.Execute(context.Background(), RuntimeContext{}, `{"title":"开会"}`)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if result := decodeResult(t, raw); result.Status != StatusError {
		t.Errorf("status = %q, want %q", result.Status, StatusError)
	}
}

func TestCreateTaskTimedSuccess(t *testing.T) {
	store := &fakeTaskStore{}
	rc := testContext(store, nil)
	tool := NewCreateTaskTool(testLogger())

	raw, err := tool.Execute(context.Background(), rc,
		`{"title":"产品评审","dueDate":"2099-05-01","startTime":"10:00","endTime":"11:00"}`)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	result := decodeResult(t, raw)
	if result.Status != StatusSuccess {
		t.Fatalf("status = %q, want success: %s", result.Status, result.Message)
	}
	if result.ActionPerformed != "create" {
		t.Errorf("actionPerformed = %q, want create", result.ActionPerformed)
	}
	if result.Task == nil {
		t.Fatal("expected created task in result")
	}
	if result.Task.TimeSegment != "" {
		t.Errorf("timed task must not carry a segment, got %q", result.Task.TimeSegment)
	}
	if len(store.tasks) != 1 {
		t.Fatalf("store holds %d tasks, want 1", len(store.tasks))
	}
}

func TestCreateTaskDefaultsSegmentForFutureDate(t *testing.T) {
	store := &fakeTaskStore{}
	rc := testContext(store, nil)
	tool := NewCreateTaskTool(testLogger())

	raw, err := tool.Execute(context.Background(), rc, `{"title":"取快递","dueDate":"2099-05-01"}`)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	result := decodeResult(t, raw)
	if result.Status != StatusSuccess {
		t.Fatalf("status = %q, want success: %s", result.Status, result.Message)
	}
	if result.Task.TimeSegment != timeutil.SegmentAllDay {
		t.Errorf("segment = %q, want %q", result.Task.TimeSegment, timeutil.SegmentAllDay)
	}
	if result.Task.StartTime != nil || result.Task.EndTime != nil {
		t.Error("segment task must not carry explicit times")
	}
}

func TestCreateTaskTimeConflict(t *testing.T) {
	store := &fakeTaskStore{
		nextID: 1,
		tasks:  []task.Task{seedTask(1, "部门周会", futureDate, "10:00", "12:00", "")},
	}
	rc := testContext(store, nil)
	tool := NewCreateTaskTool(testLogger())

	raw, err := tool.Execute(context.Background(), rc,
		`{"title":"面试候选人","dueDate":"2099-05-01","startTime":"11:00","endTime":"13:00"}`)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	result := decodeResult(t, raw)
	if result.Status != StatusConflict {
		t.Fatalf("status = %q, want conflict: %s", result.Status, result.Message)
	}
	if len(result.ConflictingTasks) != 1 || result.ConflictingTasks[0].ID != 1 {
		t.Errorf("conflictingTasks = %+v, want task 1", result.ConflictingTasks)
	}
	if !strings.Contains(result.Message, "换一个时间") {
		t.Errorf("time conflict message should ask for another time, got %q", result.Message)
	}
	if len(store.tasks) != 1 {
		t.Error("conflicting create must not persist a task")
	}
}

func TestCreateTaskSemanticConflict(t *testing.T) {
	store := &fakeTaskStore{
		nextID: 1,
		tasks:  []task.Task{seedTask(1, "取快递", futureDate, "", "", timeutil.SegmentAllDay)},
	}
	rc := testContext(store, nil)
	tool := NewCreateTaskTool(testLogger())

	raw, err := tool.Execute(context.Background(), rc, `{"title":"拿快递","dueDate":"2099-05-01"}`)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	result := decodeResult(t, raw)
	if result.Status != StatusConflict {
		t.Fatalf("status = %q, want conflict: %s", result.Status, result.Message)
	}
	if len(result.ConflictingTasks) != 1 {
		t.Fatalf("conflictingTasks = %+v, want one entry", result.ConflictingTasks)
	}
	if !strings.Contains(result.Message, "确认") {
		t.Errorf("semantic-only conflict should offer a confirm path, got %q", result.Message)
	}
}

func TestCreateTaskConfirmedBypassesSemanticConflict(t *testing.T) {
	store := &fakeTaskStore{
		nextID: 1,
		tasks:  []task.Task{seedTask(1, "取快递", futureDate, "", "", timeutil.SegmentAllDay)},
	}
	rc := testContext(store, nil)
	tool := NewCreateTaskTool(testLogger())

	raw, err := tool.Execute(context.Background(), rc,
		`{"title":"拿快递","dueDate":"2099-05-01","confirmed":true}`)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if result := decodeResult(t, raw); result.Status != StatusSuccess {
		t.Errorf("status = %q, want success: %s", result.Status, result.Message)
	}
	if len(store.tasks) != 2 {
		t.Errorf("store holds %d tasks, want 2", len(store.tasks))
	}
}

func TestCreateTaskConfirmedKeepsTimeConflict(t *testing.T) {
	store := &fakeTaskStore{
		nextID: 1,
		tasks:  []task.Task{seedTask(1, "部门周会", futureDate, "10:00", "12:00", "")},
	}
	rc := testContext(store, nil)
	tool := NewCreateTaskTool(testLogger())

	raw, err := tool.Execute(context.Background(), rc,
		`{"title":"面试候选人","dueDate":"2099-05-01","startTime":"11:00","endTime":"13:00","confirmed":true}`)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if result := decodeResult(t, raw); result.Status != StatusConflict {
		t.Errorf("status = %q, want conflict: time overlap is a hard constraint", result.Status)
	}
}

func TestCreateTaskDistinctTitlesCoexist(t *testing.T) {
	store := &fakeTaskStore{
		nextID: 1,
		tasks:  []task.Task{seedTask(1, "取快递", futureDate, "", "", timeutil.SegmentAllDay)},
	}
	rc := testContext(store, nil)
	tool := NewCreateTaskTool(testLogger())

	raw, err := tool.Execute(context.Background(), rc, `{"title":"写周报","dueDate":"2099-05-01"}`)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if result := decodeResult(t, raw); result.Status != StatusSuccess {
		t.Errorf("status = %q, want success: %s", result.Status, result.Message)
	}
}
