package assistant

import (
	"encoding/json"
	"testing"

	"github.com/daybook-ai/daybook/internal/llm"
)

func toolMsg(name, content string) llm.Message {
	return llm.Message{Role: "tool", Name: name, ToolCallID: "c", Content: content}
}

func TestDeriveReply(t *testing.T) {
	createResult := `{"status":"success","message":"已创建","task":{"id":1,"title":"取快递"},"actionPerformed":"create"}`
	conflictResult := `{"status":"conflict","message":"有冲突","conflictingTasks":[{"id":2,"title":"取快递"}]}`
	plainResult := `{"status":"success","message":"没有找到符合条件的任务"}`

	tests := []struct {
		name        string
		trace       []llm.Message
		wantType    string
		wantContent string
		wantPayload bool
	}{
		{
			name: "plain text answer",
			trace: []llm.Message{
				{Role: "assistant", Content: "你好"},
			},
			wantType:    TypeText,
			wantContent: "你好",
		},
		{
			name: "task payload becomes task_summary",
			trace: []llm.Message{
				{Role: "assistant"},
				toolMsg("create_task", createResult),
				{Role: "assistant", Content: "已经帮你记下了"},
			},
			wantType:    TypeTaskSummary,
			wantContent: "已经帮你记下了",
			wantPayload: true,
		},
		{
			name: "conflict payload becomes question",
			trace: []llm.Message{
				{Role: "assistant"},
				toolMsg("create_task", conflictResult),
				{Role: "assistant", Content: "已有类似任务，确认要创建吗？"},
			},
			wantType:    TypeQuestion,
			wantContent: "已有类似任务，确认要创建吗？",
			wantPayload: true,
		},
		{
			name: "most recent structured result wins",
			trace: []llm.Message{
				{Role: "assistant"},
				toolMsg("create_task", conflictResult),
				{Role: "assistant"},
				toolMsg("create_task", createResult),
				{Role: "assistant", Content: "好了"},
			},
			wantType:    TypeTaskSummary,
			wantContent: "好了",
			wantPayload: true,
		},
		{
			name: "transfer acks and plain results are skipped",
			trace: []llm.Message{
				{Role: "assistant"},
				toolMsg("transfer_to_task_agent", "已转接给 task_agent"),
				{Role: "assistant"},
				toolMsg("query_tasks", plainResult),
				{Role: "assistant", Content: "今天没有任务"},
			},
			wantType:    TypeText,
			wantContent: "今天没有任务",
		},
		{
			name: "unparseable tool output is skipped",
			trace: []llm.Message{
				toolMsg("create_task", "not json"),
				{Role: "assistant", Content: "出了点问题"},
			},
			wantType:    TypeText,
			wantContent: "出了点问题",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := deriveReply(tt.trace)
			if reply.Type != tt.wantType {
				t.Errorf("type = %q, want %q", reply.Type, tt.wantType)
			}
			if reply.Content != tt.wantContent {
				t.Errorf("content = %q, want %q", reply.Content, tt.wantContent)
			}
			if (reply.Payload != nil) != tt.wantPayload {
				t.Errorf("payload present = %v, want %v", reply.Payload != nil, tt.wantPayload)
			}
			if tt.wantPayload {
				var check map[string]interface{}
				if err := json.Unmarshal(reply.Payload, &check); err != nil {
					t.Errorf("payload is not valid JSON: %v", err)
				}
			}
		})
	}
}

func TestDeriveReplyNoAssistantText(t *testing.T) {
	reply := deriveReply([]llm.Message{{Role: "assistant"}})
	if reply.Content == "" {
		t.Error("reply content must never be empty")
	}
	if reply.Type != TypeText {
		t.Errorf("type = %q, want text", reply.Type)
	}
}

func TestRawPresent(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{"", false},
		{"null", false},
		{"[]", false},
		{"{}", false},
		{`{"id":1}`, true},
		{`[{"id":1}]`, true},
	}
	for _, tt := range tests {
		if got := rawPresent(json.RawMessage(tt.raw)); got != tt.want {
			t.Errorf("rawPresent(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}
