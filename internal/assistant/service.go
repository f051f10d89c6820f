// Package assistant is the service facade over the agent graph. It owns the
// per-turn wiring (prompt context, tool registries, agents, supervisor),
// derives the structured reply from the turn's tool trace, and persists both
// sides of the exchange.
package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/daybook-ai/daybook/internal/agent"
	"github.com/daybook-ai/daybook/internal/config"
	"github.com/daybook-ai/daybook/internal/conversation"
	"github.com/daybook-ai/daybook/internal/llm"
	"github.com/daybook-ai/daybook/internal/logger"
	"github.com/daybook-ai/daybook/internal/reminder"
	"github.com/daybook-ai/daybook/internal/task"
	"github.com/daybook-ai/daybook/internal/tools"
)

// Reply response types.
const (
	TypeText        = "text"
	TypeTaskSummary = "task_summary"
	TypeQuestion    = "question"
)

const degradedReply = "抱歉，我这边暂时出了点问题，请稍后再试。"

// Reply is one assistant answer: the natural-language content plus the most
// recent structured tool payload of the turn, when one exists.
type Reply struct {
	Content string          `json:"content"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Service runs chat turns against the agent graph.
type Service struct {
	cfg           *config.Config
	completer     llm.Completer
	tasks         *task.Service
	reminders     *reminder.Service
	conversations *conversation.Service
	logger        *logger.Logger
}

// NewService creates the assistant service. The completer is shared across
// all agents; per-turn state lives in the prompts and the runtime context.
func NewService(cfg *config.Config, completer llm.Completer, tasks *task.Service, reminders *reminder.Service, conversations *conversation.Service, log *logger.Logger) *Service {
	return &Service{
		cfg:           cfg,
		completer:     completer,
		tasks:         tasks,
		reminders:     reminders,
		conversations: conversations,
		logger:        log.WithComponent("assistant-service"),
	}
}

// buildSupervisor wires the four specialists and the supervisor for one turn.
// Agents are rebuilt per turn because their prompts carry the user's current
// date and time segment.
func (s *Service) buildSupervisor(tzOffsetMinutes int) (*agent.Supervisor, error) {
	pc := agent.NewPromptContext(tzOffsetMinutes)

	taskRegistry, err := tools.NewRegistry(
		tools.NewCreateTaskTool(s.logger),
		tools.NewQueryTasksTool(s.logger),
		tools.NewModifyTaskTool(s.logger),
		tools.NewFinishTaskTool(s.logger),
		tools.NewRemoveTaskTool(s.logger),
	)
	if err != nil {
		return nil, err
	}
	calendarRegistry, err := tools.NewRegistry(
		tools.NewDayScheduleTool(s.logger),
		tools.NewFindFreeSlotsTool(s.logger),
	)
	if err != nil {
		return nil, err
	}
	weatherRegistry, err := tools.NewRegistry(tools.NewWeatherTool(s.logger))
	if err != nil {
		return nil, err
	}
	notificationRegistry, err := tools.NewRegistry(tools.NewScheduleReminderTool(s.logger))
	if err != nil {
		return nil, err
	}

	agents := []*agent.Agent{
		agent.New(agent.TaskAgentName, s.completer, s.cfg.AgentModel, agent.TaskAgentPrompt(pc), taskRegistry, s.cfg.MaxAgentSteps, s.logger),
		agent.New(agent.CalendarAgentName, s.completer, s.cfg.AgentModel, agent.CalendarAgentPrompt(pc), calendarRegistry, s.cfg.MaxAgentSteps, s.logger),
		agent.New(agent.WeatherAgentName, s.completer, s.cfg.AgentModel, agent.WeatherAgentPrompt(pc), weatherRegistry, s.cfg.MaxAgentSteps, s.logger),
		agent.New(agent.NotificationAgentName, s.completer, s.cfg.AgentModel, agent.NotificationAgentPrompt(pc), notificationRegistry, s.cfg.MaxAgentSteps, s.logger),
	}

	return agent.NewSupervisor(s.completer, s.cfg.SupervisorModel, agent.SupervisorPrompt(pc), agents, s.cfg.MaxSupervisorHops, s.logger), nil
}

// Chat processes one user message and returns the assistant's reply. LLM and
// storage failures degrade to an apology reply rather than an HTTP-level
// error; only invalid input is rejected.
func (s *Service) Chat(ctx context.Context, userID int64, text string, tzOffsetMinutes int) (*Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("message must not be empty")
	}
	if userID <= 0 {
		return nil, fmt.Errorf("invalid user id")
	}

	history, err := s.conversations.Recent(ctx, userID, s.cfg.ConversationHistoryLimit)
	if err != nil {
		s.logger.LogError(ctx, err, "failed to load conversation history", slog.Int64("user_id", userID))
		history = nil
	}

	msgs := make([]llm.Message, 0, len(history)+1)
	for _, m := range history {
		msgs = append(msgs, llm.Message{Role: m.Role, Content: m.Content})
	}
	msgs = append(msgs, llm.Message{Role: "user", Content: text})

	supervisor, err := s.buildSupervisor(tzOffsetMinutes)
	if err != nil {
		s.logger.LogError(ctx, err, "failed to build agent graph")
		return s.persistTurn(ctx, userID, text, &Reply{Content: degradedReply, Type: TypeText}), nil
	}

	rc := tools.RuntimeContext{
		Tasks:           s.tasks,
		Reminders:       s.reminders,
		UserID:          userID,
		TZOffsetMinutes: tzOffsetMinutes,
	}

	produced, err := supervisor.Run(ctx, rc, msgs)
	if err != nil {
		s.logger.LogError(ctx, err, "chat turn failed", slog.Int64("user_id", userID))
		return s.persistTurn(ctx, userID, text, &Reply{Content: degradedReply, Type: TypeText}), nil
	}

	reply := deriveReply(produced)
	return s.persistTurn(ctx, userID, text, reply), nil
}

// persistTurn stores the user message and the reply. Persistence failures are
// logged but never lose the reply.
func (s *Service) persistTurn(ctx context.Context, userID int64, text string, reply *Reply) *Reply {
	if err := s.conversations.Append(ctx, userID, "user", text, "", nil); err != nil {
		s.logger.LogError(ctx, err, "failed to persist user message")
	}
	if err := s.conversations.Append(ctx, userID, "assistant", reply.Content, reply.Type, reply.Payload); err != nil {
		s.logger.LogError(ctx, err, "failed to persist assistant reply")
	}
	return reply
}

// toolPayload is the slice of a ToolResult the facade inspects.
type toolPayload struct {
	Status           string          `json:"status"`
	Task             json.RawMessage `json:"task"`
	ConflictingTasks json.RawMessage `json:"conflictingTasks"`
}

func rawPresent(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed != "" && trimmed != "null" && trimmed != "[]" && trimmed != "{}"
}

// deriveReply picks the reply content and the structured payload out of a
// turn's trace. Content is the last assistant message with text. The payload
// is the most recent business-tool result carrying a task or a conflict list;
// transfer acknowledgements and unparseable tool output are skipped. A result
// with a task is a task_summary, one with only conflicting tasks is a
// question back to the user.
func deriveReply(produced []llm.Message) *Reply {
	reply := &Reply{Type: TypeText, Content: degradedReply}
	for i := len(produced) - 1; i >= 0; i-- {
		if produced[i].Role == "assistant" && strings.TrimSpace(produced[i].Content) != "" {
			reply.Content = produced[i].Content
			break
		}
	}

	for i := len(produced) - 1; i >= 0; i-- {
		m := produced[i]
		if m.Role != "tool" || strings.HasPrefix(m.Name, "transfer_to_") {
			continue
		}
		var p toolPayload
		if err := json.Unmarshal([]byte(m.Content), &p); err != nil {
			continue
		}
		if !rawPresent(p.Task) && !rawPresent(p.ConflictingTasks) {
			continue
		}
		reply.Payload = json.RawMessage(m.Content)
		if rawPresent(p.Task) && p.Status == tools.StatusSuccess {
			reply.Type = TypeTaskSummary
		} else {
			reply.Type = TypeQuestion
		}
		return reply
	}
	return reply
}
