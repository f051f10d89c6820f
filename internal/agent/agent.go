// Package agent implements the reactive LLM loops: one specialist agent per
// capability domain and a supervisor that routes between them. Within a turn
// everything runs sequentially: tool calls requested by one completion are
// executed and folded back before the next completion, so conflict checks
// always see a consistent snapshot.
package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/daybook-ai/daybook/internal/llm"
	"github.com/daybook-ai/daybook/internal/logger"
	"github.com/daybook-ai/daybook/internal/tools"
)

// ceilingReply is the best-effort answer when a loop hits its step ceiling.
const ceilingReply = "抱歉，这个请求的处理步骤过多，我先停在这里。请换一种说法或拆成几个小请求再试一次。"

// Agent binds one LLM to a tool subset with a domain-specific system prompt.
// The prompt is populated with live temporal context at construction time, so
// agents are built per chat turn.
type Agent struct {
	name         string
	client       llm.Completer
	model        string
	systemPrompt string
	registry     *tools.Registry
	maxSteps     int
	logger       *logger.Logger
}

// New creates an agent. maxSteps bounds the LLM/tool round-trips of one Run
// and must be positive.
func New(name string, client llm.Completer, model, systemPrompt string, registry *tools.Registry, maxSteps int, log *logger.Logger) *Agent {
	if maxSteps <= 0 {
		maxSteps = 8
	}
	return &Agent{
		name:         name,
		client:       client,
		model:        model,
		systemPrompt: systemPrompt,
		registry:     registry,
		maxSteps:     maxSteps,
		logger:       log.WithComponent("agent-" + name),
	}
}

// Name returns the agent's routing name.
func (a *Agent) Name() string { return a.name }

// Run executes the reactive loop over the full conversation history and
// returns the messages it produced (assistant turns and tool results). The
// loop alternates completions and sequential tool executions until the model
// stops calling tools or the step ceiling is hit; on the ceiling a fallback
// assistant message is still produced.
func (a *Agent) Run(ctx context.Context, rc tools.RuntimeContext, history []llm.Message) ([]llm.Message, error) {
	msgs := make([]llm.Message, 0, len(history)+1)
	msgs = append(msgs, llm.Message{Role: "system", Content: a.systemPrompt})
	msgs = append(msgs, history...)

	var out []llm.Message
	for step := 0; step < a.maxSteps; step++ {
		resp, err := a.client.Complete(ctx, llm.CompletionRequest{
			Model:    a.model,
			Messages: msgs,
			Tools:    a.registry.GetDefinitions(),
		})
		if err != nil {
			return out, fmt.Errorf("agent %s completion failed: %w", a.name, err)
		}

		msgs = append(msgs, *resp)
		out = append(out, *resp)

		if len(resp.ToolCalls) == 0 {
			return out, nil
		}

		for _, tc := range resp.ToolCalls {
			content := a.executeTool(ctx, rc, tc)
			toolMsg := llm.Message{
				Role:       "tool",
				Name:       tc.Function.Name,
				ToolCallID: tc.ID,
				Content:    content,
			}
			msgs = append(msgs, toolMsg)
			out = append(out, toolMsg)
		}
	}

	a.logger.Warn("agent hit step ceiling", slog.Int("max_steps", a.maxSteps))
	fallback := llm.Message{Role: "assistant", Content: ceilingReply}
	return append(out, fallback), nil
}

// executeTool dispatches one tool call by name. Unknown tools and unexpected
// execution failures become error ToolResults so the model can read them;
// internals are logged, not exposed.
func (a *Agent) executeTool(ctx context.Context, rc tools.RuntimeContext, tc llm.ToolCall) string {
	tool, ok := a.registry.Get(tc.Function.Name)
	if !ok {
		a.logger.Warn("unknown tool requested", slog.String("tool", tc.Function.Name))
		return tools.ToolResult{
			Status:  tools.StatusError,
			Message: fmt.Sprintf("没有名为 %s 的工具", tc.Function.Name),
		}.JSON()
	}

	a.logger.Debug("executing tool",
		slog.String("tool", tc.Function.Name),
		slog.String("tool_call_id", tc.ID))

	result, err := tool.Execute(ctx, rc, tc.Function.Arguments)
	if err != nil {
		a.logger.Error("tool execution failed",
			slog.String("tool", tc.Function.Name),
			slog.String("error", err.Error()))
		return tools.ToolResult{
			Status:  tools.StatusError,
			Message: "工具执行失败，请稍后再试",
		}.JSON()
	}
	return result
}
