package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/daybook-ai/daybook/internal/llm"
	"github.com/daybook-ai/daybook/internal/logger"
	"github.com/daybook-ai/daybook/internal/tools"
)

const transferPrefix = "transfer_to_"

// Supervisor routes a conversation between specialist agents. It never calls
// business tools itself; its only tools are transfer functions, one per
// registered agent. Every agent sees the full conversation so far, including
// the turns other agents produced during this request.
type Supervisor struct {
	client       llm.Completer
	model        string
	systemPrompt string
	agents       map[string]*Agent
	order        []string
	maxHops      int
	logger       *logger.Logger
}

// NewSupervisor creates a supervisor over the given agents. maxHops bounds
// how many routing rounds one user message may trigger.
func NewSupervisor(client llm.Completer, model, systemPrompt string, agents []*Agent, maxHops int, log *logger.Logger) *Supervisor {
	if maxHops <= 0 {
		maxHops = 6
	}
	s := &Supervisor{
		client:       client,
		model:        model,
		systemPrompt: systemPrompt,
		agents:       make(map[string]*Agent, len(agents)),
		maxHops:      maxHops,
		logger:       log.WithComponent("supervisor"),
	}
	for _, a := range agents {
		s.agents[a.Name()] = a
		s.order = append(s.order, a.Name())
	}
	return s
}

// transferDefinitions builds one transfer_to_<agent> function per agent, in
// registration order.
func (s *Supervisor) transferDefinitions() []llm.ToolDefinition {
	defs := make([]llm.ToolDefinition, 0, len(s.order))
	for _, name := range s.order {
		defs = append(defs, llm.ToolDefinition{
			Type: "function",
			Function: llm.FunctionDef{
				Name:        transferPrefix + name,
				Description: fmt.Sprintf("把对话交给 %s 处理", name),
				Parameters: map[string]interface{}{
					"type":                 "object",
					"properties":           map[string]interface{}{},
					"additionalProperties": false,
				},
			},
		})
	}
	return defs
}

// Run drives one user turn to completion and returns every message produced:
// supervisor assistant turns, transfer acknowledgements, and the specialist
// agents' output. The final assistant message is the reply to the user.
func (s *Supervisor) Run(ctx context.Context, rc tools.RuntimeContext, history []llm.Message) ([]llm.Message, error) {
	conv := make([]llm.Message, len(history))
	copy(conv, history)

	var out []llm.Message
	for hop := 0; hop < s.maxHops; hop++ {
		msgs := make([]llm.Message, 0, len(conv)+1)
		msgs = append(msgs, llm.Message{Role: "system", Content: s.systemPrompt})
		msgs = append(msgs, conv...)

		resp, err := s.client.Complete(ctx, llm.CompletionRequest{
			Model:    s.model,
			Messages: msgs,
			Tools:    s.transferDefinitions(),
		})
		if err != nil {
			return out, fmt.Errorf("supervisor completion failed: %w", err)
		}

		conv = append(conv, *resp)
		out = append(out, *resp)

		if len(resp.ToolCalls) == 0 {
			return out, nil
		}

		for _, tc := range resp.ToolCalls {
			agentName := strings.TrimPrefix(tc.Function.Name, transferPrefix)
			ack := llm.Message{
				Role:       "tool",
				Name:       tc.Function.Name,
				ToolCallID: tc.ID,
			}

			target, ok := s.agents[agentName]
			if !ok {
				s.logger.Warn("transfer to unknown agent", slog.String("agent", agentName))
				ack.Content = fmt.Sprintf("没有名为 %s 的助手", agentName)
				conv = append(conv, ack)
				out = append(out, ack)
				continue
			}

			ack.Content = fmt.Sprintf("已转接给 %s", agentName)
			conv = append(conv, ack)
			out = append(out, ack)

			s.logger.Info("routing to agent",
				slog.String("agent", agentName),
				slog.Int("hop", hop))

			produced, err := target.Run(ctx, rc, conv)
			conv = append(conv, produced...)
			out = append(out, produced...)
			if err != nil {
				s.logger.LogError(ctx, err, "agent run failed", slog.String("agent", agentName))
				apology := llm.Message{Role: "assistant", Content: "抱歉，处理这个请求时出了问题，请稍后再试。"}
				return append(out, apology), nil
			}
		}
	}

	s.logger.Warn("supervisor hit hop ceiling", slog.Int("max_hops", s.maxHops))
	fallback := llm.Message{Role: "assistant", Content: ceilingReply}
	return append(out, fallback), nil
}
