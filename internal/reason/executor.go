package reason

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"

	"github.com/wayfarer-ai/wayfarer/internal/cache"
	"github.com/wayfarer-ai/wayfarer/internal/observability"
	"github.com/wayfarer-ai/wayfarer/internal/task"
	"github.com/wayfarer-ai/wayfarer/internal/tools"
)

const (
	defaultMemoCapacity = 128
	maxToolSteps        = 4
)

type memoKey struct {
	Kind        task.Kind
	Description string
}

// Executor runs a reasoning unit against the external model, memoizing
// results by (kind, description).
//
// Concurrent identical requests that arrive before the first completes each
// invoke the model independently; there is no single-flight de-duplication.
// The writes are idempotent, so last-writer-wins.
type Executor struct {
	model    llms.Model
	memo     *cache.LRU[memoKey, string]
	research *tools.Registry // tools offered to deep-search units, may be nil
	logger   *zap.Logger
}

func NewExecutor(model llms.Model, memoCapacity int, research *tools.Registry, logger *zap.Logger) *Executor {
	if memoCapacity <= 0 {
		memoCapacity = defaultMemoCapacity
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		model:    model,
		memo:     cache.NewLRU[memoKey, string](memoCapacity),
		research: research,
		logger:   logger,
	}
}

// Run returns the model's answer for a descriptor. Deep runs may call the
// research tools before answering; the memo key stays (kind, description)
// either way, matching the planner's request-level search mode.
func (e *Executor) Run(ctx context.Context, d task.Descriptor, deep bool) (string, error) {
	key := memoKey{Kind: d.Kind, Description: d.Description}
	if out, ok := e.memo.Get(key); ok {
		observability.CacheHits.WithLabelValues("inference").Inc()
		e.logger.Debug("inference cache hit", zap.String("kind", d.Kind.String()))
		return out, nil
	}
	observability.CacheMisses.WithLabelValues("inference").Inc()

	var out string
	var err error
	if deep && e.research != nil && len(e.research.Tools) > 0 {
		out, err = e.runWithTools(ctx, d)
	} else {
		out, err = e.generate(ctx, d.Description)
	}
	if err != nil {
		return "", err
	}

	e.memo.Add(key, out)
	return out, nil
}

func (e *Executor) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := e.model.GenerateContent(ctx, []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(prompt)},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}
	return resp.Choices[0].Content, nil
}

// runWithTools is a bounded observe-act loop: the model may call research
// tools, see their results, and must answer within maxToolSteps rounds.
func (e *Executor) runWithTools(ctx context.Context, d task.Descriptor) (string, error) {
	var llmTools []llms.Tool
	for _, t := range e.research.Tools {
		llmTools = append(llmTools, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}

	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(d.Description)},
		},
	}

	for step := 0; step < maxToolSteps; step++ {
		resp, err := e.model.GenerateContent(ctx, messages, llms.WithTools(llmTools))
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("model returned no choices")
		}
		choice := resp.Choices[0]

		var assistantParts []llms.ContentPart
		if choice.Content != "" {
			assistantParts = append(assistantParts, llms.TextContent{Text: choice.Content})
		}
		for _, tc := range choice.ToolCalls {
			assistantParts = append(assistantParts, tc)
		}
		messages = append(messages, llms.MessageContent{
			Role:  llms.ChatMessageTypeAI,
			Parts: assistantParts,
		})

		if len(choice.ToolCalls) == 0 {
			return choice.Content, nil
		}

		for _, tc := range choice.ToolCalls {
			tool := e.research.Get(tc.FunctionCall.Name)
			var result string
			if tool == nil {
				result = fmt.Sprintf("Error: tool %s not found", tc.FunctionCall.Name)
			} else {
				e.logger.Debug("executing research tool",
					zap.String("kind", d.Kind.String()),
					zap.String("tool", tool.Name()))
				res, err := tool.Execute(ctx, tc.FunctionCall.Arguments)
				if err != nil {
					res = fmt.Sprintf("Error: %v", err)
				}
				result = res
			}
			messages = append(messages, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{
					llms.ToolCallResponse{
						ToolCallID: tc.ID,
						Name:       tc.FunctionCall.Name,
						Content:    result,
					},
				},
			})
		}
	}

	// Out of tool rounds: demand an answer from what was gathered.
	messages = append(messages, llms.MessageContent{
		Role:  llms.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{llms.TextPart("Provide your final answer now using the information gathered so far.")},
	})
	resp, err := e.model.GenerateContent(ctx, messages)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}
	return resp.Choices[0].Content, nil
}
