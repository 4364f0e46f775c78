package reason

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/wayfarer-ai/wayfarer/internal/task"
	"github.com/wayfarer-ai/wayfarer/internal/tools"
)

// fakeModel scripts GenerateContent responses and counts invocations.
type fakeModel struct {
	calls   atomic.Int32
	respond func(call int, messages []llms.MessageContent) (*llms.ContentResponse, error)
}

func (m *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	call := int(m.calls.Add(1))
	return m.respond(call, messages)
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	resp, err := m.GenerateContent(ctx, []llms.MessageContent{
		{Role: llms.ChatMessageTypeHuman, Parts: []llms.ContentPart{llms.TextPart(prompt)}},
	}, options...)
	if err != nil {
		return "", err
	}
	return resp.Choices[0].Content, nil
}

func textResponse(text string) (*llms.ContentResponse, error) {
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: text}},
	}, nil
}

func TestRun_MemoizesIdenticalDescriptor(t *testing.T) {
	model := &fakeModel{respond: func(call int, _ []llms.MessageContent) (*llms.ContentResponse, error) {
		return textResponse(fmt.Sprintf("answer-%d", call))
	}}
	exec := NewExecutor(model, 16, nil, nil)

	d := task.Descriptor{Kind: task.KindWeather, Description: "Analyze weather for Orlando"}

	first, err := exec.Run(context.Background(), d, false)
	require.NoError(t, err)
	second, err := exec.Run(context.Background(), d, false)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), model.calls.Load(), "second run must be served from the memo cache")
}

func TestRun_DistinctDescriptorsDoNotShareEntries(t *testing.T) {
	model := &fakeModel{respond: func(call int, _ []llms.MessageContent) (*llms.ContentResponse, error) {
		return textResponse(fmt.Sprintf("answer-%d", call))
	}}
	exec := NewExecutor(model, 16, nil, nil)
	ctx := context.Background()

	a, err := exec.Run(ctx, task.Descriptor{Kind: task.KindWeather, Description: "weather in Orlando"}, false)
	require.NoError(t, err)
	b, err := exec.Run(ctx, task.Descriptor{Kind: task.KindWeather, Description: "weather in Miami"}, false)
	require.NoError(t, err)
	// Same description under a different kind is a different unit.
	c, err := exec.Run(ctx, task.Descriptor{Kind: task.KindEvents, Description: "weather in Orlando"}, false)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, int32(3), model.calls.Load())
}

func TestRun_ErrorsAreNotCached(t *testing.T) {
	model := &fakeModel{respond: func(call int, _ []llms.MessageContent) (*llms.ContentResponse, error) {
		if call == 1 {
			return nil, errors.New("model unavailable")
		}
		return textResponse("recovered")
	}}
	exec := NewExecutor(model, 16, nil, nil)
	d := task.Descriptor{Kind: task.KindBudget, Description: "budget for Orlando"}

	_, err := exec.Run(context.Background(), d, false)
	require.Error(t, err)

	out, err := exec.Run(context.Background(), d, false)
	require.NoError(t, err)
	assert.Equal(t, "recovered", out)
}

// echoTool records invocations and returns a canned observation.
type echoTool struct {
	calls atomic.Int32
}

func (e *echoTool) Name() string        { return "search" }
func (e *echoTool) Description() string { return "test search" }
func (e *echoTool) Parameters() map[string]any {
	return map[string]any{"type": "object"}
}
func (e *echoTool) Execute(_ context.Context, _ string) (string, error) {
	e.calls.Add(1)
	return "observation: sunny in Orlando", nil
}

func TestRun_DeepModeExecutesToolLoop(t *testing.T) {
	tool := &echoTool{}
	registry := tools.NewRegistry()
	registry.Register(tool)

	model := &fakeModel{respond: func(call int, messages []llms.MessageContent) (*llms.ContentResponse, error) {
		if call == 1 {
			return &llms.ContentResponse{
				Choices: []*llms.ContentChoice{{
					ToolCalls: []llms.ToolCall{{
						ID:   "tc-1",
						Type: "function",
						FunctionCall: &llms.FunctionCall{
							Name:      "search",
							Arguments: `{"query":"orlando weather"}`,
						},
					}},
				}},
			}, nil
		}
		// Second round: the tool observation must be in the transcript.
		last := messages[len(messages)-1]
		resp, ok := last.Parts[0].(llms.ToolCallResponse)
		if !ok || resp.Content == "" {
			return nil, errors.New("missing tool observation")
		}
		return textResponse("final answer grounded in " + resp.Content)
	}}

	exec := NewExecutor(model, 16, registry, nil)
	out, err := exec.Run(context.Background(),
		task.Descriptor{Kind: task.KindWeather, Description: "weather deep"}, true)

	require.NoError(t, err)
	assert.Contains(t, out, "observation: sunny in Orlando")
	assert.Equal(t, int32(1), tool.calls.Load())
}

func TestRun_FastModeIgnoresTools(t *testing.T) {
	tool := &echoTool{}
	registry := tools.NewRegistry()
	registry.Register(tool)

	model := &fakeModel{respond: func(_ int, _ []llms.MessageContent) (*llms.ContentResponse, error) {
		return textResponse("plain answer")
	}}

	exec := NewExecutor(model, 16, registry, nil)
	out, err := exec.Run(context.Background(),
		task.Descriptor{Kind: task.KindWeather, Description: "weather fast"}, false)

	require.NoError(t, err)
	assert.Equal(t, "plain answer", out)
	assert.Equal(t, int32(0), tool.calls.Load())
}
