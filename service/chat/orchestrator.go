package chat

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/tmc/langchaingo/llms"

	"mango-chat-backend/model"
	"mango-chat-backend/request"
	"mango-chat-backend/service/tools"
)

const (
	// DefaultMaxSteps caps the number of sequential model steps in one run.
	DefaultMaxSteps = 5

	imagesToolName = "getMangoImages"
)

//go:embed prompts/system_prompt.txt
var systemPrompt string

// StreamHandler receives the run's output incrementally: text chunks in
// generation order, and each tool result as soon as it is available (before
// the text that references it finishes streaming).
type StreamHandler interface {
	HandleTextChunk(ctx context.Context, chunk []byte)
	HandleToolResult(ctx context.Context, record model.ToolCallRecord)
}

// RunResult is the aggregate of a completed orchestration run.
type RunResult struct {
	// Text is the concatenated assistant text across all steps.
	Text string

	// ToolCalls holds one record per tool invocation, in invocation order
	// across steps.
	ToolCalls []model.ToolCallRecord

	// ToolResults are the typed results parallel to ToolCalls, kept for
	// citation validation.
	ToolResults []tools.Result

	Steps int
}

// Orchestrator drives the multi-step tool-calling loop against the model.
// Each step may emit tool calls, whose results are appended to the context
// before the next step; the loop ends on a plain text response or at the
// step cap.
type Orchestrator struct {
	llm      llms.Model
	registry *tools.Registry
	maxSteps int
}

func NewOrchestrator(llm llms.Model, registry *tools.Registry, maxSteps int) *Orchestrator {
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	return &Orchestrator{
		llm:      llm,
		registry: registry,
		maxSteps: maxSteps,
	}
}

// BuildHistory converts the client's role-tagged messages into model input.
func BuildHistory(messages []request.ChatMessage) []llms.MessageContent {
	history := make([]llms.MessageContent, 0, len(messages))
	for _, msg := range messages {
		var role llms.ChatMessageType
		switch msg.Role {
		case "assistant":
			role = llms.ChatMessageTypeAI
		case "system":
			role = llms.ChatMessageTypeSystem
		default:
			role = llms.ChatMessageTypeHuman
		}
		history = append(history, llms.TextParts(role, msg.Content))
	}
	return history
}

// Run executes the step loop. Text streams through handler as it is
// generated; the returned RunResult carries the aggregate for persistence
// and validation. Nothing is persisted here: the caller owns side effects
// after the stream has fully drained.
func (o *Orchestrator) Run(ctx context.Context, history []llms.MessageContent, lastUserText string, handler StreamHandler) (*RunResult, error) {
	msgs := make([]llms.MessageContent, 0, len(history)+1)
	msgs = append(msgs, llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt))
	msgs = append(msgs, history...)

	forceImages := WantsImages(lastUserText)

	var finalText strings.Builder
	result := &RunResult{}

	for step := 0; step < o.maxSteps; step++ {
		result.Steps = step + 1

		registry := o.registry
		var opts []llms.CallOption

		// The pre-router override is deterministic: on step zero of an
		// image request the model is constrained to the image tool and
		// every other tool is disabled for that step.
		if step == 0 && forceImages {
			registry = o.registry.Subset(imagesToolName)
			opts = append(opts, llms.WithToolChoice(llms.ToolChoice{
				Type:     "function",
				Function: &llms.FunctionReference{Name: imagesToolName},
			}))
		}
		opts = append(opts, llms.WithTools(registry.Definitions()))

		if handler != nil {
			opts = append(opts, llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
				handler.HandleTextChunk(ctx, chunk)
				return nil
			}))
		}

		resp, err := o.llm.GenerateContent(ctx, msgs, opts...)
		if err != nil {
			return nil, fmt.Errorf("model step %d failed: %w", step, err)
		}
		if len(resp.Choices) == 0 {
			break
		}

		choice := resp.Choices[0]
		if choice.Content != "" {
			finalText.WriteString(choice.Content)
		}

		if len(choice.ToolCalls) == 0 {
			// Final answer: terminal state.
			break
		}

		assistantParts := make([]llms.ContentPart, 0, len(choice.ToolCalls)+1)
		if choice.Content != "" {
			assistantParts = append(assistantParts, llms.TextContent{Text: choice.Content})
		}
		for _, tc := range choice.ToolCalls {
			assistantParts = append(assistantParts, tc)
		}
		msgs = append(msgs, llms.MessageContent{
			Role:  llms.ChatMessageTypeAI,
			Parts: assistantParts,
		})

		for _, exec := range o.executeToolCalls(ctx, registry, choice.ToolCalls) {
			result.ToolCalls = append(result.ToolCalls, exec.record)
			result.ToolResults = append(result.ToolResults, exec.result)

			if handler != nil {
				handler.HandleToolResult(ctx, exec.record)
			}

			msgs = append(msgs, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{llms.ToolCallResponse{
					ToolCallID: exec.callID,
					Name:       exec.record.Name,
					Content:    exec.payload,
				}},
			})
		}
	}

	result.Text = finalText.String()
	return result, nil
}

type toolExecution struct {
	callID  string
	record  model.ToolCallRecord
	result  tools.Result
	payload string
}

// executeToolCalls runs all tool calls of one step. Calls within a step are
// independent and run concurrently; the returned slice preserves invocation
// order. A failed tool degrades to an error result rather than aborting the
// run.
func (o *Orchestrator) executeToolCalls(ctx context.Context, registry *tools.Registry, calls []llms.ToolCall) []toolExecution {
	executions := make([]toolExecution, len(calls))

	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call llms.ToolCall) {
			defer wg.Done()
			executions[i] = o.executeToolCall(ctx, registry, call)
		}(i, call)
	}
	wg.Wait()

	return executions
}

func (o *Orchestrator) executeToolCall(ctx context.Context, registry *tools.Registry, call llms.ToolCall) toolExecution {
	name := ""
	args := json.RawMessage(`{}`)
	if call.FunctionCall != nil {
		name = call.FunctionCall.Name
		if call.FunctionCall.Arguments != "" {
			args = json.RawMessage(call.FunctionCall.Arguments)
		}
	}

	var result tools.Result
	tool := registry.Get(name)
	if tool == nil {
		result = tools.NewErrorResult(fmt.Errorf("unknown tool %q", name))
	} else {
		var err error
		result, err = tool.Call(ctx, args)
		if err != nil {
			slog.Error("Tool execution failed", "tool", name, "err", err)
			result = tools.NewErrorResult(err)
		}
	}

	payload, err := json.Marshal(result)
	if err != nil {
		slog.Error("Failed to marshal tool result", "tool", name, "err", err)
		payload = []byte(`{"success":false}`)
	}

	return toolExecution{
		callID: call.ID,
		record: model.ToolCallRecord{
			Name:   name,
			Args:   args,
			Result: result,
		},
		result:  result,
		payload: string(payload),
	}
}
