// Package toolloop implements the bounded tool-loop gateway orchestrator of
// SPEC_FULL.md §4.7: drive an upstream chat-stream call, detect tool calls,
// execute them through a caller-supplied resolver, feed the results back
// into a follow-up call, and keep a single downstream stream open across the
// whole exchange — exactly one StreamStart and exactly one terminal
// StreamEnd, however many upstream round-trips it takes.
//
// Grounded on
// original_source/siumai-extras/src/server/tool_loop.rs
// (tool_loop_chat_stream): same max-steps bound, same per-call tool-call
// accumulation keyed by ID with insertion-order assembly, same
// "gateway:tool-result" synthetic Custom event between steps, same
// "provider-executed tool calls are skipped, no-tool-calls-this-step ends
// the loop" edge cases. The Rust version hand-rolls an mpsc-channel-backed
// futures::Stream; here a buffered Go channel read by the caller's own
// goroutine plays the same role, matching the teacher's
// one-goroutine-owns-the-response pattern in internal/handlers/proxy.go's
// handleStreamingResponse.
package toolloop

import (
	"context"
	"encoding/json"

	"github.com/Davincible/llm-gateway/internal/llm/llmtypes"
)

// ToolResolver executes one named tool call and returns its JSON result, or
// an error if the tool failed or is unknown. Mirrors
// original_source's ToolResolver trait.
type ToolResolver interface {
	CallTool(ctx context.Context, name string, arguments json.RawMessage) (json.RawMessage, error)
}

// ChatStreamFunc performs one upstream streaming chat call. The returned
// event channel must already carry a single well-formed stream (i.e. it
// should be the output of a stream.Session, with the StreamStart/StreamEnd
// invariants already enforced) for exactly this one step. The error channel
// receives at most one value, for a transport/parse failure that aborts the
// step; it is closed (possibly without a value) once the step is done.
type ChatStreamFunc func(ctx context.Context, messages []llmtypes.Message, tools []llmtypes.Tool) (<-chan llmtypes.StreamEvent, <-chan error)

// Options configures one tool-loop run.
type Options struct {
	// MaxSteps bounds upstream call rounds (tool-call round + final-answer
	// round both count). Values below 1 are treated as 1: a single upstream
	// call, with any tool calls it returns discarded unexecuted since there
	// is no remaining budget to feed their results back into a follow-up
	// call.
	MaxSteps int
}

// DefaultOptions mirrors ToolLoopGatewayOptions::default (max_steps: 8).
func DefaultOptions() Options { return Options{MaxSteps: 8} }

// Item is one value off the orchestrator's output channel: either a
// StreamEvent to forward downstream, or a terminal error.
type Item struct {
	Event llmtypes.StreamEvent
	Err   error
}

// Run drives the tool loop to completion in a background goroutine and
// returns the channel of events (and at most one terminal error) to forward
// to the original caller. The channel is closed when the loop is done.
func Run(ctx context.Context, call ChatStreamFunc, initialMessages []llmtypes.Message, tools []llmtypes.Tool, resolver ToolResolver, opts Options) <-chan Item {
	maxSteps := opts.MaxSteps
	if maxSteps < 1 {
		maxSteps = 1
	}

	out := make(chan Item, 64)

	go func() {
		defer close(out)

		history := append([]llmtypes.Message(nil), initialMessages...)
		emittedStart := false
		var finalResp *llmtypes.ChatResponse

		for step := 0; step < maxSteps; step++ {
			events, errs := call(ctx, history, tools)

			stepResp, ok := drainStep(ctx, out, events, errs, &emittedStart)
			if !ok {
				return
			}
			if stepResp != nil {
				finalResp = stepResp
			}

			var toolCalls []llmtypes.ToolCall
			if stepResp != nil {
				toolCalls = stepResp.ToolCalls()
			}

			appendAssistantTurn(&history, stepResp)

			// No budget left for a follow-up call: any tool calls this step
			// returned can never be fed back into the model, so they are
			// discarded unexecuted and the loop ends here.
			if step == maxSteps-1 {
				break
			}

			executedAny := false
			for _, tc := range toolCalls {
				if tc.ProviderExecuted != nil && *tc.ProviderExecuted {
					continue
				}
				executedAny = true
				if !executeToolCall(ctx, out, resolver, &history, tc) {
					return
				}
			}

			if !executedAny {
				break
			}
		}

		resp := llmtypes.Empty()
		if finalResp != nil {
			resp = *finalResp
		}
		send(ctx, out, Item{Event: llmtypes.NewStreamEnd(resp)})
	}()

	return out
}

// drainStep forwards one upstream step's events downstream, suppressing
// every StreamStart after the first and every StreamEnd (the caller folds
// intermediate StreamEnds into the next step instead of forwarding them).
// It returns the step's terminal response (nil if the step produced none)
// and false if the caller should stop entirely (context cancelled, upstream
// error, or the downstream consumer went away).
func drainStep(ctx context.Context, out chan<- Item, events <-chan llmtypes.StreamEvent, errs <-chan error, emittedStart *bool) (*llmtypes.ChatResponse, bool) {
	var stepResp *llmtypes.ChatResponse
	for events != nil || errs != nil {
		select {
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			switch ev.Kind {
			case llmtypes.EventStreamStart:
				if *emittedStart {
					continue
				}
				*emittedStart = true
				if !send(ctx, out, Item{Event: ev}) {
					return stepResp, false
				}
			case llmtypes.EventStreamEnd:
				stepResp = ev.StreamEnd
			default:
				if !send(ctx, out, Item{Event: ev}) {
					return stepResp, false
				}
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if err != nil {
				send(ctx, out, Item{Err: err})
				return stepResp, false
			}
		case <-ctx.Done():
			return stepResp, false
		}
	}
	return stepResp, true
}

// appendAssistantTurn records the step's assistant turn (text and/or tool
// calls) into history, mirroring the Rust loop's "always add the assistant
// message to history" rule — a tool-call step needs it there for the
// follow-up request to make sense of the tool-result messages that follow.
func appendAssistantTurn(history *[]llmtypes.Message, stepResp *llmtypes.ChatResponse) {
	if stepResp == nil {
		return
	}
	var parts []llmtypes.ContentPart
	if text := stepResp.Text(); text != "" {
		parts = append(parts, llmtypes.Text{Text: text})
	}
	for _, tc := range stepResp.ToolCalls() {
		parts = append(parts, tc)
	}
	if len(parts) == 0 {
		return
	}
	*history = append(*history, llmtypes.Message{Role: llmtypes.RoleAssistant, Content: llmtypes.MultiModalContent(parts...)})
}

// executeToolCall resolves one tool call, appends its result to history, and
// emits the synthetic "gateway:tool-result" Custom event so a downstream
// consumer can surface it before the next upstream call starts. Returns
// false if the downstream consumer went away and the loop should stop.
func executeToolCall(ctx context.Context, out chan<- Item, resolver ToolResolver, history *[]llmtypes.Message, tc llmtypes.ToolCall) bool {
	result, err := resolver.CallTool(ctx, tc.ToolName, tc.Arguments)
	isError := err != nil
	if isError {
		result, _ = json.Marshal(map[string]string{"error": "tool_error", "message": err.Error()})
	}

	if isError {
		*history = append(*history, llmtypes.NewToolResultMessage(llmtypes.NewToolErrorJSON(tc.ToolCallID, tc.ToolName, result)))
	} else {
		*history = append(*history, llmtypes.NewToolResultMessage(llmtypes.NewToolResultJSON(tc.ToolCallID, tc.ToolName, result)))
	}

	var resultValue any
	_ = json.Unmarshal(result, &resultValue)
	payload, _ := json.Marshal(map[string]any{
		"type":       "tool-result",
		"toolCallId": tc.ToolCallID,
		"toolName":   tc.ToolName,
		"result":     resultValue,
		"isError":    isError,
	})

	return send(ctx, out, Item{Event: llmtypes.NewCustom("gateway:tool-result", payload)})
}

func send(ctx context.Context, out chan<- Item, item Item) bool {
	select {
	case out <- item:
		return true
	case <-ctx.Done():
		return false
	}
}
