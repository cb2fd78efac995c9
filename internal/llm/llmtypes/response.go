package llmtypes

// FinishReason is the enumerated terminal cause of a generation.
type FinishReason string

const (
	FinishStop          FinishReason = "stop"
	FinishLength         FinishReason = "length"
	FinishToolCalls      FinishReason = "tool-calls"
	FinishContentFilter  FinishReason = "content-filter"
	FinishError          FinishReason = "error"
	FinishUnknown        FinishReason = "unknown"
)

// FinishOther wraps a provider-specific finish reason string not covered by
// the enumerated set above.
type FinishOther struct {
	Reason string
}

// TokenDetails breaks prompt/completion token counts down further when the
// provider reports it (cache reads, audio tokens, etc).
type TokenDetails map[string]int

// Usage is token accounting for one response.
type Usage struct {
	PromptTokens             int
	CompletionTokens         int
	TotalTokens              int
	ReasoningTokens          *int
	CachedTokens             *int
	PromptTokensDetails      TokenDetails
	CompletionTokensDetails  TokenDetails
}

// Add accumulates another Usage snapshot into this one. Used by
// stream.Session to fold successive UsageUpdate events into one total.
func (u *Usage) Add(other Usage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
	if other.ReasoningTokens != nil {
		v := u.valueOrZero(u.ReasoningTokens) + *other.ReasoningTokens
		u.ReasoningTokens = &v
	}
	if other.CachedTokens != nil {
		v := u.valueOrZero(u.CachedTokens) + *other.CachedTokens
		u.CachedTokens = &v
	}
}

func (u *Usage) valueOrZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// ChatResponse is the unified, fully-materialized response to a
// non-streaming chat call, and the synthesized terminal value of a
// streaming one.
type ChatResponse struct {
	ID                string
	Model             string
	Content           Content
	Usage             *Usage
	FinishReason      FinishReason
	FinishReasonOther string // populated when FinishReason holds an out-of-band value
	SystemFingerprint string
	ServiceTier       string
	Warnings          []string
	ProviderMetadata  ProviderMetadata
}

// Empty returns a zero-value response with text content, used as a
// synthesis fallback (e.g. the tool loop's last-resort StreamEnd).
func Empty() ChatResponse {
	return ChatResponse{Content: TextContent(""), FinishReason: FinishUnknown}
}

// ToolCalls extracts every ToolCall part from the response content.
func (r ChatResponse) ToolCalls() []ToolCall {
	if r.Content.Kind != ContentKindMultiModal {
		return nil
	}
	var out []ToolCall
	for _, p := range r.Content.Parts {
		if tc, ok := p.(ToolCall); ok {
			out = append(out, tc)
		}
	}
	return out
}

// Text concatenates every Text part's text (or returns the plain-text
// content directly), ignoring tool calls/results/reasoning.
func (r ChatResponse) Text() string {
	switch r.Content.Kind {
	case ContentKindText:
		return r.Content.Text
	case ContentKindMultiModal:
		var out string
		for _, p := range r.Content.Parts {
			if t, ok := p.(Text); ok {
				out += t.Text
			}
		}
		return out
	default:
		return ""
	}
}
