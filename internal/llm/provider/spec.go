// Package provider implements the ProviderSpec dispatcher of SPEC_FULL.md
// §4.5: a per-vendor Spec describing capabilities, endpoint construction,
// header building and transformer-bundle selection, plus a Registry that
// looks specs up by id or by request-URL domain.
//
// Grounded on the teacher's internal/providers/registry.go Provider/Registry
// pair, generalized from "one stateful Provider instance per vendor with a
// mutable apiKey field" into an immutable Spec description consulted
// per-request against a caller-supplied BuildContext, matching
// SPEC_FULL.md §5's "ProviderSpec/Registry instances are immutable after
// construction and safe for concurrent reuse across requests."
package provider

import (
	"net/http"

	"github.com/Davincible/llm-gateway/internal/llm/llmtypes"
)

// Capability is a bitmask of the operations a provider spec supports.
type Capability uint32

const (
	CapChat Capability = 1 << iota
	CapChatStream
	CapEmbedding
	CapImage
	CapAudio
	CapRerank
	CapFiles

	// CapJSONLinesStream marks a spec whose streaming wire format is
	// newline-delimited JSON with EOF-as-terminator (Ollama) rather than SSE
	// with a "data: [DONE]" sentinel (OpenAI/Anthropic/Gemini/compat). The
	// executor's stream pump dispatches its framing on this bit.
	CapJSONLinesStream
)

// Has reports whether all bits in want are set.
func (c Capability) Has(want Capability) bool { return c&want == want }

// Transformers bundles the three conversion functions SPEC_FULL.md §4.3
// requires of every provider: unified request to wire bytes, wire response
// bytes to unified response, and wire stream chunk to zero-or-more unified
// StreamEvents.
type Transformers struct {
	Request     RequestTransformer
	Response    ResponseTransformer
	StreamChunk StreamChunkTransformer
}

// RequestTransformer renders a unified ChatRequest into the bytes a
// provider's wire format expects.
type RequestTransformer func(req llmtypes.ChatRequest, bc llmtypes.BuildContext) ([]byte, error)

// ResponseTransformer parses a provider's non-streaming response body into
// the unified ChatResponse.
type ResponseTransformer func(body []byte, bc llmtypes.BuildContext) (llmtypes.ChatResponse, error)

// StreamChunkTransformer parses one decoded wire-format frame (already
// UTF-8-boundary-safe and SSE/JSON-lines framed) into zero or more unified
// StreamEvents. eventType is the SSE "event:" field when the provider sends
// one (Anthropic); it is empty for providers that key entirely off the JSON
// body (OpenAI, Gemini, Ollama). It receives a State pointer so the per-
// session goroutine-owned mutable state (content-block index tracking,
// tool-call index mapping, Gemini grounding-chunk dedup set) survives across
// calls for one stream without being shared across streams.
type StreamChunkTransformer func(eventType string, data []byte, st *State) ([]llmtypes.StreamEvent, error)

// State is the per-stream mutable scratch space a StreamChunkTransformer
// may need, mirroring the teacher's StreamState/ContentBlockState shape
// (internal/providers/registry.go) generalized to hold any provider's
// bookkeeping instead of only the Anthropic-shaped one.
type State struct {
	MessageStarted bool
	MessageID      string
	Model          string

	ContentBlocks map[int]*ContentBlockState

	// SeenGroundingURIs dedups Gemini grounding-chunk citations
	// (SPEC_FULL.md §4.9) across the life of one stream.
	SeenGroundingURIs map[string]bool
}

// NewState returns freshly initialized per-stream scratch space.
func NewState() *State {
	return &State{
		ContentBlocks:     map[int]*ContentBlockState{},
		SeenGroundingURIs: map[string]bool{},
	}
}

// ContentBlockState tracks one in-flight content block (text or tool-use)
// across stream chunks, the same shape the teacher uses in
// internal/providers/registry.go, generalized to any provider's tool-call
// index scheme.
type ContentBlockState struct {
	Kind          llmtypes.ContentPartKind
	StartSent     bool
	StopSent      bool
	ToolCallID    string
	ToolCallIndex int
	ToolName      string
	Arguments     string
}

// Spec describes one provider or provider family: OpenAI, Anthropic,
// Gemini, Ollama, or a table-driven OpenAI-compatible vendor entry.
// A Spec has no mutable state of its own — anything that varies per request
// lives in the caller's BuildContext or in State.
type Spec struct {
	ID           string
	Capabilities Capability

	// ChatURL builds the chat-completions endpoint for one request, given
	// the caller's base URL override (if any) and whether streaming was
	// requested (some providers use a distinct streaming path, e.g.
	// Gemini's :streamGenerateContent vs :generateContent).
	ChatURL func(bc llmtypes.BuildContext, stream bool) (string, error)

	// BuildHeaders returns the headers to attach to a request, consulting
	// the BuildContext's APIKey/Organization/Project/TokenProvider as this
	// provider's auth scheme requires (Bearer, x-api-key, query-param key,
	// or OAuth token refresh).
	BuildHeaders func(bc llmtypes.BuildContext) (http.Header, error)

	// ChooseTransformers selects the request/response/stream-chunk
	// transformer bundle for one request. Most specs return a fixed
	// bundle; OpenAI returns one of two bundles depending on
	// ProviderOpts["openai"]["responsesApi"]["enabled"] (SPEC_FULL.md §4.9).
	ChooseTransformers func(req llmtypes.ChatRequest) Transformers

	// ChatBeforeSend lets a spec mutate the outgoing request (extra
	// headers, body patches) immediately before it is sent — the provider-
	// scoped counterpart to the executor-wide BeforeSend interceptor.
	ChatBeforeSend func(httpReq *http.Request, bc llmtypes.BuildContext) error
}
