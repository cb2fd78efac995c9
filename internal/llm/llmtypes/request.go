package llmtypes

import "encoding/json"

// ToolChoiceKind selects how the model is constrained to use tools.
type ToolChoiceKind string

const (
	ToolChoiceAuto     ToolChoiceKind = "auto"
	ToolChoiceRequired ToolChoiceKind = "required"
	ToolChoiceNone     ToolChoiceKind = "none"
	ToolChoiceNamed    ToolChoiceKind = "tool"
)

// ToolChoice controls tool-use behavior for a request.
type ToolChoice struct {
	Kind ToolChoiceKind
	Name string // populated when Kind == ToolChoiceNamed
}

// ToolKind discriminates a Tool definition.
type ToolKind string

const (
	ToolKindFunction        ToolKind = "function"
	ToolKindProviderDefined ToolKind = "provider-defined"
)

// Tool is a single tool definition offered to the model.
type Tool struct {
	Kind ToolKind

	// Function fields (Kind == ToolKindFunction).
	Name        string
	Description string
	Parameters  json.RawMessage // JSON Schema

	// ProviderDefined fields (Kind == ToolKindProviderDefined): an
	// on-wire type+name identifying a built-in provider tool (web
	// search, file search, computer-use, code execution). The
	// translator emits only tools that belong to the target provider
	// and silently ignores the rest, so unified requests may carry a
	// mixed tool set across providers.
	ProviderDefinedID   string
	ProviderDefinedArgs json.RawMessage
}

// ResponseFormatKind selects plain text vs a constrained JSON schema.
type ResponseFormatKind string

const (
	ResponseFormatText       ResponseFormatKind = "text"
	ResponseFormatJSONSchema ResponseFormatKind = "json_schema"
)

// ResponseFormat constrains the shape of the model's output.
type ResponseFormat struct {
	Kind       ResponseFormatKind
	SchemaName string
	Schema     json.RawMessage
	Strict     bool
}

// CommonParams are the cross-provider generation knobs every ProviderSpec's
// RequestTransformer maps into its own field names/ranges.
type CommonParams struct {
	Model         string
	Temperature   *float64
	MaxTokens     *int
	TopP          *float64
	StopSequences []string
	Seed          *int64
}

// ProviderOptionsMap is an opaque provider-id → JSON bag merged per request.
// The core neither validates nor normalizes its contents; it is forwarded
// verbatim to ProviderSpec.ChatBeforeSend hooks, each of which must only
// ever consult its own provider id to avoid cross-provider leakage.
type ProviderOptionsMap map[string]json.RawMessage

// HTTPOverrides lets a single request override transport-level behavior.
type HTTPOverrides struct {
	ExtraHeaders map[string]string
	Timeout      *int64 // milliseconds
}

// ChatRequest is the unified chat request: provider-agnostic input to a
// RequestTransformer.
type ChatRequest struct {
	Messages       []Message
	Tools          []Tool
	ToolChoice     *ToolChoice
	Params         CommonParams
	ProviderOpts   ProviderOptionsMap
	HTTPOverrides  *HTTPOverrides
	Stream         bool
	ResponseFormat *ResponseFormat
}
