package llmtypes

import (
	"encoding/json"
	"fmt"
)

// ContentPartKind discriminates the tagged union described in
// SPEC_FULL.md §3, grounded field-for-field on
// original_source/siumai-spec/src/types/chat/content/part.rs.
type ContentPartKind string

const (
	PartKindText                  ContentPartKind = "text"
	PartKindImage                 ContentPartKind = "image"
	PartKindAudio                 ContentPartKind = "audio"
	PartKindFile                  ContentPartKind = "file"
	PartKindSource                ContentPartKind = "source"
	PartKindToolCall               ContentPartKind = "tool-call"
	PartKindToolApprovalRequest    ContentPartKind = "tool-approval-request"
	PartKindToolApprovalResponse   ContentPartKind = "tool-approval-response"
	PartKindToolResult             ContentPartKind = "tool-result"
	PartKindReasoning              ContentPartKind = "reasoning"
)

// ContentPart is the tagged-union member interface. Every concrete part type
// below implements it.
type ContentPart interface {
	Kind() ContentPartKind
}

// MediaSourceKind selects how Image/Audio/File content is carried.
type MediaSourceKind string

const (
	MediaSourceURL    MediaSourceKind = "url"
	MediaSourceBase64 MediaSourceKind = "base64"
	MediaSourceBinary MediaSourceKind = "binary"
)

// MediaSource is the data-carrying union for Image/Audio/File parts.
type MediaSource struct {
	Kind   MediaSourceKind
	URL    string
	Base64 string
	Binary []byte
}

func SourceURL(url string) MediaSource       { return MediaSource{Kind: MediaSourceURL, URL: url} }
func SourceBase64(data string) MediaSource   { return MediaSource{Kind: MediaSourceBase64, Base64: data} }
func SourceBinary(data []byte) MediaSource   { return MediaSource{Kind: MediaSourceBinary, Binary: data} }

// ProviderMetadata is the opaque, round-trip-preserved bag attached to most
// content parts. The core never inspects or validates its contents.
type ProviderMetadata map[string]json.RawMessage

// Text is plain prose content.
type Text struct {
	Text             string
	ProviderMetadata ProviderMetadata
}

func (Text) Kind() ContentPartKind { return PartKindText }

// ImageDetail is the OpenAI-style detail hint for image parts.
type ImageDetail string

const (
	ImageDetailAuto ImageDetail = "auto"
	ImageDetailLow  ImageDetail = "low"
	ImageDetailHigh ImageDetail = "high"
)

// Image is an image content part.
type Image struct {
	Source           MediaSource
	Detail           ImageDetail
	ProviderMetadata ProviderMetadata
}

func (Image) Kind() ContentPartKind { return PartKindImage }

// Audio is an audio content part.
type Audio struct {
	Source           MediaSource
	MediaType        string
	ProviderMetadata ProviderMetadata
}

func (Audio) Kind() ContentPartKind { return PartKindAudio }

// File is a file content part (PDF, documents, etc).
type File struct {
	Source           MediaSource
	MediaType        string
	Filename         string
	ProviderMetadata ProviderMetadata
}

func (File) Kind() ContentPartKind { return PartKindFile }

// Source is a citation/attribution part (Vercel-aligned).
type Source struct {
	ID         string
	SourceType string
	URL        string
	Title      string
}

func (Source) Kind() ContentPartKind { return PartKindSource }

// ToolCall is a request from the model to invoke a named tool.
//
// ProviderExecuted distinguishes tools the provider itself executes (web
// search, code execution) from user-defined functions the caller must
// dispatch and answer with a ToolResult.
type ToolCall struct {
	ToolCallID       string
	ToolName         string
	Arguments        json.RawMessage
	ProviderExecuted *bool
	ProviderMetadata ProviderMetadata
}

func (ToolCall) Kind() ContentPartKind { return PartKindToolCall }

// ToolApprovalRequest asks the caller to approve a pending tool call (MCP
// approval workflows).
type ToolApprovalRequest struct {
	ApprovalID string
	ToolCallID string
}

func (ToolApprovalRequest) Kind() ContentPartKind { return PartKindToolApprovalRequest }

// ToolApprovalResponse carries the caller's approval decision.
type ToolApprovalResponse struct {
	ApprovalID string
	Approved   bool
}

func (ToolApprovalResponse) Kind() ContentPartKind { return PartKindToolApprovalResponse }

// ToolResultOutputKind discriminates ToolResultOutput.
type ToolResultOutputKind string

const (
	ToolOutputText            ToolResultOutputKind = "text"
	ToolOutputJSON            ToolResultOutputKind = "json"
	ToolOutputErrorText       ToolResultOutputKind = "error-text"
	ToolOutputErrorJSON       ToolResultOutputKind = "error-json"
	ToolOutputExecutionDenied ToolResultOutputKind = "execution-denied"
	ToolOutputContent         ToolResultOutputKind = "content"
)

// ToolResultContentPart is one element of a multimodal tool result.
type ToolResultContentPart struct {
	IsImage bool
	Text    string
	ImageURL string
}

func ToolResultText(text string) ToolResultContentPart { return ToolResultContentPart{Text: text} }
func ToolResultImageURL(url string) ToolResultContentPart {
	return ToolResultContentPart{IsImage: true, ImageURL: url}
}

// ToolResultOutput is the sum type carried by a ToolResult part.
type ToolResultOutput struct {
	Kind            ToolResultOutputKind
	Text            string
	JSON            json.RawMessage
	DeniedReason    string
	MultimodalParts []ToolResultContentPart
}

func NewTextOutput(text string) ToolResultOutput {
	return ToolResultOutput{Kind: ToolOutputText, Text: text}
}

func NewJSONOutput(value json.RawMessage) ToolResultOutput {
	return ToolResultOutput{Kind: ToolOutputJSON, JSON: value}
}

func NewErrorTextOutput(text string) ToolResultOutput {
	return ToolResultOutput{Kind: ToolOutputErrorText, Text: text}
}

func NewErrorJSONOutput(value json.RawMessage) ToolResultOutput {
	return ToolResultOutput{Kind: ToolOutputErrorJSON, JSON: value}
}

func NewExecutionDeniedOutput(reason string) ToolResultOutput {
	return ToolResultOutput{Kind: ToolOutputExecutionDenied, DeniedReason: reason}
}

func NewContentOutput(parts ...ToolResultContentPart) ToolResultOutput {
	return ToolResultOutput{Kind: ToolOutputContent, MultimodalParts: parts}
}

// IsError reports whether this output represents a failed tool execution.
func (o ToolResultOutput) IsError() bool {
	return o.Kind == ToolOutputErrorText || o.Kind == ToolOutputErrorJSON
}

// ToolResult is the result of executing a tool call, matched by ID.
type ToolResult struct {
	ToolCallID       string
	ToolName         string
	Output           ToolResultOutput
	ProviderExecuted *bool
	ProviderMetadata ProviderMetadata
}

func (ToolResult) Kind() ContentPartKind { return PartKindToolResult }

// NewToolResultText is a convenience constructor mirroring
// ContentPart::tool_result_text in the reference implementation.
func NewToolResultText(toolCallID, toolName, result string) ToolResult {
	return ToolResult{ToolCallID: toolCallID, ToolName: toolName, Output: NewTextOutput(result)}
}

// NewToolResultJSON mirrors ContentPart::tool_result_json.
func NewToolResultJSON(toolCallID, toolName string, result json.RawMessage) ToolResult {
	return ToolResult{ToolCallID: toolCallID, ToolName: toolName, Output: NewJSONOutput(result)}
}

// NewToolErrorJSON mirrors ContentPart::tool_error_json.
func NewToolErrorJSON(toolCallID, toolName string, errVal json.RawMessage) ToolResult {
	return ToolResult{ToolCallID: toolCallID, ToolName: toolName, Output: NewErrorJSONOutput(errVal)}
}

// Reasoning carries the model's chain-of-thought/thinking text.
type Reasoning struct {
	Text             string
	ProviderMetadata ProviderMetadata
}

func (Reasoning) Kind() ContentPartKind { return PartKindReasoning }

// UnsupportedPartError is returned by provider transformers when they
// encounter a content part kind they do not know how to render on the wire.
type UnsupportedPartError struct{ Type ContentPartKind }

func (e *UnsupportedPartError) Error() string {
	return fmt.Sprintf("llmtypes: unsupported content part type %q", e.Type)
}
