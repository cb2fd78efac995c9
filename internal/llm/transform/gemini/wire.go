// Package gemini implements the Google Gemini/Vertex generateContent
// transformer bundle of SPEC_FULL.md §4.3, grounded on the teacher's
// internal/providers/gemini.go (convertGeminiToAnthropic,
// convertGeminiToAnthropicStream, handleGeminiParts, mapGeminiErrorType),
// retargeted from the Anthropic wire shape to the unified model. The
// grounding-chunk dedup logic in stream.go has no teacher counterpart
// (internal/providers/gemini.go never handles groundingMetadata at all) and
// is built fresh against SPEC_FULL.md §4.9/§8 scenario 3.
package gemini

import "encoding/json"

type wireRequest struct {
	Contents          []wireContent      `json:"contents"`
	SystemInstruction *wireContent       `json:"systemInstruction,omitempty"`
	Tools             []wireTool         `json:"tools,omitempty"`
	GenerationConfig  *wireGenConfig     `json:"generationConfig,omitempty"`
}

type wireContent struct {
	Role  string      `json:"role,omitempty"`
	Parts []wirePart  `json:"parts"`
}

type wirePart struct {
	Text             string          `json:"text,omitempty"`
	FunctionCall     *wireFuncCall   `json:"functionCall,omitempty"`
	FunctionResponse *wireFuncResp   `json:"functionResponse,omitempty"`
}

type wireFuncCall struct {
	Name string          `json:"name"`
	Args json.RawMessage `json:"args,omitempty"`
}

type wireFuncResp struct {
	Name     string          `json:"name"`
	Response json.RawMessage `json:"response"`
}

type wireTool struct {
	FunctionDeclarations []wireFuncDecl `json:"functionDeclarations,omitempty"`
}

type wireFuncDecl struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

type wireGenConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	TopP            *float64 `json:"topP,omitempty"`
	MaxOutputTokens *int     `json:"maxOutputTokens,omitempty"`
	StopSequences   []string `json:"stopSequences,omitempty"`
}

type wireResponse struct {
	Candidates     []wireCandidate `json:"candidates"`
	UsageMetadata  *wireUsage      `json:"usageMetadata,omitempty"`
	ModelVersion   string          `json:"modelVersion,omitempty"`
	Error          *wireError      `json:"error,omitempty"`
}

type wireCandidate struct {
	Content          wireContent        `json:"content"`
	FinishReason     string             `json:"finishReason,omitempty"`
	GroundingMetadata *wireGrounding    `json:"groundingMetadata,omitempty"`
}

type wireGrounding struct {
	GroundingChunks []wireGroundingChunk `json:"groundingChunks,omitempty"`
}

type wireGroundingChunk struct {
	Web *wireGroundingWeb `json:"web,omitempty"`
}

type wireGroundingWeb struct {
	URI   string `json:"uri"`
	Title string `json:"title,omitempty"`
}

type wireUsage struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

type wireError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}
