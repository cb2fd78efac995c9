// Package compat implements the OpenAI-compatible vendor registry of
// SPEC_FULL.md §4.9: a table-driven set of vendor entries (OpenRouter,
// NVIDIA NIM, DeepSeek, SiliconFlow, ...) that all speak the OpenAI Chat
// Completions dialect with small per-vendor field differences, instead of
// one bespoke Go file per vendor.
//
// Grounded on the teacher's internal/providers/openrouter.go and
// internal/providers/nvidia.go — both of which are, in the teacher, fully
// separate ~1000-line files duplicating the OpenAI conversion logic for one
// additional field here or there. Generalized here into one shared base
// (internal/llm/transform/openai) plus a small FieldMap describing each
// vendor's deltas, per
// original_source/src/providers/openai_compatible/config_adapter.rs and
// .../providers/siliconflow.rs's reasoning/thinking-budget field renames.
package compat

import (
	"encoding/json"

	"github.com/Davincible/llm-gateway/internal/llm/llmtypes"
	"github.com/Davincible/llm-gateway/internal/llm/transform/openai"
)

// FieldMap describes one vendor's deviations from plain OpenAI Chat
// Completions.
type FieldMap struct {
	// ReasoningContentField, when set, is the response field name a vendor
	// uses in place of (or alongside) "content" for chain-of-thought text
	// (DeepSeek's reasoning_content).
	ReasoningContentField string

	// ThinkingBudgetParam, when set, is the request field name a vendor
	// expects for a reasoning-effort budget, translated from the unified
	// request's provider options (e.g. SiliconFlow's thinking_budget vs.
	// OpenAI's reasoning_effort).
	ThinkingBudgetParam string
}

// Vendor is one registry entry: an id, its base URL, and its field
// deviations from the OpenAI baseline.
type Vendor struct {
	ID      string
	BaseURL string
	Fields  FieldMap
}

// Vendors is the built-in table, restored from original_source's vendor
// list and the teacher's two hand-written compatible providers.
var Vendors = []Vendor{
	{ID: "openrouter", BaseURL: "https://openrouter.ai/api/v1/chat/completions"},
	{ID: "nvidia", BaseURL: "https://integrate.api.nvidia.com/v1/chat/completions"},
	{ID: "deepseek", BaseURL: "https://api.deepseek.com/chat/completions", Fields: FieldMap{ReasoningContentField: "reasoning_content"}},
	{
		ID:      "siliconflow",
		BaseURL: "https://api.siliconflow.cn/v1/chat/completions",
		Fields:  FieldMap{ReasoningContentField: "reasoning_content", ThinkingBudgetParam: "thinking_budget"},
	},
}

// TransformRequest builds the base OpenAI request body and then applies the
// vendor's field deviations (currently: copying a numeric "thinkingBudget"
// provider option into the vendor's thinking-budget field).
func TransformRequest(v Vendor, req llmtypes.ChatRequest, bc llmtypes.BuildContext) ([]byte, error) {
	body, err := openai.TransformRequest(req, bc)
	if err != nil {
		return nil, err
	}
	if v.Fields.ThinkingBudgetParam == "" {
		return body, nil
	}

	budget, ok := reasoningEffortBudget(req.ProviderOpts)
	if !ok {
		return body, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return body, nil // malformed base body would have already failed above; defensive only
	}
	raw, err := json.Marshal(budget)
	if err != nil {
		return body, nil
	}
	obj[v.Fields.ThinkingBudgetParam] = raw
	return json.Marshal(obj)
}

// reasoningEffortBudget pulls a numeric thinking-budget override out of the
// unified request's ProviderOptsMap, if the caller set one for this vendor.
func reasoningEffortBudget(opts llmtypes.ProviderOptionsMap) (int, bool) {
	if opts == nil {
		return 0, false
	}
	raw, ok := opts["thinkingBudget"]
	if !ok {
		return 0, false
	}
	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, false
	}
	return n, true
}

// TransformResponse parses a vendor response, folding a reasoning_content
// field (when the vendor has one) into a leading Reasoning part ahead of
// the regular text/tool-call parts the OpenAI base transformer produces.
func TransformResponse(v Vendor, body []byte, bc llmtypes.BuildContext) (llmtypes.ChatResponse, error) {
	resp, err := openai.TransformResponse(body, bc)
	if err != nil {
		return resp, err
	}
	if v.Fields.ReasoningContentField == "" {
		return resp, nil
	}

	var probe struct {
		Choices []struct {
			Message map[string]json.RawMessage `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &probe); err != nil || len(probe.Choices) == 0 {
		return resp, nil
	}
	raw, ok := probe.Choices[0].Message[v.Fields.ReasoningContentField]
	if !ok {
		return resp, nil
	}
	var reasoning string
	if err := json.Unmarshal(raw, &reasoning); err != nil || reasoning == "" {
		return resp, nil
	}

	if resp.Content.Kind == llmtypes.ContentKindMultiModal {
		resp.Content.Parts = append([]llmtypes.ContentPart{llmtypes.Reasoning{Text: reasoning}}, resp.Content.Parts...)
	}
	return resp, nil
}
