package compat

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Davincible/llm-gateway/internal/llm/llmtypes"
)

func TestTransformRequest_InjectsThinkingBudgetForSiliconFlow(t *testing.T) {
	var v Vendor
	for _, candidate := range Vendors {
		if candidate.ID == "siliconflow" {
			v = candidate
		}
	}
	require.Equal(t, "siliconflow", v.ID)

	budget, _ := json.Marshal(4096)
	req := llmtypes.ChatRequest{
		Params:       llmtypes.CommonParams{Model: "deepseek-r1"},
		Messages:     []llmtypes.Message{llmtypes.NewUserText("hi")},
		ProviderOpts: llmtypes.ProviderOptionsMap{"thinkingBudget": budget},
	}

	body, err := TransformRequest(v, req, llmtypes.BuildContext{})
	require.NoError(t, err)

	var obj map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &obj))
	assert.Contains(t, obj, "thinking_budget")
}

func TestTransformResponse_FoldsReasoningContentAsLeadingPart(t *testing.T) {
	var v Vendor
	for _, candidate := range Vendors {
		if candidate.ID == "deepseek" {
			v = candidate
		}
	}

	body := []byte(`{
		"id":"x","model":"deepseek-reasoner",
		"choices":[{"index":0,"message":{"role":"assistant","content":"42","reasoning_content":"because math"},"finish_reason":"stop"}]
	}`)

	resp, err := TransformResponse(v, body, llmtypes.BuildContext{})
	require.NoError(t, err)
	require.True(t, resp.Content.Kind == llmtypes.ContentKindMultiModal)
	first, ok := resp.Content.Parts[0].(llmtypes.Reasoning)
	require.True(t, ok)
	assert.Equal(t, "because math", first.Text)
}
