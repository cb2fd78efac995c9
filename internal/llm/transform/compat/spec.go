package compat

import (
	"fmt"
	"net/http"

	"github.com/Davincible/llm-gateway/internal/llm/llmtypes"
	"github.com/Davincible/llm-gateway/internal/llm/provider"
	"github.com/Davincible/llm-gateway/internal/llm/transform/openai"
)

var streamChunk = openai.TransformStreamChunk

// Spec returns the ProviderSpec for one vendor table entry, reusing the
// OpenAI bundle's Bearer-token header scheme (every vendor in Vendors speaks
// OpenAI Chat Completions auth too) and this vendor's fixed BaseURL.
func Spec(v Vendor) *provider.Spec {
	return &provider.Spec{
		ID:           v.ID,
		Capabilities: provider.CapChat | provider.CapChatStream,
		ChatURL: func(bc llmtypes.BuildContext, stream bool) (string, error) {
			if bc.BaseURL != "" {
				return bc.BaseURL, nil
			}
			return v.BaseURL, nil
		},
		BuildHeaders: func(bc llmtypes.BuildContext) (http.Header, error) {
			h := http.Header{}
			h.Set("Content-Type", "application/json")
			key, err := apiKey(v, bc)
			if err != nil {
				return nil, err
			}
			h.Set("Authorization", "Bearer "+key)
			return h, nil
		},
		ChooseTransformers: func(req llmtypes.ChatRequest) provider.Transformers {
			return provider.Transformers{
				Request:  func(r llmtypes.ChatRequest, bc llmtypes.BuildContext) ([]byte, error) { return TransformRequest(v, r, bc) },
				Response: func(body []byte, bc llmtypes.BuildContext) (llmtypes.ChatResponse, error) { return TransformResponse(v, body, bc) },
				// Streaming chunks for every vendor in the table are plain
				// OpenAI Chat Completions SSE, no per-vendor deviation (the
				// reasoning_content/thinking_budget deltas only affect the
				// request and the non-streaming response shape).
				StreamChunk: streamChunk,
			}
		},
	}
}

func apiKey(v Vendor, bc llmtypes.BuildContext) (string, error) {
	if bc.TokenProvider != nil {
		return bc.TokenProvider.Token()
	}
	if bc.APIKey == "" {
		return "", fmt.Errorf("%s: missing API key", v.ID)
	}
	return bc.APIKey, nil
}
