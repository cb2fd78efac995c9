package anthropic

import (
	"fmt"
	"net/http"

	"github.com/Davincible/llm-gateway/internal/llm/llmtypes"
	"github.com/Davincible/llm-gateway/internal/llm/provider"
)

const (
	defaultBaseURL = "https://api.anthropic.com/v1"
	apiVersion     = "2023-06-01"
)

// Spec returns the ProviderSpec for the Anthropic Messages API. Header
// scheme (x-api-key, not Bearer) grounded on the teacher's setAuthHeader
// switch over provider.Name() in internal/handlers/proxy.go, generalized
// from a two-way switch (gemini vs. everyone-else-Bearer) into Anthropic
// getting its own branch alongside it.
func Spec() *provider.Spec {
	return &provider.Spec{
		ID:           "anthropic",
		Capabilities: provider.CapChat | provider.CapChatStream,
		ChatURL: func(bc llmtypes.BuildContext, stream bool) (string, error) {
			base := bc.BaseURL
			if base == "" {
				base = defaultBaseURL
			}
			return base + "/messages", nil
		},
		BuildHeaders: func(bc llmtypes.BuildContext) (http.Header, error) {
			h := http.Header{}
			h.Set("Content-Type", "application/json")
			h.Set("anthropic-version", apiVersion)
			key, err := apiKey(bc)
			if err != nil {
				return nil, err
			}
			h.Set("x-api-key", key)
			return h, nil
		},
		ChooseTransformers: func(req llmtypes.ChatRequest) provider.Transformers {
			return provider.Transformers{
				Request:     TransformRequest,
				Response:    TransformResponse,
				StreamChunk: TransformStreamChunk,
			}
		},
	}
}

func apiKey(bc llmtypes.BuildContext) (string, error) {
	if bc.TokenProvider != nil {
		return bc.TokenProvider.Token()
	}
	if bc.APIKey == "" {
		return "", fmt.Errorf("anthropic: missing API key")
	}
	return bc.APIKey, nil
}
