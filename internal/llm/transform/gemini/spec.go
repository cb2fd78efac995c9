package gemini

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Davincible/llm-gateway/internal/llm/llmtypes"
	"github.com/Davincible/llm-gateway/internal/llm/provider"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Spec returns the ProviderSpec for Google Gemini's generateContent /
// streamGenerateContent API. The x-goog-api-key header and the
// generateContent-vs-streamGenerateContent URL split are grounded on the
// teacher's setAuthHeader gemini branch and buildEndpointURL's Gemini
// special case (internal/handlers/proxy.go).
func Spec() *provider.Spec {
	return &provider.Spec{
		ID:           "gemini",
		Capabilities: provider.CapChat | provider.CapChatStream,
		ChatURL: func(bc llmtypes.BuildContext, stream bool) (string, error) {
			base := bc.BaseURL
			if base == "" {
				base = defaultBaseURL
			}
			model, err := modelFromOpts(bc)
			if err != nil {
				return "", err
			}
			method := "generateContent"
			if stream {
				method = "streamGenerateContent?alt=sse"
			}
			return fmt.Sprintf("%s/models/%s:%s", base, model, method), nil
		},
		BuildHeaders: func(bc llmtypes.BuildContext) (http.Header, error) {
			h := http.Header{}
			h.Set("Content-Type", "application/json")
			key, err := apiKey(bc)
			if err != nil {
				return nil, err
			}
			h.Set("x-goog-api-key", key)
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

// modelFromOpts pulls the model id the caller requested so ChatURL can embed
// it in the path the way Gemini's REST API requires (the model is part of
// the URL, not the body, unlike every other provider this gateway speaks).
func modelFromOpts(bc llmtypes.BuildContext) (string, error) {
	if v, ok := bc.ProviderOpts["model"]; ok {
		var s string
		if err := json.Unmarshal(v, &s); err == nil && s != "" {
			return s, nil
		}
	}
	return "", fmt.Errorf("gemini: model not set in BuildContext.ProviderOpts[\"model\"]")
}

func apiKey(bc llmtypes.BuildContext) (string, error) {
	if bc.TokenProvider != nil {
		return bc.TokenProvider.Token()
	}
	if bc.APIKey == "" {
		return "", fmt.Errorf("gemini: missing API key")
	}
	return bc.APIKey, nil
}
