package openai

import (
	"fmt"
	"net/http"

	"github.com/Davincible/llm-gateway/internal/llm/llmtypes"
	"github.com/Davincible/llm-gateway/internal/llm/provider"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Spec returns the ProviderSpec for OpenAI, grounded on the teacher's
// setAuthHeader Bearer-token branch (internal/handlers/proxy.go) and
// buildEndpointURL's "/chat/completions" suffixing. ChooseTransformers
// dispatches between the Chat Completions and Responses API dialects on
// provider_options.openai.responsesApi.enabled (SPEC_FULL.md §4.9); since
// ChatURL only receives a BuildContext, not the ChatRequest, callers must
// mirror that same flag into bc.ProviderOpts["openai"] before invoking
// ChatURL, the same convention gemini.Spec() uses for its model-in-URL
// requirement.
func Spec() *provider.Spec {
	return &provider.Spec{
		ID:           "openai",
		Capabilities: provider.CapChat | provider.CapChatStream,
		ChatURL: func(bc llmtypes.BuildContext, stream bool) (string, error) {
			base := bc.BaseURL
			if base == "" {
				base = defaultBaseURL
			}
			if ResponsesAPIEnabled(bc.ProviderOpts) {
				return base + "/responses", nil
			}
			return base + "/chat/completions", nil
		},
		BuildHeaders: func(bc llmtypes.BuildContext) (http.Header, error) {
			h := http.Header{}
			h.Set("Content-Type", "application/json")
			key, err := apiKey(bc)
			if err != nil {
				return nil, err
			}
			h.Set("Authorization", "Bearer "+key)
			if bc.Organization != "" {
				h.Set("OpenAI-Organization", bc.Organization)
			}
			if bc.Project != "" {
				h.Set("OpenAI-Project", bc.Project)
			}
			return h, nil
		},
		ChooseTransformers: func(req llmtypes.ChatRequest) provider.Transformers {
			if ResponsesAPIEnabled(req.ProviderOpts) {
				return provider.Transformers{
					Request:     TransformRequestResponses,
					Response:    TransformResponseResponses,
					StreamChunk: TransformStreamChunkResponses,
				}
			}
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
		return "", fmt.Errorf("openai: missing API key")
	}
	return bc.APIKey, nil
}
