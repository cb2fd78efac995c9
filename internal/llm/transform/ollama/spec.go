package ollama

import (
	"net/http"

	"github.com/Davincible/llm-gateway/internal/llm/llmtypes"
	"github.com/Davincible/llm-gateway/internal/llm/provider"
)

const defaultBaseURL = "http://localhost:11434"

// Spec returns the ProviderSpec for a local Ollama server: no API key, no
// auth header, matching original_source's Ollama client having no
// credential concept at all.
func Spec() *provider.Spec {
	return &provider.Spec{
		ID:           "ollama",
		Capabilities: provider.CapChat | provider.CapChatStream | provider.CapJSONLinesStream,
		ChatURL: func(bc llmtypes.BuildContext, stream bool) (string, error) {
			base := bc.BaseURL
			if base == "" {
				base = defaultBaseURL
			}
			return base + "/api/chat", nil
		},
		BuildHeaders: func(bc llmtypes.BuildContext) (http.Header, error) {
			h := http.Header{}
			h.Set("Content-Type", "application/json")
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
