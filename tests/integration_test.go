package tests

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Davincible/llm-gateway/internal/config"
	"github.com/Davincible/llm-gateway/internal/gateway"
)

func TestGatewayIntegration(t *testing.T) {
	cfg := &config.Config{
		Host:   "127.0.0.1",
		Port:   8080,
		APIKey: "test-key",
		Providers: []config.Provider{
			{
				Name:    "openrouter",
				APIBase: "https://openrouter.ai/api/v1/chat/completions",
				APIKey:  "test-provider-key",
				Models:  []string{"test-model"},
			},
		},
		Router: config.RouterConfig{
			Default: "openrouter,test-model",
		},
	}

	tmpDir := t.TempDir()
	cfgMgr := config.NewManager(tmpDir)
	cfgMgr.Save(cfg)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	handler := gateway.NewHandler(cfgMgr, logger)

	requestBody := map[string]interface{}{
		"model": "test-model",
		"messages": []map[string]interface{}{
			{
				"role":    "user",
				"content": "Hello, world!",
			},
		},
	}

	jsonBody, _ := json.Marshal(requestBody)
	req := httptest.NewRequest("POST", "/v1/chat/completions", bytes.NewReader(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer test-key")

	rr := httptest.NewRecorder()

	// Execute request - this will fail because we can't reach the actual
	// openrouter.ai, but we're testing that decode -> route -> dispatch
	// reaches the HTTP layer rather than erroring out earlier in the
	// pipeline (bad request, unknown provider, etc).
	handler.ServeHTTP(rr, req)

	assert.NotEqual(t, http.StatusInternalServerError, rr.Code, "should not have internal server error during request processing")
	assert.NotEqual(t, http.StatusBadRequest, rr.Code, "should not reject a well-formed request body")

	t.Logf("Response status: %d", rr.Code)
	t.Logf("Response body: %s", rr.Body.String())
}
