package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func passthroughHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
}

func TestTelemetryBlocker_MatchesHostBlocksAndSpoofsSuccess(t *testing.T) {
	mw := NewTelemetryBlockerMiddleware(testLogger(), DefaultTelemetryRules())
	handler := mw(passthroughHandler())

	req := httptest.NewRequest(http.MethodPost, "http://statsig.anthropic.com/v1/rgstr", nil)
	req.Host = "statsig.anthropic.com"
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusAccepted, rr.Code)
	assert.JSONEq(t, `{"success":true}`, rr.Body.String())
}

func TestTelemetryBlocker_MatchesMetricsPathPrefix(t *testing.T) {
	mw := NewTelemetryBlockerMiddleware(testLogger(), DefaultTelemetryRules())
	handler := mw(passthroughHandler())

	req := httptest.NewRequest(http.MethodPost, "http://api.anthropic.com/api/claude_code/metrics", nil)
	req.Host = "api.anthropic.com"
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"accepted_count":0,"rejected_count":0}`, rr.Body.String())
}

func TestTelemetryBlocker_UnmatchedRequestPassesThrough(t *testing.T) {
	mw := NewTelemetryBlockerMiddleware(testLogger(), DefaultTelemetryRules())
	handler := mw(passthroughHandler())

	req := httptest.NewRequest(http.MethodPost, "http://api.anthropic.com/v1/messages", nil)
	req.Host = "api.anthropic.com"
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusTeapot, rr.Code)
}

func TestTelemetryBlocker_PathOnlyRuleMatchesAcrossHosts(t *testing.T) {
	mw := NewTelemetryBlockerMiddleware(testLogger(), DefaultTelemetryRules())
	handler := mw(passthroughHandler())

	req := httptest.NewRequest(http.MethodPost, "http://example.com/v1/log_event", nil)
	req.Host = "example.com"
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusAccepted, rr.Code)
}
