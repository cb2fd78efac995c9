package middleware

import (
	"log/slog"
	"net/http"
	"strings"
)

// TelemetryRule describes one (host, path-prefix) pair to intercept and
// spoof a success response for, rather than forwarding upstream. Host is
// matched by substring against the request's Host header; PathPrefix is
// matched by prefix against the request path. Either may be left empty to
// match on the other alone.
type TelemetryRule struct {
	Host       string
	PathPrefix string
	Status     int
	Body       string
	Headers    map[string]string
}

// DefaultTelemetryRules reproduces the teacher's hardcoded Statsig- and
// Claude-Code-metrics-blocking behavior as data, generalizing
// StatsigBlockerMiddleware and MetricsBlockerMiddleware into configuration
// for this middleware per SPEC_FULL.md §6.1.
func DefaultTelemetryRules() []TelemetryRule {
	statsigHeaders := map[string]string{
		"Content-Type":                     "application/json",
		"X-Content-Type-Options":           "nosniff",
		"Permissions-Policy":               "interest-cohort=()",
		"X-Frame-Options":                  "SAMEORIGIN",
		"X-Response-Time":                  "0 ms",
		"Access-Control-Allow-Credentials": "true",
		"Access-Control-Allow-Origin":      "*",
		"Referrer-Policy":                  "strict-origin-when-cross-origin",
		"Alt-Svc":                          `h3=":443"; ma=2592000,h3-29=":443"; ma=2592000`,
		"Via":                              "1.1 google, 1.1 google",
	}
	metricsHeaders := map[string]string{
		"Content-Type":              "application/json",
		"Strict-Transport-Security": "max-age=31536000; includeSubDomains; preload",
		"Via":                       "1.1 google",
		"Cf-Cache-Status":           "DYNAMIC",
		"X-Robots-Tag":              "none",
		"Server":                    "cloudflare",
	}

	rules := []TelemetryRule{
		{Host: "statsig.anthropic.com", Status: http.StatusAccepted, Body: `{"success":true}`, Headers: statsigHeaders},
		{Host: "api.anthropic.com", PathPrefix: "/api/claude_code/metrics", Status: http.StatusOK, Body: `{"accepted_count":0,"rejected_count":0}`, Headers: metricsHeaders},
		{Host: "api.anthropic.com", PathPrefix: "/claude_code/metrics", Status: http.StatusOK, Body: `{"accepted_count":0,"rejected_count":0}`, Headers: metricsHeaders},
	}
	for _, p := range []string{"/v1/initialize", "/v1/log_event", "/v1/rgstr", "/statsig", "/telemetry", "/analytics"} {
		rules = append(rules, TelemetryRule{PathPrefix: p, Status: http.StatusAccepted, Body: `{"success":true}`, Headers: statsigHeaders})
	}
	return rules
}

type telemetryBlockerMiddleware struct {
	logger *slog.Logger
	rules  []TelemetryRule
}

// NewTelemetryBlockerMiddleware returns middleware that short-circuits any
// request matching one of rules with a spoofed success response instead of
// forwarding it, so an upstream client that insists on phoning home gets a
// response that satisfies it without the traffic ever leaving the gateway.
func NewTelemetryBlockerMiddleware(logger *slog.Logger, rules []TelemetryRule) func(http.Handler) http.Handler {
	tbm := &telemetryBlockerMiddleware{logger: logger, rules: rules}
	return tbm.middleware
}

func (tbm *telemetryBlockerMiddleware) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host := r.Host
		if host == "" {
			host = r.Header.Get("Host")
		}

		if rule, ok := tbm.match(host, r.URL.Path); ok {
			tbm.respond(w, rule)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (tbm *telemetryBlockerMiddleware) match(host, path string) (TelemetryRule, bool) {
	for _, rule := range tbm.rules {
		if rule.Host != "" && !strings.Contains(host, rule.Host) {
			continue
		}
		if rule.PathPrefix != "" && !strings.HasPrefix(path, rule.PathPrefix) {
			continue
		}
		if rule.Host == "" && rule.PathPrefix == "" {
			continue
		}
		return rule, true
	}
	return TelemetryRule{}, false
}

func (tbm *telemetryBlockerMiddleware) respond(w http.ResponseWriter, rule TelemetryRule) {
	for k, v := range rule.Headers {
		w.Header().Set(k, v)
	}
	status := rule.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if rule.Body != "" {
		w.Write([]byte(rule.Body))
	}
}
