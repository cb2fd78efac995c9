package llmtypes

import (
	"net/http"
	"time"
)

// HTTPConfig is transport-level configuration shared by every request to a
// provider, grounded on SPEC_FULL.md §6's BuildContext/HttpConfig contracts.
type HTTPConfig struct {
	Timeout                time.Duration
	ConnectTimeout          time.Duration
	UserAgent               string
	Proxy                   string
	Headers                 map[string]string
	StreamDisableCompression bool
}

// TokenProvider refreshes a bearer credential on demand, consulted by
// ProviderSpec.BuildHeaders and by the HTTP executor's 401-retry header
// rebuild.
type TokenProvider interface {
	Token() (string, error)
}

// BuildContext is the per-client configuration a ProviderSpec and the HTTP
// executor consult to build requests: API key/base URL overrides, transport,
// retry policy, interceptors, and provider-scoped options.
type BuildContext struct {
	ProviderID    string
	APIKey        string
	BaseURL       string
	HTTPClient    *http.Client
	HTTPConfig    HTTPConfig
	Organization  string
	Project       string
	TokenProvider TokenProvider
	ProviderOpts  ProviderOptionsMap
}
