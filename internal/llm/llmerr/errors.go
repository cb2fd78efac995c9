// Package llmerr implements the unified error taxonomy from SPEC_FULL.md §7:
// one LlmError sum type carrying a Kind, grounded on the teacher's
// per-provider error mapping (mapOpenAIErrorType, mapGeminiErrorType in
// internal/providers/{openai,gemini}.go) generalized from "map to Anthropic's
// error shape" to "map to this unified shape".
package llmerr

import (
	"fmt"
	"time"
)

// Kind is the error taxonomy discriminator.
type Kind string

const (
	KindHTTPError           Kind = "http_error"
	KindNetworkError        Kind = "network_error"
	KindTimeoutError        Kind = "timeout_error"
	KindTLSError            Kind = "tls_error"
	KindAuthenticationError Kind = "authentication_error"
	KindRateLimitError      Kind = "rate_limit_error"
	KindAPIError            Kind = "api_error"
	KindProviderError       Kind = "provider_error"
	KindInvalidInput        Kind = "invalid_input"
	KindInvalidParameter    Kind = "invalid_parameter"
	KindMissingAPIKey       Kind = "missing_api_key"
	KindConfigurationError  Kind = "configuration_error"
	KindParseError          Kind = "parse_error"
	KindModelNotSupported   Kind = "model_not_supported"
	KindNotFound            Kind = "not_found"
	KindToolCallError       Kind = "tool_call_error"
	KindUnsupportedOp       Kind = "unsupported_operation"
	KindInternalError       Kind = "internal_error"
)

// LlmError is the single error type returned across the package boundary.
// Sensitive/provider-internal detail lives in Message/Details and is
// deliberately excluded from UserMessage().
type LlmError struct {
	Kind       Kind
	Message    string
	Provider   string
	Code       string
	StatusCode int
	RetryAfter *time.Duration
	Details    string
	Cause      error
}

func (e *LlmError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("%s (%s): %s", e.Kind, e.Provider, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *LlmError) Unwrap() error { return e.Cause }

// UserMessage returns a message safe to surface to end users: it never
// includes provider identifiers, status codes, or raw body text.
func (e *LlmError) UserMessage() string {
	switch e.Kind {
	case KindAuthenticationError:
		return "authentication failed"
	case KindRateLimitError:
		return "rate limited, please retry later"
	case KindMissingAPIKey:
		return "no API key configured"
	case KindModelNotSupported:
		return "requested model is not supported"
	case KindInvalidInput, KindInvalidParameter:
		return "invalid request"
	default:
		return "request failed"
	}
}

func New(kind Kind, message string) *LlmError {
	return &LlmError{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, cause error) *LlmError {
	return &LlmError{Kind: kind, Message: message, Cause: cause}
}

func NetworkError(cause error) *LlmError {
	return Wrap(KindNetworkError, cause.Error(), cause)
}

func TimeoutError(cause error) *LlmError {
	return Wrap(KindTimeoutError, cause.Error(), cause)
}

func ParseError(cause error) *LlmError {
	return Wrap(KindParseError, cause.Error(), cause)
}

// IsRetriable reports whether backoff retry should reattempt the operation,
// grounded on SPEC_FULL.md §4.8: network/5xx/429/408 are retriable;
// 400/401/403/404/422 are not (401 is instead handled by the executor's
// single in-attempt retry, never by the outer backoff loop).
func (e *LlmError) IsRetriable() bool {
	switch e.Kind {
	case KindNetworkError, KindTimeoutError:
		return true
	case KindRateLimitError:
		return true
	case KindHTTPError:
		return e.StatusCode >= 500 || e.StatusCode == 408
	default:
		return false
	}
}

// ClassifyHTTP maps a response status/body into the taxonomy, the Go
// counterpart of verbs.rs's classify_http_error.
func ClassifyHTTP(provider string, status int, body string) *LlmError {
	e := &LlmError{Provider: provider, StatusCode: status, Message: body}
	switch {
	case status == 401 || status == 403:
		e.Kind = KindAuthenticationError
	case status == 429:
		e.Kind = KindRateLimitError
	case status == 404:
		e.Kind = KindNotFound
	case status == 422 || status == 400:
		e.Kind = KindInvalidInput
	case status >= 500 || status == 408:
		e.Kind = KindHTTPError
	default:
		e.Kind = KindAPIError
	}
	return e
}
