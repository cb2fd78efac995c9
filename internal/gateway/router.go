package gateway

import (
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"github.com/Davincible/llm-gateway/internal/config"
)

// routedModel is the outcome of resolving an incoming request's model field
// against the router config: which provider to call, and under which model
// name.
type routedModel struct {
	ProviderName string
	Model        string
}

// selectModel mirrors the teacher's ProxyHandler.selectModel: an explicit
// "provider,model" string is used as-is, a bare model name is routed through
// RouterConfig (long-context override above the token threshold, background
// override for the haiku-class fast path, otherwise the think/web-search
// defaults, then RouterConfig.Default), and no model at all falls back to
// RouterConfig.Default. A bare name with none of those fields set is
// returned unchanged with no provider.
func selectModel(requestedModel string, promptTokens int, router config.RouterConfig) routedModel {
	var selected string

	switch {
	case requestedModel == "":
		selected = router.Default
	case strings.Contains(requestedModel, ","):
		selected = requestedModel
	case promptTokens > 60000 && router.LongContext != "":
		selected = router.LongContext
	case strings.HasPrefix(requestedModel, "claude-3-5-haiku") && router.Background != "":
		selected = router.Background
	case router.Think != "":
		selected = router.Think
	case router.WebSearch != "":
		selected = router.WebSearch
	case router.Default != "":
		selected = router.Default
	default:
		selected = requestedModel
	}

	parts := strings.SplitN(selected, ",", 2)
	if len(parts) == 2 {
		return routedModel{ProviderName: parts[0], Model: parts[1]}
	}
	return routedModel{Model: selected}
}

// countTokens estimates prompt size with the cl100k_base BPE, the same
// encoding the teacher's countInputTokens uses for its long-context routing
// threshold. Returns 0 (never triggering the long-context branch) if the
// encoding can't be loaded rather than failing the request over a routing
// heuristic.
func countTokens(text string) int {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return 0
	}
	return len(enc.Encode(text, nil, nil))
}

// findProviderConfig looks up a provider's config entry by name.
func findProviderConfig(cfg *config.Config, name string) *config.Provider {
	for i := range cfg.Providers {
		if cfg.Providers[i].Name == name {
			return &cfg.Providers[i]
		}
	}
	return nil
}
