// Package gateway wires the unified provider stack (internal/llm/provider,
// internal/llm/httpexec, internal/llm/toolloop) behind a single
// chat-completions-style HTTP endpoint, per SPEC_FULL.md §6.1. It is the
// gateway's own front door, replacing internal/handlers.ProxyHandler's
// Anthropic-wire-shaped translation with a thinner pass-through onto the
// already-built transformer bundles.
package gateway

import (
	"net/url"

	"github.com/Davincible/llm-gateway/internal/config"
	"github.com/Davincible/llm-gateway/internal/llm/provider"
	"github.com/Davincible/llm-gateway/internal/llm/transform/anthropic"
	"github.com/Davincible/llm-gateway/internal/llm/transform/compat"
	"github.com/Davincible/llm-gateway/internal/llm/transform/gemini"
	"github.com/Davincible/llm-gateway/internal/llm/transform/ollama"
	"github.com/Davincible/llm-gateway/internal/llm/transform/openai"
)

// BuildRegistry registers one provider.Spec per configured provider,
// replacing the teacher's providers.Registry.Initialize()/SetDomainMappings
// pair: Register's own domains... parameter already covers the
// domain-routing concern SetDomainMappings existed for, so there is no
// separate mapping step to apply.
func BuildRegistry(cfg *config.Config) *provider.Registry {
	reg := provider.NewRegistry()
	for _, p := range cfg.Providers {
		spec, domains := specForProviderName(p.Name)
		if spec == nil {
			continue
		}
		reg.Register(spec, domains...)
	}
	return reg
}

func specForProviderName(name string) (*provider.Spec, []string) {
	switch name {
	case "openai":
		return openai.Spec(), []string{"api.openai.com"}
	case "anthropic":
		return anthropic.Spec(), []string{"api.anthropic.com"}
	case "gemini":
		return gemini.Spec(), []string{"generativelanguage.googleapis.com"}
	case "ollama":
		return ollama.Spec(), []string{"localhost"}
	}

	for _, v := range compat.Vendors {
		if v.ID != name {
			continue
		}
		var domains []string
		if u, err := url.Parse(v.BaseURL); err == nil && u.Hostname() != "" {
			domains = []string{u.Hostname()}
		}
		return compat.Spec(v), domains
	}

	return nil, nil
}
