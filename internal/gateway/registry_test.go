package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Davincible/llm-gateway/internal/config"
)

func TestSpecForProviderName_KnownFirstPartySpecs(t *testing.T) {
	for _, name := range []string{"openai", "anthropic", "gemini", "ollama"} {
		spec, domains := specForProviderName(name)
		require.NotNil(t, spec, "expected a spec for %q", name)
		assert.NotEmpty(t, domains, "expected at least one domain for %q", name)
	}
}

func TestSpecForProviderName_CompatVendor(t *testing.T) {
	spec, domains := specForProviderName("openrouter")
	require.NotNil(t, spec)
	assert.Equal(t, []string{"openrouter.ai"}, domains)
}

func TestSpecForProviderName_UnknownNameReturnsNil(t *testing.T) {
	spec, domains := specForProviderName("not-a-real-provider")
	assert.Nil(t, spec)
	assert.Nil(t, domains)
}

func TestBuildRegistry_RegistersOnlyKnownProviders(t *testing.T) {
	cfg := &config.Config{
		Providers: []config.Provider{
			{Name: "openai"},
			{Name: "openrouter"},
			{Name: "not-a-real-provider"},
		},
	}

	reg := BuildRegistry(cfg)

	_, ok := reg.Get("openai")
	assert.True(t, ok)

	_, ok = reg.Get("openrouter")
	assert.True(t, ok)

	_, ok = reg.Get("not-a-real-provider")
	assert.False(t, ok)
}
