package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Davincible/llm-gateway/internal/config"
)

func testRouter() config.RouterConfig {
	return config.RouterConfig{
		Default:     "openrouter,anthropic/claude-3.5-sonnet",
		Think:       "openai,o1-preview",
		Background:  "anthropic,claude-3-haiku-20240307",
		LongContext: "anthropic,claude-3-5-sonnet-20241022",
		WebSearch:   "openrouter,perplexity/llama-3.1-sonar-huge-128k-online",
	}
}

func TestSelectModel_ExplicitProviderCommaModelPassesThrough(t *testing.T) {
	got := selectModel("openai,gpt-4o", 10, testRouter())
	assert.Equal(t, routedModel{ProviderName: "openai", Model: "gpt-4o"}, got)
}

func TestSelectModel_EmptyModelUsesDefault(t *testing.T) {
	got := selectModel("", 10, testRouter())
	assert.Equal(t, routedModel{ProviderName: "openrouter", Model: "anthropic/claude-3.5-sonnet"}, got)
}

func TestSelectModel_LongContextOverridesAboveThreshold(t *testing.T) {
	got := selectModel("gpt-4o", 70000, testRouter())
	assert.Equal(t, routedModel{ProviderName: "anthropic", Model: "claude-3-5-sonnet-20241022"}, got)
}

func TestSelectModel_HaikuPrefixRoutesToBackground(t *testing.T) {
	got := selectModel("claude-3-5-haiku-fast", 10, testRouter())
	assert.Equal(t, routedModel{ProviderName: "anthropic", Model: "claude-3-haiku-20240307"}, got)
}

func TestSelectModel_BareModelFallsBackToThink(t *testing.T) {
	got := selectModel("gpt-4o", 10, testRouter())
	assert.Equal(t, routedModel{ProviderName: "openai", Model: "o1-preview"}, got)
}

func TestSelectModel_NoRouterFieldsReturnsBareModelNoProvider(t *testing.T) {
	got := selectModel("gpt-4o", 10, config.RouterConfig{})
	assert.Equal(t, routedModel{Model: "gpt-4o"}, got)
	assert.Empty(t, got.ProviderName)
}

func TestCountTokens_NonEmptyTextProducesPositiveCount(t *testing.T) {
	assert.Greater(t, countTokens("hello world, this is a reasonably long sentence to tokenize"), 0)
}

func TestFindProviderConfig_MatchesByName(t *testing.T) {
	cfg := &config.Config{Providers: []config.Provider{{Name: "openai"}, {Name: "anthropic"}}}
	got := findProviderConfig(cfg, "anthropic")
	assert.NotNil(t, got)
	assert.Equal(t, "anthropic", got.Name)

	assert.Nil(t, findProviderConfig(cfg, "missing"))
}
