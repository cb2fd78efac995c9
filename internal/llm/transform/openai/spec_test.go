package openai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Davincible/llm-gateway/internal/llm/llmtypes"
)

func TestSpec_BuildHeadersSetsBearerToken(t *testing.T) {
	s := Spec()
	h, err := s.BuildHeaders(llmtypes.BuildContext{APIKey: "sk-test"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer sk-test", h.Get("Authorization"))
}

func TestSpec_BuildHeadersErrorsWithoutKey(t *testing.T) {
	s := Spec()
	_, err := s.BuildHeaders(llmtypes.BuildContext{})
	assert.Error(t, err)
}

func TestSpec_ChatURLDefaultsBaseURL(t *testing.T) {
	s := Spec()
	url, err := s.ChatURL(llmtypes.BuildContext{}, false)
	require.NoError(t, err)
	assert.Equal(t, "https://api.openai.com/v1/chat/completions", url)
}
