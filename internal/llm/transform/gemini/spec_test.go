package gemini

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Davincible/llm-gateway/internal/llm/llmtypes"
)

func TestSpec_BuildHeadersSetsGoogAPIKey(t *testing.T) {
	s := Spec()
	h, err := s.BuildHeaders(llmtypes.BuildContext{APIKey: "goog-test"})
	require.NoError(t, err)
	assert.Equal(t, "goog-test", h.Get("x-goog-api-key"))
}

func TestSpec_ChatURLSwitchesStreamMethod(t *testing.T) {
	s := Spec()
	model, _ := json.Marshal("gemini-2.0-flash")
	bc := llmtypes.BuildContext{ProviderOpts: llmtypes.ProviderOptionsMap{"model": model}}

	url, err := s.ChatURL(bc, false)
	require.NoError(t, err)
	assert.Contains(t, url, ":generateContent")

	streamURL, err := s.ChatURL(bc, true)
	require.NoError(t, err)
	assert.Contains(t, streamURL, ":streamGenerateContent")
}

func TestSpec_ChatURLErrorsWithoutModel(t *testing.T) {
	s := Spec()
	_, err := s.ChatURL(llmtypes.BuildContext{}, false)
	assert.Error(t, err)
}
