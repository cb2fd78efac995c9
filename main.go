// Command llm-gateway runs the unified LLM gateway: a provider-agnostic
// chat-completions surface with tool-loop orchestration and stream
// transcoding in front of OpenAI, Anthropic, Gemini, Ollama and
// OpenAI-compatible vendors.
package main

import "github.com/Davincible/llm-gateway/cmd"

func main() {
	cmd.Execute()
}
