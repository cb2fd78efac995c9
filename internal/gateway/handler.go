package gateway

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/Davincible/llm-gateway/internal/config"
	"github.com/Davincible/llm-gateway/internal/llm/httpexec"
	"github.com/Davincible/llm-gateway/internal/llm/llmerr"
	"github.com/Davincible/llm-gateway/internal/llm/llmtypes"
	"github.com/Davincible/llm-gateway/internal/llm/provider"
	"github.com/Davincible/llm-gateway/internal/llm/toolloop"
	"github.com/Davincible/llm-gateway/internal/llm/transform/openai"
	"github.com/Davincible/llm-gateway/internal/llm/transport"
)

// maxRequestBodyBytes bounds the client request body the gateway will
// buffer before decoding, guarding against an unbounded read on a
// misbehaving or malicious client.
const maxRequestBodyBytes = 10 << 20

// Handler is the gateway's chat-completions-style HTTP endpoint: it decodes
// an OpenAI Chat Completions request, resolves the target provider through
// Registry, drives the call through the tool-loop orchestrator backed by the
// HTTP executor, and encodes the unified result back into the same wire
// shape — replacing internal/handlers.ProxyHandler's raw-map Anthropic
// translation with the unified llmtypes pipeline end to end.
type Handler struct {
	config   *config.Manager
	registry *provider.Registry
	executor *httpexec.Executor
	resolver toolloop.ToolResolver
	logger   *slog.Logger
}

// NewHandler builds a Handler with its own HTTPTransport-backed executor,
// the same transport the teacher's providers used for decompression and
// timeouts, wired through internal/llm/transport instead of being
// reimplemented per-provider.
func NewHandler(cfg *config.Manager, logger *slog.Logger) *Handler {
	return &Handler{
		config:   cfg,
		registry: BuildRegistry(cfg.Get()),
		executor: httpexec.New(transport.New(nil)),
		logger:   logger,
	}
}

// WithResolver attaches a server-side ToolResolver and raises the tool-loop
// step budget so tool calls are actually executed instead of forwarded to
// the client unresolved. Without a resolver the gateway runs a single-step
// loop: whatever the upstream call returns, tool calls included, goes
// straight back to the client (the discard-unexecuted semantics documented
// on toolloop.Options.MaxSteps).
func (h *Handler) WithResolver(resolver toolloop.ToolResolver) *Handler {
	h.resolver = resolver
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodyBytes+1))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if len(body) > maxRequestBodyBytes {
		h.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	req, err := openai.DecodeClientChatRequest(body)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cfg := h.config.Get()
	routed := selectModel(req.Params.Model, countTokens(promptText(req)), cfg.Router)
	if routed.ProviderName == "" {
		h.writeError(w, http.StatusBadRequest, "no provider specified: use \"provider,model\" or configure router.default")
		return
	}

	spec, bc, err := h.resolveProvider(cfg, routed)
	if err != nil {
		h.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	req.Params.Model = routed.Model

	opts := toolloop.DefaultOptions()
	resolver := h.resolver
	if resolver == nil {
		opts.MaxSteps = 1
		resolver = noopResolver{}
	}

	call := h.chatStreamFunc(spec, bc, req)

	if req.Stream {
		h.serveStream(w, r, call, req, resolver, opts)
		return
	}
	h.serveNonStream(w, r, call, req, resolver, opts)
}

// chatStreamFunc adapts the executor's ChatStream into toolloop.ChatStreamFunc.
// Every upstream step reuses the original request's params/tool-choice/
// provider options; only Messages and Tools vary per tool-loop step.
// ChatStream's own channel already satisfies toolloop.ChatStreamFunc's
// "output of a stream.Session, invariants already enforced" contract —
// httpexec.pumpStream interposes the session internally — so nothing further
// needs wrapping here.
func (h *Handler) chatStreamFunc(spec *provider.Spec, bc llmtypes.BuildContext, base llmtypes.ChatRequest) toolloop.ChatStreamFunc {
	return func(ctx context.Context, messages []llmtypes.Message, tools []llmtypes.Tool) (<-chan llmtypes.StreamEvent, <-chan error) {
		errs := make(chan error, 1)
		stepReq := base
		stepReq.Messages = messages
		stepReq.Tools = tools
		stepReq.Stream = true

		events, err := h.executor.ChatStream(ctx, spec, bc, stepReq, nil)
		if err != nil {
			errs <- err
			close(errs)
			empty := make(chan llmtypes.StreamEvent)
			close(empty)
			return empty, errs
		}
		close(errs)
		return events, errs
	}
}

func (h *Handler) serveNonStream(w http.ResponseWriter, r *http.Request, call toolloop.ChatStreamFunc, req llmtypes.ChatRequest, resolver toolloop.ToolResolver, opts toolloop.Options) {
	items := toolloop.Run(r.Context(), call, req.Messages, req.Tools, resolver, opts)

	var final *llmtypes.ChatResponse
	for item := range items {
		if item.Err != nil {
			h.writeError(w, unwrapHTTPStatus(item.Err), item.Err.Error())
			return
		}
		if item.Event.Kind == llmtypes.EventStreamEnd {
			final = item.Event.StreamEnd
		}
	}

	if final == nil {
		resp := llmtypes.Empty()
		final = &resp
	}

	out, err := openai.EncodeClientChatResponse(*final)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "failed to encode response")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(out)
}

func (h *Handler) serveStream(w http.ResponseWriter, r *http.Request, call toolloop.ChatStreamFunc, req llmtypes.ChatRequest, resolver toolloop.ToolResolver, opts toolloop.Options) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	bw := bufio.NewWriter(w)
	st := &openai.ClientStreamState{}

	items := toolloop.Run(r.Context(), call, req.Messages, req.Tools, resolver, opts)
	for item := range items {
		if item.Err != nil {
			h.logger.Error("gateway: stream error", "error", item.Err)
			break
		}
		frame, done, err := openai.EncodeClientStreamChunk(item.Event, st)
		if err != nil {
			h.logger.Error("gateway: encode stream chunk", "error", err)
			continue
		}
		if frame != nil {
			bw.Write(frame)
			bw.Flush()
			flusher.Flush()
		}
		if done {
			bw.WriteString("data: [DONE]\n\n")
			bw.Flush()
			flusher.Flush()
		}
	}
}

// resolveProvider picks the provider.Spec and builds the BuildContext for a
// routed (provider, model) pair: a configured provider entry's API base/key
// take precedence, falling back to the top-level proxy API key, mirroring
// the teacher's findProvider/LLMGW_API_KEY fallback. The routed model is
// also JSON-encoded into bc.ProviderOpts["model"], where Gemini's ChatURL
// reads it.
func (h *Handler) resolveProvider(cfg *config.Config, routed routedModel) (*provider.Spec, llmtypes.BuildContext, error) {
	spec, ok := h.registry.Get(routed.ProviderName)
	if !ok {
		return nil, llmtypes.BuildContext{}, fmt.Errorf("provider %q not found in registry", routed.ProviderName)
	}

	bc := llmtypes.BuildContext{ProviderID: spec.ID}
	model, _ := json.Marshal(routed.Model)
	bc.ProviderOpts = llmtypes.ProviderOptionsMap{"model": model}
	if pc := findProviderConfig(cfg, routed.ProviderName); pc != nil {
		bc.APIKey = pc.APIKey
		bc.BaseURL = pc.APIBase
		if !pc.IsModelAllowed(routed.Model) {
			return nil, llmtypes.BuildContext{}, fmt.Errorf("model %q is not in provider %q's whitelist", routed.Model, routed.ProviderName)
		}
	}
	if bc.APIKey == "" {
		bc.APIKey = cfg.APIKey
	}
	return spec, bc, nil
}

func promptText(req llmtypes.ChatRequest) string {
	var out string
	for _, m := range req.Messages {
		if text, ok := m.Content.AsText(); ok {
			out += text + "\n"
		}
	}
	return out
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body, _ := json.Marshal(map[string]any{"error": map[string]string{"message": message}})
	w.Write(body)
}

type noopResolver struct{}

func (noopResolver) CallTool(ctx context.Context, name string, args json.RawMessage) (json.RawMessage, error) {
	return nil, errors.New("gateway: no server-side tool resolver configured")
}

// unwrapHTTPStatus maps an llmerr.LlmError's classified status code to the
// status to relay to the client, falling back to 502 for anything that
// didn't come from a classified upstream HTTP response.
func unwrapHTTPStatus(err error) int {
	var lerr *llmerr.LlmError
	if errors.As(err, &lerr) && lerr.StatusCode != 0 {
		return lerr.StatusCode
	}
	return http.StatusBadGateway
}
