// Package httpapi exposes the gateway's HTTP surface: the streaming chat
// endpoint, the model catalog, and the health check.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/bna-labs/bna-gateway/internal/application/agent"
	domainllm "github.com/bna-labs/bna-gateway/internal/domain/llm"
	"github.com/bna-labs/bna-gateway/internal/domain/provider"
	"github.com/bna-labs/bna-gateway/pkg/health"
	"github.com/bna-labs/bna-gateway/pkg/logger"
	"github.com/bna-labs/bna-gateway/pkg/requestid"
)

// Runner executes one streamed generation.
type Runner interface {
	Run(ctx context.Context, req agent.Request, emit domainllm.StreamFunc) (agent.Generation, error)
}

// Options carries deployment toggles into the handler.
type Options struct {
	// DisableBedrock downgrades Bedrock requests to Anthropic.
	DisableBedrock bool
	// DisableUsageReporting skips post-stream usage reports.
	DisableUsageReporting bool
}

// Handler routes gateway HTTP requests.
type Handler struct {
	runner Runner
	opts   Options
	checks map[string]health.CheckFunc
}

// NewHandler builds the HTTP handler. checks are probed by /health; nil means
// the endpoint only reports process liveness.
func NewHandler(runner Runner, opts Options, checks map[string]health.CheckFunc) *Handler {
	return &Handler{runner: runner, opts: opts, checks: checks}
}

// ServeHTTP dispatches by path and method.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/health" && r.Method == http.MethodGet {
		h.handleHealth(w, r)
		return
	}

	if r.URL.Path == "/api/models" && r.Method == http.MethodGet {
		h.handleModels(w, r)
		return
	}

	if r.URL.Path == "/api/chat" && r.Method == http.MethodPost {
		h.handleChat(w, r)
		return
	}

	http.NotFound(w, r)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	healthy, results := health.RunAll(h.checks)

	status := "ok"
	code := http.StatusOK
	if !healthy {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	body := map[string]interface{}{"status": status}
	if len(results) > 0 {
		body["checks"] = results
	}
	json.NewEncoder(w).Encode(body)
}

// modelInfo is one catalog entry in the /api/models response.
type modelInfo struct {
	ID             string `json:"id"`
	DisplayName    string `json:"displayName"`
	Provider       string `json:"provider,omitempty"`
	Recommended    bool   `json:"recommended"`
	RequiresAPIKey bool   `json:"requiresApiKey"`
}

func (h *Handler) handleModels(w http.ResponseWriter, r *http.Request) {
	selections := provider.Selections()
	models := make([]modelInfo, 0, len(selections))
	for _, s := range selections {
		entry, ok := provider.Lookup(s)
		if !ok {
			continue
		}
		models = append(models, modelInfo{
			ID:             string(s),
			DisplayName:    entry.DisplayName,
			Provider:       string(entry.Provider),
			Recommended:    entry.Recommended,
			RequiresAPIKey: entry.RequiresKey,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"models": models,
	})
}

// ChatMessage is one turn of the conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// FeatureFlags carries client-side toggles forwarded with the request.
type FeatureFlags struct {
	EnableResend bool `json:"enableResend"`
}

// ChatRequestBody is the POST /api/chat payload.
type ChatRequestBody struct {
	Messages           []ChatMessage          `json:"messages"`
	FirstUserMessage   bool                   `json:"firstUserMessage,omitempty"`
	ChatInitialID      string                 `json:"chatInitialId,omitempty"`
	Token              string                 `json:"token"`
	TeamSlug           string                 `json:"teamSlug"`
	DeploymentName     string                 `json:"deploymentName"`
	ModelProvider      provider.ModelProvider `json:"modelProvider"`
	ModelChoice        string                 `json:"modelChoice,omitempty"`
	UserAPIKey         *provider.APIKeySet    `json:"userApiKey,omitempty"`
	ShouldDisableTools bool                   `json:"shouldDisableTools,omitempty"`
	CollapsedMessages  bool                   `json:"collapsedMessages,omitempty"`
	FeatureFlags       *FeatureFlags          `json:"featureFlags,omitempty"`
}

// missingKeyBody is the 402 response payload.
type missingKeyBody struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// deltaEvent is one SSE data payload.
type deltaEvent struct {
	Delta string `json:"delta"`
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var body ChatRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	reqID := requestid.New()

	mp := body.ModelProvider
	if !mp.Valid() {
		// No explicit provider: pick the best one the configured keys allow.
		resolved := provider.SelectBestAvailableProvider(body.UserAPIKey, false, "")
		if resolved == nil {
			h.writeMissingKey(w, provider.Anthropic)
			return
		}
		// ModelChoice stays as sent; an empty choice falls through to the
		// provider's default model downstream.
		mp = resolved.Provider
	}
	if h.opts.DisableBedrock && mp == provider.Bedrock {
		mp = provider.Anthropic
	}

	// Bedrock borrows the Anthropic key slot, then the request runs as
	// Anthropic once the key is in hand.
	userKey := body.UserAPIKey.KeyFor(mp)
	if mp == provider.Bedrock {
		mp = provider.Anthropic
	}

	if strings.TrimSpace(userKey) == "" {
		h.writeMissingKey(w, mp)
		return
	}

	messages := make([]domainllm.Message, 0, len(body.Messages))
	for _, m := range body.Messages {
		messages = append(messages, domainllm.Message{Role: m.Role, Content: m.Content})
	}

	stream := newSSEWriter(w)

	gen, err := h.runner.Run(r.Context(), agent.Request{
		RequestID:             reqID,
		Provider:              mp,
		ModelChoice:           body.ModelChoice,
		UserAPIKey:            userKey,
		Messages:              messages,
		Token:                 body.Token,
		TeamSlug:              body.TeamSlug,
		DeploymentName:        body.DeploymentName,
		DisableUsageReporting: h.opts.DisableUsageReporting,
	}, stream.writeDelta)
	if err != nil {
		if stream.started {
			// Headers are gone; all we can do is stop the stream.
			logger.ErrorCF("httpapi", "stream aborted mid-flight", map[string]interface{}{
				"request_id": reqID,
				"error":      err.Error(),
			})
			return
		}
		logger.ErrorCF("httpapi", "chat request failed", map[string]interface{}{
			"request_id": reqID,
			"provider":   string(mp),
			"error":      err.Error(),
		})
		if strings.Contains(err.Error(), "API key") {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, "Invalid or missing API key")
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	stream.finish()

	logger.InfoCF("httpapi", "chat request completed", map[string]interface{}{
		"request_id":    reqID,
		"provider":      string(mp),
		"input_tokens":  gen.Usage.InputTokens,
		"output_tokens": gen.Usage.OutputTokens,
		"finish_reason": gen.FinishReason,
	})
}

func (h *Handler) writeMissingKey(w http.ResponseWriter, p provider.ModelProvider) {
	name := p.DisplayName()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusPaymentRequired)
	json.NewEncoder(w).Encode(missingKeyBody{
		Code:  "missing-api-key",
		Error: fmt.Sprintf("%s API key is required. Please add your %s API key in settings to use this model.", name, name),
	})
}

// sseWriter defers the SSE headers until the first delta so pre-stream
// failures can still pick their own status code.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	started bool
}

func newSSEWriter(w http.ResponseWriter) *sseWriter {
	flusher, _ := w.(http.Flusher)
	return &sseWriter{w: w, flusher: flusher}
}

func (s *sseWriter) start() {
	if s.started {
		return
	}
	s.started = true
	h := s.w.Header()
	h.Set("Content-Type", "text/event-stream; charset=utf-8")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	s.w.WriteHeader(http.StatusOK)
}

func (s *sseWriter) writeDelta(delta string) error {
	s.start()
	payload, err := json.Marshal(deltaEvent{Delta: delta})
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", payload); err != nil {
		return err
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
	return nil
}

func (s *sseWriter) finish() {
	s.start()
	fmt.Fprint(s.w, "data: [DONE]\n\n")
	if s.flusher != nil {
		s.flusher.Flush()
	}
}
