// Package agent orchestrates one chat generation end to end: it resolves the
// provider client configuration, streams deltas to the caller, retries
// transient upstream failures before the first byte, and spawns best-effort
// usage recording once the stream completes.
package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	domainllm "github.com/bna-labs/bna-gateway/internal/domain/llm"
	"github.com/bna-labs/bna-gateway/internal/domain/provider"
	infrallm "github.com/bna-labs/bna-gateway/internal/infrastructure/llm"
	"github.com/bna-labs/bna-gateway/internal/infrastructure/llm/anthropic"
	"github.com/bna-labs/bna-gateway/internal/infrastructure/llm/openai"
	"github.com/bna-labs/bna-gateway/internal/infrastructure/llm/openaicompat"
	"github.com/bna-labs/bna-gateway/pkg/backoff"
	"github.com/bna-labs/bna-gateway/pkg/logger"
)

// maxAttempts bounds retries of rate-limited/overloaded upstream calls so a
// streaming endpoint never hangs on unbounded backoff.
const maxAttempts = 3

const lastMessagePreviewLen = 200

// Request is one chat generation to run.
type Request struct {
	RequestID      string
	Provider       provider.ModelProvider
	ModelChoice    string
	UserAPIKey     string
	Messages       []domainllm.Message
	Token          string
	TeamSlug       string
	DeploymentName string
	// DisableUsageReporting skips the post-stream usage report.
	DisableUsageReporting bool
}

// Generation is the outcome of a completed stream.
type Generation struct {
	Usage        domainllm.Usage
	FinishReason string
}

// UsageReport is handed to the usage recorder after a stream completes.
type UsageReport struct {
	RequestID      string
	Token          string
	Provider       provider.ModelProvider
	TeamSlug       string
	DeploymentName string
	LastMessage    string
	Usage          domainllm.Usage
}

// UsageRecorder receives post-stream usage reports. Implementations are
// best-effort; errors are logged, never raised.
type UsageRecorder interface {
	Record(ctx context.Context, report UsageReport) error
}

// Runner builds provider clients and drives streamed generations.
type Runner struct {
	env      infrallm.Env
	recorder UsageRecorder

	// newStreamer is swappable in tests.
	newStreamer func(cfg infrallm.ClientConfig, apiKey string) (domainllm.StreamingProvider, error)
}

// NewRunner builds a runner. recorder may be nil to disable usage reporting
// entirely.
func NewRunner(env infrallm.Env, recorder UsageRecorder) *Runner {
	r := &Runner{env: env, recorder: recorder}
	r.newStreamer = buildStreamer
	return r
}

// Run executes one generation, invoking emit for every text delta. The caller
// cancels ctx when the client disconnects, which aborts the upstream stream.
func (r *Runner) Run(ctx context.Context, req Request, emit domainllm.StreamFunc) (Generation, error) {
	cfg, err := infrallm.ResolveClientConfig(r.env, req.UserAPIKey, req.Provider, req.ModelChoice)
	if err != nil {
		return Generation{}, err
	}

	streamer, err := r.newStreamer(cfg, req.UserAPIKey)
	if err != nil {
		return Generation{}, err
	}

	streamReq := domainllm.StreamRequest{
		Messages:  req.Messages,
		Model:     cfg.Model,
		MaxTokens: cfg.MaxTokens,
	}

	var emitted bool
	wrapped := func(delta string) error {
		emitted = true
		return emit(delta)
	}

	var res domainllm.StreamResult
	for attempt := 0; ; attempt++ {
		res, err = streamer.Stream(ctx, streamReq, wrapped)
		if err == nil {
			break
		}
		// Retry only transient failures, only before any bytes reached the
		// client, and only while attempts remain.
		if emitted || attempt+1 >= maxAttempts || !isTransient(err) || ctx.Err() != nil {
			return Generation{}, err
		}
		delay := backoff.Time(attempt)
		logger.WarnCF("agent", "transient upstream failure, retrying", map[string]interface{}{
			"request_id": req.RequestID,
			"provider":   string(cfg.Provider),
			"attempt":    attempt + 1,
			"delay_ms":   delay.Milliseconds(),
			"error":      err.Error(),
		})
		select {
		case <-ctx.Done():
			return Generation{}, ctx.Err()
		case <-time.After(delay):
		}
	}

	gen := Generation{Usage: res.Usage, FinishReason: res.FinishReason}
	r.recordUsage(req, gen)
	return gen, nil
}

// recordUsage spawns a detached usage report. It must never block or fail the
// user-visible response.
func (r *Runner) recordUsage(req Request, gen Generation) {
	if r.recorder == nil || req.DisableUsageReporting {
		return
	}
	report := UsageReport{
		RequestID:      req.RequestID,
		Token:          req.Token,
		Provider:       req.Provider,
		TeamSlug:       req.TeamSlug,
		DeploymentName: req.DeploymentName,
		LastMessage:    lastMessagePreview(req.Messages),
		Usage:          gen.Usage,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := r.recorder.Record(ctx, report); err != nil {
			logger.WarnCF("agent", "usage recording failed", map[string]interface{}{
				"request_id": report.RequestID,
				"error":      err.Error(),
			})
		}
	}()
}

func isTransient(err error) bool {
	var ue *infrallm.UpstreamError
	return errors.As(err, &ue) && ue.Transient()
}

func lastMessagePreview(messages []domainllm.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Content == "" {
			continue
		}
		s := messages[i].Content
		if len(s) > lastMessagePreviewLen {
			return s[:lastMessagePreviewLen] + "..."
		}
		return s
	}
	return ""
}

// buildStreamer constructs the provider client for a resolved configuration.
// Bedrock never reaches this point: requests carrying user keys run as
// Anthropic by the time they are dispatched.
func buildStreamer(cfg infrallm.ClientConfig, apiKey string) (domainllm.StreamingProvider, error) {
	httpClient := infrallm.NewHTTPClient(cfg.Provider)
	switch cfg.Provider {
	case provider.Anthropic:
		return anthropic.NewProvider(apiKey, cfg.Model, cfg.MaxTokens, httpClient), nil
	case provider.OpenAI:
		effort := ""
		if cfg.Options != nil {
			effort = cfg.Options.ReasoningEffort
		}
		return openai.NewProvider(apiKey, cfg.Model, cfg.MaxTokens, effort, httpClient), nil
	case provider.XAI:
		includeUsage := cfg.Options != nil && cfg.Options.IncludeStreamUsage
		return openaicompat.NewProvider("xai", apiKey, openaicompat.XAIBaseURL, cfg.Model, cfg.MaxTokens, includeUsage, httpClient), nil
	case provider.Google:
		return openaicompat.NewProvider("google", apiKey, openaicompat.GoogleBaseURL, cfg.Model, cfg.MaxTokens, false, httpClient), nil
	default:
		return nil, fmt.Errorf("no streaming client for provider %s", cfg.Provider)
	}
}
