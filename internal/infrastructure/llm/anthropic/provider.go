// Package anthropic implements streaming generation against the Anthropic
// Messages API.
package anthropic

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/bna-labs/bna-gateway/internal/domain/llm"
)

// Provider streams completions from the Anthropic API with a user-supplied
// key.
type Provider struct {
	client    sdk.Client
	model     string
	maxTokens int64
}

// NewProvider builds a provider bound to one key, model, and token budget.
// httpClient should carry the status-classifying transport so failures are
// reported uniformly. Extra options are for tests (base URL override).
func NewProvider(apiKey, model string, maxTokens int, httpClient *http.Client, extra ...option.RequestOption) *Provider {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		// The wrapping transport already classifies failures; retry policy
		// lives in the agent runner.
		option.WithMaxRetries(0),
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	opts = append(opts, extra...)
	return &Provider{
		client:    sdk.NewClient(opts...),
		model:     model,
		maxTokens: int64(maxTokens),
	}
}

func (p *Provider) Name() string {
	return "anthropic-" + p.model
}

// Stream runs one streamed generation, invoking fn for every text delta.
func (p *Provider) Stream(ctx context.Context, req llm.StreamRequest, fn llm.StreamFunc) (llm.StreamResult, error) {
	messages, system := convertMessages(req)

	params := sdk.MessageNewParams{
		Model:     sdk.Model(p.model),
		MaxTokens: p.maxTokens,
		Messages:  messages,
	}
	if system != "" {
		params.System = []sdk.TextBlockParam{{Text: system}}
	}

	stream := p.client.Messages.NewStreaming(ctx, params)
	var acc sdk.Message
	for stream.Next() {
		event := stream.Current()
		if err := acc.Accumulate(event); err != nil {
			return llm.StreamResult{}, fmt.Errorf("accumulating stream event: %w", err)
		}
		switch ev := event.AsAny().(type) {
		case sdk.ContentBlockDeltaEvent:
			if delta, ok := ev.Delta.AsAny().(sdk.TextDelta); ok && delta.Text != "" {
				if err := fn(delta.Text); err != nil {
					return llm.StreamResult{}, err
				}
			}
		}
	}
	if err := stream.Err(); err != nil {
		return llm.StreamResult{}, fmt.Errorf("anthropic stream: %w", err)
	}

	return llm.StreamResult{
		Usage: llm.Usage{
			InputTokens:  acc.Usage.InputTokens,
			OutputTokens: acc.Usage.OutputTokens,
		},
		FinishReason: string(acc.StopReason),
	}, nil
}

// convertMessages maps provider-neutral messages to the Anthropic wire shape.
// System-role messages move to the top-level system prompt; the API does not
// accept them inline.
func convertMessages(req llm.StreamRequest) ([]sdk.MessageParam, string) {
	systemParts := []string{}
	if req.SystemPrompt != "" {
		systemParts = append(systemParts, req.SystemPrompt)
	}
	out := make([]sdk.MessageParam, 0, len(req.Messages))
	for _, msg := range req.Messages {
		switch msg.Role {
		case "system":
			if msg.Content != "" {
				systemParts = append(systemParts, msg.Content)
			}
		case "assistant":
			out = append(out, sdk.NewAssistantMessage(sdk.NewTextBlock(msg.Content)))
		default:
			out = append(out, sdk.NewUserMessage(sdk.NewTextBlock(msg.Content)))
		}
	}
	return out, strings.Join(systemParts, "\n\n")
}
