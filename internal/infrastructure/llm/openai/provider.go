// Package openai implements streaming generation against the OpenAI chat
// completions API.
package openai

import (
	"context"
	"fmt"
	"net/http"

	sdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/bna-labs/bna-gateway/internal/domain/llm"
)

// Provider streams completions from the OpenAI API with a user-supplied key.
type Provider struct {
	client          sdk.Client
	model           string
	maxTokens       int64
	reasoningEffort string
}

// NewProvider builds a provider bound to one key, model, and token budget.
// httpClient should carry the status-classifying transport. Extra options are
// for tests (base URL override).
func NewProvider(apiKey, model string, maxTokens int, reasoningEffort string, httpClient *http.Client, extra ...option.RequestOption) *Provider {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	opts = append(opts, extra...)
	return &Provider{
		client:          sdk.NewClient(opts...),
		model:           model,
		maxTokens:       int64(maxTokens),
		reasoningEffort: reasoningEffort,
	}
}

func (p *Provider) Name() string {
	return "openai-" + p.model
}

// Stream runs one streamed generation, invoking fn for every text delta.
func (p *Provider) Stream(ctx context.Context, req llm.StreamRequest, fn llm.StreamFunc) (llm.StreamResult, error) {
	params := sdk.ChatCompletionNewParams{
		Model:               shared.ChatModel(p.model),
		Messages:            convertMessages(req),
		MaxCompletionTokens: sdk.Int(p.maxTokens),
		// Usage on the final chunk is needed for usage recording.
		StreamOptions: sdk.ChatCompletionStreamOptionsParam{
			IncludeUsage: sdk.Bool(true),
		},
	}
	if p.reasoningEffort != "" {
		params.ReasoningEffort = shared.ReasoningEffort(p.reasoningEffort)
	}

	stream := p.client.Chat.Completions.NewStreaming(ctx, params)
	var result llm.StreamResult
	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) > 0 {
			choice := chunk.Choices[0]
			if choice.Delta.Content != "" {
				if err := fn(choice.Delta.Content); err != nil {
					return llm.StreamResult{}, err
				}
			}
			if choice.FinishReason != "" {
				result.FinishReason = string(choice.FinishReason)
			}
		}
		if chunk.Usage.TotalTokens > 0 {
			result.Usage = llm.Usage{
				InputTokens:  chunk.Usage.PromptTokens,
				OutputTokens: chunk.Usage.CompletionTokens,
			}
		}
	}
	if err := stream.Err(); err != nil {
		return llm.StreamResult{}, fmt.Errorf("openai stream: %w", err)
	}
	return result, nil
}

func convertMessages(req llm.StreamRequest) []sdk.ChatCompletionMessageParamUnion {
	out := make([]sdk.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		out = append(out, sdk.SystemMessage(req.SystemPrompt))
	}
	for _, msg := range req.Messages {
		switch msg.Role {
		case "system":
			out = append(out, sdk.SystemMessage(msg.Content))
		case "assistant":
			out = append(out, sdk.AssistantMessage(msg.Content))
		default:
			out = append(out, sdk.UserMessage(msg.Content))
		}
	}
	return out
}
