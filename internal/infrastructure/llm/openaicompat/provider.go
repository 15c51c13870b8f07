// Package openaicompat implements streaming generation for vendors that speak
// the OpenAI-compatible chat completions protocol (xAI, Google's
// compatibility endpoint).
package openaicompat

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bna-labs/bna-gateway/internal/domain/llm"
)

const (
	// XAIBaseURL is xAI's OpenAI-compatible endpoint.
	XAIBaseURL = "https://api.x.ai/v1"
	// GoogleBaseURL is the Gemini API's OpenAI-compatible endpoint.
	GoogleBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
)

// Provider streams completions over the OpenAI-compatible wire protocol.
type Provider struct {
	name         string
	apiKey       string
	apiBase      string
	model        string
	maxTokens    int
	includeUsage bool
	httpClient   *http.Client
}

// NewProvider builds a provider for one vendor endpoint. includeUsage asks the
// vendor to attach token usage to the final stream chunk. httpClient should
// carry the status-classifying transport; nil falls back to a plain client.
func NewProvider(name, apiKey, apiBase, model string, maxTokens int, includeUsage bool, httpClient *http.Client) *Provider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Minute}
	}
	return &Provider{
		name:         name,
		apiKey:       apiKey,
		apiBase:      strings.TrimRight(apiBase, "/"),
		model:        model,
		maxTokens:    maxTokens,
		includeUsage: includeUsage,
		httpClient:   httpClient,
	}
}

// SetBaseURL overrides the endpoint (for tests).
func (p *Provider) SetBaseURL(u string) {
	p.apiBase = strings.TrimRight(u, "/")
}

func (p *Provider) Name() string {
	return p.name + "-" + p.model
}

// Stream runs one streamed generation, invoking fn for every text delta.
func (p *Provider) Stream(ctx context.Context, req llm.StreamRequest, fn llm.StreamFunc) (llm.StreamResult, error) {
	if p.apiBase == "" {
		return llm.StreamResult{}, fmt.Errorf("API base not configured")
	}

	requestBody := map[string]interface{}{
		"model":      p.model,
		"messages":   buildMessages(req),
		"stream":     true,
		"max_tokens": p.maxTokens,
	}
	if p.includeUsage {
		requestBody["stream_options"] = map[string]interface{}{"include_usage": true}
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return llm.StreamResult{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.apiBase+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return llm.StreamResult{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return llm.StreamResult{}, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	// A classifying transport turns non-2xx into errors before we get here;
	// this covers plain clients.
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return llm.StreamResult{}, fmt.Errorf("API request failed:\n  Status: %d\n  Body:   %s", resp.StatusCode, string(body))
	}

	return p.consumeStream(resp.Body, fn)
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
		TotalTokens      int64 `json:"total_tokens"`
	} `json:"usage"`
}

func (p *Provider) consumeStream(body io.Reader, fn llm.StreamFunc) (llm.StreamResult, error) {
	var result llm.StreamResult

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" || payload == "[DONE]" {
			continue
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			return result, fmt.Errorf("failed to unmarshal stream chunk: %w", err)
		}
		if len(chunk.Choices) > 0 {
			choice := chunk.Choices[0]
			if choice.Delta.Content != "" {
				if err := fn(choice.Delta.Content); err != nil {
					return result, err
				}
			}
			if choice.FinishReason != "" {
				result.FinishReason = choice.FinishReason
			}
		}
		if chunk.Usage != nil {
			result.Usage = llm.Usage{
				InputTokens:  chunk.Usage.PromptTokens,
				OutputTokens: chunk.Usage.CompletionTokens,
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return result, fmt.Errorf("failed to read stream: %w", err)
	}
	return result, nil
}

func buildMessages(req llm.StreamRequest) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		out = append(out, map[string]interface{}{
			"role":    "system",
			"content": req.SystemPrompt,
		})
	}
	for _, msg := range req.Messages {
		role := msg.Role
		if role == "" {
			role = "user"
		}
		out = append(out, map[string]interface{}{
			"role":    role,
			"content": msg.Content,
		})
	}
	return out
}
