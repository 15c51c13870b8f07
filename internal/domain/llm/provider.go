// Package llm abstracts streaming text generation across hosted providers.
package llm

import "context"

// Message is one chat message in provider-neutral form.
type Message struct {
	Role    string // "user", "assistant", "system"
	Content string
}

// StreamRequest is one streamed generation request.
type StreamRequest struct {
	Messages     []Message
	Model        string
	MaxTokens    int
	SystemPrompt string
}

// Usage reports token consumption for one completed generation.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// Total returns input plus output tokens.
func (u Usage) Total() int64 {
	return u.InputTokens + u.OutputTokens
}

// StreamResult is what a completed stream reports back.
type StreamResult struct {
	Usage        Usage
	FinishReason string
}

// StreamFunc receives each text delta as it arrives. Returning an error aborts
// the stream.
type StreamFunc func(delta string) error

// StreamingProvider is the abstraction over a hosted LLM vendor's streaming
// API. Implementations must respect ctx cancellation so a disconnected client
// stops consuming provider quota.
type StreamingProvider interface {
	Stream(ctx context.Context, req StreamRequest, fn StreamFunc) (StreamResult, error)
	Name() string
}
