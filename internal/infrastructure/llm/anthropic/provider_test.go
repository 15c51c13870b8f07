package anthropic

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/bna-labs/bna-gateway/internal/domain/llm"
)

const streamFixture = `event: message_start
data: {"type":"message_start","message":{"id":"msg_1","type":"message","role":"assistant","content":[],"model":"claude-3-5-sonnet-20241022","stop_reason":null,"stop_sequence":null,"usage":{"input_tokens":12,"output_tokens":1}}}

event: content_block_start
data: {"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}

event: content_block_delta
data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hel"}}

event: content_block_delta
data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"lo"}}

event: content_block_stop
data: {"type":"content_block_stop","index":0}

event: message_delta
data: {"type":"message_delta","delta":{"stop_reason":"end_turn","stop_sequence":null},"usage":{"output_tokens":7}}

event: message_stop
data: {"type":"message_stop"}

`

func TestStreamCollectsDeltasAndUsage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-api-key"); got != "test-key" {
			t.Errorf("x-api-key = %q", got)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, streamFixture)
	}))
	defer server.Close()

	p := NewProvider("test-key", "claude-3-5-sonnet-20241022", 8192, nil,
		option.WithBaseURL(server.URL))

	var got strings.Builder
	res, err := p.Stream(context.Background(), llm.StreamRequest{
		Messages: []llm.Message{{Role: "user", Content: "hi"}},
	}, func(delta string) error {
		got.WriteString(delta)
		return nil
	})
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}
	if got.String() != "Hello" {
		t.Errorf("streamed text = %q, want Hello", got.String())
	}
	if res.FinishReason != "end_turn" {
		t.Errorf("finish reason = %q", res.FinishReason)
	}
	if res.Usage.InputTokens != 12 {
		t.Errorf("input tokens = %d, want 12", res.Usage.InputTokens)
	}
	if res.Usage.OutputTokens != 7 {
		t.Errorf("output tokens = %d, want 7", res.Usage.OutputTokens)
	}
}

func TestProviderName(t *testing.T) {
	p := NewProvider("k", "claude-3-5-sonnet-20241022", 8192, nil)
	if p.Name() != "anthropic-claude-3-5-sonnet-20241022" {
		t.Errorf("Name() = %s", p.Name())
	}
}

func TestConvertMessagesHoistsSystem(t *testing.T) {
	msgs, system := convertMessages(llm.StreamRequest{
		SystemPrompt: "be helpful",
		Messages: []llm.Message{
			{Role: "system", Content: "extra rules"},
			{Role: "user", Content: "hi"},
			{Role: "assistant", Content: "hello"},
		},
	})
	if system != "be helpful\n\nextra rules" {
		t.Errorf("system = %q", system)
	}
	if len(msgs) != 2 {
		t.Errorf("expected system messages to be hoisted, got %d inline", len(msgs))
	}
}
