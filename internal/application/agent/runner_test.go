package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	domainllm "github.com/bna-labs/bna-gateway/internal/domain/llm"
	"github.com/bna-labs/bna-gateway/internal/domain/provider"
	infrallm "github.com/bna-labs/bna-gateway/internal/infrastructure/llm"
)

type fakeStreamer struct {
	deltas  []string
	result  domainllm.StreamResult
	errs    []error // one per call, nil-padded
	calls   int
	lastCtx context.Context
}

func (f *fakeStreamer) Name() string { return "fake" }

func (f *fakeStreamer) Stream(ctx context.Context, req domainllm.StreamRequest, fn domainllm.StreamFunc) (domainllm.StreamResult, error) {
	f.lastCtx = ctx
	call := f.calls
	f.calls++
	if call < len(f.errs) && f.errs[call] != nil {
		return domainllm.StreamResult{}, f.errs[call]
	}
	for _, d := range f.deltas {
		if err := fn(d); err != nil {
			return domainllm.StreamResult{}, err
		}
	}
	return f.result, nil
}

type captureRecorder struct {
	reports chan UsageReport
}

func newCaptureRecorder() *captureRecorder {
	return &captureRecorder{reports: make(chan UsageReport, 1)}
}

func (c *captureRecorder) Record(ctx context.Context, report UsageReport) error {
	c.reports <- report
	return nil
}

func newTestRunner(streamer *fakeStreamer, recorder UsageRecorder) *Runner {
	r := NewRunner(infrallm.Env{}, recorder)
	r.newStreamer = func(cfg infrallm.ClientConfig, apiKey string) (domainllm.StreamingProvider, error) {
		return streamer, nil
	}
	return r
}

func TestRunStreamsDeltasAndReportsUsage(t *testing.T) {
	streamer := &fakeStreamer{
		deltas: []string{"Hello", ", world"},
		result: domainllm.StreamResult{
			Usage:        domainllm.Usage{InputTokens: 12, OutputTokens: 7},
			FinishReason: "stop",
		},
	}
	recorder := newCaptureRecorder()
	runner := newTestRunner(streamer, recorder)

	var got strings.Builder
	gen, err := runner.Run(context.Background(), Request{
		RequestID:   "req-1",
		Provider:    provider.Anthropic,
		UserAPIKey:  "sk-test",
		Messages:    []domainllm.Message{{Role: "user", Content: "hi"}},
		Token:       "tok",
		TeamSlug:    "team",
		DeploymentName: "happy-otter-123",
	}, func(delta string) error {
		got.WriteString(delta)
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got.String() != "Hello, world" {
		t.Errorf("deltas = %q, want %q", got.String(), "Hello, world")
	}
	if gen.Usage.Total() != 19 {
		t.Errorf("total tokens = %d, want 19", gen.Usage.Total())
	}
	if gen.FinishReason != "stop" {
		t.Errorf("finish reason = %q", gen.FinishReason)
	}

	select {
	case report := <-recorder.reports:
		if report.RequestID != "req-1" || report.Token != "tok" {
			t.Errorf("report identity = %+v", report)
		}
		if report.Usage.OutputTokens != 7 {
			t.Errorf("report output tokens = %d", report.Usage.OutputTokens)
		}
		if report.LastMessage != "hi" {
			t.Errorf("last message = %q", report.LastMessage)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("usage report never recorded")
	}
}

func TestRunRetriesTransientErrors(t *testing.T) {
	streamer := &fakeStreamer{
		deltas: []string{"ok"},
		result: domainllm.StreamResult{FinishReason: "stop"},
		errs: []error{
			&infrallm.UpstreamError{Provider: provider.Anthropic, StatusCode: 429, Message: "rate limited"},
		},
	}
	runner := newTestRunner(streamer, nil)

	_, err := runner.Run(context.Background(), Request{
		Provider:   provider.Anthropic,
		UserAPIKey: "sk-test",
		Messages:   []domainllm.Message{{Role: "user", Content: "hi"}},
	}, func(string) error { return nil })
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if streamer.calls != 2 {
		t.Errorf("calls = %d, want 2", streamer.calls)
	}
}

func TestRunDoesNotRetryNonTransientErrors(t *testing.T) {
	streamer := &fakeStreamer{
		errs: []error{
			&infrallm.UpstreamError{Provider: provider.Anthropic, StatusCode: 401, Message: "bad key"},
		},
	}
	runner := newTestRunner(streamer, nil)

	_, err := runner.Run(context.Background(), Request{
		Provider:   provider.Anthropic,
		UserAPIKey: "sk-test",
		Messages:   []domainllm.Message{{Role: "user", Content: "hi"}},
	}, func(string) error { return nil })
	var ue *infrallm.UpstreamError
	if !errors.As(err, &ue) || ue.StatusCode != 401 {
		t.Fatalf("err = %v, want 401 upstream error", err)
	}
	if streamer.calls != 1 {
		t.Errorf("calls = %d, want 1", streamer.calls)
	}
}

func TestRunGivesUpAfterMaxAttempts(t *testing.T) {
	transient := &infrallm.UpstreamError{Provider: provider.OpenAI, StatusCode: 529, Message: "overloaded"}
	streamer := &fakeStreamer{errs: []error{transient, transient, transient}}
	runner := newTestRunner(streamer, nil)

	_, err := runner.Run(context.Background(), Request{
		Provider:   provider.OpenAI,
		UserAPIKey: "sk-test",
		Messages:   []domainllm.Message{{Role: "user", Content: "hi"}},
	}, func(string) error { return nil })
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if streamer.calls != maxAttempts {
		t.Errorf("calls = %d, want %d", streamer.calls, maxAttempts)
	}
}

func TestRunMissingKeySurfacesBeforeStreaming(t *testing.T) {
	streamer := &fakeStreamer{}
	runner := newTestRunner(streamer, nil)

	_, err := runner.Run(context.Background(), Request{
		Provider: provider.OpenAI,
		Messages: []domainllm.Message{{Role: "user", Content: "hi"}},
	}, func(string) error { return nil })
	var missing *infrallm.MissingAPIKeyError
	if !errors.As(err, &missing) {
		t.Fatalf("err = %v, want MissingAPIKeyError", err)
	}
	if streamer.calls != 0 {
		t.Errorf("streamer called %d times before key validation", streamer.calls)
	}
}

func TestRunSkipsUsageWhenDisabled(t *testing.T) {
	streamer := &fakeStreamer{result: domainllm.StreamResult{FinishReason: "stop"}}
	recorder := newCaptureRecorder()
	runner := newTestRunner(streamer, recorder)

	_, err := runner.Run(context.Background(), Request{
		Provider:              provider.Anthropic,
		UserAPIKey:            "sk-test",
		Messages:              []domainllm.Message{{Role: "user", Content: "hi"}},
		DisableUsageReporting: true,
	}, func(string) error { return nil })
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	select {
	case <-recorder.reports:
		t.Fatal("usage recorded despite being disabled")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestLastMessagePreviewTruncates(t *testing.T) {
	long := strings.Repeat("x", 500)
	messages := []domainllm.Message{
		{Role: "user", Content: "first"},
		{Role: "assistant", Content: ""},
		{Role: "user", Content: long},
	}
	got := lastMessagePreview(messages)
	if len(got) != lastMessagePreviewLen+3 || !strings.HasSuffix(got, "...") {
		t.Errorf("preview len = %d", len(got))
	}

	if got := lastMessagePreview(nil); got != "" {
		t.Errorf("empty messages preview = %q", got)
	}
}
