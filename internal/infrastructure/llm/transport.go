package llm

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bna-labs/bna-gateway/internal/domain/provider"
)

// StatusOverloaded is Anthropic's non-standard "API temporarily overloaded"
// status; other vendors reuse it for the same condition.
const StatusOverloaded = 529

const maxErrorBodyBytes = 64 * 1024

// Transport decorates an http.RoundTripper so every non-2xx upstream response
// becomes a structured *UpstreamError. It applies uniformly to every provider
// client; this is the one cross-cutting piece of request-level resilience.
type Transport struct {
	Provider provider.ModelProvider
	Base     http.RoundTripper
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	resp, err := base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	resp.Body.Close()
	return nil, classify(t.Provider, resp, string(body))
}

func classify(p provider.ModelProvider, resp *http.Response, body string) *UpstreamError {
	name := p.DisplayName()
	var msg string
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		msg = fmt.Sprintf("Invalid %s API key. Please check your API key in settings.", name)
	case http.StatusRequestEntityTooLarge:
		msg = "Request exceeds the maximum allowed number of bytes."
	case http.StatusTooManyRequests:
		msg = fmt.Sprintf("%s is rate limiting your requests", name)
	case StatusOverloaded:
		msg = fmt.Sprintf("%s's API is temporarily overloaded", name)
	default:
		msg = fmt.Sprintf("%s returned an error (%d %s) when using your provided API key: %s",
			name, resp.StatusCode, http.StatusText(resp.StatusCode), body)
	}
	return &UpstreamError{
		Provider:   p,
		StatusCode: resp.StatusCode,
		Message:    msg,
		Body:       body,
	}
}

// NewHTTPClient returns a client whose transport classifies upstream failures
// for the given provider. No total timeout: responses are long-lived streams,
// cancellation comes from the request context.
func NewHTTPClient(p provider.ModelProvider) *http.Client {
	return &http.Client{
		Transport: &Transport{Provider: p},
		Timeout:   0,
	}
}

// NewHTTPClientWithTimeout is NewHTTPClient for non-streaming calls.
func NewHTTPClientWithTimeout(p provider.ModelProvider, timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: &Transport{Provider: p},
		Timeout:   timeout,
	}
}
