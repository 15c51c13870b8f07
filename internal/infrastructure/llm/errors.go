package llm

import (
	"fmt"
	"net/http"

	"github.com/bna-labs/bna-gateway/internal/domain/provider"
)

// MissingAPIKeyError means no user key is configured for the resolved
// provider. It is a client precondition failure and is never retried.
type MissingAPIKeyError struct {
	Provider provider.ModelProvider
}

func (e *MissingAPIKeyError) Error() string {
	return fmt.Sprintf("API key is required for %s. Please add your API key in settings.", e.Provider)
}

// MissingCredentialsError means Bedrock was requested but no AWS role is
// configured. Raised before any network call.
type MissingCredentialsError struct{}

func (e *MissingCredentialsError) Error() string {
	return "Bedrock requires AWS credentials to be configured. Please contact support."
}

// UpstreamError is a classified non-2xx response from a provider. Message is
// human-readable; Body carries the raw response for server-side logging.
type UpstreamError struct {
	Provider   provider.ModelProvider
	StatusCode int
	Message    string
	Body       string
}

func (e *UpstreamError) Error() string {
	return e.Message
}

// Transient reports whether the failure is a candidate for bounded retry.
func (e *UpstreamError) Transient() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode == StatusOverloaded
}
