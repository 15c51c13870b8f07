// Package usage reports token consumption to the provisioning service.
// Reporting is best-effort: callers log failures and never surface them to the
// end user.
package usage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bna-labs/bna-gateway/internal/domain/provider"
)

// DefaultProvisionHost is used when no PROVISION_HOST is configured.
const DefaultProvisionHost = "https://api.convex.dev"

// Record is one usage report for a completed generation.
type Record struct {
	RequestID      string
	Token          string
	Provider       provider.ModelProvider
	TeamSlug       string
	DeploymentName string
	LastMessage    string
	InputTokens    int64
	OutputTokens   int64
	TotalTokens    int64
}

// Reporter posts usage records to the provisioning service.
type Reporter struct {
	host       string
	httpClient *http.Client
}

// NewReporter builds a reporter for the given provision host. An empty host
// falls back to DefaultProvisionHost.
func NewReporter(host string) *Reporter {
	if host == "" {
		host = DefaultProvisionHost
	}
	return &Reporter{
		host:       strings.TrimRight(host, "/"),
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

type recordPayload struct {
	ReportID       string `json:"reportId"`
	RequestID      string `json:"requestId"`
	Provider       string `json:"provider"`
	TeamSlug       string `json:"teamSlug"`
	DeploymentName string `json:"deploymentName,omitempty"`
	LastMessage    string `json:"lastMessage,omitempty"`
	InputTokens    int64  `json:"inputTokens"`
	OutputTokens   int64  `json:"outputTokens"`
	TotalTokens    int64  `json:"totalTokens"`
}

// Record posts one usage record. The bearer token comes from the original
// chat request.
func (r *Reporter) Record(ctx context.Context, rec Record) error {
	payload := recordPayload{
		ReportID:       uuid.NewString(),
		RequestID:      rec.RequestID,
		Provider:       string(rec.Provider),
		TeamSlug:       rec.TeamSlug,
		DeploymentName: rec.DeploymentName,
		LastMessage:    rec.LastMessage,
		InputTokens:    rec.InputTokens,
		OutputTokens:   rec.OutputTokens,
		TotalTokens:    rec.TotalTokens,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal usage record: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", r.host+"/api/bna/record_usage", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+rec.Token)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send usage record: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		return fmt.Errorf("usage endpoint returned %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
