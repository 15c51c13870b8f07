// Package llm builds outbound provider client configuration and wraps every
// upstream call with uniform response-status classification.
package llm

import (
	"fmt"
	"strings"

	"github.com/bna-labs/bna-gateway/internal/domain/provider"
)

var allowedAWSRegions = []string{"us-east-1", "us-west-2"}

const defaultAWSRegion = "us-west-2"

// Token budgets are provider- and sometimes model-specific.
const (
	anthropicMaxTokensDefault = 8192
	anthropicMaxTokensSonnet4 = 24576
	openAIMaxTokens           = 24576
	googleMaxTokens           = 24576
	xaiMaxTokens              = 8192
)

// Env is the slice of process configuration the factory reads: per-provider
// model overrides and AWS settings for Bedrock.
type Env struct {
	AnthropicModel string
	OpenAIModel    string
	XAIModel       string
	GoogleModel    string
	BedrockModel   string
	AWSRegion      string
	AWSRoleARN     string
}

// RequestOptions is provider-specific request tuning.
type RequestOptions struct {
	// IncludeStreamUsage asks OpenAI-compatible vendors (xAI) to attach token
	// usage to the final stream chunk.
	IncludeStreamUsage bool
	// ReasoningEffort is set for OpenAI reasoning models.
	ReasoningEffort string
}

// ClientConfig is everything needed to build one outbound provider client:
// the provider-specific model identifier, the token budget, and any tuning.
type ClientConfig struct {
	Provider  provider.ModelProvider
	Model     string
	MaxTokens int
	Options   *RequestOptions
	// AWSRegion is populated for Bedrock only.
	AWSRegion string
}

// ModelForProvider resolves the provider-specific model identifier. An
// explicit modelChoice is honored verbatim, except the Claude Sonnet 4 alias
// under Bedrock which remaps to its Bedrock-qualified id. Without a choice it
// falls back to the env override, then the hardcoded default.
func ModelForProvider(env Env, p provider.ModelProvider, modelChoice string) string {
	if modelChoice != "" {
		if modelChoice == "claude-sonnet-4-0" && p == provider.Bedrock {
			return "us.anthropic.claude-sonnet-4-20250514-v1:0"
		}
		return modelChoice
	}
	switch p {
	case provider.Anthropic:
		return firstNonEmpty(env.AnthropicModel, "claude-3-5-sonnet-20241022")
	case provider.Bedrock:
		return firstNonEmpty(env.BedrockModel, "us.anthropic.claude-3-5-sonnet-20241022-v2:0")
	case provider.OpenAI:
		return firstNonEmpty(env.OpenAIModel, "gpt-5")
	case provider.XAI:
		return firstNonEmpty(env.XAIModel, "grok-code-fast-1")
	case provider.Google:
		return firstNonEmpty(env.GoogleModel, "gemini-2.5-pro")
	}
	return modelChoice
}

func anthropicMaxTokens(modelChoice string) int {
	// Only the claude-sonnet-4-0 alias gets the raised budget; every other
	// Anthropic model, claude-sonnet-4-5 included, stays at the default.
	if modelChoice == "claude-sonnet-4-0" {
		return anthropicMaxTokensSonnet4
	}
	return anthropicMaxTokensDefault
}

// ResolveClientConfig builds the client configuration for one request. It
// fails with *MissingAPIKeyError when userAPIKey is empty for any non-Bedrock
// provider, and with *MissingCredentialsError when Bedrock has no AWS role
// configured.
func ResolveClientConfig(env Env, userAPIKey string, p provider.ModelProvider, modelChoice string) (ClientConfig, error) {
	if p != provider.Bedrock && strings.TrimSpace(userAPIKey) == "" {
		return ClientConfig{}, &MissingAPIKeyError{Provider: p}
	}

	model := ModelForProvider(env, p, modelChoice)

	switch p {
	case provider.Google:
		return ClientConfig{Provider: p, Model: model, MaxTokens: googleMaxTokens}, nil

	case provider.XAI:
		return ClientConfig{
			Provider:  p,
			Model:     model,
			MaxTokens: xaiMaxTokens,
			Options:   &RequestOptions{IncludeStreamUsage: true},
		}, nil

	case provider.OpenAI:
		cfg := ClientConfig{Provider: p, Model: model, MaxTokens: openAIMaxTokens}
		if modelChoice == "gpt-5" {
			cfg.Options = &RequestOptions{ReasoningEffort: "medium"}
		}
		return cfg, nil

	case provider.Bedrock:
		if env.AWSRoleARN == "" {
			return ClientConfig{}, &MissingCredentialsError{}
		}
		region := env.AWSRegion
		if !regionAllowed(region) {
			region = defaultAWSRegion
		}
		return ClientConfig{
			Provider:  p,
			Model:     model,
			MaxTokens: anthropicMaxTokens(modelChoice),
			AWSRegion: region,
		}, nil

	case provider.Anthropic:
		return ClientConfig{
			Provider:  p,
			Model:     model,
			MaxTokens: anthropicMaxTokens(modelChoice),
		}, nil

	default:
		return ClientConfig{}, fmt.Errorf("unknown model provider: %s", p)
	}
}

func regionAllowed(region string) bool {
	for _, r := range allowedAWSRegions {
		if region == r {
			return true
		}
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
