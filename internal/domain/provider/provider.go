// Package provider holds the model/provider domain: the provider enum, the
// user-facing model catalog, the per-user API key bundle, and the
// auto-selection logic that picks a provider given the configured keys.
package provider

import "strings"

// ModelProvider identifies a hosted LLM vendor.
type ModelProvider string

const (
	Anthropic ModelProvider = "Anthropic"
	OpenAI    ModelProvider = "OpenAI"
	XAI       ModelProvider = "XAI"
	Google    ModelProvider = "Google"
	Bedrock   ModelProvider = "Bedrock"
)

// Providers lists every ModelProvider in a stable order.
func Providers() []ModelProvider {
	return []ModelProvider{Anthropic, OpenAI, XAI, Google, Bedrock}
}

// Valid reports whether p is a known provider.
func (p ModelProvider) Valid() bool {
	switch p {
	case Anthropic, OpenAI, XAI, Google, Bedrock:
		return true
	}
	return false
}

// Parse resolves a provider name case-insensitively, for user-entered values
// like flags. The wire format stays case-sensitive.
func Parse(name string) (ModelProvider, bool) {
	for _, p := range Providers() {
		if strings.EqualFold(name, string(p)) {
			return p, true
		}
	}
	return "", false
}

// DisplayName returns the human-readable vendor name.
func (p ModelProvider) DisplayName() string {
	switch p {
	case Anthropic:
		return "Anthropic"
	case OpenAI:
		return "OpenAI"
	case XAI:
		return "xAI"
	case Google:
		return "Google"
	case Bedrock:
		return "Amazon Bedrock"
	}
	return "API"
}

// KeyProvider returns the provider whose API key slot authenticates requests
// for p. Bedrock authenticates with AWS role credentials rather than a user
// key, so it borrows the Anthropic slot.
func (p ModelProvider) KeyProvider() ModelProvider {
	if p == Bedrock {
		return Anthropic
	}
	return p
}
