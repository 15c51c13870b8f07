package provider

import "strings"

// KeyPreference controls when a stored user key is used instead of built-in
// capacity.
type KeyPreference string

const (
	PreferenceAlways         KeyPreference = "always"
	PreferenceQuotaExhausted KeyPreference = "quotaExhausted"
)

// APIKeySet is the per-user bundle of stored provider API keys. The Anthropic
// key lives in the legacy "value" field. A key is considered set iff its
// trimmed string is non-empty; absence and empty string are equivalent.
//
// The bundle is created and mutated by the settings surface; it is read-only
// here.
type APIKeySet struct {
	Preference KeyPreference `json:"preference,omitempty"`
	Value      string        `json:"value,omitempty"`
	OpenAI     string        `json:"openai,omitempty"`
	XAI        string        `json:"xai,omitempty"`
	Google     string        `json:"google,omitempty"`

	// Unix-millisecond timestamps of when each key was last set, populated by
	// the settings surface. Zero means unknown.
	ValueLastUpdated  int64 `json:"valueLastUpdated,omitempty"`
	OpenAILastUpdated int64 `json:"openaiLastUpdated,omitempty"`
	XAILastUpdated    int64 `json:"xaiLastUpdated,omitempty"`
	GoogleLastUpdated int64 `json:"googleLastUpdated,omitempty"`
}

// KeyFor returns the raw stored key for the given provider. Bedrock resolves
// to the Anthropic slot. Unknown providers return "".
func (k *APIKeySet) KeyFor(p ModelProvider) string {
	if k == nil {
		return ""
	}
	switch p.KeyProvider() {
	case Anthropic:
		return k.Value
	case OpenAI:
		return k.OpenAI
	case XAI:
		return k.XAI
	case Google:
		return k.Google
	}
	return ""
}

// HasKeyFor reports whether a non-empty key is configured for the provider.
func (k *APIKeySet) HasKeyFor(p ModelProvider) bool {
	return strings.TrimSpace(k.KeyFor(p)) != ""
}

// HasAny reports whether any provider key is configured.
func (k *APIKeySet) HasAny() bool {
	if k == nil {
		return false
	}
	for _, p := range keyProviders() {
		if k.HasKeyFor(p) {
			return true
		}
	}
	return false
}

// KeyInfo describes one configured key.
type KeyInfo struct {
	Provider    ModelProvider
	DisplayName string
	LastUpdated int64
}

// Available returns the configured keys in enumeration order
// {anthropic, openai, xai, google}.
func (k *APIKeySet) Available() []KeyInfo {
	if k == nil {
		return nil
	}
	var out []KeyInfo
	for _, p := range keyProviders() {
		if !k.HasKeyFor(p) {
			continue
		}
		out = append(out, KeyInfo{
			Provider:    p,
			DisplayName: p.DisplayName(),
			LastUpdated: k.lastUpdated(p),
		})
	}
	return out
}

func (k *APIKeySet) lastUpdated(p ModelProvider) int64 {
	switch p.KeyProvider() {
	case Anthropic:
		return k.ValueLastUpdated
	case OpenAI:
		return k.OpenAILastUpdated
	case XAI:
		return k.XAILastUpdated
	case Google:
		return k.GoogleLastUpdated
	}
	return 0
}

// keyProviders is the stable enumeration order for key lookups. Bedrock is
// absent: it has no key slot of its own.
func keyProviders() []ModelProvider {
	return []ModelProvider{Anthropic, OpenAI, XAI, Google}
}
