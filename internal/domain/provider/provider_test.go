package provider

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want ModelProvider
		ok   bool
	}{
		{"anthropic", Anthropic, true},
		{"Anthropic", Anthropic, true},
		{"OPENAI", OpenAI, true},
		{"openai", OpenAI, true},
		{"xai", XAI, true},
		{"google", Google, true},
		{"bedrock", Bedrock, true},
		{"", "", false},
		{"deepseek", "", false},
	}

	for _, tt := range tests {
		got, ok := Parse(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("Parse(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestValidIsCaseSensitive(t *testing.T) {
	if !ModelProvider("Anthropic").Valid() {
		t.Error("Anthropic should be valid")
	}
	if ModelProvider("anthropic").Valid() {
		t.Error("wire format is case-sensitive; lowercase must not validate")
	}
}
