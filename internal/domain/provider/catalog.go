package provider

// ModelSelection is the user-facing model name chosen in the UI. "auto" defers
// the provider decision to SelectBestAvailableProvider.
type ModelSelection string

const (
	SelectionAuto           ModelSelection = "auto"
	SelectionClaudeSonnet45 ModelSelection = "claude-sonnet-4-5"
	SelectionGPT5           ModelSelection = "gpt-5"
	SelectionGemini25Pro    ModelSelection = "gemini-2.5-pro"
	SelectionGrokCodeFast1  ModelSelection = "grok-code-fast-1"
)

// CatalogEntry is the metadata attached to one user-facing model selection.
type CatalogEntry struct {
	DisplayName string
	// Provider is the vendor required for this selection. Empty for "auto",
	// which resolves at selection time.
	Provider    ModelProvider
	Recommended bool
	RequiresKey bool
}

// catalog is constant data loaded once; it is never mutated at runtime.
// Every model currently requires a user API key, "auto" included.
var catalog = map[ModelSelection]CatalogEntry{
	SelectionAuto: {
		DisplayName: "Auto (Smart Selection)",
		Recommended: true,
		RequiresKey: true,
	},
	SelectionClaudeSonnet45: {
		DisplayName: "Claude Sonnet 4.5",
		Provider:    Anthropic,
		RequiresKey: true,
	},
	SelectionGPT5: {
		DisplayName: "GPT-5",
		Provider:    OpenAI,
		RequiresKey: true,
	},
	SelectionGemini25Pro: {
		DisplayName: "Gemini 2.5 Pro",
		Provider:    Google,
		RequiresKey: true,
	},
	SelectionGrokCodeFast1: {
		DisplayName: "Grok Code Fast 1",
		Provider:    XAI,
		RequiresKey: true,
	},
}

// Lookup returns the catalog entry for a selection. Unknown selections return
// ok=false; callers treat them as absent rather than failing the request.
func Lookup(s ModelSelection) (CatalogEntry, bool) {
	e, ok := catalog[s]
	return e, ok
}

// Selections returns every catalog entry name in display order.
func Selections() []ModelSelection {
	return []ModelSelection{
		SelectionAuto,
		SelectionClaudeSonnet45,
		SelectionGPT5,
		SelectionGemini25Pro,
		SelectionGrokCodeFast1,
	}
}

// DefaultModelFor returns the flagship model selection for a provider. This is
// the single source of truth shared by auto-selection and the catalog display.
func DefaultModelFor(p ModelProvider) ModelSelection {
	switch p.KeyProvider() {
	case Anthropic:
		return SelectionClaudeSonnet45
	case OpenAI:
		return SelectionGPT5
	case Google:
		return SelectionGemini25Pro
	case XAI:
		return SelectionGrokCodeFast1
	}
	return SelectionClaudeSonnet45
}

// RequiredProvider returns the provider a selection needs a key for. For auto
// it returns the default auto target, which the preferGoogleAuto flag can
// switch from Anthropic to Google.
func RequiredProvider(s ModelSelection, preferGoogleAuto bool) (ModelProvider, bool) {
	if s == SelectionAuto {
		if preferGoogleAuto {
			return Google, true
		}
		return Anthropic, true
	}
	e, ok := catalog[s]
	if !ok {
		return "", false
	}
	return e.Provider, true
}
