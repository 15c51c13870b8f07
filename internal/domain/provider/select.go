package provider

import "sort"

// Resolved is the concrete provider and model an "auto" request settles on. It
// is created per request and never persisted.
type Resolved struct {
	Provider       ModelProvider
	DisplayName    string
	ModelSelection ModelSelection
}

// SelectBestAvailableProvider picks the provider for an "auto" request.
// Priority order, first match wins:
//
//  1. userPreference with a configured key
//  2. preferGoogleAuto flag with a Google key
//  3. an Anthropic key (default best provider)
//  4. the most recently updated key
//  5. the first configured key in enumeration order
//
// Returns nil iff no provider has a key configured. userPreference is the
// zero value when the user expressed none.
func SelectBestAvailableProvider(keys *APIKeySet, preferGoogleAuto bool, userPreference ModelProvider) *Resolved {
	available := keys.Available()
	if len(available) == 0 {
		return nil
	}

	if userPreference != "" {
		for _, info := range available {
			if info.Provider == userPreference.KeyProvider() {
				return resolved(info.Provider)
			}
		}
	}

	if preferGoogleAuto {
		for _, info := range available {
			if info.Provider == Google {
				return resolved(Google)
			}
		}
	}

	for _, info := range available {
		if info.Provider == Anthropic {
			return resolved(Anthropic)
		}
	}

	withTimestamps := make([]KeyInfo, 0, len(available))
	for _, info := range available {
		if info.LastUpdated > 0 {
			withTimestamps = append(withTimestamps, info)
		}
	}
	if len(withTimestamps) > 0 {
		sort.SliceStable(withTimestamps, func(i, j int) bool {
			return withTimestamps[i].LastUpdated > withTimestamps[j].LastUpdated
		})
		return resolved(withTimestamps[0].Provider)
	}

	return resolved(available[0].Provider)
}

func resolved(p ModelProvider) *Resolved {
	return &Resolved{
		Provider:       p,
		DisplayName:    p.DisplayName(),
		ModelSelection: DefaultModelFor(p),
	}
}

// HasAPIKeySet reports whether the keys needed for a model selection are
// configured. For auto any key counts; for a concrete selection exactly the
// required provider's key is checked. Unknown selections return false.
func HasAPIKeySet(s ModelSelection, preferGoogleAuto bool, keys *APIKeySet) bool {
	if keys == nil {
		return false
	}
	if s == SelectionAuto {
		return keys.HasAny()
	}
	e, ok := Lookup(s)
	if !ok {
		return false
	}
	return keys.HasKeyFor(e.Provider)
}
