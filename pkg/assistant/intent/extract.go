package intent

import (
	"strings"

	"pharmacy-assistant-be/pkg/assistant/classifier"
	"pharmacy-assistant-be/pkg/assistant/lexicon"
)

// ExtractDrugName finds the drug a free-text question is about.
// Heuristics are tried from most to least specific; "" means no drug found.
func ExtractDrugName(text string) string {
	name, _ := extractDrug(text)
	return name
}

// extractDrug also reports whether the name is a curated drug rather than a
// guess from sentence shape.
func extractDrug(text string) (string, bool) {
	if target := followUpTarget(text); target != "" {
		return target, IsKnownDrug(target)
	}
	if known := classifier.KnownDrug(text); known != "" {
		return known, true
	}
	if name := wordBeforeStrength(text); name != "" {
		return name, IsKnownDrug(name)
	}
	if m := needPhrase.FindStringSubmatch(text); m != nil {
		name := cleanCandidate(m[1])
		return name, name != "" && IsKnownDrug(name)
	}
	return "", false
}

// IsKnownDrug reports whether name is in the curated drug vocabulary.
func IsKnownDrug(name string) bool {
	return name != "" && classifier.KnownDrug(name) != ""
}

// wordBeforeStrength picks "Foo" out of "Foo 500mg".
func wordBeforeStrength(text string) string {
	idx := lexicon.StrengthIndex(text)
	if idx <= 0 {
		return ""
	}
	words := strings.Fields(text[:idx])
	if len(words) == 0 {
		return ""
	}
	return cleanCandidate(words[len(words)-1])
}
