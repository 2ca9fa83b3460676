package intent

import (
	"regexp"
	"strings"

	"pharmacy-assistant-be/pkg/assistant/lexicon"
)

var (
	greetingPattern = regexp.MustCompile(`(?i)^\s*(hi+|hello+|hey+|hiya|yo|good\s+(morning|afternoon|evening|day)|greetings|thanks?|thank\s+you|ty|ok(ay)?|bye|goodbye|see\s+you)\b[\s!.,?]*`)
	smallTalk       = regexp.MustCompile(`(?i)\b(how\s+are\s+you|who\s+are\s+you|what'?s\s+up|your\s+name|tell\s+me\s+a\s+joke|joke|weather|news|football|basketball|sports?|movies?|music|songs?|recipes?|politics?|election|bitcoin|crypto|stock\s+market|homework|poem|write\s+code|programming|translate)\b`)
	pharmacyKeyword = regexp.MustCompile(`(?i)\b(medicines?|medications?|meds|drugs?|tablets?|capsules?|syrups?|dose|dosage|dosing|mg|mcg|ml|stock|available|availability|price|cost|side[- ]?effects?|pharmacy|pharmacist|prescriptions?|otc|generic|brand|alternatives?|substitutes?|pain|fever|cough|colds?|flu|allergy|allergies|headache|infection|antibiotics?|vitamins?|interactions?|contraindications?)\b`)

	followUpPattern = regexp.MustCompile(`(?i)\b(?:how|what)\s+about\s+(?:the\s+)?([a-z][a-z0-9\-]*(?:\s+[a-z][a-z0-9\-]*)?)`)
	needPhrase      = regexp.MustCompile(`(?i)\b(?:dose|dosage|dosing|side[- ]?effects?|uses?|usage|indications?|warnings?|price|stock|alternatives?|substitutes?)\s+(?:of|for)\s+([a-z][a-z0-9\-]*)`)

	familyAlternatives = regexp.MustCompile(`(?i)\b(alternatives?|substitutes?|instead\s+of|similar\s+to|replacements?|equivalents?|other\s+brands?|cheaper)\b`)
	familyDosage       = regexp.MustCompile(`(?i)\b(dose|doses|dosage|dosing|how\s+much\s+(should|to|do|can|for)|how\s+many\s+(tablets?|capsules?|ml|times|pills?)|how\s+often|how\s+to\s+take|times\s+a\s+day|per\s+day)\b`)
	familyUsage        = regexp.MustCompile(`(?i)\b(used\s+for|use\s+of|uses|usage|indications?|what\s+is\s+\S+\s+for|what\s+does\s+\S+\s+do|purpose|treats?|good\s+for)\b`)
	familySideEffects  = regexp.MustCompile(`(?i)\b(side[- ]?effects?|adverse|reactions?|contraindications?|warnings?|precautions?|safe\s+(to|for|with))\b`)
	familyStock        = regexp.MustCompile(`(?i)\b(in\s+stock|stocks?|available|availability|do\s+(we|you)\s+have|on\s+hand|inventory|price|cost|how\s+much\s+is|how\s+much\s+does)\b`)
	familyPrice        = regexp.MustCompile(`(?i)\b(price|cost|how\s+much\s+is|how\s+much\s+does)\b`)

	// words that never name a drug when picked up by the heuristics
	stopwords = map[string]bool{
		"a": true, "an": true, "the": true, "my": true, "your": true, "this": true, "that": true, "it": true,
		"take": true, "taking": true, "give": true, "is": true, "are": true, "for": true, "of": true,
		"adult": true, "adults": true, "child": true, "children": true, "kids": true, "kid": true,
		"elderly": true, "infant": true, "infants": true, "baby": true, "pregnant": true,
		"me": true, "him": true, "her": true, "them": true, "us": true, "patient": true, "patients": true,
		"dose": true, "dosage": true, "tablet": true, "tablets": true, "capsule": true, "capsules": true,
		"syrup": true, "one": true, "two": true, "three": true, "about": true, "and": true, "with": true,
		"medicine": true, "medicines": true, "drug": true, "drugs": true,
		"side": true, "effects": true, "price": true, "cost": true, "stock": true, "usage": true,
		"uses": true, "alternatives": true, "alternative": true, "warnings": true, "interactions": true,
		"you": true, "i": true, "we": true, "they": true, "he": true, "she": true, "yours": true, "mine": true,
		"today": true, "tomorrow": true, "tonight": true, "yesterday": true, "now": true, "later": true,
		"weekend": true, "weather": true, "lunch": true, "dinner": true, "breakfast": true, "work": true,
		"school": true, "everyone": true, "everything": true, "something": true, "anything": true,
		"there": true, "here": true, "so": true, "too": true, "again": true, "instead": true,
	}
)

func isGreeting(text string) bool {
	return greetingPattern.MatchString(text)
}

func isSmallTalk(text string) bool {
	return smallTalk.MatchString(text)
}

func hasPharmacyKeyword(text string) bool {
	return pharmacyKeyword.MatchString(text)
}

// detectFamily applies the keyword families in priority order:
// alternatives > dosage > usage > side-effects > stock.
func detectFamily(text string) (Intent, string, bool) {
	switch {
	case familyAlternatives.MatchString(text):
		return Alternatives, NeedAlternatives, true
	case familyDosage.MatchString(text):
		return Dosage, NeedDosage, true
	case familyUsage.MatchString(text):
		return DrugInfo, NeedUsage, true
	case familySideEffects.MatchString(text):
		return DrugInfo, NeedSideEffects, true
	case familyStock.MatchString(text):
		return StockCheck, NeedStock, true
	}
	return Other, "", false
}

// textNeeds collects every need a text mentions, regardless of priority.
func textNeeds(text string) []string {
	var needs []string
	if familyAlternatives.MatchString(text) {
		needs = append(needs, NeedAlternatives)
	}
	if familyDosage.MatchString(text) {
		needs = append(needs, NeedDosage)
	}
	if familyUsage.MatchString(text) {
		needs = append(needs, NeedUsage)
	}
	if familySideEffects.MatchString(text) {
		needs = append(needs, NeedSideEffects)
	}
	if familyStock.MatchString(text) {
		needs = append(needs, NeedStock)
	}
	if familyPrice.MatchString(text) {
		needs = append(needs, NeedPrice)
	}
	return needs
}

func isUsageOrSideEffectQuery(text string) bool {
	return familyUsage.MatchString(text) || familySideEffects.MatchString(text)
}

// needsDrug reports whether the text asks something that only makes sense
// about a specific drug.
func needsDrug(text string) bool {
	if familyUsage.MatchString(text) || familyDosage.MatchString(text) || familySideEffects.MatchString(text) {
		return true
	}
	return lexicon.Strength(text) != "" && lexicon.DosageForm(text) != ""
}

// isEmptyFollowUp matches "how about you?" style turns whose target is not
// a drug.
func isEmptyFollowUp(text string) bool {
	return followUpPattern.MatchString(text) && followUpTarget(text) == ""
}

// followUpTarget returns X from "how about X" / "what about X".
func followUpTarget(text string) string {
	m := followUpPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return cleanCandidate(m[1])
}

func cleanCandidate(s string) string {
	words := strings.Fields(lexicon.Normalize(s))
	var kept []string
	for _, w := range words {
		w = strings.Trim(w, "?!.,;:'\"")
		if w == "" || stopwords[w] || lexicon.Strength(w) != "" || lexicon.DosageForm(w) != "" {
			break
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}
