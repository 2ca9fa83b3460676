// Package lexicon holds the vocabulary shared by the classifier, the intent
// resolver and the safety gate: dosage forms, strength tokens, age classes.
package lexicon

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// canonical dosage form -> spellings found in product data and user text
var dosageForms = []struct {
	canonical string
	variants  []string
}{
	{"tablet", []string{"tablets", "tablet", "tabs", "tab", "caplets", "caplet"}},
	{"capsule", []string{"capsules", "capsule", "caps", "cap"}},
	{"syrup", []string{"syrups", "syrup", "elixir"}},
	{"suspension", []string{"suspension", "oral suspension"}},
	{"solution", []string{"oral solution", "solution"}},
	{"injection", []string{"injections", "injection", "injectable", "vial", "ampoule", "ampule"}},
	{"cream", []string{"creams", "cream"}},
	{"ointment", []string{"ointments", "ointment"}},
	{"gel", []string{"gel"}},
	{"lotion", []string{"lotion"}},
	{"drops", []string{"eye drops", "ear drops", "drops", "drop"}},
	{"inhaler", []string{"inhalers", "inhaler", "nebule", "nebules"}},
	{"suppository", []string{"suppositories", "suppository"}},
	{"powder", []string{"powder", "sachet", "sachets", "granules"}},
	{"spray", []string{"nasal spray", "spray"}},
	{"patch", []string{"patches", "patch"}},
	{"lozenge", []string{"lozenges", "lozenge"}},
}

var (
	formPattern     *regexp.Regexp
	formByVariant   = map[string]string{}
	strengthPattern = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s?(mg|ml|mcg|g)\b`)
	agePattern      = regexp.MustCompile(`(?i)\b(adults?|grown[- ]?ups?|child(?:ren)?|kids?|pediatric|paediatric|elderly|seniors?|geriatric|infants?|bab(?:y|ies)|newborns?|toddlers?|pregnan(?:t|cy)|lactating|breastfeeding)\b`)
)

var ageClasses = map[string]string{
	"adult": "adult", "adults": "adult", "grown-up": "adult", "grown-ups": "adult", "grownup": "adult", "grownups": "adult", "grown up": "adult", "grown ups": "adult",
	"child": "child", "children": "child", "kid": "child", "kids": "child", "pediatric": "child", "paediatric": "child",
	"elderly": "elderly", "senior": "elderly", "seniors": "elderly", "geriatric": "elderly",
	"infant": "infant", "infants": "infant", "baby": "infant", "babies": "infant", "newborn": "infant", "newborns": "infant", "toddler": "infant", "toddlers": "infant",
	"pregnant": "pregnant", "pregnancy": "pregnant", "lactating": "pregnant", "breastfeeding": "pregnant",
}

func init() {
	var alternatives []string
	for _, f := range dosageForms {
		for _, v := range f.variants {
			formByVariant[v] = f.canonical
			alternatives = append(alternatives, regexp.QuoteMeta(v))
		}
	}
	formPattern = regexp.MustCompile(`(?i)\b(` + strings.Join(alternatives, "|") + `)\b`)
}

// DosageForm returns the canonical dosage form mentioned in text, or "".
func DosageForm(text string) string {
	m := formPattern.FindString(text)
	if m == "" {
		return ""
	}
	return formByVariant[strings.ToLower(m)]
}

// IsMedicalForm reports whether form names a recognized medical dosage form.
func IsMedicalForm(form string) bool {
	form = strings.ToLower(strings.TrimSpace(form))
	if form == "" {
		return false
	}
	if _, ok := formByVariant[form]; ok {
		return true
	}
	return DosageForm(form) != ""
}

// Strength returns the first strength token in text, normalized ("500mg"), or "".
func Strength(text string) string {
	m := strengthPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1] + strings.ToLower(m[2])
}

// StrengthIndex returns the byte offset of the first strength token, or -1.
func StrengthIndex(text string) int {
	loc := strengthPattern.FindStringIndex(text)
	if loc == nil {
		return -1
	}
	return loc[0]
}

// AgeClass returns the canonical patient age class in text, or "".
func AgeClass(text string) string {
	m := agePattern.FindString(text)
	if m == "" {
		return ""
	}
	key := strings.ToLower(m)
	if c, ok := ageClasses[key]; ok {
		return c
	}
	return ageClasses[strings.ReplaceAll(key, "-", " ")]
}

// Normalize lowercases and collapses whitespace.
func Normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// DisplayName capitalizes the first letter of a drug name for prose.
func DisplayName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "this medicine"
	}
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// Truncate cuts s to at most limit bytes without splitting a character.
func Truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}
