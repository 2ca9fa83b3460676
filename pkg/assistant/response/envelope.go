package response

import (
	"regexp"
	"strings"

	"pharmacy-assistant-be/pkg/assistant/classifier"
	"pharmacy-assistant-be/pkg/assistant/intent"
	"pharmacy-assistant-be/pkg/assistant/lexicon"
	"pharmacy-assistant-be/pkg/assistant/session"
)

// Envelope is what the caller renders.
type Envelope struct {
	Text                    string           `json:"response"`
	Sources                 []string         `json:"sources"`
	SuggestedSessionContext *session.Context `json:"suggestedSessionContext,omitempty"`
}

var footerPattern = regexp.MustCompile(`(?im)^\s*sources?\s*:`)

// internal data-plane tokens must never be shown as sources
var hiddenSources = map[string]bool{
	string(intent.InternalDB): true,
	string(intent.ExternalDB): true,
	string(intent.WebSearch):  true,
}

// DedupeSources trims, drops internal tokens and removes case-insensitive
// duplicates, keeping first occurrence order.
func DedupeSources(sources []string) []string {
	out := make([]string, 0, len(sources))
	seen := map[string]bool{}
	for _, s := range sources {
		s = strings.TrimSpace(s)
		key := strings.ToLower(s)
		if s == "" || seen[key] || hiddenSources[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}

// WithFooter appends a "Sources: ..." line unless the text already has one.
func WithFooter(text string, sources []string) string {
	text = strings.TrimSpace(text)
	if len(sources) == 0 || footerPattern.MatchString(text) {
		return text
	}
	return text + "\n\nSources: " + strings.Join(sources, ", ")
}

// WithReferences lists links under the answer, skipping duplicates and
// links the text already contains.
func WithReferences(text string, refs []string) string {
	text = strings.TrimSpace(text)
	seen := map[string]bool{}
	var lines []string
	for _, r := range refs {
		r = strings.TrimSpace(r)
		if r == "" || seen[r] || strings.Contains(text, r) {
			continue
		}
		seen[r] = true
		lines = append(lines, "- "+r)
	}
	if len(lines) == 0 {
		return text
	}
	return text + "\n\nReferences:\n" + strings.Join(lines, "\n")
}

// Finalize builds an envelope with deduplicated sources and the footer.
func Finalize(text string, sources []string, suggested *session.Context) Envelope {
	src := DedupeSources(sources)
	return Envelope{
		Text:                    WithFooter(text, src),
		Sources:                 src,
		SuggestedSessionContext: suggested,
	}
}

// Suggest derives the context the next turn should start from. Form,
// strength and patient context are only taken from what the user typed.
func Suggest(q intent.Query, tier classifier.Tier, sess session.Context) *session.Context {
	u := session.Update{
		DrugName:       q.DrugName,
		DosageForm:     lexicon.DosageForm(q.Text),
		Strength:       lexicon.Strength(q.Text),
		PatientContext: lexicon.AgeClass(q.Text),
	}
	if q.Intent != intent.Other {
		u.Intent = string(q.Intent)
	}
	if q.DrugName != "" {
		u.Classification = string(tier)
	}
	next := sess.Next(u)
	return &next
}
