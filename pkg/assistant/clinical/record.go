package clinical

import (
	"context"
	"strings"

	"pharmacy-assistant-be/pkg/assistant/intent"
	"pharmacy-assistant-be/pkg/assistant/lexicon"
)

// Field names a piece of clinical content.
type Field string

const (
	FieldDosage      Field = "dosage"
	FieldUsage       Field = "usage"
	FieldSideEffects Field = "sideEffects"
	FieldWarnings    Field = "warnings"
)

// Record is what clinical sources know about one drug. Empty strings mean
// the source had nothing for that field.
type Record struct {
	Dosage      string   `json:"dosage,omitempty"`
	Usage       string   `json:"usage,omitempty"`
	SideEffects string   `json:"sideEffects,omitempty"`
	Warnings    string   `json:"warnings,omitempty"`
	BrandUS     string   `json:"brandUS,omitempty"`
	Citations   []string `json:"citations,omitempty"`
}

// Provider is one external clinical source.
type Provider interface {
	// Name is the label shown to users, e.g. "OpenFDA".
	Name() string
	Fetch(ctx context.Context, drugName string, hint intent.Hint) (Record, error)
}

// RequestedFields maps an information hint to the fields that answer it.
func RequestedFields(hint intent.Hint) []Field {
	switch hint {
	case intent.HintDosage:
		return []Field{FieldDosage}
	case intent.HintSideEffects:
		return []Field{FieldSideEffects, FieldWarnings}
	case intent.HintUsage:
		return []Field{FieldUsage}
	}
	return []Field{FieldUsage, FieldDosage, FieldSideEffects, FieldWarnings}
}

func (r Record) Get(f Field) string {
	switch f {
	case FieldDosage:
		return r.Dosage
	case FieldUsage:
		return r.Usage
	case FieldSideEffects:
		return r.SideEffects
	case FieldWarnings:
		return r.Warnings
	}
	return ""
}

// IsEmpty reports whether the record carries no clinical text at all.
func (r Record) IsEmpty() bool {
	return strings.TrimSpace(r.Dosage+r.Usage+r.SideEffects+r.Warnings) == ""
}

// Missing returns the requested fields the record has no text for.
func (r Record) Missing(hint intent.Hint) []Field {
	var out []Field
	for _, f := range RequestedFields(hint) {
		if strings.TrimSpace(r.Get(f)) == "" {
			out = append(out, f)
		}
	}
	return out
}

// AllMissing reports whether none of the requested fields has text.
func (r Record) AllMissing(hint intent.Hint) bool {
	return len(r.Missing(hint)) == len(RequestedFields(hint))
}

// Merge fills r's empty fields from other. r wins wherever it has a value.
func (r Record) Merge(other Record) Record {
	out := r
	out.Dosage = firstNonEmpty(r.Dosage, other.Dosage)
	out.Usage = firstNonEmpty(r.Usage, other.Usage)
	out.SideEffects = firstNonEmpty(r.SideEffects, other.SideEffects)
	out.Warnings = firstNonEmpty(r.Warnings, other.Warnings)
	out.BrandUS = firstNonEmpty(r.BrandUS, other.BrandUS)
	out.Citations = appendUnique(append([]string(nil), r.Citations...), other.Citations...)
	return out
}

func firstNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}

func appendUnique(list []string, items ...string) []string {
	for _, item := range items {
		if item == "" {
			continue
		}
		dup := false
		for _, existing := range list {
			if existing == item {
				dup = true
				break
			}
		}
		if !dup {
			list = append(list, item)
		}
	}
	return list
}

// excerpt trims label text to a readable paragraph, cutting at a sentence end.
func excerpt(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= limit {
		return s
	}
	cut := lexicon.Truncate(s, limit)
	if i := strings.LastIndex(cut, ". "); i > limit/2 {
		return cut[:i+1]
	}
	return strings.TrimSpace(cut) + "..."
}
