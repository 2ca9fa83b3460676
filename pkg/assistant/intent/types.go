package intent

import (
	"sort"
	"strings"
)

// Intent is the working hypothesis of what the user wants.
type Intent string

const (
	DrugInfo     Intent = "drug_info"
	StockCheck   Intent = "stock_check"
	Dosage       Intent = "dosage"
	Alternatives Intent = "alternatives"
	Other        Intent = "other"
)

// ParseIntent maps request strings to an Intent; unknown values become Other.
func ParseIntent(s string) Intent {
	switch Intent(strings.ToLower(strings.TrimSpace(s))) {
	case DrugInfo:
		return DrugInfo
	case StockCheck:
		return StockCheck
	case Dosage:
		return Dosage
	case Alternatives:
		return Alternatives
	}
	return Other
}

// Source gates which data planes a query may touch.
type Source string

const (
	InternalDB Source = "internal_db"
	ExternalDB Source = "external_db"
	WebSearch  Source = "web_search"
)

// AllSources is used when a request names none.
var AllSources = []Source{InternalDB, ExternalDB, WebSearch}

// Information needs recognized in requests and text.
const (
	NeedDosage       = "dosage"
	NeedUsage        = "usage"
	NeedSideEffects  = "side_effects"
	NeedWarnings     = "warnings"
	NeedStock        = "stock"
	NeedPrice        = "price"
	NeedAlternatives = "alternatives"
)

// Request is the raw input of one turn.
type Request struct {
	Text     string
	Intent   string
	DrugName string
	Needs    []string
	Sources  []string
}

// Query is the structured request produced by the resolver.
type Query struct {
	Text     string
	Intent   Intent
	DrugName string
	Needs    map[string]bool
	Sources  map[Source]bool
}

// HasSource reports whether s may be used for this query.
func (q Query) HasSource(s Source) bool {
	return q.Sources[s]
}

// Need reports whether n was requested.
func (q Query) Need(n string) bool {
	return q.Needs[n]
}

// NeedList returns needs in stable order.
func (q Query) NeedList() []string {
	out := make([]string, 0, len(q.Needs))
	for n := range q.Needs {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// WantsClinicalContent reports whether answering requires dosage, usage or
// side-effect text from clinical sources.
func (q Query) WantsClinicalContent() bool {
	switch q.Intent {
	case Dosage:
		return true
	case DrugInfo:
		return !(q.Need(NeedStock) || q.Need(NeedPrice)) ||
			q.Need(NeedDosage) || q.Need(NeedUsage) || q.Need(NeedSideEffects) || q.Need(NeedWarnings)
	}
	return false
}

// Hint is the information-need hint passed to clinical sources.
type Hint string

const (
	HintDosage      Hint = "dosage"
	HintSideEffects Hint = "sideEffects"
	HintUsage       Hint = "usage"
	HintGeneral     Hint = "general"
)

// InformationHint derives the clinical hint from intent and needs.
func (q Query) InformationHint() Hint {
	switch {
	case q.Intent == Dosage || q.Need(NeedDosage):
		return HintDosage
	case q.Need(NeedSideEffects) || q.Need(NeedWarnings):
		return HintSideEffects
	case q.Need(NeedUsage):
		return HintUsage
	}
	return HintGeneral
}

// TerminalKind says why resolution stopped early.
type TerminalKind string

const (
	TerminalOutOfScope TerminalKind = "out_of_scope"
	TerminalNeedDrug   TerminalKind = "need_drug"
)

// Terminal is a final response produced during resolution.
type Terminal struct {
	Kind TerminalKind
	Text string
}

// Resolution is the resolver's output.
type Resolution struct {
	Query    Query
	Terminal *Terminal
	// Rules lists the names of the rules that changed the query, in order.
	Rules []string
}
