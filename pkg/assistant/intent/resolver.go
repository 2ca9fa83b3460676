package intent

import (
	"fmt"
	"strings"

	"pharmacy-assistant-be/pkg/assistant/lexicon"
	"pharmacy-assistant-be/pkg/assistant/session"
)

// OutOfScopeMessage is the fixed refusal for chatter the assistant does not handle.
const OutOfScopeMessage = "I'm a pharmacy assistant, so I can only help with questions about medicines: " +
	"availability in our inventory, dosage, usage, side effects and alternatives. " +
	"Please ask me about a specific medication."

// state is the mutable working copy a single resolution threads through the rules.
type state struct {
	text     string
	sess     session.Context
	query    Query
	fixed    bool
	terminal *Terminal
	// trusted is set when the drug came from the request, the curated
	// vocabulary or the session, not from a sentence-shape guess.
	trusted bool
}

// Rule is one named step of the resolution cascade. Applies reports whether
// the rule fires; Apply performs its effect.
type Rule struct {
	Name    string
	Applies func(st *state) bool
	Apply   func(st *state)
}

// Resolver runs the ordered rule list. It holds no per-call state and is
// safe for concurrent use.
type Resolver struct {
	rules []Rule
}

// NewResolver returns a resolver with the default rule order.
func NewResolver() *Resolver {
	return &Resolver{rules: DefaultRules()}
}

// DefaultRules returns the resolution cascade in precedence order.
func DefaultRules() []Rule {
	return []Rule{
		ruleExtractDrug,
		rulePatientContextCompletion,
		ruleOutOfScope,
		ruleAutoIntent,
		ruleContextCarryForward,
		ruleFollowUp,
		ruleStrengthFormInference,
		ruleDefaultIntent,
	}
}

// Resolve turns one request plus the prior session context into a Query.
// It is pure: the same inputs always give the same resolution.
func (r *Resolver) Resolve(req Request, sess session.Context) Resolution {
	st := &state{
		text:  strings.TrimSpace(req.Text),
		sess:  sess,
		query: newQuery(req),
	}
	st.trusted = st.query.DrugName != ""
	switch st.query.Intent {
	case StockCheck, Alternatives, Dosage:
		st.fixed = true
	}

	var applied []string
	for _, rule := range r.rules {
		if !rule.Applies(st) {
			continue
		}
		rule.Apply(st)
		applied = append(applied, rule.Name)
		if st.terminal != nil {
			break
		}
	}

	return Resolution{Query: st.query, Terminal: st.terminal, Rules: applied}
}

func newQuery(req Request) Query {
	q := Query{
		Text:     strings.TrimSpace(req.Text),
		Intent:   ParseIntent(req.Intent),
		DrugName: lexicon.Normalize(req.DrugName),
		Needs:    map[string]bool{},
		Sources:  map[Source]bool{},
	}
	for _, n := range req.Needs {
		if n = strings.ToLower(strings.TrimSpace(n)); n != "" {
			q.Needs[n] = true
		}
	}
	for _, n := range textNeeds(q.Text) {
		q.Needs[n] = true
	}
	for _, s := range req.Sources {
		switch src := Source(strings.ToLower(strings.TrimSpace(s))); src {
		case InternalDB, ExternalDB, WebSearch:
			q.Sources[src] = true
		}
	}
	if len(q.Sources) == 0 {
		for _, s := range AllSources {
			q.Sources[s] = true
		}
	}
	return q
}

var ruleExtractDrug = Rule{
	Name: "drug_mention_extraction",
	Applies: func(st *state) bool {
		return st.query.DrugName == "" && st.text != ""
	},
	Apply: func(st *state) {
		st.query.DrugName, st.trusted = extractDrug(st.text)
	},
}

// An age-class answer ("for an adult") completes the dosage question about
// the last drug.
var rulePatientContextCompletion = Rule{
	Name: "patient_context_completion",
	Applies: func(st *state) bool {
		last := st.sess.DrugName()
		if lexicon.AgeClass(st.text) == "" || last == "" {
			return false
		}
		return st.query.DrugName == "" || strings.EqualFold(st.query.DrugName, last)
	},
	Apply: func(st *state) {
		st.query.DrugName = st.sess.DrugName()
		st.query.Intent = Dosage
		st.query.Needs[NeedDosage] = true
		st.fixed = true
		st.trusted = true
	},
}

// A guessed drug name does not keep chatter in scope; only a drug from the
// request, the vocabulary or the session does.
var ruleOutOfScope = Rule{
	Name: "out_of_scope",
	Applies: func(st *state) bool {
		if st.fixed || st.trusted || hasPharmacyKeyword(st.text) {
			return false
		}
		if isSmallTalk(st.text) || isEmptyFollowUp(st.text) {
			return true
		}
		return st.query.DrugName == "" && isGreeting(st.text) && !st.sess.HasRecentDrugs()
	},
	Apply: func(st *state) {
		st.query.DrugName = ""
		st.terminal = &Terminal{Kind: TerminalOutOfScope, Text: OutOfScopeMessage}
	},
}

var ruleAutoIntent = Rule{
	Name: "auto_intent",
	Applies: func(st *state) bool {
		if st.fixed || st.query.Intent != Other || st.query.DrugName == "" {
			return false
		}
		_, _, ok := detectFamily(st.text)
		return ok
	},
	Apply: func(st *state) {
		in, need, _ := detectFamily(st.text)
		st.query.Intent = in
		st.query.Needs[need] = true
		st.fixed = true
	},
}

var ruleContextCarryForward = Rule{
	Name: "context_carry_forward",
	Applies: func(st *state) bool {
		return st.query.DrugName == "" && st.sess.DrugName() != "" && needsDrug(st.text)
	},
	Apply: func(st *state) {
		st.query.DrugName = st.sess.DrugName()
	},
}

var ruleFollowUp = Rule{
	Name: "follow_up",
	Applies: func(st *state) bool {
		if st.fixed || st.query.Intent != Other || st.query.DrugName == "" {
			return false
		}
		prior := ParseIntent(st.sess.Intent())
		return prior != Other && followUpTarget(st.text) != ""
	},
	Apply: func(st *state) {
		st.query.Intent = ParseIntent(st.sess.Intent())
		st.fixed = true
	},
}

var ruleStrengthFormInference = Rule{
	Name: "strength_form_inference",
	Applies: func(st *state) bool {
		if st.fixed || st.query.DrugName == "" {
			return false
		}
		if st.query.Intent != Other && st.query.Intent != DrugInfo {
			return false
		}
		if lexicon.Strength(st.text) == "" || lexicon.DosageForm(st.text) == "" {
			return false
		}
		return !isUsageOrSideEffectQuery(st.text)
	},
	Apply: func(st *state) {
		st.query.Intent = Dosage
		st.query.Needs[NeedDosage] = true
		st.fixed = true
	},
}

// ruleDefaultIntent settles what is still open: a drug with no intent is a
// general information request; no drug at all needs a clarifying question.
var ruleDefaultIntent = Rule{
	Name: "default_intent",
	Applies: func(st *state) bool {
		return st.query.DrugName == "" || (st.query.Intent == Other && !st.fixed)
	},
	Apply: func(st *state) {
		if st.query.DrugName == "" {
			st.terminal = &Terminal{Kind: TerminalNeedDrug, Text: needDrugMessage(st.sess)}
			return
		}
		if in, need, ok := detectFamily(st.text); ok {
			st.query.Intent = in
			st.query.Needs[need] = true
			return
		}
		st.query.Intent = DrugInfo
	},
}

func needDrugMessage(sess session.Context) string {
	if last := sess.DrugName(); last != "" {
		return fmt.Sprintf("Which medicine do you mean? Tell me the name, or ask another question about %s.", last)
	}
	return "Which medicine would you like to know about? Please tell me its name (for example, \"paracetamol 500mg tablet\")."
}
