package session

import "strings"

// MaxRecentDrugs bounds the recently discussed drug list.
const MaxRecentDrugs = 5

// Context is the short-lived memory of one conversation.
// It is a value: every pipeline run receives one and suggests the next one.
// The pipeline never stores it; the caller owns persistence.
type Context struct {
	LastDrugName       *string  `json:"lastDrugName" validate:"omitnil,max=120"`
	LastIntent         *string  `json:"lastIntent" validate:"omitnil,max=40"`
	RecentDrugs        []string `json:"recentDrugs" validate:"max=5,dive,max=120"`
	PatientContext     *string  `json:"patientContext" validate:"omitnil,max=40"`
	LastDosageForm     *string  `json:"lastDosageForm,omitempty" validate:"omitnil,max=40"`
	LastStrength       *string  `json:"lastStrength,omitempty" validate:"omitnil,max=40"`
	LastClassification *string  `json:"lastClassification,omitempty" validate:"omitnil,max=40"`
}

// Empty returns the context of a fresh conversation.
func Empty() Context {
	return Context{RecentDrugs: []string{}}
}

// Clone returns a deep copy so callers can't alias each other's slices.
func (c Context) Clone() Context {
	out := Context{
		LastDrugName:       copyStr(c.LastDrugName),
		LastIntent:         copyStr(c.LastIntent),
		PatientContext:     copyStr(c.PatientContext),
		LastDosageForm:     copyStr(c.LastDosageForm),
		LastStrength:       copyStr(c.LastStrength),
		LastClassification: copyStr(c.LastClassification),
		RecentDrugs:        make([]string, len(c.RecentDrugs)),
	}
	copy(out.RecentDrugs, c.RecentDrugs)
	return out
}

func (c Context) DrugName() string       { return deref(c.LastDrugName) }
func (c Context) Intent() string         { return deref(c.LastIntent) }
func (c Context) Patient() string        { return deref(c.PatientContext) }
func (c Context) DosageForm() string     { return deref(c.LastDosageForm) }
func (c Context) Strength() string       { return deref(c.LastStrength) }
func (c Context) Classification() string { return deref(c.LastClassification) }

// HasRecentDrugs reports whether any drug was discussed in this conversation.
func (c Context) HasRecentDrugs() bool {
	return len(c.RecentDrugs) > 0 || c.DrugName() != ""
}

// Update describes what the next turn should remember.
// Empty strings leave the previous value untouched.
type Update struct {
	DrugName       string
	Intent         string
	Classification string
	DosageForm     string
	Strength       string
	PatientContext string
}

// Next derives the following context from c without mutating it.
// A new drug resets stated form/strength, since those described the old one.
func (c Context) Next(u Update) Context {
	next := c.Clone()

	drug := normalizeName(u.DrugName)
	if drug != "" {
		if !strings.EqualFold(drug, next.DrugName()) {
			next.LastDosageForm = nil
			next.LastStrength = nil
			next.LastClassification = nil
		}
		next.LastDrugName = strPtr(drug)
		next.RecentDrugs = PushRecent(next.RecentDrugs, drug)
	}
	if u.Intent != "" {
		next.LastIntent = strPtr(u.Intent)
	}
	if u.Classification != "" {
		next.LastClassification = strPtr(u.Classification)
	}
	if u.DosageForm != "" {
		next.LastDosageForm = strPtr(u.DosageForm)
	}
	if u.Strength != "" {
		next.LastStrength = strPtr(u.Strength)
	}
	if u.PatientContext != "" {
		next.PatientContext = strPtr(u.PatientContext)
	}
	return next
}

// PushRecent appends name as most recent, removing an earlier occurrence and
// keeping at most MaxRecentDrugs entries. The input slice is not modified.
func PushRecent(recent []string, name string) []string {
	name = normalizeName(name)
	out := make([]string, 0, MaxRecentDrugs)
	for _, r := range recent {
		if strings.EqualFold(r, name) || r == "" {
			continue
		}
		out = append(out, r)
	}
	if name != "" {
		out = append(out, name)
	}
	if len(out) > MaxRecentDrugs {
		out = out[len(out)-MaxRecentDrugs:]
	}
	return out
}

func normalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func strPtr(s string) *string {
	return &s
}

func copyStr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
