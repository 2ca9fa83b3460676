package safety

import (
	"fmt"
	"strings"

	"pharmacy-assistant-be/pkg/assistant/classifier"
	"pharmacy-assistant-be/pkg/assistant/clinical"
	"pharmacy-assistant-be/pkg/assistant/intent"
	"pharmacy-assistant-be/pkg/assistant/lexicon"
	"pharmacy-assistant-be/pkg/assistant/session"
)

// Outcome of a gate check.
type Outcome string

const (
	Pass              Outcome = "pass"
	PrescriptionBlock Outcome = "prescription_block"
	InteractionAlert  Outcome = "interaction_alert"
	Clarification     Outcome = "clarification"
)

// Requirement is a fact a dosage answer can't be given without.
type Requirement string

const (
	RequireForm     Requirement = "dosage_form"
	RequireStrength Requirement = "strength"
	RequireAge      Requirement = "patient_age_class"
)

// InteractionSource labels alert responses.
const InteractionSource = "Pharmacy interaction rules"

// Facts are the dosage-relevant details known for the current turn.
type Facts struct {
	DosageForm string
	Strength   string
	AgeClass   string
}

// Decision is the gate's verdict. Anything but Pass is a terminal response.
type Decision struct {
	Outcome Outcome
	Text    string
	Alert   *Interaction
	Missing []Requirement
	Facts   Facts
}

// Blocked reports whether the pipeline must stop here.
func (d Decision) Blocked() bool {
	return d.Outcome != Pass
}

// Applies reports whether q asks for clinical content about a known drug.
func Applies(q intent.Query) bool {
	if q.DrugName == "" {
		return false
	}
	return q.Intent == intent.Dosage || (q.Intent == intent.DrugInfo && q.WantsClinicalContent())
}

// CollectFacts reads form, strength and age class from text, falling back to
// what the session remembers. Form and strength are only borrowed from the
// session when it was talking about the same drug.
func CollectFacts(text, drugName string, sess session.Context) Facts {
	f := Facts{
		DosageForm: lexicon.DosageForm(text),
		Strength:   lexicon.Strength(text),
		AgeClass:   lexicon.AgeClass(text),
	}
	sameDrug := drugName != "" && strings.EqualFold(drugName, sess.DrugName())
	if f.DosageForm == "" && sameDrug {
		f.DosageForm = sess.DosageForm()
	}
	if f.Strength == "" && sameDrug {
		f.Strength = sess.Strength()
	}
	if f.AgeClass == "" {
		f.AgeClass = sess.Patient()
	}
	return f
}

// Check runs the prescription block, then the interaction check, then dosage
// completeness. Nothing here touches the network.
func Check(q intent.Query, tier classifier.Tier, sess session.Context) Decision {
	facts := CollectFacts(q.Text, q.DrugName, sess)
	if !Applies(q) {
		return Decision{Outcome: Pass, Facts: facts}
	}

	if tier == classifier.Prescription {
		return Decision{Outcome: PrescriptionBlock, Text: PrescriptionRefusal(q.DrugName), Facts: facts}
	}

	if q.Intent != intent.Dosage {
		return Decision{Outcome: Pass, Facts: facts}
	}

	if in, other, ok := FindInteraction(q.DrugName, sess.RecentDrugs); ok {
		return Decision{Outcome: InteractionAlert, Text: alertText(*in, q.DrugName, other), Alert: in, Facts: facts}
	}

	var missing []Requirement
	if facts.DosageForm == "" {
		missing = append(missing, RequireForm)
	}
	if facts.Strength == "" {
		missing = append(missing, RequireStrength)
	}
	if facts.AgeClass == "" {
		missing = append(missing, RequireAge)
	}
	if len(missing) > 0 {
		return Decision{Outcome: Clarification, Text: clarification(q.DrugName, missing), Missing: missing, Facts: facts}
	}
	return Decision{Outcome: Pass, Facts: facts}
}

// PrescriptionRefusal is the fixed answer for prescription-only drugs.
func PrescriptionRefusal(drug string) string {
	return fmt.Sprintf("%s is a prescription-only medicine, so I can't share dosage, usage or side-effect information for it. "+
		"Please consult a physician, who can prescribe the right dose for the patient. "+
		"I can still check whether it's in stock or suggest what to ask the prescriber.", displayName(drug))
}

// Question returns the clarifying question for one missing requirement.
func Question(drug string, r Requirement) string {
	switch r {
	case RequireForm:
		return fmt.Sprintf("Which dosage form of %s is it (for example tablet, capsule, syrup or suspension)?", displayName(drug))
	case RequireStrength:
		return fmt.Sprintf("What strength of %s is it (for example 250mg, 500mg or 5ml)?", displayName(drug))
	case RequireAge:
		return "Who is the dose for: an adult, a child, an infant, an elderly patient or someone pregnant?"
	}
	return ""
}

func clarification(drug string, missing []Requirement) string {
	var b strings.Builder
	fmt.Fprintf(&b, "To give a safe dosage for %s I need a bit more information:", displayName(drug))
	for _, r := range missing {
		b.WriteString("\n- ")
		b.WriteString(Question(drug, r))
	}
	return b.String()
}

func alertText(in Interaction, current, other string) string {
	return fmt.Sprintf("Clinical alert (%s severity): %s may interact with %s, which was discussed earlier in this conversation. %s "+
		"Please confirm with the prescribing physician or a pharmacist before dispensing.",
		strings.ToLower(in.Severity), displayName(current), other, in.Note)
}

// Redact drops all clinical content for prescription drugs. Applied after
// aggregation regardless of what the gate decided earlier.
func Redact(rec clinical.Record, tier classifier.Tier) clinical.Record {
	if tier == classifier.Prescription {
		return clinical.Record{}
	}
	return rec
}

func displayName(s string) string {
	return lexicon.DisplayName(s)
}
