package response

import (
	"fmt"
	"strings"

	"pharmacy-assistant-be/pkg/assistant/classifier"
	"pharmacy-assistant-be/pkg/assistant/clinical"
	"pharmacy-assistant-be/pkg/assistant/intent"
	"pharmacy-assistant-be/pkg/assistant/lexicon"
	"pharmacy-assistant-be/pkg/assistant/safety"
)

const notAvailableFormat = "%s information for %s is not available from approved sources."

// NotAvailable is the fixed message for a requested field nobody had data for.
func NotAvailable(f clinical.Field, drug string) string {
	return fmt.Sprintf(notAvailableFormat, fieldTitle(f), displayName(drug))
}

type templateKey struct {
	intent    intent.Intent
	tier      classifier.Tier // "" matches any tier
	available bool
}

type renderFunc func(in Input) string

var templates = map[templateKey]renderFunc{
	{intent.Dosage, classifier.OTC, true}:             renderDosage,
	{intent.Dosage, classifier.NonMedical, true}:      renderDosage,
	{intent.Dosage, "", false}:                        renderClinicalMissing,
	{intent.DrugInfo, "", true}:                       renderInfo,
	{intent.DrugInfo, "", false}:                      renderClinicalMissing,
	{intent.Dosage, classifier.Prescription, true}:    renderPrescription,
	{intent.Dosage, classifier.Prescription, false}:   renderPrescription,
	{intent.DrugInfo, classifier.Prescription, true}:  renderPrescription,
	{intent.DrugInfo, classifier.Prescription, false}: renderPrescription,
	{intent.StockCheck, "", true}:                     renderStock,
	{intent.StockCheck, "", false}:                    renderOutOfStock,
	{intent.Alternatives, "", true}:                   renderAlternatives,
	{intent.Alternatives, "", false}:                  renderNoAlternatives,
}

func lookupTemplate(in Input) renderFunc {
	key := templateKey{intent: in.Query.Intent, tier: in.Tier, available: in.available()}
	if fn, ok := templates[key]; ok {
		return fn
	}
	key.tier = ""
	if fn, ok := templates[key]; ok {
		return fn
	}
	return renderInfo
}

func composeTemplate(in Input) string {
	return lookupTemplate(in)(in)
}

func renderDosage(in Input) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dosage for %s", in.title())
	if d := describeFacts(in.Facts); d != "" {
		b.WriteString(" (" + d + ")")
	}
	b.WriteString(":\n")
	b.WriteString(in.Record.Dosage)
	if in.Record.Warnings != "" {
		b.WriteString("\n\nWarnings: " + in.Record.Warnings)
	}
	b.WriteString("\n\nFollow the product label and check with the pharmacist if the patient takes other medicines.")
	return b.String()
}

func renderInfo(in Input) string {
	var parts []string
	for _, f := range clinical.RequestedFields(in.Query.InformationHint()) {
		if text := in.Record.Get(f); text != "" {
			parts = append(parts, fieldTitle(f)+": "+text)
		} else {
			parts = append(parts, NotAvailable(f, in.drug()))
		}
	}
	if in.Record.BrandUS != "" {
		parts = append(parts, "Known in the US as "+in.Record.BrandUS+".")
	}
	return fmt.Sprintf("About %s:\n%s", in.title(), strings.Join(parts, "\n\n"))
}

func renderClinicalMissing(in Input) string {
	var lines []string
	for _, f := range in.Record.Missing(in.Query.InformationHint()) {
		lines = append(lines, NotAvailable(f, in.drug()))
	}
	lines = append(lines, "Please check the package insert or ask the pharmacist on duty.")
	return strings.Join(lines, " ")
}

func renderPrescription(in Input) string {
	text := safety.PrescriptionRefusal(in.drug())
	if len(in.Products) > 0 {
		text += "\n\n" + stockListing(in)
	}
	return text
}

func renderStock(in Input) string {
	text := stockListing(in)
	if in.Tier == classifier.Prescription {
		text += "\n\nNote: " + displayName(in.drug()) + " is prescription-only. Dispense only against a valid prescription."
	}
	return text
}

func renderOutOfStock(in Input) string {
	return fmt.Sprintf("I couldn't find %s in stock in our inventory. It may be out of stock, expired, or listed under another name.", displayName(in.drug()))
}

func renderAlternatives(in Input) string {
	var b strings.Builder
	generic := in.Identity.MappedName
	if generic == "" {
		generic = in.drug()
	}
	fmt.Fprintf(&b, "Products in stock with the same active ingredient as %s (%s):", displayName(in.drug()), generic)
	for _, p := range in.Products {
		b.WriteString("\n- " + p.Line())
	}
	if in.Tier == classifier.Prescription {
		b.WriteString("\n\nNote: these are prescription-only. Switching products needs the prescriber's approval.")
	}
	return b.String()
}

func renderNoAlternatives(in Input) string {
	return fmt.Sprintf("I couldn't find other products in stock with the same active ingredient as %s.", displayName(in.drug()))
}

func stockListing(in Input) string {
	if len(in.Products) == 0 {
		return renderOutOfStock(in)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "In stock for %s:", displayName(in.drug()))
	for _, p := range in.Products {
		b.WriteString("\n- " + p.Line())
	}
	return b.String()
}

func describeFacts(f safety.Facts) string {
	var parts []string
	for _, s := range []string{f.Strength, f.DosageForm, f.AgeClass} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

func fieldTitle(f clinical.Field) string {
	switch f {
	case clinical.FieldDosage:
		return "Dosage"
	case clinical.FieldUsage:
		return "Usage"
	case clinical.FieldSideEffects:
		return "Side effects"
	case clinical.FieldWarnings:
		return "Warnings"
	}
	return string(f)
}

func displayName(s string) string {
	return lexicon.DisplayName(s)
}
