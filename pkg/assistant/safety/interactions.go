package safety

import (
	"strings"

	"pharmacy-assistant-be/pkg/assistant/lexicon"
)

// Severity of a known interaction.
const (
	SeverityHigh   = "HIGH"
	SeverityMedium = "MEDIUM"
)

// Interaction is one known interacting pair. Order of A and B doesn't matter.
type Interaction struct {
	ID       string `json:"id"`
	DrugA    string `json:"drugA"`
	DrugB    string `json:"drugB"`
	Severity string `json:"severity"`
	Note     string `json:"note"`
}

var interactionDB = []Interaction{
	{ID: "warfarin+aspirin", DrugA: "warfarin", DrugB: "aspirin", Severity: SeverityHigh, Note: "Increased bleeding risk; avoid combining unless a physician directs it."},
	{ID: "warfarin+ibuprofen", DrugA: "warfarin", DrugB: "ibuprofen", Severity: SeverityHigh, Note: "NSAIDs raise bleeding risk with anticoagulants; prefer paracetamol for pain."},
	{ID: "warfarin+naproxen", DrugA: "warfarin", DrugB: "naproxen", Severity: SeverityHigh, Note: "NSAIDs raise bleeding risk with anticoagulants; prefer paracetamol for pain."},
	{ID: "sildenafil+nitroglycerin", DrugA: "sildenafil", DrugB: "nitroglycerin", Severity: SeverityHigh, Note: "Risk of profound hypotension; never co-administer."},
	{ID: "tadalafil+nitroglycerin", DrugA: "tadalafil", DrugB: "nitroglycerin", Severity: SeverityHigh, Note: "Risk of profound hypotension; never co-administer."},
	{ID: "methotrexate+ibuprofen", DrugA: "methotrexate", DrugB: "ibuprofen", Severity: SeverityHigh, Note: "NSAIDs reduce methotrexate clearance and can cause toxicity."},
	{ID: "sertraline+tramadol", DrugA: "sertraline", DrugB: "tramadol", Severity: SeverityHigh, Note: "Risk of serotonin syndrome and seizures."},
	{ID: "simvastatin+clarithromycin", DrugA: "simvastatin", DrugB: "clarithromycin", Severity: SeverityHigh, Note: "Raised statin levels; risk of myopathy and rhabdomyolysis."},
	{ID: "clopidogrel+omeprazole", DrugA: "clopidogrel", DrugB: "omeprazole", Severity: SeverityMedium, Note: "Omeprazole may weaken the antiplatelet effect; consider another acid reducer."},
	{ID: "lisinopril+spironolactone", DrugA: "lisinopril", DrugB: "spironolactone", Severity: SeverityMedium, Note: "Risk of high potassium; monitor potassium and kidney function."},
	{ID: "aspirin+ibuprofen", DrugA: "aspirin", DrugB: "ibuprofen", Severity: SeverityMedium, Note: "Ibuprofen can blunt the cardioprotective effect of low-dose aspirin and adds GI bleeding risk."},
}

// brand and local names mapped onto the generics used in the table
var interactionAliases = map[string]string{
	"coumadin":        "warfarin",
	"jantoven":        "warfarin",
	"aspilets":        "aspirin",
	"bayer":           "aspirin",
	"acetylsalicylic": "aspirin",
	"advil":           "ibuprofen",
	"motrin":          "ibuprofen",
	"medicol":         "ibuprofen",
	"dolan":           "ibuprofen",
	"aleve":           "naproxen",
	"flanax":          "naproxen",
	"viagra":          "sildenafil",
	"cialis":          "tadalafil",
	"nitrostat":       "nitroglycerin",
	"isoket":          "nitroglycerin",
	"zoloft":          "sertraline",
	"ultram":          "tramadol",
	"zocor":           "simvastatin",
	"klaricid":        "clarithromycin",
	"biaxin":          "clarithromycin",
	"plavix":          "clopidogrel",
	"losec":           "omeprazole",
	"prilosec":        "omeprazole",
	"zestril":         "lisinopril",
	"aldactone":       "spironolactone",
}

var interactionGenerics = func() map[string]bool {
	out := map[string]bool{}
	for _, in := range interactionDB {
		out[in.DrugA] = true
		out[in.DrugB] = true
	}
	return out
}()

// canonicalDrugs maps every word of a product or drug name onto the generics
// used in the table. Strength and form tokens are skipped, so "Warfarin 5mg"
// and "warfarin sodium tablet" both give warfarin.
func canonicalDrugs(name string) []string {
	var out []string
	seen := map[string]bool{}
	for _, word := range strings.Fields(lexicon.Normalize(name)) {
		word = strings.Trim(word, "()[],;:.+/")
		if word == "" || lexicon.Strength(word) != "" || lexicon.DosageForm(word) != "" {
			continue
		}
		g, ok := interactionAliases[word]
		if !ok && interactionGenerics[word] {
			g, ok = word, true
		}
		if ok && !seen[g] {
			seen[g] = true
			out = append(out, g)
		}
	}
	return out
}

// FindInteraction returns the first known interaction between current and any
// of the recent drugs.
func FindInteraction(current string, recent []string) (*Interaction, string, bool) {
	curs := canonicalDrugs(current)
	if len(curs) == 0 {
		return nil, "", false
	}
	for _, r := range recent {
		for _, other := range canonicalDrugs(r) {
			for _, cur := range curs {
				if other == cur {
					continue
				}
				for i := range interactionDB {
					in := interactionDB[i]
					if (in.DrugA == cur && in.DrugB == other) || (in.DrugA == other && in.DrugB == cur) {
						return &in, r, true
					}
				}
			}
		}
	}
	return nil, "", false
}
