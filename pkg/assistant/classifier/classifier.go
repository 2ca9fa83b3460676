// Package classifier tags a drug as prescription, otc or non-medical.
//
// Classification is a pure function of the evidence passed in. Nothing is
// cached: when better evidence arrives (an inventory row with a category and
// dosage form) the caller simply classifies again.
package classifier

import (
	"regexp"
	"strings"

	"pharmacy-assistant-be/pkg/assistant/lexicon"
)

// Tier is the regulatory class of a product.
type Tier string

const (
	Prescription Tier = "prescription"
	OTC          Tier = "otc"
	NonMedical   Tier = "non-medical"
)

// ParseTier accepts the textual forms used in config and session context.
func ParseTier(s string) (Tier, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "prescription", "rx":
		return Prescription, true
	case "otc", "over-the-counter":
		return OTC, true
	case "non-medical", "nonmedical":
		return NonMedical, true
	}
	return "", false
}

// Evidence is everything currently known about a product.
type Evidence struct {
	ProductName  string
	GenericName  string
	DosageForm   string
	CategoryName string
}

var (
	nonMedicalCategory = keywordPattern(
		"cosmetic", "cosmetics", "household", "beauty", "personal care", "skin care", "skincare",
		"toiletries", "toiletry", "hygiene", "make-up", "makeup", "fragrance", "food", "beverage",
		"beverages", "snacks", "grocery", "stationery", "accessories", "baby care",
	)
	otcCategory = keywordPattern(
		"otc", "over the counter", "over-the-counter", "non-prescription", "analgesic", "analgesics",
		"pain relief", "pain reliever", "cold & flu", "cold and flu", "cough", "antacid", "antacids",
		"antihistamine", "antihistamines", "vitamin", "vitamins", "supplement", "supplements",
		"first aid", "oral rehydration",
	)
	prescriptionCategory = keywordPattern(
		"prescription", "rx", "rx only", "antibiotic", "antibiotics", "antibacterial", "antiviral",
		"antihypertensive", "antihypertensives", "antidiabetic", "antidiabetics", "anticoagulant",
		"anticoagulants", "antipsychotic", "antidepressant", "antidepressants", "psychotropic",
		"controlled", "dangerous drugs", "hormone", "hormones", "cardiovascular", "oncology",
		"steroid", "steroids", "anticonvulsant",
	)

	// generics and common local brands sold without prescription
	otcNames = regexp.MustCompile(`(?i)\b(paracetamol|acetaminophen|ibuprofen|aspirin|naproxen|mefenamic|cetirizine|loratadine|fexofenadine|diphenhydramine|chlorphenamine|chlorpheniramine|phenylephrine|pseudoephedrine|guaifenesin|dextromethorphan|ambroxol|carbocisteine|bromhexine|loperamide|oral rehydration|oresol|simethicone|aluminum hydroxide|magnesium hydroxide|calcium carbonate|ranitidine|famotidine|bisacodyl|senna|lactulose|clotrimazole|miconazole|hydrocortisone|ascorbic acid|multivitamins?|ferrous sulfate|zinc|biogesic|tempra|calpol|panadol|tylenol|advil|medicol|dolfenal|alaxan|neozep|bioflu|decolgen|tuseran|solmux|robitussin|kremil|diatabs|imodium|claritin|allerta|benadryl|strepsils|vicks)\b`)
	rxNames = regexp.MustCompile(`(?i)\b(amoxicillin|co-amoxiclav|ampicillin|cloxacillin|penicillin|azithromycin|clarithromycin|erythromycin|cefalexin|cephalexin|cefuroxime|cefixime|ceftriaxone|ciprofloxacin|levofloxacin|doxycycline|metronidazole|cotrimoxazole|metformin|glibenclamide|gliclazide|insulin|losartan|valsartan|amlodipine|nifedipine|lisinopril|enalapril|captopril|metoprolol|atenolol|propranolol|carvedilol|hydrochlorothiazide|furosemide|spironolactone|atorvastatin|simvastatin|rosuvastatin|warfarin|clopidogrel|digoxin|nitroglycerin|isosorbide|sildenafil|tadalafil|levothyroxine|prednisone|prednisolone|dexamethasone|methylprednisolone|salbutamol|montelukast|sertraline|fluoxetine|escitalopram|amitriptyline|alprazolam|diazepam|clonazepam|lorazepam|zolpidem|tramadol|codeine|morphine|gabapentin|pregabalin|carbamazepine|phenytoin|valproic|methotrexate|allopurinol|omeprazole|pantoprazole|esomeprazole|celecoxib|amoxil|augmentin|zithromax|glucophage|cozaar|norvasc|lipitor|plavix|coumadin|viagra|xanax|valium)\b`)
	rxSuffixes = regexp.MustCompile(`(?i)\b[a-z]{3,}(cillin|mycin|floxacin|cycline|pril|sartan|statin|olol|azepam|prazole|gliptin|gliflozin)\b`)
)

// Classifier classifies products. The zero value uses Prescription as the
// unknown-medical default.
type Classifier struct {
	unknownMedical Tier
}

// New returns a classifier with the given default for medical-form products
// that match no other rule. Only Prescription and OTC are meaningful; anything
// else falls back to Prescription.
func New(unknownMedical Tier) *Classifier {
	if unknownMedical != OTC {
		unknownMedical = Prescription
	}
	return &Classifier{unknownMedical: unknownMedical}
}

func (c *Classifier) fallback() Tier {
	if c == nil || c.unknownMedical == "" {
		return Prescription
	}
	return c.unknownMedical
}

// Classify applies the full rule cascade to product evidence. First match wins.
func (c *Classifier) Classify(ev Evidence) Tier {
	category := lexicon.Normalize(ev.CategoryName)

	if category != "" && nonMedicalCategory.MatchString(category) {
		return NonMedical
	}
	if !lexicon.IsMedicalForm(ev.DosageForm) {
		return NonMedical
	}
	if category != "" {
		if otcCategory.MatchString(category) {
			return OTC
		}
		if prescriptionCategory.MatchString(category) {
			return Prescription
		}
	}
	if tier, ok := byName(ev.ProductName, ev.GenericName); ok {
		return tier
	}
	return c.fallback()
}

// ClassifyMention classifies a drug named in conversation when no product
// row is available. The user is asking about a medicine, so the dosage-form
// rule does not apply; name patterns and the default do.
func (c *Classifier) ClassifyMention(name, generic string) Tier {
	if tier, ok := byName(name, generic); ok {
		return tier
	}
	return c.fallback()
}

// byName checks prescription patterns first: combination products such as
// "paracetamol + codeine" must not slip through as otc.
func byName(names ...string) (Tier, bool) {
	joined := strings.Join(names, " ")
	if strings.TrimSpace(joined) == "" {
		return "", false
	}
	if rxNames.MatchString(joined) || rxSuffixes.MatchString(joined) {
		return Prescription, true
	}
	if otcNames.MatchString(joined) {
		return OTC, true
	}
	return "", false
}

// KnownDrug returns the earliest curated drug name mentioned in text, or "".
func KnownDrug(text string) string {
	best, bestAt := "", -1
	for _, p := range []*regexp.Regexp{rxNames, otcNames, rxSuffixes} {
		loc := p.FindStringIndex(text)
		if loc == nil {
			continue
		}
		if bestAt == -1 || loc[0] < bestAt {
			best, bestAt = text[loc[0]:loc[1]], loc[0]
		}
	}
	return strings.ToLower(best)
}

func keywordPattern(words ...string) *regexp.Regexp {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`(?i)(^|[^a-z])(` + strings.Join(quoted, "|") + `)($|[^a-z])`)
}
