package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmacy-assistant-be/internal/pkg/logger"
	"pharmacy-assistant-be/pkg/assistant/classifier"
	"pharmacy-assistant-be/pkg/assistant/clinical"
	"pharmacy-assistant-be/pkg/assistant/identity"
	"pharmacy-assistant-be/pkg/assistant/intent"
	"pharmacy-assistant-be/pkg/assistant/inventory"
	"pharmacy-assistant-be/pkg/assistant/response"
	"pharmacy-assistant-be/pkg/assistant/session"
)

type fakeInventory struct {
	products map[string][]inventory.Product
	err      error
	terms    []string
}

func (f *fakeInventory) Search(_ context.Context, term string, limit int) ([]inventory.Product, error) {
	f.terms = append(f.terms, term)
	if f.err != nil {
		return nil, f.err
	}
	out := f.products[strings.ToLower(term)]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeProvider struct {
	name  string
	rec   clinical.Record
	calls int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Fetch(_ context.Context, _ string, _ intent.Hint) (clinical.Record, error) {
	f.calls++
	return f.rec, nil
}

type fakeStrategy struct {
	mapped map[string]string
	calls  int
}

func (f *fakeStrategy) Name() string { return "fake" }

func (f *fakeStrategy) Resolve(_ context.Context, c identity.Candidate) (identity.Partial, error) {
	f.calls++
	if m, ok := f.mapped[strings.ToLower(c.RawName)]; ok {
		return identity.Partial{MappedName: m, Confidence: 0.9, Provenance: "fake"}, nil
	}
	return identity.Partial{}, nil
}

type harness struct {
	exec      *Executor
	inventory *fakeInventory
	fda       *fakeProvider
	medline   *fakeProvider
	ids       *fakeStrategy
}

func (h *harness) externalCalls() int {
	return h.fda.calls + h.medline.calls + h.ids.calls
}

func newHarness() *harness {
	log := logger.NewNopLogger()
	h := &harness{
		inventory: &fakeInventory{products: map[string][]inventory.Product{
			"paracetamol": {{ID: "1", Name: "Biogesic", GenericName: "Paracetamol", DosageForm: "tablet", Strength: "500mg", CategoryName: "Analgesics", Stock: 100, Price: 4.5}},
			"biogesic":    {{ID: "1", Name: "Biogesic", GenericName: "Paracetamol", DosageForm: "tablet", Strength: "500mg", CategoryName: "Analgesics", Stock: 100, Price: 4.5}},
			"amoxil":      {{ID: "2", Name: "Amoxil", GenericName: "Amoxicillin", DosageForm: "capsule", Strength: "500mg", CategoryName: "Antibiotics", Stock: 40, Price: 12}},
			"amoxicillin": {
				{ID: "2", Name: "Amoxil", GenericName: "Amoxicillin", DosageForm: "capsule", Strength: "500mg", CategoryName: "Antibiotics", Stock: 40, Price: 12},
				{ID: "3", Name: "Himox", GenericName: "Amoxicillin", DosageForm: "capsule", Strength: "500mg", CategoryName: "Antibiotics", Stock: 25, Price: 9},
			},
		}},
		fda: &fakeProvider{name: "OpenFDA", rec: clinical.Record{
			Dosage: "Adults: 1 to 2 tablets every 4 to 6 hours, not more than 8 tablets in 24 hours.",
			Usage:  "Temporarily relieves minor aches and pains.",
		}},
		medline: &fakeProvider{name: "MedlinePlus", rec: clinical.Record{Usage: "general summary"}},
		ids:     &fakeStrategy{mapped: map[string]string{"biogesic": "paracetamol", "paracetamol": "paracetamol", "amoxil": "amoxicillin"}},
	}
	h.exec = NewExecutor(Deps{
		Classifier: classifier.New(classifier.Prescription),
		Inventory:  h.inventory,
		Identity:   identity.NewChain(log, time.Second, h.ids),
		Clinical:   clinical.NewAggregator(log, time.Second, h.fda, h.medline),
		Composer:   response.NewComposer(nil, response.Template, log),
		Logger:     log,
	})
	return h
}

func TestCompleteOTCDosageAnswered(t *testing.T) {
	h := newHarness()

	res, err := h.exec.Run(context.Background(), intent.Request{Text: "Paracetamol 500mg tablet for adult dosage"}, session.Empty())

	require.NoError(t, err)
	assert.Equal(t, OutcomeAnswered, res.Outcome)
	assert.Equal(t, intent.Dosage, res.Intent)
	assert.Equal(t, classifier.OTC, res.Classification)
	assert.Equal(t, 1, h.fda.calls)
	assert.Equal(t, 0, h.medline.calls)
	assert.Contains(t, res.Envelope.Text, "not more than 8 tablets")
	assert.Equal(t, []string{"OpenFDA"}, res.Envelope.Sources)

	next := res.Envelope.SuggestedSessionContext
	require.NotNil(t, next)
	assert.Equal(t, "paracetamol", next.DrugName())
	assert.Equal(t, "tablet", next.DosageForm())
	assert.Equal(t, "500mg", next.Strength())
	assert.Equal(t, "adult", next.Patient())
}

func TestPrescriptionRefusalWithoutExternalCalls(t *testing.T) {
	h := newHarness()

	res, err := h.exec.Run(context.Background(), intent.Request{Text: "dosage for Amoxicillin"}, session.Empty())

	require.NoError(t, err)
	assert.Equal(t, OutcomePrescription, res.Outcome)
	assert.Equal(t, classifier.Prescription, res.Classification)
	assert.Contains(t, res.Envelope.Text, "physician")
	assert.Zero(t, h.externalCalls())
}

func TestGreetingWithoutContextIsRefused(t *testing.T) {
	h := newHarness()

	res, err := h.exec.Run(context.Background(), intent.Request{Text: "hello"}, session.Empty())

	require.NoError(t, err)
	assert.Equal(t, OutcomeOutOfScope, res.Outcome)
	assert.Equal(t, intent.OutOfScopeMessage, res.Envelope.Text)
	assert.Empty(t, res.Envelope.Sources)
	assert.Empty(t, h.inventory.terms)
	assert.Zero(t, h.externalCalls())
}

func TestChatterFollowUpIsRefused(t *testing.T) {
	for _, tc := range []struct {
		text string
		sess session.Context
	}{
		{"how about you?", session.Empty()},
		{"what about the weather?", session.Empty().Next(session.Update{DrugName: "paracetamol", Intent: "dosage"})},
	} {
		t.Run(tc.text, func(t *testing.T) {
			h := newHarness()

			res, err := h.exec.Run(context.Background(), intent.Request{Text: tc.text}, tc.sess)

			require.NoError(t, err)
			assert.Equal(t, OutcomeOutOfScope, res.Outcome)
			assert.Equal(t, intent.OutOfScopeMessage, res.Envelope.Text)
			require.NotNil(t, res.Envelope.SuggestedSessionContext)
			assert.Equal(t, tc.sess.RecentDrugs, res.Envelope.SuggestedSessionContext.RecentDrugs)
			assert.Zero(t, h.externalCalls())
		})
	}
}

func TestFollowUpInheritsIntent(t *testing.T) {
	h := newHarness()
	sess := session.Empty().Next(session.Update{DrugName: "paracetamol", Intent: "dosage"})

	res, err := h.exec.Run(context.Background(), intent.Request{Text: "how about ibuprofen?"}, sess)

	require.NoError(t, err)
	assert.Equal(t, intent.Dosage, res.Intent)
	assert.Equal(t, "ibuprofen", res.DrugName)
	// no form, strength or age given for ibuprofen
	assert.Equal(t, OutcomeClarification, res.Outcome)
	assert.Zero(t, h.externalCalls())
}

func TestInteractionAlert(t *testing.T) {
	h := newHarness()
	sess := session.Empty().Next(session.Update{DrugName: "warfarin", Intent: "dosage"})

	res, err := h.exec.Run(context.Background(), intent.Request{Text: "aspirin dosage", Intent: "dosage", DrugName: "aspirin"}, sess)

	require.NoError(t, err)
	assert.Equal(t, OutcomeInteractionAlert, res.Outcome)
	assert.Contains(t, res.Envelope.Text, "bleeding")
	assert.Equal(t, []string{"Pharmacy interaction rules"}, res.Envelope.Sources)
	assert.Zero(t, h.externalCalls())
}

func TestInteractionAlertWithProductStyleNames(t *testing.T) {
	for _, previous := range []string{"Warfarin 5mg", "warfarin sodium"} {
		t.Run(previous, func(t *testing.T) {
			h := newHarness()
			sess := session.Empty().Next(session.Update{DrugName: previous, Intent: "dosage"})

			res, err := h.exec.Run(context.Background(), intent.Request{Text: "aspirin 80mg tablet dosage for adult"}, sess)

			require.NoError(t, err)
			assert.Equal(t, OutcomeInteractionAlert, res.Outcome)
			assert.Contains(t, res.Envelope.Text, "bleeding")
			assert.Zero(t, h.fda.calls)
		})
	}
}

func TestIncompleteDosageMakesNoExternalCalls(t *testing.T) {
	h := newHarness()

	res, err := h.exec.Run(context.Background(), intent.Request{Text: "paracetamol dosage for a child"}, session.Empty())

	require.NoError(t, err)
	assert.Equal(t, OutcomeClarification, res.Outcome)
	assert.Contains(t, res.Envelope.Text, "dosage form")
	assert.Zero(t, h.externalCalls())
}

func TestClarificationAnswerCompletesDosage(t *testing.T) {
	h := newHarness()
	sess := session.Empty().Next(session.Update{DrugName: "paracetamol", Intent: "dosage", DosageForm: "tablet", Strength: "500mg"})

	res, err := h.exec.Run(context.Background(), intent.Request{Text: "for an adult"}, sess)

	require.NoError(t, err)
	assert.Equal(t, OutcomeAnswered, res.Outcome)
	assert.Equal(t, "paracetamol", res.DrugName)
	assert.Equal(t, 1, h.fda.calls)
}

func TestStockCheckForPrescriptionDrug(t *testing.T) {
	h := newHarness()

	res, err := h.exec.Run(context.Background(), intent.Request{Text: "is Amoxil in stock?"}, session.Empty())

	require.NoError(t, err)
	assert.Equal(t, intent.StockCheck, res.Intent)
	assert.Equal(t, classifier.Prescription, res.Classification)
	assert.Contains(t, res.Envelope.Text, "Amoxil 500mg")
	assert.Contains(t, res.Envelope.Text, "prescription-only")
	assert.Equal(t, []string{inventory.SourceLabel}, res.Envelope.Sources)
	assert.Zero(t, h.externalCalls())
}

func TestAlternatives(t *testing.T) {
	h := newHarness()

	res, err := h.exec.Run(context.Background(), intent.Request{Text: "alternatives to Amoxil"}, session.Empty())

	require.NoError(t, err)
	assert.Equal(t, intent.Alternatives, res.Intent)
	assert.Contains(t, res.Envelope.Text, "Himox")
	assert.NotContains(t, res.Envelope.Text, "- Amoxil")
	assert.Contains(t, res.Envelope.Text, "prescription-only")
	assert.Zero(t, h.fda.calls+h.medline.calls)
}

func TestInternalDBSourceDisabled(t *testing.T) {
	h := newHarness()

	_, err := h.exec.Run(context.Background(), intent.Request{
		Text:    "Paracetamol 500mg tablet for adult dosage",
		Sources: []string{"external_db"},
	}, session.Empty())

	require.NoError(t, err)
	assert.Empty(t, h.inventory.terms)
	assert.Equal(t, 1, h.fda.calls)
}

func TestExternalDBSourceDisabled(t *testing.T) {
	h := newHarness()

	res, err := h.exec.Run(context.Background(), intent.Request{
		Text:    "Paracetamol 500mg tablet for adult dosage",
		Sources: []string{"internal_db"},
	}, session.Empty())

	require.NoError(t, err)
	assert.Zero(t, h.externalCalls())
	assert.Contains(t, res.Envelope.Text, "not available from approved sources")
}

func TestInventoryFailureIsNotFatal(t *testing.T) {
	h := newHarness()
	h.inventory.err = errors.New("db down")

	res, err := h.exec.Run(context.Background(), intent.Request{Text: "Paracetamol 500mg tablet for adult dosage"}, session.Empty())

	require.NoError(t, err)
	assert.Equal(t, OutcomeAnswered, res.Outcome)
}

func TestEmptyQuery(t *testing.T) {
	h := newHarness()

	_, err := h.exec.Run(context.Background(), intent.Request{Text: "   "}, session.Empty())

	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestPrescriptionContentNeverLeaks(t *testing.T) {
	h := newHarness()
	// the label source has dosage text, but the drug is prescription-only
	h.fda.rec = clinical.Record{Dosage: "250mg every 8 hours", Usage: "infections"}

	for _, text := range []string{"dosage for amoxicillin", "what is amoxil used for", "side effects of amoxicillin"} {
		t.Run(text, func(t *testing.T) {
			res, err := h.exec.Run(context.Background(), intent.Request{Text: text}, session.Empty())
			require.NoError(t, err)
			assert.Equal(t, classifier.Prescription, res.Classification)
			assert.NotContains(t, res.Envelope.Text, "250mg every 8 hours")
			assert.NotContains(t, res.Envelope.Text, "infections")
		})
	}
}

func TestLowConfidenceNameCarriesSearchLink(t *testing.T) {
	log := logger.NewNopLogger()
	fda := &fakeProvider{name: "OpenFDA", rec: clinical.Record{Dosage: "Apply twice daily."}}
	exec := NewExecutor(Deps{
		Classifier: classifier.New(classifier.OTC),
		Identity:   identity.NewChain(log, time.Second, identity.NewWebSearch("")),
		Clinical:   clinical.NewAggregator(log, time.Second, fda),
		Logger:     log,
	})

	res, err := exec.Run(context.Background(), intent.Request{Text: "Zyxoflam 20mg tablet dosage for adult"}, session.Empty())

	require.NoError(t, err)
	assert.Equal(t, OutcomeAnswered, res.Outcome)
	require.NotNil(t, res.Identity)
	require.Len(t, res.Identity.Provenance, 1)
	assert.Contains(t, res.Envelope.Text, "https://www.google.com/search?q=zyxoflam+generic+name")
	assert.Equal(t, []string{"OpenFDA"}, res.Envelope.Sources)
}

func TestRxNormMappingIsCited(t *testing.T) {
	log := logger.NewNopLogger()
	rx := &stubPartial{p: identity.Partial{MappedName: "paracetamol", Confidence: 0.95, Provenance: "RxNorm (https://rxnav.example/rxcui/161)"}}
	fda := &fakeProvider{name: "OpenFDA", rec: clinical.Record{Dosage: "1 to 2 tablets every 4 to 6 hours."}}
	exec := NewExecutor(Deps{
		Identity: identity.NewChain(log, time.Second, rx),
		Clinical: clinical.NewAggregator(log, time.Second, fda),
		Logger:   log,
	})

	res, err := exec.Run(context.Background(), intent.Request{Text: "Biogesic 500mg tablet dosage for adult"}, session.Empty())

	require.NoError(t, err)
	assert.Equal(t, []string{"OpenFDA", "RxNorm"}, res.Envelope.Sources)
	assert.Contains(t, res.Envelope.Text, "Sources: OpenFDA, RxNorm")
}

type stubPartial struct {
	p identity.Partial
}

func (s *stubPartial) Name() string { return "stub" }

func (s *stubPartial) Resolve(_ context.Context, _ identity.Candidate) (identity.Partial, error) {
	return s.p, nil
}

func TestReclassifiedPrescriptionContentIsRedacted(t *testing.T) {
	log := logger.NewNopLogger()
	ids := &fakeStrategy{mapped: map[string]string{"zyxo": "amoxicillin"}}
	fda := &fakeProvider{name: "OpenFDA", rec: clinical.Record{Dosage: "250mg every 8 hours", Usage: "bacterial infections"}}
	exec := NewExecutor(Deps{
		Classifier: classifier.New(classifier.OTC),
		Identity:   identity.NewChain(log, time.Second, ids),
		Clinical:   clinical.NewAggregator(log, time.Second, fda),
		Logger:     log,
	})

	res, err := exec.Run(context.Background(), intent.Request{Text: "zyxo 250mg capsule dosage for adult"}, session.Empty())

	require.NoError(t, err)
	assert.Equal(t, 1, fda.calls)
	assert.Equal(t, classifier.Prescription, res.Classification)
	assert.Equal(t, OutcomePrescription, res.Outcome)
	assert.Contains(t, res.Envelope.Text, "physician")
	assert.NotContains(t, res.Envelope.Text, "250mg every 8 hours")
	assert.NotContains(t, res.Envelope.Text, "bacterial infections")
	assert.NotContains(t, res.Envelope.Sources, "OpenFDA")
}
