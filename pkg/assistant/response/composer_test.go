package response

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmacy-assistant-be/internal/pkg/logger"
	"pharmacy-assistant-be/pkg/assistant/classifier"
	"pharmacy-assistant-be/pkg/assistant/clinical"
	"pharmacy-assistant-be/pkg/assistant/intent"
	"pharmacy-assistant-be/pkg/assistant/inventory"
	"pharmacy-assistant-be/pkg/assistant/session"
	"pharmacy-assistant-be/pkg/llm"
)

type fakeLLM struct {
	reply string
	err   error
	calls int
}

func (f *fakeLLM) Chat(_ context.Context, _ []llm.Message, _ ...llm.Option) (string, error) {
	f.calls++
	return f.reply, f.err
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return f.Chat(ctx, nil, opts...)
}

func (f *fakeLLM) Label() string { return "fake/model" }

func dosageInput() Input {
	return Input{
		Query: intent.Query{
			Text:     "Paracetamol 500mg tablet for adult dosage",
			Intent:   intent.Dosage,
			DrugName: "paracetamol",
			Needs:    map[string]bool{intent.NeedDosage: true},
		},
		Tier:    classifier.OTC,
		Record:  clinical.Record{Dosage: "Take 1 to 2 tablets every 4 to 6 hours."},
		Sources: []string{"OpenFDA", "openfda", "internal_db"},
		Session: session.Empty(),
	}
}

func TestDedupeSources(t *testing.T) {
	got := DedupeSources([]string{" OpenFDA", "MedlinePlus", "openfda", "", "web_search", "Pharmacy inventory"})
	assert.Equal(t, []string{"OpenFDA", "MedlinePlus", "Pharmacy inventory"}, got)
}

func TestWithFooter(t *testing.T) {
	assert.Equal(t, "Answer\n\nSources: OpenFDA", WithFooter("Answer", []string{"OpenFDA"}))
	assert.Equal(t, "Answer\nSources: X", WithFooter("Answer\nSources: X", []string{"OpenFDA"}))
	assert.Equal(t, "Answer", WithFooter("Answer", nil))
}

func TestComposeTemplateDosage(t *testing.T) {
	env := NewComposer(nil, Generative, logger.NewNopLogger()).Compose(context.Background(), dosageInput())

	assert.Contains(t, env.Text, "Take 1 to 2 tablets every 4 to 6 hours.")
	assert.Contains(t, env.Text, "Sources: OpenFDA")
	assert.Equal(t, []string{"OpenFDA"}, env.Sources)
}

func TestComposeGenerative(t *testing.T) {
	fake := &fakeLLM{reply: "For adults, take 1 to 2 tablets every 4 to 6 hours."}

	env := NewComposer(fake, Generative, logger.NewNopLogger()).Compose(context.Background(), dosageInput())

	assert.Equal(t, 1, fake.calls)
	assert.Equal(t, "For adults, take 1 to 2 tablets every 4 to 6 hours.\n\nSources: OpenFDA", env.Text)
}

func TestComposeGenerativeFallsBackToTemplate(t *testing.T) {
	for name, fake := range map[string]*fakeLLM{
		"error": {err: errors.New("model down")},
		"empty": {reply: "   "},
	} {
		t.Run(name, func(t *testing.T) {
			env := NewComposer(fake, Generative, logger.NewNopLogger()).Compose(context.Background(), dosageInput())
			assert.Contains(t, env.Text, "Dosage for Paracetamol")
			assert.Contains(t, env.Text, "Sources: OpenFDA")
		})
	}
}

func TestComposeTemplateModeSkipsLLM(t *testing.T) {
	fake := &fakeLLM{reply: "generated"}

	env := NewComposer(fake, Template, logger.NewNopLogger()).Compose(context.Background(), dosageInput())

	assert.Zero(t, fake.calls)
	assert.Contains(t, env.Text, "Dosage for Paracetamol")
}

func TestComposePrescriptionNeverUsesLLM(t *testing.T) {
	fake := &fakeLLM{reply: "Take 500mg three times a day."}
	in := dosageInput()
	in.Query.DrugName = "amoxicillin"
	in.Tier = classifier.Prescription
	in.Record = clinical.Record{}

	env := NewComposer(fake, Generative, logger.NewNopLogger()).Compose(context.Background(), in)

	assert.Zero(t, fake.calls)
	assert.Contains(t, env.Text, "physician")
	assert.NotContains(t, env.Text, "three times")
}

func TestComposeMissingFieldUsesFixedMessage(t *testing.T) {
	fake := &fakeLLM{reply: "made up"}
	in := dosageInput()
	in.Record = clinical.Record{Usage: "Pain relief."}
	in.Sources = nil

	env := NewComposer(fake, Generative, logger.NewNopLogger()).Compose(context.Background(), in)

	assert.Zero(t, fake.calls)
	assert.Contains(t, env.Text, "Dosage information for Paracetamol is not available from approved sources.")
	assert.NotContains(t, env.Text, "Pain relief")
}

func TestComposeStock(t *testing.T) {
	in := Input{
		Query:    intent.Query{Text: "is amoxil in stock", Intent: intent.StockCheck, DrugName: "amoxil"},
		Tier:     classifier.Prescription,
		Products: []inventory.Product{{Name: "Amoxil", GenericName: "Amoxicillin", DosageForm: "capsule", Strength: "500mg", Stock: 40, Price: 12}},
		Sources:  []string{inventory.SourceLabel},
		Session:  session.Empty(),
	}

	env := NewComposer(nil, Template, logger.NewNopLogger()).Compose(context.Background(), in)

	assert.Contains(t, env.Text, "Amoxil 500mg (generic Amoxicillin, capsule): 40 in stock, 12.00")
	assert.Contains(t, env.Text, "prescription-only")
	assert.Contains(t, env.Text, "Sources: Pharmacy inventory")
}

func TestSuggestIsConservative(t *testing.T) {
	q := intent.Query{Text: "how about ibuprofen?", Intent: intent.Dosage, DrugName: "ibuprofen"}
	prev := session.Empty().Next(session.Update{DrugName: "paracetamol", Intent: "dosage", DosageForm: "tablet", Strength: "500mg", PatientContext: "adult"})

	got := Suggest(q, classifier.OTC, prev)

	require.NotNil(t, got)
	assert.Equal(t, "ibuprofen", got.DrugName())
	assert.Equal(t, "dosage", got.Intent())
	assert.Equal(t, "otc", got.Classification())
	assert.Empty(t, got.DosageForm())
	assert.Empty(t, got.Strength())
	assert.Equal(t, "adult", got.Patient())
	assert.Equal(t, []string{"paracetamol", "ibuprofen"}, got.RecentDrugs)
	assert.Equal(t, "paracetamol", prev.DrugName())
}

func TestSuggestRemembersStatedFacts(t *testing.T) {
	q := intent.Query{Text: "Paracetamol 500mg tablet for adult dosage", Intent: intent.Dosage, DrugName: "paracetamol"}

	got := Suggest(q, classifier.OTC, session.Empty())

	assert.Equal(t, "tablet", got.DosageForm())
	assert.Equal(t, "500mg", got.Strength())
	assert.Equal(t, "adult", got.Patient())
}

func TestComposeListsReferences(t *testing.T) {
	in := dosageInput()
	in.References = []string{"https://dailymed.nlm.nih.gov/dailymed/lookup.cfm?setid=abc", "https://dailymed.nlm.nih.gov/dailymed/lookup.cfm?setid=abc"}

	env := NewComposer(nil, Template, logger.NewNopLogger()).Compose(context.Background(), in)

	assert.Contains(t, env.Text, "References:\n- https://dailymed.nlm.nih.gov/dailymed/lookup.cfm?setid=abc")
	assert.Equal(t, 1, strings.Count(env.Text, "setid=abc"))
	assert.True(t, strings.HasSuffix(env.Text, "Sources: OpenFDA"))
}

func TestComposePrescriptionDropsReferences(t *testing.T) {
	in := dosageInput()
	in.Tier = classifier.Prescription
	in.Record = clinical.Record{}
	in.References = []string{"https://www.google.com/search?q=amoxil+generic+name"}

	env := NewComposer(nil, Template, logger.NewNopLogger()).Compose(context.Background(), in)

	assert.NotContains(t, env.Text, "google.com")
}
