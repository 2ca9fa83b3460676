package response

import (
	"context"
	"fmt"
	"strings"

	"pharmacy-assistant-be/internal/pkg/logger"
	"pharmacy-assistant-be/pkg/assistant/classifier"
	"pharmacy-assistant-be/pkg/assistant/clinical"
	"pharmacy-assistant-be/pkg/assistant/identity"
	"pharmacy-assistant-be/pkg/assistant/intent"
	"pharmacy-assistant-be/pkg/assistant/inventory"
	"pharmacy-assistant-be/pkg/assistant/safety"
	"pharmacy-assistant-be/pkg/assistant/session"
	"pharmacy-assistant-be/pkg/llm"
)

const module = "RESPONSE_COMPOSER"

type Mode string

const (
	Generative Mode = "generative"
	Template   Mode = "template"
)

// ParseMode defaults to Generative for anything unrecognized.
func ParseMode(s string) Mode {
	if Mode(strings.ToLower(strings.TrimSpace(s))) == Template {
		return Template
	}
	return Generative
}

// Input is everything the composer may ground an answer on.
type Input struct {
	Query    intent.Query
	Tier     classifier.Tier
	Identity identity.Identity
	Record   clinical.Record
	Products []inventory.Product
	Sources  []string
	Facts    safety.Facts
	Session  session.Context

	// References are links shown under the answer: label pages and, for
	// names nothing mapped, a web-search lookup.
	References []string
}

func (in Input) drug() string {
	return in.Query.DrugName
}

func (in Input) title() string {
	name := displayName(in.drug())
	if m := in.Identity.MappedName; m != "" && !strings.EqualFold(m, in.drug()) {
		return fmt.Sprintf("%s (%s)", name, m)
	}
	return name
}

// available reports whether there is anything to answer with.
func (in Input) available() bool {
	switch in.Query.Intent {
	case intent.StockCheck, intent.Alternatives:
		return len(in.Products) > 0
	}
	return !in.Record.AllMissing(in.Query.InformationHint())
}

type Composer struct {
	llm    llm.LLMProvider
	mode   Mode
	logger logger.ILogger
}

func NewComposer(provider llm.LLMProvider, mode Mode, log logger.ILogger) *Composer {
	return &Composer{llm: provider, mode: mode, logger: log}
}

// Compose never fails; generative problems fall back to templates.
func (c *Composer) Compose(ctx context.Context, in Input) Envelope {
	suggested := Suggest(in.Query, in.Tier, in.Session)

	text := ""
	if c.useGenerative(in) {
		out, err := c.generate(ctx, in)
		if err != nil {
			c.logger.Warn(module, "Generative composition failed, using template", map[string]interface{}{
				"drug":  in.drug(),
				"error": err.Error(),
			})
		}
		text = out
	}
	if strings.TrimSpace(text) == "" {
		text = composeTemplate(in)
	}
	if in.Tier != classifier.Prescription {
		text = WithReferences(text, in.References)
	}
	return Finalize(text, in.Sources, suggested)
}

// Prescription answers and answers with nothing to ground on always use
// templates so the model never has room to improvise clinical content.
func (c *Composer) useGenerative(in Input) bool {
	return c.mode == Generative && c.llm != nil &&
		in.Tier != classifier.Prescription && in.available()
}

const composePrompt = `You are a pharmacy assistant answering a pharmacy staff member.
Answer ONLY from the data below. Do not add any medical claim that is not in the data.
If a requested item is missing, say exactly: "%s"
Reply in plain text without markdown and without a sources line.

Question: %s
Drug: %s
Generic name: %s
Classification: %s
Patient details: %s

Clinical data:
%s

Inventory:
%s`

func (c *Composer) generate(ctx context.Context, in Input) (string, error) {
	prompt := fmt.Sprintf(composePrompt,
		fmt.Sprintf(notAvailableFormat, "<item>", displayName(in.drug())),
		in.Query.Text,
		in.drug(),
		orDash(in.Identity.MappedName),
		in.Tier,
		orDash(describeFacts(in.Facts)),
		clinicalBlock(in),
		inventoryBlock(in.Products),
	)

	out, err := c.llm.Chat(ctx, []llm.Message{
		{Role: "system", Content: "You never invent dosages, indications or side effects."},
		{Role: "user", Content: prompt},
	}, llm.WithTemperature(0.1))
	if err != nil {
		return "", fmt.Errorf("generative composition: %w", err)
	}
	return strings.TrimSpace(out), nil
}

func clinicalBlock(in Input) string {
	var lines []string
	for _, f := range clinical.RequestedFields(in.Query.InformationHint()) {
		lines = append(lines, fmt.Sprintf("- %s: %s", fieldTitle(f), orDash(in.Record.Get(f))))
	}
	return strings.Join(lines, "\n")
}

func inventoryBlock(products []inventory.Product) string {
	if len(products) == 0 {
		return "- none"
	}
	lines := make([]string, 0, len(products))
	for _, p := range products {
		lines = append(lines, "- "+p.Line())
	}
	return strings.Join(lines, "\n")
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
