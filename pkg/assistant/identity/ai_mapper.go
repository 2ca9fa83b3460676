package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"pharmacy-assistant-be/pkg/llm"
)

const mappingPrompt = `You map pharmacy product names to their international generic (INN) name.
Product name: %s
Brand hint: %s
Generic hint from inventory: %s

Reply with JSON only, no other text:
{"generic_name": "<lowercase generic name, or empty if unknown>", "confidence": <number between 0 and 1>}`

// AIMapper asks an LLM for the generic name. Without a provider it is a no-op.
type AIMapper struct {
	llm llm.LLMProvider
}

func NewAIMapper(provider llm.LLMProvider) *AIMapper {
	return &AIMapper{llm: provider}
}

func (m *AIMapper) Name() string { return "ai_mapper" }

type mappingReply struct {
	GenericName string  `json:"generic_name"`
	Confidence  float64 `json:"confidence"`
}

func (m *AIMapper) Resolve(ctx context.Context, c Candidate) (Partial, error) {
	if m == nil || m.llm == nil {
		return Partial{}, nil
	}

	prompt := fmt.Sprintf(mappingPrompt, c.RawName, orNone(c.BrandHint), orNone(c.GenericHint))
	raw, err := m.llm.Generate(ctx, prompt, llm.WithTemperature(0), llm.WithMaxTokens(80))
	if err != nil {
		return Partial{}, fmt.Errorf("ai mapping: %w", err)
	}

	body := llm.ExtractJSON(raw)
	if body == "" {
		return Partial{}, fmt.Errorf("ai mapping: no JSON in reply")
	}
	var reply mappingReply
	if err := json.Unmarshal([]byte(body), &reply); err != nil {
		return Partial{}, fmt.Errorf("ai mapping: decode reply: %w", err)
	}

	name := strings.TrimSpace(reply.GenericName)
	if name == "" {
		return Partial{}, nil
	}
	return Partial{
		MappedName: name,
		Confidence: reply.Confidence,
		Provenance: "AI name mapping (" + m.llm.Label() + ")",
	}, nil
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "none"
	}
	return s
}
