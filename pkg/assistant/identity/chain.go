package identity

import (
	"context"
	"strings"
	"time"

	"pharmacy-assistant-be/internal/pkg/logger"
)

const module = "IDENTITY_CHAIN"

const (
	// AcceptConfidence stops the chain.
	AcceptConfidence = 0.5
	// LowConfidence lets the web-search fallback attach a lookup link.
	LowConfidence = 0.4
)

// Identity is a local drug name mapped to an internationally recognized one.
type Identity struct {
	RawName    string   `json:"rawName"`
	MappedName string   `json:"mappedName"`
	Confidence float64  `json:"confidence"`
	Provenance []string `json:"provenance"`
}

// provenance entries read "<label> (<detail>)"
const (
	rxNormLabel    = "RxNorm"
	webSearchLabel = "Web search"
)

func provenanceLabel(entry string) string {
	if i := strings.Index(entry, " ("); i > 0 {
		return entry[:i]
	}
	return entry
}

func provenanceDetail(entry string) string {
	i := strings.Index(entry, " (")
	if i < 0 || !strings.HasSuffix(entry, ")") {
		return ""
	}
	return entry[i+2 : len(entry)-1]
}

// SourceLabels names the terminology services that vouched for the mapping,
// in the form shown to users.
func (id Identity) SourceLabels() []string {
	var out []string
	for _, p := range id.Provenance {
		if provenanceLabel(p) == rxNormLabel {
			out = append(out, rxNormLabel)
		}
	}
	return out
}

// SearchLink is the web-search lookup attached to a low-confidence mapping,
// or "".
func (id Identity) SearchLink() string {
	if id.Confidence >= LowConfidence {
		return ""
	}
	for _, p := range id.Provenance {
		if provenanceLabel(p) == webSearchLabel {
			return provenanceDetail(p)
		}
	}
	return ""
}

// Candidate is what a strategy sees: the raw name, hints from inventory and
// the identity merged so far.
type Candidate struct {
	RawName     string
	BrandHint   string
	GenericHint string
	Current     Identity
	// AllowWebSearch gates strategies that point users at the open web.
	AllowWebSearch bool
}

// Partial is one strategy's contribution. A zero Partial contributes nothing.
type Partial struct {
	MappedName string
	Confidence float64
	Provenance string
}

// Strategy is one way of mapping a name.
type Strategy interface {
	Name() string
	Resolve(ctx context.Context, c Candidate) (Partial, error)
}

// Chain runs strategies in order until one reaches AcceptConfidence.
type Chain struct {
	strategies []Strategy
	timeout    time.Duration
	logger     logger.ILogger
}

func NewChain(log logger.ILogger, timeout time.Duration, strategies ...Strategy) *Chain {
	if timeout <= 0 {
		timeout = 12 * time.Second
	}
	return &Chain{strategies: strategies, timeout: timeout, logger: log}
}

// Resolve never fails: when nothing maps the name, the raw name is kept with
// zero confidence.
func (c *Chain) Resolve(ctx context.Context, rawName, brandHint, genericHint string, allowWebSearch bool) Identity {
	id := Identity{
		RawName:    rawName,
		MappedName: strings.ToLower(strings.TrimSpace(rawName)),
		Provenance: []string{},
	}

	for _, s := range c.strategies {
		if id.Confidence >= AcceptConfidence {
			break
		}

		cand := Candidate{
			RawName:        rawName,
			BrandHint:      brandHint,
			GenericHint:    genericHint,
			Current:        id,
			AllowWebSearch: allowWebSearch,
		}

		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		p, err := s.Resolve(callCtx, cand)
		cancel()
		if err != nil {
			c.logger.Warn(module, "Identity strategy failed", map[string]interface{}{
				"strategy": s.Name(),
				"name":     rawName,
				"error":    err.Error(),
			})
			continue
		}
		id = merge(id, p)
	}

	c.logger.Debug(module, "Identity resolved", map[string]interface{}{
		"raw":        id.RawName,
		"mapped":     id.MappedName,
		"confidence": id.Confidence,
	})
	return id
}

// merge adopts a partial's name when it is at least as confident as what we
// have. Provenance only grows.
func merge(id Identity, p Partial) Identity {
	name := strings.ToLower(strings.TrimSpace(p.MappedName))
	if name != "" && p.Confidence >= id.Confidence {
		id.MappedName = name
		id.Confidence = clamp(p.Confidence)
	}
	if p.Provenance != "" {
		id.Provenance = append(append([]string(nil), id.Provenance...), p.Provenance)
	}
	return id
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
