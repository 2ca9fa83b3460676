package clinical

import (
	"context"
	"time"

	"pharmacy-assistant-be/internal/pkg/logger"
	"pharmacy-assistant-be/pkg/assistant/intent"
)

const module = "CLINICAL_AGGREGATOR"

// Result is the merged record plus the labels of the sources that contributed.
type Result struct {
	Record  Record
	Sources []string
}

// Aggregator queries providers in priority order. A later provider is only
// asked when every requested field is still empty, and it can only fill gaps.
type Aggregator struct {
	providers []Provider
	timeout   time.Duration
	logger    logger.ILogger
}

func NewAggregator(log logger.ILogger, timeout time.Duration, providers ...Provider) *Aggregator {
	if timeout <= 0 {
		timeout = 12 * time.Second
	}
	return &Aggregator{providers: providers, timeout: timeout, logger: log}
}

func (a *Aggregator) Aggregate(ctx context.Context, drugName string, hint intent.Hint) Result {
	var res Result
	for i, p := range a.providers {
		if i > 0 && !res.Record.AllMissing(hint) {
			break
		}

		rec, err := a.fetch(ctx, p, drugName, hint)
		if err != nil {
			a.logger.Warn(module, "Clinical provider failed", map[string]interface{}{
				"provider": p.Name(),
				"drug":     drugName,
				"error":    err.Error(),
			})
			continue
		}
		if rec.IsEmpty() {
			a.logger.Debug(module, "Clinical provider returned no data", map[string]interface{}{
				"provider": p.Name(),
				"drug":     drugName,
			})
			continue
		}

		res.Record = res.Record.Merge(rec)
		res.Sources = appendUnique(res.Sources, p.Name())
	}
	return res
}

func (a *Aggregator) fetch(ctx context.Context, p Provider, drugName string, hint intent.Hint) (Record, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	return p.Fetch(callCtx, drugName, hint)
}
