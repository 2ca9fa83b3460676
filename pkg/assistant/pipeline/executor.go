package pipeline

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"pharmacy-assistant-be/internal/pkg/logger"
	"pharmacy-assistant-be/pkg/assistant/classifier"
	"pharmacy-assistant-be/pkg/assistant/clinical"
	"pharmacy-assistant-be/pkg/assistant/identity"
	"pharmacy-assistant-be/pkg/assistant/intent"
	"pharmacy-assistant-be/pkg/assistant/inventory"
	"pharmacy-assistant-be/pkg/assistant/response"
	"pharmacy-assistant-be/pkg/assistant/safety"
	"pharmacy-assistant-be/pkg/assistant/session"
)

const module = "ASSISTANT_PIPELINE"

const (
	inventoryLimit    = 5
	alternativesLimit = 10
)

var ErrEmptyQuery = errors.New("query has neither text nor drug name")

// Outcome says how a run ended.
type Outcome string

const (
	OutcomeOutOfScope       Outcome = "out_of_scope"
	OutcomeNeedDrug         Outcome = "need_drug"
	OutcomePrescription     Outcome = "prescription_block"
	OutcomeInteractionAlert Outcome = "interaction_alert"
	OutcomeClarification    Outcome = "clarification"
	OutcomeAnswered         Outcome = "answered"
)

// Result is the envelope plus what the run decided along the way.
type Result struct {
	Envelope       response.Envelope
	Outcome        Outcome
	Intent         intent.Intent
	DrugName       string
	Classification classifier.Tier
	Identity       *identity.Identity
	Rules          []string
}

// Deps are the collaborators of an Executor. Inventory, Identity and
// Clinical may be nil; the corresponding steps are then skipped.
type Deps struct {
	Resolver   *intent.Resolver
	Classifier *classifier.Classifier
	Inventory  inventory.Lookup
	Identity   *identity.Chain
	Clinical   *clinical.Aggregator
	Composer   *response.Composer
	Logger     logger.ILogger
}

// Executor holds only immutable collaborators and is safe for concurrent use.
type Executor struct {
	resolver   *intent.Resolver
	classifier *classifier.Classifier
	inventory  inventory.Lookup
	identity   *identity.Chain
	clinical   *clinical.Aggregator
	composer   *response.Composer
	logger     logger.ILogger
	tracer     trace.Tracer
}

func NewExecutor(d Deps) *Executor {
	if d.Resolver == nil {
		d.Resolver = intent.NewResolver()
	}
	if d.Classifier == nil {
		d.Classifier = classifier.New(classifier.Prescription)
	}
	if d.Logger == nil {
		d.Logger = logger.NewNopLogger()
	}
	if d.Composer == nil {
		d.Composer = response.NewComposer(nil, response.Template, d.Logger)
	}
	return &Executor{
		resolver:   d.Resolver,
		classifier: d.Classifier,
		inventory:  d.Inventory,
		identity:   d.Identity,
		clinical:   d.Clinical,
		composer:   d.Composer,
		logger:     d.Logger,
		tracer:     otel.Tracer("pharmacy-assistant/pipeline"),
	}
}

// run carries per-request state through the stages.
type run struct {
	query    intent.Query
	sess     session.Context
	tier     classifier.Tier
	products []inventory.Product
	identity *identity.Identity
}

func (e *Executor) Run(ctx context.Context, req intent.Request, sess session.Context) (Result, error) {
	if strings.TrimSpace(req.Text) == "" && strings.TrimSpace(req.DrugName) == "" {
		return Result{}, ErrEmptyQuery
	}

	ctx, span := e.tracer.Start(ctx, "assistant.pipeline")
	defer span.End()

	res := e.resolver.Resolve(req, sess)
	span.SetAttributes(
		attribute.String("assistant.intent", string(res.Query.Intent)),
		attribute.String("assistant.drug", res.Query.DrugName),
	)

	if res.Terminal != nil {
		outcome := OutcomeNeedDrug
		if res.Terminal.Kind == intent.TerminalOutOfScope {
			outcome = OutcomeOutOfScope
		}
		next := sess.Clone()
		return Result{
			Envelope: response.Finalize(res.Terminal.Text, nil, &next),
			Outcome:  outcome,
			Intent:   res.Query.Intent,
			Rules:    res.Rules,
		}, nil
	}

	r := &run{query: res.Query, sess: sess}
	r.products = e.searchInventory(ctx, r.query, r.query.DrugName, inventoryLimit)
	r.tier = e.classify(r)
	span.SetAttributes(attribute.String("assistant.classification", string(r.tier)))

	var result Result
	switch r.query.Intent {
	case intent.StockCheck:
		result = e.answerStock(ctx, r)
	case intent.Alternatives:
		result = e.answerAlternatives(ctx, r)
	default:
		result = e.answerClinical(ctx, r)
	}

	result.Intent = r.query.Intent
	result.DrugName = r.query.DrugName
	result.Classification = r.tier
	result.Identity = r.identity
	result.Rules = res.Rules
	span.SetAttributes(attribute.String("assistant.outcome", string(result.Outcome)))

	e.logger.Info(module, "Query resolved", map[string]interface{}{
		"intent":         result.Intent,
		"drug":           result.DrugName,
		"classification": result.Classification,
		"outcome":        result.Outcome,
	})
	return result, nil
}

// classify prefers the best inventory row as evidence; a bare mention is the
// fallback.
func (e *Executor) classify(r *run) classifier.Tier {
	if len(r.products) > 0 {
		return e.classifier.Classify(r.products[0].Evidence())
	}
	return e.classifier.ClassifyMention(r.query.DrugName, "")
}

// reclassify runs once the identity chain has a generic name.
func (e *Executor) reclassify(r *run) classifier.Tier {
	if r.identity == nil || r.identity.Confidence < identity.AcceptConfidence {
		return r.tier
	}
	if len(r.products) > 0 {
		ev := r.products[0].Evidence()
		if ev.GenericName == "" {
			ev.GenericName = r.identity.MappedName
		}
		return e.classifier.Classify(ev)
	}
	return e.classifier.ClassifyMention(r.query.DrugName, r.identity.MappedName)
}

func (e *Executor) answerClinical(ctx context.Context, r *run) Result {
	decision := safety.Check(r.query, r.tier, r.sess)
	if decision.Blocked() {
		return e.blocked(r, decision)
	}

	var agg clinical.Result
	if r.query.HasSource(intent.ExternalDB) && r.query.WantsClinicalContent() {
		r.identity = e.resolveIdentity(ctx, r, r.query.DrugName)
		agg = e.aggregate(ctx, r)

		if tier := e.reclassify(r); tier != r.tier {
			e.logger.Info(module, "Classification changed with better evidence", map[string]interface{}{
				"drug": r.query.DrugName,
				"from": r.tier,
				"to":   tier,
			})
			r.tier = tier
		}
	}

	rec := safety.Redact(agg.Record, r.tier)
	sources := agg.Sources
	refs := rec.Citations
	if r.identity != nil {
		sources = append(append([]string(nil), sources...), r.identity.SourceLabels()...)
		if link := r.identity.SearchLink(); link != "" {
			refs = append(append([]string(nil), refs...), link)
		}
	}
	var products []inventory.Product
	if r.tier == classifier.Prescription {
		sources = nil
		refs = nil
		if len(r.products) > 0 {
			products = r.products
			sources = []string{inventory.SourceLabel}
		}
	}

	outcome := OutcomeAnswered
	if r.tier == classifier.Prescription {
		outcome = OutcomePrescription
	}
	return Result{
		Outcome: outcome,
		Envelope: e.composer.Compose(ctx, response.Input{
			Query:    r.query,
			Tier:     r.tier,
			Identity: identityOrRaw(r),
			Record:   rec,
			Products: products,
			Sources:  sources,
			Facts:    decision.Facts,
			Session:  r.sess,

			References: refs,
		}),
	}
}

func (e *Executor) blocked(r *run, d safety.Decision) Result {
	var sources []string
	outcome := OutcomeClarification
	switch d.Outcome {
	case safety.PrescriptionBlock:
		outcome = OutcomePrescription
	case safety.InteractionAlert:
		outcome = OutcomeInteractionAlert
		sources = []string{safety.InteractionSource}
	}
	return Result{
		Outcome:  outcome,
		Envelope: response.Finalize(d.Text, sources, response.Suggest(r.query, r.tier, r.sess)),
	}
}

func (e *Executor) answerStock(ctx context.Context, r *run) Result {
	var sources []string
	if len(r.products) > 0 {
		sources = []string{inventory.SourceLabel}
	}
	return Result{
		Outcome: OutcomeAnswered,
		Envelope: e.composer.Compose(ctx, response.Input{
			Query:    r.query,
			Tier:     r.tier,
			Products: r.products,
			Sources:  sources,
			Session:  r.sess,
		}),
	}
}

func (e *Executor) answerAlternatives(ctx context.Context, r *run) Result {
	generic := ""
	if len(r.products) > 0 {
		generic = r.products[0].GenericName
	}
	if r.query.HasSource(intent.ExternalDB) {
		r.identity = e.resolveIdentity(ctx, r, r.query.DrugName)
		if r.identity != nil && r.identity.Confidence >= identity.AcceptConfidence {
			generic = r.identity.MappedName
		}
	}
	if generic == "" {
		generic = r.query.DrugName
	}

	var alts []inventory.Product
	for _, p := range e.searchInventory(ctx, r.query, generic, alternativesLimit) {
		if strings.EqualFold(p.Name, r.query.DrugName) || strings.EqualFold(p.BrandName, r.query.DrugName) {
			continue
		}
		alts = append(alts, p)
	}

	var sources []string
	if len(alts) > 0 {
		sources = []string{inventory.SourceLabel}
		if r.identity != nil && r.identity.Confidence >= identity.AcceptConfidence {
			sources = append(sources, r.identity.SourceLabels()...)
		}
	}
	id := identityOrRaw(r)
	id.MappedName = generic
	return Result{
		Outcome: OutcomeAnswered,
		Envelope: e.composer.Compose(ctx, response.Input{
			Query:    r.query,
			Tier:     r.tier,
			Identity: id,
			Products: alts,
			Sources:  sources,
			Session:  r.sess,
		}),
	}
}

func (e *Executor) searchInventory(ctx context.Context, q intent.Query, term string, limit int) []inventory.Product {
	if e.inventory == nil || !q.HasSource(intent.InternalDB) || strings.TrimSpace(term) == "" {
		return nil
	}
	ctx, span := e.tracer.Start(ctx, "assistant.inventory")
	defer span.End()

	products, err := e.inventory.Search(ctx, term, limit)
	if err != nil {
		span.RecordError(err)
		e.logger.Warn(module, "Inventory lookup failed", map[string]interface{}{
			"term":  term,
			"error": err.Error(),
		})
		return nil
	}
	return products
}

func (e *Executor) resolveIdentity(ctx context.Context, r *run, name string) *identity.Identity {
	if e.identity == nil {
		return nil
	}
	ctx, span := e.tracer.Start(ctx, "assistant.identity")
	defer span.End()

	var brand, generic string
	if len(r.products) > 0 {
		brand = r.products[0].BrandName
		generic = r.products[0].GenericName
	}
	id := e.identity.Resolve(ctx, name, brand, generic, r.query.HasSource(intent.WebSearch))
	span.SetAttributes(
		attribute.String("assistant.identity.mapped", id.MappedName),
		attribute.Float64("assistant.identity.confidence", id.Confidence),
	)
	return &id
}

func (e *Executor) aggregate(ctx context.Context, r *run) clinical.Result {
	if e.clinical == nil {
		return clinical.Result{}
	}
	ctx, span := e.tracer.Start(ctx, "assistant.clinical")
	defer span.End()

	name := r.query.DrugName
	if r.identity != nil && r.identity.MappedName != "" {
		name = r.identity.MappedName
	}
	res := e.clinical.Aggregate(ctx, name, r.query.InformationHint())
	span.SetAttributes(attribute.StringSlice("assistant.clinical.sources", res.Sources))
	return res
}

func identityOrRaw(r *run) identity.Identity {
	if r.identity != nil {
		return *r.identity
	}
	return identity.Identity{RawName: r.query.DrugName, MappedName: r.query.DrugName}
}
