package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"pharmacy-assistant-be/internal/dto"
	"pharmacy-assistant-be/internal/entity"
	"pharmacy-assistant-be/internal/pkg/logger"
	"pharmacy-assistant-be/internal/repository/contract"
	"pharmacy-assistant-be/internal/repository/memory"
	"pharmacy-assistant-be/internal/repository/specification"
	"pharmacy-assistant-be/internal/repository/unitofwork"
	"pharmacy-assistant-be/pkg/assistant/classifier"
	"pharmacy-assistant-be/pkg/assistant/identity"
	"pharmacy-assistant-be/pkg/assistant/pipeline"
	"pharmacy-assistant-be/pkg/assistant/session"
	"pharmacy-assistant-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedPublish struct {
	mu       sync.Mutex
	payloads [][]byte
	err      error
}

func (c *capturedPublish) Publish(_ context.Context, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.payloads = append(c.payloads, payload)
	return c.err
}

func newAssistant(pub IPublisherService) (IAssistantService, *memory.SessionRepository) {
	store := memory.NewSessionRepository(time.Minute)
	exec := pipeline.NewExecutor(pipeline.Deps{Logger: logger.NewNopLogger()})
	return NewAssistantService(exec, store, pub, logger.NewNopLogger()), store
}

func TestQueryPersistsSuggestedContext(t *testing.T) {
	ctx := context.Background()
	pub := &capturedPublish{}
	svc, store := newAssistant(pub)
	id := uuid.NewString()

	res, err := svc.Query(ctx, &dto.AssistantQueryRequest{Text: "paracetamol dosage for a child", SessionId: id})

	require.NoError(t, err)
	assert.Contains(t, res.Text, "dosage form")
	saved, ok, err := store.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "paracetamol", saved.DrugName())
	assert.Equal(t, "child", saved.Patient())

	require.Len(t, pub.payloads, 1)
	var ev events.QueryResolved
	require.NoError(t, json.Unmarshal(pub.payloads[0], &ev))
	assert.Equal(t, id, ev.SessionId)
	assert.Equal(t, "dosage", ev.Intent)
	assert.Equal(t, string(pipeline.OutcomeClarification), ev.Outcome)
}

func TestQueryLoadsStoredContext(t *testing.T) {
	ctx := context.Background()
	svc, store := newAssistant(nil)
	id := uuid.NewString()
	require.NoError(t, store.Save(ctx, id, session.Empty().Next(session.Update{DrugName: "paracetamol", Intent: "dosage"})))

	res, err := svc.Query(ctx, &dto.AssistantQueryRequest{Text: "how about ibuprofen?", SessionId: id})

	require.NoError(t, err)
	require.NotNil(t, res.SuggestedSessionContext)
	assert.Equal(t, "ibuprofen", res.SuggestedSessionContext.DrugName())
	assert.Equal(t, "dosage", res.SuggestedSessionContext.Intent())
}

func TestQueryPrefersClientContext(t *testing.T) {
	ctx := context.Background()
	svc, store := newAssistant(nil)
	id := uuid.NewString()
	require.NoError(t, store.Save(ctx, id, session.Empty().Next(session.Update{DrugName: "amoxicillin", Intent: "dosage"})))
	client := session.Empty().Next(session.Update{DrugName: "paracetamol", Intent: "dosage"})

	res, err := svc.Query(ctx, &dto.AssistantQueryRequest{Text: "how about ibuprofen?", SessionId: id, SessionContext: &client})

	require.NoError(t, err)
	assert.Equal(t, []string{"paracetamol", "ibuprofen"}, res.SuggestedSessionContext.RecentDrugs)
}

func TestQueryAuditCarriesIdentityProvenance(t *testing.T) {
	pub := &capturedPublish{}
	log := logger.NewNopLogger()
	exec := pipeline.NewExecutor(pipeline.Deps{
		Classifier: classifier.New(classifier.OTC),
		Identity:   identity.NewChain(log, time.Second, identity.NewWebSearch("")),
		Logger:     log,
	})
	svc := NewAssistantService(exec, memory.NewSessionRepository(time.Minute), pub, log)

	_, err := svc.Query(context.Background(), &dto.AssistantQueryRequest{Text: "Zyxoflam 20mg tablet dosage for adult"})

	require.NoError(t, err)
	require.Len(t, pub.payloads, 1)
	var ev events.QueryResolved
	require.NoError(t, json.Unmarshal(pub.payloads[0], &ev))
	assert.Equal(t, "zyxoflam", ev.MappedName)
	require.Len(t, ev.Provenance, 1)
	assert.Contains(t, ev.Provenance[0], "q=zyxoflam+generic+name")
}

func TestQueryAuditFailureIsNotFatal(t *testing.T) {
	svc, _ := newAssistant(&capturedPublish{err: errors.New("bus down")})

	res, err := svc.Query(context.Background(), &dto.AssistantQueryRequest{Text: "hello"})

	require.NoError(t, err)
	assert.NotEmpty(t, res.Text)
}

func TestQueryEmpty(t *testing.T) {
	svc, _ := newAssistant(nil)

	_, err := svc.Query(context.Background(), &dto.AssistantQueryRequest{Text: " "})

	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAssistant(nil)

	created, err := svc.CreateSession(ctx)
	require.NoError(t, err)
	_, err = uuid.Parse(created.SessionId)
	require.NoError(t, err)

	got, err := svc.GetSession(ctx, created.SessionId)
	require.NoError(t, err)
	assert.Empty(t, got.SessionContext.RecentDrugs)

	require.NoError(t, svc.DeleteSession(ctx, created.SessionId))
	_, err = svc.GetSession(ctx, created.SessionId)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []string
}

func (l *recordingLogger) record(level, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, level+": "+message)
}

func (l *recordingLogger) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.entries...)
}

func (l *recordingLogger) Debug(_, m string, _ map[string]interface{}) { l.record("debug", m) }
func (l *recordingLogger) Info(_, m string, _ map[string]interface{})  { l.record("info", m) }
func (l *recordingLogger) Warn(_, m string, _ map[string]interface{})  { l.record("warn", m) }
func (l *recordingLogger) Error(_, m string, _ map[string]interface{}) { l.record("error", m) }
func (l *recordingLogger) Sync() error                                 { return nil }

type fakeForwarder struct {
	mu   sync.Mutex
	seen []events.Event
	err  error
}

func (f *fakeForwarder) Publish(_ context.Context, ev events.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, ev)
	return f.err
}

func (f *fakeForwarder) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.seen)
}

func TestAuditConsumerLogsAndForwards(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	auditLog := &recordingLogger{}
	fwd := &fakeForwarder{err: errors.New("nats down")}
	require.NoError(t, NewConsumerService(pubSub, AuditTopic, auditLog, fwd).Consume(ctx))

	pub := NewPublisherService(AuditTopic, pubSub)
	payload, _ := json.Marshal(events.QueryResolved{EventId: "e1", Intent: "dosage", Outcome: "answered"})
	require.NoError(t, pub.Publish(ctx, payload))
	require.NoError(t, pub.Publish(ctx, []byte("not json")))

	assert.Eventually(t, func() bool { return len(auditLog.snapshot()) == 3 }, time.Second, 10*time.Millisecond)
	assert.ElementsMatch(t, []string{
		"info: Query resolved",
		"warn: Failed to forward audit event",
		"error: Dropping malformed audit message",
	}, auditLog.snapshot())
	assert.Equal(t, 1, fwd.count())
}

type fakeProductRepo struct {
	specs []specification.Specification
	rows  []*entity.Product
	err   error
}

func (f *fakeProductRepo) Create(context.Context, *entity.Product) error { return nil }
func (f *fakeProductRepo) Count(context.Context, ...specification.Specification) (int64, error) {
	return int64(len(f.rows)), nil
}
func (f *fakeProductRepo) FindAll(_ context.Context, specs ...specification.Specification) ([]*entity.Product, error) {
	f.specs = specs
	return f.rows, f.err
}

type fakeUoW struct {
	unitofwork.UnitOfWork
	products *fakeProductRepo
}

func (u fakeUoW) ProductRepository() contract.ProductRepository { return u.products }

type fakeFactory struct{ uow fakeUoW }

func (f fakeFactory) NewUnitOfWork(context.Context) unitofwork.UnitOfWork { return f.uow }

func TestInventorySearch(t *testing.T) {
	repo := &fakeProductRepo{rows: []*entity.Product{{Id: uuid.New(), Name: "Biogesic", GenericName: "Paracetamol", CategoryName: "Analgesics", Stock: 120}}}
	svc := NewInventoryService(fakeFactory{uow: fakeUoW{products: repo}})

	got, err := svc.Search(context.Background(), " biogesic ", 0)

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Biogesic", got[0].Name)
	assert.Equal(t, "Analgesics", got[0].CategoryName)
	require.NotEmpty(t, repo.specs)
	assert.Equal(t, specification.NameOrGenericILike{Term: "biogesic"}, repo.specs[0])
	assert.Equal(t, specification.Pagination{Limit: defaultInventoryLimit}, repo.specs[len(repo.specs)-1])
}

func TestInventorySearchErrors(t *testing.T) {
	repo := &fakeProductRepo{err: errors.New("connection refused")}
	svc := NewInventoryService(fakeFactory{uow: fakeUoW{products: repo}})

	_, err := svc.Search(context.Background(), "biogesic", 5)
	assert.ErrorContains(t, err, "connection refused")

	got, err := svc.Search(context.Background(), "  ", 5)
	assert.NoError(t, err)
	assert.Nil(t, got)
}
