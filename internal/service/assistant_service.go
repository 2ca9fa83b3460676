package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pharmacy-assistant-be/internal/dto"
	"pharmacy-assistant-be/internal/pkg/logger"
	"pharmacy-assistant-be/internal/repository/contract"
	"pharmacy-assistant-be/pkg/assistant/intent"
	"pharmacy-assistant-be/pkg/assistant/pipeline"
	"pharmacy-assistant-be/pkg/assistant/session"
	"pharmacy-assistant-be/pkg/events"

	"github.com/google/uuid"
)

const assistantModule = "ASSISTANT_SERVICE"

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrEmptyQuery      = pipeline.ErrEmptyQuery
)

type IAssistantService interface {
	Query(ctx context.Context, req *dto.AssistantQueryRequest) (*dto.AssistantQueryResponse, error)
	CreateSession(ctx context.Context) (*dto.SessionResponse, error)
	GetSession(ctx context.Context, id string) (*dto.SessionResponse, error)
	DeleteSession(ctx context.Context, id string) error
}

type assistantService struct {
	executor  *pipeline.Executor
	sessions  contract.SessionStore
	publisher IPublisherService
	logger    logger.ILogger
}

func NewAssistantService(
	executor *pipeline.Executor,
	sessions contract.SessionStore,
	publisher IPublisherService,
	log logger.ILogger,
) IAssistantService {
	return &assistantService{
		executor:  executor,
		sessions:  sessions,
		publisher: publisher,
		logger:    log,
	}
}

func (s *assistantService) Query(ctx context.Context, req *dto.AssistantQueryRequest) (*dto.AssistantQueryResponse, error) {
	sess, err := s.sessionFor(ctx, req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := s.executor.Run(ctx, intent.Request{
		Text:     req.Text,
		Intent:   req.Intent,
		DrugName: req.DrugName,
		Needs:    req.Needs,
		Sources:  req.Sources,
	}, sess)
	if err != nil {
		return nil, err
	}

	if req.SessionId != "" && res.Envelope.SuggestedSessionContext != nil {
		if err := s.sessions.Save(ctx, req.SessionId, *res.Envelope.SuggestedSessionContext); err != nil {
			s.logger.Warn(assistantModule, "Failed to save session context", map[string]interface{}{
				"session_id": req.SessionId,
				"error":      err.Error(),
			})
		}
	}

	s.audit(ctx, req.SessionId, res, time.Since(start))
	return &res.Envelope, nil
}

// sessionFor prefers the context sent by the client; a session id only
// fills in when none was sent. Unknown ids start a fresh conversation.
func (s *assistantService) sessionFor(ctx context.Context, req *dto.AssistantQueryRequest) (session.Context, error) {
	if req.SessionContext != nil {
		sc := req.SessionContext.Clone()
		return sc, nil
	}
	if req.SessionId == "" {
		return session.Empty(), nil
	}
	sc, ok, err := s.sessions.Get(ctx, req.SessionId)
	if err != nil {
		return session.Context{}, fmt.Errorf("failed to load session: %w", err)
	}
	if !ok {
		return session.Empty(), nil
	}
	return sc, nil
}

func (s *assistantService) audit(ctx context.Context, sessionId string, res pipeline.Result, latency time.Duration) {
	if s.publisher == nil {
		return
	}
	ev := events.QueryResolved{
		EventId:        uuid.NewString(),
		SessionId:      sessionId,
		Intent:         string(res.Intent),
		DrugName:       res.DrugName,
		Classification: string(res.Classification),
		Outcome:        string(res.Outcome),
		Sources:        res.Envelope.Sources,
		Rules:          res.Rules,
		LatencyMs:      latency.Milliseconds(),
		OccurredAt:     time.Now().UTC(),
	}
	if res.Identity != nil {
		ev.MappedName = res.Identity.MappedName
		ev.IdentityConfidence = res.Identity.Confidence
		ev.Provenance = res.Identity.Provenance
	}

	payload, err := json.Marshal(ev)
	if err == nil {
		err = s.publisher.Publish(ctx, payload)
	}
	if err != nil {
		s.logger.Warn(assistantModule, "Failed to publish audit event", map[string]interface{}{
			"event_id": ev.EventId,
			"error":    err.Error(),
		})
	}
}

func (s *assistantService) CreateSession(ctx context.Context) (*dto.SessionResponse, error) {
	id := uuid.NewString()
	sc := session.Empty()
	if err := s.sessions.Save(ctx, id, sc); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return &dto.SessionResponse{SessionId: id, SessionContext: sc}, nil
}

func (s *assistantService) GetSession(ctx context.Context, id string) (*dto.SessionResponse, error) {
	sc, ok, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &dto.SessionResponse{SessionId: id, SessionContext: sc}, nil
}

func (s *assistantService) DeleteSession(ctx context.Context, id string) error {
	return s.sessions.Delete(ctx, id)
}
