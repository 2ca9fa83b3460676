package memory

import (
	"context"
	"time"

	"pharmacy-assistant-be/internal/repository/contract"
	"pharmacy-assistant-be/pkg/assistant/session"

	"github.com/patrickmn/go-cache"
)

type SessionRepository struct {
	cache *cache.Cache
}

var _ contract.SessionStore = (*SessionRepository)(nil)

// NewSessionRepository purges expired items every 10 minutes.
func NewSessionRepository(ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SessionRepository{
		cache: cache.New(ttl, 10*time.Minute),
	}
}

func (r *SessionRepository) Save(_ context.Context, id string, sc session.Context) error {
	r.cache.Set(id, sc.Clone(), cache.DefaultExpiration)
	return nil
}

func (r *SessionRepository) Get(_ context.Context, id string) (session.Context, bool, error) {
	if x, found := r.cache.Get(id); found {
		return x.(session.Context).Clone(), true, nil
	}
	return session.Context{}, false, nil
}

func (r *SessionRepository) Delete(_ context.Context, id string) error {
	r.cache.Delete(id)
	return nil
}

func (r *SessionRepository) Ping(context.Context) error {
	return nil
}
