package contract

import (
	"context"

	"pharmacy-assistant-be/pkg/assistant/session"
)

// SessionStore keeps conversation contexts for clients that opt into
// server-side sessions. The pipeline itself never touches it.
type SessionStore interface {
	Save(ctx context.Context, id string, sc session.Context) error
	Get(ctx context.Context, id string) (session.Context, bool, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}
