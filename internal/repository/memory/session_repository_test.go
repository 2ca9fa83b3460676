package memory

import (
	"context"
	"testing"
	"time"

	"pharmacy-assistant-be/pkg/assistant/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository(time.Minute)
	sc := session.Empty().Next(session.Update{DrugName: "paracetamol", Intent: "dosage"})

	require.NoError(t, repo.Save(ctx, "s1", sc))
	got, ok, err := repo.Get(ctx, "s1")

	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "paracetamol", got.DrugName())

	// stored copies are not aliased
	got.RecentDrugs[0] = "changed"
	again, _, _ := repo.Get(ctx, "s1")
	assert.Equal(t, []string{"paracetamol"}, again.RecentDrugs)
}

func TestSessionRepositoryMissingAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository(time.Minute)

	_, ok, err := repo.Get(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Save(ctx, "s1", session.Empty()))
	require.NoError(t, repo.Delete(ctx, "s1"))
	_, ok, _ = repo.Get(ctx, "s1")
	assert.False(t, ok)
}

func TestSessionRepositoryExpires(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository(20 * time.Millisecond)
	require.NoError(t, repo.Save(ctx, "s1", session.Empty()))

	assert.Eventually(t, func() bool {
		_, ok, _ := repo.Get(ctx, "s1")
		return !ok
	}, time.Second, 10*time.Millisecond)
}
