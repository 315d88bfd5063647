package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/telegramsouls/server/internal/game/session"
	"github.com/telegramsouls/server/internal/storage/postgres"
	"github.com/telegramsouls/server/internal/testutil"
)

func newTestRepo(t *testing.T) *postgres.SessionRepository {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	pc := testutil.NewPostgresContainer(t)
	pc.ApplyMigrations(t)
	return postgres.NewSessionRepository(pc.RawPool)
}

func TestSessionRepository_ReplaceAllAndLoadAll(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	err := repo.ReplaceAll(ctx, []session.Session{
		{ID: 2, Name: "Bob", RoomID: "chapel", LastMessageID: 9},
		{ID: 1, Name: "Alice", RoomID: "village_square", LastMessageID: 4},
	})
	require.NoError(t, err)

	records, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// LoadAll orders by id regardless of write order.
	assert.Equal(t, int64(1), records[0].ID)
	assert.Equal(t, "Alice", records[0].Name)
	assert.Equal(t, "village_square", records[0].RoomID)
	assert.Equal(t, int64(4), records[0].LastMessageID)
	assert.False(t, records[0].UpdatedAt.IsZero())

	assert.Equal(t, int64(2), records[1].ID)
	assert.Equal(t, "Bob", records[1].Name)
}

func TestSessionRepository_ReplaceAllOverwrites(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.ReplaceAll(ctx, []session.Session{
		{ID: 1, Name: "Alice", RoomID: "village_square"},
		{ID: 2, Name: "Bob", RoomID: "chapel"},
	}))
	require.NoError(t, repo.ReplaceAll(ctx, []session.Session{
		{ID: 3, Name: "Carol", RoomID: "old_gate"},
	}))

	records, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Carol", records[0].Name)
}

func TestSessionRepository_ReplaceAllEmptyClears(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.ReplaceAll(ctx, []session.Session{
		{ID: 1, Name: "Alice", RoomID: "village_square"},
	}))
	require.NoError(t, repo.ReplaceAll(ctx, nil))

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	records, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSnapshotter_PersistsPeriodically(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	storage := session.NewStorage("village_square")
	_, err := storage.Create(1, "Alice")
	require.NoError(t, err)

	snap := postgres.NewSnapshotter(repo, storage, 50*time.Millisecond, zaptest.NewLogger(t))
	go func() { _ = snap.Start() }()

	require.Eventually(t, func() bool {
		n, err := repo.Count(ctx)
		return err == nil && n == 1
	}, 5*time.Second, 25*time.Millisecond, "snapshot never written")

	// A session created after the last tick is flushed by the final write on
	// Stop.
	_, err = storage.Create(2, "Bob")
	require.NoError(t, err)
	snap.Stop()

	records, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Alice", records[0].Name)
	assert.Equal(t, "Bob", records[1].Name)
}

func TestSnapshotter_StopIsIdempotent(t *testing.T) {
	repo := newTestRepo(t)

	storage := session.NewStorage("village_square")
	snap := postgres.NewSnapshotter(repo, storage, time.Second, zaptest.NewLogger(t))
	go func() { _ = snap.Start() }()

	snap.Stop()
	snap.Stop()
}

func TestPool_Health(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	pc := testutil.NewPostgresContainer(t)

	assert.NoError(t, pc.Pool.Health(context.Background(), 5*time.Second))
}
