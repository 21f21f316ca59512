package daily

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielnylander/minnet/assets"
	"github.com/danielnylander/minnet/internal/db"
	"github.com/danielnylander/minnet/internal/deck"
	"github.com/danielnylander/minnet/internal/symbols"
)

func TestDateKeyUTC(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*3600)
	assert.Equal(t, "2026-03-31", DateKey(time.Date(2026, 4, 1, 5, 0, 0, 0, loc)))
}

func TestRandSameDateSameDeck(t *testing.T) {
	day := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	later := day.Add(10 * time.Hour)
	pool := symbols.Default()

	a, err := deck.Build(8, pool, Rand(day, "salt"))
	require.NoError(t, err)
	b, err := deck.Build(8, pool, Rand(later, "salt"))
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := deck.Build(8, pool, Rand(day.AddDate(0, 0, 1), "salt"))
	require.NoError(t, err)
	assert.NotEqual(t, a, c)

	d, err := deck.Build(8, pool, Rand(day, "pepper"))
	require.NoError(t, err)
	assert.NotEqual(t, a, d)
}

func openStore(t *testing.T) *Store {
	t.Helper()
	conn, err := db.Open(filepath.Join(t.TempDir(), "daily.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.Migrate(conn, assets.Migrations()))
	return NewStore(conn)
}

func TestStoreLeaderboard(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	played, err := s.AlreadyPlayed(ctx, "u1", "2026-04-01")
	require.NoError(t, err)
	assert.False(t, played)

	require.NoError(t, s.InsertResult(ctx, Result{UserID: "u1", Date: "2026-04-01", Pairs: 8, Moves: 12, ElapsedMs: 50000}))
	require.NoError(t, s.InsertResult(ctx, Result{UserID: "u2", Date: "2026-04-01", Pairs: 8, Moves: 10, ElapsedMs: 90000}))
	require.NoError(t, s.InsertResult(ctx, Result{UserID: "u3", Date: "2026-04-01", Pairs: 8, Moves: 12, ElapsedMs: 40000}))
	require.NoError(t, s.InsertResult(ctx, Result{UserID: "u4", Date: "2026-04-02", Pairs: 8, Moves: 8, ElapsedMs: 1000}))
	// Duplicate for the same day is ignored.
	require.NoError(t, s.InsertResult(ctx, Result{UserID: "u1", Date: "2026-04-01", Pairs: 8, Moves: 8, ElapsedMs: 1}))

	played, err = s.AlreadyPlayed(ctx, "u1", "2026-04-01")
	require.NoError(t, err)
	assert.True(t, played)

	rows, err := s.Leaderboard(ctx, "2026-04-01", 0)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"u2", "u3", "u1"}, []string{rows[0].UserID, rows[1].UserID, rows[2].UserID})
	assert.Equal(t, 12, rows[2].Moves)

	rows, err = s.Leaderboard(ctx, "2026-04-01", 1)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
