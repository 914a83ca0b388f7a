package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SeamusWaldron/cubetimer"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func result(id string, ms int64, at time.Time) cubetimer.Result {
	return cubetimer.Result{ID: id, Raw: cubetimer.Duration(ms), Timestamp: at}
}

func TestOpenMigrates(t *testing.T) {
	db := openTestDB(t)

	v, err := db.CurrentVersion()
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, v)
}

func TestOpenFileCreatesDirectory(t *testing.T) {
	path := t.TempDir() + "/nested/cubetimer.db"
	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, path, db.Path())

	// reopening an existing database is a no-op migration
	db.Close()
	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()
}

func TestSessionStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	store, err := OpenSession(ctx, db, "")
	require.NoError(t, err)
	assert.Equal(t, DefaultSession, store.Name())

	base := time.UnixMilli(1_700_000_000_000)
	a := result("a", 12340, base)
	b := result("b", 9870, base.Add(time.Minute))
	b.Scramble = "R U R' U'"

	require.NoError(t, store.ResultAppended(a))
	require.NoError(t, store.ResultAppended(b))

	b.Penalty = cubetimer.PenaltyPlusTwo
	require.NoError(t, store.ResultUpdated(b))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, cubetimer.Duration(12340), got[0].Raw)
	assert.True(t, got[0].Timestamp.Equal(base))
	assert.Equal(t, "b", got[1].ID)
	assert.Equal(t, cubetimer.PenaltyPlusTwo, got[1].Penalty)
	assert.Equal(t, "R U R' U'", got[1].Scramble)
}

func TestSessionStoreDeleteAndRestore(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	store, err := OpenSession(ctx, db, "oh")
	require.NoError(t, err)

	base := time.UnixMilli(1_700_000_000_000)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.ResultAppended(result(id, int64(10000+i), base.Add(time.Duration(i)*time.Second))))
	}

	b, err := store.repo.Get(ctx, "b")
	require.NoError(t, err)
	require.NoError(t, store.ResultDeleted(b))
	assert.ErrorIs(t, store.ResultDeleted(b), cubetimer.ErrResultNotFound)

	// restored results keep their timestamp and so their position
	require.NoError(t, store.ResultAppended(b))
	got, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{got[0].ID, got[1].ID, got[2].ID})
}

func TestUpdateMissingResult(t *testing.T) {
	db := openTestDB(t)
	repo := NewResultRepository(db)

	err := repo.UpdatePenalty(context.Background(), "missing", cubetimer.PenaltyDNF)
	assert.ErrorIs(t, err, cubetimer.ErrResultNotFound)

	_, err = repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, cubetimer.ErrResultNotFound)
}

func TestSessionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	one, err := OpenSession(ctx, db, "3x3")
	require.NoError(t, err)
	two, err := OpenSession(ctx, db, "oh")
	require.NoError(t, err)

	now := time.UnixMilli(1_700_000_000_000)
	require.NoError(t, one.ResultAppended(result("a", 10000, now)))
	require.NoError(t, one.ResultAppended(result("b", 11000, now)))
	require.NoError(t, two.ResultAppended(result("c", 20000, now)))

	got, err := two.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "c", got[0].ID)

	sessions, err := NewResultRepository(db).Sessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	counts := map[string]int{}
	for _, s := range sessions {
		counts[s.Name] = s.Count
	}
	assert.Equal(t, map[string]int{"3x3": 2, "oh": 1}, counts)
}
