package sqlxrepos_test

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-offline/core/progress"
	"github.com/trezcool/masomo-offline/core/session"
	"github.com/trezcool/masomo-offline/storage/database"
	"github.com/trezcool/masomo-offline/storage/database/sqlx"
)

func openDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.OpenSQLite(database.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

func TestSessionRepository(t *testing.T) {
	ctx := context.Background()
	repo := sqlxrepos.NewSessionRepository(openDB(t))

	_, err := repo.GetProfile(ctx)
	assert.Equal(t, session.ErrNoActiveSession, err)

	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	_, err = repo.SaveProfile(ctx, session.Profile{ID: "STD-101", Name: "Asha", Role: session.RoleStudent, CreatedAt: created})
	require.NoError(t, err)
	_, err = repo.SaveProfile(ctx, session.Profile{ID: "STD-202", Name: "Ravi", Grade: "8", Role: session.RoleStudent, CreatedAt: created})
	require.NoError(t, err)

	p, err := repo.GetProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, session.Profile{ID: "STD-202", Name: "Ravi", Grade: "8", Role: session.RoleStudent, CreatedAt: created}, p)

	require.NoError(t, repo.DeleteProfile(ctx))
	_, err = repo.GetProfile(ctx)
	assert.Equal(t, session.ErrNoActiveSession, err)

	blob, err := repo.GetAux(ctx, "prefs")
	require.NoError(t, err)
	assert.Nil(t, blob)
	require.NoError(t, repo.PutAux(ctx, "prefs", []byte(`{"a":1}`)))
	require.NoError(t, repo.PutAux(ctx, "prefs", []byte(`{"a":2}`)))
	blob, err = repo.GetAux(ctx, "prefs")
	require.NoError(t, err)
	assert.Equal(t, `{"a":2}`, string(blob))
}

func TestProgressRepository(t *testing.T) {
	ctx := context.Background()
	repo := sqlxrepos.NewProgressRepository(openDB(t))
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	_, err := repo.GetProgress(ctx, "STD-101", "sci_7_1")
	assert.Equal(t, progress.ErrNotFound, err)

	records, err := repo.QueryProgress(ctx, "STD-101")
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)

	recs := []progress.Record{
		{StudentID: "STD-101", TopicID: "sci_7_1", LastPageIndex: 0, PercentageComplete: 33, LastUpdatedAt: at},
		{StudentID: "STD-101", TopicID: "sci_7_1", LastPageIndex: 2, PercentageComplete: 100, IsComplete: true, LastUpdatedAt: at.Add(time.Minute)},
		{StudentID: "STD-101", TopicID: "math_7_1", LastPageIndex: 1, PercentageComplete: 40, LastUpdatedAt: at},
		{StudentID: "STD-202", TopicID: "sci_7_1", LastPageIndex: 0, PercentageComplete: 33, LastUpdatedAt: at},
	}
	for _, rec := range recs {
		_, err = repo.UpsertProgress(ctx, rec)
		require.NoError(t, err)
	}

	got, err := repo.GetProgress(ctx, "STD-101", "sci_7_1")
	require.NoError(t, err)
	assert.Equal(t, recs[1], got)

	records, err = repo.QueryProgress(ctx, "STD-101")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "math_7_1", records[0].TopicID)
	assert.Equal(t, []string{"sci_7_1"}, progress.CompletedIDs(records))

	for i, topic := range []string{"sci_7_1", "math_7_1", "sci_7_1"} {
		_, err = repo.UpsertHistory(ctx, progress.History{
			StudentID: "STD-101",
			TopicID:   topic,
			Topic:     topic,
			Timestamp: at.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}
	hist, err := repo.QueryHistory(ctx, "STD-101")
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, "sci_7_1", hist[0].TopicID)
	assert.Equal(t, at.Add(2*time.Minute), hist[0].Timestamp)
	assert.Equal(t, "", hist[0].Summary)

	hist, err = repo.QueryHistory(ctx, "STD-202")
	require.NoError(t, err)
	assert.Empty(t, hist)
}

func TestMigrate_downUp(t *testing.T) {
	db := openDB(t)
	require.NoError(t, database.Run(db, "down-to", "0"))
	require.NoError(t, database.Run(db, "up"))
}
