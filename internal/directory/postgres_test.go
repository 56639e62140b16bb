package directory

import (
	"context"
	"os"
	"testing"

	"github.com/care-router-mcp-server/internal/database"
	"github.com/care-router-mcp-server/internal/domain"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// getTestDB connects to TEST_DATABASE_URL and migrates it, skipping when unset
func getTestDB(t *testing.T) *database.DB {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping PostgreSQL tests")
	}

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	ctx := context.Background()

	runner, err := database.NewMigrationRunner(dbURL, "../../migrations", logger)
	require.NoError(t, err)
	require.NoError(t, runner.Up(ctx))
	require.NoError(t, runner.Close())

	db, err := database.NewConnectionFromURL(ctx, dbURL, logger)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	// Clean up before test
	_, err = db.Pool.Exec(ctx, "DELETE FROM slots")
	require.NoError(t, err)
	_, err = db.Pool.Exec(ctx, "DELETE FROM providers")
	require.NoError(t, err)
	return db
}

func TestPostgresStore_SeedAndQuery(t *testing.T) {
	db := getTestDB(t)
	ctx := context.Background()

	store, err := NewPostgresStore(db, fixedClock(monday), nil)
	require.NoError(t, err)
	sim := NewSimulator(42, fixedClock(monday), nil)

	_, err = Seed(ctx, store, sim, 14)
	require.NoError(t, err)

	query := domain.SlotQuery{DaysAhead: 7, Specialty: specialtyPtr(domain.SpecialtyNeurology)}
	expected := sim.Generate(query)
	got, err := store.QuerySlots(ctx, query)
	require.NoError(t, err)
	require.Len(t, got, len(expected))
	for i := range expected {
		assert.Equal(t, expected[i].ID, got[i].ID)
		assert.True(t, expected[i].StartTime.Equal(got[i].StartTime))
	}

	urgent, err := store.QueryUrgentSlots(ctx, nil)
	require.NoError(t, err)
	for _, s := range urgent {
		assert.Equal(t, domain.KindUrgentCare, s.Kind)
		assert.True(t, s.IsAvailable)
	}
}

func TestNewPostgresStore_RequiresDB(t *testing.T) {
	_, err := NewPostgresStore(nil, nil, nil)
	assert.Error(t, err)
}
