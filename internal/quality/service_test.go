package quality

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchside/analytics/internal/cache"
	"github.com/pitchside/analytics/internal/database"
)

func testQualityService(t *testing.T) (*Service, *database.Executor) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := database.NewDB(t.TempDir(), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	exec := database.NewExecutor(db, 5*time.Second)
	c := cache.New(time.Minute)
	t.Cleanup(c.Stop)

	svc, err := NewService(exec, c, DefaultPolicy(), logger)
	require.NoError(t, err)
	return svc, exec
}

func TestReportEmptyStore(t *testing.T) {
	svc, _ := testQualityService(t)

	report, err := svc.Report(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Insufficient)
	assert.NotEmpty(t, report.ReportID)
}

func TestReportIsCached(t *testing.T) {
	svc, exec := testQualityService(t)
	ctx := context.Background()

	date, err := time.Parse("2006-01-02", "2024-04-01")
	require.NoError(t, err)
	require.NoError(t, exec.InsertMatch(ctx, database.Match{
		MatchID: 1, Season: 2024, MatchDate: date,
		Venue:  sql.NullString{String: "Garden Park", Valid: true},
		Team1:  "Alpha", Team2: "Bravo",
		Winner: sql.NullString{String: "Alpha", Valid: true},
	}))

	first, err := svc.Report(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, first.ReportID)

	second, err := svc.Report(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ReportID, second.ReportID, "a cached report keeps its identity")
	assert.Equal(t, first.Score, second.Score)
}

func TestRejectsBadPolicy(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := database.NewDB(t.TempDir(), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	c := cache.New(time.Minute)
	t.Cleanup(c.Stop)

	_, err = NewService(database.NewExecutor(db, time.Second), c, WeightPolicy{}, logger)
	assert.Error(t, err)
}
