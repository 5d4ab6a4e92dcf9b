package analytics

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
	"github.com/pitchside/analytics/internal/config"
	"github.com/pitchside/analytics/internal/database"
	apperrors "github.com/pitchside/analytics/internal/errors"
)

func testService(t *testing.T) (*Service, *database.DB, *database.Executor) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := database.NewDB(t.TempDir(), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	exec := database.NewExecutor(db, 5*time.Second)
	c := cache.New(time.Minute)
	t.Cleanup(c.Stop)

	cfg := config.New()
	return NewService(exec, c, cfg, logger, nil), db, exec
}

func seedMatch(t *testing.T, exec *database.Executor, matchID int64, season int, date, team1, team2, winnerName string) {
	t.Helper()
	ctx := context.Background()

	m := database.Match{
		MatchID: matchID, Season: season, Team1: team1, Team2: team2,
		Venue: sql.NullString{String: "Garden Park", Valid: true},
	}
	var err error
	m.MatchDate, err = time.Parse("2006-01-02", date)
	require.NoError(t, err)
	if winnerName != "" {
		m.Winner = sql.NullString{String: winnerName, Valid: true}
		m.MarginType = sql.NullString{String: "runs", Valid: true}
	} else {
		m.MarginType = sql.NullString{String: "no result", Valid: true}
	}
	require.NoError(t, exec.InsertMatch(ctx, m))
}

func seedInnings(t *testing.T, exec *database.Executor, matchID int64, inning int, batting, bowling string, runs, balls int) {
	t.Helper()
	ctx := context.Background()

	// spread the runs over the innings, six balls to the over
	perBall := runs / balls
	rem := runs % balls
	for i := 0; i < balls; i++ {
		r := perBall
		if i < rem {
			r++
		}
		require.NoError(t, exec.InsertDelivery(ctx, database.Delivery{
			MatchID: matchID, Inning: inning,
			Over: i/6 + 1, Ball: i%6 + 1,
			BattingTeam: batting, BowlingTeam: bowling,
			RunsOffBat: r,
		}))
	}
}

func TestNetRunRateEndToEnd(t *testing.T) {
	svc, _, exec := testService(t)
	ctx := context.Background()

	seedMatch(t, exec, 1, 2024, "2024-04-01", "Alpha", "Bravo", "Alpha")
	seedInnings(t, exec, 1, 1, "Alpha", "Bravo", 180, 120)
	seedInnings(t, exec, 1, 2, "Bravo", "Alpha", 160, 120)

	result, err := svc.NetRunRate(ctx, database.Filter{Team: "Alpha", Season: 2024})
	require.NoError(t, err)
	require.True(t, result.NetRunRate.Defined)
	assert.InDelta(t, 1.0, result.NetRunRate.Value, 1e-9)
}

func TestNetRunRateRequiresTeam(t *testing.T) {
	svc, _, _ := testService(t)

	_, err := svc.NetRunRate(context.Background(), database.Filter{})
	require.Error(t, err)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryInvalidParameter))
}

func TestNetRunRateUnknownTeam(t *testing.T) {
	svc, _, exec := testService(t)
	seedMatch(t, exec, 1, 2024, "2024-04-01", "Alpha", "Bravo", "Alpha")

	_, err := svc.NetRunRate(context.Background(), database.Filter{Team: "Nobody"})
	require.Error(t, err)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryInvalidParameter))
}

func TestCachedResultServedUntilCleared(t *testing.T) {
	svc, _, exec := testService(t)
	ctx := context.Background()

	seedMatch(t, exec, 1, 2024, "2024-04-01", "Alpha", "Bravo", "Alpha")
	seedInnings(t, exec, 1, 1, "Alpha", "Bravo", 120, 120)
	seedInnings(t, exec, 1, 2, "Bravo", "Alpha", 100, 120)

	f := database.Filter{Team: "Alpha", Season: 2024}
	first, err := svc.NetRunRate(ctx, f)
	require.NoError(t, err)

	// new data lands in the store; the cached answer keeps serving
	seedMatch(t, exec, 2, 2024, "2024-04-05", "Bravo", "Alpha", "Bravo")
	seedInnings(t, exec, 2, 1, "Bravo", "Alpha", 200, 120)
	seedInnings(t, exec, 2, 2, "Alpha", "Bravo", 150, 120)

	second, err := svc.NetRunRate(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	svc.ClearCache()
	third, err := svc.NetRunRate(ctx, f)
	require.NoError(t, err)
	assert.NotEqual(t, first.RunsScored, third.RunsScored)
}

func TestFailuresAreNotCached(t *testing.T) {
	svc, db, exec := testService(t)
	ctx := context.Background()

	seedMatch(t, exec, 1, 2024, "2024-04-01", "Alpha", "Bravo", "Alpha")
	seedInnings(t, exec, 1, 1, "Alpha", "Bravo", 60, 60)
	seedInnings(t, exec, 1, 2, "Bravo", "Alpha", 50, 60)

	f := database.Filter{Team: "Alpha"}

	_, err := db.Conn().Exec(`ALTER TABLE deliveries RENAME TO deliveries_gone`)
	require.NoError(t, err)

	_, err = svc.NetRunRate(ctx, f)
	require.Error(t, err)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategorySchemaMismatch))

	_, err = db.Conn().Exec(`ALTER TABLE deliveries_gone RENAME TO deliveries`)
	require.NoError(t, err)

	result, err := svc.NetRunRate(ctx, f)
	require.NoError(t, err, "the failure must not have been cached")
	assert.Equal(t, 60, result.RunsScored)
}

func TestChaseDefendEndToEnd(t *testing.T) {
	svc, _, exec := testService(t)
	ctx := context.Background()

	// Alpha chases twice and wins both, defends once and loses
	seedMatch(t, exec, 1, 2024, "2024-04-01", "Alpha", "Bravo", "Alpha")
	seedInnings(t, exec, 1, 1, "Bravo", "Alpha", 100, 120)
	seedInnings(t, exec, 1, 2, "Alpha", "Bravo", 101, 110)

	seedMatch(t, exec, 2, 2024, "2024-04-03", "Charlie", "Alpha", "Alpha")
	seedInnings(t, exec, 2, 1, "Charlie", "Alpha", 140, 120)
	seedInnings(t, exec, 2, 2, "Alpha", "Charlie", 141, 115)

	seedMatch(t, exec, 3, 2024, "2024-04-06", "Alpha", "Charlie", "Charlie")
	seedInnings(t, exec, 3, 1, "Alpha", "Charlie", 120, 120)
	seedInnings(t, exec, 3, 2, "Charlie", "Alpha", 121, 100)

	result, err := svc.ChaseDefend(ctx, database.Filter{Team: "Alpha"})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Chasing.Played)
	assert.InDelta(t, 100.0, result.Chasing.WinPct.Value, 1e-9)
	assert.Equal(t, 1, result.Defending.Played)
	assert.InDelta(t, 0.0, result.Defending.WinPct.Value, 1e-9)
}

func TestStandingsEndToEnd(t *testing.T) {
	svc, _, exec := testService(t)
	ctx := context.Background()

	seedMatch(t, exec, 1, 2024, "2024-04-01", "Alpha", "Bravo", "Alpha")
	seedInnings(t, exec, 1, 1, "Alpha", "Bravo", 180, 120)
	seedInnings(t, exec, 1, 2, "Bravo", "Alpha", 160, 120)
	seedMatch(t, exec, 2, 2024, "2024-04-04", "Alpha", "Bravo", "")

	rows, err := svc.Standings(ctx, 2024, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Alpha", rows[0].Team)
	assert.Equal(t, 3, rows[0].Points)
	assert.Equal(t, "Bravo", rows[1].Team)
	assert.Equal(t, 1, rows[1].Points)
}

func TestHeadToHeadValidation(t *testing.T) {
	svc, _, exec := testService(t)
	seedMatch(t, exec, 1, 2024, "2024-04-01", "Alpha", "Bravo", "Alpha")

	_, err := svc.HeadToHead(context.Background(), "Alpha", "Alpha", database.Filter{})
	require.Error(t, err)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryInvalidParameter))

	result, err := svc.HeadToHead(context.Background(), "Alpha", "Bravo", database.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Matches)
	assert.Equal(t, 1, result.Team1Wins)
}

func TestHeadToHeadNeverMet(t *testing.T) {
	svc, _, exec := testService(t)

	// all four teams are known, but these two pairs never crossed
	seedMatch(t, exec, 1, 2024, "2024-04-01", "Alpha", "Bravo", "Alpha")
	seedMatch(t, exec, 2, 2024, "2024-04-03", "Charlie", "Delta", "Delta")

	result, err := svc.HeadToHead(context.Background(), "Alpha", "Charlie", database.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Matches)
	assert.True(t, result.Insufficient)
}

func TestPowerplayExcludesLaterOvers(t *testing.T) {
	svc, _, exec := testService(t)
	ctx := context.Background()

	seedMatch(t, exec, 1, 2024, "2024-04-01", "Alpha", "Bravo", "Alpha")
	// overs 1-6: 48 runs off 36 balls, then a big over 7 that must not count
	seedInnings(t, exec, 1, 1, "Alpha", "Bravo", 48, 36)
	for ball := 1; ball <= 6; ball++ {
		require.NoError(t, exec.InsertDelivery(ctx, database.Delivery{
			MatchID: 1, Inning: 1, Over: 7, Ball: ball,
			BattingTeam: "Alpha", BowlingTeam: "Bravo", RunsOffBat: 6,
		}))
	}

	result, err := svc.Powerplay(ctx, database.Filter{Team: "Alpha"})
	require.NoError(t, err)
	assert.Equal(t, 48, result.Runs)
	assert.Equal(t, 36, result.LegalBalls)
	require.True(t, result.RunRate.Defined)
	assert.InDelta(t, 8.0, result.RunRate.Value, 1e-9)
}
