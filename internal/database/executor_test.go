package database

import (
	"context"
	"database/sql"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/pitchside/analytics/internal/errors"
)

func testStore(t *testing.T) (*DB, *Executor) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{Level: slog.LevelError}))
	db, err := NewDB(t.TempDir(), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return db, NewExecutor(db, 5*time.Second)
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func seedFixtures(t *testing.T, exec *Executor) {
	t.Helper()
	ctx := context.Background()

	matches := []Match{
		{
			MatchID: 1, Season: 2024, MatchDate: mustDate(t, "2024-04-01"),
			Venue: nullStr("Garden Park"), Team1: "Alpha", Team2: "Bravo",
			TossWinner: nullStr("Alpha"), TossChoice: nullStr("bat"),
			Winner: nullStr("Alpha"), MarginType: nullStr("runs"),
			MarginValue: sql.NullInt64{Int64: 20, Valid: true},
		},
		{
			MatchID: 2, Season: 2024, MatchDate: mustDate(t, "2024-04-05"),
			Venue: nullStr("Harbour Oval"), Team1: "Bravo", Team2: "Alpha",
			TossWinner: nullStr("Bravo"), TossChoice: nullStr("field"),
			Winner: nullStr("Alpha"), MarginType: nullStr("wickets"),
			MarginValue: sql.NullInt64{Int64: 5, Valid: true},
		},
		{
			MatchID: 3, Season: 2023, MatchDate: mustDate(t, "2023-05-10"),
			Venue: nullStr("Garden Park"), Team1: "Alpha", Team2: "Charlie",
			TossWinner: nullStr("Charlie"), TossChoice: nullStr("field"),
			MarginType: nullStr("no result"),
		},
	}
	for _, m := range matches {
		require.NoError(t, exec.InsertMatch(ctx, m))
	}

	deliveries := []Delivery{
		// match 1, inning 1: Alpha bat, 10 runs off 3 legal balls plus a wide
		{MatchID: 1, Inning: 1, Over: 1, Ball: 1, BattingTeam: "Alpha", BowlingTeam: "Bravo", RunsOffBat: 4},
		{MatchID: 1, Inning: 1, Over: 1, Ball: 2, BattingTeam: "Alpha", BowlingTeam: "Bravo", RunsOffBat: 0, Extras: 1, Wides: 1},
		{MatchID: 1, Inning: 1, Over: 1, Ball: 2, BattingTeam: "Alpha", BowlingTeam: "Bravo", RunsOffBat: 2},
		{MatchID: 1, Inning: 1, Over: 17, Ball: 1, BattingTeam: "Alpha", BowlingTeam: "Bravo", RunsOffBat: 3, WicketType: nullStr("bowled")},
		// match 1, inning 2: Bravo bat
		{MatchID: 1, Inning: 2, Over: 1, Ball: 1, BattingTeam: "Bravo", BowlingTeam: "Alpha", RunsOffBat: 1},
		{MatchID: 1, Inning: 2, Over: 5, Ball: 3, BattingTeam: "Bravo", BowlingTeam: "Alpha", RunsOffBat: 6},
		// match 2, inning 1: Bravo bat first
		{MatchID: 2, Inning: 1, Over: 1, Ball: 1, BattingTeam: "Bravo", BowlingTeam: "Alpha", RunsOffBat: 2},
		{MatchID: 2, Inning: 2, Over: 1, Ball: 1, BattingTeam: "Alpha", BowlingTeam: "Bravo", RunsOffBat: 4},
	}
	for _, d := range deliveries {
		require.NoError(t, exec.InsertDelivery(ctx, d))
	}
}

func TestDomains(t *testing.T) {
	_, exec := testStore(t)
	seedFixtures(t, exec)
	ctx := context.Background()

	teams, err := exec.Teams(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha", "Bravo", "Charlie"}, teams)

	seasons, err := exec.Seasons(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{2023, 2024}, seasons)

	venues, err := exec.Venues(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Garden Park", "Harbour Oval"}, venues)
}

func TestValidateFilter(t *testing.T) {
	_, exec := testStore(t)
	seedFixtures(t, exec)
	ctx := context.Background()

	tests := []struct {
		name    string
		filter  Filter
		wantErr bool
	}{
		{name: "empty filter", filter: Filter{}},
		{name: "known team and season", filter: Filter{Team: "Alpha", Season: 2024}},
		{name: "known venue", filter: Filter{Venue: "Garden Park"}},
		{name: "valid date range", filter: Filter{From: "2024-01-01", To: "2024-12-31"}},
		{name: "unknown team", filter: Filter{Team: "Delta"}, wantErr: true},
		{name: "unknown season", filter: Filter{Season: 1999}, wantErr: true},
		{name: "unknown venue", filter: Filter{Venue: "Nowhere"}, wantErr: true},
		{name: "malformed date", filter: Filter{From: "April 1"}, wantErr: true},
		{name: "reversed range", filter: Filter{From: "2024-06-01", To: "2024-01-01"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := exec.ValidateFilter(ctx, tt.filter)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsCategory(err, apperrors.CategoryInvalidParameter))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestInningsTotals(t *testing.T) {
	_, exec := testStore(t)
	seedFixtures(t, exec)

	totals, err := exec.InningsTotals(context.Background(), Filter{Team: "Alpha", Season: 2024})
	require.NoError(t, err)
	require.Len(t, totals, 4)

	first := totals[0]
	assert.Equal(t, int64(1), first.MatchID)
	assert.Equal(t, 1, first.Inning)
	assert.Equal(t, "Alpha", first.BattingTeam)
	assert.Equal(t, 10, first.Runs, "runs include extras")
	assert.Equal(t, 3, first.LegalBalls, "wides are not legal balls")
	assert.Equal(t, 1, first.Wickets)
}

func TestPhaseTotals(t *testing.T) {
	_, exec := testStore(t)
	seedFixtures(t, exec)

	totals, err := exec.PhaseTotals(context.Background(), Filter{Team: "Alpha", Season: 2024}, 1, 6)
	require.NoError(t, err)

	// the over-17 delivery must not appear in the powerplay window
	for _, p := range totals {
		if p.MatchID == 1 && p.Inning == 1 {
			assert.Equal(t, 7, p.Runs)
			assert.Equal(t, 2, p.LegalBalls)
			assert.Equal(t, 0, p.Wickets)
		}
	}
}

func TestMatchRoles(t *testing.T) {
	_, exec := testStore(t)
	seedFixtures(t, exec)

	roles, err := exec.MatchRoles(context.Background(), Filter{})
	require.NoError(t, err)
	require.Len(t, roles, 3)

	assert.Equal(t, "Alpha", roles[0].FirstBatting)
	assert.Equal(t, "Alpha", roles[0].Winner.String)
	assert.Equal(t, "Bravo", roles[1].FirstBatting)
	assert.Equal(t, "", roles[2].FirstBatting, "washed-out match has no first innings")
	assert.Equal(t, "no result", roles[2].MarginType.String)
}

func TestHeadToHeadTotals(t *testing.T) {
	_, exec := testStore(t)
	seedFixtures(t, exec)

	h, err := exec.HeadToHeadTotals(context.Background(), "Alpha", "Bravo", Filter{})
	require.NoError(t, err)
	assert.Equal(t, 2, h.Matches)
	assert.Equal(t, 2, h.Team1Wins)
	assert.Equal(t, 0, h.Team2Wins)
	assert.Equal(t, 0, h.NoResults)
}

func TestHeadToHeadTotalsNoMeetings(t *testing.T) {
	_, exec := testStore(t)
	seedFixtures(t, exec)
	ctx := context.Background()

	// both teams exist but have never played each other
	h, err := exec.HeadToHeadTotals(ctx, "Bravo", "Charlie", Filter{})
	require.NoError(t, err)
	assert.Equal(t, HeadToHead{}, h)
}

func TestTossOutcomes(t *testing.T) {
	_, exec := testStore(t)
	seedFixtures(t, exec)

	outcomes, err := exec.TossOutcomes(context.Background(), Filter{Season: 2024})
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	assert.Equal(t, "bat", outcomes[0].Decision)
	assert.Equal(t, 1, outcomes[0].Matches)
	assert.Equal(t, 1, outcomes[0].WinsAfterToss)
	assert.Equal(t, "field", outcomes[1].Decision)
	assert.Equal(t, 0, outcomes[1].WinsAfterToss)
}

func TestSeasonSummaries(t *testing.T) {
	_, exec := testStore(t)
	seedFixtures(t, exec)

	summaries, err := exec.SeasonSummaries(context.Background(), Filter{Season: 2024})
	require.NoError(t, err)
	require.Len(t, summaries, 1)

	s := summaries[0]
	assert.Equal(t, 2024, s.Season)
	assert.Equal(t, 2, s.Matches)
	assert.Equal(t, 2, s.Teams)
	assert.Equal(t, 2, s.Venues)
	assert.Equal(t, "2024-04-01", s.MinDate.String)
	assert.Equal(t, "2024-04-05", s.MaxDate.String)
}

func TestQualityAggregates(t *testing.T) {
	_, exec := testStore(t)
	seedFixtures(t, exec)
	ctx := context.Background()

	// a duplicate signature and an invalid winner
	require.NoError(t, exec.InsertMatch(ctx, Match{
		MatchID: 4, Season: 2024, MatchDate: mustDate(t, "2024-04-01"),
		Venue: nullStr("Garden Park"), Team1: "Alpha", Team2: "Bravo",
		Winner: nullStr("Charlie"), MarginType: nullStr("runs"),
	}))

	agg, err := exec.QualityAggregates(ctx)
	require.NoError(t, err)

	assert.Equal(t, 4, agg.TotalMatches)
	assert.Equal(t, 2, agg.MatchesWithDeliveries)
	assert.Equal(t, 0, agg.NullVenues)
	assert.Equal(t, 0, agg.NullWinners, "a declared no-result is not a missing winner")
	assert.Equal(t, 1, agg.InvalidWinners)
	assert.Equal(t, 1, agg.DuplicateSignatures)
	assert.Equal(t, "2023-05-10", agg.MinDate.String)
	assert.Equal(t, "2024-04-05", agg.MaxDate.String)
	assert.Equal(t, []SeasonCount{{Season: 2023, Matches: 1}, {Season: 2024, Matches: 3}}, agg.SeasonCounts)
}

func TestQualityAggregatesEmptyStore(t *testing.T) {
	_, exec := testStore(t)

	agg, err := exec.QualityAggregates(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, agg.TotalMatches)
	assert.Equal(t, 0, agg.NullVenues)
	assert.Equal(t, 0, agg.NullWinners)
	assert.Equal(t, 0, agg.InvalidWinners)
	assert.Equal(t, 0, agg.DuplicateSignatures)
	assert.False(t, agg.MinDate.Valid)
	assert.False(t, agg.MaxDate.Valid)
	assert.Empty(t, agg.SeasonCounts)
}

func TestVerifySchema(t *testing.T) {
	db, _ := testStore(t)
	ctx := context.Background()

	require.NoError(t, db.VerifySchema(ctx))

	_, err := db.Conn().ExecContext(ctx, `ALTER TABLE matches RENAME COLUMN winner TO victor`)
	require.NoError(t, err)

	err = db.VerifySchema(ctx)
	require.Error(t, err)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategorySchemaMismatch))
	assert.Contains(t, err.Error(), "winner")
}
