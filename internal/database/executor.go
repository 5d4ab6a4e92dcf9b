package database

import (
	"context"
	"database/sql"
	"strings"
	"time"

	apperrors "github.com/pitchside/analytics/internal/errors"
)

// Executor runs the read-side aggregation queries. Every public method
// validates its inputs against the store's known domains before touching
// the tables, applies the configured query timeout, and translates driver
// failures into typed errors.
type Executor struct {
	db      *DB
	timeout time.Duration
}

// NewExecutor creates an executor over db with the given per-query timeout
func NewExecutor(db *DB, timeout time.Duration) *Executor {
	return &Executor{db: db, timeout: timeout}
}

func (e *Executor) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, e.timeout)
}

// Teams returns the distinct set of teams present in the store
func (e *Executor) Teams(ctx context.Context) ([]string, error) {
	ctx, cancel := e.queryContext(ctx)
	defer cancel()

	rows, err := e.db.conn.QueryContext(ctx,
		`SELECT team1 FROM matches UNION SELECT team2 FROM matches ORDER BY 1`)
	if err != nil {
		return nil, apperrors.ToAppError(err)
	}
	defer apperrors.SafeClose(rows, "team rows")

	var teams []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, apperrors.ToAppError(err)
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

// Seasons returns the distinct seasons present in the store, ascending
func (e *Executor) Seasons(ctx context.Context) ([]int, error) {
	ctx, cancel := e.queryContext(ctx)
	defer cancel()

	rows, err := e.db.conn.QueryContext(ctx,
		`SELECT DISTINCT season FROM matches ORDER BY season`)
	if err != nil {
		return nil, apperrors.ToAppError(err)
	}
	defer apperrors.SafeClose(rows, "season rows")

	var seasons []int
	for rows.Next() {
		var s int
		if err := rows.Scan(&s); err != nil {
			return nil, apperrors.ToAppError(err)
		}
		seasons = append(seasons, s)
	}
	return seasons, rows.Err()
}

// Venues returns the distinct non-null venues present in the store
func (e *Executor) Venues(ctx context.Context) ([]string, error) {
	ctx, cancel := e.queryContext(ctx)
	defer cancel()

	rows, err := e.db.conn.QueryContext(ctx,
		`SELECT DISTINCT venue FROM matches WHERE venue IS NOT NULL ORDER BY venue`)
	if err != nil {
		return nil, apperrors.ToAppError(err)
	}
	defer apperrors.SafeClose(rows, "venue rows")

	var venues []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, apperrors.ToAppError(err)
		}
		venues = append(venues, v)
	}
	return venues, rows.Err()
}

// ValidateFilter rejects filter values outside the store's known domains.
// Rejections come back as InvalidParameter, never as a store error, so a
// typo in a team name cannot masquerade as an outage.
func (e *Executor) ValidateFilter(ctx context.Context, f Filter) error {
	if f.From != "" || f.To != "" {
		from, to, err := parseDateRange(f.From, f.To)
		if err != nil {
			return err
		}
		if !from.IsZero() && !to.IsZero() && to.Before(from) {
			return apperrors.NewInvalidParameterMsg("date range start is after end")
		}
	}

	if f.Team != "" {
		teams, err := e.Teams(ctx)
		if err != nil {
			return err
		}
		if !containsString(teams, f.Team) {
			return apperrors.NewInvalidParameter("team", f.Team)
		}
	}

	if f.Season != 0 {
		seasons, err := e.Seasons(ctx)
		if err != nil {
			return err
		}
		if !containsInt(seasons, f.Season) {
			return apperrors.NewInvalidParameter("season", f.Season)
		}
	}

	if f.Venue != "" {
		venues, err := e.Venues(ctx)
		if err != nil {
			return err
		}
		if !containsString(venues, f.Venue) {
			return apperrors.NewInvalidParameter("venue", f.Venue)
		}
	}

	return nil
}

func parseDateRange(from, to string) (time.Time, time.Time, error) {
	var f, t time.Time
	var err error
	if from != "" {
		f, err = time.Parse("2006-01-02", from)
		if err != nil {
			return f, t, apperrors.NewInvalidParameter("from", from)
		}
	}
	if to != "" {
		t, err = time.Parse("2006-01-02", to)
		if err != nil {
			return f, t, apperrors.NewInvalidParameter("to", to)
		}
	}
	return f, t, nil
}

func containsString(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func containsInt(set []int, v int) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// matchConditions builds the WHERE fragment for the matches table (aliased m)
func matchConditions(f Filter) (string, []interface{}) {
	var conds []string
	var args []interface{}

	if f.Team != "" {
		conds = append(conds, "(m.team1 = ? OR m.team2 = ?)")
		args = append(args, f.Team, f.Team)
	}
	if f.Season != 0 {
		conds = append(conds, "m.season = ?")
		args = append(args, f.Season)
	}
	if f.Venue != "" {
		conds = append(conds, "m.venue = ?")
		args = append(args, f.Venue)
	}
	if f.From != "" {
		conds = append(conds, "m.match_date >= ?")
		args = append(args, f.From)
	}
	if f.To != "" {
		conds = append(conds, "m.match_date <= ?")
		args = append(args, f.To)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// InningsTotals returns one aggregate row per (match, inning) for matches
// that pass the filter. Legal balls exclude wides and no-balls.
func (e *Executor) InningsTotals(ctx context.Context, f Filter) ([]InningsTotals, error) {
	ctx, cancel := e.queryContext(ctx)
	defer cancel()

	where, args := matchConditions(f)
	query := `
		SELECT d.match_id, d.inning, d.batting_team, d.bowling_team,
		       SUM(d.runs_off_bat + d.extras) AS runs,
		       SUM(CASE WHEN d.wides = 0 AND d.noballs = 0 THEN 1 ELSE 0 END) AS legal_balls,
		       SUM(CASE WHEN d.wicket_type IS NOT NULL AND d.wicket_type <> '' THEN 1 ELSE 0 END) AS wickets
		FROM deliveries d
		JOIN matches m ON m.match_id = d.match_id` + where + `
		GROUP BY d.match_id, d.inning, d.batting_team, d.bowling_team
		ORDER BY d.match_id, d.inning`

	rows, err := e.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.ToAppError(err)
	}
	defer apperrors.SafeClose(rows, "innings rows")

	var totals []InningsTotals
	for rows.Next() {
		var t InningsTotals
		if err := rows.Scan(&t.MatchID, &t.Inning, &t.BattingTeam, &t.BowlingTeam,
			&t.Runs, &t.LegalBalls, &t.Wickets); err != nil {
			return nil, apperrors.ToAppError(err)
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

// PhaseTotals aggregates the overs window [startOver, endOver] per innings
// for the filtered team's batting. Overs are 1-based.
func (e *Executor) PhaseTotals(ctx context.Context, f Filter, startOver, endOver int) ([]PhaseTotals, error) {
	ctx, cancel := e.queryContext(ctx)
	defer cancel()

	where, args := matchConditions(f)
	conds := "d.over >= ? AND d.over <= ?"
	phaseArgs := append(args, startOver, endOver)
	if f.Team != "" {
		conds += " AND d.batting_team = ?"
		phaseArgs = append(phaseArgs, f.Team)
	}
	clause := " WHERE " + conds
	if where != "" {
		clause = where + " AND " + conds
	}

	query := `
		SELECT d.match_id, d.inning,
		       SUM(d.runs_off_bat + d.extras) AS runs,
		       SUM(CASE WHEN d.wides = 0 AND d.noballs = 0 THEN 1 ELSE 0 END) AS legal_balls,
		       SUM(CASE WHEN d.wicket_type IS NOT NULL AND d.wicket_type <> '' THEN 1 ELSE 0 END) AS wickets
		FROM deliveries d
		JOIN matches m ON m.match_id = d.match_id` + clause + `
		GROUP BY d.match_id, d.inning
		ORDER BY d.match_id, d.inning`

	rows, err := e.db.conn.QueryContext(ctx, query, phaseArgs...)
	if err != nil {
		return nil, apperrors.ToAppError(err)
	}
	defer apperrors.SafeClose(rows, "phase rows")

	var totals []PhaseTotals
	for rows.Next() {
		var t PhaseTotals
		if err := rows.Scan(&t.MatchID, &t.Inning, &t.Runs, &t.LegalBalls, &t.Wickets); err != nil {
			return nil, apperrors.ToAppError(err)
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

// MatchRoles returns, for each filtered match, the teams, the winner, and
// the side that batted first. FirstBatting is empty when a match has no
// recorded deliveries, such as a washed-out fixture.
func (e *Executor) MatchRoles(ctx context.Context, f Filter) ([]MatchRole, error) {
	ctx, cancel := e.queryContext(ctx)
	defer cancel()

	where, args := matchConditions(f)
	query := `
		SELECT m.match_id, m.team1, m.team2, m.winner, m.margin_type,
		       (SELECT d.batting_team FROM deliveries d
		        WHERE d.match_id = m.match_id AND d.inning = 1 LIMIT 1) AS first_batting
		FROM matches m` + where + `
		ORDER BY m.match_id`

	rows, err := e.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.ToAppError(err)
	}
	defer apperrors.SafeClose(rows, "role rows")

	var roles []MatchRole
	for rows.Next() {
		var r MatchRole
		var firstBatting sql.NullString
		if err := rows.Scan(&r.MatchID, &r.Team1, &r.Team2, &r.Winner, &r.MarginType, &firstBatting); err != nil {
			return nil, apperrors.ToAppError(err)
		}
		r.FirstBatting = firstBatting.String
		roles = append(roles, r)
	}
	return roles, rows.Err()
}

// TossOutcomes groups filtered matches by toss decision and counts how often
// the toss winner went on to win the match.
func (e *Executor) TossOutcomes(ctx context.Context, f Filter) ([]TossOutcome, error) {
	ctx, cancel := e.queryContext(ctx)
	defer cancel()

	where, args := matchConditions(f)
	base := "m.toss_winner IS NOT NULL AND m.toss_decision IS NOT NULL"
	clause := " WHERE " + base
	if where != "" {
		clause = where + " AND " + base
	}

	query := `
		SELECT m.toss_decision,
		       COUNT(*) AS matches,
		       SUM(CASE WHEN m.winner = m.toss_winner THEN 1 ELSE 0 END) AS wins_after_toss
		FROM matches m` + clause + `
		GROUP BY m.toss_decision
		ORDER BY m.toss_decision`

	rows, err := e.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.ToAppError(err)
	}
	defer apperrors.SafeClose(rows, "toss rows")

	var outcomes []TossOutcome
	for rows.Next() {
		var o TossOutcome
		if err := rows.Scan(&o.Decision, &o.Matches, &o.WinsAfterToss); err != nil {
			return nil, apperrors.ToAppError(err)
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

// HeadToHeadTotals aggregates results between two teams in either order
func (e *Executor) HeadToHeadTotals(ctx context.Context, team1, team2 string, f Filter) (HeadToHead, error) {
	ctx, cancel := e.queryContext(ctx)
	defer cancel()

	f.Team = ""
	where, args := matchConditions(f)
	pair := "((m.team1 = ? AND m.team2 = ?) OR (m.team1 = ? AND m.team2 = ?))"
	clause := " WHERE " + pair
	if where != "" {
		clause = where + " AND " + pair
	}
	args = append(args, team1, team2, team2, team1)

	// COALESCE keeps the SUMs scannable when no rows match
	query := `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN m.winner = ? THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN m.winner = ? THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN m.winner IS NULL THEN 1 ELSE 0 END), 0)
		FROM matches m` + clause

	var h HeadToHead
	row := e.db.conn.QueryRowContext(ctx, query, append([]interface{}{team1, team2}, args...)...)
	if err := row.Scan(&h.Matches, &h.Team1Wins, &h.Team2Wins, &h.NoResults); err != nil {
		return h, apperrors.ToAppError(err)
	}
	return h, nil
}

// SeasonSummaries returns one descriptive row per season (or a single
// season when the filter names one).
func (e *Executor) SeasonSummaries(ctx context.Context, f Filter) ([]SeasonSummary, error) {
	ctx, cancel := e.queryContext(ctx)
	defer cancel()

	where, args := matchConditions(f)
	query := `
		SELECT m.season,
		       COUNT(*) AS matches,
		       tc.teams,
		       COUNT(DISTINCT m.venue) AS venues,
		       MIN(m.match_date), MAX(m.match_date)
		FROM matches m
		JOIN (SELECT season, COUNT(DISTINCT team) AS teams FROM (
		          SELECT season, team1 AS team FROM matches
		          UNION SELECT season, team2 FROM matches)
		      GROUP BY season) tc ON tc.season = m.season` + where + `
		GROUP BY m.season, tc.teams
		ORDER BY m.season`

	rows, err := e.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.ToAppError(err)
	}
	defer apperrors.SafeClose(rows, "summary rows")

	var summaries []SeasonSummary
	for rows.Next() {
		var s SeasonSummary
		if err := rows.Scan(&s.Season, &s.Matches, &s.Teams, &s.Venues, &s.MinDate, &s.MaxDate); err != nil {
			return nil, apperrors.ToAppError(err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// QualityAggregates runs the completeness and consistency counts the data
// quality scorer is built on.
func (e *Executor) QualityAggregates(ctx context.Context) (QualityAggregates, error) {
	ctx, cancel := e.queryContext(ctx)
	defer cancel()

	var agg QualityAggregates

	// COALESCE keeps the SUMs scannable on an empty table
	row := e.db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN venue IS NULL OR venue = '' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN winner IS NULL AND COALESCE(margin_type, '') <> 'no result' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN winner IS NOT NULL AND winner <> team1 AND winner <> team2 THEN 1 ELSE 0 END), 0),
		       MIN(match_date), MAX(match_date)
		FROM matches`)
	if err := row.Scan(&agg.TotalMatches, &agg.NullVenues, &agg.NullWinners,
		&agg.InvalidWinners, &agg.MinDate, &agg.MaxDate); err != nil {
		return agg, apperrors.ToAppError(err)
	}

	row = e.db.conn.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT match_id) FROM deliveries`)
	if err := row.Scan(&agg.MatchesWithDeliveries); err != nil {
		return agg, apperrors.ToAppError(err)
	}

	row = e.db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM (
			SELECT match_date, team1, team2
			FROM matches
			GROUP BY match_date, team1, team2
			HAVING COUNT(*) > 1)`)
	if err := row.Scan(&agg.DuplicateSignatures); err != nil {
		return agg, apperrors.ToAppError(err)
	}

	rows, err := e.db.conn.QueryContext(ctx,
		`SELECT season, COUNT(*) FROM matches GROUP BY season ORDER BY season`)
	if err != nil {
		return agg, apperrors.ToAppError(err)
	}
	defer apperrors.SafeClose(rows, "season count rows")

	for rows.Next() {
		var sc SeasonCount
		if err := rows.Scan(&sc.Season, &sc.Matches); err != nil {
			return agg, apperrors.ToAppError(err)
		}
		agg.SeasonCounts = append(agg.SeasonCounts, sc)
	}
	return agg, rows.Err()
}

// InsertMatch and InsertDelivery exist for loaders and tests; the analytics
// surface itself is read-only.
func (e *Executor) InsertMatch(ctx context.Context, m Match) error {
	ctx, cancel := e.queryContext(ctx)
	defer cancel()

	_, err := e.db.conn.ExecContext(ctx, `
		INSERT INTO matches (match_id, season, match_date, venue, team1, team2,
			toss_winner, toss_decision, winner, margin_type, margin_value)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.MatchID, m.Season, m.MatchDate.Format("2006-01-02"), m.Venue,
		m.Team1, m.Team2, m.TossWinner, m.TossChoice, m.Winner, m.MarginType, m.MarginValue)
	if err != nil {
		return apperrors.ToAppError(err)
	}
	return nil
}

func (e *Executor) InsertDelivery(ctx context.Context, d Delivery) error {
	ctx, cancel := e.queryContext(ctx)
	defer cancel()

	_, err := e.db.conn.ExecContext(ctx, `
		INSERT INTO deliveries (match_id, inning, over, ball, batting_team, bowling_team,
			runs_off_bat, extras, wides, noballs, wicket_type)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.MatchID, d.Inning, d.Over, d.Ball, d.BattingTeam, d.BowlingTeam,
		d.RunsOffBat, d.Extras, d.Wides, d.NoBalls, d.WicketType)
	if err != nil {
		return apperrors.ToAppError(err)
	}
	return nil
}
