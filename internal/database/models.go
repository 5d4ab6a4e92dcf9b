package database

import (
	"database/sql"
	"time"
)

// Match represents a single fixture in the matches table
type Match struct {
	MatchID     int64          `json:"match_id" db:"match_id"`
	Season      int            `json:"season" db:"season"`
	MatchDate   time.Time      `json:"match_date" db:"match_date"`
	Venue       sql.NullString `json:"venue" db:"venue"`
	Team1       string         `json:"team1" db:"team1"`
	Team2       string         `json:"team2" db:"team2"`
	TossWinner  sql.NullString `json:"toss_winner" db:"toss_winner"`
	TossChoice  sql.NullString `json:"toss_decision" db:"toss_decision"`
	Winner      sql.NullString `json:"winner" db:"winner"`
	MarginType  sql.NullString `json:"margin_type" db:"margin_type"`
	MarginValue sql.NullInt64  `json:"margin_value" db:"margin_value"`
}

// Delivery represents one ball in the deliveries table
type Delivery struct {
	DeliveryID  int64          `json:"delivery_id" db:"delivery_id"`
	MatchID     int64          `json:"match_id" db:"match_id"`
	Inning      int            `json:"inning" db:"inning"`
	Over        int            `json:"over" db:"over"`
	Ball        int            `json:"ball" db:"ball"`
	BattingTeam string         `json:"batting_team" db:"batting_team"`
	BowlingTeam string         `json:"bowling_team" db:"bowling_team"`
	RunsOffBat  int            `json:"runs_off_bat" db:"runs_off_bat"`
	Extras      int            `json:"extras" db:"extras"`
	Wides       int            `json:"wides" db:"wides"`
	NoBalls     int            `json:"noballs" db:"noballs"`
	WicketType  sql.NullString `json:"wicket_type" db:"wicket_type"`
}

// Filter carries the caller's scoping parameters into the executor.
// Zero values mean "not filtered".
type Filter struct {
	Team   string `json:"team,omitempty"`
	Season int    `json:"season,omitempty"`
	Venue  string `json:"venue,omitempty"`
	From   string `json:"from,omitempty"` // YYYY-MM-DD
	To     string `json:"to,omitempty"`   // YYYY-MM-DD
}

// InningsTotals is a grouped per-innings aggregate row
type InningsTotals struct {
	MatchID     int64  `json:"match_id"`
	Inning      int    `json:"inning"`
	BattingTeam string `json:"batting_team"`
	BowlingTeam string `json:"bowling_team"`
	Runs        int    `json:"runs"`
	LegalBalls  int    `json:"legal_balls"`
	Wickets     int    `json:"wickets"`
}

// PhaseTotals is a per-innings aggregate restricted to an overs window
type PhaseTotals struct {
	MatchID    int64 `json:"match_id"`
	Inning     int   `json:"inning"`
	Runs       int   `json:"runs"`
	LegalBalls int   `json:"legal_balls"`
	Wickets    int   `json:"wickets"`
}

// MatchRole pairs a match result with the team that batted first
type MatchRole struct {
	MatchID      int64          `json:"match_id"`
	Team1        string         `json:"team1"`
	Team2        string         `json:"team2"`
	Winner       sql.NullString `json:"winner"`
	MarginType   sql.NullString `json:"margin_type"`
	FirstBatting string         `json:"first_batting"`
}

// TossOutcome is a grouped aggregate of toss decisions and their results
type TossOutcome struct {
	Decision      string `json:"decision"`
	Matches       int    `json:"matches"`
	WinsAfterToss int    `json:"wins_after_toss"`
}

// SeasonCount is a per-season match tally
type SeasonCount struct {
	Season  int `json:"season"`
	Matches int `json:"matches"`
}

// QualityAggregates holds the single-pass counts the quality scorer consumes
type QualityAggregates struct {
	TotalMatches         int            `json:"total_matches"`
	MatchesWithDeliveries int           `json:"matches_with_deliveries"`
	NullVenues           int            `json:"null_venues"`
	NullWinners          int            `json:"null_winners"` // excludes legitimate no-results
	InvalidWinners       int            `json:"invalid_winners"`
	DuplicateSignatures  int            `json:"duplicate_signatures"`
	MinDate              sql.NullString `json:"min_date"`
	MaxDate              sql.NullString `json:"max_date"`
	SeasonCounts         []SeasonCount  `json:"season_counts"`
}

// SeasonSummary describes one season's footprint in the dataset
type SeasonSummary struct {
	Season  int            `json:"season"`
	Matches int            `json:"matches"`
	Teams   int            `json:"teams"`
	Venues  int            `json:"venues"`
	MinDate sql.NullString `json:"min_date"`
	MaxDate sql.NullString `json:"max_date"`
}

// HeadToHead is the grouped aggregate for a pair of teams
type HeadToHead struct {
	Matches   int `json:"matches"`
	Team1Wins int `json:"team1_wins"`
	Team2Wins int `json:"team2_wins"`
	NoResults int `json:"no_results"`
}
