// Package analytics computes the engine's derived metrics: net run rate,
// phase splits, chase and defend records, standings, and the descriptive
// match aggregates. Calculators are pure functions over rows produced by
// the query executor; the Service wires them to the cache and the store.
package analytics

import (
	"encoding/json"

	"github.com/pitchside/analytics/internal/database"
)

// Ratio is a rate that may be undefined when its denominator is zero.
// An undefined ratio marshals as JSON null, never as NaN or infinity.
type Ratio struct {
	Value   float64
	Defined bool
}

// DefinedRatio builds a defined ratio
func DefinedRatio(v float64) Ratio {
	return Ratio{Value: v, Defined: true}
}

// Divide returns num/den, undefined when den is zero
func Divide(num, den float64) Ratio {
	if den == 0 {
		return Ratio{}
	}
	return DefinedRatio(num / den)
}

func (r Ratio) MarshalJSON() ([]byte, error) {
	if !r.Defined {
		return []byte("null"), nil
	}
	return json.Marshal(r.Value)
}

func (r *Ratio) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = Ratio{}
		return nil
	}
	if err := json.Unmarshal(data, &r.Value); err != nil {
		return err
	}
	r.Defined = true
	return nil
}

// NRRResult is the net run rate breakdown for one team. Filter echoes the
// parameters the result was computed under.
type NRRResult struct {
	Filter       database.Filter `json:"filter"`
	Team         string          `json:"team"`
	Innings      int             `json:"innings"`
	RunsScored   int             `json:"runs_scored"`
	OversFaced   float64         `json:"overs_faced"`
	RunsConceded int             `json:"runs_conceded"`
	OversBowled  float64         `json:"overs_bowled"`
	NetRunRate   Ratio           `json:"net_run_rate"`
	Insufficient bool            `json:"insufficient_data,omitempty"`
}

// PhaseResult is a team's aggregate over a fixed overs window
type PhaseResult struct {
	Filter         database.Filter `json:"filter"`
	Team           string          `json:"team"`
	Phase          string          `json:"phase"`
	StartOver      int             `json:"start_over"`
	EndOver        int             `json:"end_over"`
	Innings        int             `json:"innings"`
	Runs           int             `json:"runs"`
	LegalBalls     int             `json:"legal_balls"`
	Wickets        int             `json:"wickets"`
	RunRate        Ratio           `json:"run_rate"`
	RunsPerInnings Ratio           `json:"runs_per_innings"`
	Insufficient   bool            `json:"insufficient_data,omitempty"`
}

// RoleRecord is a win record in one role (chasing or defending)
type RoleRecord struct {
	Played int   `json:"played"`
	Won    int   `json:"won"`
	WinPct Ratio `json:"win_pct"`
}

// ChaseDefendResult splits a team's results by whether it batted second
type ChaseDefendResult struct {
	Filter       database.Filter `json:"filter"`
	Team         string          `json:"team"`
	Chasing      RoleRecord      `json:"chasing"`
	Defending    RoleRecord      `json:"defending"`
	Insufficient bool            `json:"insufficient_data,omitempty"`
}

// StandingsRow is one team's line in a season table
type StandingsRow struct {
	Position   int    `json:"position"`
	Team       string `json:"team"`
	Played     int    `json:"played"`
	Won        int    `json:"won"`
	Lost       int    `json:"lost"`
	NoResults  int    `json:"no_results"`
	Points     int    `json:"points"`
	NetRunRate Ratio  `json:"net_run_rate"`
}

// HeadToHeadResult is the record between a pair of teams
type HeadToHeadResult struct {
	Team1        string `json:"team1"`
	Team2        string `json:"team2"`
	Matches      int    `json:"matches"`
	Team1Wins    int    `json:"team1_wins"`
	Team2Wins    int    `json:"team2_wins"`
	NoResults    int    `json:"no_results"`
	Insufficient bool   `json:"insufficient_data,omitempty"`
}

// TossImpactRow reports how often winning a toss decision led to winning
// the match.
type TossImpactRow struct {
	Decision      string `json:"decision"`
	Matches       int    `json:"matches"`
	WinsAfterToss int    `json:"wins_after_toss"`
	WinRate       Ratio  `json:"win_rate"`
}

// SeasonSummaryRow describes one season's footprint
type SeasonSummaryRow struct {
	Season     int    `json:"season"`
	Matches    int    `json:"matches"`
	Teams      int    `json:"teams"`
	Venues     int    `json:"venues"`
	FirstMatch string `json:"first_match,omitempty"`
	LastMatch  string `json:"last_match,omitempty"`
}
