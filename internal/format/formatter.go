// Package format renders metric results as stable tables: fixed column
// names and order, rates rounded to two decimals at presentation time,
// and undefined values shown as "n/a" rather than zero.
package format

import (
	"fmt"
	"strconv"

	"github.com/pitchside/analytics/internal/analytics"
	"github.com/pitchside/analytics/internal/quality"
)

// NotAvailable is the cell value for undefined or missing figures
const NotAvailable = "n/a"

// Column describes one table column
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"` // "string", "int", or "float"
}

// Table is a rendered metric result
type Table struct {
	Columns []Column   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Note    string     `json:"note,omitempty"`
}

const noteInsufficient = "insufficient data"

func ratio(r analytics.Ratio) string {
	if !r.Defined {
		return NotAvailable
	}
	return fmt.Sprintf("%.2f", r.Value)
}

func num(v int) string { return strconv.Itoa(v) }

func overs(v float64) string { return fmt.Sprintf("%.2f", v) }

// NetRunRate renders an NRR result
func NetRunRate(r analytics.NRRResult) Table {
	t := Table{
		Columns: []Column{
			{Name: "team", Type: "string"},
			{Name: "runs_scored", Type: "int"},
			{Name: "overs_faced", Type: "float"},
			{Name: "runs_conceded", Type: "int"},
			{Name: "overs_bowled", Type: "float"},
			{Name: "net_run_rate", Type: "float"},
		},
	}
	if r.Insufficient {
		t.Note = noteInsufficient
	}
	t.Rows = [][]string{{
		r.Team,
		num(r.RunsScored),
		overs(r.OversFaced),
		num(r.RunsConceded),
		overs(r.OversBowled),
		ratio(r.NetRunRate),
	}}
	return t
}

// Phase renders a powerplay or death-overs result
func Phase(r analytics.PhaseResult) Table {
	t := Table{
		Columns: []Column{
			{Name: "team", Type: "string"},
			{Name: "phase", Type: "string"},
			{Name: "innings", Type: "int"},
			{Name: "runs", Type: "int"},
			{Name: "legal_balls", Type: "int"},
			{Name: "wickets", Type: "int"},
			{Name: "run_rate", Type: "float"},
			{Name: "runs_per_innings", Type: "float"},
		},
	}
	if r.Insufficient {
		t.Note = noteInsufficient
	}
	t.Rows = [][]string{{
		r.Team,
		r.Phase,
		num(r.Innings),
		num(r.Runs),
		num(r.LegalBalls),
		num(r.Wickets),
		ratio(r.RunRate),
		ratio(r.RunsPerInnings),
	}}
	return t
}

// ChaseDefend renders a chase/defend split, one row per role
func ChaseDefend(r analytics.ChaseDefendResult) Table {
	t := Table{
		Columns: []Column{
			{Name: "team", Type: "string"},
			{Name: "role", Type: "string"},
			{Name: "played", Type: "int"},
			{Name: "won", Type: "int"},
			{Name: "win_pct", Type: "float"},
		},
	}
	if r.Insufficient {
		t.Note = noteInsufficient
	}
	t.Rows = [][]string{
		{r.Team, "chasing", num(r.Chasing.Played), num(r.Chasing.Won), ratio(r.Chasing.WinPct)},
		{r.Team, "defending", num(r.Defending.Played), num(r.Defending.Won), ratio(r.Defending.WinPct)},
	}
	return t
}

// Standings renders a season table
func Standings(rows []analytics.StandingsRow) Table {
	t := Table{
		Columns: []Column{
			{Name: "position", Type: "int"},
			{Name: "team", Type: "string"},
			{Name: "played", Type: "int"},
			{Name: "won", Type: "int"},
			{Name: "lost", Type: "int"},
			{Name: "no_results", Type: "int"},
			{Name: "points", Type: "int"},
			{Name: "net_run_rate", Type: "float"},
		},
	}
	if len(rows) == 0 {
		t.Note = noteInsufficient
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{
			num(r.Position), r.Team, num(r.Played), num(r.Won),
			num(r.Lost), num(r.NoResults), num(r.Points), ratio(r.NetRunRate),
		})
	}
	return t
}

// HeadToHead renders a pairwise record
func HeadToHead(r analytics.HeadToHeadResult) Table {
	t := Table{
		Columns: []Column{
			{Name: "team1", Type: "string"},
			{Name: "team2", Type: "string"},
			{Name: "matches", Type: "int"},
			{Name: "team1_wins", Type: "int"},
			{Name: "team2_wins", Type: "int"},
			{Name: "no_results", Type: "int"},
		},
	}
	if r.Insufficient {
		t.Note = noteInsufficient
	}
	t.Rows = [][]string{{
		r.Team1, r.Team2, num(r.Matches), num(r.Team1Wins), num(r.Team2Wins), num(r.NoResults),
	}}
	return t
}

// TossImpact renders per-decision toss outcomes
func TossImpact(rows []analytics.TossImpactRow) Table {
	t := Table{
		Columns: []Column{
			{Name: "decision", Type: "string"},
			{Name: "matches", Type: "int"},
			{Name: "wins_after_toss", Type: "int"},
			{Name: "win_rate", Type: "float"},
		},
	}
	if len(rows) == 0 {
		t.Note = noteInsufficient
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{
			r.Decision, num(r.Matches), num(r.WinsAfterToss), ratio(r.WinRate),
		})
	}
	return t
}

// SeasonSummary renders per-season descriptive rows
func SeasonSummary(rows []analytics.SeasonSummaryRow) Table {
	t := Table{
		Columns: []Column{
			{Name: "season", Type: "int"},
			{Name: "matches", Type: "int"},
			{Name: "teams", Type: "int"},
			{Name: "venues", Type: "int"},
			{Name: "first_match", Type: "string"},
			{Name: "last_match", Type: "string"},
		},
	}
	if len(rows) == 0 {
		t.Note = noteInsufficient
	}
	for _, r := range rows {
		first, last := r.FirstMatch, r.LastMatch
		if first == "" {
			first = NotAvailable
		}
		if last == "" {
			last = NotAvailable
		}
		t.Rows = append(t.Rows, []string{
			num(r.Season), num(r.Matches), num(r.Teams), num(r.Venues), first, last,
		})
	}
	return t
}

// Quality renders a quality report, one row per component plus the overall
// score in the note-free rows.
func Quality(r quality.Report) Table {
	t := Table{
		Columns: []Column{
			{Name: "component", Type: "string"},
			{Name: "score", Type: "float"},
			{Name: "weight", Type: "float"},
			{Name: "detail", Type: "string"},
		},
	}
	if r.Insufficient {
		t.Note = noteInsufficient
		return t
	}
	t.Rows = append(t.Rows, []string{
		"overall", fmt.Sprintf("%.2f", r.Score), "1.00", "weighted composite, 0-100",
	})
	for _, c := range r.Components {
		t.Rows = append(t.Rows, []string{
			c.Name,
			fmt.Sprintf("%.2f", c.Score*100),
			fmt.Sprintf("%.2f", c.Weight),
			c.Detail,
		})
	}
	return t
}
