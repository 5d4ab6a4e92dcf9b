package analytics

import (
	"sort"

	"github.com/pitchside/analytics/internal/database"
)

// Points per result in a league table
const (
	pointsWin      = 2
	pointsNoResult = 1
)

// ComputeStandings builds a season table from match results and per-innings
// totals. Teams are ranked by points, then net run rate, then name; an
// undefined net run rate sorts below any defined one.
func ComputeStandings(roles []database.MatchRole, innings []database.InningsTotals, allottedOvers, topN int) []StandingsRow {
	records := make(map[string]*StandingsRow)
	team := func(name string) *StandingsRow {
		if r, ok := records[name]; ok {
			return r
		}
		r := &StandingsRow{Team: name}
		records[name] = r
		return r
	}

	for _, role := range roles {
		for _, name := range []string{role.Team1, role.Team2} {
			r := team(name)
			r.Played++
			switch {
			case role.Winner.Valid && role.Winner.String == name:
				r.Won++
				r.Points += pointsWin
			case !role.Winner.Valid:
				r.NoResults++
				r.Points += pointsNoResult
			default:
				r.Lost++
			}
		}
	}

	for name, r := range records {
		r.NetRunRate = ComputeNRR(name, innings, allottedOvers).NetRunRate
	}

	rows := make([]StandingsRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, *r)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Points != rows[j].Points {
			return rows[i].Points > rows[j].Points
		}
		a, b := rows[i].NetRunRate, rows[j].NetRunRate
		if a.Defined != b.Defined {
			return a.Defined
		}
		if a.Defined && a.Value != b.Value {
			return a.Value > b.Value
		}
		return rows[i].Team < rows[j].Team
	})

	if topN > 0 && len(rows) > topN {
		rows = rows[:topN]
	}
	for i := range rows {
		rows[i].Position = i + 1
	}
	return rows
}
