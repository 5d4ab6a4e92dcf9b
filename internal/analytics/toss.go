package analytics

import "github.com/pitchside/analytics/internal/database"

// ComputeTossImpact converts grouped toss aggregates into per-decision
// win rates. Rates are percentages; a decision with no matches never
// appears in the input.
func ComputeTossImpact(outcomes []database.TossOutcome) []TossImpactRow {
	rows := make([]TossImpactRow, 0, len(outcomes))
	for _, o := range outcomes {
		rows = append(rows, TossImpactRow{
			Decision:      o.Decision,
			Matches:       o.Matches,
			WinsAfterToss: o.WinsAfterToss,
			WinRate:       Divide(float64(o.WinsAfterToss)*100, float64(o.Matches)),
		})
	}
	return rows
}

// ComputeHeadToHead shapes a pairwise aggregate into the reported record
func ComputeHeadToHead(team1, team2 string, h database.HeadToHead) HeadToHeadResult {
	return HeadToHeadResult{
		Team1:        team1,
		Team2:        team2,
		Matches:      h.Matches,
		Team1Wins:    h.Team1Wins,
		Team2Wins:    h.Team2Wins,
		NoResults:    h.NoResults,
		Insufficient: h.Matches == 0,
	}
}
