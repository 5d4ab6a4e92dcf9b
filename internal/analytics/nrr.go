package analytics

import "github.com/pitchside/analytics/internal/database"

// allOutWickets is the wicket count at which an innings is treated as
// complete regardless of balls faced.
const allOutWickets = 10

// effectiveOvers converts an innings to decimal overs for rate purposes.
// An all-out side is charged its full allotment, the standard net run rate
// convention, and the same rule applies to the bowling side's figure.
func effectiveOvers(legalBalls, wickets, allottedOvers int) float64 {
	if wickets >= allOutWickets {
		return float64(allottedOvers)
	}
	return float64(legalBalls) / 6.0
}

// ComputeNRR folds per-innings totals into a team's net run rate. Innings
// where team batted contribute to the scored side, innings where it bowled
// to the conceded side. With no overs on either side the rate is undefined
// rather than zero.
func ComputeNRR(team string, innings []database.InningsTotals, allottedOvers int) NRRResult {
	result := NRRResult{Team: team}

	for _, inn := range innings {
		overs := effectiveOvers(inn.LegalBalls, inn.Wickets, allottedOvers)
		switch team {
		case inn.BattingTeam:
			result.Innings++
			result.RunsScored += inn.Runs
			result.OversFaced += overs
		case inn.BowlingTeam:
			result.RunsConceded += inn.Runs
			result.OversBowled += overs
		}
	}

	if result.Innings == 0 && result.OversBowled == 0 {
		result.Insufficient = true
		return result
	}

	scored := Divide(float64(result.RunsScored), result.OversFaced)
	conceded := Divide(float64(result.RunsConceded), result.OversBowled)
	if scored.Defined && conceded.Defined {
		result.NetRunRate = DefinedRatio(scored.Value - conceded.Value)
	}
	return result
}
