package analytics

import "github.com/pitchside/analytics/internal/database"

// Phase names used by the service and the HTTP layer
const (
	PhasePowerplay  = "powerplay"
	PhaseDeathOvers = "death_overs"
)

// ComputePhase folds per-innings window totals into a team's phase line.
// The rows are already restricted to the overs window and to innings the
// team batted; an empty slice is reported as insufficient data, not as a
// zero run rate.
func ComputePhase(team, phase string, startOver, endOver int, rows []database.PhaseTotals) PhaseResult {
	result := PhaseResult{
		Team:      team,
		Phase:     phase,
		StartOver: startOver,
		EndOver:   endOver,
	}

	if len(rows) == 0 {
		result.Insufficient = true
		return result
	}

	for _, r := range rows {
		result.Innings++
		result.Runs += r.Runs
		result.LegalBalls += r.LegalBalls
		result.Wickets += r.Wickets
	}

	result.RunRate = Divide(float64(result.Runs), float64(result.LegalBalls)/6.0)
	result.RunsPerInnings = Divide(float64(result.Runs), float64(result.Innings))
	return result
}
