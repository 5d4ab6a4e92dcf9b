package analytics

import "github.com/pitchside/analytics/internal/database"

// ComputeChaseDefend splits a team's results by batting order. A match
// counts as defending when the team batted first, chasing otherwise.
// Matches without a decided winner, including declared no-results, stay
// out of both denominators.
func ComputeChaseDefend(team string, roles []database.MatchRole) ChaseDefendResult {
	result := ChaseDefendResult{Team: team}

	for _, role := range roles {
		if role.Team1 != team && role.Team2 != team {
			continue
		}
		if !role.Winner.Valid || role.FirstBatting == "" {
			continue
		}

		won := role.Winner.String == team
		if role.FirstBatting == team {
			result.Defending.Played++
			if won {
				result.Defending.Won++
			}
		} else {
			result.Chasing.Played++
			if won {
				result.Chasing.Won++
			}
		}
	}

	if result.Chasing.Played == 0 && result.Defending.Played == 0 {
		result.Insufficient = true
		return result
	}

	result.Chasing.WinPct = winPct(result.Chasing)
	result.Defending.WinPct = winPct(result.Defending)
	return result
}

func winPct(r RoleRecord) Ratio {
	return Divide(float64(r.Won)*100, float64(r.Played))
}
