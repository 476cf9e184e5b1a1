package logic

import "github.com/scoutcentral/analytics-api/internal/models"

// ResultCounts aggregates endgame outcomes by category. The same
// arithmetic serves callers holding raw reports and callers holding
// pre-aggregated category counts.
type ResultCounts map[models.ClimbResult]int

// CountsFromReports tallies endgame results across a team's reports.
func CountsFromReports(reports []models.ScoutReport) ResultCounts {
	counts := make(ResultCounts, len(models.ClimbPoints))
	for _, report := range reports {
		counts[report.Climb]++
	}
	return counts
}

// Total returns the number of recorded attempts across all categories.
func (c ResultCounts) Total() int {
	var n int
	for _, v := range c {
		n += v
	}
	return n
}

// pointBearingResults lists the categories with nonzero point value in a
// stable order.
func pointBearingResults() []models.ClimbResult {
	return []models.ClimbResult{models.ClimbParked, models.ClimbShallow, models.ClimbDeep}
}

// SuccessionEstimate applies the Laplace rule of succession to sparse
// endgame counts. Each point-bearing category's probability is smoothed
// as (observed+1)/(attempts+categories+1) so a result never seen still
// carries mass, and a result always seen never saturates to certainty.
// With zero attempts the fixed baseline is returned instead of betting
// that never-attempted means never-will.
func SuccessionEstimate(team models.TeamNumber, counts ResultCounts) models.RareEventEstimate {
	total := counts.Total()
	if total == 0 {
		return models.RareEventEstimate{
			TeamNumber:         team,
			PredictedPoints:    BaselineEndgamePoints,
			SuccessProbability: BaselineSuccessProbability,
		}
	}

	bearing := pointBearingResults()
	denom := float64(total + len(bearing) + 1)

	var probability, points float64
	for _, result := range bearing {
		p := float64(counts[result]+1) / denom
		probability += p
		points += p * float64(models.ClimbPoints[result])
	}

	return models.RareEventEstimate{
		TeamNumber:         team,
		PredictedPoints:    points,
		SuccessProbability: probability,
		Attempts:           total,
	}
}
