package logic

import (
	"math"

	"github.com/scoutcentral/analytics-api/internal/models"
)

// AllianceSize is the number of cooperating teams on one side of a match.
const AllianceSize = 3

// TeamSeries is one team's historical per-match point timeline, the raw
// input to a match prediction.
type TeamSeries struct {
	Team   models.TeamNumber
	Points []float64
}

// teamDistribution summarizes a point series as a normal distribution
// with sample mean and variance.
type teamDistribution struct {
	mean     float64
	variance float64
}

// fitTeamDistribution fits a team's historical point series. Fewer than
// MinPredictionMatches scored matches leaves the distribution undefined
// and is reported as ErrInsufficientData, never as a numeric zero.
func fitTeamDistribution(s TeamSeries) (teamDistribution, error) {
	if len(s.Points) < MinPredictionMatches {
		return teamDistribution{}, insufficientData(s.Team, len(s.Points))
	}

	var mean float64
	for _, v := range s.Points {
		mean += v
	}
	mean /= float64(len(s.Points))

	var variance float64
	for _, v := range s.Points {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(s.Points) - 1)

	return teamDistribution{mean: mean, variance: variance}, nil
}

// PredictWinProbability estimates the outcome of a hypothetical match
// between two three-team alliances from each team's per-match point
// timeline. Teams are assumed independent, so an alliance's mean is the
// sum of its teams' means and its variance the sum of their variances.
// The win probability for alliance B is the normal tail mass of the
// score differential below zero; alliance A gets the complement.
func PredictWinProbability(allianceA, allianceB [AllianceSize]TeamSeries) (*models.MatchPrediction, error) {
	distA, err := allianceDistribution(allianceA)
	if err != nil {
		return nil, err
	}
	distB, err := allianceDistribution(allianceB)
	if err != nil {
		return nil, err
	}

	diffMean := distA.mean - distB.mean
	diffStd := math.Sqrt(distA.variance + distB.variance)

	var winB float64
	if diffStd == 0 {
		// Degenerate zero-variance matchup: deterministic outcome.
		switch {
		case diffMean > 0:
			winB = 0
		case diffMean < 0:
			winB = 1
		default:
			winB = 0.5
		}
	} else {
		winB = stdNormalCDF((0 - diffMean) / diffStd)
	}

	pred := &models.MatchPrediction{
		WinProbabilityA: 1 - winB,
		WinProbabilityB: winB,
	}
	switch {
	case pred.WinProbabilityA > pred.WinProbabilityB:
		pred.FavoredAlliance = models.AllianceA
	case pred.WinProbabilityB > pred.WinProbabilityA:
		pred.FavoredAlliance = models.AllianceB
	default:
		pred.FavoredAlliance = models.AllianceEven
	}
	return pred, nil
}

func allianceDistribution(alliance [AllianceSize]TeamSeries) (teamDistribution, error) {
	var combined teamDistribution
	for _, s := range alliance {
		dist, err := fitTeamDistribution(s)
		if err != nil {
			return teamDistribution{}, err
		}
		combined.mean += dist.mean
		combined.variance += dist.variance
	}
	return combined, nil
}
