package logic

import (
	"math"
	"testing"

	"github.com/scoutcentral/analytics-api/internal/models"
)

func TestSuccessionEstimateNoAttempts(t *testing.T) {
	got := SuccessionEstimate(118, ResultCounts{})

	if got.PredictedPoints != BaselineEndgamePoints {
		t.Errorf("PredictedPoints = %v, want baseline %v", got.PredictedPoints, BaselineEndgamePoints)
	}
	if got.SuccessProbability != BaselineSuccessProbability {
		t.Errorf("SuccessProbability = %v, want baseline %v", got.SuccessProbability, BaselineSuccessProbability)
	}
	if math.IsNaN(got.PredictedPoints) || got.PredictedPoints == 0 {
		t.Errorf("PredictedPoints = %v, must never be 0 or NaN", got.PredictedPoints)
	}
}

func TestSuccessionEstimateSmoothing(t *testing.T) {
	// 3 deep climbs and 2 no-shows: denominator 5+3+1 = 9.
	counts := ResultCounts{
		models.ClimbDeep: 3,
		models.ClimbNone: 2,
	}
	got := SuccessionEstimate(118, counts)

	wantProb := (1.0 + 1.0 + 4.0) / 9.0
	if math.Abs(got.SuccessProbability-wantProb) > 1e-9 {
		t.Errorf("SuccessProbability = %v, want %v", got.SuccessProbability, wantProb)
	}
	wantPoints := (1.0*2 + 1.0*6 + 4.0*12) / 9.0
	if math.Abs(got.PredictedPoints-wantPoints) > 1e-9 {
		t.Errorf("PredictedPoints = %v, want %v", got.PredictedPoints, wantPoints)
	}
	if got.Attempts != 5 {
		t.Errorf("Attempts = %d, want 5", got.Attempts)
	}
}

func TestSuccessionEstimateBounded(t *testing.T) {
	// With any attempts and at least one point-bearing observation, the
	// category probability sum stays strictly inside (0, 1).
	cases := []ResultCounts{
		{models.ClimbParked: 1},
		{models.ClimbDeep: 100},
		{models.ClimbShallow: 1, models.ClimbFailed: 50},
		{models.ClimbParked: 5, models.ClimbShallow: 5, models.ClimbDeep: 5},
	}
	for i, counts := range cases {
		got := SuccessionEstimate(1, counts)
		if got.SuccessProbability <= 0 || got.SuccessProbability >= 1 {
			t.Errorf("case %d: SuccessProbability = %v, want in (0,1)", i, got.SuccessProbability)
		}
	}
}

func TestCountsFromReportsMatchesPreAggregated(t *testing.T) {
	reports := []models.ScoutReport{
		{Climb: models.ClimbDeep},
		{Climb: models.ClimbDeep},
		{Climb: models.ClimbParked},
		{Climb: models.ClimbFailed},
	}
	fromReports := SuccessionEstimate(1, CountsFromReports(reports))
	preAggregated := SuccessionEstimate(1, ResultCounts{
		models.ClimbDeep:   2,
		models.ClimbParked: 1,
		models.ClimbFailed: 1,
	})

	if fromReports != preAggregated {
		t.Errorf("per-report estimate %+v != pre-aggregated estimate %+v", fromReports, preAggregated)
	}
}
