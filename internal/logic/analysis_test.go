package logic

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/scoutcentral/analytics-api/internal/models"
)

func newTestService(store SnapshotStore, cache CacheStore) *AnalysisService {
	return NewAnalysisService(store, cache, zap.NewNop(), time.Minute, 2)
}

func pointsReport(points int) models.ScoutReport {
	return models.ScoutReport{
		Climb: models.ClimbNone,
		Events: []models.Event{
			{Time: 30, Action: models.ActionScore, Position: models.PositionReefL2, Points: points},
		},
	}
}

// seasonFixture builds a two-tournament season for team 118 with one
// fully-covered match each: 10 points early, 20 points late.
func seasonFixture() *mockStore {
	store := newMockStore()
	store.teams = []models.TeamNumber{118, 254}
	store.tournaments = []models.Tournament{
		{Key: "t1", Name: "Season Opener", Date: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
		{Key: "t2", Name: "District Finals", Date: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)},
	}
	store.coverage["t1"] = [2]int{1, 1}
	store.coverage["t2"] = [2]int{1, 1}
	store.addQualMatch(118, "t1", 1, pointsReport(10))
	store.addQualMatch(118, "t2", 1, pointsReport(20))
	return store
}

func TestSeasonMetricRecencyWeighting(t *testing.T) {
	svc := newTestService(seasonFixture(), nil)

	summary, err := svc.SeasonMetric(context.Background(), AnalysisContext{}, 118, models.MetricTotalPoints)
	if err != nil {
		t.Fatalf("SeasonMetric() error = %v", err)
	}
	if summary.Average == nil {
		t.Fatal("Average = nil, want value")
	}
	// Full coverage at the final tournament: w = 0.95*(1-1/5) = 0.76, so
	// 10*0.24 + 20*0.76 = 17.6.
	if math.Abs(*summary.Average-17.6) > 1e-9 {
		t.Errorf("Average = %v, want 17.6", *summary.Average)
	}
	if len(summary.Timeline) != 2 {
		t.Fatalf("len(Timeline) = %d, want 2", len(summary.Timeline))
	}
	if summary.Timeline[0].Value != 10 || summary.Timeline[1].Value != 20 {
		t.Errorf("Timeline values = %v,%v, want 10,20",
			summary.Timeline[0].Value, summary.Timeline[1].Value)
	}
	if summary.Timeline[1].TournamentName != "District Finals" {
		t.Errorf("TournamentName = %q, want %q", summary.Timeline[1].TournamentName, "District Finals")
	}
}

func TestSeasonMetricNoData(t *testing.T) {
	store := seasonFixture()
	svc := newTestService(store, nil)

	// Team 254 is known but never played.
	summary, err := svc.SeasonMetric(context.Background(), AnalysisContext{}, 254, models.MetricTotalPoints)
	if err != nil {
		t.Fatalf("SeasonMetric() error = %v", err)
	}
	if summary.Average != nil {
		t.Errorf("Average = %v, want nil for team without data", *summary.Average)
	}
	if len(summary.Timeline) != 0 {
		t.Errorf("len(Timeline) = %d, want 0", len(summary.Timeline))
	}
}

func TestSeasonMetricUnknownTeam(t *testing.T) {
	svc := newTestService(seasonFixture(), nil)

	_, err := svc.SeasonMetric(context.Background(), AnalysisContext{}, 9999, models.MetricTotalPoints)
	if !errors.Is(err, ErrUnknownTeam) {
		t.Errorf("SeasonMetric() error = %v, want ErrUnknownTeam", err)
	}
}

func TestSeasonMetricUnknownMetric(t *testing.T) {
	svc := newTestService(seasonFixture(), nil)

	_, err := svc.SeasonMetric(context.Background(), AnalysisContext{}, 118, models.Metric("bogus"))
	if !errors.Is(err, ErrUnknownMetric) {
		t.Errorf("SeasonMetric() error = %v, want ErrUnknownMetric", err)
	}
}

func TestSeasonMetricTournamentRule(t *testing.T) {
	store := seasonFixture()
	svc := newTestService(store, nil)

	actx := AnalysisContext{
		TournamentRule: models.Rule[models.TournamentKey]{
			Mode:  models.ModeInclude,
			Items: []models.TournamentKey{"t1"},
		},
	}
	summary, err := svc.SeasonMetric(context.Background(), actx, 118, models.MetricTotalPoints)
	if err != nil {
		t.Fatalf("SeasonMetric() error = %v", err)
	}
	if summary.Average == nil || *summary.Average != 10 {
		t.Errorf("Average = %v, want 10 from the single included tournament", summary.Average)
	}
	if len(summary.Timeline) != 1 {
		t.Errorf("len(Timeline) = %d, want 1", len(summary.Timeline))
	}
}

func TestEndgameEstimateEndToEnd(t *testing.T) {
	store := newMockStore()
	store.teams = []models.TeamNumber{118}
	store.tournaments = []models.Tournament{
		{Key: "t1", Date: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
	}
	store.addQualMatch(118, "t1", 1, models.ScoutReport{Climb: models.ClimbDeep})
	store.addQualMatch(118, "t1", 2, models.ScoutReport{Climb: models.ClimbDeep})
	store.addQualMatch(118, "t1", 3, models.ScoutReport{Climb: models.ClimbDeep})
	store.addQualMatch(118, "t1", 4, models.ScoutReport{Climb: models.ClimbNone})
	store.addQualMatch(118, "t1", 5, models.ScoutReport{Climb: models.ClimbNone})
	svc := newTestService(store, nil)

	got, err := svc.EndgameEstimate(context.Background(), AnalysisContext{}, 118)
	if err != nil {
		t.Fatalf("EndgameEstimate() error = %v", err)
	}
	if got.Attempts != 5 {
		t.Errorf("Attempts = %d, want 5", got.Attempts)
	}
	// (1*2 + 1*6 + 4*12)/9 = 6.222..., served rounded to two decimals.
	if math.Abs(got.PredictedPoints-6.22) > 1e-9 {
		t.Errorf("PredictedPoints = %v, want 6.22", got.PredictedPoints)
	}
}

func TestPicklistPartialFailure(t *testing.T) {
	store := seasonFixture()
	store.teams = []models.TeamNumber{118, 254, 973}
	store.addQualMatch(254, "t1", 2, pointsReport(4))
	store.addQualMatch(973, "t1", 3, pointsReport(8))
	store.failTeams[973] = errors.New("replica lagging")
	svc := newTestService(store, nil)

	rows, err := svc.Picklist(context.Background(), AnalysisContext{}, models.PicklistRequest{
		Teams:   []models.TeamNumber{118, 254, 973},
		Weights: map[models.Metric]float64{models.MetricTotalPoints: 1.0},
	})
	if err != nil {
		t.Fatalf("Picklist() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("len(rows) = %d, want 3", len(rows))
	}
	if rows[0].TeamNumber != 118 {
		t.Errorf("top team = %d, want 118", rows[0].TeamNumber)
	}
	last := rows[len(rows)-1]
	if last.TeamNumber != 973 || !last.InsufficientData {
		t.Errorf("failed team row = %+v, want team 973 flagged insufficient", last)
	}
	for _, row := range rows[:2] {
		if row.InsufficientData {
			t.Errorf("team %d flagged insufficient, want ranked", row.TeamNumber)
		}
	}
}

func TestPicklistInvalidationCoversFailedTeams(t *testing.T) {
	store := seasonFixture()
	store.addQualMatch(254, "t1", 2, pointsReport(4))
	store.failTeams[254] = errors.New("replica lagging")
	cache := newMemCache()
	svc := newTestService(store, cache)
	ctx := context.Background()

	req := models.PicklistRequest{
		Teams:   []models.TeamNumber{118, 254},
		Weights: map[models.Metric]float64{models.MetricTotalPoints: 1.0},
	}
	rows, err := svc.Picklist(ctx, AnalysisContext{}, req)
	if err != nil {
		t.Fatal(err)
	}
	if last := rows[len(rows)-1]; last.TeamNumber != 254 || !last.InsufficientData {
		t.Fatalf("failed team row = %+v, want team 254 flagged insufficient", last)
	}

	// The store recovers and team 254's data becomes reachable again. An
	// ingest-style invalidation for that team must purge the cached
	// picklist even though its fetch failed when the entry was stored.
	delete(store.failTeams, 254)
	purged, err := cache.Invalidate(ctx, []string{TeamDep(254)})
	if err != nil {
		t.Fatal(err)
	}
	if purged == 0 {
		t.Fatal("no cached picklist tagged with the failed team")
	}

	rows, err = svc.Picklist(ctx, AnalysisContext{}, req)
	if err != nil {
		t.Fatal(err)
	}
	for _, row := range rows {
		if row.TeamNumber == 254 && row.InsufficientData {
			t.Error("team 254 still insufficient-data after recovery and invalidation")
		}
	}
}

func TestPicklistUnknownTeam(t *testing.T) {
	svc := newTestService(seasonFixture(), nil)

	_, err := svc.Picklist(context.Background(), AnalysisContext{}, models.PicklistRequest{
		Teams:   []models.TeamNumber{118, 9999},
		Weights: map[models.Metric]float64{models.MetricTotalPoints: 1.0},
	})
	if !errors.Is(err, ErrUnknownTeam) {
		t.Errorf("Picklist() error = %v, want ErrUnknownTeam", err)
	}
}

func TestPicklistInvalidRequest(t *testing.T) {
	svc := newTestService(seasonFixture(), nil)

	_, err := svc.Picklist(context.Background(), AnalysisContext{}, models.PicklistRequest{
		Teams: []models.TeamNumber{118},
	})
	if err == nil {
		t.Error("Picklist() with no weights succeeded, want validation error")
	}
}

func TestPredictMatchEvenAlliances(t *testing.T) {
	store := newMockStore()
	store.tournaments = []models.Tournament{
		{Key: "t1", Date: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
	}
	teams := []models.TeamNumber{101, 102, 103, 201, 202, 203}
	store.teams = teams
	for _, team := range teams {
		store.addQualMatch(team, "t1", 1, pointsReport(10))
		store.addQualMatch(team, "t1", 2, pointsReport(12))
	}
	svc := newTestService(store, nil)

	pred, err := svc.PredictMatch(context.Background(), AnalysisContext{}, models.PredictionRequest{
		AllianceA: [3]models.TeamNumber{101, 102, 103},
		AllianceB: [3]models.TeamNumber{201, 202, 203},
	})
	if err != nil {
		t.Fatalf("PredictMatch() error = %v", err)
	}
	if math.Abs(pred.WinProbabilityA-0.5) > 1e-9 {
		t.Errorf("WinProbabilityA = %v, want 0.5", pred.WinProbabilityA)
	}
	if pred.FavoredAlliance != models.AllianceEven {
		t.Errorf("FavoredAlliance = %q, want %q", pred.FavoredAlliance, models.AllianceEven)
	}
}

func TestPredictMatchInsufficientData(t *testing.T) {
	store := newMockStore()
	store.tournaments = []models.Tournament{
		{Key: "t1", Date: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
	}
	teams := []models.TeamNumber{101, 102, 103, 201, 202, 203}
	store.teams = teams
	for _, team := range teams {
		store.addQualMatch(team, "t1", 1, pointsReport(10))
		if team != 203 {
			store.addQualMatch(team, "t1", 2, pointsReport(12))
		}
	}
	svc := newTestService(store, nil)

	_, err := svc.PredictMatch(context.Background(), AnalysisContext{}, models.PredictionRequest{
		AllianceA: [3]models.TeamNumber{101, 102, 103},
		AllianceB: [3]models.TeamNumber{201, 202, 203},
	})
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("PredictMatch() error = %v, want ErrInsufficientData", err)
	}
}

func TestSeasonMetricCachedAcrossCalls(t *testing.T) {
	store := seasonFixture()
	cache := newMemCache()
	svc := newTestService(store, cache)
	ctx := context.Background()

	first, err := svc.SeasonMetric(ctx, AnalysisContext{}, 118, models.MetricTotalPoints)
	if err != nil {
		t.Fatal(err)
	}
	fetchesAfterMiss := store.fetchCount()

	second, err := svc.SeasonMetric(ctx, AnalysisContext{}, 118, models.MetricTotalPoints)
	if err != nil {
		t.Fatal(err)
	}
	if store.fetchCount() != fetchesAfterMiss {
		t.Error("cache hit still fetched from the store")
	}
	if *first.Average != *second.Average {
		t.Errorf("cached average %v != original %v", *second.Average, *first.Average)
	}
}

func TestSeasonMetricInvalidationReflectsNewData(t *testing.T) {
	store := seasonFixture()
	cache := newMemCache()
	svc := newTestService(store, cache)
	ctx := context.Background()

	stale, err := svc.SeasonMetric(ctx, AnalysisContext{}, 118, models.MetricTotalPoints)
	if err != nil {
		t.Fatal(err)
	}

	// New data lands for team 118. Until the dependency is invalidated the
	// cached result must keep serving; afterwards the recompute must see it.
	store.addQualMatch(118, "t2", 2, pointsReport(40))
	cached, err := svc.SeasonMetric(ctx, AnalysisContext{}, 118, models.MetricTotalPoints)
	if err != nil {
		t.Fatal(err)
	}
	if *cached.Average != *stale.Average {
		t.Errorf("average changed before invalidation: %v vs %v", *cached.Average, *stale.Average)
	}

	if _, err := cache.Invalidate(ctx, []string{TeamDep(118)}); err != nil {
		t.Fatal(err)
	}
	fresh, err := svc.SeasonMetric(ctx, AnalysisContext{}, 118, models.MetricTotalPoints)
	if err != nil {
		t.Fatal(err)
	}
	if *fresh.Average == *stale.Average {
		t.Error("average unchanged after invalidation despite new match data")
	}
	if len(fresh.Timeline) != 3 {
		t.Errorf("len(Timeline) = %d, want 3 after new match", len(fresh.Timeline))
	}
}

func TestSeasonMetricContextRulesChangeCacheKey(t *testing.T) {
	store := seasonFixture()
	cache := newMemCache()
	svc := newTestService(store, cache)
	ctx := context.Background()

	full, err := svc.SeasonMetric(ctx, AnalysisContext{}, 118, models.MetricTotalPoints)
	if err != nil {
		t.Fatal(err)
	}
	scoped, err := svc.SeasonMetric(ctx, AnalysisContext{
		TournamentRule: models.Rule[models.TournamentKey]{
			Mode:  models.ModeInclude,
			Items: []models.TournamentKey{"t1"},
		},
	}, 118, models.MetricTotalPoints)
	if err != nil {
		t.Fatal(err)
	}
	if *full.Average == *scoped.Average {
		t.Error("scoped context served the unscoped cached result")
	}
}
