package logic

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/scoutcentral/analytics-api/internal/models"
)

// AnalysisService orchestrates the engine: it narrows the observation
// universe through the caller's data-source rules, evaluates per-match
// scalars, folds them into season estimates, and serves rankings and
// predictions through the result cache.
type AnalysisService struct {
	store       SnapshotStore
	cache       CacheStore
	logger      *zap.SugaredLogger
	validate    *validator.Validate
	cacheTTL    time.Duration
	concurrency int
}

// NewAnalysisService wires the engine. cache may be nil for uncached
// operation (tests, one-shot tools). concurrency bounds per-team fan-out.
func NewAnalysisService(store SnapshotStore, cache CacheStore, logger *zap.Logger, cacheTTL time.Duration, concurrency int) *AnalysisService {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &AnalysisService{
		store:       store,
		cache:       cache,
		logger:      logger.Sugar(),
		validate:    validator.New(),
		cacheTTL:    cacheTTL,
		concurrency: concurrency,
	}
}

// teamSeason is one team's filtered season snapshot, fetched with three
// bulk reads and reusable across every metric evaluation.
type teamSeason struct {
	tournaments []models.Tournament
	matches     map[models.TournamentKey][]models.Match
	reports     map[string][]models.ScoutReport
	coverage    map[models.TournamentKey][2]int
}

func (ts *teamSeason) tournamentKeys() []models.TournamentKey {
	keys := make([]models.TournamentKey, 0, len(ts.tournaments))
	for _, t := range ts.tournaments {
		if len(ts.matches[t.Key]) > 0 {
			keys = append(keys, t.Key)
		}
	}
	return keys
}

// series evaluates one metric across the season, producing the ordered
// per-tournament groups the aggregator consumes.
func (ts *teamSeason) series(metric models.Metric) ([]TournamentSeries, error) {
	var out []TournamentSeries
	for _, tournament := range ts.tournaments {
		matches := ts.matches[tournament.Key]
		if len(matches) == 0 {
			continue
		}
		group := TournamentSeries{Tournament: tournament}
		if cov, ok := ts.coverage[tournament.Key]; ok {
			group.ScoutedMatches, group.TotalMatches = cov[0], cov[1]
		}
		for _, match := range matches {
			value, err := EvaluateMatchMetric(ts.reports[match.Key], metric, nil)
			if err != nil {
				return nil, err
			}
			group.Matches = append(group.Matches, MatchValue{Match: match, Value: value})
		}
		out = append(out, group)
	}
	return out, nil
}

// allReports flattens the season's report set, for discrete-outcome
// tallies.
func (ts *teamSeason) allReports() []models.ScoutReport {
	var out []models.ScoutReport
	for _, tournament := range ts.tournaments {
		for _, match := range ts.matches[tournament.Key] {
			out = append(out, ts.reports[match.Key]...)
		}
	}
	return out
}

func (s *AnalysisService) resolveFilters(ctx context.Context, actx AnalysisContext) (*models.Filter[models.TeamNumber], *models.Filter[models.TournamentKey], map[models.TeamNumber]struct{}, error) {
	teamUniverse, err := s.store.TeamUniverse(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("team universe: %w", err)
	}
	tournamentUniverse, err := s.store.TournamentUniverse(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("tournament universe: %w", err)
	}

	known := make(map[models.TeamNumber]struct{}, len(teamUniverse))
	for _, team := range teamUniverse {
		known[team] = struct{}{}
	}

	teamFilter := ResolveFilter(actx.TeamRule, teamUniverse)
	tournamentFilter := ResolveFilter(actx.TournamentRule, tournamentUniverse)
	return teamFilter, tournamentFilter, known, nil
}

// fetchTeamSeason performs the bulk reads for one team's season under
// the resolved filters.
func (s *AnalysisService) fetchTeamSeason(ctx context.Context, team models.TeamNumber, teamFilter *models.Filter[models.TeamNumber], tournamentFilter *models.Filter[models.TournamentKey]) (*teamSeason, error) {
	matches, err := s.store.TeamMatches(ctx, team, tournamentFilter)
	if err != nil {
		return nil, fmt.Errorf("matches for team %d: %w", team, err)
	}

	tournaments, err := s.store.Tournaments(ctx, tournamentFilter)
	if err != nil {
		return nil, fmt.Errorf("tournaments: %w", err)
	}

	season := &teamSeason{
		tournaments: tournaments,
		matches:     make(map[models.TournamentKey][]models.Match),
		reports:     map[string][]models.ScoutReport{},
		coverage:    make(map[models.TournamentKey][2]int),
	}

	matchKeys := make([]string, 0, len(matches))
	for _, match := range matches {
		season.matches[match.TournamentKey] = append(season.matches[match.TournamentKey], match)
		matchKeys = append(matchKeys, match.Key)
	}

	if len(matchKeys) > 0 {
		season.reports, err = s.store.MatchReports(ctx, matchKeys, teamFilter)
		if err != nil {
			return nil, fmt.Errorf("reports for team %d: %w", team, err)
		}
	}

	for key := range season.matches {
		scouted, total, err := s.store.TournamentCoverage(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("coverage for %s: %w", key, err)
		}
		season.coverage[key] = [2]int{scouted, total}
	}

	return season, nil
}

// SeasonMetric computes one team's recency-weighted season estimate for
// a metric, with the full per-match audit timeline. A nil average means
// no qualifying match carried data.
func (s *AnalysisService) SeasonMetric(ctx context.Context, actx AnalysisContext, team models.TeamNumber, metric models.Metric) (*models.MetricSummary, error) {
	if !metric.Valid() {
		return nil, unknownMetric(metric)
	}

	teamFilter, tournamentFilter, known, err := s.resolveFilters(ctx, actx)
	if err != nil {
		return nil, err
	}
	if _, ok := known[team]; !ok {
		return nil, unknownTeam(team)
	}

	key := CacheKey("season_metric", fmt.Sprint(team), string(metric), actx.Fingerprint())
	return CachedResult(ctx, s.cache, s.logger, key, s.cacheTTL, func(ctx context.Context) (*models.MetricSummary, []string, error) {
		season, err := s.fetchTeamSeason(ctx, team, teamFilter, tournamentFilter)
		if err != nil {
			return nil, nil, err
		}
		series, err := season.series(metric)
		if err != nil {
			return nil, nil, err
		}
		agg := AggregateSeason(series)
		summary := &models.MetricSummary{
			TeamNumber: team,
			Metric:     metric,
			Average:    agg.Average,
			Timeline:   agg.Timeline,
		}
		return summary, seasonDeps(team, season), nil
	})
}

// EndgameEstimate returns the succession-smoothed endgame forecast for a
// team, stable even with very few recorded attempts.
func (s *AnalysisService) EndgameEstimate(ctx context.Context, actx AnalysisContext, team models.TeamNumber) (*models.RareEventEstimate, error) {
	teamFilter, tournamentFilter, known, err := s.resolveFilters(ctx, actx)
	if err != nil {
		return nil, err
	}
	if _, ok := known[team]; !ok {
		return nil, unknownTeam(team)
	}

	key := CacheKey("endgame_estimate", fmt.Sprint(team), actx.Fingerprint())
	return CachedResult(ctx, s.cache, s.logger, key, s.cacheTTL, func(ctx context.Context) (*models.RareEventEstimate, []string, error) {
		season, err := s.fetchTeamSeason(ctx, team, teamFilter, tournamentFilter)
		if err != nil {
			return nil, nil, err
		}
		estimate := SuccessionEstimate(team, CountsFromReports(season.allReports()))
		return &estimate, seasonDeps(team, season), nil
	})
}

// Picklist ranks the requested teams by a weighted combination of
// standardized season metrics. A retrieval failure for one team marks
// that team insufficient-data and never poisons its siblings.
func (s *AnalysisService) Picklist(ctx context.Context, actx AnalysisContext, req models.PicklistRequest) ([]models.PicklistRow, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid picklist request: %w", err)
	}
	metrics := make([]models.Metric, 0, len(req.Weights)+len(req.Flags))
	for metric := range req.Weights {
		metrics = append(metrics, metric)
	}
	metrics = append(metrics, req.Flags...)
	for _, metric := range metrics {
		if !metric.Valid() {
			return nil, unknownMetric(metric)
		}
	}
	if len(req.Teams) == 0 {
		return []models.PicklistRow{}, nil
	}

	teamFilter, tournamentFilter, known, err := s.resolveFilters(ctx, actx)
	if err != nil {
		return nil, err
	}
	for _, team := range req.Teams {
		if _, ok := known[team]; !ok {
			return nil, unknownTeam(team)
		}
	}

	key := CacheKey("picklist", picklistFingerprint(req), actx.Fingerprint())
	return CachedResult(ctx, s.cache, s.logger, key, s.cacheTTL, func(ctx context.Context) ([]models.PicklistRow, []string, error) {
		var (
			mu        sync.Mutex
			estimates = make(MetricEstimates, len(metrics))
			failed    = make(map[models.TeamNumber]bool)
			depSet    = map[string]struct{}{}
		)
		for _, metric := range metrics {
			estimates[metric] = make(map[models.TeamNumber]float64, len(req.Teams))
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.concurrency)
		for _, team := range req.Teams {
			team := team
			g.Go(func() error {
				season, err := s.fetchTeamSeason(gctx, team, teamFilter, tournamentFilter)
				if err != nil {
					s.logger.Warnw("team season fetch failed, marking insufficient data",
						"team", team, "error", err)
					mu.Lock()
					failed[team] = true
					mu.Unlock()
					return nil
				}

				values := make(map[models.Metric]float64, len(metrics))
				for _, metric := range metrics {
					series, err := season.series(metric)
					if err != nil {
						return err
					}
					// Ranking denominators default missing data to 0.
					if agg := AggregateSeason(series); agg.Average != nil {
						values[metric] = *agg.Average
					}
				}

				mu.Lock()
				for metric, v := range values {
					estimates[metric][team] = v
				}
				for _, dep := range seasonDeps(team, season) {
					depSet[dep] = struct{}{}
				}
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, nil, err
		}

		// The result depends on every requested team, including the ones
		// whose fetch failed: new data for a failed team must purge the
		// cached insufficient-data row too.
		for _, team := range req.Teams {
			depSet[TeamDep(team)] = struct{}{}
		}

		ranked := make([]models.TeamNumber, 0, len(req.Teams))
		for _, team := range req.Teams {
			if !failed[team] {
				ranked = append(ranked, team)
			}
		}

		rows := BuildPicklist(ranked, estimates, req.Weights, req.Flags)
		for _, team := range req.Teams {
			if failed[team] {
				rows = append(rows, models.PicklistRow{
					TeamNumber:       team,
					Breakdown:        map[models.Metric]float64{},
					InsufficientData: true,
				})
			}
		}

		deps := make([]string, 0, len(depSet))
		for dep := range depSet {
			deps = append(deps, dep)
		}
		sort.Strings(deps)
		return rows, deps, nil
	})
}

// PredictMatch estimates the win probabilities of a hypothetical match
// between two three-team alliances from their historical total-point
// distributions.
func (s *AnalysisService) PredictMatch(ctx context.Context, actx AnalysisContext, req models.PredictionRequest) (*models.MatchPrediction, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid prediction request: %w", err)
	}

	teamFilter, tournamentFilter, known, err := s.resolveFilters(ctx, actx)
	if err != nil {
		return nil, err
	}
	teams := append(req.AllianceA[:], req.AllianceB[:]...)
	for _, team := range teams {
		if _, ok := known[team]; !ok {
			return nil, unknownTeam(team)
		}
	}

	fragments := make([]string, 0, len(teams)+1)
	for _, team := range teams {
		fragments = append(fragments, fmt.Sprint(team))
	}
	fragments = append(fragments, actx.Fingerprint())

	key := CacheKey("predict_match", fragments...)
	return CachedResult(ctx, s.cache, s.logger, key, s.cacheTTL, func(ctx context.Context) (*models.MatchPrediction, []string, error) {
		var (
			mu     sync.Mutex
			series = make(map[models.TeamNumber]TeamSeries, len(teams))
			depSet = map[string]struct{}{}
		)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.concurrency)
		for _, team := range teams {
			team := team
			g.Go(func() error {
				season, err := s.fetchTeamSeason(gctx, team, teamFilter, tournamentFilter)
				if err != nil {
					return err
				}
				ts, err := season.series(models.MetricTotalPoints)
				if err != nil {
					return err
				}
				agg := AggregateSeason(ts)
				points := make([]float64, 0, len(agg.Timeline))
				for _, point := range agg.Timeline {
					points = append(points, point.Value)
				}

				mu.Lock()
				series[team] = TeamSeries{Team: team, Points: points}
				for _, dep := range seasonDeps(team, season) {
					depSet[dep] = struct{}{}
				}
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, nil, err
		}

		var allianceA, allianceB [AllianceSize]TeamSeries
		for i, team := range req.AllianceA {
			allianceA[i] = series[team]
		}
		for i, team := range req.AllianceB {
			allianceB[i] = series[team]
		}

		prediction, err := PredictWinProbability(allianceA, allianceB)
		if err != nil {
			return nil, nil, err
		}

		deps := make([]string, 0, len(depSet))
		for dep := range depSet {
			deps = append(deps, dep)
		}
		sort.Strings(deps)
		return prediction, deps, nil
	})
}

// seasonDeps lists the dependency tags a season computation touched.
func seasonDeps(team models.TeamNumber, season *teamSeason) []string {
	deps := []string{TeamDep(team)}
	for _, key := range season.tournamentKeys() {
		deps = append(deps, TournamentDep(key))
	}
	return deps
}

// picklistFingerprint renders the request deterministically for cache
// keys: teams in order, weight pairs and flags sorted by metric.
func picklistFingerprint(req models.PicklistRequest) string {
	var b strings.Builder
	for i, team := range req.Teams {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprint(&b, team)
	}
	b.WriteByte('|')
	metrics := sortedMetrics(req.Weights)
	for i, metric := range metrics {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%s=%g", metric, req.Weights[metric])
	}
	b.WriteByte('|')
	flags := append([]models.Metric(nil), req.Flags...)
	sort.Slice(flags, func(i, j int) bool { return flags[i] < flags[j] })
	for i, flag := range flags {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(string(flag))
	}
	return b.String()
}
