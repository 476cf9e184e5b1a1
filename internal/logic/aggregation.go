package logic

import (
	"sort"

	"github.com/scoutcentral/analytics-api/internal/models"
)

// MatchValue pairs a match with its evaluated metric scalar. A nil value
// is a scouting gap and is excluded from every denominator.
type MatchValue struct {
	Match models.Match
	Value *float64
}

// TournamentSeries groups one team's per-match values at one tournament,
// together with tournament-wide scouting coverage used for the dynamic
// recency weight.
type TournamentSeries struct {
	Tournament     models.Tournament
	Matches        []MatchValue
	ScoutedMatches int
	TotalMatches   int
}

// SeasonAggregate is the recency-weighted season estimate plus the full
// audit timeline. Average is nil when no match in the season carried
// data.
type SeasonAggregate struct {
	Average  *float64
	Timeline []models.TimelinePoint
}

// SortMatches orders matches chronologically within a tournament:
// qualification before elimination, then ascending match number.
func SortMatches(matches []MatchValue) {
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i].Match, matches[j].Match
		if a.Type.SortOrder() != b.Type.SortOrder() {
			return a.Type.SortOrder() < b.Type.SortOrder()
		}
		return a.Number < b.Number
	})
}

// AggregateSeason folds a team's chronologically ordered tournament
// series into one recency-weighted scalar.
//
// Within a tournament, match values are averaged with gaps excluded from
// the denominator. Across tournaments (oldest to newest) the first
// tournament with data seeds the running value, interior tournaments are
// blended with the flat decay (running*0.2 + avg*0.8), and the most
// recent tournament's weight scales with how much of it has actually
// been scouted, approaching 0.95 at full coverage. A single early,
// sparsely covered event therefore cannot dominate the estimate.
func AggregateSeason(series []TournamentSeries) SeasonAggregate {
	ordered := make([]TournamentSeries, len(series))
	copy(ordered, series)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Tournament.Date.Before(ordered[j].Tournament.Date)
	})

	type tournamentAvg struct {
		avg      float64
		coverage float64
	}

	var (
		timeline []models.TimelinePoint
		folds    []tournamentAvg
	)
	for i := range ordered {
		// Sort a copy; the caller's series stays untouched.
		matches := make([]MatchValue, len(ordered[i].Matches))
		copy(matches, ordered[i].Matches)
		SortMatches(matches)

		var sum float64
		var n int
		for _, mv := range matches {
			if mv.Value == nil {
				continue
			}
			sum += *mv.Value
			n++
			timeline = append(timeline, models.TimelinePoint{
				MatchKey:       mv.Match.Key,
				TournamentName: ordered[i].Tournament.Name,
				Value:          *mv.Value,
			})
		}
		if n == 0 {
			continue
		}
		folds = append(folds, tournamentAvg{
			avg:      sum / float64(n),
			coverage: coverageFraction(ordered[i].ScoutedMatches, ordered[i].TotalMatches),
		})
	}

	if len(folds) == 0 {
		return SeasonAggregate{Timeline: timeline}
	}

	running := folds[0].avg
	for i := 1; i < len(folds); i++ {
		if i < len(folds)-1 {
			running = running*InteriorDecay + folds[i].avg*(1-InteriorDecay)
			continue
		}
		w := recentWeight(folds[i].coverage)
		running = running*(1-w) + folds[i].avg*w
	}

	return SeasonAggregate{Average: &running, Timeline: timeline}
}

func coverageFraction(scouted, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(scouted) / float64(total)
}

// recentWeight maps observed coverage of the most recent tournament to
// the weight placed on it: 0.95 * (1 - 1/(4*fraction + 1)).
func recentWeight(fraction float64) float64 {
	if fraction < 0 {
		fraction = 0
	}
	return MaxRecentWeight * (1 - 1/(CoverageGain*fraction+1))
}
