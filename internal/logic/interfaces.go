package logic

import (
	"context"
	"time"

	"github.com/scoutcentral/analytics-api/internal/models"
)

// SnapshotStore is the engine's read boundary over already-committed
// entities. Implementations must return matches in chronological order:
// ascending tournament date, qualification before elimination, ascending
// match number. Bulk methods exist so a season computation needs a
// bounded number of round-trips.
type SnapshotStore interface {
	// TeamUniverse returns every known team number.
	TeamUniverse(ctx context.Context) ([]models.TeamNumber, error)

	// TournamentUniverse returns every known tournament key in date order.
	TournamentUniverse(ctx context.Context) ([]models.TournamentKey, error)

	// Tournaments returns tournaments passing the filter in date order.
	Tournaments(ctx context.Context, filter *models.Filter[models.TournamentKey]) ([]models.Tournament, error)

	// TeamMatches returns the team's matches at tournaments passing the
	// filter, chronologically ordered.
	TeamMatches(ctx context.Context, team models.TeamNumber, filter *models.Filter[models.TournamentKey]) ([]models.Match, error)

	// MatchReports returns the scout reports (with events) for the given
	// matches, keyed by match key. Reports whose team fails the filter
	// are omitted.
	MatchReports(ctx context.Context, matchKeys []string, teamFilter *models.Filter[models.TeamNumber]) (map[string][]models.ScoutReport, error)

	// TournamentCoverage returns how many of the tournament's matches
	// have at least one scout report, and the total scheduled.
	TournamentCoverage(ctx context.Context, key models.TournamentKey) (scouted, total int, err error)
}

// CacheStore persists memoized computation results tagged with the
// entities they depend on.
type CacheStore interface {
	// Get returns the stored bytes for key, with ok=false on a miss.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set stores value under key and registers it against each
	// dependency tag.
	Set(ctx context.Context, key string, value []byte, deps []string, ttl time.Duration) error

	// Invalidate purges every entry whose dependency list intersects
	// deps, returning the number of purged entries.
	Invalidate(ctx context.Context, deps []string) (int, error)
}
