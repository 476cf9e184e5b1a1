package logic

import (
	"context"
	"sync"
	"time"

	"github.com/scoutcentral/analytics-api/internal/models"
)

// memCache is an in-memory CacheStore with dependency sets, mirroring
// the Redis implementation's behavior for tests.
type memCache struct {
	mu     sync.Mutex
	values map[string][]byte
	deps   map[string]map[string]struct{}
}

func newMemCache() *memCache {
	return &memCache{
		values: map[string][]byte{},
		deps:   map[string]map[string]struct{}{},
	}
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.values[key]
	return value, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, deps []string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	for _, dep := range deps {
		if c.deps[dep] == nil {
			c.deps[dep] = map[string]struct{}{}
		}
		c.deps[dep][key] = struct{}{}
	}
	return nil
}

func (c *memCache) Invalidate(_ context.Context, deps []string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	stale := map[string]struct{}{}
	for _, dep := range deps {
		for key := range c.deps[dep] {
			stale[key] = struct{}{}
		}
		delete(c.deps, dep)
	}
	for key := range stale {
		delete(c.values, key)
	}
	return len(stale), nil
}

func (c *memCache) entryCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.values)
}

// mockStore is an in-memory SnapshotStore fixture. Errors can be
// injected per team to exercise partial-failure paths.
type mockStore struct {
	mu          sync.Mutex
	teams       []models.TeamNumber
	tournaments []models.Tournament
	matches     map[models.TeamNumber][]models.Match
	reports     map[string][]models.ScoutReport
	coverage    map[models.TournamentKey][2]int
	failTeams   map[models.TeamNumber]error
	fetches     int
}

func newMockStore() *mockStore {
	return &mockStore{
		matches:   map[models.TeamNumber][]models.Match{},
		reports:   map[string][]models.ScoutReport{},
		coverage:  map[models.TournamentKey][2]int{},
		failTeams: map[models.TeamNumber]error{},
	}
}

func (m *mockStore) addQualMatch(team models.TeamNumber, tournament models.TournamentKey, number int, reports ...models.ScoutReport) {
	key := string(tournament) + "_qm" + itoa(number) + "_" + itoa(int(team))
	m.matches[team] = append(m.matches[team], models.Match{
		Key:           key,
		TeamNumber:    team,
		TournamentKey: tournament,
		Type:          models.MatchQualification,
		Number:        number,
	})
	for i := range reports {
		reports[i].MatchKey = key
		reports[i].TeamNumber = team
	}
	m.reports[key] = append(m.reports[key], reports...)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

func (m *mockStore) TeamUniverse(context.Context) ([]models.TeamNumber, error) {
	return m.teams, nil
}

func (m *mockStore) TournamentUniverse(context.Context) ([]models.TournamentKey, error) {
	keys := make([]models.TournamentKey, len(m.tournaments))
	for i, t := range m.tournaments {
		keys[i] = t.Key
	}
	return keys, nil
}

func (m *mockStore) Tournaments(_ context.Context, filter *models.Filter[models.TournamentKey]) ([]models.Tournament, error) {
	var out []models.Tournament
	for _, t := range m.tournaments {
		if filter.Allows(t.Key) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockStore) TeamMatches(_ context.Context, team models.TeamNumber, filter *models.Filter[models.TournamentKey]) ([]models.Match, error) {
	m.mu.Lock()
	m.fetches++
	m.mu.Unlock()
	if err := m.failTeams[team]; err != nil {
		return nil, err
	}
	var out []models.Match
	for _, match := range m.matches[team] {
		if filter.Allows(match.TournamentKey) {
			out = append(out, match)
		}
	}
	return out, nil
}

func (m *mockStore) MatchReports(_ context.Context, matchKeys []string, teamFilter *models.Filter[models.TeamNumber]) (map[string][]models.ScoutReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string][]models.ScoutReport{}
	for _, key := range matchKeys {
		for _, report := range m.reports[key] {
			if teamFilter.Allows(report.TeamNumber) {
				out[key] = append(out[key], report)
			}
		}
	}
	return out, nil
}

func (m *mockStore) TournamentCoverage(_ context.Context, key models.TournamentKey) (int, int, error) {
	cov := m.coverage[key]
	return cov[0], cov[1], nil
}

func (m *mockStore) fetchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetches
}
