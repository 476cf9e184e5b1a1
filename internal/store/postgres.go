// Package store implements the engine's entity-read boundary over the
// season databases: relational metadata (teams, tournaments, matches,
// report headers) lives in PostgreSQL, bulk timestamped in-match events
// in ClickHouse, and memoized results in Redis.
package store

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/scoutcentral/analytics-api/internal/models"
)

// PgPool defines the subset of the PostgreSQL pool the store needs.
type PgPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store implements logic.SnapshotStore over Postgres and ClickHouse.
type Store struct {
	pg     PgPool
	ch     driver.Conn
	logger *zap.SugaredLogger
}

func New(pg PgPool, ch driver.Conn, logger *zap.Logger) *Store {
	return &Store{pg: pg, ch: ch, logger: logger.Sugar()}
}

// TeamUniverse returns every team number appearing on an official match
// schedule.
func (s *Store) TeamUniverse(ctx context.Context) ([]models.TeamNumber, error) {
	rows, err := s.pg.Query(ctx, `
		SELECT DISTINCT team_number
		FROM matches
		ORDER BY team_number
	`)
	if err != nil {
		return nil, fmt.Errorf("team universe query: %w", err)
	}
	defer rows.Close()

	var teams []models.TeamNumber
	for rows.Next() {
		var team int
		if err := rows.Scan(&team); err != nil {
			return nil, fmt.Errorf("scan team number: %w", err)
		}
		teams = append(teams, models.TeamNumber(team))
	}
	return teams, rows.Err()
}

// TournamentUniverse returns every known tournament key in date order.
func (s *Store) TournamentUniverse(ctx context.Context) ([]models.TournamentKey, error) {
	rows, err := s.pg.Query(ctx, `
		SELECT key
		FROM tournaments
		ORDER BY date, key
	`)
	if err != nil {
		return nil, fmt.Errorf("tournament universe query: %w", err)
	}
	defer rows.Close()

	var keys []models.TournamentKey
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan tournament key: %w", err)
		}
		keys = append(keys, models.TournamentKey(key))
	}
	return keys, rows.Err()
}

// Tournaments returns tournaments passing the filter, oldest first.
func (s *Store) Tournaments(ctx context.Context, filter *models.Filter[models.TournamentKey]) ([]models.Tournament, error) {
	query := `SELECT key, name, date FROM tournaments`
	clause, args := tournamentClause(filter, "key", 1)
	if clause != "" {
		query += " WHERE " + clause
	}
	query += " ORDER BY date, key"

	rows, err := s.pg.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("tournaments query: %w", err)
	}
	defer rows.Close()

	var tournaments []models.Tournament
	for rows.Next() {
		var t models.Tournament
		var key string
		if err := rows.Scan(&key, &t.Name, &t.Date); err != nil {
			return nil, fmt.Errorf("scan tournament: %w", err)
		}
		t.Key = models.TournamentKey(key)
		tournaments = append(tournaments, t)
	}
	return tournaments, rows.Err()
}

// TeamMatches returns one team's matches in chronological order:
// ascending tournament date, qualification before elimination, ascending
// match number. The aggregator's recency weighting depends on this
// ordering.
func (s *Store) TeamMatches(ctx context.Context, team models.TeamNumber, filter *models.Filter[models.TournamentKey]) ([]models.Match, error) {
	query := `
		SELECT m.match_key, m.team_number, m.tournament_key, m.match_type, m.match_number
		FROM matches m
		JOIN tournaments t ON t.key = m.tournament_key
		WHERE m.team_number = $1
	`
	args := []any{int(team)}
	clause, filterArgs := tournamentClause(filter, "m.tournament_key", 2)
	if clause != "" {
		query += " AND " + clause
		args = append(args, filterArgs...)
	}
	query += `
		ORDER BY t.date,
			CASE WHEN m.match_type = 'qualification' THEN 0 ELSE 1 END,
			m.match_number
	`

	rows, err := s.pg.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("team matches query: %w", err)
	}
	defer rows.Close()

	var matches []models.Match
	for rows.Next() {
		var m models.Match
		var teamNumber int
		var tournamentKey, matchType string
		if err := rows.Scan(&m.Key, &teamNumber, &tournamentKey, &matchType, &m.Number); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		m.TeamNumber = models.TeamNumber(teamNumber)
		m.TournamentKey = models.TournamentKey(tournamentKey)
		m.Type = models.MatchType(matchType)
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// MatchReports returns the scout reports for the given matches, with
// their event lists pulled from ClickHouse in one bulk read. Reports by
// teams failing the filter are omitted.
func (s *Store) MatchReports(ctx context.Context, matchKeys []string, teamFilter *models.Filter[models.TeamNumber]) (map[string][]models.ScoutReport, error) {
	out := make(map[string][]models.ScoutReport, len(matchKeys))
	if len(matchKeys) == 0 {
		return out, nil
	}

	query := `
		SELECT id::text, match_key, team_number, scout_id,
			driver_ability, climb, pickup, knocks_pieces, notes
		FROM scout_reports
		WHERE match_key = ANY($1)
	`
	args := []any{matchKeys}
	clause, filterArgs := teamClause(teamFilter, "team_number", 2)
	if clause != "" {
		query += " AND " + clause
		args = append(args, filterArgs...)
	}

	rows, err := s.pg.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("scout reports query: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]*models.ScoutReport)
	var reportIDs []string
	for rows.Next() {
		var r models.ScoutReport
		var id, climb, pickup string
		var teamNumber int
		if err := rows.Scan(&id, &r.MatchKey, &teamNumber, &r.ScoutID,
			&r.DriverAbility, &climb, &pickup, &r.KnocksPieces, &r.Notes); err != nil {
			return nil, fmt.Errorf("scan scout report: %w", err)
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("report id %q: %w", id, err)
		}
		r.ID = parsed
		r.TeamNumber = models.TeamNumber(teamNumber)
		r.Climb = models.ClimbResult(climb)
		r.Pickup = models.PickupLocation(pickup)
		byID[id] = &r
		reportIDs = append(reportIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scout reports rows: %w", err)
	}

	if len(reportIDs) > 0 {
		if err := s.fillEvents(ctx, reportIDs, byID); err != nil {
			return nil, err
		}
	}

	for _, report := range byID {
		out[report.MatchKey] = append(out[report.MatchKey], *report)
	}
	return out, nil
}

// fillEvents attaches the timestamped event lists to the reports.
func (s *Store) fillEvents(ctx context.Context, reportIDs []string, byID map[string]*models.ScoutReport) error {
	rows, err := s.ch.Query(ctx, `
		SELECT report_id, event_time, action, position, points
		FROM scout_events
		WHERE report_id IN (?)
		ORDER BY report_id, event_time
	`, reportIDs)
	if err != nil {
		return fmt.Errorf("scout events query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var reportID, action, position string
		var eventTime float64
		var points int32
		if err := rows.Scan(&reportID, &eventTime, &action, &position, &points); err != nil {
			return fmt.Errorf("scan scout event: %w", err)
		}
		report, ok := byID[reportID]
		if !ok {
			continue
		}
		report.Events = append(report.Events, models.Event{
			Time:     eventTime,
			Action:   models.Action(action),
			Position: models.Position(position),
			Points:   int(points),
		})
	}
	return rows.Err()
}

// TournamentCoverage reports how many of a tournament's scheduled match
// slots have at least one scout report.
func (s *Store) TournamentCoverage(ctx context.Context, key models.TournamentKey) (int, int, error) {
	var scouted, total int
	err := s.pg.QueryRow(ctx, `
		SELECT
			COUNT(DISTINCT r.match_key),
			COUNT(DISTINCT m.match_key)
		FROM matches m
		LEFT JOIN scout_reports r ON r.match_key = m.match_key
		WHERE m.tournament_key = $1
	`, string(key)).Scan(&scouted, &total)
	if err != nil {
		return 0, 0, fmt.Errorf("tournament coverage query: %w", err)
	}
	return scouted, total, nil
}
