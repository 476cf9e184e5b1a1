// Seeder generates a synthetic season (tournaments, match schedules and
// scout reports) and pushes the reports through the ingest worker pool,
// exercising the full write path including cache invalidation.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/scoutcentral/analytics-api/internal/config"
	"github.com/scoutcentral/analytics-api/internal/models"
	"github.com/scoutcentral/analytics-api/internal/store"
	"github.com/scoutcentral/analytics-api/internal/worker"
)

const (
	tournamentCount = 3
	teamCount       = 24
	qualsPerTeam    = 8
	reportsPerMatch = 2
)

var teamPool = func() []models.TeamNumber {
	teams := make([]models.TeamNumber, teamCount)
	for i := range teams {
		teams[i] = models.TeamNumber(100 + i*37)
	}
	return teams
}()

func main() {
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	if err := run(logger); err != nil {
		logger.Sugar().Errorw("Seeding failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *zap.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx := context.Background()

	pg, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pg.Close()

	chOpts, err := clickhouse.ParseDSN(cfg.ClickHouseURL)
	if err != nil {
		return fmt.Errorf("clickhouse dsn: %w", err)
	}
	ch, err := clickhouse.Open(chOpts)
	if err != nil {
		return fmt.Errorf("clickhouse: %w", err)
	}
	defer ch.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("redis url: %w", err)
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()

	pool := worker.NewPool(worker.PoolConfig{
		WorkerCount:   cfg.WorkerCount,
		QueueSize:     cfg.QueueSize,
		BatchSize:     cfg.BatchSize,
		FlushInterval: cfg.FlushInterval,
		ClickHouse:    ch,
		Postgres:      pg,
		Cache:         store.NewRedisCache(rdb),
		Logger:        logger,
	})
	pool.Start(ctx)
	defer pool.Stop()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	sugar := logger.Sugar()

	seasonStart := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	for t := 0; t < tournamentCount; t++ {
		key := models.TournamentKey(fmt.Sprintf("2025syn%d", t+1))
		date := seasonStart.AddDate(0, 0, t*21)
		if _, err := pg.Exec(ctx, `
			INSERT INTO tournaments (key, name, date)
			VALUES ($1, $2, $3)
			ON CONFLICT (key) DO NOTHING
		`, string(key), fmt.Sprintf("Synthetic Regional %d", t+1), date); err != nil {
			return fmt.Errorf("insert tournament %s: %w", key, err)
		}

		reports, err := seedTournament(ctx, pg, rng, key)
		if err != nil {
			return err
		}
		for _, r := range reports {
			if !pool.Enqueue(r, key) {
				sugar.Warnw("Report dropped", "match", r.MatchKey, "team", r.TeamNumber)
			}
		}
		sugar.Infow("Seeded tournament", "key", key, "reports", len(reports))
	}

	return nil
}

// seedTournament writes the match schedule and returns generated scout
// reports for the worker pool.
func seedTournament(ctx context.Context, pg *pgxpool.Pool, rng *rand.Rand, tournament models.TournamentKey) ([]models.ScoutReport, error) {
	var reports []models.ScoutReport
	for _, team := range teamPool {
		for q := 1; q <= qualsPerTeam; q++ {
			matchKey := fmt.Sprintf("%s_qm%d_%d", tournament, q, team)
			if _, err := pg.Exec(ctx, `
				INSERT INTO matches (match_key, team_number, tournament_key, match_type, match_number)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (match_key) DO NOTHING
			`, matchKey, int(team), string(tournament), string(models.MatchQualification), q); err != nil {
				return nil, fmt.Errorf("insert match %s: %w", matchKey, err)
			}

			for s := 0; s < reportsPerMatch; s++ {
				reports = append(reports, randomReport(rng, matchKey, team, s))
			}
		}
	}
	return reports, nil
}

func randomReport(rng *rand.Rand, matchKey string, team models.TeamNumber, scout int) models.ScoutReport {
	climbs := []models.ClimbResult{
		models.ClimbNone, models.ClimbFailed, models.ClimbParked,
		models.ClimbShallow, models.ClimbDeep,
	}
	positions := []models.Position{
		models.PositionReefL1, models.PositionReefL2,
		models.PositionReefL3, models.PositionReefL4,
		models.PositionBarge, models.PositionProcessor,
	}

	report := models.ScoutReport{
		ID:            uuid.New(),
		MatchKey:      matchKey,
		TeamNumber:    team,
		ScoutID:       fmt.Sprintf("seed-scout-%d", scout),
		DriverAbility: 1 + rng.Float64()*9,
		Climb:         climbs[rng.Intn(len(climbs))],
		Pickup:        models.PickupSourceFloor,
		KnocksPieces:  rng.Intn(4) == 0,
	}

	scores := 3 + rng.Intn(8)
	for i := 0; i < scores; i++ {
		report.Events = append(report.Events, models.Event{
			Time:     rng.Float64() * 150,
			Action:   models.ActionScore,
			Position: positions[rng.Intn(len(positions))],
			Points:   2 + rng.Intn(5),
		})
	}
	report.Events = append(report.Events, models.Event{
		Time:   rng.Float64() * 15,
		Action: models.ActionLeave,
		Points: 3,
	})
	return report
}
