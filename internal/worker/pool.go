// Package worker implements the buffered worker pool for the scout
// report write path. It decouples report submission from storage writes,
// batching event inserts into ClickHouse and guaranteeing that cache
// invalidation for the touched team and tournament runs on every
// successful write.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/scoutcentral/analytics-api/internal/logic"
	"github.com/scoutcentral/analytics-api/internal/models"
	"github.com/scoutcentral/analytics-api/internal/store"
)

var (
	reportsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scout_reports_ingested_total",
		Help: "Total number of scout reports accepted into the queue",
	})

	reportsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scout_reports_processed_total",
		Help: "Total number of scout reports written to storage",
	})

	reportsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scout_reports_failed_total",
		Help: "Total number of scout reports that failed processing",
	})

	reportsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scout_reports_dropped_total",
		Help: "Total number of scout reports dropped at enqueue",
	})

	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scout_worker_queue_depth",
		Help: "Current depth of the report queue",
	})

	batchInsertDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "scout_batch_insert_duration_seconds",
		Help:    "Duration of batched event inserts to ClickHouse",
		Buckets: prometheus.DefBuckets,
	})

	cacheEntriesInvalidated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scout_cache_entries_invalidated_total",
		Help: "Cached analysis results purged by report ingestion",
	})
)

// Job is one scout report awaiting persistence, with the tournament it
// belongs to for cache invalidation.
type Job struct {
	Report        models.ScoutReport
	TournamentKey models.TournamentKey
	Received      time.Time
}

// PoolConfig configures the report worker pool.
type PoolConfig struct {
	WorkerCount   int
	QueueSize     int
	BatchSize     int
	FlushInterval time.Duration
	ClickHouse    driver.Conn
	Postgres      store.PgPool
	Cache         logic.CacheStore
	Logger        *zap.Logger
}

// Pool manages the workers persisting scout reports.
type Pool struct {
	config   PoolConfig
	jobQueue chan Job
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	logger   *zap.SugaredLogger
}

// NewPool creates a report worker pool with defaults for unset sizes.
func NewPool(cfg PoolConfig) *Pool {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 10000
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 200
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = time.Second
	}

	return &Pool{
		config:   cfg,
		jobQueue: make(chan Job, cfg.QueueSize),
		logger:   cfg.Logger.Sugar(),
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start(ctx context.Context) {
	p.ctx, p.cancel = context.WithCancel(ctx)

	for i := 0; i < p.config.WorkerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	p.logger.Infow("Report worker pool started",
		"workers", p.config.WorkerCount,
		"queueSize", p.config.QueueSize,
		"batchSize", p.config.BatchSize,
	)
}

// Stop drains the queue and shuts the pool down. Buffered jobs are
// flushed before workers exit.
func (p *Pool) Stop() {
	p.logger.Info("Stopping report worker pool...")
	close(p.jobQueue)
	p.wg.Wait()
	p.cancel()
	p.logger.Info("Report worker pool stopped")
}

// Enqueue adds a report to the queue, returning false when the pool is
// shutting down or the queue is saturated.
func (p *Pool) Enqueue(report models.ScoutReport, tournament models.TournamentKey) (accepted bool) {
	job := Job{Report: report, TournamentKey: tournament, Received: time.Now()}

	// Protect against sending on a closed queue during shutdown.
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warnw("Failed to enqueue report (pool stopped)", "error", r)
			reportsDropped.Inc()
			accepted = false
		}
	}()

	select {
	case p.jobQueue <- job:
		reportsIngested.Inc()
		queueDepth.Set(float64(len(p.jobQueue)))
		return true
	case <-p.ctx.Done():
		p.logger.Warn("Worker pool context canceled, dropping report")
		reportsDropped.Inc()
		return false
	}
}

// QueueDepth returns the current queue size.
func (p *Pool) QueueDepth() int {
	return len(p.jobQueue)
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	batch := make([]Job, 0, p.config.BatchSize)
	ticker := time.NewTicker(p.config.FlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := p.flushBatch(batch); err != nil {
			reportsFailed.Add(float64(len(batch)))
			p.logger.Errorw("Batch flush failed", "worker", id, "size", len(batch), "error", err)
		} else {
			reportsProcessed.Add(float64(len(batch)))
		}
		batch = batch[:0]
	}

	for {
		select {
		case job, ok := <-p.jobQueue:
			if !ok {
				flush()
				return
			}
			queueDepth.Set(float64(len(p.jobQueue)))
			batch = append(batch, job)
			if len(batch) >= p.config.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

// flushBatch persists a batch: report headers to Postgres, events to
// ClickHouse in one prepared batch, then cache invalidation for every
// team/tournament the batch touched. Invalidation is part of the
// success path; a write is not considered processed without it.
func (p *Pool) flushBatch(batch []Job) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	start := time.Now()
	defer func() {
		batchInsertDuration.Observe(time.Since(start).Seconds())
	}()

	for _, job := range batch {
		if err := p.insertReportHeader(ctx, job.Report); err != nil {
			return fmt.Errorf("insert report header: %w", err)
		}
	}

	if err := p.insertEvents(ctx, batch); err != nil {
		return fmt.Errorf("insert events: %w", err)
	}

	return p.invalidate(ctx, batch)
}

func (p *Pool) insertReportHeader(ctx context.Context, r models.ScoutReport) error {
	_, err := p.config.Postgres.Exec(ctx, `
		INSERT INTO scout_reports
			(id, match_key, team_number, scout_id, driver_ability, climb, pickup, knocks_pieces, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			driver_ability = EXCLUDED.driver_ability,
			climb = EXCLUDED.climb,
			pickup = EXCLUDED.pickup,
			knocks_pieces = EXCLUDED.knocks_pieces,
			notes = EXCLUDED.notes
	`, r.ID.String(), r.MatchKey, int(r.TeamNumber), r.ScoutID,
		r.DriverAbility, string(r.Climb), string(r.Pickup), r.KnocksPieces, r.Notes)
	return err
}

func (p *Pool) insertEvents(ctx context.Context, jobs []Job) error {
	var hasEvents bool
	for _, job := range jobs {
		if len(job.Report.Events) > 0 {
			hasEvents = true
			break
		}
	}
	if !hasEvents {
		return nil
	}

	batch, err := p.config.ClickHouse.PrepareBatch(ctx, `
		INSERT INTO scout_events (report_id, match_key, team_number, tournament_key, event_time, action, position, points)
	`)
	if err != nil {
		return err
	}
	for _, job := range jobs {
		for _, ev := range job.Report.Events {
			if err := batch.Append(
				job.Report.ID.String(),
				job.Report.MatchKey,
				int32(job.Report.TeamNumber),
				string(job.TournamentKey),
				ev.Time,
				string(ev.Action),
				string(ev.Position),
				int32(ev.Points),
			); err != nil {
				return err
			}
		}
	}
	return batch.Send()
}

// invalidate purges cached analysis results depending on any team or
// tournament the batch wrote to. Best effort: a purge failure is logged
// and retried implicitly by result TTLs, never blocks the write ack.
func (p *Pool) invalidate(ctx context.Context, batch []Job) error {
	if p.config.Cache == nil {
		return nil
	}

	depSet := make(map[string]struct{})
	for _, job := range batch {
		depSet[logic.TeamDep(job.Report.TeamNumber)] = struct{}{}
		depSet[logic.TournamentDep(job.TournamentKey)] = struct{}{}
	}
	deps := make([]string, 0, len(depSet))
	for dep := range depSet {
		deps = append(deps, dep)
	}

	purged, err := p.config.Cache.Invalidate(ctx, deps)
	if err != nil {
		p.logger.Warnw("Cache invalidation failed", "deps", deps, "error", err)
		return nil
	}
	cacheEntriesInvalidated.Add(float64(purged))
	return nil
}
