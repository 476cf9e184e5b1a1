package logic

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/scoutcentral/analytics-api/internal/models"
)

var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scout_analysis_cache_hits_total",
		Help: "Total number of analysis cache hits",
	})

	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scout_analysis_cache_misses_total",
		Help: "Total number of analysis cache misses",
	})

	cacheDecodeFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scout_analysis_cache_decode_failures_total",
		Help: "Cached entries that failed validation and were recomputed",
	})

	computeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "scout_analysis_compute_duration_seconds",
		Help:    "Duration of cache-miss analysis computations",
		Buckets: prometheus.DefBuckets,
	})
)

// CacheKey builds the deterministic identity of a memoized computation:
// the function name, its argument fragments, and the data-source-rule
// fingerprint when the computation is rule-sensitive.
func CacheKey(fn string, fragments ...string) string {
	parts := append([]string{fn}, fragments...)
	return strings.Join(parts, ":")
}

// TeamDep and TournamentDep produce dependency tags linking a cached
// result to the entities it was computed from.
func TeamDep(team models.TeamNumber) string {
	return fmt.Sprintf("team:%d", team)
}

func TournamentDep(key models.TournamentKey) string {
	return "tournament:" + string(key)
}

// CachedResult memoizes compute under key. On a hit the stored bytes
// must unmarshal into T; a corrupted or schema-mismatched entry counts
// as a miss and is silently recomputed and overwritten. On a miss the
// computed result has every numeric leaf rounded to two decimals (with
// non-finite values coerced to 0) before being stored against the
// dependency tags compute reports. Store failures degrade to uncached
// computation, never to a hard error.
func CachedResult[T any](ctx context.Context, store CacheStore, logger *zap.SugaredLogger, key string, ttl time.Duration, compute func(context.Context) (T, []string, error)) (T, error) {
	var zero T

	if store != nil {
		raw, ok, err := store.Get(ctx, key)
		if err != nil {
			logger.Warnw("cache read failed", "key", key, "error", err)
		} else if ok {
			var cached T
			if err := json.Unmarshal(raw, &cached); err == nil {
				cacheHits.Inc()
				return cached, nil
			}
			cacheDecodeFailures.Inc()
		}
	}
	cacheMisses.Inc()

	start := time.Now()
	result, deps, err := compute(ctx)
	computeDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return zero, err
	}

	raw, err := json.Marshal(result)
	if err != nil {
		// Non-finite values can reach here only if an upstream guard
		// was missed; return the live result uncached.
		logger.Warnw("result not cacheable", "key", key, "error", err)
		return result, nil
	}

	rounded, err := roundNumericLeaves(raw)
	if err != nil {
		logger.Warnw("result rounding failed", "key", key, "error", err)
		return result, nil
	}

	if store != nil {
		if err := store.Set(ctx, key, rounded, deps, ttl); err != nil {
			logger.Warnw("cache write failed", "key", key, "error", err)
		}
	}

	// Return the rounded form so hit and miss paths agree.
	var final T
	if err := json.Unmarshal(rounded, &final); err != nil {
		return result, nil
	}
	return final, nil
}

// roundNumericLeaves re-encodes a JSON document with every number
// rounded to two decimal places.
func roundNumericLeaves(raw []byte) ([]byte, error) {
	var tree any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, err
	}
	return json.Marshal(sanitizeNumbers(tree))
}

// sanitizeNumbers walks a decoded JSON tree, rounding float64 leaves to
// two decimals and coercing non-finite values to 0.
func sanitizeNumbers(v any) any {
	switch node := v.(type) {
	case float64:
		if math.IsNaN(node) || math.IsInf(node, 0) {
			return 0.0
		}
		return math.Round(node*100) / 100
	case map[string]any:
		for k, child := range node {
			node[k] = sanitizeNumbers(child)
		}
		return node
	case []any:
		for i, child := range node {
			node[i] = sanitizeNumbers(child)
		}
		return node
	default:
		return v
	}
}
