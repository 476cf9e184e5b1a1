package logic

import (
	"math"
	"sort"

	"github.com/scoutcentral/analytics-api/internal/models"
)

// MetricEstimates maps metric -> team -> season estimate. Each metric is
// computed once and reused across every team in the ranking.
type MetricEstimates map[models.Metric]map[models.TeamNumber]float64

// BuildPicklist standardizes each weighted metric across exactly the
// supplied team set and combines the z-scores into one composite score
// per team, sorted descending. Ties keep the caller's team order.
//
// Degeneracies are recovered locally: a zero or undefined population
// standard deviation falls back to FallbackStd, and a team whose metric
// value is exactly 0 contributes a zero z-score for that metric rather
// than a large negative deviation from absence of data. An empty team
// set yields an empty ranking.
func BuildPicklist(teams []models.TeamNumber, estimates MetricEstimates, weights map[models.Metric]float64, flags []models.Metric) []models.PicklistRow {
	rows := make([]models.PicklistRow, 0, len(teams))
	if len(teams) == 0 {
		return rows
	}

	for _, team := range teams {
		rows = append(rows, models.PicklistRow{
			TeamNumber: team,
			Breakdown:  make(map[models.Metric]float64),
		})
	}

	metrics := sortedMetrics(weights)
	for _, metric := range metrics {
		weight := weights[metric]
		if weight == 0 {
			continue
		}
		values := make([]float64, len(teams))
		for i, team := range teams {
			values[i] = estimates[metric][team]
		}
		mean, std := populationStats(values)
		if std == 0 || math.IsNaN(std) {
			std = FallbackStd
		}
		for i := range rows {
			var z float64
			if values[i] != 0 {
				z = (values[i] - mean) / std
			}
			contribution := z * weight
			rows[i].Breakdown[metric] = contribution
			rows[i].Score += contribution
		}
	}

	if len(flags) > 0 {
		for i, team := range teams {
			rows[i].Flags = make(map[models.Metric]float64, len(flags))
			for _, flag := range flags {
				rows[i].Flags[flag] = estimates[flag][team]
			}
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Score > rows[j].Score
	})
	return rows
}

// populationStats returns the population mean and standard deviation
// (divisor n, not n-1) of the values.
func populationStats(values []float64) (mean, std float64) {
	if len(values) == 0 {
		return 0, 0
	}
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}

func sortedMetrics(weights map[models.Metric]float64) []models.Metric {
	metrics := make([]models.Metric, 0, len(weights))
	for m := range weights {
		metrics = append(metrics, m)
	}
	sort.Slice(metrics, func(i, j int) bool { return metrics[i] < metrics[j] })
	return metrics
}
