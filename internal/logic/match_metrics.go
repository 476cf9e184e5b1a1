package logic

import (
	"github.com/scoutcentral/analytics-api/internal/models"
)

// EvaluateMatchMetric folds one match's report set into a single scalar
// for the requested metric. A nil result means no qualifying report
// exists for the match; callers must treat that as absence, not zero.
// The optional window overrides the metric's own time window.
func EvaluateMatchMetric(reports []models.ScoutReport, metric models.Metric, window *models.TimeWindow) (*float64, error) {
	spec, ok := metric.Spec()
	if !ok {
		return nil, unknownMetric(metric)
	}
	if len(reports) == 0 {
		return nil, nil
	}
	if window == nil {
		window = spec.Window
	}

	var sum float64
	for _, report := range reports {
		switch spec.Kind {
		case models.KindContinuous:
			sum += report.DriverAbility
		case models.KindPoints:
			sum += float64(eventPoints(report.Events, window))
			if spec.IncludesEndgame {
				sum += float64(models.ClimbPoints[report.Climb])
			}
		case models.KindCount:
			sum += float64(countEvents(report.Events, spec.Action, spec.Position, window))
		case models.KindEndgame:
			sum += float64(models.ClimbPoints[report.Climb])
		}
	}

	value := sum / float64(len(reports))
	return &value, nil
}

func eventPoints(events []models.Event, window *models.TimeWindow) int {
	var total int
	for _, ev := range events {
		if window != nil && !window.Contains(ev.Time) {
			continue
		}
		total += ev.Points
	}
	return total
}

func countEvents(events []models.Event, action models.Action, position models.Position, window *models.TimeWindow) int {
	var count int
	for _, ev := range events {
		if ev.Action != action {
			continue
		}
		if position != models.PositionNone && ev.Position != position {
			continue
		}
		if window != nil && !window.Contains(ev.Time) {
			continue
		}
		count++
	}
	return count
}
