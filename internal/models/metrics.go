package models

import "math"

// Metric is the closed enumeration of per-team performance metrics.
type Metric string

const (
	MetricTotalPoints    Metric = "total_points"
	MetricAutoPoints     Metric = "auto_points"
	MetricTeleopPoints   Metric = "teleop_points"
	MetricDriverAbility  Metric = "driver_ability"
	MetricEndgamePoints  Metric = "endgame_points"
	MetricReefL1Count    Metric = "reef_l1_count"
	MetricReefL2Count    Metric = "reef_l2_count"
	MetricReefL3Count    Metric = "reef_l3_count"
	MetricReefL4Count    Metric = "reef_l4_count"
	MetricBargeCount     Metric = "barge_count"
	MetricProcessorCount Metric = "processor_count"
	MetricFeedCount      Metric = "feed_count"
)

// MetricKind selects the evaluation strategy for a metric.
type MetricKind int

const (
	// KindContinuous averages a continuous rating field across reports.
	KindContinuous MetricKind = iota
	// KindPoints sums event points inside a time window, averaged
	// across reports.
	KindPoints
	// KindCount counts events matching an action/position pair,
	// averaged across reports.
	KindCount
	// KindEndgame evaluates the discrete endgame result through the
	// climb point table.
	KindEndgame
)

// TimeWindow is a half-open interval [Min, Max) in match seconds.
type TimeWindow struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether t falls inside the window.
func (w TimeWindow) Contains(t float64) bool {
	return t >= w.Min && t < w.Max
}

// MetricSpec describes how a metric is evaluated against one match's
// report set.
type MetricSpec struct {
	Kind MetricKind
	// Window restricts point sums to a match-time interval. Nil means
	// the whole match.
	Window *TimeWindow
	// Action and Position filter events for count metrics. An empty
	// Position matches any position.
	Action   Action
	Position Position
	// IncludesEndgame adds the climb point value on top of the event
	// point sum (total points only).
	IncludesEndgame bool
}

// AutonomousEnd is the boundary between the autonomous and teleoperated
// periods, in match seconds.
const AutonomousEnd = 15.0

var metricSpecs = map[Metric]MetricSpec{
	MetricTotalPoints:    {Kind: KindPoints, IncludesEndgame: true},
	MetricAutoPoints:     {Kind: KindPoints, Window: &TimeWindow{Min: 0, Max: AutonomousEnd}},
	MetricTeleopPoints:   {Kind: KindPoints, Window: &TimeWindow{Min: AutonomousEnd, Max: math.Inf(1)}},
	MetricDriverAbility:  {Kind: KindContinuous},
	MetricEndgamePoints:  {Kind: KindEndgame},
	MetricReefL1Count:    {Kind: KindCount, Action: ActionScore, Position: PositionReefL1},
	MetricReefL2Count:    {Kind: KindCount, Action: ActionScore, Position: PositionReefL2},
	MetricReefL3Count:    {Kind: KindCount, Action: ActionScore, Position: PositionReefL3},
	MetricReefL4Count:    {Kind: KindCount, Action: ActionScore, Position: PositionReefL4},
	MetricBargeCount:     {Kind: KindCount, Action: ActionScore, Position: PositionBarge},
	MetricProcessorCount: {Kind: KindCount, Action: ActionScore, Position: PositionProcessor},
	MetricFeedCount:      {Kind: KindCount, Action: ActionFeed},
}

// Spec returns the evaluation descriptor for the metric, and whether the
// metric is part of the closed enumeration.
func (m Metric) Spec() (MetricSpec, bool) {
	spec, ok := metricSpecs[m]
	return spec, ok
}

// Valid reports whether the metric is a known member of the enumeration.
func (m Metric) Valid() bool {
	_, ok := metricSpecs[m]
	return ok
}

// AllMetrics returns the metric enumeration in a stable order.
func AllMetrics() []Metric {
	return []Metric{
		MetricTotalPoints, MetricAutoPoints, MetricTeleopPoints,
		MetricDriverAbility, MetricEndgamePoints,
		MetricReefL1Count, MetricReefL2Count, MetricReefL3Count, MetricReefL4Count,
		MetricBargeCount, MetricProcessorCount, MetricFeedCount,
	}
}
