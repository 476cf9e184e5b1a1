package models

// TimelinePoint is one audited per-match value in a season timeline.
// Matches with no qualifying report never appear in the timeline; a gap
// is absence, not zero.
type TimelinePoint struct {
	MatchKey       string  `json:"match_key"`
	TournamentName string  `json:"tournament_name"`
	Value          float64 `json:"value"`
}

// MetricSummary is the season-level output for one team/metric pair. A
// nil Average means no qualifying match carried data.
type MetricSummary struct {
	TeamNumber TeamNumber      `json:"team_number"`
	Metric     Metric          `json:"metric"`
	Average    *float64        `json:"average"`
	Timeline   []TimelinePoint `json:"timeline"`
}

// RareEventEstimate is the succession-smoothed endgame forecast.
type RareEventEstimate struct {
	TeamNumber         TeamNumber `json:"team_number"`
	PredictedPoints    float64    `json:"predicted_points"`
	SuccessProbability float64    `json:"success_probability"`
	Attempts           int        `json:"attempts"`
}

// PicklistRow is one ranked entry of a picklist.
type PicklistRow struct {
	TeamNumber TeamNumber `json:"team_number"`
	// Score is the weighted sum of standardized metric values.
	Score float64 `json:"score"`
	// Breakdown holds each weighted metric's contribution to Score.
	Breakdown map[Metric]float64 `json:"breakdown"`
	// Flags are unweighted raw season values attached for display only.
	Flags map[Metric]float64 `json:"flags,omitempty"`
	// InsufficientData marks teams whose retrieval failed; their score
	// is meaningless and callers should render the condition instead.
	InsufficientData bool `json:"insufficient_data,omitempty"`
}

// Alliance identifiers for prediction results.
const (
	AllianceA    = "A"
	AllianceB    = "B"
	AllianceEven = "even"
)

// MatchPrediction is the normal-model win probability for a hypothetical
// match between two three-team alliances.
type MatchPrediction struct {
	WinProbabilityA float64 `json:"win_probability_a"`
	WinProbabilityB float64 `json:"win_probability_b"`
	FavoredAlliance string  `json:"favored_alliance"`
}
