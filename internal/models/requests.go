package models

// PicklistRequest describes one multi-metric ranking computation.
// Metrics with weight 0 are excluded from the score; flags are attached
// verbatim for display.
type PicklistRequest struct {
	Teams   []TeamNumber       `json:"teams" validate:"dive,gt=0"`
	Weights map[Metric]float64 `json:"weights" validate:"required,min=1"`
	Flags   []Metric           `json:"flags"`
}

// PredictionRequest names the two alliances of a hypothetical match.
type PredictionRequest struct {
	AllianceA [3]TeamNumber `json:"alliance_a" validate:"required,dive,gt=0"`
	AllianceB [3]TeamNumber `json:"alliance_b" validate:"required,dive,gt=0"`
}
