package logic

// Tuned aggregation and estimation constants. Values carried over from
// prior seasons; change only with cross-season validation.
const (
	// InteriorDecay is the weight kept on the running value when an
	// interior (neither first nor most recent) tournament is folded in.
	InteriorDecay = 0.2

	// MaxRecentWeight is the asymptotic weight placed on the most
	// recent tournament as scouting coverage approaches completeness.
	MaxRecentWeight = 0.95

	// CoverageGain steepens how fast the recent-tournament weight
	// approaches MaxRecentWeight with observed coverage.
	CoverageGain = 4.0

	// FallbackStd substitutes for a zero population standard deviation
	// so standardization never divides by zero.
	FallbackStd = 1.0

	// BaselineSuccessProbability is returned by the rare-event
	// estimator when an outcome was never attempted.
	BaselineSuccessProbability = 0.25

	// BaselineEndgamePoints is the expected-points floor for a team
	// with zero recorded endgame attempts.
	BaselineEndgamePoints = 3.0

	// MinPredictionMatches is the minimum number of scored matches a
	// team needs before its point distribution is defined.
	MinPredictionMatches = 2
)
