package logic

import (
	"errors"
	"fmt"

	"github.com/scoutcentral/analytics-api/internal/models"
)

// Sentinel errors callers branch on with errors.Is. Validation errors
// and insufficient-data conditions are distinct outcomes, never folded
// into a numeric result.
var (
	// ErrInsufficientData marks a statistical computation that has too
	// few observations to be defined (e.g. fewer than two scored
	// matches for a prediction).
	ErrInsufficientData = errors.New("insufficient data")

	// ErrUnknownMetric rejects a metric outside the closed enumeration.
	ErrUnknownMetric = errors.New("unknown metric")

	// ErrUnknownTeam rejects a team number outside the known universe.
	ErrUnknownTeam = errors.New("unknown team")
)

func unknownMetric(m models.Metric) error {
	return fmt.Errorf("%w: %q", ErrUnknownMetric, m)
}

func unknownTeam(team models.TeamNumber) error {
	return fmt.Errorf("%w: %d", ErrUnknownTeam, team)
}

func insufficientData(team models.TeamNumber, matches int) error {
	return fmt.Errorf("team %d has %d scored matches: %w", team, matches, ErrInsufficientData)
}
