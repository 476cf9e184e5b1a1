package logic

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"github.com/scoutcentral/analytics-api/internal/models"
)

// AnalysisContext carries the caller's data-source rules into every
// engine entry point. The engine never reads ambient request state; the
// context is passed explicitly.
type AnalysisContext struct {
	TeamRule       models.Rule[models.TeamNumber]
	TournamentRule models.Rule[models.TournamentKey]
}

// Fingerprint returns a short stable digest of the rule pair for use in
// cache keys. Two contexts with identical rules share results.
func (a AnalysisContext) Fingerprint() string {
	payload, err := json.Marshal(struct {
		Team       models.Rule[models.TeamNumber]    `json:"team"`
		Tournament models.Rule[models.TournamentKey] `json:"tournament"`
	}{a.TeamRule, a.TournamentRule})
	if err != nil {
		// Rules are plain value types; marshal cannot fail in practice.
		return "invalid"
	}
	sum := sha256.Sum256(payload)
	return fmt.Sprintf("%x", sum[:8])
}
