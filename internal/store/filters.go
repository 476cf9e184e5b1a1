package store

import (
	"fmt"

	"github.com/scoutcentral/analytics-api/internal/models"
)

// tournamentClause renders a resolved tournament filter as a SQL
// condition starting at placeholder $n. An empty clause means no
// filtering.
func tournamentClause(filter *models.Filter[models.TournamentKey], column string, n int) (string, []any) {
	if filter == nil {
		return "", nil
	}
	if filter.NotIn != nil {
		return fmt.Sprintf("NOT %s = ANY($%d)", column, n), []any{keyStrings(filter.NotIn)}
	}
	return fmt.Sprintf("%s = ANY($%d)", column, n), []any{keyStrings(filter.In)}
}

// teamClause renders a resolved team filter as a SQL condition starting
// at placeholder $n.
func teamClause(filter *models.Filter[models.TeamNumber], column string, n int) (string, []any) {
	if filter == nil {
		return "", nil
	}
	if filter.NotIn != nil {
		return fmt.Sprintf("NOT %s = ANY($%d)", column, n), []any{teamInts(filter.NotIn)}
	}
	return fmt.Sprintf("%s = ANY($%d)", column, n), []any{teamInts(filter.In)}
}

func keyStrings(keys []models.TournamentKey) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = string(k)
	}
	return out
}

func teamInts(teams []models.TeamNumber) []int {
	out := make([]int, len(teams))
	for i, t := range teams {
		out[i] = int(t)
	}
	return out
}
