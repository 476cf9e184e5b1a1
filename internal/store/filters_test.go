package store

import (
	"reflect"
	"testing"

	"github.com/scoutcentral/analytics-api/internal/models"
)

func TestTournamentClause(t *testing.T) {
	tests := []struct {
		name     string
		filter   *models.Filter[models.TournamentKey]
		wantSQL  string
		wantArgs []any
	}{
		{
			name:    "nil filter",
			filter:  nil,
			wantSQL: "",
		},
		{
			name:     "include list",
			filter:   &models.Filter[models.TournamentKey]{In: []models.TournamentKey{"t1", "t2"}},
			wantSQL:  "t.key = ANY($2)",
			wantArgs: []any{[]string{"t1", "t2"}},
		},
		{
			name:     "exclude list",
			filter:   &models.Filter[models.TournamentKey]{NotIn: []models.TournamentKey{"t3"}},
			wantSQL:  "NOT t.key = ANY($2)",
			wantArgs: []any{[]string{"t3"}},
		},
		{
			name:     "empty include matches nothing",
			filter:   &models.Filter[models.TournamentKey]{In: []models.TournamentKey{}},
			wantSQL:  "t.key = ANY($2)",
			wantArgs: []any{[]string{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := tournamentClause(tt.filter, "t.key", 2)
			if sql != tt.wantSQL {
				t.Errorf("sql = %q, want %q", sql, tt.wantSQL)
			}
			if !reflect.DeepEqual(args, tt.wantArgs) {
				t.Errorf("args = %#v, want %#v", args, tt.wantArgs)
			}
		})
	}
}

func TestTeamClause(t *testing.T) {
	sql, args := teamClause(&models.Filter[models.TeamNumber]{In: []models.TeamNumber{118, 254}}, "r.team_number", 1)
	if sql != "r.team_number = ANY($1)" {
		t.Errorf("sql = %q", sql)
	}
	if !reflect.DeepEqual(args, []any{[]int{118, 254}}) {
		t.Errorf("args = %#v, want int slice", args)
	}

	sql, args = teamClause(&models.Filter[models.TeamNumber]{NotIn: []models.TeamNumber{973}}, "r.team_number", 3)
	if sql != "NOT r.team_number = ANY($3)" {
		t.Errorf("sql = %q", sql)
	}
	if !reflect.DeepEqual(args, []any{[]int{973}}) {
		t.Errorf("args = %#v, want int slice", args)
	}

	if sql, args := teamClause(nil, "r.team_number", 1); sql != "" || args != nil {
		t.Errorf("nil filter = %q, %#v, want empty", sql, args)
	}
}
