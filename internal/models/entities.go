package models

import (
	"time"

	"github.com/google/uuid"
)

// TeamNumber identifies a competing team. Team numbers are not guaranteed
// small or contiguous, so they are always used as map keys, never as
// array indexes.
type TeamNumber int

// TournamentKey identifies a competition event (e.g. "2025txhou").
type TournamentKey string

// Tournament is a competition event. The date is the ordering key for
// every recency-weighted computation.
type Tournament struct {
	Key  TournamentKey `json:"key"`
	Name string        `json:"name"`
	Date time.Time     `json:"date"`
}

// MatchType distinguishes qualification from elimination play.
// Qualification sorts before elimination.
type MatchType string

const (
	MatchQualification MatchType = "qualification"
	MatchElimination   MatchType = "elimination"
)

// SortOrder returns the chronological rank of the match type within a
// tournament.
func (t MatchType) SortOrder() int {
	if t == MatchElimination {
		return 1
	}
	return 0
}

// Match is one team's participation in one scheduled match. Created when
// official schedules are ingested and never mutated afterwards.
type Match struct {
	Key           string        `json:"key"`
	TeamNumber    TeamNumber    `json:"team_number"`
	TournamentKey TournamentKey `json:"tournament_key"`
	Type          MatchType     `json:"type"`
	Number        int           `json:"number"`
}

// Action is the closed set of atomic in-match actions a scout can record.
type Action string

const (
	ActionScore  Action = "score"
	ActionPickup Action = "pickup"
	ActionFeed   Action = "feed"
	ActionDefend Action = "defend"
	ActionLeave  Action = "leave"
	ActionDrop   Action = "drop"
)

// Position is an optional field location attached to an event.
type Position string

const (
	PositionNone      Position = ""
	PositionReefL1    Position = "reef_l1"
	PositionReefL2    Position = "reef_l2"
	PositionReefL3    Position = "reef_l3"
	PositionReefL4    Position = "reef_l4"
	PositionBarge     Position = "barge"
	PositionProcessor Position = "processor"
	PositionSource    Position = "source"
	PositionFloor     Position = "floor"
)

// ClimbResult is the discrete endgame outcome of one match.
type ClimbResult string

const (
	ClimbNone    ClimbResult = "none"
	ClimbFailed  ClimbResult = "failed"
	ClimbParked  ClimbResult = "parked"
	ClimbShallow ClimbResult = "shallow"
	ClimbDeep    ClimbResult = "deep"
)

// ClimbPoints maps each endgame result to its point value. Deeper climbs
// score more; failed and unattempted score nothing.
var ClimbPoints = map[ClimbResult]int{
	ClimbNone:    0,
	ClimbFailed:  0,
	ClimbParked:  2,
	ClimbShallow: 6,
	ClimbDeep:    12,
}

// PickupLocation is the discrete pickup-capability field of a report.
type PickupLocation string

const (
	PickupNone        PickupLocation = "none"
	PickupSourceOnly  PickupLocation = "source"
	PickupFloorOnly   PickupLocation = "floor"
	PickupSourceFloor PickupLocation = "both"
)

// Event is one atomic, timestamped in-match action. Immutable once
// recorded. Points is 0 for non-scoring actions.
type Event struct {
	Time     float64  `json:"time"`
	Action   Action   `json:"action"`
	Position Position `json:"position,omitempty"`
	Points   int      `json:"points"`
}

// ScoutReport is one observer's account of one team's performance in one
// match. Multiple observers may report on the same match.
type ScoutReport struct {
	ID            uuid.UUID      `json:"id"`
	MatchKey      string         `json:"match_key"`
	TeamNumber    TeamNumber     `json:"team_number"`
	ScoutID       string         `json:"scout_id"`
	DriverAbility float64        `json:"driver_ability"`
	Climb         ClimbResult    `json:"climb"`
	Pickup        PickupLocation `json:"pickup"`
	KnocksPieces  bool           `json:"knocks_pieces"`
	Notes         string         `json:"notes,omitempty"`
	Events        []Event        `json:"events"`
}
