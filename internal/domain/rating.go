package domain

import "time"

// TargetType identifies what kind of entity a rating concerns.
type TargetType string

const (
	TargetItem   TargetType = "item"
	TargetOwner  TargetType = "owner"
	TargetRenter TargetType = "renter"
)

// Valid reports whether the target type is one of the known kinds.
func (t TargetType) Valid() bool {
	switch t {
	case TargetItem, TargetOwner, TargetRenter:
		return true
	}
	return false
}

// Categories returns the optional per-category score names for this target
// type. Items carry an overall score only.
func (t TargetType) Categories() []string {
	switch t {
	case TargetOwner:
		return []string{"communication", "reliability", "itemCondition"}
	case TargetRenter:
		return []string{"communication", "reliability", "itemCare", "timeliness"}
	default:
		return nil
	}
}

// TargetRef pins down the entity a rating operation concerns.
type TargetRef struct {
	Type TargetType
	ID   string
}

// MaxCommentLen bounds the comment field, matching the service contract.
const MaxCommentLen = 500

// Rating represents one user's rating of a target. At most one rating exists
// per (RaterID, TargetID, TargetType); the service enforces that, the engine
// only detects it.
type Rating struct {
	ID             string
	RaterID        string
	TargetID       string
	TargetType     TargetType
	Score          int
	Comment        string
	CategoryScores map[string]int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// RatingSummary is the derived aggregate for a target's rating list. It is
// recomputed from the full list, never persisted.
type RatingSummary struct {
	AverageOverall   float64
	Count            int
	CategoryAverages map[string]float64
}
