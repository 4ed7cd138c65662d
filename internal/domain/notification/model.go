package notification

import (
	"time"

	"github.com/riskibarqy/dota2-results/internal/domain/match"
)

// Pending is a detected match awaiting delivery. It is persisted before the
// broadcast delay starts and removed only on a terminal outcome.
type Pending struct {
	MatchID    int64      `json:"match_id"`
	LeagueID   int64      `json:"league_id"`
	Stub       match.Stub `json:"stub"`
	EnqueuedAt time.Time  `json:"enqueued_at"`
	DueAt      time.Time  `json:"due_at"`
	Attempts   int        `json:"attempts"`
	LastError  string     `json:"last_error,omitempty"`
}

// Outcome classifies a delivery attempt.
type Outcome string

const (
	OutcomeDelivered Outcome = "delivered"
	OutcomeTerminal  Outcome = "terminal"
	OutcomeTransient Outcome = "transient"
)
