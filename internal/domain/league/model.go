package league

import (
	"fmt"
	"slices"
	"time"
)

// Tier mirrors the upstream league tier ordinal. Higher is more important.
type Tier int

const (
	TierAmateur      Tier = 1
	TierProfessional Tier = 2
	TierPremium      Tier = 3
)

// League is a competition known to the directory, including the match ids
// already observed in its history feed.
type League struct {
	ID                 int64   `json:"id"`
	Name               string  `json:"name"`
	Tier               Tier    `json:"tier"`
	StreamDelaySeconds int     `json:"stream_delay_seconds"`
	LastSeenMatchIDs   []int64 `json:"last_seen_match_ids"`
	Initializing       bool    `json:"initializing"`
	Tracked            bool    `json:"tracked"`
}

func (l League) Validate() error {
	if l.ID <= 0 {
		return fmt.Errorf("league id is required")
	}
	if l.Tier < 0 {
		return fmt.Errorf("league tier must be >= 0")
	}
	return nil
}

func (l League) StreamDelay() time.Duration {
	return time.Duration(l.StreamDelaySeconds) * time.Second
}

func (l League) HasSeen(matchID int64) bool {
	return slices.Contains(l.LastSeenMatchIDs, matchID)
}

// MarkSeen appends matchID and reports whether it was new.
func (l *League) MarkSeen(matchID int64) bool {
	if l.HasSeen(matchID) {
		return false
	}
	l.LastSeenMatchIDs = append(l.LastSeenMatchIDs, matchID)
	return true
}
