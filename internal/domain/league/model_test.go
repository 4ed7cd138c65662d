package league

import "testing"

func TestLeague_MarkSeenIsAppendOnly(t *testing.T) {
	l := League{ID: 4122, Name: "Open Qualifier"}

	if !l.MarkSeen(100) {
		t.Fatalf("expected first sighting to be new")
	}
	if l.MarkSeen(100) {
		t.Fatalf("expected repeated sighting to be ignored")
	}
	if !l.MarkSeen(101) {
		t.Fatalf("expected second id to be new")
	}

	if len(l.LastSeenMatchIDs) != 2 || l.LastSeenMatchIDs[0] != 100 || l.LastSeenMatchIDs[1] != 101 {
		t.Fatalf("unexpected seen ids %v", l.LastSeenMatchIDs)
	}
}

func TestLeague_Validate(t *testing.T) {
	if err := (League{}).Validate(); err == nil {
		t.Fatalf("expected missing id to fail validation")
	}
	if err := (League{ID: 1, Tier: TierPremium}).Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}
