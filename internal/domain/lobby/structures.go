package lobby

type EventType string

const (
	EventTowerDestroyed    EventType = "tower_destroyed"
	EventBarracksDestroyed EventType = "barracks_destroyed"
)

type Lane string

const (
	LaneTop Lane = "top"
	LaneMid Lane = "mid"
	LaneBot Lane = "bot"
)

// Event is a discrete state change derived from consecutive snapshots.
type Event struct {
	Type EventType `json:"type"`
	Side Side      `json:"side"`
	Lane Lane      `json:"lane"`
	Tier int       `json:"tier,omitempty"`
	Kind string    `json:"kind,omitempty"`
	Time int       `json:"time"`
}

// StructureBit binds one bit of a packed structure mask to the event it emits.
type StructureBit struct {
	Mask uint32
	Type EventType
	Side Side
	Lane Lane
	Tier int
	Kind string
}

const (
	towerBitsPerSide    = 11
	barracksBitsPerSide = 6
)

// TowerTable covers the packed tower mask: radiant in bits 0-10, dire in 11-21.
var TowerTable = buildTowerTable()

// BarracksTable covers the packed barracks mask: radiant in bits 0-5, dire in 6-11.
var BarracksTable = buildBarracksTable()

func buildTowerTable() []StructureBit {
	lanes := []Lane{LaneTop, LaneMid, LaneBot}
	table := make([]StructureBit, 0, 2*towerBitsPerSide)
	for sideIdx, side := range []Side{SideRadiant, SideDire} {
		offset := uint(sideIdx * towerBitsPerSide)
		bit := uint(0)
		for _, lane := range lanes {
			for tier := 1; tier <= 3; tier++ {
				table = append(table, StructureBit{Mask: 1 << (offset + bit), Type: EventTowerDestroyed, Side: side, Lane: lane, Tier: tier})
				bit++
			}
		}
		table = append(table,
			StructureBit{Mask: 1 << (offset + 9), Type: EventTowerDestroyed, Side: side, Lane: LaneBot, Tier: 4},
			StructureBit{Mask: 1 << (offset + 10), Type: EventTowerDestroyed, Side: side, Lane: LaneTop, Tier: 4},
		)
	}
	return table
}

func buildBarracksTable() []StructureBit {
	lanes := []Lane{LaneTop, LaneMid, LaneBot}
	table := make([]StructureBit, 0, 2*barracksBitsPerSide)
	for sideIdx, side := range []Side{SideRadiant, SideDire} {
		offset := uint(sideIdx * barracksBitsPerSide)
		bit := uint(0)
		for _, lane := range lanes {
			for _, kind := range []string{"melee", "ranged"} {
				table = append(table, StructureBit{Mask: 1 << (offset + bit), Type: EventBarracksDestroyed, Side: side, Lane: lane, Kind: kind})
				bit++
			}
		}
	}
	return table
}

// ScanTransitions emits one event per table entry whose bit differs between
// prev and cur, in table order. Structures only ever fall, so the direction
// of the change is not inspected.
func ScanTransitions(table []StructureBit, prev, cur uint32, at int) []Event {
	changed := prev ^ cur
	if changed == 0 {
		return nil
	}

	var events []Event
	for _, entry := range table {
		if changed&entry.Mask == 0 {
			continue
		}
		events = append(events, Event{
			Type: entry.Type,
			Side: entry.Side,
			Lane: entry.Lane,
			Tier: entry.Tier,
			Kind: entry.Kind,
			Time: at,
		})
	}
	return events
}

// PackTowers combines the per-side tower masks into the TowerTable layout.
func PackTowers(board *Scoreboard) uint32 {
	if board == nil {
		return 0
	}
	const sideMask = 1<<towerBitsPerSide - 1
	return board.Radiant.TowerState&sideMask | (board.Dire.TowerState&sideMask)<<towerBitsPerSide
}

// PackBarracks combines the per-side barracks masks into the BarracksTable layout.
func PackBarracks(board *Scoreboard) uint32 {
	if board == nil {
		return 0
	}
	const sideMask = 1<<barracksBitsPerSide - 1
	return board.Radiant.BarracksState&sideMask | (board.Dire.BarracksState&sideMask)<<barracksBitsPerSide
}

// StructureEvents diffs two scoreboards: towers first, then barracks.
func StructureEvents(prev, cur *Scoreboard) []Event {
	if prev == nil || cur == nil {
		return nil
	}
	events := ScanTransitions(TowerTable, PackTowers(prev), PackTowers(cur), cur.Duration)
	return append(events, ScanTransitions(BarracksTable, PackBarracks(prev), PackBarracks(cur), cur.Duration)...)
}
