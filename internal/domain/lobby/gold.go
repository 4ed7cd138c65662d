package lobby

// GoldAt estimates each side's total gold as floor(gpm*duration/60) summed
// over its players.
func GoldAt(board *Scoreboard) GoldEntry {
	if board == nil {
		return GoldEntry{}
	}
	radiant := sideGold(board.Radiant.Players, board.Duration)
	dire := sideGold(board.Dire.Players, board.Duration)
	return GoldEntry{
		Time:        board.Duration,
		RadiantGold: radiant,
		DireGold:    dire,
		Diff:        radiant - dire,
	}
}

func sideGold(players []BoardPlayer, duration int) int {
	total := 0
	for _, p := range players {
		total += p.GoldPerMin * duration / 60
	}
	return total
}
