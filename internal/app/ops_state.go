package app

import (
	"github.com/riskibarqy/dota2-results/internal/domain/league"
	"github.com/riskibarqy/dota2-results/internal/domain/lobby"
	"github.com/riskibarqy/dota2-results/internal/domain/notification"
	"github.com/riskibarqy/dota2-results/internal/domain/series"
	"github.com/riskibarqy/dota2-results/internal/interfaces/httpapi"
	"github.com/riskibarqy/dota2-results/internal/usecase"
)

type opsState struct {
	svc *usecase.ResultsService
}

var _ httpapi.StateReader = opsState{}

// NewOpsState exposes the running service to the read-only ops API.
func NewOpsState(svc *usecase.ResultsService) httpapi.StateReader {
	return opsState{svc: svc}
}

func (s opsState) Lobbies() []lobby.State {
	return s.svc.Tracker().List()
}

func (s opsState) Lobby(lobbyID int64) (lobby.State, bool) {
	return s.svc.Tracker().Get(lobbyID)
}

func (s opsState) Pending() []notification.Pending {
	return s.svc.Queue().Pending()
}

func (s opsState) Series() []series.State {
	return s.svc.Series().List()
}

func (s opsState) Leagues() []league.League {
	return s.svc.Directory().List()
}

func (s opsState) HotLeagues() []int64 {
	return s.svc.HotLeagues()
}
