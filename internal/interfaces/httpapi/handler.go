package httpapi

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/riskibarqy/dota2-results/internal/domain/league"
	"github.com/riskibarqy/dota2-results/internal/domain/lobby"
	"github.com/riskibarqy/dota2-results/internal/domain/notification"
	"github.com/riskibarqy/dota2-results/internal/domain/series"
	"github.com/riskibarqy/dota2-results/internal/platform/logging"
	"github.com/riskibarqy/dota2-results/internal/usecase"
)

// StateReader is the read side of the results pipeline.
type StateReader interface {
	Lobbies() []lobby.State
	Lobby(lobbyID int64) (lobby.State, bool)
	Pending() []notification.Pending
	Series() []series.State
	Leagues() []league.League
	HotLeagues() []int64
}

// DraftRenderer draws the pick/ban strip of a lobby.
type DraftRenderer func(draft lobby.Draft) ([]byte, error)

type Handler struct {
	state  StateReader
	draft  DraftRenderer
	logger *logging.Logger
}

func NewHandler(state StateReader, draft DraftRenderer, logger *logging.Logger) *Handler {
	return &Handler{
		state:  state,
		draft:  draft,
		logger: logging.OrDefault(logger).Named("httpapi"),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ListLobbies(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListLobbies")
	defer span.End()

	states := h.state.Lobbies()
	items := make([]lobbyDTO, 0, len(states))
	for _, state := range states {
		items = append(items, toLobbyDTO(state))
	}
	sort.Slice(items, func(i, j int) bool { return items[i].LobbyID < items[j].LobbyID })

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetLobby(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetLobby")
	defer span.End()

	state, err := h.lookupLobby(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, lobbyDetailDTO{
		lobbyDTO:    toLobbyDTO(state),
		GoldHistory: state.GoldHistory,
		Events:      state.Events,
		Draft:       state.Draft,
	})
}

func (h *Handler) GetLobbyDraft(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetLobbyDraft")
	defer span.End()

	state, err := h.lookupLobby(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if h.draft == nil {
		writeError(ctx, w, errors.Wrap(usecase.ErrDependencyUnavailable, "draft renderer is not configured"))
		return
	}

	png, err := h.draft(state.Draft)
	if err != nil {
		h.logger.WarnContext(ctx, "render draft failed", "lobby_id", state.LobbyID, "error", err)
		writeError(ctx, w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListPending")
	defer span.End()

	pending := h.state.Pending()
	sort.Slice(pending, func(i, j int) bool { return pending[i].DueAt.Before(pending[j].DueAt) })

	writeSuccess(ctx, w, http.StatusOK, pending)
}

func (h *Handler) ListSeries(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListSeries")
	defer span.End()

	states := h.state.Series()
	sort.Slice(states, func(i, j int) bool { return states[i].Key < states[j].Key })

	writeSuccess(ctx, w, http.StatusOK, states)
}

func (h *Handler) ListLeagues(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListLeagues")
	defer span.End()

	leagues := h.state.Leagues()
	items := make([]leagueDTO, 0, len(leagues))
	for _, item := range leagues {
		if tier := strings.TrimSpace(r.URL.Query().Get("tier")); tier != "" && tier != strconv.Itoa(int(item.Tier)) {
			continue
		}
		items = append(items, leagueDTO{
			ID:                 item.ID,
			Name:               item.Name,
			Tier:               int(item.Tier),
			StreamDelaySeconds: item.StreamDelaySeconds,
			Tracked:            item.Tracked,
			SeenMatches:        len(item.LastSeenMatchIDs),
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) ListHotLeagues(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListHotLeagues")
	defer span.End()

	hot := h.state.HotLeagues()
	sort.Slice(hot, func(i, j int) bool { return hot[i] < hot[j] })

	writeSuccess(ctx, w, http.StatusOK, map[string]any{"league_ids": hot})
}

func (h *Handler) lookupLobby(r *http.Request) (lobby.State, error) {
	raw := strings.TrimSpace(r.PathValue("lobbyID"))
	lobbyID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || lobbyID <= 0 {
		return lobby.State{}, errors.Wrapf(usecase.ErrInvalidInput, "invalid lobby id %q", raw)
	}
	state, ok := h.state.Lobby(lobbyID)
	if !ok {
		return lobby.State{}, errors.Wrapf(usecase.ErrNotFound, "lobby %d", lobbyID)
	}
	return state, nil
}
