package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerOpsRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/lobbies", handler.ListLobbies)
	mux.HandleFunc("GET /v1/lobbies/{lobbyID}", handler.GetLobby)
	mux.HandleFunc("GET /v1/lobbies/{lobbyID}/draft.png", handler.GetLobbyDraft)
	mux.HandleFunc("GET /v1/pending", handler.ListPending)
	mux.HandleFunc("GET /v1/series", handler.ListSeries)
	mux.HandleFunc("GET /v1/leagues", handler.ListLeagues)
	mux.HandleFunc("GET /v1/leagues/hot", handler.ListHotLeagues)
}
