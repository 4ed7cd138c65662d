package kvrepo

import "strconv"

const (
	leaguePrefix  = "league:"
	lobbyPrefix   = "lobby:"
	seriesPrefix  = "series:"
	pendingPrefix = "pending:"
)

func idKey(prefix string, id int64) string {
	return prefix + strconv.FormatInt(id, 10)
}
