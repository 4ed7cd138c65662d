package usecase

import (
	"strings"
	"unicode"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

const maxHandleDistance = 2

var builtinTeamHandles = map[int64]string{
	3:       "complexitylive",
	5:       "invgaming",
	7:       "DKdota2",
	15:      "LGDgaming",
	26:      "mousesports",
	36:      "natusvincere",
	39:      "EvilGeniuses",
	40:      "TeamVirtusPro",
	46:      "team_empire",
	55:      "prdota2",
	80:      "mineski",
	162:     "FlipSid3Tactics",
	2163:    "TeamLiquidPro",
	111474:  "theAllianceGG",
	254140:  "FirstDeparture",
	293390:  "RoXKISTeam",
	350190:  "Fnatic",
	463048:  "insidiousidol",
	494197:  "IAPXctN",
	726228:  "vici_gaming",
	886928:  "RevivalDragons",
	999689:  "titanorg",
	1066490: "nextdota",
	1075534: "OrangeEsports",
	1079149: "SigmaDota2",
	1194118: "Dota2Relax",
	1245961: "ZephyrDota",
	1252040: "team_eHug",
	1277104: "Arrowgg",
	1333179: "cloud9gg",
	1375614: "NewBeeCN",
	1494951: "MaxFloPlaY",
	1633432: "NotTodayTeam",
	1829282: "DenialDota",
	1838315: "teamsecret",
	1846548: "HRdota2",
}

// TeamHandles maps teams to social handles, by id first and then by a fuzzy
// match of the team name against the known handles.
type TeamHandles struct {
	byID       map[int64]string
	normalized map[string]string
}

// NewTeamHandles merges overrides over the built-in table.
func NewTeamHandles(overrides map[int64]string) *TeamHandles {
	h := &TeamHandles{
		byID:       make(map[int64]string, len(builtinTeamHandles)+len(overrides)),
		normalized: make(map[string]string, len(builtinTeamHandles)+len(overrides)),
	}
	for id, handle := range builtinTeamHandles {
		h.byID[id] = handle
	}
	for id, handle := range overrides {
		handle = strings.TrimPrefix(strings.TrimSpace(handle), "@")
		if handle == "" {
			delete(h.byID, id)
			continue
		}
		h.byID[id] = handle
	}
	for _, handle := range h.byID {
		h.normalized[normalizeTeamName(handle)] = handle
	}
	return h
}

// Lookup returns the handle without the leading @.
func (h *TeamHandles) Lookup(teamID int64, name string) (string, bool) {
	if h == nil {
		return "", false
	}
	if handle, ok := h.byID[teamID]; ok {
		return handle, true
	}

	target := normalizeTeamName(name)
	if len(target) < 3 {
		return "", false
	}
	if handle, ok := h.normalized[target]; ok {
		return handle, true
	}

	best, bestDistance := "", maxHandleDistance+1
	for normalized, handle := range h.normalized {
		distance := fuzzy.LevenshteinDistance(target, normalized)
		if distance < bestDistance || (distance == bestDistance && handle < best) {
			best, bestDistance = handle, distance
		}
	}
	if best == "" {
		return "", false
	}
	return best, true
}

func normalizeTeamName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
