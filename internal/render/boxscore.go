package render

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"github.com/cockroachdb/errors"
	"github.com/riskibarqy/dota2-results/internal/domain/lobby"
	"github.com/riskibarqy/dota2-results/internal/domain/match"
	"github.com/riskibarqy/dota2-results/internal/platform/logging"
	"github.com/riskibarqy/dota2-results/internal/usecase"
	"github.com/valyala/bytebufferpool"
)

// MinTicksDivisor requires at least one gold sample per this many minutes of
// game before a box score is drawn.
const MinTicksDivisor = 4

const (
	defaultWidth  = 800
	defaultHeight = 420

	headerHeight = 40
	draftHeight  = 72
	padding      = 12
	markerSize   = 6
)

var ErrInsufficientData = usecase.ErrInsufficientData

var (
	colorBackground = color.RGBA{R: 0x1b, G: 0x1e, B: 0x24, A: 0xff}
	colorAxis       = color.RGBA{R: 0x5c, G: 0x63, B: 0x70, A: 0xff}
	colorRadiant    = color.RGBA{R: 0x66, G: 0xbb, B: 0x6a, A: 0xff}
	colorDire       = color.RGBA{R: 0xe5, G: 0x39, B: 0x35, A: 0xff}
	colorRadiantDim = color.RGBA{R: 0x2e, G: 0x55, B: 0x30, A: 0xff}
	colorDireDim    = color.RGBA{R: 0x6b, G: 0x1c, B: 0x1a, A: 0xff}
)

// BoxScore draws a finished match as a PNG: a header split by final score,
// the gold differential over time with structure kills marked, and the draft.
type BoxScore struct {
	width  int
	height int
	logger *logging.Logger
}

func NewBoxScore(logger *logging.Logger) *BoxScore {
	return &BoxScore{
		width:  defaultWidth,
		height: defaultHeight,
		logger: logging.OrDefault(logger).Named("render"),
	}
}

func (b *BoxScore) RenderBoxScore(state lobby.State, result match.Result) ([]byte, error) {
	duration := result.Duration
	if duration <= 0 {
		duration = state.LastTimestamp
	}
	if err := checkTimeline(state.GoldHistory, duration); err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, b.width, b.height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: colorBackground}, image.Point{}, draw.Src)

	header := image.Rect(0, 0, b.width, headerHeight)
	graph := image.Rect(padding, headerHeight+padding, b.width-padding, b.height-draftHeight-padding)
	draftArea := image.Rect(padding, b.height-draftHeight, b.width-padding, b.height-padding/2)

	drawHeader(img, header, result)
	drawGold(img, graph, state.GoldHistory, duration)
	drawEvents(img, graph, state.Events, duration)
	drawDraft(img, draftArea, state.Draft)

	out, err := encodePNG(img)
	if err != nil {
		return nil, err
	}
	b.logger.Debug("box score rendered", "match_id", result.MatchID, "bytes", len(out), "samples", len(state.GoldHistory))
	return out, nil
}

func checkTimeline(history []lobby.GoldEntry, duration int) error {
	if len(history) < 2 {
		return errors.Wrapf(ErrInsufficientData, "%d gold samples", len(history))
	}
	if need := duration / 60 / MinTicksDivisor; len(history) < need {
		return errors.Wrapf(ErrInsufficientData, "%d gold samples for %ds, need %d", len(history), duration, need)
	}
	return nil
}

// drawHeader splits the bar in proportion to each side's score. The loser's
// share is dimmed.
func drawHeader(img *image.RGBA, area image.Rectangle, result match.Result) {
	radiant, dire := result.Teams[0].Score, result.Teams[1].Score
	split := area.Min.X + area.Dx()/2
	if total := radiant + dire; total > 0 {
		split = area.Min.X + area.Dx()*radiant/total
	}

	left, right := colorRadiant, colorDire
	if result.Teams[0].Winner {
		right = colorDireDim
	} else {
		left = colorRadiantDim
	}
	fillRect(img, image.Rect(area.Min.X, area.Min.Y, split, area.Max.Y), left)
	fillRect(img, image.Rect(split, area.Min.Y, area.Max.X, area.Max.Y), right)
}

// drawGold fills each column between the zero line and the interpolated
// differential, radiant above and dire below.
func drawGold(img *image.RGBA, area image.Rectangle, history []lobby.GoldEntry, duration int) {
	mid := area.Min.Y + area.Dy()/2
	for x := area.Min.X; x < area.Max.X; x++ {
		img.Set(x, mid, colorAxis)
	}

	maxAbs := 1
	for _, entry := range history {
		maxAbs = max(maxAbs, abs(entry.Diff))
	}
	if last := history[len(history)-1].Time; last > duration {
		duration = last
	}
	if duration <= 0 {
		return
	}

	half := area.Dy()/2 - 1
	for x := area.Min.X; x < area.Max.X; x++ {
		at := (x - area.Min.X) * duration / max(area.Dx()-1, 1)
		diff, ok := diffAt(history, at)
		if !ok {
			continue
		}
		height := diff * half / maxAbs
		c := colorRadiant
		if height < 0 {
			c = colorDire
		}
		for y := mid; y != mid-height; y += sign(-height) {
			img.Set(x, y, c)
		}
	}
}

// diffAt linearly interpolates the differential at second t. Times before the
// first sample report false.
func diffAt(history []lobby.GoldEntry, t int) (int, bool) {
	if t < history[0].Time {
		return 0, false
	}
	for i := 1; i < len(history); i++ {
		prev, next := history[i-1], history[i]
		if t > next.Time {
			continue
		}
		span := next.Time - prev.Time
		if span <= 0 {
			return next.Diff, true
		}
		return prev.Diff + (next.Diff-prev.Diff)*(t-prev.Time)/span, true
	}
	return history[len(history)-1].Diff, true
}

// drawEvents marks structure kills on the timeline in the colour of the side
// that destroyed them. Radiant kills sit on the top edge.
func drawEvents(img *image.RGBA, area image.Rectangle, events []lobby.Event, duration int) {
	if duration <= 0 {
		return
	}
	for _, event := range events {
		x := area.Min.X + event.Time*(area.Dx()-1)/duration
		x = min(max(x, area.Min.X), area.Max.X-markerSize)
		size := markerSize
		if event.Type == lobby.EventBarracksDestroyed {
			size = markerSize + 2
		}
		if event.Side == lobby.SideDire {
			fillRect(img, image.Rect(x, area.Min.Y, x+size, area.Min.Y+size), colorRadiant)
			continue
		}
		fillRect(img, image.Rect(x, area.Max.Y-size, x+size, area.Max.Y), colorDire)
	}
}

func encodePNG(img image.Image) ([]byte, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	encoder := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := encoder.Encode(buf, img); err != nil {
		return nil, errors.Wrap(err, "encode png")
	}
	out := make([]byte, buf.Len())
	copy(out, buf.B)
	return out, nil
}

func fillRect(img *image.RGBA, r image.Rectangle, c color.Color) {
	draw.Draw(img, r.Intersect(img.Bounds()), &image.Uniform{C: c}, image.Point{}, draw.Src)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	default:
		return 0
	}
}
