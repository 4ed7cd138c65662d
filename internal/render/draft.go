package render

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/cockroachdb/errors"
	"github.com/riskibarqy/dota2-results/internal/domain/lobby"
)

const (
	draftSlot = 28
	draftGap  = 4
)

// drawDraft lays out picks then bans, radiant on the upper row and dire on
// the lower. Each hero gets a stable colour; bans are drawn hollow.
func drawDraft(img *image.RGBA, area image.Rectangle, draft lobby.Draft) {
	rowHeight := (area.Dy() - draftGap) / 2
	rows := map[lobby.Side]image.Rectangle{
		lobby.SideRadiant: image.Rect(area.Min.X, area.Min.Y, area.Max.X, area.Min.Y+rowHeight),
		lobby.SideDire:    image.Rect(area.Min.X, area.Min.Y+rowHeight+draftGap, area.Max.X, area.Max.Y),
	}
	cursor := map[lobby.Side]int{lobby.SideRadiant: area.Min.X, lobby.SideDire: area.Min.X}

	for _, pick := range draft.Picks {
		row, ok := rows[pick.Side]
		if !ok {
			continue
		}
		slot := image.Rect(cursor[pick.Side], row.Min.Y, cursor[pick.Side]+draftSlot, row.Min.Y+min(draftSlot, row.Dy()))
		fillRect(img, slot, heroColor(pick.HeroID))
		cursor[pick.Side] += draftSlot + draftGap
	}

	for side := range cursor {
		cursor[side] += draftSlot
	}

	for _, ban := range draft.Bans {
		row, ok := rows[ban.Side]
		if !ok {
			continue
		}
		size := draftSlot * 2 / 3
		slot := image.Rect(cursor[ban.Side], row.Min.Y, cursor[ban.Side]+size, row.Min.Y+min(size, row.Dy()))
		strokeRect(img, slot, heroColor(ban.HeroID))
		cursor[ban.Side] += size + draftGap
	}
}

// RenderDraft draws only the draft strip.
func RenderDraft(draft lobby.Draft) ([]byte, error) {
	if draft.Empty() {
		return nil, errors.Wrap(ErrInsufficientData, "empty draft")
	}
	width := padding*2 + (draftSlot+draftGap)*(5+8) + draftSlot
	img := image.NewRGBA(image.Rect(0, 0, width, draftHeight))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: colorBackground}, image.Point{}, draw.Src)
	drawDraft(img, image.Rect(padding, padding/2, width-padding, draftHeight-padding/2), draft)
	return encodePNG(img)
}

// heroColor spreads hero ids over the hue wheel with a multiplicative hash.
func heroColor(heroID int) color.RGBA {
	h := uint32(heroID) * 2654435761
	hue := float64(h%360) / 60
	x := uint8(200 * (1 - absFloat(mod2(hue)-1)))
	var r, g, b uint8
	switch int(hue) {
	case 0:
		r, g = 200, x
	case 1:
		r, g = x, 200
	case 2:
		g, b = 200, x
	case 3:
		g, b = x, 200
	case 4:
		r, b = x, 200
	default:
		r, b = 200, x
	}
	return color.RGBA{R: r + 40, G: g + 40, B: b + 40, A: 0xff}
}

func strokeRect(img *image.RGBA, r image.Rectangle, c color.Color) {
	for x := r.Min.X; x < r.Max.X; x++ {
		img.Set(x, r.Min.Y, c)
		img.Set(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.Set(r.Min.X, y, c)
		img.Set(r.Max.X-1, y, c)
	}
}

func mod2(v float64) float64 {
	for v >= 2 {
		v -= 2
	}
	return v
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
