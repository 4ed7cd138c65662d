package usecase

import (
	"context"
	"fmt"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"github.com/riskibarqy/dota2-results/internal/domain/league"
	"github.com/riskibarqy/dota2-results/internal/domain/match"
	"github.com/riskibarqy/dota2-results/internal/platform/logging"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
	"github.com/valyala/bytebufferpool"
)

const (
	defaultMaxPostLength = 140
	defaultRenderTimeout = 20 * time.Second
	matchLinkPrefix      = "http://dotabuff.com/matches/"
)

type Channel string

const (
	ChannelPrimary Channel = "primary"
	ChannelAlt     Channel = "alt"
)

// Router picks the channel for a league. Denied leagues always go to the
// alternate channel, allowed leagues always go to the primary one, and the
// rest are split by tier.
type Router struct {
	Deny    map[int64]struct{}
	Allow   map[int64]struct{}
	MinTier league.Tier
}

func NewRouter(deny, allow []int64, minTier league.Tier) Router {
	r := Router{
		Deny:    make(map[int64]struct{}, len(deny)),
		Allow:   make(map[int64]struct{}, len(allow)),
		MinTier: minTier,
	}
	for _, id := range deny {
		r.Deny[id] = struct{}{}
	}
	for _, id := range allow {
		r.Allow[id] = struct{}{}
	}
	return r
}

func (r Router) Route(leagueID int64, tier league.Tier) Channel {
	if _, ok := r.Deny[leagueID]; ok {
		return ChannelAlt
	}
	if _, ok := r.Allow[leagueID]; ok {
		return ChannelPrimary
	}
	if tier >= r.MinTier {
		return ChannelPrimary
	}
	return ChannelAlt
}

func (r Router) Denied(leagueID int64) bool {
	_, ok := r.Deny[leagueID]
	return ok
}

// FormatResult renders the post text:
//
//	<wins0> <name0> <score0>—<score1> <name1> <wins1>
//	<M>m<SS>s // <league>
//	http://dotabuff.com/matches/<id>
//
// Text longer than maxLen runes keeps its first maxLen-1 runes.
func FormatResult(result match.Result, handles *TeamHandles, maxLen int) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	writeWord := func(word string) {
		if word == "" {
			return
		}
		if buf.Len() > 0 {
			_ = buf.WriteByte(' ')
		}
		_, _ = buf.WriteString(word)
	}

	writeWord(result.Teams[0].WinsDisplay)
	writeWord(displayName(result.Teams[0], handles))
	writeWord(strconv.Itoa(result.Teams[0].Score) + "—" + strconv.Itoa(result.Teams[1].Score))
	writeWord(displayName(result.Teams[1], handles))
	writeWord(result.Teams[1].WinsDisplay)
	_ = buf.WriteByte('\n')

	_, _ = fmt.Fprintf(buf, "%dm%02ds", result.Duration/60, result.Duration%60)
	if result.LeagueName != "" {
		_, _ = buf.WriteString(" // ")
		_, _ = buf.WriteString(result.LeagueName)
	}
	_ = buf.WriteByte('\n')
	_, _ = buf.WriteString(matchLinkPrefix)
	_, _ = buf.WriteString(strconv.FormatInt(result.MatchID, 10))

	return truncateRunes(buf.String(), maxLen)
}

func displayName(team match.TeamResult, handles *TeamHandles) string {
	name := team.Name
	if handle, ok := handles.Lookup(team.ID, team.Name); ok {
		name = "@" + handle
	}
	if team.Winner {
		return "[" + name + "]"
	}
	return name
}

func truncateRunes(text string, maxLen int) string {
	if maxLen <= 0 || utf8.RuneCountInString(text) <= maxLen {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxLen-1])
}

type DeliveryConfig struct {
	// Silent runs the whole pipeline but logs instead of posting.
	Silent        bool
	MaxLength     int
	RenderTimeout time.Duration
}

// DeliveryGate formats, routes and posts a reconciled result, attaching a
// rendered box score when one can be produced.
type DeliveryGate struct {
	primary  Transport
	alt      Transport
	mailer   Mailer
	renderer Renderer
	router   Router
	handles  *TeamHandles
	cfg      DeliveryConfig
	logger   *logging.Logger
	renders  conc.WaitGroup
}

func NewDeliveryGate(
	primary Transport,
	alt Transport,
	mailer Mailer,
	renderer Renderer,
	router Router,
	handles *TeamHandles,
	cfg DeliveryConfig,
	logger *logging.Logger,
) *DeliveryGate {
	if cfg.MaxLength <= 0 {
		cfg.MaxLength = defaultMaxPostLength
	}
	if cfg.RenderTimeout <= 0 {
		cfg.RenderTimeout = defaultRenderTimeout
	}
	return &DeliveryGate{
		primary:  primary,
		alt:      alt,
		mailer:   mailer,
		renderer: renderer,
		router:   router,
		handles:  handles,
		cfg:      cfg,
		logger:   logging.OrDefault(logger).Named("delivery"),
	}
}

func (g *DeliveryGate) Send(ctx context.Context, result match.Result) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.DeliveryGate.Send")
	defer span.End()

	text := FormatResult(result, g.handles, g.cfg.MaxLength)
	channel := g.router.Route(result.LeagueID, league.Tier(result.LeagueTier))
	transport := g.primary
	if channel == ChannelAlt {
		transport = g.alt
	}

	if g.cfg.Silent {
		g.logger.InfoContext(ctx, "silent mode, post suppressed", "match_id", result.MatchID, "channel", string(channel), "text", text)
		return nil
	}
	if transport == nil {
		return g.mail(ctx, result, text, channel)
	}

	media := g.renderMedia(ctx, result)
	if len(media) > 0 {
		err := transport.PostWithMedia(ctx, text, media)
		if err == nil || IsTerminal(err) {
			return g.posted(ctx, transport, result, channel, err)
		}
		g.logger.WarnContext(ctx, "media post failed, retrying as text", "match_id", result.MatchID, "transport", transport.Name(), "error", err)
	}

	return g.posted(ctx, transport, result, channel, transport.Post(ctx, text))
}

// Wait blocks until background renders have returned.
func (g *DeliveryGate) Wait() {
	g.renders.Wait()
}

func (g *DeliveryGate) posted(ctx context.Context, transport Transport, result match.Result, channel Channel, err error) error {
	if err != nil {
		return errors.Wrapf(err, "post match %d via %s", result.MatchID, transport.Name())
	}
	g.logger.InfoContext(ctx, "result posted", "match_id", result.MatchID, "channel", string(channel), "transport", transport.Name())
	return nil
}

func (g *DeliveryGate) mail(ctx context.Context, result match.Result, text string, channel Channel) error {
	if g.mailer == nil {
		g.logger.InfoContext(ctx, "no transport for channel, result dropped", "match_id", result.MatchID, "channel", string(channel))
		return nil
	}
	subject := fmt.Sprintf("%s vs %s", result.Teams[0].Name, result.Teams[1].Name)
	if err := g.mailer.Send(ctx, subject, text); err != nil {
		return errors.Wrapf(err, "mail match %d", result.MatchID)
	}
	g.logger.InfoContext(ctx, "result mailed", "match_id", result.MatchID, "channel", string(channel))
	return nil
}

type renderOutcome struct {
	png []byte
	err error
}

// renderMedia runs the renderer off the calling goroutine and gives up after
// the render timeout. Any failure yields nil so the caller posts plain text.
func (g *DeliveryGate) renderMedia(ctx context.Context, result match.Result) []byte {
	if g.renderer == nil || result.Lobby == nil {
		return nil
	}

	state := *result.Lobby
	done := make(chan renderOutcome, 1)
	g.renders.Go(func() {
		var out renderOutcome
		if recovered := panics.Try(func() {
			out.png, out.err = g.renderer.RenderBoxScore(state, result)
		}); recovered != nil {
			out.err = recovered.AsError()
		}
		done <- out
	})

	timer := time.NewTimer(g.cfg.RenderTimeout)
	defer timer.Stop()

	select {
	case out := <-done:
		if out.err != nil {
			level := g.logger.WarnContext
			if errors.Is(out.err, ErrInsufficientData) {
				level = g.logger.InfoContext
			}
			level(ctx, "box score not rendered", "match_id", result.MatchID, "error", out.err)
			return nil
		}
		return out.png
	case <-timer.C:
		g.logger.WarnContext(ctx, "box score render timed out", "match_id", result.MatchID)
		return nil
	case <-ctx.Done():
		return nil
	}
}
