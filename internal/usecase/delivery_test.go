package usecase

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/dota2-results/internal/domain/league"
	"github.com/riskibarqy/dota2-results/internal/domain/match"
	usecasemock "github.com/riskibarqy/dota2-results/internal/mocks/usecase"
)

func sampleResult() match.Result {
	result := match.BuildResult(matchDetails(1234567890, 25*60+7, 20, 31))
	result.LeagueName = "The International"
	result.LeagueTier = int(league.TierPremium)
	result.SeriesType = 1
	result.Teams[0].WinsDisplay = "◌●"
	result.Teams[1].WinsDisplay = "◌◌"
	return result
}

func TestFormatResult(t *testing.T) {
	got := FormatResult(sampleResult(), NewTeamHandles(map[int64]string{testRadiantID: ""}), 0)
	want := "◌● [Evil Geniuses] 31—20 @TeamLiquidPro ◌◌\n25m07s // The International\nhttp://dotabuff.com/matches/1234567890"
	assert.Equal(t, want, got)
}

func TestFormatResult_NoSeriesAndTruncation(t *testing.T) {
	result := sampleResult()
	result.Teams[0].WinsDisplay = ""
	result.Teams[1].WinsDisplay = ""
	result.LeagueName = strings.Repeat("Long League Name ", 10)

	got := FormatResult(result, nil, 140)
	assert.True(t, strings.HasPrefix(got, "[Evil Geniuses] 31—20 Team Liquid\n"))
	assert.Equal(t, 139, utf8.RuneCountInString(got))
}

func TestRouter_Route(t *testing.T) {
	router := NewRouter([]int64{1}, []int64{2}, league.TierProfessional)

	assert.Equal(t, ChannelAlt, router.Route(1, league.TierPremium), "deny list wins over tier")
	assert.Equal(t, ChannelPrimary, router.Route(2, league.TierAmateur), "allow list wins over tier")
	assert.Equal(t, ChannelPrimary, router.Route(3, league.TierProfessional))
	assert.Equal(t, ChannelAlt, router.Route(3, league.TierAmateur))
	assert.True(t, router.Denied(1))
}

func newTestGate(t *testing.T, renderer Renderer, cfg DeliveryConfig) (*DeliveryGate, *usecasemock.Transport, *usecasemock.Transport) {
	t.Helper()
	primary := usecasemock.NewTransport(t)
	alt := usecasemock.NewTransport(t)
	primary.On("Name").Return("primary").Maybe()
	alt.On("Name").Return("alt").Maybe()
	gate := NewDeliveryGate(primary, alt, nil, renderer, NewRouter([]int64{99}, nil, league.TierProfessional), NewTeamHandles(nil), cfg, nil)
	return gate, primary, alt
}

func TestDeliveryGate_PostsTextWithoutLobby(t *testing.T) {
	gate, primary, _ := newTestGate(t, nil, DeliveryConfig{})
	primary.On("Post", mock.Anything, mock.AnythingOfType("string")).Return(nil).Once()

	require.NoError(t, gate.Send(context.Background(), sampleResult()))
}

func TestDeliveryGate_DeniedLeagueUsesAltChannel(t *testing.T) {
	gate, _, alt := newTestGate(t, nil, DeliveryConfig{})
	alt.On("Post", mock.Anything, mock.AnythingOfType("string")).Return(nil).Once()

	result := sampleResult()
	result.LeagueID = 99
	require.NoError(t, gate.Send(context.Background(), result))
}

func TestDeliveryGate_AttachesRenderedMedia(t *testing.T) {
	renderer := usecasemock.NewRenderer(t)
	gate, primary, _ := newTestGate(t, renderer, DeliveryConfig{})

	result := sampleResult()
	result.Lobby = seedState(liveSnapshot(1, 60), newTestClock().Now())
	png := []byte{0x89, 'P', 'N', 'G'}

	renderer.On("RenderBoxScore", mock.Anything, mock.Anything).Return(png, nil).Once()
	primary.On("PostWithMedia", mock.Anything, mock.AnythingOfType("string"), png).Return(nil).Once()

	require.NoError(t, gate.Send(context.Background(), result))
	gate.Wait()
}

func TestDeliveryGate_RenderRefusalFallsBackToText(t *testing.T) {
	renderer := usecasemock.NewRenderer(t)
	gate, primary, _ := newTestGate(t, renderer, DeliveryConfig{})

	result := sampleResult()
	result.Lobby = seedState(liveSnapshot(1, 60), newTestClock().Now())

	renderer.On("RenderBoxScore", mock.Anything, mock.Anything).Return(nil, ErrInsufficientData).Once()
	primary.On("Post", mock.Anything, mock.AnythingOfType("string")).Return(nil).Once()

	require.NoError(t, gate.Send(context.Background(), result))
	gate.Wait()
}

func TestDeliveryGate_RenderPanicFallsBackToText(t *testing.T) {
	renderer := usecasemock.NewRenderer(t)
	gate, primary, _ := newTestGate(t, renderer, DeliveryConfig{})

	result := sampleResult()
	result.Lobby = seedState(liveSnapshot(1, 60), newTestClock().Now())

	renderer.On("RenderBoxScore", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { panic("bad font") }).
		Return(nil, nil).
		Once()
	primary.On("Post", mock.Anything, mock.AnythingOfType("string")).Return(nil).Once()

	require.NoError(t, gate.Send(context.Background(), result))
	gate.Wait()
}

func TestDeliveryGate_TransportRejectionIsTerminal(t *testing.T) {
	gate, primary, _ := newTestGate(t, nil, DeliveryConfig{})
	primary.On("Post", mock.Anything, mock.Anything).
		Return(errors.Wrap(ErrTransportRejected, "Status is a duplicate.")).
		Once()

	err := gate.Send(context.Background(), sampleResult())
	require.Error(t, err)
	assert.True(t, IsTerminal(err))
}

func TestDeliveryGate_SilentModeSkipsTransport(t *testing.T) {
	gate, _, _ := newTestGate(t, nil, DeliveryConfig{Silent: true})
	require.NoError(t, gate.Send(context.Background(), sampleResult()))
}

type recordingMailer struct {
	subjects []string
	bodies   []string
}

func (m *recordingMailer) Send(_ context.Context, subject, body string) error {
	m.subjects = append(m.subjects, subject)
	m.bodies = append(m.bodies, body)
	return nil
}

func TestDeliveryGate_MailsWhenChannelHasNoTransport(t *testing.T) {
	mailer := &recordingMailer{}
	primary := usecasemock.NewTransport(t)
	gate := NewDeliveryGate(primary, nil, mailer, nil, NewRouter([]int64{99}, nil, league.TierProfessional), nil, DeliveryConfig{}, nil)

	result := sampleResult()
	result.LeagueID = 99
	require.NoError(t, gate.Send(context.Background(), result))
	require.Len(t, mailer.subjects, 1)
	assert.Equal(t, "Evil Geniuses vs Team Liquid", mailer.subjects[0])
	assert.Contains(t, mailer.bodies[0], "http://dotabuff.com/matches/1234567890")
}
