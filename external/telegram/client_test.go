package telegram

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/dota2-results/internal/platform/logging"
	"github.com/riskibarqy/dota2-results/internal/usecase"
)

type fakeSender struct {
	sent []tgbotapi.Chattable
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func TestClient_PostAndMedia(t *testing.T) {
	sender := &fakeSender{}
	client, err := NewClient(sender, -100, logging.NewNop())
	require.NoError(t, err)

	require.NoError(t, client.Post(context.Background(), "hello"))
	require.NoError(t, client.PostWithMedia(context.Background(), "caption", []byte("png")))
	require.Len(t, sender.sent, 2)

	msg, ok := sender.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(-100), msg.ChatID)
	assert.Equal(t, "hello", msg.Text)

	photo, ok := sender.sent[1].(tgbotapi.PhotoConfig)
	require.True(t, ok)
	assert.Equal(t, "caption", photo.Caption)
	file, ok := photo.File.(tgbotapi.FileBytes)
	require.True(t, ok)
	assert.Equal(t, []byte("png"), file.Bytes)
}

func TestClient_RequiresChat(t *testing.T) {
	_, err := NewClient(&fakeSender{}, 0, nil)
	assert.True(t, errors.Is(err, usecase.ErrInvalidInput))
}

func TestClient_FloodControlIsRejection(t *testing.T) {
	sender := &fakeSender{err: &tgbotapi.Error{Code: 429, Message: "Too Many Requests: retry after 35"}}
	client, err := NewClient(sender, 1, logging.NewNop())
	require.NoError(t, err)

	err = client.Post(context.Background(), "x")
	require.Error(t, err)
	assert.True(t, usecase.IsTerminal(err))

	sender.err = &tgbotapi.Error{Code: 502, Message: "Bad Gateway"}
	err = client.Post(context.Background(), "x")
	require.Error(t, err)
	assert.False(t, usecase.IsTerminal(err))
}
