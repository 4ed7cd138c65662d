package mail

import (
	"context"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/dota2-results/internal/platform/logging"
)

func TestNew_DisabledWithoutServerOrSubscribers(t *testing.T) {
	m, err := New(Config{Addr: "smtp.example.com:587"})
	require.NoError(t, err)
	assert.Nil(t, m)

	m, err = New(Config{Subscribers: []string{"a@example.com"}})
	require.NoError(t, err)
	assert.Nil(t, m)

	_, err = New(Config{Addr: "no-port", Subscribers: []string{"a@example.com"}, From: "bot@example.com"})
	assert.Error(t, err)
}

func TestMailer_SendComposesMessage(t *testing.T) {
	m, err := New(Config{
		Addr:        "smtp.example.com:587",
		Username:    "bot@example.com",
		Password:    "pw",
		Subscribers: []string{" a@example.com ", "", "b@example.com"},
		Logger:      logging.NewNop(),
	})
	require.NoError(t, err)
	require.NotNil(t, m)
	m.now = func() time.Time { return time.Date(2026, 5, 2, 18, 0, 0, 0, time.UTC) }

	var (
		gotAddr string
		gotFrom string
		gotTo   []string
		gotMsg  string
	)
	m.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, string(msg)
		return nil
	}

	require.NoError(t, m.Send(context.Background(), "EG vs Liquid\nBcc: x", "line one\nline two"))
	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "bot@example.com", gotFrom)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, gotTo)
	assert.Contains(t, gotMsg, "Subject: EG vs Liquid Bcc: x\r\n")
	assert.Contains(t, gotMsg, "Date: Sat, 02 May 2026 18:00:00 +0000\r\n")
	assert.True(t, strings.HasSuffix(gotMsg, "\r\n\r\nline one\r\nline two\r\n"))
}

func TestMailer_SendError(t *testing.T) {
	m, err := New(Config{Addr: "smtp.example.com:25", From: "bot@example.com", Subscribers: []string{"a@example.com"}, Logger: logging.NewNop()})
	require.NoError(t, err)
	m.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("550 mailbox unavailable") }

	err = m.Send(context.Background(), "s", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "550")
}
