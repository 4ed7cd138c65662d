package telegram

import (
	"context"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/riskibarqy/dota2-results/internal/platform/logging"
	"github.com/riskibarqy/dota2-results/internal/usecase"
)

const mediaFileName = "boxscore.png"

// Sender is the part of the bot API the transport needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Client posts results into one chat.
type Client struct {
	api    Sender
	chatID int64
	logger *logging.Logger
}

var _ usecase.Transport = (*Client)(nil)

// Dial authorizes the bot token against the API before returning a client.
func Dial(token string, chatID int64, logger *logging.Logger) (*Client, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.Wrap(usecase.ErrInvalidInput, "telegram bot token is required")
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, errors.Wrap(err, "authorize telegram bot")
	}
	client, err := NewClient(bot, chatID, logger)
	if err != nil {
		return nil, err
	}
	client.logger.Info("telegram bot authorized", "username", bot.Self.UserName)
	return client, nil
}

func NewClient(api Sender, chatID int64, logger *logging.Logger) (*Client, error) {
	if chatID == 0 {
		return nil, errors.Wrap(usecase.ErrInvalidInput, "telegram chat id is required")
	}
	return &Client{
		api:    api,
		chatID: chatID,
		logger: logging.OrDefault(logger).Named("telegram"),
	}, nil
}

func (c *Client) Name() string {
	return "telegram"
}

func (c *Client) Post(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.DisableWebPagePreview = true
	return c.send(ctx, msg)
}

func (c *Client) PostWithMedia(ctx context.Context, text string, png []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	photo := tgbotapi.NewPhoto(c.chatID, tgbotapi.FileBytes{Name: mediaFileName, Bytes: png})
	photo.Caption = text
	return c.send(ctx, photo)
}

func (c *Client) send(ctx context.Context, msg tgbotapi.Chattable) error {
	sent, err := c.api.Send(msg)
	if err != nil {
		return classify(err)
	}
	c.logger.InfoContext(ctx, "telegram message sent", "chat_id", c.chatID, "message_id", sent.MessageID)
	return nil
}

// classify treats flood control (429) as a rejection.
func classify(err error) error {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		wrapped := errors.Wrapf(err, "telegram code=%d", apiErr.Code)
		if apiErr.Code == http.StatusTooManyRequests || strings.Contains(strings.ToLower(apiErr.Message), "too many requests") {
			return errors.Mark(wrapped, usecase.ErrTransportRejected)
		}
		return wrapped
	}
	return errors.Wrap(err, "send telegram message")
}
