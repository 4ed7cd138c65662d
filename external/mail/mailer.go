package mail

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/riskibarqy/dota2-results/internal/platform/logging"
	"github.com/riskibarqy/dota2-results/internal/usecase"
	"github.com/valyala/bytebufferpool"
)

type Config struct {
	Addr        string
	Username    string
	Password    string
	From        string
	Subscribers []string
	Logger      *logging.Logger
}

// SendFunc matches smtp.SendMail.
type SendFunc func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error

// Mailer sends plain-text results to the subscriber list.
type Mailer struct {
	addr        string
	auth        smtp.Auth
	from        string
	subscribers []string
	send        SendFunc
	now         func() time.Time
	logger      *logging.Logger
}

var _ usecase.Mailer = (*Mailer)(nil)

// New returns nil when no server or no subscribers are configured.
func New(cfg Config) (*Mailer, error) {
	addr := strings.TrimSpace(cfg.Addr)
	subscribers := make([]string, 0, len(cfg.Subscribers))
	for _, item := range cfg.Subscribers {
		if item = strings.TrimSpace(item); item != "" {
			subscribers = append(subscribers, item)
		}
	}
	if addr == "" || len(subscribers) == 0 {
		return nil, nil
	}

	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, errors.Wrapf(err, "parse smtp addr %q", addr)
	}
	from := strings.TrimSpace(cfg.From)
	if from == "" {
		from = strings.TrimSpace(cfg.Username)
	}
	if from == "" {
		return nil, errors.Wrap(usecase.ErrInvalidInput, "smtp sender address is required")
	}

	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, host)
	}

	return &Mailer{
		addr:        addr,
		auth:        auth,
		from:        from,
		subscribers: subscribers,
		send:        smtp.SendMail,
		now:         time.Now,
		logger:      logging.OrDefault(cfg.Logger).Named("mail"),
	}, nil
}

func (m *Mailer) Send(ctx context.Context, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := m.compose(subject, body)
	if err := m.send(m.addr, m.auth, m.from, m.subscribers, msg); err != nil {
		return errors.Wrapf(err, "send mail to %d subscribers", len(m.subscribers))
	}
	m.logger.InfoContext(ctx, "mail sent", "subject", subject, "recipients", len(m.subscribers))
	return nil
}

func (m *Mailer) compose(subject, body string) []byte {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	header := func(key, value string) {
		_, _ = fmt.Fprintf(buf, "%s: %s\r\n", key, value)
	}
	header("From", m.from)
	header("To", strings.Join(m.subscribers, ", "))
	header("Subject", sanitizeHeader(subject))
	header("Date", m.now().UTC().Format(time.RFC1123Z))
	header("MIME-Version", "1.0")
	header("Content-Type", `text/plain; charset="utf-8"`)
	_, _ = buf.WriteString("\r\n")
	_, _ = buf.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	_, _ = buf.WriteString("\r\n")

	out := make([]byte, buf.Len())
	copy(out, buf.B)
	return out
}

func sanitizeHeader(value string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(value)
}
