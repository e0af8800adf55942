// Package mailer delivers site email through an SMTP relay with a direct,
// synchronous command/response exchange: one connection per message, no
// queue and no retry beyond the implicit-TLS port fallback.
package mailer

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"strings"
	"time"

	"github.com/sitecraft/backend/internal/metrics"
	"github.com/sitecraft/backend/internal/model"
)

// Mail kinds, used for logs and metrics.
const (
	KindNotification = "notification"
	KindReply        = "reply"
	KindTest         = "test"
)

// Mailer sends admin notifications and customer replies.
type Mailer struct {
	cfg    Config
	dialer Dialer
	logger *slog.Logger
	now    func() time.Time
}

// Option customizes a Mailer.
type Option func(*Mailer)

// WithDialer replaces the TCP dialer.
func WithDialer(d Dialer) Option {
	return func(m *Mailer) { m.dialer = d }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *Mailer) { m.logger = l }
}

// New creates a Mailer. Configuration is not checked here; every send
// validates it first so a bad setting fails the call, never the process.
func New(cfg Config, opts ...Option) *Mailer {
	m := &Mailer{
		cfg:    cfg,
		dialer: &net.Dialer{},
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NotifyAdmin emails the configured admin address about a new inquiry. The
// inquiry's sender becomes the Reply-To so the admin can answer directly.
func (m *Mailer) NotifyAdmin(ctx context.Context, inq *model.Inquiry) error {
	htmlBody, textBody, err := renderNotification(inq, m.cfg.PublicURL)
	if err != nil {
		return err
	}

	subject := "New inquiry: " + inq.Subject
	if strings.TrimSpace(inq.Subject) == "" {
		subject = "New website inquiry"
	}

	env := Envelope{
		To:       Address{Email: m.cfg.AdminAddress},
		Subject:  subject,
		HTMLBody: htmlBody,
		TextBody: textBody,
	}
	if strings.TrimSpace(inq.Email) != "" {
		env.ReplyTo = &Address{Name: inq.Name, Email: inq.Email}
	}
	return m.deliver(ctx, KindNotification, env)
}

// SendReply emails an admin's answer to a customer. original, when given,
// is quoted below the reply.
func (m *Mailer) SendReply(ctx context.Context, toAddress, toName, subject, replyBody string, original *model.Inquiry) error {
	htmlBody, textBody, err := renderReply(replyBody, original)
	if err != nil {
		return err
	}

	env := Envelope{
		To:       Address{Name: toName, Email: toAddress},
		Subject:  "Re: " + subject,
		HTMLBody: htmlBody,
		TextBody: textBody,
	}
	return m.deliver(ctx, KindReply, env)
}

// SendTest sends a short message to verify relay settings.
func (m *Mailer) SendTest(ctx context.Context, toAddress string) error {
	body := "This is a test message from the website mail settings."
	return m.deliver(ctx, KindTest, Envelope{
		To:       Address{Email: toAddress},
		Subject:  "Mail settings test",
		HTMLBody: "<p>" + body + "</p>",
		TextBody: body,
	})
}

func (m *Mailer) deliver(ctx context.Context, kind string, env Envelope) error {
	start := time.Now()
	return m.record(kind, env.To.Email, start, m.send(ctx, env))
}

func (m *Mailer) record(kind, to string, start time.Time, err error) error {
	elapsed := time.Since(start)
	if err != nil {
		metrics.RecordMailSent(kind, "failed", elapsed)
		m.logger.Error("mail send failed",
			"kind", kind,
			"to", to,
			"duration_ms", elapsed.Milliseconds(),
			"error", err,
		)
		return err
	}
	metrics.RecordMailSent(kind, "sent", elapsed)
	m.logger.Info("mail sent",
		"kind", kind,
		"to", to,
		"duration_ms", elapsed.Milliseconds(),
	)
	return nil
}

// send runs one complete relay session for env.
func (m *Mailer) send(ctx context.Context, env Envelope) (err error) {
	if err := m.cfg.Validate(); err != nil {
		return err
	}

	from := Address{Name: m.cfg.FromName, Email: m.cfg.FromAddress}
	msg := buildMessage(from, env, newBoundary(), m.now())

	s, err := dial(ctx, m.dialer, m.cfg)
	if err != nil {
		return err
	}
	defer func() {
		if streamUsable(err) {
			s.quit()
		}
		_ = s.close()
	}()

	localName := m.localName()
	if err := s.greet(); err != nil {
		return err
	}
	if err := s.hello(localName); err != nil {
		return err
	}
	if s.starttls {
		if err := s.upgrade(ctx, m.cfg.tlsConfig(), localName); err != nil {
			return err
		}
	}
	if err := s.authLogin(m.cfg.Username, m.cfg.Password); err != nil {
		return err
	}
	if err := s.mailFrom(m.cfg.FromAddress); err != nil {
		return err
	}
	if err := s.rcptTo(env.To.Email); err != nil {
		return err
	}
	return s.data(msg)
}

// streamUsable reports whether the relay can still be sent QUIT: either the
// session succeeded or it ended on a well-formed reply.
func streamUsable(err error) bool {
	if err == nil {
		return true
	}
	var pe *ProtocolError
	return errors.As(err, &pe) && pe.Code != 0
}

func (m *Mailer) localName() string {
	if m.cfg.LocalName != "" {
		return m.cfg.LocalName
	}
	if h, err := os.Hostname(); err == nil && h != "" {
		return h
	}
	return "localhost"
}
