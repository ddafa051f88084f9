// Package mailer delivers confirmation emails through an SMTP relay.
package mailer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/inforum/diagnostico/internal/domain/notify"
	"github.com/inforum/diagnostico/pkg/logger"
	"github.com/inforum/diagnostico/pkg/metrics"
)

// Settings is the relay configuration. Empty User or Pass disables sending.
type Settings struct {
	Host    string
	Port    int
	User    string
	Pass    string
	From    string
	Timeout time.Duration
}

// DeliverFunc hands a built message to the transport.
type DeliverFunc func(ctx context.Context, m *mail.Msg) error

// Sender sends notify messages. It is safe for concurrent use; each send
// dials its own connection.
type Sender struct {
	cfg     Settings
	deliver DeliverFunc
	logger  logger.Logger
}

// Option applies a configuration option to the Sender.
type Option func(*Sender)

// WithLogger sets a custom logger for the sender.
func WithLogger(l logger.Logger) Option {
	return func(s *Sender) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDeliverFunc replaces the SMTP transport, typically in tests.
func WithDeliverFunc(fn DeliverFunc) Option {
	return func(s *Sender) {
		if fn != nil {
			s.deliver = fn
		}
	}
}

// New creates a Sender.
func New(cfg Settings, opts ...Option) *Sender {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	s := &Sender{cfg: cfg}
	s.deliver = s.dialAndSend
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("mailer")
	}
	return s
}

// Enabled reports whether credentials are configured.
func (s *Sender) Enabled() bool {
	return s.cfg.User != "" && s.cfg.Pass != ""
}

// Send delivers msg to the single recipient to.
func (s *Sender) Send(ctx context.Context, to string, msg notify.Message) error {
	if !s.Enabled() {
		metrics.RecordEmail("disabled")
		return ErrDisabled
	}
	m, err := s.build(to, msg)
	if err != nil {
		metrics.RecordEmail("invalid")
		return err
	}
	if err := s.deliver(ctx, m); err != nil {
		metrics.RecordEmail("failed")
		return fmt.Errorf("%w: %w", ErrSend, err)
	}
	metrics.RecordEmail("sent")
	s.logger.Info(ctx, "confirmation email sent", logger.String("to", to))
	return nil
}

func (s *Sender) build(to string, msg notify.Message) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("%w: from %q: %w", ErrInvalidAddress, s.cfg.From, err)
	}
	if err := m.To(strings.TrimSpace(to)); err != nil {
		return nil, fmt.Errorf("%w: to %q: %w", ErrInvalidAddress, to, err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Text)
	if msg.HTML != "" {
		m.AddAlternativeString(mail.TypeTextHTML, msg.HTML)
	}
	return m, nil
}

func (s *Sender) dialAndSend(ctx context.Context, m *mail.Msg) error {
	c, err := mail.NewClient(s.cfg.Host,
		mail.WithPort(s.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.User),
		mail.WithPassword(s.cfg.Pass),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithTimeout(s.cfg.Timeout),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	return c.DialAndSendWithContext(ctx, m)
}
