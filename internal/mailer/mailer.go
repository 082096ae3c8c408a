// Package mailer relays transactional email through whichever provider is
// configured.
package mailer

import (
	"context"
	"errors"

	"github.com/GabiMuresan22/slagereij-order-craft-sub000/internal/breaker"
	"github.com/GabiMuresan22/slagereij-order-craft-sub000/internal/config"
	"github.com/sirupsen/logrus"
)

var ErrNoRecipient = errors.New("message has no recipient")

type Message struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	ReplyTo string   `json:"reply_to,omitempty"`
}

// Result identifies the message at the provider.
type Result struct {
	ID       string `json:"id"`
	Provider string `json:"provider"`
}

type Mailer interface {
	Send(ctx context.Context, msg Message) (*Result, error)
}

// New picks the Resend API when a key is set, SMTP when a host is set and
// the log mailer otherwise. Real providers are guarded by cb.
func New(cfg *config.Config, cb *breaker.Breaker, logger *logrus.Logger) Mailer {
	var m Mailer
	switch {
	case cfg.ResendAPIKey != "":
		m = NewResendClient(cfg.ResendAPIURL, cfg.ResendAPIKey, cfg.MailFrom, logger)
		logger.Info("Mail provider: Resend API")
	case cfg.SMTPHost != "":
		m = NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom, logger)
		logger.WithField("host", cfg.SMTPHost).Info("Mail provider: SMTP")
	default:
		logger.Warn("No mail provider configured, emails are only logged")
		return NewLogMailer(logger)
	}
	return NewGuarded(m, cb)
}

// Guarded runs every send through a circuit breaker so a failing provider
// is skipped quickly instead of holding requests open.
type Guarded struct {
	next    Mailer
	breaker *breaker.Breaker
}

func NewGuarded(next Mailer, cb *breaker.Breaker) *Guarded {
	return &Guarded{next: next, breaker: cb}
}

func (g *Guarded) Send(ctx context.Context, msg Message) (*Result, error) {
	var res *Result
	err := g.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		res, err = g.next.Send(ctx, msg)
		return err
	})
	return res, err
}

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct {
	logger *logrus.Logger
}

func NewLogMailer(logger *logrus.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (l *LogMailer) Send(ctx context.Context, msg Message) (*Result, error) {
	if len(msg.To) == 0 {
		return nil, ErrNoRecipient
	}
	l.logger.WithFields(logrus.Fields{
		"to":      msg.To,
		"subject": msg.Subject,
		"bytes":   len(msg.HTML),
	}).Info("Email not sent, no provider configured")
	return &Result{Provider: "log"}, nil
}
