package mailer

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

type smtpSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer sends through a plain SMTP relay.
type SMTPMailer struct {
	dialer      smtpSender
	defaultFrom string
	domain      string
	logger      *logrus.Logger
}

func NewSMTPMailer(host string, port int, user, pass, defaultFrom string, logger *logrus.Logger) *SMTPMailer {
	return &SMTPMailer{
		dialer:      gomail.NewDialer(host, port, user, pass),
		defaultFrom: defaultFrom,
		domain:      host,
		logger:      logger,
	}
}

func (s *SMTPMailer) Send(ctx context.Context, msg Message) (*Result, error) {
	if len(msg.To) == 0 {
		return nil, ErrNoRecipient
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id := uuid.New().String()
	m := s.buildMessage(id, msg)

	if err := s.dialer.DialAndSend(m); err != nil {
		s.logger.WithError(err).WithField("subject", msg.Subject).Error("SMTP send failed")
		return nil, fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"email_id": id,
		"subject":  msg.Subject,
	}).Info("Email sent over SMTP")
	return &Result{ID: id, Provider: "smtp"}, nil
}

func (s *SMTPMailer) buildMessage(id string, msg Message) *gomail.Message {
	from := msg.From
	if from == "" {
		from = s.defaultFrom
	}

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", msg.To...)
	m.SetHeader("Subject", msg.Subject)
	m.SetHeader("Message-ID", fmt.Sprintf("<%s@%s>", id, strings.TrimSpace(s.domain)))
	if msg.ReplyTo != "" {
		m.SetHeader("Reply-To", msg.ReplyTo)
	}
	m.SetBody("text/html", msg.HTML)
	return m
}
