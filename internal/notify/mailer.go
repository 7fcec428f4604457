package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/badabuilder/marketplace/internal/apperr"
)

// Mailer delivers one rendered html email.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer sends emails via SMTP
type SMTPMailer struct {
	addr     string
	auth     smtp.Auth
	from     string
	log      *logrus.Logger
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPMailer(cfg SMTPConfig, log *logrus.Logger) (*SMTPMailer, error) {
	if cfg.Host == "" {
		return nil, apperr.Config("smtp host is not configured")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	from := cfg.From
	if from == "" {
		from = "no-reply@" + cfg.Host
		log.Warnf("smtp.from not set, using default sender: %s", from)
	}
	var auth smtp.Auth
	if cfg.Username != "" && cfg.Password != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTPMailer{
		addr:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		auth:     auth,
		from:     from,
		log:      log,
		sendMail: smtp.SendMail,
	}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, html string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := []byte(
		fmt.Sprintf("From: \"Bada Builder\" <%s>\r\nTo: %s\r\nSubject: %s\r\n", m.from, to, subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n\r\n" +
			html,
	)
	if err := m.sendMail(m.addr, m.auth, m.from, []string{to}, msg); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	m.log.WithFields(logrus.Fields{"to": to, "subject": subject}).Debug("email sent")
	return nil
}
