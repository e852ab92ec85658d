// Package mailer delivers plain-text notification mail.
package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/sazinconstruction/adminkeeper/internal/logging"
	"github.com/wneessen/go-mail"
)

type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPOptions configures an SMTPMailer. Port 465 uses implicit TLS, any
// other port requires STARTTLS.
type SMTPOptions struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

type SMTPMailer struct {
	client sender
	from   string
}

func NewSMTPMailer(o SMTPOptions) (*SMTPMailer, error) {
	opts := []mail.Option{mail.WithPort(o.Port)}
	if o.Port == 465 {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPortPolicy(mail.TLSMandatory))
	}
	if o.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(o.Username),
			mail.WithPassword(o.Password),
		)
	}
	if o.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(o.Timeout))
	}

	client, err := mail.NewClient(o.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	from := o.From
	if from == "" {
		from = o.Username
	}
	return &SMTPMailer{client: client, from: from}, nil
}

// NewMessage builds the message Send delivers.
func NewMessage(from, to, subject, body string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("from: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("to: %w", err)
	}
	msg.Subject(subject)
	msg.SetDate()
	msg.SetMessageID()
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	msg, err := NewMessage(m.from, to, subject, body)
	if err != nil {
		return err
	}
	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// LogMailer only records that a message would have been sent. The body is
// never logged.
type LogMailer struct {
	log logging.Logger
}

func NewLogMailer(log logging.Logger) *LogMailer {
	return &LogMailer{log: log.With("module", "mailer")}
}

func (m *LogMailer) Send(ctx context.Context, to, subject, _ string) error {
	m.log.Info(ctx, "mail delivery disabled", "to", to, "subject", subject)
	return nil
}
