package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/campuslink/auth-service/app/service"
	"github.com/campuslink/auth-service/config"

	"github.com/wneessen/go-mail"
)

// SMTPMailer delivers one-time codes over SMTP. It implements the Sender
// contract consumed by the code engine; the engine never sees the transport.
type SMTPMailer struct {
	client *mail.Client
	from   string
}

func NewSMTPMailer(cfg config.SMTPConfig) (*SMTPMailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTimeout(cfg.SendTimeout),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	if cfg.StartTLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}

	return &SMTPMailer{client: client, from: cfg.From}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, recipient, code string, purpose service.Purpose, expiresIn time.Duration) error {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("smtp from address: %w", err)
	}
	if err := msg.To(recipient); err != nil {
		return fmt.Errorf("smtp recipient: %w", err)
	}

	minutes := int(expiresIn.Minutes())
	switch purpose {
	case service.PurposeReset:
		msg.Subject("Reset your password")
		msg.SetBodyString(mail.TypeTextPlain,
			fmt.Sprintf("Your password reset code is %s. It expires in %d minutes.", code, minutes))
	default:
		msg.Subject("Verify your email")
		msg.SetBodyString(mail.TypeTextPlain,
			fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, minutes))
	}

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
