// internal/reminder/dispatch/smtp.go
package dispatch

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	gomail "gopkg.in/gomail.v2"

	"membership-reminders/internal/common/config"
	stderrors "membership-reminders/internal/common/errors"
)

// SMTPProvider delivers reminders through a plain SMTP relay using gomail.
type SMTPProvider struct {
	cfg    config.SMTPConfig
	dialer *gomail.Dialer
}

func NewSMTPProvider(cfg config.SMTPConfig) *SMTPProvider {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.SSL = cfg.UseSSL
	return &SMTPProvider{cfg: cfg, dialer: d}
}

func (p *SMTPProvider) Name() string {
	return "smtp"
}

// Verify opens and closes an SMTP session. gomail's dial is blocking, so it
// runs in a goroutine and the context bounds the wait.
func (p *SMTPProvider) Verify(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		sc, err := p.dialer.Dial()
		if err != nil {
			errCh <- err
			return
		}
		errCh <- sc.Close()
	}()

	select {
	case <-ctx.Done():
		return stderrors.NewTransientDeliveryError(stderrors.ErrCodeProviderTimeout, ctx.Err().Error())
	case err := <-errCh:
		if err != nil {
			return stderrors.NewTransientDeliveryError(stderrors.ErrCodeProviderUnreachable, err.Error())
		}
		return nil
	}
}

func (p *SMTPProvider) Send(ctx context.Context, msg Message) (string, error) {
	m := gomail.NewMessage()
	m.SetHeader("From", p.cfg.From)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)

	errCh := make(chan error, 1)
	go func() {
		errCh <- p.dialer.DialAndSend(m)
	}()

	select {
	case <-ctx.Done():
		return "", stderrors.NewTransientDeliveryError(stderrors.ErrCodeProviderTimeout, ctx.Err().Error())
	case err := <-errCh:
		if err != nil {
			return "", stderrors.NewTransientDeliveryError(stderrors.ErrCodeDeliveryFailed, err.Error())
		}
		return fmt.Sprintf("<%s@%s>", uuid.New().String(), p.cfg.Host), nil
	}
}
