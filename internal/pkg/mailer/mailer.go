package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/yizeng/gab/gin/gorm/chatboard/internal/config"
	"github.com/yizeng/gab/gin/gorm/chatboard/internal/domain"
)

var (
	ErrNotify          = errors.New("notify failed")
	ErrNoRecipient     = errors.New("no recipient configured")
	ErrNotifyCancelled = errors.New("notify cancelled")
)

// Sender delivers fully built messages. *gomail.Dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type Mailer struct {
	conf   *config.SMTPConfig
	sender Sender
}

func New(conf *config.SMTPConfig) *Mailer {
	d := gomail.NewDialer(conf.Host, conf.Port, conf.Username, conf.Password)
	d.SSL = conf.SSL
	d.TLSConfig = &tls.Config{ServerName: conf.Host}

	return NewWithSender(conf, d)
}

func NewWithSender(conf *config.SMTPConfig, sender Sender) *Mailer {
	return &Mailer{
		conf:   conf,
		sender: sender,
	}
}

// Notify forwards text to the configured recipient and waits for the relay.
// Failures are reported in the result, never returned.
func (m *Mailer) Notify(ctx context.Context, text string) domain.NotifyResult {
	if err := m.send(ctx, text); err != nil {
		zap.L().Warn("notification not delivered",
			zap.String("recipient", m.conf.Recipient),
			zap.Error(err),
		)
		return domain.NotifyFailure(err.Error())
	}

	zap.L().Info("notification delivered", zap.String("recipient", m.conf.Recipient))

	return domain.NotifySuccess()
}

func (m *Mailer) send(ctx context.Context, text string) error {
	if m.conf.Recipient == "" {
		return fmt.Errorf("%w: %w", ErrNotify, ErrNoRecipient)
	}

	msg := m.newMessage(text)

	if m.conf.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.conf.Timeout)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() {
		done <- m.sender.DialAndSend(msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%w: %w", ErrNotify, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w: %w", ErrNotify, ErrNotifyCancelled, ctx.Err())
	}
}

func (m *Mailer) newMessage(text string) *gomail.Message {
	sender := m.conf.SenderAddress
	if sender == "" {
		sender = m.conf.Username
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", sender, m.conf.SenderName)
	msg.SetHeader("To", m.conf.Recipient)
	msg.SetHeader("Subject", m.conf.Subject)
	msg.SetBody("text/html", text)

	return msg
}
