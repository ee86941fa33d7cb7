// Package mail delivers notification emails. A Sender is constructed once
// at startup from configuration and injected into the services that send
// mail; there is no package-level transport.
package mail

import (
	"context"
	"errors"
	"fmt"
	netmail "net/mail"

	"go.uber.org/zap"

	"github.com/iliyamo/elternsprechtag/internal/config"
)

// Message is a single outgoing email with text and HTML alternatives.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Result reports the outcome of a send. Skipped is true when no transport
// is configured and nothing was sent.
type Result struct {
	MessageID string `json:"messageId,omitempty"`
	Skipped   bool   `json:"skipped,omitempty"`
}

// Sender sends one message in a single attempt. Implementations do not
// retry.
type Sender interface {
	Send(ctx context.Context, msg Message) (Result, error)
}

// ErrNoRecipient is returned for messages without a usable To address.
var ErrNoRecipient = errors.New("mail: no recipient")

// NewSender builds the transport selected by cfg.Transport.
func NewSender(cfg config.MailConfig, logger *zap.Logger) (Sender, error) {
	from := netmail.Address{Name: cfg.FromName, Address: cfg.FromAddress}
	switch cfg.Transport {
	case config.MailTransportNone:
		return NewSkipSender(logger), nil
	case config.MailTransportConsole:
		return NewConsoleSender(logger), nil
	case config.MailTransportSendGrid:
		return NewSendGridSender(cfg.SendGridAPIKey, from), nil
	case config.MailTransportSMTP:
		return NewSMTPSender(cfg, from)
	}
	return nil, fmt.Errorf("mail: unknown transport %q", cfg.Transport)
}

func (m Message) validate() error {
	if _, err := netmail.ParseAddress(m.To); err != nil {
		return fmt.Errorf("%w: %v", ErrNoRecipient, err)
	}
	return nil
}

type skipSender struct {
	logger *zap.Logger
}

// NewSkipSender returns a Sender that sends nothing and reports every
// message as skipped.
func NewSkipSender(logger *zap.Logger) Sender { return skipSender{logger: logger} }

func (s skipSender) Send(_ context.Context, msg Message) (Result, error) {
	s.logger.Info("mail transport not configured, skipping",
		zap.String("subject", msg.Subject))
	return Result{Skipped: true}, nil
}
