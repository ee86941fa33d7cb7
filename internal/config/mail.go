package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Supported values for MAIL_TRANSPORT. An empty transport disables sending;
// every notification is then skipped and logged.
const (
	MailTransportNone     = ""
	MailTransportConsole  = "console"
	MailTransportSendGrid = "sendgrid"
	MailTransportSMTP     = "smtp"
)

// MailConfig selects and configures the outbound mail transport.
type MailConfig struct {
	Transport      string
	FromAddress    string
	FromName       string
	SendGridAPIKey string
	SMTPHost       string
	SMTPPort       int
	SMTPUser       string
	SMTPPassword   string
	SMTPTLS        bool
	Timeout        time.Duration
}

func setMailDefaults(v *viper.Viper) {
	v.SetDefault("MAIL_TRANSPORT", MailTransportNone)
	v.SetDefault("MAIL_FROM_ADDRESS", "elternsprechtag@example.org")
	v.SetDefault("MAIL_FROM_NAME", "Elternsprechtag")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_TLS", true)
	v.SetDefault("MAIL_TIMEOUT", "10s")
}

func loadMailConfig(v *viper.Viper) MailConfig {
	return MailConfig{
		Transport:      strings.ToLower(strings.TrimSpace(v.GetString("MAIL_TRANSPORT"))),
		FromAddress:    v.GetString("MAIL_FROM_ADDRESS"),
		FromName:       v.GetString("MAIL_FROM_NAME"),
		SendGridAPIKey: v.GetString("SENDGRID_API_KEY"),
		SMTPHost:       v.GetString("SMTP_HOST"),
		SMTPPort:       v.GetInt("SMTP_PORT"),
		SMTPUser:       v.GetString("SMTP_USER"),
		SMTPPassword:   v.GetString("SMTP_PASSWORD"),
		SMTPTLS:        v.GetBool("SMTP_TLS"),
		Timeout:        v.GetDuration("MAIL_TIMEOUT"),
	}
}

func (c MailConfig) validate() error {
	switch c.Transport {
	case MailTransportNone, MailTransportConsole:
		return nil
	case MailTransportSendGrid:
		if c.SendGridAPIKey == "" {
			return fmt.Errorf("MAIL_TRANSPORT=sendgrid requires SENDGRID_API_KEY")
		}
	case MailTransportSMTP:
		if c.SMTPHost == "" {
			return fmt.Errorf("MAIL_TRANSPORT=smtp requires SMTP_HOST")
		}
	default:
		return fmt.Errorf("unknown MAIL_TRANSPORT %q", c.Transport)
	}
	return nil
}
