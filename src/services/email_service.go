package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"

	"github.com/mailgun/mailgun-go/v4"
	"github.com/username/istisna/backend/src/config"
	"github.com/username/istisna/backend/src/logger"
)

func NewEmailService() EmailService {
	if config.Cfg == nil {
		slog.Error("Configuration (config.Cfg) is nil. Email service will default to mock.")
		return &MockEmailService{}
	}

	provider := strings.ToLower(config.Cfg.EmailServiceProvider)
	logger.L.Info("Initializing email service", "provider", provider)

	switch provider {
	case "mailgun":
		if config.Cfg.MailgunDomain == "" || config.Cfg.MailgunPrivateAPIKey == "" || config.Cfg.SenderEmail == "" {
			logger.L.Warn("Mailgun configuration incomplete (Domain, API Key, or SenderEmail missing). Falling back to MockEmailService.")
			return &MockEmailService{}
		}
		mg := mailgun.NewMailgun(config.Cfg.MailgunDomain, config.Cfg.MailgunPrivateAPIKey)
		logger.L.Info("Mailgun client initialized", "domain", config.Cfg.MailgunDomain)
		return &MailgunEmailService{
			mg:          mg,
			senderEmail: config.Cfg.SenderEmail,
			senderName:  config.Cfg.SenderName,
		}
	case "smtp":
		if config.Cfg.SMTPServer == "" || config.Cfg.SMTPUser == "" || config.Cfg.SMTPPassword == "" || config.Cfg.SenderEmail == "" {
			logger.L.Warn("SMTP configuration incomplete. Falling back to MockEmailService.")
			return &MockEmailService{}
		}
		return &SMTPEmailService{
			SMTPServer:   config.Cfg.SMTPServer,
			SMTPPort:     config.Cfg.SMTPPort,
			SMTPUser:     config.Cfg.SMTPUser,
			SMTPPassword: config.Cfg.SMTPPassword,
			SenderEmail:  config.Cfg.SenderEmail,
		}
	default:
		logger.L.Info("Defaulting to MockEmailService.")
		return &MockEmailService{}
	}
}

const welcomeSubject = "SınırSaaS'a Hoş Geldiniz"

func welcomeBody(firstName string) string {
	return fmt.Sprintf(`Merhaba %s,

SınırSaaS hesabınız oluşturuldu. Panelinizde istisna sürecinizi adım adım takip edebilir,
günlük TCMB kurlarını görebilir ve başvuru dilekçenizi oluşturabilirsiniz.

Sevgiler,
SınırSaaS Ekibi`, firstName)
}

type SMTPEmailService struct {
	SMTPServer   string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SenderEmail  string
}

func (s *SMTPEmailService) SendWelcomeEmail(toEmail, firstName string) error {
	from := s.SenderEmail
	to := []string{toEmail}

	header := map[string]string{
		"From":         from,
		"To":           toEmail,
		"Subject":      welcomeSubject,
		"MIME-version": "1.0",
		"Content-Type": "text/plain; charset=\"UTF-8\"",
	}
	message := ""
	for k, v := range header {
		message += fmt.Sprintf("%s: %s\r\n", k, v)
	}
	message += "\r\n" + welcomeBody(firstName)

	auth := smtp.PlainAuth("", s.SMTPUser, s.SMTPPassword, s.SMTPServer)
	addr := fmt.Sprintf("%s:%d", s.SMTPServer, s.SMTPPort)
	if err := smtp.SendMail(addr, auth, from, to, []byte(message)); err != nil {
		logger.L.Error("Failed to send welcome email via SMTP", "error", err, "to", toEmail)
		return fmt.Errorf("failed to send welcome email via SMTP: %w", err)
	}
	logger.L.Info("Welcome email sent successfully via SMTP", "to", toEmail)
	return nil
}

type MailgunEmailService struct {
	mg          mailgun.Mailgun
	senderEmail string
	senderName  string
}

func (s *MailgunEmailService) SendWelcomeEmail(toEmail, firstName string) error {
	from := fmt.Sprintf("%s <%s>", s.senderName, s.senderEmail)

	message := s.mg.NewMessage(from, welcomeSubject, welcomeBody(firstName), toEmail)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*20)
	defer cancel()
	resp, id, err := s.mg.Send(ctx, message)
	if err != nil {
		logger.L.Error("Failed to send welcome email via Mailgun", "error", err, "to", toEmail, "mailgunResp", resp, "mailgunId", id)
		return fmt.Errorf("mailgun send failed: %w. Response: %s", err, resp)
	}
	logger.L.Info("Welcome email sent successfully via Mailgun", "to", toEmail, "id", id)
	return nil
}

// MockEmailService logs instead of sending. Used in development and tests.
type MockEmailService struct{}

func (s *MockEmailService) SendWelcomeEmail(toEmail, firstName string) error {
	if logger.L != nil {
		logger.L.Info("[MOCK] welcome email", "to", toEmail, "firstName", firstName)
	}
	return nil
}
