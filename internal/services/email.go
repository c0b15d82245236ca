package services

import (
	"fmt"
	"html"

	"github.com/peifeira/peifeira-api/internal/config"
	"gopkg.in/gomail.v2"
)

// MailSender is satisfied by *gomail.Dialer.
type MailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

type EmailService struct {
	cfg    config.SMTPConfig
	sender MailSender
}

func NewEmailService(cfg config.SMTPConfig) *EmailService {
	return &EmailService{
		cfg:    cfg,
		sender: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

func NewEmailServiceWithSender(cfg config.SMTPConfig, sender MailSender) *EmailService {
	return &EmailService{cfg: cfg, sender: sender}
}

func (s *EmailService) IsConfigured() bool {
	return s.cfg.Host != "" && s.cfg.Username != "" && s.cfg.Password != "" && s.cfg.From != ""
}

func (s *EmailService) Send(to, subject, body string) error {
	if !s.IsConfigured() || to == "" {
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (s *EmailService) SendTeamInvitation(to, teamName, inviterName, invitationURL string) error {
	subject := fmt.Sprintf("Convite para a equipe %s", teamName)
	body := fmt.Sprintf(`
		<html>
		<body>
			<h2>Convite de equipe</h2>
			<p>Olá,</p>
			<p><strong>%s</strong> convidou você para a equipe <strong>%s</strong>.</p>
			<p><a href="%s">Ver e responder ao convite</a></p>
		</body>
		</html>
	`, html.EscapeString(inviterName), html.EscapeString(teamName), html.EscapeString(invitationURL))

	return s.Send(to, subject, body)
}
