package mail

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/vitalmed-app/clinica-automation/internal/entity"
)

func NewEmailSender(host string, port int, user, password, from string) *EmailSender {
	return &EmailSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		From:     from,
	}
}

// Send entrega o corpo já renderizado pelo motor. Anexos vêm do evento de
// conversão (ex: PDF da calculadora).
func (s *EmailSender) Send(to, subject, body string, attachments []entity.Attachment) (*entity.DeliveryResult, error) {
	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	for _, att := range attachments {
		content := att.Content
		settings := []gomail.FileSetting{
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(content)
				return err
			}),
		}
		if att.ContentType != "" {
			settings = append(settings, gomail.SetHeader(map[string][]string{
				"Content-Type": {att.ContentType},
			}))
		}
		m.Attach(att.Filename, settings...)
	}

	d := gomail.NewDialer(s.Host, s.Port, s.User, s.Password)

	if err := d.DialAndSend(m); err != nil {
		return nil, fmt.Errorf("erro ao enviar email SMTP: %w", err)
	}

	return &entity.DeliveryResult{
		Channel: entity.ChannelEmail,
		To:      to,
		SentAt:  time.Now(),
	}, nil
}
