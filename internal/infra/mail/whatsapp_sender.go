package mail

import (
	"time"

	"github.com/vitalmed-app/clinica-automation/internal/entity"
	"github.com/vitalmed-app/clinica-automation/internal/infra/integration/whatsapp"
)

type WhatsAppSender struct {
	client *whatsapp.Client
}

func NewWhatsAppSender(client *whatsapp.Client) *WhatsAppSender {
	return &WhatsAppSender{
		client: client,
	}
}

func (s *WhatsAppSender) Send(to, body string) (*entity.DeliveryResult, error) {
	messageID, err := s.client.SendText(whatsapp.SendTextInput{
		PhoneNumber: to,
		Body:        body,
	})
	if err != nil {
		return nil, err
	}

	return &entity.DeliveryResult{
		Channel:   entity.ChannelWhatsApp,
		To:        to,
		MessageID: messageID,
		SentAt:    time.Now(),
	}, nil
}
