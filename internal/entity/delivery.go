package entity

import "time"

// Attachment é um anexo repassado pelo evento de conversão (ex: PDF do
// relatório da calculadora) e incluído nos envios de email do run.
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Content     []byte `json:"content"`
}

// DeliveryResult é o retorno dos adapters de canal (email, whatsapp).
type DeliveryResult struct {
	Channel   string    `json:"channel"`
	To        string    `json:"to"`
	MessageID string    `json:"message_id,omitempty"`
	SentAt    time.Time `json:"sent_at"`
}
