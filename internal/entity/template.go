package entity

import "errors"

const (
	ChannelEmail    = "email"
	ChannelWhatsApp = "whatsapp"
)

var ErrTemplateNotFound = errors.New("template not found")

type Template struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Channel     string `json:"channel"` // email, whatsapp
	Content     string `json:"content"`
	Subject     string `json:"subject,omitempty"` // somente email
	IsAIPowered bool   `json:"is_ai_powered"`
}
