package entity

import (
	"errors"
	"time"
)

const (
	CampaignStatusDraft  = "draft"
	CampaignStatusActive = "active"
)

var ErrCampaignNotFound = errors.New("campaign not found")

type TriggerType string

const (
	TriggerLeadCreated  TriggerType = "LEAD_CREATED"
	TriggerStageChanged TriggerType = "STAGE_CHANGED"
	TriggerTagAdded     TriggerType = "TAG_ADDED"
)

type TriggerConfig struct {
	Stage string `json:"stage,omitempty"`
	Tag   string `json:"tag,omitempty"`
}

type Trigger struct {
	Type   TriggerType   `json:"type"`
	Config TriggerConfig `json:"config"`
}

type StepKind string

// Conjunto fechado de tipos de passo. O executor faz switch exaustivo sobre eles.
const (
	StepAddTag        StepKind = "ADD_TAG"
	StepSendEmail     StepKind = "SEND_EMAIL"
	StepSendWhatsApp  StepKind = "SEND_WHATSAPP"
	StepWaitDelay     StepKind = "WAIT_DELAY"
	StepAIGenerate    StepKind = "AI_GENERATE_CONTENT"
	StepStartCampaign StepKind = "START_CAMPAIGN"
)

// ContextKeyAIContent é a chave do contexto de execução onde o passo de IA
// escreve o texto gerado, consumido por passos de envio posteriores.
const ContextKeyAIContent = "aiGeneratedContent"

type StepConfig struct {
	TemplateID   string `json:"template_id,omitempty"`
	DelayMinutes int    `json:"delay_minutes,omitempty"`
	Prompt       string `json:"prompt,omitempty"`
	Tag          string `json:"tag,omitempty"`
	CampaignID   string `json:"campaign_id,omitempty"`
	UseAIContent bool   `json:"use_ai_content,omitempty"`
}

type Step struct {
	ID     string     `json:"id"`
	Kind   StepKind   `json:"kind"`
	Config StepConfig `json:"config"`
}

// OutputKeys declara quais chaves do contexto de execução este passo produz.
func (s Step) OutputKeys() []string {
	if s.Kind == StepAIGenerate {
		return []string{ContextKeyAIContent}
	}
	return nil
}

// InputKeys declara quais chaves do contexto este passo precisa que um passo
// anterior tenha produzido.
func (s Step) InputKeys() []string {
	if s.Config.UseAIContent && (s.Kind == StepSendEmail || s.Kind == StepSendWhatsApp) {
		return []string{ContextKeyAIContent}
	}
	return nil
}

type CampaignStats struct {
	Enrolled  int `json:"enrolled"`
	Completed int `json:"completed"`
	Converted int `json:"converted"`
}

type Campaign struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Status    string        `json:"status"` // draft, active
	Trigger   Trigger       `json:"trigger"`
	Steps     []Step        `json:"steps"`
	Stats     CampaignStats `json:"stats"`
	Folder    string        `json:"folder,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

func (c *Campaign) IsActive() bool {
	return c.Status == CampaignStatusActive
}
