package usecase

import (
	"time"

	"github.com/vitalmed-app/clinica-automation/internal/entity"
)

// Eventos de conversão conhecidos pelo motor.
const (
	RevenueCalculatorEvent = "REVENUE_CALCULATOR"
	LeadCreatedEvent       = "LEAD_CREATED"
	StageChangedPrefix     = "STAGE_CHANGED_TO_"
)

// Marcador da tag da calculadora de faturamento. Gatilhos TAG_ADDED casam com
// o evento da calculadora quando a tag configurada é substring deste valor.
const CalculatorTagMarker = "Calculadora de Faturamento"

// IDs reservados das campanhas e templates de sistema.
const (
	SystemCampaignRevenueCalculator = "REVENUE_CALCULATOR"
	SystemCampaignWelcome           = "LEAD_CREATED_WELCOME"

	TemplateRevenueReport    = "tpl-relatorio-faturamento"
	TemplateWhatsAppFollowup = "tpl-whatsapp-followup"
	TemplateWelcomeEmail     = "tpl-boas-vindas"
)

// SystemCampaigns devolve cópias novas das campanhas padrão. São o fallback
// quando o banco está fora e a fonte dos fluxos de nutrição embutidos.
func SystemCampaigns() []entity.Campaign {
	return []entity.Campaign{
		{
			ID:     SystemCampaignRevenueCalculator,
			Name:   "Nutrição - Calculadora de Faturamento",
			Status: entity.CampaignStatusActive,
			Folder: "Sistema",
			Trigger: entity.Trigger{
				Type:   entity.TriggerTagAdded,
				Config: entity.TriggerConfig{Tag: CalculatorTagMarker},
			},
			Steps: []entity.Step{
				{ID: "rc-1", Kind: entity.StepAddTag, Config: entity.StepConfig{Tag: CalculatorTagMarker}},
				{ID: "rc-2", Kind: entity.StepAddTag, Config: entity.StepConfig{Tag: "Lead Quente"}},
				{ID: "rc-3", Kind: entity.StepSendEmail, Config: entity.StepConfig{TemplateID: TemplateRevenueReport}},
				{ID: "rc-4", Kind: entity.StepWaitDelay, Config: entity.StepConfig{DelayMinutes: 30}},
				{ID: "rc-5", Kind: entity.StepAIGenerate, Config: entity.StepConfig{
					Prompt: "Escreva uma mensagem curta de WhatsApp para {{name}} da clínica {{clinic_name}}, " +
						"mostrando que ela pode faturar até {{calculator.results.potentialRevenue}} por mês " +
						"com uma agenda otimizada. Tom consultivo, sem parecer spam.",
				}},
				{ID: "rc-6", Kind: entity.StepSendWhatsApp, Config: entity.StepConfig{
					TemplateID:   TemplateWhatsAppFollowup,
					UseAIContent: true,
				}},
			},
			CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:     SystemCampaignWelcome,
			Name:   "Boas-vindas - Novo Lead",
			Status: entity.CampaignStatusActive,
			Folder: "Sistema",
			Trigger: entity.Trigger{
				Type: entity.TriggerLeadCreated,
			},
			Steps: []entity.Step{
				{ID: "wl-1", Kind: entity.StepAddTag, Config: entity.StepConfig{Tag: "Novo Lead"}},
				{ID: "wl-2", Kind: entity.StepSendEmail, Config: entity.StepConfig{TemplateID: TemplateWelcomeEmail}},
			},
			CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}
}

// SystemCampaignByKey resolve o namespace reservado: eventos cujo id bate com
// uma chave de campanha de sistema selecionam essa campanha incondicionalmente.
func SystemCampaignByKey(eventID string) (*entity.Campaign, bool) {
	for _, c := range SystemCampaigns() {
		if c.ID == eventID {
			return &c, true
		}
	}
	return nil, false
}

// SystemTemplates são os templates referenciados pelas campanhas padrão.
func SystemTemplates() []entity.Template {
	return []entity.Template{
		{
			ID:      TemplateRevenueReport,
			Name:    "Relatório da Calculadora de Faturamento",
			Channel: entity.ChannelEmail,
			Subject: "{{name}}, o potencial da sua clínica",
			Content: "<p>Olá {{name}},</p><p>Sua clínica {{clinic_name}} pode faturar até " +
				"{{calculator.results.potentialRevenue}} por mês. O relatório completo está em anexo.</p>",
		},
		{
			ID:          TemplateWhatsAppFollowup,
			Name:        "Follow-up WhatsApp pós-calculadora",
			Channel:     entity.ChannelWhatsApp,
			Content:     "Oi {{name}}! Viu o relatório da sua clínica? Posso te mostrar como chegar nesse número.",
			IsAIPowered: true,
		},
		{
			ID:      TemplateWelcomeEmail,
			Name:    "Boas-vindas",
			Channel: entity.ChannelEmail,
			Subject: "Bem-vindo(a), {{name}}!",
			Content: "<p>Olá {{name}}, que bom ter você aqui. Vamos organizar a gestão da sua clínica?</p>",
		},
	}
}
