package usecase

import (
	"fmt"
	"strings"

	"github.com/vitalmed-app/clinica-automation/internal/entity"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateTemplate roda antes de qualquer chamada ao banco. Nome e conteúdo
// ausentes são violação de pré-condição, não erro de persistência.
func ValidateTemplate(t *entity.Template) []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(t.Name) == "" {
		errors = append(errors, ValidationError{"name", "is required"})
	}
	if strings.TrimSpace(t.Content) == "" {
		errors = append(errors, ValidationError{"content", "is required"})
	}
	if t.Channel != entity.ChannelEmail && t.Channel != entity.ChannelWhatsApp {
		errors = append(errors, ValidationError{"channel", "must be email or whatsapp"})
	}

	return errors
}

// ValidateCampaign valida a definição no momento do save. Além dos campos
// obrigatórios por tipo de passo, verifica que toda chave de contexto
// consumida por um passo é produzida por algum passo anterior.
func ValidateCampaign(c *entity.Campaign) []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(c.Name) == "" {
		errors = append(errors, ValidationError{"name", "is required"})
	}
	if c.Status != entity.CampaignStatusDraft && c.Status != entity.CampaignStatusActive {
		errors = append(errors, ValidationError{"status", "must be draft or active"})
	}
	switch c.Trigger.Type {
	case entity.TriggerLeadCreated, entity.TriggerTagAdded:
	case entity.TriggerStageChanged:
		if entity.StageRank(c.Trigger.Config.Stage) < 0 {
			errors = append(errors, ValidationError{"trigger.config.stage", "unknown funnel stage"})
		}
	default:
		errors = append(errors, ValidationError{"trigger.type", "unknown trigger type"})
	}

	produced := map[string]bool{}

	for i, step := range c.Steps {
		field := fmt.Sprintf("steps[%d]", i)

		switch step.Kind {
		case entity.StepAddTag:
			if strings.TrimSpace(step.Config.Tag) == "" {
				errors = append(errors, ValidationError{field + ".config.tag", "is required"})
			}
		case entity.StepSendEmail, entity.StepSendWhatsApp:
			if strings.TrimSpace(step.Config.TemplateID) == "" {
				errors = append(errors, ValidationError{field + ".config.template_id", "is required"})
			}
		case entity.StepWaitDelay:
			if step.Config.DelayMinutes <= 0 {
				errors = append(errors, ValidationError{field + ".config.delay_minutes", "must be positive"})
			}
		case entity.StepAIGenerate:
			if strings.TrimSpace(step.Config.Prompt) == "" {
				errors = append(errors, ValidationError{field + ".config.prompt", "is required"})
			}
		case entity.StepStartCampaign:
			if strings.TrimSpace(step.Config.CampaignID) == "" {
				errors = append(errors, ValidationError{field + ".config.campaign_id", "is required"})
			} else if step.Config.CampaignID == c.ID {
				errors = append(errors, ValidationError{field + ".config.campaign_id", "campaign cannot nest itself"})
			}
		default:
			errors = append(errors, ValidationError{field + ".kind", "unknown step kind"})
		}

		for _, key := range step.InputKeys() {
			if !produced[key] {
				errors = append(errors, ValidationError{
					field,
					fmt.Sprintf("consumes context key %q that no earlier step produces", key),
				})
			}
		}
		for _, key := range step.OutputKeys() {
			produced[key] = true
		}
	}

	return errors
}
