package usecase

import (
	"strings"

	"github.com/vitalmed-app/clinica-automation/internal/entity"
)

// MatchTrigger seleciona no máximo uma campanha para o evento de conversão.
// Campanhas de sistema têm prioridade sobre o namespace reservado delas;
// depois disso vale a primeira campanha ativa que casar, na ordem da lista.
// Nenhum match não é erro: o chamador segue só com o upsert do lead.
func MatchTrigger(eventID string, campaigns []entity.Campaign) *entity.Campaign {
	if sys, ok := SystemCampaignByKey(eventID); ok {
		return sys
	}

	for i := range campaigns {
		c := &campaigns[i]
		if !c.IsActive() {
			continue
		}

		switch c.Trigger.Type {
		case entity.TriggerLeadCreated:
			if eventID == LeadCreatedEvent {
				return c
			}
		case entity.TriggerStageChanged:
			stage, ok := strings.CutPrefix(eventID, StageChangedPrefix)
			if ok && stage == c.Trigger.Config.Stage {
				return c
			}
		case entity.TriggerTagAdded:
			if eventID == RevenueCalculatorEvent && c.Trigger.Config.Tag != "" &&
				strings.Contains(CalculatorTagMarker, c.Trigger.Config.Tag) {
				return c
			}
		}
	}

	return nil
}
