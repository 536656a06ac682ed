package usecase

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vitalmed-app/clinica-automation/internal/entity"
)

type ProcessConversionInput struct {
	ConversionID string              `json:"conversion_id"`
	Lead         PartialLead         `json:"lead"`
	Context      map[string]any      `json:"context,omitempty"`
	Attachments  []entity.Attachment `json:"attachments,omitempty"`
}

type PartialLead struct {
	Name           string  `json:"name,omitempty"`
	Email          string  `json:"email"`
	Phone          string  `json:"phone,omitempty"`
	ClinicName     string  `json:"clinic_name,omitempty"`
	Stage          string  `json:"stage,omitempty"`
	Source         string  `json:"source,omitempty"`
	EstimatedValue float64 `json:"estimated_value,omitempty"`
}

// ProcessConversionUseCase é o ponto de entrada do motor: faz o upsert do
// lead, resolve a campanha pelo gatilho e executa os passos em ordem.
type ProcessConversionUseCase struct {
	Leads     entity.LeadRepositoryInterface
	Campaigns CampaignSource
	Executor  *Executor
}

func NewProcessConversionUseCase(
	leads entity.LeadRepositoryInterface,
	campaigns CampaignSource,
	executor *Executor,
) *ProcessConversionUseCase {
	return &ProcessConversionUseCase{
		Leads:     leads,
		Campaigns: campaigns,
		Executor:  executor,
	}
}

func (uc *ProcessConversionUseCase) Execute(ctx context.Context, input ProcessConversionInput) (*entity.Lead, error) {
	if strings.TrimSpace(input.ConversionID) == "" {
		return nil, &DomainError{Code: CodeValidation, Message: "conversion_id is required"}
	}
	if strings.TrimSpace(input.Lead.Email) == "" {
		return nil, &DomainError{Code: CodeValidation, Message: "lead email is required"}
	}

	lead := uc.upsertLead(ctx, input)

	campaigns, err := uc.Campaigns.List(ctx)
	if err != nil {
		// A fonte já cai para as campanhas padrão; chegar aqui é inesperado.
		log.Printf("⚠️ Falha ao listar campanhas: %v", err)
		campaigns = SystemCampaigns()
	}

	campaign := MatchTrigger(input.ConversionID, campaigns)
	if campaign == nil {
		log.Printf("ℹ️ Nenhuma campanha para o evento %q, seguindo só com o lead %s", input.ConversionID, lead.ID)
		return lead, nil
	}

	log.Printf("🚀 Evento %q disparou a campanha %q para lead %s", input.ConversionID, campaign.Name, lead.ID)

	bag := make(map[string]any, len(input.Context))
	for k, v := range input.Context {
		bag[k] = v
	}

	if err := uc.Executor.Execute(ctx, campaign, lead, bag, input.Attachments); err != nil {
		// O executor já isola falhas de passo; erro aqui é guarda de recursão.
		log.Printf("⚠️ Execução da campanha %s interrompida: %v", campaign.ID, err)
	}

	return lead, nil
}

// upsertLead mescla o evento no lead existente (chave: email) ou cria um
// novo. Falha de persistência aqui é NÃO-fatal: o motor segue com o objeto
// em memória para que a comunicação com o lead nunca dependa do banco.
func (uc *ProcessConversionUseCase) upsertLead(ctx context.Context, input ProcessConversionInput) *entity.Lead {
	now := time.Now()

	var lead *entity.Lead

	existing, err := uc.Leads.FindByEmail(ctx, input.Lead.Email)
	switch {
	case err == nil && existing != nil:
		lead = existing
		if input.Lead.Name != "" {
			lead.Name = input.Lead.Name
		}
		if input.Lead.Phone != "" {
			lead.Phone = input.Lead.Phone
		}
		if input.Lead.ClinicName != "" {
			lead.ClinicName = input.Lead.ClinicName
		}
		if input.Lead.EstimatedValue > 0 {
			lead.EstimatedValue = input.Lead.EstimatedValue
		}
		lead.AdvanceStage(input.Lead.Stage)
		lead.MergeMetadata(input.Context)
		lead.UpdatedAt = now

	case errors.Is(err, entity.ErrLeadNotFound) || existing == nil:
		stage := input.Lead.Stage
		if entity.StageRank(stage) < 0 {
			stage = entity.StageNovo
		}
		metadata := make(map[string]any, len(input.Context))
		for k, v := range input.Context {
			metadata[k] = v
		}
		lead = &entity.Lead{
			ID:             uuid.New().String(),
			Name:           input.Lead.Name,
			Email:          input.Lead.Email,
			Phone:          input.Lead.Phone,
			ClinicName:     input.Lead.ClinicName,
			Stage:          stage,
			Source:         input.Lead.Source,
			EstimatedValue: input.Lead.EstimatedValue,
			Metadata:       metadata,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
	}

	if err != nil && !errors.Is(err, entity.ErrLeadNotFound) {
		log.Printf("⚠️ Busca de lead por email falhou (%v), seguindo com lead em memória", err)
	}

	lead.MergeMetadata(map[string]any{
		"last_conversion_id": input.ConversionID,
		"last_conversion_at": now.Format(time.RFC3339),
	})

	if err := uc.Leads.Upsert(ctx, lead); err != nil {
		log.Printf("⚠️ Upsert do lead %s falhou (%v), mensageria segue mesmo assim", lead.Email, err)
	}

	return lead
}
