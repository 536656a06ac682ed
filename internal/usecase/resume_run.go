package usecase

import (
	"context"
	"fmt"
	"log"

	"github.com/vitalmed-app/clinica-automation/internal/entity"
)

// ResumeRunUseCase retoma execuções suspensas por WAIT_DELAY a partir do
// snapshot durável, no passo salvo.
type ResumeRunUseCase struct {
	Campaigns CampaignSource
	Executor  *Executor
	Runs      RunRepositoryInterface
}

func NewResumeRunUseCase(campaigns CampaignSource, executor *Executor, runs RunRepositoryInterface) *ResumeRunUseCase {
	return &ResumeRunUseCase{
		Campaigns: campaigns,
		Executor:  executor,
		Runs:      runs,
	}
}

func (uc *ResumeRunUseCase) Execute(ctx context.Context, run entity.AutomationRun) error {
	campaign, err := uc.Campaigns.FindByID(ctx, run.CampaignID)
	if err != nil {
		uc.markFailed(ctx, run.ID, fmt.Sprintf("campaign %s: %v", run.CampaignID, err))
		return fmt.Errorf("resume run %s: %w", run.ID, err)
	}

	lead := run.Lead
	log.Printf("▶️ Retomando run %s (campanha %q, lead %s, passo %d)", run.ID, campaign.Name, lead.ID, run.NextStep)

	if err := uc.Executor.Resume(ctx, campaign, &lead, run.Context, run.Attachments, run.Chain, run.NextStep); err != nil {
		uc.markFailed(ctx, run.ID, err.Error())
		return fmt.Errorf("resume run %s: %w", run.ID, err)
	}

	if uc.Runs != nil {
		if err := uc.Runs.MarkCompleted(ctx, run.ID); err != nil {
			log.Printf("⚠️ Falha ao marcar run %s como concluído: %v", run.ID, err)
		}
	}
	return nil
}

func (uc *ResumeRunUseCase) markFailed(ctx context.Context, id, reason string) {
	if uc.Runs == nil {
		return
	}
	if err := uc.Runs.MarkFailed(ctx, id, reason); err != nil {
		log.Printf("⚠️ Falha ao marcar run %s como falho: %v", id, err)
	}
}
