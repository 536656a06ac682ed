package usecase

import (
	"context"
	"log"

	"github.com/vitalmed-app/clinica-automation/internal/entity"
)

// SystemCampaignSource serve apenas as campanhas padrão embutidas.
type SystemCampaignSource struct{}

func NewSystemCampaignSource() *SystemCampaignSource {
	return &SystemCampaignSource{}
}

func (s *SystemCampaignSource) List(ctx context.Context) ([]entity.Campaign, error) {
	return SystemCampaigns(), nil
}

func (s *SystemCampaignSource) FindByID(ctx context.Context, id string) (*entity.Campaign, error) {
	for _, c := range SystemCampaigns() {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, entity.ErrCampaignNotFound
}

// StoreCampaignSource lê do banco e cai para as campanhas padrão quando a
// persistência falha, para que o motor sempre tenha os fluxos de nutrição.
type StoreCampaignSource struct {
	Repo     CampaignRepositoryInterface
	fallback *SystemCampaignSource
}

func NewStoreCampaignSource(repo CampaignRepositoryInterface) *StoreCampaignSource {
	return &StoreCampaignSource{
		Repo:     repo,
		fallback: NewSystemCampaignSource(),
	}
}

func (s *StoreCampaignSource) List(ctx context.Context) ([]entity.Campaign, error) {
	campaigns, err := s.Repo.List(ctx)
	if err != nil {
		log.Printf("⚠️ Campanhas: banco indisponível (%v), usando campanhas padrão", err)
		return s.fallback.List(ctx)
	}
	return campaigns, nil
}

func (s *StoreCampaignSource) FindByID(ctx context.Context, id string) (*entity.Campaign, error) {
	// Campanhas de sistema resolvem primeiro: o namespace delas é reservado.
	if c, err := s.fallback.FindByID(ctx, id); err == nil {
		return c, nil
	}

	c, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return c, nil
}
