package usecase

import (
	"context"

	"github.com/vitalmed-app/clinica-automation/internal/entity"
)

// CampaignSource abstrai de onde vêm as campanhas: do banco ou do conjunto
// padrão embutido. A seleção entre os dois é por disponibilidade.
type CampaignSource interface {
	List(ctx context.Context) ([]entity.Campaign, error)
	FindByID(ctx context.Context, id string) (*entity.Campaign, error)
}

type CampaignRepositoryInterface interface {
	List(ctx context.Context) ([]entity.Campaign, error)
	FindByID(ctx context.Context, id string) (*entity.Campaign, error)
	Save(ctx context.Context, c *entity.Campaign) (*entity.Campaign, error)
	IncrementStats(ctx context.Context, id string, enrolled, completed int) error
}

type TemplateRepositoryInterface interface {
	List(ctx context.Context) ([]entity.Template, error)
	FindByID(ctx context.Context, id string) (*entity.Template, error)
	Save(ctx context.Context, t *entity.Template) (*entity.Template, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type EmailService interface {
	Send(to, subject, body string, attachments []entity.Attachment) (*entity.DeliveryResult, error)
}

type WhatsAppService interface {
	Send(to, body string) (*entity.DeliveryResult, error)
}

// ContentGenerator produz texto a partir de um prompt (LLM). Falhas degradam
// para um conteúdo estático, nunca abortam o run.
type ContentGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// RunScheduler persiste uma execução suspensa por WAIT_DELAY para retomada
// futura. Quando nil no executor, o delay degrada para log-e-segue.
type RunScheduler interface {
	Schedule(ctx context.Context, run *entity.AutomationRun) error
}

// TagRecorder recebe as tags aplicadas por passos ADD_TAG. Tags são
// informativas neste subsistema; sem recorder, o executor apenas loga.
type TagRecorder interface {
	RecordTag(ctx context.Context, leadID, tag string) error
}

// CampaignStatsRecorder atualiza contadores agregados (enrolled/completed).
type CampaignStatsRecorder interface {
	IncrementStats(ctx context.Context, id string, enrolled, completed int) error
}

type RunRepositoryInterface interface {
	Schedule(ctx context.Context, run *entity.AutomationRun) error
	ClaimDue(ctx context.Context, limit int) ([]entity.AutomationRun, error)
	Release(ctx context.Context, id string) error
	MarkCompleted(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id, reason string) error
}
