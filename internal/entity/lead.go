package entity

import (
	"context"
	"errors"
	"time"
)

// Estágios do funil, em ordem. O estágio de um lead nunca anda para trás.
var stageOrder = []string{
	StageNovo,
	StageContatado,
	StageQualificado,
	StageTrial,
	StageCliente,
}

const (
	StageNovo        = "novo"
	StageContatado   = "contatado"
	StageQualificado = "qualificado"
	StageTrial       = "trial"
	StageCliente     = "cliente"
)

var ErrLeadNotFound = errors.New("lead not found")

type Lead struct {
	ID             string         `json:"id"`
	Name           string         `json:"name,omitempty"`
	Email          string         `json:"email"`
	Phone          string         `json:"phone,omitempty"`
	ClinicName     string         `json:"clinic_name,omitempty"`
	Stage          string         `json:"stage"`
	Source         string         `json:"source,omitempty"`
	EstimatedValue float64        `json:"estimated_value,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// Stages devolve os estágios do funil em ordem, do primeiro ao último.
func Stages() []string {
	return append([]string(nil), stageOrder...)
}

// StageRank retorna a posição do estágio no funil, ou -1 se desconhecido.
func StageRank(stage string) int {
	for i, s := range stageOrder {
		if s == stage {
			return i
		}
	}
	return -1
}

// AdvanceStage move o lead para frente no funil. Regressões são ignoradas.
func (l *Lead) AdvanceStage(stage string) {
	if StageRank(stage) > StageRank(l.Stage) {
		l.Stage = stage
	}
}

// MergeMetadata faz a união dos metadados; em conflito, a chave nova vence.
func (l *Lead) MergeMetadata(extra map[string]any) {
	if len(extra) == 0 {
		return
	}
	if l.Metadata == nil {
		l.Metadata = make(map[string]any, len(extra))
	}
	for k, v := range extra {
		l.Metadata[k] = v
	}
}

type LeadRepositoryInterface interface {
	FindByEmail(ctx context.Context, email string) (*Lead, error)
	Upsert(ctx context.Context, lead *Lead) error
}
