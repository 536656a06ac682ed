package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/vitalmed-app/clinica-automation/internal/entity"
)

// funnelArraySQL é o literal ARRAY[...] com os estágios na ordem do funil,
// derivado da mesma ordem que o código em memória usa.
var funnelArraySQL = "ARRAY['" + strings.Join(entity.Stages(), "','") + "']"

// stageGuardSQL mantém a monotonicidade do estágio também no banco: o
// EXCLUDED.stage só vence quando avança no funil. Estágio desconhecido tem
// rank 0 e nunca sobrescreve um conhecido.
var stageGuardSQL = fmt.Sprintf(
	`CASE WHEN COALESCE(array_position(%[1]s, EXCLUDED.stage), 0) > COALESCE(array_position(%[1]s, saas_leads.stage), 0)
		THEN EXCLUDED.stage ELSE saas_leads.stage END`,
	funnelArraySQL,
)

type LeadRepository struct {
	DB *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{DB: db}
}

// FindByEmail busca por igualdade exata, sensível a maiúsculas, como o
// dado foi gravado. Sem normalização de email.
func (r *LeadRepository) FindByEmail(ctx context.Context, email string) (*entity.Lead, error) {
	query := `
		SELECT id, name, email, phone, clinic_name, stage, source, estimated_value, metadata, created_at, updated_at
		FROM saas_leads
		WHERE email = $1
	`

	var lead entity.Lead
	var name, phone, clinic, source sql.NullString
	var metadata []byte

	err := r.DB.QueryRowContext(ctx, query, email).Scan(
		&lead.ID,
		&name,
		&lead.Email,
		&phone,
		&clinic,
		&lead.Stage,
		&source,
		&lead.EstimatedValue,
		&metadata,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrLeadNotFound
	}
	if err != nil {
		return nil, err
	}

	lead.Name = name.String
	lead.Phone = phone.String
	lead.ClinicName = clinic.String
	lead.Source = source.String

	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &lead.Metadata); err != nil {
			return nil, err
		}
	}

	return &lead, nil
}

// Upsert grava o lead com email como chave de deduplicação. Metadados são
// concatenados no banco (|| do jsonb) para que upserts concorrentes não
// percam chaves uns dos outros.
func (r *LeadRepository) Upsert(ctx context.Context, lead *entity.Lead) error {
	metadata, err := json.Marshal(lead.Metadata)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO saas_leads (id, name, email, phone, clinic_name, stage, source, estimated_value, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		ON CONFLICT (email)
		DO UPDATE SET
			name = COALESCE(EXCLUDED.name, saas_leads.name),
			phone = COALESCE(EXCLUDED.phone, saas_leads.phone),
			clinic_name = COALESCE(EXCLUDED.clinic_name, saas_leads.clinic_name),
			stage = ` + stageGuardSQL + `,
			estimated_value = GREATEST(EXCLUDED.estimated_value, saas_leads.estimated_value),
			metadata = saas_leads.metadata || EXCLUDED.metadata,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	return r.DB.QueryRowContext(
		ctx,
		query,
		lead.ID,
		nullString(lead.Name),
		lead.Email,
		nullString(lead.Phone),
		nullString(lead.ClinicName),
		lead.Stage,
		nullString(lead.Source),
		lead.EstimatedValue,
		metadata,
	).Scan(
		&lead.ID,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	)
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
