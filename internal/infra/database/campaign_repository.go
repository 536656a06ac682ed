package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/vitalmed-app/clinica-automation/internal/entity"
)

type CampaignRepository struct {
	DB *sql.DB
}

func NewCampaignRepository(db *sql.DB) *CampaignRepository {
	return &CampaignRepository{DB: db}
}

func (r *CampaignRepository) List(ctx context.Context) ([]entity.Campaign, error) {
	query := `
		SELECT id, name, status, trigger_type, trigger_config, steps, stats, folder, created_at
		FROM marketing_campaigns
		ORDER BY created_at DESC
	`

	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var campaigns []entity.Campaign
	for rows.Next() {
		campaign, err := scanCampaign(rows.Scan)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, *campaign)
	}

	return campaigns, rows.Err()
}

func (r *CampaignRepository) FindByID(ctx context.Context, id string) (*entity.Campaign, error) {
	query := `
		SELECT id, name, status, trigger_type, trigger_config, steps, stats, folder, created_at
		FROM marketing_campaigns
		WHERE id = $1
	`

	campaign, err := scanCampaign(r.DB.QueryRowContext(ctx, query, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrCampaignNotFound
	}
	if err != nil {
		return nil, err
	}
	return campaign, nil
}

// Save faz upsert por id. Chaves temporárias geradas no cliente (strings
// longas aleatórias) são descartadas: o banco recebe um UUID novo e o
// registro retornado traz o id durável.
func (r *CampaignRepository) Save(ctx context.Context, c *entity.Campaign) (*entity.Campaign, error) {
	if isTempID(c.ID) {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}

	triggerConfig, err := json.Marshal(c.Trigger.Config)
	if err != nil {
		return nil, err
	}
	steps, err := json.Marshal(c.Steps)
	if err != nil {
		return nil, err
	}
	stats, err := json.Marshal(c.Stats)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO marketing_campaigns (id, name, status, trigger_type, trigger_config, steps, stats, folder, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id)
		DO UPDATE SET
			name = EXCLUDED.name,
			status = EXCLUDED.status,
			trigger_type = EXCLUDED.trigger_type,
			trigger_config = EXCLUDED.trigger_config,
			steps = EXCLUDED.steps,
			folder = EXCLUDED.folder
		RETURNING id, created_at
	`

	err = r.DB.QueryRowContext(
		ctx,
		query,
		c.ID,
		c.Name,
		c.Status,
		string(c.Trigger.Type),
		triggerConfig,
		steps,
		stats,
		nullString(c.Folder),
		c.CreatedAt,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return nil, classifyWriteError("campaign save", err)
	}

	return c, nil
}

// IncrementStats soma nos contadores agregados dentro do jsonb de stats.
func (r *CampaignRepository) IncrementStats(ctx context.Context, id string, enrolled, completed int) error {
	query := `
		UPDATE marketing_campaigns
		SET stats = stats || jsonb_build_object(
			'enrolled', COALESCE((stats->>'enrolled')::int, 0) + $2,
			'completed', COALESCE((stats->>'completed')::int, 0) + $3
		)
		WHERE id = $1
	`

	_, err := r.DB.ExecContext(ctx, query, id, enrolled, completed)
	return err
}

// isTempID reconhece chaves temporárias de cliente: vazias, prefixadas com
// "tmp_", ou longas demais para serem um id atribuído pelo servidor sem
// serem um UUID válido.
func isTempID(id string) bool {
	if id == "" {
		return true
	}
	if len(id) >= 4 && id[:4] == "tmp_" {
		return true
	}
	if len(id) > 32 {
		_, err := uuid.Parse(id)
		return err != nil
	}
	return false
}

type scanFunc func(dest ...any) error

func scanCampaign(scan scanFunc) (*entity.Campaign, error) {
	var c entity.Campaign
	var triggerType string
	var triggerConfig, steps, stats []byte
	var folder sql.NullString

	err := scan(
		&c.ID,
		&c.Name,
		&c.Status,
		&triggerType,
		&triggerConfig,
		&steps,
		&stats,
		&folder,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Trigger.Type = entity.TriggerType(triggerType)
	c.Folder = folder.String

	if len(triggerConfig) > 0 {
		if err := json.Unmarshal(triggerConfig, &c.Trigger.Config); err != nil {
			return nil, err
		}
	}
	if len(steps) > 0 {
		if err := json.Unmarshal(steps, &c.Steps); err != nil {
			return nil, err
		}
	}
	if len(stats) > 0 {
		if err := json.Unmarshal(stats, &c.Stats); err != nil {
			return nil, err
		}
	}

	return &c, nil
}
