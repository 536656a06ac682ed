package database

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/vitalmed-app/clinica-automation/internal/entity"
)

type RunRepository struct {
	DB *sql.DB
}

func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{DB: db}
}

// Schedule persiste o run suspenso com o timestamp de retomada.
func (r *RunRepository) Schedule(ctx context.Context, run *entity.AutomationRun) error {
	lead, err := json.Marshal(run.Lead)
	if err != nil {
		return err
	}
	runContext, err := json.Marshal(run.Context)
	if err != nil {
		return err
	}
	attachments, err := json.Marshal(run.Attachments)
	if err != nil {
		return err
	}
	chain, err := json.Marshal(run.Chain)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO automation_runs (id, campaign_id, lead, context, attachments, chain, next_step, resume_at, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
	`

	_, err = r.DB.ExecContext(
		ctx,
		query,
		run.ID,
		run.CampaignID,
		lead,
		runContext,
		attachments,
		chain,
		run.NextStep,
		run.ResumeAt,
		entity.RunStatusWaiting,
	)
	if err != nil {
		return classifyWriteError("run schedule", err)
	}
	return nil
}

// ClaimDue marca como PROCESSING e devolve os runs vencidos. O SKIP LOCKED
// deixa vários workers disputarem a tabela sem processar o mesmo run.
func (r *RunRepository) ClaimDue(ctx context.Context, limit int) ([]entity.AutomationRun, error) {
	query := `
		UPDATE automation_runs
		SET status = $1
		WHERE id IN (
			SELECT id FROM automation_runs
			WHERE status = $2 AND resume_at <= NOW()
			ORDER BY resume_at
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, campaign_id, lead, context, attachments, chain, next_step, resume_at, created_at
	`

	rows, err := r.DB.QueryContext(ctx, query, entity.RunStatusProcessing, entity.RunStatusWaiting, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []entity.AutomationRun
	for rows.Next() {
		var run entity.AutomationRun
		var lead, runContext, attachments, chain []byte

		err := rows.Scan(
			&run.ID,
			&run.CampaignID,
			&lead,
			&runContext,
			&attachments,
			&chain,
			&run.NextStep,
			&run.ResumeAt,
			&run.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		if err := json.Unmarshal(lead, &run.Lead); err != nil {
			return nil, err
		}
		if len(runContext) > 0 {
			if err := json.Unmarshal(runContext, &run.Context); err != nil {
				return nil, err
			}
		}
		if len(attachments) > 0 {
			if err := json.Unmarshal(attachments, &run.Attachments); err != nil {
				return nil, err
			}
		}
		if len(chain) > 0 {
			if err := json.Unmarshal(chain, &run.Chain); err != nil {
				return nil, err
			}
		}

		run.Status = entity.RunStatusProcessing
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// Release devolve o run para WAITING (ex: falha ao publicar na fila).
func (r *RunRepository) Release(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(
		ctx,
		`UPDATE automation_runs SET status = $2 WHERE id = $1`,
		id, entity.RunStatusWaiting,
	)
	return err
}

func (r *RunRepository) MarkCompleted(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(
		ctx,
		`UPDATE automation_runs SET status = $2 WHERE id = $1`,
		id, entity.RunStatusCompleted,
	)
	return err
}

func (r *RunRepository) MarkFailed(ctx context.Context, id, reason string) error {
	_, err := r.DB.ExecContext(
		ctx,
		`UPDATE automation_runs SET status = $2, last_error = $3 WHERE id = $1`,
		id, entity.RunStatusFailed, reason,
	)
	return err
}
