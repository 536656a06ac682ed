package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/vitalmed-app/clinica-automation/internal/entity"
)

type TemplateRepository struct {
	DB *sql.DB
}

func NewTemplateRepository(db *sql.DB) *TemplateRepository {
	return &TemplateRepository{DB: db}
}

func (r *TemplateRepository) List(ctx context.Context) ([]entity.Template, error) {
	query := `
		SELECT id, name, channel, content, subject, is_ai_powered
		FROM marketing_templates
		ORDER BY name
	`

	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []entity.Template
	for rows.Next() {
		var t entity.Template
		var subject sql.NullString

		if err := rows.Scan(&t.ID, &t.Name, &t.Channel, &t.Content, &subject, &t.IsAIPowered); err != nil {
			return nil, err
		}
		t.Subject = subject.String
		templates = append(templates, t)
	}

	return templates, rows.Err()
}

func (r *TemplateRepository) FindByID(ctx context.Context, id string) (*entity.Template, error) {
	query := `
		SELECT id, name, channel, content, subject, is_ai_powered
		FROM marketing_templates
		WHERE id = $1
	`

	var t entity.Template
	var subject sql.NullString

	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&t.ID,
		&t.Name,
		&t.Channel,
		&t.Content,
		&subject,
		&t.IsAIPowered,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrTemplateNotFound
	}
	if err != nil {
		return nil, err
	}

	t.Subject = subject.String
	return &t, nil
}

func (r *TemplateRepository) Save(ctx context.Context, t *entity.Template) (*entity.Template, error) {
	if isTempID(t.ID) {
		t.ID = uuid.New().String()
	}

	query := `
		INSERT INTO marketing_templates (id, name, channel, content, subject, is_ai_powered)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id)
		DO UPDATE SET
			name = EXCLUDED.name,
			channel = EXCLUDED.channel,
			content = EXCLUDED.content,
			subject = EXCLUDED.subject,
			is_ai_powered = EXCLUDED.is_ai_powered
		RETURNING id
	`

	err := r.DB.QueryRowContext(
		ctx,
		query,
		t.ID,
		t.Name,
		t.Channel,
		t.Content,
		nullString(t.Subject),
		t.IsAIPowered,
	).Scan(&t.ID)
	if err != nil {
		return nil, classifyWriteError("template save", err)
	}

	return t, nil
}

func (r *TemplateRepository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM marketing_templates WHERE id = $1`, id)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}
