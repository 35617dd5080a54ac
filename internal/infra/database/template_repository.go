package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/xavierca1/leadmail/internal/entity"
)

type TemplateRepository struct {
	DB *sql.DB
}

func NewTemplateRepository(db *sql.DB) *TemplateRepository {
	return &TemplateRepository{DB: db}
}

func (r *TemplateRepository) FindAll(ctx context.Context) ([]entity.EmailTemplate, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, name, subject, body, created_at FROM email_templates ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var templates []entity.EmailTemplate
	for rows.Next() {
		var t entity.EmailTemplate
		if err := rows.Scan(&t.ID, &t.Name, &t.Subject, &t.Body, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

func (r *TemplateRepository) FindByID(ctx context.Context, id string) (*entity.EmailTemplate, error) {
	id, ok := canonicalID(id)
	if !ok {
		return nil, entity.ErrNotFound
	}

	var t entity.EmailTemplate
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, name, subject, body, created_at FROM email_templates WHERE id = $1`, id,
	).Scan(&t.ID, &t.Name, &t.Subject, &t.Body, &t.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select template %s: %w", id, err)
	}
	return &t, nil
}
