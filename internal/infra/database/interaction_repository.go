package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/xavierca1/leadmail/internal/entity"
)

type InteractionRepository struct {
	DB *sql.DB
}

func NewInteractionRepository(db *sql.DB) *InteractionRepository {
	return &InteractionRepository{DB: db}
}

func (r *InteractionRepository) Append(ctx context.Context, rec *entity.Interaction) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO interactions (id, lead_id, type, direction, subject, body,
			status, reason, error, message_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		rec.ID,
		rec.LeadID,
		rec.Type,
		rec.Direction,
		rec.Subject,
		rec.Body,
		rec.Status,
		rec.Reason,
		rec.Error,
		rec.MessageID,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert interaction: %w", err)
	}
	return nil
}

// ListByLead orders by created_at then insertion sequence, newest first.
func (r *InteractionRepository) ListByLead(ctx context.Context, leadID string) ([]entity.Interaction, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, lead_id, type, direction, subject, body, status, reason, error, message_id, created_at
		FROM interactions
		WHERE lead_id = $1
		ORDER BY created_at DESC, seq DESC
	`, leadID)
	if err != nil {
		return nil, fmt.Errorf("list interactions: %w", err)
	}
	defer rows.Close()

	var out []entity.Interaction
	for rows.Next() {
		var rec entity.Interaction
		if err := rows.Scan(
			&rec.ID,
			&rec.LeadID,
			&rec.Type,
			&rec.Direction,
			&rec.Subject,
			&rec.Body,
			&rec.Status,
			&rec.Reason,
			&rec.Error,
			&rec.MessageID,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
