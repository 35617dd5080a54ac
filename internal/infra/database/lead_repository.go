package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/xavierca1/leadmail/internal/entity"
)

const uniqueViolation = "23505"

const leadColumns = `id, first_name, last_name, email, phone, profession, company,
	status, notes, created_at, last_contacted_at, updated_at`

type LeadRepository struct {
	DB *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{DB: db}
}

func (r *LeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	query := `
		INSERT INTO leads (id, first_name, last_name, email, phone, profession, company,
			status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.DB.ExecContext(ctx, query,
		lead.ID,
		lead.FirstName,
		lead.LastName,
		lead.Email,
		lead.Phone,
		lead.Profession,
		lead.Company,
		lead.Status,
		lead.Notes,
		lead.CreatedAt,
		lead.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return entity.ErrEmailAlreadyExists
		}
		return fmt.Errorf("insert lead: %w", err)
	}
	return nil
}

func (r *LeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	id, ok := canonicalID(id)
	if !ok {
		return nil, entity.ErrNotFound
	}
	row := r.DB.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)

	lead, err := scanLead(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select lead %s: %w", id, err)
	}
	return lead, nil
}

func (r *LeadRepository) FindByIDs(ctx context.Context, ids []string) ([]entity.Lead, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if canonical, ok := canonicalID(id); ok {
			valid = append(valid, canonical)
		}
	}
	if len(valid) == 0 {
		return nil, nil
	}

	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE id = ANY($1::uuid[])`,
		pq.Array(valid),
	)
	if err != nil {
		return nil, fmt.Errorf("select leads by ids: %w", err)
	}
	defer rows.Close()

	return scanLeads(rows)
}

func (r *LeadRepository) List(ctx context.Context, filter entity.LeadFilter) ([]entity.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads`
	var args []any
	if filter.Status != "" {
		query += ` WHERE status = $1`
		args = append(args, filter.Status)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	return scanLeads(rows)
}

func (r *LeadRepository) Update(ctx context.Context, id string, upd entity.LeadUpdate) (*entity.Lead, error) {
	id, ok := canonicalID(id)
	if !ok {
		return nil, entity.ErrNotFound
	}
	var status, notes sql.NullString
	if upd.Status != nil {
		status = sql.NullString{String: string(*upd.Status), Valid: true}
	}
	if upd.Notes != nil {
		notes = sql.NullString{String: *upd.Notes, Valid: true}
	}

	row := r.DB.QueryRowContext(ctx, `
		UPDATE leads SET
			status = COALESCE($2, status),
			notes = COALESCE($3, notes),
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+leadColumns,
		id, status, notes,
	)

	lead, err := scanLead(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update lead %s: %w", id, err)
	}
	return lead, nil
}

func (r *LeadRepository) Delete(ctx context.Context, id string) error {
	id, ok := canonicalID(id)
	if !ok {
		return entity.ErrNotFound
	}
	res, err := r.DB.ExecContext(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete lead %s: %w", id, err)
	}
	return expectAffected(res)
}

func (r *LeadRepository) TouchLastContacted(ctx context.Context, id string, at time.Time) error {
	id, ok := canonicalID(id)
	if !ok {
		return entity.ErrNotFound
	}
	res, err := r.DB.ExecContext(ctx,
		`UPDATE leads SET last_contacted_at = $2, updated_at = $2 WHERE id = $1`,
		id, at,
	)
	if err != nil {
		return fmt.Errorf("touch lead %s: %w", id, err)
	}
	return expectAffected(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (*entity.Lead, error) {
	var (
		l             entity.Lead
		lastContacted sql.NullTime
	)
	err := row.Scan(
		&l.ID,
		&l.FirstName,
		&l.LastName,
		&l.Email,
		&l.Phone,
		&l.Profession,
		&l.Company,
		&l.Status,
		&l.Notes,
		&l.CreatedAt,
		&lastContacted,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lastContacted.Valid {
		t := lastContacted.Time
		l.LastContactedAt = &t
	}
	return &l, nil
}

func scanLeads(rows *sql.Rows) ([]entity.Lead, error) {
	var leads []entity.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		leads = append(leads, *l)
	}
	return leads, rows.Err()
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return entity.ErrNotFound
	}
	return nil
}

// canonicalID returns id in the lower-case hyphenated form Postgres prints
// uuid columns in. Anything that is not a UUID is simply not found.
func canonicalID(id string) (string, bool) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", false
	}
	return parsed.String(), true
}
