package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/xavierca1/leadmail/internal/entity"
)

const relayConfigKey = "relay_config"

// RelayConfigRepository keeps the relay config as one JSON value in the
// settings table.
type RelayConfigRepository struct {
	DB  *sql.DB
	Log logrus.FieldLogger
}

func NewRelayConfigRepository(db *sql.DB, log logrus.FieldLogger) *RelayConfigRepository {
	return &RelayConfigRepository{DB: db, Log: log}
}

type relayConfigRecord struct {
	Host      string `json:"host"`
	Port      int    `json:"port"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	FromEmail string `json:"from_email"`
	FromName  string `json:"from_name"`
}

func (r *RelayConfigRepository) Get(ctx context.Context) (*entity.RelayConfig, error) {
	var (
		raw []byte
		cfg entity.RelayConfig
	)
	err := r.DB.QueryRowContext(ctx,
		`SELECT value, updated_at FROM settings WHERE key = $1`, relayConfigKey,
	).Scan(&raw, &cfg.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select relay config: %w", err)
	}

	rec, err := decodeRelayConfig(raw)
	if err != nil {
		r.Log.WithError(err).Warn("stored relay config is unreadable, treating it as absent")
		return nil, entity.ErrNotFound
	}

	cfg.Host = rec.Host
	cfg.Port = rec.Port
	cfg.Username = rec.Username
	cfg.Password = rec.Password
	cfg.FromEmail = rec.FromEmail
	cfg.FromName = rec.FromName
	return &cfg, nil
}

func (r *RelayConfigRepository) Put(ctx context.Context, cfg *entity.RelayConfig) error {
	value, err := json.Marshal(relayConfigRecord{
		Host:      cfg.Host,
		Port:      cfg.Port,
		Username:  cfg.Username,
		Password:  cfg.Password,
		FromEmail: cfg.FromEmail,
		FromName:  cfg.FromName,
	})
	if err != nil {
		return fmt.Errorf("encode relay config: %w", err)
	}

	_, err = r.DB.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`, relayConfigKey, value, cfg.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert relay config: %w", err)
	}
	return nil
}

func decodeRelayConfig(raw []byte) (*relayConfigRecord, error) {
	var rec relayConfigRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
