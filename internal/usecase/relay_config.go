package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/xavierca1/leadmail/internal/entity"
)

// PasswordMask stands in for a stored relay password in every read.
const PasswordMask = "••••••••"

type RelayConfigView struct {
	Host       string    `json:"host"`
	Port       int       `json:"port"`
	Username   string    `json:"username"`
	Password   string    `json:"password"`
	FromEmail  string    `json:"from_email"`
	FromName   string    `json:"from_name"`
	Configured bool      `json:"configured"`
	UpdatedAt  time.Time `json:"updated_at,omitempty"`
}

type UpdateRelayConfigInput struct {
	Host      string  `json:"host" validate:"required"`
	Port      int     `json:"port" validate:"required,gt=0,max=65535"`
	Username  string  `json:"username" validate:"required"`
	Password  *string `json:"password,omitempty"`
	FromEmail string  `json:"from_email" validate:"required,email"`
	FromName  string  `json:"from_name"`
}

type RelayConfigUseCase struct {
	Repo            entity.RelayConfigRepository
	DefaultFromName string
	Log             logrus.FieldLogger
}

func NewRelayConfigUseCase(repo entity.RelayConfigRepository, defaultFromName string, log logrus.FieldLogger) *RelayConfigUseCase {
	return &RelayConfigUseCase{Repo: repo, DefaultFromName: defaultFromName, Log: log}
}

// Get returns the stored config with its password masked, or defaults when
// nothing has been stored yet.
func (uc *RelayConfigUseCase) Get(ctx context.Context) (*RelayConfigView, error) {
	cfg, err := uc.Repo.Get(ctx)
	if errors.Is(err, entity.ErrNotFound) {
		return &RelayConfigView{FromName: uc.DefaultFromName}, nil
	}
	if err != nil {
		return nil, storeError("load relay config", err)
	}
	return uc.view(cfg), nil
}

// Update replaces the stored config. A nil or masked password keeps the
// secret already stored.
func (uc *RelayConfigUseCase) Update(ctx context.Context, in UpdateRelayConfigInput) (*RelayConfigView, error) {
	if err := ValidateStruct(in); err != nil {
		return nil, err
	}

	current, err := uc.Repo.Get(ctx)
	if err != nil && !errors.Is(err, entity.ErrNotFound) {
		return nil, storeError("load relay config", err)
	}

	next := &entity.RelayConfig{
		Host:      strings.TrimSpace(in.Host),
		Port:      in.Port,
		Username:  strings.TrimSpace(in.Username),
		FromEmail: strings.TrimSpace(in.FromEmail),
		FromName:  strings.TrimSpace(in.FromName),
		UpdatedAt: time.Now().UTC(),
	}

	switch {
	case in.Password != nil && *in.Password != PasswordMask:
		next.Password = *in.Password
	case current != nil:
		next.Password = current.Password
	}

	if err := uc.Repo.Put(ctx, next); err != nil {
		return nil, storeError("store relay config", err)
	}

	uc.Log.WithFields(logrus.Fields{
		"host": next.Host,
		"port": next.Port,
	}).Info("relay config updated")

	return uc.view(next), nil
}

func (uc *RelayConfigUseCase) view(cfg *entity.RelayConfig) *RelayConfigView {
	v := &RelayConfigView{
		Host:       cfg.Host,
		Port:       cfg.Port,
		Username:   cfg.Username,
		FromEmail:  cfg.FromEmail,
		FromName:   cfg.FromName,
		Configured: len(cfg.Missing()) == 0,
		UpdatedAt:  cfg.UpdatedAt,
	}
	if v.FromName == "" {
		v.FromName = uc.DefaultFromName
	}
	if cfg.Password != "" {
		v.Password = PasswordMask
	}
	return v
}
