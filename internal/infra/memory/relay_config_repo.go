package memory

import (
	"context"
	"sync"

	"github.com/xavierca1/leadmail/internal/entity"
)

// RelayConfigRepo holds the single relay config slot.
type RelayConfigRepo struct {
	mu  sync.RWMutex
	cfg *entity.RelayConfig
}

func NewRelayConfigRepo() *RelayConfigRepo {
	return &RelayConfigRepo{}
}

func (r *RelayConfigRepo) Get(_ context.Context) (*entity.RelayConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.cfg == nil {
		return nil, entity.ErrNotFound
	}
	cp := *r.cfg
	return &cp, nil
}

func (r *RelayConfigRepo) Put(_ context.Context, cfg *entity.RelayConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *cfg
	r.cfg = &cp
	return nil
}
