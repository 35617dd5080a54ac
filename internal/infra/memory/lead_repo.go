package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/xavierca1/leadmail/internal/entity"
)

type LeadRepo struct {
	mu    sync.RWMutex
	leads map[string]entity.Lead
}

func NewLeadRepo(seed ...entity.Lead) *LeadRepo {
	r := &LeadRepo{leads: make(map[string]entity.Lead, len(seed))}
	for _, l := range seed {
		r.leads[l.ID] = l
	}
	return r
}

func (r *LeadRepo) Create(_ context.Context, lead *entity.Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.leads {
		if strings.EqualFold(l.Email, lead.Email) {
			return entity.ErrEmailAlreadyExists
		}
	}
	r.leads[lead.ID] = *lead
	return nil
}

func (r *LeadRepo) FindByID(_ context.Context, id string) (*entity.Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.leads[id]
	if !ok {
		return nil, entity.ErrNotFound
	}
	return &l, nil
}

func (r *LeadRepo) FindByIDs(_ context.Context, ids []string) ([]entity.Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]entity.Lead, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if l, ok := r.leads[id]; ok {
			out = append(out, l)
		}
	}
	return out, nil
}

// List returns leads newest first.
func (r *LeadRepo) List(_ context.Context, filter entity.LeadFilter) ([]entity.Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]entity.Lead, 0, len(r.leads))
	for _, l := range r.leads {
		if filter.Status != "" && l.Status != filter.Status {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *LeadRepo) Update(_ context.Context, id string, upd entity.LeadUpdate) (*entity.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.leads[id]
	if !ok {
		return nil, entity.ErrNotFound
	}
	if upd.Status != nil {
		l.Status = *upd.Status
	}
	if upd.Notes != nil {
		l.Notes = *upd.Notes
	}
	l.UpdatedAt = time.Now().UTC()
	r.leads[id] = l
	return &l, nil
}

func (r *LeadRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.leads[id]; !ok {
		return entity.ErrNotFound
	}
	delete(r.leads, id)
	return nil
}

func (r *LeadRepo) TouchLastContacted(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.leads[id]
	if !ok {
		return entity.ErrNotFound
	}
	l.LastContactedAt = &at
	l.UpdatedAt = at
	r.leads[id] = l
	return nil
}
