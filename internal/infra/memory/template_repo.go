package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/xavierca1/leadmail/internal/entity"
)

type TemplateRepo struct {
	mu        sync.RWMutex
	templates map[string]entity.EmailTemplate
}

func NewTemplateRepo(seed ...entity.EmailTemplate) *TemplateRepo {
	r := &TemplateRepo{templates: make(map[string]entity.EmailTemplate, len(seed))}
	for _, t := range seed {
		r.templates[t.ID] = t
	}
	return r
}

func (r *TemplateRepo) FindAll(_ context.Context) ([]entity.EmailTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]entity.EmailTemplate, 0, len(r.templates))
	for _, t := range r.templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *TemplateRepo) FindByID(_ context.Context, id string) (*entity.EmailTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.templates[id]
	if !ok {
		return nil, entity.ErrNotFound
	}
	return &t, nil
}
