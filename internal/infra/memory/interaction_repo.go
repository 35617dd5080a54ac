package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/xavierca1/leadmail/internal/entity"
)

type storedInteraction struct {
	seq int64
	rec entity.Interaction
}

type InteractionRepo struct {
	mu     sync.RWMutex
	seq    int64
	byLead map[string][]storedInteraction
}

func NewInteractionRepo() *InteractionRepo {
	return &InteractionRepo{byLead: make(map[string][]storedInteraction)}
}

func (r *InteractionRepo) Append(_ context.Context, rec *entity.Interaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	r.byLead[rec.LeadID] = append(r.byLead[rec.LeadID], storedInteraction{seq: r.seq, rec: *rec})
	return nil
}

func (r *InteractionRepo) ListByLead(_ context.Context, leadID string) ([]entity.Interaction, error) {
	r.mu.RLock()
	stored := append([]storedInteraction(nil), r.byLead[leadID]...)
	r.mu.RUnlock()

	sort.Slice(stored, func(i, j int) bool {
		a, b := stored[i], stored[j]
		if a.rec.CreatedAt.Equal(b.rec.CreatedAt) {
			return a.seq > b.seq
		}
		return a.rec.CreatedAt.After(b.rec.CreatedAt)
	})

	out := make([]entity.Interaction, len(stored))
	for i, s := range stored {
		out[i] = s.rec
	}
	return out, nil
}

// Count returns how many interactions were appended in total.
func (r *InteractionRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, recs := range r.byLead {
		n += len(recs)
	}
	return n
}
