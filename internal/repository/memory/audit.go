package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mustafakutlankale/my-ecommerce-app/internal/domain"
	"github.com/mustafakutlankale/my-ecommerce-app/pkg/pagination"
)

// AuditRepository implements repository.AuditRepository in memory.
type AuditRepository struct {
	mu      sync.RWMutex
	entries []domain.AuditEntry
	seen    map[string]struct{}
}

// NewAuditRepository creates an empty audit store.
func NewAuditRepository() *AuditRepository {
	return &AuditRepository{seen: make(map[string]struct{})}
}

func (r *AuditRepository) Record(_ context.Context, entry *domain.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.seen[entry.EventID]; ok {
		return nil
	}
	r.seen[entry.EventID] = struct{}{}
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *AuditRepository) List(_ context.Context, filter domain.AuditFilter, page pagination.Params) ([]domain.AuditEntry, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []domain.AuditEntry
	for _, e := range r.entries {
		if filter.AggregateID != "" && e.AggregateID != filter.AggregateID {
			continue
		}
		if filter.EventType != "" && e.EventType != filter.EventType {
			continue
		}
		matched = append(matched, e)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].OccurredAt.After(matched[j].OccurredAt)
	})

	start, end := page.Window(len(matched))
	return matched[start:end:end], len(matched), nil
}
