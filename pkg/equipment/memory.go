package equipment

import (
	"context"
	"sync"
	"time"

	"equipapi/models"
	"equipapi/pkg/apperr"
)

// MemoryRepository keeps records in process memory. Used with STORAGE=memory and
// in tests.
type MemoryRepository struct {
	mu     sync.RWMutex
	nextID uint
	order  []uint
	items  map[uint]models.Equipment
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{nextID: 1, items: make(map[uint]models.Equipment)}
}

func (r *MemoryRepository) List(_ context.Context, f Filter) ([]models.Equipment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Equipment, 0, len(r.order))
	for _, id := range r.order {
		rec := r.items[id]
		if f.Quantity != nil && (rec.Quantity == nil || *rec.Quantity != *f.Quantity) {
			continue
		}
		out = append(out, clone(rec))
	}
	return out, nil
}

func (r *MemoryRepository) Get(_ context.Context, id uint) (models.Equipment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.items[id]
	if !ok {
		return models.Equipment{}, apperr.ErrNotFound
	}
	return clone(rec), nil
}

func (r *MemoryRepository) Create(_ context.Context, rec *models.Equipment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	rec.ID = r.nextID
	rec.CreatedAt, rec.UpdatedAt = now, now
	r.nextID++
	r.items[rec.ID] = clone(*rec)
	r.order = append(r.order, rec.ID)
	return nil
}

func (r *MemoryRepository) Update(_ context.Context, rec *models.Equipment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, ok := r.items[rec.ID]
	if !ok {
		return apperr.ErrNotFound
	}
	rec.CreatedAt = prev.CreatedAt
	rec.UpdatedAt = time.Now()
	r.items[rec.ID] = clone(*rec)
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(r.items, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// Len reports the number of stored records.
func (r *MemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// clone detaches the pointer fields so callers cannot mutate stored state.
func clone(rec models.Equipment) models.Equipment {
	if rec.Quantity != nil {
		q := *rec.Quantity
		rec.Quantity = &q
	}
	if rec.InternalNotes != nil {
		n := *rec.InternalNotes
		rec.InternalNotes = &n
	}
	return rec
}
