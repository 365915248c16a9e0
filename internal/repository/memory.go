package repository

import (
	"context"
	"sync"
	"time"

	"facilitydesk/internal/models"
)

type stateEntry struct {
	state     models.NavigatorState
	expiresAt time.Time
}

// MemoryStateRepository keeps navigator sessions in process memory.
type MemoryStateRepository struct {
	states sync.Map // map[string]stateEntry
	ttl    time.Duration
	now    func() time.Time
}

func NewMemoryStateRepository(ttl time.Duration) *MemoryStateRepository {
	return &MemoryStateRepository{
		ttl: ttl,
		now: time.Now,
	}
}

func (r *MemoryStateRepository) GetState(ctx context.Context, key string) (*models.NavigatorState, error) {
	val, ok := r.states.Load(key)
	if !ok {
		return nil, nil
	}
	entry := val.(stateEntry)
	if !entry.expiresAt.IsZero() && r.now().After(entry.expiresAt) {
		r.states.CompareAndDelete(key, val)
		return nil, nil
	}
	state := entry.state
	return &state, nil
}

func (r *MemoryStateRepository) SetState(ctx context.Context, state *models.NavigatorState) error {
	entry := stateEntry{state: *state}
	if r.ttl > 0 {
		entry.expiresAt = r.now().Add(r.ttl)
	}
	r.states.Store(state.Key(), entry)
	return nil
}

func (r *MemoryStateRepository) ClearState(ctx context.Context, key string) error {
	r.states.Delete(key)
	return nil
}
