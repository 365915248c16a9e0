package repository

import (
	"context"
	"sync/atomic"
	"time"

	"facilitydesk/internal/domain"
	"facilitydesk/internal/models"

	"github.com/rs/zerolog"
)

// recoveryWindow is how long the primary stays bypassed after a failure.
const recoveryWindow = time.Minute

// FailoverStateRepository serves navigator sessions from primary (Redis)
// and switches to fallback (memory) while primary is failing.
type FailoverStateRepository struct {
	primary   domain.StateRepository
	fallback  domain.StateRepository
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64 // unix nanos of the last primary failure
	now       func() time.Time
}

func NewFailoverStateRepository(primary, fallback domain.StateRepository, logger *zerolog.Logger) *FailoverStateRepository {
	return &FailoverStateRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		now:      time.Now,
	}
}

// usePrimary reports whether the next call should try primary: always while
// it is up, and once per recovery window while it is down.
func (r *FailoverStateRepository) usePrimary() bool {
	if !r.isDown.Load() {
		return true
	}
	return r.now().Sub(time.Unix(0, r.lastCheck.Load())) > recoveryWindow
}

func (r *FailoverStateRepository) markDown(err error, op string) {
	if !r.isDown.Swap(true) {
		r.logger.Error().Err(err).Str("op", op).Msg("Primary state repository failed, falling back to memory")
	}
	r.lastCheck.Store(r.now().UnixNano())
}

func (r *FailoverStateRepository) markUp() {
	if r.isDown.Swap(false) {
		r.logger.Info().Msg("Primary state repository recovered")
	}
}

func (r *FailoverStateRepository) GetState(ctx context.Context, key string) (*models.NavigatorState, error) {
	if r.usePrimary() {
		state, err := r.primary.GetState(ctx, key)
		if err == nil {
			r.markUp()
			return state, nil
		}
		r.markDown(err, "get")
	}

	return r.fallback.GetState(ctx, key)
}

func (r *FailoverStateRepository) SetState(ctx context.Context, state *models.NavigatorState) error {
	if r.usePrimary() {
		err := r.primary.SetState(ctx, state)
		if err == nil {
			r.markUp()
			return nil
		}
		r.markDown(err, "set")
	}

	return r.fallback.SetState(ctx, state)
}

func (r *FailoverStateRepository) ClearState(ctx context.Context, key string) error {
	// Sessions written during an outage live in fallback, so clear both.
	fallbackErr := r.fallback.ClearState(ctx, key)

	if r.usePrimary() {
		err := r.primary.ClearState(ctx, key)
		if err == nil {
			r.markUp()
			return fallbackErr
		}
		r.markDown(err, "clear")
	}

	return fallbackErr
}
