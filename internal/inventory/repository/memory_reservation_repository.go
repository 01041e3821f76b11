package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"pharmastock/internal/domain"
	"pharmastock/internal/errors"
)

type MemoryReservationRepository struct {
	mu           sync.RWMutex
	reservations map[string]domain.Reservation
	now          func() time.Time
}

func NewMemoryReservationRepository() *MemoryReservationRepository {
	return &MemoryReservationRepository{
		reservations: make(map[string]domain.Reservation),
		now:          time.Now,
	}
}

func (r *MemoryReservationRepository) Create(ctx context.Context, res domain.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.reservations[res.ID]; exists {
		return fmt.Errorf("inserting reservation: duplicate id %s", res.ID)
	}

	now := r.now()
	res.Lines = append([]domain.PlanLine(nil), res.Lines...)
	res.CreatedAt = now
	res.UpdatedAt = now
	r.reservations[res.ID] = res

	return nil
}

func (r *MemoryReservationRepository) FindByID(ctx context.Context, id string) (*domain.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res, ok := r.reservations[id]
	if !ok {
		return nil, errors.NewInventoryError(errors.KindPlanNotFound, "reservation %s not found", id)
	}

	res.Lines = append([]domain.PlanLine(nil), res.Lines...)
	return &res, nil
}

func (r *MemoryReservationRepository) Transition(ctx context.Context, id string, from, to domain.ReservationStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, ok := r.reservations[id]
	if !ok || res.Status != from {
		return false, nil
	}

	res.Status = to
	res.UpdatedAt = r.now()
	r.reservations[id] = res

	return true, nil
}

func (r *MemoryReservationRepository) FindExpiredIDs(ctx context.Context, now time.Time, limit int) ([]string, error) {
	r.mu.RLock()
	var expired []domain.Reservation
	for _, res := range r.reservations {
		if res.IsExpired(now) {
			expired = append(expired, res)
		}
	}
	r.mu.RUnlock()

	sort.Slice(expired, func(i, j int) bool {
		if !expired[i].ExpiresAt.Equal(*expired[j].ExpiresAt) {
			return expired[i].ExpiresAt.Before(*expired[j].ExpiresAt)
		}
		return expired[i].ID < expired[j].ID
	})

	if limit > 0 && len(expired) > limit {
		expired = expired[:limit]
	}

	ids := make([]string, len(expired))
	for i, res := range expired {
		ids[i] = res.ID
	}
	return ids, nil
}
