package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pharmastock/internal/domain"
	"pharmastock/internal/errors"
)

const resultCommitted = "committed"

// ReservationManager turns plans into reserved stock and drives each
// reservation through COMMITTED to FULFILLED or CANCELLED.
type ReservationManager struct {
	batches      BatchRepository
	reservations ReservationRepository
	clock        domain.Clock
	ttl          time.Duration
	metrics      Metrics
	logger       *zap.Logger
	newID        func() string
}

func NewReservationManager(
	batches BatchRepository,
	reservations ReservationRepository,
	clock domain.Clock,
	ttl time.Duration,
	metrics Metrics,
	logger *zap.Logger,
) *ReservationManager {
	return &ReservationManager{
		batches:      batches,
		reservations: reservations,
		clock:        clock,
		ttl:          ttl,
		metrics:      metrics,
		logger:       logger,
		newID:        uuid.NewString,
	}
}

// Commit reserves every line of the plan or none of them. Each line is
// re-checked against the ledger; when one fails, lines already reserved are
// released before the error is returned.
func (m *ReservationManager) Commit(ctx context.Context, plan domain.Plan) (*domain.Reservation, error) {
	start := time.Now()

	if err := validatePlan(plan); err != nil {
		m.metrics.ObserveCommit(commitResult(err), time.Since(start))
		return nil, err
	}

	id := m.newID()
	logger := m.logger.With(zap.String("planId", id), zap.Int("productId", plan.ProductID), zap.Int("warehouseId", plan.WarehouseID))

	for i, line := range plan.Lines {
		if err := m.batches.Reserve(ctx, line.BatchID, line.Quantity); err != nil {
			logger.Warn("reserve failed, rolling back plan",
				zap.String("batchId", line.BatchID),
				zap.Int("quantity", line.Quantity),
				zap.Int("appliedLines", i),
				zap.Error(err),
			)
			m.rollback(ctx, logger, plan.Lines[:i])
			m.metrics.ObserveCommit(commitResult(err), time.Since(start))
			return nil, err
		}
	}

	res := domain.Reservation{
		ID:          id,
		ProductID:   plan.ProductID,
		WarehouseID: plan.WarehouseID,
		Quantity:    plan.Quantity,
		Lines:       append([]domain.PlanLine(nil), plan.Lines...),
		Status:      domain.ReservationCommitted,
	}
	if m.ttl > 0 {
		expiresAt := m.clock.Now().Add(m.ttl)
		res.ExpiresAt = &expiresAt
	}

	if err := m.reservations.Create(ctx, res); err != nil {
		logger.Error("storing reservation failed, rolling back plan", zap.Error(err))
		m.rollback(ctx, logger, plan.Lines)
		m.metrics.ObserveCommit(commitResult(err), time.Since(start))
		return nil, fmt.Errorf("storing reservation: %w", err)
	}

	m.metrics.ObserveCommit(resultCommitted, time.Since(start))
	logger.Info("reservation committed", zap.Int("quantity", plan.Quantity), zap.Int("lines", len(plan.Lines)))

	return &res, nil
}

// rollback releases lines in reverse order. It runs detached from the
// caller's cancellation so an aborted request cannot strand reserved stock.
func (m *ReservationManager) rollback(ctx context.Context, logger *zap.Logger, lines []domain.PlanLine) {
	ctx = context.WithoutCancel(ctx)
	for i := len(lines) - 1; i >= 0; i-- {
		line := lines[i]
		if err := m.batches.Release(ctx, line.BatchID, line.Quantity); err != nil {
			logger.Error("rollback release failed",
				zap.String("batchId", line.BatchID),
				zap.Int("quantity", line.Quantity),
				zap.Error(err),
			)
		}
	}
}

func (m *ReservationManager) Get(ctx context.Context, id string) (*domain.Reservation, error) {
	return m.reservations.FindByID(ctx, id)
}

// Cancel releases a committed reservation. Cancelling an already cancelled
// reservation is a no-op; cancelling a fulfilled one is INVALID_TRANSITION.
func (m *ReservationManager) Cancel(ctx context.Context, id string) (*domain.Reservation, error) {
	res, moved, err := m.transition(ctx, id, domain.ReservationCancelled)
	if err != nil || !moved {
		return res, err
	}

	if err := m.applyLines(ctx, res, m.batches.Release); err != nil {
		return nil, err
	}

	m.logger.Info("reservation cancelled", zap.String("planId", id), zap.Int("quantity", res.Quantity))
	return res, nil
}

// Fulfill ships a committed reservation, consuming its reserved units.
// Fulfilling twice is a no-op; fulfilling a cancelled reservation is
// INVALID_TRANSITION.
func (m *ReservationManager) Fulfill(ctx context.Context, id string) (*domain.Reservation, error) {
	res, moved, err := m.transition(ctx, id, domain.ReservationFulfilled)
	if err != nil || !moved {
		return res, err
	}

	if err := m.applyLines(ctx, res, m.batches.Consume); err != nil {
		return nil, err
	}

	m.logger.Info("reservation fulfilled", zap.String("planId", id), zap.Int("quantity", res.Quantity))
	return res, nil
}

// transition claims the COMMITTED -> target move for this caller. moved is
// false when the reservation already sits in the target status, which makes
// repeated calls no-ops.
func (m *ReservationManager) transition(ctx context.Context, id string, target domain.ReservationStatus) (*domain.Reservation, bool, error) {
	for attempt := 0; attempt < 2; attempt++ {
		res, err := m.reservations.FindByID(ctx, id)
		if err != nil {
			return nil, false, err
		}

		switch res.Status {
		case target:
			return res, false, nil
		case domain.ReservationCommitted:
		default:
			return nil, false, errors.NewInventoryError(errors.KindInvalidTransition,
				"reservation %s is %s, cannot move to %s", id, res.Status, target)
		}

		moved, err := m.reservations.Transition(ctx, id, domain.ReservationCommitted, target)
		if err != nil {
			return nil, false, err
		}
		if moved {
			res.Status = target
			return res, true, nil
		}
		// Lost a race with a concurrent cancel or fulfill; re-read once.
	}

	return nil, false, errors.NewConflictError(fmt.Sprintf("reservation %s changed concurrently", id))
}

// applyLines runs op for every line after the status move has been claimed.
// The move is already durable, so a failing line is logged and the
// remaining lines still run.
func (m *ReservationManager) applyLines(ctx context.Context, res *domain.Reservation, op func(ctx context.Context, batchID string, quantity int) error) error {
	ctx = context.WithoutCancel(ctx)
	var failed []string
	for _, line := range res.Lines {
		if err := op(ctx, line.BatchID, line.Quantity); err != nil {
			m.logger.Error("applying reservation line failed",
				zap.String("planId", res.ID),
				zap.String("batchId", line.BatchID),
				zap.Int("quantity", line.Quantity),
				zap.String("status", string(res.Status)),
				zap.Error(err),
			)
			failed = append(failed, line.BatchID)
		}
	}

	if len(failed) > 0 {
		return errors.NewInternalError(
			fmt.Sprintf("reservation %s moved to %s but batches %s were not updated", res.ID, res.Status, strings.Join(failed, ", ")),
			nil,
		)
	}
	return nil
}

func validatePlan(plan domain.Plan) error {
	if plan.Quantity <= 0 {
		return errors.NewInventoryError(errors.KindInvalidQuantity, "plan quantity must be positive, got %d", plan.Quantity)
	}
	if len(plan.Lines) == 0 || plan.Total() != plan.Quantity {
		return errors.NewInventoryError(errors.KindInvalidQuantity,
			"plan lines sum to %d, expected %d", plan.Total(), plan.Quantity)
	}
	for _, line := range plan.Lines {
		if line.Quantity <= 0 {
			return errors.NewInventoryError(errors.KindInvalidQuantity, "plan line for batch %s has quantity %d", line.BatchID, line.Quantity)
		}
	}
	return nil
}

func commitResult(err error) string {
	if kind := errors.KindOf(err); kind != "" {
		return strings.ToLower(string(kind))
	}
	return "error"
}
