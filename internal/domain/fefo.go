package domain

import (
	"sort"
	"time"

	"pharmastock/internal/errors"
)

// IsAllocatable reports whether a batch may feed a new plan today: it must
// not be expired and must have something available.
func (b Batch) IsAllocatable(today time.Time) bool {
	status, _ := ClassifyExpiry(b.ExpiryDate, today)
	return status != ExpiryExpired && b.AvailableStock() > 0
}

// SortFEFO orders batches by expiry date, soonest first, breaking ties by
// batch ID. The slice is sorted in place.
func SortFEFO(batches []Batch) {
	sort.SliceStable(batches, func(i, j int) bool {
		ei, ej := DateOf(batches[i].ExpiryDate), DateOf(batches[j].ExpiryDate)
		if !ei.Equal(ej) {
			return ei.Before(ej)
		}
		return batches[i].ID < batches[j].ID
	})
}

// AllocateFEFO greedily covers quantity from the allocatable batches in FEFO
// order. It returns lines summing exactly to quantity, or INSUFFICIENT_STOCK
// with no lines when the eligible stock falls short. The input is not
// modified.
func AllocateFEFO(batches []Batch, today time.Time, quantity int) ([]PlanLine, error) {
	if quantity <= 0 {
		return nil, errors.NewInventoryError(errors.KindInvalidQuantity, "quantity must be positive, got %d", quantity)
	}

	eligible := make([]Batch, 0, len(batches))
	for _, b := range batches {
		if b.IsAllocatable(today) {
			eligible = append(eligible, b)
		}
	}
	SortFEFO(eligible)

	var lines []PlanLine
	remaining := quantity
	for _, b := range eligible {
		if remaining == 0 {
			break
		}
		take := min(b.AvailableStock(), remaining)
		lines = append(lines, PlanLine{BatchID: b.ID, Quantity: take})
		remaining -= take
	}

	if remaining > 0 {
		return nil, errors.NewInventoryError(errors.KindInsufficientStock,
			"requested %d, only %d available in non-expired batches", quantity, quantity-remaining)
	}

	return lines, nil
}
