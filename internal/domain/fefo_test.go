package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmastock/internal/errors"
)

func TestAllocateFEFO_SoonestExpiryFirst(t *testing.T) {
	today := date(2025, 1, 1)
	batches := []Batch{
		{ID: "B2", ExpiryDate: date(2025, 2, 1), StockOnHand: 10},
		{ID: "B1", ExpiryDate: date(2025, 1, 10), StockOnHand: 5},
	}

	lines, err := AllocateFEFO(batches, today, 8)

	require.NoError(t, err)
	assert.Equal(t, []PlanLine{{BatchID: "B1", Quantity: 5}, {BatchID: "B2", Quantity: 3}}, lines)
	assert.Equal(t, "B2", batches[0].ID, "input order is preserved")
}

func TestAllocateFEFO_InsufficientIsAllOrNothing(t *testing.T) {
	today := date(2025, 1, 1)
	batches := []Batch{
		{ID: "B1", ExpiryDate: date(2025, 1, 10), StockOnHand: 4},
		{ID: "B2", ExpiryDate: date(2025, 2, 1), StockOnHand: 5, StockReserved: 2},
	}

	lines, err := AllocateFEFO(batches, today, 8)

	assert.Nil(t, lines)
	assert.True(t, errors.HasKind(err, errors.KindInsufficientStock))
}

func TestAllocateFEFO_ExcludesExpiredAndEmpty(t *testing.T) {
	today := date(2025, 1, 10)
	batches := []Batch{
		{ID: "expired", ExpiryDate: date(2025, 1, 9), StockOnHand: 100},
		{ID: "drained", ExpiryDate: date(2025, 1, 11), StockOnHand: 5, StockReserved: 5},
		{ID: "exhausted", ExpiryDate: date(2025, 1, 11), StockOnHand: 0},
		{ID: "today", ExpiryDate: date(2025, 1, 10), StockOnHand: 2},
		{ID: "later", ExpiryDate: date(2025, 3, 1), StockOnHand: 10},
	}

	lines, err := AllocateFEFO(batches, today, 5)

	require.NoError(t, err)
	assert.Equal(t, []PlanLine{{BatchID: "today", Quantity: 2}, {BatchID: "later", Quantity: 3}}, lines)

	_, err = AllocateFEFO(batches[:1], today, 1)
	assert.True(t, errors.HasKind(err, errors.KindInsufficientStock))
}

func TestAllocateFEFO_TieBrokenByBatchID(t *testing.T) {
	today := date(2025, 1, 1)
	batches := []Batch{
		{ID: "c", ExpiryDate: date(2025, 5, 1), StockOnHand: 3},
		{ID: "a", ExpiryDate: date(2025, 5, 1), StockOnHand: 3},
		{ID: "b", ExpiryDate: date(2025, 5, 1), StockOnHand: 3},
	}

	for range 3 {
		lines, err := AllocateFEFO(batches, today, 7)
		require.NoError(t, err)
		assert.Equal(t, []PlanLine{{"a", 3}, {"b", 3}, {"c", 1}}, lines)
	}
}

func TestAllocateFEFO_StopsOnceCovered(t *testing.T) {
	today := date(2025, 1, 1)
	batches := []Batch{
		{ID: "B1", ExpiryDate: date(2025, 1, 10), StockOnHand: 10},
		{ID: "B2", ExpiryDate: date(2025, 2, 1), StockOnHand: 10},
	}

	lines, err := AllocateFEFO(batches, today, 10)

	require.NoError(t, err)
	assert.Equal(t, []PlanLine{{BatchID: "B1", Quantity: 10}}, lines)
}

func TestAllocateFEFO_RejectsNonPositiveQuantity(t *testing.T) {
	_, err := AllocateFEFO(nil, date(2025, 1, 1), 0)

	assert.True(t, errors.HasKind(err, errors.KindInvalidQuantity))
}
