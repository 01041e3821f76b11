package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"pharmastock/internal/errors"
)

// Batch is a dated lot of one product held in one warehouse. The triple
// (ProductID, WarehouseID, BatchNumber) is unique.
type Batch struct {
	ID            string
	ProductID     int
	WarehouseID   int
	BatchNumber   string
	ExpiryDate    time.Time
	UnitPrice     decimal.Decimal
	StockOnHand   int
	StockReserved int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (b Batch) AvailableStock() int {
	available := b.StockOnHand - b.StockReserved
	if available < 0 {
		return 0
	}
	return available
}

// IsExhausted reports a batch with nothing left on hand. Exhausted batches
// are kept for audit but never allocated.
func (b Batch) IsExhausted() bool {
	return b.StockOnHand == 0
}

// Intake is one stock-entry command, either typed in manually or produced
// by a spreadsheet row.
type Intake struct {
	ProductID   int
	WarehouseID int
	BatchNumber string
	ExpiryDate  time.Time
	UnitPrice   decimal.Decimal
	Quantity    int
}

type BatchKey struct {
	ProductID   int
	WarehouseID int
	BatchNumber string
}

func (i Intake) Key() BatchKey {
	return BatchKey{ProductID: i.ProductID, WarehouseID: i.WarehouseID, BatchNumber: i.BatchNumber}
}

func (b Batch) Key() BatchKey {
	return BatchKey{ProductID: b.ProductID, WarehouseID: b.WarehouseID, BatchNumber: b.BatchNumber}
}

// Reserve moves quantity from available to reserved.
func (b *Batch) Reserve(quantity int) error {
	if quantity <= 0 {
		return errors.NewInventoryError(errors.KindInvalidQuantity, "reserve quantity must be positive, got %d", quantity)
	}
	if quantity > b.AvailableStock() {
		return errors.NewInventoryError(errors.KindInsufficientStock,
			"batch %s has %d available, requested %d", b.ID, b.AvailableStock(), quantity)
	}
	b.StockReserved += quantity
	return nil
}

func (b *Batch) Release(quantity int) error {
	if quantity <= 0 {
		return errors.NewInventoryError(errors.KindInvalidQuantity, "release quantity must be positive, got %d", quantity)
	}
	if quantity > b.StockReserved {
		return errors.NewInventoryError(errors.KindOverRelease,
			"batch %s has %d reserved, cannot release %d", b.ID, b.StockReserved, quantity)
	}
	b.StockReserved -= quantity
	return nil
}

// Consume ships reserved units, removing them from both reserved and on hand.
func (b *Batch) Consume(quantity int) error {
	if quantity <= 0 {
		return errors.NewInventoryError(errors.KindInvalidQuantity, "consume quantity must be positive, got %d", quantity)
	}
	if quantity > b.StockReserved {
		return errors.NewInventoryError(errors.KindOverConsume,
			"batch %s has %d reserved, cannot consume %d", b.ID, b.StockReserved, quantity)
	}
	b.StockReserved -= quantity
	b.StockOnHand -= quantity
	return nil
}
