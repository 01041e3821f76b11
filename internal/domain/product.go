package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the catalog's read-only view of a sellable item.
type Product struct {
	ID        int
	Name      string
	Price     decimal.Decimal
	IsActive  bool
	IsDeleted bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p Product) IsSellable() bool {
	return p.IsActive && !p.IsDeleted
}
