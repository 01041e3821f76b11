package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// IntakeRequest is one manual stock entry. Quantity and price semantics are
// checked by the ledger, which reports them as INVALID_QUANTITY and
// INVALID_PRICE.
type IntakeRequest struct {
	ProductID   int             `json:"productId" validate:"required,gt=0"`
	WarehouseID int             `json:"warehouseId" validate:"required,gt=0"`
	BatchNumber string          `json:"batchNumber" validate:"required,max=100"`
	ExpiryDate  string          `json:"expiryDate" validate:"required,datetime=2006-01-02"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Quantity    int             `json:"quantity" validate:"lte=1000000"`
}

type BatchView struct {
	BatchID         string          `json:"batchId"`
	BatchNumber     string          `json:"batchNumber"`
	ExpiryDate      string          `json:"expiryDate"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
	StockOnHand     int             `json:"stockOnHand"`
	StockReserved   int             `json:"stockReserved"`
	AvailableStock  int             `json:"availableStock"`
	ExpiryStatus    string          `json:"expiryStatus"`
	StockStatus     string          `json:"stockStatus"`
	DaysUntilExpiry int             `json:"daysUntilExpiry"`
	ExpiryLabel     string          `json:"expiryLabel"`
}

type IntakeResponse struct {
	TraceID   string    `json:"traceId"`
	Created   bool      `json:"created"`
	Batch     BatchView `json:"batch"`
	Timestamp time.Time `json:"timestamp"`
}

type BatchListResponse struct {
	TraceID     string      `json:"traceId"`
	ProductID   int         `json:"productId"`
	WarehouseID int         `json:"warehouseId"`
	ProductName string      `json:"productName,omitempty"`
	Batches     []BatchView `json:"batches"`
	Timestamp   time.Time   `json:"timestamp"`
}
