package dto

import "time"

type ReserveRequest struct {
	ProductID   int `json:"productId" validate:"required,gt=0"`
	WarehouseID int `json:"warehouseId" validate:"required,gt=0"`
	Quantity    int `json:"quantity" validate:"lte=1000000"`
}

type PlanLineDTO struct {
	BatchID  string `json:"batchId"`
	Quantity int    `json:"quantity"`
}

type PlanResponse struct {
	TraceID     string        `json:"traceId"`
	ProductID   int           `json:"productId"`
	WarehouseID int           `json:"warehouseId"`
	Quantity    int           `json:"quantity"`
	Lines       []PlanLineDTO `json:"lines"`
	Timestamp   time.Time     `json:"timestamp"`
}

type ReservationResponse struct {
	TraceID     string        `json:"traceId"`
	PlanID      string        `json:"planId"`
	Status      string        `json:"status"`
	ProductID   int           `json:"productId"`
	WarehouseID int           `json:"warehouseId"`
	Quantity    int           `json:"quantity"`
	Lines       []PlanLineDTO `json:"lines"`
	ExpiresAt   *time.Time    `json:"expiresAt,omitempty"`
	Timestamp   time.Time     `json:"timestamp"`
}

type ErrorResponse struct {
	TraceID   string    `json:"traceId"`
	Status    int       `json:"status"`
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
