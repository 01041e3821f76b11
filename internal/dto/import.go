package dto

import "time"

const (
	ImportRowOK     = "ok"
	ImportRowFailed = "failed"
)

type ImportRowResult struct {
	Row     int    `json:"row"`
	Status  string `json:"status"`
	BatchID string `json:"batchId,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

type ImportResponse struct {
	TraceID     string            `json:"traceId"`
	WarehouseID int               `json:"warehouseId"`
	Total       int               `json:"total"`
	Succeeded   int               `json:"succeeded"`
	Failed      int               `json:"failed"`
	Rows        []ImportRowResult `json:"rows"`
	Timestamp   time.Time         `json:"timestamp"`
}
