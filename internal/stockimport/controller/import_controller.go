package controller

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"pharmastock/internal/dto"
	apperrors "pharmastock/internal/errors"
	"pharmastock/internal/infrastructure/httpx"
	"pharmastock/internal/infrastructure/xlsx"
	"pharmastock/internal/stockimport/service"
)

const (
	maxUploadBytes = 10 << 20
	fileField      = "file"
)

type SheetReader interface {
	Read(src io.Reader, required ...string) ([]xlsx.Record, error)
}

type Importer interface {
	Import(ctx context.Context, warehouseID int, rows []service.Row) (*service.Report, error)
}

type ImportController struct {
	reader   SheetReader
	importer Importer
	logger   *zap.Logger
}

func NewImportController(reader SheetReader, importer Importer, logger *zap.Logger) *ImportController {
	return &ImportController{
		reader:   reader,
		importer: importer,
		logger:   logger,
	}
}

func (c *ImportController) HandleUpload(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	warehouseID, err := strconv.Atoi(chi.URLParam(r, "warehouseId"))
	if err != nil || warehouseID <= 0 {
		httpx.WriteValidationError(w, "invalid warehouseId", logger, apperrors.ValidationDetail{
			Field:   "warehouseId",
			Message: "warehouseId must be a positive integer",
		})
		return
	}
	logger = logger.With(zap.Int("warehouseId", warehouseID))

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile(fileField)
	if err != nil {
		msg := "multipart field \"file\" is required"
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			msg = "upload exceeds the 10 MiB limit"
		}
		logger.Warn("invalid upload", zap.Error(err))
		httpx.WriteValidationError(w, "invalid upload", logger, apperrors.ValidationDetail{
			Field:   fileField,
			Message: msg,
		})
		return
	}
	defer file.Close()

	logger.Info("import upload received", zap.String("filename", header.Filename), zap.Int64("size", header.Size))

	records, err := c.reader.Read(file, service.Columns...)
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	rows := make([]service.Row, len(records))
	for i, rec := range records {
		rows[i] = service.Row{
			Line:        rec.Line,
			Name:        rec.Get("name"),
			Quantity:    rec.Get("quantity"),
			Price:       rec.Get("price"),
			BatchNumber: rec.Get("batchNumber"),
			ExpiryDate:  rec.Get("expiryDate"),
		}
	}

	report, err := c.importer.Import(r.Context(), warehouseID, rows)
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, importResponse(traceID, report), logger)
}

func importResponse(traceID string, report *service.Report) dto.ImportResponse {
	rows := make([]dto.ImportRowResult, len(report.Rows))
	for i, res := range report.Rows {
		row := dto.ImportRowResult{Row: res.Line, Status: dto.ImportRowOK, BatchID: res.BatchID}
		if !res.OK() {
			row.Status = dto.ImportRowFailed
			row.Error = service.RowCode(res.Err)
			if row.Error != "INTERNAL_ERROR" {
				row.Message = res.Err.Error()
			}
		}
		rows[i] = row
	}

	return dto.ImportResponse{
		TraceID:     traceID,
		WarehouseID: report.WarehouseID,
		Total:       report.Total(),
		Succeeded:   report.Succeeded,
		Failed:      report.Failed,
		Rows:        rows,
		Timestamp:   time.Now().UTC(),
	}
}
