package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"pharmastock/internal/domain"
	"pharmastock/internal/dto"
	apperrors "pharmastock/internal/errors"
	"pharmastock/internal/infrastructure/httpx"
	"pharmastock/internal/inventory/usecase"
)

type InventoryUseCase interface {
	Reserve(ctx context.Context, productID, warehouseID, quantity int) (*domain.Reservation, error)
	PreviewPlan(ctx context.Context, productID, warehouseID, quantity int) (*domain.Plan, error)
	Cancel(ctx context.Context, planID string) (*domain.Reservation, error)
	Fulfill(ctx context.Context, planID string) (*domain.Reservation, error)
	GetReservation(ctx context.Context, planID string) (*domain.Reservation, error)
	Intake(ctx context.Context, in domain.Intake) (*usecase.BatchSummary, bool, error)
	ListBatches(ctx context.Context, productID, warehouseID int) (*usecase.BatchListing, error)
}

type InventoryController struct {
	useCase  InventoryUseCase
	validate *validator.Validate
	logger   *zap.Logger
}

func NewInventoryController(useCase InventoryUseCase, logger *zap.Logger) *InventoryController {
	return &InventoryController{
		useCase:  useCase,
		validate: httpx.NewValidator(),
		logger:   logger,
	}
}

func (c *InventoryController) Reserve(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	var req dto.ReserveRequest
	if !c.decode(w, r, &req, logger) {
		return
	}

	res, err := c.useCase.Reserve(r.Context(), req.ProductID, req.WarehouseID, req.Quantity)
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	logger.Info("reservation created", zap.String("planId", res.ID), zap.Int("quantity", res.Quantity))
	httpx.WriteJSON(w, http.StatusCreated, reservationResponse(traceID, res), logger)
}

func (c *InventoryController) PreviewPlan(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	var req dto.ReserveRequest
	if !c.decode(w, r, &req, logger) {
		return
	}

	plan, err := c.useCase.PreviewPlan(r.Context(), req.ProductID, req.WarehouseID, req.Quantity)
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, dto.PlanResponse{
		TraceID:     traceID,
		ProductID:   plan.ProductID,
		WarehouseID: plan.WarehouseID,
		Quantity:    plan.Quantity,
		Lines:       planLines(plan.Lines),
		Timestamp:   time.Now().UTC(),
	}, logger)
}

func (c *InventoryController) GetReservation(w http.ResponseWriter, r *http.Request) {
	c.handleLifecycle(w, r, c.useCase.GetReservation)
}

func (c *InventoryController) Cancel(w http.ResponseWriter, r *http.Request) {
	c.handleLifecycle(w, r, c.useCase.Cancel)
}

func (c *InventoryController) Fulfill(w http.ResponseWriter, r *http.Request) {
	c.handleLifecycle(w, r, c.useCase.Fulfill)
}

func (c *InventoryController) handleLifecycle(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, planID string) (*domain.Reservation, error)) {
	traceID := uuid.New().String()
	planID := chi.URLParam(r, "planId")
	logger := c.logger.With(zap.String("traceId", traceID), zap.String("planId", planID))

	if _, err := uuid.Parse(planID); err != nil {
		logger.Warn("invalid planId in path", zap.Error(err))
		httpx.WriteValidationError(w, "invalid planId", logger, apperrors.ValidationDetail{
			Field:   "planId",
			Message: "planId must be a UUID",
		})
		return
	}

	res, err := op(r.Context(), planID)
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, reservationResponse(traceID, res), logger)
}

func (c *InventoryController) Intake(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	var req dto.IntakeRequest
	if !c.decode(w, r, &req, logger) {
		return
	}

	expiry, err := domain.ParseDate(req.ExpiryDate)
	if err != nil {
		httpx.WriteValidationError(w, "invalid expiryDate", logger, apperrors.ValidationDetail{
			Field:   "expiryDate",
			Message: "expiryDate must be a date formatted as YYYY-MM-DD",
		})
		return
	}

	summary, created, err := c.useCase.Intake(r.Context(), domain.Intake{
		ProductID:   req.ProductID,
		WarehouseID: req.WarehouseID,
		BatchNumber: req.BatchNumber,
		ExpiryDate:  expiry,
		UnitPrice:   req.UnitPrice,
		Quantity:    req.Quantity,
	})
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	httpx.WriteJSON(w, status, dto.IntakeResponse{
		TraceID:   traceID,
		Created:   created,
		Batch:     batchView(*summary),
		Timestamp: time.Now().UTC(),
	}, logger)
}

func (c *InventoryController) ListBatches(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	var details []apperrors.ValidationDetail
	productID, ok := positiveParam(r, "productId")
	if !ok {
		details = append(details, apperrors.ValidationDetail{Field: "productId", Message: "productId must be a positive integer"})
	}
	warehouseID, ok := positiveParam(r, "warehouseId")
	if !ok {
		details = append(details, apperrors.ValidationDetail{Field: "warehouseId", Message: "warehouseId must be a positive integer"})
	}
	if len(details) > 0 {
		httpx.WriteValidationError(w, "invalid path parameters", logger, details...)
		return
	}

	listing, err := c.useCase.ListBatches(r.Context(), productID, warehouseID)
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	views := make([]dto.BatchView, len(listing.Batches))
	for i, s := range listing.Batches {
		views[i] = batchView(s)
	}

	httpx.WriteJSON(w, http.StatusOK, dto.BatchListResponse{
		TraceID:     traceID,
		ProductID:   listing.ProductID,
		WarehouseID: listing.WarehouseID,
		ProductName: listing.ProductName,
		Batches:     views,
		Timestamp:   time.Now().UTC(),
	}, logger)
}

// decode reads and validates a JSON body, writing the 400 response itself
// when it fails.
func (c *InventoryController) decode(w http.ResponseWriter, r *http.Request, req any, logger *zap.Logger) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		httpx.WriteValidationError(w, "invalid JSON body", logger, apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
		return false
	}

	if err := httpx.Validate(c.validate, req); err != nil {
		ve, _ := apperrors.IsValidationError(err)
		httpx.WriteValidationError(w, ve.Message, logger, ve.Details...)
		return false
	}

	return true
}

func positiveParam(r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

func reservationResponse(traceID string, res *domain.Reservation) dto.ReservationResponse {
	return dto.ReservationResponse{
		TraceID:     traceID,
		PlanID:      res.ID,
		Status:      string(res.Status),
		ProductID:   res.ProductID,
		WarehouseID: res.WarehouseID,
		Quantity:    res.Quantity,
		Lines:       planLines(res.Lines),
		ExpiresAt:   res.ExpiresAt,
		Timestamp:   time.Now().UTC(),
	}
}

func planLines(lines []domain.PlanLine) []dto.PlanLineDTO {
	out := make([]dto.PlanLineDTO, len(lines))
	for i, l := range lines {
		out[i] = dto.PlanLineDTO{BatchID: l.BatchID, Quantity: l.Quantity}
	}
	return out
}

func batchView(s usecase.BatchSummary) dto.BatchView {
	b := s.Batch
	return dto.BatchView{
		BatchID:         b.ID,
		BatchNumber:     b.BatchNumber,
		ExpiryDate:      domain.FormatDate(b.ExpiryDate),
		UnitPrice:       b.UnitPrice,
		StockOnHand:     b.StockOnHand,
		StockReserved:   b.StockReserved,
		AvailableStock:  b.AvailableStock(),
		ExpiryStatus:    string(s.ExpiryStatus),
		StockStatus:     string(s.StockStatus),
		DaysUntilExpiry: s.DaysUntilExpiry,
		ExpiryLabel:     domain.DescribeExpiry(s.DaysUntilExpiry),
	}
}
