// Package httpx holds the JSON response and request validation helpers shared
// by the HTTP controllers.
package httpx

import (
	"encoding/json"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"pharmastock/internal/dto"
	apperrors "pharmastock/internal/errors"
)

// NewValidator returns a validator that reports fields by their JSON name.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate runs struct validation and converts failures to a ValidationError.
func Validate(v *validator.Validate, req any) error {
	err := v.Struct(req)
	if err == nil {
		return nil
	}

	var details []apperrors.ValidationDetail
	if fieldErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range fieldErrors {
			details = append(details, apperrors.ValidationDetail{
				Field:   fe.Field(),
				Message: validationMessage(fe),
			})
		}
	}
	return apperrors.NewValidationError("validation failed", details...)
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "gt":
		return fe.Field() + " must be greater than " + fe.Param()
	case "lte":
		return fe.Field() + " must be at most " + fe.Param()
	case "max":
		return fe.Field() + " must be at most " + fe.Param() + " characters"
	case "datetime":
		return fe.Field() + " must be a date formatted as YYYY-MM-DD"
	default:
		return fe.Field() + " is invalid"
	}
}

// StatusFor maps an error to its HTTP status and response code.
func StatusFor(err error) (int, string) {
	if ie, ok := apperrors.IsInventoryError(err); ok {
		switch ie.Kind {
		case apperrors.KindInvalidQuantity, apperrors.KindInvalidExpiry, apperrors.KindInvalidPrice,
			apperrors.KindInvalidRow, apperrors.KindUnknownProduct:
			return http.StatusUnprocessableEntity, string(ie.Kind)
		case apperrors.KindInsufficientStock, apperrors.KindOverRelease, apperrors.KindOverConsume,
			apperrors.KindInvalidTransition:
			return http.StatusConflict, string(ie.Kind)
		case apperrors.KindBatchNotFound, apperrors.KindPlanNotFound:
			return http.StatusNotFound, string(ie.Kind)
		}
	}
	if _, ok := apperrors.IsValidationError(err); ok {
		return http.StatusBadRequest, "VALIDATION_ERROR"
	}
	if _, ok := apperrors.IsNotFoundError(err); ok {
		return http.StatusNotFound, "NOT_FOUND"
	}
	if _, ok := apperrors.IsConflictError(err); ok {
		return http.StatusConflict, "CONFLICT"
	}
	if _, ok := apperrors.IsDeadlockError(err); ok {
		return http.StatusConflict, "DEADLOCK"
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR"
}

// WriteError writes err as a JSON error body. Unexpected errors are logged
// and their message is not exposed.
func WriteError(w http.ResponseWriter, traceID string, err error, logger *zap.Logger) {
	if ve, ok := apperrors.IsValidationError(err); ok {
		WriteValidationError(w, ve.Message, logger, ve.Details...)
		return
	}

	status, code := StatusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("unexpected error", zap.Error(err))
		message = "an unexpected error occurred"
	} else {
		logger.Warn("request failed", zap.String("code", code), zap.Error(err))
	}

	WriteJSON(w, status, dto.ErrorResponse{
		TraceID:   traceID,
		Status:    status,
		Code:      code,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}, logger)
}

type validationErrorResponse struct {
	Error   string                       `json:"error"`
	Message string                       `json:"message"`
	Details []apperrors.ValidationDetail `json:"details"`
}

func WriteValidationError(w http.ResponseWriter, message string, logger *zap.Logger, details ...apperrors.ValidationDetail) {
	WriteJSON(w, http.StatusBadRequest, validationErrorResponse{
		Error:   "VALIDATION_ERROR",
		Message: message,
		Details: details,
	}, logger)
}

func WriteJSON(w http.ResponseWriter, status int, data any, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", zap.Error(err))
	}
}
