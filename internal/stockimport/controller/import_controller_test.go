package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"pharmastock/internal/dto"
	apperrors "pharmastock/internal/errors"
	"pharmastock/internal/infrastructure/xlsx"
	"pharmastock/internal/stockimport/service"
)

type mockImporter struct {
	ImportFunc func(ctx context.Context, warehouseID int, rows []service.Row) (*service.Report, error)
}

func (m *mockImporter) Import(ctx context.Context, warehouseID int, rows []service.Row) (*service.Report, error) {
	return m.ImportFunc(ctx, warehouseID, rows)
}

func xlsxBody(t *testing.T, rows ...[]interface{}) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func upload(t *testing.T, c *ImportController, warehouse, field string, content []byte) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if content != nil {
		part, err := mw.CreateFormFile(field, "stock.xlsx")
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	router := chi.NewRouter()
	router.Post("/warehouses/{warehouseId}/imports", c.HandleUpload)

	req := httptest.NewRequest(http.MethodPost, "/warehouses/"+warehouse+"/imports", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleUpload_ReportsEachRow(t *testing.T) {
	importer := &mockImporter{
		ImportFunc: func(ctx context.Context, warehouseID int, rows []service.Row) (*service.Report, error) {
			assert.Equal(t, 3, warehouseID)
			require.Len(t, rows, 2)
			assert.Equal(t, service.Row{
				Line: 2, Name: "Aspirin", Quantity: "10", Price: "1.20", BatchNumber: "A-1", ExpiryDate: "2025-06-30",
			}, rows[0])

			return &service.Report{
				WarehouseID: warehouseID,
				Succeeded:   1,
				Failed:      1,
				Rows: []service.RowResult{
					{Line: 2, BatchID: "b1", Created: true},
					{Line: 3, Err: apperrors.NewInventoryError(apperrors.KindUnknownProduct, "no product named %q", "Nope")},
				},
			}, nil
		},
	}
	c := NewImportController(xlsx.NewReader(100), importer, zap.NewNop())

	content := xlsxBody(t,
		[]interface{}{"Name", "Quantity", "Price", "Batch Number", "Expiry Date"},
		[]interface{}{"Aspirin", 10, "1.20", "A-1", "2025-06-30"},
		[]interface{}{"Nope", 1, "1", "N-1", "2025-06-30"},
	)
	rec := upload(t, c, "3", "file", content)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.ImportResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, 1, resp.Succeeded)
	assert.Equal(t, 1, resp.Failed)
	assert.Equal(t, dto.ImportRowOK, resp.Rows[0].Status)
	assert.Equal(t, "b1", resp.Rows[0].BatchID)
	assert.Equal(t, dto.ImportRowFailed, resp.Rows[1].Status)
	assert.Equal(t, "UNKNOWN_PRODUCT", resp.Rows[1].Error)
	assert.Equal(t, 3, resp.Rows[1].Row)
}

func TestHandleUpload_HidesStorageErrors(t *testing.T) {
	importer := &mockImporter{
		ImportFunc: func(ctx context.Context, warehouseID int, rows []service.Row) (*service.Report, error) {
			return &service.Report{WarehouseID: warehouseID, Failed: 1, Rows: []service.RowResult{
				{Line: 2, Err: errors.New("dial tcp: connection refused")},
			}}, nil
		},
	}
	c := NewImportController(xlsx.NewReader(0), importer, zap.NewNop())

	content := xlsxBody(t,
		[]interface{}{"name", "quantity", "price", "batchNumber", "expiryDate"},
		[]interface{}{"Aspirin", 10, "1.20", "A-1", "2025-06-30"},
	)
	rec := upload(t, c, "3", "file", content)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestHandleUpload_BadRequests(t *testing.T) {
	c := NewImportController(xlsx.NewReader(0), &mockImporter{}, zap.NewNop())
	valid := xlsxBody(t, []interface{}{"name", "quantity", "price", "batchNumber", "expiryDate"})

	tests := []struct {
		name      string
		warehouse string
		field     string
		content   []byte
	}{
		{name: "invalid warehouse", warehouse: "zero", field: "file", content: valid},
		{name: "missing file", warehouse: "3", field: "file", content: nil},
		{name: "wrong field", warehouse: "3", field: "upload", content: valid},
		{name: "not a workbook", warehouse: "3", field: "file", content: []byte("name,quantity")},
		{name: "missing columns", warehouse: "3", field: "file", content: xlsxBody(t, []interface{}{"name", "quantity"})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := upload(t, c, tt.warehouse, tt.field, tt.content)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
		})
	}
}
