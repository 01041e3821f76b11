package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"pharmastock/internal/domain"
	apperrors "pharmastock/internal/errors"
)

// Columns lists the header names an import sheet must carry.
var Columns = []string{"name", "quantity", "price", "batchNumber", "expiryDate"}

var expiryLayouts = []string{
	domain.DateLayout,
	"2006/01/02",
	"02.01.2006",
	"02/01/2006",
	"01-02-06",
}

// Row is one untyped spreadsheet line.
type Row struct {
	Line        int
	Name        string
	Quantity    string
	Price       string
	BatchNumber string
	ExpiryDate  string
}

// RowResult is the outcome of one row: Err is nil and BatchID is set when
// the row reached the ledger and was accepted.
type RowResult struct {
	Line    int
	BatchID string
	Created bool
	Err     error
}

func (r RowResult) OK() bool { return r.Err == nil }

type Report struct {
	WarehouseID int
	Succeeded   int
	Failed      int
	Rows        []RowResult
}

func (r Report) Total() int { return len(r.Rows) }

type Ledger interface {
	UpsertIntake(ctx context.Context, in domain.Intake) (*domain.Batch, bool, error)
}

type ProductResolver interface {
	ResolveName(ctx context.Context, name string) (*domain.Product, error)
}

type Metrics interface {
	ObserveImportRow(result string)
}

// ImportAdapter feeds spreadsheet rows to the ledger one at a time. Rows are
// independent: a failing row is recorded and the next one is processed.
type ImportAdapter struct {
	ledger   Ledger
	products ProductResolver
	metrics  Metrics
	logger   *zap.Logger
}

func NewImportAdapter(ledger Ledger, products ProductResolver, metrics Metrics, logger *zap.Logger) *ImportAdapter {
	return &ImportAdapter{
		ledger:   ledger,
		products: products,
		metrics:  metrics,
		logger:   logger,
	}
}

func (a *ImportAdapter) Import(ctx context.Context, warehouseID int, rows []Row) (*Report, error) {
	report := &Report{WarehouseID: warehouseID, Rows: make([]RowResult, 0, len(rows))}

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		res := a.importRow(ctx, warehouseID, row)
		report.Rows = append(report.Rows, res)
		if res.OK() {
			report.Succeeded++
			a.metrics.ObserveImportRow("ok")
			continue
		}

		report.Failed++
		a.metrics.ObserveImportRow(strings.ToLower(string(rowKind(res.Err))))
		a.logger.Warn("import row rejected",
			zap.Int("warehouseId", warehouseID),
			zap.Int("line", row.Line),
			zap.Error(res.Err),
		)
	}

	a.logger.Info("import finished",
		zap.Int("warehouseId", warehouseID),
		zap.Int("total", report.Total()),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}

func (a *ImportAdapter) importRow(ctx context.Context, warehouseID int, row Row) RowResult {
	res := RowResult{Line: row.Line}

	in, err := ParseRow(row)
	if err != nil {
		res.Err = err
		return res
	}

	product, err := a.products.ResolveName(ctx, row.Name)
	if err != nil {
		res.Err = err
		return res
	}
	in.ProductID = product.ID
	in.WarehouseID = warehouseID

	batch, created, err := a.ledger.UpsertIntake(ctx, in)
	if err != nil {
		res.Err = err
		return res
	}

	res.BatchID = batch.ID
	res.Created = created
	return res
}

// ParseRow checks the loose cells of a row and builds the intake command
// without product and warehouse, which the caller resolves. The returned
// error is always an InventoryError.
func ParseRow(row Row) (domain.Intake, error) {
	name := strings.TrimSpace(row.Name)
	batchNumber := strings.TrimSpace(row.BatchNumber)
	qtyCell := strings.TrimSpace(row.Quantity)
	priceCell := strings.TrimSpace(row.Price)
	expiryCell := strings.TrimSpace(row.ExpiryDate)

	var missing []string
	for _, c := range []struct{ col, val string }{
		{"name", name}, {"quantity", qtyCell}, {"price", priceCell},
		{"batchNumber", batchNumber}, {"expiryDate", expiryCell},
	} {
		if c.val == "" {
			missing = append(missing, c.col)
		}
	}
	if len(missing) > 0 {
		return domain.Intake{}, apperrors.NewInventoryError(apperrors.KindInvalidRow, "missing %s", strings.Join(missing, ", "))
	}

	qty, err := parseQuantity(qtyCell)
	if err != nil {
		return domain.Intake{}, err
	}

	price, err := parsePrice(priceCell)
	if err != nil {
		return domain.Intake{}, err
	}

	expiry, err := parseExpiry(expiryCell)
	if err != nil {
		return domain.Intake{}, err
	}

	return domain.Intake{
		BatchNumber: batchNumber,
		ExpiryDate:  expiry,
		UnitPrice:   price,
		Quantity:    qty,
	}, nil
}

// parseQuantity accepts whole numbers, including "10.0" as spreadsheets
// often render integers that way.
func parseQuantity(s string) (int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsInteger() {
		return 0, apperrors.NewInventoryError(apperrors.KindInvalidQuantity, "quantity %q is not a whole number", s)
	}
	if !d.IsPositive() {
		return 0, apperrors.NewInventoryError(apperrors.KindInvalidQuantity, "quantity must be positive, got %s", s)
	}
	if d.GreaterThan(decimal.NewFromInt(1_000_000)) {
		return 0, apperrors.NewInventoryError(apperrors.KindInvalidQuantity, "quantity %s is too large", s)
	}
	return int(d.IntPart()), nil
}

func parsePrice(s string) (decimal.Decimal, error) {
	if !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, apperrors.NewInventoryError(apperrors.KindInvalidPrice, "price %q is not a number", s)
	}
	if d.IsNegative() {
		return decimal.Zero, apperrors.NewInventoryError(apperrors.KindInvalidPrice, "price must not be negative, got %s", s)
	}
	return d, nil
}

// parseExpiry accepts the usual written layouts and raw Excel serial dates.
func parseExpiry(s string) (time.Time, error) {
	for _, layout := range expiryLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return domain.DateOf(t), nil
		}
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial >= 1 && serial < 2958466 {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return domain.DateOf(t), nil
		}
	}

	return time.Time{}, apperrors.NewInventoryError(apperrors.KindInvalidExpiry, "expiry date %q is not a recognised date", s)
}

// rowKind names the failure of a row for reports and metrics. Errors that
// are not inventory errors come from storage.
func rowKind(err error) apperrors.ErrorKind {
	if kind := apperrors.KindOf(err); kind != "" {
		return kind
	}
	if _, ok := apperrors.IsValidationError(err); ok {
		return apperrors.KindInvalidRow
	}
	return "INTERNAL_ERROR"
}

// RowCode is the code reported to clients for a failed row.
func RowCode(err error) string {
	return string(rowKind(err))
}
