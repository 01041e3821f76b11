package stockimport

import (
	"go.uber.org/zap"

	"pharmastock/internal/infrastructure/xlsx"
	"pharmastock/internal/stockimport/controller"
	"pharmastock/internal/stockimport/service"
)

func NewModule(ledger service.Ledger, products service.ProductResolver, metrics service.Metrics, maxRows int, logger *zap.Logger) *controller.ImportController {
	adapter := service.NewImportAdapter(ledger, products, metrics, logger)
	return controller.NewImportController(xlsx.NewReader(maxRows), adapter, logger)
}
