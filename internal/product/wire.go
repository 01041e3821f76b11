package product

import (
	"database/sql"

	"go.uber.org/zap"

	"pharmastock/internal/product/controller"
	"pharmastock/internal/product/repository"
	"pharmastock/internal/product/service"
	"pharmastock/internal/product/usecase"
)

// Module is the read-only product catalog: the search endpoint plus the
// service other modules use to name and resolve products.
type Module struct {
	Controller *controller.Controller
	Service    *service.ProductService
}

// NewModule builds the catalog over MySQL, or over memory when db is nil.
func NewModule(db *sql.DB, memory *repository.MemoryRepository, logger *zap.Logger) *Module {
	var repo service.Repository = memory
	if db != nil {
		repo = repository.NewMySQLRepository(db)
	}

	svc := service.NewService(repo, logger)
	uc := usecase.NewSearchUseCase(svc)
	return &Module{
		Controller: controller.NewController(uc, logger),
		Service:    svc,
	}
}
