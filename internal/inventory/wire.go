package inventory

import (
	"database/sql"

	"go.uber.org/zap"

	"pharmastock/internal/config"
	"pharmastock/internal/domain"
	"pharmastock/internal/infrastructure/metrics"
	mysqlinfra "pharmastock/internal/infrastructure/mysql"
	"pharmastock/internal/inventory/controller"
	"pharmastock/internal/inventory/repository"
	"pharmastock/internal/inventory/service"
	"pharmastock/internal/inventory/usecase"
)

type Module struct {
	Controller *controller.InventoryController
	Ledger     *service.LedgerService
	Sweeper    *service.ReservationSweeper
}

// NewModule wires the inventory engine. Storage is MySQL when db is set and
// in-process maps otherwise.
func NewModule(
	db *sql.DB,
	cfg *config.Config,
	catalog usecase.ProductCatalog,
	clock domain.Clock,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Module {
	var (
		batches      service.BatchRepository
		reservations service.ReservationRepository
	)
	if db != nil {
		runner := mysqlinfra.NewTxRunner(db, cfg.Database.TxTimeout, cfg.Database.MaxRetryAttempts, logger)
		batches = repository.NewMySQLBatchRepository(db, runner)
		reservations = repository.NewMySQLReservationRepository(db, runner)
	} else {
		batches = repository.NewMemoryBatchRepository()
		reservations = repository.NewMemoryReservationRepository()
	}

	ledger := service.NewLedgerService(batches, clock, cfg.Inventory.RejectExpiredIntake, m, logger)
	planner := service.NewPlanner(batches, clock, logger)
	manager := service.NewReservationManager(batches, reservations, clock, cfg.Inventory.ReservationTTL, m, logger)
	sweeper := service.NewReservationSweeper(reservations, manager, clock, cfg.Inventory.SweepInterval, m, logger)

	uc := usecase.NewInventoryUseCase(ledger, planner, manager, catalog, clock, logger)

	return &Module{
		Controller: controller.NewInventoryController(uc, logger),
		Ledger:     ledger,
		Sweeper:    sweeper,
	}
}
