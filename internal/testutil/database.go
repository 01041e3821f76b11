package testutil

import (
	"database/sql"
	"fmt"
	"os"
	"testing"

	_ "github.com/go-sql-driver/mysql"

	"pharmastock/internal/infrastructure/mysql"
)

const defaultTestDSN = "root:@tcp(localhost:3306)/pharmastock_test?parseTime=true"

// SetupTestDB abre la BD de prueba indicada en PHARMASTOCK_TEST_DSN
// (por defecto 'pharmastock_test' en localhost:3306). Si no responde, el test se salta.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv("PHARMASTOCK_TEST_DSN")
	if dsn == "" {
		dsn = defaultTestDSN
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	// Verify connection
	err = db.Ping()
	if err != nil {
		db.Close()
		t.Skipf("test database not available: %v", err)
	}

	return db
}

// CleanupTestDB limpia la BD de prueba
func CleanupTestDB(t *testing.T, db *sql.DB) {
	if db == nil {
		return
	}

	tables := []string{"ReservationLines", "Reservations", "Batches", "Product"}
	for _, table := range tables {
		_, err := db.Exec(fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}

	db.Close()
}

// SetupTestTables aplica las migraciones embebidas
func SetupTestTables(t *testing.T, db *sql.DB) {
	t.Helper()

	if err := mysql.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
}
