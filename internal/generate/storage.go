package generate

import (
	"context"
	"fmt"
	"os"

	"rigcore/internal/library"
	"rigcore/internal/library/memory"
	"rigcore/internal/library/postgres"
	"rigcore/internal/library/sqlite"
)

// StorageDriver identifies a concrete rig library backend.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// OpenLibrary selects a rig library backend using environment variables.
// Defaults to sqlite when unset.
//
//	RIGCORE_STORAGE_DRIVER: memory|sqlite|postgres (default sqlite)
//	RIGCORE_SQLITE_PATH: path to sqlite file (default ./rigcore.db)
//	RIGCORE_POSTGRES_DSN: postgres DSN when driver=postgres
func OpenLibrary(ctx context.Context) (library.Store, error) {
	driver := os.Getenv("RIGCORE_STORAGE_DRIVER")
	if driver == "" {
		driver = string(StorageSQLite)
	}
	switch StorageDriver(driver) {
	case StorageMemory:
		return memory.NewStore(), nil
	case StorageSQLite:
		return sqlite.NewStore(os.Getenv("RIGCORE_SQLITE_PATH"))
	case StoragePostgres:
		return postgres.NewStore(ctx, os.Getenv("RIGCORE_POSTGRES_DSN"))
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
