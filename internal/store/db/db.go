// Package db creates the concrete store driver from configuration.
//
// SQLite is intended for development and single-host installs; PostgreSQL is
// the production driver. Both implement the full store.Driver surface.
package db

import (
	"fmt"

	"github.com/farmstay/farmstay/internal/store"
	"github.com/farmstay/farmstay/internal/store/db/postgres"
	"github.com/farmstay/farmstay/internal/store/db/sqlite"
)

// NewDriver creates a store driver for the given driver name and DSN.
func NewDriver(driver, dsn string) (store.Driver, error) {
	switch driver {
	case "sqlite", "":
		return sqlite.NewDB(dsn)
	case "postgres":
		return postgres.NewDB(dsn)
	default:
		return nil, fmt.Errorf("unknown db driver %q: only 'sqlite' and 'postgres' are supported", driver)
	}
}
