package storage

import (
	"fmt"

	"github.com/copaaglo/Ticket-Prices-Web-Scraper/config"
	"github.com/copaaglo/Ticket-Prices-Web-Scraper/utils"
)

// Open returns the Store selected by cfg.StorageDriver.
func Open(cfg *config.Config, logger *utils.Logger) (Store, error) {
	switch cfg.StorageDriver {
	case "postgres":
		logger.Info("[storage] Connecting to PostgreSQL at %s:%s/%s", cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresDB)
		return NewPostgresStore(cfg.DSN())
	case "sqlite", "":
		logger.Info("[storage] Opening SQLite database %s", cfg.SQLitePath)
		return NewSQLiteStore(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", cfg.StorageDriver)
	}
}
