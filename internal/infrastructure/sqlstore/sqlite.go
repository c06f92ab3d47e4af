package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/jhoicas/webapi-poc/internal/domain"
	"github.com/jhoicas/webapi-poc/pkg/config"
)

// SQLiteDSN agrega los pragmas necesarios: claves foráneas, WAL, espera ante bloqueo
// y transacciones IMMEDIATE para que los escritores se serialicen sin SQLITE_BUSY.
func SQLiteDSN(path string) string {
	return filepath.Clean(path) +
		"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)" +
		"&_pragma=synchronous(NORMAL)&_txlock=immediate"
}

func openSQLite(ctx context.Context, cfg config.DBConfig) (*DB, error) {
	sqlDB, err := sql.Open(SQLite.DriverName, SQLiteDSN(cfg.SQLitePath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w: %w", domain.ErrConfiguration, err)
	}
	if cfg.MaxConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxConns)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w: %w", domain.ErrConfiguration, wrap("ping", err))
	}
	return &DB{sql: sqlDB, dialect: SQLite}, nil
}
