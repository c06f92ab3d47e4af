// Package sqlstore implementa el almacén relacional (postgres, mysql, sqlite) sobre database/sql.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/webapi-poc/internal/domain"
	"github.com/jhoicas/webapi-poc/internal/domain/repository"
	"github.com/jhoicas/webapi-poc/internal/infrastructure/sqlstore/migrations"
	"github.com/jhoicas/webapi-poc/pkg/config"
	"github.com/jhoicas/webapi-poc/pkg/logger"
)

// DB es el pool compartido por el proceso. Cada unidad de trabajo crea su propio
// contexto de persistencia sobre él; DB sí es seguro para uso concurrente.
type DB struct {
	sql     *sql.DB
	dialect Dialect
	pool    *pgxpool.Pool // solo postgres
	tx      *TxRunner
}

// Open valida la configuración, conecta y, si AutoMigrate está activo, aplica el esquema embebido.
// Errores de configuración o de conexión inicial se devuelven envueltos en domain.ErrConfiguration.
func Open(ctx context.Context, cfg config.DBConfig, log *logger.Logger) (*DB, error) {
	if log == nil {
		log = logger.Nop()
	}
	dialect, err := DialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}
	if err := validate(dialect, cfg); err != nil {
		return nil, err
	}

	var db *DB
	switch dialect.Name {
	case config.DriverPostgres:
		db, err = openPostgres(ctx, cfg)
	case config.DriverMySQL:
		db, err = openMySQL(ctx, cfg)
	default:
		db, err = openSQLite(ctx, cfg)
	}
	if err != nil {
		return nil, err
	}
	db.tx = NewTxRunner(db.sql, db.dialect)

	if cfg.AutoMigrate {
		applied, err := ApplyMigrations(ctx, db.sql, db.dialect, migrations.FS, dialect.Name)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("aplicar migraciones: %w", err)
		}
		log.Info().Str("driver", dialect.Name).Int("applied", applied).Msg("migraciones aplicadas")
	}
	log.Info().Str("driver", dialect.Name).Msg("almacén abierto")
	return db, nil
}

func validate(d Dialect, cfg config.DBConfig) error {
	if cfg.MaxConns < 0 || int64(cfg.MaxConns) > math.MaxInt32 {
		return fmt.Errorf("DB_MAX_CONNS fuera de rango (%d): %w", cfg.MaxConns, domain.ErrConfiguration)
	}
	if d.Name == config.DriverSQLite {
		if strings.TrimSpace(cfg.SQLitePath) == "" {
			return fmt.Errorf("DB_SQLITE_PATH requerido: %w", domain.ErrConfiguration)
		}
		return nil
	}
	if cfg.DatabaseURL == "" && (strings.TrimSpace(cfg.Host) == "" || strings.TrimSpace(cfg.DBName) == "") {
		return fmt.Errorf("DATABASE_URL o DB_HOST y DB_NAME requeridos: %w", domain.ErrConfiguration)
	}
	return nil
}

// Dialect devuelve el dialecto del almacén.
func (db *DB) Dialect() Dialect { return db.dialect }

// SQL expone el *sql.DB subyacente.
func (db *DB) SQL() *sql.DB { return db.sql }

// Repositories devuelve repos atados al pool (lecturas fuera de transacción).
func (db *DB) Repositories() repository.Repositories {
	return newRepositories(db.sql, db.dialect)
}

// RunInTx ejecuta fn con repos atados a una única transacción.
func (db *DB) RunInTx(ctx context.Context, fn func(repos repository.Repositories) error) error {
	if db == nil || db.tx == nil {
		return fmt.Errorf("almacén no abierto: %w", domain.ErrConfiguration)
	}
	return db.tx.Run(ctx, fn)
}

// Close cierra el *sql.DB y, en postgres, el pool de pgx.
func (db *DB) Close() error {
	if db == nil || db.sql == nil {
		return nil
	}
	err := db.sql.Close()
	if db.pool != nil {
		db.pool.Close()
	}
	return err
}

func newRepositories(q Querier, d Dialect) repository.Repositories {
	return repository.Repositories{
		Clients:  NewClientRepository(q, d),
		Products: NewProductRepository(q, d),
		Invoices: NewInvoiceRepository(q, d),
	}
}
