package sqlstore

import (
	"context"
	"database/sql"

	"github.com/jhoicas/webapi-poc/internal/domain/repository"
)

// TxRunner ejecuta callbacks dentro de una transacción.
type TxRunner struct {
	db      *sql.DB
	dialect Dialect
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(db *sql.DB, d Dialect) *TxRunner {
	return &TxRunner{db: db, dialect: d}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Cualquier error de fn deshace todo lo escrito.
func (r *TxRunner) Run(ctx context.Context, fn func(repos repository.Repositories) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return wrap("begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(newRepositories(tx, r.dialect)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return wrap("commit transaction", err)
	}
	return nil
}
