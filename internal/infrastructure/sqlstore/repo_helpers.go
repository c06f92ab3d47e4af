package sqlstore

import (
	"database/sql"
	"fmt"

	"github.com/jhoicas/webapi-poc/internal/domain"
)

const defaultPageSize = 20

// normalizePage aplica los valores por defecto de paginación.
func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// expectRow convierte "0 filas afectadas" en domain.ErrNotFound.
func expectRow(res sql.Result, op string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return wrap(op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", op, id, domain.ErrNotFound)
	}
	return nil
}
