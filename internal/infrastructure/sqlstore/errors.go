package sqlstore

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jhoicas/webapi-poc/internal/domain"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Códigos MySQL de violación de integridad.
var mysqlConstraintCodes = map[uint16]bool{
	1048: true, // column cannot be null
	1062: true, // duplicate entry
	1216: true, // fk: no parent row (antiguo)
	1217: true, // fk: row is referenced (antiguo)
	1451: true, // fk: row is referenced
	1452: true, // fk: no parent row
	3819: true, // check constraint violated
}

// wrap antepone la operación y, si aplica, la categoría de dominio (conflicto o conectividad).
// El error del driver se conserva en la cadena.
func wrap(op string, err error) error {
	switch {
	case isConstraintViolation(err):
		return fmt.Errorf("%s: %w: %w", op, domain.ErrConflict, err)
	case isConnectivityError(err):
		return fmt.Errorf("%s: %w: %w", op, domain.ErrConnectivity, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// isConstraintViolation verifica si un error es una violación de restricción (único, check, FK, not null).
func isConstraintViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, "23") // integrity_constraint_violation
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return mysqlConstraintCodes[myErr.Number]
	}
	var liteErr *msqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code()&0xff == sqlite3lib.SQLITE_CONSTRAINT
	}
	return strings.Contains(strings.ToLower(err.Error()), "constraint failed")
}

// isConnectivityError verifica si un error viene de la comunicación con el almacén y no de los datos.
func isConnectivityError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, mysql.ErrInvalidConn) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, "08") || pgErr.Code == "57P01"
	}
	var liteErr *msqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() & 0xff {
		case sqlite3lib.SQLITE_BUSY, sqlite3lib.SQLITE_LOCKED, sqlite3lib.SQLITE_CANTOPEN:
			return true
		}
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
