package sqlstore

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jhoicas/webapi-poc/internal/domain"
	"github.com/jhoicas/webapi-poc/pkg/config"
)

// Dialect describe las diferencias de SQL entre los motores soportados.
// Las consultas se escriben con "?" y Rebind las adapta al motor.
type Dialect struct {
	Name       string // postgres, mysql, sqlite (igual a config.DBConfig.Driver)
	DriverName string // nombre registrado en database/sql
	numbered   bool   // placeholders $1, $2...
	returning  bool   // INSERT ... RETURNING id en lugar de LastInsertId
}

var (
	Postgres = Dialect{Name: config.DriverPostgres, DriverName: "pgx", numbered: true, returning: true}
	MySQL    = Dialect{Name: config.DriverMySQL, DriverName: "mysql"}
	SQLite   = Dialect{Name: config.DriverSQLite, DriverName: "sqlite"}
)

// DialectFor devuelve el dialecto del driver configurado.
func DialectFor(driver string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case config.DriverPostgres, "postgresql", "pgx":
		return Postgres, nil
	case config.DriverMySQL:
		return MySQL, nil
	case config.DriverSQLite, "sqlite3":
		return SQLite, nil
	default:
		return Dialect{}, fmt.Errorf("driver %q no soportado: %w", driver, domain.ErrConfiguration)
	}
}

// Rebind reemplaza cada "?" por el placeholder del motor.
func (d Dialect) Rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// insertID ejecuta un INSERT y devuelve el id generado por el almacén.
func (d Dialect) insertID(ctx context.Context, q Querier, query string, args ...any) (int64, error) {
	if d.returning {
		var id int64
		if err := q.QueryRowContext(ctx, d.Rebind(query+" RETURNING id"), args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}
	res, err := q.ExecContext(ctx, d.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
