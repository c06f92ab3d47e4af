// Package migrations embebe el esquema SQL por dialecto.
package migrations

import "embed"

// FS contiene un directorio por dialecto (postgres, mysql, sqlite) con archivos *.sql.
//
//go:embed postgres/*.sql mysql/*.sql sqlite/*.sql
var FS embed.FS
