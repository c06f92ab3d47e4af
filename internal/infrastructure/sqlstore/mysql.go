package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jhoicas/webapi-poc/internal/domain"
	"github.com/jhoicas/webapi-poc/pkg/config"
)

// MySQLDSN construye el DSN del driver go-sql-driver/mysql.
// ClientFoundRows hace que RowsAffected cuente filas encontradas y no solo modificadas.
func MySQLDSN(cfg config.DBConfig) (string, error) {
	mc := mysql.NewConfig()
	if cfg.DatabaseURL != "" {
		parsed, err := mysql.ParseDSN(cfg.DatabaseURL)
		if err != nil {
			return "", fmt.Errorf("parse DSN: %w: %w", domain.ErrConfiguration, err)
		}
		mc = parsed
	} else {
		mc.User = cfg.User
		mc.Passwd = cfg.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
		mc.DBName = cfg.DBName
	}
	mc.ClientFoundRows = true
	return mc.FormatDSN(), nil
}

func openMySQL(ctx context.Context, cfg config.DBConfig) (*DB, error) {
	dsn, err := MySQLDSN(cfg)
	if err != nil {
		return nil, err
	}
	sqlDB, err := sql.Open(MySQL.DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w: %w", domain.ErrConfiguration, err)
	}
	if cfg.MaxConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxConns)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(30 * time.Minute)
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping DB: %w: %w", domain.ErrConfiguration, wrap("ping", err))
	}
	return &DB{sql: sqlDB, dialect: MySQL}, nil
}
