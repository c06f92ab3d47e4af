// seed carga datos de ejemplo (clientes, productos y una factura) en una sola unidad de trabajo.
//
// Uso: DB_DRIVER=sqlite DB_SQLITE_PATH=./webapi_poc.db go run ./cmd/seed
package main

import (
	"context"
	"os"
	"time"

	"github.com/jhoicas/webapi-poc/internal/data"
	"github.com/jhoicas/webapi-poc/internal/domain/entity"
	"github.com/jhoicas/webapi-poc/internal/infrastructure/sqlstore"
	"github.com/jhoicas/webapi-poc/pkg/config"
	"github.com/jhoicas/webapi-poc/pkg/logger"
	"github.com/shopspring/decimal"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.Log.Level,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("driver", cfg.DB.Driver).
		Msg("iniciando seed")

	if err := run(cfg, log); err != nil {
		log.Error().Err(err).Msg("seed")
		os.Exit(1)
	}
	log.Info().Msg("seed completado")
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := sqlstore.Open(ctx, cfg.DB, log)
	if err != nil {
		return err
	}
	defer db.Close()

	return seed(ctx, db, log)
}

func seed(ctx context.Context, db *sqlstore.DB, log *logger.Logger) error {
	uow, err := data.New(db, data.WithLogger(log))
	if err != nil {
		return err
	}
	defer uow.Close()

	ana := &entity.Client{Name: "Ana", Email: "ana@x.com", Phone: "555-0100", Type: "retail"}
	teclado := &entity.Product{Name: "Teclado", Price: 49.9, Category: "periféricos", StockQuantity: 120}
	monitor := &entity.Product{Name: "Monitor 27\"", Price: 289.0, Category: "pantallas", StockQuantity: 15}
	factura := &entity.Invoice{
		Client: ana,
		Lines: []entity.InvoiceLine{
			{Product: teclado, Quantity: 2, UnitPrice: decimal.RequireFromString("49.90")},
			{Product: monitor, Quantity: 1, UnitPrice: decimal.RequireFromString("289.00")},
		},
	}

	if err := uow.Clients().Add(ana); err != nil {
		return err
	}
	for _, p := range []*entity.Product{teclado, monitor} {
		if err := uow.Products().Add(p); err != nil {
			return err
		}
	}
	if err := uow.Invoices().Add(factura); err != nil {
		return err
	}

	written, err := uow.SaveChanges(ctx)
	if err != nil {
		return err
	}
	log.Info().
		Int("written", written).
		Int64("client_id", ana.ID).
		Int64("invoice_id", factura.ID).
		Msg("datos guardados")
	return nil
}
