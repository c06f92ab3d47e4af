package sqlstore_test

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/jhoicas/webapi-poc/internal/domain"
	"github.com/jhoicas/webapi-poc/internal/domain/entity"
	"github.com/jhoicas/webapi-poc/internal/domain/repository"
	"github.com/jhoicas/webapi-poc/internal/infrastructure/sqlstore"
	"github.com/jhoicas/webapi-poc/internal/infrastructure/sqlstore/migrations"
	"github.com/jhoicas/webapi-poc/pkg/config"
	"github.com/jhoicas/webapi-poc/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sqliteConfig(t *testing.T) config.DBConfig {
	t.Helper()
	return config.DBConfig{
		Driver:      config.DriverSQLite,
		SQLitePath:  filepath.Join(t.TempDir(), "store.db"),
		MaxConns:    4,
		AutoMigrate: true,
	}
}

func openStore(t *testing.T, cfg config.DBConfig) *sqlstore.DB {
	t.Helper()
	db, err := sqlstore.Open(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// openSQLite abre un almacén sqlite en un archivo temporal con el esquema aplicado.
func openSQLite(t *testing.T) *sqlstore.DB {
	t.Helper()
	return openStore(t, sqliteConfig(t))
}

// ── Open / configuración ─────────────────────────────────────────────────────

func TestOpen_DriverDesconocido(t *testing.T) {
	_, err := sqlstore.Open(context.Background(), config.DBConfig{Driver: "oracle"}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestOpen_SQLiteSinRuta(t *testing.T) {
	_, err := sqlstore.Open(context.Background(), config.DBConfig{Driver: config.DriverSQLite}, nil)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestOpen_PostgresSinHost(t *testing.T) {
	_, err := sqlstore.Open(context.Background(), config.DBConfig{Driver: config.DriverPostgres}, nil)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestOpen_MaxConnsNegativo(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.MaxConns = -1
	_, err := sqlstore.Open(context.Background(), cfg, nil)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestOpen_MaxConnsFueraDeRango(t *testing.T) {
	if strconv.IntSize < 64 {
		t.Skip("int de 32 bits no puede superar MaxInt32")
	}
	limit := int64(math.MaxInt32)
	cfg := sqliteConfig(t)
	cfg.MaxConns = int(limit + 1)
	_, err := sqlstore.Open(context.Background(), cfg, nil)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestRunInTx_StoreNil(t *testing.T) {
	var db *sqlstore.DB
	err := db.RunInTx(context.Background(), func(repository.Repositories) error { return nil })
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestOpen_SQLiteDirectorioInexistente(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.SQLitePath = filepath.Join(t.TempDir(), "no", "existe", "store.db")
	_, err := sqlstore.Open(context.Background(), cfg, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestOpen_Dialecto(t *testing.T) {
	db := openSQLite(t)
	assert.Equal(t, sqlstore.SQLite, db.Dialect())
	assert.NotNil(t, db.SQL())
}

// ── Migraciones ──────────────────────────────────────────────────────────────

func TestApplyMigrations_Idempotente(t *testing.T) {
	db := openSQLite(t)

	applied, err := sqlstore.ApplyMigrations(context.Background(), db.SQL(), db.Dialect(), migrations.FS, "sqlite")
	require.NoError(t, err)
	assert.Zero(t, applied, "Open ya aplicó el esquema")

	var n int
	require.NoError(t, db.SQL().QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestOpen_SinAutoMigrate(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.AutoMigrate = false
	db := openStore(t, cfg)

	_, err := db.Repositories().Clients.GetByID(context.Background(), 1)
	assert.Error(t, err, "sin migraciones no existe la tabla clients")
}

// ── Clientes ─────────────────────────────────────────────────────────────────

func TestClientRepo_CRUD(t *testing.T) {
	ctx := context.Background()
	repos := openSQLite(t).Repositories()

	c := &entity.Client{Name: "Ana", Email: "ana@x.com", Phone: "555-0100", Type: "retail"}
	require.NoError(t, repos.Clients.Create(ctx, c))
	require.NotZero(t, c.ID)

	got, err := repos.Clients.GetByID(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, *c, *got)

	c.Phone = "555-0199"
	require.NoError(t, repos.Clients.Update(ctx, c))
	got, err = repos.Clients.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "555-0199", got.Phone)

	require.NoError(t, repos.Clients.Delete(ctx, c.ID))
	got, err = repos.Clients.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Nil(t, got, "GetByID devuelve nil, nil cuando no existe")
}

func TestClientRepo_IDsNoSeReutilizan(t *testing.T) {
	ctx := context.Background()
	repos := openSQLite(t).Repositories()

	first := &entity.Client{Name: "uno"}
	require.NoError(t, repos.Clients.Create(ctx, first))
	require.NoError(t, repos.Clients.Delete(ctx, first.ID))

	second := &entity.Client{Name: "dos"}
	require.NoError(t, repos.Clients.Create(ctx, second))
	assert.Greater(t, second.ID, first.ID)
}

func TestClientRepo_UpdateInexistente(t *testing.T) {
	repos := openSQLite(t).Repositories()
	err := repos.Clients.Update(context.Background(), &entity.Client{ID: 404, Name: "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = repos.Clients.Delete(context.Background(), 404)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestClientRepo_ListPaginado(t *testing.T) {
	ctx := context.Background()
	repos := openSQLite(t).Repositories()
	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, repos.Clients.Create(ctx, &entity.Client{Name: name}))
	}

	page, err := repos.Clients.List(ctx, 2, 1)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "b", page[0].Name)
	assert.Equal(t, "c", page[1].Name)

	all, err := repos.Clients.List(ctx, 0, -5)
	require.NoError(t, err)
	assert.Len(t, all, 3, "limit <= 0 usa el tamaño por defecto")
}

// ── Productos ────────────────────────────────────────────────────────────────

func TestProductRepo_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repos := openSQLite(t).Repositories()

	p := &entity.Product{Name: "Teclado", Price: 0.1 + 0.2, Category: "periféricos", StockQuantity: 12}
	require.NoError(t, repos.Products.Create(ctx, p))

	got, err := repos.Products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, *p, *got, "el float64 se conserva exacto")
}

func TestProductRepo_StockNegativo_Conflict(t *testing.T) {
	repos := openSQLite(t).Repositories()
	err := repos.Products.Create(context.Background(), &entity.Product{Name: "x", StockQuantity: -1})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestProductRepo_PrecioNegativo_Conflict(t *testing.T) {
	repos := openSQLite(t).Repositories()
	err := repos.Products.Create(context.Background(), &entity.Product{Name: "x", Price: -0.01})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

// ── Facturas ─────────────────────────────────────────────────────────────────

func seedRefs(t *testing.T, repos repository.Repositories) (*entity.Client, *entity.Product, *entity.Product) {
	t.Helper()
	ctx := context.Background()
	c := &entity.Client{Name: "Ana"}
	p1 := &entity.Product{Name: "Teclado", Price: 49.9, StockQuantity: 10}
	p2 := &entity.Product{Name: "Mouse", Price: 19.9, StockQuantity: 10}
	require.NoError(t, repos.Clients.Create(ctx, c))
	require.NoError(t, repos.Products.Create(ctx, p1))
	require.NoError(t, repos.Products.Create(ctx, p2))
	return c, p1, p2
}

func TestInvoiceRepo_CabeceraYLineas(t *testing.T) {
	ctx := context.Background()
	repos := openSQLite(t).Repositories()
	c, p1, p2 := seedRefs(t, repos)

	inv := &entity.Invoice{
		ClientID: c.ID,
		Lines: []entity.InvoiceLine{
			{ProductID: p1.ID, Quantity: 2, UnitPrice: decimal.RequireFromString("49.90")},
			{ProductID: p2.ID, Quantity: 1, UnitPrice: decimal.RequireFromString("19.99")},
		},
	}
	require.NoError(t, repos.Invoices.Create(ctx, inv))
	require.NotZero(t, inv.ID)
	for _, l := range inv.Lines {
		assert.NotZero(t, l.ID)
		assert.Equal(t, inv.ID, l.InvoiceID)
	}

	got, err := repos.Invoices.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, c.ID, got.ClientID)
	require.Len(t, got.Lines, 2)
	assert.Equal(t, p1.ID, got.Lines[0].ProductID)
	assert.Equal(t, 2, got.Lines[0].Quantity)
	assert.True(t, got.Lines[0].UnitPrice.Equal(decimal.RequireFromString("49.9")))
	assert.True(t, got.Lines[1].UnitPrice.Equal(decimal.RequireFromString("19.99")))
}

func TestInvoiceRepo_UpdateReemplazaLineas(t *testing.T) {
	ctx := context.Background()
	repos := openSQLite(t).Repositories()
	c, p1, p2 := seedRefs(t, repos)

	inv := &entity.Invoice{ClientID: c.ID, Lines: []entity.InvoiceLine{{ProductID: p1.ID, Quantity: 1, UnitPrice: decimal.NewFromInt(5)}}}
	require.NoError(t, repos.Invoices.Create(ctx, inv))

	inv.Lines = []entity.InvoiceLine{
		{ProductID: p2.ID, Quantity: 3, UnitPrice: decimal.NewFromInt(7)},
		{ProductID: p1.ID, Quantity: 4, UnitPrice: decimal.NewFromInt(5)},
	}
	require.NoError(t, repos.Invoices.Update(ctx, inv))

	got, err := repos.Invoices.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, got.Lines, 2)
	assert.Equal(t, p2.ID, got.Lines[0].ProductID)
	assert.Equal(t, 3, got.Lines[0].Quantity)

	list, err := repos.Invoices.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Len(t, list[0].Lines, 2)
}

func TestInvoiceRepo_Delete(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)
	repos := db.Repositories()
	c, p1, _ := seedRefs(t, repos)

	inv := &entity.Invoice{ClientID: c.ID, Lines: []entity.InvoiceLine{{ProductID: p1.ID, Quantity: 1, UnitPrice: decimal.NewFromInt(5)}}}
	require.NoError(t, repos.Invoices.Create(ctx, inv))
	require.NoError(t, repos.Invoices.Delete(ctx, inv.ID))

	got, err := repos.Invoices.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	var lines int
	require.NoError(t, db.SQL().QueryRow(`SELECT COUNT(*) FROM invoice_lines`).Scan(&lines))
	assert.Zero(t, lines)
}

func TestInvoiceRepo_ClienteInexistente_Conflict(t *testing.T) {
	repos := openSQLite(t).Repositories()
	err := repos.Invoices.Create(context.Background(), &entity.Invoice{ClientID: 999})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConflict, "violación de FK")
}

func TestInvoiceRepo_PrecioNegativo_Conflict(t *testing.T) {
	ctx := context.Background()
	repos := openSQLite(t).Repositories()
	c, p1, _ := seedRefs(t, repos)

	inv := &entity.Invoice{
		ClientID: c.ID,
		Lines:    []entity.InvoiceLine{{ProductID: p1.ID, Quantity: 1, UnitPrice: decimal.RequireFromString("-0.01")}},
	}
	assert.ErrorIs(t, repos.Invoices.Create(ctx, inv), domain.ErrConflict)

	inv.Lines[0].UnitPrice = decimal.Zero
	assert.NoError(t, repos.Invoices.Create(ctx, inv), "precio cero es válido")
}

func TestInvoiceRepo_ClienteReferenciado_NoSeElimina(t *testing.T) {
	ctx := context.Background()
	repos := openSQLite(t).Repositories()
	c, p1, _ := seedRefs(t, repos)
	require.NoError(t, repos.Invoices.Create(ctx, &entity.Invoice{
		ClientID: c.ID,
		Lines:    []entity.InvoiceLine{{ProductID: p1.ID, Quantity: 1, UnitPrice: decimal.NewFromInt(1)}},
	}))

	assert.ErrorIs(t, repos.Clients.Delete(ctx, c.ID), domain.ErrConflict)
	assert.ErrorIs(t, repos.Products.Delete(ctx, p1.ID), domain.ErrConflict)
}

// ── Transacciones ────────────────────────────────────────────────────────────

func TestRunInTx_RollbackAnteError(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)
	boom := errors.New("boom")

	var created int64
	err := db.RunInTx(ctx, func(repos repository.Repositories) error {
		c := &entity.Client{Name: "efímero"}
		if err := repos.Clients.Create(ctx, c); err != nil {
			return err
		}
		created = c.ID
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.NotZero(t, created)

	got, err := db.Repositories().Clients.GetByID(ctx, created)
	require.NoError(t, err)
	assert.Nil(t, got, "la inserción debe revertirse")
}

func TestRunInTx_Commit(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)

	c := &entity.Client{Name: "persistente"}
	require.NoError(t, db.RunInTx(ctx, func(repos repository.Repositories) error {
		return repos.Clients.Create(ctx, c)
	}))

	got, err := db.Repositories().Clients.GetByID(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "persistente", got.Name)
}

func TestRunInTx_ContextoCancelado(t *testing.T) {
	db := openSQLite(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := db.RunInTx(ctx, func(repository.Repositories) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

// ── Motores externos (solo con variables de entorno) ─────────────────────────

func externalConfig(t *testing.T, driver, env string) config.DBConfig {
	t.Helper()
	url := os.Getenv(env)
	if url == "" {
		t.Skipf("%s no definido", env)
	}
	return config.DBConfig{Driver: driver, DatabaseURL: url, MaxConns: 4, AutoMigrate: true}
}

func exerciseExternal(t *testing.T, db *sqlstore.DB) {
	t.Helper()
	ctx := context.Background()
	repos := db.Repositories()
	c, p1, _ := seedRefs(t, repos)

	inv := &entity.Invoice{ClientID: c.ID, Lines: []entity.InvoiceLine{{ProductID: p1.ID, Quantity: 2, UnitPrice: decimal.RequireFromString("12.34")}}}
	require.NoError(t, repos.Invoices.Create(ctx, inv))
	got, err := repos.Invoices.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
	assert.True(t, got.Lines[0].UnitPrice.Equal(decimal.RequireFromString("12.34")))

	err = repos.Products.Create(ctx, &entity.Product{Name: "neg", StockQuantity: -1})
	assert.ErrorIs(t, err, domain.ErrConflict)

	require.NoError(t, repos.Invoices.Delete(ctx, inv.ID))
}

func TestPostgres_Integracion(t *testing.T) {
	exerciseExternal(t, openStore(t, externalConfig(t, config.DriverPostgres, "TEST_POSTGRES_URL")))
}

func TestMySQL_Integracion(t *testing.T) {
	exerciseExternal(t, openStore(t, externalConfig(t, config.DriverMySQL, "TEST_MYSQL_DSN")))
}
