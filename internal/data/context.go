// Package data implementa el contexto de persistencia: una colección por entidad
// con seguimiento de cambios y un SaveChanges atómico sobre el almacén.
package data

import (
	"context"
	"fmt"
	"reflect"

	"github.com/google/uuid"
	"github.com/jhoicas/webapi-poc/internal/domain"
	"github.com/jhoicas/webapi-poc/internal/domain/entity"
	"github.com/jhoicas/webapi-poc/internal/domain/repository"
	"github.com/jhoicas/webapi-poc/pkg/logger"
)

// Store es la capacidad de pool inyectada en cada contexto (implementada por *sqlstore.DB).
type Store interface {
	// Repositories devuelve repos para lecturas fuera de transacción.
	Repositories() repository.Repositories
	// RunInTx ejecuta fn en una transacción: commit si fn devuelve nil, rollback si no.
	RunInTx(ctx context.Context, fn func(repos repository.Repositories) error) error
}

// Option configura un Context.
type Option func(*Context)

// WithLogger asigna el logger del contexto.
func WithLogger(l *logger.Logger) Option {
	return func(c *Context) {
		if l != nil {
			c.log = l
		}
	}
}

// Context es una unidad de trabajo. No es seguro para uso concurrente:
// cada request o script crea el suyo y lo cierra al terminar.
type Context struct {
	id       string
	store    Store
	log      *logger.Logger
	disposed bool

	clients  *Set[entity.Client]
	products *Set[entity.Product]
	invoices *Set[entity.Invoice]
}

// New construye un contexto abierto sobre store.
func New(store Store, opts ...Option) (*Context, error) {
	if isNilStore(store) {
		return nil, fmt.Errorf("store requerido: %w", domain.ErrConfiguration)
	}
	c := &Context{
		id:    uuid.New().String(),
		store: store,
		log:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.Child("uow", c.id)
	c.clients = newSet(c, clientMeta)
	c.products = newSet(c, productMeta)
	c.invoices = newSet(c, invoiceMeta)
	return c, nil
}

// ID identifica la unidad de trabajo en los logs.
func (c *Context) ID() string { return c.id }

// Clients colección de clientes.
func (c *Context) Clients() *Set[entity.Client] { return c.clients }

// Products colección de productos.
func (c *Context) Products() *Set[entity.Product] { return c.products }

// Invoices colección de facturas.
func (c *Context) Invoices() *Set[entity.Invoice] { return c.invoices }

// HasChanges indica si hay inserciones, modificaciones o eliminaciones pendientes.
func (c *Context) HasChanges() bool {
	for _, s := range c.trackers() {
		if s.pending() > 0 {
			return true
		}
	}
	return false
}

// SaveChanges escribe todos los cambios pendientes en una sola transacción y
// devuelve cuántas entidades se escribieron. Si algo falla no se aplica nada y
// las entidades en memoria quedan exactamente como antes de la llamada.
func (c *Context) SaveChanges(ctx context.Context) (int, error) {
	if err := c.checkOpen(); err != nil {
		return 0, err
	}
	if !c.HasChanges() {
		return 0, nil
	}

	var undo undoLog
	written := 0
	err := c.store.RunInTx(ctx, func(repos repository.Repositories) error {
		written = 0
		// Facturas eliminadas, luego inserciones y modificaciones (referencias antes que
		// dependientes) y al final las eliminaciones de clientes y productos, cuando ya
		// ninguna factura modificada los referencia.
		n, err := c.invoices.purge(ctx, repos)
		written += n
		if err != nil {
			return err
		}
		for _, s := range []tracker{c.clients, c.products, c.invoices} {
			n, err := s.upsert(ctx, repos, &undo)
			written += n
			if err != nil {
				return err
			}
		}
		for _, s := range []tracker{c.clients, c.products} {
			n, err := s.purge(ctx, repos)
			written += n
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		undo.rollback()
		c.log.Warn().Err(err).Msg("save changes revertido")
		return 0, err
	}

	for _, s := range c.trackers() {
		s.accept()
	}
	c.log.Debug().Int("written", written).Msg("save changes")
	return written, nil
}

// Close libera el contexto; después de Close toda operación devuelve domain.ErrDisposed.
// Los cambios pendientes se descartan. No cierra el Store. Es idempotente.
func (c *Context) Close() error {
	if c.disposed {
		return nil
	}
	c.disposed = true
	for _, s := range c.trackers() {
		s.reset()
	}
	return nil
}

// isNilStore detecta también un puntero nil envuelto en la interfaz.
func isNilStore(store Store) bool {
	if store == nil {
		return true
	}
	v := reflect.ValueOf(store)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

func (c *Context) checkOpen() error {
	if c.disposed {
		return domain.ErrDisposed
	}
	return nil
}

func (c *Context) trackers() []tracker {
	return []tracker{c.clients, c.products, c.invoices}
}

// undoLog guarda cómo restaurar las entidades tocadas durante un SaveChanges fallido.
type undoLog struct {
	steps []func()
}

func (u *undoLog) push(fn func()) { u.steps = append(u.steps, fn) }

func (u *undoLog) rollback() {
	for i := len(u.steps) - 1; i >= 0; i-- {
		u.steps[i]()
	}
	u.steps = nil
}
