package repository

import "context"

// Repository define el puerto de persistencia común a las entidades con ID entero.
// GetByID devuelve (nil, nil) cuando la fila no existe.
type Repository[T any] interface {
	Create(ctx context.Context, e *T) error
	GetByID(ctx context.Context, id int64) (*T, error)
	List(ctx context.Context, limit, offset int) ([]*T, error)
	Update(ctx context.Context, e *T) error
	Delete(ctx context.Context, id int64) error
}

// Repositories agrupa los repositorios atados a un mismo Querier (pool o tx).
type Repositories struct {
	Clients  ClientRepository
	Products ProductRepository
	Invoices InvoiceRepository
}
