package repository

import "github.com/jhoicas/webapi-poc/internal/domain/entity"

// InvoiceRepository define el puerto de persistencia para Invoice y sus líneas.
// Create y Update escriben también las líneas; GetByID y List las cargan.
type InvoiceRepository interface {
	Repository[entity.Invoice]
}
