package entity

import "github.com/shopspring/decimal"

// InvoiceLine representa una línea de detalle de una factura.
// Product es navegación en memoria, igual que Invoice.Client.
type InvoiceLine struct {
	ID        int64
	InvoiceID int64
	ProductID int64
	Product   *Product
	Quantity  int
	UnitPrice decimal.Decimal
}
