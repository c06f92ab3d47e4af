package data

import (
	"github.com/jhoicas/webapi-poc/internal/domain/entity"
	"github.com/jhoicas/webapi-poc/internal/domain/repository"
)

var clientMeta = meta[entity.Client]{
	name:    "client",
	repo:    func(r repository.Repositories) repository.Repository[entity.Client] { return r.Clients },
	id:      func(c *entity.Client) int64 { return c.ID },
	clone:   func(c *entity.Client) entity.Client { return *c },
	changed: func(cur, snap *entity.Client) bool { return *cur != *snap },
}

var productMeta = meta[entity.Product]{
	name:    "product",
	repo:    func(r repository.Repositories) repository.Repository[entity.Product] { return r.Products },
	id:      func(p *entity.Product) int64 { return p.ID },
	clone:   func(p *entity.Product) entity.Product { return *p },
	changed: func(cur, snap *entity.Product) bool { return *cur != *snap },
}

var invoiceMeta = meta[entity.Invoice]{
	name:    "invoice",
	repo:    func(r repository.Repositories) repository.Repository[entity.Invoice] { return r.Invoices },
	id:      func(inv *entity.Invoice) int64 { return inv.ID },
	clone:   cloneInvoice,
	changed: invoiceChanged,
	prepare: resolveInvoiceRefs,
	undo:    invoiceUndo,
}

// cloneInvoice copia la cabecera y las líneas; las navegaciones se comparten.
func cloneInvoice(inv *entity.Invoice) entity.Invoice {
	out := *inv
	if inv.Lines != nil {
		out.Lines = make([]entity.InvoiceLine, len(inv.Lines))
		copy(out.Lines, inv.Lines)
	}
	return out
}

// invoiceUndo restaura la cabecera y copia las líneas previas sobre el mismo arreglo,
// para que quien conserve el slice original tampoco vea IDs de una tx revertida.
func invoiceUndo(inv *entity.Invoice) func() {
	prev := cloneInvoice(inv)
	lines := inv.Lines
	return func() {
		*inv = prev
		copy(lines, prev.Lines)
		inv.Lines = lines
	}
}

// invoiceChanged compara lo persistido: cliente y, por línea, producto, cantidad y precio.
func invoiceChanged(cur, snap *entity.Invoice) bool {
	if cur.ID != snap.ID || cur.ClientID != snap.ClientID || len(cur.Lines) != len(snap.Lines) {
		return true
	}
	for i := range cur.Lines {
		a, b := cur.Lines[i], snap.Lines[i]
		if a.ProductID != b.ProductID || a.Quantity != b.Quantity || !a.UnitPrice.Equal(b.UnitPrice) {
			return true
		}
	}
	return false
}

// resolveInvoiceRefs completa ClientID y ProductID vacíos desde las navegaciones,
// para referenciar entidades agregadas en la misma unidad de trabajo.
func resolveInvoiceRefs(inv *entity.Invoice) {
	if inv.ClientID == 0 && inv.Client != nil {
		inv.ClientID = inv.Client.ID
	}
	for i := range inv.Lines {
		line := &inv.Lines[i]
		if line.ProductID == 0 && line.Product != nil {
			line.ProductID = line.Product.ID
		}
	}
}
