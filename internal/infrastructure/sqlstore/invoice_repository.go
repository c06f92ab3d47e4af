package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jhoicas/webapi-poc/internal/domain/entity"
	"github.com/jhoicas/webapi-poc/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx).
// Usar dentro de una tx: cabecera y líneas se escriben con varias sentencias.
type InvoiceRepo struct {
	q Querier
	d Dialect
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier, d Dialect) *InvoiceRepo {
	return &InvoiceRepo{q: q, d: d}
}

// Create persiste la cabecera y sus líneas; asigna IDs a ambas.
func (r *InvoiceRepo) Create(ctx context.Context, inv *entity.Invoice) error {
	id, err := r.d.insertID(ctx, r.q, `INSERT INTO invoices (client_id) VALUES (?)`, inv.ClientID)
	if err != nil {
		return wrap("insert invoice", err)
	}
	inv.ID = id
	return r.createLines(ctx, inv)
}

func (r *InvoiceRepo) createLines(ctx context.Context, inv *entity.Invoice) error {
	for i := range inv.Lines {
		line := &inv.Lines[i]
		line.InvoiceID = inv.ID
		id, err := r.d.insertID(ctx, r.q,
			`INSERT INTO invoice_lines (invoice_id, product_id, quantity, unit_price) VALUES (?, ?, ?, ?)`,
			line.InvoiceID, line.ProductID, line.Quantity, line.UnitPrice,
		)
		if err != nil {
			return wrap("insert invoice line", err)
		}
		line.ID = id
	}
	return nil
}

// GetByID obtiene una factura con sus líneas.
func (r *InvoiceRepo) GetByID(ctx context.Context, id int64) (*entity.Invoice, error) {
	var inv entity.Invoice
	err := r.q.QueryRowContext(ctx,
		r.d.Rebind(`SELECT id, client_id FROM invoices WHERE id = ?`), id,
	).Scan(&inv.ID, &inv.ClientID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, wrap("get invoice", err)
	}
	if inv.Lines, err = r.linesOf(ctx, inv.ID); err != nil {
		return nil, err
	}
	return &inv, nil
}

// List lista facturas por ID con paginación, cada una con sus líneas.
func (r *InvoiceRepo) List(ctx context.Context, limit, offset int) ([]*entity.Invoice, error) {
	limit, offset = normalizePage(limit, offset)
	rows, err := r.q.QueryContext(ctx,
		r.d.Rebind(`SELECT id, client_id FROM invoices ORDER BY id LIMIT ? OFFSET ?`), limit, offset,
	)
	if err != nil {
		return nil, wrap("list invoices", err)
	}
	var list []*entity.Invoice
	for rows.Next() {
		var inv entity.Invoice
		if err := rows.Scan(&inv.ID, &inv.ClientID); err != nil {
			rows.Close()
			return nil, wrap("scan invoice", err)
		}
		list = append(list, &inv)
	}
	// Cerrar antes de cargar líneas: una tx no admite dos result sets abiertos.
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, wrap("list invoices", err)
	}
	for _, inv := range list {
		if inv.Lines, err = r.linesOf(ctx, inv.ID); err != nil {
			return nil, err
		}
	}
	return list, nil
}

func (r *InvoiceRepo) linesOf(ctx context.Context, invoiceID int64) ([]entity.InvoiceLine, error) {
	rows, err := r.q.QueryContext(ctx,
		r.d.Rebind(`SELECT id, invoice_id, product_id, quantity, unit_price
		FROM invoice_lines WHERE invoice_id = ? ORDER BY id`), invoiceID,
	)
	if err != nil {
		return nil, wrap("list invoice lines", err)
	}
	defer rows.Close()
	var lines []entity.InvoiceLine
	for rows.Next() {
		var l entity.InvoiceLine
		if err := rows.Scan(&l.ID, &l.InvoiceID, &l.ProductID, &l.Quantity, &l.UnitPrice); err != nil {
			return nil, wrap("scan invoice line", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list invoice lines", err)
	}
	return lines, nil
}

// Update actualiza la cabecera y reemplaza todas las líneas.
func (r *InvoiceRepo) Update(ctx context.Context, inv *entity.Invoice) error {
	res, err := r.q.ExecContext(ctx, r.d.Rebind(`UPDATE invoices SET client_id = ? WHERE id = ?`), inv.ClientID, inv.ID)
	if err != nil {
		return wrap("update invoice", err)
	}
	if err := expectRow(res, "update invoice", inv.ID); err != nil {
		return err
	}
	if _, err := r.q.ExecContext(ctx, r.d.Rebind(`DELETE FROM invoice_lines WHERE invoice_id = ?`), inv.ID); err != nil {
		return wrap("delete invoice lines", err)
	}
	return r.createLines(ctx, inv)
}

// Delete elimina la factura y sus líneas.
func (r *InvoiceRepo) Delete(ctx context.Context, id int64) error {
	if _, err := r.q.ExecContext(ctx, r.d.Rebind(`DELETE FROM invoice_lines WHERE invoice_id = ?`), id); err != nil {
		return wrap("delete invoice lines", err)
	}
	res, err := r.q.ExecContext(ctx, r.d.Rebind(`DELETE FROM invoices WHERE id = ?`), id)
	if err != nil {
		return wrap("delete invoice", err)
	}
	return expectRow(res, "delete invoice", id)
}
