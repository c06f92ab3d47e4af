package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jhoicas/webapi-poc/internal/domain/entity"
	"github.com/jhoicas/webapi-poc/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación del puerto ProductRepository (usable con pool o tx).
type ProductRepo struct {
	q Querier
	d Dialect
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier, d Dialect) *ProductRepo {
	return &ProductRepo{q: q, d: d}
}

// Create persiste un nuevo producto. Precio o stock negativos violan el CHECK del esquema.
func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	id, err := r.d.insertID(ctx, r.q,
		`INSERT INTO products (name, price, category, stock_quantity) VALUES (?, ?, ?, ?)`,
		p.Name, p.Price, p.Category, p.StockQuantity,
	)
	if err != nil {
		return wrap("insert product", err)
	}
	p.ID = id
	return nil
}

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(ctx context.Context, id int64) (*entity.Product, error) {
	var p entity.Product
	err := r.q.QueryRowContext(ctx,
		r.d.Rebind(`SELECT id, name, price, category, stock_quantity FROM products WHERE id = ?`), id,
	).Scan(&p.ID, &p.Name, &p.Price, &p.Category, &p.StockQuantity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, wrap("get product", err)
	}
	return &p, nil
}

// List lista productos por ID con paginación.
func (r *ProductRepo) List(ctx context.Context, limit, offset int) ([]*entity.Product, error) {
	limit, offset = normalizePage(limit, offset)
	rows, err := r.q.QueryContext(ctx,
		r.d.Rebind(`SELECT id, name, price, category, stock_quantity FROM products ORDER BY id LIMIT ? OFFSET ?`),
		limit, offset,
	)
	if err != nil {
		return nil, wrap("list products", err)
	}
	defer rows.Close()
	var list []*entity.Product
	for rows.Next() {
		var p entity.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Category, &p.StockQuantity); err != nil {
			return nil, wrap("scan product", err)
		}
		list = append(list, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list products", err)
	}
	return list, nil
}

// Update actualiza un producto existente.
func (r *ProductRepo) Update(ctx context.Context, p *entity.Product) error {
	res, err := r.q.ExecContext(ctx,
		r.d.Rebind(`UPDATE products SET name = ?, price = ?, category = ?, stock_quantity = ? WHERE id = ?`),
		p.Name, p.Price, p.Category, p.StockQuantity, p.ID,
	)
	if err != nil {
		return wrap("update product", err)
	}
	return expectRow(res, "update product", p.ID)
}

// Delete elimina un producto por ID.
func (r *ProductRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, r.d.Rebind(`DELETE FROM products WHERE id = ?`), id)
	if err != nil {
		return wrap("delete product", err)
	}
	return expectRow(res, "delete product", id)
}
