package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jhoicas/webapi-poc/internal/domain/entity"
	"github.com/jhoicas/webapi-poc/internal/domain/repository"
)

var _ repository.ClientRepository = (*ClientRepo)(nil)

// ClientRepo implementación de ClientRepository (usable con pool o tx).
type ClientRepo struct {
	q Querier
	d Dialect
}

// NewClientRepository construye el adaptador. Pasar pool o tx (Querier).
func NewClientRepository(q Querier, d Dialect) *ClientRepo {
	return &ClientRepo{q: q, d: d}
}

// Create persiste un nuevo cliente y asigna el ID generado.
func (r *ClientRepo) Create(ctx context.Context, c *entity.Client) error {
	id, err := r.d.insertID(ctx, r.q,
		`INSERT INTO clients (name, email, phone, type) VALUES (?, ?, ?, ?)`,
		c.Name, c.Email, c.Phone, c.Type,
	)
	if err != nil {
		return wrap("insert client", err)
	}
	c.ID = id
	return nil
}

// GetByID obtiene un cliente por ID.
func (r *ClientRepo) GetByID(ctx context.Context, id int64) (*entity.Client, error) {
	var c entity.Client
	err := r.q.QueryRowContext(ctx,
		r.d.Rebind(`SELECT id, name, email, phone, type FROM clients WHERE id = ?`), id,
	).Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Type)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, wrap("get client", err)
	}
	return &c, nil
}

// List lista clientes por ID con paginación.
func (r *ClientRepo) List(ctx context.Context, limit, offset int) ([]*entity.Client, error) {
	limit, offset = normalizePage(limit, offset)
	rows, err := r.q.QueryContext(ctx,
		r.d.Rebind(`SELECT id, name, email, phone, type FROM clients ORDER BY id LIMIT ? OFFSET ?`),
		limit, offset,
	)
	if err != nil {
		return nil, wrap("list clients", err)
	}
	defer rows.Close()
	var list []*entity.Client
	for rows.Next() {
		var c entity.Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Type); err != nil {
			return nil, wrap("scan client", err)
		}
		list = append(list, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list clients", err)
	}
	return list, nil
}

// Update actualiza un cliente existente.
func (r *ClientRepo) Update(ctx context.Context, c *entity.Client) error {
	res, err := r.q.ExecContext(ctx,
		r.d.Rebind(`UPDATE clients SET name = ?, email = ?, phone = ?, type = ? WHERE id = ?`),
		c.Name, c.Email, c.Phone, c.Type, c.ID,
	)
	if err != nil {
		return wrap("update client", err)
	}
	return expectRow(res, "update client", c.ID)
}

// Delete elimina un cliente por ID.
func (r *ClientRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, r.d.Rebind(`DELETE FROM clients WHERE id = ?`), id)
	if err != nil {
		return wrap("delete client", err)
	}
	return expectRow(res, "delete client", id)
}
