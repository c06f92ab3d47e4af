package repository

import "github.com/jhoicas/webapi-poc/internal/domain/entity"

// ProductRepository define el puerto de persistencia para Product (DIP).
type ProductRepository interface {
	Repository[entity.Product]
}
