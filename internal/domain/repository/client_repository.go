package repository

import "github.com/jhoicas/webapi-poc/internal/domain/entity"

// ClientRepository define el puerto de persistencia para Client.
type ClientRepository interface {
	Repository[entity.Client]
}
