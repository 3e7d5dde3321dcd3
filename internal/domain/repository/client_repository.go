package repository

import (
	"context"

	"github.com/jhoicas/facturacion-sri/internal/domain/entity"
)

// ClientRepository define el puerto de persistencia para compradores.
type ClientRepository interface {
	GetByID(ctx context.Context, tenantID, id string) (*entity.Client, error)
	Create(ctx context.Context, c *entity.Client) error
}
