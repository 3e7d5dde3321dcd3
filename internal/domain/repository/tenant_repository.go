package repository

import (
	"context"

	"github.com/jhoicas/facturacion-sri/internal/domain/entity"
)

// TenantRepository define el puerto de persistencia para emisores y su
// configuración SRI.
type TenantRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Tenant, error)
	// GetSRIConfiguration devuelve ambiente y datos del certificado del tenant.
	GetSRIConfiguration(ctx context.Context, tenantID string) (*entity.SRIConfiguration, error)
}
