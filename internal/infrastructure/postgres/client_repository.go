package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/facturacion-sri/internal/domain/entity"
	"github.com/jhoicas/facturacion-sri/internal/domain/repository"
)

var _ repository.ClientRepository = (*ClientRepo)(nil)

// ClientRepo implementación de ClientRepository.
type ClientRepo struct {
	q Querier
}

// NewClientRepository construye el adaptador. Pasar pool o tx (Querier).
func NewClientRepository(q Querier) *ClientRepo {
	return &ClientRepo{q: q}
}

// GetByID obtiene un comprador acotado al tenant.
func (r *ClientRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.Client, error) {
	const query = `
		SELECT id, tenant_id, tipo_identificacion, identificacion, razon_social,
		       COALESCE(direccion, ''), COALESCE(email, ''), COALESCE(telefono, ''),
		       created_at, updated_at
		FROM clients WHERE id = $1 AND tenant_id = $2`
	var c entity.Client
	err := r.q.QueryRow(ctx, query, id, tenantID).Scan(
		&c.ID, &c.TenantID, &c.TipoIdentificacion, &c.Identificacion, &c.RazonSocial,
		&c.Direccion, &c.Email, &c.Telefono, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get client: %w", err)
	}
	return &c, nil
}

// Create persiste un comprador.
func (r *ClientRepo) Create(ctx context.Context, c *entity.Client) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	const query = `
		INSERT INTO clients (id, tenant_id, tipo_identificacion, identificacion, razon_social,
		       direccion, email, telefono, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		c.ID, c.TenantID, c.TipoIdentificacion, c.Identificacion, c.RazonSocial,
		nullIfEmpty(c.Direccion), nullIfEmpty(c.Email), nullIfEmpty(c.Telefono),
		c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("cliente con esa identificación ya existe: %w", err)
		}
		return fmt.Errorf("insert client: %w", err)
	}
	return nil
}
