package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/facturacion-sri/internal/domain/entity"
	"github.com/jhoicas/facturacion-sri/internal/domain/repository"
)

var _ repository.TenantRepository = (*TenantRepo)(nil)

// TenantRepo implementación de TenantRepository.
type TenantRepo struct {
	q Querier
}

// NewTenantRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTenantRepository(q Querier) *TenantRepo {
	return &TenantRepo{q: q}
}

// GetByID obtiene un emisor por ID.
func (r *TenantRepo) GetByID(ctx context.Context, id string) (*entity.Tenant, error) {
	const query = `
		SELECT id, ruc, razon_social, COALESCE(nombre_comercial, ''), direccion_matriz,
		       COALESCE(contribuyente_especial, ''), obligado_contabilidad, created_at, updated_at
		FROM tenants WHERE id = $1`
	var t entity.Tenant
	err := r.q.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.RUC, &t.RazonSocial, &t.NombreComercial, &t.DireccionMatriz,
		&t.ContribuyenteEspecial, &t.ObligadoContabilidad, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get tenant: %w", err)
	}
	return &t, nil
}

// GetSRIConfiguration obtiene ambiente y certificado del tenant.
// La contraseña del .p12 se guarda cifrada con pgcrypto y se descifra aquí.
func (r *TenantRepo) GetSRIConfiguration(ctx context.Context, tenantID string) (*entity.SRIConfiguration, error) {
	const query = `
		SELECT tenant_id, ambiente, COALESCE(cert_path, ''), COALESCE(cert_url, ''),
		       COALESCE(pgp_sym_decrypt(cert_password_enc, current_setting('app.cert_key')), ''),
		       updated_at
		FROM sri_configurations WHERE tenant_id = $1`
	var c entity.SRIConfiguration
	err := r.q.QueryRow(ctx, query, tenantID).Scan(
		&c.TenantID, &c.Ambiente, &c.CertPath, &c.CertURL, &c.CertPassword, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sri configuration: %w", err)
	}
	return &c, nil
}
