package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/facturacion-sri/internal/domain"
	"github.com/jhoicas/facturacion-sri/internal/domain/entity"
	"github.com/jhoicas/facturacion-sri/internal/domain/repository"
)

var _ repository.EmissionPointRepository = (*EmissionPointRepo)(nil)

// EmissionPointRepo implementación de EmissionPointRepository.
type EmissionPointRepo struct {
	q Querier
}

// NewEmissionPointRepository construye el adaptador. Pasar pool o tx (Querier).
func NewEmissionPointRepository(q Querier) *EmissionPointRepo {
	return &EmissionPointRepo{q: q}
}

const emissionPointColumns = `
	id, establishment_id, tenant_id, codigo, current_invoice_sequence, is_active, created_at, updated_at`

// GetByID obtiene un punto de emisión acotado al tenant.
func (r *EmissionPointRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.EmissionPoint, error) {
	query := `SELECT ` + emissionPointColumns + ` FROM emission_points WHERE id = $1 AND tenant_id = $2`
	var p entity.EmissionPoint
	err := r.q.QueryRow(ctx, query, id, tenantID).Scan(
		&p.ID, &p.EstablishmentID, &p.TenantID, &p.Codigo,
		&p.CurrentInvoiceSequence, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get emission point: %w", err)
	}
	return &p, nil
}

// GetWithEstablishment obtiene el punto de emisión junto con su establecimiento
// (una sola consulta; ambos se necesitan para armar la serie estab+ptoEmi).
func (r *EmissionPointRepo) GetWithEstablishment(ctx context.Context, tenantID, id string) (*entity.EmissionPoint, *entity.Establishment, error) {
	const query = `
		SELECT p.id, p.establishment_id, p.tenant_id, p.codigo, p.current_invoice_sequence, p.is_active, p.created_at, p.updated_at,
		       e.id, e.tenant_id, e.codigo, e.direccion, e.is_active, e.created_at, e.updated_at
		FROM emission_points p
		JOIN establishments e ON e.id = p.establishment_id
		WHERE p.id = $1 AND p.tenant_id = $2`
	var p entity.EmissionPoint
	var e entity.Establishment
	err := r.q.QueryRow(ctx, query, id, tenantID).Scan(
		&p.ID, &p.EstablishmentID, &p.TenantID, &p.Codigo, &p.CurrentInvoiceSequence, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
		&e.ID, &e.TenantID, &e.Codigo, &e.Direccion, &e.IsActive, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("get emission point with establishment: %w", err)
	}
	return &p, &e, nil
}

// ReserveSequential reserva el secuencial con compare-and-set: la columna
// current_invoice_sequence guarda el SIGUIENTE secuencial a asignar, así que
// el UPDATE la avanza y devuelve el valor que tenía (el secuencial asignado).
// Cero filas afectadas significa que otro proceso ganó la carrera y el
// llamador debe releer y reintentar. El secuencial reservado nunca se
// devuelve al contador.
func (r *EmissionPointRepo) ReserveSequential(ctx context.Context, emissionPointID string, current int64) (int64, error) {
	const query = `
		UPDATE emission_points
		SET current_invoice_sequence = current_invoice_sequence + 1, updated_at = $3
		WHERE id = $1 AND current_invoice_sequence = $2 AND is_active = TRUE
		RETURNING current_invoice_sequence - 1`
	var reserved int64
	err := r.q.QueryRow(ctx, query, emissionPointID, current, time.Now()).Scan(&reserved)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Puede ser carrera perdida o punto inactivo; distinguimos releyendo.
			const stateQuery = `SELECT is_active FROM emission_points WHERE id = $1`
			var active bool
			if stateErr := r.q.QueryRow(ctx, stateQuery, emissionPointID).Scan(&active); stateErr == nil && !active {
				return 0, domain.ErrEmissionPointInactive
			}
			return 0, domain.ErrConflict
		}
		return 0, fmt.Errorf("reserve sequential: %w", err)
	}
	return reserved, nil
}

// RegisterGap registra un secuencial consumido que nunca llegará al SRI.
func (r *EmissionPointRepo) RegisterGap(ctx context.Context, emissionPointID string, sequential int64, reason string) error {
	const query = `
		INSERT INTO sequence_gaps (id, emission_point_id, secuencial, reason, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.q.Exec(ctx, query, uuid.New().String(), emissionPointID, sequential, reason, time.Now())
	if err != nil {
		return fmt.Errorf("insert sequence gap: %w", err)
	}
	return nil
}
