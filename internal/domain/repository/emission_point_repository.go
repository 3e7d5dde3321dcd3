package repository

import (
	"context"

	"github.com/jhoicas/facturacion-sri/internal/domain/entity"
)

// EmissionPointRepository define el puerto de persistencia para puntos de
// emisión y la reserva atómica de secuenciales.
type EmissionPointRepository interface {
	GetByID(ctx context.Context, tenantID, id string) (*entity.EmissionPoint, error)
	GetWithEstablishment(ctx context.Context, tenantID, id string) (*entity.EmissionPoint, *entity.Establishment, error)
	// ReserveSequential intenta avanzar current_invoice_sequence de current a
	// current+1 con compare-and-set. El contador guarda el siguiente secuencial
	// a asignar: devuelve el secuencial reservado (current) o
	// domain.ErrConflict si otro proceso ganó la carrera (el llamador relee y
	// reintenta).
	ReserveSequential(ctx context.Context, emissionPointID string, current int64) (int64, error)
	// RegisterGap registra un secuencial consumido que nunca llegará al SRI
	// (auditoría de huecos; el SRI exige declarar comprobantes anulados).
	RegisterGap(ctx context.Context, emissionPointID string, sequential int64, reason string) error
}
