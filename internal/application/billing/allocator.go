package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/facturacion-sri/internal/domain"
	"github.com/jhoicas/facturacion-sri/internal/domain/entity"
	"github.com/jhoicas/facturacion-sri/internal/domain/repository"
	domainsri "github.com/jhoicas/facturacion-sri/internal/domain/sri"
	pkgsri "github.com/jhoicas/facturacion-sri/pkg/sri"
)

const (
	// allocBackoffBase espera base entre reintentos de CAS; crece linealmente
	// con el número de intento.
	allocBackoffBase = 25 * time.Millisecond
)

// SequenceAllocator reserva secuenciales de forma atómica y sin huecos, y
// deja la factura en SEQUENCED con su clave de acceso calculada.
//
// Cada intento corre en su propia transacción: el compare-and-set sobre
// current_invoice_sequence y el UPDATE de la factura se confirman juntos, de
// modo que un crash no puede dejar un secuencial reservado sin dueño. Si otro
// proceso gana la carrera se relee el contador y se reintenta con backoff.
type SequenceAllocator struct {
	txRunner   FacturacionTxRunner
	claveSvc   *pkgsri.ClaveAccesoService
	maxRetries int
}

// NewSequenceAllocator construye el asignador.
func NewSequenceAllocator(txRunner FacturacionTxRunner, claveSvc *pkgsri.ClaveAccesoService, maxRetries int) *SequenceAllocator {
	if maxRetries <= 0 {
		maxRetries = 5
	}
	return &SequenceAllocator{txRunner: txRunner, claveSvc: claveSvc, maxRetries: maxRetries}
}

// Allocate reserva el siguiente secuencial del punto de emisión de la factura
// y persiste secuencial, serie, clave de acceso y estado SEQUENCED.
// La factura debe estar en DRAFT. La fecha de emisión se fija aquí: es parte
// de la clave y queda congelada junto con el secuencial.
func (a *SequenceAllocator) Allocate(ctx context.Context, inv *entity.Invoice, tenant *entity.Tenant, ambiente string) error {
	if inv.Status != entity.StatusDraft {
		return fmt.Errorf("%w: la factura %s está en %s, se esperaba DRAFT", domain.ErrInvalidTransition, inv.ID, inv.Status)
	}

	var lastErr error
	for attempt := 1; attempt <= a.maxRetries; attempt++ {
		err := a.txRunner.RunFacturacion(ctx, func(invoiceRepo repository.InvoiceRepository, pointRepo repository.EmissionPointRepository) error {
			point, estab, err := pointRepo.GetWithEstablishment(ctx, inv.TenantID, inv.EmissionPointID)
			if err != nil {
				return err
			}
			if point == nil || estab == nil {
				return fmt.Errorf("%w: punto de emisión %s", domain.ErrNotFound, inv.EmissionPointID)
			}
			if !point.IsActive || !estab.IsActive {
				return domain.ErrEmissionPointInactive
			}

			seq, err := pointRepo.ReserveSequential(ctx, point.ID, point.CurrentInvoiceSequence)
			if err != nil {
				return err
			}

			now := time.Now()
			clave, err := a.claveSvc.Build(&pkgsri.ClaveAccesoParams{
				FechaEmision:    now,
				TipoComprobante: pkgsri.DocTypeFactura,
				RUC:             tenant.RUC,
				Ambiente:        ambiente,
				Serie:           estab.Codigo + point.Codigo,
				Secuencial:      seq,
				CodigoNumerico:  inv.CodigoNumerico,
				TipoEmision:     pkgsri.EmisionNormal,
			})
			if err != nil {
				return err
			}

			inv.Secuencial = seq
			inv.Estab = estab.Codigo
			inv.PtoEmi = point.Codigo
			inv.ClaveAcceso = clave
			inv.FechaEmision = now
			inv.UpdatedAt = now
			if err := domainsri.Transition(inv, entity.StatusSequenced); err != nil {
				return err
			}
			return invoiceRepo.UpdateSequenced(ctx, inv)
		})
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return err
		}
		lastErr = err
		// Carrera perdida: la entidad pudo quedar mutada a medias; se
		// restaura antes del siguiente intento.
		inv.Status = entity.StatusDraft
		inv.Secuencial = 0
		inv.ClaveAcceso = ""

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(allocBackoffBase * time.Duration(attempt)):
		}
	}
	return fmt.Errorf("%w: %d intentos (%v)", domain.ErrAllocationConflict, a.maxRetries, lastErr)
}
