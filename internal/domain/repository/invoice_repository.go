package repository

import (
	"context"

	"github.com/jhoicas/facturacion-sri/internal/domain/entity"
)

// InvoiceRepository define el puerto de persistencia para facturas y sus hijos
// (líneas, impuestos, formas de pago).
type InvoiceRepository interface {
	// Create persiste cabecera, líneas, impuestos y formas de pago en una sola
	// transacción. Asigna IDs si vienen vacíos.
	Create(ctx context.Context, inv *entity.Invoice, items []*entity.InvoiceItem, taxes []*entity.InvoiceTax, payments []*entity.InvoicePaymentMethod) error
	GetByID(ctx context.Context, tenantID, id string) (*entity.Invoice, error)
	GetItems(ctx context.Context, invoiceID string) ([]*entity.InvoiceItem, error)
	GetTaxes(ctx context.Context, invoiceID string) ([]*entity.InvoiceTax, error)
	GetPayments(ctx context.Context, invoiceID string) ([]*entity.InvoicePaymentMethod, error)
	// UpdateSequenced persiste secuencial, clave de acceso y estado SEQUENCED.
	UpdateSequenced(ctx context.Context, inv *entity.Invoice) error
	// UpdateStatus persiste estado, respuesta del SRI, artefactos y contadores.
	UpdateStatus(ctx context.Context, inv *entity.Invoice) error
	// ListByTenant lista facturas del emisor, más recientes primero.
	ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*entity.Invoice, error)
	// AppendSRIResponse registra la respuesta cruda del SRI (tabla append-only
	// de auditoría).
	AppendSRIResponse(ctx context.Context, invoiceID, operation, estado, payload string) error
}
