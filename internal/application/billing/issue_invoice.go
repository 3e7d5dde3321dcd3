package billing

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/facturacion-sri/internal/application/dto"
	"github.com/jhoicas/facturacion-sri/internal/domain"
	"github.com/jhoicas/facturacion-sri/internal/domain/entity"
	"github.com/jhoicas/facturacion-sri/internal/domain/repository"
	domainsri "github.com/jhoicas/facturacion-sri/internal/domain/sri"
	pkgsri "github.com/jhoicas/facturacion-sri/pkg/sri"
)

// IssueInvoiceUseCase crea la factura en DRAFT con totales calculados desde
// las líneas y dispara el pipeline SRI en background. El secuencial NO se
// asigna aquí: lo reserva el orquestador (SequenceAllocator) justo antes de
// firmar, para no quemar números con peticiones que fallan en validación.
type IssueInvoiceUseCase struct {
	invoiceRepo repository.InvoiceRepository
	clientRepo  repository.ClientRepository
	pointRepo   repository.EmissionPointRepository
	orch        *FacturacionOrchestrator
}

// NewIssueInvoiceUseCase construye el caso de uso.
func NewIssueInvoiceUseCase(
	invoiceRepo repository.InvoiceRepository,
	clientRepo repository.ClientRepository,
	pointRepo repository.EmissionPointRepository,
	orch *FacturacionOrchestrator,
) *IssueInvoiceUseCase {
	return &IssueInvoiceUseCase{
		invoiceRepo: invoiceRepo,
		clientRepo:  clientRepo,
		pointRepo:   pointRepo,
		orch:        orch,
	}
}

// CreateInvoice valida la petición, calcula totales e impuestos desde las
// líneas, persiste la factura en DRAFT y lanza el procesamiento asíncrono.
func (uc *IssueInvoiceUseCase) CreateInvoice(ctx context.Context, tenantID string, in dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	if in.ClientID == "" || in.EmissionPointID == "" || len(in.Items) == 0 || len(in.Pagos) == 0 {
		return nil, fmt.Errorf("%w: client_id, emission_point_id, items y pagos son obligatorios", domain.ErrInvalidInput)
	}
	if in.Propina.Sign() < 0 {
		return nil, fmt.Errorf("%w: propina negativa", domain.ErrInvalidInput)
	}

	// Cliente del tenant
	client, err := uc.clientRepo.GetByID(ctx, tenantID, in.ClientID)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, fmt.Errorf("%w: cliente %s", domain.ErrNotFound, in.ClientID)
	}

	// Punto de emisión del tenant (activo o no se decide al reservar; aquí
	// solo se valida existencia para fallar rápido)
	point, err := uc.pointRepo.GetByID(ctx, tenantID, in.EmissionPointID)
	if err != nil {
		return nil, err
	}
	if point == nil {
		return nil, fmt.Errorf("%w: punto de emisión %s", domain.ErrNotFound, in.EmissionPointID)
	}

	now := time.Now()
	invoiceID := uuid.New().String()

	// Líneas: subtotal = cantidad*precio - descuento; IVA por línea según
	// código de porcentaje (Tabla 17)
	var items []*entity.InvoiceItem
	var totalSinImpuestos, totalDescuento decimal.Decimal
	taxBuckets := map[string]*entity.InvoiceTax{}
	for i := range in.Items {
		line := &in.Items[i]
		if line.Descripcion == "" {
			return nil, fmt.Errorf("%w: línea %d sin descripción", domain.ErrInvalidInput, i+1)
		}
		if line.Cantidad.Sign() <= 0 {
			return nil, fmt.Errorf("%w: línea %d con cantidad no positiva", domain.ErrInvalidInput, i+1)
		}
		if line.PrecioUnitario.Sign() < 0 || line.Descuento.Sign() < 0 {
			return nil, fmt.Errorf("%w: línea %d con montos negativos", domain.ErrInvalidInput, i+1)
		}
		if !pkgsri.ValidIVATarifaCodes[line.CodigoPorcentaje] {
			return nil, fmt.Errorf("%w: línea %d con código de porcentaje IVA desconocido %q", domain.ErrInvalidInput, i+1, line.CodigoPorcentaje)
		}

		base := line.Cantidad.Mul(line.PrecioUnitario).Sub(line.Descuento).Round(2)
		if base.Sign() < 0 {
			return nil, fmt.Errorf("%w: línea %d con descuento mayor al subtotal", domain.ErrInvalidInput, i+1)
		}
		valor := base.Mul(line.Tarifa).Div(decimal.NewFromInt(100)).Round(2)

		items = append(items, &entity.InvoiceItem{
			ID:                     uuid.New().String(),
			InvoiceID:              invoiceID,
			CodigoPrincipal:        line.CodigoPrincipal,
			CodigoAuxiliar:         line.CodigoAuxiliar,
			Descripcion:            line.Descripcion,
			Cantidad:               line.Cantidad,
			PrecioUnitario:         line.PrecioUnitario,
			Descuento:              line.Descuento,
			PrecioTotalSinImpuesto: base,
			CodigoPorcentaje:       line.CodigoPorcentaje,
			Tarifa:                 line.Tarifa,
			BaseImponible:          base,
			ValorImpuesto:          valor,
		})
		totalSinImpuestos = totalSinImpuestos.Add(base)
		totalDescuento = totalDescuento.Add(line.Descuento)

		bucket, ok := taxBuckets[line.CodigoPorcentaje]
		if !ok {
			bucket = &entity.InvoiceTax{
				ID:               uuid.New().String(),
				InvoiceID:        invoiceID,
				Codigo:           pkgsri.TaxCodeIVA,
				CodigoPorcentaje: line.CodigoPorcentaje,
				Tarifa:           line.Tarifa,
			}
			taxBuckets[line.CodigoPorcentaje] = bucket
		}
		bucket.BaseImponible = bucket.BaseImponible.Add(base)
		bucket.Valor = bucket.Valor.Add(valor)
	}

	var taxes []*entity.InvoiceTax
	totalImpuestos := decimal.Zero
	for _, bucket := range taxBuckets {
		taxes = append(taxes, bucket)
		totalImpuestos = totalImpuestos.Add(bucket.Valor)
	}
	importeTotal := totalSinImpuestos.Add(totalImpuestos).Add(in.Propina).Round(2)

	var payments []*entity.InvoicePaymentMethod
	for i := range in.Pagos {
		p := &in.Pagos[i]
		if !pkgsri.ValidPaymentMethodCodes[p.FormaPago] {
			return nil, fmt.Errorf("%w: forma de pago desconocida %q (Tabla 24)", domain.ErrInvalidInput, p.FormaPago)
		}
		payments = append(payments, &entity.InvoicePaymentMethod{
			ID:           uuid.New().String(),
			InvoiceID:    invoiceID,
			FormaPago:    p.FormaPago,
			Total:        p.Total,
			Plazo:        p.Plazo,
			UnidadTiempo: p.UnidadTiempo,
		})
	}

	codigoNumerico, err := randomCodigoNumerico()
	if err != nil {
		return nil, fmt.Errorf("generar código numérico: %w", err)
	}

	inv := &entity.Invoice{
		ID:                invoiceID,
		TenantID:          tenantID,
		EmissionPointID:   in.EmissionPointID,
		ClientID:          in.ClientID,
		Status:            entity.StatusDraft,
		CodigoNumerico:    codigoNumerico,
		TotalSinImpuestos: totalSinImpuestos,
		TotalDescuento:    totalDescuento,
		Propina:           in.Propina.Round(2),
		ImporteTotal:      importeTotal,
		Moneda:            "DOLAR",
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	// Validación cruzada completa: acumula TODAS las diferencias (líneas vs
	// cabecera, buckets de IVA, pagos vs importe total) antes de rechazar.
	if err := domainsri.ValidateComposition(inv, items, taxes, payments); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	if err := uc.invoiceRepo.Create(ctx, inv, items, taxes, payments); err != nil {
		return nil, err
	}

	// Pipeline SRI en background; el cliente hace polling de /estado.
	uc.orch.ProcessAsync(tenantID, invoiceID)

	return toInvoiceResponse(inv, client.RazonSocial, items), nil
}

// GetInvoice obtiene una factura con su detalle.
func (uc *IssueInvoiceUseCase) GetInvoice(ctx context.Context, tenantID, id string) (*dto.InvoiceResponse, error) {
	inv, err := uc.invoiceRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, fmt.Errorf("%w: factura %s", domain.ErrNotFound, id)
	}
	items, err := uc.invoiceRepo.GetItems(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	clientName := ""
	if client, _ := uc.clientRepo.GetByID(ctx, tenantID, inv.ClientID); client != nil {
		clientName = client.RazonSocial
	}
	return toInvoiceResponse(inv, clientName, items), nil
}

// ListInvoices lista las facturas del tenant (sin detalle).
func (uc *IssueInvoiceUseCase) ListInvoices(ctx context.Context, tenantID string, page dto.PageRequest) ([]*dto.InvoiceResponse, error) {
	page.DefaultPage()
	invoices, err := uc.invoiceRepo.ListByTenant(ctx, tenantID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.InvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, toInvoiceResponse(inv, "", nil))
	}
	return out, nil
}

// GetStatus devuelve el estado del pipeline; si la factura está en SUBMITTED
// aprovecha para consultar autorización al SRI (polling servido por demanda).
func (uc *IssueInvoiceUseCase) GetStatus(ctx context.Context, tenantID, id string) (*dto.InvoiceStatusDTO, error) {
	inv, err := uc.orch.Poll(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return &dto.InvoiceStatusDTO{
		ID:                 inv.ID,
		Status:             inv.Status,
		EstadoSRI:          inv.EstadoSRI,
		ClaveAcceso:        inv.ClaveAcceso,
		NumeroAutorizacion: inv.NumeroAutorizacion,
		MensajesSRI:        inv.MensajesSRI,
		RideURL:            inv.RideURL,
	}, nil
}

// Reprocess relanza el pipeline de una factura atascada en un estado
// intermedio (caída del proceso, SRI caído, certificado vencido ya rotado).
func (uc *IssueInvoiceUseCase) Reprocess(ctx context.Context, tenantID, id string) error {
	inv, err := uc.invoiceRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if inv == nil {
		return fmt.Errorf("%w: factura %s", domain.ErrNotFound, id)
	}
	uc.orch.ProcessAsync(tenantID, id)
	return nil
}

// CancelInvoice anula una factura autorizada.
func (uc *IssueInvoiceUseCase) CancelInvoice(ctx context.Context, tenantID, id, motivo string) (*dto.InvoiceResponse, error) {
	if motivo == "" {
		return nil, fmt.Errorf("%w: el motivo de anulación es obligatorio", domain.ErrInvalidInput)
	}
	inv, err := uc.orch.Cancel(ctx, tenantID, id, motivo)
	if err != nil {
		return nil, err
	}
	return toInvoiceResponse(inv, "", nil), nil
}

// randomCodigoNumerico genera los 8 dígitos aleatorios de la clave de acceso
// (campo codigoNumerico). Aleatorio criptográfico: la ficha técnica lo
// recomienda como factor anti-adivinación de claves.
func randomCodigoNumerico() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(100000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%08d", n.Int64()), nil
}

func toInvoiceResponse(inv *entity.Invoice, clientName string, items []*entity.InvoiceItem) *dto.InvoiceResponse {
	resp := &dto.InvoiceResponse{
		ID:                 inv.ID,
		TenantID:           inv.TenantID,
		ClientID:           inv.ClientID,
		ClientName:         clientName,
		Status:             inv.Status,
		NumeroCompleto:     inv.NumeroCompleto(),
		ClaveAcceso:        inv.ClaveAcceso,
		TotalSinImpuestos:  inv.TotalSinImpuestos,
		TotalDescuento:     inv.TotalDescuento,
		Propina:            inv.Propina,
		ImporteTotal:       inv.ImporteTotal,
		Moneda:             inv.Moneda,
		EstadoSRI:          inv.EstadoSRI,
		NumeroAutorizacion: inv.NumeroAutorizacion,
		MensajesSRI:        inv.MensajesSRI,
		XMLFirmadoURL:      inv.XMLFirmadoURL,
		RideURL:            inv.RideURL,
	}
	if !inv.FechaEmision.IsZero() {
		resp.FechaEmision = inv.FechaEmision.Format("02/01/2006")
	}
	if !inv.FechaAutorizacion.IsZero() {
		resp.FechaAutorizacion = inv.FechaAutorizacion.Format(time.RFC3339)
	}
	for _, it := range items {
		resp.Items = append(resp.Items, dto.InvoiceItemResponse{
			ID:                     it.ID,
			CodigoPrincipal:        it.CodigoPrincipal,
			Descripcion:            it.Descripcion,
			Cantidad:               it.Cantidad,
			PrecioUnitario:         it.PrecioUnitario,
			Descuento:              it.Descuento,
			PrecioTotalSinImpuesto: it.PrecioTotalSinImpuesto,
			CodigoPorcentaje:       it.CodigoPorcentaje,
			ValorImpuesto:          it.ValorImpuesto,
		})
	}
	return resp
}
