package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/facturacion-sri/internal/domain/entity"
	"github.com/jhoicas/facturacion-sri/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx).
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

// Create persiste cabecera, líneas, impuestos y formas de pago.
// Debe llamarse con un Querier transaccional (ver TxRunner) para que los
// cuatro inserts sean atómicos.
func (r *InvoiceRepo) Create(ctx context.Context, inv *entity.Invoice, items []*entity.InvoiceItem, taxes []*entity.InvoiceTax, payments []*entity.InvoicePaymentMethod) error {
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	const query = `
		INSERT INTO invoices (id, tenant_id, emission_point_id, client_id, status,
		       fecha_emision, estab, pto_emi, secuencial, codigo_numerico, clave_acceso,
		       total_sin_impuestos, total_descuento, propina, importe_total, moneda,
		       retry_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`
	_, err := r.q.Exec(ctx, query,
		inv.ID, inv.TenantID, inv.EmissionPointID, inv.ClientID, inv.Status,
		inv.FechaEmision, inv.Estab, inv.PtoEmi, inv.Secuencial, inv.CodigoNumerico, nullIfEmpty(inv.ClaveAcceso),
		inv.TotalSinImpuestos, inv.TotalDescuento, inv.Propina, inv.ImporteTotal, inv.Moneda,
		inv.RetryCount, inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("factura duplicada: %w", err)
		}
		return fmt.Errorf("insert invoice: %w", err)
	}

	for _, it := range items {
		if it.ID == "" {
			it.ID = uuid.New().String()
		}
		it.InvoiceID = inv.ID
		const itemQuery = `
			INSERT INTO invoice_items (id, invoice_id, codigo_principal, codigo_auxiliar, descripcion,
			       cantidad, precio_unitario, descuento, precio_total_sin_impuesto,
			       codigo_porcentaje, tarifa, base_imponible, valor_impuesto)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
		if _, err := r.q.Exec(ctx, itemQuery,
			it.ID, it.InvoiceID, it.CodigoPrincipal, nullIfEmpty(it.CodigoAuxiliar), it.Descripcion,
			it.Cantidad, it.PrecioUnitario, it.Descuento, it.PrecioTotalSinImpuesto,
			it.CodigoPorcentaje, it.Tarifa, it.BaseImponible, it.ValorImpuesto,
		); err != nil {
			return fmt.Errorf("insert invoice item: %w", err)
		}
	}

	for _, tax := range taxes {
		if tax.ID == "" {
			tax.ID = uuid.New().String()
		}
		tax.InvoiceID = inv.ID
		const taxQuery = `
			INSERT INTO invoice_taxes (id, invoice_id, codigo, codigo_porcentaje, tarifa, base_imponible, valor)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`
		if _, err := r.q.Exec(ctx, taxQuery,
			tax.ID, tax.InvoiceID, tax.Codigo, tax.CodigoPorcentaje, tax.Tarifa, tax.BaseImponible, tax.Valor,
		); err != nil {
			return fmt.Errorf("insert invoice tax: %w", err)
		}
	}

	for _, p := range payments {
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		p.InvoiceID = inv.ID
		const payQuery = `
			INSERT INTO invoice_payment_methods (id, invoice_id, forma_pago, total, plazo, unidad_tiempo)
			VALUES ($1, $2, $3, $4, $5, $6)`
		if _, err := r.q.Exec(ctx, payQuery,
			p.ID, p.InvoiceID, p.FormaPago, p.Total, p.Plazo, nullIfEmpty(p.UnidadTiempo),
		); err != nil {
			return fmt.Errorf("insert invoice payment: %w", err)
		}
	}
	return nil
}

const invoiceColumns = `
	id, tenant_id, emission_point_id, client_id, status,
	fecha_emision, estab, pto_emi, secuencial, codigo_numerico, COALESCE(clave_acceso, ''),
	total_sin_impuestos, total_descuento, propina, importe_total, moneda,
	COALESCE(xml_firmado_path, ''), COALESCE(xml_firmado_url, ''),
	COALESCE(ride_path, ''), COALESCE(ride_url, ''),
	COALESCE(estado_sri, ''), COALESCE(numero_autorizacion, ''),
	COALESCE(fecha_autorizacion, 'epoch'::timestamptz), COALESCE(mensajes_sri, ''),
	retry_count, COALESCE(canceled_at, 'epoch'::timestamptz),
	created_at, updated_at`

func scanInvoice(row pgx.Row) (*entity.Invoice, error) {
	var inv entity.Invoice
	err := row.Scan(
		&inv.ID, &inv.TenantID, &inv.EmissionPointID, &inv.ClientID, &inv.Status,
		&inv.FechaEmision, &inv.Estab, &inv.PtoEmi, &inv.Secuencial, &inv.CodigoNumerico, &inv.ClaveAcceso,
		&inv.TotalSinImpuestos, &inv.TotalDescuento, &inv.Propina, &inv.ImporteTotal, &inv.Moneda,
		&inv.XMLFirmadoPath, &inv.XMLFirmadoURL,
		&inv.RidePath, &inv.RideURL,
		&inv.EstadoSRI, &inv.NumeroAutorizacion,
		&inv.FechaAutorizacion, &inv.MensajesSRI,
		&inv.RetryCount, &inv.CanceledAt,
		&inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// GetByID obtiene una factura por ID, acotada al tenant.
func (r *InvoiceRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1 AND tenant_id = $2`
	inv, err := scanInvoice(r.q.QueryRow(ctx, query, id, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return inv, nil
}

// GetItems obtiene las líneas de detalle de una factura.
func (r *InvoiceRepo) GetItems(ctx context.Context, invoiceID string) ([]*entity.InvoiceItem, error) {
	const query = `
		SELECT id, invoice_id, codigo_principal, COALESCE(codigo_auxiliar, ''), descripcion,
		       cantidad, precio_unitario, descuento, precio_total_sin_impuesto,
		       codigo_porcentaje, tarifa, base_imponible, valor_impuesto
		FROM invoice_items WHERE invoice_id = $1 ORDER BY id`
	rows, err := r.q.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list invoice items: %w", err)
	}
	defer rows.Close()
	var list []*entity.InvoiceItem
	for rows.Next() {
		var it entity.InvoiceItem
		if err := rows.Scan(&it.ID, &it.InvoiceID, &it.CodigoPrincipal, &it.CodigoAuxiliar, &it.Descripcion,
			&it.Cantidad, &it.PrecioUnitario, &it.Descuento, &it.PrecioTotalSinImpuesto,
			&it.CodigoPorcentaje, &it.Tarifa, &it.BaseImponible, &it.ValorImpuesto); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		list = append(list, &it)
	}
	return list, rows.Err()
}

// GetTaxes obtiene los totales de impuesto de una factura.
func (r *InvoiceRepo) GetTaxes(ctx context.Context, invoiceID string) ([]*entity.InvoiceTax, error) {
	const query = `
		SELECT id, invoice_id, codigo, codigo_porcentaje, tarifa, base_imponible, valor
		FROM invoice_taxes WHERE invoice_id = $1 ORDER BY codigo_porcentaje`
	rows, err := r.q.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list invoice taxes: %w", err)
	}
	defer rows.Close()
	var list []*entity.InvoiceTax
	for rows.Next() {
		var tax entity.InvoiceTax
		if err := rows.Scan(&tax.ID, &tax.InvoiceID, &tax.Codigo, &tax.CodigoPorcentaje, &tax.Tarifa, &tax.BaseImponible, &tax.Valor); err != nil {
			return nil, fmt.Errorf("scan tax: %w", err)
		}
		list = append(list, &tax)
	}
	return list, rows.Err()
}

// GetPayments obtiene las formas de pago de una factura.
func (r *InvoiceRepo) GetPayments(ctx context.Context, invoiceID string) ([]*entity.InvoicePaymentMethod, error) {
	const query = `
		SELECT id, invoice_id, forma_pago, total, COALESCE(plazo, 0), COALESCE(unidad_tiempo, '')
		FROM invoice_payment_methods WHERE invoice_id = $1 ORDER BY id`
	rows, err := r.q.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list invoice payments: %w", err)
	}
	defer rows.Close()
	var list []*entity.InvoicePaymentMethod
	for rows.Next() {
		var p entity.InvoicePaymentMethod
		if err := rows.Scan(&p.ID, &p.InvoiceID, &p.FormaPago, &p.Total, &p.Plazo, &p.UnidadTiempo); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		list = append(list, &p)
	}
	return list, rows.Err()
}

// UpdateSequenced persiste secuencial, serie, clave de acceso y estado
// SEQUENCED. El índice único (tenant_id, estab, pto_emi, secuencial) detecta
// cualquier doble asignación.
func (r *InvoiceRepo) UpdateSequenced(ctx context.Context, inv *entity.Invoice) error {
	const query = `
		UPDATE invoices
		SET secuencial = $2, estab = $3, pto_emi = $4, clave_acceso = $5,
		    fecha_emision = $6, status = $7, updated_at = $8
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query,
		inv.ID, inv.Secuencial, inv.Estab, inv.PtoEmi, inv.ClaveAcceso,
		inv.FechaEmision, inv.Status, inv.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("secuencial ya asignado a otra factura: %w", err)
		}
		return fmt.Errorf("update invoice sequenced: %w", err)
	}
	return nil
}

// UpdateStatus persiste estado, respuesta del SRI, rutas de artefactos y
// contador de reintentos.
func (r *InvoiceRepo) UpdateStatus(ctx context.Context, inv *entity.Invoice) error {
	const query = `
		UPDATE invoices
		SET status              = $2,
		    xml_firmado_path    = COALESCE($3, xml_firmado_path),
		    xml_firmado_url     = COALESCE($4, xml_firmado_url),
		    ride_path           = COALESCE($5, ride_path),
		    ride_url            = COALESCE($6, ride_url),
		    estado_sri          = COALESCE($7, estado_sri),
		    numero_autorizacion = COALESCE($8, numero_autorizacion),
		    fecha_autorizacion  = COALESCE($9, fecha_autorizacion),
		    mensajes_sri        = COALESCE($10, mensajes_sri),
		    retry_count         = $11,
		    canceled_at         = COALESCE($12, canceled_at),
		    updated_at          = $13
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query,
		inv.ID, inv.Status,
		nullIfEmpty(inv.XMLFirmadoPath), nullIfEmpty(inv.XMLFirmadoURL),
		nullIfEmpty(inv.RidePath), nullIfEmpty(inv.RideURL),
		nullIfEmpty(inv.EstadoSRI), nullIfEmpty(inv.NumeroAutorizacion),
		nullIfZeroTime(inv.FechaAutorizacion), nullIfEmpty(inv.MensajesSRI),
		inv.RetryCount, nullIfZeroTime(inv.CanceledAt),
		inv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update invoice status: %w", err)
	}
	return nil
}

// ListByTenant lista facturas del emisor, más recientes primero.
func (r *InvoiceRepo) ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*entity.Invoice, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	query := `SELECT ` + invoiceColumns + `
		FROM invoices WHERE tenant_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()
	var list []*entity.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		list = append(list, inv)
	}
	return list, rows.Err()
}

// AppendSRIResponse registra la respuesta cruda del SRI en la tabla
// append-only de auditoría (nunca se actualiza ni borra).
func (r *InvoiceRepo) AppendSRIResponse(ctx context.Context, invoiceID, operation, estado, payload string) error {
	const query = `
		INSERT INTO sri_responses (id, invoice_id, operation, estado, payload, received_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(ctx, query,
		uuid.New().String(), invoiceID, operation, estado, payload, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("insert sri response: %w", err)
	}
	return nil
}

func nullIfZeroTime(t time.Time) *time.Time {
	if t.IsZero() || t.Unix() == 0 {
		return nil
	}
	return &t
}
