package dto

import "github.com/shopspring/decimal"

// CreateClientRequest body para POST /api/clients.
type CreateClientRequest struct {
	TipoIdentificacion string `json:"tipo_identificacion"` // Tabla 6: 04 RUC, 05 cédula, 06 pasaporte, 07 consumidor final
	Identificacion     string `json:"identificacion"`
	RazonSocial        string `json:"razon_social"`
	Direccion          string `json:"direccion,omitempty"`
	Email              string `json:"email,omitempty"`
	Telefono           string `json:"telefono,omitempty"`
}

// ClientResponse comprador en respuestas.
type ClientResponse struct {
	ID                 string `json:"id"`
	TenantID           string `json:"tenant_id"`
	TipoIdentificacion string `json:"tipo_identificacion"`
	Identificacion     string `json:"identificacion"`
	RazonSocial        string `json:"razon_social"`
	Direccion          string `json:"direccion,omitempty"`
	Email              string `json:"email,omitempty"`
	Telefono           string `json:"telefono,omitempty"`
}

// CreateInvoiceRequest body para POST /api/invoices.
// Los totales de cabecera y los agregados por impuesto deben cuadrar con las
// líneas; si no cuadran la petición se rechaza con el detalle de diferencias.
type CreateInvoiceRequest struct {
	ClientID        string                 `json:"client_id"`
	EmissionPointID string                 `json:"emission_point_id"`
	Propina         decimal.Decimal        `json:"propina"`
	Items           []InvoiceItemRequest   `json:"items"`
	Pagos           []InvoicePagoRequest   `json:"pagos"`
}

// InvoiceItemRequest línea de detalle.
type InvoiceItemRequest struct {
	CodigoPrincipal  string          `json:"codigo_principal"`
	CodigoAuxiliar   string          `json:"codigo_auxiliar,omitempty"`
	Descripcion      string          `json:"descripcion"`
	Cantidad         decimal.Decimal `json:"cantidad"`
	PrecioUnitario   decimal.Decimal `json:"precio_unitario"`
	Descuento        decimal.Decimal `json:"descuento"`
	CodigoPorcentaje string          `json:"codigo_porcentaje"` // Tabla 17: "0", "2", "4", ...
	Tarifa           decimal.Decimal `json:"tarifa"`            // % IVA de la línea
}

// InvoicePagoRequest forma de pago (Tabla 24).
type InvoicePagoRequest struct {
	FormaPago    string          `json:"forma_pago"`
	Total        decimal.Decimal `json:"total"`
	Plazo        decimal.Decimal `json:"plazo,omitempty"`
	UnidadTiempo string          `json:"unidad_tiempo,omitempty"`
}

// InvoiceResponse factura con detalle para GET /api/invoices/:id.
type InvoiceResponse struct {
	ID                 string          `json:"id"`
	TenantID           string          `json:"tenant_id"`
	ClientID           string          `json:"client_id"`
	ClientName         string          `json:"client_name,omitempty"`
	Status             string          `json:"status"`
	NumeroCompleto     string          `json:"numero_completo,omitempty"` // 001-002-000000042
	ClaveAcceso        string          `json:"clave_acceso,omitempty"`
	FechaEmision       string          `json:"fecha_emision,omitempty"` // dd/mm/aaaa
	TotalSinImpuestos  decimal.Decimal `json:"total_sin_impuestos"`
	TotalDescuento     decimal.Decimal `json:"total_descuento"`
	Propina            decimal.Decimal `json:"propina"`
	ImporteTotal       decimal.Decimal `json:"importe_total"`
	Moneda             string          `json:"moneda"`
	EstadoSRI          string          `json:"estado_sri,omitempty"`
	NumeroAutorizacion string          `json:"numero_autorizacion,omitempty"`
	FechaAutorizacion  string          `json:"fecha_autorizacion,omitempty"`
	MensajesSRI        string          `json:"mensajes_sri,omitempty"`
	XMLFirmadoURL      string          `json:"xml_firmado_url,omitempty"`
	RideURL            string          `json:"ride_url,omitempty"`

	Items []InvoiceItemResponse `json:"items,omitempty"`
}

// InvoiceItemResponse línea de detalle en la respuesta.
type InvoiceItemResponse struct {
	ID                     string          `json:"id"`
	CodigoPrincipal        string          `json:"codigo_principal"`
	Descripcion            string          `json:"descripcion"`
	Cantidad               decimal.Decimal `json:"cantidad"`
	PrecioUnitario         decimal.Decimal `json:"precio_unitario"`
	Descuento              decimal.Decimal `json:"descuento"`
	PrecioTotalSinImpuesto decimal.Decimal `json:"precio_total_sin_impuesto"`
	CodigoPorcentaje       string          `json:"codigo_porcentaje"`
	ValorImpuesto          decimal.Decimal `json:"valor_impuesto"`
}

// InvoiceStatusDTO respuesta ligera para el endpoint de polling
// GET /api/invoices/:id/estado.
// El frontend consulta este endpoint hasta que status sea AUTHORIZED,
// REJECTED o CANCELED.
type InvoiceStatusDTO struct {
	ID                 string `json:"id"`
	Status             string `json:"status"` // DRAFT|SEQUENCED|SIGNED|SUBMITTED|AUTHORIZED|REJECTED|CANCELED
	EstadoSRI          string `json:"estado_sri,omitempty"`
	ClaveAcceso        string `json:"clave_acceso,omitempty"`
	NumeroAutorizacion string `json:"numero_autorizacion,omitempty"`
	MensajesSRI        string `json:"mensajes_sri,omitempty"` // mensajes de rechazo del SRI (vacío si OK)
	RideURL            string `json:"ride_url,omitempty"`
}

// CancelInvoiceRequest body para POST /api/invoices/:id/anular.
type CancelInvoiceRequest struct {
	Motivo string `json:"motivo"`
}
