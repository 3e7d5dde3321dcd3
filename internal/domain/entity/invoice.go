package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados del ciclo de vida de la factura electrónica (SRI Ecuador).
const (
	StatusDraft      = "DRAFT"      // Guardada, sin secuencial asignado
	StatusSequenced  = "SEQUENCED"  // Secuencial reservado y clave de acceso calculada
	StatusSigned     = "SIGNED"     // XML firmado (XAdES), pendiente de envío
	StatusSubmitted  = "SUBMITTED"  // RECIBIDA por recepción, autorización pendiente
	StatusAuthorized = "AUTHORIZED" // AUTORIZADO por el SRI
	StatusRejected   = "REJECTED"   // DEVUELTA o NO AUTORIZADO
	StatusCanceled   = "CANCELED"   // Anulada (solo desde AUTHORIZED)
)

// Invoice representa la cabecera de una factura electrónica.
type Invoice struct {
	ID              string
	TenantID        string
	EmissionPointID string
	ClientID        string
	Status          string
	FechaEmision    time.Time
	Estab           string // 3 dígitos, copiado al emitir
	PtoEmi          string // 3 dígitos, copiado al emitir
	Secuencial      int64  // 0 hasta que SequenceAllocator lo reserve
	CodigoNumerico  string // 8 dígitos, fijado al crear el borrador (clave determinista)
	ClaveAcceso     string // 49 dígitos, vacío en DRAFT

	TotalSinImpuestos decimal.Decimal
	TotalDescuento    decimal.Decimal
	Propina           decimal.Decimal
	ImporteTotal      decimal.Decimal
	Moneda            string // "DOLAR"

	// Artefactos generados.
	XMLFirmadoPath string // ruta local del XML firmado
	XMLFirmadoURL  string
	RidePath       string // ruta local del RIDE (PDF)
	RideURL        string

	// Respuesta del SRI.
	EstadoSRI          string // RECIBIDA, DEVUELTA, AUTORIZADO, NO AUTORIZADO, EN PROCESO
	NumeroAutorizacion string // igual a la clave de acceso en el esquema offline
	FechaAutorizacion  time.Time
	MensajesSRI        string // mensajes de rechazo (JSON o texto plano)

	RetryCount int // envíos fallidos acumulados contra el SRI
	CanceledAt time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NumeroCompleto devuelve estab-ptoEmi-secuencial con el formato del RIDE
// (001-002-000000042). Vacío si aún no hay secuencial.
func (i *Invoice) NumeroCompleto() string {
	if i.Secuencial == 0 {
		return ""
	}
	return i.Estab + "-" + i.PtoEmi + "-" + padSecuencial(i.Secuencial)
}

func padSecuencial(n int64) string {
	s := ""
	for v := n; v > 0; v /= 10 {
		s = string('0'+byte(v%10)) + s
	}
	for len(s) < 9 {
		s = "0" + s
	}
	return s
}

// InvoiceItem es una línea de detalle de la factura.
type InvoiceItem struct {
	ID                     string
	InvoiceID              string
	CodigoPrincipal        string
	CodigoAuxiliar         string
	Descripcion            string
	Cantidad               decimal.Decimal
	PrecioUnitario         decimal.Decimal
	Descuento              decimal.Decimal
	PrecioTotalSinImpuesto decimal.Decimal
	// Impuesto de la línea (IVA).
	CodigoPorcentaje string // Tabla 17: "0", "2", "4", ...
	Tarifa           decimal.Decimal
	BaseImponible    decimal.Decimal
	ValorImpuesto    decimal.Decimal
}

// InvoiceTax es un total de impuesto agregado por código de porcentaje
// (bloque <totalConImpuestos> del XML).
type InvoiceTax struct {
	ID               string
	InvoiceID        string
	Codigo           string // "2" = IVA
	CodigoPorcentaje string
	Tarifa           decimal.Decimal
	BaseImponible    decimal.Decimal
	Valor            decimal.Decimal
}

// InvoicePaymentMethod es una forma de pago (Tabla 24).
type InvoicePaymentMethod struct {
	ID        string
	InvoiceID string
	FormaPago string // "01" efectivo, "20" tarjeta, ...
	Total     decimal.Decimal
	Plazo     decimal.Decimal
	UnidadTiempo string // "dias"
}
