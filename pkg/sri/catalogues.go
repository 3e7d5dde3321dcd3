// Package sri contiene catálogos y validaciones alineados a la Ficha Técnica
// de Comprobantes Electrónicos del SRI (Ecuador), esquema factura v1.1.0.
package sri

// =============================================================================
// Tabla 3 - Tipo de comprobante (Ficha Técnica - campo codDoc)
// =============================================================================

const (
	DocTypeFactura            = "01" // Factura
	DocTypeNotaCredito        = "04" // Nota de crédito
	DocTypeNotaDebito         = "05" // Nota de débito
	DocTypeGuiaRemision       = "06" // Guía de remisión
	DocTypeComprobRetencion   = "07" // Comprobante de retención
)

// ValidDocumentTypeCodes contiene los tipos de comprobante admitidos.
var ValidDocumentTypeCodes = map[string]bool{
	DocTypeFactura: true, DocTypeNotaCredito: true, DocTypeNotaDebito: true,
	DocTypeGuiaRemision: true, DocTypeComprobRetencion: true,
}

// =============================================================================
// Tabla 4 - Ambiente (campo ambiente de infoTributaria y de la clave de acceso)
// =============================================================================

const (
	AmbientePruebas    = "1" // Pruebas (celcer.sri.gob.ec)
	AmbienteProduccion = "2" // Producción (cel.sri.gob.ec)
)

// =============================================================================
// Tabla 2 - Tipo de emisión (campo tipoEmision)
// =============================================================================

const (
	EmisionNormal = "1" // Emisión normal
)

// =============================================================================
// Tabla 16/17 - Impuesto IVA: código de impuesto y códigos de tarifa
// (campos codigo y codigoPorcentaje de totalImpuesto / impuesto por detalle)
// =============================================================================

const (
	TaxCodeIVA  = "2" // IVA
	TaxCodeICE  = "3" // ICE
	TaxCodeIRBP = "5" // IRBPNR
)

// Códigos de tarifa IVA (codigoPorcentaje).
const (
	IVATarifaCero       = "0" // 0%
	IVATarifaDoce       = "2" // 12%
	IVATarifaCatorce    = "3" // 14%
	IVATarifaQuince     = "4" // 15%
	IVANoObjeto         = "6" // No objeto de impuesto
	IVAExento           = "7" // Exento de IVA
)

// ValidIVATarifaCodes códigos de tarifa IVA válidos en líneas y totales.
var ValidIVATarifaCodes = map[string]bool{
	IVATarifaCero: true, IVATarifaDoce: true, IVATarifaCatorce: true,
	IVATarifaQuince: true, IVANoObjeto: true, IVAExento: true,
}

// =============================================================================
// Tabla 24 - Formas de pago (campo formaPago de pagos)
// =============================================================================

const (
	PagoSinSistemaFinanciero = "01" // Sin utilización del sistema financiero (efectivo)
	PagoCompensacionDeudas   = "15" // Compensación de deudas
	PagoTarjetaDebito        = "16" // Tarjeta de débito
	PagoDineroElectronico    = "17" // Dinero electrónico
	PagoTarjetaPrepago       = "18" // Tarjeta prepago
	PagoTarjetaCredito       = "19" // Tarjeta de crédito
	PagoSistemaFinanciero    = "20" // Otros con utilización del sistema financiero
	PagoEndosoTitulos        = "21" // Endoso de títulos
)

// ValidPaymentMethodCodes formas de pago admitidas por el esquema.
var ValidPaymentMethodCodes = map[string]bool{
	PagoSinSistemaFinanciero: true, PagoCompensacionDeudas: true,
	PagoTarjetaDebito: true, PagoDineroElectronico: true,
	PagoTarjetaPrepago: true, PagoTarjetaCredito: true,
	PagoSistemaFinanciero: true, PagoEndosoTitulos: true,
}

// =============================================================================
// Estados devueltos por los web services del SRI
// =============================================================================

const (
	// Respuesta de recepción (RecepcionComprobantesOffline).
	RecepcionRecibida = "RECIBIDA"
	RecepcionDevuelta = "DEVUELTA"

	// Estados de autorización (AutorizacionComprobantesOffline).
	EstadoAutorizado   = "AUTORIZADO"
	EstadoNoAutorizado = "NO AUTORIZADO"
	EstadoEnProceso    = "EN PROCESO" // aún sin resolución: reintentar consulta
)
