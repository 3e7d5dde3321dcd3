package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound       = errors.New("recurso no encontrado")
	ErrInvalidInput   = errors.New("entrada inválida")
	ErrDuplicate      = errors.New("recurso duplicado")
	ErrUnauthorized   = errors.New("no autorizado")
	ErrForbidden      = errors.New("acceso denegado")
	ErrConflict       = errors.New("conflicto con el estado actual")

	// Facturación electrónica SRI.
	ErrEmissionPointInactive = errors.New("punto de emisión inactivo")
	ErrAllocationConflict    = errors.New("conflicto reservando el secuencial, reintentos agotados")
	ErrInvalidTransition     = errors.New("transición de estado no permitida")
	ErrCertificateExpired    = errors.New("certificado de firma vencido o aún no vigente")
	ErrCertificateTenant     = errors.New("el certificado no corresponde al RUC del emisor")
	ErrCertPasswordInvalid   = errors.New("contraseña del certificado incorrecta")
	ErrCertMalformed         = errors.New("archivo de certificado corrupto o ilegible")
	ErrSriUnavailable        = errors.New("servicio del SRI no disponible")
	ErrMaxRetriesExceeded    = errors.New("reintentos contra el SRI agotados")
	ErrInvoiceNotCancelable  = errors.New("solo una factura autorizada puede anularse")
	ErrInvoiceBusy           = errors.New("la factura ya está siendo procesada")
)
