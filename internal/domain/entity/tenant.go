package entity

import "time"

// Tenant representa un emisor (empresa) de comprobantes electrónicos.
// Todos los datos fiscales del bloque <infoTributaria> salen de aquí.
type Tenant struct {
	ID                   string
	RUC                  string // 13 dígitos
	RazonSocial          string
	NombreComercial      string
	DireccionMatriz      string
	ContribuyenteEspecial string // número de resolución; vacío si no aplica
	ObligadoContabilidad bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// SRIConfiguration parámetros de emisión por tenant: ambiente y certificado
// de firma. La contraseña del .p12 se guarda cifrada en la base.
type SRIConfiguration struct {
	TenantID     string
	Ambiente     string // "1" pruebas, "2" producción
	CertPath     string // ruta local al .p12; vacío si se usa CertURL
	CertURL      string // URL de descarga del .p12 (almacenamiento remoto)
	CertPassword string
	UpdatedAt    time.Time
}
