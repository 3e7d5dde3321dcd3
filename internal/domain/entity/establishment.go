package entity

import "time"

// Establishment es un establecimiento del emisor (código de 3 dígitos, ej. "001").
type Establishment struct {
	ID        string
	TenantID  string
	Codigo    string // 3 dígitos
	Direccion string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EmissionPoint es un punto de emisión dentro de un establecimiento (ej. "002").
// CurrentInvoiceSequence es el siguiente secuencial a asignar; la reserva se
// hace con compare-and-set sobre esta columna para garantizar secuenciales
// únicos y sin huecos bajo concurrencia.
type EmissionPoint struct {
	ID                     string
	EstablishmentID        string
	TenantID               string
	Codigo                 string // 3 dígitos
	CurrentInvoiceSequence int64
	IsActive               bool
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// Serie devuelve estab+ptoEmi (6 dígitos) tal como va en la clave de acceso.
func (p *EmissionPoint) Serie(estabCodigo string) string {
	return estabCodigo + p.Codigo
}
