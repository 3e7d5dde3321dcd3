package entity

import "time"

// Tipos de identificación del comprador (Tabla 6 de la ficha técnica SRI).
const (
	IdentRUC          = "04"
	IdentCedula       = "05"
	IdentPasaporte    = "06"
	IdentConsumidorFinal = "07"
	IdentExterior     = "08"
)

// Client es el comprador (receptor del comprobante).
type Client struct {
	ID                 string
	TenantID           string
	TipoIdentificacion string // Tabla 6
	Identificacion     string
	RazonSocial        string
	Direccion          string
	Email              string
	Telefono           string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
