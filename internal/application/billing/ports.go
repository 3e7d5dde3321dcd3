package billing

import (
	"context"
	"crypto/tls"

	"github.com/jhoicas/facturacion-sri/internal/domain/entity"
	"github.com/jhoicas/facturacion-sri/internal/domain/repository"
)

// FacturacionTxRunner ejecuta una función dentro de una transacción con los
// repos de facturación atados a ella.
type FacturacionTxRunner interface {
	RunFacturacion(ctx context.Context, fn func(
		invoiceRepo repository.InvoiceRepository,
		pointRepo repository.EmissionPointRepository,
	) error) error
}

// CertificateLoader resuelve el certificado de firma del tenant (archivo
// local o descarga), ya verificado contra su RUC.
type CertificateLoader interface {
	Load(ctx context.Context, tenant *entity.Tenant, cfg *entity.SRIConfiguration) (tls.Certificate, error)
}

// ArtifactStore persiste los artefactos generados (XML firmado, RIDE) y
// devuelve ruta local y URL pública.
type ArtifactStore interface {
	SaveXML(claveAcceso string, data []byte) (path, url string, err error)
	// ReadXML relee el XML firmado guardado para una clave de acceso (el
	// reenvío a recepción usa exactamente los bytes firmados).
	ReadXML(claveAcceso string) ([]byte, error)
	SaveRIDE(claveAcceso string, data []byte) (path, url string, err error)
}

// RideData agrupa los datos para la representación impresa (RIDE).
type RideData struct {
	Invoice  *entity.Invoice
	Tenant   *entity.Tenant
	Client   *entity.Client
	Items    []*entity.InvoiceItem
	Taxes    []*entity.InvoiceTax
	Ambiente string
}

// RideGenerator genera el PDF del RIDE.
type RideGenerator interface {
	GenerateRIDE(ctx context.Context, data *RideData) ([]byte, error)
}
