package sri

import (
	"github.com/jhoicas/facturacion-sri/internal/domain/entity"
)

// InvoiceBuildContext agrupa todos los datos necesarios para generar el XML
// del comprobante. El builder no consulta la base: todo llega armado.
type InvoiceBuildContext struct {
	Invoice       *entity.Invoice
	Tenant        *entity.Tenant
	Client        *entity.Client
	Establishment *entity.Establishment
	Items         []*entity.InvoiceItem
	Taxes         []*entity.InvoiceTax
	Payments      []*entity.InvoicePaymentMethod
	Ambiente      string // "1" pruebas, "2" producción
}
