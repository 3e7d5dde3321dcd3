package sri

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/jhoicas/facturacion-sri/internal/domain/entity"
	domainsri "github.com/jhoicas/facturacion-sri/internal/domain/sri"
	pkgsri "github.com/jhoicas/facturacion-sri/pkg/sri"
)

// Versión del esquema factura soportada (Ficha Técnica SRI).
const FacturaVersion = "1.1.0"

// ── Estructuras del esquema factura v1.1.0 ────────────────────────────────────

type facturaXML struct {
	XMLName        xml.Name          `xml:"factura"`
	ID             string            `xml:"id,attr"`
	Version        string            `xml:"version,attr"`
	InfoTributaria infoTributariaXML `xml:"infoTributaria"`
	InfoFactura    infoFacturaXML    `xml:"infoFactura"`
	Detalles       detallesXML       `xml:"detalles"`
	InfoAdicional  *infoAdicionalXML `xml:"infoAdicional,omitempty"`
}

type infoTributariaXML struct {
	Ambiente        string `xml:"ambiente"`
	TipoEmision     string `xml:"tipoEmision"`
	RazonSocial     string `xml:"razonSocial"`
	NombreComercial string `xml:"nombreComercial,omitempty"`
	RUC             string `xml:"ruc"`
	ClaveAcceso     string `xml:"claveAcceso"`
	CodDoc          string `xml:"codDoc"`
	Estab           string `xml:"estab"`
	PtoEmi          string `xml:"ptoEmi"`
	Secuencial      string `xml:"secuencial"`
	DirMatriz       string `xml:"dirMatriz"`
}

type infoFacturaXML struct {
	FechaEmision          string           `xml:"fechaEmision"` // dd/mm/aaaa
	DirEstablecimiento    string           `xml:"dirEstablecimiento,omitempty"`
	ContribuyenteEspecial string           `xml:"contribuyenteEspecial,omitempty"`
	ObligadoContabilidad  string           `xml:"obligadoContabilidad"` // SI | NO
	TipoIdentComprador    string           `xml:"tipoIdentificacionComprador"`
	RazonSocialComprador  string           `xml:"razonSocialComprador"`
	IdentComprador        string           `xml:"identificacionComprador"`
	DireccionComprador    string           `xml:"direccionComprador,omitempty"`
	TotalSinImpuestos     string           `xml:"totalSinImpuestos"`
	TotalDescuento        string           `xml:"totalDescuento"`
	TotalConImpuestos     totalImpuestosXML `xml:"totalConImpuestos"`
	Propina               string           `xml:"propina"`
	ImporteTotal          string           `xml:"importeTotal"`
	Moneda                string           `xml:"moneda"`
	Pagos                 pagosXML         `xml:"pagos"`
}

type totalImpuestosXML struct {
	TotalImpuesto []totalImpuestoXML `xml:"totalImpuesto"`
}

type totalImpuestoXML struct {
	Codigo           string `xml:"codigo"`
	CodigoPorcentaje string `xml:"codigoPorcentaje"`
	BaseImponible    string `xml:"baseImponible"`
	Valor            string `xml:"valor"`
}

type pagosXML struct {
	Pago []pagoXML `xml:"pago"`
}

type pagoXML struct {
	FormaPago    string `xml:"formaPago"`
	Total        string `xml:"total"`
	Plazo        string `xml:"plazo,omitempty"`
	UnidadTiempo string `xml:"unidadTiempo,omitempty"`
}

type detallesXML struct {
	Detalle []detalleXML `xml:"detalle"`
}

type detalleXML struct {
	CodigoPrincipal        string       `xml:"codigoPrincipal"`
	CodigoAuxiliar         string       `xml:"codigoAuxiliar,omitempty"`
	Descripcion            string       `xml:"descripcion"`
	Cantidad               string       `xml:"cantidad"`
	PrecioUnitario         string       `xml:"precioUnitario"`
	Descuento              string       `xml:"descuento"`
	PrecioTotalSinImpuesto string       `xml:"precioTotalSinImpuesto"`
	Impuestos              impuestosXML `xml:"impuestos"`
}

type impuestosXML struct {
	Impuesto []impuestoXML `xml:"impuesto"`
}

type impuestoXML struct {
	Codigo           string `xml:"codigo"`
	CodigoPorcentaje string `xml:"codigoPorcentaje"`
	Tarifa           string `xml:"tarifa"`
	BaseImponible    string `xml:"baseImponible"`
	Valor            string `xml:"valor"`
}

type infoAdicionalXML struct {
	CampoAdicional []campoAdicionalXML `xml:"campoAdicional"`
}

type campoAdicionalXML struct {
	Nombre string `xml:"nombre,attr"`
	Valor  string `xml:",chardata"`
}

// ── Builder ───────────────────────────────────────────────────────────────────

// XMLBuilderService construye el XML de la factura (sin firma XAdES) según el
// esquema factura v1.1.0 del SRI. Todos los montos se serializan con 2
// decimales.
type XMLBuilderService struct{}

// NewXMLBuilderService crea el servicio.
func NewXMLBuilderService() *XMLBuilderService {
	return &XMLBuilderService{}
}

// Build genera el []byte del comprobante con declaración XML y UTF-8.
func (s *XMLBuilderService) Build(ctx *InvoiceBuildContext) ([]byte, error) {
	if ctx == nil || ctx.Invoice == nil || ctx.Tenant == nil || ctx.Client == nil {
		return nil, fmt.Errorf("sri: faltan invoice, tenant o client en el contexto")
	}
	inv := ctx.Invoice
	if inv.ClaveAcceso == "" {
		return nil, fmt.Errorf("sri: la factura no tiene clave de acceso (¿falta reservar secuencial?)")
	}
	if len(ctx.Items) == 0 {
		return nil, fmt.Errorf("sri: la factura no tiene líneas de detalle")
	}
	// Los totales pudieron cambiar entre el borrador y la emisión; se
	// revalida la aritmética completa antes de serializar. Un comprobante
	// inconsistente nunca debe llegar a la firma.
	if err := domainsri.ValidateComposition(inv, ctx.Items, ctx.Taxes, ctx.Payments); err != nil {
		return nil, err
	}

	obligado := "NO"
	if ctx.Tenant.ObligadoContabilidad {
		obligado = "SI"
	}

	doc := facturaXML{
		ID:      "comprobante",
		Version: FacturaVersion,
		InfoTributaria: infoTributariaXML{
			Ambiente:        ctx.Ambiente,
			TipoEmision:     pkgsri.EmisionNormal,
			RazonSocial:     sanitize(ctx.Tenant.RazonSocial),
			NombreComercial: sanitize(ctx.Tenant.NombreComercial),
			RUC:             ctx.Tenant.RUC,
			ClaveAcceso:     inv.ClaveAcceso,
			CodDoc:          pkgsri.DocTypeFactura,
			Estab:           inv.Estab,
			PtoEmi:          inv.PtoEmi,
			Secuencial:      fmt.Sprintf("%09d", inv.Secuencial),
			DirMatriz:       sanitize(ctx.Tenant.DireccionMatriz),
		},
		InfoFactura: infoFacturaXML{
			FechaEmision:          inv.FechaEmision.Format("02/01/2006"),
			DirEstablecimiento:    establishmentDir(ctx),
			ContribuyenteEspecial: ctx.Tenant.ContribuyenteEspecial,
			ObligadoContabilidad:  obligado,
			TipoIdentComprador:    ctx.Client.TipoIdentificacion,
			RazonSocialComprador:  sanitize(ctx.Client.RazonSocial),
			IdentComprador:        ctx.Client.Identificacion,
			DireccionComprador:    sanitize(ctx.Client.Direccion),
			TotalSinImpuestos:     amount(inv.TotalSinImpuestos),
			TotalDescuento:        amount(inv.TotalDescuento),
			Propina:               amount(inv.Propina),
			ImporteTotal:          amount(inv.ImporteTotal),
			Moneda:                moneda(inv.Moneda),
		},
	}

	for _, tax := range ctx.Taxes {
		doc.InfoFactura.TotalConImpuestos.TotalImpuesto = append(doc.InfoFactura.TotalConImpuestos.TotalImpuesto, totalImpuestoXML{
			Codigo:           tax.Codigo,
			CodigoPorcentaje: tax.CodigoPorcentaje,
			BaseImponible:    amount(tax.BaseImponible),
			Valor:            amount(tax.Valor),
		})
	}

	for _, p := range ctx.Payments {
		pago := pagoXML{FormaPago: p.FormaPago, Total: amount(p.Total)}
		if p.Plazo.Sign() > 0 {
			pago.Plazo = p.Plazo.Round(0).String()
			pago.UnidadTiempo = p.UnidadTiempo
		}
		doc.InfoFactura.Pagos.Pago = append(doc.InfoFactura.Pagos.Pago, pago)
	}

	for _, it := range ctx.Items {
		doc.Detalles.Detalle = append(doc.Detalles.Detalle, detalleXML{
			CodigoPrincipal:        it.CodigoPrincipal,
			CodigoAuxiliar:         it.CodigoAuxiliar,
			Descripcion:            sanitize(it.Descripcion),
			Cantidad:               quantity(it.Cantidad),
			PrecioUnitario:         amount(it.PrecioUnitario),
			Descuento:              amount(it.Descuento),
			PrecioTotalSinImpuesto: amount(it.PrecioTotalSinImpuesto),
			Impuestos: impuestosXML{
				Impuesto: []impuestoXML{{
					Codigo:           pkgsri.TaxCodeIVA,
					CodigoPorcentaje: it.CodigoPorcentaje,
					Tarifa:           amount(it.Tarifa),
					BaseImponible:    amount(it.BaseImponible),
					Valor:            amount(it.ValorImpuesto),
				}},
			},
		})
	}

	if adicional := buildInfoAdicional(ctx.Client); adicional != nil {
		doc.InfoAdicional = adicional
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("sri: serializar factura: %w", err)
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func establishmentDir(ctx *InvoiceBuildContext) string {
	if ctx.Establishment != nil && ctx.Establishment.Direccion != "" {
		return sanitize(ctx.Establishment.Direccion)
	}
	return sanitize(ctx.Tenant.DireccionMatriz)
}

// buildInfoAdicional añade email y teléfono del comprador si existen (el SRI
// los usa para notificaciones).
func buildInfoAdicional(c *entity.Client) *infoAdicionalXML {
	var campos []campoAdicionalXML
	if c.Email != "" {
		campos = append(campos, campoAdicionalXML{Nombre: "email", Valor: c.Email})
	}
	if c.Telefono != "" {
		campos = append(campos, campoAdicionalXML{Nombre: "telefono", Valor: c.Telefono})
	}
	if len(campos) == 0 {
		return nil
	}
	return &infoAdicionalXML{CampoAdicional: campos}
}

// amount serializa un monto con exactamente 2 decimales.
func amount(d decimal.Decimal) string {
	return d.Round(2).StringFixed(2)
}

// quantity serializa cantidades con hasta 6 decimales sin ceros de relleno.
func quantity(d decimal.Decimal) string {
	return d.Round(6).String()
}

func moneda(m string) string {
	if m == "" {
		return "DOLAR"
	}
	return m
}

// sanitize normaliza texto para el XML: pliega diacríticos (á → a; el
// validador del SRI rechaza ciertos caracteres fuera de ASCII) y elimina
// caracteres de control.
func sanitize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	clean := make([]rune, 0, len(out))
	for _, r := range out {
		if unicode.IsControl(r) {
			continue
		}
		clean = append(clean, r)
	}
	return string(clean)
}
