// Package pdf implementa la generación del RIDE (Representación Impresa del
// Documento Electrónico) de la factura, según la Ficha Técnica del SRI.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Razón Social + RUC  │  N° Factura + Fecha emisión  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  AUTORIZACIÓN: número, fecha, ambiente                       │
//	│  CLAVE DE ACCESO: texto + código de barras Code 128          │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RECEPTOR: razón social + identificación + contacto          │
//	│  TABLA: Cant | Descripción | P.Unit | Desc. | IVA% | Subtot  │
//	│  TOTALES: Subtotal / Descuento / IVA / Propina / TOTAL       │
//	│  LEYENDA legal                                               │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/facturacion-sri/internal/application/billing"
	"github.com/jhoicas/facturacion-sri/internal/domain/entity"
	pkgsri "github.com/jhoicas/facturacion-sri/pkg/sri"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoRideGenerator implementa billing.RideGenerator usando Maroto v2.
type MarotoRideGenerator struct{}

// NewMarotoRideGenerator construye el generador.
func NewMarotoRideGenerator() *MarotoRideGenerator { return &MarotoRideGenerator{} }

// GenerateRIDE genera el PDF del RIDE y devuelve sus bytes.
func (g *MarotoRideGenerator) GenerateRIDE(_ context.Context, data *billing.RideData) ([]byte, error) {
	if data == nil || data.Invoice == nil || data.Tenant == nil || data.Client == nil {
		return nil, fmt.Errorf("pdf: faltan invoice, tenant o client para el RIDE")
	}

	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Factura Electrónica SRI", true).
		WithAuthor(data.Tenant.RazonSocial, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(data.Invoice, data.Tenant))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(autorizacionRow(data.Invoice, data.Ambiente))
	for _, r := range claveAccesoRows(data.Invoice) {
		m.AddRows(r)
	}
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(receptorRow(data.Client))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	for _, r := range tableDetailRows(data.Items) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(data.Invoice, data.Taxes))

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(leyendaRow())

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar RIDE: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: razón social + RUC (izq) y N° de factura + fecha de emisión (der).
func headerRow(inv *entity.Invoice, tenant *entity.Tenant) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New(tenant.RazonSocial, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("RUC: "+tenant.RUC, props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("FACTURA", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New(inv.NumeroCompleto(), props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Fecha emisión: "+inv.FechaEmision.Format("02/01/2006"), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

// autorizacionRow: número y fecha de autorización + ambiente.
func autorizacionRow(inv *entity.Invoice, ambiente string) core.Row {
	fechaAut := "—"
	if !inv.FechaAutorizacion.IsZero() {
		fechaAut = inv.FechaAutorizacion.Format("02/01/2006 15:04:05")
	}
	return row.New(14).Add(
		col.New(12).Add(
			text.New("AUTORIZACIÓN SRI", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New("Número: "+nonEmpty(inv.NumeroAutorizacion, "—"), props.Text{
				Size: 7.5, Top: 6, Color: colorGray,
			}),
			text.New(fmt.Sprintf("Fecha: %s   |   Ambiente: %s", fechaAut, ambienteLabel(ambiente)), props.Text{
				Size: 7.5, Top: 10, Color: colorGray,
			}),
		),
	)
}

// claveAccesoRows: clave de acceso en texto + código de barras Code 128.
func claveAccesoRows(inv *entity.Invoice) []core.Row {
	rows := []core.Row{
		row.New(5).Add(col.New(12).Add(
			text.New("CLAVE DE ACCESO:", props.Text{
				Style: fontstyle.Bold, Size: 7, Top: 1,
			}),
		)),
		row.New(4).Add(col.New(12).Add(
			text.New(inv.ClaveAcceso, props.Text{Size: 7, Color: colorGray, Top: 0.5, Left: 2}),
		)),
	}
	if inv.ClaveAcceso != "" {
		rows = append(rows, row.New(14).Add(
			col.New(2),
			col.New(8).Add(code.NewBar(inv.ClaveAcceso, props.Barcode{
				Percent: 95,
				Center:  true,
			})),
			col.New(2),
		))
	}
	return rows
}

// receptorRow: datos del comprador.
func receptorRow(client *entity.Client) core.Row {
	return row.New(14).Add(
		col.New(12).Add(
			text.New("RECEPTOR / COMPRADOR", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(client.RazonSocial, props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 6,
			}),
			text.New(fmt.Sprintf("Identificación: %s   |   Email: %s   |   Tel: %s",
				client.Identificacion,
				nonEmpty(client.Email, "—"),
				nonEmpty(client.Telefono, "—"),
			), props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
	)
}

// tableHeaderRow: cabecera de la tabla de detalles.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Cant.", 1, align.Center),
		h("Descripción", 5, align.Left),
		h("P. Unit.", 2, align.Right),
		h("Desc.", 1, align.Right),
		h("IVA%", 1, align.Center),
		h("Subtotal", 2, align.Right),
	)
}

// tableDetailRows: una fila por línea de detalle.
func tableDetailRows(items []*entity.InvoiceItem) []core.Row {
	result := make([]core.Row, 0, len(items))
	for _, it := range items {
		result = append(result, row.New(7).Add(
			col.New(1).Add(text.New(
				it.Cantidad.String(),
				props.Text{Size: 8, Align: align.Center, Top: 1},
			)),
			col.New(5).Add(text.New(
				it.Descripcion,
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(2).Add(text.New(
				"$"+it.PrecioUnitario.StringFixed(2),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(1).Add(text.New(
				"$"+it.Descuento.StringFixed(2),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(1).Add(text.New(
				it.Tarifa.StringFixed(0)+"%",
				props.Text{Size: 8, Align: align.Center, Top: 1},
			)),
			col.New(2).Add(text.New(
				"$"+it.PrecioTotalSinImpuesto.StringFixed(2),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
		))
	}
	return result
}

// totalsRow: bloque de totales alineado a la derecha, con el IVA desglosado
// por tarifa.
func totalsRow(inv *entity.Invoice, taxes []*entity.InvoiceTax) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2,
		})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1})
	}
	grandLabel := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right,
			Color: colorPrimary, Right: 2,
		})
	}
	grandValue := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right,
			Color: colorPrimary, Right: 1,
		})
	}

	labels := []core.Component{
		label("Subtotal sin impuestos:"),
		label("Descuento:"),
	}
	values := []core.Component{
		value("$" + inv.TotalSinImpuestos.StringFixed(2)),
		value("$" + inv.TotalDescuento.StringFixed(2)),
	}
	for _, tax := range taxes {
		labels = append(labels, label(fmt.Sprintf("IVA %s%%:", tax.Tarifa.StringFixed(0))))
		values = append(values, value("$"+tax.Valor.StringFixed(2)))
	}
	if inv.Propina.Sign() > 0 {
		labels = append(labels, label("Propina:"))
		values = append(values, value("$"+inv.Propina.StringFixed(2)))
	}
	labels = append(labels, grandLabel("VALOR TOTAL:"))
	values = append(values, grandValue("$"+inv.ImporteTotal.StringFixed(2)))

	height := float64(8 + 5*len(labels))
	return row.New(height).Add(
		col.New(3),
		col.New(4).Add(labels...),
		col.New(3).Add(values...),
		col.New(2),
	)
}

// leyendaRow: leyenda legal del pie.
func leyendaRow() core.Row {
	return row.New(8).Add(col.New(12).Add(
		text.New(
			"Documento generado conforme a la Ficha Técnica de Comprobantes "+
				"Electrónicos del SRI (esquema factura v1.1.0). "+
				"Conserve este documento como soporte tributario.",
			props.Text{Size: 6.5, Color: colorGray, Top: 2},
		),
	))
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

func ambienteLabel(ambiente string) string {
	if ambiente == pkgsri.AmbienteProduccion {
		return "PRODUCCIÓN"
	}
	return "PRUEBAS"
}

var _ billing.RideGenerator = (*MarotoRideGenerator)(nil)
