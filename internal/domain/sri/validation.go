package sri

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/facturacion-sri/internal/domain/entity"
)

// tolerance admite diferencias de redondeo de hasta un centavo entre los montos
// declarados y los recalculados (los valores viajan con 2 decimales).
var tolerance = decimal.NewFromFloat(0.01)

// CompositionError acumula TODAS las inconsistencias de montos encontradas en
// la factura; el llamador ve la lista completa en un solo rechazo.
type CompositionError struct {
	Problems []string
}

func (e *CompositionError) Error() string {
	return "composición de factura inválida: " + strings.Join(e.Problems, "; ")
}

func (e *CompositionError) add(format string, args ...interface{}) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

// ValidateComposition verifica la coherencia aritmética de la factura antes de
// generar el XML:
//
//	por línea:  precioTotalSinImpuesto = cantidad × precioUnitario − descuento
//	cabecera:   totalSinImpuestos = Σ líneas, totalDescuento = Σ descuentos
//	impuestos:  cada bucket de totalConImpuestos = Σ de las líneas con ese
//	            codigoPorcentaje (base y valor)
//	total:      importeTotal = totalSinImpuestos + Σ impuestos + propina
//	pagos:      Σ formas de pago = importeTotal
//
// Devuelve nil o un *CompositionError con todos los problemas.
func ValidateComposition(inv *entity.Invoice, items []*entity.InvoiceItem, taxes []*entity.InvoiceTax, payments []*entity.InvoicePaymentMethod) error {
	cerr := &CompositionError{}

	if len(items) == 0 {
		cerr.add("la factura no tiene líneas de detalle")
		return cerr
	}

	sumSubtotales := decimal.Zero
	sumDescuentos := decimal.Zero
	type bucket struct {
		base  decimal.Decimal
		valor decimal.Decimal
	}
	buckets := map[string]*bucket{}

	for i, it := range items {
		if it.Cantidad.Sign() <= 0 {
			cerr.add("línea %d: cantidad debe ser positiva", i+1)
		}
		if it.PrecioUnitario.Sign() < 0 {
			cerr.add("línea %d: precio unitario negativo", i+1)
		}
		if it.Descuento.Sign() < 0 {
			cerr.add("línea %d: descuento negativo", i+1)
		}
		expected := it.Cantidad.Mul(it.PrecioUnitario).Sub(it.Descuento)
		if expected.Sub(it.PrecioTotalSinImpuesto).Abs().GreaterThan(tolerance) {
			cerr.add("línea %d: precioTotalSinImpuesto %s no coincide con cantidad×precio−descuento = %s",
				i+1, it.PrecioTotalSinImpuesto.StringFixed(2), expected.Round(2).StringFixed(2))
		}
		sumSubtotales = sumSubtotales.Add(it.PrecioTotalSinImpuesto)
		sumDescuentos = sumDescuentos.Add(it.Descuento)

		b := buckets[it.CodigoPorcentaje]
		if b == nil {
			b = &bucket{}
			buckets[it.CodigoPorcentaje] = b
		}
		b.base = b.base.Add(it.BaseImponible)
		b.valor = b.valor.Add(it.ValorImpuesto)
	}

	if sumSubtotales.Sub(inv.TotalSinImpuestos).Abs().GreaterThan(tolerance) {
		cerr.add("totalSinImpuestos %s no coincide con la suma de líneas %s",
			inv.TotalSinImpuestos.StringFixed(2), sumSubtotales.Round(2).StringFixed(2))
	}
	if sumDescuentos.Sub(inv.TotalDescuento).Abs().GreaterThan(tolerance) {
		cerr.add("totalDescuento %s no coincide con la suma de descuentos %s",
			inv.TotalDescuento.StringFixed(2), sumDescuentos.Round(2).StringFixed(2))
	}

	sumImpuestos := decimal.Zero
	seen := map[string]bool{}
	for _, tax := range taxes {
		seen[tax.CodigoPorcentaje] = true
		b := buckets[tax.CodigoPorcentaje]
		if b == nil {
			cerr.add("totalConImpuestos declara codigoPorcentaje %s sin líneas que lo usen", tax.CodigoPorcentaje)
			continue
		}
		if b.base.Sub(tax.BaseImponible).Abs().GreaterThan(tolerance) {
			cerr.add("impuesto %s: baseImponible %s no coincide con la suma de líneas %s",
				tax.CodigoPorcentaje, tax.BaseImponible.StringFixed(2), b.base.Round(2).StringFixed(2))
		}
		if b.valor.Sub(tax.Valor).Abs().GreaterThan(tolerance) {
			cerr.add("impuesto %s: valor %s no coincide con la suma de líneas %s",
				tax.CodigoPorcentaje, tax.Valor.StringFixed(2), b.valor.Round(2).StringFixed(2))
		}
		sumImpuestos = sumImpuestos.Add(tax.Valor)
	}
	for code := range buckets {
		if !seen[code] {
			cerr.add("las líneas usan codigoPorcentaje %s pero totalConImpuestos no lo declara", code)
		}
	}

	expectedTotal := inv.TotalSinImpuestos.Add(sumImpuestos).Add(inv.Propina)
	if expectedTotal.Sub(inv.ImporteTotal).Abs().GreaterThan(tolerance) {
		cerr.add("importeTotal %s no coincide con totalSinImpuestos+impuestos+propina = %s",
			inv.ImporteTotal.StringFixed(2), expectedTotal.Round(2).StringFixed(2))
	}

	if len(payments) == 0 {
		cerr.add("la factura no tiene formas de pago")
	} else {
		sumPagos := decimal.Zero
		for _, p := range payments {
			sumPagos = sumPagos.Add(p.Total)
		}
		if sumPagos.Sub(inv.ImporteTotal).Abs().GreaterThan(tolerance) {
			cerr.add("la suma de formas de pago %s no coincide con importeTotal %s",
				sumPagos.Round(2).StringFixed(2), inv.ImporteTotal.StringFixed(2))
		}
	}

	if len(cerr.Problems) > 0 {
		return cerr
	}
	return nil
}
