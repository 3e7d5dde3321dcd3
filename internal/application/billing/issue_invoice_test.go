package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturacion-sri/internal/application/dto"
	"github.com/jhoicas/facturacion-sri/internal/domain"
	"github.com/jhoicas/facturacion-sri/internal/domain/entity"
	pkgsri "github.com/jhoicas/facturacion-sri/pkg/sri"
)

func newIssueFixture(t *testing.T) (*IssueInvoiceUseCase, *lifecycleFixture) {
	t.Helper()
	f := newLifecycleFixture(t)
	clientRepo := &fakeClientRepo{client: &entity.Client{
		ID: "cli-1", TenantID: "tenant-1",
		TipoIdentificacion: entity.IdentCedula,
		Identificacion:     "1712345678",
		RazonSocial:        "María Pérez",
		Email:              "maria@example.com",
	}}
	uc := NewIssueInvoiceUseCase(f.invRepo, clientRepo, f.pointRepo, f.orch)
	return uc, f
}

func facturaRequest() dto.CreateInvoiceRequest {
	return dto.CreateInvoiceRequest{
		ClientID:        "cli-1",
		EmissionPointID: "pe-1",
		Propina:         decimal.Zero,
		Items: []dto.InvoiceItemRequest{
			{
				CodigoPrincipal:  "PRD-001",
				Descripcion:      "Teclado mecánico",
				Cantidad:         decimal.NewFromInt(2),
				PrecioUnitario:   decimal.RequireFromString("45.00"),
				Descuento:        decimal.RequireFromString("10.00"),
				CodigoPorcentaje: pkgsri.IVATarifaQuince,
				Tarifa:           decimal.RequireFromString("15.00"),
			},
			{
				CodigoPrincipal:  "SRV-002",
				Descripcion:      "Instalación",
				Cantidad:         decimal.NewFromInt(1),
				PrecioUnitario:   decimal.RequireFromString("20.00"),
				Descuento:        decimal.Zero,
				CodigoPorcentaje: pkgsri.IVATarifaCero,
				Tarifa:           decimal.Zero,
			},
		},
		// 80.00*1.15 + 20.00 = 112.00
		Pagos: []dto.InvoicePagoRequest{
			{FormaPago: pkgsri.PagoSinSistemaFinanciero, Total: decimal.RequireFromString("112.00")},
		},
	}
}

func TestCreateInvoice_CalculaTotalesYProcesaEnBackground(t *testing.T) {
	uc, f := newIssueFixture(t)

	resp, err := uc.CreateInvoice(context.Background(), "tenant-1", facturaRequest())
	require.NoError(t, err)

	assert.Equal(t, "100.00", resp.TotalSinImpuestos.StringFixed(2))
	assert.Equal(t, "10.00", resp.TotalDescuento.StringFixed(2))
	assert.Equal(t, "112.00", resp.ImporteTotal.StringFixed(2))
	assert.Equal(t, "DOLAR", resp.Moneda)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, "12.00", resp.Items[0].ValorImpuesto.StringFixed(2))
	assert.Equal(t, "0.00", resp.Items[1].ValorImpuesto.StringFixed(2))

	// El pipeline corre en background hasta AUTHORIZED.
	require.Eventually(t, func() bool {
		inv, _ := f.invRepo.GetByID(context.Background(), "tenant-1", resp.ID)
		return inv != nil && inv.Status == entity.StatusAuthorized
	}, 5*time.Second, 10*time.Millisecond)

	inv, _ := f.invRepo.GetByID(context.Background(), "tenant-1", resp.ID)
	assert.Len(t, inv.ClaveAcceso, 49)
	assert.Len(t, inv.CodigoNumerico, 8)
}

func TestCreateInvoice_PagosNoCuadranRechaza(t *testing.T) {
	uc, _ := newIssueFixture(t)
	req := facturaRequest()
	req.Pagos[0].Total = decimal.RequireFromString("100.00") // debería ser 112.00

	_, err := uc.CreateInvoice(context.Background(), "tenant-1", req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	assert.Contains(t, err.Error(), "formas de pago")
}

func TestCreateInvoice_CodigoPorcentajeInvalido(t *testing.T) {
	uc, _ := newIssueFixture(t)
	req := facturaRequest()
	req.Items[0].CodigoPorcentaje = "99"

	_, err := uc.CreateInvoice(context.Background(), "tenant-1", req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestCreateInvoice_FormaPagoInvalida(t *testing.T) {
	uc, _ := newIssueFixture(t)
	req := facturaRequest()
	req.Pagos[0].FormaPago = "99"

	_, err := uc.CreateInvoice(context.Background(), "tenant-1", req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestCreateInvoice_SinLineas(t *testing.T) {
	uc, _ := newIssueFixture(t)
	req := facturaRequest()
	req.Items = nil

	_, err := uc.CreateInvoice(context.Background(), "tenant-1", req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestCreateInvoice_DescuentoMayorAlSubtotal(t *testing.T) {
	uc, _ := newIssueFixture(t)
	req := facturaRequest()
	req.Items[0].Descuento = decimal.RequireFromString("1000.00")

	_, err := uc.CreateInvoice(context.Background(), "tenant-1", req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestCreateInvoice_ClienteInexistente(t *testing.T) {
	uc, _ := newIssueFixture(t)
	req := facturaRequest()
	req.ClientID = "cli-999"

	_, err := uc.CreateInvoice(context.Background(), "tenant-1", req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
