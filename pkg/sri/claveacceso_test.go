package sri_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturacion-sri/pkg/sri"
)

// ──────────────────────────────────────────────────────────────────────────────
// Vectores de clave de acceso calculados a mano con el algoritmo módulo 11 del
// SRI (pesos 2..7 de derecha a izquierda; 11 → 0, 10 → 1). Si alguien altera la
// concatenación, el orden de los campos o la regla del verificador, estos tests
// fallan de inmediato.
// ──────────────────────────────────────────────────────────────────────────────

func fecha(d, m, y int) time.Time {
	return time.Date(y, time.Month(m), d, 10, 30, 0, 0, time.UTC)
}

func TestClaveAcceso_VectoresExactos(t *testing.T) {
	svc := sri.NewClaveAccesoService()

	cases := []struct {
		name     string
		params   sri.ClaveAccesoParams
		expected string
	}{
		{
			name: "factura base ambiente pruebas",
			params: sri.ClaveAccesoParams{
				FechaEmision: fecha(21, 4, 2025), TipoComprobante: "01",
				RUC: "1790012345001", Ambiente: "1", Serie: "001002",
				Secuencial: 42, CodigoNumerico: "12345678", TipoEmision: "1",
			},
			expected: "2104202501179001234500110010020000000421234567811",
		},
		{
			name: "mismos campos en ambiente producción",
			params: sri.ClaveAccesoParams{
				FechaEmision: fecha(21, 4, 2025), TipoComprobante: "01",
				RUC: "1790012345001", Ambiente: "2", Serie: "001002",
				Secuencial: 42, CodigoNumerico: "12345678", TipoEmision: "1",
			},
			expected: "2104202501179001234500120010020000000421234567811",
		},
		{
			name: "secuencial 1 con ceros a la izquierda",
			params: sri.ClaveAccesoParams{
				FechaEmision: fecha(1, 1, 2024), TipoComprobante: "01",
				RUC: "0992765432001", Ambiente: "1", Serie: "002001",
				Secuencial: 1, CodigoNumerico: "00000001", TipoEmision: "1",
			},
			expected: "0101202401099276543200110020010000000010000000114",
		},
		{
			name: "fin de año, secuencial grande",
			params: sri.ClaveAccesoParams{
				FechaEmision: fecha(31, 12, 2023), TipoComprobante: "01",
				RUC: "1712345678001", Ambiente: "2", Serie: "001001",
				Secuencial: 123456, CodigoNumerico: "87654321", TipoEmision: "1",
			},
			expected: "3112202301171234567800120010010001234568765432117",
		},
		{
			name: "nota de crédito (codDoc 04)",
			params: sri.ClaveAccesoParams{
				FechaEmision: fecha(15, 6, 2025), TipoComprobante: "04",
				RUC: "1790012345001", Ambiente: "1", Serie: "001002",
				Secuencial: 100, CodigoNumerico: "11111111", TipoEmision: "1",
			},
			expected: "1506202504179001234500110010020000001001111111113",
		},
		{
			name: "residuo 0: verificador 0 (regla 11 → 0)",
			params: sri.ClaveAccesoParams{
				FechaEmision: fecha(29, 2, 2024), TipoComprobante: "01",
				RUC: "0912345678001", Ambiente: "2", Serie: "003001",
				Secuencial: 999999, CodigoNumerico: "99999999", TipoEmision: "1",
			},
			expected: "2902202401091234567800120030010009999999999999910",
		},
		{
			name: "secuencial consecutivo produce clave distinta",
			params: sri.ClaveAccesoParams{
				FechaEmision: fecha(5, 8, 2026), TipoComprobante: "01",
				RUC: "1790012345001", Ambiente: "1", Serie: "001002",
				Secuencial: 43, CodigoNumerico: "12345678", TipoEmision: "1",
			},
			expected: "0508202601179001234500110010020000000431234567818",
		},
		{
			name: "código numérico consecutivo produce clave distinta",
			params: sri.ClaveAccesoParams{
				FechaEmision: fecha(21, 4, 2025), TipoComprobante: "01",
				RUC: "1790012345001", Ambiente: "1", Serie: "001002",
				Secuencial: 42, CodigoNumerico: "12345679", TipoEmision: "1",
			},
			expected: "2104202501179001234500110010020000000421234567919",
		},
		{
			name: "regla 11 → 0 con código numérico 00000001",
			params: sri.ClaveAccesoParams{
				FechaEmision: fecha(21, 4, 2025), TipoComprobante: "01",
				RUC: "1790012345001", Ambiente: "1", Serie: "001002",
				Secuencial: 42, CodigoNumerico: "00000001", TipoEmision: "1",
			},
			expected: "2104202501179001234500110010020000000420000000110",
		},
		{
			name: "regla 10 → 1 con código numérico 00000005",
			params: sri.ClaveAccesoParams{
				FechaEmision: fecha(21, 4, 2025), TipoComprobante: "01",
				RUC: "1790012345001", Ambiente: "1", Serie: "001002",
				Secuencial: 42, CodigoNumerico: "00000005", TipoEmision: "1",
			},
			expected: "2104202501179001234500110010020000000420000000511",
		},
		{
			name: "serie de otro punto de emisión",
			params: sri.ClaveAccesoParams{
				FechaEmision: fecha(10, 10, 2024), TipoComprobante: "01",
				RUC: "1790012345001", Ambiente: "2", Serie: "001002",
				Secuencial: 50, CodigoNumerico: "00000777", TipoEmision: "1",
			},
			expected: "1010202401179001234500120010020000000500000077716",
		},
		{
			name: "otro emisor, residuo 0",
			params: sri.ClaveAccesoParams{
				FechaEmision: fecha(17, 9, 2025), TipoComprobante: "01",
				RUC: "0190155722001", Ambiente: "1", Serie: "001001",
				Secuencial: 4521, CodigoNumerico: "74185296", TipoEmision: "1",
			},
			expected: "1709202501019015572200110010010000045217418529610",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clave, err := svc.Build(&tc.params)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, clave)
			assert.Len(t, clave, 49, "la clave de acceso debe tener 49 dígitos")
		})
	}
}

// TestClaveAcceso_Determinista verifica que dos llamadas con los mismos
// parámetros producen la misma clave (requisito para reintentos de firma).
func TestClaveAcceso_Determinista(t *testing.T) {
	svc := sri.NewClaveAccesoService()
	p := &sri.ClaveAccesoParams{
		FechaEmision: fecha(21, 4, 2025), TipoComprobante: "01",
		RUC: "1790012345001", Ambiente: "1", Serie: "001002",
		Secuencial: 42, CodigoNumerico: "12345678", TipoEmision: "1",
	}
	c1, err1 := svc.Build(p)
	c2, err2 := svc.Build(p)
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, c1, c2)
}

// TestClaveAcceso_FechaAfectaClave: la fecha de emisión es parte de la clave;
// re-firmar en otra fecha produce otra clave (escenario de certificado renovado).
func TestClaveAcceso_FechaAfectaClave(t *testing.T) {
	svc := sri.NewClaveAccesoService()
	p1 := &sri.ClaveAccesoParams{
		FechaEmision: fecha(21, 4, 2025), TipoComprobante: "01",
		RUC: "1790012345001", Ambiente: "1", Serie: "001002",
		Secuencial: 42, CodigoNumerico: "12345678", TipoEmision: "1",
	}
	p2 := *p1
	p2.FechaEmision = fecha(22, 4, 2025)

	c1, _ := svc.Build(p1)
	c2, _ := svc.Build(&p2)
	assert.NotEqual(t, c1, c2)
}

// ── Errores de validación ─────────────────────────────────────────────────────

func TestClaveAcceso_ErrorSiNilParams(t *testing.T) {
	_, err := sri.NewClaveAccesoService().Build(nil)
	assert.Error(t, err)
}

func TestClaveAcceso_ErrorSiRUCIncompleto(t *testing.T) {
	p := &sri.ClaveAccesoParams{
		FechaEmision: fecha(21, 4, 2025), TipoComprobante: "01",
		RUC: "179001234", Ambiente: "1", Serie: "001002",
		Secuencial: 42, CodigoNumerico: "12345678",
	}
	_, err := sri.NewClaveAccesoService().Build(p)
	assert.Error(t, err)
}

func TestClaveAcceso_ErrorSiAmbienteInvalido(t *testing.T) {
	p := &sri.ClaveAccesoParams{
		FechaEmision: fecha(21, 4, 2025), TipoComprobante: "01",
		RUC: "1790012345001", Ambiente: "3", Serie: "001002",
		Secuencial: 42, CodigoNumerico: "12345678",
	}
	_, err := sri.NewClaveAccesoService().Build(p)
	assert.Error(t, err)
}

func TestClaveAcceso_ErrorSiSecuencialFueraDeRango(t *testing.T) {
	p := &sri.ClaveAccesoParams{
		FechaEmision: fecha(21, 4, 2025), TipoComprobante: "01",
		RUC: "1790012345001", Ambiente: "1", Serie: "001002",
		Secuencial: 0, CodigoNumerico: "12345678",
	}
	_, err := sri.NewClaveAccesoService().Build(p)
	assert.Error(t, err)
}
