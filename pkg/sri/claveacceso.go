// Package sri: construcción de la clave de acceso (49 dígitos) según la Ficha
// Técnica de Comprobantes Electrónicos del SRI.
// Estructura: fecha(8) + codDoc(2) + RUC(13) + ambiente(1) + serie(6) +
// secuencial(9) + código numérico(8) + tipo emisión(1) + verificador módulo 11.

package sri

import (
	"fmt"
	"strings"
	"time"
)

// ClaveAccesoParams contiene los campos de la clave en el orden exigido por el SRI.
type ClaveAccesoParams struct {
	FechaEmision    time.Time // se codifica ddmmaaaa
	TipoComprobante string    // Tabla 3 (ej: "01" factura)
	RUC             string    // 13 dígitos del emisor
	Ambiente        string    // "1" pruebas, "2" producción
	Serie           string    // estab(3) + ptoEmi(3)
	Secuencial      int64     // se codifica con 9 dígitos
	CodigoNumerico  string    // 8 dígitos, fijado por el emisor
	TipoEmision     string    // "1" emisión normal
}

// ClaveAccesoService construye claves de acceso de forma determinista: los
// mismos parámetros producen siempre la misma clave (requisito para reintentos).
type ClaveAccesoService struct{}

// NewClaveAccesoService crea el servicio.
func NewClaveAccesoService() *ClaveAccesoService {
	return &ClaveAccesoService{}
}

// Build concatena los 48 dígitos y añade el verificador módulo 11.
// Función pura, sin E/S.
func (s *ClaveAccesoService) Build(p *ClaveAccesoParams) (string, error) {
	if p == nil {
		return "", fmt.Errorf("sri: ClaveAccesoParams es obligatorio")
	}
	if p.FechaEmision.IsZero() {
		return "", fmt.Errorf("sri: FechaEmision es obligatoria")
	}
	if !ValidDocumentTypeCodes[p.TipoComprobante] {
		return "", fmt.Errorf("sri: tipo de comprobante inválido: %q", p.TipoComprobante)
	}
	ruc := string(extractDigits(p.RUC))
	if len(ruc) != 13 {
		return "", fmt.Errorf("sri: el RUC de la clave debe tener 13 dígitos, se encontraron %d", len(ruc))
	}
	if p.Ambiente != AmbientePruebas && p.Ambiente != AmbienteProduccion {
		return "", fmt.Errorf("sri: ambiente inválido: %q (usar '1' o '2')", p.Ambiente)
	}
	serie := string(extractDigits(p.Serie))
	if len(serie) != 6 {
		return "", fmt.Errorf("sri: la serie debe tener 6 dígitos (estab+ptoEmi), se encontraron %d", len(serie))
	}
	if p.Secuencial < 1 || p.Secuencial > 999999999 {
		return "", fmt.Errorf("sri: secuencial fuera de rango: %d", p.Secuencial)
	}
	codigo := string(extractDigits(p.CodigoNumerico))
	if len(codigo) != 8 {
		return "", fmt.Errorf("sri: el código numérico debe tener 8 dígitos, se encontraron %d", len(codigo))
	}
	emision := p.TipoEmision
	if emision == "" {
		emision = EmisionNormal
	}

	var sb strings.Builder
	sb.Grow(49)
	sb.WriteString(p.FechaEmision.Format("02012006")) // ddmmaaaa
	sb.WriteString(p.TipoComprobante)
	sb.WriteString(ruc)
	sb.WriteString(p.Ambiente)
	sb.WriteString(serie)
	sb.WriteString(fmt.Sprintf("%09d", p.Secuencial))
	sb.WriteString(codigo)
	sb.WriteString(emision)

	base := sb.String()
	if len(base) != 48 {
		return "", fmt.Errorf("sri: clave base de longitud inesperada: %d", len(base))
	}
	return base + string(rune('0'+Modulo11(base))), nil
}

// Modulo11 calcula el dígito verificador de la clave de acceso: pesos 2..7
// cíclicos de derecha a izquierda; 11 - (suma mod 11), con 11 → 0 y 10 → 1
// (regla estándar del SRI).
func Modulo11(digits string) int {
	weight := 2
	sum := 0
	for i := len(digits) - 1; i >= 0; i-- {
		sum += int(digits[i]-'0') * weight
		weight++
		if weight > 7 {
			weight = 2
		}
	}
	switch d := 11 - sum%11; d {
	case 11:
		return 0
	case 10:
		return 1
	default:
		return d
	}
}
