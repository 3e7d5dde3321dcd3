package sri

import (
	"fmt"
	"unicode"
)

// Coeficientes para el dígito verificador de sociedades privadas (módulo 11,
// sobre los 9 primeros dígitos del RUC) y de entidades públicas (sobre 8).
var (
	privateWeights = [9]int{4, 3, 2, 7, 6, 5, 4, 3, 2}
	publicWeights  = [8]int{3, 2, 7, 6, 5, 4, 3, 2}
)

// ValidateRUC valida un RUC ecuatoriano de 13 dígitos: provincia (01-24 o 30),
// dígito verificador según el tipo de contribuyente (tercer dígito) y sufijo de
// establecimiento distinto de 000. Acepta el RUC con o sin separadores.
func ValidateRUC(ruc string) error {
	digits := extractDigits(ruc)
	if len(digits) != 13 {
		return fmt.Errorf("sri: el RUC debe tener 13 dígitos, se encontraron %d", len(digits))
	}
	prov := int(digits[0]-'0')*10 + int(digits[1]-'0')
	if (prov < 1 || prov > 24) && prov != 30 {
		return fmt.Errorf("sri: código de provincia inválido en el RUC: %02d", prov)
	}
	if string(digits[10:13]) == "000" {
		return fmt.Errorf("sri: el sufijo de establecimiento del RUC no puede ser 000")
	}

	third := digits[2] - '0'
	switch {
	case third < 6:
		// Persona natural: cédula en los 10 primeros dígitos (módulo 10).
		if err := validateCedulaDigits(digits[:10]); err != nil {
			return err
		}
	case third == 9:
		// Sociedad privada: módulo 11 sobre 9 dígitos, verificador en el décimo.
		expected, err := modulo11Digit(digits[:9], privateWeights[:])
		if err != nil {
			return err
		}
		if digits[9] != expected {
			return fmt.Errorf("sri: dígito verificador del RUC inválido: esperado %c, recibido %c", expected, digits[9])
		}
	case third == 6:
		// Entidad pública: módulo 11 sobre 8 dígitos, verificador en el noveno.
		expected, err := modulo11Digit(digits[:8], publicWeights[:])
		if err != nil {
			return err
		}
		if digits[8] != expected {
			return fmt.Errorf("sri: dígito verificador del RUC público inválido: esperado %c, recibido %c", expected, digits[8])
		}
	default:
		return fmt.Errorf("sri: tercer dígito del RUC inválido: %c", digits[2])
	}
	return nil
}

// ValidateCedula valida una cédula de identidad de 10 dígitos (módulo 10).
func ValidateCedula(cedula string) error {
	digits := extractDigits(cedula)
	if len(digits) != 10 {
		return fmt.Errorf("sri: la cédula debe tener 10 dígitos, se encontraron %d", len(digits))
	}
	return validateCedulaDigits(digits)
}

// validateCedulaDigits aplica el módulo 10 con coeficientes 2,1,2,1,... sobre
// los 9 primeros dígitos; a los productos mayores a 9 se les resta 9.
func validateCedulaDigits(digits []byte) error {
	var sum int
	for i := 0; i < 9; i++ {
		p := int(digits[i] - '0')
		if i%2 == 0 {
			p *= 2
			if p > 9 {
				p -= 9
			}
		}
		sum += p
	}
	expected := byte('0' + (10-sum%10)%10)
	if digits[9] != expected {
		return fmt.Errorf("sri: dígito verificador de cédula inválido: esperado %c, recibido %c", expected, digits[9])
	}
	return nil
}

// modulo11Digit calcula el verificador módulo 11 con los pesos dados.
// Resultado 11 equivale a 0; resultado 10 invalida el número.
func modulo11Digit(digits []byte, weights []int) (byte, error) {
	var sum int
	for i, d := range digits {
		sum += int(d-'0') * weights[i]
	}
	m := 11 - sum%11
	switch m {
	case 11:
		return '0', nil
	case 10:
		return 0, fmt.Errorf("sri: número sin dígito verificador válido (módulo 11 = 10)")
	default:
		return byte('0' + m), nil
	}
}

func extractDigits(s string) []byte {
	var out []byte
	for _, r := range s {
		if unicode.IsDigit(r) {
			out = append(out, byte(r))
		}
	}
	return out
}
