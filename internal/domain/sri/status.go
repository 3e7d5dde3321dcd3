// Package sri contiene las reglas de dominio del ciclo de emisión electrónica:
// máquina de estados de la factura y validación de composición de montos.
package sri

import (
	"fmt"

	"github.com/jhoicas/facturacion-sri/internal/domain"
	"github.com/jhoicas/facturacion-sri/internal/domain/entity"
)

// transitions define las transiciones permitidas del ciclo de vida.
// Los fallos de firma o de transporte NO cambian de estado: la factura queda
// donde está y el reintento retoma desde ahí con el mismo secuencial.
var transitions = map[string][]string{
	entity.StatusDraft:      {entity.StatusSequenced},
	entity.StatusSequenced:  {entity.StatusSigned},
	entity.StatusSigned:     {entity.StatusSubmitted, entity.StatusRejected},
	entity.StatusSubmitted:  {entity.StatusAuthorized, entity.StatusRejected},
	entity.StatusAuthorized: {entity.StatusCanceled},
	entity.StatusRejected:   {},
	entity.StatusCanceled:   {},
}

// CanTransition indica si el paso from → to está permitido.
func CanTransition(from, to string) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// Transition valida y aplica el cambio de estado sobre la factura.
// Devuelve ErrInvalidTransition sin tocar la entidad si el paso no es válido.
func Transition(inv *entity.Invoice, to string) error {
	if !CanTransition(inv.Status, to) {
		return fmt.Errorf("%w: %s → %s", domain.ErrInvalidTransition, inv.Status, to)
	}
	inv.Status = to
	return nil
}

// IsTerminal indica si desde el estado ya no hay transiciones posibles.
func IsTerminal(status string) bool {
	return len(transitions[status]) == 0
}

// ValidStatus indica si el string es un estado conocido.
func ValidStatus(status string) bool {
	_, ok := transitions[status]
	return ok
}
