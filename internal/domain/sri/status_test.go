package sri_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/facturacion-sri/internal/domain"
	"github.com/jhoicas/facturacion-sri/internal/domain/entity"
	"github.com/jhoicas/facturacion-sri/internal/domain/sri"
)

var allStatuses = []string{
	entity.StatusDraft, entity.StatusSequenced, entity.StatusSigned,
	entity.StatusSubmitted, entity.StatusAuthorized, entity.StatusRejected,
	entity.StatusCanceled,
}

func TestCanTransition_CaminoFeliz(t *testing.T) {
	assert.True(t, sri.CanTransition(entity.StatusDraft, entity.StatusSequenced))
	assert.True(t, sri.CanTransition(entity.StatusSequenced, entity.StatusSigned))
	assert.True(t, sri.CanTransition(entity.StatusSigned, entity.StatusSubmitted))
	assert.True(t, sri.CanTransition(entity.StatusSubmitted, entity.StatusAuthorized))
	assert.True(t, sri.CanTransition(entity.StatusSubmitted, entity.StatusRejected))
}

// Nunca se llega a AUTHORIZED sin pasar por SIGNED y SUBMITTED: el único estado
// con transición a AUTHORIZED es SUBMITTED, y a SUBMITTED solo se llega desde
// SIGNED.
func TestCanTransition_AutorizadoSoloDesdeSubmitted(t *testing.T) {
	for _, from := range allStatuses {
		if from == entity.StatusSubmitted {
			continue
		}
		assert.False(t, sri.CanTransition(from, entity.StatusAuthorized),
			"no debe permitirse %s → AUTHORIZED", from)
	}
}

func TestCanTransition_AnulacionSoloDesdeAutorizada(t *testing.T) {
	for _, from := range allStatuses {
		want := from == entity.StatusAuthorized
		assert.Equal(t, want, sri.CanTransition(from, entity.StatusCanceled),
			"%s → CANCELED", from)
	}
}

func TestCanTransition_SinRetrocesos(t *testing.T) {
	// Una vez asignado el secuencial no se vuelve a DRAFT (el secuencial no se
	// libera jamás).
	for _, from := range allStatuses {
		assert.False(t, sri.CanTransition(from, entity.StatusDraft))
	}
	assert.False(t, sri.CanTransition(entity.StatusSigned, entity.StatusSequenced))
	assert.False(t, sri.CanTransition(entity.StatusSubmitted, entity.StatusSigned))
}

func TestTransition_Aplica(t *testing.T) {
	inv := &entity.Invoice{Status: entity.StatusDraft}
	assert.NoError(t, sri.Transition(inv, entity.StatusSequenced))
	assert.Equal(t, entity.StatusSequenced, inv.Status)
}

func TestTransition_RechazaYNoMuta(t *testing.T) {
	inv := &entity.Invoice{Status: entity.StatusDraft}
	err := sri.Transition(inv, entity.StatusAuthorized)
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
	assert.Equal(t, entity.StatusDraft, inv.Status, "el estado no debe cambiar en una transición inválida")
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, sri.IsTerminal(entity.StatusRejected))
	assert.True(t, sri.IsTerminal(entity.StatusCanceled))
	assert.False(t, sri.IsTerminal(entity.StatusAuthorized), "AUTHORIZED aún permite anulación")
	assert.False(t, sri.IsTerminal(entity.StatusDraft))
}

func TestValidStatus(t *testing.T) {
	for _, s := range allStatuses {
		assert.True(t, sri.ValidStatus(s))
	}
	assert.False(t, sri.ValidStatus("PENDING"))
	assert.False(t, sri.ValidStatus(""))
}
