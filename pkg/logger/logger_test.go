package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func logLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	return m
}

func TestNew_EmiteJSONConServicio(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Env: "production", Level: "info", Service: "facturacion-sri", Writer: &buf})

	log.Info().Str("k", "v").Msg("hola")

	m := logLine(t, &buf)
	assert.Equal(t, "facturacion-sri", m["service"])
	assert.Equal(t, "hola", m["message"])
	assert.Equal(t, "v", m["k"])
	assert.NotEmpty(t, m["time"])
}

func TestNew_RespetaNivel(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Env: "production", Level: "warn", Writer: &buf})

	log.Info().Msg("no debería salir")
	assert.Zero(t, buf.Len())

	log.Warn().Msg("sí sale")
	assert.NotZero(t, buf.Len())
}

func TestWithComprobante_AgregaCamposFijos(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Env: "production", Level: "info", Writer: &buf})

	log.WithComprobante("inv-1", "2104202501179001234500110010020000000421234567811").
		Info().Msg("comprobante firmado")

	m := logLine(t, &buf)
	assert.Equal(t, "inv-1", m["invoice_id"])
	assert.Equal(t, "2104202501179001234500110010020000000421234567811", m["clave_acceso"])
}

func TestWithComprobante_SinClaveOmiteElCampo(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Env: "production", Level: "info", Writer: &buf})

	log.WithComprobante("inv-1", "").Info().Msg("borrador creado")

	m := logLine(t, &buf)
	assert.Equal(t, "inv-1", m["invoice_id"])
	_, hasClave := m["clave_acceso"]
	assert.False(t, hasClave)
}

func TestParseLevel_DesconocidoCaeEnInfo(t *testing.T) {
	assert.Equal(t, parseLevel("info"), parseLevel("cualquiercosa"))
}
