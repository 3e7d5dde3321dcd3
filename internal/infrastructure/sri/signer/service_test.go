package signer

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/pkcs12"

	"github.com/jhoicas/facturacion-sri/internal/domain"
)

// testCertificate genera en memoria un certificado autofirmado con la ventana
// de vigencia y el CommonName indicados.
func testCertificate(t *testing.T, cn string, notBefore, notAfter time.Time) tls.Certificate {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(98765),
		Subject: pkix.Name{
			CommonName:   cn,
			Organization: []string{"Firmas Ecuador CA Test"},
		},
		NotBefore: notBefore,
		NotAfter:  notAfter,
		KeyUsage:  x509.KeyUsageDigitalSignature,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	leaf, err := x509.ParseCertificate(der)
	require.NoError(t, err)

	return tls.Certificate{
		Certificate: [][]byte{der},
		PrivateKey:  key,
		Leaf:        leaf,
	}
}

func vigente(t *testing.T) tls.Certificate {
	return testCertificate(t, "COMERCIALIZADORA ANDINA 1790012345001",
		time.Now().Add(-24*time.Hour), time.Now().Add(365*24*time.Hour))
}

const facturaSinFirma = `<?xml version="1.0" encoding="UTF-8"?>
<factura id="comprobante" version="1.1.0">
  <infoTributaria>
    <ambiente>1</ambiente>
    <claveAcceso>2104202501179001234500110010020000000421234567811</claveAcceso>
  </infoTributaria>
  <detalles>
    <detalle>
      <descripcion>Item</descripcion>
    </detalle>
  </detalles>
</factura>`

func TestSign_InyectaFirmaComoUltimoHijo(t *testing.T) {
	cert := vigente(t)
	out, err := NewDigitalSignatureService().Sign([]byte(facturaSinFirma), cert)
	require.NoError(t, err)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(out))
	root := doc.Root()
	require.NotNil(t, root)
	assert.Equal(t, "factura", root.Tag)

	children := root.ChildElements()
	require.NotEmpty(t, children)
	last := children[len(children)-1]
	assert.Equal(t, "Signature", stripPrefix(last.Tag))

	// El contenido original sigue presente.
	s := string(out)
	assert.Contains(t, s, "<claveAcceso>2104202501179001234500110010020000000421234567811</claveAcceso>")
	assert.Contains(t, s, `URI="#comprobante"`)
	assert.Contains(t, s, AlgRSASHA256)
	assert.Contains(t, s, "SigningTime")
	assert.Contains(t, s, "X509Certificate")
}

func TestSign_FirmaVerificable(t *testing.T) {
	cert := vigente(t)
	out, err := NewDigitalSignatureService().Sign([]byte(facturaSinFirma), cert)
	require.NoError(t, err)

	// SignatureValue y DigestValue no vacíos y en Base64 plausible.
	s := string(out)
	sigVal := between(s, "<ds:SignatureValue>", "</ds:SignatureValue>")
	require.NotEmpty(t, sigVal)
	assert.Greater(t, len(sigVal), 200, "firma RSA-2048 en Base64")
	digVal := between(s, "<ds:DigestValue>", "</ds:DigestValue>")
	assert.Len(t, digVal, 44, "SHA-256 en Base64")
}

func TestSign_ErrorXMLVacio(t *testing.T) {
	_, err := NewDigitalSignatureService().Sign(nil, vigente(t))
	assert.Error(t, err)
}

func TestSign_ErrorSinLlaveRSA(t *testing.T) {
	cert := vigente(t)
	cert.PrivateKey = nil
	_, err := NewDigitalSignatureService().Sign([]byte(facturaSinFirma), cert)
	assert.Error(t, err)
}

func TestCheckValidity_Vigente(t *testing.T) {
	assert.NoError(t, CheckValidity(vigente(t), time.Now()))
}

func TestCheckValidity_Vencido(t *testing.T) {
	cert := testCertificate(t, "X", time.Now().Add(-48*time.Hour), time.Now().Add(-24*time.Hour))
	err := CheckValidity(cert, time.Now())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCertificateExpired))
}

func TestCheckValidity_AunNoVigente(t *testing.T) {
	cert := testCertificate(t, "X", time.Now().Add(24*time.Hour), time.Now().Add(48*time.Hour))
	err := CheckValidity(cert, time.Now())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCertificateExpired))
}

func TestLoadFromP12_ArchivoCorrupto(t *testing.T) {
	_, err := LoadFromP12([]byte("esto no es un p12"), "clave")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCertMalformed))
	assert.False(t, errors.Is(err, domain.ErrCertPasswordInvalid))
}

// La contraseña incorrecta y el archivo corrupto son fallos distintos: el
// primero lo corrige el tenant reingresando la clave, el segundo exige volver
// a subir el .p12.
func TestClassifyP12Error(t *testing.T) {
	err := classifyP12Error(pkcs12.ErrIncorrectPassword)
	assert.True(t, errors.Is(err, domain.ErrCertPasswordInvalid))
	assert.False(t, errors.Is(err, domain.ErrCertMalformed))

	err = classifyP12Error(errors.New("asn1: structure error"))
	assert.True(t, errors.Is(err, domain.ErrCertMalformed))
}

func TestCheckTenantRUC(t *testing.T) {
	cert := vigente(t)
	assert.NoError(t, CheckTenantRUC(cert, "1790012345001"))

	err := CheckTenantRUC(cert, "0992765437001")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCertificateTenant))
}

func stripPrefix(tag string) string {
	if i := strings.IndexByte(tag, ':'); i >= 0 {
		return tag[i+1:]
	}
	return tag
}

func between(s, start, end string) string {
	i := strings.Index(s, start)
	if i < 0 {
		return ""
	}
	rest := s[i+len(start):]
	j := strings.Index(rest, end)
	if j < 0 {
		return ""
	}
	return rest[:j]
}
