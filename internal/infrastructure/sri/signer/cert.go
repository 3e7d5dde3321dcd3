// Carga y validación de certificados de firma (.p12, PKCS#12).

package signer

import (
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/pkcs12"

	"github.com/jhoicas/facturacion-sri/internal/domain"
)

// LoadFromP12 carga certificado y llave privada desde el contenido de un
// archivo .p12/.pfx. El password puede ser vacío si el archivo no está
// protegido. Devuelve domain.ErrCertPasswordInvalid o
// domain.ErrCertMalformed según la causa del fallo.
func LoadFromP12(data []byte, password string) (tls.Certificate, error) {
	priv, cert, err := pkcs12.Decode(data, password)
	if err != nil {
		return tls.Certificate{}, classifyP12Error(err)
	}
	// pkcs12.Decode devuelve un solo certificado; para el SRI basta la hoja.
	return tls.Certificate{
		Certificate: [][]byte{cert.Raw},
		PrivateKey:  priv,
		Leaf:        cert,
	}, nil
}

// classifyP12Error separa la contraseña incorrecta (la corrige el tenant
// reingresándola) del archivo corrupto (hay que volver a subir el .p12).
func classifyP12Error(err error) error {
	if errors.Is(err, pkcs12.ErrIncorrectPassword) {
		return fmt.Errorf("%w: decodificar p12: %v", domain.ErrCertPasswordInvalid, err)
	}
	return fmt.Errorf("%w: decodificar p12: %v", domain.ErrCertMalformed, err)
}

// CheckValidity verifica la ventana de vigencia del certificado en el instante
// dado. Devuelve domain.ErrCertificateExpired si está vencido o aún no es
// vigente; la verificación se hace ANTES de firmar para no quemar un
// secuencial con una firma que el SRI va a rechazar.
func CheckValidity(cert tls.Certificate, at time.Time) error {
	leaf, err := leafCertificate(cert)
	if err != nil {
		return err
	}
	if at.Before(leaf.NotBefore) {
		return fmt.Errorf("%w: vigente desde %s", domain.ErrCertificateExpired, leaf.NotBefore.Format("2006-01-02"))
	}
	if at.After(leaf.NotAfter) {
		return fmt.Errorf("%w: venció el %s", domain.ErrCertificateExpired, leaf.NotAfter.Format("2006-01-02"))
	}
	return nil
}

// CheckTenantRUC verifica que el certificado pertenezca al emisor: el RUC debe
// aparecer en el Subject (CN, SerialNumber u OU según la autoridad
// certificadora ecuatoriana).
func CheckTenantRUC(cert tls.Certificate, ruc string) error {
	leaf, err := leafCertificate(cert)
	if err != nil {
		return err
	}
	subject := leaf.Subject.String()
	if strings.Contains(subject, ruc) {
		return nil
	}
	// Algunas CA emiten con la cédula del representante (10 primeros dígitos).
	if len(ruc) == 13 && strings.Contains(subject, ruc[:10]) {
		return nil
	}
	return fmt.Errorf("%w: subject %q no contiene el RUC %s", domain.ErrCertificateTenant, subject, ruc)
}

func leafCertificate(cert tls.Certificate) (*x509.Certificate, error) {
	if cert.Leaf != nil {
		return cert.Leaf, nil
	}
	if len(cert.Certificate) == 0 {
		return nil, fmt.Errorf("certificado vacío")
	}
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return nil, fmt.Errorf("parsear certificado: %w", err)
	}
	return leaf, nil
}

// CertDigestAndIssuerSerial devuelve el digest SHA-256 del certificado
// (Base64), el issuer y el serial decimal para el bloque SigningCertificate.
func CertDigestAndIssuerSerial(cert *x509.Certificate) (digestB64 string, issuerName string, serial string) {
	h := sha256.Sum256(cert.Raw)
	digestB64 = base64.StdEncoding.EncodeToString(h[:])
	issuerName = cert.Issuer.String()
	serial = cert.SerialNumber.String()
	return digestB64, issuerName, serial
}
