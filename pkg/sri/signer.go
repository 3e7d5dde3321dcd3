package sri

import "crypto/tls"

// Signer firma el XML del comprobante y devuelve el XML con la firma envolvente
// añadida como último hijo del elemento raíz.
type Signer interface {
	// Sign toma el XML del comprobante (sin firma) y el certificado con llave
	// privada, y retorna el XML con el nodo ds:Signature incorporado.
	Sign(xmlBytes []byte, cert tls.Certificate) ([]byte, error)
}
