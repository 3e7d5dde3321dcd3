// Package storage implementa el almacenamiento de artefactos generados por el
// pipeline de facturación (XML firmado y RIDE) sobre disco local.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jhoicas/facturacion-sri/internal/application/billing"
)

// LocalStore guarda los artefactos bajo un directorio raíz:
//
//	<dir>/xml/<claveAcceso>.xml
//	<dir>/ride/<claveAcceso>.pdf
//
// La clave de acceso es única por comprobante, así que sirve de nombre de
// archivo sin riesgo de colisión. baseURL (opcional) es el prefijo público
// bajo el cual un proxy o CDN expone el directorio.
type LocalStore struct {
	dir     string
	baseURL string
}

// NewLocalStore crea el store y asegura los subdirectorios.
func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	for _, sub := range []string{"xml", "ride"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("storage: crear %s: %w", filepath.Join(dir, sub), err)
		}
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// SaveXML guarda el XML firmado y devuelve ruta local y URL pública.
func (s *LocalStore) SaveXML(claveAcceso string, data []byte) (string, string, error) {
	return s.save("xml", claveAcceso+".xml", data)
}

// ReadXML relee el XML firmado de una clave de acceso.
func (s *LocalStore) ReadXML(claveAcceso string) ([]byte, error) {
	path := filepath.Join(s.dir, "xml", claveAcceso+".xml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("storage: leer %s: %w", path, err)
	}
	return data, nil
}

// SaveRIDE guarda el PDF del RIDE y devuelve ruta local y URL pública.
func (s *LocalStore) SaveRIDE(claveAcceso string, data []byte) (string, string, error) {
	return s.save("ride", claveAcceso+".pdf", data)
}

func (s *LocalStore) save(sub, name string, data []byte) (string, string, error) {
	path := filepath.Join(s.dir, sub, name)
	// Escritura a temporal + rename: nunca queda un artefacto a medias visible.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", "", fmt.Errorf("storage: escribir %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", "", fmt.Errorf("storage: publicar %s: %w", path, err)
	}
	url := ""
	if s.baseURL != "" {
		url = s.baseURL + "/" + sub + "/" + name
	}
	return path, url, nil
}

var _ billing.ArtifactStore = (*LocalStore)(nil)
