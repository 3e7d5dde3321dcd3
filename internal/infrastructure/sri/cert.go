package sri

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/jhoicas/facturacion-sri/internal/domain/entity"
	"github.com/jhoicas/facturacion-sri/internal/infrastructure/sri/signer"
)

// CertificateSource resuelve el certificado de firma de cada tenant a partir
// de su SRIConfiguration (archivo local .p12 o descarga por URL) y lo cachea
// en memoria. La caché se invalida cuando cambia UpdatedAt de la
// configuración (rotación de certificado).
type CertificateSource struct {
	httpClient *retryablehttp.Client

	mu    sync.Mutex
	cache map[string]cachedCert
}

type cachedCert struct {
	cert      tls.Certificate
	updatedAt time.Time
}

// NewCertificateSource construye la fuente de certificados. La descarga por
// URL reintenta fallas transitorias de transporte.
func NewCertificateSource() *CertificateSource {
	rc := retryablehttp.NewClient()
	rc.HTTPClient.Timeout = 30 * time.Second
	rc.RetryMax = 3
	rc.Logger = nil
	return &CertificateSource{
		httpClient: rc,
		cache:      make(map[string]cachedCert),
	}
}

// Load devuelve el certificado del tenant, verificado contra su RUC.
func (s *CertificateSource) Load(ctx context.Context, tenant *entity.Tenant, cfg *entity.SRIConfiguration) (tls.Certificate, error) {
	if cfg == nil {
		return tls.Certificate{}, fmt.Errorf("sri: el tenant %s no tiene configuración SRI", tenant.ID)
	}

	s.mu.Lock()
	if entry, ok := s.cache[tenant.ID]; ok && entry.updatedAt.Equal(cfg.UpdatedAt) {
		s.mu.Unlock()
		return entry.cert, nil
	}
	s.mu.Unlock()

	data, err := s.fetchP12(ctx, cfg)
	if err != nil {
		return tls.Certificate{}, err
	}
	cert, err := signer.LoadFromP12(data, cfg.CertPassword)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("sri: certificado del tenant %s: %w", tenant.ID, err)
	}
	// El certificado debe pertenecer al emisor; un .p12 ajeno produciría
	// comprobantes firmados a nombre de otro RUC.
	if err := signer.CheckTenantRUC(cert, tenant.RUC); err != nil {
		return tls.Certificate{}, err
	}

	s.mu.Lock()
	s.cache[tenant.ID] = cachedCert{cert: cert, updatedAt: cfg.UpdatedAt}
	s.mu.Unlock()
	return cert, nil
}

func (s *CertificateSource) fetchP12(ctx context.Context, cfg *entity.SRIConfiguration) ([]byte, error) {
	if cfg.CertPath != "" {
		data, err := os.ReadFile(cfg.CertPath)
		if err != nil {
			return nil, fmt.Errorf("sri: leer p12 %s: %w", cfg.CertPath, err)
		}
		return data, nil
	}
	if cfg.CertURL == "" {
		return nil, fmt.Errorf("sri: configuración sin cert_path ni cert_url")
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, cfg.CertURL, nil)
	if err != nil {
		return nil, fmt.Errorf("sri: crear request de descarga: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sri: descargar p12: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sri: descargar p12: HTTP %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("sri: leer p12 descargado: %w", err)
	}
	return data, nil
}
