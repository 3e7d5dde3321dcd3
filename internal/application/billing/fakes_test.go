package billing

import (
	"context"
	"crypto/tls"
	"fmt"
	"sync"
	"time"

	"github.com/jhoicas/facturacion-sri/internal/domain"
	"github.com/jhoicas/facturacion-sri/internal/domain/entity"
	"github.com/jhoicas/facturacion-sri/internal/domain/repository"
	infrasri "github.com/jhoicas/facturacion-sri/internal/infrastructure/sri"
)

// ── Repos en memoria para tests ───────────────────────────────────────────────

type gapRecord struct {
	pointID    string
	sequential int64
	reason     string
}

type fakePointRepo struct {
	mu     sync.Mutex
	points map[string]*entity.EmissionPoint
	estabs map[string]*entity.Establishment
	gaps   []gapRecord
}

func newFakePointRepo() *fakePointRepo {
	return &fakePointRepo{
		points: map[string]*entity.EmissionPoint{},
		estabs: map[string]*entity.Establishment{},
	}
}

func (r *fakePointRepo) addPoint(p *entity.EmissionPoint, e *entity.Establishment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.points[p.ID] = p
	r.estabs[e.ID] = e
}

func (r *fakePointRepo) GetByID(_ context.Context, tenantID, id string) (*entity.EmissionPoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.points[id]
	if !ok || p.TenantID != tenantID {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *fakePointRepo) GetWithEstablishment(_ context.Context, tenantID, id string) (*entity.EmissionPoint, *entity.Establishment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.points[id]
	if !ok || p.TenantID != tenantID {
		return nil, nil, nil
	}
	e, ok := r.estabs[p.EstablishmentID]
	if !ok {
		return nil, nil, nil
	}
	cp, ce := *p, *e
	return &cp, &ce, nil
}

func (r *fakePointRepo) ReserveSequential(_ context.Context, emissionPointID string, current int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.points[emissionPointID]
	if !ok {
		return 0, domain.ErrNotFound
	}
	if !p.IsActive {
		return 0, domain.ErrEmissionPointInactive
	}
	if p.CurrentInvoiceSequence != current {
		return 0, domain.ErrConflict
	}
	// El contador guarda el siguiente secuencial a asignar.
	assigned := p.CurrentInvoiceSequence
	p.CurrentInvoiceSequence++
	return assigned, nil
}

func (r *fakePointRepo) RegisterGap(_ context.Context, emissionPointID string, sequential int64, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gaps = append(r.gaps, gapRecord{pointID: emissionPointID, sequential: sequential, reason: reason})
	return nil
}

type sriResponseRecord struct {
	invoiceID string
	operation string
	estado    string
}

type fakeInvoiceRepo struct {
	mu        sync.Mutex
	invoices  map[string]*entity.Invoice
	items     map[string][]*entity.InvoiceItem
	taxes     map[string][]*entity.InvoiceTax
	payments  map[string][]*entity.InvoicePaymentMethod
	responses []sriResponseRecord
}

func newFakeInvoiceRepo() *fakeInvoiceRepo {
	return &fakeInvoiceRepo{
		invoices: map[string]*entity.Invoice{},
		items:    map[string][]*entity.InvoiceItem{},
		taxes:    map[string][]*entity.InvoiceTax{},
		payments: map[string][]*entity.InvoicePaymentMethod{},
	}
}

func (r *fakeInvoiceRepo) Create(_ context.Context, inv *entity.Invoice, items []*entity.InvoiceItem, taxes []*entity.InvoiceTax, payments []*entity.InvoicePaymentMethod) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if inv.ID == "" {
		inv.ID = fmt.Sprintf("inv-%d", len(r.invoices)+1)
	}
	cp := *inv
	r.invoices[inv.ID] = &cp
	r.items[inv.ID] = items
	r.taxes[inv.ID] = taxes
	r.payments[inv.ID] = payments
	return nil
}

func (r *fakeInvoiceRepo) GetByID(_ context.Context, tenantID, id string) (*entity.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invoices[id]
	if !ok || inv.TenantID != tenantID {
		return nil, nil
	}
	cp := *inv
	return &cp, nil
}

func (r *fakeInvoiceRepo) GetItems(_ context.Context, invoiceID string) ([]*entity.InvoiceItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[invoiceID], nil
}

func (r *fakeInvoiceRepo) GetTaxes(_ context.Context, invoiceID string) ([]*entity.InvoiceTax, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.taxes[invoiceID], nil
}

func (r *fakeInvoiceRepo) GetPayments(_ context.Context, invoiceID string) ([]*entity.InvoicePaymentMethod, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.payments[invoiceID], nil
}

func (r *fakeInvoiceRepo) UpdateSequenced(_ context.Context, inv *entity.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.invoices[inv.ID]
	if !ok {
		return domain.ErrNotFound
	}
	// Índice único (estab, ptoEmi, secuencial) simulado.
	for id, other := range r.invoices {
		if id != inv.ID && other.TenantID == inv.TenantID &&
			other.Estab == inv.Estab && other.PtoEmi == inv.PtoEmi &&
			other.Secuencial == inv.Secuencial && other.Secuencial != 0 {
			return fmt.Errorf("secuencial ya asignado a otra factura")
		}
	}
	stored.Secuencial = inv.Secuencial
	stored.Estab = inv.Estab
	stored.PtoEmi = inv.PtoEmi
	stored.ClaveAcceso = inv.ClaveAcceso
	stored.FechaEmision = inv.FechaEmision
	stored.Status = inv.Status
	stored.UpdatedAt = inv.UpdatedAt
	return nil
}

func (r *fakeInvoiceRepo) UpdateStatus(_ context.Context, inv *entity.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.invoices[inv.ID]
	if !ok {
		return domain.ErrNotFound
	}
	cp := *inv
	r.invoices[inv.ID] = &cp
	_ = stored
	return nil
}

func (r *fakeInvoiceRepo) ListByTenant(_ context.Context, tenantID string, limit, offset int) ([]*entity.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Invoice
	for _, inv := range r.invoices {
		if inv.TenantID == tenantID {
			cp := *inv
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeInvoiceRepo) AppendSRIResponse(_ context.Context, invoiceID, operation, estado, payload string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses = append(r.responses, sriResponseRecord{invoiceID: invoiceID, operation: operation, estado: estado})
	return nil
}

var _ repository.InvoiceRepository = (*fakeInvoiceRepo)(nil)
var _ repository.EmissionPointRepository = (*fakePointRepo)(nil)

// fakeTxRunner ejecuta el callback directamente contra los repos en memoria
// (sin transacción real).
type fakeTxRunner struct {
	invRepo   *fakeInvoiceRepo
	pointRepo *fakePointRepo
}

func (r *fakeTxRunner) RunFacturacion(ctx context.Context, fn func(repository.InvoiceRepository, repository.EmissionPointRepository) error) error {
	return fn(r.invRepo, r.pointRepo)
}

type fakeTenantRepo struct {
	tenant *entity.Tenant
	cfg    *entity.SRIConfiguration
}

func (r *fakeTenantRepo) GetByID(_ context.Context, id string) (*entity.Tenant, error) {
	if r.tenant != nil && r.tenant.ID == id {
		cp := *r.tenant
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeTenantRepo) GetSRIConfiguration(_ context.Context, tenantID string) (*entity.SRIConfiguration, error) {
	if r.cfg != nil && r.cfg.TenantID == tenantID {
		cp := *r.cfg
		return &cp, nil
	}
	return nil, nil
}

type fakeClientRepo struct {
	client *entity.Client
}

func (r *fakeClientRepo) GetByID(_ context.Context, tenantID, id string) (*entity.Client, error) {
	if r.client != nil && r.client.ID == id && r.client.TenantID == tenantID {
		cp := *r.client
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeClientRepo) Create(_ context.Context, c *entity.Client) error {
	r.client = c
	return nil
}

// ── Colaboradores falsos del orquestador ──────────────────────────────────────

type fakeSigner struct {
	err error
}

func (s *fakeSigner) Sign(xmlBytes []byte, _ tls.Certificate) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return append([]byte(nil), append(xmlBytes, []byte("<!--firmado-->")...)...), nil
}

type fakeCertLoader struct {
	mu   sync.Mutex
	cert tls.Certificate
	err  error
}

func (l *fakeCertLoader) Load(_ context.Context, _ *entity.Tenant, _ *entity.SRIConfiguration) (tls.Certificate, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return tls.Certificate{}, l.err
	}
	return l.cert, nil
}

func (l *fakeCertLoader) set(cert tls.Certificate, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cert, l.err = cert, err
}

// fakeSubmitter simula los WS del SRI: recuerda las claves recibidas para
// reproducir la deduplicación por clave de acceso.
type fakeSubmitter struct {
	mu           sync.Mutex
	received     map[string]bool
	receptionErr error
	devuelta     bool
	devueltaMsg  string

	authStates []string // secuencia de estados a devolver en cada consulta
	authCalls  int
	authErr    error
}

func newFakeSubmitter() *fakeSubmitter {
	return &fakeSubmitter{received: map[string]bool{}}
}

func (s *fakeSubmitter) SubmitReception(_ context.Context, signedXML []byte, _ string) (*infrasri.ReceptionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.receptionErr != nil {
		return nil, s.receptionErr
	}
	key := string(signedXML)
	if s.devuelta {
		return &infrasri.ReceptionResult{Estado: "DEVUELTA", Mensajes: s.devueltaMsg}, nil
	}
	if s.received[key] {
		return &infrasri.ReceptionResult{Estado: "DEVUELTA", AlreadyReceived: true, Mensajes: "43: CLAVE ACCESO REGISTRADA"}, nil
	}
	s.received[key] = true
	return &infrasri.ReceptionResult{Estado: "RECIBIDA"}, nil
}

func (s *fakeSubmitter) QueryAuthorization(_ context.Context, claveAcceso, _ string) (*infrasri.AuthorizationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.authErr != nil {
		return nil, s.authErr
	}
	state := "AUTORIZADO"
	if s.authCalls < len(s.authStates) {
		state = s.authStates[s.authCalls]
	}
	s.authCalls++
	res := &infrasri.AuthorizationResult{Estado: state}
	if state == "AUTORIZADO" {
		res.NumeroAutorizacion = claveAcceso
		res.FechaAutorizacion = time.Now()
	}
	if state == "NO AUTORIZADO" {
		res.Mensajes = "60: CLAVE ACCESO EN PROCESAMIENTO PREVIO RECHAZADO"
	}
	return res, nil
}

type fakeRideGenerator struct{}

func (g *fakeRideGenerator) GenerateRIDE(_ context.Context, _ *RideData) ([]byte, error) {
	return []byte("%PDF-1.4 fake"), nil
}

type fakeArtifactStore struct {
	mu    sync.Mutex
	xmls  map[string][]byte
	rides map[string][]byte
}

func newFakeArtifactStore() *fakeArtifactStore {
	return &fakeArtifactStore{xmls: map[string][]byte{}, rides: map[string][]byte{}}
}

func (s *fakeArtifactStore) SaveXML(claveAcceso string, data []byte) (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.xmls[claveAcceso] = data
	return "/tmp/xml/" + claveAcceso + ".xml", "http://files/xml/" + claveAcceso + ".xml", nil
}

func (s *fakeArtifactStore) ReadXML(claveAcceso string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.xmls[claveAcceso]
	if !ok {
		return nil, fmt.Errorf("xml de %s no guardado", claveAcceso)
	}
	return data, nil
}

func (s *fakeArtifactStore) SaveRIDE(claveAcceso string, data []byte) (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rides[claveAcceso] = data
	return "/tmp/ride/" + claveAcceso + ".pdf", "http://files/ride/" + claveAcceso + ".pdf", nil
}
