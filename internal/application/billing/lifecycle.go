package billing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jhoicas/facturacion-sri/internal/domain"
	"github.com/jhoicas/facturacion-sri/internal/domain/entity"
	"github.com/jhoicas/facturacion-sri/internal/domain/repository"
	domainsri "github.com/jhoicas/facturacion-sri/internal/domain/sri"
	infrasri "github.com/jhoicas/facturacion-sri/internal/infrastructure/sri"
	"github.com/jhoicas/facturacion-sri/internal/infrastructure/sri/signer"
	"github.com/jhoicas/facturacion-sri/pkg/config"
	"github.com/jhoicas/facturacion-sri/pkg/logger"
	pkgsri "github.com/jhoicas/facturacion-sri/pkg/sri"
)

// FacturacionOrchestrator orquesta el ciclo completo del comprobante SRI:
//
//	Secuencial + clave de acceso → XML factura 1.1.0 → Firma XAdES-BES →
//	Recepción SOAP → Autorización SOAP → RIDE (PDF) → Update DB
//
// El procesamiento es reanudable: Process parte del estado actual de la
// factura, así que una caída a mitad del pipeline se recupera reinvocando con
// el mismo invoiceID. Un lease en memoria por factura evita que dos llamadas
// concurrentes procesen el mismo comprobante a la vez.
//
// Se ejecuta normalmente en goroutine independiente (ProcessAsync) con su
// propio context.Background() + timeout, desacoplado del ciclo HTTP.
type FacturacionOrchestrator struct {
	invoiceRepo repository.InvoiceRepository
	tenantRepo  repository.TenantRepository
	clientRepo  repository.ClientRepository
	pointRepo   repository.EmissionPointRepository
	allocator   *SequenceAllocator
	xmlBuilder  *infrasri.XMLBuilderService
	signer      pkgsri.Signer
	certSource  CertificateLoader
	submitter   infrasri.Submitter
	rideGen     RideGenerator
	store       ArtifactStore
	cfg         config.SRIConfig
	log         *logger.Logger

	mu     sync.Mutex
	leases map[string]struct{}
}

// NewFacturacionOrchestrator construye el orquestador con todas sus dependencias.
func NewFacturacionOrchestrator(
	invoiceRepo repository.InvoiceRepository,
	tenantRepo repository.TenantRepository,
	clientRepo repository.ClientRepository,
	pointRepo repository.EmissionPointRepository,
	allocator *SequenceAllocator,
	xmlBuilder *infrasri.XMLBuilderService,
	sgn pkgsri.Signer,
	certSource CertificateLoader,
	submitter infrasri.Submitter,
	rideGen RideGenerator,
	store ArtifactStore,
	cfg config.SRIConfig,
	log *logger.Logger,
) *FacturacionOrchestrator {
	return &FacturacionOrchestrator{
		invoiceRepo: invoiceRepo,
		tenantRepo:  tenantRepo,
		clientRepo:  clientRepo,
		pointRepo:   pointRepo,
		allocator:   allocator,
		xmlBuilder:  xmlBuilder,
		signer:      sgn,
		certSource:  certSource,
		submitter:   submitter,
		rideGen:     rideGen,
		store:       store,
		cfg:         cfg,
		log:         log,
		leases:      make(map[string]struct{}),
	}
}

// ProcessAsync dispara el procesamiento en una goroutine independiente.
// invoiceID es el ID de la factura ya persistida (normalmente en DRAFT).
func (o *FacturacionOrchestrator) ProcessAsync(tenantID, invoiceID string) {
	go func() {
		// Presupuesto: pipeline completo más la ventana de polling de autorización.
		budget := 2*time.Minute + o.cfg.AuthPollInterval*time.Duration(o.cfg.AuthPollMax)
		ctx, cancel := context.WithTimeout(context.Background(), budget)
		defer cancel()

		if err := o.Process(ctx, tenantID, invoiceID); err != nil {
			o.log.Error().Err(err).
				Str("invoice_id", invoiceID).
				Str("tenant_id", tenantID).
				Msg("procesamiento SRI terminó con error")
		}
	}()
}

// Process avanza la factura desde su estado actual hasta un estado de reposo
// (AUTHORIZED, REJECTED, o un estado intermedio si el SRI no responde).
// Devuelve domain.ErrInvoiceBusy si otra llamada ya la está procesando.
func (o *FacturacionOrchestrator) Process(ctx context.Context, tenantID, invoiceID string) error {
	if !o.acquire(invoiceID) {
		return fmt.Errorf("%w: factura %s", domain.ErrInvoiceBusy, invoiceID)
	}
	defer o.release(invoiceID)
	return o.process(ctx, tenantID, invoiceID)
}

func (o *FacturacionOrchestrator) process(ctx context.Context, tenantID, invoiceID string) error {
	// ═══════════════════════════════════════════════════════════════════════════
	// 0. Re-fetch datos frescos (evita data races con el goroutine HTTP)
	// ═══════════════════════════════════════════════════════════════════════════
	inv, err := o.invoiceRepo.GetByID(ctx, tenantID, invoiceID)
	if err != nil {
		return fmt.Errorf("fetch factura %s: %w", invoiceID, err)
	}
	if inv == nil {
		return fmt.Errorf("%w: factura %s", domain.ErrNotFound, invoiceID)
	}
	if domainsri.IsTerminal(inv.Status) || inv.Status == entity.StatusAuthorized {
		return fmt.Errorf("%w: la factura %s ya está en %s", domain.ErrInvalidTransition, invoiceID, inv.Status)
	}

	tenant, err := o.tenantRepo.GetByID(ctx, tenantID)
	if err != nil || tenant == nil {
		return fmt.Errorf("fetch tenant %s: %w", tenantID, errOr(err, domain.ErrNotFound))
	}
	sriCfg, err := o.tenantRepo.GetSRIConfiguration(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("fetch configuración SRI del tenant %s: %w", tenantID, err)
	}
	if sriCfg == nil {
		return fmt.Errorf("el tenant %s no tiene configuración SRI", tenantID)
	}
	ambiente := sriCfg.Ambiente

	// ═══════════════════════════════════════════════════════════════════════════
	// 1. DRAFT → SEQUENCED: reservar secuencial y calcular clave de acceso
	// ═══════════════════════════════════════════════════════════════════════════
	if inv.Status == entity.StatusDraft {
		if err := o.allocator.Allocate(ctx, inv, tenant, ambiente); err != nil {
			return fmt.Errorf("reservar secuencial: %w", err)
		}
		o.log.WithComprobante(inv.ID, inv.ClaveAcceso).Info().
			Int64("secuencial", inv.Secuencial).
			Msg("secuencial reservado")
	}

	// ═══════════════════════════════════════════════════════════════════════════
	// 2. SEQUENCED → SIGNED: construir el XML y firmarlo (XAdES-BES)
	// ═══════════════════════════════════════════════════════════════════════════
	if inv.Status == entity.StatusSequenced {
		if err := o.signStep(ctx, inv, tenant, sriCfg, ambiente); err != nil {
			// La factura queda en SEQUENCED: el secuencial y la clave ya
			// reservados se reutilizan al reanudar (sin huecos).
			return err
		}
	}

	// ═══════════════════════════════════════════════════════════════════════════
	// 3. SIGNED → SUBMITTED | REJECTED: recepción
	// ═══════════════════════════════════════════════════════════════════════════
	if inv.Status == entity.StatusSigned {
		final, err := o.submitStep(ctx, inv, ambiente)
		if err != nil {
			return err
		}
		if final {
			return nil // DEVUELTA: estado de reposo REJECTED
		}
	}

	// ═══════════════════════════════════════════════════════════════════════════
	// 4. SUBMITTED → AUTHORIZED | REJECTED: autorización (polling)
	// ═══════════════════════════════════════════════════════════════════════════
	if inv.Status == entity.StatusSubmitted {
		return o.authorizeStep(ctx, inv, tenant, ambiente)
	}
	return nil
}

// signStep carga el certificado del tenant, construye el comprobante, lo firma
// y persiste el XML firmado. Deja la factura en SIGNED.
func (o *FacturacionOrchestrator) signStep(ctx context.Context, inv *entity.Invoice, tenant *entity.Tenant, sriCfg *entity.SRIConfiguration, ambiente string) error {
	cert, err := o.certSource.Load(ctx, tenant, sriCfg)
	if err != nil {
		return fmt.Errorf("cargar certificado: %w", err)
	}
	if err := signer.CheckValidity(cert, time.Now()); err != nil {
		return err
	}

	client, err := o.clientRepo.GetByID(ctx, inv.TenantID, inv.ClientID)
	if err != nil || client == nil {
		return fmt.Errorf("fetch cliente %s: %w", inv.ClientID, errOr(err, domain.ErrNotFound))
	}
	_, estab, err := o.pointRepo.GetWithEstablishment(ctx, inv.TenantID, inv.EmissionPointID)
	if err != nil || estab == nil {
		return fmt.Errorf("fetch establecimiento del punto %s: %w", inv.EmissionPointID, errOr(err, domain.ErrNotFound))
	}
	items, err := o.invoiceRepo.GetItems(ctx, inv.ID)
	if err != nil {
		return fmt.Errorf("fetch líneas: %w", err)
	}
	taxes, err := o.invoiceRepo.GetTaxes(ctx, inv.ID)
	if err != nil {
		return fmt.Errorf("fetch impuestos: %w", err)
	}
	payments, err := o.invoiceRepo.GetPayments(ctx, inv.ID)
	if err != nil {
		return fmt.Errorf("fetch formas de pago: %w", err)
	}

	xmlBytes, err := o.xmlBuilder.Build(&infrasri.InvoiceBuildContext{
		Invoice:       inv,
		Tenant:        tenant,
		Client:        client,
		Establishment: estab,
		Items:         items,
		Taxes:         taxes,
		Payments:      payments,
		Ambiente:      ambiente,
	})
	if err != nil {
		return fmt.Errorf("construir XML: %w", err)
	}

	signedXML, err := o.signer.Sign(xmlBytes, cert)
	if err != nil {
		return fmt.Errorf("firmar XML: %w", err)
	}

	path, url, err := o.store.SaveXML(inv.ClaveAcceso, signedXML)
	if err != nil {
		return fmt.Errorf("guardar XML firmado: %w", err)
	}

	inv.XMLFirmadoPath = path
	inv.XMLFirmadoURL = url
	inv.UpdatedAt = time.Now()
	if err := domainsri.Transition(inv, entity.StatusSigned); err != nil {
		return err
	}
	if err := o.invoiceRepo.UpdateStatus(ctx, inv); err != nil {
		return fmt.Errorf("persistir SIGNED: %w", err)
	}
	o.log.WithComprobante(inv.ID, inv.ClaveAcceso).Info().Msg("comprobante firmado")
	return nil
}

// submitStep envía el XML firmado a recepción. Devuelve final=true si la
// factura terminó en REJECTED (DEVUELTA real, no reenvío deduplicado).
func (o *FacturacionOrchestrator) submitStep(ctx context.Context, inv *entity.Invoice, ambiente string) (final bool, err error) {
	signedXML, err := o.loadSignedXML(inv)
	if err != nil {
		return false, err
	}

	result, err := o.submitter.SubmitReception(ctx, signedXML, ambiente)
	if err != nil {
		// Falla de transporte: se contabiliza el intento. El reenvío es
		// seguro: el SRI deduplica por clave de acceso.
		inv.RetryCount++
		inv.UpdatedAt = time.Now()
		if inv.RetryCount >= o.cfg.SubmitMaxRetries {
			// Agotados los reintentos la factura no puede quedar pendiente
			// indefinidamente: pasa a REJECTED y el secuencial consumido se
			// declara como hueco.
			inv.MensajesSRI = fmt.Sprintf("MaxRetriesExceeded: recepción falló %d veces: %v", inv.RetryCount, err)
			if terr := domainsri.Transition(inv, entity.StatusRejected); terr != nil {
				return false, terr
			}
			if uerr := o.invoiceRepo.UpdateStatus(ctx, inv); uerr != nil {
				return false, fmt.Errorf("persistir REJECTED: %w", uerr)
			}
			o.registerGap(ctx, inv, inv.MensajesSRI)
			o.log.WithComprobante(inv.ID, inv.ClaveAcceso).Warn().
				Int("reintentos", inv.RetryCount).
				Msg("recepción agotó los reintentos; factura rechazada")
			return true, fmt.Errorf("%w: recepción falló %d veces: %v", domain.ErrMaxRetriesExceeded, inv.RetryCount, err)
		}
		if uerr := o.invoiceRepo.UpdateStatus(ctx, inv); uerr != nil {
			o.log.Error().Err(uerr).Str("invoice_id", inv.ID).Msg("no se pudo persistir retry_count")
		}
		return false, fmt.Errorf("recepción SRI: %w", err)
	}

	if aerr := o.invoiceRepo.AppendSRIResponse(ctx, inv.ID, "recepcion", result.Estado, result.Raw); aerr != nil {
		o.log.Error().Err(aerr).Str("invoice_id", inv.ID).Msg("no se pudo registrar respuesta de recepción")
	}

	if result.Estado == pkgsri.RecepcionDevuelta && !result.AlreadyReceived {
		inv.EstadoSRI = result.Estado
		inv.MensajesSRI = result.Mensajes
		inv.UpdatedAt = time.Now()
		if err := domainsri.Transition(inv, entity.StatusRejected); err != nil {
			return false, err
		}
		if err := o.invoiceRepo.UpdateStatus(ctx, inv); err != nil {
			return false, fmt.Errorf("persistir REJECTED: %w", err)
		}
		o.registerGap(ctx, inv, "recepción DEVUELTA: "+result.Mensajes)
		o.log.WithComprobante(inv.ID, inv.ClaveAcceso).Warn().
			Str("mensajes", result.Mensajes).
			Msg("comprobante devuelto en recepción")
		return true, nil
	}

	// RECIBIDA, o DEVUELTA con "43 CLAVE ACCESO REGISTRADA" (reenvío: el SRI
	// ya lo tiene, se sigue a autorización).
	inv.EstadoSRI = pkgsri.RecepcionRecibida
	inv.RetryCount = 0
	inv.UpdatedAt = time.Now()
	if err := domainsri.Transition(inv, entity.StatusSubmitted); err != nil {
		return false, err
	}
	if err := o.invoiceRepo.UpdateStatus(ctx, inv); err != nil {
		return false, fmt.Errorf("persistir SUBMITTED: %w", err)
	}
	o.log.WithComprobante(inv.ID, inv.ClaveAcceso).Info().
		Bool("reenvio", result.AlreadyReceived).
		Msg("comprobante recibido por el SRI")
	return false, nil
}

// authorizeStep consulta la autorización hasta AuthPollMax veces. Si el SRI
// sigue EN PROCESO al agotar las consultas, la factura queda en SUBMITTED y
// una invocación posterior (Poll o Process) retoma la consulta.
func (o *FacturacionOrchestrator) authorizeStep(ctx context.Context, inv *entity.Invoice, tenant *entity.Tenant, ambiente string) error {
	polls := o.cfg.AuthPollMax
	if polls <= 0 {
		polls = 1
	}
	for attempt := 1; attempt <= polls; attempt++ {
		result, err := o.submitter.QueryAuthorization(ctx, inv.ClaveAcceso, ambiente)
		if err != nil {
			return fmt.Errorf("consulta de autorización: %w", err)
		}
		done, err := o.applyAuthorization(ctx, inv, tenant, ambiente, result)
		if done || err != nil {
			return err
		}
		if attempt == polls {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(o.cfg.AuthPollInterval):
		}
	}

	// Sin resolución: se deja constancia y el comprobante queda en SUBMITTED.
	inv.EstadoSRI = pkgsri.EstadoEnProceso
	inv.UpdatedAt = time.Now()
	if err := o.invoiceRepo.UpdateStatus(ctx, inv); err != nil {
		return fmt.Errorf("persistir EN PROCESO: %w", err)
	}
	o.log.Info().Str("invoice_id", inv.ID).Int("consultas", polls).Msg("autorización sigue en proceso")
	return nil
}

// applyAuthorization aplica el resultado de una consulta de autorización.
// done=true cuando la factura llegó a un estado de reposo (AUTHORIZED o
// REJECTED); false cuando sigue EN PROCESO.
func (o *FacturacionOrchestrator) applyAuthorization(ctx context.Context, inv *entity.Invoice, tenant *entity.Tenant, ambiente string, result *infrasri.AuthorizationResult) (done bool, err error) {
	if result.Estado == pkgsri.EstadoEnProceso {
		return false, nil
	}

	if aerr := o.invoiceRepo.AppendSRIResponse(ctx, inv.ID, "autorizacion", result.Estado, result.Raw); aerr != nil {
		o.log.Error().Err(aerr).Str("invoice_id", inv.ID).Msg("no se pudo registrar respuesta de autorización")
	}

	switch result.Estado {
	case pkgsri.EstadoAutorizado:
		inv.EstadoSRI = result.Estado
		inv.NumeroAutorizacion = result.NumeroAutorizacion
		inv.FechaAutorizacion = result.FechaAutorizacion
		inv.UpdatedAt = time.Now()
		if err := domainsri.Transition(inv, entity.StatusAuthorized); err != nil {
			return true, err
		}
		if err := o.invoiceRepo.UpdateStatus(ctx, inv); err != nil {
			return true, fmt.Errorf("persistir AUTHORIZED: %w", err)
		}
		o.generateRide(ctx, inv, tenant, ambiente)
		o.log.WithComprobante(inv.ID, inv.ClaveAcceso).Info().
			Str("numero_autorizacion", inv.NumeroAutorizacion).
			Msg("comprobante autorizado")
		return true, nil

	case pkgsri.EstadoNoAutorizado:
		inv.EstadoSRI = result.Estado
		inv.MensajesSRI = result.Mensajes
		inv.UpdatedAt = time.Now()
		if err := domainsri.Transition(inv, entity.StatusRejected); err != nil {
			return true, err
		}
		if err := o.invoiceRepo.UpdateStatus(ctx, inv); err != nil {
			return true, fmt.Errorf("persistir REJECTED: %w", err)
		}
		o.registerGap(ctx, inv, "NO AUTORIZADO: "+result.Mensajes)
		o.log.WithComprobante(inv.ID, inv.ClaveAcceso).Warn().
			Str("mensajes", result.Mensajes).
			Msg("comprobante no autorizado")
		return true, nil

	default:
		return false, nil
	}
}

// generateRide genera y guarda el RIDE. Un fallo aquí no degrada el estado de
// la factura (ya está AUTHORIZED): el PDF puede regenerarse después.
func (o *FacturacionOrchestrator) generateRide(ctx context.Context, inv *entity.Invoice, tenant *entity.Tenant, ambiente string) {
	if o.rideGen == nil {
		return
	}
	client, err := o.clientRepo.GetByID(ctx, inv.TenantID, inv.ClientID)
	if err != nil || client == nil {
		o.log.Error().Err(err).Str("invoice_id", inv.ID).Msg("RIDE: cliente no disponible")
		return
	}
	items, _ := o.invoiceRepo.GetItems(ctx, inv.ID)
	taxes, _ := o.invoiceRepo.GetTaxes(ctx, inv.ID)

	pdf, err := o.rideGen.GenerateRIDE(ctx, &RideData{
		Invoice:  inv,
		Tenant:   tenant,
		Client:   client,
		Items:    items,
		Taxes:    taxes,
		Ambiente: ambiente,
	})
	if err != nil {
		o.log.Error().Err(err).Str("invoice_id", inv.ID).Msg("RIDE: generación falló")
		return
	}
	path, url, err := o.store.SaveRIDE(inv.ClaveAcceso, pdf)
	if err != nil {
		o.log.Error().Err(err).Str("invoice_id", inv.ID).Msg("RIDE: no se pudo guardar")
		return
	}
	inv.RidePath = path
	inv.RideURL = url
	inv.UpdatedAt = time.Now()
	if err := o.invoiceRepo.UpdateStatus(ctx, inv); err != nil {
		o.log.Error().Err(err).Str("invoice_id", inv.ID).Msg("RIDE: no se pudo persistir la ruta")
	}
}

// Poll hace una única consulta de autorización si la factura está en
// SUBMITTED y devuelve la factura actualizada. Para los demás estados solo
// relee de la DB.
func (o *FacturacionOrchestrator) Poll(ctx context.Context, tenantID, invoiceID string) (*entity.Invoice, error) {
	inv, err := o.invoiceRepo.GetByID(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, fmt.Errorf("%w: factura %s", domain.ErrNotFound, invoiceID)
	}
	if inv.Status != entity.StatusSubmitted {
		return inv, nil
	}
	if !o.acquire(invoiceID) {
		return inv, nil // otro proceso la está avanzando; se devuelve lo leído
	}
	defer o.release(invoiceID)

	tenant, err := o.tenantRepo.GetByID(ctx, tenantID)
	if err != nil || tenant == nil {
		return nil, fmt.Errorf("fetch tenant %s: %w", tenantID, errOr(err, domain.ErrNotFound))
	}
	sriCfg, err := o.tenantRepo.GetSRIConfiguration(ctx, tenantID)
	if err != nil || sriCfg == nil {
		return nil, fmt.Errorf("fetch configuración SRI: %w", errOr(err, domain.ErrNotFound))
	}

	result, err := o.submitter.QueryAuthorization(ctx, inv.ClaveAcceso, sriCfg.Ambiente)
	if err != nil {
		return nil, fmt.Errorf("consulta de autorización: %w", err)
	}
	if _, err := o.applyAuthorization(ctx, inv, tenant, sriCfg.Ambiente, result); err != nil {
		return nil, err
	}
	return inv, nil
}

// Cancel anula una factura AUTORIZADA. La anulación ante el SRI es un trámite
// del portal del contribuyente; aquí se registra el estado local y el hueco
// del secuencial para la declaración de anulados.
func (o *FacturacionOrchestrator) Cancel(ctx context.Context, tenantID, invoiceID, reason string) (*entity.Invoice, error) {
	if !o.acquire(invoiceID) {
		return nil, fmt.Errorf("%w: factura %s", domain.ErrInvoiceBusy, invoiceID)
	}
	defer o.release(invoiceID)

	inv, err := o.invoiceRepo.GetByID(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, fmt.Errorf("%w: factura %s", domain.ErrNotFound, invoiceID)
	}
	if inv.Status != entity.StatusAuthorized {
		return nil, fmt.Errorf("%w: estado %s (solo se anulan facturas AUTHORIZED)", domain.ErrInvoiceNotCancelable, inv.Status)
	}

	now := time.Now()
	inv.CanceledAt = now
	inv.UpdatedAt = now
	if err := domainsri.Transition(inv, entity.StatusCanceled); err != nil {
		return nil, err
	}
	if err := o.invoiceRepo.UpdateStatus(ctx, inv); err != nil {
		return nil, fmt.Errorf("persistir CANCELED: %w", err)
	}
	o.registerGap(ctx, inv, "anulación: "+reason)
	o.log.Info().Str("invoice_id", inv.ID).Str("motivo", reason).Msg("factura anulada")
	return inv, nil
}

// ── helpers privados ──────────────────────────────────────────────────────────

func (o *FacturacionOrchestrator) acquire(invoiceID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, held := o.leases[invoiceID]; held {
		return false
	}
	o.leases[invoiceID] = struct{}{}
	return true
}

func (o *FacturacionOrchestrator) release(invoiceID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.leases, invoiceID)
}

// registerGap deja constancia del secuencial consumido que no llegará a
// autorizarse (el SRI exige declarar los comprobantes anulados).
func (o *FacturacionOrchestrator) registerGap(ctx context.Context, inv *entity.Invoice, reason string) {
	if inv.Secuencial == 0 {
		return
	}
	if err := o.pointRepo.RegisterGap(ctx, inv.EmissionPointID, inv.Secuencial, reason); err != nil {
		o.log.Error().Err(err).
			Str("invoice_id", inv.ID).
			Int64("secuencial", inv.Secuencial).
			Msg("no se pudo registrar el hueco de secuencial")
	}
}

// loadSignedXML relee el XML firmado desde el artifact store. Si el artefacto
// se perdió, la factura no puede reenviarse sin refirmar.
func (o *FacturacionOrchestrator) loadSignedXML(inv *entity.Invoice) ([]byte, error) {
	if inv.XMLFirmadoPath == "" {
		return nil, fmt.Errorf("la factura %s está SIGNED pero no tiene XML firmado guardado", inv.ID)
	}
	data, err := o.store.ReadXML(inv.ClaveAcceso)
	if err != nil {
		return nil, fmt.Errorf("leer XML firmado de %s: %w", inv.ClaveAcceso, err)
	}
	return data, nil
}

func errOr(err, fallback error) error {
	if err != nil {
		return err
	}
	return fallback
}
