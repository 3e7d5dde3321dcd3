package sri

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/jhoicas/facturacion-sri/internal/domain"
	pkgsri "github.com/jhoicas/facturacion-sri/pkg/sri"
)

// ── Endpoints de los web services offline del SRI ─────────────────────────────

const (
	receptionURLTest = "https://celcer.sri.gob.ec/comprobantes-electronicos-ws/RecepcionComprobantesOffline"
	receptionURLProd = "https://cel.sri.gob.ec/comprobantes-electronicos-ws/RecepcionComprobantesOffline"

	authorizationURLTest = "https://celcer.sri.gob.ec/comprobantes-electronicos-ws/AutorizacionComprobantesOffline"
	authorizationURLProd = "https://cel.sri.gob.ec/comprobantes-electronicos-ws/AutorizacionComprobantesOffline"

	soapNS        = "http://schemas.xmlsoap.org/soap/envelope/"
	nsRecepcion   = "http://ec.gob.sri.ws.recepcion"
	nsAutorizacion = "http://ec.gob.sri.ws.autorizacion"

	// Identificador del mensaje "CLAVE ACCESO REGISTRADA" en recepción: el
	// comprobante ya fue recibido antes (reenvío), no es un rechazo real.
	msgClaveRegistrada = "43"
)

// ── Puerto (interfaz) ─────────────────────────────────────────────────────────

// ReceptionResult resultado de RecepcionComprobantesOffline.
type ReceptionResult struct {
	Estado          string // RECIBIDA | DEVUELTA
	Mensajes        string // mensajes de error concatenados (vacío si RECIBIDA)
	AlreadyReceived bool   // DEVUELTA por clave ya registrada: tratar como recibida
	Raw             string // respuesta SOAP cruda (auditoría)
}

// AuthorizationResult resultado de AutorizacionComprobantesOffline.
type AuthorizationResult struct {
	Estado             string // AUTORIZADO | NO AUTORIZADO | EN PROCESO
	NumeroAutorizacion string
	FechaAutorizacion  time.Time
	Mensajes           string
	Raw                string
}

// Submitter define el puerto de salida hacia los web services del SRI.
// La implementación concreta usa SOAP; para tests se inyecta un fake.
type Submitter interface {
	// SubmitReception envía el XML firmado (en Base64) a recepción.
	// ambiente: "1" pruebas, "2" producción; determina el endpoint.
	SubmitReception(ctx context.Context, signedXML []byte, ambiente string) (*ReceptionResult, error)
	// QueryAuthorization consulta el estado de autorización por clave de acceso.
	QueryAuthorization(ctx context.Context, claveAcceso, ambiente string) (*AuthorizationResult, error)
}

// ── Implementación SOAP ───────────────────────────────────────────────────────

// SOAPClient implementa Submitter contra los WS del SRI con reintentos de
// transporte (backoff exponencial vía retryablehttp). Un timeout o un 5xx
// persistente se reporta como domain.ErrSriUnavailable para que el
// orquestador deje la factura en su estado actual y reintente después.
type SOAPClient struct {
	httpClient *retryablehttp.Client

	// Overrides de endpoint para tests; vacíos en producción.
	receptionOverride     string
	authorizationOverride string
}

// NewSOAPClient construye el cliente. timeout aplica por intento HTTP;
// maxRetries limita los reintentos de transporte.
func NewSOAPClient(timeout time.Duration, maxRetries int) *SOAPClient {
	rc := retryablehttp.NewClient()
	rc.HTTPClient.Timeout = timeout
	rc.RetryMax = maxRetries
	rc.RetryWaitMin = 2 * time.Second
	rc.RetryWaitMax = 60 * time.Second
	rc.Logger = nil
	return &SOAPClient{httpClient: rc}
}

// NewSOAPClientWithEndpoints construye el cliente apuntando a endpoints
// arbitrarios (httptest).
func NewSOAPClientWithEndpoints(timeout time.Duration, maxRetries int, receptionURL, authorizationURL string) *SOAPClient {
	c := NewSOAPClient(timeout, maxRetries)
	c.receptionOverride = receptionURL
	c.authorizationOverride = authorizationURL
	return c
}

// ── Estructuras SOAP ──────────────────────────────────────────────────────────

type soapEnvelope struct {
	XMLName xml.Name   `xml:"soapenv:Envelope"`
	XmlnsS  string     `xml:"xmlns:soapenv,attr"`
	XmlnsEc string     `xml:"xmlns:ec,attr"`
	Header  soapHeader `xml:"soapenv:Header"`
	Body    soapBody   `xml:"soapenv:Body"`
}

type soapHeader struct{}

type soapBody struct {
	Content interface{}
}

func (b soapBody) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name.Local = "soapenv:Body"
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if err := e.Encode(b.Content); err != nil {
		return err
	}
	return e.EncodeToken(start.End())
}

// validarComprobanteBody cuerpo de la operación validarComprobante (recepción).
type validarComprobanteBody struct {
	XMLName xml.Name `xml:"ec:validarComprobante"`
	XML     string   `xml:"xml"` // comprobante firmado en Base64
}

// autorizacionComprobanteBody cuerpo de autorizacionComprobante.
type autorizacionComprobanteBody struct {
	XMLName     xml.Name `xml:"ec:autorizacionComprobante"`
	ClaveAcceso string   `xml:"claveAccesoComprobante"`
}

// ── Estructuras de respuesta SOAP ─────────────────────────────────────────────

type receptionResponseEnvelope struct {
	Body struct {
		Response struct {
			Respuesta respuestaRecepcion `xml:"RespuestaRecepcionComprobante"`
		} `xml:"validarComprobanteResponse"`
		Fault *soapFault `xml:"Fault"`
	} `xml:"Body"`
}

type respuestaRecepcion struct {
	Estado       string `xml:"estado"`
	Comprobantes struct {
		Comprobante []struct {
			ClaveAcceso string        `xml:"claveAcceso"`
			Mensajes    mensajesLista `xml:"mensajes"`
		} `xml:"comprobante"`
	} `xml:"comprobantes"`
}

type authorizationResponseEnvelope struct {
	Body struct {
		Response struct {
			Respuesta respuestaAutorizacion `xml:"RespuestaAutorizacionComprobante"`
		} `xml:"autorizacionComprobanteResponse"`
		Fault *soapFault `xml:"Fault"`
	} `xml:"Body"`
}

type respuestaAutorizacion struct {
	ClaveAccesoConsultada string `xml:"claveAccesoConsultada"`
	NumeroComprobantes    string `xml:"numeroComprobantes"`
	Autorizaciones        struct {
		Autorizacion []struct {
			Estado             string        `xml:"estado"`
			NumeroAutorizacion string        `xml:"numeroAutorizacion"`
			FechaAutorizacion  string        `xml:"fechaAutorizacion"`
			Ambiente           string        `xml:"ambiente"`
			Mensajes           mensajesLista `xml:"mensajes"`
		} `xml:"autorizacion"`
	} `xml:"autorizaciones"`
}

type mensajesLista struct {
	Mensaje []struct {
		Identificador        string `xml:"identificador"`
		Mensaje              string `xml:"mensaje"`
		InformacionAdicional string `xml:"informacionAdicional"`
		Tipo                 string `xml:"tipo"`
	} `xml:"mensaje"`
}

func (m mensajesLista) join() string {
	var parts []string
	for _, msg := range m.Mensaje {
		s := msg.Identificador + ": " + msg.Mensaje
		if msg.InformacionAdicional != "" {
			s += " (" + msg.InformacionAdicional + ")"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, "; ")
}

func (m mensajesLista) has(identificador string) bool {
	for _, msg := range m.Mensaje {
		if msg.Identificador == identificador {
			return true
		}
	}
	return false
}

type soapFault struct {
	FaultCode   string `xml:"faultcode"`
	FaultString string `xml:"faultstring"`
}

// ── Operaciones ───────────────────────────────────────────────────────────────

// SubmitReception envía el comprobante firmado a recepción.
func (c *SOAPClient) SubmitReception(ctx context.Context, signedXML []byte, ambiente string) (*ReceptionResult, error) {
	url := c.receptionOverride
	if url == "" {
		var err error
		if url, err = receptionURL(ambiente); err != nil {
			return nil, err
		}
	}
	body := &validarComprobanteBody{XML: base64.StdEncoding.EncodeToString(signedXML)}
	raw, err := c.call(ctx, url, nsRecepcion, body)
	if err != nil {
		return nil, err
	}

	var envResp receptionResponseEnvelope
	if err := xml.Unmarshal(raw, &envResp); err != nil {
		return nil, fmt.Errorf("sri: respuesta de recepción no parseable: %w", err)
	}
	if envResp.Body.Fault != nil {
		return nil, fmt.Errorf("%w: SOAP Fault [%s]: %s",
			domain.ErrSriUnavailable, envResp.Body.Fault.FaultCode, envResp.Body.Fault.FaultString)
	}

	resp := envResp.Body.Response.Respuesta
	result := &ReceptionResult{Estado: resp.Estado, Raw: string(raw)}
	if resp.Estado == pkgsri.RecepcionDevuelta {
		var msgs []string
		for _, comp := range resp.Comprobantes.Comprobante {
			if comp.Mensajes.has(msgClaveRegistrada) {
				result.AlreadyReceived = true
			}
			if joined := comp.Mensajes.join(); joined != "" {
				msgs = append(msgs, joined)
			}
		}
		result.Mensajes = strings.Join(msgs, "; ")
	}
	return result, nil
}

// QueryAuthorization consulta la autorización de una clave de acceso.
func (c *SOAPClient) QueryAuthorization(ctx context.Context, claveAcceso, ambiente string) (*AuthorizationResult, error) {
	url := c.authorizationOverride
	if url == "" {
		var err error
		if url, err = authorizationURL(ambiente); err != nil {
			return nil, err
		}
	}
	body := &autorizacionComprobanteBody{ClaveAcceso: claveAcceso}
	raw, err := c.call(ctx, url, nsAutorizacion, body)
	if err != nil {
		return nil, err
	}

	var envResp authorizationResponseEnvelope
	if err := xml.Unmarshal(raw, &envResp); err != nil {
		return nil, fmt.Errorf("sri: respuesta de autorización no parseable: %w", err)
	}
	if envResp.Body.Fault != nil {
		return nil, fmt.Errorf("%w: SOAP Fault [%s]: %s",
			domain.ErrSriUnavailable, envResp.Body.Fault.FaultCode, envResp.Body.Fault.FaultString)
	}

	resp := envResp.Body.Response.Respuesta
	if len(resp.Autorizaciones.Autorizacion) == 0 {
		// Sin registro todavía: el SRI sigue procesando el comprobante.
		return &AuthorizationResult{Estado: pkgsri.EstadoEnProceso, Raw: string(raw)}, nil
	}

	auth := resp.Autorizaciones.Autorizacion[0]
	result := &AuthorizationResult{
		Estado:             auth.Estado,
		NumeroAutorizacion: auth.NumeroAutorizacion,
		Mensajes:           auth.Mensajes.join(),
		Raw:                string(raw),
	}
	if auth.FechaAutorizacion != "" {
		ts, perr := parseFechaAutorizacion(auth.FechaAutorizacion)
		if perr != nil {
			// La autorización vale aunque la fecha no se entienda; se deja
			// constancia en los mensajes en lugar de descartarla en silencio.
			if result.Mensajes != "" {
				result.Mensajes += "; "
			}
			result.Mensajes += perr.Error()
		} else {
			result.FechaAutorizacion = ts
		}
	}
	return result, nil
}

// fechaAutorizacionLayouts: el SRI suele emitir RFC3339 pero también se han
// visto offsets sin dos puntos y fechas sin zona horaria.
var fechaAutorizacionLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05",
}

func parseFechaAutorizacion(s string) (time.Time, error) {
	for _, layout := range fechaAutorizacionLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("fechaAutorizacion %q en formato desconocido", s)
}

// call serializa el envelope, ejecuta el POST con reintentos y devuelve el
// cuerpo crudo de la respuesta.
func (c *SOAPClient) call(ctx context.Context, url, ns string, content interface{}) ([]byte, error) {
	envelope := soapEnvelope{
		XmlnsS:  soapNS,
		XmlnsEc: ns,
		Body:    soapBody{Content: content},
	}
	payload, err := xml.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("sri: serializar envelope SOAP: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("sri: crear request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrSriUnavailable, ctx.Err())
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrSriUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20)) // max 4 MB
	if err != nil {
		return nil, fmt.Errorf("sri: leer respuesta: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d: %s", domain.ErrSriUnavailable, resp.StatusCode, truncate(raw, 512))
	}
	return raw, nil
}

func receptionURL(ambiente string) (string, error) {
	switch ambiente {
	case pkgsri.AmbientePruebas:
		return receptionURLTest, nil
	case pkgsri.AmbienteProduccion:
		return receptionURLProd, nil
	default:
		return "", fmt.Errorf("sri: ambiente desconocido %q (usar '1' o '2')", ambiente)
	}
}

func authorizationURL(ambiente string) (string, error) {
	switch ambiente {
	case pkgsri.AmbientePruebas:
		return authorizationURLTest, nil
	case pkgsri.AmbienteProduccion:
		return authorizationURLProd, nil
	default:
		return "", fmt.Errorf("sri: ambiente desconocido %q (usar '1' o '2')", ambiente)
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
