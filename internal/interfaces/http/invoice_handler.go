package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/facturacion-sri/internal/application/billing"
	"github.com/jhoicas/facturacion-sri/internal/application/dto"
	"github.com/jhoicas/facturacion-sri/internal/domain"
)

// InvoiceHandler maneja las peticiones HTTP de facturación (protegido).
type InvoiceHandler struct {
	uc *billing.IssueInvoiceUseCase
}

// NewInvoiceHandler construye el handler.
func NewInvoiceHandler(uc *billing.IssueInvoiceUseCase) *InvoiceHandler {
	return &InvoiceHandler{uc: uc}
}

// Create crea la factura en DRAFT y lanza el pipeline SRI en background.
// POST /api/invoices
func (h *InvoiceHandler) Create(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.CreateInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	invoice, err := h.uc.CreateInvoice(c.Context(), tenantID, in)
	if err != nil {
		return errorJSON(c, err)
	}
	// 202: la factura quedó aceptada, la autorización del SRI llega después
	// (polling de GET /api/invoices/:id/estado).
	return c.Status(fiber.StatusAccepted).JSON(invoice)
}

// GetByID obtiene el detalle completo de una factura.
// GET /api/invoices/:id
func (h *InvoiceHandler) GetByID(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id requerido"})
	}
	invoice, err := h.uc.GetInvoice(c.Context(), tenantID, id)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(invoice)
}

// List lista las facturas del tenant.
// GET /api/invoices
func (h *InvoiceHandler) List(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	invoices, err := h.uc.ListInvoices(c.Context(), tenantID, page)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(invoices)
}

// GetStatus devuelve el estado del pipeline de una factura; si está en
// SUBMITTED aprovecha para consultar autorización al SRI.
// GET /api/invoices/:id/estado
func (h *InvoiceHandler) GetStatus(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	status, err := h.uc.GetStatus(c.Context(), tenantID, c.Params("id"))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(status)
}

// Reprocess relanza el pipeline de una factura en estado intermedio.
// POST /api/invoices/:id/procesar
func (h *InvoiceHandler) Reprocess(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	if err := h.uc.Reprocess(c.Context(), tenantID, c.Params("id")); err != nil {
		return errorJSON(c, err)
	}
	return c.SendStatus(fiber.StatusAccepted)
}

// Cancel anula una factura autorizada.
// POST /api/invoices/:id/anular
func (h *InvoiceHandler) Cancel(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.CancelInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	invoice, err := h.uc.CancelInvoice(c.Context(), tenantID, c.Params("id"), in.Motivo)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(invoice)
}

// errorJSON mapea errores de dominio a códigos HTTP. Los mensajes de dominio
// (en español, con el detalle de validación) viajan tal cual al cliente.
func errorJSON(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado"})
	case errors.Is(err, domain.ErrInvoiceBusy):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INVOICE_BUSY", Message: "la factura está siendo procesada"})
	case errors.Is(err, domain.ErrInvoiceNotCancelable):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "NOT_CANCELABLE", Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidTransition):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INVALID_STATE", Message: err.Error()})
	case errors.Is(err, domain.ErrSriUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "SRI_UNAVAILABLE", Message: "el SRI no está disponible, intente más tarde"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}
