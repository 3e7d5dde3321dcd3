package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/jhoicas/facturacion-sri/internal/application/dto"
	"github.com/jhoicas/facturacion-sri/internal/domain/entity"
	"github.com/jhoicas/facturacion-sri/internal/domain/repository"
	pkgsri "github.com/jhoicas/facturacion-sri/pkg/sri"
)

// ClientHandler maneja el alta y consulta de compradores (protegido).
type ClientHandler struct {
	repo repository.ClientRepository
}

// NewClientHandler construye el handler.
func NewClientHandler(repo repository.ClientRepository) *ClientHandler {
	return &ClientHandler{repo: repo}
}

// Create registra un comprador del tenant.
// POST /api/clients
func (h *ClientHandler) Create(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.CreateClientRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.RazonSocial == "" || in.Identificacion == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "razon_social e identificacion son obligatorios"})
	}

	// Validación de la identificación según su tipo (Tabla 6).
	switch in.TipoIdentificacion {
	case entity.IdentRUC:
		if err := pkgsri.ValidateRUC(in.Identificacion); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
		}
	case entity.IdentCedula:
		if err := pkgsri.ValidateCedula(in.Identificacion); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
		}
	case entity.IdentPasaporte, entity.IdentExterior:
		// Sin dígito verificador que validar.
	case entity.IdentConsumidorFinal:
		if in.Identificacion != "9999999999999" {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "consumidor final usa la identificación 9999999999999"})
		}
	default:
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "tipo_identificacion desconocido (Tabla 6)"})
	}

	now := time.Now()
	client := &entity.Client{
		ID:                 uuid.New().String(),
		TenantID:           tenantID,
		TipoIdentificacion: in.TipoIdentificacion,
		Identificacion:     in.Identificacion,
		RazonSocial:        in.RazonSocial,
		Direccion:          in.Direccion,
		Email:              in.Email,
		Telefono:           in.Telefono,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := h.repo.Create(c.Context(), client); err != nil {
		return errorJSON(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toClientResponse(client))
}

// GetByID obtiene un comprador.
// GET /api/clients/:id
func (h *ClientHandler) GetByID(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	client, err := h.repo.GetByID(c.Context(), tenantID, c.Params("id"))
	if err != nil {
		return errorJSON(c, err)
	}
	if client == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "cliente no encontrado"})
	}
	return c.JSON(toClientResponse(client))
}

func toClientResponse(client *entity.Client) dto.ClientResponse {
	return dto.ClientResponse{
		ID:                 client.ID,
		TenantID:           client.TenantID,
		TipoIdentificacion: client.TipoIdentificacion,
		Identificacion:     client.Identificacion,
		RazonSocial:        client.RazonSocial,
		Direccion:          client.Direccion,
		Email:              client.Email,
		Telefono:           client.Telefono,
	}
}
