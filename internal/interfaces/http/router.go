package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/facturacion-sri/internal/application/billing"
	"github.com/jhoicas/facturacion-sri/internal/domain/repository"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	IssueInvoice *billing.IssueInvoiceUseCase
	ClientRepo   repository.ClientRepository
	JWTSecret    string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token con tenant)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Clients (protegido)
	clients := protected.Group("/clients")
	clientHandler := NewClientHandler(deps.ClientRepo)
	clients.Post("/", RequireRole("admin", "facturador"), clientHandler.Create)
	clients.Get("/:id", clientHandler.GetByID)

	// Invoices (protegido)
	invoices := protected.Group("/invoices")
	invoiceHandler := NewInvoiceHandler(deps.IssueInvoice)
	invoices.Post("/", RequireRole("admin", "facturador"), invoiceHandler.Create)
	invoices.Get("/", invoiceHandler.List)
	invoices.Get("/:id", invoiceHandler.GetByID)
	invoices.Get("/:id/estado", invoiceHandler.GetStatus)
	invoices.Post("/:id/procesar", RequireRole("admin", "facturador"), invoiceHandler.Reprocess)
	invoices.Post("/:id/anular", RequireRole("admin"), invoiceHandler.Cancel)
}
