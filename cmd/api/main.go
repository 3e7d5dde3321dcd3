package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/facturacion-sri/internal/application/billing"
	infrapdf "github.com/jhoicas/facturacion-sri/internal/infrastructure/pdf"
	"github.com/jhoicas/facturacion-sri/internal/infrastructure/postgres"
	infrasri "github.com/jhoicas/facturacion-sri/internal/infrastructure/sri"
	"github.com/jhoicas/facturacion-sri/internal/infrastructure/sri/signer"
	"github.com/jhoicas/facturacion-sri/internal/infrastructure/storage"
	httpRouter "github.com/jhoicas/facturacion-sri/internal/interfaces/http"
	"github.com/jhoicas/facturacion-sri/pkg/config"
	"github.com/jhoicas/facturacion-sri/pkg/logger"
	pkgsri "github.com/jhoicas/facturacion-sri/pkg/sri"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   "info",
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	tenantRepo := postgres.NewTenantRepository(pool)
	clientRepo := postgres.NewClientRepository(pool)
	pointRepo := postgres.NewEmissionPointRepository(pool)
	invoiceRepo := postgres.NewInvoiceRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Pipeline SRI: secuencial → clave de acceso → XML → XAdES-BES → SOAP
	claveSvc := pkgsri.NewClaveAccesoService()
	allocator := billing.NewSequenceAllocator(txRunner, claveSvc, cfg.SRI.AllocMaxRetries)
	xmlBuilder := infrasri.NewXMLBuilderService()
	signerSvc := signer.NewDigitalSignatureService()
	certSource := infrasri.NewCertificateSource()
	submitter := infrasri.NewSOAPClient(cfg.SRI.RequestTimeout, cfg.SRI.SubmitMaxRetries)

	store, err := storage.NewLocalStore(cfg.SRI.ArtifactDir, cfg.SRI.ArtifactBaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("directorio de artefactos")
	}
	rideGen := infrapdf.NewMarotoRideGenerator()

	orchestrator := billing.NewFacturacionOrchestrator(
		invoiceRepo, tenantRepo, clientRepo, pointRepo,
		allocator, xmlBuilder, signerSvc, certSource,
		submitter, rideGen, store, cfg.SRI, log,
	)

	issueInvoiceUC := billing.NewIssueInvoiceUseCase(
		invoiceRepo, clientRepo, pointRepo, orchestrator,
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Facturación SRI API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		IssueInvoice: issueInvoiceUC,
		ClientRepo:   clientRepo,
		JWTSecret:    cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
