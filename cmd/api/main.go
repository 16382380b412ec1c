package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"printdesk/docs"
	"printdesk/internal/config"
	"printdesk/internal/converter"
	"printdesk/internal/database"
	"printdesk/internal/database/migration"
	handlers "printdesk/internal/http/handler"
	"printdesk/internal/http/middleware"
	"printdesk/internal/identity"
	"printdesk/internal/logging"
	"printdesk/internal/metrics"
	"printdesk/internal/otel"
	"printdesk/internal/pagecount"
	"printdesk/internal/printer"
	"printdesk/internal/repository/postgres"
	"printdesk/internal/service"
	"printdesk/internal/storage"
	"printdesk/internal/sweeper"
)

// multipart framing on top of the largest accepted file
const bodySlack = 1 << 20

// @title Print Desk API
// @version 1.0
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	loc := logging.LoadLocation(cfg.Log.Timezone)
	log := logging.New(os.Stdout, cfg.Log.Level, loc)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize tracing")
	}

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(ctx, cfg.Database, log)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
		log.WithError(err).Fatal("failed to migrate database")
	}

	objStore, err := openStorage(cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize object storage")
	}

	prn, err := printer.New(cfg.Printer)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize printer")
	}

	verifier, err := identity.NewJWTVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize token verifier")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	domainMetrics, err := metrics.New(reg)
	if err != nil {
		log.WithError(err).Fatal("failed to register domain metrics")
	}
	httpMetrics, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.WithError(err).Fatal("failed to register http metrics")
	}

	// Initialize repositories and services
	docRepo := postgres.NewDocumentPostgres(db)
	orderRepo := postgres.NewOrderPostgres(db)
	codeRepo := postgres.NewLoginCodePostgres(db)

	counter := pagecount.NewCounter(converter.New(cfg.Converter))
	quota := service.NewQuotaLedger(docRepo, cfg.Quota.UserCapBytes)

	docSvc := service.NewDocumentService(objStore, docRepo, quota, counter, service.IngestLimits{
		MaxFileBytes:   cfg.Quota.MaxFileBytes,
		AllowedFormats: cfg.Quota.AllowedFormats,
	}, log, domainMetrics)
	orderSvc := service.NewOrderService(orderRepo, docRepo, service.Pricing{
		PricePerPage: cfg.Pricing.PricePerPage,
		DuplexFactor: cfg.Pricing.DuplexFactor,
	}, log, domainMetrics)
	dispatchSvc := service.NewDispatchService(orderRepo, docRepo, objStore, prn, log, domainMetrics)
	codeSvc := service.NewCodeService(codeRepo)

	sw := sweeper.New(docRepo, objStore, cfg.Retention, log, domainMetrics)

	app := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler(),
		BodyLimit:             int(cfg.Quota.MaxFileBytes) + bodySlack,
		DisableStartupMessage: true,
	})

	// Register global middleware
	app.Use(otelfiber.Middleware())
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(log))
	app.Use(httpMetrics.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))

	handlers.RegisterRoutes(app, handlers.Dependencies{
		DB:        db,
		Documents: docSvc,
		Orders:    orderSvc,
		Dispatch:  dispatchSvc,
		Codes:     codeSvc,
		Verifier:  verifier,
	})

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	// The sweeper starts once the listener is up and stops after it closes.
	app.Hooks().OnListen(func(fiber.ListenData) error {
		if cfg.Retention.Enabled {
			sw.Start(ctx)
		}
		return nil
	})

	go func() {
		<-ctx.Done()
		log.WithField("event", "shutdown").Info("gracefully shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.WithError(err).Error("server shutdown")
		}
	}()

	addr := ":" + cfg.Port
	log.WithFields(logrus.Fields{"event": "listen", "addr": addr}).Info("starting server")
	if err := app.Listen(addr); err != nil {
		log.WithError(err).Fatal("failed to start server")
	}

	sw.Stop()

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(flushCtx); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Warn("tracer shutdown")
	}
}

// openStorage selects the blob backend named by STORAGE_BACKEND.
func openStorage(cfg *config.AppConfig) (storage.Storage, error) {
	switch cfg.Storage.Backend {
	case "", "minio":
		return storage.NewMinIO(cfg.MinIO)
	case "fs":
		return storage.NewFS(cfg.Storage.FSRoot)
	default:
		return nil, errors.New("unknown storage backend: " + cfg.Storage.Backend)
	}
}
