package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"golang.org/x/sync/errgroup"

	"levelcheck/internal/config"
	apierrors "levelcheck/internal/errors"
	"levelcheck/internal/infrastructure"
	customMiddleware "levelcheck/internal/middleware"
	"levelcheck/internal/roster"
	"levelcheck/internal/services"
	handlers "levelcheck/internal/transport/http"
	"levelcheck/internal/validation"
)

// BuildTime is set at link time with -ldflags "-X levelcheck/internal/app.BuildTime=...".
var BuildTime string

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics
	Errors        *apierrors.ErrorHandler
	Services      *ServiceContainer
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Reports *services.ReportService
	Health  *services.HealthService
}

// NewApplication wires services, handlers and the router from cfg.
func NewApplication(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.Int("port", cfg.Server.Port))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreateBusinessMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
		Errors:        apierrors.NewErrorHandler(logger, cfg.Logging.Level == "debug"),
	}

	if err := app.initializeServices(); err != nil {
		return nil, err
	}
	if err := app.setupRouter(); err != nil {
		return nil, err
	}
	app.createServer()

	return app, nil
}

// initializeServices builds the report pipeline from config.
func (a *Application) initializeServices() error {
	columns, err := a.Config.Roster.Columns()
	if err != nil {
		return fmt.Errorf("invalid roster columns: %w", err)
	}
	options, err := a.Config.Report.Options()
	if err != nil {
		return fmt.Errorf("invalid report options: %w", err)
	}
	location, err := a.Config.Report.Location()
	if err != nil {
		return err
	}

	reports := services.NewReportService(
		roster.NewReader(columns, a.Logger),
		validation.NewFileValidator(a.Logger, a.Config.Upload.MaxBytes),
		options,
		location,
		a.Logger,
	).WithTelemetry(a.OTelProviders.Tracer, a.Metrics)

	a.Services = &ServiceContainer{
		Reports: reports,
		Health:  services.NewHealthService(config.AppVersion, BuildTime, reports, a.Logger),
	}

	a.Logger.Info("Services initialized",
		slog.String("enrollment_start_column", a.Config.Roster.EnrollmentStartColumn),
		slog.String("latest_assessment_column", a.Config.Roster.LatestAssessmentColumn),
		slog.String("rounding", options.Rounding.String()),
		slog.String("timezone", location.String()))
	return nil
}

// setupRouter applies middleware in order
// RequestID → RealIP → OTel → Logger → Recoverer → Security → CORS → RateLimit.
func (a *Application) setupRouter() error {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics)
	if err != nil {
		return fmt.Errorf("failed to create OpenTelemetry middleware: %w", err)
	}
	r.Use(otelMiddleware.Handler)

	// Scrapes skip logging and rate limiting.
	metricsHandler := handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP, a.Errors)
	r.Get("/metrics", metricsHandler.GetMetrics)

	uploadHandler, err := handlers.NewUploadHandler(a.Services.Reports, a.Logger)
	if err != nil {
		return err
	}
	reportHandler := handlers.NewReportHandler(a.Services.Reports, a.Logger, a.Errors)
	healthHandler := handlers.NewHealthHandler(a.Services.Health, a.Logger)

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(apierrors.RecoveryMiddleware(a.Errors))
		r.Use(customMiddleware.SecurityHeaders)

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(a.getCORSConfig()))
		}

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Errors,
				a.Logger,
			).Handler)
		}

		// HTML pages
		r.Get("/", uploadHandler.Index)
		r.With(
			customMiddleware.MaxBody(a.Config.Upload.MaxBytes),
			customMiddleware.Timeout(a.Config.Server.WriteTimeout),
		).Post("/upload", uploadHandler.Upload)

		r.Route("/api", func(r chi.Router) {
			r.Use(render.SetContentType(render.ContentTypeJSON))

			r.Get("/health", healthHandler.HealthCheck)
			r.Get("/health/ready", healthHandler.ReadinessCheck)
			r.Get("/health/live", healthHandler.LivenessCheck)
			r.Get("/version", healthHandler.Version)

			r.Group(func(r chi.Router) {
				r.Use(customMiddleware.BodyLimit(a.Config.Upload.MaxBytes, a.Errors, a.Logger))
				r.Use(customMiddleware.Timeout(a.Config.Server.WriteTimeout))
				r.Mount("/reports", reportHandler.Routes())
			})
		})
	})

	r.NotFound(a.Errors.NotFound)
	r.MethodNotAllowed(a.Errors.MethodNotAllowed)

	a.Router = r
	return nil
}

func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	return customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			"X-Request-ID",
			"X-Requested-With",
		},
		ExposedHeaders: []string{
			"X-Request-ID",
			"Content-Disposition",
		},
		MaxAge: 300,
		Logger: a.Logger,
	}
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(a.Logger.Handler(), slog.LevelWarn),
	}
}

// Serve accepts connections on l until ctx is cancelled, then shuts down
// gracefully within the configured shutdown timeout.
func (a *Application) Serve(ctx context.Context, l net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfoContext(gctx, "Server listening", slog.String("address", l.Addr().String()))
		if err := a.Server.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.Config.Server.ShutdownTimeout)
		defer cancel()
		return a.Stop(shutdownCtx)
	})

	return g.Wait()
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	if err := a.Server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(ctx); err != nil {
			infrastructure.WithError(a.Logger, err).ErrorContext(ctx, "Error shutting down OpenTelemetry")
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run listens on the configured port until SIGINT or SIGTERM.
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	l, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}

	a.Logger.InfoContext(ctx, "Application started",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))

	return a.Serve(ctx, l)
}
