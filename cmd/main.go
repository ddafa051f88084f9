package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/inforum/diagnostico/internal/adapters/crm"
	"github.com/inforum/diagnostico/internal/adapters/http/api"
	"github.com/inforum/diagnostico/internal/adapters/http/site"
	"github.com/inforum/diagnostico/internal/adapters/http/swagger"
	"github.com/inforum/diagnostico/internal/adapters/mailer"
	service "github.com/inforum/diagnostico/internal/app"
	"github.com/inforum/diagnostico/internal/config"
	"github.com/inforum/diagnostico/internal/domain/notify"
	"github.com/inforum/diagnostico/internal/domain/region"
	"github.com/inforum/diagnostico/pkg/logger"
	"github.com/inforum/diagnostico/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6

	// A submission makes at most this many sequential CRM calls.
	crmCallsPerSubmission = 6
	writeTimeoutSlack     = 5 * time.Second
)

func main() {
	if err := logger.Init(); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1) //nolint:gocritic // nothing to clean up yet
	}

	if err := logger.InitWithWriter(os.Stdout, cfg.LogFormat); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("logLevel", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	handler, err := buildHandler(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "failed to build service", logger.Error(err))
		os.Exit(1)
	}

	go startSystemMetricsUpdater(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout(cfg),
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.Bool("crmConfigured", cfg.CRMBaseURL() != "" && cfg.CRM.APIToken != ""),
			logger.Bool("mailEnabled", cfg.MailEnabled()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
}

// buildHandler wires every adapter from cfg into one CORS-wrapped handler.
func buildHandler(ctx context.Context, cfg *config.Config, log logger.Logger) (http.Handler, error) {
	resolver, err := region.NewResolver(cfg.RegionTables())
	if err != nil {
		return nil, fmt.Errorf("region tables: %w", err)
	}

	var opts []service.Option
	opts = append(opts,
		service.WithLogger(log.Named("service")),
		service.WithResolver(resolver),
		service.WithSiteURL(cfg.Site.URL),
		service.WithComposer(notify.NewComposer(
			notify.WithSiteURL(cfg.Site.URL),
			notify.WithVideoURL(cfg.Site.VideoURL),
			notify.WithAssetVersion(cfg.Site.AssetVersion),
		)),
		service.WithMailer(mailer.New(mailer.Settings{
			Host:    cfg.SMTP.Host,
			Port:    cfg.SMTP.Port,
			User:    cfg.SMTP.User,
			Pass:    cfg.SMTP.Pass,
			From:    cfg.SMTP.From,
			Timeout: time.Duration(cfg.SMTP.TimeoutMS) * time.Millisecond,
		}, mailer.WithLogger(log.Named("mailer")))),
	)

	// Without a token every submission would fail at the deal step, so the
	// CRM stays unset and the pipeline reports it explicitly.
	if base := cfg.CRMBaseURL(); base != "" && cfg.CRM.APIToken != "" {
		opts = append(opts, service.WithCRM(crm.New(base, cfg.CRM.APIToken,
			crm.WithTimeout(time.Duration(cfg.CRM.TimeoutMS)*time.Millisecond),
			crm.WithPersonRoleField(cfg.CRM.PersonRoleField),
			crm.WithCurrency(cfg.CRM.Currency),
			crm.WithLogger(log.Named("crm")),
		)))
	} else {
		log.Warn(ctx, "CRM is not configured; submissions will fail at the deal step")
	}
	svc := service.New(opts...)

	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	site.Register(ctx, mux)
	api.NewServer(svc,
		api.WithDefaultOrigin(cfg.DefaultOrigin),
		api.WithLogger(log.Named("api")),
	).Register(ctx, mux)

	return cors.New(cors.Options{
		AllowedOrigins: cfg.Origins(),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         int(time.Hour / time.Second),
	}).Handler(mux), nil
}

// writeTimeout leaves room for the worst-case sequential CRM calls plus
// the SMTP delivery of one submission.
func writeTimeout(cfg *config.Config) time.Duration {
	crmBudget := time.Duration(cfg.CRM.TimeoutMS) * time.Millisecond * crmCallsPerSubmission
	smtpBudget := time.Duration(cfg.SMTP.TimeoutMS) * time.Millisecond
	return crmBudget + smtpBudget + writeTimeoutSlack
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
