// Package server wires the admin backend together: storage, keys, services,
// the HTTP API and the gRPC health endpoint. It also handles graceful
// shutdown.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sazinconstruction/adminkeeper/internal/logging"
	"github.com/sazinconstruction/adminkeeper/internal/server/auth"
	"github.com/sazinconstruction/adminkeeper/internal/server/cdn"
	"github.com/sazinconstruction/adminkeeper/internal/server/config"
	"github.com/sazinconstruction/adminkeeper/internal/server/fields"
	"github.com/sazinconstruction/adminkeeper/internal/server/health"
	"github.com/sazinconstruction/adminkeeper/internal/server/httpapi"
	"github.com/sazinconstruction/adminkeeper/internal/server/mailer"
	"github.com/sazinconstruction/adminkeeper/internal/server/models"
	"github.com/sazinconstruction/adminkeeper/internal/server/repositories/repomanager"
	"github.com/sazinconstruction/adminkeeper/internal/server/services"

	gs "github.com/sazinconstruction/adminkeeper/internal/server/grpc"
)

const (
	connectTimeout  = 10 * time.Second
	pingTimeout     = 2 * time.Second
	purgeInterval   = time.Minute
	healthInterval  = 10 * time.Second
	closeTimeout    = 5 * time.Second
	memoryImageBase = "memory://images"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	manager     repomanager.RepositoryManager
	revocations *auth.Revocations
	health      *health.Service
	http        *httpapi.HTTPServer
	grpc        *gs.GRPCServer
}

// NewApp connects the store and builds every component from c.
func NewApp(ctx context.Context, c *config.Config, version string) (*App, error) {
	logger := logging.New(os.Stdout, c.LogFormat, c.LogLevel)

	secrets, err := c.Secrets()
	if err != nil {
		return nil, fmt.Errorf("secrets: %w", err)
	}

	manager, err := openStore(ctx, c, logger)
	if err != nil {
		return nil, err
	}

	images, err := openImages(ctx, c, logger)
	if err != nil {
		return nil, err
	}

	ml, err := openMailer(c, logger)
	if err != nil {
		return nil, err
	}

	policy, err := auth.ParseRotationPolicy(c.SessionRotation)
	if err != nil {
		return nil, err
	}
	sessions := auth.NewSessions(secrets.SigningKey, secrets.Transport, c.SessionTTL, policy)
	revocations := auth.NewRevocations()
	gate := auth.NewGate(sessions, manager.Accounts(), revocations, logger)
	pipeline := fields.NewPipeline(secrets.Transport, secrets.Storage)

	hs := health.NewService(version)
	hs.RegisterChecker("liveness", health.LivenessChecker{})
	hs.RegisterChecker("store", health.NewStoreChecker(manager, pingTimeout))

	svc := httpapi.Services{
		Accounts: services.NewAccountService(manager, pipeline, sessions, gate, images, services.AccountOptions{
			InitialStatus:   models.AccountStatus(c.InitialStatus),
			DefaultImageURL: c.DefaultImageURL,
		}, logger),
		Admins: services.NewAdminService(manager, pipeline, images, logger),
		Resets: services.NewResetService(manager, pipeline, ml, services.ResetOptions{
			TTL:         c.OTPTTL,
			MaxAttempts: c.OTPMaxAttempts,
		}, logger),
		Gate:   gate,
		Health: hs,
	}

	httpSrv := httpapi.NewHTTPServer(httpapi.Options{
		Address:         c.HTTPAddr,
		IdentityHeader:  c.IdentityHeader,
		CookieSecure:    c.CookieSecure,
		CookieSameSite:  c.CookieSameSite,
		SessionTTL:      c.SessionTTL,
		BotToken:        c.BotToken,
		CORSOrigins:     c.CORSOrigins,
		MaxStringLength: c.MaxStringLength,
	}, svc, logger)

	return &App{
		config:      c,
		logger:      logger,
		manager:     manager,
		revocations: revocations,
		health:      hs,
		http:        httpSrv,
		grpc:        gs.NewGRPCServer(c.GRPCHealthAddr, logger, hs, healthInterval),
	}, nil
}

func openStore(ctx context.Context, c *config.Config, l logging.Logger) (repomanager.RepositoryManager, error) {
	if c.MongoURI == config.MemoryStoreURI {
		l.Warn(ctx, "using the in-memory store, data is lost on exit")
		return repomanager.NewMemoryManager(), nil
	}

	m := repomanager.NewMongoManager(c.MongoURI, c.MongoDatabase)
	cctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := m.Connect(cctx); err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := m.EnsureIndexes(cctx); err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	return m, nil
}

func openImages(ctx context.Context, c *config.Config, l logging.Logger) (cdn.ImageStore, error) {
	if c.S3AccessKey == "" || c.S3Bucket == "" {
		l.Warn(ctx, "S3 is not configured, images are kept in memory")
		return cdn.NewMemoryStore(memoryImageBase), nil
	}
	store, err := cdn.NewS3Store(ctx, cdn.S3Options{
		AccessKey:    c.S3AccessKey,
		SecretKey:    c.S3SecretKey,
		Region:       c.S3Region,
		BaseEndpoint: c.S3BaseEndpoint,
		Bucket:       c.S3Bucket,
		PublicURL:    c.S3PublicURL,
	})
	if err != nil {
		return nil, fmt.Errorf("cdn init error: %w", err)
	}
	return store, nil
}

func openMailer(c *config.Config, l logging.Logger) (mailer.Mailer, error) {
	if c.SMTPHost == "" {
		return mailer.NewLogMailer(l), nil
	}
	m, err := mailer.NewSMTPMailer(mailer.SMTPOptions{
		Host:     c.SMTPHost,
		Port:     c.SMTPPort,
		Username: c.SMTPUsername,
		Password: c.SMTPPassword,
		From:     c.SMTPFrom,
	})
	if err != nil {
		return nil, fmt.Errorf("mailer init error: %w", err)
	}
	return m, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.http.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.grpc.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until a signal arrives or a server fails, then reports
// unhealthy, drains both servers and closes the store.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(4)
	go func() {
		defer wg.Done()
		app.revocations.Run(ctx, purgeInterval)
	}()
	go func() {
		defer wg.Done()
		<-ctx.Done()
		app.health.Shutdown()
	}()
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	closeCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if err := app.manager.Close(closeCtx); err != nil {
		app.logger.Error(closeCtx, "store close failed", "error", err)
	}
	app.logger.Info(closeCtx, "App stopped")
}
