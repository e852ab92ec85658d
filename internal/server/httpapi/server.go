// Package httpapi is the admin HTTP surface: routing, the payload
// sanitizer, the session gate and the mapping of errors to responses.
package httpapi

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/sazinconstruction/adminkeeper/internal/common"
	"github.com/sazinconstruction/adminkeeper/internal/logging"
	"github.com/sazinconstruction/adminkeeper/internal/sanitize"
	"github.com/sazinconstruction/adminkeeper/internal/server/auth"
	"github.com/sazinconstruction/adminkeeper/internal/server/cdn"
	"github.com/sazinconstruction/adminkeeper/internal/server/health"
	"github.com/sazinconstruction/adminkeeper/internal/server/services"
)

// Prefix is the mount point of the admin routes.
const Prefix = "/admin-action/auth"

// bodyLimit leaves room for a maximum size image plus the form fields.
const bodyLimit = cdn.MaxImageSize + 1<<20

type Options struct {
	Address         string
	IdentityHeader  string
	CookieSecure    bool
	CookieSameSite  string
	SessionTTL      time.Duration
	BotToken        string
	CORSOrigins     string
	MaxStringLength int
}

// Services are the operations the routes call.
type Services struct {
	Accounts *services.AccountService
	Admins   *services.AdminService
	Resets   *services.ResetService
	Gate     *auth.Gate
	Health   *health.Service
}

type HTTPServer struct {
	app      *fiber.App
	address  string
	logger   logging.Logger
	cookies  cookies
	accounts *services.AccountService
	admins   *services.AdminService
	resets   *services.ResetService
	health   *health.Service
}

func NewHTTPServer(o Options, svc Services, l logging.Logger) *HTTPServer {
	l = l.With("module", "http_server")
	if o.IdentityHeader == "" {
		o.IdentityHeader = common.IdentityHeaderName
	}

	s := &HTTPServer{
		address:  o.Address,
		logger:   l,
		cookies:  cookies{secure: o.CookieSecure, sameSite: strings.ToLower(o.CookieSameSite), maxAge: o.SessionTTL},
		accounts: svc.Accounts,
		admins:   svc.Admins,
		resets:   svc.Resets,
		health:   svc.Health,
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          ErrorHandler(l),
		BodyLimit:             bodyLimit,
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(attachRequestID)
	app.Use(corsHandler(o.CORSOrigins, o.IdentityHeader))

	app.Get("/healthz", s.healthz)

	policy := sanitize.DefaultPolicy()
	if o.MaxStringLength > 0 {
		policy = policy.WithMaxStringLength(o.MaxStringLength)
	}
	clean := Sanitize(sanitize.New(policy))
	session := RequireSession(svc.Gate, o.IdentityHeader, s.cookies)

	api := app.Group(Prefix, BotGuard(o.BotToken, l), clean)
	api.Post("/login", s.login)
	api.Post("/register", s.register)
	api.Post("/logout", s.logout)
	api.Post("/forgottenPass/request", s.requestReset)
	api.Post("/forgottenPass/verify", s.verifyReset)

	api.Get("/profile", session, s.profile)
	api.Post("/profile-update", session, s.updateProfile)
	api.Post("/changePass", session, s.changePassword)
	api.Get("/manage-admin", session, s.listAdmins)
	api.Post("/manage-admin", session, s.setAdminStatus)
	api.Delete("/manage-admin", session, s.deleteAdmin)

	s.app = app
	return s
}

// corsHandler allows the configured comma separated origins with
// credentials. Without a list it reflects the caller's origin.
func corsHandler(origins, identityHeader string) fiber.Handler {
	cfg := cors.Config{
		AllowCredentials: true,
		AllowHeaders:     strings.Join([]string{fiber.HeaderOrigin, fiber.HeaderContentType, fiber.HeaderAccept, identityHeader, BotTokenHeader}, ","),
		ExposeHeaders:    fiber.HeaderXRequestID,
	}
	if strings.TrimSpace(origins) == "" {
		cfg.AllowOriginsFunc = func(string) bool { return true }
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

// App exposes the fiber application for tests.
func (s *HTTPServer) App() *fiber.App { return s.app }

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *HTTPServer) Run(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", s.address)
		errc <- s.app.Listen(s.address)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.app.ShutdownWithContext(shutdownCtx)
}
