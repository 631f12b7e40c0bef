package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/gitforge-admin/gitforge-admin/internal/auth"
	fiberlogger "github.com/gitforge-admin/gitforge-admin/internal/logger/adapter/fiber"
	"github.com/gitforge-admin/gitforge-admin/internal/usage"
	"github.com/gitforge-admin/gitforge-admin/internal/version"
	"github.com/gitforge-admin/gitforge-admin/internal/web/handler"
	"github.com/gitforge-admin/gitforge-admin/internal/web/handler/admin/appsettings"
	"github.com/gitforge-admin/gitforge-admin/internal/web/handler/admin/runners"
	"github.com/gitforge-admin/gitforge-admin/internal/web/handler/dashboard"
	"github.com/gitforge-admin/gitforge-admin/internal/web/handler/login"
	"github.com/gitforge-admin/gitforge-admin/internal/web/handler/logout"
	"github.com/gitforge-admin/gitforge-admin/internal/web/handler/project/integration"
	authmiddleware "github.com/gitforge-admin/gitforge-admin/internal/web/middleware/auth"
)

const (
	// CheckAlivePath answers 503 while the service shuts down.
	CheckAlivePath = "/checkalive"

	// HighlightCSSPath serves the stylesheet of the highlighted usage data.
	HighlightCSSPath = "/static/css/highlight.css"

	readBufferSize = 8192
)

// Service represents the web service.
type Service struct {
	App          *fiber.App
	deps         *handler.Deps
	fastShutDown bool
	alive        atomic.Bool
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	s.alive.Store(true)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown waits for SIGINT or SIGTERM and stops the web service gracefully.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: set status to fail, so checkalive returns fail.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.deps.Cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.deps.Cfg.Webserver.ShutDownTime) * time.Second)
	}

	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		if err := s.App.Shutdown(); err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown
	log.Info().Msg("http server was stopped ... good bye...")
}

// templateFuncs are available in every template.
func templateFuncs() map[string]any {
	return map[string]any{
		"iterate": func(count int) []int {
			result := make([]int, count)
			for i := range result {
				result[i] = i
			}

			return result
		},
		"add": func(a, b int) int { return a + b },
		"sub": func(a, b int) int { return a - b },
		"inList": func(list []string, s string) bool {
			return slices.Contains(list, s)
		},
		"join":    strings.Join,
		"version": version.String,
	}
}

// Views returns the template engine, templates are read from disk in dev mode.
func Views(devMode bool) *html.Engine {
	engine := html.NewFileSystem(assetFS(templatesDir), ".gohtml")

	if devMode {
		engine = html.New("./internal/web/templates", ".gohtml")
		engine.Reload(true)

		log.Warn().Msg("debug mode enabled: using local filesystem for templates")
	}

	engine.AddFuncMap(templateFuncs())

	return engine
}

// New creates the web service and registers every handler.
func New(deps *handler.Deps, views fiber.Views) (*Service, error) {
	if !deps.Valid() {
		return nil, handler.ErrNilDeps
	}

	cfg := deps.Cfg

	if views == nil {
		views = Views(cfg.DevMode)
	}

	app := fiber.New(
		fiber.Config{
			ReadBufferSize: readBufferSize,
			AppName:        "GitForge-Admin",
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
			Views:          views,
		},
	)

	service := &Service{
		App:          app,
		deps:         deps,
		fastShutDown: cfg.DevMode,
	}
	service.alive.Store(true)

	if !cfg.Webserver.DisableRecover {
		app.Use(recover.New())
	}

	app.Use(fiberlogger.New(fiberlogger.Config{
		Config:        cfg.Log,
		CheckAliveURI: CheckAlivePath,
	}))

	app.Get(CheckAlivePath, func(c *fiber.Ctx) error {
		if !service.alive.Load() {
			return c.SendStatus(fiber.StatusServiceUnavailable)
		}

		return c.SendString("OK")
	})

	app.Get(authmiddleware.MetricsPath, adaptor.HTTPHandler(promhttp.Handler()))

	app.Get(HighlightCSSPath, func(c *fiber.Ctx) error {
		css, err := usage.CSS()
		if err != nil {
			return err
		}

		c.Type("css")

		return c.SendString(css)
	})

	app.Use("/static",
		filesystem.New(
			filesystem.Config{
				Root:       assetFS(staticDir),
				Browse:     cfg.Webserver.BrowseStatic,
			},
		),
	)

	app.Use(authmiddleware.Middleware)

	// permissions for templates, after the session middleware
	app.Use(auth.AddPermissionsToLocals(deps.Auth))

	handlers := []handler.Service{
		&login.Handler,
		&logout.Handler,
		&dashboard.Handler,
		&appsettings.Handler,
		&runners.Handler,
		&integration.Handler,
	}

	for _, h := range handlers {
		if err := h.Init(app, deps); err != nil {
			return nil, err
		}
	}

	app.Get(handler.RootPath, func(c *fiber.Ctx) error {
		return c.Redirect(handler.HomePath)
	})

	return service, nil
}
