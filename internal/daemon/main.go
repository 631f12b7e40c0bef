// Package daemon wires the database, caches, integrations, usage ping and web service together.
package daemon

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	sessionmysql "github.com/gofiber/storage/mysql/v2"
	sessionpostgres "github.com/gofiber/storage/postgres/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/gitforge-admin/gitforge-admin/internal/auth"
	"github.com/gitforge-admin/gitforge-admin/internal/cache"
	"github.com/gitforge-admin/gitforge-admin/internal/config"
	"github.com/gitforge-admin/gitforge-admin/internal/db"
	"github.com/gitforge-admin/gitforge-admin/internal/db/controller/appsetting"
	"github.com/gitforge-admin/gitforge-admin/internal/db/dsn"
	"github.com/gitforge-admin/gitforge-admin/internal/integrations"
	"github.com/gitforge-admin/gitforge-admin/internal/integrations/eks"
	"github.com/gitforge-admin/gitforge-admin/internal/integrations/providers"
	"github.com/gitforge-admin/gitforge-admin/internal/usage"
	"github.com/gitforge-admin/gitforge-admin/internal/web"
	"github.com/gitforge-admin/gitforge-admin/internal/web/handler"
	"github.com/gitforge-admin/gitforge-admin/internal/web/session"
)

const sessionTable = "sessions"

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	webService *web.Service
	pinger     *usage.Pinger
}

// Start starts the usage ping and the web service; it blocks until the web service stops.
func (d *Daemon) Start() error {
	if err := d.pinger.Start(d.cfg.Usage.PingSchedule); err != nil {
		return err
	}
	defer d.pinger.Stop()

	go d.webService.WaitShutdown()

	return d.webService.Start(":" + strconv.Itoa(d.cfg.Webserver.Port))
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, db.ErrNilConfig
	}

	gdb, err := db.Open(cfg)
	if err != nil {
		return nil, err
	}

	if err = auth.EnsureDefaultRoles(gdb); err != nil {
		return nil, fmt.Errorf("failed to seed roles: %w", err)
	}

	if err = seed(gdb); err != nil {
		return nil, err
	}

	session.Init(sessionStorage(cfg), cfg.Webserver.Session.ExpiryTime)

	store, err := cache.New(cfg.Cache)
	if err != nil {
		return nil, err
	}

	deps, err := Deps(context.Background(), cfg, gdb, store)
	if err != nil {
		return nil, err
	}

	pinger, err := usage.NewPinger(deps.Usage, deps.Settings, prometheus.DefaultRegisterer)
	if err != nil {
		return nil, err
	}

	webService, err := web.New(deps, nil)
	if err != nil {
		return nil, err
	}

	log.Info().Str("db", cfg.DB.GormEngine).Str("cache", cfg.Cache.Driver).
		Strs("integrations", deps.Integrations.Registry().Types()).Msg("daemon initialised")

	return &Daemon{
		cfg:        cfg,
		webService: webService,
		pinger:     pinger,
	}, nil
}

// Deps builds the handler dependencies and makes sure the settings record exists.
func Deps(ctx context.Context, cfg *config.Config, gdb *gorm.DB, store cache.Store) (*handler.Deps, error) {
	settings := appsetting.New(gdb, store)

	s, err := settings.Current(ctx)
	if err != nil {
		return nil, err
	}

	registry := providers.Registry(cfg.Integrations)

	deps := &handler.Deps{
		Cfg:          cfg,
		DB:           gdb,
		Auth:         auth.NewService(gdb),
		Settings:     settings,
		Integrations: integrations.NewService(gdb, registry, cfg.Integrations.TestTimeout,
			integrations.WithAllowlist(settings.OutboundAllowlist)),
		Usage:        usage.NewCollector(gdb, settings, registry, cfg.Usage.Edition),
		EKS:          eks.NewChecker(cfg.Integrations.AWSRegion, cfg.Integrations.STSEndpoint),
	}

	log.Info().Str("uuid", s.UUID).Msg("application settings loaded")

	return deps, nil
}

// sessionStorage keeps sessions in the application database; sqlite uses fiber's memory storage.
func sessionStorage(cfg *config.Config) fiber.Storage {
	switch cfg.DB.GormEngine {
	case config.EngineMySQL:
		return sessionmysql.New(sessionmysql.Config{
			ConnectionURI: dsn.MySQL(&cfg.DB),
			Table:         sessionTable,
		})
	case config.EnginePostgres:
		return sessionpostgres.New(sessionpostgres.Config{
			ConnectionURI: dsn.Postgres(&cfg.DB),
			Table:         sessionTable,
		})
	}

	log.Warn().Msg("sqlite database: sessions are kept in memory and lost on restart")

	return nil
}
