package handler

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/gitforge-admin/gitforge-admin/internal/auth"
	"github.com/gitforge-admin/gitforge-admin/internal/config"
	"github.com/gitforge-admin/gitforge-admin/internal/db/controller/appsetting"
	"github.com/gitforge-admin/gitforge-admin/internal/integrations"
	"github.com/gitforge-admin/gitforge-admin/internal/integrations/eks"
	"github.com/gitforge-admin/gitforge-admin/internal/usage"
)

// Deps are the services shared by all handlers.
type Deps struct {
	Cfg          *config.Config
	DB           *gorm.DB
	Auth         *auth.Service
	Settings     *appsetting.Controller
	Integrations *integrations.Service
	Usage        *usage.Collector
	EKS          *eks.Checker
}

// Valid reports whether the dependencies every handler needs are set.
func (d *Deps) Valid() bool {
	return d != nil && d.Cfg != nil && d.DB != nil && d.Auth != nil && d.Settings != nil
}

// Service is the interface for a web handler service.
type Service interface {
	Init(app *fiber.App, deps *Deps) error
}
