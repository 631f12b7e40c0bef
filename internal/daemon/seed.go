package daemon

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/gitforge-admin/gitforge-admin/internal/auth"
	"github.com/gitforge-admin/gitforge-admin/internal/db/models"
)

const (
	defaultAdminUser     = "admin"
	defaultAdminEmail    = "admin@localhost"
	defaultAdminPassword = "changeme"
)

// seed creates the initial admin account when the user table is empty.
func seed(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}

	if count > 0 {
		return nil
	}

	role, err := auth.RoleByName(db, auth.RoleAdmin)
	if err != nil {
		return err
	}

	if _, err = auth.NewLocalProvider(db).CreateUser(
		defaultAdminUser, defaultAdminEmail, defaultAdminPassword, "Administrator", role.ID,
	); err != nil {
		return fmt.Errorf("failed to create the initial admin: %w", err)
	}

	log.Warn().Str("username", defaultAdminUser).Msg("initial admin created, change its password")

	return nil
}
