package auth

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/gitforge-admin/gitforge-admin/internal/db/models"
)

// EnsureDefaultRoles creates the seeded permissions and roles when missing.
// It is idempotent and safe to call on every start.
func EnsureDefaultRoles(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		perms := make(map[string]models.Permission, len(permissionDefs))

		for _, def := range permissionDefs {
			var p models.Permission

			err := tx.Where("name = ?", def.name).FirstOrCreate(&p, models.Permission{
				Name:        def.name,
				Resource:    def.resource,
				Action:      def.action,
				Description: def.description,
			}).Error
			if err != nil {
				return fmt.Errorf("failed to seed permission %s: %w", def.name, err)
			}

			perms[def.name] = p
		}

		for roleName, names := range rolePermissions {
			var role models.Role

			err := tx.Where("name = ?", roleName).FirstOrCreate(&role, models.Role{
				Name:        roleName,
				Description: "System role " + roleName,
				IsSystem:    true,
			}).Error
			if err != nil {
				return fmt.Errorf("failed to seed role %s: %w", roleName, err)
			}

			for _, name := range names {
				rp := models.RolePermission{RoleID: role.ID, PermissionID: perms[name].ID}
				if err = tx.Where(&rp).FirstOrCreate(&rp).Error; err != nil {
					return fmt.Errorf("failed to assign %s to %s: %w", name, roleName, err)
				}
			}
		}

		return nil
	})
}

// RoleByName loads a role.
func RoleByName(db *gorm.DB, name string) (*models.Role, error) {
	var role models.Role

	err := db.Where("name = ?", name).First(&role).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRoleNotFound, name)
	}

	if err != nil {
		return nil, err
	}

	return &role, nil
}
