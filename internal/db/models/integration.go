package models

import "time"

// Integration stores the credentials of one third-party service for one project.
// Properties is a JSON encoded string map; its keys depend on the provider type.
type Integration struct {
	ID         uint64 `gorm:"primaryKey"`
	ProjectID  uint64 `gorm:"not null;uniqueIndex:idx_integration_project_type"`
	Type       string `gorm:"size:50;not null;uniqueIndex:idx_integration_project_type"`
	Active     bool   `gorm:"not null;default:false"`
	Properties []byte
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName specifies the database table name for the Integration model.
func (Integration) TableName() string {
	return "integrations"
}

// All returns every model handled by AutoMigrate in dependency order.
func All() []any {
	return []any{
		&Role{},
		&Permission{},
		&RolePermission{},
		&User{},
		&Setting{},
		&Project{},
		&ProjectMember{},
		&Integration{},
	}
}
