package models

import (
	"time"

	"github.com/gitforge-admin/gitforge-admin/internal/visibility"
)

// Project is a code repository owned by the forge.
type Project struct {
	ID          uint64 `gorm:"primaryKey"`
	Name        string `gorm:"size:255;not null"`
	Path        string `gorm:"unique;size:255;not null"`
	Description string `gorm:"size:2000"`
	// Visibility is stored as its numeric level code.
	Visibility visibility.Level `gorm:"not null;default:0"`
	// CreatorID is the user that created the project.
	CreatorID uint64
	// Members and Integrations are removed together with the project.
	Members      []ProjectMember `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
	Integrations []Integration   `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName specifies the database table name for the Project model.
func (Project) TableName() string {
	return "projects"
}
