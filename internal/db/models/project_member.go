package models

import "time"

// AccessLevel is the membership level of a user inside a project.
type AccessLevel int

// Project access levels.
const (
	AccessGuest      AccessLevel = 10
	AccessReporter   AccessLevel = 20
	AccessDeveloper  AccessLevel = 30
	AccessMaintainer AccessLevel = 40
	AccessOwner      AccessLevel = 50
)

// ProjectMember grants a user an access level inside a project.
type ProjectMember struct {
	ProjectID   uint64      `gorm:"primaryKey;column:project_id"`
	UserID      uint64      `gorm:"primaryKey;column:user_id"`
	AccessLevel AccessLevel `gorm:"not null"`
	User        User        `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time
}

// TableName specifies the database table name for the ProjectMember model.
func (ProjectMember) TableName() string {
	return "project_members"
}
