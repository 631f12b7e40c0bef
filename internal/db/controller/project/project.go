// Package project provides queries on projects and their members.
package project

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/gitforge-admin/gitforge-admin/internal/db/models"
	"github.com/gitforge-admin/gitforge-admin/internal/visibility"
)

var (
	// ErrProjectNotFound is returned when a project does not exist.
	ErrProjectNotFound = errors.New("project not found")
	// ErrPathEmpty is returned when a project is created without a path.
	ErrPathEmpty = errors.New("project path cannot be empty")
)

// Create inserts a project and makes the creator its owner.
func Create(db *gorm.DB, p *models.Project) error {
	if strings.TrimSpace(p.Path) == "" {
		return ErrPathEmpty
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return fmt.Errorf("failed to create project: %w", err)
		}

		if p.CreatorID == 0 {
			return nil
		}

		return tx.Create(&models.ProjectMember{
			ProjectID:   p.ID,
			UserID:      p.CreatorID,
			AccessLevel: models.AccessOwner,
		}).Error
	})
}

// Get loads a project by id.
func Get(db *gorm.DB, id uint64) (*models.Project, error) {
	var p models.Project

	if err := db.First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}

		return nil, err
	}

	return &p, nil
}

// Delete removes a project together with its members and integrations.
func Delete(db *gorm.DB, id uint64) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&models.Integration{}).Error; err != nil {
			return err
		}

		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectMember{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.Project{}, id)
		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected == 0 {
			return ErrProjectNotFound
		}

		return nil
	})
}

// AddMember grants userID the access level inside the project, replacing an existing membership.
func AddMember(db *gorm.DB, projectID, userID uint64, level models.AccessLevel) error {
	return db.Save(&models.ProjectMember{
		ProjectID:   projectID,
		UserID:      userID,
		AccessLevel: level,
	}).Error
}

// MemberAccess returns the access level of userID, zero when the user is no member.
func MemberAccess(db *gorm.DB, projectID, userID uint64) (models.AccessLevel, error) {
	var m models.ProjectMember

	err := db.Where("project_id = ? AND user_id = ?", projectID, userID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}

	if err != nil {
		return 0, err
	}

	return m.AccessLevel, nil
}

// ListForUser returns the projects userID is a member of. Admins see every project.
func ListForUser(db *gorm.DB, userID uint64, admin bool) ([]models.Project, error) {
	var projects []models.Project

	q := db.Model(&models.Project{})
	if !admin {
		q = q.Joins("JOIN project_members ON project_members.project_id = projects.id").
			Where("project_members.user_id = ?", userID)
	}

	if err := q.Order("projects.name").Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	return projects, nil
}

// CountByVisibility returns the number of projects per visibility level.
func CountByVisibility(db *gorm.DB) (map[visibility.Level]int64, error) {
	type row struct {
		Visibility visibility.Level
		Count      int64
	}

	var rows []row

	if err := db.Model(&models.Project{}).
		Select("visibility, COUNT(*) AS count").
		Group("visibility").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count projects: %w", err)
	}

	out := make(map[visibility.Level]int64, len(visibility.Levels()))
	for _, l := range visibility.Levels() {
		out[l] = 0
	}

	for _, r := range rows {
		out[r.Visibility] = r.Count
	}

	return out, nil
}

// Filter applies search and visibility filters.
func Filter(projects []models.Project, search string, level *visibility.Level) []models.Project {
	out := make([]models.Project, 0, len(projects))

	for _, p := range projects {
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), strings.ToLower(search)) &&
			!strings.Contains(strings.ToLower(p.Path), strings.ToLower(search)) {
			continue
		}

		if level != nil && p.Visibility != *level {
			continue
		}

		out = append(out, p)
	}

	return out
}

// Sort orders projects by name, path, visibility or created, ascending unless desc.
func Sort(projects []models.Project, field string, desc bool) {
	less := func(i, j int) bool {
		return strings.ToLower(projects[i].Name) < strings.ToLower(projects[j].Name)
	}

	switch field {
	case "path":
		less = func(i, j int) bool { return projects[i].Path < projects[j].Path }
	case "visibility":
		less = func(i, j int) bool { return projects[i].Visibility < projects[j].Visibility }
	case "created":
		less = func(i, j int) bool { return projects[i].CreatedAt.Before(projects[j].CreatedAt) }
	}

	sort.SliceStable(projects, func(i, j int) bool {
		if desc {
			return less(j, i)
		}

		return less(i, j)
	})
}

// Paginate returns the requested page; page is clamped into the valid range and returned.
func Paginate(projects []models.Project, page, pageSize int) (out []models.Project, totalPages, actualPage int) {
	total := len(projects)

	totalPages = (total + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	if page > totalPages {
		page = totalPages
	}

	if page < 1 {
		page = 1
	}

	start := (page - 1) * pageSize
	end := min(start+pageSize, total)

	if start >= total {
		return []models.Project{}, totalPages, page
	}

	return projects[start:end], totalPages, page
}
