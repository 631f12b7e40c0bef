// Package setting provides access to the named JSON blobs of the settings table.
package setting

import (
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gitforge-admin/gitforge-admin/internal/db/models"
)

const (
	nameQueryPattern = "name = ?"
)

var (
	// ErrSettingNotFound is returned when a setting is not found.
	ErrSettingNotFound = errors.New("setting not found")
	// ErrSettingNameEmpty is returned when a setting name is empty.
	ErrSettingNameEmpty = errors.New("setting name cannot be empty")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Get retrieves a setting by its name.
func Get(db *gorm.DB, name string) (*models.Setting, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	if name == "" {
		return nil, ErrSettingNameEmpty
	}

	var setting models.Setting

	result := db.Where(nameQueryPattern, name).First(&setting)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrSettingNotFound
		}

		return nil, result.Error
	}

	return &setting, nil
}

// GetForUpdate retrieves a setting by name and locks its row until the transaction of db ends.
// Engines without row locks, such as sqlite, ignore the lock clause.
func GetForUpdate(tx *gorm.DB, name string) (*models.Setting, error) {
	if tx == nil {
		return nil, ErrDBNil
	}

	return Get(tx.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}), name)
}

// Create stores v under name unless the name exists and reports whether it did.
func Create(db *gorm.DB, name string, v any) (bool, error) {
	if db == nil {
		return false, ErrDBNil
	}

	if name == "" {
		return false, ErrSettingNameEmpty
	}

	data, err := json.Marshal(v)
	if err != nil {
		return false, fmt.Errorf("encoding setting %s: %w", name, err)
	}

	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&models.Setting{Name: name, Value: data})
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}

// GetAll retrieves all settings ordered by name.
func GetAll(db *gorm.DB) ([]models.Setting, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var settings []models.Setting
	if err := db.Order("name").Find(&settings).Error; err != nil {
		return nil, err
	}

	return settings, nil
}

// Set creates or updates a setting by name.
func Set(db *gorm.DB, name string, value []byte) (*models.Setting, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	if name == "" {
		return nil, ErrSettingNameEmpty
	}

	var setting models.Setting

	err := db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where(nameQueryPattern, name).First(&setting)

		switch {
		case errors.Is(result.Error, gorm.ErrRecordNotFound):
			setting = models.Setting{Name: name, Value: value}
			return tx.Create(&setting).Error
		case result.Error != nil:
			return result.Error
		}

		setting.Value = value

		return tx.Save(&setting).Error
	})
	if err != nil {
		return nil, err
	}

	return &setting, nil
}

// Delete deletes a setting by name.
func Delete(db *gorm.DB, name string) error {
	if db == nil {
		return ErrDBNil
	}

	if name == "" {
		return ErrSettingNameEmpty
	}

	result := db.Where(nameQueryPattern, name).Delete(&models.Setting{})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrSettingNotFound
	}

	return nil
}

// Load unmarshals the JSON blob stored under name into v.
func Load(db *gorm.DB, name string, v any) error {
	s, err := Get(db, name)
	if err != nil {
		return err
	}

	if err = json.Unmarshal(s.Value, v); err != nil {
		return fmt.Errorf("decoding setting %s: %w", name, err)
	}

	return nil
}

// Save marshals v to JSON and stores it under name.
func Save(db *gorm.DB, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding setting %s: %w", name, err)
	}

	_, err = Set(db, name, data)

	return err
}
