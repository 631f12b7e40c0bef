package setting

import (
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gitforge-admin/gitforge-admin/internal/db/models"
)

// setupTestDB creates a file backed SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	require.NoError(t, db.AutoMigrate(&models.Setting{}), "failed to migrate test database")

	return db
}

func TestGet(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.Create(&models.Setting{Name: "site_name", Value: []byte("My Site")}).Error)

	testCases := []struct {
		name          string
		db            *gorm.DB
		settingName   string
		expectedError error
		expectedValue []byte
	}{
		{name: "nil database", settingName: "test", expectedError: ErrDBNil},
		{name: "empty name", db: db, expectedError: ErrSettingNameEmpty},
		{name: "not found", db: db, settingName: "nonexistent", expectedError: ErrSettingNotFound},
		{name: "found", db: db, settingName: "site_name", expectedValue: []byte("My Site")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := Get(tc.db, tc.settingName)
			if tc.expectedError != nil {
				require.ErrorIs(t, err, tc.expectedError)
				assert.Nil(t, s)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expectedValue, s.Value)
		})
	}
}

func TestSetCreatesAndUpdates(t *testing.T) {
	db := setupTestDB(t)

	created, err := Set(db, "theme", []byte("dark"))
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	updated, err := Set(db, "theme", []byte("light"))
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)

	s, err := Get(db, "theme")
	require.NoError(t, err)
	assert.Equal(t, []byte("light"), s.Value)

	var count int64
	require.NoError(t, db.Model(&models.Setting{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	_, err = Set(db, "", nil)
	require.ErrorIs(t, err, ErrSettingNameEmpty)
}

func TestGetAllAndDelete(t *testing.T) {
	db := setupTestDB(t)

	_, err := Set(db, "b", []byte("2"))
	require.NoError(t, err)
	_, err = Set(db, "a", []byte("1"))
	require.NoError(t, err)

	all, err := GetAll(db)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].Name)

	require.NoError(t, Delete(db, "a"))
	require.ErrorIs(t, Delete(db, "a"), ErrSettingNotFound)
	require.ErrorIs(t, Delete(nil, "a"), ErrDBNil)
}

func TestLoadSave(t *testing.T) {
	type blob struct {
		Enabled bool   `json:"enabled"`
		Label   string `json:"label"`
	}

	db := setupTestDB(t)

	require.ErrorIs(t, Load(db, "blob", &blob{}), ErrSettingNotFound)

	require.NoError(t, Save(db, "blob", blob{Enabled: true, Label: "x"}))

	var got blob
	require.NoError(t, Load(db, "blob", &got))
	assert.Equal(t, blob{Enabled: true, Label: "x"}, got)

	_, err := Set(db, "broken", []byte("{"))
	require.NoError(t, err)
	require.Error(t, Load(db, "broken", &got))
}
