// Package dsn builds database connection strings from the configuration.
package dsn

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gitforge-admin/gitforge-admin/internal/config"
)

// MySQL builds the go-sql-driver Data Source Name.
func MySQL(db *config.DB) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
		db.User,
		db.Password,
		db.Host,
		db.Port,
		db.Name,
		db.Extras,
	)
}

// Postgres builds a postgres:// connection URI.
func Postgres(db *config.DB) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(db.User, db.Password),
		Host:     fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:     "/" + db.Name,
		RawQuery: db.Extras,
	}

	return u.String()
}

// SQLite returns the database file path with foreign keys enabled. Writers from other
// processes, such as the CLI next to the daemon, wait up to five seconds for the lock.
func SQLite(db *config.DB) string {
	name := db.Name
	if name == "" {
		name = "gitforge-admin.db"
	}

	sep := "?"
	if strings.Contains(name, "?") {
		sep = "&"
	}

	return name + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Create builds the Data Source Name for the configured engine.
func Create(cfg *config.Config) string {
	switch cfg.DB.GormEngine {
	case config.EngineMySQL:
		return MySQL(&cfg.DB)
	case config.EnginePostgres:
		return Postgres(&cfg.DB)
	default:
		return SQLite(&cfg.DB)
	}
}
