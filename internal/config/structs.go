package config

import (
	"time"

	"github.com/gitforge-admin/gitforge-admin/internal/logger"
)

const (
	// CacheNone reads the application settings straight from the database on every request.
	CacheNone = "none"
	// CacheMemory keeps the application settings in a process local LRU.
	CacheMemory = "memory"
	// CacheRedis shares the application settings cache between instances through redis.
	CacheRedis = "redis"

	defaultIntegrationTestTimeout = 10 * time.Second
	defaultUsagePingSchedule      = "@weekly"
)

// Session settings.
type Session struct {
	ExpiryTime time.Duration
}

// Config overall data structure.
type Config struct {
	DevMode      bool // enable dev mode for development
	DB           DB
	Log          logger.Log
	Title        string
	Webserver    Webserver
	Cache        Cache
	Integrations Integrations
	LetsEncrypt  LetsEncrypt
	Usage        Usage
}

// Webserver implement webserver settings.
type Webserver struct {
	BrowseStatic        bool    // enable static file browsing (for development purposes only)
	CacheEnabled        bool    // true = enable cache, false = disable cache
	CleanPath           bool    // use clean path middleware to allow multi slash requests
	DisableRecover      bool    // disable recover middleware
	Domain              string  // domain name for the webserver
	Port                int     // listening port for the webserver
	ShutDownTime        int     // wait time for shutdown
	URL                 string  // base url for the webserver
	CookieEncryptionKey string  // encryption key for cookies
	Argon2Salt          string  // salt for argon2 hashing
	Session             Session // session settings
}

// Cache configures where the application settings record is cached.
type Cache struct {
	Driver string        // none, memory or redis
	TTL    time.Duration // how long a cached copy is served, 0 = until the next write
	Size   int           // memory: number of cached entries
	Redis  Redis
}

// Redis connection settings.
type Redis struct {
	Addr     string
	Password string
	DB       int
	Prefix   string // key prefix, shared instances need the same prefix
}

// Integrations configures the outbound calls made while testing integrations.
type Integrations struct {
	TestTimeout       time.Duration // upper bound of a single test call
	PivotalTrackerURL string        // API base, defaults to https://www.pivotaltracker.com
	AWSRegion         string        // region used for the EKS credential check
	STSEndpoint       string        // optional STS endpoint override
}

// LetsEncrypt configures the ACME directory used for the terms of service lookup.
type LetsEncrypt struct {
	DirectoryURL string // defaults to the Let's Encrypt production directory
}

// Usage configures the usage ping.
type Usage struct {
	PingSchedule string // cron spec, defaults to @weekly
	Edition      string // reported installation type
}
