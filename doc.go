// Package main provides the entry point of GitForge-Admin, the admin console of a
// self-hosted code forge. It serves the application settings pages, the runner
// registration token, usage data and the per-project third-party integrations
// through a Fiber web application backed by gorm.
package main
