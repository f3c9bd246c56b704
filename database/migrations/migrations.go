// Package migrations contains all database migration files.
// Each migration file uses init() to call migration.Register().
// This package is imported by cmd/server/main.go to ensure all
// migrations are registered at startup.
package migrations
