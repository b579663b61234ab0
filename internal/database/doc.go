// Package database provides the PostgreSQL connection pool, schema
// migrations, and repository implementations for users, presets, cards,
// and settings.
package database
