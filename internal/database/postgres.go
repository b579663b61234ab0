package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("Database connected", "max_conns", poolCfg.MaxConns)
	return pool, nil
}

func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'producer' CHECK (role IN ('admin', 'producer', 'viewer')),
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			last_login TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS presets (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			preset_number INT NOT NULL,
			subject TEXT NOT NULL,
			header_text TEXT NOT NULL,
			body_content JSONB NOT NULL,
			body_html TEXT NOT NULL,
			badge_number TEXT NOT NULL DEFAULT '',
			is_global BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (user_id, preset_number)
		)`,
		`CREATE TABLE IF NOT EXISTS cards (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			preset_id BIGINT REFERENCES presets(id) ON DELETE SET NULL,
			header_text TEXT NOT NULL,
			body_content JSONB NOT NULL,
			body_html TEXT NOT NULL,
			badge_number TEXT NOT NULL DEFAULT '',
			hide_header BOOLEAN NOT NULL DEFAULT FALSE,
			sent_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			id BIGSERIAL PRIMARY KEY,
			setting_key TEXT NOT NULL UNIQUE,
			setting_value JSONB NOT NULL,
			description TEXT,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_presets_user_id ON presets(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_cards_user_id ON cards(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_cards_sent_at ON cards(sent_at DESC)`,
	}

	for _, migration := range migrations {
		if _, err := pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}

	if err := seedDefaults(ctx, pool); err != nil {
		return err
	}

	slog.Info("Database migrations completed")
	return nil
}

// seedDefaults creates the initial admin account and default settings rows on
// a fresh database.
func seedDefaults(ctx context.Context, pool *pgxpool.Pool) error {
	var userCount int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&userCount); err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}

	if userCount == 0 {
		hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash default password: %w", err)
		}
		_, err = pool.Exec(ctx, `
			INSERT INTO users (username, email, password_hash, role)
			VALUES ('admin', 'admin@example.com', $1, 'admin')
		`, string(hash))
		if err != nil {
			return fmt.Errorf("failed to seed admin user: %w", err)
		}
		slog.Warn("Default admin user created, change the password immediately", "username", "admin")
	}

	defaults := []struct {
		key, value, description string
	}{
		{
			key:         "card_style",
			value:       `{"backgroundColor":"#ffffff","headerColor":"#000000","badgeColor":"#ffff00","fontFamily":"Georgia, serif","fontSize":"20px"}`,
			description: "Default card styling",
		},
		{
			key:         "output_settings",
			value:       `{"blankOnStartup":true,"inverseColors":false,"transitionDuration":300}`,
			description: "Output page behavior settings",
		},
	}

	for _, d := range defaults {
		_, err := pool.Exec(ctx, `
			INSERT INTO settings (setting_key, setting_value, description)
			VALUES ($1, $2, $3)
			ON CONFLICT (setting_key) DO NOTHING
		`, d.key, d.value, d.description)
		if err != nil {
			return fmt.Errorf("failed to seed setting %s: %w", d.key, err)
		}
	}

	return nil
}
