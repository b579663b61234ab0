package domain

import (
	"context"
	"encoding/json"
	"time"
)

// Setting keys seeded at first run.
const (
	SettingCardStyle      = "card_style"
	SettingOutputSettings = "output_settings"
)

// Setting is a keyed JSON configuration value.
type Setting struct {
	ID          int64           `db:"id"`
	Key         string          `db:"setting_key"`
	Value       json.RawMessage `db:"setting_value"`
	Description *string         `db:"description"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

type SettingsRepository interface {
	List(ctx context.Context) ([]Setting, error)
	Get(ctx context.Context, key string) (*Setting, error)
	Upsert(ctx context.Context, key string, value json.RawMessage) error
}
