package domain

import (
	"context"
	"encoding/json"
	"time"
)

// Preset is a reusable card template. Global presets are visible to every
// user; private presets only to their owner.
type Preset struct {
	ID           int64           `db:"id"`
	UserID       int64           `db:"user_id"`
	PresetNumber int             `db:"preset_number"`
	Subject      string          `db:"subject"`
	HeaderText   string          `db:"header_text"`
	BodyContent  json.RawMessage `db:"body_content"`
	BodyHTML     string          `db:"body_html"`
	BadgeNumber  string          `db:"badge_number"`
	IsGlobal     bool            `db:"is_global"`
	CreatedAt    time.Time       `db:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at"`
}

// PresetDraft is a validated preset create/update payload.
type PresetDraft struct {
	PresetNumber int             `json:"preset_number"`
	Subject      string          `json:"subject"`
	HeaderText   string          `json:"header_text"`
	BodyContent  json.RawMessage `json:"body_content"`
	BodyHTML     string          `json:"body_html"`
	BadgeNumber  string          `json:"badge_number"`
	IsGlobal     bool            `json:"is_global"`
}

type PresetRepository interface {
	ListForUser(ctx context.Context, userID int64) ([]Preset, error)
	GetByID(ctx context.Context, id int64) (*Preset, error)
	Search(ctx context.Context, userID int64, query string) ([]Preset, error)
	Create(ctx context.Context, userID int64, draft PresetDraft) (int64, error)
	Update(ctx context.Context, id int64, draft PresetDraft) error
	Delete(ctx context.Context, id int64) error
}
