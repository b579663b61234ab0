package domain

import (
	"context"
	"encoding/json"
	"time"
)

// Card is a persisted card record from the history table, joined with the
// username of the sender.
type Card struct {
	ID          int64           `db:"id"`
	UserID      int64           `db:"user_id"`
	PresetID    *int64          `db:"preset_id"`
	HeaderText  string          `db:"header_text"`
	BodyContent json.RawMessage `db:"body_content"`
	BodyHTML    string          `db:"body_html"`
	BadgeNumber string          `db:"badge_number"`
	HideHeader  bool            `db:"hide_header"`
	SentAt      time.Time       `db:"sent_at"`
	SentBy      string          `db:"sent_by"`
}

// CardDraft is a validated and sanitized card submission. BodyHTML must
// already have passed through the sanitize package before a draft is handed
// to the broadcast service.
type CardDraft struct {
	HeaderText  string          `json:"header_text"`
	BodyContent json.RawMessage `json:"body_content"`
	BodyHTML    string          `json:"body_html"`
	BadgeNumber string          `json:"badge_number"`
	HideHeader  bool            `json:"hide_header"`
	PresetID    *int64          `json:"preset_id"`
}

// LiveCard is the value broadcast to displays and held by the live store.
// It is immutable once constructed; the store replaces it wholesale.
type LiveCard struct {
	HeaderText  string    `json:"headerText"`
	BodyHTML    string    `json:"bodyHtml"`
	BadgeNumber string    `json:"badgeNumber"`
	HideHeader  bool      `json:"hideHeader"`
	SentAt      time.Time `json:"sentAt"`
	SentBy      string    `json:"sentBy"`
}

// LiveCardFromRecord builds the broadcast value from a persisted card.
func LiveCardFromRecord(card *Card) LiveCard {
	return LiveCard{
		HeaderText:  card.HeaderText,
		BodyHTML:    card.BodyHTML,
		BadgeNumber: card.BadgeNumber,
		HideHeader:  card.HideHeader,
		SentAt:      card.SentAt,
		SentBy:      card.SentBy,
	}
}

type CardRepository interface {
	Create(ctx context.Context, userID int64, draft CardDraft) (int64, error)
	GetByID(ctx context.Context, id int64) (*Card, error)
	History(ctx context.Context, limit, offset int) ([]Card, error)
	HistoryByUser(ctx context.Context, userID int64, limit, offset int) ([]Card, error)
	Latest(ctx context.Context) (*Card, error)
}
