package live

import (
	"context"
	"fmt"
	"time"

	"github.com/colin-cd72/cards/internal/domain"
	"github.com/colin-cd72/cards/internal/metrics"
)

// Broadcaster is the slice of the Coordinator the card service needs.
type Broadcaster interface {
	DisplayCard(card domain.LiveCard)
	ClearCard()
}

// SendConfirmation is returned to the producer after a successful send.
type SendConfirmation struct {
	CardID int64     `json:"cardId"`
	SentAt time.Time `json:"sentAt"`
}

// CardService orchestrates send and clear: persist the card, then replace
// the on-air state and broadcast, in that order. The caller must have
// validated and sanitized the draft; drafts reaching this service are trusted.
type CardService struct {
	cards domain.CardRepository
	live  Broadcaster
}

func NewCardService(cards domain.CardRepository, live Broadcaster) *CardService {
	return &CardService{cards: cards, live: live}
}

// Send persists the draft, fetches the stored record (which carries the
// database timestamp and the sender's display name), puts it on air, and
// broadcasts card:display to all joined displays.
func (s *CardService) Send(ctx context.Context, userID int64, draft domain.CardDraft) (*SendConfirmation, error) {
	id, err := s.cards.Create(ctx, userID, draft)
	if err != nil {
		return nil, fmt.Errorf("failed to persist card: %w", err)
	}

	card, err := s.cards.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load persisted card: %w", err)
	}

	s.live.DisplayCard(domain.LiveCardFromRecord(card))
	metrics.CardsSentTotal.Inc()

	return &SendConfirmation{CardID: card.ID, SentAt: card.SentAt}, nil
}

// Clear blanks the on-air card and broadcasts card:blank. Always succeeds;
// clearing an already-blank state is a no-op from the caller's perspective.
func (s *CardService) Clear() {
	s.live.ClearCard()
	metrics.CardsClearedTotal.Inc()
}
