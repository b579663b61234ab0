package live

import (
	"sync"

	"github.com/colin-cd72/cards/internal/domain"
)

// CardStore is the process-wide register holding the currently displayed
// card. It is replaced wholesale on every send and cleared to absent on
// clear; readers always observe a fully constructed value. Last writer wins
// under concurrent replaces.
type CardStore struct {
	mu   sync.RWMutex
	card *domain.LiveCard
}

func NewCardStore() *CardStore {
	return &CardStore{}
}

// Replace atomically sets the current card.
func (s *CardStore) Replace(card domain.LiveCard) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.card = &card
}

// Clear atomically sets the state to absent. Clearing an already-blank store
// is a no-op.
func (s *CardStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.card = nil
}

// Current returns the latest visible card, or ok=false when nothing is on
// air. The returned value is a copy; callers cannot mutate store state.
func (s *CardStore) Current() (domain.LiveCard, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.card == nil {
		return domain.LiveCard{}, false
	}
	return *s.card, true
}
