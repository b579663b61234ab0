package live

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colin-cd72/cards/internal/domain"
)

func testCard(header string) domain.LiveCard {
	return domain.LiveCard{
		HeaderText:  header,
		BodyHTML:    "<p>body</p>",
		BadgeNumber: "12",
		SentAt:      time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		SentBy:      "alice",
	}
}

func TestCardStore_StartsBlank(t *testing.T) {
	store := NewCardStore()

	_, ok := store.Current()
	assert.False(t, ok)
}

func TestCardStore_ReplaceAndCurrent(t *testing.T) {
	store := NewCardStore()
	store.Replace(testCard("PROMO #1"))

	card, ok := store.Current()
	require.True(t, ok)
	assert.Equal(t, "PROMO #1", card.HeaderText)
	assert.Equal(t, "alice", card.SentBy)
}

func TestCardStore_LastWriteWins(t *testing.T) {
	store := NewCardStore()
	store.Replace(testCard("first"))
	store.Replace(testCard("second"))
	store.Clear()
	store.Replace(testCard("third"))

	card, ok := store.Current()
	require.True(t, ok)
	assert.Equal(t, "third", card.HeaderText)
}

func TestCardStore_ClearIsIdempotent(t *testing.T) {
	store := NewCardStore()
	store.Replace(testCard("x"))

	store.Clear()
	store.Clear()

	_, ok := store.Current()
	assert.False(t, ok)
}

func TestCardStore_CurrentReturnsCopy(t *testing.T) {
	store := NewCardStore()
	store.Replace(testCard("original"))

	card, ok := store.Current()
	require.True(t, ok)
	card.HeaderText = "mutated"

	again, ok := store.Current()
	require.True(t, ok)
	assert.Equal(t, "original", again.HeaderText)
}

// Readers must never observe a torn card under concurrent replaces: every
// observed value is one that some writer fully constructed.
func TestCardStore_NoPartialReads(t *testing.T) {
	store := NewCardStore()
	var wg sync.WaitGroup

	for i := range 10 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			header := fmt.Sprintf("card-%d", n)
			store.Replace(domain.LiveCard{HeaderText: header, SentBy: header})
		}(i)
	}

	for range 100 {
		if card, ok := store.Current(); ok {
			assert.Equal(t, card.HeaderText, card.SentBy)
		}
	}
	wg.Wait()

	card, ok := store.Current()
	require.True(t, ok)
	assert.Equal(t, card.HeaderText, card.SentBy)
}
