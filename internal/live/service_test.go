package live

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colin-cd72/cards/internal/domain"
)

type fakeCardRepo struct {
	createErr  error
	getErr     error
	nextID     int64
	created    []domain.CardDraft
	createdFor []int64
	stored     *domain.Card
}

func (f *fakeCardRepo) Create(_ context.Context, userID int64, draft domain.CardDraft) (int64, error) {
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.created = append(f.created, draft)
	f.createdFor = append(f.createdFor, userID)
	return f.nextID, nil
}

func (f *fakeCardRepo) GetByID(_ context.Context, id int64) (*domain.Card, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	card := *f.stored
	card.ID = id
	return &card, nil
}

func (f *fakeCardRepo) History(context.Context, int, int) ([]domain.Card, error) {
	return nil, nil
}

func (f *fakeCardRepo) HistoryByUser(context.Context, int64, int, int) ([]domain.Card, error) {
	return nil, nil
}

func (f *fakeCardRepo) Latest(context.Context) (*domain.Card, error) {
	return f.stored, nil
}

type fakeBroadcaster struct {
	displayed []domain.LiveCard
	cleared   int
}

func (f *fakeBroadcaster) DisplayCard(card domain.LiveCard) {
	f.displayed = append(f.displayed, card)
}

func (f *fakeBroadcaster) ClearCard() {
	f.cleared++
}

func TestCardService_SendPersistsThenBroadcasts(t *testing.T) {
	sentAt := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	repo := &fakeCardRepo{
		nextID: 42,
		stored: &domain.Card{
			UserID:      7,
			HeaderText:  "PROMO #1",
			BodyHTML:    "<p>body</p>",
			BadgeNumber: "3",
			HideHeader:  true,
			SentAt:      sentAt,
			SentBy:      "alice",
		},
	}
	broadcaster := &fakeBroadcaster{}
	service := NewCardService(repo, broadcaster)

	draft := domain.CardDraft{HeaderText: "PROMO #1", BodyHTML: "<p>body</p>", BadgeNumber: "3", HideHeader: true}
	confirmation, err := service.Send(context.Background(), 7, draft)
	require.NoError(t, err)

	assert.Equal(t, int64(42), confirmation.CardID)
	assert.Equal(t, sentAt, confirmation.SentAt)
	assert.Equal(t, []int64{7}, repo.createdFor)

	// The broadcast value comes from the stored record, not the raw draft.
	require.Len(t, broadcaster.displayed, 1)
	live := broadcaster.displayed[0]
	assert.Equal(t, "PROMO #1", live.HeaderText)
	assert.Equal(t, "alice", live.SentBy)
	assert.Equal(t, sentAt, live.SentAt)
	assert.True(t, live.HideHeader)
}

func TestCardService_SendFailsWithoutBroadcastWhenPersistFails(t *testing.T) {
	repo := &fakeCardRepo{createErr: errors.New("connection refused")}
	broadcaster := &fakeBroadcaster{}
	service := NewCardService(repo, broadcaster)

	_, err := service.Send(context.Background(), 7, domain.CardDraft{HeaderText: "x"})
	require.Error(t, err)

	// Persistence failure must leave the on-air state untouched.
	assert.Empty(t, broadcaster.displayed)
}

func TestCardService_SendFailsWhenReloadFails(t *testing.T) {
	repo := &fakeCardRepo{nextID: 1, getErr: domain.ErrCardNotFound}
	broadcaster := &fakeBroadcaster{}
	service := NewCardService(repo, broadcaster)

	_, err := service.Send(context.Background(), 7, domain.CardDraft{HeaderText: "x"})
	require.Error(t, err)
	assert.Empty(t, broadcaster.displayed)
}

func TestCardService_Clear(t *testing.T) {
	broadcaster := &fakeBroadcaster{}
	service := NewCardService(&fakeCardRepo{}, broadcaster)

	service.Clear()
	service.Clear()

	assert.Equal(t, 2, broadcaster.cleared)
}
