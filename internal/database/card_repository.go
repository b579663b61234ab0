package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/colin-cd72/cards/internal/domain"
)

type CardRepo struct {
	pool *pgxpool.Pool
}

func NewCardRepo(pool *pgxpool.Pool) *CardRepo {
	return &CardRepo{pool: pool}
}

const cardColumns = `c.id, c.user_id, c.preset_id, c.header_text, c.body_content,
	c.body_html, c.badge_number, c.hide_header, c.sent_at, u.username AS sent_by`

func scanCard(row pgx.Row) (*domain.Card, error) {
	var card domain.Card
	err := row.Scan(
		&card.ID, &card.UserID, &card.PresetID, &card.HeaderText, &card.BodyContent,
		&card.BodyHTML, &card.BadgeNumber, &card.HideHeader, &card.SentAt, &card.SentBy,
	)
	if err != nil {
		return nil, err
	}
	return &card, nil
}

func (r *CardRepo) Create(ctx context.Context, userID int64, draft domain.CardDraft) (int64, error) {
	bodyContent := draft.BodyContent
	if len(bodyContent) == 0 {
		bodyContent = []byte(`{}`)
	}

	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO cards (user_id, preset_id, header_text, body_content, body_html, badge_number, hide_header)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, userID, draft.PresetID, draft.HeaderText, bodyContent, draft.BodyHTML, draft.BadgeNumber, draft.HideHeader).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert card: %w", err)
	}
	return id, nil
}

func (r *CardRepo) GetByID(ctx context.Context, id int64) (*domain.Card, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+cardColumns+`
		FROM cards c
		JOIN users u ON c.user_id = u.id
		WHERE c.id = $1
	`, id)

	card, err := scanCard(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrCardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get card: %w", err)
	}
	return card, nil
}

func (r *CardRepo) History(ctx context.Context, limit, offset int) ([]domain.Card, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+cardColumns+`
		FROM cards c
		JOIN users u ON c.user_id = u.id
		ORDER BY c.sent_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query card history: %w", err)
	}
	defer rows.Close()

	return collectCards(rows)
}

func (r *CardRepo) HistoryByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Card, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+cardColumns+`
		FROM cards c
		JOIN users u ON c.user_id = u.id
		WHERE c.user_id = $1
		ORDER BY c.sent_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query card history: %w", err)
	}
	defer rows.Close()

	return collectCards(rows)
}

// Latest returns the most recently sent card, used by displays to re-sync
// after a process restart. Returns ErrCardNotFound on an empty history.
func (r *CardRepo) Latest(ctx context.Context) (*domain.Card, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+cardColumns+`
		FROM cards c
		JOIN users u ON c.user_id = u.id
		ORDER BY c.sent_at DESC
		LIMIT 1
	`)

	card, err := scanCard(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrCardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest card: %w", err)
	}
	return card, nil
}

func collectCards(rows pgx.Rows) ([]domain.Card, error) {
	cards := make([]domain.Card, 0)
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		cards = append(cards, *card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read card rows: %w", err)
	}
	return cards, nil
}
