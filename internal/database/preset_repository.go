package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/colin-cd72/cards/internal/domain"
)

type PresetRepo struct {
	pool *pgxpool.Pool
}

func NewPresetRepo(pool *pgxpool.Pool) *PresetRepo {
	return &PresetRepo{pool: pool}
}

const presetColumns = `id, user_id, preset_number, subject, header_text, body_content,
	body_html, badge_number, is_global, created_at, updated_at`

func scanPreset(row pgx.Row) (*domain.Preset, error) {
	var preset domain.Preset
	err := row.Scan(
		&preset.ID, &preset.UserID, &preset.PresetNumber, &preset.Subject, &preset.HeaderText,
		&preset.BodyContent, &preset.BodyHTML, &preset.BadgeNumber, &preset.IsGlobal,
		&preset.CreatedAt, &preset.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &preset, nil
}

// ListForUser returns the user's own presets plus all global presets,
// ordered by preset number.
func (r *PresetRepo) ListForUser(ctx context.Context, userID int64) ([]domain.Preset, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+presetColumns+`
		FROM presets
		WHERE user_id = $1 OR is_global
		ORDER BY preset_number
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list presets: %w", err)
	}
	defer rows.Close()

	return collectPresets(rows)
}

func (r *PresetRepo) GetByID(ctx context.Context, id int64) (*domain.Preset, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+presetColumns+` FROM presets WHERE id = $1`, id)
	preset, err := scanPreset(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrPresetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get preset: %w", err)
	}
	return preset, nil
}

func (r *PresetRepo) Search(ctx context.Context, userID int64, query string) ([]domain.Preset, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+presetColumns+`
		FROM presets
		WHERE (user_id = $1 OR is_global)
		  AND (subject ILIKE '%' || $2 || '%' OR preset_number::TEXT LIKE '%' || $2 || '%')
		ORDER BY preset_number
	`, userID, query)
	if err != nil {
		return nil, fmt.Errorf("failed to search presets: %w", err)
	}
	defer rows.Close()

	return collectPresets(rows)
}

func (r *PresetRepo) Create(ctx context.Context, userID int64, draft domain.PresetDraft) (int64, error) {
	bodyContent := draft.BodyContent
	if len(bodyContent) == 0 {
		bodyContent = []byte(`{}`)
	}

	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO presets (user_id, preset_number, subject, header_text, body_content, body_html, badge_number, is_global)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, userID, draft.PresetNumber, draft.Subject, draft.HeaderText, bodyContent,
		draft.BodyHTML, draft.BadgeNumber, draft.IsGlobal).Scan(&id)
	if isUniqueViolation(err) {
		return 0, fmt.Errorf("preset number %d already in use: %w", draft.PresetNumber, err)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to create preset: %w", err)
	}
	return id, nil
}

func (r *PresetRepo) Update(ctx context.Context, id int64, draft domain.PresetDraft) error {
	bodyContent := draft.BodyContent
	if len(bodyContent) == 0 {
		bodyContent = []byte(`{}`)
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE presets SET
			preset_number = $2,
			subject = $3,
			header_text = $4,
			body_content = $5,
			body_html = $6,
			badge_number = $7,
			is_global = $8,
			updated_at = NOW()
		WHERE id = $1
	`, id, draft.PresetNumber, draft.Subject, draft.HeaderText, bodyContent,
		draft.BodyHTML, draft.BadgeNumber, draft.IsGlobal)
	if err != nil {
		return fmt.Errorf("failed to update preset: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPresetNotFound
	}
	return nil
}

func (r *PresetRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM presets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete preset: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPresetNotFound
	}
	return nil
}

func collectPresets(rows pgx.Rows) ([]domain.Preset, error) {
	presets := make([]domain.Preset, 0)
	for rows.Next() {
		preset, err := scanPreset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan preset: %w", err)
		}
		presets = append(presets, *preset)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read preset rows: %w", err)
	}
	return presets, nil
}
