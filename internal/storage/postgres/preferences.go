package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/pribylovaa/reddit-gallery/internal/models"
	"github.com/pribylovaa/reddit-gallery/internal/storage"
)

// GetPreferences возвращает настройки профиля или storage.ErrNotFound.
func (s *PreferencesStorage) GetPreferences(ctx context.Context, profile string) (models.Preferences, error) {
	const op = "storage.postgres.GetPreferences"

	var p models.Preferences
	var seconds int64

	err := s.db.QueryRow(ctx, `
		SELECT timeout_enabled, timeout_seconds
		FROM viewer_preferences
		WHERE profile = $1
	`, profile).Scan(&p.AutoAdvance, &seconds)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Preferences{}, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return models.Preferences{}, fmt.Errorf("%s: %w", op, err)
	}

	p.IntervalSeconds = uint64(seconds)
	return p, nil
}

// SavePreferences сохраняет настройки с upsert по profile; updated_at сдвигается всегда.
func (s *PreferencesStorage) SavePreferences(ctx context.Context, profile string, prefs models.Preferences) error {
	const op = "storage.postgres.SavePreferences"

	if !models.ValidInterval(prefs.IntervalSeconds) {
		return fmt.Errorf("%s: %w", op, storage.ErrInvalidPreferences)
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO viewer_preferences (profile, timeout_enabled, timeout_seconds, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (profile) DO UPDATE
		SET
		timeout_enabled = EXCLUDED.timeout_enabled,
		timeout_seconds = EXCLUDED.timeout_seconds,
		updated_at = now()
	`, profile, prefs.AutoAdvance, int64(prefs.IntervalSeconds))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
