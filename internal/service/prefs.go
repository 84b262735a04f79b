package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pribylovaa/reddit-gallery/internal/models"
	"github.com/pribylovaa/reddit-gallery/internal/storage"
)

// profilePrefs привязывает storage.PreferencesStorage к одному профилю
// и реализует viewer.PreferenceStore.
type profilePrefs struct {
	storage storage.PreferencesStorage
	profile string
	// timeout ограничивает одно обращение к хранилищу; 0 — без ограничения.
	timeout time.Duration
}

func (p *profilePrefs) Load(ctx context.Context) (models.Preferences, bool, error) {
	const op = "service.profilePrefs.Load"

	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	prefs, err := p.storage.GetPreferences(ctx, p.profile)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Preferences{}, false, nil
		}

		return models.Preferences{}, false, fmt.Errorf("%s: %w", op, err)
	}

	return prefs, true, nil
}

func (p *profilePrefs) Save(ctx context.Context, prefs models.Preferences) error {
	const op = "service.profilePrefs.Save"

	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	if err := p.storage.SavePreferences(ctx, p.profile, prefs); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (p *profilePrefs) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.timeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, p.timeout)
}
