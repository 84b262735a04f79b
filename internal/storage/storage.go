// storage определяет контракт хранилища пользовательских настроек gallery-service.
package storage

import (
	"context"
	"errors"

	"github.com/pribylovaa/reddit-gallery/internal/models"
)

var (
	// ErrNotFound — настройки профиля ещё не сохранялись.
	ErrNotFound = errors.New("not found")
	// ErrInvalidPreferences — настройки не проходят проверку (например, нулевой интервал).
	ErrInvalidPreferences = errors.New("invalid preferences")
)

//go:generate mockgen -destination=../../mocks/mock_storage.go -package=mocks github.com/pribylovaa/reddit-gallery/internal/storage PreferencesStorage

// PreferencesStorage описывает операции над настройками автопрокрутки.
type PreferencesStorage interface {
	// GetPreferences возвращает сохранённые настройки профиля.
	// Если профиль не найден — ErrNotFound.
	GetPreferences(ctx context.Context, profile string) (models.Preferences, error)
	// SavePreferences сохраняет настройки профиля (upsert).
	// Интервал вне (0, models.MaxIntervalSeconds] — ErrInvalidPreferences.
	SavePreferences(ctx context.Context, profile string, prefs models.Preferences) error
	// Close освобождает ресурсы хранилища.
	Close()
}

// Pinger реализуют хранилища с сетевым соединением (postgres, redis).
// Используется проверкой готовности /healthz.
type Pinger interface {
	Ping(ctx context.Context) error
}
