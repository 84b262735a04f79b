// memory предоставляет реализацию storage.PreferencesStorage в памяти процесса.
// Подходит для local/dev и тестов: настройки живут до перезапуска.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/pribylovaa/reddit-gallery/internal/models"
	"github.com/pribylovaa/reddit-gallery/internal/storage"
)

type PreferencesStorage struct {
	mu    sync.RWMutex
	prefs map[string]models.Preferences
}

// New создаёт пустое хранилище.
func New() *PreferencesStorage {
	return &PreferencesStorage{prefs: make(map[string]models.Preferences)}
}

func (s *PreferencesStorage) GetPreferences(ctx context.Context, profile string) (models.Preferences, error) {
	const op = "storage.memory.GetPreferences"

	if err := ctx.Err(); err != nil {
		return models.Preferences{}, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.prefs[profile]
	if !ok {
		return models.Preferences{}, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return p, nil
}

func (s *PreferencesStorage) SavePreferences(ctx context.Context, profile string, prefs models.Preferences) error {
	const op = "storage.memory.SavePreferences"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if !models.ValidInterval(prefs.IntervalSeconds) {
		return fmt.Errorf("%s: %w", op, storage.ErrInvalidPreferences)
	}

	s.mu.Lock()
	s.prefs[profile] = prefs
	s.mu.Unlock()

	return nil
}

// Close — no-op.
func (s *PreferencesStorage) Close() {}

// Проверка выполнения контракта верхнего уровня.
var _ storage.PreferencesStorage = (*PreferencesStorage)(nil)
