// redis предоставляет реализацию storage.PreferencesStorage на базе Redis.
//
// Настройки профиля хранятся как Hash по ключу <prefix><profile> с полями
// enabled ("true"/"false") и seconds (десятичное число).
package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pribylovaa/reddit-gallery/internal/models"
	"github.com/pribylovaa/reddit-gallery/internal/storage"
	"github.com/redis/go-redis/v9"
)

const (
	defaultPrefix = "gallery:prefs:"

	fieldEnabled = "enabled"
	fieldSeconds = "seconds"
)

type PreferencesStorage struct {
	rdb    *redis.Client
	prefix string
}

// New создаёт клиент Redis из URL (например, redis://:pass@host:6379/0)
// и проверяет соединение. Если prefix пустой — используется "gallery:prefs:".
func New(ctx context.Context, redisURL, prefix string) (*PreferencesStorage, error) {
	const op = "storage.redis.New"

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return NewWithClient(rdb, prefix), nil
}

// NewWithClient оборачивает готовый клиент.
func NewWithClient(rdb *redis.Client, prefix string) *PreferencesStorage {
	if prefix == "" {
		prefix = defaultPrefix
	}

	return &PreferencesStorage{rdb: rdb, prefix: prefix}
}

func (s *PreferencesStorage) key(profile string) string { return s.prefix + profile }

// GetPreferences возвращает настройки профиля или storage.ErrNotFound.
// Нечитаемое значение поля заменяется значением по умолчанию для этого поля.
func (s *PreferencesStorage) GetPreferences(ctx context.Context, profile string) (models.Preferences, error) {
	const op = "storage.redis.GetPreferences"

	m, err := s.rdb.HGetAll(ctx, s.key(profile)).Result()
	if err != nil {
		return models.Preferences{}, fmt.Errorf("%s: %w", op, err)
	}

	if len(m) == 0 {
		return models.Preferences{}, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	p := models.DefaultPreferences()
	if v, err := strconv.ParseBool(m[fieldEnabled]); err == nil {
		p.AutoAdvance = v
	}
	if v, err := strconv.ParseUint(m[fieldSeconds], 10, 64); err == nil && models.ValidInterval(v) {
		p.IntervalSeconds = v
	}

	return p, nil
}

// SavePreferences перезаписывает оба поля одной командой HSET.
func (s *PreferencesStorage) SavePreferences(ctx context.Context, profile string, prefs models.Preferences) error {
	const op = "storage.redis.SavePreferences"

	if !models.ValidInterval(prefs.IntervalSeconds) {
		return fmt.Errorf("%s: %w", op, storage.ErrInvalidPreferences)
	}

	kv := map[string]string{
		fieldEnabled: strconv.FormatBool(prefs.AutoAdvance),
		fieldSeconds: strconv.FormatUint(prefs.IntervalSeconds, 10),
	}

	if err := s.rdb.HSet(ctx, s.key(profile), kv).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Ping проверяет доступность Redis (readiness).
func (s *PreferencesStorage) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Close закрывает клиент Redis.
func (s *PreferencesStorage) Close() { _ = s.rdb.Close() }

// Проверка выполнения контракта верхнего уровня.
var (
	_ storage.PreferencesStorage = (*PreferencesStorage)(nil)
	_ storage.Pinger             = (*PreferencesStorage)(nil)
)
