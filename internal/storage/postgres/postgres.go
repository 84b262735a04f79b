// postgres хранит настройки автопрокрутки в таблице viewer_preferences.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pribylovaa/reddit-gallery/internal/storage"
)

// ErrSchemaMissing — миграции не применены: таблицы viewer_preferences нет.
var ErrSchemaMissing = errors.New("viewer_preferences table is missing")

// maxConns — настройки читаются один раз на сессию и пишутся редко.
const maxConns = 4

type PreferencesStorage struct {
	db *pgxpool.Pool
}

// New открывает пул, проверяет соединение и наличие схемы.
func New(ctx context.Context, dbURL string) (*PreferencesStorage, error) {
	const op = "storage.postgres.New"

	cfg, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("%s: parse url: %w", op, err)
	}
	if cfg.MaxConns > maxConns {
		cfg.MaxConns = maxConns
	}
	if _, ok := cfg.ConnConfig.RuntimeParams["application_name"]; !ok {
		cfg.ConnConfig.RuntimeParams["application_name"] = "gallery-service"
	}

	db, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := checkSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &PreferencesStorage{db: db}, nil
}

// checkSchema заодно служит первым Ping: запрос идёт по живому соединению.
func checkSchema(ctx context.Context, db *pgxpool.Pool) error {
	var exists bool
	if err := db.QueryRow(ctx, `SELECT to_regclass('viewer_preferences') IS NOT NULL`).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrSchemaMissing
	}

	return nil
}

// Ping используется проверкой готовности.
func (s *PreferencesStorage) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *PreferencesStorage) Close() {
	s.db.Close()
}

var (
	_ storage.PreferencesStorage = (*PreferencesStorage)(nil)
	_ storage.Pinger             = (*PreferencesStorage)(nil)
)
