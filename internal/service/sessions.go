package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/pribylovaa/reddit-gallery/internal/feed"
	"github.com/pribylovaa/reddit-gallery/internal/models"
	"github.com/pribylovaa/reddit-gallery/internal/viewer"
	"github.com/pribylovaa/reddit-gallery/pkg/log"
)

// MaxItemsWindow — верхняя граница окна Items.
const MaxItemsWindow = 100

// OpenSession открывает сессию просмотра листинга path и запускает первую загрузку.
//
// Правила нормализации path — см. NormalizePath.
//
// Ошибки:
// - ErrInvalidArgument — недопустимый path;
// - ErrTooManySessions — достигнут cfg.Viewer.MaxSessions;
// - ErrClosed — сервис остановлен.
func (s *Service) OpenSession(ctx context.Context, path string) (uuid.UUID, viewer.Snapshot, error) {
	const op = "service.sessions.OpenSession"

	lg := log.From(ctx)

	path, err := NormalizePath(path)
	if err != nil {
		lg.Warn("open_session_invalid_path",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)

		return uuid.Nil, viewer.Snapshot{}, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return uuid.Nil, viewer.Snapshot{}, fmt.Errorf("%s: %w", op, ErrClosed)
	}
	if len(s.sessions) >= s.cfg.Viewer.MaxSessions {
		s.mu.Unlock()
		lg.Warn("open_session_limit",
			slog.String("op", op),
			slog.Int("max_sessions", s.cfg.Viewer.MaxSessions),
		)

		return uuid.Nil, viewer.Snapshot{}, fmt.Errorf("%s: %w", op, ErrTooManySessions)
	}

	sess := s.newSession(path)
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	s.metrics.SessionOpened()

	snap, err := sess.viewer.Do(ctx, nil)
	if err != nil {
		// Вызывающий не получил id: сессию не закрыть снаружи, освобождаем слот сразу.
		s.discard(sess)
		lg.Warn("open_session_aborted",
			slog.String("op", op),
			slog.String("session_id", sess.id.String()),
			slog.String("err", err.Error()),
		)

		return uuid.Nil, viewer.Snapshot{}, fmt.Errorf("%s: %w", op, s.mapViewerErr(err))
	}

	lg.Info("session_opened",
		slog.String("op", op),
		slog.String("session_id", sess.id.String()),
		slog.String("path", path),
	)

	return sess.id, snap, nil
}

// newSession собирает пейджер и вьюер и запускает актор. Вызывается под s.mu.
func (s *Service) newSession(path string) *session {
	id := uuid.New()

	var observer feed.Observer
	if s.metrics != nil {
		observer = s.metrics
	}

	pager := feed.NewPager(s.fetcher, s.parser, feed.Options{
		Path:     path,
		PageSize: s.cfg.Listing.PageSize,
		Observer: observer,
	})

	var prefs viewer.PreferenceStore
	if s.prefs != nil {
		prefs = &profilePrefs{
			storage: s.prefs,
			profile: s.cfg.Viewer.Profile,
			timeout: s.cfg.Timeouts.Prefs,
		}
	}

	v := viewer.New(pager, s.sched, prefs, viewer.Options{
		Path: path,
		Defaults: models.Preferences{
			AutoAdvance:     models.DefaultPreferences().AutoAdvance,
			IntervalSeconds: s.cfg.Viewer.IntervalSeconds,
		},
		InboxSize: s.cfg.Viewer.InboxSize,
	})

	ctx, _ := log.With(s.ctx,
		slog.String("session_id", id.String()),
		slog.String("path", path),
	)
	ctx, cancel := context.WithCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		v.Run(ctx)
	}()

	return &session{id: id, path: path, viewer: v, cancel: cancel}
}

// Dispatch применяет переход msg к сессии id и возвращает новый снимок.
// msg == nil — только снимок.
//
// Ошибки:
// - ErrNotFound — сессии нет (или она закрывается);
// - ошибки ctx — прокинуты как есть.
func (s *Service) Dispatch(ctx context.Context, id uuid.UUID, msg viewer.Msg) (viewer.Snapshot, error) {
	const op = "service.sessions.Dispatch"

	sess, err := s.session(id)
	if err != nil {
		return viewer.Snapshot{}, fmt.Errorf("%s: %w", op, err)
	}

	snap, err := sess.viewer.Do(ctx, msg)
	if err != nil {
		return viewer.Snapshot{}, fmt.Errorf("%s: %w", op, s.mapViewerErr(err))
	}

	log.From(ctx).Debug("session_dispatch",
		slog.String("op", op),
		slog.String("session_id", id.String()),
		slog.String("msg", fmt.Sprintf("%T", msg)),
		slog.Int("index", snap.Index),
	)

	return snap, nil
}

// Snapshot возвращает текущее состояние сессии.
func (s *Service) Snapshot(ctx context.Context, id uuid.UUID) (viewer.Snapshot, error) {
	return s.Dispatch(ctx, id, nil)
}

// Item возвращает элемент буфера сессии по индексу.
//
// Ошибки:
// - ErrInvalidArgument — index < 0;
// - ErrNotFound — нет сессии или элемента.
func (s *Service) Item(ctx context.Context, id uuid.UUID, index int) (models.MediaItem, error) {
	const op = "service.sessions.Item"

	if index < 0 {
		return models.MediaItem{}, fmt.Errorf("%s: index must be >= 0: %w", op, ErrInvalidArgument)
	}

	sess, err := s.session(id)
	if err != nil {
		return models.MediaItem{}, fmt.Errorf("%s: %w", op, err)
	}

	it, ok, err := sess.viewer.Item(ctx, index)
	if err != nil {
		return models.MediaItem{}, fmt.Errorf("%s: %w", op, s.mapViewerErr(err))
	}
	if !ok {
		return models.MediaItem{}, fmt.Errorf("%s: item %d: %w", op, index, ErrNotFound)
	}

	return it, nil
}

// Items возвращает окно буфера сессии.
//
// Правила нормализации:
// - limit == 0 -> cfg.Listing.PageSize;
// - limit > MaxItemsWindow -> MaxItemsWindow;
// - offset < 0 или limit < 0 -> ErrInvalidArgument.
func (s *Service) Items(ctx context.Context, id uuid.UUID, offset, limit int) ([]models.MediaItem, error) {
	const op = "service.sessions.Items"

	if offset < 0 || limit < 0 {
		return nil, fmt.Errorf("%s: offset and limit must be >= 0: %w", op, ErrInvalidArgument)
	}
	if limit == 0 {
		limit = s.cfg.Listing.PageSize
	}
	if limit > MaxItemsWindow {
		limit = MaxItemsWindow
	}

	sess, err := s.session(id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	items, err := sess.viewer.Items(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, s.mapViewerErr(err))
	}

	return items, nil
}

// CloseSession останавливает сессию и ждёт завершения её актора.
func (s *Service) CloseSession(ctx context.Context, id uuid.UUID) error {
	const op = "service.sessions.CloseSession"

	s.mu.Lock()
	sess, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	sess.cancel()
	s.metrics.SessionClosed()

	select {
	case <-sess.viewer.Done():
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	}

	log.From(ctx).Info("session_closed",
		slog.String("op", op),
		slog.String("session_id", id.String()),
		slog.String("path", sess.path),
	)

	return nil
}

// discard снимает сессию с учёта и останавливает её актор, не дожидаясь выхода.
// Если сессию уже снял Close, учёт не трогается.
func (s *Service) discard(sess *session) {
	s.mu.Lock()
	if cur, ok := s.sessions[sess.id]; ok && cur == sess {
		delete(s.sessions, sess.id)
		s.metrics.SessionClosed()
	}
	s.mu.Unlock()

	sess.cancel()
}

func (s *Service) session(id uuid.UUID) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}

	return sess, nil
}

func (s *Service) mapViewerErr(err error) error {
	if !errors.Is(err, viewer.ErrStopped) {
		return err
	}

	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()

	if closed {
		return ErrClosed
	}

	return ErrNotFound
}

// NormalizePath приводит путь листинга к виду "r/pics" или "user/x/submitted".
//
// Правила:
// - пробелы и крайние "/" обрезаются, суффикс ".json" отбрасывается;
// - пустой путь допустим (главная страница);
// - пустые сегменты, "." и "..", символы "?", "#", "\" и пробельные — ErrInvalidArgument.
func NormalizePath(raw string) (string, error) {
	p := strings.Trim(strings.TrimSpace(raw), "/")
	p = strings.Trim(strings.TrimSuffix(p, ".json"), "/")

	if p == "" {
		return "", nil
	}

	if strings.ContainsAny(p, "?#\\ \t\r\n") {
		return "", fmt.Errorf("path %q: %w", raw, ErrInvalidArgument)
	}

	for _, seg := range strings.Split(p, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return "", fmt.Errorf("path %q: %w", raw, ErrInvalidArgument)
		}
	}

	return p, nil
}
