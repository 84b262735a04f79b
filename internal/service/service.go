// service содержит бизнес-логику gallery-service: сессии просмотра лент.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/pribylovaa/reddit-gallery/internal/config"
	"github.com/pribylovaa/reddit-gallery/internal/feed"
	"github.com/pribylovaa/reddit-gallery/internal/listing"
	"github.com/pribylovaa/reddit-gallery/internal/metrics"
	"github.com/pribylovaa/reddit-gallery/internal/storage"
	"github.com/pribylovaa/reddit-gallery/internal/viewer"
	"github.com/pribylovaa/reddit-gallery/pkg/log"
)

var (
	// ErrNotFound — сессия или элемент отсутствует.
	// Транспорт: codes.NotFound.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument — некорректные входные аргументы.
	// Транспорт: codes.InvalidArgument.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrClosed — сервис остановлен.
	// Транспорт: codes.Unavailable.
	ErrClosed = errors.New("service closed")
	// ErrTooManySessions — достигнут лимит одновременно открытых сессий.
	// Транспорт: codes.ResourceExhausted.
	ErrTooManySessions = errors.New("too many sessions")
)

// Option — необязательная настройка Service.
type Option func(*Service)

// WithScheduler подменяет планировщик таймеров автопрокрутки.
func WithScheduler(s viewer.Scheduler) Option {
	return func(svc *Service) { svc.sched = s }
}

// Service — описывает бизнес-логику gallery-service.
// Каждая открытая сессия — отдельный актор viewer.Viewer со своим feed.Pager.
type Service struct {
	fetcher feed.Fetcher
	parser  *listing.Parser
	prefs   storage.PreferencesStorage
	metrics *metrics.Metrics
	sched   viewer.Scheduler
	cfg     config.Config

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	sessions map[uuid.UUID]*session
	closed   bool
}

type session struct {
	id     uuid.UUID
	path   string
	viewer *viewer.Viewer
	cancel context.CancelFunc
}

// New создает новый экземпляр Service.
// ctx задаёт базовый логгер и время жизни всех сессий; prefs и m могут быть nil.
func New(ctx context.Context, fetcher feed.Fetcher, prefs storage.PreferencesStorage, m *metrics.Metrics, cfg config.Config, opts ...Option) *Service {
	base, cancel := context.WithCancel(ctx)

	s := &Service{
		fetcher:  fetcher,
		parser:   listing.NewParser(cfg.Listing.Origin),
		prefs:    prefs,
		metrics:  m,
		sched:    viewer.TickerScheduler{},
		cfg:      cfg,
		ctx:      base,
		cancel:   cancel,
		sessions: make(map[uuid.UUID]*session),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Len — число открытых сессий.
func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.sessions)
}

// Close останавливает все сессии и ждёт завершения их акторов.
// Повторный вызов безопасен.
func (s *Service) Close() {
	const op = "service.Service.Close"

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	n := len(s.sessions)
	for id := range s.sessions {
		delete(s.sessions, id)
		s.metrics.SessionClosed()
	}
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()

	log.From(s.ctx).Info("service_closed",
		slog.String("op", op),
		slog.Int("sessions", n),
	)
}
