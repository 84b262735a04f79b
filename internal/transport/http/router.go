package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/reddit-gallery/internal/transport/http/handlers"
	"github.com/pribylovaa/reddit-gallery/internal/transport/http/middleware"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger   *slog.Logger
	Timeout  time.Duration
	BasePath string // например, "/api/v1"; если пустой — API регистрируется на корне.
	// Ready — признак готовности для /healthz; nil — всегда готов.
	Ready func() bool
	// Metrics — обработчик /metrics; nil — эндпойнт не регистрируется.
	Metrics http.Handler
}

// NewRouter собирает http.Handler: пробы и метрики на корне, API сессий под BasePath.
func NewRouter(s handlers.Sessions, opts Options) http.Handler {
	root := chi.NewRouter()

	registerProbes(root, opts)

	h := handlers.New(s)
	api := func(r chi.Router) {
		// Middleware (внешний -> внутренний).
		r.Use(
			middleware.RequestID(),          // X-Request-Id до логирования
			middleware.Logging(opts.Logger), // request-scoped логгер в контексте
			middleware.Recover(),            // паника -> 500 с логом запроса
			middleware.Timeout(opts.Timeout),
		)
		registerRoutes(r, h)
	}

	if opts.BasePath != "" && opts.BasePath != "/" {
		root.Route(opts.BasePath, api)
	} else {
		root.Group(api)
	}

	return root
}

// registerProbes вешает пробы и /metrics без логирования запросов: их дёргают
// слишком часто. Паника в пробе всё равно превращается в 500.
func registerProbes(r chi.Router, opts Options) {
	probe := func(h http.HandlerFunc) http.Handler {
		return middleware.Chain(h, middleware.RequestID(), middleware.Recover())
	}

	r.Method(http.MethodGet, "/livez", probe(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	r.Method(http.MethodGet, "/healthz", probe(func(w http.ResponseWriter, _ *http.Request) {
		if opts.Ready == nil || opts.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
			return
		}
		http.Error(w, "not ready", http.StatusServiceUnavailable)
	}))
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", probe(opts.Metrics.ServeHTTP))
	}
}

// registerRoutes — единая точка регистрации эндпойнтов API сессий.
func registerRoutes(r chi.Router, h *handlers.Handlers) {
	r.Post("/sessions", h.OpenSession)
	r.Get("/sessions/{id}", h.GetSession)
	r.Delete("/sessions/{id}", h.CloseSession)

	// навигация и автопрокрутка
	r.Post("/sessions/{id}/next", h.Next)
	r.Post("/sessions/{id}/prev", h.Prev)
	r.Put("/sessions/{id}/index", h.SetIndex)
	r.Post("/sessions/{id}/load", h.Load)
	r.Post("/sessions/{id}/retry", h.Retry)
	r.Post("/sessions/{id}/autoadvance/toggle", h.ToggleAutoAdvance)
	r.Put("/sessions/{id}/interval", h.SetInterval)

	// буфер
	r.Get("/sessions/{id}/items", h.ListItems)
	r.Get("/sessions/{id}/items/{index}", h.GetItem)
}
