package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/reddit-gallery/pkg/log"
)

// capHandler — тестовый slog.Handler: копит базовые attrs из With и
// запоминает последнюю запись.
type capHandler struct {
	mu      sync.Mutex
	base    []slog.Attr
	lastMsg string
	lastLvl slog.Level
	attrs   map[string]any
}

func (h *capHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *capHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make(map[string]any, len(h.base)+8)
	for _, a := range h.base {
		out[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		out[a.Key] = a.Value.Any()
		return true
	})

	h.lastMsg = r.Message
	h.lastLvl = r.Level
	h.attrs = out
	return nil
}

func (h *capHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.base = append(h.base, attrs...)
	return h
}

func (h *capHandler) WithGroup(string) slog.Handler { return h }

func TestChain_Order(t *testing.T) {
	t.Parallel()

	var order []string
	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name+"-begin")
				next.ServeHTTP(w, r)
				order = append(order, name+"-end")
			})
		}
	}

	final := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		order = append(order, "handler")
		w.WriteHeader(http.StatusTeapot)
	})

	rr := httptest.NewRecorder()
	Chain(final, mw("m1"), mw("m2")).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, []string{"m1-begin", "m2-begin", "handler", "m2-end", "m1-end"}, order)
	require.Equal(t, http.StatusTeapot, rr.Code)
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	t.Run("generate", func(t *testing.T) {
		t.Parallel()

		var seen string
		h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = RequestIDFrom(r.Context())
		})

		rr := httptest.NewRecorder()
		Chain(h, RequestID()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

		id := rr.Header().Get(HeaderRequestID)
		require.Len(t, id, 36)
		require.Equal(t, id, seen)
	})

	t.Run("propagate", func(t *testing.T) {
		t.Parallel()

		var seen string
		h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = RequestIDFrom(r.Context())
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderRequestID, "given-id")
		rr := httptest.NewRecorder()
		Chain(h, RequestID()).ServeHTTP(rr, req)

		require.Equal(t, "given-id", rr.Header().Get(HeaderRequestID))
		require.Equal(t, "given-id", seen)
	})
}

func TestLogging(t *testing.T) {
	t.Parallel()

	ch := &capHandler{}
	lg := slog.New(ch)

	var ctxLogger *slog.Logger
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxLogger = log.From(r.Context())
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("nope"))
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/x", nil)
	req.Header.Set(HeaderRequestID, "rid-42")
	rr := httptest.NewRecorder()
	Chain(h, RequestID(), Logging(lg)).ServeHTTP(rr, req)

	require.NotNil(t, ctxLogger)
	require.Equal(t, "http", ch.lastMsg)
	require.Equal(t, slog.LevelWarn, ch.lastLvl)
	require.Equal(t, "rid-42", ch.attrs["request_id"])
	require.EqualValues(t, http.StatusNotFound, ch.attrs["status"])
	require.EqualValues(t, 4, ch.attrs["bytes"])
	require.Equal(t, "/api/v1/sessions/x", ch.attrs["path"])
}

func TestRecover(t *testing.T) {
	t.Parallel()

	ch := &capHandler{}
	h := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	req.Header.Set(HeaderRequestID, "rid-p")
	rr := httptest.NewRecorder()
	Chain(h, RequestID(), Logging(slog.New(ch)), Recover()).ServeHTTP(rr, req)

	require.Equal(t, http.StatusInternalServerError, rr.Code)

	var body struct {
		Error struct {
			Code      string `json:"code"`
			RequestID string `json:"request_id"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "internal", body.Error.Code)
	require.Equal(t, "rid-p", body.Error.RequestID)

	// Последняя запись — итоговая строка запроса с уровнем Error.
	require.Equal(t, "http", ch.lastMsg)
	require.Equal(t, slog.LevelError, ch.lastLvl)
}

func TestTimeout(t *testing.T) {
	t.Parallel()

	t.Run("sets deadline", func(t *testing.T) {
		t.Parallel()

		var has bool
		h := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			_, has = r.Context().Deadline()
		})
		Chain(h, Timeout(time.Second)).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		require.True(t, has)
	})

	t.Run("keeps earlier deadline", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		want, _ := ctx.Deadline()

		var got time.Time
		h := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			got, _ = r.Context().Deadline()
		})
		req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)
		Chain(h, Timeout(time.Hour)).ServeHTTP(httptest.NewRecorder(), req)
		require.Equal(t, want, got)
	})

	t.Run("noop", func(t *testing.T) {
		t.Parallel()

		var has bool
		h := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			_, has = r.Context().Deadline()
		})
		Chain(h, Timeout(0)).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		require.False(t, has)
	})
}
