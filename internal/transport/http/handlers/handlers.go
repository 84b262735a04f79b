// handlers — HTTP-обработчики API сессий просмотра.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pribylovaa/reddit-gallery/internal/models"
	"github.com/pribylovaa/reddit-gallery/internal/service"
	"github.com/pribylovaa/reddit-gallery/internal/viewer"
)

// Sessions — операции сервисного слоя, нужные HTTP API (реализация: *service.Service).
type Sessions interface {
	OpenSession(ctx context.Context, path string) (uuid.UUID, viewer.Snapshot, error)
	Dispatch(ctx context.Context, id uuid.UUID, msg viewer.Msg) (viewer.Snapshot, error)
	Snapshot(ctx context.Context, id uuid.UUID) (viewer.Snapshot, error)
	Item(ctx context.Context, id uuid.UUID, index int) (models.MediaItem, error)
	Items(ctx context.Context, id uuid.UUID, offset, limit int) ([]models.MediaItem, error)
	CloseSession(ctx context.Context, id uuid.UUID) error
}

// Handlers агрегирует зависимости обработчиков.
type Handlers struct {
	Sessions Sessions
}

func New(s Sessions) *Handlers {
	return &Handlers{Sessions: s}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(value); err != nil {
		return fmt.Errorf("decode body: %v: %w", err, service.ErrInvalidArgument)
	}
	return nil
}

// sessionID разбирает {id} из пути.
func sessionID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("session id: %w", service.ErrInvalidArgument)
	}
	return id, nil
}
