package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/reddit-gallery/internal/models"
	"github.com/pribylovaa/reddit-gallery/internal/service"
	"github.com/pribylovaa/reddit-gallery/internal/transport/http/apierrors"
	"github.com/pribylovaa/reddit-gallery/internal/viewer"
)

func (h *Handlers) OpenSession(w http.ResponseWriter, r *http.Request) {
	var req OpenSessionRequest
	if err := decodeStrict(r, &req); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	id, snap, err := h.Sessions.OpenSession(r.Context(), req.Path)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.Header().Set("Location", "sessions/"+id.String())
	writeJSON(w, http.StatusCreated, SessionResponse{ID: id.String(), Snapshot: snap})
}

func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, nil)
}

func (h *Handlers) CloseSession(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	if err := h.Sessions.CloseSession(r.Context(), id); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) Next(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, viewer.Advance{})
}

func (h *Handlers) Prev(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, viewer.Retreat{})
}

func (h *Handlers) Load(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, viewer.LoadItems{})
}

func (h *Handlers) Retry(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, viewer.Retry{})
}

func (h *Handlers) ToggleAutoAdvance(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, viewer.ToggleAutoAdvance{})
}

func (h *Handlers) SetIndex(w http.ResponseWriter, r *http.Request) {
	var req SetIndexRequest
	if err := decodeStrict(r, &req); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}
	if req.Index == nil {
		apierrors.WriteError(w, r, fmt.Errorf("index is required: %w", service.ErrInvalidArgument))
		return
	}

	h.dispatch(w, r, viewer.SetIndex{Index: *req.Index})
}

// SetInterval меняет интервал автопрокрутки. Интервал вне
// (0, models.MaxIntervalSeconds] — 400;
// совпадающий с текущим — 200 без изменений.
func (h *Handlers) SetInterval(w http.ResponseWriter, r *http.Request) {
	var req SetIntervalRequest
	if err := decodeStrict(r, &req); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}
	if !models.ValidInterval(req.Seconds) {
		apierrors.WriteError(w, r, fmt.Errorf("seconds must be in (0, %d]: %w", models.MaxIntervalSeconds, service.ErrInvalidArgument))
		return
	}

	h.dispatch(w, r, viewer.SetInterval{Seconds: req.Seconds})
}

func (h *Handlers) GetItem(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		apierrors.WriteError(w, r, fmt.Errorf("index: %w", service.ErrInvalidArgument))
		return
	}

	item, err := h.Sessions.Item(r.Context(), id, index)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, item)
}

func (h *Handlers) ListItems(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	offset, err := queryInt(r, "offset")
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	items, err := h.Sessions.Items(r.Context(), id, offset, limit)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}
	if items == nil {
		items = []models.MediaItem{}
	}

	writeJSON(w, http.StatusOK, ItemsResponse{Offset: offset, Items: items})
}

func (h *Handlers) dispatch(w http.ResponseWriter, r *http.Request, msg viewer.Msg) {
	id, err := sessionID(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	snap, err := h.Sessions.Dispatch(r.Context(), id, msg)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, SessionResponse{ID: id.String(), Snapshot: snap})
}

// queryInt читает необязательный целочисленный параметр запроса (по умолчанию 0).
func queryInt(r *http.Request, key string) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, service.ErrInvalidArgument)
	}

	return n, nil
}
