package handlers

import (
	"github.com/pribylovaa/reddit-gallery/internal/models"
	"github.com/pribylovaa/reddit-gallery/internal/viewer"
)

// OpenSessionRequest — тело POST /sessions.
type OpenSessionRequest struct {
	Path string `json:"path"`
}

// SetIndexRequest — тело PUT /sessions/{id}/index.
type SetIndexRequest struct {
	Index *int `json:"index"`
}

// SetIntervalRequest — тело PUT /sessions/{id}/interval.
type SetIntervalRequest struct {
	Seconds uint64 `json:"seconds"`
}

// SessionResponse — идентификатор сессии и снимок её состояния.
type SessionResponse struct {
	ID string `json:"id"`
	viewer.Snapshot
}

// ItemsResponse — окно буфера сессии.
type ItemsResponse struct {
	Offset int                `json:"offset"`
	Items  []models.MediaItem `json:"items"`
}
