package listing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/pribylovaa/reddit-gallery/pkg/log"
)

// DefaultUserAgent — reddit режет запросы с пустым или «браузерным» User-Agent.
const DefaultUserAgent = "reddit-gallery/1.0 (+https://github.com/pribylovaa/reddit-gallery)"

// maxBodyBytes ограничивает размер тела листинга.
const maxBodyBytes = 16 << 20

// Client загружает сырые страницы листинга по HTTP.
// HTTP-клиент настраивается извне (таймауты, прокси и т.д.).
type Client struct {
	client    *http.Client
	userAgent string
}

// NewClient создаёт новый клиент листингов.
func NewClient(client *http.Client, userAgent string) *Client {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}

	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	return &Client{client: client, userAgent: userAgent}
}

// Fetch выполняет GET по url и декодирует JSON-листинг.
// Любая сетевая ошибка, не-2xx статус или ошибка декодирования оборачивает ErrTransport.
func (c *Client) Fetch(ctx context.Context, url string) (*Listing, error) {
	const op = "listing.Client.Fetch"

	lg := log.From(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: new_request: %w: %w", op, ErrTransport, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		lg.Warn("http_error",
			slog.String("op", op),
			slog.String("url", url),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: do: %w: %w", op, ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		lg.Warn("http_status",
			slog.String("op", op),
			slog.String("url", url),
			slog.Int("status", resp.StatusCode),
		)
		return nil, fmt.Errorf("%s: %w: status=%d", op, ErrTransport, resp.StatusCode)
	}

	var doc Listing
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%s: decode: %w: %w", op, ErrTransport, err)
	}

	return &doc, nil
}
