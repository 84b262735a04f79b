// feed хранит ленту нормализованных медиа-элементов и подгружает её постранично.
package feed

import (
	"context"
	"time"

	"github.com/pribylovaa/reddit-gallery/internal/listing"
	"github.com/pribylovaa/reddit-gallery/internal/models"
)

//go:generate mockgen -destination=../../mocks/mock_fetcher.go -package=mocks github.com/pribylovaa/reddit-gallery/internal/feed Fetcher

// Fetcher загружает сырую страницу листинга по готовому URL.
//
// Требования к реализации:
//  1. сетевая ошибка, не-2xx статус и ошибка декодирования оборачивают listing.ErrTransport;
//  2. реализация обязана уважать ctx (отмена/таймауты);
//  3. вызывается из отдельной горутины, должна быть безопасна для конкурентного использования.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*listing.Listing, error)
}

// Observer получает итог каждой загрузки страницы (метрики).
type Observer interface {
	ObservePage(outcome string, items []models.MediaItem, dur time.Duration)
}

// Result — итог одного запроса страницы.
// Seq — номер запроса, выданный RequestNextPage/LoadNext.
type Result struct {
	Seq  uint64
	Page models.Page
	Err  error
}
