package listing

import (
	"errors"
	"html"
	"net/url"
	"strconv"
	"strings"

	"github.com/pribylovaa/reddit-gallery/internal/models"
)

var (
	// ErrUpstreamEmpty — в ответе нет конверта data.
	ErrUpstreamEmpty = errors.New("upstream returned no data")
	// ErrUpstreamUnusable — страница не дала ни элементов, ни курсора.
	ErrUpstreamUnusable = errors.New("upstream page yielded neither items nor cursor")
	// ErrTransport — сетевая ошибка, не-2xx статус или некорректный JSON.
	ErrTransport = errors.New("transport failure")
)

const (
	// DefaultOrigin — origin листингов и permalink-ов.
	DefaultOrigin = "https://www.reddit.com"
	// DefaultPageSize — размер страницы листинга.
	DefaultPageSize = 50

	// kindLink — единственный тип записи, из которого извлекаются медиа.
	kindLink = "t3"
)

// Parser нормализует записи листинга и разбирает страницы целиком.
// Не хранит состояния между вызовами и безопасен для конкурентного использования.
type Parser struct {
	origin string
}

// NewParser создаёт парсер с заданным origin для permalink-ов.
// Пустой origin заменяется на DefaultOrigin.
func NewParser(origin string) *Parser {
	origin = strings.TrimRight(strings.TrimSpace(origin), "/")
	if origin == "" {
		origin = DefaultOrigin
	}

	return &Parser{origin: origin}
}

// Normalize превращает одну запись в ноль, один или несколько медиа-элементов.
//
// Особенности:
//   - записи не типа t3 и записи без полезной нагрузки ничего не дают;
//   - стратегии извлечения пробуются по приоритету, первая успешная побеждает;
//   - TitleURL строится из permalink независимо от сработавшей стратегии.
func (p *Parser) Normalize(e Entry) []models.MediaItem {
	if e.Kind != kindLink || e.Data == nil {
		return nil
	}

	payload := e.Data
	title := html.UnescapeString(payload.Title)
	titleURL := p.permalinkURL(payload.Permalink)

	for _, ex := range extractors {
		items, ok := ex.extract(payload)
		if !ok {
			continue
		}

		for i := range items {
			items[i].Title = title
			items[i].TitleURL = titleURL
		}

		return items
	}

	return nil
}

// Parse разбирает страницу листинга.
//
// Курсор — name последней записи с полезной нагрузкой (включая записи не t3).
// Возвращает ErrUpstreamEmpty без конверта и ErrUpstreamUnusable,
// если нет ни элементов, ни курсора.
func (p *Parser) Parse(l *Listing) (models.Page, error) {
	if l == nil || l.Data == nil {
		return models.Page{}, ErrUpstreamEmpty
	}

	var page models.Page
	for _, e := range l.Data.Children {
		if e.Data == nil {
			continue
		}

		page.Cursor = e.Data.Name
		page.Items = append(page.Items, p.Normalize(e)...)
	}

	if len(page.Items) == 0 && page.Cursor == "" {
		return models.Page{}, ErrUpstreamUnusable
	}

	return page, nil
}

// PageURL строит URL страницы: {origin}/{path}/.json?limit={limit}[&after={cursor}].
func (p *Parser) PageURL(path string, limit int, cursor string, hasCursor bool) string {
	query := "limit=" + strconv.Itoa(limit)
	if hasCursor {
		query += "&after=" + url.QueryEscape(cursor)
	}

	path = strings.Trim(path, "/")
	if path == "" {
		return p.origin + "/.json?" + query
	}

	return p.origin + "/" + path + "/.json?" + query
}

func (p *Parser) permalinkURL(permalink string) string {
	return p.origin + "/" + strings.TrimLeft(permalink, "/")
}
