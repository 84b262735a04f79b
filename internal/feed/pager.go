package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pribylovaa/reddit-gallery/internal/listing"
	"github.com/pribylovaa/reddit-gallery/internal/metrics"
	"github.com/pribylovaa/reddit-gallery/internal/models"
	"github.com/pribylovaa/reddit-gallery/pkg/log"
)

// ErrBusy — запрос страницы уже выполняется.
var ErrBusy = errors.New("page request in flight")

// Options — параметры пейджера.
type Options struct {
	// Path — путь листинга без origin, например "r/pics".
	Path string
	// PageSize — значение limit в запросе; <= 0 заменяется на listing.DefaultPageSize.
	PageSize int
	// Observer — необязательный получатель итогов загрузки.
	Observer Observer
}

// Pager — буфер элементов ленты (только дописывание) и курсор пагинации.
//
// Особенности:
//   - индексы элементов стабильны, элементы не удаляются и не переставляются;
//   - пока запрос выполняется (Loading), новые запросы игнорируются;
//   - ошибка запроса выставляет Failed; повтор — только явным новым запросом;
//   - не потокобезопасен: владелец один (актор вьюера или CLI).
type Pager struct {
	fetcher  Fetcher
	parser   *listing.Parser
	observer Observer

	path     string
	pageSize int

	items     []models.MediaItem
	cursor    string
	hasCursor bool

	loading bool
	failed  bool
	lastErr error
	seq     uint64
}

// NewPager создаёт пустой пейджер для пути opts.Path.
func NewPager(fetcher Fetcher, parser *listing.Parser, opts Options) *Pager {
	if opts.PageSize <= 0 {
		opts.PageSize = listing.DefaultPageSize
	}

	return &Pager{
		fetcher:  fetcher,
		parser:   parser,
		observer: opts.Observer,
		path:     opts.Path,
		pageSize: opts.PageSize,
	}
}

// RequestNextPage запускает асинхронную загрузку следующей страницы.
// done вызывается ровно один раз из горутины загрузки; результат нужно
// передать в Complete из горутины-владельца.
// Возвращает false, если загрузка уже выполняется.
func (p *Pager) RequestNextPage(ctx context.Context, done func(Result)) bool {
	url, seq, ok := p.begin()
	if !ok {
		return false
	}

	go func() {
		page, err := p.fetchPage(ctx, url)
		done(Result{Seq: seq, Page: page, Err: err})
	}()

	return true
}

// LoadNext синхронно загружает и применяет следующую страницу.
func (p *Pager) LoadNext(ctx context.Context) error {
	const op = "feed.Pager.LoadNext"

	url, seq, ok := p.begin()
	if !ok {
		return fmt.Errorf("%s: %w", op, ErrBusy)
	}

	page, err := p.fetchPage(ctx, url)
	if err := p.Complete(Result{Seq: seq, Page: page, Err: err}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Complete применяет результат запроса: снимает Loading, при успехе дописывает
// элементы по порядку и заменяет курсор, при ошибке выставляет Failed.
// Возвращает ошибку запроса (если была).
func (p *Pager) Complete(res Result) error {
	p.loading = false

	if res.Err != nil {
		p.failed = true
		p.lastErr = res.Err
		return res.Err
	}

	p.failed = false
	p.lastErr = nil
	p.items = append(p.items, res.Page.Items...)
	p.cursor = res.Page.Cursor
	p.hasCursor = true

	return nil
}

// begin переводит пейджер в Loading и выдаёт URL и номер запроса.
// Новый запрос сбрасывает Failed.
func (p *Pager) begin() (string, uint64, bool) {
	if p.loading {
		return "", 0, false
	}

	p.loading = true
	p.failed = false
	p.seq++

	return p.NextURL(), p.seq, true
}

// fetchPage загружает и разбирает страницу. Читает только неизменяемые поля,
// поэтому безопасен для вызова из горутины загрузки.
func (p *Pager) fetchPage(ctx context.Context, url string) (models.Page, error) {
	const op = "feed.Pager.fetchPage"

	lg := log.From(ctx)
	start := time.Now()

	raw, err := p.fetcher.Fetch(ctx, url)
	if err == nil {
		var page models.Page
		page, err = p.parser.Parse(raw)
		if err == nil {
			p.observe(metrics.OutcomeOK, page.Items, start)
			lg.Debug("page_loaded",
				slog.String("op", op),
				slog.String("url", url),
				slog.Int("items", len(page.Items)),
				slog.String("cursor", page.Cursor),
			)
			return page, nil
		}
	}

	p.observe(outcome(err), nil, start)
	lg.Warn("page_failed",
		slog.String("op", op),
		slog.String("url", url),
		slog.String("err", err.Error()),
	)

	return models.Page{}, fmt.Errorf("%s: %w", op, err)
}

func (p *Pager) observe(outcome string, items []models.MediaItem, start time.Time) {
	if p.observer != nil {
		p.observer.ObservePage(outcome, items, time.Since(start))
	}
}

func outcome(err error) string {
	switch {
	case errors.Is(err, listing.ErrUpstreamEmpty):
		return metrics.OutcomeEmpty
	case errors.Is(err, listing.ErrUpstreamUnusable):
		return metrics.OutcomeUnusable
	default:
		return metrics.OutcomeTransport
	}
}

// NextURL — URL следующей страницы с учётом курсора.
func (p *Pager) NextURL() string {
	return p.parser.PageURL(p.path, p.pageSize, p.cursor, p.hasCursor)
}

// Len — число элементов в буфере.
func (p *Pager) Len() int { return len(p.items) }

// Item возвращает элемент по индексу.
func (p *Pager) Item(i int) (models.MediaItem, bool) {
	if i < 0 || i >= len(p.items) {
		return models.MediaItem{}, false
	}

	return p.items[i], true
}

// Items возвращает копию окна [offset, offset+limit) буфера.
func (p *Pager) Items(offset, limit int) []models.MediaItem {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(p.items) || limit <= 0 {
		return nil
	}

	end := offset + limit
	if end > len(p.items) {
		end = len(p.items)
	}

	return append([]models.MediaItem(nil), p.items[offset:end]...)
}

// Cursor возвращает текущий курсор и признак его наличия.
func (p *Pager) Cursor() (string, bool) { return p.cursor, p.hasCursor }

// Loading — выполняется ли запрос страницы.
func (p *Pager) Loading() bool { return p.loading }

// Failed — завершился ли последний запрос ошибкой.
func (p *Pager) Failed() bool { return p.failed }

// Err — ошибка последнего запроса (nil после успеха).
func (p *Pager) Err() error { return p.lastErr }

// PageSize — размер страницы.
func (p *Pager) PageSize() int { return p.pageSize }

// Path — путь листинга.
func (p *Pager) Path() string { return p.path }
