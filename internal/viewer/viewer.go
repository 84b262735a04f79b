// viewer — конечный автомат просмотра ленты: позиция, автопрокрутка,
// подгрузка следующей страницы по нижней отметке.
package viewer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/pribylovaa/reddit-gallery/internal/feed"
	"github.com/pribylovaa/reddit-gallery/internal/models"
	"github.com/pribylovaa/reddit-gallery/pkg/log"
)

// ErrStopped — актор вьюера уже остановлен.
var ErrStopped = errors.New("viewer stopped")

// DefaultInboxSize — размер очереди сообщений по умолчанию.
const DefaultInboxSize = 32

// Pager — буфер ленты, которым владеет вьюер (реализация: *feed.Pager).
type Pager interface {
	Len() int
	Item(i int) (models.MediaItem, bool)
	Items(offset, limit int) []models.MediaItem
	Loading() bool
	Failed() bool
	Err() error
	PageSize() int
	RequestNextPage(ctx context.Context, done func(feed.Result)) bool
	Complete(res feed.Result) error
}

// PreferenceStore — хранилище настроек автопрокрутки одного профиля.
type PreferenceStore interface {
	// Load возвращает сохранённые настройки; ok == false, если их ещё нет.
	Load(ctx context.Context) (prefs models.Preferences, ok bool, err error)
	Save(ctx context.Context, prefs models.Preferences) error
}

// State — состояние загрузки, ортогональное позиции.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateFailed  State = "failed"
)

// Snapshot — срез состояния вьюера для отрисовки.
type Snapshot struct {
	Path            string            `json:"path"`
	Index           int               `json:"index"`
	Count           int               `json:"count"`
	State           State             `json:"state"`
	Loading         bool              `json:"loading"`
	Failed          bool              `json:"failed"`
	Error           string            `json:"error,omitempty"`
	AutoAdvance     bool              `json:"auto_advance"`
	IntervalSeconds uint64            `json:"interval_seconds"`
	Current         *models.MediaItem `json:"current,omitempty"`
}

// Options — параметры вьюера.
type Options struct {
	// Path — путь листинга (для логов и снимков).
	Path string
	// Defaults — настройки до чтения хранилища; нулевой интервал заменяется
	// на models.DefaultPreferences().
	Defaults models.Preferences
	// InboxSize — ёмкость очереди сообщений.
	InboxSize int
}

type envelope struct {
	msg   Msg
	query func()
}

// Viewer — единственный владелец состояния сессии просмотра.
//
// Все переходы выполняются в горутине Run; извне состояние доступно только
// через Do и запросы-снимки. Update можно вызывать напрямую, если Run не запущен.
type Viewer struct {
	pager Pager
	sched Scheduler
	prefs PreferenceStore
	path  string

	inbox chan envelope
	done  chan struct{}

	index       int
	autoAdvance bool
	interval    uint64

	timer Timer
	gen   uint64
}

// New создаёт вьюер. prefs может быть nil (настройки не сохраняются).
func New(pager Pager, sched Scheduler, prefs PreferenceStore, opts Options) *Viewer {
	if !models.ValidInterval(opts.Defaults.IntervalSeconds) {
		opts.Defaults = models.DefaultPreferences()
	}
	if opts.InboxSize <= 0 {
		opts.InboxSize = DefaultInboxSize
	}
	if sched == nil {
		sched = TickerScheduler{}
	}

	return &Viewer{
		pager:       pager,
		sched:       sched,
		prefs:       prefs,
		path:        opts.Path,
		inbox:       make(chan envelope, opts.InboxSize),
		done:        make(chan struct{}),
		autoAdvance: opts.Defaults.AutoAdvance,
		interval:    opts.Defaults.IntervalSeconds,
	}
}

// Run запускает актор: Start, затем обработка сообщений до отмены ctx.
// Таймер останавливается при выходе.
func (v *Viewer) Run(ctx context.Context) {
	defer close(v.done)
	defer v.stopTimer()

	v.Start(ctx)

	for {
		select {
		case <-ctx.Done():
			log.From(ctx).Debug("viewer_stopped", slog.String("path", v.path))
			return
		case env := <-v.inbox:
			if env.msg != nil {
				v.Update(ctx, env.msg)
			}
			if env.query != nil {
				env.query()
			}
		}
	}
}

// Done закрывается после остановки Run.
func (v *Viewer) Done() <-chan struct{} { return v.done }

// Start читает сохранённые настройки, запускает таймер и первую загрузку.
func (v *Viewer) Start(ctx context.Context) {
	const op = "viewer.Viewer.Start"

	lg := log.From(ctx)

	if v.prefs != nil {
		prefs, ok, err := v.prefs.Load(ctx)
		switch {
		case err != nil:
			lg.Warn("prefs_load_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
		case ok && models.ValidInterval(prefs.IntervalSeconds):
			v.autoAdvance = prefs.AutoAdvance
			v.interval = prefs.IntervalSeconds
		}
	}

	v.restartTimer()
	v.loadItems(ctx)

	lg.Info("viewer_started",
		slog.String("op", op),
		slog.String("path", v.path),
		slog.Bool("auto_advance", v.autoAdvance),
		slog.Uint64("interval_seconds", v.interval),
	)
}

// Update применяет переход. Возвращает true, если состояние изменилось и
// его нужно перерисовать.
func (v *Viewer) Update(ctx context.Context, msg Msg) bool {
	switch m := msg.(type) {
	case LoadItems:
		return v.loadItems(ctx)
	case Retry:
		if !v.pager.Failed() {
			return false
		}
		return v.requestPage(ctx)
	case Advance:
		return v.moveTo(ctx, v.index+1)
	case Retreat:
		return v.moveTo(ctx, v.index-1)
	case SetIndex:
		return v.moveTo(ctx, m.Index)
	case Tick:
		if m.gen != v.gen || !v.autoAdvance {
			return false
		}
		v.index = v.clamp(v.index + 1)
		v.checkNextLoad(ctx)
		return true
	case ToggleAutoAdvance:
		v.autoAdvance = !v.autoAdvance
		v.restartTimer()
		v.savePrefs(ctx)
		return true
	case SetInterval:
		if !models.ValidInterval(m.Seconds) || m.Seconds == v.interval {
			return false
		}
		v.interval = m.Seconds
		v.restartTimer()
		v.savePrefs(ctx)
		return true
	case pageDone:
		v.applyPage(ctx, m.res)
		return true
	default:
		return false
	}
}

// Do применяет msg (nil — только снимок) и возвращает снимок после перехода.
func (v *Viewer) Do(ctx context.Context, msg Msg) (Snapshot, error) {
	return ask(ctx, v, msg, v.snapshot)
}

// Item возвращает элемент буфера по индексу.
func (v *Viewer) Item(ctx context.Context, i int) (models.MediaItem, bool, error) {
	type result struct {
		item models.MediaItem
		ok   bool
	}

	r, err := ask(ctx, v, nil, func() result {
		it, ok := v.pager.Item(i)
		return result{item: it, ok: ok}
	})

	return r.item, r.ok, err
}

// Items возвращает окно буфера [offset, offset+limit).
func (v *Viewer) Items(ctx context.Context, offset, limit int) ([]models.MediaItem, error) {
	return ask(ctx, v, nil, func() []models.MediaItem {
		return v.pager.Items(offset, limit)
	})
}

// ask выполняет msg и q в горутине актора и ждёт ответ.
func ask[T any](ctx context.Context, v *Viewer, msg Msg, q func() T) (T, error) {
	var zero T

	reply := make(chan T, 1)
	env := envelope{msg: msg, query: func() { reply <- q() }}

	select {
	case v.inbox <- env:
	case <-v.done:
		return zero, ErrStopped
	case <-ctx.Done():
		return zero, ctx.Err()
	}

	select {
	case r := <-reply:
		return r, nil
	case <-v.done:
		select {
		case r := <-reply:
			return r, nil
		default:
			return zero, ErrStopped
		}
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func (v *Viewer) snapshot() Snapshot {
	s := Snapshot{
		Path:            v.path,
		Index:           -1,
		Count:           v.pager.Len(),
		State:           v.state(),
		Loading:         v.pager.Loading(),
		Failed:          v.pager.Failed(),
		AutoAdvance:     v.autoAdvance,
		IntervalSeconds: v.interval,
	}

	if err := v.pager.Err(); err != nil && s.Failed {
		s.Error = err.Error()
	}

	if it, ok := v.pager.Item(v.index); ok {
		s.Index = v.index
		s.Current = &it
	}

	return s
}

func (v *Viewer) state() State {
	switch {
	case v.pager.Loading():
		return StateLoading
	case v.pager.Failed():
		return StateFailed
	default:
		return StateIdle
	}
}

// moveTo ставит позицию с ограничением, проверяет нижнюю отметку и
// перезапускает отсчёт таймера.
func (v *Viewer) moveTo(ctx context.Context, i int) bool {
	v.index = v.clamp(i)
	v.checkNextLoad(ctx)
	v.restartTimer()
	return true
}

// clamp ограничивает i диапазоном [0, n-1]; при пустом буфере — 0.
func (v *Viewer) clamp(i int) int {
	n := v.pager.Len()
	switch {
	case n == 0 || i < 0:
		return 0
	case i >= n:
		return n - 1
	default:
		return i
	}
}

// checkNextLoad запрашивает страницу, если до конца буфера осталось меньше
// трети страницы.
func (v *Viewer) checkNextLoad(ctx context.Context) {
	if v.pager.Loading() || v.pager.Failed() {
		return
	}

	if v.pager.Len()-v.index < v.pager.PageSize()/3 {
		v.loadItems(ctx)
	}
}

func (v *Viewer) loadItems(ctx context.Context) bool {
	if v.pager.Loading() || v.pager.Failed() {
		return false
	}

	return v.requestPage(ctx)
}

func (v *Viewer) requestPage(ctx context.Context) bool {
	return v.pager.RequestNextPage(ctx, func(res feed.Result) {
		select {
		case v.inbox <- envelope{msg: pageDone{res: res}}:
		case <-v.done:
		}
	})
}

func (v *Viewer) applyPage(ctx context.Context, res feed.Result) {
	const op = "viewer.Viewer.applyPage"

	if err := v.pager.Complete(res); err != nil {
		log.From(ctx).Info("viewer_failed",
			slog.String("op", op),
			slog.String("path", v.path),
			slog.String("err", err.Error()),
		)
	}

	v.index = v.clamp(v.index)
}

// restartTimer останавливает текущий таймер и, если автопрокрутка включена,
// заводит новый на полный интервал.
func (v *Viewer) restartTimer() {
	v.stopTimer()

	if !v.autoAdvance {
		return
	}

	gen := v.gen
	v.timer = v.sched.Every(time.Duration(v.interval)*time.Second, func() {
		select {
		case v.inbox <- envelope{msg: Tick{gen: gen}}:
		default:
		}
	})
}

func (v *Viewer) stopTimer() {
	v.gen++

	if v.timer != nil {
		v.timer.Stop()
		v.timer = nil
	}
}

func (v *Viewer) savePrefs(ctx context.Context) {
	const op = "viewer.Viewer.savePrefs"

	if v.prefs == nil {
		return
	}

	prefs := models.Preferences{AutoAdvance: v.autoAdvance, IntervalSeconds: v.interval}
	if err := v.prefs.Save(ctx, prefs); err != nil {
		log.From(ctx).Warn("prefs_save_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
	}
}
