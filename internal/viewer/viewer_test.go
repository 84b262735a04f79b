package viewer

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/pribylovaa/reddit-gallery/internal/feed"
	"github.com/pribylovaa/reddit-gallery/internal/models"
	"github.com/stretchr/testify/require"
)

// fakePager — буфер из n элементов с ручным завершением загрузки.
type fakePager struct {
	n        int
	pageSize int
	loading  bool
	failed   bool
	err      error
	requests int
	done     func(feed.Result)
}

func newFakePager(n int) *fakePager { return &fakePager{n: n, pageSize: 50} }

func (p *fakePager) Len() int { return p.n }

func (p *fakePager) Item(i int) (models.MediaItem, bool) {
	if i < 0 || i >= p.n {
		return models.MediaItem{}, false
	}
	return models.MediaItem{Title: strconv.Itoa(i)}, true
}

func (p *fakePager) Items(offset, limit int) []models.MediaItem {
	var out []models.MediaItem
	for i := offset; i < offset+limit && i < p.n; i++ {
		it, _ := p.Item(i)
		out = append(out, it)
	}
	return out
}

func (p *fakePager) Loading() bool { return p.loading }
func (p *fakePager) Failed() bool  { return p.failed }
func (p *fakePager) Err() error    { return p.err }
func (p *fakePager) PageSize() int { return p.pageSize }

func (p *fakePager) RequestNextPage(_ context.Context, done func(feed.Result)) bool {
	if p.loading {
		return false
	}
	p.loading = true
	p.failed = false
	p.requests++
	p.done = done
	return true
}

func (p *fakePager) Complete(res feed.Result) error {
	p.loading = false
	if res.Err != nil {
		p.failed = true
		p.err = res.Err
		return res.Err
	}
	p.failed = false
	p.err = nil
	p.n += len(res.Page.Items)
	return nil
}

// fakeScheduler следит, чтобы одновременно был жив не более чем один таймер.
type fakeScheduler struct {
	mu      sync.Mutex
	timers  []*fakeTimer
	live    int
	maxLive int
}

type fakeTimer struct {
	s       *fakeScheduler
	d       time.Duration
	fn      func()
	stopped bool
}

func (s *fakeScheduler) Every(d time.Duration, fn func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &fakeTimer{s: s, d: d, fn: fn}
	s.timers = append(s.timers, t)
	s.live++
	if s.live > s.maxLive {
		s.maxLive = s.live
	}
	return t
}

func (t *fakeTimer) Stop() {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	if !t.stopped {
		t.stopped = true
		t.s.live--
	}
}

func (s *fakeScheduler) last() *fakeTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.timers) == 0 {
		return nil
	}
	return s.timers[len(s.timers)-1]
}

func (s *fakeScheduler) liveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live
}

type fakePrefs struct {
	loaded  models.Preferences
	ok      bool
	loadErr error
	saved   []models.Preferences
}

func (p *fakePrefs) Load(context.Context) (models.Preferences, bool, error) {
	return p.loaded, p.ok, p.loadErr
}

func (p *fakePrefs) Save(_ context.Context, prefs models.Preferences) error {
	p.saved = append(p.saved, prefs)
	return nil
}

// fire эмулирует срабатывание таймера и применяет поставленный им тик.
func fire(t *testing.T, v *Viewer, tm *fakeTimer) bool {
	t.Helper()

	tm.fn()
	select {
	case env := <-v.inbox:
		return v.Update(context.Background(), env.msg)
	default:
		t.Fatal("timer did not enqueue a tick")
		return false
	}
}

func newTestViewer(p *fakePager) (*Viewer, *fakeScheduler, *fakePrefs) {
	s := &fakeScheduler{}
	prefs := &fakePrefs{}
	v := New(p, s, prefs, Options{Path: "r/pics"})
	return v, s, prefs
}

func TestViewer_Start(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		p := newFakePager(0)
		v, s, _ := newTestViewer(p)
		v.Start(context.Background())

		require.Equal(t, 1, p.requests)
		require.Equal(t, 1, s.liveCount())
		require.Equal(t, 10*time.Second, s.last().d)

		snap := v.snapshot()
		require.Equal(t, -1, snap.Index)
		require.Equal(t, StateLoading, snap.State)
		require.True(t, snap.AutoAdvance)
		require.EqualValues(t, 10, snap.IntervalSeconds)
	})

	t.Run("stored preferences", func(t *testing.T) {
		t.Parallel()

		p := newFakePager(0)
		s := &fakeScheduler{}
		prefs := &fakePrefs{loaded: models.Preferences{AutoAdvance: false, IntervalSeconds: 3}, ok: true}
		v := New(p, s, prefs, Options{})
		v.Start(context.Background())

		require.Equal(t, 0, s.liveCount())
		require.False(t, v.autoAdvance)
		require.EqualValues(t, 3, v.interval)
	})

	t.Run("store error keeps defaults", func(t *testing.T) {
		t.Parallel()

		p := newFakePager(0)
		s := &fakeScheduler{}
		prefs := &fakePrefs{loadErr: errors.New("down")}
		v := New(p, s, prefs, Options{})
		v.Start(context.Background())

		require.True(t, v.autoAdvance)
		require.EqualValues(t, 10, v.interval)
	})
}

func TestViewer_ClampAtBounds(t *testing.T) {
	t.Parallel()

	p := newFakePager(5)
	v, _, _ := newTestViewer(p)
	ctx := context.Background()

	v.Update(ctx, SetIndex{Index: 4})
	require.Equal(t, 4, v.index)

	v.Update(ctx, Advance{})
	require.Equal(t, 4, v.index)

	v.Update(ctx, SetIndex{Index: 100})
	require.Equal(t, 4, v.index)

	v.Update(ctx, SetIndex{Index: -3})
	require.Equal(t, 0, v.index)

	v.Update(ctx, Retreat{})
	require.Equal(t, 0, v.index)

	snap := v.snapshot()
	require.Equal(t, 0, snap.Index)
	require.Equal(t, "0", snap.Current.Title)
}

func TestViewer_EmptyBufferIndex(t *testing.T) {
	t.Parallel()

	p := newFakePager(0)
	p.loading = true
	v, _, _ := newTestViewer(p)

	v.Update(context.Background(), Advance{})
	require.Equal(t, 0, v.index)
	require.Equal(t, -1, v.snapshot().Index)
	require.Nil(t, v.snapshot().Current)
}

func TestViewer_LowWatermark(t *testing.T) {
	t.Parallel()

	p := newFakePager(60)
	v, _, _ := newTestViewer(p)
	ctx := context.Background()

	// 17 осталось, отметка 16.
	v.Update(ctx, SetIndex{Index: 43})
	require.Equal(t, 0, p.requests)

	v.Update(ctx, SetIndex{Index: 44})
	require.Equal(t, 0, p.requests)

	// 15 осталось.
	v.Update(ctx, SetIndex{Index: 45})
	require.Equal(t, 1, p.requests)

	// Пока идёт загрузка, новые запросы не выдаются, навигация работает.
	v.Update(ctx, Advance{})
	require.Equal(t, 1, p.requests)
	require.Equal(t, 46, v.index)
}

func TestViewer_PageCompletion(t *testing.T) {
	t.Parallel()

	p := newFakePager(0)
	v, _, _ := newTestViewer(p)
	ctx := context.Background()

	require.True(t, v.Update(ctx, LoadItems{}))
	require.False(t, v.Update(ctx, LoadItems{}))

	items := []models.MediaItem{{Title: "a"}, {Title: "b"}, {Title: "c"}}
	v.Update(ctx, pageDone{res: feed.Result{Seq: 1, Page: models.Page{Items: items, Cursor: "c1"}}})

	snap := v.snapshot()
	require.Equal(t, StateIdle, snap.State)
	require.Equal(t, 3, snap.Count)
	require.Equal(t, 0, snap.Index)
}

func TestViewer_FailureAndRetry(t *testing.T) {
	t.Parallel()

	p := newFakePager(60)
	v, _, _ := newTestViewer(p)
	ctx := context.Background()

	require.False(t, v.Update(ctx, Retry{}), "retry is only valid from failed")

	v.Update(ctx, LoadItems{})
	v.Update(ctx, pageDone{res: feed.Result{Seq: 1, Err: errors.New("transport")}})

	snap := v.snapshot()
	require.Equal(t, StateFailed, snap.State)
	require.Equal(t, "transport", snap.Error)

	// Ни отметка, ни LoadItems не перезапускают загрузку из Failed.
	v.Update(ctx, SetIndex{Index: 59})
	require.False(t, v.Update(ctx, LoadItems{}))
	require.Equal(t, 1, p.requests)

	require.True(t, v.Update(ctx, Retry{}))
	require.Equal(t, 2, p.requests)
	require.Equal(t, StateLoading, v.snapshot().State)
}

func TestViewer_TimerRestart(t *testing.T) {
	t.Parallel()

	p := newFakePager(10)
	p.loading = true
	v, s, prefs := newTestViewer(p)
	ctx := context.Background()

	v.restartTimer()
	first := s.last()

	require.True(t, v.Update(ctx, SetInterval{Seconds: 5}))
	require.True(t, first.stopped)
	require.Equal(t, 5*time.Second, s.last().d)
	require.Equal(t, 1, s.liveCount())

	require.False(t, v.Update(ctx, SetInterval{Seconds: 5}))
	require.False(t, v.Update(ctx, SetInterval{Seconds: 0}))

	v.Update(ctx, Advance{})
	v.Update(ctx, Retreat{})
	v.Update(ctx, SetIndex{Index: 3})

	require.Equal(t, 1, s.maxLive)
	require.Equal(t, 1, s.liveCount())
	require.Len(t, s.timers, 5)
	require.Equal(t, []models.Preferences{{AutoAdvance: true, IntervalSeconds: 5}}, prefs.saved)
}

func TestViewer_IntervalOutOfRange(t *testing.T) {
	t.Parallel()

	t.Run("set interval with real ticker", func(t *testing.T) {
		t.Parallel()

		p := newFakePager(10)
		p.loading = true
		prefs := &fakePrefs{}
		v := New(p, TickerScheduler{}, prefs, Options{})
		defer v.stopTimer()

		v.restartTimer()

		require.NotPanics(t, func() {
			require.False(t, v.Update(context.Background(), SetInterval{Seconds: models.MaxIntervalSeconds + 1}))
			require.False(t, v.Update(context.Background(), SetInterval{Seconds: 9223372037}))
		})
		require.EqualValues(t, 10, v.interval)
		require.Empty(t, prefs.saved)
	})

	t.Run("upper bound accepted", func(t *testing.T) {
		t.Parallel()

		p := newFakePager(10)
		p.loading = true
		v, s, _ := newTestViewer(p)

		require.True(t, v.Update(context.Background(), SetInterval{Seconds: models.MaxIntervalSeconds}))
		require.Positive(t, s.last().d)
	})

	t.Run("stored interval ignored", func(t *testing.T) {
		t.Parallel()

		p := newFakePager(0)
		s := &fakeScheduler{}
		prefs := &fakePrefs{loaded: models.Preferences{AutoAdvance: true, IntervalSeconds: 1 << 62}, ok: true}
		v := New(p, s, prefs, Options{})
		v.Start(context.Background())

		require.EqualValues(t, 10, v.interval)
		require.Equal(t, 10*time.Second, s.last().d)
	})

	t.Run("defaults out of range", func(t *testing.T) {
		t.Parallel()

		v := New(newFakePager(0), &fakeScheduler{}, nil, Options{
			Defaults: models.Preferences{AutoAdvance: false, IntervalSeconds: models.MaxIntervalSeconds + 1},
		})
		require.Equal(t, models.DefaultPreferences().IntervalSeconds, v.interval)
	})
}

func TestViewer_Ticks(t *testing.T) {
	t.Parallel()

	p := newFakePager(10)
	p.loading = true
	v, s, _ := newTestViewer(p)

	v.restartTimer()
	old := s.last()

	require.True(t, fire(t, v, old))
	require.Equal(t, 1, v.index)

	// Ручная навигация заводит новый таймер; тик старого отбрасывается.
	v.Update(context.Background(), SetIndex{Index: 5})
	require.False(t, fire(t, v, old))
	require.Equal(t, 5, v.index)

	require.True(t, fire(t, v, s.last()))
	require.Equal(t, 6, v.index)

	// Внешний Tick без поколения игнорируется.
	require.False(t, v.Update(context.Background(), Tick{}))
}

func TestViewer_Toggle(t *testing.T) {
	t.Parallel()

	p := newFakePager(10)
	p.loading = true
	v, s, prefs := newTestViewer(p)
	ctx := context.Background()

	v.restartTimer()
	tm := s.last()
	v.Update(ctx, SetIndex{Index: 4})
	running := s.last()

	require.True(t, v.Update(ctx, ToggleAutoAdvance{}))
	require.Equal(t, 0, s.liveCount())
	require.True(t, tm.stopped)
	require.Equal(t, 4, v.index)

	require.False(t, fire(t, v, running))
	require.Equal(t, 4, v.index)

	require.True(t, v.Update(ctx, ToggleAutoAdvance{}))
	require.Equal(t, 1, s.liveCount())
	require.Equal(t, 10*time.Second, s.last().d)
	require.Equal(t, 4, v.index)

	require.Equal(t, []models.Preferences{
		{AutoAdvance: false, IntervalSeconds: 10},
		{AutoAdvance: true, IntervalSeconds: 10},
	}, prefs.saved)
	require.Equal(t, 1, s.maxLive)
}

func TestViewer_Run(t *testing.T) {
	t.Parallel()

	p := newFakePager(5)
	p.loading = true
	s := &fakeScheduler{}
	v := New(p, s, nil, Options{Path: "r/pics"})

	ctx, cancel := context.WithCancel(context.Background())
	go v.Run(ctx)

	snap, err := v.Do(context.Background(), Advance{})
	require.NoError(t, err)
	require.Equal(t, 1, snap.Index)
	require.Equal(t, "r/pics", snap.Path)

	it, ok, err := v.Item(context.Background(), 2)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "2", it.Title)

	items, err := v.Items(context.Background(), 3, 10)
	require.NoError(t, err)
	require.Len(t, items, 2)

	snap, err = v.Do(context.Background(), Advance{})
	require.NoError(t, err)
	require.Equal(t, 2, snap.Index)

	cancel()
	<-v.Done()

	require.Equal(t, 0, s.liveCount())

	_, err = v.Do(context.Background(), nil)
	require.ErrorIs(t, err, ErrStopped)
}

func TestTickerScheduler(t *testing.T) {
	t.Parallel()

	fired := make(chan struct{}, 8)
	tm := TickerScheduler{}.Every(5*time.Millisecond, func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	})

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("ticker did not fire")
	}

	tm.Stop()
	tm.Stop()
}
