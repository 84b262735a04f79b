package viewer

import (
	"sync"
	"time"
)

// Scheduler запускает периодические таймеры автопрокрутки.
type Scheduler interface {
	// Every вызывает fn каждые d до остановки таймера.
	Every(d time.Duration, fn func()) Timer
}

// Timer — дескриптор запущенного таймера.
type Timer interface {
	// Stop останавливает таймер. Не ждёт завершения fn; повторный вызов безопасен.
	Stop()
}

// TickerScheduler — Scheduler поверх time.Ticker.
type TickerScheduler struct{}

// Every реализует Scheduler.
func (TickerScheduler) Every(d time.Duration, fn func()) Timer {
	t := &tickerTimer{
		ticker: time.NewTicker(d),
		stop:   make(chan struct{}),
	}

	go t.loop(fn)

	return t
}

type tickerTimer struct {
	ticker *time.Ticker
	stop   chan struct{}
	once   sync.Once
}

func (t *tickerTimer) loop(fn func()) {
	for {
		select {
		case <-t.stop:
			return
		case <-t.ticker.C:
			fn()
		}
	}
}

func (t *tickerTimer) Stop() {
	t.once.Do(func() {
		t.ticker.Stop()
		close(t.stop)
	})
}
