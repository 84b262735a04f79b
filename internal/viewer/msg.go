package viewer

import "github.com/pribylovaa/reddit-gallery/internal/feed"

// Msg — переход конечного автомата вьюера. Набор сообщений закрыт.
type Msg interface {
	isMsg()
}

// LoadItems запрашивает следующую страницу (только из Idle).
type LoadItems struct{}

// Retry повторяет загрузку после ошибки (только из Failed).
type Retry struct{}

// Advance сдвигает позицию на +1.
type Advance struct{}

// Retreat сдвигает позицию на -1.
type Retreat struct{}

// SetIndex переводит позицию на Index (с ограничением границами буфера).
type SetIndex struct {
	Index int
}

// Tick — срабатывание таймера автопрокрутки. gen связывает тик с таймером,
// тики остановленных таймеров отбрасываются.
type Tick struct {
	gen uint64
}

// ToggleAutoAdvance включает/выключает автопрокрутку.
type ToggleAutoAdvance struct{}

// SetInterval меняет интервал автопрокрутки (секунды, > 0).
type SetInterval struct {
	Seconds uint64
}

// pageDone — итог загрузки страницы из горутины пейджера.
type pageDone struct {
	res feed.Result
}

func (LoadItems) isMsg()         {}
func (Retry) isMsg()             {}
func (Advance) isMsg()           {}
func (Retreat) isMsg()           {}
func (SetIndex) isMsg()          {}
func (Tick) isMsg()              {}
func (ToggleAutoAdvance) isMsg() {}
func (SetInterval) isMsg()       {}
func (pageDone) isMsg()          {}
