// models содержит доменные сущности gallery-сервиса.
// Эти типы используются слоями разбора листингов, пейджера, вьюера и транспорта.
package models

import (
	"math"
	"time"
)

// Kind — тег варианта медиа-элемента.
type Kind string

const (
	KindPicture Kind = "picture"
	KindVideo   Kind = "video"
	KindEmbed   Kind = "embed"
)

// MediaItem — нормализованный медиа-элемент ленты.
//
// Особенности:
//   - ровно одно из полей Picture/Video/Embed заполнено и соответствует Kind;
//   - TitleURL — абсолютная ссылка (permalink, разрешённый относительно origin);
//   - после создания нормализатором элемент не изменяется.
type MediaItem struct {
	// Title — заголовок поста.
	Title string `json:"title"`
	// TitleURL — абсолютная ссылка на пост.
	TitleURL string `json:"title_url"`
	// Kind — тип варианта.
	Kind Kind `json:"kind"`

	Picture *Picture `json:"picture,omitempty"`
	Video   *Video   `json:"video,omitempty"`
	Embed   *Embed   `json:"embed,omitempty"`
}

// Picture — изображение с адаптивным набором источников.
type Picture struct {
	// URL — основной источник (наибольшее разрешение).
	URL string `json:"url"`
	// SourceSet — строка вида "<url> <width>w, ...", основной источник последним.
	SourceSet string `json:"srcset"`
}

// Video — проигрываемое видео.
type Video struct {
	MIME string `json:"mime"`
	URL  string `json:"url"`
}

// Embed — внешний плеер для iframe.
type Embed struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	// Scrolling — "yes" или "no".
	Scrolling string `json:"scrolling"`
}

// Page — результат разбора одной страницы листинга.
//
// Items может быть пустым, если страница сдвинула курсор, но не дала медиа.
type Page struct {
	Items  []MediaItem
	Cursor string
}

// Preferences — пользовательские настройки автопрокрутки.
type Preferences struct {
	// AutoAdvance — включена ли автопрокрутка.
	AutoAdvance bool `json:"timeout_enabled"`
	// IntervalSeconds — период автопрокрутки в секундах (> 0).
	IntervalSeconds uint64 `json:"timeout_seconds"`
}

// MaxIntervalSeconds — наибольший интервал, который ещё представим в time.Duration.
const MaxIntervalSeconds = uint64(math.MaxInt64 / int64(time.Second))

// ValidInterval сообщает, лежит ли seconds в (0, MaxIntervalSeconds].
func ValidInterval(seconds uint64) bool {
	return seconds > 0 && seconds <= MaxIntervalSeconds
}

// DefaultPreferences возвращает настройки по умолчанию: автопрокрутка включена, 10 секунд.
func DefaultPreferences() Preferences {
	return Preferences{AutoAdvance: true, IntervalSeconds: 10}
}
