// listing - разбирает JSON-листинги reddit (`/.json`) в нормализованные медиа-элементы.
package listing

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Listing — корень ответа листинга.
// Data == nil означает «нет данных», а не пустую страницу.
type Listing struct {
	Data *ListingData `json:"data"`
}

// ListingData — конверт со списком записей.
type ListingData struct {
	Children []Entry `json:"children"`
}

// Entry — одна запись листинга: дискриминатор kind и необязательная полезная нагрузка.
type Entry struct {
	// Kind — тип объекта ("t3" — пост/ссылка, "t1" — комментарий и т.д.).
	Kind string `json:"kind"`
	// Data — полезная нагрузка. Может отсутствовать.
	Data *Payload `json:"data"`
}

// Payload — полезная нагрузка записи. Набор медиа-полей взаимоисключающий:
// какое из них заполнено, определяет стратегию извлечения.
type Payload struct {
	// Name — непрозрачный идентификатор записи, он же курсор пагинации.
	Name string `json:"name"`
	// Title — заголовок поста.
	Title string `json:"title"`
	// Permalink — относительный путь к посту.
	Permalink string `json:"permalink"`
	// URL — внешняя ссылка поста.
	URL string `json:"url"`

	// MediaMetadata — метаданные галереи (ключ -> источник), порядок ключей как в документе.
	MediaMetadata gallery `json:"media_metadata"`
	// GalleryData — порядок элементов галереи, если reddit его прислал.
	GalleryData *galleryData `json:"gallery_data"`
	// Preview — блок превью с вариантами изображения.
	Preview *preview `json:"preview"`
	// SecureMediaEmbed — встраиваемый плеер (iframe HTML или прямой URL домена).
	SecureMediaEmbed *mediaEmbed `json:"secure_media_embed"`
	// SecureMedia/Media — описание стороннего провайдера с oembed.
	SecureMedia *thirdPartyMedia `json:"secure_media"`
	Media       *thirdPartyMedia `json:"media"`
}

// imageSource — одно разрешение изображения превью.
type imageSource struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// imageSet — исходник и набор альтернативных разрешений.
type imageSet struct {
	Source      imageSource   `json:"source"`
	Resolutions []imageSource `json:"resolutions"`
}

// previewImage — изображение превью с необязательными альтернативными форматами.
type previewImage struct {
	imageSet
	Variants *variants `json:"variants"`
}

// variants — альтернативные форматы: только анимация (gif) и только видео (mp4).
type variants struct {
	GIF *imageSet `json:"gif"`
	MP4 *imageSet `json:"mp4"`
}

type preview struct {
	Images []previewImage `json:"images"`
}

// mediaEmbed — блок secure_media_embed.
// Width/Height/Scrolling обязательны для извлечения, поэтому указатели.
type mediaEmbed struct {
	// Content — HTML-сниппет iframe (экранированный сущностями).
	Content string `json:"content"`
	// MediaDomainURL — прямой URL плеера (старый формат).
	MediaDomainURL string `json:"media_domain_url"`
	Width          *int   `json:"width"`
	Height         *int   `json:"height"`
	Scrolling      *bool  `json:"scrolling"`
}

// thirdPartyMedia — описание стороннего хостинга (тип провайдера + oembed).
type thirdPartyMedia struct {
	Type   string  `json:"type"`
	OEmbed *oembed `json:"oembed"`
}

type oembed struct {
	ThumbnailURL string `json:"thumbnail_url"`
}

// gallerySource — одно разрешение элемента галереи: x/y — размеры, u — URL.
// У анимированных элементов вместо u приходит gif.
type gallerySource struct {
	X   int    `json:"x"`
	Y   int    `json:"y"`
	U   string `json:"u"`
	GIF string `json:"gif"`
}

// url возвращает статический URL, иначе анимированный.
func (s gallerySource) url() string {
	if s.U != "" {
		return s.U
	}

	return s.GIF
}

// galleryItem — элемент media_metadata.
type galleryItem struct {
	Status string          `json:"status"`
	S      *gallerySource  `json:"s"`
	P      []gallerySource `json:"p"`
}

// galleryEntry — пара ключ/элемент с сохранением порядка.
type galleryEntry struct {
	ID   string
	Item galleryItem
}

// gallery — media_metadata в порядке ключей исходного документа.
type gallery []galleryEntry

// UnmarshalJSON разбирает объект media_metadata, сохраняя порядок ключей.
func (g *gallery) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*g = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("media_metadata: expected object, got %v", tok)
	}

	var out gallery
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}

		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("media_metadata: expected key, got %v", keyTok)
		}

		var item galleryItem
		if err := dec.Decode(&item); err != nil {
			return fmt.Errorf("media_metadata[%s]: %w", key, err)
		}

		out = append(out, galleryEntry{ID: key, Item: item})
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*g = out
	return nil
}

// galleryData — явный порядок элементов галереи.
type galleryData struct {
	Items []struct {
		MediaID string `json:"media_id"`
	} `json:"items"`
}
