package listing

import (
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pribylovaa/reddit-gallery/internal/models"
)

// extractFunc — стратегия извлечения медиа из полезной нагрузки.
// Возвращает элементы без заголовка и ok=false, если стратегия неприменима.
type extractFunc func(p *Payload) ([]models.MediaItem, bool)

type extractor struct {
	name    string
	extract extractFunc
}

// extractors — стратегии в порядке приоритета: побеждает первая сработавшая.
var extractors = []extractor{
	{name: "third_party_link", extract: extractThirdPartyLink},
	{name: "third_party_oembed", extract: extractThirdPartyOEmbed},
	{name: "embed_content", extract: extractEmbedContent},
	{name: "embed_domain", extract: extractEmbedDomain},
	{name: "gallery", extract: extractGallery},
	{name: "preview", extract: extractPreview},
}

const mimeMP4 = "video/mp4"

// linkRule — шаблон внешней ссылки, из которой подстановкой получается прямой URL видео.
type linkRule struct {
	pattern  *regexp.Regexp
	template string
}

var linkRules = []linkRule{
	// imgur отдаёт .gifv как html-обёртку над .mp4 с тем же идентификатором.
	{
		pattern:  regexp.MustCompile(`^https?://(?:i\.|m\.)?imgur\.com/([A-Za-z0-9]+)\.gifv$`),
		template: "https://i.imgur.com/%s.mp4",
	},
}

// oembedRule — провайдер, чей thumbnail_url содержит токен прямого видео.
type oembedRule struct {
	provider string
	pattern  *regexp.Regexp
	template string
}

var oembedRules = []oembedRule{
	{
		provider: "gfycat.com",
		pattern:  regexp.MustCompile(`^https://thumbs\.gfycat\.com/([A-Za-z]+)-size_restricted\.gif$`),
		template: "https://thumbs.gfycat.com/%s-mobile.mp4",
	},
	{
		provider: "redgifs.com",
		pattern:  regexp.MustCompile(`^https://thumbs\d*\.redgifs\.com/([A-Za-z]+)(?:-[A-Za-z0-9_-]+)?\.(?:jpg|gif)$`),
		template: "https://thumbs2.redgifs.com/%s.mp4",
	},
}

func extractThirdPartyLink(p *Payload) ([]models.MediaItem, bool) {
	link := decodeURL(strings.TrimSpace(p.URL))
	if link == "" {
		return nil, false
	}

	for _, r := range linkRules {
		m := r.pattern.FindStringSubmatch(link)
		if m == nil {
			continue
		}

		derived := fmt.Sprintf(r.template, m[1])
		if !validMediaURL(derived) {
			return nil, false
		}

		return []models.MediaItem{videoItem(derived)}, true
	}

	return nil, false
}

func extractThirdPartyOEmbed(p *Payload) ([]models.MediaItem, bool) {
	for _, media := range []*thirdPartyMedia{p.SecureMedia, p.Media} {
		if media == nil || media.OEmbed == nil {
			continue
		}

		thumb := decodeURL(strings.TrimSpace(media.OEmbed.ThumbnailURL))
		for _, r := range oembedRules {
			if media.Type != r.provider {
				continue
			}

			m := r.pattern.FindStringSubmatch(thumb)
			if m == nil {
				continue
			}

			derived := fmt.Sprintf(r.template, m[1])
			if !validMediaURL(derived) {
				return nil, false
			}

			return []models.MediaItem{videoItem(derived)}, true
		}
	}

	return nil, false
}

func extractEmbedContent(p *Payload) ([]models.MediaItem, bool) {
	e := p.SecureMediaEmbed
	if e == nil || e.Content == "" || !e.complete() {
		return nil, false
	}

	src := embedSrc(e.Content)
	if src == "" {
		return nil, false
	}

	return []models.MediaItem{e.item(decodeURL(src))}, true
}

func extractEmbedDomain(p *Payload) ([]models.MediaItem, bool) {
	e := p.SecureMediaEmbed
	if e == nil || e.MediaDomainURL == "" || !e.complete() {
		return nil, false
	}

	return []models.MediaItem{e.item(decodeURL(e.MediaDomainURL))}, true
}

func extractGallery(p *Payload) ([]models.MediaItem, bool) {
	if len(p.MediaMetadata) == 0 {
		return nil, false
	}

	items := make([]models.MediaItem, 0, len(p.MediaMetadata))
	for _, e := range p.orderedGallery() {
		s := e.Item.S
		if s == nil || s.url() == "" {
			continue
		}

		alternates := make([]srcsetEntry, 0, len(e.Item.P))
		for _, alt := range e.Item.P {
			alternates = append(alternates, srcsetEntry{url: alt.url(), width: alt.X})
		}

		primary := srcsetEntry{url: s.url(), width: s.X}
		items = append(items, pictureItem(decodeURL(primary.url), sourceSet(primary, alternates)))
	}

	return items, len(items) > 0
}

func extractPreview(p *Payload) ([]models.MediaItem, bool) {
	if p.Preview == nil || len(p.Preview.Images) == 0 {
		return nil, false
	}

	items := make([]models.MediaItem, 0, len(p.Preview.Images))
	for _, img := range p.Preview.Images {
		if v := img.Variants; v != nil {
			if v.MP4 != nil && v.MP4.Source.URL != "" {
				items = append(items, videoItem(decodeURL(v.MP4.Source.URL)))
				continue
			}
			if v.GIF != nil && v.GIF.Source.URL != "" {
				items = append(items, v.GIF.picture())
				continue
			}
		}

		if img.Source.URL == "" {
			continue
		}
		items = append(items, img.picture())
	}

	return items, len(items) > 0
}

// orderedGallery возвращает элементы галереи в порядке gallery_data,
// а не упомянутые там — следом в порядке документа.
func (p *Payload) orderedGallery() gallery {
	if p.GalleryData == nil || len(p.GalleryData.Items) == 0 {
		return p.MediaMetadata
	}

	byID := make(map[string]int, len(p.MediaMetadata))
	for i, e := range p.MediaMetadata {
		byID[e.ID] = i
	}

	out := make(gallery, 0, len(p.MediaMetadata))
	used := make([]bool, len(p.MediaMetadata))
	for _, it := range p.GalleryData.Items {
		i, ok := byID[it.MediaID]
		if !ok || used[i] {
			continue
		}
		used[i] = true
		out = append(out, p.MediaMetadata[i])
	}

	for i, e := range p.MediaMetadata {
		if !used[i] {
			out = append(out, e)
		}
	}

	return out
}

func (e *mediaEmbed) complete() bool {
	return e.Width != nil && e.Height != nil && e.Scrolling != nil
}

func (e *mediaEmbed) item(src string) models.MediaItem {
	scrolling := "no"
	if *e.Scrolling {
		scrolling = "yes"
	}

	return models.MediaItem{
		Kind: models.KindEmbed,
		Embed: &models.Embed{
			URL:       src,
			Width:     *e.Width,
			Height:    *e.Height,
			Scrolling: scrolling,
		},
	}
}

func (s *imageSet) picture() models.MediaItem {
	alternates := make([]srcsetEntry, 0, len(s.Resolutions))
	for _, r := range s.Resolutions {
		alternates = append(alternates, srcsetEntry{url: r.URL, width: r.Width})
	}

	primary := srcsetEntry{url: s.Source.URL, width: s.Source.Width}
	return pictureItem(decodeURL(primary.url), sourceSet(primary, alternates))
}

// embedSrc достаёт первый атрибут src из экранированного HTML-сниппета,
// в каком бы элементе он ни стоял (iframe, embed, video, source).
func embedSrc(content string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html.UnescapeString(content)))
	if err != nil {
		return ""
	}

	src, _ := doc.Find("[src]").First().Attr("src")
	return strings.TrimSpace(src)
}

type srcsetEntry struct {
	url   string
	width int
}

// sourceSet собирает строку srcset: альтернативы по порядку, основной источник последним.
func sourceSet(primary srcsetEntry, alternates []srcsetEntry) string {
	parts := make([]string, 0, len(alternates)+1)
	for _, a := range alternates {
		if a.url == "" {
			continue
		}
		parts = append(parts, decodeURL(a.url)+" "+strconv.Itoa(a.width)+"w")
	}
	parts = append(parts, decodeURL(primary.url)+" "+strconv.Itoa(primary.width)+"w")

	return strings.Join(parts, ", ")
}

// decodeURL заменяет «&amp;» на «&». Повторный вызов ничего не меняет
// для URL, в которых нет вложенного экранирования.
func decodeURL(s string) string {
	return strings.ReplaceAll(s, "&amp;", "&")
}

// validMediaURL проверяет, что подставленный URL абсолютный и с хостом.
func validMediaURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}

	return (u.Scheme == "https" || u.Scheme == "http") && u.Host != "" && strings.Trim(u.Path, "/") != ""
}

func videoItem(src string) models.MediaItem {
	return models.MediaItem{
		Kind:  models.KindVideo,
		Video: &models.Video{MIME: mimeMP4, URL: src},
	}
}

func pictureItem(src, srcset string) models.MediaItem {
	return models.MediaItem{
		Kind:    models.KindPicture,
		Picture: &models.Picture{URL: src, SourceSet: srcset},
	}
}
