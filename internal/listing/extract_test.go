package listing

import (
	"encoding/json"
	"testing"

	"github.com/pribylovaa/reddit-gallery/internal/models"
	"github.com/stretchr/testify/require"
)

// mustPayload — разбирает JSON полезной нагрузки записи.
func mustPayload(t *testing.T, raw string) *Payload {
	t.Helper()

	var p Payload
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	return &p
}

// Test_sourceSet — альтернативы по порядку, основной источник последним.
func Test_sourceSet(t *testing.T) {
	t.Parallel()

	got := sourceSet(
		srcsetEntry{url: "url300", width: 300},
		[]srcsetEntry{{url: "url100", width: 100}, {url: "url200", width: 200}},
	)
	require.Equal(t, "url100 100w, url200 200w, url300 300w", got)

	require.Equal(t, "only 640w", sourceSet(srcsetEntry{url: "only", width: 640}, nil))
}

// Test_decodeURL — «&amp;» декодируется, повторное применение ничего не меняет.
func Test_decodeURL(t *testing.T) {
	t.Parallel()

	once := decodeURL("https://x/y?a=1&amp;b=2")
	require.Equal(t, "https://x/y?a=1&b=2", once)
	require.Equal(t, once, decodeURL(once))
}

func Test_extractThirdPartyLink(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		url  string
		want string
		ok   bool
	}{
		{"imgur_gifv", "https://i.imgur.com/AbC123.gifv", "https://i.imgur.com/AbC123.mp4", true},
		{"imgur_no_subdomain", "http://imgur.com/xYz.gifv", "https://i.imgur.com/xYz.mp4", true},
		{"imgur_jpg", "https://i.imgur.com/AbC123.jpg", "", false},
		{"other_host", "https://example.org/a.gifv", "", false},
		{"empty", "", "", false},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			items, ok := extractThirdPartyLink(&Payload{URL: c.url})
			require.Equal(t, c.ok, ok)
			if !c.ok {
				require.Empty(t, items)
				return
			}

			require.Len(t, items, 1)
			require.Equal(t, models.KindVideo, items[0].Kind)
			require.Equal(t, c.want, items[0].Video.URL)
			require.Equal(t, "video/mp4", items[0].Video.MIME)
		})
	}
}

func Test_extractThirdPartyOEmbed(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		raw  string
		want string
		ok   bool
	}{
		{
			name: "gfycat",
			raw:  `{"secure_media":{"type":"gfycat.com","oembed":{"thumbnail_url":"https://thumbs.gfycat.com/SomeFunnyCat-size_restricted.gif"}}}`,
			want: "https://thumbs.gfycat.com/SomeFunnyCat-mobile.mp4",
			ok:   true,
		},
		{
			name: "redgifs_in_media",
			raw:  `{"media":{"type":"redgifs.com","oembed":{"thumbnail_url":"https://thumbs2.redgifs.com/WildTinyFox-mobile.jpg"}}}`,
			want: "https://thumbs2.redgifs.com/WildTinyFox.mp4",
			ok:   true,
		},
		{
			name: "provider_mismatch",
			raw:  `{"secure_media":{"type":"youtube.com","oembed":{"thumbnail_url":"https://thumbs.gfycat.com/SomeFunnyCat-size_restricted.gif"}}}`,
			ok:   false,
		},
		{
			name: "thumbnail_mismatch",
			raw:  `{"secure_media":{"type":"gfycat.com","oembed":{"thumbnail_url":"https://thumbs.gfycat.com/SomeFunnyCat-poster.jpg"}}}`,
			ok:   false,
		},
		{
			name: "no_oembed",
			raw:  `{"secure_media":{"type":"gfycat.com"}}`,
			ok:   false,
		},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			items, ok := extractThirdPartyOEmbed(mustPayload(t, c.raw))
			require.Equal(t, c.ok, ok)
			if !c.ok {
				return
			}

			require.Len(t, items, 1)
			require.Equal(t, c.want, items[0].Video.URL)
		})
	}
}

func Test_extractEmbedContent(t *testing.T) {
	t.Parallel()

	raw := `{"secure_media_embed":{
		"content":"&lt;iframe class=\"embedly-embed\" src=\"https://cdn.embedly.com/widgets/media.html?src=https%3A%2F%2Fwww.youtube.com&amp;amp;type=text%2Fhtml\" width=\"600\" height=\"338\" scrolling=\"no\"&gt;&lt;/iframe&gt;",
		"media_domain_url":"https://www.redditmedia.com/mediaembed/abc",
		"width":600,"height":338,"scrolling":false}}`

	items, ok := extractEmbedContent(mustPayload(t, raw))
	require.True(t, ok)
	require.Len(t, items, 1)
	require.Equal(t, models.KindEmbed, items[0].Kind)
	require.Equal(t, &models.Embed{
		URL:       "https://cdn.embedly.com/widgets/media.html?src=https%3A%2F%2Fwww.youtube.com&type=text%2Fhtml",
		Width:     600,
		Height:    338,
		Scrolling: "no",
	}, items[0].Embed)

	// Без scrolling стратегия неприменима.
	_, ok = extractEmbedContent(mustPayload(t, `{"secure_media_embed":{"content":"&lt;iframe src=\"https://a/b\"&gt;&lt;/iframe&gt;","width":1,"height":1}}`))
	require.False(t, ok)

	// Нет ни одного src.
	_, ok = extractEmbedContent(mustPayload(t, `{"secure_media_embed":{"content":"&lt;div&gt;&lt;/div&gt;","width":1,"height":1,"scrolling":true}}`))
	require.False(t, ok)
}

func Test_embedSrc(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "iframe", content: `&lt;iframe src="https://a/frame"&gt;&lt;/iframe&gt;`, want: "https://a/frame"},
		{name: "embed", content: `&lt;embed src="https://a/clip.swf" type="application/x-shockwave-flash"&gt;`, want: "https://a/clip.swf"},
		{name: "video", content: `&lt;video controls src=" https://a/v.mp4 "&gt;&lt;/video&gt;`, want: "https://a/v.mp4"},
		{name: "first in document order", content: `&lt;div&gt;&lt;video src="https://a/first.mp4"&gt;&lt;/video&gt;&lt;iframe src="https://a/second"&gt;&lt;/iframe&gt;&lt;/div&gt;`, want: "https://a/first.mp4"},
		{name: "no src", content: `&lt;iframe&gt;&lt;/iframe&gt;`, want: ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, embedSrc(tt.content))
		})
	}
}

func Test_extractEmbedDomain(t *testing.T) {
	t.Parallel()

	raw := `{"secure_media_embed":{"media_domain_url":"https://www.redditmedia.com/mediaembed/abc?a=1&amp;b=2","width":640,"height":480,"scrolling":true}}`

	items, ok := extractEmbedDomain(mustPayload(t, raw))
	require.True(t, ok)
	require.Equal(t, &models.Embed{
		URL:       "https://www.redditmedia.com/mediaembed/abc?a=1&b=2",
		Width:     640,
		Height:    480,
		Scrolling: "yes",
	}, items[0].Embed)

	// reddit присылает пустой объект для постов без плеера.
	_, ok = extractEmbedDomain(mustPayload(t, `{"secure_media_embed":{}}`))
	require.False(t, ok)
}

func Test_extractGallery(t *testing.T) {
	t.Parallel()

	const metadata = `"media_metadata":{
		"bbb":{"status":"valid","s":{"x":300,"y":200,"u":"https://preview.redd.it/bbb.jpg?w=300&amp;s=1"},"p":[{"x":100,"y":60,"u":"https://preview.redd.it/bbb.jpg?w=100&amp;s=2"}]},
		"aaa":{"status":"valid","s":{"x":800,"y":600,"u":"https://preview.redd.it/aaa.jpg"},"p":[]},
		"zzz":{"status":"failed"}
	}`

	t.Run("document_order", func(t *testing.T) {
		t.Parallel()

		items, ok := extractGallery(mustPayload(t, `{`+metadata+`}`))
		require.True(t, ok)
		require.Len(t, items, 2)

		require.Equal(t, "https://preview.redd.it/bbb.jpg?w=300&s=1", items[0].Picture.URL)
		require.Equal(t,
			"https://preview.redd.it/bbb.jpg?w=100&s=2 100w, https://preview.redd.it/bbb.jpg?w=300&s=1 300w",
			items[0].Picture.SourceSet,
		)
		require.Equal(t, "https://preview.redd.it/aaa.jpg", items[1].Picture.URL)
		require.Equal(t, "https://preview.redd.it/aaa.jpg 800w", items[1].Picture.SourceSet)
	})

	t.Run("gallery_data_order", func(t *testing.T) {
		t.Parallel()

		items, ok := extractGallery(mustPayload(t, `{`+metadata+`,"gallery_data":{"items":[{"media_id":"aaa"},{"media_id":"bbb"}]}}`))
		require.True(t, ok)
		require.Len(t, items, 2)
		require.Equal(t, "https://preview.redd.it/aaa.jpg", items[0].Picture.URL)
		require.Equal(t, "https://preview.redd.it/bbb.jpg?w=300&s=1", items[1].Picture.URL)
	})

	t.Run("empty_or_null", func(t *testing.T) {
		t.Parallel()

		_, ok := extractGallery(mustPayload(t, `{"media_metadata":null}`))
		require.False(t, ok)

		_, ok = extractGallery(mustPayload(t, `{"media_metadata":{"x":{"status":"failed"}}}`))
		require.False(t, ok)
	})
}

func Test_extractPreview(t *testing.T) {
	t.Parallel()

	raw := `{"preview":{"images":[
		{"source":{"url":"https://i.redd.it/a.jpg","width":1000,"height":500},"resolutions":[],
		 "variants":{"mp4":{"source":{"url":"https://i.redd.it/a.mp4?x=1&amp;y=2","width":1000,"height":500},"resolutions":[]}}},
		{"source":{"url":"https://i.redd.it/b.jpg","width":900,"height":500},"resolutions":[],
		 "variants":{"gif":{"source":{"url":"https://i.redd.it/b.gif","width":900,"height":500},"resolutions":[{"url":"https://i.redd.it/b-320.gif","width":320,"height":160}]}}},
		{"source":{"url":"https://x/y?a=1&amp;b=2","width":300,"height":100},
		 "resolutions":[{"url":"https://x/y?w=100&amp;b=2","width":100,"height":30},{"url":"https://x/y?w=200","width":200,"height":60}],
		 "variants":{}}
	]}}`

	items, ok := extractPreview(mustPayload(t, raw))
	require.True(t, ok)
	require.Len(t, items, 3)

	require.Equal(t, models.KindVideo, items[0].Kind)
	require.Equal(t, &models.Video{MIME: "video/mp4", URL: "https://i.redd.it/a.mp4?x=1&y=2"}, items[0].Video)

	require.Equal(t, models.KindPicture, items[1].Kind)
	require.Equal(t, &models.Picture{
		URL:       "https://i.redd.it/b.gif",
		SourceSet: "https://i.redd.it/b-320.gif 320w, https://i.redd.it/b.gif 900w",
	}, items[1].Picture)

	require.Equal(t, &models.Picture{
		URL:       "https://x/y?a=1&b=2",
		SourceSet: "https://x/y?w=100&b=2 100w, https://x/y?w=200 200w, https://x/y?a=1&b=2 300w",
	}, items[2].Picture)

	_, ok = extractPreview(mustPayload(t, `{"preview":{"images":[]}}`))
	require.False(t, ok)
}

// Test_gallery_UnmarshalJSON_Invalid — media_metadata не объект.
func Test_gallery_UnmarshalJSON_Invalid(t *testing.T) {
	t.Parallel()

	var p Payload
	require.Error(t, json.Unmarshal([]byte(`{"media_metadata":[1,2]}`), &p))
}
