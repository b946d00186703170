package sources

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestNormalize_ShapeInvariance(t *testing.T) {
	// The same values in flat, metadata and payload shapes yield the same
	// record fields.
	flat := RawResult{
		"filename": "luat-dat-dai.pdf",
		"source":   "Legal Corpus",
		"content":  "Điều 1. Phạm vi điều chỉnh",
		"url":      "https://example.com/ldd.pdf",
	}
	enveloped := RawResult{
		"metadata": map[string]interface{}{
			"filename": "luat-dat-dai.pdf",
			"source":   "Legal Corpus",
			"content":  "Điều 1. Phạm vi điều chỉnh",
			"url":      "https://example.com/ldd.pdf",
		},
	}
	payload := RawResult{
		"payload": map[string]interface{}{
			"filename": "luat-dat-dai.pdf",
			"source":   "Legal Corpus",
			"content":  "Điều 1. Phạm vi điều chỉnh",
			"url":      "https://example.com/ldd.pdf",
		},
	}

	a := Normalize(flat, zap.NewNop())
	b := Normalize(enveloped, zap.NewNop())
	c := Normalize(payload, zap.NewNop())

	for _, rec := range []Record{a, b, c} {
		assert.Equal(t, "luat-dat-dai.pdf", rec.Filename)
		assert.Equal(t, "Legal Corpus", rec.Origin)
		assert.Equal(t, "Điều 1. Phạm vi điều chỉnh", rec.Content)
		assert.Equal(t, "https://example.com/ldd.pdf", rec.URL)
	}
}

func TestNormalize_FallbackChains(t *testing.T) {
	tests := []struct {
		name         string
		raw          RawResult
		wantFilename string
		wantOrigin   string
	}{
		{
			name:         "title as filename",
			raw:          RawResult{"title": "Nghị định 15/2020"},
			wantFilename: "Nghị định 15/2020",
		},
		{
			name:         "file_name as filename",
			raw:          RawResult{"file_name": "nd15.pdf"},
			wantFilename: "nd15.pdf",
		},
		{
			name:       "origin from source_type",
			raw:        RawResult{"source_type": "crawl"},
			wantOrigin: "crawl",
		},
		{
			name: "flat wins over metadata",
			raw: RawResult{
				"filename": "flat.pdf",
				"metadata": map[string]interface{}{"filename": "meta.pdf"},
			},
			wantFilename: "flat.pdf",
		},
		{
			name:         "empty strings skipped",
			raw:          RawResult{"filename": "", "name": "backup.pdf"},
			wantFilename: "backup.pdf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Normalize(tt.raw, zap.NewNop())
			assert.Equal(t, tt.wantFilename, rec.Filename)
			assert.Equal(t, tt.wantOrigin, rec.Origin)
		})
	}
}

func TestNormalize_RoundTripIdempotent(t *testing.T) {
	rec := Normalize(RawResult{
		"filename": "a.pdf",
		"source":   "Legal Corpus",
		"content":  "Điều 1",
		"url":      "https://example.com/a.pdf",
	}, zap.NewNop())

	again := Normalize(RawResult{
		"filename": rec.Filename,
		"source":   rec.Origin,
		"content":  rec.Content,
		"url":      rec.URL,
	}, zap.NewNop())

	assert.Equal(t, rec.Filename, again.Filename)
	assert.Equal(t, rec.Origin, again.Origin)
	assert.Equal(t, rec.Content, again.Content)
	assert.Equal(t, rec.URL, again.URL)
}

func TestNormalize_URLFromDeepFallback(t *testing.T) {
	rec := Normalize(RawResult{
		"filename": "a.pdf",
		"metadata": map[string]interface{}{"web_url": "https://example.com/a.pdf"},
	}, zap.NewNop())

	assert.Equal(t, "https://example.com/a.pdf", rec.URL)
	assert.Equal(t, rec.URL, rec.Link)
}

func TestNormalize_ContentTruncatedForStorage(t *testing.T) {
	long := strings.Repeat("a", 2000)
	rec := Normalize(RawResult{"content": long}, zap.NewNop())

	assert.LessOrEqual(t, len([]rune(rec.Content)), 500)
}

func TestNormalize_NilLoggerSafe(t *testing.T) {
	assert.NotPanics(t, func() {
		Normalize(RawResult{"content": "x"}, nil)
	})
}

func TestContextText_UsesFullContent(t *testing.T) {
	long := strings.Repeat("b", 2000)
	text := ContextText([]RawResult{
		{"content": long},
		{"content": "ngắn"},
	})

	// The prompt context keeps full content even though the stored record
	// preview is truncated.
	assert.Contains(t, text, long)
	assert.Contains(t, text, "\n---\n")
	assert.Contains(t, text, "ngắn")
}

func TestPreview(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantOK  bool
	}{
		{"plain text shown", "Điều 600. Bồi thường thiệt hại do người của pháp nhân gây ra", true},
		{"empty suppressed", "", false},
		{"serialized result blob suppressed", `{"id":"abc","payload":{"content":"x"}}`, false},
		{"json without payload shown", `{"id":"abc"}`, true},
		{"braces mid-text shown", `theo khoản {1} điều "id"`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Preview(tt.content)
			assert.Equal(t, tt.wantOK, ok)
			if ok {
				assert.NotEmpty(t, got)
				assert.LessOrEqual(t, len([]rune(got)), 153)
			}
		})
	}
}

func TestPreview_Truncates(t *testing.T) {
	got, ok := Preview(strings.Repeat("x", 400))
	assert.True(t, ok)
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestDisplayList(t *testing.T) {
	records := []Record{
		{Filename: "a.pdf", Origin: "Legal Corpus"},
		{Filename: "a.pdf", Origin: "Legal Corpus"},
		{Filename: "a.pdf", Origin: "User Upload"},
		{Filename: "b.pdf", Origin: "Legal Corpus"},
	}

	out := DisplayList(records)

	assert.Len(t, out, 3)
	assert.Equal(t, "a.pdf", out[0].Filename)
}

func TestExtractContent_LastResortSerializesResult(t *testing.T) {
	rec := Normalize(RawResult{"id": "abc", "score": 0.9}, zap.NewNop())
	assert.Contains(t, rec.Content, "abc")
}
