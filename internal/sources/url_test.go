package sources

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveURL(t *testing.T) {
	tests := []struct {
		name      string
		candidate string
		metadata  map[string]interface{}
		want      string
	}{
		{
			name:      "valid https passes through",
			candidate: "https://example.com/doc.pdf",
			want:      "https://example.com/doc.pdf",
		},
		{
			name:      "valid http passes through",
			candidate: "http://example.com/doc.pdf",
			want:      "http://example.com/doc.pdf",
		},
		{
			name:      "drive content api rewritten to viewer",
			candidate: "https://www.googleapis.com/drive/v3/files/1AbC_d-9xYz?alt=media",
			want:      "https://drive.google.com/file/d/1AbC_d-9xYz/view",
		},
		{
			name:      "drive content api without www rewritten",
			candidate: "https://googleapis.com/drive/v3/files/ABC123?alt=media",
			want:      "https://drive.google.com/file/d/ABC123/view",
		},
		{
			name:      "drive uc download rewritten to viewer",
			candidate: "https://drive.google.com/uc?id=1AbC_d-9xYz&export=download",
			want:      "https://drive.google.com/file/d/1AbC_d-9xYz/view",
		},
		{
			name:      "protocol relative repaired",
			candidate: "//cdn.example.com/doc.pdf",
			want:      "https://cdn.example.com/doc.pdf",
		},
		{
			name:      "bare hostname gets https",
			candidate: "example.com/van-ban/luat.pdf",
			want:      "https://example.com/van-ban/luat.pdf",
		},
		{
			name:      "bare path dropped",
			candidate: "/files/doc.pdf",
			want:      "",
		},
		{
			name:      "plain words dropped",
			candidate: "not a url",
			want:      "",
		},
		{
			name:      "non-http scheme dropped",
			candidate: "ftp://example.com/file.pdf",
			want:      "",
		},
		{
			name:      "storage scheme dropped",
			candidate: "s3://bucket/doc.pdf",
			want:      "",
		},
		{
			name:      "empty falls back to metadata",
			candidate: "",
			metadata:  map[string]interface{}{"file_url": "https://example.com/from-meta.pdf"},
			want:      "https://example.com/from-meta.pdf",
		},
		{
			name:      "metadata fallback order",
			candidate: "",
			metadata: map[string]interface{}{
				"document_url": "https://example.com/second.pdf",
				"url":          "https://example.com/first.pdf",
			},
			want: "https://example.com/first.pdf",
		},
		{
			name:      "whitespace only",
			candidate: "   ",
			want:      "",
		},
		{
			name:      "nothing at all",
			candidate: "",
			metadata:  map[string]interface{}{},
			want:      "",
		},
		{
			name:      "non-string metadata ignored",
			candidate: "",
			metadata:  map[string]interface{}{"url": 42},
			want:      "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveURL(tt.candidate, tt.metadata))
		})
	}
}

// Whatever comes in, the output is either empty or parseable with a scheme
// and host.
func TestResolveURL_NeverInvalid(t *testing.T) {
	inputs := []string{
		"https://example.com/a.pdf",
		"//host/path",
		"example.com",
		"junk with spaces",
		"://broken",
		"http://",
		"https://drive.google.com/uc?id=%%%",
		"ftp://example.com/file",
	}

	for _, in := range inputs {
		got := ResolveURL(in, nil)
		if got == "" {
			continue
		}
		u, err := url.Parse(got)
		assert.NoError(t, err, "input %q produced unparseable %q", in, got)
		assert.NotEmpty(t, u.Scheme, "input %q produced schemeless %q", in, got)
		assert.NotEmpty(t, u.Host, "input %q produced hostless %q", in, got)
	}
}
