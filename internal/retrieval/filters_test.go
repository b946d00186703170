package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComposeFilters(t *testing.T) {
	tests := []struct {
		name     string
		selected map[string]bool
		want     map[string][]string
	}{
		{
			name: "mixed groups",
			selected: map[string]bool{
				"filename:luat-dat-dai.pdf": true,
				"filename:nghi-dinh-15.pdf": true,
				"origin:User Upload":        true,
			},
			want: map[string][]string{
				"filename": {"luat-dat-dai.pdf", "nghi-dinh-15.pdf"},
				"origin":   {"User Upload"},
			},
		},
		{
			name: "unselected keys dropped",
			selected: map[string]bool{
				"filename:a.pdf": false,
				"origin:Unknown": true,
			},
			want: map[string][]string{
				"origin": {"Unknown"},
			},
		},
		{
			name: "value containing colons kept whole",
			selected: map[string]bool{
				"filename:https://example.com/doc.pdf": true,
			},
			want: map[string][]string{
				"filename": {"https://example.com/doc.pdf"},
			},
		},
		{
			name: "malformed keys dropped",
			selected: map[string]bool{
				"no-colon":  true,
				"filename:": true,
				":value":    true,
			},
			want: nil,
		},
		{
			name:     "nothing selected returns nil",
			selected: map[string]bool{"filename:a.pdf": false},
			want:     nil,
		},
		{
			name:     "empty input",
			selected: nil,
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComposeFilters(tt.selected))
		})
	}
}
