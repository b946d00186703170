package util

import (
	"testing"
)

func TestContainsString(t *testing.T) {
	tests := []struct {
		name     string
		slice    []string
		item     string
		expected bool
	}{
		{
			name:     "item exists in slice",
			slice:    []string{"application/pdf", "text/plain", "text/markdown"},
			item:     "text/plain",
			expected: true,
		},
		{
			name:     "item does not exist in slice",
			slice:    []string{"application/pdf", "text/plain"},
			item:     "image/png",
			expected: false,
		},
		{
			name:     "empty slice",
			slice:    []string{},
			item:     "application/pdf",
			expected: false,
		},
		{
			name:     "empty item in slice",
			slice:    []string{"", "application/pdf"},
			item:     "",
			expected: true,
		},
		{
			name:     "case sensitive match",
			slice:    []string{"Application/PDF"},
			item:     "application/pdf",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContainsString(tt.slice, tt.item); got != tt.expected {
				t.Errorf("ContainsString(%v, %q) = %v, want %v", tt.slice, tt.item, got, tt.expected)
			}
		})
	}
}

func TestFirstNonEmpty(t *testing.T) {
	tests := []struct {
		name     string
		values   []string
		expected string
	}{
		{name: "first wins", values: []string{"a", "b"}, expected: "a"},
		{name: "skips empty", values: []string{"", "b"}, expected: "b"},
		{name: "skips whitespace", values: []string{"   ", "b"}, expected: "b"},
		{name: "all empty", values: []string{"", "  "}, expected: ""},
		{name: "no values", values: nil, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FirstNonEmpty(tt.values...); got != tt.expected {
				t.Errorf("FirstNonEmpty(%v) = %q, want %q", tt.values, got, tt.expected)
			}
		})
	}
}
