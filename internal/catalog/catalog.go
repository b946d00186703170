// Package catalog maintains the filterable document catalog shown in the
// chat sidebar: the merge of the retrieval backend's index, the user's
// uploads, and (when connected) the storage provider's file listing.
package catalog

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/vantri-labs/ragchat/internal/sources"
)

// Origin labels. Uploads always carry OriginUpload; backend entries that
// resolve no origin fall back to OriginUnknown at merge time.
const (
	OriginUpload  = "User Upload"
	OriginDrive   = "Google Drive"
	OriginUnknown = "Unknown"
)

// Entry is one catalog row. Uniqueness key is Filename + "::" + Origin.
type Entry struct {
	Filename string                 `json:"filename"`
	Origin   string                 `json:"source"`
	ID       string                 `json:"id,omitempty"`
	URL      string                 `json:"url,omitempty"`
	Link     string                 `json:"link,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

func (e Entry) key() string {
	return e.Filename + "::" + e.Origin
}

// FromRawResults turns the backend's broad-search results into catalog
// entries. The backend has no listing endpoint, so a wildcard search stands
// in for one; many hits map to the same document and collapse on the
// uniqueness key. Entries with no recognizable filename get a synthetic
// label from a prefix of the result id.
func FromRawResults(results []sources.RawResult, logger *zap.Logger) []Entry {
	seen := make(map[string]struct{}, len(results))
	entries := make([]Entry, 0, len(results))

	for _, raw := range results {
		rec := sources.Normalize(raw, logger)

		filename := rec.Filename
		if filename == "" {
			filename = syntheticName(raw)
		}
		origin := rec.Origin
		if origin == "" {
			origin = OriginUnknown
		}

		entry := Entry{
			Filename: filename,
			Origin:   origin,
			ID:       resultID(raw, rec.Metadata),
			URL:      rec.URL,
			Link:     rec.Link,
			Metadata: rec.Metadata,
		}
		if _, dup := seen[entry.key()]; dup {
			continue
		}
		seen[entry.key()] = struct{}{}
		entries = append(entries, entry)
	}

	return entries
}

// Merge combines the user's upload registry with the backend listing,
// uploads first, de-duplicated by filename::origin with first-seen
// precedence. An uploaded document that the backend has also indexed is
// therefore shown once.
func Merge(uploads, backend []Entry) []Entry {
	seen := make(map[string]struct{}, len(uploads)+len(backend))
	merged := make([]Entry, 0, len(uploads)+len(backend))

	for _, group := range [][]Entry{uploads, backend} {
		for _, e := range group {
			if e.Origin == "" {
				e.Origin = OriginUnknown
			}
			if _, dup := seen[e.key()]; dup {
				continue
			}
			seen[e.key()] = struct{}{}
			merged = append(merged, e)
		}
	}

	return merged
}

func syntheticName(raw sources.RawResult) string {
	if id, ok := raw["id"].(string); ok && id != "" {
		if len(id) > 8 {
			id = id[:8]
		}
		return "Document " + id
	}
	return "Document Unknown"
}

func resultID(raw sources.RawResult, metadata map[string]interface{}) string {
	for _, v := range []interface{}{raw["id"], metadata["id"]} {
		switch id := v.(type) {
		case string:
			if id != "" {
				return id
			}
		case float64:
			return fmt.Sprintf("%.0f", id)
		}
	}
	return ""
}
