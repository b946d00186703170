package sources

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/vantri-labs/ragchat/internal/util"
)

const (
	// Stored content preview cap (runes).
	previewStoreLimit = 500
	// Render-time preview cap (runes), before the ellipsis.
	previewRenderLimit = 150
)

// Field fallback chains. Each name is tried flat first, then inside the
// "metadata" envelope, then inside "payload"; first non-empty string wins.
var (
	filenameKeys = []string{"filename", "name", "title", "file_name"}
	originKeys   = []string{"source", "origin", "source_type"}
	urlKeys      = []string{"url", "link", "file_url", "document_url", "source_url", "web_url", "download_url", "view_url"}
)

// Normalize converts one raw backend result into a uniform Record. It is
// shape-invariant: flat and enveloped results carrying the same values
// produce identical records. Origin is left empty here; the catalog layer
// substitutes "Unknown" when it merges.
func Normalize(raw RawResult, logger *zap.Logger) Record {
	meta := raw.envelope("metadata")
	payload := raw.envelope("payload")

	rec := Record{
		Filename: firstString(raw, meta, payload, filenameKeys),
		Origin:   firstString(raw, meta, payload, originKeys),
		Content:  util.TruncateString(extractContent(raw, meta, payload), previewStoreLimit, false),
	}

	// Merged metadata keeps everything the backend sent so URL resolution can
	// fall back to it later.
	merged := make(map[string]interface{}, len(meta)+len(payload))
	for k, v := range meta {
		merged[k] = v
	}
	for k, v := range payload {
		merged[k] = v
	}
	rec.Metadata = merged

	candidate := firstString(raw, meta, payload, urlKeys)
	if candidate == "" && logger != nil {
		logger.Debug("no url field on search result",
			zap.Any("result_id", raw["id"]),
			zap.Strings("metadata_keys", mapKeys(meta)),
			zap.Strings("payload_keys", mapKeys(payload)),
		)
	}
	if resolved := ResolveURL(candidate, merged); resolved != "" {
		rec.URL = resolved
		rec.Link = resolved
	}

	return rec
}

// NormalizeAll maps a result list, preserving order.
func NormalizeAll(results []RawResult, logger *zap.Logger) []Record {
	records := make([]Record, 0, len(results))
	for _, r := range results {
		records = append(records, Normalize(r, logger))
	}
	return records
}

// ContextText joins the full content of each result into the prompt context
// the completion gateway receives.
func ContextText(results []RawResult) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		meta := r.envelope("metadata")
		payload := r.envelope("payload")
		parts = append(parts, extractContent(r, meta, payload))
	}
	return strings.Join(parts, "\n---\n")
}

// Preview renders a record's stored content for display. Raw internal
// metadata blobs (serialized whole results) are suppressed entirely; anything
// else is truncated with an ellipsis.
func Preview(content string) (string, bool) {
	if content == "" {
		return "", false
	}
	if strings.HasPrefix(content, "{") && strings.Contains(content, `"id"`) && strings.Contains(content, `"payload"`) {
		return "", false
	}
	return util.TruncateString(content, previewRenderLimit+3, false), true
}

// DisplayList de-duplicates records by filename+origin for the collapsible
// sources summary. Citation indexes keep pointing into the original slice;
// this is display-only.
func DisplayList(records []Record) []Record {
	seen := make(map[string]struct{}, len(records))
	out := make([]Record, 0, len(records))
	for _, r := range records {
		key := r.Filename + "::" + r.Origin
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}

func extractContent(raw RawResult, meta, payload map[string]interface{}) string {
	for _, v := range []interface{}{raw["content"], raw["text"]} {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	for _, env := range []map[string]interface{}{meta, payload} {
		for _, key := range []string{"content", "text"} {
			if s, ok := env[key].(string); ok && s != "" {
				return s
			}
		}
	}
	// Last resort: the whole result, so the model still sees something.
	if b, err := json.Marshal(raw); err == nil {
		return string(b)
	}
	return fmt.Sprintf("%v", map[string]interface{}(raw))
}

func firstString(raw RawResult, meta, payload map[string]interface{}, keys []string) string {
	for _, key := range keys {
		if s, ok := raw[key].(string); ok && s != "" {
			return s
		}
		if s, ok := meta[key].(string); ok && s != "" {
			return s
		}
		if s, ok := payload[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func mapKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
