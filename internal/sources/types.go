package sources

// RawResult is one search hit as returned by the retrieval backend. The
// backend does not guarantee a stable schema: some deployments put metadata
// fields at the top level ("flat"), others nest them under "payload" or
// "metadata" ("enveloped"). Extraction therefore runs against an untyped bag.
type RawResult map[string]interface{}

// Record is the uniform source shape the rest of the service works with.
// Field names mirror the wire format consumed by the chat client; Link is a
// legacy alias of URL kept for older clients.
type Record struct {
	Filename string                 `json:"filename,omitempty"`
	Origin   string                 `json:"source,omitempty"`
	Content  string                 `json:"content,omitempty"`
	URL      string                 `json:"url,omitempty"`
	Link     string                 `json:"link,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// ResolvedURL returns the record's validated URL, re-running resolution over
// the stored metadata when the direct fields are empty.
func (r Record) ResolvedURL() string {
	candidate := r.URL
	if candidate == "" {
		candidate = r.Link
	}
	return ResolveURL(candidate, r.Metadata)
}

// envelope returns the named nested map if the result carries one.
func (r RawResult) envelope(name string) map[string]interface{} {
	if m, ok := r[name].(map[string]interface{}); ok {
		return m
	}
	return nil
}
