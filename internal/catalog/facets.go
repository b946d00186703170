package catalog

import (
	"sort"
	"strings"
)

// Facets are the distinct filter values the sidebar offers, derived from the
// current catalog snapshot.
type Facets struct {
	Filenames []string `json:"filenames"`
	Origins   []string `json:"sources"`
}

// Facet key prefixes. A selected filter is keyed "<kind>:<value>" so both
// kinds can live in one selection set.
const (
	facetFilename = "filename"
	facetOrigin   = "origin"
)

// BuildFacets collects the unique filenames and origins across entries,
// sorted for stable rendering. Empty values are skipped.
func BuildFacets(entries []Entry) Facets {
	filenames := make(map[string]struct{})
	origins := make(map[string]struct{})

	for _, e := range entries {
		if e.Filename != "" {
			filenames[e.Filename] = struct{}{}
		}
		if e.Origin != "" {
			origins[e.Origin] = struct{}{}
		}
	}

	return Facets{
		Filenames: sortedKeys(filenames),
		Origins:   sortedKeys(origins),
	}
}

// FilenameKey returns the selection key for a filename facet value.
func FilenameKey(value string) string {
	return facetFilename + ":" + value
}

// OriginKey returns the selection key for an origin facet value.
func OriginKey(value string) string {
	return facetOrigin + ":" + value
}

// SplitFacetKey splits a selection key into its kind and value on the first
// colon only, so values containing colons survive intact. Keys without a
// colon or with an empty value report ok=false.
func SplitFacetKey(key string) (kind, value string, ok bool) {
	kind, value, found := strings.Cut(key, ":")
	if !found || kind == "" || value == "" {
		return "", "", false
	}
	return kind, value, true
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
