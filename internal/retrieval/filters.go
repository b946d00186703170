package retrieval

import (
	"sort"
	"strings"
)

// ComposeFilters turns the user's facet selections into the backend's filter
// groups. Selection keys are "<group>:<value>"; only the first colon splits,
// so values containing colons stay whole. Unselected and malformed keys are
// dropped. An empty selection returns nil so the search payload omits the
// filters field entirely.
func ComposeFilters(selected map[string]bool) map[string][]string {
	filters := make(map[string][]string)

	for key, on := range selected {
		if !on {
			continue
		}
		group, value, found := strings.Cut(key, ":")
		if !found || group == "" || value == "" {
			continue
		}
		filters[group] = append(filters[group], value)
	}

	if len(filters) == 0 {
		return nil
	}
	for group := range filters {
		sort.Strings(filters[group])
	}
	return filters
}
