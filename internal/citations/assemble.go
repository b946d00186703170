// Package citations binds inline citation markers in generated answer text
// to the sources of the owning message.
//
// A marker is a label followed by a bracketed 1-based ordinal, e.g.
// "Luật Dân sự [2]". Matching is a best-effort heuristic over free prose:
// unrelated bracketed numerals can match and unusual labels can be missed.
// The pattern uses a bounded non-greedy label capture, so it cannot
// catastrophically backtrack.
package citations

import (
	"regexp"
	"strconv"

	"github.com/vantri-labs/ragchat/internal/metrics"
	"github.com/vantri-labs/ragchat/internal/sources"
)

// Label: letters (Vietnamese diacritics included) and spaces, lazily matched
// up to the bracketed ordinal.
var markerPattern = regexp.MustCompile(`([A-Za-zÀ-ỹ\s]+?)\s*\[(\d+)\]`)

// Kind discriminates renderable segments.
type Kind string

const (
	KindText     Kind = "text"
	KindCitation Kind = "citation"
)

// Segment is one renderable span of an answer line. Segments cover the line
// completely, in order, with no overlaps. A citation segment with a URL is
// clickable; one without keeps its literal matched text visible.
type Segment struct {
	Kind Kind   `json:"kind"`
	Text string `json:"text"`

	// Citation fields.
	Index    int    `json:"index,omitempty"`    // 1-based ordinal into the message sources
	URL      string `json:"url,omitempty"`      // empty for non-clickable citations
	Filename string `json:"filename,omitempty"` // tooltip / accessibility label
}

// AssembleLine scans one line of answer text and resolves each marker against
// srcs. Out-of-range ordinals and sources without a usable URL degrade to a
// non-clickable citation segment carrying the full matched text.
func AssembleLine(line string, srcs []sources.Record) []Segment {
	matches := markerPattern.FindAllStringSubmatchIndex(line, -1)
	if len(matches) == 0 {
		return []Segment{{Kind: KindText, Text: line}}
	}

	segments := make([]Segment, 0, 2*len(matches)+1)
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		if start > last {
			segments = append(segments, Segment{Kind: KindText, Text: line[last:start]})
		}

		label := line[m[2]:m[3]]
		ordinal, _ := strconv.Atoi(line[m[4]:m[5]])

		seg := Segment{Kind: KindCitation, Text: line[start:end], Index: ordinal}
		if ordinal >= 1 && ordinal <= len(srcs) {
			src := srcs[ordinal-1]
			if u := src.ResolvedURL(); u != "" {
				seg.Text = label
				seg.URL = u
				seg.Filename = src.Filename
			}
		}
		clickable := "false"
		if seg.URL != "" {
			clickable = "true"
		}
		metrics.CitationsResolved.WithLabelValues(clickable).Inc()

		segments = append(segments, seg)
		last = end
	}

	if last < len(line) {
		segments = append(segments, Segment{Kind: KindText, Text: line[last:]})
	}
	return segments
}

// Assemble splits the answer into lines and assembles each independently,
// mirroring how the chat client renders paragraph by paragraph.
func Assemble(answer string, srcs []sources.Record) [][]Segment {
	var lines [][]Segment
	start := 0
	for i := 0; i <= len(answer); i++ {
		if i == len(answer) || answer[i] == '\n' {
			lines = append(lines, AssembleLine(answer[start:i], srcs))
			start = i + 1
		}
	}
	return lines
}
