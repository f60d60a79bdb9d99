package search

import (
	"html"
	"sort"
	"strings"
)

// Segment is a run of text that either matches a query token or not.
type Segment struct {
	Text  string `json:"text"`
	Match bool   `json:"match,omitempty"`
}

type span struct{ start, end int }

// Highlight splits text into segments, marking every occurrence of a token
// of q (tokenized like Tokenize). Overlapping or touching occurrences merge
// into one marked segment. Tokens are matched literally; no pattern syntax is
// interpreted. Text without a match comes back as a single unmarked segment.
func Highlight(text, q string) []Segment {
	if text == "" {
		return []Segment{}
	}
	tokens := Tokenize(q)
	if len(tokens) == 0 {
		return []Segment{{Text: text}}
	}

	hay := fold(text)
	var spans []span
	for _, tok := range tokens {
		needle := []rune(tok)
		for i := indexRunes(hay, needle, 0); i >= 0; i = indexRunes(hay, needle, i+1) {
			spans = append(spans, span{i, i + len(needle)})
		}
	}
	if len(spans) == 0 {
		return []Segment{{Text: text}}
	}

	sort.Slice(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		return spans[i].end > spans[j].end
	})
	merged := spans[:1]
	for _, s := range spans[1:] {
		last := &merged[len(merged)-1]
		if s.start <= last.end {
			if s.end > last.end {
				last.end = s.end
			}
			continue
		}
		merged = append(merged, s)
	}

	runes := []rune(text)
	segs := make([]Segment, 0, 2*len(merged)+1)
	pos := 0
	for _, s := range merged {
		if s.start > pos {
			segs = append(segs, Segment{Text: string(runes[pos:s.start])})
		}
		segs = append(segs, Segment{Text: string(runes[s.start:s.end]), Match: true})
		pos = s.end
	}
	if pos < len(runes) {
		segs = append(segs, Segment{Text: string(runes[pos:])})
	}
	return segs
}

// MarkHTML renders Highlight's output as escaped HTML with matches wrapped in <mark>.
func MarkHTML(text, q string) string {
	var b strings.Builder
	for _, s := range Highlight(text, q) {
		if s.Match {
			b.WriteString("<mark>")
			b.WriteString(html.EscapeString(s.Text))
			b.WriteString("</mark>")
			continue
		}
		b.WriteString(html.EscapeString(s.Text))
	}
	return b.String()
}
