package document

import "strings"

const (
	defaultTarget  = 500
	defaultOverlap = 50

	// How far back from the target boundary the chunker will move to
	// land on a paragraph or sentence break, as a fraction of target.
	breakWindowDivisor = 5
)

// Span is one chunk boundary decision: rune offsets into the source
// text plus the covered text itself.
type Span struct {
	Seq   int
	Text  string
	Start int
	End   int
}

// Chunker splits extracted text into overlapping spans. Splitting is
// purely positional, so the same text always yields the same
// boundaries. Paragraph breaks are preferred over sentence breaks over
// plain spaces before falling back to a hard cut at the target size.
type Chunker struct {
	Target  int
	Overlap int
}

func NewChunker(target, overlap int) Chunker {
	if target <= 0 {
		target = defaultTarget
	}
	if overlap < 0 || overlap >= target {
		overlap = defaultOverlap
	}
	return Chunker{Target: target, Overlap: overlap}
}

// Split produces the spans covering text in order, Seq contiguous from
// zero. Consecutive spans share Overlap runes so no sentence is lost at
// a boundary.
func (c Chunker) Split(text string) []Span {
	runes := []rune(text)
	total := len(runes)
	if total == 0 {
		return nil
	}
	if total <= c.Target {
		return []Span{{Seq: 0, Text: text, Start: 0, End: total}}
	}

	var spans []Span
	start := 0
	for {
		end := start + c.Target
		if end >= total {
			spans = append(spans, Span{
				Seq:   len(spans),
				Text:  string(runes[start:total]),
				Start: start,
				End:   total,
			})
			return spans
		}

		cut := c.breakPoint(runes, start, end)
		spans = append(spans, Span{
			Seq:   len(spans),
			Text:  string(runes[start:cut]),
			Start: start,
			End:   cut,
		})

		next := cut - c.Overlap
		if next <= start {
			next = cut
		}
		start = next
	}
}

// breakPoint looks backwards from the hard cut for a natural boundary.
// Only the tail of the chunk is searched so a break early in the text
// cannot shrink chunks pathologically.
func (c Chunker) breakPoint(runes []rune, start, end int) int {
	window := c.Target / breakWindowDivisor
	floor := end - window
	if floor <= start {
		floor = start + 1
	}

	segment := string(runes[floor:end])

	if i := strings.LastIndex(segment, "\n\n"); i >= 0 {
		return floor + len([]rune(segment[:i])) + 2
	}
	if i := lastSentenceEnd(segment); i >= 0 {
		return floor + i + 1
	}
	if i := strings.LastIndexByte(segment, ' '); i >= 0 {
		return floor + len([]rune(segment[:i])) + 1
	}
	return end
}

// lastSentenceEnd returns the rune index of the last terminator that is
// followed by whitespace, or -1.
func lastSentenceEnd(s string) int {
	runes := []rune(s)
	for i := len(runes) - 2; i >= 0; i-- {
		switch runes[i] {
		case '.', '!', '?':
			if runes[i+1] == ' ' || runes[i+1] == '\n' {
				return i
			}
		}
	}
	return -1
}
