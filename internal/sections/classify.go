package sections

import "strings"

// DefaultTableRunThreshold is the longest run of table-like lines that is
// still treated as prose
const DefaultTableRunThreshold = 2

// Classify labels every line of text and returns the runs as spans, in
// document order. Page furniture is labelled first, then table blocks, then
// the remaining lines by the section heading that precedes them. Every
// heading starts a new span, even when it repeats the previous kind.
func Classify(text string) []Span {
	return classify(text, true, true, DefaultTableRunThreshold)
}

func classify(text string, furniture, tables bool, tableRunThreshold int) []Span {
	if text == "" {
		return nil
	}
	lines := splitLines(text)
	labels, headings := label(lines, furniture, tables, tableRunThreshold)

	var spans []Span
	start := 0
	for i := 1; i <= len(lines); i++ {
		if i < len(lines) && labels[i] == labels[start] && !headings[i] {
			continue
		}
		spans = append(spans, Span{
			Kind:      labels[start],
			StartLine: start,
			EndLine:   i - 1,
			Content:   strings.Join(lines[start:i], "\n"),
			Header:    lines[start],
		})
		start = i
	}
	return spans
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}

// label runs the three passes over lines and returns one Kind per line,
// plus which lines matched a section heading. Lines consumed by an earlier
// pass are invisible to the later ones.
func label(lines []string, furniture, tables bool, tableRunThreshold int) ([]Kind, []bool) {
	labels := make([]Kind, len(lines))
	headings := make([]bool, len(lines))

	stream := make([]int, 0, len(lines))
	for i, line := range lines {
		if furniture && isHeaderFooter(line) {
			labels[i] = HeaderFooter
			continue
		}
		stream = append(stream, i)
	}

	if tables {
		stream = markTables(lines, stream, labels, tableRunThreshold)
	}

	current := Valuable
	for _, i := range stream {
		if kind, ok := matchHeading(lines[i]); ok {
			current = kind
			headings[i] = true
		}
		labels[i] = current
	}
	return labels, headings
}

// markTables labels runs of table-like lines longer than threshold as Table
// and returns the stream without them. Shorter runs stay in the stream.
func markTables(lines []string, stream []int, labels []Kind, threshold int) []int {
	kept := make([]int, 0, len(stream))
	var run []int

	closeRun := func() {
		if len(run) > threshold {
			for _, i := range run {
				labels[i] = Table
			}
		} else {
			kept = append(kept, run...)
		}
		run = run[:0]
	}

	for _, i := range stream {
		if isTableLike(lines[i]) {
			run = append(run, i)
			continue
		}
		closeRun()
		kept = append(kept, i)
	}
	closeRun()

	return kept
}
