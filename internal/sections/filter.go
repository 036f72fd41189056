package sections

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var ErrInvalidOptions = errors.New("invalid section filter options")

// Options selects which low-value sections Filter removes
type Options struct {
	RemoveReferences      bool `yaml:"remove_references"`
	RemoveAcknowledgments bool `yaml:"remove_acknowledgments"`
	RemoveAppendix        bool `yaml:"remove_appendix"`
	RemoveTables          bool `yaml:"remove_tables"`
	RemoveHeadersFooters  bool `yaml:"remove_headers_footers"`

	// TableRunThreshold is the longest run of table-like lines that is
	// reverted to prose instead of being removed as a table block.
	TableRunThreshold int `yaml:"table_run_threshold"`
}

// DefaultOptions removes every low-value section kind
func DefaultOptions() Options {
	return Options{
		RemoveReferences:      true,
		RemoveAcknowledgments: true,
		RemoveAppendix:        true,
		RemoveTables:          true,
		RemoveHeadersFooters:  true,
		TableRunThreshold:     DefaultTableRunThreshold,
	}
}

// Validate checks the options for values the filter cannot work with
func (o Options) Validate() error {
	if o.TableRunThreshold < 0 {
		return fmt.Errorf("%w: table run threshold must be >= 0, got %d", ErrInvalidOptions, o.TableRunThreshold)
	}
	return nil
}

func (o Options) removes(kind Kind) bool {
	switch kind {
	case References:
		return o.RemoveReferences
	case Acknowledgments:
		return o.RemoveAcknowledgments
	case Appendix:
		return o.RemoveAppendix
	case Table:
		return o.RemoveTables
	case HeaderFooter:
		return o.RemoveHeadersFooters
	default:
		return false
	}
}

// Result is the outcome of filtering one document
type Result struct {
	Text           string
	Removed        map[Kind]int
	OriginalLength int
	FilteredLength int
}

// ReductionPercent returns how much of the original text was removed
func (r Result) ReductionPercent() float64 {
	if r.OriginalLength == 0 {
		return 0
	}
	return float64(r.OriginalLength-r.FilteredLength) / float64(r.OriginalLength) * 100
}

// Filter strips low-value sections from paper text
type Filter struct {
	opts Options
}

// NewFilter creates a new section filter
func NewFilter(opts Options) (*Filter, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Filter{opts: opts}, nil
}

// Options returns the options the filter was built with
func (f *Filter) Options() Options {
	return f.opts
}

// Classify returns the spans of text as the filter sees them, with the
// filter's furniture, table and threshold settings
func (f *Filter) Classify(text string) []Span {
	return classify(text, f.opts.RemoveHeadersFooters, f.opts.RemoveTables, f.opts.TableRunThreshold)
}

// Apply removes the configured sections from text. Surviving spans are
// trimmed and joined with a blank line where text was removed between them
// or the source already had one, so the output never grows.
func (f *Filter) Apply(text string) Result {
	result := Result{
		Removed:        make(map[Kind]int),
		OriginalLength: utf8.RuneCountInString(text),
	}
	if strings.TrimSpace(text) == "" {
		return result
	}

	lines := splitLines(text)
	labels, headings := label(lines, f.opts.RemoveHeadersFooters, f.opts.RemoveTables, f.opts.TableRunThreshold)

	type section struct {
		kind  Kind
		lines []string
		gap   bool
	}
	var sections []section
	last := Kind(-1)
	gap := false

	for i, kind := range labels {
		switch kind {
		case HeaderFooter:
			if i == 0 || labels[i-1] != HeaderFooter {
				result.Removed[HeaderFooter]++
			}
			gap = true
			continue
		case Table:
			if last != Table {
				result.Removed[Table]++
			}
			last = Table
			gap = true
			continue
		}
		last = kind

		if n := len(sections); n > 0 && sections[n-1].kind == kind && !headings[i] {
			sections[n-1].lines = append(sections[n-1].lines, lines[i])
			continue
		}
		sections = append(sections, section{kind: kind, lines: []string{lines[i]}, gap: gap})
		gap = false
	}

	// Kept spans are separated by a blank line unless they were directly
	// adjacent in the source with no blank line between them.
	var b strings.Builder
	pendingGap := false
	prevBlankTail := false
	for _, s := range sections {
		if f.opts.removes(s.kind) {
			result.Removed[s.kind]++
			pendingGap = true
			continue
		}
		content := strings.TrimSpace(strings.Join(s.lines, "\n"))
		if content == "" {
			pendingGap = pendingGap || s.gap
			continue
		}
		if b.Len() > 0 {
			if pendingGap || s.gap || prevBlankTail || strings.TrimSpace(s.lines[0]) == "" {
				b.WriteString("\n\n")
			} else {
				b.WriteString("\n")
			}
		}
		b.WriteString(content)
		pendingGap = false
		prevBlankTail = strings.TrimSpace(s.lines[len(s.lines)-1]) == ""
	}

	result.Text = b.String()
	result.FilteredLength = utf8.RuneCountInString(result.Text)
	return result
}
