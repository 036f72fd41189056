package chunker

import (
	"fmt"
	"strings"
	"unicode"

	"paper-rag/internal/models"
)

const (
	paragraphSep = "\n\n"
	sentenceSep  = " "
)

// Chunker splits filtered paper text into overlapping chunks. It holds no
// mutable state and is safe for concurrent use.
type Chunker struct {
	cfg Config
}

// New creates a chunker after validating cfg
func New(cfg Config) (*Chunker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Chunker{cfg: cfg}, nil
}

// Config returns the chunker's configuration
func (c *Chunker) Config() Config {
	return c.cfg
}

// Chunk splits text into chunks whose IDs are "{idPrefix}_chunk_{n}".
// Paragraphs are packed up to the target size; paragraphs longer than 1.5x
// the target are packed sentence by sentence instead.
func (c *Chunker) Chunk(text, idPrefix string) []models.TextChunk {
	acc := &accumulator{cfg: c.cfg, prefix: idPrefix}

	for _, para := range splitParagraphs(text) {
		if float64(runeLen(para)) > c.cfg.oversizedLimit() {
			acc.flush()
			for i, sentence := range splitSentences(para) {
				sep := sentenceSep
				if i == 0 {
					sep = paragraphSep
				}
				acc.add(newUnit(sentence, sep))
			}
			acc.flush()
			continue
		}
		acc.add(newUnit(para, paragraphSep))
	}

	return acc.finish()
}

// unit is a paragraph or sentence; sep is written before it when it is not
// the first unit of a chunk
type unit struct {
	text   string
	sep    string
	length int
}

func newUnit(text, sep string) unit {
	return unit{text: text, sep: sep, length: runeLen(text)}
}

type accumulator struct {
	cfg    Config
	prefix string
	units  []unit
	chunks []models.TextChunk

	// fresh counts units added since the buffer was last emitted; a buffer
	// holding only overlap is never emitted again.
	fresh int
}

func (a *accumulator) length() int {
	return joinedLength(a.units)
}

func (a *accumulator) add(u unit) {
	if len(a.units) > 0 && a.length()+runeLen(u.sep)+u.length > a.cfg.TargetSize {
		a.flush()
	}
	a.units = append(a.units, u)
	a.fresh++
}

// flush emits the buffer when it reaches the minimum size and reseeds it with
// the overlap. A buffer below the minimum is kept so no text is dropped.
func (a *accumulator) flush() {
	if a.fresh == 0 || a.length() < a.cfg.MinChunkSize {
		return
	}
	a.emit()
	a.units = selectOverlap(a.units, a.cfg.OverlapBudget)
	a.fresh = 0
}

// finish emits the trailing remainder if it is large enough, or if it is the
// only content the document produced
func (a *accumulator) finish() []models.TextChunk {
	if a.fresh > 0 && (a.length() >= a.cfg.MinChunkSize || len(a.chunks) == 0) {
		a.emit()
	}
	a.units = nil
	return a.chunks
}

func (a *accumulator) emit() {
	text := joinUnits(a.units)
	index := len(a.chunks)
	a.chunks = append(a.chunks, models.TextChunk{
		ID:             fmt.Sprintf("%s_chunk_%d", a.prefix, index),
		Index:          index,
		Content:        text,
		Length:         runeLen(text),
		ParagraphCount: paragraphCount(text),
	})
}

func joinUnits(units []unit) string {
	var b strings.Builder
	for i, u := range units {
		if i > 0 {
			b.WriteString(u.sep)
		}
		b.WriteString(u.text)
	}
	return b.String()
}

func joinedLength(units []unit) int {
	n := 0
	for i, u := range units {
		if i > 0 {
			n += runeLen(u.sep)
		}
		n += u.length
	}
	return n
}

// selectOverlap returns the trailing units whose joined length fits the
// budget. When even the last unit is too long, a word-aligned tail of it is
// carried instead. No overlap is carried when that tail would start mid-word.
func selectOverlap(units []unit, budget int) []unit {
	if budget <= 0 || len(units) == 0 {
		return nil
	}

	start := len(units)
	total := 0
	for i := len(units) - 1; i >= 0; i-- {
		add := units[i].length
		if i < len(units)-1 {
			add += runeLen(units[i+1].sep)
		}
		if total+add > budget {
			break
		}
		total += add
		start = i
	}

	if start == len(units) {
		last := units[len(units)-1]
		tail := tailWithin(last.text, budget)
		if tail == "" {
			return nil
		}
		return []unit{newUnit(tail, last.sep)}
	}
	return append([]unit(nil), units[start:]...)
}

// tailWithin returns the longest suffix of text of at most limit characters
// that starts at a word boundary, or "" when the window holds none.
func tailWithin(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}

	start := len(runes) - limit
	if !unicode.IsSpace(runes[start-1]) {
		for start < len(runes) && !unicode.IsSpace(runes[start]) {
			start++
		}
	}
	for start < len(runes) && unicode.IsSpace(runes[start]) {
		start++
	}
	return string(runes[start:])
}
