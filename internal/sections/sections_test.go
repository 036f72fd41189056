package sections

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shortPaper = "Abstract\n\nShort intro.\n\nReferences\n\nSmith (2020).\n\nAppendix A\n\nExtra tables."

const samplePaper = `Inactivation of Listeria monocytogenes by nisin
12

Abstract
Nisin reduced counts by 3 log at pH 5.5.

1. Introduction
Listeria is a concern in ready-to-eat foods.
Page 2 of 9

Table 1: Strains used in this study
Strain	Source	Reference
L. monocytogenes	Cheese	This study
L. innocua	Milk	[4]

2. Results
Counts fell below the detection limit.
© 2021 Elsevier Ltd. All rights reserved.

Acknowledgments
We thank the lab.

References
Smith J. (2020). Food Micro 1:1-10.
Jones K. (2019). J Dairy Sci 2:3-4.

Appendix A. Supplementary data
Extra figures.`

func mustFilter(t *testing.T, opts Options) *Filter {
	t.Helper()
	f, err := NewFilter(opts)
	require.NoError(t, err)
	return f
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "valuable", Valuable.String())
	assert.Equal(t, "references", References.String())
	assert.Equal(t, "acknowledgments", Acknowledgments.String())
	assert.Equal(t, "appendix", Appendix.String())
	assert.Equal(t, "table", Table.String())
	assert.Equal(t, "header_footer", HeaderFooter.String())
	assert.Equal(t, "unknown", Kind(42).String())
}

func TestMatchHeading(t *testing.T) {
	tests := []struct {
		line string
		kind Kind
		ok   bool
	}{
		{"References", References, true},
		{"  REFERENCES  ", References, true},
		{"7. References", References, true},
		{"VII. Bibliography", References, true},
		{"Literature Cited", References, true},
		{"Referencias bibliográficas", References, true},
		{"Acknowledgements", Acknowledgments, true},
		{"Acknowledgment:", Acknowledgments, true},
		{"Agradecimientos", Acknowledgments, true},
		{"Thanks", Acknowledgments, true},
		{"Appendix A", Appendix, true},
		{"Appendix A. Supplementary data", Appendix, true},
		{"Supplementary material", Appendix, true},
		{"Anexo", Appendix, true},
		{"2.1 Materials and Methods", Valuable, true},
		{"Abstract", Valuable, true},
		{"Resultados y discusión", Valuable, true},
		{"The references cited above disagree.", Valuable, false},
		{"Appendix B shows the raw counts", Valuable, false},
		{"", Valuable, false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			kind, ok := matchHeading(tt.line)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.kind, kind)
		})
	}
}

func TestIsHeaderFooter(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"12", true},
		{"- 12 -", true},
		{"Page 3", true},
		{"page 3 of 10", true},
		{"Página 4 de 12", true},
		{"3 of 12", true},
		{"| Page 7", true},
		{"© 2021 Elsevier Ltd.", true},
		{"Copyright 2019 by the authors", true},
		{"Published by Wiley. All rights reserved.", true},
		{"Counts on page 3 were higher.", false},
		{"12 strains were tested", false},
		// bare numbers are taken as page numbers, including years and
		// single-column numeric rows
		{"2020", true},
		{"350", true},
		{"12345", false},
		{"2020 and 2021", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, isHeaderFooter(tt.line))
		})
	}
}

func TestIsTableLike(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"Table 1: Strains used", true},
		{"Tabla 2. Cepas", true},
		{"│ 5.5 │ 0.97 │", true},
		{"a\tb\tc", true},
		{"| pH | aw |", true},
		{"Nisin | lysozyme", false},
		{"Plain prose line.", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, isTableLike(tt.line))
		})
	}
}

func TestClassify_NoHeadings(t *testing.T) {
	text := "First line.\nSecond line.\n\nThird paragraph."
	spans := Classify(text)
	require.Len(t, spans, 1)
	assert.Equal(t, Valuable, spans[0].Kind)
	assert.Equal(t, 0, spans[0].StartLine)
	assert.Equal(t, 3, spans[0].EndLine)
	assert.Equal(t, text, spans[0].Content)
	assert.Equal(t, "First line.", spans[0].Header)
}

func TestClassify_Empty(t *testing.T) {
	assert.Empty(t, Classify(""))
}

func TestClassify_ShortPaper(t *testing.T) {
	spans := Classify(shortPaper)
	require.Len(t, spans, 3)

	assert.Equal(t, Valuable, spans[0].Kind)
	assert.Equal(t, "Abstract", spans[0].Header)
	assert.Equal(t, References, spans[1].Kind)
	assert.Equal(t, "References", spans[1].Header)
	assert.Equal(t, 4, spans[1].StartLine)
	assert.Equal(t, Appendix, spans[2].Kind)
	assert.Equal(t, "Appendix A", spans[2].Header)
}

const repeatedHeadings = "Abstract\nBody text.\n\nAppendix A\nFirst appendix.\n\nAppendix B\nSecond appendix.\n\nAcknowledgments\nThanks all.\n\nFunding\nGrant 1."

func TestClassify_RepeatedKindStartsNewSpan(t *testing.T) {
	spans := Classify(repeatedHeadings)
	require.Len(t, spans, 5)

	want := []struct {
		kind       Kind
		header     string
		start, end int
	}{
		{Valuable, "Abstract", 0, 2},
		{Appendix, "Appendix A", 3, 5},
		{Appendix, "Appendix B", 6, 8},
		{Acknowledgments, "Acknowledgments", 9, 11},
		{Acknowledgments, "Funding", 12, 13},
	}
	for i, w := range want {
		assert.Equal(t, w.kind, spans[i].Kind, "span %d", i)
		assert.Equal(t, w.header, spans[i].Header, "span %d", i)
		assert.Equal(t, w.start, spans[i].StartLine, "span %d", i)
		assert.Equal(t, w.end, spans[i].EndLine, "span %d", i)
	}
}

func TestFilterClassify_UsesOptions(t *testing.T) {
	opts := DefaultOptions()
	opts.RemoveTables = false
	opts.RemoveHeadersFooters = false

	for _, s := range mustFilter(t, opts).Classify(samplePaper) {
		assert.NotEqual(t, Table, s.Kind)
		assert.NotEqual(t, HeaderFooter, s.Kind)
	}

	kinds := make(map[Kind]bool)
	for _, s := range mustFilter(t, DefaultOptions()).Classify(samplePaper) {
		kinds[s.Kind] = true
	}
	assert.True(t, kinds[Table])
	assert.True(t, kinds[HeaderFooter])
}

func TestClassify_Coverage(t *testing.T) {
	docs := []string{shortPaper, samplePaper, "x", "\n\n\n", "a\r\nb\r\nReferences\r\nc"}
	for _, doc := range docs {
		spans := Classify(doc)
		lines := splitLines(doc)
		require.NotEmpty(t, spans)

		next := 0
		for _, s := range spans {
			assert.Equal(t, next, s.StartLine, "spans must be contiguous")
			assert.GreaterOrEqual(t, s.EndLine, s.StartLine)
			assert.Equal(t, s.LineCount(), len(strings.Split(s.Content, "\n")))
			next = s.EndLine + 1
		}
		assert.Equal(t, len(lines), next, "spans must cover every line")
	}
}

func TestClassify_SamplePaperKinds(t *testing.T) {
	seen := make(map[Kind]bool)
	for _, s := range Classify(samplePaper) {
		seen[s.Kind] = true
	}
	for _, kind := range Kinds {
		assert.True(t, seen[kind], "expected a %s span", kind)
	}
}

func TestFilter_ShortPaper(t *testing.T) {
	f := mustFilter(t, DefaultOptions())
	result := f.Apply(shortPaper)

	assert.Equal(t, "Abstract\n\nShort intro.", result.Text)
	assert.Equal(t, 1, result.Removed[References])
	assert.Equal(t, 1, result.Removed[Appendix])
	assert.Equal(t, 0, result.Removed[Acknowledgments])
	assert.Equal(t, len(shortPaper), result.OriginalLength)
	assert.Equal(t, len("Abstract\n\nShort intro."), result.FilteredLength)
	assert.InDelta(t, float64(len(shortPaper)-22)/float64(len(shortPaper))*100, result.ReductionPercent(), 0.001)
}

func TestFilter_SamplePaper(t *testing.T) {
	f := mustFilter(t, DefaultOptions())
	result := f.Apply(samplePaper)

	assert.Contains(t, result.Text, "Nisin reduced counts")
	assert.Contains(t, result.Text, "Counts fell below the detection limit.")
	assert.NotContains(t, result.Text, "Smith J.")
	assert.NotContains(t, result.Text, "We thank the lab.")
	assert.NotContains(t, result.Text, "Extra figures.")
	assert.NotContains(t, result.Text, "L. innocua")
	assert.NotContains(t, result.Text, "Page 2 of 9")
	assert.NotContains(t, result.Text, "Elsevier")

	assert.Equal(t, 1, result.Removed[References])
	assert.Equal(t, 1, result.Removed[Acknowledgments])
	assert.Equal(t, 1, result.Removed[Appendix])
	assert.Equal(t, 1, result.Removed[Table])
	assert.Equal(t, 3, result.Removed[HeaderFooter])
}

func TestFilter_CountsEachHeading(t *testing.T) {
	result := mustFilter(t, DefaultOptions()).Apply(repeatedHeadings)

	assert.Equal(t, "Abstract\nBody text.", result.Text)
	assert.Equal(t, 2, result.Removed[Appendix])
	assert.Equal(t, 2, result.Removed[Acknowledgments])

	kept := mustFilter(t, Options{TableRunThreshold: DefaultTableRunThreshold}).Apply(repeatedHeadings)
	assert.Equal(t, repeatedHeadings, kept.Text)
}

func TestFilter_KeepEverything(t *testing.T) {
	f := mustFilter(t, Options{TableRunThreshold: DefaultTableRunThreshold})

	for _, doc := range []string{shortPaper, samplePaper, "  padded text  \n"} {
		result := f.Apply(doc)
		assert.Equal(t, strings.TrimSpace(doc), result.Text)
		assert.Empty(t, result.Removed)
	}
}

func TestFilter_TablesIndependentOfSections(t *testing.T) {
	opts := DefaultOptions()
	opts.RemoveTables = false
	result := mustFilter(t, opts).Apply(samplePaper)

	assert.Contains(t, result.Text, "L. innocua\tMilk")
	assert.Zero(t, result.Removed[Table])
	assert.Equal(t, 1, result.Removed[References])
}

func TestFilter_TableRunThreshold(t *testing.T) {
	body := func(rows int) string {
		lines := []string{"Prose before the table."}
		for i := 0; i < rows; i++ {
			lines = append(lines, "a | b | c")
		}
		lines = append(lines, "Prose after the table.")
		return strings.Join(lines, "\n")
	}

	tests := []struct {
		name      string
		rows      int
		threshold int
		removed   bool
	}{
		{"single row reverted", 1, 2, false},
		{"two rows at threshold reverted", 2, 2, false},
		{"three rows removed", 3, 2, true},
		{"zero threshold removes single row", 1, 0, true},
		{"raised threshold keeps three rows", 3, 3, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.TableRunThreshold = tt.threshold
			result := mustFilter(t, opts).Apply(body(tt.rows))

			if tt.removed {
				assert.NotContains(t, result.Text, "a | b | c")
				assert.Equal(t, 1, result.Removed[Table])
			} else {
				assert.Contains(t, result.Text, "a | b | c")
				assert.Zero(t, result.Removed[Table])
			}
			assert.Contains(t, result.Text, "Prose before the table.")
			assert.Contains(t, result.Text, "Prose after the table.")
		})
	}
}

func TestFilter_AllLowValue(t *testing.T) {
	doc := "References\nSmith (2020).\n\nAcknowledgments\nThanks."
	result := mustFilter(t, DefaultOptions()).Apply(doc)

	assert.Empty(t, result.Text)
	assert.Zero(t, result.FilteredLength)
	assert.InDelta(t, 100.0, result.ReductionPercent(), 0.001)
}

func TestFilter_EmptyInput(t *testing.T) {
	result := mustFilter(t, DefaultOptions()).Apply("")
	assert.Empty(t, result.Text)
	assert.Zero(t, result.OriginalLength)
	assert.Zero(t, result.ReductionPercent())
}

func TestFilter_LengthNeverGrows(t *testing.T) {
	docs := []string{
		shortPaper,
		samplePaper,
		"Intro\nReferences\nx\nAbstract\ny",
		"a\nReferences\nb",
		"12\nIntro text\n13",
	}
	option := []Options{DefaultOptions(), {}, {RemoveReferences: true}}
	for _, opts := range option {
		f := mustFilter(t, opts)
		for _, doc := range docs {
			result := f.Apply(doc)
			assert.LessOrEqual(t, result.FilteredLength, result.OriginalLength, doc)
		}
	}
}

func TestFilter_Idempotent(t *testing.T) {
	for _, opts := range []Options{DefaultOptions(), {RemoveAppendix: true}, {}} {
		f := mustFilter(t, opts)
		for _, doc := range []string{shortPaper, samplePaper} {
			once := f.Apply(doc)
			twice := f.Apply(once.Text)
			assert.Equal(t, once.Text, twice.Text)
			assert.Equal(t, once.FilteredLength, twice.FilteredLength)
		}
	}
}

func TestNewFilter_InvalidThreshold(t *testing.T) {
	_, err := NewFilter(Options{TableRunThreshold: -1})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidOptions)
}
