package chunker

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Abbreviations never end a sentence. Matching is literal and case-sensitive.
var Abbreviations = []string{
	"e.g.", "i.e.", "et al.", "etc.", "cf.", "vs.", "viz.", "approx.", "resp.",
	"Fig.", "Figs.", "fig.", "Tab.", "Eq.", "Eqs.", "Ref.", "Refs.",
	"No.", "Nos.", "Vol.", "vol.", "pp.", "Ch.", "Sect.",
	"Dr.", "Prof.", "Mr.", "Mrs.", "Ms.", "St.", "Inc.", "Ltd.", "Corp.",
	"sp.", "spp.", "subsp.", "ssp.", "var.", "cv.", "nov.",
	"U.S.", "U.K.", "E.U.", "a.m.", "p.m.",
	"pH", "aW",
}

var (
	paragraphSepRe = regexp.MustCompile(`\n\s*\n`)
	sentenceEndRe  = regexp.MustCompile(`[.!?]\s+(\p{Lu})`)

	protector, restorer = buildAbbreviationReplacers(Abbreviations)
)

// buildAbbreviationReplacers maps every abbreviation to an opaque token
// without sentence punctuation, longest literal first so that "subsp." is
// not consumed as "sp.".
func buildAbbreviationReplacers(abbreviations []string) (*strings.Replacer, *strings.Replacer) {
	sorted := append([]string(nil), abbreviations...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if len(sorted[i]) != len(sorted[j]) {
			return len(sorted[i]) > len(sorted[j])
		}
		return sorted[i] < sorted[j]
	})

	protect := make([]string, 0, 2*len(sorted))
	restore := make([]string, 0, 2*len(sorted))
	for i, abbr := range sorted {
		token := fmt.Sprintf("\uE000%d\uE001", i)
		protect = append(protect, abbr, token)
		restore = append(restore, token, abbr)
	}
	return strings.NewReplacer(protect...), strings.NewReplacer(restore...)
}

// splitParagraphs splits on one or more blank lines and drops empty paragraphs
func splitParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var paragraphs []string
	for _, p := range paragraphSepRe.Split(text, -1) {
		if p = strings.TrimSpace(p); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return paragraphs
}

// splitSentences breaks a paragraph after ".", "!" or "?" followed by
// whitespace and an uppercase letter. Abbreviations are swapped for
// placeholders while the terminators are located.
func splitSentences(paragraph string) []string {
	protected := protector.Replace(paragraph)

	var sentences []string
	appendSentence := func(s string) {
		if s = strings.TrimSpace(restorer.Replace(s)); s != "" {
			sentences = append(sentences, s)
		}
	}

	start := 0
	for _, m := range sentenceEndRe.FindAllStringSubmatchIndex(protected, -1) {
		appendSentence(protected[start : m[0]+1])
		start = m[2]
	}
	appendSentence(protected[start:])

	return sentences
}

func paragraphCount(text string) int {
	return len(paragraphSepRe.FindAllStringIndex(text, -1)) + 1
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
