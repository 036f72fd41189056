package annotate

import (
	"regexp"
	"sort"
	"strings"

	"paper-rag/internal/models"
)

// Genera recognised when extracting organism names
var Genera = []string{
	"Listeria", "Salmonella", "Escherichia", "Staphylococcus", "Clostridium",
	"Bacillus", "Campylobacter", "Vibrio", "Pseudomonas", "Enterococcus",
	"Lactobacillus", "Lactococcus", "Lactiplantibacillus", "Leuconostoc",
	"Pediococcus", "Streptococcus", "Bifidobacterium", "Yersinia", "Cronobacter",
	"Aspergillus", "Penicillium", "Fusarium", "Saccharomyces", "Zygosaccharomyces",
	"Candida", "Debaryomyces",
}

var (
	phRe            = regexp.MustCompile(`\bpH\s*(?:=|:|of|value of)?\s*(\d{1,2}(?:[.,]\d{1,2})?)`)
	waterActivityRe = regexp.MustCompile(`(?i)\b(?:a\s?w|a_w|water activity)\s*(?:=|:|of)?\s*((?:0?[.,]\d{1,3})|(?:1[.,]0{1,3}))\b`)
	organismRe      = buildOrganismPattern(Genera)

	// words that follow a genus name in running text but are not epithets
	notEpithets = map[string]bool{
		"and": true, "are": true, "was": true, "were": true, "the": true,
		"for": true, "with": true, "has": true, "had": true, "have": true,
		"can": true, "may": true, "not": true, "that": true, "which": true,
		"from": true, "but": true, "also": true, "strain": true, "strains": true,
		"cells": true, "growth": true, "counts": true, "species": true,
		"population": true, "populations": true, "isolates": true,
	}
)

func buildOrganismPattern(genera []string) *regexp.Regexp {
	names := make([]string, 0, len(genera))
	initials := make(map[byte]bool)
	for _, g := range genera {
		names = append(names, regexp.QuoteMeta(g))
		initials[g[0]] = true
	}
	var letters strings.Builder
	for c := byte('A'); c <= 'Z'; c++ {
		if initials[c] {
			letters.WriteByte(c)
		}
	}
	return regexp.MustCompile(`\b(?:(` + strings.Join(names, "|") + `)\s+|([` + letters.String() + `]\.)\s?)([a-z]{3,})\b`)
}

// Annotate fills the chunk's domain keyword metadata from its content
func Annotate(chunk *models.TextChunk) {
	chunk.Metadata.PH = PHValues(chunk.Content)
	chunk.Metadata.WaterActivity = WaterActivities(chunk.Content)
	chunk.Metadata.Organisms = Organisms(chunk.Content)
}

// PHValues returns the distinct pH values mentioned in text
func PHValues(text string) []string {
	return collect(phRe, text, func(m []string) string {
		return strings.ReplaceAll(m[1], ",", ".")
	})
}

// WaterActivities returns the distinct water activity values mentioned in text
func WaterActivities(text string) []string {
	return collect(waterActivityRe, text, func(m []string) string {
		v := strings.ReplaceAll(m[1], ",", ".")
		if strings.HasPrefix(v, ".") {
			v = "0" + v
		}
		return v
	})
}

// Organisms returns the distinct binomial names mentioned in text, either
// spelled out ("Listeria monocytogenes") or abbreviated ("L. monocytogenes")
func Organisms(text string) []string {
	return collect(organismRe, text, func(m []string) string {
		genus, epithet := m[1]+m[2], m[3]
		if notEpithets[epithet] {
			return ""
		}
		return genus + " " + epithet
	})
}

func collect(re *regexp.Regexp, text string, value func([]string) string) []string {
	seen := make(map[string]struct{})
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		if v := value(m); v != "" {
			seen[v] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return nil
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
