package sections

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// sectionMarker matches an optional leading "3.", "3.1", "IV." or "A)" before a heading
const sectionMarker = `(?:(?:\d+(?:\.\d+)*\.?|[IVXLC]+\.|[A-Z][.)])\s*)?`

const maxFurnitureLength = 160

func headingPattern(names string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)^` + sectionMarker + `(?:` + names + `)\s*[:.]?\s*$`)
}

type headingRule struct {
	kind     Kind
	patterns []*regexp.Regexp
}

// headingRules is tried in order; the first kind with a matching pattern wins.
var headingRules = []headingRule{
	{
		kind: References,
		patterns: []*regexp.Regexp{
			headingPattern(`references(?:\s+cited)?|reference\s+list|bibliography`),
			headingPattern(`literature\s+cited|works\s+cited|cited\s+literature`),
			headingPattern(`referencias(?:\s+bibliogr[aá]ficas)?|bibliograf[ií]a|literatura\s+citada`),
		},
	},
	{
		kind: Acknowledgments,
		patterns: []*regexp.Regexp{
			headingPattern(`acknowledge?ments?|funding(?:\s+information)?|thanks`),
			headingPattern(`agradecimientos`),
		},
	},
	{
		kind: Appendix,
		patterns: []*regexp.Regexp{
			headingPattern(`(?:appendix|appendices|ap[eé]ndice|anexo)(?:\s+[A-Z0-9]+)?(?:\s*[.:\-–—]\s*.*)?`),
			headingPattern(`(?:supplementary\s+(?:materials?|data|information)|supporting\s+information)(?:\s*[.:\-–—]\s*.*)?`),
		},
	},
	{
		kind: Valuable,
		patterns: []*regexp.Regexp{
			headingPattern(`abstract|summary|highlights|introduction|background`),
			headingPattern(`(?:materials?\s+and\s+)?methods|methodology|experimental(?:\s+procedures)?`),
			headingPattern(`results(?:\s+and\s+discussion)?|discussion|conclusions?|concluding\s+remarks`),
			headingPattern(`resumen|introducci[oó]n|materiales\s+y\s+m[eé]todos|m[eé]todos`),
			headingPattern(`resultados(?:\s+y\s+discusi[oó]n)?|discusi[oó]n|conclusi[oó]n(?:es)?`),
		},
	},
}

var (
	pageNumberRe = regexp.MustCompile(`^[-–—]?\s*\d{1,4}\s*[-–—]?$`)
	pageLabelRe  = regexp.MustCompile(`(?i)^\|?\s*(?:(?:page|p[aá]gina|p\.)\s*\d+(?:\s*(?:of|de|/)\s*\d+)?|\d+\s+(?:of|de)\s+\d+)$`)
	copyrightRe  = regexp.MustCompile(`(?i)^(?:[©®™]|\(c\)\s|copyright\b)|all rights reserved\.?$`)

	tableCaptionRe = regexp.MustCompile(`(?i)^(?:table|tabla)\s+[0-9IVX]+[a-z]?\s*[:.]`)
	boxDrawnRe     = regexp.MustCompile(`^[\x{2500}-\x{257F}](?:.*[\x{2500}-\x{257F}])?$`)
)

// matchHeading reports the kind of section a heading line opens
func matchHeading(line string) (Kind, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return Valuable, false
	}
	for _, rule := range headingRules {
		for _, re := range rule.patterns {
			if re.MatchString(trimmed) {
				return rule.kind, true
			}
		}
	}
	return Valuable, false
}

// isHeaderFooter reports whether a line is page furniture: a bare page
// number, a "Page N of M" label or a copyright notice
func isHeaderFooter(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || utf8.RuneCountInString(trimmed) > maxFurnitureLength {
		return false
	}
	return pageNumberRe.MatchString(trimmed) ||
		pageLabelRe.MatchString(trimmed) ||
		copyrightRe.MatchString(trimmed)
}

// isTableLike reports whether a line looks like part of a table
func isTableLike(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}
	if tableCaptionRe.MatchString(trimmed) || boxDrawnRe.MatchString(trimmed) {
		return true
	}
	return strings.Count(trimmed, "\t")+strings.Count(trimmed, "|") >= 2
}
