package sections

// Kind labels a run of lines in a paper
type Kind int

const (
	Valuable Kind = iota
	References
	Acknowledgments
	Appendix
	Table
	HeaderFooter
)

// Kinds lists every section kind in declaration order
var Kinds = []Kind{Valuable, References, Acknowledgments, Appendix, Table, HeaderFooter}

func (k Kind) String() string {
	switch k {
	case Valuable:
		return "valuable"
	case References:
		return "references"
	case Acknowledgments:
		return "acknowledgments"
	case Appendix:
		return "appendix"
	case Table:
		return "table"
	case HeaderFooter:
		return "header_footer"
	default:
		return "unknown"
	}
}

// Span is a contiguous run of lines sharing one Kind. StartLine and EndLine
// are 0-based and inclusive.
type Span struct {
	Kind      Kind
	StartLine int
	EndLine   int
	Content   string
	Header    string
}

// LineCount returns the number of lines covered by the span
func (s Span) LineCount() int {
	return s.EndLine - s.StartLine + 1
}
