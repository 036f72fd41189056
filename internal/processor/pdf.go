// internal/processor/pdf.go
package processor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"paper-rag/internal/annotate"
	"paper-rag/internal/chunker"
	"paper-rag/internal/models"
	"paper-rag/internal/sections"

	"github.com/ledongthuc/pdf"
	"golang.org/x/text/unicode/norm"
)

var (
	controlRe    = regexp.MustCompile(`[\x00-\x08\x0B\x0E-\x1F\x7F]`)
	spaceRunRe   = regexp.MustCompile(`[ \x{00A0}]{2,}|\x{00A0}`)
	blankRunRe   = regexp.MustCompile(`\n{3,}`)
	urlRe        = regexp.MustCompile(`https?://[^\s)\]>]+`)
	emailRe      = regexp.MustCompile(`[\w.+-]+@[\w-]+(?:\.[\w-]+)+`)
	ligatures    = strings.NewReplacer("ﬀ", "ff", "ﬁ", "fi", "ﬂ", "fl", "ﬃ", "ffi", "ﬄ", "ffl")
	textSuffixes = map[string]bool{".txt": true, ".md": true}
)

// PDFProcessor loads papers and turns them into filtered, annotated chunks
type PDFProcessor struct {
	filter  *sections.Filter
	chunker *chunker.Chunker
	logger  *slog.Logger
}

// NewPDFProcessor creates a new processor from chunker and filter settings
func NewPDFProcessor(cfg chunker.Config, opts sections.Options, logger *slog.Logger) (*PDFProcessor, error) {
	filter, err := sections.NewFilter(opts)
	if err != nil {
		return nil, err
	}
	c, err := chunker.New(cfg)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFProcessor{filter: filter, chunker: c, logger: logger}, nil
}

// LoadDocument reads a PDF page by page, or a plain-text/markdown file as-is
func (p *PDFProcessor) LoadDocument(path string) (models.Document, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if textSuffixes[ext] {
		data, err := os.ReadFile(path)
		if err != nil {
			return models.Document{}, fmt.Errorf("failed to read file: %w", err)
		}
		text := normalizeText(string(data))
		return models.Document{
			Filename: filepath.Base(path),
			RawText:  text,
			Pages:    []models.PageMetadata{{Number: 1, CharCount: utf8.RuneCountInString(text)}},
		}, nil
	}
	if ext != ".pdf" {
		return models.Document{}, fmt.Errorf("unsupported file type %q", ext)
	}
	return p.loadPDF(path)
}

func (p *PDFProcessor) loadPDF(path string) (models.Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return models.Document{}, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	doc := models.Document{Filename: filepath.Base(path)}
	info := r.Trailer().Key("Info")
	doc.Title = strings.TrimSpace(info.Key("Title").Text())
	doc.Author = strings.TrimSpace(info.Key("Author").Text())

	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			p.logger.Warn("Skipping null page", "page", i, "path", path)
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			p.logger.Warn("Failed to extract page text", "page", i, "path", path, "error", err)
			continue
		}
		text = normalizeText(text)
		doc.Pages = append(doc.Pages, models.PageMetadata{Number: i, CharCount: utf8.RuneCountInString(text)})
		if text != "" {
			pages = append(pages, text)
		}
	}
	if len(pages) == 0 {
		return models.Document{}, fmt.Errorf("no text extracted from PDF %s", doc.Filename)
	}

	doc.RawText = strings.Join(pages, "\n")
	p.logger.Debug("PDF loaded", "path", path, "pages", r.NumPage(), "chars", utf8.RuneCountInString(doc.RawText))
	return doc, nil
}

// ProcessDocument filters low-value sections out of doc, chunks the rest and
// stamps every chunk with the document's source metadata and keywords
func (p *PDFProcessor) ProcessDocument(ctx context.Context, doc models.Document) ([]models.TextChunk, sections.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, sections.Result{}, err
	}

	result := p.filter.Apply(doc.RawText)
	p.logger.Info("Sections filtered",
		"document", doc.Filename,
		"original", result.OriginalLength,
		"filtered", result.FilteredLength,
		"reduction_pct", fmt.Sprintf("%.1f", result.ReductionPercent()))
	for _, kind := range sections.Kinds {
		if n := result.Removed[kind]; n > 0 {
			p.logger.Debug("Removed sections", "document", doc.Filename, "kind", kind.String(), "count", n)
		}
	}

	chunks := p.chunker.Chunk(result.Text, documentPrefix(doc.Filename))
	for i := range chunks {
		chunks[i].Metadata.Source = doc.Filename
		chunks[i].Metadata.Title = doc.Title
		chunks[i].Metadata.Author = doc.Author
		chunks[i].Metadata.PageCount = len(doc.Pages)
		annotate.Annotate(&chunks[i])
	}
	if len(chunks) == 0 {
		p.logger.Warn("Document produced no chunks", "document", doc.Filename)
	}
	return chunks, result, nil
}

// ProcessFile loads and processes a single file
func (p *PDFProcessor) ProcessFile(ctx context.Context, path string) ([]models.TextChunk, sections.Result, error) {
	doc, err := p.LoadDocument(path)
	if err != nil {
		return nil, sections.Result{}, err
	}
	return p.ProcessDocument(ctx, doc)
}

func documentPrefix(filename string) string {
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	if stem == "" {
		return "doc"
	}
	return stem
}

// normalizeText cleans extraction noise while keeping line structure, which
// the section filter depends on. Tabs are kept for table detection.
func normalizeText(text string) string {
	text = norm.NFC.String(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "\f", "\n")
	text = controlRe.ReplaceAllString(text, "")
	text = ligatures.Replace(text)
	text = urlRe.ReplaceAllString(text, "")
	text = emailRe.ReplaceAllString(text, "")
	text = spaceRunRe.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	text = blankRunRe.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(text)
}
