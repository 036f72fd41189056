// Command sections prints how papers are classified, filtered and chunked
// without touching Ollama or the database.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"paper-rag/internal/chunker"
	"paper-rag/internal/config"
	"paper-rag/internal/processor"
	"paper-rag/internal/sections"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	envFile := flag.String("env", ".env", "Path to .env file")
	showSpans := flag.Bool("spans", true, "Print the classified spans")
	showText := flag.Bool("text", false, "Print the filtered text")
	showChunks := flag.Bool("chunks", false, "Print every chunk")
	flag.Parse()

	if flag.NArg() == 0 {
		log.Fatal("Usage: sections [flags] FILE...")
	}

	if err := config.LoadEnvFile(*envFile); err != nil {
		log.Fatalf("Failed to load env file: %v", err)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	proc, err := processor.NewPDFProcessor(cfg.Chunking, cfg.Sections, cfg.Logger())
	if err != nil {
		log.Fatalf("Failed to create processor: %v", err)
	}
	filter, err := sections.NewFilter(cfg.Sections)
	if err != nil {
		log.Fatalf("Failed to create section filter: %v", err)
	}

	ctx := context.Background()
	failed := false
	for _, path := range flag.Args() {
		doc, err := proc.LoadDocument(path)
		if err != nil {
			log.Printf("Warning: skipping %s: %v", path, err)
			failed = true
			continue
		}

		fmt.Printf("== %s (%d pages)\n", doc.Filename, len(doc.Pages))
		if *showSpans {
			for _, span := range filter.Classify(doc.RawText) {
				fmt.Printf("  %5d-%-5d %-15s %s\n", span.StartLine, span.EndLine, span.Kind, preview(span.Header, 60))
			}
		}

		chunks, result, err := proc.ProcessDocument(ctx, doc)
		if err != nil {
			log.Printf("Warning: skipping %s: %v", path, err)
			failed = true
			continue
		}

		fmt.Printf("  filtered %d -> %d characters (%.1f%% removed)\n",
			result.OriginalLength, result.FilteredLength, result.ReductionPercent())
		for _, kind := range sections.Kinds {
			if n := result.Removed[kind]; n > 0 {
				fmt.Printf("  removed %-15s %d\n", kind, n)
			}
		}

		stats := chunker.Summarize(chunks)
		fmt.Printf("  chunks: %d (avg %.1f, min %d, max %d characters)\n",
			stats.Count, stats.AverageLength, stats.MinLength, stats.MaxLength)

		if *showText {
			fmt.Println(result.Text)
		}
		if *showChunks {
			for _, c := range chunks {
				fmt.Printf("--- %s (%d chars, %d paragraphs)\n%s\n", c.ID, c.Length, c.ParagraphCount, c.Content)
			}
		}
	}

	if failed {
		os.Exit(1)
	}
}

func preview(s string, n int) string {
	s = strings.TrimSpace(s)
	if r := []rune(s); len(r) > n {
		return string(r[:n]) + "..."
	}
	return s
}
