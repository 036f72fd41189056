package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"time"

	"paper-rag/internal/chunker"
	"paper-rag/internal/config"
	"paper-rag/internal/database"
	"paper-rag/internal/embedding"
	"paper-rag/internal/models"
	"paper-rag/internal/processor"
	"paper-rag/internal/sections"
)

func main() {
	// Parse command line flags; explicitly set flags override the config file and environment
	configPath := flag.String("config", "", "Path to YAML config file")
	envFile := flag.String("env", ".env", "Path to .env file")
	pgConnString := flag.String("pg", "", "PostgreSQL connection string")
	ollamaHost := flag.String("ollama", "", "Ollama host (default uses OLLAMA_HOST env var)")
	embeddingModel := flag.String("model", "", "Ollama model for embeddings")
	chunkSize := flag.Int("chunk-size", chunker.DefaultTargetSize, "Target character size for text chunks")
	chunkOverlap := flag.Int("chunk-overlap", chunker.DefaultOverlapBudget, "Maximum character overlap between chunks")
	minChunk := flag.Int("min-chunk", chunker.DefaultMinChunkSize, "Minimum characters for a chunk to be kept")
	keepReferences := flag.Bool("keep-references", false, "Keep reference lists")
	keepAcknowledgments := flag.Bool("keep-acknowledgments", false, "Keep acknowledgment sections")
	keepAppendix := flag.Bool("keep-appendix", false, "Keep appendices")
	keepTables := flag.Bool("keep-tables", false, "Keep table blocks")
	keepHeaders := flag.Bool("keep-headers", false, "Keep page headers and footers")
	workers := flag.Int("workers", 2, "Number of files processed concurrently")
	maxConcurrent := flag.Int("max-concurrent", max(1, runtime.NumCPU()/2), "Maximum concurrent embedding requests")
	dryRun := flag.Bool("dry-run", false, "Filter and chunk only, without embedding or storing")
	flag.Parse()

	files := flag.Args()
	if len(files) == 0 {
		log.Fatal("At least one PDF, .txt or .md file is required")
	}

	if err := config.LoadEnvFile(*envFile); err != nil {
		log.Fatalf("Failed to load env file: %v", err)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "pg":
			cfg.DatabaseURL = *pgConnString
		case "ollama":
			cfg.OllamaHost = *ollamaHost
		case "model":
			cfg.EmbeddingModel = *embeddingModel
		case "chunk-size":
			cfg.Chunking.TargetSize = *chunkSize
		case "chunk-overlap":
			cfg.Chunking.OverlapBudget = *chunkOverlap
		case "min-chunk":
			cfg.Chunking.MinChunkSize = *minChunk
		case "keep-references":
			cfg.Sections.RemoveReferences = !*keepReferences
		case "keep-acknowledgments":
			cfg.Sections.RemoveAcknowledgments = !*keepAcknowledgments
		case "keep-appendix":
			cfg.Sections.RemoveAppendix = !*keepAppendix
		case "keep-tables":
			cfg.Sections.RemoveTables = !*keepTables
		case "keep-headers":
			cfg.Sections.RemoveHeadersFooters = !*keepHeaders
		case "workers":
			cfg.Workers = *workers
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	log.Printf("Indexing %d file(s)", len(files))
	log.Printf("Chunking: target=%d overlap=%d min=%d", cfg.Chunking.TargetSize, cfg.Chunking.OverlapBudget, cfg.Chunking.MinChunkSize)
	log.Printf("Removing: references=%v acknowledgments=%v appendix=%v tables=%v headers=%v",
		cfg.Sections.RemoveReferences, cfg.Sections.RemoveAcknowledgments, cfg.Sections.RemoveAppendix,
		cfg.Sections.RemoveTables, cfg.Sections.RemoveHeadersFooters)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := cfg.Logger()
	proc, err := processor.NewPDFProcessor(cfg.Chunking, cfg.Sections, logger)
	if err != nil {
		log.Fatalf("Failed to create processor: %v", err)
	}

	idx := &indexer{processor: proc, dryRun: *dryRun}

	if !*dryRun {
		log.Printf("Using model: %s", cfg.EmbeddingModel)
		log.Printf("Max concurrent requests: %d", *maxConcurrent)

		db, err := database.NewDB(ctx, cfg.DatabaseURL, cfg.EmbeddingDimensions)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if err := db.Initialize(ctx); err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		log.Println("Database initialized successfully")

		embedder, err := embedding.NewOllamaEmbedder(cfg.OllamaHost, cfg.EmbeddingModel, logger)
		if err != nil {
			log.Fatalf("Failed to create embedder: %v", err)
		}
		embedder.MaxConcurrent = *maxConcurrent

		idx.db = db
		idx.embedder = embedder
	}

	startTime := time.Now()
	reports := idx.run(ctx, files, cfg.Workers)
	log.Printf("Completed processing in %v", time.Since(startTime).Round(time.Millisecond))

	printStatistics(reports)
}

type indexer struct {
	processor *processor.PDFProcessor
	embedder  *embedding.OllamaEmbedder
	db        *database.DB
	dryRun    bool
}

// fileReport is the outcome of indexing one file
type fileReport struct {
	path   string
	chunks []models.TextChunk
	result sections.Result
	err    error
}

// run indexes files with a fixed number of workers. Failed files are
// reported and skipped.
func (idx *indexer) run(ctx context.Context, files []string, workers int) []fileReport {
	jobs := make(chan int)
	reports := make([]fileReport, len(files))

	var wg sync.WaitGroup
	for w := 0; w < min(workers, len(files)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				reports[i] = idx.indexFile(ctx, files[i])
				if err := reports[i].err; err != nil {
					log.Printf("Warning: skipping %s: %v", files[i], err)
				}
			}
		}()
	}

	for i := range files {
		if ctx.Err() != nil {
			reports[i] = fileReport{path: files[i], err: ctx.Err()}
			continue
		}
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return reports
}

func (idx *indexer) indexFile(ctx context.Context, path string) fileReport {
	report := fileReport{path: path}

	doc, err := idx.processor.LoadDocument(path)
	if err != nil {
		report.err = err
		return report
	}

	start := time.Now()
	report.chunks, report.result, report.err = idx.processor.ProcessDocument(ctx, doc)
	if report.err != nil {
		return report
	}
	log.Printf("%s: %d chunks, %.1f%% of text removed (%v)",
		doc.Filename, len(report.chunks), report.result.ReductionPercent(), time.Since(start).Round(time.Millisecond))

	if idx.dryRun || len(report.chunks) == 0 {
		return report
	}

	embeddingStart := time.Now()
	progressFunc := func(processed, total int) {
		if processed%25 != 0 && processed != total {
			return
		}
		elapsedTime := time.Since(embeddingStart)
		estimatedTotal := elapsedTime * time.Duration(total) / time.Duration(processed)
		log.Printf("%s: %d/%d chunks embedded (%.1f%%) - Est. remaining: %v",
			doc.Filename, processed, total, float64(processed)/float64(total)*100,
			(estimatedTotal - elapsedTime).Round(time.Second))
	}

	chunks, err := idx.embedder.EmbedBatchWithProgress(ctx, report.chunks, progressFunc)
	if err != nil {
		report.err = err
		return report
	}

	if _, err := idx.db.ReplaceDocumentChunks(ctx, doc, chunks); err != nil {
		report.err = err
		return report
	}
	log.Printf("%s: stored %d chunks", doc.Filename, len(chunks))

	return report
}

// printStatistics prints chunk and filtering statistics over all indexed files
func printStatistics(reports []fileReport) {
	var all []models.TextChunk
	removed := make(map[sections.Kind]int)
	failed := 0
	originalTotal, filteredTotal := 0, 0

	for _, r := range reports {
		if r.err != nil {
			failed++
			continue
		}
		all = append(all, r.chunks...)
		originalTotal += r.result.OriginalLength
		filteredTotal += r.result.FilteredLength
		for kind, n := range r.result.Removed {
			removed[kind] += n
		}
	}

	stats := chunker.Summarize(all)

	log.Printf("Chunk Statistics:")
	log.Printf("  Files indexed: %d (failed: %d)", len(reports)-failed, failed)
	log.Printf("  Total chunks: %d", stats.Count)
	if stats.Count > 0 {
		log.Printf("  Chunk length: avg %.1f, min %d, max %d characters", stats.AverageLength, stats.MinLength, stats.MaxLength)
		log.Printf("  Chunks per document: %.1f", stats.ChunksPerDocument)
	}

	overall := sections.Result{OriginalLength: originalTotal, FilteredLength: filteredTotal}
	log.Printf("  Text removed by section filter: %.1f%%", overall.ReductionPercent())
	log.Println("  Removed sections:")
	for _, kind := range sections.Kinds {
		if n := removed[kind]; n > 0 {
			log.Printf("    %s: %d", kind, n)
		}
	}
}
