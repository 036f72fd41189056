package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"paper-rag/internal/config"
	"paper-rag/internal/database"
	"paper-rag/internal/embedding"
	"paper-rag/internal/llm"
	"paper-rag/internal/models"
)

const (
	DefaultContextLimit = 5
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to YAML config file")
	envFile := flag.String("env", ".env", "Path to .env file")
	pgConnString := flag.String("pg", "", "PostgreSQL connection string")
	ollamaHost := flag.String("ollama", "", "Ollama host (default uses OLLAMA_HOST env var)")
	model := flag.String("model", "", "Ollama model for answering")
	embeddingModel := flag.String("embedding-model", "", "Ollama model for embeddings")
	contextLimit := flag.Int("context", DefaultContextLimit, "Number of similar chunks to retrieve")
	interactive := flag.Bool("i", false, "Run in interactive mode")
	queryFlag := flag.String("q", "", "Query to answer (non-interactive mode)")
	sourceFilter := flag.String("source", "", "Restrict retrieval to one paper (filename)")
	listDocuments := flag.Bool("list", false, "List all indexed papers")
	flag.Parse()

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
			cfg.AnswerModel = *model
		case "embedding-model":
			cfg.EmbeddingModel = *embeddingModel
		}
	})

	ctx := context.Background()

	db, err := database.NewDB(ctx, cfg.DatabaseURL, cfg.EmbeddingDimensions)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if *listDocuments {
		if err := printDocuments(ctx, db); err != nil {
			log.Fatalf("Failed to list papers: %v", err)
		}
		return
	}

	embedder, err := embedding.NewOllamaEmbedder(cfg.OllamaHost, cfg.EmbeddingModel, cfg.Logger())
	if err != nil {
		log.Fatalf("Failed to create embedder: %v", err)
	}

	llmClient, err := llm.NewOllamaLLM(cfg.OllamaHost, cfg.AnswerModel)
	if err != nil {
		log.Fatalf("Failed to create LLM client: %v", err)
	}

	qa := &assistant{db: db, embedder: embedder, llm: llmClient, contextLimit: *contextLimit}

	if *interactive {
		qa.runInteractive(ctx, *sourceFilter)
		return
	}

	if *queryFlag == "" {
		log.Fatal("Query is required in non-interactive mode. Use -q 'your question'")
	}

	answer, err := qa.processQuery(ctx, *queryFlag, *sourceFilter)
	if err != nil {
		log.Fatalf("Failed to process query: %v", err)
	}

	fmt.Println(formatAnswer(answer))
}

type assistant struct {
	db           *database.DB
	embedder     *embedding.OllamaEmbedder
	llm          *llm.OllamaLLM
	contextLimit int
}

func (a *assistant) runInteractive(ctx context.Context, sourceFilter string) {
	scanner := bufio.NewScanner(os.Stdin)

	fmt.Println("Paper Assistant - Ask questions about the indexed papers (type 'exit' to quit)")
	fmt.Println("Commands: /source <filename> to restrict retrieval, /source to clear, /list to list papers")
	if sourceFilter != "" {
		fmt.Printf("Restricting retrieval to: %s\n", sourceFilter)
	}

	for {
		fmt.Print("\n> ")
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		lower := strings.ToLower(input)
		switch {
		case lower == "exit" || lower == "quit":
			return
		case input == "":
			continue
		case lower == "/source" || strings.HasPrefix(lower, "/source "):
			sourceFilter = strings.TrimSpace(input[len("/source"):])
			if sourceFilter == "" {
				fmt.Println("Source filter cleared")
			} else {
				fmt.Printf("Source filter set to: %s\n", sourceFilter)
			}
			continue
		case lower == "/list":
			if err := printDocuments(ctx, a.db); err != nil {
				fmt.Printf("Error: %v\n", err)
			}
			continue
		}

		fmt.Print("Searching papers... ")

		answer, err := a.processQuery(ctx, input, sourceFilter)
		if err != nil {
			fmt.Printf("\rError: %v\n", err)
			continue
		}

		fmt.Println("\r" + formatAnswer(answer))
	}
}

func (a *assistant) processQuery(ctx context.Context, query, sourceFilter string) (*models.Response, error) {
	startTime := time.Now()
	queryEmbedding, err := a.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to create query embedding: %w", err)
	}

	chunks, err := a.db.QuerySimilar(ctx, queryEmbedding, a.contextLimit, sourceFilter)
	if err != nil {
		return nil, err
	}

	response, err := a.llm.Answer(ctx, query, chunks)
	if err != nil {
		return nil, fmt.Errorf("failed to generate answer: %w", err)
	}

	log.Printf("Query processed in %v", time.Since(startTime))

	return response, nil
}

func printDocuments(ctx context.Context, db *database.DB) error {
	docs, err := db.ListDocuments(ctx)
	if err != nil {
		return err
	}

	fmt.Println("Indexed papers:")
	for _, d := range docs {
		title := d.Title
		if title == "" {
			title = "untitled"
		}
		fmt.Printf("  %s (%s): %d chunks, %d pages, indexed %s\n",
			d.Filename, title, d.ChunkCount, d.PageCount, d.IndexedAt.Format(time.DateTime))
	}
	return nil
}

func formatAnswer(response *models.Response) string {
	var sb strings.Builder

	sb.WriteString(response.Answer)
	sb.WriteString("\n\n")

	if len(response.Sources) > 0 {
		sb.WriteString("Sources:\n")
		for i, source := range response.Sources {
			title := source.Metadata.Title
			if title == "" {
				title = "N/A"
			}

			sb.WriteString(fmt.Sprintf("  %d. [%s - %s, chunk %d, similarity %.2f]\n",
				i+1, source.Metadata.Source, title, source.Index, source.Score))
			if len(source.Metadata.Organisms) > 0 {
				sb.WriteString("     organisms: " + strings.Join(source.Metadata.Organisms, ", ") + "\n")
			}
		}
	}

	return sb.String()
}
