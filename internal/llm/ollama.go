package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"paper-rag/internal/models"

	"github.com/ollama/ollama/api"
	"github.com/ollama/ollama/envconfig"
)

const noAnswer = "I don't have enough information in the indexed papers to answer that question."

// OllamaLLM handles interactions with the Ollama LLM API
type OllamaLLM struct {
	Client *api.Client
	Model  string
}

// NewOllamaLLM creates a new Ollama LLM client. An empty host falls back to
// OLLAMA_HOST or the local default.
func NewOllamaLLM(host string, model string) (*OllamaLLM, error) {
	hostURL := envconfig.Host()
	if host != "" {
		u, err := url.Parse(host)
		if err != nil {
			return nil, fmt.Errorf("invalid ollama host %q: %w", host, err)
		}
		hostURL = u
	}

	return &OllamaLLM{
		Client: api.NewClient(hostURL, http.DefaultClient),
		Model:  model,
	}, nil
}

// GeneratePrompt creates a prompt for the LLM with the retrieved chunks as context
func (o *OllamaLLM) GeneratePrompt(query string, contexts []models.TextChunk) string {
	var promptBuilder strings.Builder

	promptBuilder.WriteString("You are a research assistant for food microbiology literature. ")
	promptBuilder.WriteString("Answer the question using only the excerpts from scientific papers below. ")
	promptBuilder.WriteString("Cite the source paper for every claim, and report numeric conditions (pH, water activity, temperature) exactly as written. ")
	promptBuilder.WriteString("If the answer is not in the excerpts, say '" + noAnswer + "'\n\n")

	promptBuilder.WriteString("Excerpts:\n")
	for i, c := range contexts {
		source := c.Metadata.Source
		if c.Metadata.Title != "" {
			source = fmt.Sprintf("%s, %q", source, c.Metadata.Title)
		}
		fmt.Fprintf(&promptBuilder, "Excerpt %d [%s, chunk %d]:\n", i+1, source, c.Index)
		promptBuilder.WriteString(c.Content)
		promptBuilder.WriteString("\n\n")
	}

	promptBuilder.WriteString("Question: " + query + "\n\n")
	promptBuilder.WriteString("Answer: ")

	return promptBuilder.String()
}

// GenerateResponse generates a response from the LLM
func (o *OllamaLLM) GenerateResponse(ctx context.Context, prompt string) (string, error) {
	req := api.GenerateRequest{
		Model:  o.Model,
		Prompt: prompt,
		Options: map[string]interface{}{
			"temperature": 0.1,
			"num_predict": 1024,
		},
	}

	var responseBuilder strings.Builder

	err := o.Client.Generate(ctx, &req, func(resp api.GenerateResponse) error {
		_, err := responseBuilder.WriteString(resp.Response)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}

	return strings.TrimSpace(responseBuilder.String()), nil
}

// Answer answers a query using the LLM and context. Without context the
// model is not consulted.
func (o *OllamaLLM) Answer(ctx context.Context, query string, contexts []models.TextChunk) (*models.Response, error) {
	timestamp := time.Now().Format(time.RFC3339)
	if len(contexts) == 0 {
		return &models.Response{Answer: noAnswer, Timestamp: timestamp}, nil
	}

	answer, err := o.GenerateResponse(ctx, o.GeneratePrompt(query, contexts))
	if err != nil {
		return nil, err
	}

	return &models.Response{
		Answer:    answer,
		Sources:   contexts,
		Timestamp: timestamp,
	}, nil
}
