package chunker

import "paper-rag/internal/models"

// Stats summarises a chunk list
type Stats struct {
	Count             int     `json:"count"`
	AverageLength     float64 `json:"average_length"`
	MinLength         int     `json:"min_length"`
	MaxLength         int     `json:"max_length"`
	Documents         int     `json:"documents"`
	ChunksPerDocument float64 `json:"chunks_per_document"`
	AverageParagraphs float64 `json:"average_paragraphs"`
}

// Summarize computes length statistics over chunks. Documents are counted by
// Metadata.Source and only when the caller has set it. An empty list yields
// the zero Stats.
func Summarize(chunks []models.TextChunk) Stats {
	var stats Stats
	if len(chunks) == 0 {
		return stats
	}

	sources := make(map[string]struct{})
	total, paragraphs := 0, 0
	stats.MinLength = chunks[0].Length
	for _, chunk := range chunks {
		total += chunk.Length
		paragraphs += chunk.ParagraphCount
		if chunk.Length < stats.MinLength {
			stats.MinLength = chunk.Length
		}
		if chunk.Length > stats.MaxLength {
			stats.MaxLength = chunk.Length
		}
		if chunk.Metadata.Source != "" {
			sources[chunk.Metadata.Source] = struct{}{}
		}
	}

	stats.Count = len(chunks)
	stats.AverageLength = float64(total) / float64(len(chunks))
	stats.AverageParagraphs = float64(paragraphs) / float64(len(chunks))
	stats.Documents = len(sources)
	if stats.Documents > 0 {
		stats.ChunksPerDocument = float64(stats.Count) / float64(stats.Documents)
	}
	return stats
}
