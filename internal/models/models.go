package models

// Document is a single source paper as handed to the chunking pipeline
type Document struct {
	Filename string         `json:"filename"`
	RawText  string         `json:"raw_text"`
	Title    string         `json:"title,omitempty"`
	Author   string         `json:"author,omitempty"`
	Pages    []PageMetadata `json:"pages,omitempty"`
}

// PageMetadata describes one extracted page
type PageMetadata struct {
	Number    int `json:"number"`
	CharCount int `json:"char_count"`
}

// TextChunk represents a chunk of text from a paper
type TextChunk struct {
	ID             string    `json:"id"`
	Index          int       `json:"sequence_index"`
	Content        string    `json:"text"`
	Length         int       `json:"length"`
	ParagraphCount int       `json:"paragraph_count"`
	Metadata       Metadata  `json:"metadata"`
	Embedding      []float64 `json:"embedding,omitempty"`

	// Score is the cosine similarity to the query, set on retrieval only
	Score float64 `json:"score,omitempty"`
}

// Metadata contains information merged into a chunk after chunking
type Metadata struct {
	Source        string   `json:"source,omitempty"`
	Title         string   `json:"title,omitempty"`
	Author        string   `json:"author,omitempty"`
	PageCount     int      `json:"page_count,omitempty"`
	PH            []string `json:"ph,omitempty"`
	WaterActivity []string `json:"water_activity,omitempty"`
	Organisms     []string `json:"organisms,omitempty"`
}

// Response represents the response from the LLM
type Response struct {
	Answer    string      `json:"answer"`
	Sources   []TextChunk `json:"sources"`
	Timestamp string      `json:"timestamp"`
}
