package database

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"paper-rag/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultDimensions matches nomic-embed-text
const DefaultDimensions = 768

// Pool is the subset of pgxpool.Pool the store uses. pgxmock pools satisfy it.
type Pool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// DB represents the database connection
type DB struct {
	Pool       Pool
	Dimensions int
}

// DocumentInfo describes one indexed paper
type DocumentInfo struct {
	ID         uuid.UUID
	Filename   string
	Title      string
	PageCount  int
	ChunkCount int
	IndexedAt  time.Time
}

// NewDB creates a new database connection
func NewDB(ctx context.Context, connStr string, dimensions int) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	cfg.MaxConns = 8
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewDBWithPool(pool, dimensions), nil
}

// NewDBWithPool wraps an existing pool
func NewDBWithPool(pool Pool, dimensions int) *DB {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &DB{Pool: pool, Dimensions: dimensions}
}

// Initialize sets up the database tables and indices
func (db *DB) Initialize(ctx context.Context) error {
	statements := []struct {
		what string
		sql  string
	}{
		{"vector extension", `CREATE EXTENSION IF NOT EXISTS vector`},
		{"documents table", `
			CREATE TABLE IF NOT EXISTS documents (
				id UUID PRIMARY KEY,
				filename TEXT NOT NULL UNIQUE,
				title TEXT NOT NULL DEFAULT '',
				author TEXT NOT NULL DEFAULT '',
				page_count INTEGER NOT NULL DEFAULT 0,
				chunk_count INTEGER NOT NULL DEFAULT 0,
				indexed_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`},
		{"text_chunks table", fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS text_chunks (
				document_id UUID NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
				sequence_index INTEGER NOT NULL,
				chunk_id TEXT NOT NULL,
				content TEXT NOT NULL,
				length INTEGER NOT NULL,
				paragraph_count INTEGER NOT NULL,
				ph TEXT[],
				water_activity TEXT[],
				organisms TEXT[],
				embedding vector(%d) NOT NULL,
				PRIMARY KEY (document_id, sequence_index)
			)`, db.Dimensions)},
		{"vector index", `
			CREATE INDEX IF NOT EXISTS text_chunks_embedding_idx ON text_chunks
			USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)`},
		{"organisms index", `
			CREATE INDEX IF NOT EXISTS text_chunks_organisms_idx ON text_chunks USING GIN (organisms)`},
	}

	for _, stmt := range statements {
		if _, err := db.Pool.Exec(ctx, stmt.sql); err != nil {
			return fmt.Errorf("failed to create %s: %w", stmt.what, err)
		}
	}
	return nil
}

// ReplaceDocumentChunks stores doc and its chunks, replacing whatever was
// stored for the same filename, in one transaction
func (db *DB) ReplaceDocumentChunks(ctx context.Context, doc models.Document, chunks []models.TextChunk) (uuid.UUID, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	docID, err := db.replaceChunks(ctx, tx, doc, chunks)
	if err != nil {
		_ = tx.Rollback(ctx)
		return uuid.Nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("failed to commit chunks for %s: %w", doc.Filename, err)
	}
	return docID, nil
}

func (db *DB) replaceChunks(ctx context.Context, tx pgx.Tx, doc models.Document, chunks []models.TextChunk) (uuid.UUID, error) {
	var docID uuid.UUID
	err := tx.QueryRow(ctx, `
		INSERT INTO documents (id, filename, title, author, page_count, chunk_count)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (filename) DO UPDATE SET
			title = EXCLUDED.title,
			author = EXCLUDED.author,
			page_count = EXCLUDED.page_count,
			chunk_count = EXCLUDED.chunk_count,
			indexed_at = now()
		RETURNING id
	`, uuid.New(), doc.Filename, doc.Title, doc.Author, len(doc.Pages), len(chunks)).Scan(&docID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to upsert document %s: %w", doc.Filename, err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM text_chunks WHERE document_id = $1`, docID); err != nil {
		return uuid.Nil, fmt.Errorf("failed to delete old chunks for %s: %w", doc.Filename, err)
	}

	for _, chunk := range chunks {
		if len(chunk.Embedding) != db.Dimensions {
			return uuid.Nil, fmt.Errorf("chunk %s has %d dimensions, expected %d", chunk.ID, len(chunk.Embedding), db.Dimensions)
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO text_chunks (
				document_id, sequence_index, chunk_id, content, length,
				paragraph_count, ph, water_activity, organisms, embedding
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::vector)
		`,
			docID,
			chunk.Index,
			chunk.ID,
			chunk.Content,
			chunk.Length,
			chunk.ParagraphCount,
			chunk.Metadata.PH,
			chunk.Metadata.WaterActivity,
			chunk.Metadata.Organisms,
			vectorLiteral(chunk.Embedding))
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to insert chunk %s: %w", chunk.ID, err)
		}
	}

	return docID, nil
}

// QuerySimilar finds chunks similar to the query embedding, optionally
// restricted to one source filename
func (db *DB) QuerySimilar(ctx context.Context, embedding []float64, limit int, source string) ([]models.TextChunk, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT c.chunk_id, c.sequence_index, c.content, c.length, c.paragraph_count,
		       d.filename, d.title, d.author, d.page_count,
		       c.ph, c.water_activity, c.organisms,
		       1 - (c.embedding <=> $1::vector) AS similarity
		FROM text_chunks c
		JOIN documents d ON d.id = c.document_id
		WHERE $2 = '' OR d.filename = $2
		ORDER BY c.embedding <=> $1::vector
		LIMIT $3
	`, vectorLiteral(embedding), source, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query similar chunks: %w", err)
	}
	defer rows.Close()

	var chunks []models.TextChunk
	for rows.Next() {
		var chunk models.TextChunk
		if err := rows.Scan(
			&chunk.ID,
			&chunk.Index,
			&chunk.Content,
			&chunk.Length,
			&chunk.ParagraphCount,
			&chunk.Metadata.Source,
			&chunk.Metadata.Title,
			&chunk.Metadata.Author,
			&chunk.Metadata.PageCount,
			&chunk.Metadata.PH,
			&chunk.Metadata.WaterActivity,
			&chunk.Metadata.Organisms,
			&chunk.Score); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		chunks = append(chunks, chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return chunks, nil
}

// ListDocuments retrieves every indexed paper ordered by filename
func (db *DB) ListDocuments(ctx context.Context) ([]DocumentInfo, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, filename, title, page_count, chunk_count, indexed_at
		FROM documents
		ORDER BY filename
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []DocumentInfo
	for rows.Next() {
		var d DocumentInfo
		if err := rows.Scan(&d.ID, &d.Filename, &d.Title, &d.PageCount, &d.ChunkCount, &d.IndexedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return docs, nil
}

// Close closes the database connection
func (db *DB) Close() {
	db.Pool.Close()
}

// vectorLiteral renders v in pgvector's text format, e.g. "[0.1,0.2]"
func vectorLiteral(v []float64) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	}
	b.WriteByte(']')
	return b.String()
}
