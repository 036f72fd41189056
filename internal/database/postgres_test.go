package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"paper-rag/internal/models"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewDBWithPool(mock, 3), mock
}

func testDocument() (models.Document, []models.TextChunk) {
	doc := models.Document{
		Filename: "nisin.pdf",
		Title:    "Nisin in cheese",
		Author:   "A. Author",
		Pages:    []models.PageMetadata{{Number: 1}, {Number: 2}},
	}
	chunks := []models.TextChunk{
		{
			ID: "nisin_chunk_0", Index: 0, Content: "first", Length: 5, ParagraphCount: 1,
			Metadata:  models.Metadata{PH: []string{"5.5"}},
			Embedding: []float64{0.1, 0.2, 0.3},
		},
		{
			ID: "nisin_chunk_1", Index: 1, Content: "second", Length: 6, ParagraphCount: 1,
			Metadata:  models.Metadata{Organisms: []string{"L. monocytogenes"}},
			Embedding: []float64{1, 0, -0.5},
		},
	}
	return doc, chunks
}

func TestNewDBWithPool_DefaultDimensions(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	assert.Equal(t, DefaultDimensions, NewDBWithPool(mock, 0).Dimensions)
}

func TestInitialize(t *testing.T) {
	db, mock := newMockDB(t)

	for _, stmt := range []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		"CREATE TABLE IF NOT EXISTS documents",
		"CREATE TABLE IF NOT EXISTS text_chunks",
		"text_chunks_embedding_idx",
		"text_chunks_organisms_idx",
	} {
		mock.ExpectExec(stmt).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	}

	require.NoError(t, db.Initialize(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInitialize_Error(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("CREATE EXTENSION").WillReturnError(errors.New("permission denied"))

	err := db.Initialize(context.Background())
	assert.ErrorContains(t, err, "failed to create vector extension")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceDocumentChunks(t *testing.T) {
	db, mock := newMockDB(t)
	doc, chunks := testDocument()
	docID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO documents").
		WithArgs(pgxmock.AnyArg(), "nisin.pdf", "Nisin in cheese", "A. Author", 2, 2).
		WillReturnRows(mock.NewRows([]string{"id"}).AddRow(docID))
	mock.ExpectExec("DELETE FROM text_chunks").
		WithArgs(docID).
		WillReturnResult(pgxmock.NewResult("DELETE", 4))
	mock.ExpectExec("INSERT INTO text_chunks").
		WithArgs(docID, 0, "nisin_chunk_0", "first", 5, 1, []string{"5.5"}, []string(nil), []string(nil), "[0.1,0.2,0.3]").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO text_chunks").
		WithArgs(docID, 1, "nisin_chunk_1", "second", 6, 1, []string(nil), []string(nil), []string{"L. monocytogenes"}, "[1,0,-0.5]").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	id, err := db.ReplaceDocumentChunks(context.Background(), doc, chunks)
	require.NoError(t, err)
	assert.Equal(t, docID, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceDocumentChunks_RollsBackOnDimensionMismatch(t *testing.T) {
	db, mock := newMockDB(t)
	doc, chunks := testDocument()
	chunks[0].Embedding = []float64{1, 2}
	docID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO documents").
		WithArgs(pgxmock.AnyArg(), "nisin.pdf", "Nisin in cheese", "A. Author", 2, 2).
		WillReturnRows(mock.NewRows([]string{"id"}).AddRow(docID))
	mock.ExpectExec("DELETE FROM text_chunks").
		WithArgs(docID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectRollback()

	_, err := db.ReplaceDocumentChunks(context.Background(), doc, chunks)
	assert.ErrorContains(t, err, "has 2 dimensions, expected 3")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceDocumentChunks_UpsertError(t *testing.T) {
	db, mock := newMockDB(t)
	doc, chunks := testDocument()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO documents").WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := db.ReplaceDocumentChunks(context.Background(), doc, chunks)
	assert.ErrorContains(t, err, "failed to upsert document nisin.pdf")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceDocumentChunks_BeginError(t *testing.T) {
	db, mock := newMockDB(t)
	doc, chunks := testDocument()

	mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

	_, err := db.ReplaceDocumentChunks(context.Background(), doc, chunks)
	assert.ErrorContains(t, err, "failed to begin transaction")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuerySimilar(t *testing.T) {
	db, mock := newMockDB(t)

	rows := mock.NewRows([]string{
		"chunk_id", "sequence_index", "content", "length", "paragraph_count",
		"filename", "title", "author", "page_count",
		"ph", "water_activity", "organisms", "similarity",
	}).
		AddRow("nisin_chunk_1", 1, "second", 6, 1, "nisin.pdf", "Nisin in cheese", "A. Author", 2,
			[]string{}, []string{"0.97"}, []string{"L. monocytogenes"}, 0.91).
		AddRow("nisin_chunk_0", 0, "first", 5, 1, "nisin.pdf", "Nisin in cheese", "A. Author", 2,
			[]string{"5.5"}, []string{}, []string{}, 0.42)
	mock.ExpectQuery("FROM text_chunks c").
		WithArgs("[0.1,0.2,0.3]", "nisin.pdf", 2).
		WillReturnRows(rows)

	chunks, err := db.QuerySimilar(context.Background(), []float64{0.1, 0.2, 0.3}, 2, "nisin.pdf")
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	assert.Equal(t, "nisin_chunk_1", chunks[0].ID)
	assert.Equal(t, 1, chunks[0].Index)
	assert.Equal(t, "nisin.pdf", chunks[0].Metadata.Source)
	assert.Equal(t, []string{"0.97"}, chunks[0].Metadata.WaterActivity)
	assert.InDelta(t, 0.91, chunks[0].Score, 1e-9)
	assert.Equal(t, []string{"5.5"}, chunks[1].Metadata.PH)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuerySimilar_Error(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("FROM text_chunks c").WillReturnError(errors.New("relation does not exist"))

	_, err := db.QuerySimilar(context.Background(), []float64{1, 2, 3}, 5, "")
	assert.ErrorContains(t, err, "failed to query similar chunks")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListDocuments(t *testing.T) {
	db, mock := newMockDB(t)
	id := uuid.New()
	indexed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM documents").
		WillReturnRows(mock.NewRows([]string{"id", "filename", "title", "page_count", "chunk_count", "indexed_at"}).
			AddRow(id, "nisin.pdf", "Nisin in cheese", 12, 30, indexed))

	docs, err := db.ListDocuments(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []DocumentInfo{{
		ID: id, Filename: "nisin.pdf", Title: "Nisin in cheese",
		PageCount: 12, ChunkCount: 30, IndexedAt: indexed,
	}}, docs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVectorLiteral(t *testing.T) {
	assert.Equal(t, "[]", vectorLiteral(nil))
	assert.Equal(t, "[0.25,-1,3e-07]", vectorLiteral([]float64{0.25, -1, 3e-7}))
}
