package ingest

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/collectivemind/assistant/internal/search"
	"github.com/collectivemind/assistant/internal/store"
)

type countEmbedProvider struct {
	perBatch func(n int) int
}

func (p countEmbedProvider) Generate(ctx context.Context, prompt string) (string, error) {
	return "", nil
}

func (p countEmbedProvider) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	n := len(texts)
	if p.perBatch != nil {
		n = p.perBatch(len(texts))
	}
	out := make([][]float32, n)
	for i := range out {
		out[i] = []float32{1}
	}
	return out, nil
}

func TestEmbedAllRejectsShortBatch(t *testing.T) {
	cands := []search.Candidate{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	prov := countEmbedProvider{perBatch: func(n int) int { return n - 1 }}
	if _, err := embedAll(context.Background(), prov, cands); err == nil {
		t.Fatalf("expected error when a batch returns fewer vectors than texts")
	}
}

func TestEmbedAllAlignsAcrossBatches(t *testing.T) {
	cands := make([]search.Candidate, embedBatchSize+6)
	for i := range cands {
		cands[i].ID = "c" + string(rune('a'+i%26))
	}
	vecs, err := embedAll(context.Background(), countEmbedProvider{}, cands)
	if err != nil {
		t.Fatalf("embedAll: %v", err)
	}
	if len(vecs) != len(cands) {
		t.Fatalf("got %d vectors for %d candidates", len(vecs), len(cands))
	}
}

func TestReindexLoadsAllKinds(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	now := time.Now()

	mock.ExpectQuery(`FROM documents`).WillReturnRows(
		sqlmock.NewRows([]string{"id", "title", "body", "team", "author", "content_type", "confidentiality", "tags", "updated_at"}).
			AddRow("d1", "Churn report", "why customers leave", "growth", "alice", "doc", "internal", []byte(`{churn}`), now))
	mock.ExpectQuery(`FROM messages`).WillReturnRows(
		sqlmock.NewRows([]string{"id", "channel", "team", "author", "body", "sent_at"}).
			AddRow("m1", "#growth", "growth", "bob", "churn spiked last week", now))
	mock.ExpectQuery(`FROM people`).WillReturnRows(
		sqlmock.NewRows([]string{"id", "name", "team", "role", "interests", "updated_at"}).
			AddRow("p1", "Alice", "data", "scientist", []byte(`{"churn modeling"}`), now))
	mock.ExpectQuery(`FROM topics`).WillReturnRows(
		sqlmock.NewRows([]string{"id", "name", "description", "teams", "keywords", "updated_at"}).
			AddRow("t1", "Churn", "customer churn", []byte(`{growth,data}`), []byte(`{churn,retention}`), now))

	engine, err := search.NewBleveEngine()
	if err != nil {
		t.Fatalf("NewBleveEngine: %v", err)
	}
	st := &store.Store{DB: db}
	logger := log.New(io.Discard, "", 0)

	if err := Reindex(context.Background(), st, engine, nil, logger); err != nil {
		t.Fatalf("Reindex: %v", err)
	}
	for _, kind := range search.AllKinds() {
		if engine.Count(kind) != 1 {
			t.Fatalf("%s count = %d, want 1", kind, engine.Count(kind))
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}

	// the loaded corpus answers lexical queries
	hq := search.HybridQuery{Text: "churn", LexicalWeight: 0.6, SemanticWeight: 0.4, Limit: 10}
	hits, err := engine.Search(context.Background(), search.KindDocument, hq)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "d1" {
		t.Fatalf("indexed document not retrievable: %v", hits)
	}
}
