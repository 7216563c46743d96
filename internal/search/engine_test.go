package search

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"
)

func newTestEngine(t *testing.T) *BleveEngine {
	t.Helper()
	e, err := NewBleveEngine()
	if err != nil {
		t.Fatalf("NewBleveEngine: %v", err)
	}
	return e
}

func mustIndex(t *testing.T, e *BleveEngine, cand Candidate, vec []float32) {
	t.Helper()
	if err := e.Index(cand, vec); err != nil {
		t.Fatalf("Index %s: %v", cand.ID, err)
	}
}

func TestEngineLexicalOnly(t *testing.T) {
	e := newTestEngine(t)
	mustIndex(t, e, Candidate{ID: "d1", Kind: KindDocument, Title: "Kubernetes migration", Body: "cluster upgrade runbook"}, nil)
	mustIndex(t, e, Candidate{ID: "d2", Kind: KindDocument, Title: "Pricing review", Body: "billing changes"}, nil)

	hq := HybridQuery{Text: "kubernetes", LexicalWeight: 0.6, SemanticWeight: 0.4, Limit: 10}
	hits, err := e.Search(context.Background(), KindDocument, hq)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "d1" {
		t.Fatalf("expected only d1, got %v", hits)
	}
	if hits[0].LexicalScore <= 0 {
		t.Fatalf("lexical score not set: %v", hits[0].LexicalScore)
	}
	if hits[0].VectorScore != 0 {
		t.Fatalf("vector score should be zero without embeddings: %v", hits[0].VectorScore)
	}
	want := 0.6 * hits[0].LexicalScore
	if math.Abs(hits[0].Score-want) > 1e-9 {
		t.Fatalf("score = %v, want %v", hits[0].Score, want)
	}
}

func TestEngineSemanticOnlyMatch(t *testing.T) {
	e := newTestEngine(t)
	// no lexical overlap with the query, but an embedding is present
	mustIndex(t, e, Candidate{ID: "d1", Kind: KindDocument, Title: "Pricing review", Body: "billing changes"}, []float32{1, 0})
	mustIndex(t, e, Candidate{ID: "d2", Kind: KindDocument, Title: "Vacation policy", Body: "time off"}, nil)

	hq := HybridQuery{Text: "kubernetes", Embedding: []float32{1, 0}, LexicalWeight: 0.6, SemanticWeight: 0.4, Limit: 10}
	hits, err := e.Search(context.Background(), KindDocument, hq)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "d1" {
		t.Fatalf("expected the embedded doc only, got %v", hits)
	}
	// identical vectors: cosine 1, shifted to 2
	if math.Abs(hits[0].VectorScore-2.0) > 1e-9 {
		t.Fatalf("vector score = %v, want 2.0", hits[0].VectorScore)
	}
	want := 0.4 * 2.0
	if math.Abs(hits[0].Score-want) > 1e-9 {
		t.Fatalf("score = %v, want %v", hits[0].Score, want)
	}
}

func TestEngineHybridOrdering(t *testing.T) {
	e := newTestEngine(t)
	mustIndex(t, e, Candidate{ID: "both", Kind: KindDocument, Title: "Kubernetes migration", Body: "cluster upgrade"}, []float32{1, 0})
	mustIndex(t, e, Candidate{ID: "semantic", Kind: KindDocument, Title: "Pricing review", Body: "billing"}, []float32{1, 0})

	hq := HybridQuery{Text: "kubernetes", Embedding: []float32{1, 0}, LexicalWeight: 0.6, SemanticWeight: 0.4, Limit: 10}
	hits, err := e.Search(context.Background(), KindDocument, hq)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected both candidates, got %v", hits)
	}
	if hits[0].ID != "both" {
		t.Fatalf("candidate with both signals must rank first, got %s", hits[0].ID)
	}
	if hits[0].Score <= hits[1].Score {
		t.Fatalf("scores not descending: %v then %v", hits[0].Score, hits[1].Score)
	}
}

func TestEngineFiltersAreHardConstraints(t *testing.T) {
	e := newTestEngine(t)
	now := time.Now()
	mustIndex(t, e, Candidate{ID: "in", Kind: KindDocument, Title: "Kubernetes migration", Team: "platform", Timestamp: now}, nil)
	mustIndex(t, e, Candidate{ID: "wrongteam", Kind: KindDocument, Title: "Kubernetes basics", Team: "sales", Timestamp: now}, nil)
	mustIndex(t, e, Candidate{ID: "tooold", Kind: KindDocument, Title: "Kubernetes history", Team: "platform", Timestamp: now.Add(-365 * 24 * time.Hour)}, nil)
	mustIndex(t, e, Candidate{ID: "secret", Kind: KindDocument, Title: "Kubernetes secrets", Team: "platform", Confidentiality: "restricted", Timestamp: now}, nil)

	from := now.Add(-30 * 24 * time.Hour)
	hq := HybridQuery{
		Text:          "kubernetes",
		LexicalWeight: 0.6, SemanticWeight: 0.4, Limit: 10,
		Filters: Filters{
			Teams:           []string{"platform"},
			DateFrom:        &from,
			Confidentiality: []string{"internal"},
		},
	}
	hits, err := e.Search(context.Background(), KindDocument, hq)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "in" {
		ids := make([]string, 0, len(hits))
		for _, h := range hits {
			ids = append(ids, h.ID)
		}
		t.Fatalf("filters not enforced, got %v", ids)
	}
}

func TestEngineFilterScansBeyondLexicalWindow(t *testing.T) {
	e := newTestEngine(t)
	// title matches outrank the body-only match, pushing it past limit*3
	for i := 0; i < 4; i++ {
		mustIndex(t, e, Candidate{ID: fmt.Sprintf("sales%d", i), Kind: KindDocument, Title: "Kubernetes migration", Team: "sales"}, nil)
	}
	mustIndex(t, e, Candidate{ID: "hidden", Kind: KindDocument, Title: "Cluster notes", Body: "kubernetes upgrade steps", Team: "platform"}, nil)

	hq := HybridQuery{
		Text:          "kubernetes",
		LexicalWeight: 0.6, SemanticWeight: 0.4, Limit: 1,
		Filters: Filters{Teams: []string{"platform"}},
	}
	hits, err := e.Search(context.Background(), KindDocument, hq)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "hidden" {
		t.Fatalf("filtered candidate outside the unfiltered top hits was dropped: %v", hits)
	}
}

func TestEngineUnknownKind(t *testing.T) {
	e := newTestEngine(t)
	hq := HybridQuery{Text: "anything", LexicalWeight: 0.6, SemanticWeight: 0.4}
	if _, err := e.Search(context.Background(), SourceKind("bogus"), hq); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}

func TestEngineReindexReplaces(t *testing.T) {
	e := newTestEngine(t)
	mustIndex(t, e, Candidate{ID: "d1", Kind: KindDocument, Title: "Kubernetes migration"}, nil)
	mustIndex(t, e, Candidate{ID: "d1", Kind: KindDocument, Title: "Terraform migration"}, nil)
	if got := e.Count(KindDocument); got != 1 {
		t.Fatalf("Count = %d after reindexing same ID, want 1", got)
	}
	hq := HybridQuery{Text: "terraform", LexicalWeight: 0.6, SemanticWeight: 0.4, Limit: 10}
	hits, err := e.Search(context.Background(), KindDocument, hq)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].Title != "Terraform migration" {
		t.Fatalf("replacement not visible: %v", hits)
	}
}
