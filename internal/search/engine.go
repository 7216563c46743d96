package search

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/blevesearch/bleve"
	"github.com/blevesearch/bleve/search/query"
)

// Engine is the retrieval black box: it owns index storage and per-signal
// score computation. The service layer owns query construction and fusion.
type Engine interface {
	Search(ctx context.Context, kind SourceKind, hq HybridQuery) ([]Candidate, error)
}

// indexedDoc is the shape handed to bleve for the lexical signal.
type indexedDoc struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Name  string `json:"name"`
}

type collection struct {
	index   bleve.Index
	docs    map[string]Candidate
	vectors map[string][]float32
	order   []string // insertion order, for deterministic iteration
}

// BleveEngine keeps one mem-only bleve index plus an in-memory vector table
// per source kind. Suitable for corpora that fit in memory; the interface
// leaves room for an external engine.
type BleveEngine struct {
	mu          sync.RWMutex
	collections map[SourceKind]*collection
}

// NewBleveEngine creates empty collections for every source kind.
func NewBleveEngine() (*BleveEngine, error) {
	e := &BleveEngine{collections: make(map[SourceKind]*collection)}
	for _, kind := range AllKinds() {
		idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("creating %s index: %w", kind, err)
		}
		e.collections[kind] = &collection{
			index:   idx,
			docs:    make(map[string]Candidate),
			vectors: make(map[string][]float32),
		}
	}
	return e, nil
}

// Index adds or replaces a candidate in its kind's collection. A nil vector
// means the document only participates in the lexical signal.
func (e *BleveEngine) Index(cand Candidate, vector []float32) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	col, ok := e.collections[cand.Kind]
	if !ok {
		return fmt.Errorf("unknown source kind: %s", cand.Kind)
	}
	name := ""
	if cand.Kind == KindPerson || cand.Kind == KindTopic {
		name = cand.Title
	}
	if err := col.index.Index(cand.ID, indexedDoc{Title: cand.Title, Body: cand.Body, Name: name}); err != nil {
		return err
	}
	if _, seen := col.docs[cand.ID]; !seen {
		col.order = append(col.order, cand.ID)
	}
	col.docs[cand.ID] = cand
	if vector != nil {
		col.vectors[cand.ID] = vector
	}
	return nil
}

// Count returns the number of indexed documents for a kind.
func (e *BleveEngine) Count(kind SourceKind) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if col, ok := e.collections[kind]; ok {
		return len(col.docs)
	}
	return 0
}

// Search computes both signals and combines them disjunctively: a candidate
// qualifies when the lexical clause matches or it carries an embedding, and
// scores lexicalWeight*bm25 + semanticWeight*(cosine+1). Filters are hard
// constraints applied before scoring.
func (e *BleveEngine) Search(ctx context.Context, kind SourceKind, hq HybridQuery) ([]Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	col, ok := e.collections[kind]
	if !ok {
		return nil, fmt.Errorf("unknown source kind: %s", kind)
	}

	lexical, highlights, err := col.lexicalSearch(hq)
	if err != nil {
		return nil, err
	}

	type scored struct {
		id  string
		lex float64
		vec float64
	}
	var union []scored
	seen := make(map[string]int)
	for _, id := range col.order {
		lex, lexOK := lexical[id]
		var vec float64
		vecOK := false
		if len(hq.Embedding) > 0 {
			if v, ok := col.vectors[id]; ok {
				// shift cosine by +1 to keep the signal non-negative
				vec = cosine(hq.Embedding, v) + 1.0
				vecOK = true
			}
		}
		if !lexOK && !vecOK {
			continue
		}
		seen[id] = len(union)
		union = append(union, scored{id: id, lex: lex, vec: vec})
	}

	out := make([]Candidate, 0, len(union))
	for _, s := range union {
		cand := col.docs[s.id]
		if !matchesFilters(cand, hq.Filters) {
			continue
		}
		cand.LexicalScore = s.lex
		cand.VectorScore = s.vec
		cand.Score = hq.LexicalWeight*s.lex + hq.SemanticWeight*s.vec
		if h, ok := highlights[s.id]; ok {
			cand.Highlight = h
		}
		out = append(out, cand)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if hq.Limit > 0 && len(out) > hq.Limit {
		out = out[:hq.Limit]
	}
	return out, nil
}

// lexicalSearch runs a fuzzy multi-field match (title boosted over body and
// name) and returns bm25-style scores plus highlight fragments by doc ID.
func (c *collection) lexicalSearch(hq HybridQuery) (map[string]float64, map[string]string, error) {
	if hq.Text == "" {
		return map[string]float64{}, map[string]string{}, nil
	}
	fields := []struct {
		name  string
		boost float64
	}{
		{"title", 2.0},
		{"body", 1.0},
		{"name", 1.5},
	}
	clauses := make([]query.Query, 0, len(fields))
	for _, f := range fields {
		mq := bleve.NewMatchQuery(hq.Text)
		mq.SetField(f.name)
		mq.SetBoost(f.boost)
		mq.SetFuzziness(1)
		clauses = append(clauses, mq)
	}
	limit := hq.Limit
	if limit <= 0 {
		limit = 200
	}
	size := limit * 3
	// hard filters discard hits after scoring; a truncated window could hide
	// matching candidates while slots remain, so scan the whole collection
	if !hq.Filters.empty() && len(c.docs) > size {
		size = len(c.docs)
	}
	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(clauses...), size, 0, false)
	req.Highlight = bleve.NewHighlightWithStyle("html")
	res, err := c.index.Search(req)
	if err != nil {
		return nil, nil, err
	}
	scores := make(map[string]float64, len(res.Hits))
	highlights := make(map[string]string, len(res.Hits))
	for _, hit := range res.Hits {
		scores[hit.ID] = hit.Score
		for _, frags := range hit.Fragments {
			if len(frags) > 0 {
				highlights[hit.ID] = frags[0]
				break
			}
		}
	}
	return scores, highlights, nil
}

func matchesFilters(cand Candidate, f Filters) bool {
	if len(f.Teams) > 0 && !containsString(f.Teams, cand.Team) {
		return false
	}
	if len(f.ContentTypes) > 0 {
		found := false
		for _, k := range f.ContentTypes {
			if k == cand.Kind {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.DateFrom != nil && cand.Timestamp.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && cand.Timestamp.After(*f.DateTo) {
		return false
	}
	if len(f.Confidentiality) > 0 && cand.Confidentiality != "" && !containsString(f.Confidentiality, cand.Confidentiality) {
		return false
	}
	return true
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		ai := float64(a[i])
		bi := float64(b[i])
		dot += ai * bi
		na += ai * ai
		nb += bi * bi
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
