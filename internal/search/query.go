package search

// HybridQuery is the structured retrieval request handed to the engine.
// The two signals combine disjunctively: a candidate qualifies when either
// the lexical clause matches or it carries an embedding, and its engine
// score is lexicalWeight*bm25 + semanticWeight*(cosine+1).
type HybridQuery struct {
	Text           string
	Embedding      []float32
	LexicalWeight  float64
	SemanticWeight float64
	Filters        Filters
	Limit          int
}

// QueryBuilder turns a user query plus a precomputed embedding into a
// HybridQuery with the configured signal weights.
type QueryBuilder struct {
	LexicalWeight  float64
	SemanticWeight float64
	Limit          int
}

// NewQueryBuilder applies the default 0.6/0.4 split when weights are unset.
func NewQueryBuilder(lexical, semantic float64, limit int) QueryBuilder {
	if lexical <= 0 {
		lexical = 0.6
	}
	if semantic <= 0 {
		semantic = 0.4
	}
	if limit <= 0 {
		limit = 200
	}
	return QueryBuilder{LexicalWeight: lexical, SemanticWeight: semantic, Limit: limit}
}

// Build assembles the retrieval request. Filters pass through as hard
// constraints; they are never folded into the score.
func (b QueryBuilder) Build(q Query, embedding []float32) HybridQuery {
	return HybridQuery{
		Text:           q.Text,
		Embedding:      embedding,
		LexicalWeight:  b.LexicalWeight,
		SemanticWeight: b.SemanticWeight,
		Filters:        q.Filters,
		Limit:          b.Limit,
	}
}
