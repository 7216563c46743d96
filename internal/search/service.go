package search

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/collectivemind/assistant/config"
)

// Embedder produces a fixed-dimension vector for a piece of text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Service ties the query builder, the engine and the personalizer together.
type Service struct {
	engine   Engine
	embedder Embedder
	cache    *EmbedCache
	builder  QueryBuilder
	cfg      config.SearchConfig
	logger   *log.Logger
	now      func() time.Time
}

// NewService builds the search service. cache may be nil when redis is not
// configured; embeddings are then computed on every query.
func NewService(engine Engine, embedder Embedder, cache *EmbedCache, cfg config.SearchConfig, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(log.Writer(), "[SEARCH] ", log.LstdFlags)
	}
	return &Service{
		engine:   engine,
		embedder: embedder,
		cache:    cache,
		builder:  NewQueryBuilder(cfg.LexicalWeight, cfg.SemanticWeight, cfg.MaxPageSize*3),
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Search runs the full pipeline: embed, build the hybrid query, search every
// requested kind, fuse, personalize, paginate. It returns the page plus the
// total number of fused results.
func (s *Service) Search(ctx context.Context, q Query) ([]RankedResult, int, error) {
	if q.Text == "" {
		return nil, 0, fmt.Errorf("empty query text")
	}
	if q.PageSize <= 0 || q.PageSize > s.cfg.MaxPageSize {
		q.PageSize = s.cfg.DefaultPageSize
	}
	if q.Page < 1 {
		q.Page = 1
	}

	embedding, err := s.queryEmbedding(ctx, q.Text)
	if err != nil {
		// lexical-only retrieval still works without the semantic signal
		s.logger.Printf("query embedding unavailable, lexical only: %v", err)
		embedding = nil
	}
	hq := s.builder.Build(q, embedding)

	kinds := q.Filters.ContentTypes
	if len(kinds) == 0 {
		kinds = AllKinds()
	}
	perKind := make([][]Candidate, 0, len(kinds))
	for _, kind := range kinds {
		hits, err := s.engine.Search(ctx, kind, hq)
		if err != nil {
			return nil, 0, fmt.Errorf("searching %s: %w", kind, err)
		}
		perKind = append(perKind, hits)
	}

	fused := Fuse(perKind...)
	ranked := Personalize(fused, q.Requester, s.now())
	total := len(ranked)
	return Paginate(ranked, q.Page, q.PageSize), total, nil
}

func (s *Service) queryEmbedding(ctx context.Context, text string) ([]float32, error) {
	if s.embedder == nil {
		return nil, fmt.Errorf("no embedder configured")
	}
	if s.cache != nil {
		if vec, ok := s.cache.Get(ctx, text); ok {
			return vec, nil
		}
	}
	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Put(ctx, text, vec)
	}
	return vec, nil
}
