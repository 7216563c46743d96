package ingest

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/collectivemind/assistant/internal/search"
	"github.com/collectivemind/assistant/internal/store"
	"github.com/collectivemind/assistant/provider"
)

// embedBatchSize limits texts per embedding API call.
const embedBatchSize = 64

// Reindex loads the full corpus from Postgres into the retrieval engine.
// prov may be nil; documents are then indexed without vectors and only the
// lexical signal applies.
func Reindex(ctx context.Context, st *store.Store, engine *search.BleveEngine, prov provider.Provider, logger *log.Logger) error {
	if logger == nil {
		logger = log.New(log.Writer(), "[INDEX] ", log.LstdFlags)
	}
	cands, err := collect(ctx, st)
	if err != nil {
		return err
	}
	vectors, err := embedAll(ctx, prov, cands)
	if err != nil {
		// lexical-only indexing still serves queries
		logger.Printf("embedding corpus failed, indexing without vectors: %v", err)
		vectors = nil
	}
	for i, cand := range cands {
		var vec []float32
		if i < len(vectors) {
			vec = vectors[i]
		}
		if err := engine.Index(cand, vec); err != nil {
			return fmt.Errorf("indexing %s %s: %w", cand.Kind, cand.ID, err)
		}
	}
	logger.Printf("indexed %d items (documents=%d messages=%d people=%d topics=%d)",
		len(cands),
		engine.Count(search.KindDocument), engine.Count(search.KindMessage),
		engine.Count(search.KindPerson), engine.Count(search.KindTopic))
	return nil
}

func collect(ctx context.Context, st *store.Store) ([]search.Candidate, error) {
	var cands []search.Candidate

	docs, err := st.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	for _, d := range docs {
		cands = append(cands, search.Candidate{
			ID:              d.ID,
			Kind:            search.KindDocument,
			Title:           d.Title,
			Body:            d.Body,
			Team:            d.Team,
			Author:          d.Author,
			Confidentiality: d.Confidentiality,
			Timestamp:       d.UpdatedAt,
		})
	}

	msgs, err := st.ListMessages(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	for _, m := range msgs {
		cands = append(cands, search.Candidate{
			ID:        m.ID,
			Kind:      search.KindMessage,
			Title:     m.Channel,
			Body:      m.Body,
			Team:      m.Team,
			Author:    m.Author,
			Timestamp: m.SentAt,
		})
	}

	people, err := st.ListPeople(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing people: %w", err)
	}
	for _, p := range people {
		cands = append(cands, search.Candidate{
			ID:        p.ID,
			Kind:      search.KindPerson,
			Title:     p.Name,
			Body:      strings.Join(p.Interests, ", "),
			Team:      p.Team,
			Timestamp: p.UpdatedAt,
		})
	}

	topics, err := st.ListTopics(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing topics: %w", err)
	}
	for _, t := range topics {
		cands = append(cands, search.Candidate{
			ID:        t.ID,
			Kind:      search.KindTopic,
			Title:     t.Name,
			Body:      t.Description + " " + strings.Join(t.Keywords, ", "),
			Timestamp: t.UpdatedAt,
		})
	}

	return cands, nil
}

func embedAll(ctx context.Context, prov provider.Provider, cands []search.Candidate) ([][]float32, error) {
	if prov == nil || len(cands) == 0 {
		return nil, nil
	}
	out := make([][]float32, 0, len(cands))
	for start := 0; start < len(cands); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(cands) {
			end = len(cands)
		}
		texts := make([]string, 0, end-start)
		for _, c := range cands[start:end] {
			texts = append(texts, c.Title+"\n"+c.Body)
		}
		vecs, err := prov.CreateEmbedding(ctx, texts)
		if err != nil {
			return nil, err
		}
		// a short batch would shift every later candidate onto the wrong vector
		if len(vecs) != len(texts) {
			return nil, fmt.Errorf("embedding batch returned %d vectors for %d texts", len(vecs), len(texts))
		}
		out = append(out, vecs...)
	}
	return out, nil
}
