package gateway

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/collectivemind/assistant/internal/store"
)

// Corpus is the slice of the store the built-in tools read from.
type Corpus interface {
	ListPeople(ctx context.Context) ([]store.Person, error)
	ListTopics(ctx context.Context) ([]store.Topic, error)
	RecentDocuments(ctx context.Context, since time.Time) ([]store.Document, error)
}

// Generator produces free text from a prompt; used by drafting tools.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// NewDefaultGateway registers the built-in organizational tools.
func NewDefaultGateway(corpus Corpus, gen Generator, logger *log.Logger) *Gateway {
	g := New(logger)
	g.Register("find_collaboration_opportunities", findCollaborationOpportunities(corpus))
	g.Register("detect_topic_overlap", detectTopicOverlap(corpus))
	g.Register("summarize_activity", summarizeActivity(corpus))
	g.Register("draft_action", draftAction(gen))
	return g
}

func requesterTeam(args map[string]interface{}) string {
	req, _ := args["requester"].(map[string]interface{})
	team, _ := req["team"].(string)
	return team
}

// findCollaborationOpportunities surfaces people on other teams whose
// interests overlap the query terms.
func findCollaborationOpportunities(corpus Corpus) Tool {
	return func(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
		query, _ := args["query"].(string)
		team := requesterTeam(args)
		people, err := corpus.ListPeople(ctx)
		if err != nil {
			return nil, err
		}
		terms := tokenize(query)
		var opportunities []map[string]interface{}
		for _, p := range people {
			if team != "" && p.Team == team {
				continue
			}
			matched := matchTerms(p.Interests, terms)
			if len(matched) == 0 {
				continue
			}
			opportunities = append(opportunities, map[string]interface{}{
				"person":           p.Name,
				"team":             p.Team,
				"role":             p.Role,
				"shared_interests": matched,
			})
		}
		return map[string]interface{}{"opportunities": opportunities}, nil
	}
}

// detectTopicOverlap finds topics whose keywords hit the query and which
// span more than one team.
func detectTopicOverlap(corpus Corpus) Tool {
	return func(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
		query, _ := args["query"].(string)
		topics, err := corpus.ListTopics(ctx)
		if err != nil {
			return nil, err
		}
		terms := tokenize(query)
		var overlaps []map[string]interface{}
		for _, t := range topics {
			if len(t.Teams) < 2 {
				continue
			}
			matched := matchTerms(append(t.Keywords, t.Name), terms)
			if len(matched) == 0 {
				continue
			}
			overlaps = append(overlaps, map[string]interface{}{
				"topic":    t.Name,
				"teams":    t.Teams,
				"keywords": matched,
			})
		}
		return map[string]interface{}{"overlaps": overlaps}, nil
	}
}

// summarizeActivity reports per-team document activity over the last month.
func summarizeActivity(corpus Corpus) Tool {
	return func(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
		docs, err := corpus.RecentDocuments(ctx, time.Now().Add(-30*24*time.Hour))
		if err != nil {
			return nil, err
		}
		byTeam := make(map[string]int)
		for _, d := range docs {
			byTeam[d.Team]++
		}
		return map[string]interface{}{
			"recent_documents": len(docs),
			"activity_by_team": byTeam,
			"window_days":      30,
		}, nil
	}
}

// draftAction asks the generation capability for a short action item draft.
func draftAction(gen Generator) Tool {
	return func(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
		if gen == nil {
			return nil, fmt.Errorf("no generator configured")
		}
		query, _ := args["query"].(string)
		prompt := fmt.Sprintf("Draft a single concrete action item for the following request. Reply with one sentence.\n\nRequest: %s", query)
		text, err := gen.Generate(ctx, prompt)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"action": strings.TrimSpace(text)}, nil
	}
}

func tokenize(s string) []string {
	fields := strings.Fields(strings.ToLower(s))
	out := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, ".,;:!?\"'")
		if len(f) > 2 {
			out = append(out, f)
		}
	}
	return out
}

func matchTerms(values, terms []string) []string {
	var matched []string
	for _, v := range values {
		lv := strings.ToLower(v)
		for _, t := range terms {
			if strings.Contains(lv, t) {
				matched = append(matched, v)
				break
			}
		}
	}
	return matched
}
