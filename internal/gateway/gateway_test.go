package gateway

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/collectivemind/assistant/internal/store"
)

type fakeCorpus struct {
	people []store.Person
	topics []store.Topic
	docs   []store.Document
	err    error
}

func (f *fakeCorpus) ListPeople(ctx context.Context) ([]store.Person, error) {
	return f.people, f.err
}

func (f *fakeCorpus) ListTopics(ctx context.Context) ([]store.Topic, error) {
	return f.topics, f.err
}

func (f *fakeCorpus) RecentDocuments(ctx context.Context, since time.Time) ([]store.Document, error) {
	return f.docs, f.err
}

type fakeGen struct {
	text string
	err  error
}

func (f *fakeGen) Generate(ctx context.Context, prompt string) (string, error) {
	return f.text, f.err
}

func discard() *log.Logger { return log.New(io.Discard, "", 0) }

func TestInvokeUnknownCapability(t *testing.T) {
	g := New(discard())
	_, err := g.Invoke(context.Background(), "nope", nil)
	if !errors.Is(err, ErrUnknownCapability) {
		t.Fatalf("expected ErrUnknownCapability, got %v", err)
	}
}

func TestRegisterAndInvoke(t *testing.T) {
	g := New(discard())
	g.Register("echo", func(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
		return map[string]interface{}{"got": args["x"]}, nil
	})
	out, err := g.Invoke(context.Background(), "echo", map[string]interface{}{"x": 42})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if out["got"] != 42 {
		t.Fatalf("tool output lost: %v", out)
	}
	if g.Connected() != 1 {
		t.Fatalf("Connected = %d, want 1", g.Connected())
	}
}

func TestDefaultGatewayRegistersAllTools(t *testing.T) {
	g := NewDefaultGateway(&fakeCorpus{}, &fakeGen{}, discard())
	want := []string{
		"detect_topic_overlap",
		"draft_action",
		"find_collaboration_opportunities",
		"summarize_activity",
	}
	names := g.Names()
	if len(names) != len(want) {
		t.Fatalf("registered %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("registered %v, want %v", names, want)
		}
	}
}

func TestFindCollaborationOpportunities(t *testing.T) {
	corpus := &fakeCorpus{people: []store.Person{
		{Name: "Alice", Team: "data", Role: "scientist", Interests: []string{"churn modeling", "dbt"}},
		{Name: "Bob", Team: "growth", Role: "engineer", Interests: []string{"churn modeling"}},
		{Name: "Carol", Team: "data", Role: "analyst", Interests: []string{"marketing"}},
	}}
	g := NewDefaultGateway(corpus, nil, discard())

	out, err := g.Invoke(context.Background(), "find_collaboration_opportunities", map[string]interface{}{
		"query":     "customer churn drivers",
		"requester": map[string]interface{}{"user_id": "u1", "team": "growth", "role": "manager"},
	})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	opps, _ := out["opportunities"].([]map[string]interface{})
	// Bob shares the requester's team, Carol's interests don't match
	if len(opps) != 1 || opps[0]["person"] != "Alice" {
		t.Fatalf("expected Alice only, got %v", opps)
	}
}

func TestDetectTopicOverlapRequiresMultipleTeams(t *testing.T) {
	corpus := &fakeCorpus{topics: []store.Topic{
		{Name: "Churn", Teams: []string{"growth", "data"}, Keywords: []string{"churn", "retention"}},
		{Name: "Retention emails", Teams: []string{"growth"}, Keywords: []string{"churn"}},
		{Name: "Hiring", Teams: []string{"people", "eng"}, Keywords: []string{"interviews"}},
	}}
	g := NewDefaultGateway(corpus, nil, discard())

	out, err := g.Invoke(context.Background(), "detect_topic_overlap", map[string]interface{}{
		"query": "customer churn drivers",
	})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	overlaps, _ := out["overlaps"].([]map[string]interface{})
	if len(overlaps) != 1 || overlaps[0]["topic"] != "Churn" {
		t.Fatalf("expected the cross-team churn topic only, got %v", overlaps)
	}
}

func TestSummarizeActivity(t *testing.T) {
	corpus := &fakeCorpus{docs: []store.Document{
		{ID: "d1", Team: "growth"},
		{ID: "d2", Team: "growth"},
		{ID: "d3", Team: "data"},
	}}
	g := NewDefaultGateway(corpus, nil, discard())

	out, err := g.Invoke(context.Background(), "summarize_activity", map[string]interface{}{"query": "activity"})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if out["recent_documents"] != 3 {
		t.Fatalf("recent_documents = %v, want 3", out["recent_documents"])
	}
	byTeam, _ := out["activity_by_team"].(map[string]int)
	if byTeam["growth"] != 2 || byTeam["data"] != 1 {
		t.Fatalf("activity_by_team = %v", byTeam)
	}
}

func TestDraftAction(t *testing.T) {
	g := NewDefaultGateway(&fakeCorpus{}, &fakeGen{text: "  Schedule a churn review with the data team.  "}, discard())
	out, err := g.Invoke(context.Background(), "draft_action", map[string]interface{}{"query": "churn"})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if out["action"] != "Schedule a churn review with the data team." {
		t.Fatalf("action = %q", out["action"])
	}
}

func TestToolErrorsWrapCapabilityName(t *testing.T) {
	corpus := &fakeCorpus{err: errors.New("db down")}
	g := NewDefaultGateway(corpus, nil, discard())
	_, err := g.Invoke(context.Background(), "find_collaboration_opportunities", map[string]interface{}{"query": "x"})
	if err == nil {
		t.Fatalf("expected corpus error to propagate")
	}
}
