package search

import "time"

// SourceKind identifies one of the indexed corpus collections.
type SourceKind string

const (
	KindDocument SourceKind = "document"
	KindMessage  SourceKind = "message"
	KindPerson   SourceKind = "person"
	KindTopic    SourceKind = "topic"
)

// AllKinds lists every collection the engine serves, in fusion order.
func AllKinds() []SourceKind {
	return []SourceKind{KindDocument, KindMessage, KindPerson, KindTopic}
}

// RequesterContext identifies who is asking, for personalization.
type RequesterContext struct {
	UserID string `json:"user_id"`
	Team   string `json:"team"`
	Role   string `json:"role"`
}

// IsManagerial reports whether the requester role gets the manager boosts.
func (r RequesterContext) IsManagerial() bool {
	switch r.Role {
	case "manager", "director", "vp", "lead":
		return true
	}
	return false
}

// Filters are hard constraints on retrieval; they never contribute to scoring.
type Filters struct {
	Teams           []string     `json:"teams,omitempty"`
	ContentTypes    []SourceKind `json:"content_types,omitempty"`
	DateFrom        *time.Time   `json:"date_from,omitempty"`
	DateTo          *time.Time   `json:"date_to,omitempty"`
	Confidentiality []string     `json:"confidentiality,omitempty"`
}

func (f Filters) empty() bool {
	return len(f.Teams) == 0 && len(f.ContentTypes) == 0 &&
		f.DateFrom == nil && f.DateTo == nil && len(f.Confidentiality) == 0
}

// Query is one personalized hybrid search request.
type Query struct {
	Text      string           `json:"text"`
	Filters   Filters          `json:"filters"`
	Requester RequesterContext `json:"requester"`
	Page      int              `json:"page"`
	PageSize  int              `json:"page_size"`
}

// Candidate is a scored hit returned by the retrieval engine, pre-personalization.
type Candidate struct {
	ID              string     `json:"id"`
	Kind            SourceKind `json:"kind"`
	Title           string     `json:"title"`
	Body            string     `json:"body,omitempty"`
	Team            string     `json:"team,omitempty"`
	Author          string     `json:"author,omitempty"`
	Confidentiality string     `json:"confidentiality,omitempty"`
	Timestamp       time.Time  `json:"timestamp"`
	Highlight       string     `json:"highlight,omitempty"`
	LexicalScore    float64    `json:"lexical_score"`
	VectorScore     float64    `json:"vector_score"`
	Score           float64    `json:"score"`
}

// RankedResult is a candidate carrying fused and personalized scores.
type RankedResult struct {
	Candidate
	FusedScore        float64 `json:"fused_score"`
	PersonalizedScore float64 `json:"personalized_score"`
}
