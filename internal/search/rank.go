package search

import (
	"sort"
	"time"
)

// Personalization boost factors. Boosts are independent and multiply.
const (
	sameTeamBoost   = 1.20
	freshBoost      = 1.15 // younger than 7 days
	recentBoost     = 1.05 // 7 to 30 days
	managerDocBoost = 1.10 // managerial requester viewing a document
)

// Fuse concatenates per-kind candidate lists into one ranked list. The
// engine already applied the signal weights, so the fused score is the
// engine score verbatim.
func Fuse(perKind ...[]Candidate) []RankedResult {
	var out []RankedResult
	for _, kind := range perKind {
		for _, cand := range kind {
			out = append(out, RankedResult{Candidate: cand, FusedScore: cand.Score})
		}
	}
	return out
}

// Personalize re-weights fused scores with requester context and sorts the
// results by personalized score descending. The sort is stable so ties keep
// their pre-personalization order.
func Personalize(results []RankedResult, requester RequesterContext, now time.Time) []RankedResult {
	managerial := requester.IsManagerial()
	for i := range results {
		score := results[i].FusedScore
		if requester.Team != "" && results[i].Team == requester.Team {
			score *= sameTeamBoost
		}
		if !results[i].Timestamp.IsZero() {
			age := now.Sub(results[i].Timestamp)
			switch {
			case age < 7*24*time.Hour:
				score *= freshBoost
			case age < 30*24*time.Hour:
				score *= recentBoost
			}
		}
		if managerial && results[i].Kind == KindDocument {
			score *= managerDocBoost
		}
		results[i].PersonalizedScore = score
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].PersonalizedScore > results[j].PersonalizedScore
	})
	return results
}

// Paginate slices results to the requested page. Page numbers start at 1.
func Paginate(results []RankedResult, page, pageSize int) []RankedResult {
	if pageSize <= 0 {
		return results
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start >= len(results) {
		return nil
	}
	end := start + pageSize
	if end > len(results) {
		end = len(results)
	}
	return results[start:end]
}
