package models

import "sort"

type SolvedProblem struct {
	TitleSlug     string `json:"titleSlug"`
	Title         string `json:"title"`
	Timestamp     int64  `json:"timestamp"`
	DateCompleted string `json:"dateCompleted,omitempty"`
}

// DedupeProblems keeps one entry per slug, the one with the highest
// timestamp. The result is sorted by slug.
func DedupeProblems(problems []SolvedProblem) []SolvedProblem {
	bySlug := make(map[string]SolvedProblem, len(problems))
	for _, p := range problems {
		if p.TitleSlug == "" {
			continue
		}
		if cur, ok := bySlug[p.TitleSlug]; !ok || p.Timestamp > cur.Timestamp {
			bySlug[p.TitleSlug] = p
		}
	}

	out := make([]SolvedProblem, 0, len(bySlug))
	for _, p := range bySlug {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].TitleSlug < out[j].TitleSlug
	})
	return out
}

// LatestTimestamp is the watermark of a problem set: the maximum
// timestamp, or 0 for an empty set.
func LatestTimestamp(problems []SolvedProblem) int64 {
	var latest int64
	for _, p := range problems {
		if p.Timestamp > latest {
			latest = p.Timestamp
		}
	}
	return latest
}
