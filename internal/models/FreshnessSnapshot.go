package models

import "time"

// SnapshotVersion is the persisted schema version written with every snapshot.
const SnapshotVersion = 1

// FreshnessSnapshot is an immutable view of the user's solved problems.
// It is replaced as a whole, never edited in place.
type FreshnessSnapshot struct {
	Version         int             `json:"version"`
	Problems        []SolvedProblem `json:"problems"`
	LatestTimestamp int64           `json:"latestTimestamp"`
	Username        string          `json:"username"`
	LastUpdated     int64           `json:"lastUpdated"`
	// Generation is assigned by the cache on write and is not persisted.
	Generation uint64 `json:"generation"`
}

// NewSnapshot builds a snapshot from raw fetch results. Duplicate slugs
// collapse to their most recent submission.
func NewSnapshot(username string, problems []SolvedProblem, now time.Time) *FreshnessSnapshot {
	deduped := DedupeProblems(problems)
	return &FreshnessSnapshot{
		Version:         SnapshotVersion,
		Problems:        deduped,
		LatestTimestamp: LatestTimestamp(deduped),
		Username:        username,
		LastUpdated:     now.UnixMilli(),
	}
}

func (s *FreshnessSnapshot) IsEmpty() bool {
	return s == nil || len(s.Problems) == 0
}

// WithGeneration returns a copy of s carrying gen. Problems are shared,
// which is safe because snapshots are never mutated.
func (s *FreshnessSnapshot) WithGeneration(gen uint64) *FreshnessSnapshot {
	cp := *s
	cp.Generation = gen
	return &cp
}
