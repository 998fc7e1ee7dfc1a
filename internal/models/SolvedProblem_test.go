package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDedupeProblems_KeepsLatestPerSlug(t *testing.T) {
	in := []SolvedProblem{
		{TitleSlug: "two-sum", Title: "Two Sum", Timestamp: 1000},
		{TitleSlug: "two-sum", Title: "Two Sum", Timestamp: 2000},
		{TitleSlug: "add-two-numbers", Title: "Add Two Numbers", Timestamp: 1500},
		{TitleSlug: "two-sum", Title: "Two Sum", Timestamp: 1200},
	}

	out := DedupeProblems(in)
	require.Len(t, out, 2)
	assert.Equal(t, "add-two-numbers", out[0].TitleSlug)
	assert.Equal(t, "two-sum", out[1].TitleSlug)
	assert.Equal(t, int64(2000), out[1].Timestamp)
}

func TestDedupeProblems_DropsEmptySlug(t *testing.T) {
	out := DedupeProblems([]SolvedProblem{{Title: "nameless", Timestamp: 5}})
	assert.Empty(t, out)
}

func TestDedupeProblems_OrderIndependent(t *testing.T) {
	a := []SolvedProblem{
		{TitleSlug: "x", Timestamp: 3},
		{TitleSlug: "x", Timestamp: 9},
		{TitleSlug: "y", Timestamp: 1},
	}
	b := []SolvedProblem{a[2], a[1], a[0]}
	assert.Equal(t, DedupeProblems(a), DedupeProblems(b))
}

func TestLatestTimestamp(t *testing.T) {
	assert.Equal(t, int64(0), LatestTimestamp(nil))
	assert.Equal(t, int64(0), LatestTimestamp([]SolvedProblem{}))
	assert.Equal(t, int64(42), LatestTimestamp([]SolvedProblem{
		{TitleSlug: "a", Timestamp: 7},
		{TitleSlug: "b", Timestamp: 42},
		{TitleSlug: "c", Timestamp: 13},
	}))
}
