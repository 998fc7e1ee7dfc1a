package services

import (
	"context"
	"leetfresh/internal/leetcode"
	"leetfresh/internal/models"
	"sync"
)

type mockResolver struct {
	mu     sync.Mutex
	handle string
	err    error
	calls  int
	pages  []*leetcode.PageView
}

func (m *mockResolver) Resolve(_ context.Context, page *leetcode.PageView) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.pages = append(m.pages, page)
	return m.handle, m.err
}

type mockFetcher struct {
	mu          sync.Mutex
	problems    []models.SolvedProblem
	solvedErr   error
	latest      int64
	latestErr   error
	solvedCalls int
	latestCalls int
	// block, when set, holds FetchSolvedProblems until it is closed.
	block   chan struct{}
	entered chan struct{}
}

func (m *mockFetcher) FetchSolvedProblems(_ context.Context, _ string) ([]models.SolvedProblem, int64, error) {
	m.mu.Lock()
	m.solvedCalls++
	block, entered := m.block, m.entered
	m.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if block != nil {
		<-block
	}
	if m.solvedErr != nil {
		return nil, 0, m.solvedErr
	}
	return m.problems, models.LatestTimestamp(m.problems), nil
}

func (m *mockFetcher) FetchLatestSubmissionTimestamp(_ context.Context, _ string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latestCalls++
	return m.latest, m.latestErr
}

func (m *mockFetcher) counts() (solved, latest int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.solvedCalls, m.latestCalls
}
