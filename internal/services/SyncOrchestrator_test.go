package services

import (
	"context"
	"errors"
	"leetfresh/internal/apperr"
	"leetfresh/internal/models"
	"leetfresh/internal/structures"
	"leetfresh/internal/testutil"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orchestratorFixture struct {
	orch     *SyncOrchestrator
	cache    FreshnessCacheInterface
	store    *testutil.MockStore
	resolver *mockResolver
	fetcher  *mockFetcher
	metrics  *testutil.MockMetrics
}

func newOrchestratorFixture(t *testing.T) *orchestratorFixture {
	t.Helper()
	store := testutil.NewMockStore()
	logger := &testutil.MockLogger{}
	metrics := &testutil.MockMetrics{}
	cache := NewFreshnessCache(store, logger, metrics)
	resolver := &mockResolver{handle: "alice"}
	fetcher := &mockFetcher{}
	conf := &structures.Config{Sync: structures.SyncConfig{NavigationDelay: 20 * time.Millisecond}}

	orch := NewSyncOrchestrator(conf, cache, resolver, fetcher, nil, logger, metrics).(*SyncOrchestrator)
	t.Cleanup(orch.Stop)
	return &orchestratorFixture{orch: orch, cache: cache, store: store, resolver: resolver, fetcher: fetcher, metrics: metrics}
}

func (f *orchestratorFixture) seed(t *testing.T, username string, problems ...models.SolvedProblem) *models.FreshnessSnapshot {
	snap, err := f.cache.Write(context.Background(), models.NewSnapshot(username, problems, time.Now()))
	require.NoError(t, err)
	return snap
}

func TestRun_EmptyCacheRefreshes(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.fetcher.problems = []models.SolvedProblem{
		{TitleSlug: "two-sum", Title: "Two Sum", Timestamp: 1000},
		{TitleSlug: "two-sum", Title: "Two Sum", Timestamp: 2000},
	}

	res, err := f.orch.Run(context.Background(), TriggerPageLoad, models.SyncRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeRefreshed, res.Outcome)

	snap := f.cache.Current()
	require.NotNil(t, snap)
	require.Len(t, snap.Problems, 1)
	assert.Equal(t, int64(2000), snap.Problems[0].Timestamp)
	assert.Equal(t, int64(2000), snap.LatestTimestamp)
	assert.Equal(t, "alice", snap.Username)

	solved, latest := f.fetcher.counts()
	assert.Equal(t, 1, solved)
	assert.Equal(t, 0, latest)
	assert.Equal(t, 1, f.metrics.SyncRun("page_load", "refreshed"))
	assert.Equal(t, StateIdle, f.orch.State())
}

func TestRun_EqualProbeAppliesCache(t *testing.T) {
	f := newOrchestratorFixture(t)
	cached := f.seed(t, "alice", models.SolvedProblem{TitleSlug: "two-sum", Timestamp: 2000})
	f.fetcher.latest = 2000

	var got *models.FreshnessSnapshot
	f.orch.Subscribe(func(s *models.FreshnessSnapshot) { got = s })

	res, err := f.orch.Run(context.Background(), TriggerPageLoad, models.SyncRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeApplied, res.Outcome)
	assert.Same(t, cached, got)

	solved, latest := f.fetcher.counts()
	assert.Equal(t, 0, solved)
	assert.Equal(t, 1, latest)
	assert.Equal(t, 1, f.metrics.Probe("current"))
}

func TestRun_NewerProbeRefreshesOnce(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.seed(t, "alice", models.SolvedProblem{TitleSlug: "two-sum", Timestamp: 2000})
	f.fetcher.latest = 3000
	f.fetcher.problems = []models.SolvedProblem{
		{TitleSlug: "two-sum", Timestamp: 2000},
		{TitleSlug: "lru-cache", Timestamp: 3000},
	}
	f.fetcher.block = make(chan struct{})
	f.fetcher.entered = make(chan struct{}, 1)

	done := make(chan error, 1)
	go func() {
		_, err := f.orch.Run(context.Background(), TriggerPageLoad, models.SyncRequest{})
		done <- err
	}()
	<-f.fetcher.entered
	assert.Equal(t, StateRefreshing, f.orch.State())

	res, err := f.orch.Run(context.Background(), TriggerNavigation, models.SyncRequest{})
	assert.ErrorIs(t, err, ErrSyncInProgress)
	assert.Nil(t, res)

	close(f.fetcher.block)
	require.NoError(t, <-done)

	solved, latest := f.fetcher.counts()
	assert.Equal(t, 1, solved)
	assert.Equal(t, 1, latest)
	assert.Equal(t, int64(3000), f.cache.Current().LatestTimestamp)
	assert.Len(t, f.cache.Current().Problems, 2)
	assert.Equal(t, 1, f.metrics.SyncRun("navigation", "dropped"))
}

func TestRun_RefreshReplacesWholesale(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.seed(t, "alice",
		models.SolvedProblem{TitleSlug: "gone", Timestamp: 100},
		models.SolvedProblem{TitleSlug: "kept", Timestamp: 200},
	)
	f.fetcher.problems = []models.SolvedProblem{{TitleSlug: "kept", Timestamp: 300}}

	_, err := f.orch.Run(context.Background(), TriggerExplicit, models.SyncRequest{})
	require.NoError(t, err)

	snap := f.cache.Current()
	require.Len(t, snap.Problems, 1)
	assert.Equal(t, "kept", snap.Problems[0].TitleSlug)
}

func TestRun_ProbeFailureAppliesCache(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.seed(t, "alice", models.SolvedProblem{TitleSlug: "two-sum", Timestamp: 2000})
	f.fetcher.latestErr = apperr.Network("latest", errors.New("offline"))

	res, err := f.orch.Run(context.Background(), TriggerNavigation, models.SyncRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeApplied, res.Outcome)
	solved, _ := f.fetcher.counts()
	assert.Equal(t, 0, solved)
	assert.Equal(t, 1, f.metrics.Probe("failed"))
}

func TestRun_PassiveIdentityFailureIsSilent(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.seed(t, "alice", models.SolvedProblem{TitleSlug: "two-sum", Timestamp: 2000})
	f.resolver.err = apperr.New(apperr.IdentityUnavailable, "resolveIdentity", "nobody")

	res, err := f.orch.Run(context.Background(), TriggerPageLoad, models.SyncRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeSkipped, res.Outcome)
	solved, latest := f.fetcher.counts()
	assert.Equal(t, 0, solved+latest)
}

func TestRun_PassiveFetchFailureIsSilent(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.fetcher.solvedErr = apperr.Application("solved", "User is not logged in")

	res, err := f.orch.Run(context.Background(), TriggerScheduled, models.SyncRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeFailed, res.Outcome)
	assert.Nil(t, f.cache.Current())
}

func TestRun_ExplicitPropagatesErrors(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.resolver.err = apperr.New(apperr.IdentityUnavailable, "resolveIdentity", "nobody")

	_, err := f.orch.Run(context.Background(), TriggerExplicit, models.SyncRequest{})
	assert.True(t, apperr.Is(err, apperr.IdentityUnavailable))

	f.resolver.err = nil
	f.fetcher.solvedErr = apperr.Protocol("solved", "missing userProgressQuestionList")
	_, err = f.orch.Run(context.Background(), TriggerExplicit, models.SyncRequest{})
	assert.True(t, apperr.Is(err, apperr.ProtocolError))
	assert.Equal(t, 2, f.metrics.SyncRun("explicit", "failed"))
}

func TestRun_ExplicitSkipsProbe(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.seed(t, "alice", models.SolvedProblem{TitleSlug: "two-sum", Timestamp: 2000})
	f.fetcher.latest = 2000
	f.fetcher.problems = []models.SolvedProblem{{TitleSlug: "two-sum", Timestamp: 2000}}

	res, err := f.orch.Run(context.Background(), TriggerExplicit, models.SyncRequest{Identifier: "bob"})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeRefreshed, res.Outcome)
	assert.Equal(t, "bob", res.Snapshot.Username)

	solved, latest := f.fetcher.counts()
	assert.Equal(t, 1, solved)
	assert.Equal(t, 0, latest)
	assert.Equal(t, 0, f.resolver.calls)
}

func TestRun_ExplicitRejectsInvalidIdentifier(t *testing.T) {
	f := newOrchestratorFixture(t)
	_, err := f.orch.Run(context.Background(), TriggerExplicit, models.SyncRequest{Identifier: "not valid!"})
	assert.True(t, apperr.Is(err, apperr.IdentityUnavailable))
}

func TestRun_DifferentUserRefreshes(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.seed(t, "bob", models.SolvedProblem{TitleSlug: "two-sum", Timestamp: 2000})
	f.fetcher.problems = []models.SolvedProblem{{TitleSlug: "lru-cache", Timestamp: 10}}

	res, err := f.orch.Run(context.Background(), TriggerPageLoad, models.SyncRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeRefreshed, res.Outcome)
	_, latest := f.fetcher.counts()
	assert.Equal(t, 0, latest)
}

func TestRun_SubscribersSeeRefresh(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.fetcher.problems = []models.SolvedProblem{{TitleSlug: "two-sum", Timestamp: 10}}

	var mu sync.Mutex
	var seen []uint64
	unsubscribe := f.orch.Subscribe(func(s *models.FreshnessSnapshot) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, s.Generation)
	})

	_, err := f.orch.Run(context.Background(), TriggerExplicit, models.SyncRequest{})
	require.NoError(t, err)
	unsubscribe()
	_, err = f.orch.Run(context.Background(), TriggerExplicit, models.SyncRequest{})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, seen, 1)
}

func TestNavigate(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.fetcher.problems = []models.SolvedProblem{{TitleSlug: "two-sum", Timestamp: 10}}

	assert.False(t, f.orch.Navigate("https://leetcode.com/discuss/"))
	assert.True(t, f.orch.Navigate("https://leetcode.com/problemset/"))
	assert.False(t, f.orch.Navigate("https://leetcode.com/problemset/"))
	assert.True(t, f.orch.Navigate("https://leetcode.com/problemset/?page=2"))

	assert.Eventually(t, func() bool {
		return f.metrics.SyncRun("navigation", "refreshed") == 1
	}, time.Second, 5*time.Millisecond)

	// the first navigation's timer was replaced, so only one run happened
	time.Sleep(50 * time.Millisecond)
	solved, _ := f.fetcher.counts()
	assert.Equal(t, 1, solved)
}

func TestNavigate_ReturnToListAfterLeaving(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.orch.navDelay = time.Hour

	assert.True(t, f.orch.Navigate("https://leetcode.com/problemset/"))
	assert.False(t, f.orch.Navigate("https://leetcode.com/discuss/"))
	assert.True(t, f.orch.Navigate("https://leetcode.com/problemset/"))
	assert.False(t, f.orch.Navigate("https://leetcode.com/problemset/"))
	f.orch.Stop()
}

func TestNavigate_StopCancelsPending(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.orch.navDelay = 30 * time.Millisecond

	assert.True(t, f.orch.Navigate("https://leetcode.com/problemset/"))
	f.orch.Stop()
	time.Sleep(60 * time.Millisecond)

	assert.Equal(t, 0, f.resolver.calls)
}

func TestIsProblemListURL(t *testing.T) {
	assert.True(t, IsProblemListURL("https://leetcode.com/problemset/all/"))
	assert.True(t, IsProblemListURL("https://leetcode.com/problems/two-sum/"))
	assert.False(t, IsProblemListURL("https://leetcode.com/contest/"))
	assert.False(t, IsProblemListURL("%%"))
}
