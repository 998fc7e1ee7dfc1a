package services

import (
	"context"
	"errors"
	"leetfresh/internal/apperr"
	"leetfresh/internal/leetcode"
	"leetfresh/internal/models"
	"leetfresh/internal/providers"
	"leetfresh/internal/structures"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/atomic"
)

var ErrSyncInProgress = errors.New("sync already in progress")

type SyncState int32

const (
	StateIdle SyncState = iota
	StateChecking
	StateRefreshing
	StateApplying
)

func (s SyncState) String() string {
	switch s {
	case StateChecking:
		return "checking"
	case StateRefreshing:
		return "refreshing"
	case StateApplying:
		return "applying"
	default:
		return "idle"
	}
}

type Trigger string

const (
	TriggerPageLoad   Trigger = "page_load"
	TriggerNavigation Trigger = "navigation"
	TriggerExplicit   Trigger = "explicit"
	TriggerScheduled  Trigger = "scheduled"
)

// Passive triggers never surface errors to the caller.
func (t Trigger) Passive() bool {
	return t != TriggerExplicit
}

type SyncOrchestratorInterface interface {
	Run(ctx context.Context, trigger Trigger, req models.SyncRequest) (*models.SyncResult, error)
	Navigate(pageURL string) bool
	Subscribe(fn func(*models.FreshnessSnapshot)) (unsubscribe func())
	State() SyncState
	Stop()
}

// PageSource hands the resolver a page to run its DOM probes against.
type PageSource interface {
	LatestPage() *leetcode.PageView
}

type SyncOrchestrator struct {
	cache    FreshnessCacheInterface
	resolver leetcode.IdentityResolverInterface
	fetcher  leetcode.SnapshotFetcherInterface
	pages    PageSource
	logger   providers.Logger
	metrics  providers.MetricsProviderInterface
	clock    func() time.Time

	running atomic.Bool
	state   atomic.Int32

	navDelay time.Duration
	navMu    sync.Mutex
	navTimer *time.Timer
	lastURL  string

	subMu  sync.RWMutex
	subs   map[uint64]func(*models.FreshnessSnapshot)
	nextID uint64
}

func NewSyncOrchestrator(
	conf *structures.Config,
	cache FreshnessCacheInterface,
	resolver leetcode.IdentityResolverInterface,
	fetcher leetcode.SnapshotFetcherInterface,
	pages PageRegistryInterface,
	logger providers.Logger,
	metrics providers.MetricsProviderInterface,
) SyncOrchestratorInterface {
	o := &SyncOrchestrator{
		cache:    cache,
		resolver: resolver,
		fetcher:  fetcher,
		pages:    pages,
		logger:   logger,
		metrics:  metrics,
		clock:    time.Now,
		navDelay: conf.Sync.NavigationDelay,
		subs:     make(map[uint64]func(*models.FreshnessSnapshot)),
	}
	if pages != nil {
		o.Subscribe(pages.Refresh)
	}
	return o
}

func (o *SyncOrchestrator) State() SyncState {
	return SyncState(o.state.Load())
}

func (o *SyncOrchestrator) Subscribe(fn func(*models.FreshnessSnapshot)) func() {
	o.subMu.Lock()
	defer o.subMu.Unlock()
	id := o.nextID
	o.nextID++
	o.subs[id] = fn
	return func() {
		o.subMu.Lock()
		defer o.subMu.Unlock()
		delete(o.subs, id)
	}
}

func (o *SyncOrchestrator) notify(snap *models.FreshnessSnapshot) {
	o.subMu.RLock()
	subs := make([]func(*models.FreshnessSnapshot), 0, len(o.subs))
	for _, fn := range o.subs {
		subs = append(subs, fn)
	}
	o.subMu.RUnlock()
	for _, fn := range subs {
		fn(snap)
	}
}

// Run executes one sync. Only one run is in flight at a time; a trigger
// arriving meanwhile is dropped with ErrSyncInProgress. Passive runs report
// failures through the result and never return an error other than
// ErrSyncInProgress.
func (o *SyncOrchestrator) Run(ctx context.Context, trigger Trigger, req models.SyncRequest) (*models.SyncResult, error) {
	if !o.running.CompareAndSwap(false, true) {
		o.metrics.IncSyncRuns(string(trigger), "dropped")
		o.logger.Debugf(providers.TypeSync, "Sync (%s) dropped, another run is in flight", trigger)
		return nil, ErrSyncInProgress
	}
	defer func() {
		o.state.Store(int32(StateIdle))
		o.running.Store(false)
	}()

	result := &models.SyncResult{RunID: uuid.NewString()}
	o.logger.Debugf(providers.TypeSync, "Sync %s started (%s)", result.RunID, trigger)

	var err error
	if trigger.Passive() {
		err = o.passive(ctx, req, result)
	} else {
		err = o.explicit(ctx, req, result)
	}

	if err != nil {
		result.Outcome = models.OutcomeFailed
		if trigger.Passive() && apperr.Is(err, apperr.IdentityUnavailable) {
			result.Outcome = models.OutcomeSkipped
		}
		o.metrics.IncSyncRuns(string(trigger), string(result.Outcome))
		if trigger.Passive() {
			o.logger.Debugf(providers.TypeSync, "Sync %s (%s) ended quietly: %s", result.RunID, trigger, err)
			return result, nil
		}
		o.logger.Warnf(providers.TypeSync, "Sync %s (%s) failed: %s", result.RunID, trigger, err)
		return nil, err
	}

	o.metrics.IncSyncRuns(string(trigger), string(result.Outcome))
	o.logger.Infof(providers.TypeSync, "Sync %s (%s) %s", result.RunID, trigger, result.Outcome)
	return result, nil
}

// explicit always refreshes. The request's identifier wins over resolution.
func (o *SyncOrchestrator) explicit(ctx context.Context, req models.SyncRequest, result *models.SyncResult) error {
	o.state.Store(int32(StateChecking))
	identity, err := o.identity(ctx, req)
	if err != nil {
		return err
	}
	return o.refresh(ctx, identity, result)
}

func (o *SyncOrchestrator) passive(ctx context.Context, req models.SyncRequest, result *models.SyncResult) error {
	o.state.Store(int32(StateChecking))
	cached, err := o.cache.Read(ctx)
	if err != nil {
		o.logger.Warnf(providers.TypeSync, "Cached snapshot unreadable, treating as empty: %s", err)
		cached = nil
	}

	identity, err := o.identity(ctx, req)
	if err != nil {
		return err
	}
	if cached == nil {
		o.logger.Debugf(providers.TypeSync, "No cached snapshot, refreshing")
		return o.refresh(ctx, identity, result)
	}
	if cached.Username != "" && cached.Username != identity {
		o.logger.Infof(providers.TypeSync, "Cached snapshot belongs to %s, refreshing for %s", cached.Username, identity)
		return o.refresh(ctx, identity, result)
	}

	latest, err := o.fetcher.FetchLatestSubmissionTimestamp(ctx, identity)
	switch {
	case err != nil:
		o.metrics.IncProbes("failed")
		o.logger.Debugf(providers.TypeSync, "Staleness probe failed, using cache: %s", err)
	case latest > cached.LatestTimestamp:
		o.metrics.IncProbes("newer")
		return o.refresh(ctx, identity, result)
	default:
		o.metrics.IncProbes("current")
	}

	o.state.Store(int32(StateApplying))
	o.notify(cached)
	result.Outcome = models.OutcomeApplied
	result.Snapshot = cached
	return nil
}

func (o *SyncOrchestrator) identity(ctx context.Context, req models.SyncRequest) (string, error) {
	if id := strings.TrimSpace(req.Identifier); id != "" {
		if !leetcode.ValidHandle(id) {
			return "", apperr.New(apperr.IdentityUnavailable, "resolveIdentity", "invalid identifier "+id)
		}
		return id, nil
	}
	var page *leetcode.PageView
	if o.pages != nil {
		page = o.pages.LatestPage()
	}
	return o.resolver.Resolve(ctx, page)
}

// refresh replaces the snapshot wholesale with a fresh fetch.
func (o *SyncOrchestrator) refresh(ctx context.Context, identity string, result *models.SyncResult) error {
	o.state.Store(int32(StateRefreshing))
	start := time.Now()
	problems, _, err := o.fetcher.FetchSolvedProblems(ctx, identity)
	if err != nil {
		return err
	}
	published, err := o.cache.Write(ctx, models.NewSnapshot(identity, problems, o.clock()))
	if err != nil {
		return err
	}
	o.metrics.ObserveRefreshDuration(time.Since(start))

	o.state.Store(int32(StateApplying))
	o.notify(published)
	result.Outcome = models.OutcomeRefreshed
	result.Snapshot = published
	return nil
}

// Navigate schedules a passive run for navigations into a problem list.
// A newer navigation replaces a pending one; repeats of the last URL are
// ignored.
func (o *SyncOrchestrator) Navigate(pageURL string) bool {
	o.navMu.Lock()
	defer o.navMu.Unlock()
	if pageURL == o.lastURL {
		return false
	}
	// every reported URL counts, so leaving and returning to a list resyncs
	o.lastURL = pageURL
	if !IsProblemListURL(pageURL) {
		return false
	}
	if o.navTimer != nil {
		o.navTimer.Stop()
	}
	o.navTimer = time.AfterFunc(o.navDelay, func() {
		_, _ = o.Run(context.Background(), TriggerNavigation, models.SyncRequest{})
	})
	return true
}

func (o *SyncOrchestrator) Stop() {
	o.navMu.Lock()
	defer o.navMu.Unlock()
	if o.navTimer != nil {
		o.navTimer.Stop()
		o.navTimer = nil
	}
}

// IsProblemListURL reports whether pageURL shows problem references worth
// annotating.
func IsProblemListURL(pageURL string) bool {
	u, err := url.Parse(pageURL)
	if err != nil {
		return false
	}
	return strings.HasPrefix(u.Path, "/problemset/") || strings.HasPrefix(u.Path, "/problems/") ||
		u.Path == "/problemset" || strings.HasPrefix(u.Path, "/progress/")
}
