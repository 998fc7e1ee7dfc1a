package scheduler

import (
	"context"
	"errors"
	"leetfresh/internal/models"
	"leetfresh/internal/providers"
	"leetfresh/internal/render"
	"leetfresh/internal/services"
	"leetfresh/internal/structures"
	"sync"
	"time"

	"github.com/roylee0704/gron"
)

const bandsInterval = time.Minute

type SchedulerInterface interface {
	Init()
	Stop()
	Restore(ctx context.Context) error
	PublishBands()
}

// Scheduler runs the periodic passive sync and keeps the band gauges and
// open pages current as days roll over.
type Scheduler struct {
	config       *structures.Config
	logger       providers.Logger
	metrics      providers.MetricsProviderInterface
	cache        services.FreshnessCacheInterface
	orchestrator services.SyncOrchestratorInterface
	pages        services.PageRegistryInterface
	policy       models.BandPolicy
	cron         *gron.Cron
	opsMu        sync.Mutex
}

func NewScheduler(
	config *structures.Config,
	logger providers.Logger,
	metrics providers.MetricsProviderInterface,
	cache services.FreshnessCacheInterface,
	orchestrator services.SyncOrchestratorInterface,
	pages services.PageRegistryInterface,
	annotator *render.Annotator,
) SchedulerInterface {
	return &Scheduler{
		config:       config,
		logger:       logger,
		metrics:      metrics,
		cache:        cache,
		orchestrator: orchestrator,
		pages:        pages,
		policy:       annotator.Policy(),
	}
}

func (s *Scheduler) Init() {
	s.cron = gron.New()

	if interval := s.config.Sync.ProbeInterval; interval > 0 {
		s.cron.AddFunc(gron.Every(interval), func() {
			s.logger.Debugf(providers.TypeSync, "Scheduled sync...")
			_, err := s.orchestrator.Run(context.Background(), services.TriggerScheduled, models.SyncRequest{})
			if errors.Is(err, services.ErrSyncInProgress) {
				s.logger.Debugf(providers.TypeSync, "Scheduled sync skipped, a run is in flight")
			}
		})
	}

	s.cron.AddFunc(gron.Every(bandsInterval), func() {
		s.PublishBands()
		s.pages.Refresh(s.cache.Current())
	})

	s.cron.Start()
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// Restore loads the persisted snapshot into memory so pages opened before
// the first sync are annotated.
func (s *Scheduler) Restore(ctx context.Context) error {
	snap, err := s.cache.Read(ctx)
	if err != nil {
		return err
	}
	if snap == nil {
		s.logger.Infof(providers.TypeApp, "No persisted snapshot found")
		return nil
	}
	s.logger.Infof(providers.TypeApp, "Restored snapshot for %s: %d problems", snap.Username, len(snap.Problems))
	s.PublishBands()
	return nil
}

func (s *Scheduler) PublishBands() {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	counts := models.CountBands(s.cache.Current(), s.policy, time.Now())
	for _, b := range models.AllBands {
		s.metrics.SetBandProblems(b.String(), counts.Of(b))
	}
}
