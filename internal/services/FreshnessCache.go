package services

import (
	"context"
	"fmt"
	"leetfresh/internal/models"
	"leetfresh/internal/providers"
	"leetfresh/internal/storage"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/atomic"
)

// Persisted field names.
const (
	KeyProblemData     = "problemData"
	KeyLastUpdated     = "lastUpdated"
	KeyUsername        = "username"
	KeyLatestTimestamp = "latestTimestamp"
	KeySchemaVersion   = "schemaVersion"
)

var snapshotKeys = []string{KeyProblemData, KeyLastUpdated, KeyUsername, KeyLatestTimestamp, KeySchemaVersion}

type FreshnessCacheInterface interface {
	// Read returns the current snapshot, loading it from the store on first
	// use. A nil snapshot with a nil error means nothing is cached.
	Read(ctx context.Context) (*models.FreshnessSnapshot, error)
	// Write persists snap and makes it current. The returned snapshot carries
	// the generation it was published under.
	Write(ctx context.Context, snap *models.FreshnessSnapshot) (*models.FreshnessSnapshot, error)
	// Reload drops the in-memory view and reads the store again.
	Reload(ctx context.Context) (*models.FreshnessSnapshot, error)
	Current() *models.FreshnessSnapshot
}

// FreshnessCache publishes snapshots lock-free to readers. Store access and
// publication are serialized by mu so a Reload that read the store before a
// Write cannot publish after it.
type FreshnessCache struct {
	mu         sync.Mutex
	store      storage.Store
	logger     providers.Logger
	metrics    providers.MetricsProviderInterface
	current    atomic.Pointer[models.FreshnessSnapshot]
	loaded     atomic.Bool
	generation atomic.Uint64
}

func NewFreshnessCache(store storage.Store, logger providers.Logger, metrics providers.MetricsProviderInterface) FreshnessCacheInterface {
	return &FreshnessCache{
		store:   store,
		logger:  logger,
		metrics: metrics,
	}
}

func (fc *FreshnessCache) Current() *models.FreshnessSnapshot {
	return fc.current.Load()
}

func (fc *FreshnessCache) Read(ctx context.Context) (*models.FreshnessSnapshot, error) {
	if fc.loaded.Load() {
		return fc.current.Load(), nil
	}
	return fc.Reload(ctx)
}

func (fc *FreshnessCache) Reload(ctx context.Context) (*models.FreshnessSnapshot, error) {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	start := time.Now()
	values, err := fc.store.Get(ctx, snapshotKeys)
	fc.metrics.ObservePersistenceDuration(time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	snap, err := fc.decode(values)
	if err != nil {
		return nil, err
	}
	if snap != nil {
		snap = snap.WithGeneration(fc.generation.Inc())
	}
	fc.current.Store(snap)
	fc.loaded.Store(true)
	return snap, nil
}

func (fc *FreshnessCache) Write(ctx context.Context, snap *models.FreshnessSnapshot) (*models.FreshnessSnapshot, error) {
	if snap == nil {
		return nil, fmt.Errorf("cannot write nil snapshot")
	}
	entries, err := encodeSnapshot(snap)
	if err != nil {
		return nil, err
	}

	fc.mu.Lock()
	defer fc.mu.Unlock()

	start := time.Now()
	err = fc.store.Set(ctx, entries)
	fc.metrics.ObservePersistenceDuration(time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("failed to persist snapshot: %w", err)
	}

	published := snap.WithGeneration(fc.generation.Inc())
	fc.current.Store(published)
	fc.loaded.Store(true)
	fc.logger.Debugf(providers.TypeSync, "Snapshot generation %d written: %d problems, watermark %d",
		published.Generation, len(published.Problems), published.LatestTimestamp)
	return published, nil
}

func encodeSnapshot(snap *models.FreshnessSnapshot) (map[string][]byte, error) {
	problems := snap.Problems
	if problems == nil {
		problems = []models.SolvedProblem{}
	}
	fields := map[string]any{
		KeyProblemData:     problems,
		KeyLastUpdated:     snap.LastUpdated,
		KeyUsername:        snap.Username,
		KeyLatestTimestamp: snap.LatestTimestamp,
		KeySchemaVersion:   models.SnapshotVersion,
	}

	entries := make(map[string][]byte, len(fields))
	for k, v := range fields {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", k, err)
		}
		entries[k] = b
	}
	return entries, nil
}

// decode builds a snapshot from stored values. Missing problem data, or a
// schema newer than this build understands, reads as no snapshot.
func (fc *FreshnessCache) decode(values map[string][]byte) (*models.FreshnessSnapshot, error) {
	raw, ok := values[KeyProblemData]
	if !ok || len(raw) == 0 {
		return nil, nil
	}

	version := 0
	if v, ok := values[KeySchemaVersion]; ok {
		if err := json.Unmarshal(v, &version); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", KeySchemaVersion, err)
		}
	}
	if version > models.SnapshotVersion {
		fc.logger.Warnf(providers.TypeSync, "Stored snapshot has schema version %d, newer than %d; ignoring it", version, models.SnapshotVersion)
		return nil, nil
	}

	snap := &models.FreshnessSnapshot{Version: models.SnapshotVersion}
	if err := json.Unmarshal(raw, &snap.Problems); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", KeyProblemData, err)
	}
	optional := map[string]any{
		KeyLastUpdated:     &snap.LastUpdated,
		KeyUsername:        &snap.Username,
		KeyLatestTimestamp: &snap.LatestTimestamp,
	}
	for k, dst := range optional {
		v, ok := values[k]
		if !ok {
			continue
		}
		if err := json.Unmarshal(v, dst); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", k, err)
		}
	}

	deduped := models.DedupeProblems(snap.Problems)
	if len(deduped) != len(snap.Problems) {
		fc.logger.Warnf(providers.TypeSync, "Stored snapshot had %d duplicate slugs", len(snap.Problems)-len(deduped))
	}
	snap.Problems = deduped
	if watermark := models.LatestTimestamp(deduped); watermark != snap.LatestTimestamp {
		fc.logger.Warnf(providers.TypeSync, "Stored watermark %d does not match problems (%d), repairing", snap.LatestTimestamp, watermark)
		snap.LatestTimestamp = watermark
	}
	return snap, nil
}
