package controllers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"leetfresh/internal/models"
	"leetfresh/internal/providers"
	"leetfresh/internal/render"
	"leetfresh/internal/services"
	"net/http"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/atomic"
)

const (
	maxRequestBodySize  = 1 << 20 // 1 MB
	maxDocumentBodySize = 8 << 20
)

type ApiController struct {
	logger       providers.Logger
	orchestrator services.SyncOrchestratorInterface
	snapshots    services.FreshnessCacheInterface
	pages        services.PageRegistryInterface
	cache        providers.CacheProviderInterface
	policy       models.BandPolicy
	clock        func() time.Time
	servedGen    atomic.Uint64
}

func NewApiController(
	logger providers.Logger,
	orchestrator services.SyncOrchestratorInterface,
	snapshots services.FreshnessCacheInterface,
	pages services.PageRegistryInterface,
	cache providers.CacheProviderInterface,
	annotator *render.Annotator,
) *ApiController {
	ac := &ApiController{
		logger:       logger,
		orchestrator: orchestrator,
		snapshots:    snapshots,
		pages:        pages,
		cache:        cache,
		policy:       annotator.Policy(),
		clock:        time.Now,
	}
	orchestrator.Subscribe(ac.onSnapshot)
	return ac
}

// onSnapshot drops cached responses once a new generation is published.
// Applying an unchanged snapshot keeps them.
func (ac *ApiController) onSnapshot(snap *models.FreshnessSnapshot) {
	if snap == nil {
		return
	}
	if ac.servedGen.Swap(snap.Generation) != snap.Generation {
		ac.cache.Invalidate()
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	gson, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(gson)
}

func (ac *ApiController) serveFromCacheOrCompute(w http.ResponseWriter, cacheKey string, compute func() (any, error)) {
	if data, ok := ac.cache.Get(cacheKey); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}

	result, err := compute()
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	gson, err := json.Marshal(result)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	ac.cache.Set(cacheKey, gson)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(gson)
}

// Sync handles the "request sync" message. It always answers 200 with the
// success flag carrying the outcome; only malformed requests get 400.
func (ac *ApiController) Sync(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var req models.SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	// a started refresh runs to completion even if the caller goes away
	ctx := context.WithoutCancel(r.Context())
	result, err := ac.orchestrator.Run(ctx, services.TriggerExplicit, req)
	if err != nil {
		writeJSON(w, http.StatusOK, models.SyncFailure{Success: false, Error: err.Error()})
		return
	}

	resp := models.SyncResponse{Success: true, Problems: []models.SolvedProblem{}}
	if result.Snapshot != nil {
		resp.Problems = result.Snapshot.Problems
		resp.LatestTimestamp = result.Snapshot.LatestTimestamp
	}
	writeJSON(w, http.StatusOK, resp)
}

func (ac *ApiController) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := ac.snapshots.Read(r.Context())
	if err != nil {
		ac.logger.Errorf(providers.TypeGet, "Failed to read snapshot: %s", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if snap == nil {
		http.Error(w, "No Data", http.StatusNotFound)
		return
	}
	ac.serveFromCacheOrCompute(w, "snapshot:"+strconv.FormatUint(snap.Generation, 10), func() (any, error) {
		return snap, nil
	})
}

// GetStats returns the popup summary: totals per freshness band.
func (ac *ApiController) GetStats(w http.ResponseWriter, r *http.Request) {
	snap, err := ac.snapshots.Read(r.Context())
	if err != nil {
		ac.logger.Errorf(providers.TypeGet, "Failed to read snapshot: %s", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	// counts are taken at the start of the minute, the same granularity the
	// scheduler republishes band gauges and re-renders pages at
	at := ac.clock().Truncate(time.Minute)
	ac.serveFromCacheOrCompute(w, statsKey(snap, at), func() (any, error) {
		return models.CountBands(snap, ac.policy, at), nil
	})
}

func statsKey(snap *models.FreshnessSnapshot, at time.Time) string {
	var gen uint64
	if snap != nil {
		gen = snap.Generation
	}
	return fmt.Sprintf("stats:%d:%d", gen, at.Unix()/60)
}

// Annotate styles a document once and returns it. The page URL decides
// which problem is the current one.
func (ac *ApiController) Annotate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxDocumentBodySize)
	src, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	out, styled, err := ac.pages.Annotate(r.URL.Query().Get("url"), string(src))
	if err != nil {
		ac.logger.Warnf(providers.TypePost, "Failed to annotate document: %s", err)
		http.Error(w, "Unprocessable Entity", http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Annotated-Links", strconv.Itoa(styled))
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, out)
}

func (ac *ApiController) Navigate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var req models.NavigateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	scheduled := ac.orchestrator.Navigate(req.URL)
	writeJSON(w, http.StatusAccepted, map[string]bool{"scheduled": scheduled})
}

// DataUpdated handles the "data updated" message: the snapshot is reloaded
// from the store and every open page re-rendered.
func (ac *ApiController) DataUpdated(w http.ResponseWriter, r *http.Request) {
	snap, err := ac.snapshots.Reload(r.Context())
	if err != nil {
		ac.logger.Errorf(providers.TypePost, "Failed to reload snapshot: %s", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	ac.onSnapshot(snap)
	ac.pages.Refresh(snap)
	w.WriteHeader(http.StatusNoContent)
}
