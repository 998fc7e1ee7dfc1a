package testutil

import (
	"context"
	"leetfresh/internal/providers"
	"sync"
	"time"
)

// MockLogger implements providers.Logger and records calls.
type MockLogger struct {
	mu   sync.Mutex
	Logs []LogEntry
}

type LogEntry struct {
	Level  string
	Type   providers.TypeEnum
	Format string
	Args   []interface{}
}

func (m *MockLogger) record(level string, t providers.TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, LogEntry{Level: level, Type: t, Format: format, Args: args})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("error", t, format, args...)
}
func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("warn", t, format, args...)
}
func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("debug", t, format, args...)
}
func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("info", t, format, args...)
}
func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("fatal", t, format, args...)
}
func (m *MockLogger) Close() {}

// Count returns how many entries were logged at level.
func (m *MockLogger) Count(level string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, l := range m.Logs {
		if l.Level == level {
			n++
		}
	}
	return n
}

// MockCache implements providers.CacheProviderInterface.
type MockCache struct {
	mu            sync.Mutex
	Data          map[string][]byte
	Invalidations int
}

func NewMockCache() *MockCache {
	return &MockCache{Data: make(map[string][]byte)}
}

func (m *MockCache) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.Data[key]
	return val, ok
}

func (m *MockCache) Set(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[key] = value
}

func (m *MockCache) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Invalidations++
	m.Data = make(map[string][]byte)
}

// MockCompressor implements storage.CompressorInterface with injectable behavior.
type MockCompressor struct {
	CompressFn   func([]byte) ([]byte, error)
	DecompressFn func([]byte) ([]byte, error)
}

func (m *MockCompressor) Compress(val []byte) ([]byte, error) {
	if m.CompressFn != nil {
		return m.CompressFn(val)
	}
	// Default: return as-is (identity)
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Decompress(val []byte) ([]byte, error) {
	if m.DecompressFn != nil {
		return m.DecompressFn(val)
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

// MockMetrics implements providers.MetricsProviderInterface and counts the
// sync-related calls.
type MockMetrics struct {
	mu          sync.Mutex
	SyncRuns    map[string]int
	Probes      map[string]int
	RemoteCalls map[string]int
	Bands       map[string]int
	Refreshes   int
}

func (m *MockMetrics) inc(dst *map[string]int, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if *dst == nil {
		*dst = make(map[string]int)
	}
	(*dst)[key]++
}

func (m *MockMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (m *MockMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (m *MockMetrics) IncCacheHits()                                    {}
func (m *MockMetrics) IncCacheMisses()                                  {}
func (m *MockMetrics) ObservePersistenceDuration(_ time.Duration)       {}
func (m *MockMetrics) IncSyncRuns(trigger, outcome string)              { m.inc(&m.SyncRuns, trigger+":"+outcome) }
func (m *MockMetrics) IncProbes(result string)                          { m.inc(&m.Probes, result) }
func (m *MockMetrics) IncRemoteCalls(op, outcome string)                { m.inc(&m.RemoteCalls, op+":"+outcome) }
func (m *MockMetrics) ObserveRefreshDuration(_ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Refreshes++
}
func (m *MockMetrics) SetBandProblems(band string, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Bands == nil {
		m.Bands = make(map[string]int)
	}
	m.Bands[band] = count
}

func (m *MockMetrics) SyncRun(trigger, outcome string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.SyncRuns[trigger+":"+outcome]
}

func (m *MockMetrics) Probe(result string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Probes[result]
}

// MockStore implements storage.Store in memory.
type MockStore struct {
	mu       sync.Mutex
	Data     map[string][]byte
	GetErr   error
	SetErr   error
	GetCalls int
	SetCalls int
}

func NewMockStore() *MockStore {
	return &MockStore{Data: make(map[string][]byte)}
}

func (m *MockStore) Get(_ context.Context, keys []string) (map[string][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetCalls++
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		if v, ok := m.Data[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (m *MockStore) Set(_ context.Context, entries map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SetCalls++
	if m.SetErr != nil {
		return m.SetErr
	}
	for k, v := range entries {
		m.Data[k] = v
	}
	return nil
}

func (m *MockStore) Close() error { return nil }
