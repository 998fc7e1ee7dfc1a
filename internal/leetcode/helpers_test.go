package leetcode

import (
	"io"
	"leetfresh/internal/providers"
	"leetfresh/internal/structures"
	"leetfresh/internal/testutil"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"
)

type recordedRequest struct {
	Method  string
	Path    string
	Header  http.Header
	Cookies map[string]string
	Body    string
}

// fakeLeetCode serves canned responses keyed by GraphQL operation name or
// request path and records every request it sees.
type fakeLeetCode struct {
	t        *testing.T
	server   *httptest.Server
	handlers map[string]http.HandlerFunc

	mu       sync.Mutex
	requests []recordedRequest
}

func newFakeLeetCode(t *testing.T) *fakeLeetCode {
	f := &fakeLeetCode{t: t, handlers: make(map[string]http.HandlerFunc)}
	f.server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeLeetCode) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	cookies := make(map[string]string)
	for _, c := range r.Cookies() {
		cookies[c.Name] = c.Value
	}
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		Method: r.Method, Path: r.URL.Path, Header: r.Header.Clone(), Cookies: cookies, Body: string(body),
	})
	f.mu.Unlock()

	key := r.URL.Path
	if r.URL.Path == "/graphql" {
		var req struct {
			Query string `json:"query"`
		}
		_ = json.Unmarshal(body, &req)
		switch {
		case strings.Contains(req.Query, "userProgressQuestionList"):
			key = "solved"
		case strings.Contains(req.Query, "recentAcSubmissionList"):
			key = "latest"
		}
	}
	h, ok := f.handlers[key]
	if !ok {
		http.NotFound(w, r)
		return
	}
	h(w, r)
}

func (f *fakeLeetCode) recorded() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func (f *fakeLeetCode) respond(key string, status int, body string) {
	f.handlers[key] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func testConfig(baseURL string) *structures.Config {
	return &structures.Config{
		LeetCode: structures.LeetCodeConfig{
			BaseURL:   baseURL,
			Session:   "sess-123",
			CsrfToken: "csrf-abc",
			PageSize:  4000,
			Timeout:   2 * time.Second,
		},
		Breaker: structures.BreakerConfig{
			MaxRequests:      1,
			Interval:         time.Minute,
			Timeout:          time.Minute,
			FailureThreshold: 0.5,
			MinRequests:      3,
		},
	}
}

func newTestClient(conf *structures.Config) (ClientInterface, *testutil.MockMetrics) {
	logger := &testutil.MockLogger{}
	metrics := &testutil.MockMetrics{}
	breaker := providers.NewBreakerProvider(conf, logger, IsTransportFailure())
	return NewClient(conf, providers.NewHTTPClientProvider(conf), breaker, logger, metrics), metrics
}
