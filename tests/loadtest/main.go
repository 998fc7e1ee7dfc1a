// Command loadtest drives a running leetfresh daemon through its read,
// annotate and live-page paths and prints per-route latency.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"
)

var (
	addr     = flag.String("addr", "http://127.0.0.1:18090", "daemon base URL")
	workers  = flag.Int("workers", 50, "concurrent clients per phase")
	duration = flag.Duration("duration", 10*time.Second, "length of each phase")
	slugs    = flag.Int("slugs", 400, "distinct problem slugs in generated lists")
	rows     = flag.Int("rows", 50, "problem rows per generated list")
	withSync = flag.Bool("sync", false, "run one explicit POST /sync first (talks to leetcode.com)")
)

const listURL = "https://leetcode.com/problemset/"

// op performs one request sequence and records every call it makes.
type op func(c *client, rng *rand.Rand)

type weighted struct {
	weight float64
	run    op
}

type phase struct {
	name string
	ops  []weighted
}

var phases = []phase{
	{"read: /stats + /snapshot", []weighted{{0.5, getStats}, {0.5, getSnapshot}}},
	{"one-shot annotate", []weighted{{1, annotate}}},
	{"live pages + navigation", []weighted{{0.6, pageLifecycle}, {0.2, navigate}, {0.2, getStats}}},
}

func main() {
	flag.Parse()
	c := &client{http: &http.Client{Timeout: 5 * time.Second}}

	fmt.Printf("leetfresh load test against %s (%d workers, %s per phase)\n", *addr, *workers, *duration)
	if err := c.waitHealthy(30, 200*time.Millisecond); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if *withSync {
		c.call("POST /sync", http.MethodPost, "/sync", "application/json", strings.NewReader("{}"), http.StatusOK)
		c.report("explicit sync", time.Second)
	}

	for _, p := range phases {
		c.reset()
		elapsed := run(c, p)
		c.report(p.name, elapsed)
	}
}

func run(c *client, p phase) time.Duration {
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < *workers; i++ {
		rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(i)))
		g.Go(func() error {
			for ctx.Err() == nil {
				pick(p.ops, rng)(c, rng)
			}
			return nil
		})
	}
	_ = g.Wait()
	return time.Since(start)
}

func pick(ops []weighted, rng *rand.Rand) op {
	r := rng.Float64()
	for _, w := range ops {
		if r < w.weight {
			return w.run
		}
		r -= w.weight
	}
	return ops[len(ops)-1].run
}

// --- client and bookkeeping ---

type client struct {
	http  *http.Client
	mu    sync.Mutex
	calls map[string][]time.Duration
	fails map[string]int
	total atomic.Int64
}

func (c *client) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = make(map[string][]time.Duration)
	c.fails = make(map[string]int)
	c.total.Store(0)
}

func (c *client) waitHealthy(attempts int, every time.Duration) error {
	for i := 0; i < attempts; i++ {
		resp, err := c.http.Get(*addr + "/health")
		if err == nil {
			resp.Body.Close()
			return nil
		}
		time.Sleep(every)
	}
	return fmt.Errorf("daemon at %s is not answering /health", *addr)
}

// call issues one request and returns the body and whether the status was
// one of want.
func (c *client) call(route, method, path, contentType string, body io.Reader, want ...int) ([]byte, bool) {
	req, err := http.NewRequest(method, *addr+path, body)
	if err != nil {
		return nil, false
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	var out []byte
	if err == nil {
		out, _ = io.ReadAll(resp.Body)
		resp.Body.Close()
	}
	ok := err == nil && slices.Contains(want, resp.StatusCode)
	c.record(route, time.Since(start), ok)
	return out, ok
}

func (c *client) record(route string, d time.Duration, ok bool) {
	c.total.Inc()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.calls == nil {
		c.calls = make(map[string][]time.Duration)
		c.fails = make(map[string]int)
	}
	c.calls[route] = append(c.calls[route], d)
	if !ok {
		c.fails[route]++
	}
}

func (c *client) report(name string, elapsed time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Printf("\n== %s ==\n", name)
	fmt.Printf("  %-20s %8s %6s %9s %9s %9s\n", "route", "calls", "fails", "p50", "p95", "p99")
	routes := make([]string, 0, len(c.calls))
	for r := range c.calls {
		routes = append(routes, r)
	}
	slices.Sort(routes)
	for _, r := range routes {
		lat := c.calls[r]
		slices.Sort(lat)
		fmt.Printf("  %-20s %8d %6d %9s %9s %9s\n", r, len(lat), c.fails[r],
			quantile(lat, 0.50), quantile(lat, 0.95), quantile(lat, 0.99))
	}
	fmt.Printf("  %d calls in %s (%.0f/s)\n", c.total.Load(), elapsed.Round(time.Millisecond),
		float64(c.total.Load())/elapsed.Seconds())
}

func quantile(sorted []time.Duration, q float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	i := min(int(float64(len(sorted))*q), len(sorted)-1)
	return sorted[i].Round(10 * time.Microsecond)
}

// --- operations ---

// problemList builds a problemset table with an acceptance column, the
// shape the annotator places badges into.
func problemList(rng *rand.Rand) string {
	var b strings.Builder
	b.WriteString(`<html><body><div role="rowgroup">`)
	for i := 0; i < *rows; i++ {
		slug := fmt.Sprintf("problem-%d", rng.Intn(*slugs)+1)
		fmt.Fprintf(&b, `<div role="row"><a href="/problems/%s/">%s</a><span class="text-sm">%d.%d%%</span></div>`,
			slug, slug, rng.Intn(90)+10, rng.Intn(10))
	}
	b.WriteString(`</div></body></html>`)
	return b.String()
}

func getStats(c *client, _ *rand.Rand) {
	c.call("GET /stats", http.MethodGet, "/stats", "", nil, http.StatusOK)
}

func getSnapshot(c *client, _ *rand.Rand) {
	// 404 before the first sync is a valid answer
	c.call("GET /snapshot", http.MethodGet, "/snapshot", "", nil, http.StatusOK, http.StatusNotFound)
}

func annotate(c *client, rng *rand.Rand) {
	c.call("POST /annotate", http.MethodPost, "/annotate?url="+url.QueryEscape(listURL),
		"text/html", strings.NewReader(problemList(rng)), http.StatusOK)
}

func navigate(c *client, rng *rand.Rand) {
	body, _ := json.Marshal(map[string]string{"url": fmt.Sprintf("%s?page=%d", listURL, rng.Intn(50)+1)})
	c.call("POST /navigate", http.MethodPost, "/navigate", "application/json", bytes.NewReader(body), http.StatusAccepted)
}

// pageLifecycle opens a live page, appends rows, reads the annotated page
// back and closes it.
func pageLifecycle(c *client, rng *rand.Rand) {
	open, _ := json.Marshal(map[string]string{"url": listURL, "html": problemList(rng)})
	out, ok := c.call("POST /pages", http.MethodPost, "/pages", "application/json", bytes.NewReader(open), http.StatusCreated)
	if !ok {
		return
	}
	var page struct {
		ID string `json:"id"`
	}
	if json.Unmarshal(out, &page) != nil || page.ID == "" {
		return
	}
	id := url.QueryEscape(page.ID)

	if _, ok := c.call("PUT /pages/content", http.MethodPut, "/pages/content?append=1&id="+id,
		"text/html", strings.NewReader(problemList(rng)), http.StatusNoContent); !ok {
		return
	}
	c.call("GET /pages/content", http.MethodGet, "/pages/content?id="+id, "", nil, http.StatusOK)
	c.call("POST /pages/close", http.MethodPost, "/pages/close?id="+id, "", nil, http.StatusNoContent)
}
