package render

import (
	"leetfresh/internal/dom"
	"leetfresh/internal/models"
	"leetfresh/internal/testutil"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func newTestRenderer() *Renderer {
	r := NewRenderer(testAnnotator(), &testutil.MockLogger{})
	r.clock = func() time.Time { return testNow }
	return r
}

func newTestDocument(t *testing.T, url, body string) *Document {
	doc, err := NewDocument(url, "<html><body>"+body+"</body></html>")
	require.NoError(t, err)
	return doc
}

func snapshot(gen uint64, problems ...models.SolvedProblem) *models.FreshnessSnapshot {
	return models.NewSnapshot("alice", problems, testNow).WithGeneration(gen)
}

func TestDocument_MutateNotifiesOnce(t *testing.T) {
	doc := newTestDocument(t, "https://leetcode.com/problemset/", `<div></div>`)
	calls := 0
	cancel := doc.Observe(func() { calls++ })

	doc.Mutate(func(root *html.Node) {
		body := dom.FindFirst(root, func(n *html.Node) bool { return dom.IsElement(n, "div") })
		for i := 0; i < 5; i++ {
			body.AppendChild(&html.Node{Type: html.ElementNode, Data: "p"})
		}
	})
	assert.Equal(t, 1, calls)

	doc.Edit(func(root *html.Node) {})
	assert.Equal(t, 1, calls)

	cancel()
	cancel()
	doc.Mutate(func(root *html.Node) {})
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, doc.ObserverCount())
}

func TestDocument_AppendAndReplace(t *testing.T) {
	doc := newTestDocument(t, "https://leetcode.com/problemset/", `<p>one</p>`)

	require.NoError(t, doc.AppendContent(`<p>two</p>`))
	out, err := doc.Render()
	require.NoError(t, err)
	assert.Contains(t, out, "<p>one</p><p>two</p>")

	require.NoError(t, doc.ReplaceContent(`<html><body><p>three</p></body></html>`))
	out, err = doc.Render()
	require.NoError(t, err)
	assert.NotContains(t, out, "one")
	assert.Contains(t, out, "<p>three</p>")
}

func TestDocument_SnapshotIsDetached(t *testing.T) {
	doc := newTestDocument(t, "u", `<p>one</p>`)
	cp := doc.Snapshot()
	p := dom.FindFirst(cp, func(n *html.Node) bool { return dom.IsElement(n, "p") })
	p.Parent.RemoveChild(p)

	out, err := doc.Render()
	require.NoError(t, err)
	assert.Contains(t, out, "<p>one</p>")
}

func TestRenderer_RendersOnAttachAndUpdate(t *testing.T) {
	doc := newTestDocument(t, "https://leetcode.com/problemset/", `<a href="/problems/two-sum/">Two Sum</a>`)
	r := newTestRenderer()

	r.Attach(doc)
	out, _ := doc.Render()
	assert.NotContains(t, out, MarkerAttr)

	r.Update(snapshot(1, models.SolvedProblem{TitleSlug: "two-sum", Timestamp: daysAgo(5)}))
	out, _ = doc.Render()
	assert.Contains(t, out, `data-colored="two-sum"`)
	assert.Contains(t, out, "5d ago")
}

func TestRenderer_ReRendersOnMutation(t *testing.T) {
	doc := newTestDocument(t, "https://leetcode.com/problemset/", `<div role="rowgroup"></div>`)
	r := newTestRenderer()
	r.Update(snapshot(1,
		models.SolvedProblem{TitleSlug: "two-sum", Timestamp: daysAgo(5)},
		models.SolvedProblem{TitleSlug: "lru-cache", Timestamp: daysAgo(50)},
	))
	r.Attach(doc)

	require.NoError(t, doc.AppendContent(`<a href="/problems/lru-cache/">LRU</a>`))

	out, _ := doc.Render()
	assert.Contains(t, out, `data-colored="lru-cache"`)
	assert.Contains(t, out, "50d ago")
}

func TestRenderer_SingleObserverAcrossUpdates(t *testing.T) {
	doc := newTestDocument(t, "https://leetcode.com/problemset/", `<a href="/problems/two-sum/">Two Sum</a>`)
	r := newTestRenderer()
	r.Attach(doc)
	for gen := uint64(1); gen <= 5; gen++ {
		r.Update(snapshot(gen, models.SolvedProblem{TitleSlug: "two-sum", Timestamp: daysAgo(int(gen))}))
	}
	r.Attach(doc)

	assert.Equal(t, 1, doc.ObserverCount())
	out, _ := doc.Render()
	assert.Equal(t, 1, strings.Count(out, IndicatorClass))
	assert.Contains(t, out, "5d ago")
}

func TestRenderer_OwnWritesDoNotRetrigger(t *testing.T) {
	doc := newTestDocument(t, "https://leetcode.com/problemset/", `<a href="/problems/two-sum/">Two Sum</a>`)
	r := newTestRenderer()
	r.Update(snapshot(1, models.SolvedProblem{TitleSlug: "two-sum", Timestamp: daysAgo(1)}))

	notified := 0
	doc.Observe(func() { notified++ })
	r.Attach(doc)

	assert.Equal(t, 0, notified)
	assert.Equal(t, 0, r.Render())
}

func TestRenderer_DetachStopsObserving(t *testing.T) {
	doc := newTestDocument(t, "https://leetcode.com/problemset/", ``)
	r := newTestRenderer()
	r.Update(snapshot(1, models.SolvedProblem{TitleSlug: "two-sum", Timestamp: daysAgo(1)}))
	r.Attach(doc)
	r.Detach()

	require.NoError(t, doc.AppendContent(`<a href="/problems/two-sum/">Two Sum</a>`))
	out, _ := doc.Render()
	assert.NotContains(t, out, MarkerAttr)
	assert.Equal(t, 0, doc.ObserverCount())
}

func TestRenderer_EmptySnapshotIsNoop(t *testing.T) {
	doc := newTestDocument(t, "https://leetcode.com/problemset/", `<a href="/problems/two-sum/">Two Sum</a>`)
	r := newTestRenderer()
	r.Attach(doc)
	r.Update(snapshot(1))
	r.Update(nil)

	assert.Equal(t, 0, r.Render())
}
