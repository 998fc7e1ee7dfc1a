package services

import (
	"errors"
	"fmt"
	"leetfresh/internal/leetcode"
	"leetfresh/internal/models"
	"leetfresh/internal/providers"
	"leetfresh/internal/render"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/html"
)

var ErrPageNotFound = errors.New("page not found")

// PageRegistryInterface tracks the live pages the host keeps open. Every
// page has its own renderer so a new snapshot reaches all of them.
type PageRegistryInterface interface {
	Open(url, src string) (string, error)
	Update(id, src string, appendContent bool) error
	Content(id string) (string, error)
	Close(id string) error
	Annotate(url, src string) (string, int, error)
	Refresh(snap *models.FreshnessSnapshot)
	LatestPage() *leetcode.PageView
	Len() int
}

type livePage struct {
	doc      *render.Document
	renderer *render.Renderer
	touched  time.Time
}

type PageRegistry struct {
	mu        sync.RWMutex
	pages     map[string]*livePage
	latest    string
	annotator *render.Annotator
	cache     FreshnessCacheInterface
	logger    providers.Logger
	clock     func() time.Time
}

func NewPageRegistry(annotator *render.Annotator, cache FreshnessCacheInterface, logger providers.Logger) PageRegistryInterface {
	return &PageRegistry{
		pages:     make(map[string]*livePage),
		annotator: annotator,
		cache:     cache,
		logger:    logger,
		clock:     time.Now,
	}
}

func (pr *PageRegistry) Open(url, src string) (string, error) {
	doc, err := render.NewDocument(url, src)
	if err != nil {
		return "", err
	}
	r := render.NewRenderer(pr.annotator, pr.logger)
	r.Update(pr.cache.Current())
	r.Attach(doc)

	id := uuid.NewString()
	pr.mu.Lock()
	pr.pages[id] = &livePage{doc: doc, renderer: r, touched: pr.clock()}
	pr.latest = id
	pr.mu.Unlock()

	pr.logger.Debugf(providers.TypeRender, "Opened page %s for %s", id, url)
	return id, nil
}

// Update changes a page's content; its renderer picks the change up
// through the document's observer.
func (pr *PageRegistry) Update(id, src string, appendContent bool) error {
	page, err := pr.touch(id)
	if err != nil {
		return err
	}
	if appendContent {
		return page.doc.AppendContent(src)
	}
	return page.doc.ReplaceContent(src)
}

func (pr *PageRegistry) Content(id string) (string, error) {
	pr.mu.RLock()
	page, ok := pr.pages[id]
	pr.mu.RUnlock()
	if !ok {
		return "", ErrPageNotFound
	}
	return page.doc.Render()
}

func (pr *PageRegistry) Close(id string) error {
	pr.mu.Lock()
	page, ok := pr.pages[id]
	if ok {
		delete(pr.pages, id)
		if pr.latest == id {
			pr.latest = pr.mostRecentLocked()
		}
	}
	pr.mu.Unlock()
	if !ok {
		return ErrPageNotFound
	}
	page.renderer.Detach()
	pr.logger.Debugf(providers.TypeRender, "Closed page %s", id)
	return nil
}

// Annotate renders src once against the current snapshot without keeping
// it around.
func (pr *PageRegistry) Annotate(url, src string) (string, int, error) {
	doc, err := render.NewDocument(url, src)
	if err != nil {
		return "", 0, err
	}
	lookup := render.NewLookup(pr.cache.Current())
	current := render.CurrentSlug(url)
	now := pr.clock()

	styled := 0
	doc.Edit(func(root *html.Node) {
		styled = pr.annotator.Annotate(root, lookup, current, now)
	})
	out, err := doc.Render()
	if err != nil {
		return "", 0, fmt.Errorf("failed to render document: %w", err)
	}
	return out, styled, nil
}

func (pr *PageRegistry) Refresh(snap *models.FreshnessSnapshot) {
	pr.mu.RLock()
	renderers := make([]*render.Renderer, 0, len(pr.pages))
	for _, p := range pr.pages {
		renderers = append(renderers, p.renderer)
	}
	pr.mu.RUnlock()

	for _, r := range renderers {
		r.Update(snap)
	}
}

// LatestPage returns a copy of the most recently opened or updated page,
// or nil when no page is open.
func (pr *PageRegistry) LatestPage() *leetcode.PageView {
	pr.mu.RLock()
	page, ok := pr.pages[pr.latest]
	pr.mu.RUnlock()
	if !ok {
		return nil
	}
	return &leetcode.PageView{URL: page.doc.URL(), Root: page.doc.Snapshot()}
}

func (pr *PageRegistry) Len() int {
	pr.mu.RLock()
	defer pr.mu.RUnlock()
	return len(pr.pages)
}

func (pr *PageRegistry) touch(id string) (*livePage, error) {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	page, ok := pr.pages[id]
	if !ok {
		return nil, ErrPageNotFound
	}
	page.touched = pr.clock()
	pr.latest = id
	return page, nil
}

func (pr *PageRegistry) mostRecentLocked() string {
	latest := ""
	var at time.Time
	for id, p := range pr.pages {
		if latest == "" || p.touched.After(at) {
			latest, at = id, p.touched
		}
	}
	return latest
}
