package render

import (
	"leetfresh/internal/models"
	"leetfresh/internal/providers"
	"sync"
	"time"

	"golang.org/x/net/html"
)

// Renderer keeps one Document annotated with the newest snapshot. It holds
// at most one observer on its document.
type Renderer struct {
	mu        sync.Mutex
	annotator *Annotator
	logger    providers.Logger
	clock     func() time.Time
	doc       *Document
	cancel    func()
	lookup    *Lookup
}

func NewRenderer(annotator *Annotator, logger providers.Logger) *Renderer {
	return &Renderer{
		annotator: annotator,
		logger:    logger,
		clock:     time.Now,
		lookup:    NewLookup(nil),
	}
}

// Attach starts watching doc, dropping any document watched before.
func (r *Renderer) Attach(doc *Document) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
	}
	r.doc = doc
	r.cancel = doc.Observe(func() { r.Render() })
	r.renderLocked()
}

func (r *Renderer) Detach() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.doc = nil
}

// Update switches to snap if it is a different generation and re-renders.
func (r *Renderer) Update(snap *models.FreshnessSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if snap != nil && snap.Generation == r.lookup.Generation() && r.lookup.Len() > 0 {
		r.renderLocked()
		return
	}
	r.lookup = NewLookup(snap)
	r.renderLocked()
}

// Render annotates the attached document now and returns the number of
// links written to.
func (r *Renderer) Render() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.renderLocked()
}

func (r *Renderer) renderLocked() int {
	if r.doc == nil || r.lookup.Len() == 0 {
		return 0
	}
	current := CurrentSlug(r.doc.URL())
	now := r.clock()
	styled := 0
	r.doc.Edit(func(root *html.Node) {
		styled = r.annotator.Annotate(root, r.lookup, current, now)
	})
	if styled > 0 {
		r.logger.Debugf(providers.TypeRender, "Styled %d links on %s (generation %d)", styled, r.doc.URL(), r.lookup.Generation())
	}
	return styled
}
