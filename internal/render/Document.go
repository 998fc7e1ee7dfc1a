package render

import (
	"fmt"
	"leetfresh/internal/dom"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document is a live HTML page. Changes made through Mutate are announced
// to every observer once the change is complete; changes made through Edit
// are silent and are used by the renderer for its own writes.
type Document struct {
	mu        sync.Mutex
	url       string
	root      *html.Node
	observers map[uint64]func()
	nextID    uint64
}

func NewDocument(url, src string) (*Document, error) {
	root, err := dom.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return &Document{
		url:       url,
		root:      root,
		observers: make(map[uint64]func()),
	}, nil
}

func (d *Document) URL() string {
	return d.url
}

// Mutate applies fn to the tree and then notifies observers once.
func (d *Document) Mutate(fn func(root *html.Node)) {
	d.mu.Lock()
	fn(d.root)
	observers := make([]func(), 0, len(d.observers))
	for _, o := range d.observers {
		observers = append(observers, o)
	}
	d.mu.Unlock()

	for _, o := range observers {
		o()
	}
}

// Edit applies fn to the tree without notifying anyone.
func (d *Document) Edit(fn func(root *html.Node)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(d.root)
}

// Observe registers fn for change notifications. The returned function
// removes it again.
func (d *Document) Observe(fn func()) (cancel func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.nextID
	d.nextID++
	d.observers[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			defer d.mu.Unlock()
			delete(d.observers, id)
		})
	}
}

func (d *Document) ObserverCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.observers)
}

func (d *Document) Render() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return dom.Render(d.root)
}

// Snapshot returns a detached deep copy of the tree.
func (d *Document) Snapshot() *html.Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	return dom.Clone(d.root)
}

// ReplaceContent swaps the whole page for src.
func (d *Document) ReplaceContent(src string) error {
	fresh, err := dom.Parse(src)
	if err != nil {
		return fmt.Errorf("failed to parse document: %w", err)
	}
	d.Mutate(func(root *html.Node) {
		for c := root.FirstChild; c != nil; c = root.FirstChild {
			root.RemoveChild(c)
		}
		for c := fresh.FirstChild; c != nil; c = fresh.FirstChild {
			fresh.RemoveChild(c)
			root.AppendChild(c)
		}
	})
	return nil
}

// AppendContent parses src as body content and appends it, the way a
// client-side app renders more rows into the page.
func (d *Document) AppendContent(src string) error {
	parent := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(src), parent)
	if err != nil {
		return fmt.Errorf("failed to parse fragment: %w", err)
	}
	d.Mutate(func(root *html.Node) {
		body := dom.FindFirst(root, func(n *html.Node) bool { return dom.IsElement(n, "body") })
		if body == nil {
			body = root
		}
		for _, n := range nodes {
			body.AppendChild(n)
		}
	})
	return nil
}
