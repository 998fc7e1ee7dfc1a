// Package dom holds the small set of html.Node helpers shared by the
// renderer and the identity fallbacks.
package dom

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

func Parse(src string) (*html.Node, error) {
	return html.Parse(strings.NewReader(src))
}

func Render(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Walk visits n and its descendants in document order. Returning false from
// fn skips the node's children.
func Walk(n *html.Node, fn func(*html.Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		Walk(c, fn)
	}
}

// FindAll returns every element under n, n included, matching pred.
func FindAll(n *html.Node, pred func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	Walk(n, func(node *html.Node) bool {
		if node.Type == html.ElementNode && pred(node) {
			out = append(out, node)
		}
		return true
	})
	return out
}

func FindFirst(n *html.Node, pred func(*html.Node) bool) *html.Node {
	var found *html.Node
	Walk(n, func(node *html.Node) bool {
		if found != nil {
			return false
		}
		if node.Type == html.ElementNode && pred(node) {
			found = node
			return false
		}
		return true
	})
	return found
}

func Attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func IsElement(n *html.Node, tag string) bool {
	return n.Type == html.ElementNode && n.Data == tag
}

func HasClass(n *html.Node, class string) bool {
	v, _ := Attr(n, "class")
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}

// ClassContains mirrors the [class*="..."] selector.
func ClassContains(n *html.Node, part string) bool {
	v, _ := Attr(n, "class")
	return strings.Contains(v, part)
}

func TextContent(n *html.Node) string {
	var b strings.Builder
	Walk(n, func(node *html.Node) bool {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
		}
		return true
	})
	return b.String()
}

// Clone returns a deep copy of n detached from any parent.
func Clone(n *html.Node) *html.Node {
	cp := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      append([]html.Attribute(nil), n.Attr...),
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		cp.AppendChild(Clone(c))
	}
	return cp
}
