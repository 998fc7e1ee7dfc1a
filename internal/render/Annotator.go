package render

import (
	"fmt"
	"leetfresh/internal/dom"
	"leetfresh/internal/models"
	"leetfresh/internal/structures"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	MarkerAttr     = "data-colored"
	StateAttr      = "data-freshness"
	IndicatorClass = "freshness-indicator"
)

var slugPattern = regexp.MustCompile(`/problems/([^/?#]+)`)

// Annotator styles problem links according to how long ago they were solved.
type Annotator struct {
	policy models.BandPolicy
}

func NewAnnotator(conf *structures.Config) *Annotator {
	return &Annotator{policy: models.BandPolicy{
		FreshDays:      conf.Bands.FreshDays,
		GoodDays:       conf.Bands.GoodDays,
		ReviewSoonDays: conf.Bands.ReviewSoonDays,
	}}
}

func (a *Annotator) Policy() models.BandPolicy {
	return a.policy
}

// SlugFromHref extracts the problem slug a link points to.
func SlugFromHref(href string) (string, bool) {
	m := slugPattern.FindStringSubmatch(href)
	if m == nil || m[1] == "" {
		return "", false
	}
	return m[1], true
}

// CurrentSlug returns the slug of the problem page at pageURL, if any.
func CurrentSlug(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	slug, _ := SlugFromHref(u.Path)
	return slug
}

// Annotate styles every solved problem link under root and returns how many
// links were written to. Links already carrying the current marker are left
// alone.
func (a *Annotator) Annotate(root *html.Node, lookup *Lookup, currentSlug string, now time.Time) int {
	if root == nil || lookup == nil || lookup.Len() == 0 {
		return 0
	}

	links := dom.FindAll(root, func(n *html.Node) bool {
		if !dom.IsElement(n, "a") {
			return false
		}
		href, _ := dom.Attr(n, "href")
		return strings.Contains(href, "/problems/")
	})

	styled := 0
	for _, link := range links {
		href, _ := dom.Attr(link, "href")
		slug, ok := SlugFromHref(href)
		if !ok || slug == currentSlug {
			continue
		}
		problem, ok := lookup.Get(slug)
		if !ok {
			continue
		}

		days := models.DaysSince(problem.Timestamp, now)
		state := fmt.Sprintf("%d/%d", lookup.Generation(), days)
		if marker, _ := dom.Attr(link, MarkerAttr); marker == slug {
			if cur, _ := dom.Attr(link, StateAttr); cur == state {
				continue
			}
		}

		colors := a.policy.Classify(days).Colors()
		dom.SetAttr(link, MarkerAttr, slug)
		dom.SetAttr(link, StateAttr, state)
		existing, _ := dom.Attr(link, "style")
		dom.SetAttr(link, "style", mergeStyle(existing, [][2]string{
			{"background-color", colors.Background + " !important"},
			{"border-left", "5px solid " + colors.Border + " !important"},
			{"transition", "all 0.2s ease"},
		}))
		placeIndicator(link, days, problem.Timestamp, colors)
		styled++
	}
	return styled
}

func placeIndicator(link *html.Node, days int, ts int64, colors models.BandColor) {
	badge := dom.FindFirst(link, func(n *html.Node) bool { return dom.HasClass(n, IndicatorClass) })
	if badge == nil {
		badge = &html.Node{Type: html.ElementNode, Data: "span", DataAtom: atom.Span}
		dom.SetAttr(badge, "class", IndicatorClass)

		percent := dom.FindFirst(link, func(n *html.Node) bool {
			return n.Type == html.ElementNode && dom.ClassContains(n, "text-sm") && !dom.HasClass(n, IndicatorClass)
		})
		if percent != nil && percent.Parent != nil && strings.Contains(dom.TextContent(percent), "%") {
			percent.Parent.InsertBefore(badge, percent)
		} else {
			link.AppendChild(badge)
		}
	}

	for c := badge.FirstChild; c != nil; c = badge.FirstChild {
		badge.RemoveChild(c)
	}
	badge.AppendChild(&html.Node{Type: html.TextNode, Data: strconv.Itoa(days) + "d ago"})
	dom.SetAttr(badge, "title", "Last solved: "+time.Unix(ts, 0).UTC().Format("2006-01-02"))
	dom.SetAttr(badge, "style", "display: inline-block; font-size: 11px; padding: 3px 8px; margin-right: 8px; "+
		"background: "+colors.Border+"; color: white; border-radius: 10px; font-weight: 700; "+
		"box-shadow: 0 2px 4px rgba(0,0,0,0.15);")
}

// mergeStyle sets each property in decls on an inline style string,
// replacing earlier values for the same property.
func mergeStyle(existing string, decls [][2]string) string {
	override := make(map[string]bool, len(decls))
	for _, d := range decls {
		override[d[0]] = true
	}

	parts := make([]string, 0, len(decls)+4)
	for _, raw := range strings.Split(existing, ";") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		name, _, _ := strings.Cut(raw, ":")
		if override[strings.ToLower(strings.TrimSpace(name))] {
			continue
		}
		parts = append(parts, raw)
	}
	for _, d := range decls {
		parts = append(parts, d[0]+": "+d[1])
	}
	return strings.Join(parts, "; ") + ";"
}
