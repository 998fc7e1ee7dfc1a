package leetcode

import (
	"context"
	"leetfresh/internal/apperr"
	"leetfresh/internal/dom"
	"leetfresh/internal/providers"
	"leetfresh/internal/structures"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var (
	handlePattern       = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,40}$`)
	profilePathPattern  = regexp.MustCompile(`^/u/([^/?#]+)/?$`)
	progressPathPattern = regexp.MustCompile(`/progress/([^/?#]+)`)
)

// PageView is a read-only copy of the page the user is on. Root may be nil
// when no page is available, in which case DOM probes report nothing.
type PageView struct {
	URL  string
	Root *html.Node
}

type IdentityProbe interface {
	Name() string
	Probe(ctx context.Context, page *PageView) (string, bool)
}

type IdentityResolverInterface interface {
	Resolve(ctx context.Context, page *PageView) (string, error)
}

// Resolver tries its probes in order and returns the first valid handle.
type Resolver struct {
	probes []IdentityProbe
	logger providers.Logger
}

func NewResolver(probes []IdentityProbe, logger providers.Logger) *Resolver {
	return &Resolver{probes: probes, logger: logger}
}

// NewIdentityResolver builds the default probe chain: configured override,
// the current-user endpoint, then the DOM fallbacks.
func NewIdentityResolver(conf *structures.Config, client ClientInterface, logger providers.Logger) IdentityResolverInterface {
	base, _ := url.Parse(conf.LeetCode.BaseURL)
	host := ""
	if base != nil {
		host = base.Host
	}

	var probes []IdentityProbe
	if conf.LeetCode.Username != "" {
		probes = append(probes, StaticProbe(conf.LeetCode.Username))
	}
	probes = append(probes,
		&APIProbe{client: client},
		&ProfileLinkProbe{host: host},
		&AvatarProbe{},
		&TextHeuristicProbe{},
	)
	return NewResolver(probes, logger)
}

func (r *Resolver) Resolve(ctx context.Context, page *PageView) (string, error) {
	for _, p := range r.probes {
		if err := ctx.Err(); err != nil {
			return "", apperr.Wrap(apperr.IdentityUnavailable, "resolveIdentity", err)
		}
		handle, ok := p.Probe(ctx, page)
		if ok && ValidHandle(handle) {
			r.logger.Debugf(providers.TypeSync, "Identity %s resolved by %s", handle, p.Name())
			return handle, nil
		}
	}
	return "", apperr.New(apperr.IdentityUnavailable, "resolveIdentity", "no probe found a handle")
}

func ValidHandle(h string) bool {
	return handlePattern.MatchString(h)
}

// StaticProbe always answers with a fixed handle, e.g. from configuration.
type StaticProbe string

func (s StaticProbe) Name() string { return "static" }

func (s StaticProbe) Probe(_ context.Context, _ *PageView) (string, bool) {
	return string(s), s != ""
}

// APIProbe asks the current-user endpoint who the session belongs to.
type APIProbe struct {
	client ClientInterface
}

type currentUser struct {
	UserName *string `json:"user_name"`
}

func (a *APIProbe) Name() string { return "api" }

func (a *APIProbe) Probe(ctx context.Context, _ *PageView) (string, bool) {
	var u currentUser
	if err := a.client.GetJSON(ctx, "identity", "/api/problems/all/", &u); err != nil {
		return "", false
	}
	if u.UserName == nil {
		return "", false
	}
	return strings.TrimSpace(*u.UserName), true
}

// profileContainers are checked in order before the whole document.
var profileContainers = []func(*html.Node) bool{
	func(n *html.Node) bool { return dom.IsElement(n, "nav") },
	func(n *html.Node) bool { return dom.IsElement(n, "header") },
	func(n *html.Node) bool { id, _ := dom.Attr(n, "id"); return id == "navbar-root" },
	func(n *html.Node) bool { return dom.ClassContains(n, "navbar") },
}

// ProfileLinkProbe looks for a /u/<handle> link, first inside known
// navigation containers and then anywhere on the same origin.
type ProfileLinkProbe struct {
	host string
}

func (p *ProfileLinkProbe) Name() string { return "profile-link" }

func (p *ProfileLinkProbe) Probe(_ context.Context, page *PageView) (string, bool) {
	if page == nil || page.Root == nil {
		return "", false
	}
	for _, match := range profileContainers {
		for _, c := range dom.FindAll(page.Root, match) {
			if h, ok := p.firstProfileLink(c); ok {
				return h, true
			}
		}
	}
	return p.firstProfileLink(page.Root)
}

func (p *ProfileLinkProbe) firstProfileLink(root *html.Node) (string, bool) {
	for _, a := range dom.FindAll(root, func(n *html.Node) bool { return dom.IsElement(n, "a") }) {
		href, ok := dom.Attr(a, "href")
		if !ok {
			continue
		}
		u, err := url.Parse(href)
		if err != nil {
			continue
		}
		if u.Host != "" && u.Host != p.host {
			continue
		}
		m := profilePathPattern.FindStringSubmatch(u.Path)
		if m != nil && ValidHandle(m[1]) {
			return m[1], true
		}
	}
	return "", false
}

// AvatarProbe reads the handle from a /progress/<handle> URL or the avatar
// image's alt text.
type AvatarProbe struct{}

func (a *AvatarProbe) Name() string { return "avatar" }

func (a *AvatarProbe) Probe(_ context.Context, page *PageView) (string, bool) {
	if page == nil {
		return "", false
	}
	if u, err := url.Parse(page.URL); err == nil {
		if m := progressPathPattern.FindStringSubmatch(u.Path); m != nil {
			return m[1], true
		}
	}
	if page.Root == nil {
		return "", false
	}
	avatar := dom.FindFirst(page.Root, func(n *html.Node) bool {
		v, _ := dom.Attr(n, "data-cypress")
		return v == "avatar"
	})
	if avatar == nil {
		return "", false
	}
	alt, ok := dom.Attr(avatar, "alt")
	return strings.TrimSpace(alt), ok && alt != ""
}

// TextHeuristicProbe takes the first short alphanumeric text found in an
// element whose class mentions "username".
type TextHeuristicProbe struct{}

func (t *TextHeuristicProbe) Name() string { return "text-heuristic" }

func (t *TextHeuristicProbe) Probe(_ context.Context, page *PageView) (string, bool) {
	if page == nil || page.Root == nil {
		return "", false
	}
	for _, n := range dom.FindAll(page.Root, func(n *html.Node) bool { return dom.ClassContains(n, "username") }) {
		text := strings.TrimPrefix(strings.TrimSpace(dom.TextContent(n)), "@")
		if ValidHandle(text) {
			return text, true
		}
	}
	return "", false
}
