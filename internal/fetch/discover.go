package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"sort"
	"strings"

	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	discoverBodyLimit = 8 << 20
	acceptFeeds       = "application/xml, application/atom+xml, application/rss+xml, application/feed+json, text/xml, text/html, */*;q=0.8"
)

var errNoFeed = errors.New("no feed discovered")

// NormalizeURL defaults the scheme to http and drops a trailing slash so a
// submitted address can be matched against stored feed URLs.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("url is required")
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + strings.TrimPrefix(raw, "//")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid url %q", raw)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.RawQuery == "" && u.Fragment == "" {
		u.Path = strings.TrimRight(u.Path, "/")
		u.RawPath = ""
	}
	return u.String(), nil
}

// Autodiscover looks for a feed behind rawURL, either the document itself or
// an alternate link in an HTML page.
func (f *Fetcher) Autodiscover(ctx context.Context, rawURL string) (string, bool) {
	found, err := DiscoverFeedURL(ctx, f.client, gofeed.NewParser(), rawURL, f.cfg.UserAgent)
	if err != nil {
		f.logger.Debug("autodiscovery failed", "url", rawURL, "err", err)
		return "", false
	}
	f.logger.Debug("feed discovered", "url", rawURL, "feed", found)
	return found, true
}

// DiscoverFeedURL returns rawURL itself (after redirects) when it serves a
// feed, otherwise the best alternate feed link of the HTML page it serves.
func DiscoverFeedURL(ctx context.Context, client *http.Client, parser *gofeed.Parser, rawURL, userAgent string) (string, error) {
	target, err := NormalizeURL(rawURL)
	if err != nil {
		return "", err
	}

	page, err := fetchDocument(ctx, client, target, userAgent)
	if err != nil {
		return "", err
	}
	if _, err := parser.Parse(bytes.NewReader(page.body)); err == nil {
		return page.finalURL, nil
	}

	base, err := url.Parse(page.finalURL)
	if err != nil {
		return "", err
	}
	if links := discoverFeedCandidates(page.body, base); len(links) > 0 {
		return links[0], nil
	}
	if page.status < 200 || page.status >= 300 {
		return "", fmt.Errorf("request failed: http %d", page.status)
	}
	return "", fmt.Errorf("%w at %s", errNoFeed, page.finalURL)
}

type document struct {
	body     []byte
	finalURL string
	status   int
}

func fetchDocument(ctx context.Context, client *http.Client, target, userAgent string) (document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return document{}, err
	}
	req.Header.Set("User-Agent", fallback(strings.TrimSpace(userAgent), "sharedfeed/0.1"))
	req.Header.Set("Accept", acceptFeeds)

	resp, err := client.Do(req)
	if err != nil {
		return document{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, discoverBodyLimit))
	if err != nil {
		return document{}, err
	}
	if len(body) == 0 {
		return document{}, fmt.Errorf("empty response body from %s", target)
	}

	doc := document{body: body, finalURL: target, status: resp.StatusCode}
	if resp.Request != nil && resp.Request.URL != nil {
		doc.finalURL = resp.Request.URL.String()
	}
	return doc, nil
}

type feedLink struct {
	href string
	rank int
}

// discoverFeedCandidates lists the absolute URLs of the page's alternate
// feed links, declared RSS and Atom first, then JSON feeds, then links whose
// type is only guessed from the href.
func discoverFeedCandidates(body []byte, base *url.URL) []string {
	var links []feedLink
	var baseHref string

	z := html.NewTokenizer(bytes.NewReader(body))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		tok := z.Token()
		switch tok.DataAtom {
		case atom.Base:
			if baseHref == "" {
				baseHref = strings.TrimSpace(attr(tok, "href"))
			}
		case atom.Link:
			if !hasRelToken(attr(tok, "rel"), "alternate") {
				continue
			}
			href := strings.TrimSpace(attr(tok, "href"))
			if href == "" {
				continue
			}
			rank, ok := feedLinkRank(attr(tok, "type"), href)
			if !ok {
				continue
			}
			links = append(links, feedLink{href: href, rank: rank})
		}
	}

	resolved := base
	if baseHref != "" {
		if u, err := url.Parse(baseHref); err == nil {
			resolved = base.ResolveReference(u)
		}
	}

	sort.SliceStable(links, func(i, j int) bool { return links[i].rank < links[j].rank })
	var out []string
	seen := map[string]struct{}{}
	for _, l := range links {
		u, err := url.Parse(l.href)
		if err != nil {
			continue
		}
		abs := resolved.ResolveReference(u).String()
		if _, ok := seen[abs]; ok {
			continue
		}
		seen[abs] = struct{}{}
		out = append(out, abs)
	}
	return out
}

// feedLinkRank reports whether a link looks like a feed and how strongly.
// WordPress REST endpoints advertise application/json alternates that are not feeds.
func feedLinkRank(typeAttr, href string) (int, bool) {
	typeAttr = strings.ToLower(strings.TrimSpace(typeAttr))
	lowerHref := strings.ToLower(href)
	switch typeAttr {
	case "application/rss+xml", "application/atom+xml":
		return 0, true
	case "application/feed+json":
		return 1, true
	case "application/json":
		if strings.Contains(lowerHref, "/wp-json/") {
			return 0, false
		}
		return 1, true
	case "application/xml", "text/xml":
		return 2, true
	case "":
	default:
		if strings.Contains(typeAttr, "rss") || strings.Contains(typeAttr, "atom") || strings.Contains(typeAttr, "feed") {
			return 2, true
		}
		return 0, false
	}

	p := lowerHref
	if u, err := url.Parse(href); err == nil && u.Path != "" {
		p = strings.ToLower(u.Path)
	}
	switch path.Ext(p) {
	case ".rss", ".atom", ".xml", ".json":
		return 3, true
	}
	if strings.Contains(lowerHref, "/feed") || strings.Contains(lowerHref, "rss") || strings.Contains(lowerHref, "atom") {
		return 3, true
	}
	return 0, false
}

func hasRelToken(rel, want string) bool {
	for _, token := range strings.Fields(strings.ToLower(rel)) {
		if token == want {
			return true
		}
	}
	return false
}

func attr(tok html.Token, key string) string {
	for _, a := range tok.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}
