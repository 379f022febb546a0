package fetch

import (
	"crypto/sha1"
	"encoding/hex"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// normalizeItem maps a parsed feed item onto an entry record: missing
// identifiers fall back to the link, a non-http link is replaced by an http
// guid, and the publication time defaults to the fetch time.
func normalizeItem(san *Sanitizer, feedID int64, item *gofeed.Item, fetchedAt time.Time) UpsertEntryInput {
	link := strings.TrimSpace(item.Link)
	guid := strings.TrimSpace(item.GUID)
	title := strings.TrimSpace(item.Title)

	if !isHTTPURL(link) && isHTTPURL(guid) {
		link = guid
	}
	if guid == "" {
		guid = link
	}
	if title == "" {
		title = link
	}

	published := fetchedAt
	switch {
	case item.PublishedParsed != nil:
		published = *item.PublishedParsed
	case item.UpdatedParsed != nil:
		published = *item.UpdatedParsed
	}
	content := strings.TrimSpace(item.Content)
	if content == "" {
		content = strings.TrimSpace(item.Description)
	}
	if guid == "" {
		guid = syntheticGUID(title, content, published)
	}

	return UpsertEntryInput{
		FeedID:      feedID,
		GUID:        san.Restricted(guid),
		URL:         san.Restricted(link),
		Title:       san.Restricted(title),
		Author:      san.Restricted(itemAuthor(item)),
		Content:     san.Relaxed(content),
		Summary:     san.Relaxed(item.Description),
		PublishedAt: published.UTC(),
	}
}

func itemAuthor(item *gofeed.Item) string {
	if item.Author != nil && strings.TrimSpace(item.Author.Name) != "" {
		return strings.TrimSpace(item.Author.Name)
	}
	for _, a := range item.Authors {
		if a != nil && strings.TrimSpace(a.Name) != "" {
			return strings.TrimSpace(a.Name)
		}
	}
	return ""
}

// syntheticGUID identifies an item that carries neither a guid nor a link.
func syntheticGUID(title, content string, published time.Time) string {
	h := sha1.New()
	h.Write([]byte(strings.TrimSpace(title)))
	h.Write([]byte{0})
	h.Write([]byte(published.UTC().Format(time.RFC3339)))
	h.Write([]byte{0})
	h.Write([]byte(content))
	return "sha1:" + hex.EncodeToString(h.Sum(nil))
}

func isHTTPURL(v string) bool {
	u, err := url.Parse(strings.TrimSpace(v))
	if err != nil || u.Host == "" {
		return false
	}
	return strings.EqualFold(u.Scheme, "http") || strings.EqualFold(u.Scheme, "https")
}
