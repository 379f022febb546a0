package opml

import (
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/odysseus0/sharedfeed/internal/model"
)

type opmlDoc struct {
	XMLName xml.Name `xml:"opml"`
	Version string   `xml:"version,attr,omitempty"`
	Head    opmlHead `xml:"head"`
	Body    opmlBody `xml:"body"`
}

type opmlHead struct {
	Title string `xml:"title,omitempty"`
}

type opmlBody struct {
	Outlines []opmlOutline `xml:"outline"`
}

type opmlOutline struct {
	Text         string        `xml:"text,attr,omitempty"`
	Title        string        `xml:"title,attr,omitempty"`
	Type         string        `xml:"type,attr,omitempty"`
	XMLURL       string        `xml:"xmlUrl,attr,omitempty"`
	XMLURLLower  string        `xml:"xmlurl,attr,omitempty"`
	HTMLURL      string        `xml:"htmlUrl,attr,omitempty"`
	HTMLURLLower string        `xml:"htmlurl,attr,omitempty"`
	Outlines     []opmlOutline `xml:"outline,omitempty"`
}

// Subscription is one feed read from an OPML document. Folder is the title
// of the nearest enclosing outline, empty for top-level feeds.
type Subscription struct {
	URL    string `json:"url"`
	Title  string `json:"title,omitempty"`
	Folder string `json:"folder,omitempty"`
}

func ReadOPML(path string) ([]Subscription, error) {
	r, err := openOPML(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return Parse(r)
}

// Parse decodes an OPML document. A feed listed twice keeps its first
// position and folder.
func Parse(r io.Reader) ([]Subscription, error) {
	var doc opmlDoc
	decoder := xml.NewDecoder(r)
	decoder.Strict = false
	decoder.Entity = xml.HTMLEntity
	decoder.CharsetReader = charset.NewReaderLabel
	if err := decoder.Decode(&doc); err != nil {
		return nil, err
	}

	var subs []Subscription
	seen := map[string]struct{}{}
	var walk func(outlines []opmlOutline, folder string)
	walk = func(outlines []opmlOutline, folder string) {
		for _, o := range outlines {
			if feedURL := o.FeedURL(); feedURL != "" {
				if _, ok := seen[feedURL]; !ok {
					seen[feedURL] = struct{}{}
					subs = append(subs, Subscription{URL: feedURL, Title: o.Label(), Folder: folder})
				}
			}
			if len(o.Outlines) > 0 {
				walk(o.Outlines, fallback(o.Label(), folder))
			}
		}
	}
	walk(doc.Body.Outlines, "")
	return subs, nil
}

func openOPML(path string) (io.ReadCloser, error) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		resp, err := http.Get(path)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("fetch %s: %s", path, resp.Status)
		}
		return resp.Body, nil
	}
	return os.Open(path)
}

// WriteOPML writes one outline per folder with its feeds nested inside,
// followed by the feeds that are in no folder.
func WriteOPML(w io.Writer, title string, feeds []model.Feed, folders []model.Folder) error {
	byID := make(map[int64]model.Feed, len(feeds))
	for _, f := range feeds {
		byID[f.ID] = f
	}

	sorted := append([]model.Folder(nil), folders...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Title < sorted[j].Title })

	outlines := make([]opmlOutline, 0, len(sorted)+len(feeds))
	placed := map[int64]struct{}{}
	for _, folder := range sorted {
		children := make([]opmlOutline, 0, len(folder.FeedIDs))
		for _, id := range folder.FeedIDs {
			f, ok := byID[id]
			if !ok {
				continue
			}
			placed[id] = struct{}{}
			children = append(children, feedOutline(f))
		}
		if len(children) == 0 {
			continue
		}
		outlines = append(outlines, opmlOutline{Text: folder.Title, Title: folder.Title, Outlines: children})
	}
	for _, f := range feeds {
		if _, ok := placed[f.ID]; ok {
			continue
		}
		outlines = append(outlines, feedOutline(f))
	}

	doc := opmlDoc{
		Version: "2.0",
		Head:    opmlHead{Title: fallback(title, "sharedfeed export")},
		Body:    opmlBody{Outlines: outlines},
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Flush()
}

func feedOutline(f model.Feed) opmlOutline {
	label := fallback(strings.TrimSpace(f.Title), f.URL)
	return opmlOutline{
		Text:    label,
		Title:   label,
		Type:    "rss",
		XMLURL:  f.URL,
		HTMLURL: f.SiteURL,
	}
}

func fallback(v, fb string) string {
	if strings.TrimSpace(v) == "" {
		return fb
	}
	return v
}

func (o opmlOutline) FeedURL() string {
	if v := strings.TrimSpace(o.XMLURL); v != "" {
		return v
	}
	if v := strings.TrimSpace(o.XMLURLLower); v != "" {
		return v
	}
	return ""
}

func (o opmlOutline) Label() string {
	if v := strings.TrimSpace(o.Title); v != "" {
		return v
	}
	return strings.TrimSpace(o.Text)
}
