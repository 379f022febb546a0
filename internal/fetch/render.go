package fetch

import (
	"regexp"
	"strings"

	markdown "github.com/JohannesKaufmann/html-to-markdown"
)

var wsRegexp = regexp.MustCompile(`\s+`)

// Renderer turns sanitized entry HTML into markdown for terminal display.
type Renderer struct {
	converter *markdown.Converter
}

func NewRenderer() *Renderer {
	c := markdown.NewConverter("", true, nil)
	return &Renderer{converter: c}
}

func (r *Renderer) HTMLToMarkdown(html string) string {
	html = strings.TrimSpace(html)
	if html == "" {
		return ""
	}
	out, err := r.converter.ConvertString(html)
	if err != nil {
		return compactText(html, 4000)
	}
	return strings.TrimSpace(out)
}

// Excerpt renders html to markdown and squeezes it onto one line of at most max bytes.
func (r *Renderer) Excerpt(html string, max int) string {
	return compactText(r.HTMLToMarkdown(html), max)
}

func compactText(v string, max int) string {
	v = strings.TrimSpace(wsRegexp.ReplaceAllString(v, " "))
	if max <= 0 || len(v) <= max {
		return v
	}
	return v[:max-1] + "..."
}
