package fetch

import (
	stdhtml "html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer cleans entry fields before they are stored. The relaxed policy
// keeps structural markup for content and summary; the restricted policy
// strips every tag from titles, authors and identifiers.
type Sanitizer struct {
	relaxed    *bluemonday.Policy
	restricted *bluemonday.Policy
}

// NewSanitizer builds a sanitizer from explicit policies. Nil policies fall
// back to bluemonday's UGC and strict policies.
func NewSanitizer(relaxed, restricted *bluemonday.Policy) *Sanitizer {
	if relaxed == nil {
		relaxed = DefaultRelaxedPolicy()
	}
	if restricted == nil {
		restricted = bluemonday.StrictPolicy()
	}
	return &Sanitizer{relaxed: relaxed, restricted: restricted}
}

func DefaultRelaxedPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

// Relaxed sanitizes an HTML fragment, keeping safe markup.
func (s *Sanitizer) Relaxed(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	return strings.TrimSpace(s.relaxed.Sanitize(raw))
}

// Restricted reduces a value to plain text.
func (s *Sanitizer) Restricted(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	return strings.TrimSpace(stdhtml.UnescapeString(s.restricted.Sanitize(raw)))
}
