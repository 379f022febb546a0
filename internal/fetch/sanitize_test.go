package fetch

import (
	"strings"
	"testing"

	"github.com/microcosm-cc/bluemonday"
)

func TestSanitizerRelaxed_RemovesDangerousTagsAndAttrs(t *testing.T) {
	s := NewSanitizer(nil, nil)
	in := `<div onclick="alert(1)"><script>alert(1)</script><a href="javascript:alert(1)" style="color:red">x</a><img src="https://example.com/a.png" onerror="x"><iframe src="https://evil"></iframe></div>`
	out := s.Relaxed(in)

	for _, bad := range []string{"<script", "onclick=", "onerror=", "style=", "<iframe", "javascript:"} {
		if strings.Contains(strings.ToLower(out), bad) {
			t.Fatalf("expected %q to be removed, got: %s", bad, out)
		}
	}
	if !strings.Contains(out, `src="https://example.com/a.png"`) {
		t.Fatalf("expected safe image src to be preserved: %s", out)
	}
}

func TestSanitizerRelaxed_PreservesSafeMarkup(t *testing.T) {
	s := NewSanitizer(nil, nil)
	out := s.Relaxed(`<p>Hello <a href="https://example.com">world</a></p>`)
	if !strings.Contains(out, `href="https://example.com"`) || !strings.Contains(out, "<p>") {
		t.Fatalf("safe link should be preserved, got: %s", out)
	}
	if !strings.Contains(out, `rel="nofollow`) {
		t.Fatalf("expected nofollow on links, got: %s", out)
	}
}

func TestSanitizerRestricted_StripsAllMarkup(t *testing.T) {
	s := NewSanitizer(nil, nil)
	out := s.Restricted(`  <b>Tom &amp; Jerry</b><script>x()</script> `)
	if out != "Tom & Jerry" {
		t.Fatalf("Restricted = %q, want %q", out, "Tom & Jerry")
	}
}

func TestSanitizerUsesInjectedPolicies(t *testing.T) {
	relaxed := bluemonday.NewPolicy()
	relaxed.AllowElements("em")
	s := NewSanitizer(relaxed, nil)

	out := s.Relaxed(`<p><em>kept</em></p>`)
	if out != "<em>kept</em>" {
		t.Fatalf("Relaxed with custom policy = %q", out)
	}
}
