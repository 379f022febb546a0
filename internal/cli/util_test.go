package cli

import (
	"testing"
	"time"
)

func TestParseID(t *testing.T) {
	id, err := parseID("42")
	if err != nil {
		t.Fatalf("parseID: %v", err)
	}
	if id != 42 {
		t.Fatalf("unexpected id: %d", id)
	}
	if _, err := parseID("0"); err == nil {
		t.Fatalf("expected error for zero")
	}
	if _, err := parseIDArg("x"); err == nil {
		t.Fatalf("expected error for non-numeric id")
	}
}

func TestFallback(t *testing.T) {
	if got := fallback("value", "x"); got != "value" {
		t.Fatalf("fallback non-empty: %q", got)
	}
	if got := fallback("   ", "x"); got != "x" {
		t.Fatalf("fallback empty: %q", got)
	}
}

func TestFormatHelpers(t *testing.T) {
	if got := formatDate(time.Time{}); got != "-" {
		t.Fatalf("formatDate zero = %q", got)
	}
	if got := formatDate(time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)); got != "2024-03-05" {
		t.Fatalf("formatDate = %q", got)
	}
	if got := humanAgo(nil); got != "never" {
		t.Fatalf("humanAgo nil = %q", got)
	}
	recent := time.Now().Add(-10 * time.Second)
	if got := humanAgo(&recent); got != "just now" {
		t.Fatalf("humanAgo recent = %q", got)
	}
	earlier := time.Now().Add(-3 * time.Hour)
	if got := humanAgo(&earlier); got != "3 hours ago" {
		t.Fatalf("humanAgo 3h = %q", got)
	}
	if got := compactText("a   b\n c", 0); got != "a b c" {
		t.Fatalf("compactText = %q", got)
	}
	id := int64(7)
	if folderLabel(&id) != "7" || folderLabel(nil) != "-" {
		t.Fatalf("folderLabel mismatch")
	}
}
