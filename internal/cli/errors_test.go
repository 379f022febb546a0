package cli

import (
	"errors"
	"fmt"
	"testing"

	feedpkg "github.com/odysseus0/sharedfeed/internal/fetch"
	"github.com/odysseus0/sharedfeed/internal/store"
)

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		err  error
		code int
		text string
	}{
		{err: nil, code: 0, text: ""},
		{err: fmt.Errorf("x: %w", store.ErrInvalidInput), code: exitInvalidInput, text: "Error [invalid-input]: x: invalid input"},
		{err: fmt.Errorf("folder 9: %w", store.ErrNotFound), code: exitNotFound, text: "Error [not-found]: folder 9: not found"},
		{err: store.ErrNotSubscribed, code: exitNotFound, text: "Error [not-subscribed]: not subscribed"},
		{err: store.ErrAlreadySubscribed, code: exitConflict, text: "Error [conflict]: already subscribed"},
		{err: store.ErrFolderAlreadyExists, code: exitConflict, text: "Error [conflict]: folder already exists"},
		{err: feedpkg.ErrFetchFailed, code: exitInternal, text: "Error [fetch-failed]: fetch failed"},
		{err: fmt.Errorf("%w: disk full", store.ErrStoreFailure), code: exitInternal, text: "Error [store-failure]: store failure: disk full"},
		{err: errors.New(`invalid output format "xml"`), code: exitInvalidInput, text: `Error [invalid-input]: invalid output format "xml"`},
		{err: errors.New("boom"), code: exitInternal, text: "Error [internal]: boom"},
	}
	for _, tt := range tests {
		if got := ErrorExitCode(tt.err); got != tt.code {
			t.Fatalf("ErrorExitCode(%v) = %d, want %d", tt.err, got, tt.code)
		}
		if got := FormatError(tt.err); got != tt.text {
			t.Fatalf("FormatError(%v) = %q, want %q", tt.err, got, tt.text)
		}
	}
}
