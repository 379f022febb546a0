package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	feedpkg "github.com/odysseus0/sharedfeed/internal/fetch"
	"github.com/odysseus0/sharedfeed/internal/store"
)

const (
	exitInternal     = 1
	exitInvalidInput = 2
	exitNotFound     = 3
	exitConflict     = 4
)

func errorKind(err error) (string, int) {
	switch {
	case errors.Is(err, store.ErrInvalidInput):
		return "invalid-input", exitInvalidInput
	case errors.Is(err, store.ErrNotFound):
		return "not-found", exitNotFound
	case errors.Is(err, store.ErrNotSubscribed):
		return "not-subscribed", exitNotFound
	case errors.Is(err, store.ErrAlreadySubscribed),
		errors.Is(err, store.ErrFolderAlreadyExists),
		errors.Is(err, store.ErrDuplicateEntry),
		errors.Is(err, store.ErrEntryDeleted):
		return "conflict", exitConflict
	case errors.Is(err, feedpkg.ErrFetchFailed):
		return "fetch-failed", exitInternal
	case errors.Is(err, store.ErrStoreFailure):
		return "store-failure", exitInternal
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "invalid id") || strings.Contains(msg, "invalid output format") ||
		strings.Contains(msg, "unknown command") || strings.Contains(msg, "unknown flag") ||
		strings.Contains(msg, "accepts ") {
		return "invalid-input", exitInvalidInput
	}
	return "internal", exitInternal
}

func ErrorExitCode(err error) int {
	if err == nil {
		return 0
	}
	_, code := errorKind(err)
	return code
}

func FormatError(err error) string {
	if err == nil {
		return ""
	}
	kind, _ := errorKind(err)
	return fmt.Sprintf("Error [%s]: %v", kind, err)
}

func PrintError(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, FormatError(err))
}
