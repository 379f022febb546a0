package store

import (
	"database/sql"
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrNotSubscribed       = errors.New("not subscribed")
	ErrAlreadySubscribed   = errors.New("already subscribed")
	ErrFolderAlreadyExists = errors.New("folder already exists")
	ErrEntryDeleted        = errors.New("entry already deleted")
	ErrDuplicateEntry      = errors.New("duplicate entry")
	ErrStoreFailure        = errors.New("store failure")
)

var domainErrors = []error{
	ErrNotFound,
	ErrInvalidInput,
	ErrNotSubscribed,
	ErrAlreadySubscribed,
	ErrFolderAlreadyExists,
	ErrEntryDeleted,
	ErrDuplicateEntry,
}

func wrapNotFound(entity string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", entity, ErrNotFound)
	}
	return err
}

// IsDomainError reports whether err is one of the caller-facing error kinds
// rather than a persistence failure.
func IsDomainError(err error) bool {
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
