package cache

import (
	"fmt"

	"github.com/jmgilman/go/errors"
)

var (
	// ErrInvalidArgument is the cause of every caller contract violation:
	// a capacity below 1, a NaN key, or a key rejected by Options.RejectKey.
	// Test with errors.Is; the returned errors carry errors.CodeInvalidInput.
	ErrInvalidArgument = errors.New(errors.CodeInvalidInput, "cache: invalid argument")

	// ErrIndexDrained means the recency index ran empty while the cache was
	// still full, so no room could be made for a new key.
	ErrIndexDrained = errors.New(errors.CodeInternal, "cache: recency index out of sync")

	// ErrNoLoader is returned by Shared.GetOrLoad when no Loader was configured.
	ErrNoLoader = errors.New(errors.CodeInvalidConfig, "cache: no Loader provided")
)

func invalidCapacity(n int) error {
	err := errors.Wrapf(ErrInvalidArgument, errors.CodeInvalidInput, "capacity must be >= 1, got %d", n)
	return errors.WithContext(err, "capacity", n)
}

func rejectedKey[K any](k K) error {
	err := errors.Wrap(ErrInvalidArgument, errors.CodeInvalidInput, "key rejected")
	return errors.WithContext(err, "key", fmt.Sprint(k))
}

func indexDrained(size, capacity int) error {
	err := errors.Wrap(ErrIndexDrained, errors.CodeInternal, "no entry left to evict")
	err = errors.WithContext(err, "size", size)
	return errors.WithContext(err, "capacity", capacity)
}
