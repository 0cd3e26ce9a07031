// Package applock guards against a second UI host instance. Two instances
// autosaving the same file would overwrite each other's writes, so the
// second one must refuse to start.
package applock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/flock"
)

const (
	acquireTimeout = 2 * time.Second
	retryInterval  = 100 * time.Millisecond
)

// Acquire takes an exclusive lock on the given file and returns a release
// function. It fails once the acquire timeout elapses, which means another
// instance holds the lock.
func Acquire(ctx context.Context, path string) (func() error, error) {
	lock := flock.New(path)

	ctx, cancel := context.WithTimeout(ctx, acquireTimeout)
	defer cancel()

	ok, err := lock.TryLockContext(ctx, retryInterval)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("another texpad instance is already running (lock held on %s)", path)
	}
	return lock.Unlock, nil
}
