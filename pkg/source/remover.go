package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"

	"mercator-hq/thinout/pkg/thinout"
)

const removeMaxElapsed = 5 * time.Second

// RemoveError records a file that could not be removed.
type RemoveError struct {
	Path string
	Err  error
}

func (e *RemoveError) Error() string {
	return fmt.Sprintf("remove %s: %v", e.Path, e.Err)
}

func (e *RemoveError) Unwrap() error {
	return e.Err
}

// Remover deletes the files behind removed items.
type Remover struct {
	logger *slog.Logger

	// OnFailure is called for every file that could not be removed.
	OnFailure func(path string, err error)

	// remove deletes a single path; os.Remove unless replaced in tests.
	remove func(path string) error
}

// NewRemover creates a remover.
func NewRemover() *Remover {
	return &Remover{
		logger: slog.Default().With("component", "source.remover"),
		remove: os.Remove,
	}
}

func newRemoveBackoff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 50 * time.Millisecond
	bo.MaxElapsedTime = removeMaxElapsed
	return bo
}

// Remove deletes the files of items in order. In a dry run nothing is
// touched and every item is reported as removed.
//
// Files that are already gone count as removed. Failures do not stop the
// remaining removals; they are returned joined as *RemoveError values
// together with the items actually removed. Cancelling ctx stops before
// the next file.
func (r *Remover) Remove(ctx context.Context, items []thinout.Item, dryRun bool) ([]thinout.Item, error) {
	if dryRun {
		for _, it := range items {
			r.logger.InfoContext(ctx, "would remove", "path", it.ID)
		}
		return items, nil
	}

	removed := make([]thinout.Item, 0, len(items))
	var errs error
	for _, it := range items {
		if err := ctx.Err(); err != nil {
			return removed, errors.Join(errs, err)
		}

		err := backoff.Retry(func() error {
			err := r.remove(it.ID)
			switch {
			case err == nil, errors.Is(err, fs.ErrNotExist):
				return nil
			case errors.Is(err, fs.ErrPermission):
				return backoff.Permanent(err)
			default:
				return err
			}
		}, backoff.WithContext(newRemoveBackoff(), ctx))

		if err != nil {
			r.logger.ErrorContext(ctx, "remove failed", "path", it.ID, "error", err)
			if r.OnFailure != nil {
				r.OnFailure(it.ID, err)
			}
			errs = errors.Join(errs, &RemoveError{Path: it.ID, Err: err})
			continue
		}

		r.logger.InfoContext(ctx, "removed", "path", it.ID)
		removed = append(removed, it)
	}
	return removed, errs
}
