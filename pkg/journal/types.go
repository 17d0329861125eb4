package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Get for an unknown run ID.
var ErrNotFound = errors.New("run not found")

// Run is the record of one retention run of a target.
type Run struct {
	// ID is a random UUID assigned by NewRun.
	ID string `json:"id"`

	// Target is the name of the thinned target.
	Target string `json:"target"`

	// Anchor is the end date of the newest bucket.
	Anchor time.Time `json:"anchor"`

	// Policy is the policy in "span:capacity,..." form.
	Policy string `json:"policy"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// DryRun is true when no file was actually removed.
	DryRun bool `json:"dry_run"`

	// Retained is the number of items left after the run.
	Retained int `json:"retained"`

	// Removed lists removed items in removal order.
	Removed []Removal `json:"removed"`

	// Error is the run error message, empty on success.
	Error string `json:"error,omitempty"`
}

// Removal is a single item removed during a run.
type Removal struct {
	ItemID string    `json:"item_id"`
	Date   time.Time `json:"date"`
	Order  int       `json:"order"`
}

// NewRun starts a run record for target.
func NewRun(target string, now time.Time) *Run {
	return &Run{
		ID:        uuid.NewString(),
		Target:    target,
		StartedAt: now,
	}
}

// Duration returns how long the run took.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Failed reports whether the run ended with an error.
func (r *Run) Failed() bool {
	return r.Error != ""
}

// Query filters runs returned by Store.List. Results are ordered newest first.
type Query struct {
	// Target restricts results to one target. Empty matches all.
	Target string

	// Since restricts results to runs started at or after Since.
	Since time.Time

	// Limit bounds the number of results. Zero means DefaultLimit.
	Limit int

	// Offset skips the first Offset results.
	Offset int
}

// DefaultLimit is the number of runs returned when Query.Limit is zero.
const DefaultLimit = 100

func (q *Query) limit() int {
	if q == nil || q.Limit <= 0 {
		return DefaultLimit
	}
	return q.Limit
}

// Store persists runs. Implementations are safe for concurrent use.
type Store interface {
	// Record inserts or replaces a run.
	Record(ctx context.Context, run *Run) error

	// Get returns the run with the given ID or ErrNotFound.
	Get(ctx context.Context, id string) (*Run, error)

	// List returns runs matching query, newest first.
	List(ctx context.Context, query *Query) ([]*Run, error)

	// Prune deletes runs started before olderThan and returns how many
	// were deleted.
	Prune(ctx context.Context, olderThan time.Time) (int64, error)

	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error

	// Close releases the store's resources.
	Close() error
}

// StorageError represents an error from a storage backend.
type StorageError struct {
	Backend   string
	Operation string
	Cause     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("journal error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{Backend: backend, Operation: operation, Cause: cause}
}
