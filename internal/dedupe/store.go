// Package dedupe provides at-most-once tracking of request ids.
//
// The only operation that may be relied on for at-most-once semantics
// is CheckAndMark: it atomically claims an id and reports whether the
// caller was first. IsDuplicate and MarkProcessed are non-atomic
// conveniences; an exists-check followed by an insert reintroduces the
// race the store exists to prevent.
package dedupe

import (
	"context"
	"time"
)

// DefaultTTL is how long a processed request id stays reserved before
// cleanup makes it eligible for reuse.
const DefaultTTL = 24 * time.Hour

// Store records processed request ids with TTL eviction.
type Store interface {
	// CheckAndMark atomically claims id. It returns true exactly once
	// per id within the TTL; concurrent callers racing on the same id
	// see exactly one true.
	CheckAndMark(ctx context.Context, id string) (bool, error)

	// IsDuplicate reports whether id has been seen. Non-atomic.
	IsDuplicate(ctx context.Context, id string) (bool, error)

	// MarkProcessed unconditionally records id. Non-atomic.
	MarkProcessed(ctx context.Context, id string) error

	// Unmark releases a claim so the same id can be resubmitted. The
	// pipeline calls this when a print attempt fails after the claim.
	Unmark(ctx context.Context, id string) error

	// CleanupExpired removes entries older than the TTL and returns
	// how many were removed. Safe to run concurrently with
	// CheckAndMark on unrelated ids.
	CleanupExpired(ctx context.Context) (int, error)

	Close() error
}
