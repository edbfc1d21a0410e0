package eligibility

import (
	"context"

	"github.com/ignite/address-eligibility/internal/domain"
)

// Canonicalizer turns one raw address field into its comparison form. It must
// be idempotent and free of side effects.
type Canonicalizer interface {
	Canonicalize(ctx context.Context, field string) (string, error)
}

// Lookups are the list queries a check issues. All of them run on the same
// scoped connection for the duration of one check.
type Lookups interface {
	// Blacklisted reports whether a blacklist row matches the key, state and zip.
	Blacklisted(ctx context.Context, key domain.NormalizedKey, state, zip string) (bool, error)

	// Whitelisted reports whether a whitelist row matches and, if so, its
	// capacity (the largest one when several rows match).
	Whitelisted(ctx context.Context, key domain.NormalizedKey, state, zip string) (bool, int, error)

	// Occupancy sums the status list totals for the raw address and category.
	Occupancy(ctx context.Context, addr domain.Address, category domain.ProgramCategory) (int, error)
}

// Session is a scoped connection to one tracked database. Close must be
// called exactly once. A Session may also implement Canonicalizer.
type Session interface {
	Lookups
	Close() error
}

// Connector hands out sessions by database reference. It returns an error
// wrapping ErrUnknownDatabase when the reference is not configured.
type Connector interface {
	Acquire(ctx context.Context, databaseRef string) (Session, error)
}
