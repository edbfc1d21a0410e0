package addresslist

import (
	"context"

	"github.com/ignite/address-eligibility/internal/domain"
	"github.com/ignite/address-eligibility/internal/service/eligibility"
)

// Repository defines the data access contract for blacklist and whitelist
// tables. ref names the tracked database.
type Repository interface {
	// FindByKey returns the entry with the given key tuple, or nil when none exists.
	FindByKey(ctx context.Context, ref string, kind domain.ListKind, key domain.NormalizedKey, state, zip string) (*domain.ListEntry, error)

	// Insert stores a new entry. Returns ErrDuplicateKey on a unique violation.
	Insert(ctx context.Context, ref string, e *domain.ListEntry) error

	// Update overwrites an entry. Returns ErrNotFound or ErrDuplicateKey.
	Update(ctx context.Context, ref string, e *domain.ListEntry) error

	// Delete removes an entry. Returns ErrNotFound if it doesn't exist.
	Delete(ctx context.Context, ref string, kind domain.ListKind, id string) error

	// Get returns one entry. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, ref string, kind domain.ListKind, id string) (*domain.ListEntry, error)

	// List returns entries matching the filter and the total match count.
	List(ctx context.Context, ref string, kind domain.ListKind, filter ListFilter) ([]domain.ListEntry, int, error)
}

// ListFilter controls pagination and filtering for list queries.
type ListFilter struct {
	Search string
	State  string
	Zip    string
	Limit  int
	Offset int
}

// Locker serializes writers of the same key across replicas.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// CanonicalizerSource returns the canonicalizer used for a tracked database.
type CanonicalizerSource interface {
	CanonicalizerFor(ref string) eligibility.Canonicalizer
}

// FixedCanonicalizer uses the same canonicalizer for every database.
type FixedCanonicalizer struct {
	eligibility.Canonicalizer
}

func (f FixedCanonicalizer) CanonicalizerFor(string) eligibility.Canonicalizer {
	return f.Canonicalizer
}
