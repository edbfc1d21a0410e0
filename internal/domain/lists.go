package domain

import (
	"fmt"
	"time"
)

// ListKind identifies one of the administrative address lists.
type ListKind string

const (
	ListBlacklist ListKind = "blacklist"
	ListWhitelist ListKind = "whitelist"
)

// ParseListKind maps a path segment onto a ListKind.
func ParseListKind(s string) (ListKind, error) {
	switch ListKind(s) {
	case ListBlacklist, ListWhitelist:
		return ListKind(s), nil
	default:
		return "", fmt.Errorf("unknown list %q", s)
	}
}

// HasCapacity reports whether entries of this list carry a capacity.
func (k ListKind) HasCapacity() bool { return k == ListWhitelist }

// ListEntry is a stored blacklist or whitelist row. The normalized key is
// always derived from the current address fields; it is never edited directly.
// Capacity is meaningful for whitelist entries only.
type ListEntry struct {
	ID           string    `json:"id" db:"id"`
	Kind         ListKind  `json:"kind" db:"-"`
	Address1     string    `json:"address1" db:"address1"`
	Address2     string    `json:"address2" db:"address2"`
	City         string    `json:"city" db:"city"`
	State        string    `json:"state" db:"state"`
	Zip          string    `json:"zip" db:"zip"`
	NormAddress1 string    `json:"norm_address1" db:"norm_address1"`
	NormAddress2 string    `json:"norm_address2" db:"norm_address2"`
	NormCity     string    `json:"norm_city" db:"norm_city"`
	Capacity     int       `json:"capacity,omitempty" db:"capacity"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Key returns the entry's normalized key.
func (e ListEntry) Key() NormalizedKey {
	return NormalizedKey{Address1: e.NormAddress1, Address2: e.NormAddress2, City: e.NormCity}
}

// OccupancyRecord is one aggregated status-list row. The eligibility pipeline
// only ever reads these.
type OccupancyRecord struct {
	Address1        string          `json:"address1" db:"address1"`
	Address2        string          `json:"address2" db:"address2"`
	City            string          `json:"city" db:"city"`
	State           string          `json:"state" db:"state"`
	Zip             string          `json:"zip" db:"zip"`
	ProgramCategory ProgramCategory `json:"program_category" db:"program_category"`
	Total           int             `json:"total" db:"total"`
}
