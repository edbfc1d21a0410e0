package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/address-eligibility/internal/domain"
)

// Session runs every lookup of one eligibility check on a single checked-out
// connection. It implements eligibility.Session and eligibility.Canonicalizer.
type Session struct {
	conn    *sql.Conn
	schema  string
	canonFn string
}

func newSession(conn *sql.Conn, schema, canonFn string) *Session {
	return &Session{conn: conn, schema: schema, canonFn: canonFn}
}

// Blacklisted implements eligibility.Lookups.
func (s *Session) Blacklisted(ctx context.Context, key domain.NormalizedKey, state, zip string) (bool, error) {
	var exists bool
	err := s.conn.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM `+qualify(s.schema, tableBlacklist)+`
			WHERE norm_address1 = $1 AND norm_address2 = $2 AND norm_city = $3
			  AND state = $4 AND zip = $5
		)`,
		key.Address1, key.Address2, key.City, state, zip,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("blacklist lookup: %w", err)
	}
	return exists, nil
}

// Whitelisted implements eligibility.Lookups. Several matching rows report
// the largest capacity.
func (s *Session) Whitelisted(ctx context.Context, key domain.NormalizedKey, state, zip string) (bool, int, error) {
	var n, capacity int
	err := s.conn.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(MAX(capacity), 0)
		FROM `+qualify(s.schema, tableWhitelist)+`
		WHERE norm_address1 = $1 AND norm_address2 = $2 AND norm_city = $3
		  AND state = $4 AND zip = $5`,
		key.Address1, key.Address2, key.City, state, zip,
	).Scan(&n, &capacity)
	if err != nil {
		return false, 0, fmt.Errorf("whitelist lookup: %w", err)
	}
	return n > 0, capacity, nil
}

// Occupancy implements eligibility.Lookups. The status list is keyed on the
// raw address, not the normalized key.
func (s *Session) Occupancy(ctx context.Context, addr domain.Address, category domain.ProgramCategory) (int, error) {
	var total int
	err := s.conn.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(total), 0)
		FROM `+qualify(s.schema, tableStatusList)+`
		WHERE address1 = $1 AND COALESCE(address2, '') = $2 AND city = $3
		  AND state = $4 AND zip = $5 AND program_category = $6`,
		addr.Address1, addr.Address2, addr.City, addr.State, addr.Zip, string(category),
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("occupancy lookup: %w", err)
	}
	return total, nil
}

// Canonicalize implements eligibility.Canonicalizer with the schema's SQL function.
func (s *Session) Canonicalize(ctx context.Context, field string) (string, error) {
	return canonicalize(ctx, s.conn, s.schema, s.canonFn, field)
}

// Close returns the connection to its pool.
func (s *Session) Close() error {
	return s.conn.Close()
}
