package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/lib/pq"

	"github.com/ignite/address-eligibility/internal/service/eligibility"
)

// DefaultCanonicalizeFunction is the SQL function a tracked schema exposes
// for address canonicalization.
const DefaultCanonicalizeFunction = "normalize_address_field"

// Target describes how to reach one tracked database.
type Target struct {
	Name   string
	DSN    string
	Schema string
}

// DSNResolver maps a database reference to its target. Unknown references
// return an error wrapping eligibility.ErrUnknownDatabase.
type DSNResolver interface {
	Resolve(ctx context.Context, ref string) (Target, error)
}

// StaticResolver resolves from configuration.
type StaticResolver map[string]Target

func (s StaticResolver) Resolve(_ context.Context, ref string) (Target, error) {
	t, ok := s[ref]
	if !ok {
		return Target{}, fmt.Errorf("%w: %q", eligibility.ErrUnknownDatabase, ref)
	}
	if t.Name == "" {
		t.Name = ref
	}
	return t, nil
}

// SQLResolver reads the tracked_connections table of the admin database.
type SQLResolver struct{ db *sql.DB }

func NewSQLResolver(db *sql.DB) *SQLResolver { return &SQLResolver{db: db} }

func (r *SQLResolver) Resolve(ctx context.Context, ref string) (Target, error) {
	t := Target{Name: ref}
	err := r.db.QueryRowContext(ctx,
		`SELECT dsn, COALESCE(NULLIF(schema_name, ''), 'public') FROM tracked_connections WHERE name = $1 AND active = true`,
		ref,
	).Scan(&t.DSN, &t.Schema)
	if errors.Is(err, sql.ErrNoRows) {
		return Target{}, fmt.Errorf("%w: %q", eligibility.ErrUnknownDatabase, ref)
	}
	if err != nil {
		return Target{}, fmt.Errorf("resolve tracked connection %q: %w", ref, err)
	}
	return t, nil
}

// ChainResolver tries each resolver in order and returns the first match.
type ChainResolver []DSNResolver

func (c ChainResolver) Resolve(ctx context.Context, ref string) (Target, error) {
	for _, r := range c {
		t, err := r.Resolve(ctx, ref)
		if err == nil {
			return t, nil
		}
		if !errors.Is(err, eligibility.ErrUnknownDatabase) {
			return Target{}, err
		}
	}
	return Target{}, fmt.Errorf("%w: %q", eligibility.ErrUnknownDatabase, ref)
}

// ConnectorOptions tunes the per-database pools.
type ConnectorOptions struct {
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
	ConnMaxIdleTime  time.Duration
	ConnectTimeout   time.Duration
	CanonicalizeFunc string
	// Open overrides sql.Open("postgres", dsn); tests inject sqlmock here.
	Open func(dsn string) (*sql.DB, error)
}

type pool struct {
	db     *sql.DB
	dsn    string
	schema string
}

// TrackedConnector keeps one connection pool per tracked database and hands
// out scoped sessions. It implements eligibility.Connector.
type TrackedConnector struct {
	resolver DSNResolver
	opts     ConnectorOptions

	mu    sync.Mutex
	pools map[string]*pool
}

// NewTrackedConnector creates a connector. Pools are opened lazily.
func NewTrackedConnector(resolver DSNResolver, opts ConnectorOptions) *TrackedConnector {
	if opts.MaxOpenConns <= 0 {
		opts.MaxOpenConns = 10
	}
	if opts.MaxIdleConns <= 0 {
		opts.MaxIdleConns = 3
	}
	if opts.ConnMaxLifetime <= 0 {
		opts.ConnMaxLifetime = 5 * time.Minute
	}
	if opts.ConnMaxIdleTime <= 0 {
		opts.ConnMaxIdleTime = 30 * time.Second
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 5 * time.Second
	}
	if opts.CanonicalizeFunc == "" {
		opts.CanonicalizeFunc = DefaultCanonicalizeFunction
	}
	if opts.Open == nil {
		opts.Open = func(dsn string) (*sql.DB, error) { return sql.Open("postgres", dsn) }
	}
	return &TrackedConnector{resolver: resolver, opts: opts, pools: make(map[string]*pool)}
}

// Pool returns the pool and schema for ref, opening it on first use. A
// changed DSN replaces the old pool.
func (c *TrackedConnector) Pool(ctx context.Context, ref string) (*sql.DB, string, error) {
	t, err := c.resolver.Resolve(ctx, ref)
	if err != nil {
		return nil, "", err
	}
	if t.Schema == "" {
		t.Schema = "public"
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.pools[ref]; ok {
		if p.dsn == t.DSN {
			p.schema = t.Schema
			return p.db, p.schema, nil
		}
		p.db.Close()
		delete(c.pools, ref)
	}

	db, err := c.opts.Open(t.DSN)
	if err != nil {
		return nil, "", fmt.Errorf("open tracked database %q: %w", ref, err)
	}
	db.SetMaxOpenConns(c.opts.MaxOpenConns)
	db.SetMaxIdleConns(c.opts.MaxIdleConns)
	db.SetConnMaxLifetime(c.opts.ConnMaxLifetime)
	db.SetConnMaxIdleTime(c.opts.ConnMaxIdleTime)
	c.pools[ref] = &pool{db: db, dsn: t.DSN, schema: t.Schema}
	return db, t.Schema, nil
}

// Acquire implements eligibility.Connector: it checks out one dedicated
// connection and verifies it before any lookup runs.
func (c *TrackedConnector) Acquire(ctx context.Context, ref string) (eligibility.Session, error) {
	db, schema, err := c.Pool(ctx, ref)
	if err != nil {
		return nil, err
	}

	cctx, cancel := context.WithTimeout(ctx, c.opts.ConnectTimeout)
	defer cancel()
	conn, err := db.Conn(cctx)
	if err != nil {
		return nil, fmt.Errorf("checkout connection for %q: %w", ref, err)
	}
	if err := conn.PingContext(cctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping %q: %w", ref, err)
	}
	return newSession(conn, schema, c.opts.CanonicalizeFunc), nil
}

// CanonicalizerFor returns a canonicalizer that calls the tracked database's
// SQL function. It implements addresslist.CanonicalizerSource.
func (c *TrackedConnector) CanonicalizerFor(ref string) eligibility.Canonicalizer {
	return eligibility.CanonicalizerFunc(func(ctx context.Context, field string) (string, error) {
		db, schema, err := c.Pool(ctx, ref)
		if err != nil {
			return "", err
		}
		return canonicalize(ctx, db, schema, c.opts.CanonicalizeFunc, field)
	})
}

// Ping checks every open pool. Used by the readiness probe.
func (c *TrackedConnector) Ping(ctx context.Context) map[string]error {
	c.mu.Lock()
	pools := make(map[string]*sql.DB, len(c.pools))
	for ref, p := range c.pools {
		pools[ref] = p.db
	}
	c.mu.Unlock()

	out := make(map[string]error, len(pools))
	for ref, db := range pools {
		out[ref] = db.PingContext(ctx)
	}
	return out
}

// Refs lists the references with an open pool.
func (c *TrackedConnector) Refs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	refs := make([]string, 0, len(c.pools))
	for ref := range c.pools {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs
}

// Close closes every pool.
func (c *TrackedConnector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var errs []error
	for ref, p := range c.pools {
		if err := p.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %q: %w", ref, err))
		}
		delete(c.pools, ref)
	}
	return errors.Join(errs...)
}

// qualify returns schema.table with both parts quoted.
func qualify(schema, table string) string {
	return pq.QuoteIdentifier(schema) + "." + pq.QuoteIdentifier(table)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func canonicalize(ctx context.Context, q queryRower, schema, fn, field string) (string, error) {
	var out sql.NullString
	if err := q.QueryRowContext(ctx, "SELECT "+qualify(schema, fn)+"($1)", field).Scan(&out); err != nil {
		return "", fmt.Errorf("canonicalize: %w", err)
	}
	return out.String, nil
}
