package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ignite/address-eligibility/internal/domain"
	"github.com/ignite/address-eligibility/internal/service/addresslist"
)

const (
	tableBlacklist  = "address_blacklist"
	tableWhitelist  = "address_whitelist"
	tableStatusList = "address_status_list"
)

// PoolProvider returns the pool and schema of a tracked database.
type PoolProvider interface {
	Pool(ctx context.Context, ref string) (*sql.DB, string, error)
}

// AddressListRepo implements addresslist.Repository against the blacklist and
// whitelist tables of each tracked database.
type AddressListRepo struct{ pools PoolProvider }

// NewAddressListRepo creates a Postgres-backed address list repository.
func NewAddressListRepo(pools PoolProvider) *AddressListRepo { return &AddressListRepo{pools: pools} }

func tableFor(kind domain.ListKind) (string, error) {
	switch kind {
	case domain.ListBlacklist:
		return tableBlacklist, nil
	case domain.ListWhitelist:
		return tableWhitelist, nil
	}
	return "", fmt.Errorf("%w: unknown list %q", addresslist.ErrInvalidEntry, kind)
}

// selectColumns lists the scanned columns; the blacklist has no capacity.
func selectColumns(kind domain.ListKind) string {
	capacity := "0"
	if kind.HasCapacity() {
		capacity = "capacity"
	}
	return `id, address1, COALESCE(address2, ''), city, state, zip,
		norm_address1, norm_address2, norm_city, ` + capacity + `, created_at, updated_at`
}

func (r *AddressListRepo) target(ctx context.Context, ref string, kind domain.ListKind) (*sql.DB, string, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, "", err
	}
	db, schema, err := r.pools.Pool(ctx, ref)
	if err != nil {
		return nil, "", err
	}
	return db, qualify(schema, table), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner, kind domain.ListKind) (*domain.ListEntry, error) {
	e := &domain.ListEntry{Kind: kind}
	err := row.Scan(&e.ID, &e.Address1, &e.Address2, &e.City, &e.State, &e.Zip,
		&e.NormAddress1, &e.NormAddress2, &e.NormCity, &e.Capacity, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *AddressListRepo) FindByKey(ctx context.Context, ref string, kind domain.ListKind, key domain.NormalizedKey, state, zip string) (*domain.ListEntry, error) {
	db, table, err := r.target(ctx, ref, kind)
	if err != nil {
		return nil, err
	}
	e, err := scanEntry(db.QueryRowContext(ctx, `
		SELECT `+selectColumns(kind)+`
		FROM `+table+`
		WHERE norm_address1 = $1 AND norm_address2 = $2 AND norm_city = $3
		  AND state = $4 AND zip = $5
		LIMIT 1`,
		key.Address1, key.Address2, key.City, state, zip,
	), kind)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find %s entry by key: %w", kind, err)
	}
	return e, nil
}

func (r *AddressListRepo) Insert(ctx context.Context, ref string, e *domain.ListEntry) error {
	db, table, err := r.target(ctx, ref, e.Kind)
	if err != nil {
		return err
	}
	if e.ID == "" {
		e.ID = uuid.New().String()
	}

	cols := "id, address1, address2, city, state, zip, norm_address1, norm_address2, norm_city, created_at, updated_at"
	vals := "$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11"
	args := []any{e.ID, e.Address1, e.Address2, e.City, e.State, e.Zip,
		e.NormAddress1, e.NormAddress2, e.NormCity, e.CreatedAt, e.UpdatedAt}
	if e.Kind.HasCapacity() {
		cols += ", capacity"
		vals += ", $12"
		args = append(args, e.Capacity)
	}

	_, err = db.ExecContext(ctx, `INSERT INTO `+table+` (`+cols+`) VALUES (`+vals+`)`, args...)
	if isUniqueViolation(err) {
		return addresslist.ErrDuplicateKey
	}
	if err != nil {
		return fmt.Errorf("insert %s entry: %w", e.Kind, err)
	}
	return nil
}

func (r *AddressListRepo) Update(ctx context.Context, ref string, e *domain.ListEntry) error {
	if _, err := uuid.Parse(e.ID); err != nil {
		return addresslist.ErrNotFound
	}
	db, table, err := r.target(ctx, ref, e.Kind)
	if err != nil {
		return err
	}

	set := "address1 = $2, address2 = $3, city = $4, state = $5, zip = $6, norm_address1 = $7, norm_address2 = $8, norm_city = $9, updated_at = $10"
	args := []any{e.ID, e.Address1, e.Address2, e.City, e.State, e.Zip,
		e.NormAddress1, e.NormAddress2, e.NormCity, e.UpdatedAt}
	if e.Kind.HasCapacity() {
		set += ", capacity = $11"
		args = append(args, e.Capacity)
	}

	res, err := db.ExecContext(ctx, `UPDATE `+table+` SET `+set+` WHERE id = $1`, args...)
	if isUniqueViolation(err) {
		return addresslist.ErrDuplicateKey
	}
	if err != nil {
		return fmt.Errorf("update %s entry: %w", e.Kind, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return addresslist.ErrNotFound
	}
	return nil
}

func (r *AddressListRepo) Delete(ctx context.Context, ref string, kind domain.ListKind, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return addresslist.ErrNotFound
	}
	db, table, err := r.target(ctx, ref, kind)
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete %s entry: %w", kind, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return addresslist.ErrNotFound
	}
	return nil
}

func (r *AddressListRepo) Get(ctx context.Context, ref string, kind domain.ListKind, id string) (*domain.ListEntry, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, addresslist.ErrNotFound
	}
	db, table, err := r.target(ctx, ref, kind)
	if err != nil {
		return nil, err
	}
	e, err := scanEntry(db.QueryRowContext(ctx,
		`SELECT `+selectColumns(kind)+` FROM `+table+` WHERE id = $1`, id,
	), kind)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, addresslist.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s entry: %w", kind, err)
	}
	return e, nil
}

func (r *AddressListRepo) List(ctx context.Context, ref string, kind domain.ListKind, f addresslist.ListFilter) ([]domain.ListEntry, int, error) {
	db, table, err := r.target(ctx, ref, kind)
	if err != nil {
		return nil, 0, err
	}

	var where []string
	var args []any
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		where = append(where, fmt.Sprintf("(address1 ILIKE $%d OR city ILIKE $%d OR norm_address1 ILIKE $%d)", len(args), len(args), len(args)))
	}
	if f.State != "" {
		args = append(args, f.State)
		where = append(where, fmt.Sprintf("state = $%d", len(args)))
	}
	if f.Zip != "" {
		args = append(args, f.Zip)
		where = append(where, fmt.Sprintf("zip = $%d", len(args)))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count %s entries: %w", kind, err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, f.Offset)
	rows, err := db.QueryContext(ctx,
		`SELECT `+selectColumns(kind)+` FROM `+table+clause+
			fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args)),
		args...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list %s entries: %w", kind, err)
	}
	defer rows.Close()

	var out []domain.ListEntry
	for rows.Next() {
		e, err := scanEntry(rows, kind)
		if err != nil {
			return nil, 0, fmt.Errorf("scan %s entry: %w", kind, err)
		}
		out = append(out, *e)
	}
	return out, total, rows.Err()
}
