package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/address-eligibility/internal/domain"
	"github.com/ignite/address-eligibility/internal/service/addresslist"
)

type staticPools struct{ db *sql.DB }

func (p staticPools) Pool(context.Context, string) (*sql.DB, string, error) {
	return p.db, "tracked", nil
}

func newRepo(t *testing.T) (*AddressListRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewAddressListRepo(staticPools{db}), mock
}

var entryColumns = []string{"id", "address1", "address2", "city", "state", "zip",
	"norm_address1", "norm_address2", "norm_city", "capacity", "created_at", "updated_at"}

const testID = "6f1c2b9e-3d4a-4c1e-9b7a-2f5d8e0c1a23"

func sampleEntry(kind domain.ListKind) *domain.ListEntry {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return &domain.ListEntry{
		ID: testID, Kind: kind,
		Address1: "12 Main St", City: "Reno", State: "NV", Zip: "89501",
		NormAddress1: "12 MAIN ST", NormCity: "RENO",
		Capacity:  4,
		CreatedAt: now, UpdatedAt: now,
	}
}

func TestInsertWhitelistEntry(t *testing.T) {
	repo, mock := newRepo(t)
	e := sampleEntry(domain.ListWhitelist)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "tracked"."address_whitelist"`)).
		WithArgs(e.ID, "12 Main St", "", "Reno", "NV", "89501", "12 MAIN ST", "", "RENO", e.CreatedAt, e.UpdatedAt, 4).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Insert(context.Background(), "db1", e))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertBlacklistOmitsCapacity(t *testing.T) {
	repo, mock := newRepo(t)
	e := sampleEntry(domain.ListBlacklist)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "tracked"."address_blacklist"`)).
		WithArgs(e.ID, "12 Main St", "", "Reno", "NV", "89501", "12 MAIN ST", "", "RENO", e.CreatedAt, e.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Insert(context.Background(), "db1", e))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertUniqueViolation(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectExec("INSERT INTO").WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Insert(context.Background(), "db1", sampleEntry(domain.ListBlacklist))
	assert.ErrorIs(t, err, addresslist.ErrDuplicateKey)
}

func TestUpdateNotFound(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "tracked"."address_whitelist" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), "db1", sampleEntry(domain.ListWhitelist))
	assert.ErrorIs(t, err, addresslist.ErrNotFound)
}

func TestUpdateUniqueViolation(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectExec("UPDATE").WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Update(context.Background(), "db1", sampleEntry(domain.ListWhitelist))
	assert.ErrorIs(t, err, addresslist.ErrDuplicateKey)
}

func TestGetAndFindByKey(t *testing.T) {
	repo, mock := newRepo(t)
	e := sampleEntry(domain.ListWhitelist)
	row := func() *sqlmock.Rows {
		return sqlmock.NewRows(entryColumns).AddRow(e.ID, e.Address1, "", e.City, e.State, e.Zip,
			e.NormAddress1, "", e.NormCity, 4, e.CreatedAt, e.UpdatedAt)
	}

	mock.ExpectQuery("WHERE id = \\$1").WithArgs(testID).WillReturnRows(row())
	mock.ExpectQuery("WHERE norm_address1 = \\$1").WithArgs("12 MAIN ST", "", "RENO", "NV", "89501").WillReturnRows(row())
	mock.ExpectQuery("WHERE norm_address1 = \\$1").WillReturnRows(sqlmock.NewRows(entryColumns))

	got, err := repo.Get(context.Background(), "db1", domain.ListWhitelist, testID)
	require.NoError(t, err)
	assert.Equal(t, e, got)

	found, err := repo.FindByKey(context.Background(), "db1", domain.ListWhitelist, e.Key(), "NV", "89501")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, testID, found.ID)

	none, err := repo.FindByKey(context.Background(), "db1", domain.ListWhitelist, domain.NormalizedKey{Address1: "X"}, "NV", "1")
	require.NoError(t, err)
	assert.Nil(t, none)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetInvalidIDIsNotFound(t *testing.T) {
	repo, _ := newRepo(t)
	_, err := repo.Get(context.Background(), "db1", domain.ListBlacklist, "not-a-uuid")
	assert.ErrorIs(t, err, addresslist.ErrNotFound)
}

func TestDelete(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "tracked"."address_blacklist" WHERE id = $1`)).
		WithArgs(testID).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM").WithArgs(testID).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), "db1", domain.ListBlacklist, testID))
	assert.ErrorIs(t, repo.Delete(context.Background(), "db1", domain.ListBlacklist, testID), addresslist.ErrNotFound)
}

func TestListWithFilters(t *testing.T) {
	repo, mock := newRepo(t)
	e := sampleEntry(domain.ListBlacklist)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM "tracked"."address_blacklist" WHERE (address1 ILIKE $1 OR city ILIKE $1 OR norm_address1 ILIKE $1) AND state = $2`)).
		WithArgs("%main%", "NV").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta(`LIMIT $3 OFFSET $4`)).
		WithArgs("%main%", "NV", 25, 0).
		WillReturnRows(sqlmock.NewRows(entryColumns).AddRow(e.ID, e.Address1, "", e.City, e.State, e.Zip,
			e.NormAddress1, "", e.NormCity, 0, e.CreatedAt, e.UpdatedAt))

	entries, total, err := repo.List(context.Background(), "db1", domain.ListBlacklist, addresslist.ListFilter{Search: "main", State: "NV", Limit: 25})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.ListBlacklist, entries[0].Kind)
	assert.NoError(t, mock.ExpectationsWereMet())
}
