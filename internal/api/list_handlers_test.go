package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/address-eligibility/internal/domain"
	"github.com/ignite/address-eligibility/internal/pkg/distlock"
)

func newListRouter(lists *fakeLists) http.Handler {
	return SetupRoutes(NewHandlers(&fakeChecker{}, WithLists(lists)), nil, nil)
}

func TestCreateAndGetEntry(t *testing.T) {
	lists := newFakeLists()
	router := newListRouter(lists)

	rec := doRequest(router, http.MethodPost, "/api/databases/acme/lists/whitelist", "application/json",
		`{"address1":"500 Shelter Rd","city":"Dayton","state":"OH","zip":"45402","capacity":12}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created domain.ListEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "id-1", created.ID)
	assert.Equal(t, 12, created.Capacity)
	assert.Equal(t, domain.ListWhitelist, created.Kind)

	rec = doRequest(router, http.MethodGet, "/api/databases/acme/lists/whitelist/id-1", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "500 Shelter Rd")

	// Same id under the other list or database is a different entry.
	rec = doRequest(router, http.MethodGet, "/api/databases/acme/lists/blacklist/id-1", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = doRequest(router, http.MethodGet, "/api/databases/other/lists/whitelist/id-1", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateEntryDuplicate(t *testing.T) {
	router := newListRouter(newFakeLists())
	body := `{"address1":"9 Elm St","city":"Reno","state":"NV","zip":"89501"}`

	rec := doRequest(router, http.MethodPost, "/api/databases/acme/lists/blacklist", "application/json", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(router, http.MethodPost, "/api/databases/acme/lists/blacklist", "application/json", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "duplicate_key")
}

func TestCreateEntryInvalid(t *testing.T) {
	router := newListRouter(newFakeLists())

	rec := doRequest(router, http.MethodPost, "/api/databases/acme/lists/blacklist", "application/json", `{"city":"Reno"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_input")
}

func TestUnknownListKind(t *testing.T) {
	router := newListRouter(newFakeLists())

	rec := doRequest(router, http.MethodGet, "/api/databases/acme/lists/greylist", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateAndDeleteEntry(t *testing.T) {
	lists := newFakeLists()
	router := newListRouter(lists)

	rec := doRequest(router, http.MethodPost, "/api/databases/acme/lists/whitelist", "application/json",
		`{"address1":"1 First St","city":"Ames","state":"IA","zip":"50010","capacity":2}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(router, http.MethodPut, "/api/databases/acme/lists/whitelist/id-1", "application/json",
		`{"address1":"1 First Street","city":"Ames","state":"IA","zip":"50010","capacity":4}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var updated domain.ListEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "1 First Street", updated.Address1)
	assert.Equal(t, 4, updated.Capacity)

	rec = doRequest(router, http.MethodDelete, "/api/databases/acme/lists/whitelist/id-1", "", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(router, http.MethodDelete, "/api/databases/acme/lists/whitelist/id-1", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(router, http.MethodPut, "/api/databases/acme/lists/whitelist/missing", "application/json", `{"address1":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListEntriesPaginates(t *testing.T) {
	lists := newFakeLists()
	router := newListRouter(lists)

	for i := 1; i <= 3; i++ {
		body := fmt.Sprintf(`{"address1":"%d Pine St","city":"Boise","state":"ID","zip":"83702"}`, i)
		rec := doRequest(router, http.MethodPost, "/api/databases/acme/lists/blacklist", "application/json", body)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doRequest(router, http.MethodGet, "/api/databases/acme/lists/blacklist?limit=2&page=1", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var page struct {
		Data       []domain.ListEntry `json:"data"`
		Pagination PaginationMeta     `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Len(t, page.Data, 2)
	assert.EqualValues(t, 3, page.Pagination.Total)
	assert.Equal(t, 2, page.Pagination.TotalPages)
	assert.True(t, page.Pagination.HasMore)

	rec = doRequest(router, http.MethodGet, "/api/databases/acme/lists/whitelist", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"data":[]`)
}

func TestListWriteLockBusy(t *testing.T) {
	lists := newFakeLists()
	lists.err = fmt.Errorf("lock address: %w", distlock.ErrNotAcquired)
	router := newListRouter(lists)

	rec := doRequest(router, http.MethodPost, "/api/databases/acme/lists/blacklist", "application/json",
		`{"address1":"9 Elm St","city":"Reno","state":"NV","zip":"89501"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestListRoutesWithoutService(t *testing.T) {
	router := SetupRoutes(NewHandlers(&fakeChecker{}), nil, nil)

	rec := doRequest(router, http.MethodGet, "/api/databases/acme/lists/blacklist", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "not_configured")
}
