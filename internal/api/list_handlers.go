package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/address-eligibility/internal/domain"
	"github.com/ignite/address-eligibility/internal/pkg/httputil"
	"github.com/ignite/address-eligibility/internal/service/addresslist"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// listTarget reads {ref} and {kind} from the path. It writes the error
// response itself and returns false when either is unusable.
func (h *Handlers) listTarget(w http.ResponseWriter, r *http.Request) (string, domain.ListKind, bool) {
	if h.lists == nil {
		unavailable(w, "address list administration")
		return "", "", false
	}
	kind, err := domain.ParseListKind(chi.URLParam(r, "kind"))
	if err != nil {
		httputil.NotFound(w, err.Error())
		return "", "", false
	}
	return chi.URLParam(r, "ref"), kind, true
}

// ListEntries returns one page of a list.
//
//	GET /api/databases/{ref}/lists/{kind}?page=1&limit=50&search=&state=&zip=
func (h *Handlers) ListEntries(w http.ResponseWriter, r *http.Request) {
	ref, kind, ok := h.listTarget(w, r)
	if !ok {
		return
	}
	p := ParsePagination(r, defaultListLimit, maxListLimit)
	q := r.URL.Query()

	entries, total, err := h.lists.List(r.Context(), ref, kind, addresslist.ListFilter{
		Search: q.Get("search"),
		State:  q.Get("state"),
		Zip:    q.Get("zip"),
		Limit:  p.Limit,
		Offset: p.Offset,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if entries == nil {
		entries = []domain.ListEntry{}
	}
	httputil.OK(w, NewPaginatedResponse(entries, p, int64(total)))
}

// CreateEntry adds an entry.
//
//	POST /api/databases/{ref}/lists/{kind}
func (h *Handlers) CreateEntry(w http.ResponseWriter, r *http.Request) {
	ref, kind, ok := h.listTarget(w, r)
	if !ok {
		return
	}
	var in addresslist.EntryInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	e, err := h.lists.Create(r.Context(), ref, kind, in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.Created(w, e)
}

// GetEntry returns one entry.
//
//	GET /api/databases/{ref}/lists/{kind}/{id}
func (h *Handlers) GetEntry(w http.ResponseWriter, r *http.Request) {
	ref, kind, ok := h.listTarget(w, r)
	if !ok {
		return
	}
	e, err := h.lists.Get(r.Context(), ref, kind, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.OK(w, e)
}

// UpdateEntry replaces an entry's address fields and re-derives its key.
//
//	PUT /api/databases/{ref}/lists/{kind}/{id}
func (h *Handlers) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	ref, kind, ok := h.listTarget(w, r)
	if !ok {
		return
	}
	var in addresslist.EntryInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	e, err := h.lists.Update(r.Context(), ref, kind, chi.URLParam(r, "id"), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.OK(w, e)
}

// DeleteEntry removes an entry.
//
//	DELETE /api/databases/{ref}/lists/{kind}/{id}
func (h *Handlers) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	ref, kind, ok := h.listTarget(w, r)
	if !ok {
		return
	}
	if err := h.lists.Delete(r.Context(), ref, kind, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.NoContent(w)
}
