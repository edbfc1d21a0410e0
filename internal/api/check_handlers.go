package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/address-eligibility/internal/domain"
	"github.com/ignite/address-eligibility/internal/pkg/httputil"
	"github.com/ignite/address-eligibility/internal/service/eligibility"
)

// CheckResponse is a CheckResult, optionally with its rendered audit view.
type CheckResponse struct {
	*domain.CheckResult
	Audit *eligibility.AuditView `json:"audit,omitempty"`
}

// CheckAddress runs one eligibility check. The database ref comes from the
// path when present, otherwise from the body's databaseRef.
//
//	POST /api/check-address
//	POST /api/databases/{ref}/check-address?view=audit
func (h *Handlers) CheckAddress(w http.ResponseWriter, r *http.Request) {
	var req eligibility.CheckRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if ref := chi.URLParam(r, "ref"); ref != "" {
		req.DatabaseRef = ref
	}

	res, err := h.checker.CheckAddress(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := CheckResponse{CheckResult: res}
	if r.URL.Query().Get("view") == "audit" {
		p := h.presenter
		p.IncludeNormalize = r.URL.Query().Get("normalize") == "true"
		view := p.Present(res)
		resp.Audit = &view
	}
	httputil.OK(w, resp)
}
