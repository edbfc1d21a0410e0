package api

import (
	"net/http"
	"strconv"

	"github.com/ignite/address-eligibility/internal/audit"
	"github.com/ignite/address-eligibility/internal/pkg/httputil"
)

// RecentAuditEvents returns the newest audit events first.
//
//	GET /api/audit/events?limit=50
func (h *Handlers) RecentAuditEvents(w http.ResponseWriter, r *http.Request) {
	if h.audit == nil {
		unavailable(w, "audit")
		return
	}
	n, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)
	if n <= 0 {
		n = 50
	}
	if n > 500 {
		n = 500
	}
	events, err := h.audit.Recent(r.Context(), n)
	if err != nil {
		httputil.ServiceUnavailable(w, "audit_unavailable", err, "audit stream unavailable")
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	httputil.OK(w, map[string]any{"events": events, "count": len(events)})
}
