package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ignite/address-eligibility/internal/audit"
	"github.com/ignite/address-eligibility/internal/datanorm"
	"github.com/ignite/address-eligibility/internal/domain"
	"github.com/ignite/address-eligibility/internal/pkg/distlock"
	"github.com/ignite/address-eligibility/internal/pkg/httputil"
	"github.com/ignite/address-eligibility/internal/service/addresslist"
	"github.com/ignite/address-eligibility/internal/service/eligibility"
)

// Checker runs eligibility checks.
type Checker interface {
	CheckAddress(ctx context.Context, req eligibility.CheckRequest) (*domain.CheckResult, error)
}

// ListManager administers blacklist and whitelist entries.
type ListManager interface {
	Create(ctx context.Context, ref string, kind domain.ListKind, in addresslist.EntryInput) (*domain.ListEntry, error)
	Update(ctx context.Context, ref string, kind domain.ListKind, id string, in addresslist.EntryInput) (*domain.ListEntry, error)
	Delete(ctx context.Context, ref string, kind domain.ListKind, id string) error
	Get(ctx context.Context, ref string, kind domain.ListKind, id string) (*domain.ListEntry, error)
	List(ctx context.Context, ref string, kind domain.ListKind, filter addresslist.ListFilter) ([]domain.ListEntry, int, error)
}

// ListImporter loads a CSV stream into a list.
type ListImporter interface {
	ImportFromReader(ctx context.Context, ref string, kind domain.ListKind, r io.Reader, sourceFile string) (*datanorm.ImportResult, error)
}

// ObjectSource reads import files from object storage.
type ObjectSource interface {
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	List(ctx context.Context, prefix string) ([]string, error)
}

// ImportRecorder counts imported rows.
type ImportRecorder interface {
	AddImportRows(list string, imported, duplicates, errors int)
}

// Handlers holds the HTTP handlers and their dependencies. Only Checker is
// required; routes whose dependency is nil answer 503.
type Handlers struct {
	checker   Checker
	presenter eligibility.Presenter
	lists     ListManager
	importer  ListImporter
	objects   ObjectSource
	audit     audit.Reader
	imports   ImportRecorder
	gatherer  prometheus.Gatherer
}

// HandlerOption configures Handlers.
type HandlerOption func(*Handlers)

// WithLists enables the list administration routes.
func WithLists(l ListManager) HandlerOption { return func(h *Handlers) { h.lists = l } }

// WithImporter enables CSV imports. objects may be nil, in which case only
// request-body imports are accepted.
func WithImporter(imp ListImporter, objects ObjectSource) HandlerOption {
	return func(h *Handlers) {
		h.importer = imp
		h.objects = objects
	}
}

// WithAuditReader enables GET /api/audit/events.
func WithAuditReader(r audit.Reader) HandlerOption { return func(h *Handlers) { h.audit = r } }

// WithMetrics wires import counters and the /metrics endpoint.
func WithMetrics(rec ImportRecorder, g prometheus.Gatherer) HandlerOption {
	return func(h *Handlers) {
		h.imports = rec
		h.gatherer = g
	}
}

// NewHandlers creates the handler set.
func NewHandlers(checker Checker, opts ...HandlerOption) *Handlers {
	h := &Handlers{checker: checker}
	for _, o := range opts {
		o(h)
	}
	return h
}

// writeServiceError maps service errors onto HTTP responses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidAddress),
		errors.Is(err, addresslist.ErrInvalidEntry),
		errors.Is(err, datanorm.ErrUnknownKind):
		httputil.ErrorWithCode(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, eligibility.ErrUnknownDatabase):
		httputil.ErrorWithCode(w, http.StatusNotFound, "unknown_database", err.Error())
	case errors.Is(err, addresslist.ErrNotFound):
		httputil.NotFound(w, err.Error())
	case errors.Is(err, addresslist.ErrDuplicateKey):
		httputil.ErrorWithCode(w, http.StatusConflict, "duplicate_key", err.Error())
	case errors.Is(err, distlock.ErrNotAcquired):
		httputil.Conflict(w, "another write for this address is in progress")
	case errors.Is(err, eligibility.ErrConnection):
		httputil.ServiceUnavailable(w, "connection_error", err, "cannot connect to tracked database")
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful to write.
	default:
		httputil.InternalError(w, err)
	}
}

func unavailable(w http.ResponseWriter, feature string) {
	httputil.ErrorWithCode(w, http.StatusServiceUnavailable, "not_configured", feature+" is not configured")
}
