package api

import (
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/address-eligibility/internal/datanorm"
	"github.com/ignite/address-eligibility/internal/domain"
	"github.com/ignite/address-eligibility/internal/pkg/httputil"
)

const maxImportBytes = 256 << 20

// importRequest is the JSON form of an import: the CSV lives in object storage.
type importRequest struct {
	S3Key string `json:"s3_key"`
}

// ImportList loads a CSV file into a list. The body is either the CSV itself
// or a JSON object naming an S3 key. Without a {kind} segment (or ?kind=)
// the list is inferred from the file name and header.
//
//	POST /api/databases/{ref}/lists/{kind}/import
//	POST /api/databases/{ref}/lists/import?kind=whitelist
func (h *Handlers) ImportList(w http.ResponseWriter, r *http.Request) {
	if h.importer == nil {
		unavailable(w, "list import")
		return
	}
	ref := chi.URLParam(r, "ref")

	var kind domain.ListKind
	rawKind := chi.URLParam(r, "kind")
	if rawKind == "" {
		rawKind = r.URL.Query().Get("kind")
	}
	if rawKind != "" {
		k, err := domain.ParseListKind(rawKind)
		if err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		kind = k
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
	source := r.URL.Query().Get("filename")
	var src io.Reader = r.Body

	if isJSON(r) {
		var req importRequest
		if !httputil.Decode(w, r, &req) {
			return
		}
		req.S3Key = strings.TrimSpace(req.S3Key)
		if req.S3Key == "" {
			httputil.BadRequest(w, "s3_key is required")
			return
		}
		if h.objects == nil {
			unavailable(w, "S3 import")
			return
		}
		rc, err := h.objects.Open(r.Context(), req.S3Key)
		if err != nil {
			httputil.ServiceUnavailable(w, "storage_error", err, "cannot read import object")
			return
		}
		defer rc.Close()
		src = rc
		source = path.Base(req.S3Key)
	}

	res, err := h.importer.ImportFromReader(r.Context(), ref, kind, src, source)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if h.imports != nil {
		h.imports.AddImportRows(string(res.Kind), res.ImportedRows, res.DuplicateRows, res.ErrorRows)
	}
	httputil.OK(w, res)
}

// ListImportObjects lists CSV files available for import.
//
//	GET /api/imports/objects?prefix=incoming/
func (h *Handlers) ListImportObjects(w http.ResponseWriter, r *http.Request) {
	if h.objects == nil {
		unavailable(w, "S3 import")
		return
	}
	keys, err := h.objects.List(r.Context(), r.URL.Query().Get("prefix"))
	if err != nil {
		httputil.ServiceUnavailable(w, "storage_error", err, "cannot list import objects")
		return
	}
	if keys == nil {
		keys = []string{}
	}
	httputil.OK(w, map[string]any{"keys": keys, "count": len(keys)})
}

func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

var _ ListImporter = (*datanorm.Importer)(nil)
