package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"

	"github.com/ignite/address-eligibility/internal/audit"
	"github.com/ignite/address-eligibility/internal/domain"
	"github.com/ignite/address-eligibility/internal/service/addresslist"
	"github.com/ignite/address-eligibility/internal/service/eligibility"
)

type fakeChecker struct {
	res  *domain.CheckResult
	err  error
	last eligibility.CheckRequest
}

func (f *fakeChecker) CheckAddress(_ context.Context, req eligibility.CheckRequest) (*domain.CheckResult, error) {
	f.last = req
	return f.res, f.err
}

// fakeLists is an in-memory ListManager keyed by ref/kind/id.
type fakeLists struct {
	mu      sync.Mutex
	entries map[string]*domain.ListEntry
	seq     int
	err     error
}

func newFakeLists() *fakeLists { return &fakeLists{entries: make(map[string]*domain.ListEntry)} }

func (f *fakeLists) key(ref string, kind domain.ListKind, id string) string {
	return ref + "/" + string(kind) + "/" + id
}

func (f *fakeLists) Create(_ context.Context, ref string, kind domain.ListKind, in addresslist.EntryInput) (*domain.ListEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if strings.TrimSpace(in.Address1) == "" {
		return nil, fmt.Errorf("%w: address1 is required", addresslist.ErrInvalidEntry)
	}
	for k, e := range f.entries {
		if strings.HasPrefix(k, ref+"/"+string(kind)+"/") && strings.EqualFold(e.Address1, in.Address1) && e.Zip == in.Zip {
			return nil, addresslist.ErrDuplicateKey
		}
	}
	f.seq++
	e := &domain.ListEntry{
		ID:       fmt.Sprintf("id-%d", f.seq),
		Kind:     kind,
		Address1: in.Address1,
		Address2: in.Address2,
		City:     in.City,
		State:    in.State,
		Zip:      in.Zip,
	}
	if in.Capacity != nil && kind.HasCapacity() {
		e.Capacity = *in.Capacity
	}
	f.entries[f.key(ref, kind, e.ID)] = e
	return e, nil
}

func (f *fakeLists) Update(_ context.Context, ref string, kind domain.ListKind, id string, in addresslist.EntryInput) (*domain.ListEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	e, ok := f.entries[f.key(ref, kind, id)]
	if !ok {
		return nil, addresslist.ErrNotFound
	}
	e.Address1, e.Address2, e.City, e.State, e.Zip = in.Address1, in.Address2, in.City, in.State, in.Zip
	if in.Capacity != nil {
		e.Capacity = *in.Capacity
	}
	return e, nil
}

func (f *fakeLists) Delete(_ context.Context, ref string, kind domain.ListKind, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	k := f.key(ref, kind, id)
	if _, ok := f.entries[k]; !ok {
		return addresslist.ErrNotFound
	}
	delete(f.entries, k)
	return nil
}

func (f *fakeLists) Get(_ context.Context, ref string, kind domain.ListKind, id string) (*domain.ListEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	e, ok := f.entries[f.key(ref, kind, id)]
	if !ok {
		return nil, addresslist.ErrNotFound
	}
	return e, nil
}

func (f *fakeLists) List(_ context.Context, ref string, kind domain.ListKind, filter addresslist.ListFilter) ([]domain.ListEntry, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, 0, f.err
	}
	var all []domain.ListEntry
	for k, e := range f.entries {
		if strings.HasPrefix(k, ref+"/"+string(kind)+"/") {
			all = append(all, *e)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := len(all)
	if filter.Offset >= total {
		return nil, total, nil
	}
	end := filter.Offset + filter.Limit
	if end > total {
		end = total
	}
	return all[filter.Offset:end], total, nil
}

type fakeObjects struct {
	files map[string]string
}

func (f *fakeObjects) Open(_ context.Context, key string) (io.ReadCloser, error) {
	body, ok := f.files[key]
	if !ok {
		return nil, fmt.Errorf("no such key %q", key)
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func (f *fakeObjects) List(_ context.Context, prefix string) ([]string, error) {
	var keys []string
	for k := range f.files {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

type importCounts struct {
	list                         string
	imported, duplicates, errors int
}

type recordingImports struct{ calls []importCounts }

func (r *recordingImports) AddImportRows(list string, imported, duplicates, errors int) {
	r.calls = append(r.calls, importCounts{list, imported, duplicates, errors})
}

type fakeAuditReader struct {
	events []audit.Event
	err    error
	asked  int64
}

func (f *fakeAuditReader) Recent(_ context.Context, n int64) ([]audit.Event, error) {
	f.asked = n
	return f.events, f.err
}

func doRequest(h http.Handler, method, target, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func blacklistedResult() *domain.CheckResult {
	return &domain.CheckResult{
		Success: 0,
		Steps: []domain.CheckStep{
			{StepName: domain.StepNameNormalize, Status: domain.StepCompleted, Message: "Address normalized", Result: domain.ResultNotApplicable},
			{StepName: domain.StepNameBlacklist, Status: domain.StepCompleted, Message: "Address is in blacklist - CHECK FAILED", Result: domain.ResultFailed, StopProcess: true},
		},
		FinalMessage: "Address is in blacklist - CHECK FAILED",
	}
}
