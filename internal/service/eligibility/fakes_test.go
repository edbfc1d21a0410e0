package eligibility

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/ignite/address-eligibility/internal/audit"
	"github.com/ignite/address-eligibility/internal/domain"
)

// fakeSession is an in-memory tracked database.
type fakeSession struct {
	mu sync.Mutex

	blacklisted bool
	whitelisted bool
	capacity    int
	occupancy   int

	blErr, wlErr, occErr error

	gotKey      domain.NormalizedKey
	gotCategory domain.ProgramCategory
	calls       []string
	closed      int
}

func (f *fakeSession) Blacklisted(_ context.Context, key domain.NormalizedKey, _, _ string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "blacklist")
	f.gotKey = key
	return f.blacklisted, f.blErr
}

func (f *fakeSession) Whitelisted(_ context.Context, _ domain.NormalizedKey, _, _ string) (bool, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "whitelist")
	if f.wlErr != nil {
		return false, 0, f.wlErr
	}
	return f.whitelisted, f.capacity, nil
}

func (f *fakeSession) Occupancy(_ context.Context, _ domain.Address, c domain.ProgramCategory) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "occupancy")
	f.gotCategory = c
	if f.occErr != nil {
		return 0, f.occErr
	}
	return f.occupancy, nil
}

func (f *fakeSession) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

// canonSession also canonicalizes, like a tracked database with the SQL function.
type canonSession struct {
	*fakeSession
}

func (c canonSession) Canonicalize(_ context.Context, field string) (string, error) {
	return "DB:" + strings.ToUpper(field), nil
}

type fakeConnector struct {
	session  Session
	err      error
	acquired []string
}

func (c *fakeConnector) Acquire(_ context.Context, ref string) (Session, error) {
	c.acquired = append(c.acquired, ref)
	if c.err != nil {
		return nil, c.err
	}
	return c.session, nil
}

var upper = CanonicalizerFunc(func(_ context.Context, s string) (string, error) {
	return strings.ToUpper(s), nil
})

var errCanon = errors.New("canonicalizer down")

var failing = CanonicalizerFunc(func(context.Context, string) (string, error) {
	return "", errCanon
})

type recordingSink struct {
	mu     sync.Mutex
	events []audit.Event
	err    error
}

func (s *recordingSink) Record(_ context.Context, e audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return s.err
}

type recordingRecorder struct {
	mu      sync.Mutex
	stages  []string
	lookups []string
	checks  []string
}

func (r *recordingRecorder) ObserveStage(stage string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages = append(r.stages, stage)
}

func (r *recordingRecorder) LookupFailed(lookup string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookups = append(r.lookups, lookup)
}

func (r *recordingRecorder) ObserveCheck(outcome, decidedBy string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checks = append(r.checks, outcome+"/"+decidedBy)
}

func sampleAddress() domain.Address {
	return domain.Address{
		Address1:    "123 Main Street",
		Address2:    "Apt 4",
		City:        "Springfield",
		State:       "IL",
		Zip:         "62704",
		ProgramType: "LL",
	}
}
