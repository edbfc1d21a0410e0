package eligibility

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ignite/address-eligibility/internal/audit"
	"github.com/ignite/address-eligibility/internal/domain"
	"github.com/ignite/address-eligibility/internal/pkg/logger"
)

// Recorder receives check level metrics in addition to stage metrics.
type Recorder interface {
	StageObserver
	ObserveCheck(outcome, decidedBy string, d time.Duration)
}

type nopRecorder struct{ nopObserver }

func (nopRecorder) ObserveCheck(string, string, time.Duration) {}

// CheckRequest is one eligibility check. An empty DatabaseRef selects the
// service's default database.
type CheckRequest struct {
	DatabaseRef string `json:"databaseRef,omitempty"`
	domain.Address
}

// Service runs eligibility checks against tracked databases. It is safe for
// concurrent use; no state is shared between checks.
type Service struct {
	connector     Connector
	canonicalizer Canonicalizer
	sessionCanon  bool
	defaultRef    string
	policy        Policy
	recorder      Recorder
	sink          audit.Sink
	pipeline      *Pipeline
}

// Option configures a Service.
type Option func(*Service)

// WithPolicy sets the occupancy limit and lookup failure policy.
func WithPolicy(p Policy) Option { return func(s *Service) { s.policy = p } }

// WithCanonicalizer sets the canonicalizer used when the session does not
// provide one.
func WithCanonicalizer(c Canonicalizer) Option { return func(s *Service) { s.canonicalizer = c } }

// WithSessionCanonicalizer prefers the tracked database's own canonicalization
// function when the session implements Canonicalizer.
func WithSessionCanonicalizer() Option { return func(s *Service) { s.sessionCanon = true } }

// WithDefaultDatabase sets the ref used when a request carries none.
func WithDefaultDatabase(ref string) Option { return func(s *Service) { s.defaultRef = ref } }

// WithRecorder wires metrics.
func WithRecorder(r Recorder) Option { return func(s *Service) { s.recorder = r } }

// WithAudit wires an audit sink.
func WithAudit(sink audit.Sink) Option { return func(s *Service) { s.sink = sink } }

// NewService creates an eligibility service that acquires sessions from connector.
func NewService(connector Connector, opts ...Option) *Service {
	s := &Service{
		connector:  connector,
		defaultRef: "default",
		policy:     DefaultPolicy(),
		recorder:   nopRecorder{},
		sink:       audit.NopSink{},
	}
	for _, o := range opts {
		o(s)
	}
	s.pipeline = NewPipeline(s.policy, s.recorder)
	return s
}

// Policy returns the effective check policy.
func (s *Service) Policy() Policy { return s.pipeline.Policy() }

// CheckAddress runs one eligibility check. Only invalid input, an unknown
// database or a connection failure return an error; every other failure is
// recorded in the returned trace.
func (s *Service) CheckAddress(ctx context.Context, req CheckRequest) (*domain.CheckResult, error) {
	addr := req.Address.Trimmed()
	if err := addr.Validate(); err != nil {
		return nil, err
	}
	ref := strings.TrimSpace(req.DatabaseRef)
	if ref == "" {
		ref = s.defaultRef
	}

	start := time.Now()
	session, err := s.connector.Acquire(ctx, ref)
	if err != nil {
		if errors.Is(err, ErrUnknownDatabase) {
			return nil, err
		}
		s.recorder.ObserveCheck("error", "connection", time.Since(start))
		logger.Error("eligibility: acquire session failed", "database", ref, "error", err)
		return nil, fmt.Errorf("%w %q: %w", ErrConnection, ref, err)
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			logger.Warn("eligibility: release session failed", "database", ref, "error", cerr)
		}
	}()

	canon := s.canonicalizer
	if s.sessionCanon {
		if c, ok := session.(Canonicalizer); ok {
			canon = c
		}
	}

	eval := s.pipeline.Run(ctx, session, NewNormalizer(canon), addr)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res := eval.Result
	elapsed := time.Since(start)

	s.recorder.ObserveCheck(eval.Outcome.String(), eval.DecidedBy, elapsed)
	if eval.Normalization != nil {
		logger.Warn("eligibility: using raw address values", "database", ref, "error", eval.Normalization)
	}
	for _, lerr := range eval.LookupErrors {
		logger.Warn("eligibility: lookup failed", "database", ref, "policy", string(s.pipeline.Policy().LookupFailure), "error", lerr)
	}
	logger.Info("eligibility: check complete",
		"database", ref,
		"address1", addr.Address1,
		"city", addr.City,
		"state", addr.State,
		"program_category", string(CategoryFor(addr.ProgramType)),
		"verdict", res.Verdict(),
		"decided_by", eval.DecidedBy,
		"duration_ms", elapsed.Milliseconds(),
	)

	ev := audit.NewEvent(audit.EventCheck, ref, map[string]any{
		"address1":      logger.RedactAddress(addr.Address1),
		"city":          addr.City,
		"state":         addr.State,
		"zip":           addr.Zip,
		"program_type":  addr.ProgramType,
		"success":       res.Success,
		"decided_by":    eval.DecidedBy,
		"final_message": res.FinalMessage,
	})
	if err := s.sink.Record(ctx, ev); err != nil {
		logger.Warn("eligibility: audit record failed", "database", ref, "error", err)
	}
	return res, nil
}
