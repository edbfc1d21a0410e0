package eligibility

import (
	"context"
	"fmt"
	"time"

	"github.com/ignite/address-eligibility/internal/domain"
)

// Stage names, used for metrics and as the decided-by label.
const (
	StageNormalize  = "normalize"
	StageBlacklist  = "blacklist"
	StageWhitelist  = "whitelist"
	StageStatusList = "status_list"
)

// Outcome is what a stage tells the pipeline to do next.
type Outcome int

const (
	Continue Outcome = iota
	Passed
	Blocked
)

func (o Outcome) String() string {
	switch o {
	case Passed:
		return "passed"
	case Blocked:
		return "blocked"
	}
	return "continue"
}

// StageObserver receives per-stage timings and lookup failures.
type StageObserver interface {
	ObserveStage(stage string, d time.Duration)
	LookupFailed(lookup string)
}

type nopObserver struct{}

func (nopObserver) ObserveStage(string, time.Duration) {}
func (nopObserver) LookupFailed(string)                {}

// Evaluation is the outcome of one pipeline run.
type Evaluation struct {
	Result    *domain.CheckResult
	DecidedBy string
	Outcome   Outcome
	// Normalization holds the canonicalizer error when the run fell back to
	// raw values.
	Normalization error
	LookupErrors  []error
}

// Pipeline runs the ordered eligibility stages. It holds no per-run state
// and is safe for concurrent use.
type Pipeline struct {
	policy   Policy
	observer StageObserver
	stages   []stage
}

type stage struct {
	name string
	run  func(p *Pipeline, r *run) Outcome
}

// run is the mutable state of one evaluation.
type run struct {
	ctx        context.Context
	lookups    Lookups
	normalizer *Normalizer
	addr       domain.Address
	category   domain.ProgramCategory

	key       domain.NormalizedKey
	occupancy int
	occErr    error

	steps    []domain.CheckStep
	final    string
	normErr  error
	failures []error
}

// NewPipeline builds a pipeline. A nil observer is allowed.
func NewPipeline(policy Policy, observer StageObserver) *Pipeline {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Pipeline{
		policy:   policy.withDefaults(),
		observer: observer,
		stages: []stage{
			{StageNormalize, (*Pipeline).normalize},
			{StageBlacklist, (*Pipeline).blacklist},
			{StageWhitelist, (*Pipeline).whitelist},
			{StageStatusList, (*Pipeline).statusList},
		},
	}
}

// Policy returns the effective policy.
func (p *Pipeline) Policy() Policy { return p.policy }

// Run evaluates addr against the lists reachable through lookups. addr is
// expected to be trimmed and validated.
func (p *Pipeline) Run(ctx context.Context, lookups Lookups, normalizer *Normalizer, addr domain.Address) Evaluation {
	r := &run{
		ctx:        ctx,
		lookups:    lookups,
		normalizer: normalizer,
		addr:       addr,
		category:   CategoryFor(addr.ProgramType),
	}

	eval := Evaluation{Outcome: Continue}
	for _, s := range p.stages {
		start := time.Now()
		out := s.run(p, r)
		p.observer.ObserveStage(s.name, time.Since(start))
		if out != Continue {
			eval.Outcome = out
			eval.DecidedBy = s.name
			break
		}
	}
	success := 0
	if eval.Outcome == Passed {
		success = 1
	}
	eval.Result = &domain.CheckResult{
		Success:      success,
		Steps:        r.steps,
		FinalMessage: r.final,
	}
	eval.Normalization = r.normErr
	eval.LookupErrors = r.failures
	return eval
}

func (r *run) append(s domain.CheckStep) { r.steps = append(r.steps, s) }

func (r *run) lookupFailed(p *Pipeline, lookup string, err error) {
	p.observer.LookupFailed(lookup)
	r.failures = append(r.failures, fmt.Errorf("%w: %s: %w", ErrLookup, lookup, err))
}

// failClosed appends a blocking error step and sets the final message.
func (r *run) failClosed(stepName, list string, err error) Outcome {
	r.append(domain.CheckStep{
		StepName:    stepName,
		Status:      domain.StepError,
		Message:     list + " lookup failed",
		Details:     err.Error(),
		Result:      domain.ResultFailed,
		StopProcess: true,
	})
	r.final = fmt.Sprintf("%s lookup failed - %s", list, domain.VerdictFailed)
	return Blocked
}

func (p *Pipeline) normalize(r *run) Outcome {
	key, err := r.normalizer.Normalize(r.ctx, r.addr.Address1, r.addr.Address2, r.addr.City)
	r.key = key
	step := domain.CheckStep{
		StepName: domain.StepNameNormalize,
		Status:   domain.StepCompleted,
		Message:  "Address normalized",
		Details:  fmt.Sprintf("Normalized: %s", key),
		Result:   domain.ResultNotApplicable,
	}
	if err != nil {
		r.normErr = err
		step.Message = "Normalization unavailable, using raw address values"
		step.Details = fmt.Sprintf("Raw: %s (%v)", key, err)
	}
	r.append(step)
	return Continue
}

func (p *Pipeline) blacklist(r *run) Outcome {
	found, err := r.lookups.Blacklisted(r.ctx, r.key, r.addr.State, r.addr.Zip)
	if err != nil {
		r.lookupFailed(p, StageBlacklist, err)
		if p.policy.LookupFailure == FailClosed {
			return r.failClosed(domain.StepNameBlacklist, "Blacklist", err)
		}
		r.append(domain.CheckStep{
			StepName: domain.StepNameBlacklist,
			Status:   domain.StepError,
			Message:  "Blacklist lookup failed, treated as not found",
			Details:  err.Error(),
			Result:   domain.ResultPassed,
		})
		return Continue
	}

	if found {
		r.append(domain.CheckStep{
			StepName:    domain.StepNameBlacklist,
			Status:      domain.StepCompleted,
			Message:     "Address found in blacklist",
			Details:     fmt.Sprintf("Matched %s, %s %s", r.key, r.addr.State, r.addr.Zip),
			Result:      domain.ResultFailed,
			StopProcess: true,
		})
		r.final = "Address is in blacklist - " + domain.VerdictFailed
		return Blocked
	}

	r.append(domain.CheckStep{
		StepName: domain.StepNameBlacklist,
		Status:   domain.StepCompleted,
		Message:  "Address not found in blacklist",
		Details:  "No blacklist entry matches the normalized address",
		Result:   domain.ResultPassed,
	})
	return Continue
}

func (p *Pipeline) whitelist(r *run) Outcome {
	occ, err := r.lookups.Occupancy(r.ctx, r.addr, r.category)
	if err != nil {
		r.lookupFailed(p, StageStatusList, err)
		if p.policy.LookupFailure == FailClosed {
			return r.failClosed(domain.StepNameWhitelist, "Occupancy", err)
		}
		occ = 0
		r.occErr = err
	}
	r.occupancy = occ

	listed, capacity, err := r.lookups.Whitelisted(r.ctx, r.key, r.addr.State, r.addr.Zip)
	status := domain.StepCompleted
	if err != nil {
		r.lookupFailed(p, StageWhitelist, err)
		if p.policy.LookupFailure == FailClosed {
			return r.failClosed(domain.StepNameWhitelist, "Whitelist", err)
		}
		listed, capacity = false, 0
		status = domain.StepError
	}
	if r.occErr != nil {
		status = domain.StepError
	}

	if !listed {
		details := fmt.Sprintf("Occupancy: %d", occ)
		if err != nil {
			details = fmt.Sprintf("Whitelist lookup failed, treated as not found: %v", err)
		} else if r.occErr != nil {
			details = fmt.Sprintf("Occupancy lookup failed, using 0: %v", r.occErr)
		}
		r.append(domain.CheckStep{
			StepName:  domain.StepNameWhitelist,
			Status:    status,
			Message:   "Address not found in whitelist",
			Details:   details,
			Result:    domain.ResultNotApplicable,
			Occupancy: domain.IntPtr(occ),
		})
		return Continue
	}

	step := domain.CheckStep{
		StepName:    domain.StepNameWhitelist,
		Status:      status,
		Details:     fmt.Sprintf("Capacity: %d, Occupancy: %d", capacity, occ),
		StopProcess: true,
		Capacity:    domain.IntPtr(capacity),
		Occupancy:   domain.IntPtr(occ),
	}
	if capacity > occ {
		step.Message = "Address found in whitelist with available capacity"
		step.Result = domain.ResultPassed
		r.append(step)
		r.final = fmt.Sprintf("Address is in whitelist with capacity %d (occupancy: %d) - %s", capacity, occ, domain.VerdictPassed)
		return Passed
	}
	step.Message = "Address found in whitelist but capacity is exhausted"
	step.Result = domain.ResultFailed
	r.append(step)
	r.final = fmt.Sprintf("Address is in whitelist but capacity %d is less than or equal to occupancy %d - %s", capacity, occ, domain.VerdictFailed)
	return Blocked
}

func (p *Pipeline) statusList(r *run) Outcome {
	occ, limit := r.occupancy, p.policy.OccupancyLimit
	step := domain.CheckStep{
		StepName:    domain.StepNameStatusList,
		Status:      domain.StepCompleted,
		Details:     fmt.Sprintf("Occupancy: %d, Limit: %d", occ, limit),
		StopProcess: true,
		Occupancy:   domain.IntPtr(occ),
		Limit:       domain.IntPtr(limit),
	}
	if r.occErr != nil {
		step.Status = domain.StepError
		step.Details = fmt.Sprintf("Occupancy lookup failed, using 0 (limit %d): %v", limit, r.occErr)
	}

	switch {
	case occ == 0:
		step.Message = "Address not found in status list (new address)"
		step.Result = domain.ResultPassed
		r.final = "Address not found in any list - " + domain.VerdictPassed
	case occ <= limit:
		step.Message = "Address found in status list within the occupancy limit"
		step.Result = domain.ResultPassed
		r.final = fmt.Sprintf("Address is in status list with occupancy %d (within limit of %d) - %s", occ, limit, domain.VerdictPassed)
	default:
		step.Message = "Address found in status list above the occupancy limit"
		step.Result = domain.ResultFailed
		r.final = fmt.Sprintf("Address is in status list with occupancy %d (exceeds limit of %d) - %s", occ, limit, domain.VerdictFailed)
	}
	r.append(step)
	if step.Result == domain.ResultPassed {
		return Passed
	}
	return Blocked
}
