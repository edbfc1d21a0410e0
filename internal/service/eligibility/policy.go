package eligibility

import "fmt"

// DefaultOccupancyLimit is the occupancy an address without a whitelist
// capacity may reach and still pass.
const DefaultOccupancyLimit = 5

// FailurePolicy decides what a failed list lookup does to the run.
type FailurePolicy string

const (
	// FailOpen records the error on the step and continues as if nothing
	// was found. Occupancy defaults to 0.
	FailOpen FailurePolicy = "fail_open"
	// FailClosed turns any lookup error into a blocking step.
	FailClosed FailurePolicy = "fail_closed"
)

// ParseFailurePolicy accepts "fail_open", "fail_closed" or "" (fail open).
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch FailurePolicy(s) {
	case "", FailOpen:
		return FailOpen, nil
	case FailClosed:
		return FailClosed, nil
	}
	return "", fmt.Errorf("unknown lookup failure policy %q", s)
}

// Policy holds the tunable parts of a check.
type Policy struct {
	OccupancyLimit int
	LookupFailure  FailurePolicy
}

// DefaultPolicy returns a limit of 5 and fail-open lookups.
func DefaultPolicy() Policy {
	return Policy{OccupancyLimit: DefaultOccupancyLimit, LookupFailure: FailOpen}
}

func (p Policy) withDefaults() Policy {
	if p.OccupancyLimit <= 0 {
		p.OccupancyLimit = DefaultOccupancyLimit
	}
	if p.LookupFailure == "" {
		p.LookupFailure = FailOpen
	}
	return p
}
