package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/address-eligibility/internal/domain"
	"github.com/ignite/address-eligibility/internal/service/eligibility"
)

type stubChecker struct {
	res  *domain.CheckResult
	err  error
	last eligibility.CheckRequest
}

func (s *stubChecker) CheckAddress(_ context.Context, req eligibility.CheckRequest) (*domain.CheckResult, error) {
	s.last = req
	return s.res, s.err
}

func opener(c checker, released *bool) openFunc {
	return func(context.Context, string) (checker, func(), error) {
		return c, func() { *released = true }, nil
	}
}

var addressArgs = []string{
	"--db", "acme",
	"--address1", "123 Main Street",
	"--city", "Springfield",
	"--state", "IL",
	"--zip", "62704",
	"--program-type", "LL+EBB",
}

func passedResult() *domain.CheckResult {
	return &domain.CheckResult{
		Success: 1,
		Steps: []domain.CheckStep{
			{StepName: domain.StepNameNormalize, Status: domain.StepCompleted, Result: domain.ResultNotApplicable},
			{StepName: domain.StepNameBlacklist, Status: domain.StepCompleted, Result: domain.ResultPassed},
			{StepName: domain.StepNameWhitelist, Status: domain.StepCompleted, Result: domain.ResultNotApplicable, Occupancy: domain.IntPtr(0)},
			{StepName: domain.StepNameStatusList, Status: domain.StepCompleted, Result: domain.ResultPassed, StopProcess: true,
				Message: "Address not found in any list - CHECK PASSED", Occupancy: domain.IntPtr(0), Limit: domain.IntPtr(5)},
		},
		FinalMessage: "Address not found in any list - CHECK PASSED",
	}
}

func TestRunPassed(t *testing.T) {
	stub := &stubChecker{res: passedResult()}
	var released bool
	var out, errOut bytes.Buffer

	code := run(addressArgs, opener(stub, &released), &out, &errOut)
	assert.Equal(t, exitPassed, code)
	assert.True(t, released)
	assert.Equal(t, "acme", stub.last.DatabaseRef)
	assert.Equal(t, "LL+EBB", stub.last.ProgramType)

	assert.Contains(t, out.String(), "[passed] Check Blacklist: address not found in blacklist")
	assert.Contains(t, out.String(), "address found in status list (new address)")
	assert.Contains(t, out.String(), "CHECK PASSED")
	assert.Empty(t, errOut.String())
}

func TestRunFailedExitsOne(t *testing.T) {
	res := &domain.CheckResult{
		Success: 0,
		Steps: []domain.CheckStep{
			{StepName: domain.StepNameBlacklist, Status: domain.StepCompleted, Result: domain.ResultFailed, StopProcess: true},
		},
		FinalMessage: "Address is in blacklist - CHECK FAILED",
	}
	var released bool
	var out, errOut bytes.Buffer

	code := run(addressArgs, opener(&stubChecker{res: res}, &released), &out, &errOut)
	assert.Equal(t, exitFailed, code)
	assert.Contains(t, out.String(), "whitelist check not needed")
	assert.Contains(t, out.String(), "Address is in blacklist - CHECK FAILED")
}

func TestRunJSON(t *testing.T) {
	var released bool
	var out, errOut bytes.Buffer

	code := run(append([]string{"--json"}, addressArgs...), opener(&stubChecker{res: passedResult()}, &released), &out, &errOut)
	require.Equal(t, exitPassed, code)

	var got domain.CheckResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, 1, got.Success)
	assert.Len(t, got.Steps, 4)
}

func TestRunConnectionErrorExitsTwo(t *testing.T) {
	stub := &stubChecker{err: fmt.Errorf("%w %q: %w", eligibility.ErrConnection, "acme", errors.New("refused"))}
	var released bool
	var out, errOut bytes.Buffer

	code := run(addressArgs, opener(stub, &released), &out, &errOut)
	assert.Equal(t, exitError, code)
	assert.Contains(t, errOut.String(), "connection error")
	assert.Empty(t, out.String())
}

func TestRunMissingFlagExitsTwo(t *testing.T) {
	var released bool
	var out, errOut bytes.Buffer

	code := run([]string{"--address1", "1 Main St"}, opener(&stubChecker{}, &released), &out, &errOut)
	assert.Equal(t, exitError, code)
	assert.False(t, released)
}

func TestRunOpenFailureExitsTwo(t *testing.T) {
	open := func(context.Context, string) (checker, func(), error) {
		return nil, nil, errors.New("failed to read config file")
	}
	var out, errOut bytes.Buffer

	code := run(addressArgs, open, &out, &errOut)
	assert.Equal(t, exitError, code)
	assert.Contains(t, errOut.String(), "failed to read config file")
}
