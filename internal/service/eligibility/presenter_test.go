package eligibility

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/address-eligibility/internal/domain"
)

func present(t *testing.T, policy Policy, s *fakeSession) AuditView {
	t.Helper()
	res := NewPipeline(policy, nil).Run(context.Background(), s, NewNormalizer(upper), sampleAddress()).Result
	return Presenter{}.Present(res)
}

func texts(v AuditView) []string {
	out := make([]string, 0, len(v.Lines))
	for _, l := range v.Lines {
		out = append(out, l.Text)
	}
	return out
}

func icons(v AuditView) []Icon {
	out := make([]Icon, 0, len(v.Lines))
	for _, l := range v.Lines {
		out = append(out, l.Icon)
	}
	return out
}

func TestPresentBlacklisted(t *testing.T) {
	v := present(t, DefaultPolicy(), &fakeSession{blacklisted: true})

	assert.Equal(t, []string{
		"address found in blacklist",
		"whitelist check not needed",
		"status list check not needed",
	}, texts(v))
	assert.Equal(t, []Icon{IconFailed, IconSkipped, IconSkipped}, icons(v))
	assert.Equal(t, domain.VerdictFailed, v.Verdict)
}

func TestPresentWhitelisted(t *testing.T) {
	passed := present(t, DefaultPolicy(), &fakeSession{whitelisted: true, capacity: 10, occupancy: 3})
	assert.Equal(t, []string{
		"address not found in blacklist",
		"address found in whitelist with occupancy 3 (limit 10)",
		"status list check not needed",
	}, texts(passed))
	assert.Equal(t, []Icon{IconPassed, IconPassed, IconSkipped}, icons(passed))

	failed := present(t, DefaultPolicy(), &fakeSession{whitelisted: true, capacity: 5, occupancy: 8})
	assert.Equal(t, "address found in whitelist with occupancy 8 (limit 5)", failed.Lines[1].Text)
	assert.Equal(t, IconFailed, failed.Lines[1].Icon)
}

func TestPresentStatusList(t *testing.T) {
	fresh := present(t, DefaultPolicy(), &fakeSession{})
	assert.Equal(t, []string{
		"address not found in blacklist",
		"address not found in whitelist",
		"address found in status list (new address)",
	}, texts(fresh))
	assert.Equal(t, []Icon{IconPassed, IconSkipped, IconPassed}, icons(fresh))

	over := present(t, DefaultPolicy(), &fakeSession{occupancy: 8})
	assert.Equal(t, "address found in status list with occupancy 8 (limit 5)", over.Lines[2].Text)
	assert.Equal(t, IconFailed, over.Lines[2].Icon)
	assert.Equal(t, "Address is in status list with occupancy 8 (exceeds limit of 5) - CHECK FAILED", over.FinalMessage)
}

func TestPresentLookupErrors(t *testing.T) {
	open := present(t, DefaultPolicy(), &fakeSession{blErr: errors.New("x")})
	assert.Equal(t, IconError, open.Lines[0].Icon)
	assert.Equal(t, "address not found in blacklist", open.Lines[0].Text)

	closed := present(t, Policy{LookupFailure: FailClosed}, &fakeSession{blErr: errors.New("x")})
	assert.Equal(t, "blacklist lookup failed", closed.Lines[0].Text)
	assert.Equal(t, "whitelist check not needed", closed.Lines[1].Text)
}

func TestPresentDoesNotMutateResult(t *testing.T) {
	res := NewPipeline(DefaultPolicy(), nil).Run(context.Background(), &fakeSession{occupancy: 2}, NewNormalizer(upper), sampleAddress()).Result
	before := *res
	steps := append([]domain.CheckStep(nil), res.Steps...)

	Presenter{IncludeNormalize: true}.Present(res)
	assert.Equal(t, before.Success, res.Success)
	assert.Equal(t, steps, res.Steps)
}

func TestPresentIncludeNormalize(t *testing.T) {
	res := NewPipeline(DefaultPolicy(), nil).Run(context.Background(), &fakeSession{}, NewNormalizer(upper), sampleAddress()).Result
	v := Presenter{IncludeNormalize: true}.Present(res)
	require.Len(t, v.Lines, 4)
	assert.Equal(t, domain.StepNameNormalize, v.Lines[0].StepName)
	assert.Equal(t, "address normalized", v.Lines[0].Text)
}

func TestAuditViewString(t *testing.T) {
	v := present(t, DefaultPolicy(), &fakeSession{blacklisted: true})
	out := v.String()
	assert.Contains(t, out, "[failed] Check Blacklist: address found in blacklist")
	assert.Contains(t, out, "CHECK FAILED\nAddress is in blacklist - CHECK FAILED\n")
}
