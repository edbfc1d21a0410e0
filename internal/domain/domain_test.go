package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddressValidate(t *testing.T) {
	valid := Address{Address1: "12 Main St", City: "Austin", State: "tx", Zip: "78701", ProgramType: "LL"}

	tests := []struct {
		name    string
		mutate  func(a *Address)
		wantErr bool
	}{
		{"valid with lowercase state", func(a *Address) {}, false},
		{"address2 optional", func(a *Address) { a.Address2 = "" }, false},
		{"blank address1", func(a *Address) { a.Address1 = "   " }, true},
		{"missing city", func(a *Address) { a.City = "" }, true},
		{"missing zip", func(a *Address) { a.Zip = "" }, true},
		{"missing program type", func(a *Address) { a.ProgramType = " " }, true},
		{"three letter state", func(a *Address) { a.State = "TEX" }, true},
		{"numeric state", func(a *Address) { a.State = "12" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := valid
			tt.mutate(&a)
			err := a.Validate()
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidAddress), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAddressTrimmed(t *testing.T) {
	a := Address{Address1: " 1 A St ", Address2: " ", City: " Waco", State: " tx ", Zip: "76701 ", ProgramType: " LL "}
	got := a.Trimmed()
	assert.Equal(t, "1 A St", got.Address1)
	assert.Equal(t, "", got.Address2)
	assert.Equal(t, "TX", got.State)
	assert.Equal(t, "LL", got.ProgramType)
}

func TestParseListKind(t *testing.T) {
	k, err := ParseListKind("whitelist")
	assert.NoError(t, err)
	assert.True(t, k.HasCapacity())

	k, err = ParseListKind("blacklist")
	assert.NoError(t, err)
	assert.False(t, k.HasCapacity())

	_, err = ParseListKind("greylist")
	assert.Error(t, err)
}

func TestCheckResultVerdict(t *testing.T) {
	r := &CheckResult{Success: 1, Steps: []CheckStep{{StepName: StepNameBlacklist, Result: ResultPassed}}}
	assert.Equal(t, VerdictPassed, r.Verdict())
	s, ok := r.Step(StepNameBlacklist)
	assert.True(t, ok)
	assert.Equal(t, ResultPassed, s.Result)
	_, ok = r.Step(StepNameWhitelist)
	assert.False(t, ok)

	r.Success = 0
	assert.Equal(t, VerdictFailed, r.Verdict())
}
