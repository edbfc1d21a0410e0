package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidAddress is returned by Address.Validate for missing or malformed fields.
var ErrInvalidAddress = errors.New("invalid address")

// Address is the candidate submitted for an eligibility check. It has no
// persistent identity and lives only for the duration of one check.
type Address struct {
	Address1    string `json:"address1"`
	Address2    string `json:"address2,omitempty"`
	City        string `json:"city"`
	State       string `json:"state"`
	Zip         string `json:"zip"`
	ProgramType string `json:"programType"`
}

// Trimmed returns a copy with surrounding whitespace removed from every field
// and the state code uppercased.
func (a Address) Trimmed() Address {
	return Address{
		Address1:    strings.TrimSpace(a.Address1),
		Address2:    strings.TrimSpace(a.Address2),
		City:        strings.TrimSpace(a.City),
		State:       strings.ToUpper(strings.TrimSpace(a.State)),
		Zip:         strings.TrimSpace(a.Zip),
		ProgramType: strings.TrimSpace(a.ProgramType),
	}
}

// Validate checks that every required field is non-empty after trimming and
// that the state is a two-letter code. Address2 is optional.
func (a Address) Validate() error { return a.validate(true) }

// ValidateLocation is Validate without the program type, for list entries.
func (a Address) ValidateLocation() error { return a.validate(false) }

func (a Address) validate(withProgram bool) error {
	t := a.Trimmed()
	var missing []string
	if t.Address1 == "" {
		missing = append(missing, "address1")
	}
	if t.City == "" {
		missing = append(missing, "city")
	}
	if t.State == "" {
		missing = append(missing, "state")
	}
	if t.Zip == "" {
		missing = append(missing, "zip")
	}
	if withProgram && t.ProgramType == "" {
		missing = append(missing, "programType")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidAddress, strings.Join(missing, ", "))
	}
	if !isStateCode(t.State) {
		return fmt.Errorf("%w: state must be a 2-letter code, got %q", ErrInvalidAddress, t.State)
	}
	return nil
}

func isStateCode(s string) bool {
	if len(s) != 2 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// NormalizedKey is the canonical (address1, address2, city) triple used as the
// join key against the blacklist and whitelist tables.
type NormalizedKey struct {
	Address1 string `json:"normAddress1"`
	Address2 string `json:"normAddress2"`
	City     string `json:"normCity"`
}

// String renders the key for logs and lock names.
func (k NormalizedKey) String() string {
	return k.Address1 + "|" + k.Address2 + "|" + k.City
}

// RawKey builds a key from unmodified address fields. Used when
// canonicalization is unavailable.
func RawKey(address1, address2, city string) NormalizedKey {
	return NormalizedKey{Address1: address1, Address2: address2, City: city}
}

// ProgramCategory is the canonical grouping derived from a free-form program type tag.
type ProgramCategory string

const (
	CategoryLL  ProgramCategory = "LL"
	CategoryACP ProgramCategory = "ACP"
)
