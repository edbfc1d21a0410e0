package eligibility

import (
	"errors"

	"github.com/ignite/address-eligibility/internal/domain"
)

// Sentinel errors for the eligibility service layer. Only ErrConnection,
// ErrUnknownDatabase and ErrInvalidAddress ever reach a caller; lookup and
// normalization failures are folded into the trace.
var (
	ErrConnection      = errors.New("cannot connect to tracked database")
	ErrUnknownDatabase = errors.New("unknown database reference")
	ErrLookup          = errors.New("list lookup failed")
	ErrNormalization   = errors.New("address normalization unavailable")
	ErrInvalidAddress  = domain.ErrInvalidAddress
)
