package addresslist

import "errors"

// Sentinel errors for the address list service layer.
var (
	ErrNotFound     = errors.New("address list entry not found")
	ErrDuplicateKey = errors.New("an entry with the same normalized address already exists")
	ErrInvalidEntry = errors.New("invalid address list entry")
)
