package eligibility

import (
	"context"
	"fmt"

	"github.com/ignite/address-eligibility/internal/domain"
)

// Normalizer derives the NormalizedKey from raw address fields.
type Normalizer struct {
	c Canonicalizer
}

// NewNormalizer wraps c. A nil Canonicalizer makes every call fall back to
// the raw values.
func NewNormalizer(c Canonicalizer) *Normalizer {
	return &Normalizer{c: c}
}

// Normalize canonicalizes the three key fields. On failure it returns the raw
// fields together with an error wrapping ErrNormalization, so callers can keep
// going with the raw key. An empty address2 is never sent to the canonicalizer.
func (n *Normalizer) Normalize(ctx context.Context, address1, address2, city string) (domain.NormalizedKey, error) {
	raw := domain.RawKey(address1, address2, city)
	if n == nil || n.c == nil {
		return raw, fmt.Errorf("%w: no canonicalizer configured", ErrNormalization)
	}

	a1, err := n.c.Canonicalize(ctx, address1)
	if err != nil {
		return raw, fmt.Errorf("%w: address1: %v", ErrNormalization, err)
	}
	var a2 string
	if address2 != "" {
		if a2, err = n.c.Canonicalize(ctx, address2); err != nil {
			return raw, fmt.Errorf("%w: address2: %v", ErrNormalization, err)
		}
	}
	c, err := n.c.Canonicalize(ctx, city)
	if err != nil {
		return raw, fmt.Errorf("%w: city: %v", ErrNormalization, err)
	}
	return domain.NormalizedKey{Address1: a1, Address2: a2, City: c}, nil
}

// CanonicalizerFunc adapts a plain function to Canonicalizer.
type CanonicalizerFunc func(ctx context.Context, field string) (string, error)

func (f CanonicalizerFunc) Canonicalize(ctx context.Context, field string) (string, error) {
	return f(ctx, field)
}
