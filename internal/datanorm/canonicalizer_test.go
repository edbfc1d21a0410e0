package datanorm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalizeField(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"123 North Main Street", "123 N MAIN ST"},
		{"123 n. main st.", "123 N MAIN ST"},
		{"  456   Oak   Avenue, Apt. 4B ", "456 OAK AVE APT 4B"},
		{"Suite #200", "STE #200"},
		{"1/2 Elm Ct", "1/2 ELM CT"},
		{"Calle Peñasco", "CALLE PENASCO"},
		{"O'Neil Blvd", "ONEIL BLVD"},
		{"Saint Louis", "ST LOUIS"},
		{"Apartment 3-C", "APT 3 C"},
		{"", ""},
		{"   ", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CanonicalizeField(tc.in), tc.in)
	}
}

func TestCanonicalizeFieldIsIdempotent(t *testing.T) {
	for _, in := range []string{
		"123 North Main Street",
		"Suite #200, Building Five",
		"Mount Vernon",
		"Calle Peñasco Number 7",
	} {
		once := CanonicalizeField(in)
		assert.Equal(t, once, CanonicalizeField(once), in)
	}
}

func TestAddressCanonicalizerNeverFails(t *testing.T) {
	got, err := NewAddressCanonicalizer().Canonicalize(context.Background(), "12 West Road")
	require.NoError(t, err)
	assert.Equal(t, "12 W RD", got)
}
