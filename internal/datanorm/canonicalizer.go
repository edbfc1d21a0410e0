package datanorm

import (
	"context"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// AddressCanonicalizer is the native canonicalization routine for address
// fields. Output is uppercase ASCII-folded words separated by single spaces,
// with USPS suffix and unit abbreviations applied. It is idempotent.
type AddressCanonicalizer struct{}

// NewAddressCanonicalizer returns the native canonicalizer.
func NewAddressCanonicalizer() *AddressCanonicalizer { return &AddressCanonicalizer{} }

// Canonicalize implements eligibility.Canonicalizer. It never fails.
func (AddressCanonicalizer) Canonicalize(_ context.Context, field string) (string, error) {
	return CanonicalizeField(field), nil
}

// CanonicalizeField canonicalizes one address field.
func CanonicalizeField(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	// Casers and transform chains keep state, so build them per call.
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, s)
	if err != nil {
		folded = s
	}
	upper := cases.Upper(language.English).String(folded)

	var b strings.Builder
	b.Grow(len(upper))
	for _, r := range upper {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '#', r == '/':
			b.WriteRune(r)
		case r == '.', r == '\'', r == '’':
			// dropped so "ST." and "O'NEIL" collapse to "ST" and "ONEIL"
		default:
			b.WriteRune(' ')
		}
	}

	words := strings.Fields(b.String())
	for i, w := range words {
		if abbr, ok := uspsAbbreviations[w]; ok {
			words[i] = abbr
		}
	}
	return strings.Join(words, " ")
}

// uspsAbbreviations covers the common street suffixes, directionals and
// secondary unit designators (USPS Publication 28).
var uspsAbbreviations = map[string]string{
	// Directionals
	"NORTH":     "N",
	"SOUTH":     "S",
	"EAST":      "E",
	"WEST":      "W",
	"NORTHEAST": "NE",
	"NORTHWEST": "NW",
	"SOUTHEAST": "SE",
	"SOUTHWEST": "SW",

	// Street suffixes
	"ALLEY":      "ALY",
	"AVENUE":     "AVE",
	"AV":         "AVE",
	"BOULEVARD":  "BLVD",
	"CIRCLE":     "CIR",
	"COURT":      "CT",
	"COVE":       "CV",
	"CROSSING":   "XING",
	"DRIVE":      "DR",
	"EXPRESSWAY": "EXPY",
	"FREEWAY":    "FWY",
	"HIGHWAY":    "HWY",
	"LANE":       "LN",
	"PARKWAY":    "PKWY",
	"PLACE":      "PL",
	"PLAZA":      "PLZ",
	"POINT":      "PT",
	"ROAD":       "RD",
	"ROUTE":      "RTE",
	"SQUARE":     "SQ",
	"STREET":     "ST",
	"STR":        "ST",
	"TERRACE":    "TER",
	"TRAIL":      "TRL",
	"TURNPIKE":   "TPKE",
	"WAY":        "WAY",

	// Secondary unit designators
	"APARTMENT":  "APT",
	"BASEMENT":   "BSMT",
	"BUILDING":   "BLDG",
	"DEPARTMENT": "DEPT",
	"FLOOR":      "FL",
	"LOT":        "LOT",
	"NUMBER":     "#",
	"OFFICE":     "OFC",
	"PENTHOUSE":  "PH",
	"ROOM":       "RM",
	"SPACE":      "SPC",
	"SUITE":      "STE",
	"TRAILER":    "TRLR",
	"UNIT":       "UNIT",

	// Place words
	"FORT":  "FT",
	"MOUNT": "MT",
	"SAINT": "ST",
}
