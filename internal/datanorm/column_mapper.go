package datanorm

import "strings"

// CanonicalField is a normalized column name used across all import sources.
type CanonicalField string

const (
	FieldAddress1 CanonicalField = "address1"
	FieldAddress2 CanonicalField = "address2"
	FieldCity     CanonicalField = "city"
	FieldState    CanonicalField = "state"
	FieldZip      CanonicalField = "zip"
	FieldCapacity CanonicalField = "capacity"
)

// requiredFields must all be present in a list file.
var requiredFields = []CanonicalField{FieldAddress1, FieldCity, FieldState, FieldZip}

// columnAliases maps lowercase header names to canonical fields.
// When multiple raw headers mean the same thing, they all map here.
var columnAliases = map[string]CanonicalField{
	// Street line
	"address1":       FieldAddress1,
	"address_1":      FieldAddress1,
	"address 1":      FieldAddress1,
	"address line 1": FieldAddress1,
	"address_line_1": FieldAddress1,
	"addr1":          FieldAddress1,
	"address":        FieldAddress1,
	"street":         FieldAddress1,
	"street_address": FieldAddress1,
	"street address": FieldAddress1,
	"line1":          FieldAddress1,

	// Unit line
	"address2":       FieldAddress2,
	"address_2":      FieldAddress2,
	"address 2":      FieldAddress2,
	"address line 2": FieldAddress2,
	"address_line_2": FieldAddress2,
	"addr2":          FieldAddress2,
	"unit":           FieldAddress2,
	"apt":            FieldAddress2,
	"line2":          FieldAddress2,

	// Location
	"city":        FieldCity,
	"town":        FieldCity,
	"state":       FieldState,
	"st":          FieldState,
	"state_code":  FieldState,
	"zip":         FieldZip,
	"zipcode":     FieldZip,
	"zip_code":    FieldZip,
	"zip5":        FieldZip,
	"post code":   FieldZip,
	"postal_code": FieldZip,

	// Whitelist capacity
	"capacity":      FieldCapacity,
	"max_occupancy": FieldCapacity,
	"limit":         FieldCapacity,
}

// ColumnMapping holds the resolved mapping from CSV column indices to canonical fields.
type ColumnMapping struct {
	FieldMap map[int]CanonicalField // column index -> canonical field
	RawNames []string               // original header names
}

// MapColumns takes a raw CSV header row and returns a resolved mapping.
// The first column claiming a field wins.
func MapColumns(header []string) *ColumnMapping {
	m := &ColumnMapping{
		FieldMap: make(map[int]CanonicalField, len(header)),
		RawNames: header,
	}
	seen := make(map[CanonicalField]bool)

	for i, h := range header {
		normalized := strings.ToLower(strings.TrimSpace(h))
		// Remove surrounding quotes
		normalized = strings.Trim(normalized, "\"'")

		if field, ok := columnAliases[normalized]; ok && !seen[field] {
			m.FieldMap[i] = field
			seen[field] = true
		}
	}
	return m
}

// Has reports whether a column maps to field.
func (m *ColumnMapping) Has(field CanonicalField) bool {
	for _, f := range m.FieldMap {
		if f == field {
			return true
		}
	}
	return false
}

// Missing returns the required fields with no column.
func (m *ColumnMapping) Missing() []string {
	var out []string
	for _, f := range requiredFields {
		if !m.Has(f) {
			out = append(out, string(f))
		}
	}
	return out
}
