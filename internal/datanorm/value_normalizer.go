package datanorm

import (
	"strconv"
	"strings"
)

// AddressRow is one CSV row mapped onto list entry fields. Values are
// trimmed but not canonicalized; key derivation happens in the list service.
type AddressRow struct {
	Address1 string
	Address2 string
	City     string
	State    string
	Zip      string
	Capacity *int

	// CapacityRaw keeps an unparseable capacity cell for error reporting.
	CapacityRaw string
}

// NormalizeRow takes a CSV row and column mapping and produces an AddressRow.
func NormalizeRow(row []string, mapping *ColumnMapping) AddressRow {
	var rec AddressRow
	for i, val := range row {
		val = strings.TrimSpace(val)
		if val == "" {
			continue
		}
		switch mapping.FieldMap[i] {
		case FieldAddress1:
			rec.Address1 = collapseSpaces(val)
		case FieldAddress2:
			rec.Address2 = collapseSpaces(val)
		case FieldCity:
			rec.City = collapseSpaces(val)
		case FieldState:
			rec.State = strings.ToUpper(val)
		case FieldZip:
			rec.Zip = normalizeZip(val)
		case FieldCapacity:
			if n, ok := parseCapacity(val); ok {
				rec.Capacity = &n
			} else {
				rec.CapacityRaw = val
			}
		}
	}
	return rec
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func normalizeZip(raw string) string {
	z := strings.TrimSpace(raw)
	// Strip .0 suffix from float-parsed zip codes (e.g., "38824.0" -> "38824")
	if idx := strings.Index(z, "."); idx > 0 {
		z = z[:idx]
	}
	// Spreadsheets drop the leading zero of New England zips
	if len(z) == 4 && isDigits(z) {
		z = "0" + z
	}
	return z
}

func parseCapacity(raw string) (int, bool) {
	v := strings.TrimSpace(raw)
	if idx := strings.Index(v, "."); idx > 0 && strings.Trim(v[idx+1:], "0") == "" {
		v = v[:idx]
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
