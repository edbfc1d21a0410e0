package eligibility

import (
	"strings"

	"github.com/ignite/address-eligibility/internal/domain"
)

// programCategories is the fixed program type table. Combined tags are keyed
// by their leading program.
var programCategories = map[string]domain.ProgramCategory{
	"LL":     domain.CategoryLL,
	"LL+EBB": domain.CategoryLL,
	"LL+ACP": domain.CategoryLL,
	"EBB":    domain.CategoryACP,
	"ACP":    domain.CategoryACP,
	"EBB+LL": domain.CategoryACP,
	"ACP+LL": domain.CategoryACP,
}

// CategoryFor maps a free-form program type onto the category used for the
// occupancy lookup. Unknown tags pass through trimmed and uppercased.
func CategoryFor(programType string) domain.ProgramCategory {
	tag := strings.ToUpper(strings.TrimSpace(programType))
	tag = strings.ReplaceAll(tag, " ", "")
	if c, ok := programCategories[tag]; ok {
		return c
	}
	lead, _, _ := strings.Cut(tag, "+")
	switch lead {
	case "LL":
		return domain.CategoryLL
	case "EBB", "ACP":
		return domain.CategoryACP
	}
	return domain.ProgramCategory(tag)
}
