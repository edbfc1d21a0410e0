package datanorm

import (
	"strings"

	"github.com/ignite/address-eligibility/internal/domain"
)

// Classifier determines which list a file belongs to from its name and header row.
type Classifier struct{}

func NewClassifier() *Classifier {
	return &Classifier{}
}

var blacklistKeywords = []string{"blacklist", "blocklist", "block", "deny", "banned"}
var whitelistKeywords = []string{"whitelist", "allowlist", "allow", "approved"}

// Classify returns the list kind for a file, or "" when it can't tell.
// A capacity column marks a whitelist file.
func (c *Classifier) Classify(key string, mapping *ColumnMapping) domain.ListKind {
	keyLower := strings.ToLower(key)

	for _, kw := range blacklistKeywords {
		if strings.Contains(keyLower, kw) {
			return domain.ListBlacklist
		}
	}
	for _, kw := range whitelistKeywords {
		if strings.Contains(keyLower, kw) {
			return domain.ListWhitelist
		}
	}
	if mapping != nil && mapping.Has(FieldCapacity) {
		return domain.ListWhitelist
	}
	return ""
}
