package reports

import (
	"net/url"
	"sort"
	"strings"
)

// Report families, used both as fingerprint prefixes and as invalidation tags.
// Write-side workflows invalidate the families their mutation affects.
const (
	FamilyRevenue     = "revenue"
	FamilyPnl         = "pnl"
	FamilyReceivables = "ar"
	FamilyInvestors   = "investors"
	FamilyUtilization = "utilization"
)

// Fingerprint builds the canonical cache key for a report invocation: the
// family followed by sorted key=value pairs. Logically identical filters
// always collide to the same key regardless of how the caller assembled the
// parameter map. Values are query-escaped so a caller-supplied value carrying
// the '|' or '=' separators cannot collide two different filter sets.
func Fingerprint(family string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(family)
	for _, k := range keys {
		b.WriteByte('|')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(params[k]))
	}
	return b.String()
}

func familyOf(fingerprint string) string {
	if i := strings.IndexByte(fingerprint, '|'); i >= 0 {
		return fingerprint[:i]
	}
	return fingerprint
}
