package twoway

import (
	"regexp"
	"strings"
)

// cteOpenerPattern matches a line opening a CTE body: "name AS (" at the
// end of the line, per the resolved CTE-header heuristic (spec §9a).
var cteOpenerPattern = regexp.MustCompile(`(?i)\w+\s+AS\s*\($`)

// withKeywordPattern matches a line introducing a WITH clause.
var withKeywordPattern = regexp.MustCompile(`(?i)\bWITH\b`)

// markCTEHeaders tags the SELECT line directly inside a "WITH name AS ( ... )"
// block as FragmentCTEHeader, exempting it from removal-by-empty-children,
// per spec §4.6 and §9a.
func markCTEHeaders(units []*LogicalLine) {
	for _, u := range units {
		if u.IsEmpty() || u.Parent == nil {
			continue
		}
		trimmed := strings.TrimSpace(u.Content)
		if !strings.HasPrefix(strings.ToUpper(trimmed), "SELECT") {
			continue
		}
		parentTrimmed := strings.TrimSpace(u.Parent.Content)
		if cteOpenerPattern.MatchString(parentTrimmed) || withKeywordPattern.MatchString(parentTrimmed) {
			u.Kind = FragmentCTEHeader
		}
	}
}
