package twoway

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shibukawa/sqlyway/dialect"
)

var inListPattern = regexp.MustCompile(`([A-Za-z_][\w."]*)\s+(NOT\s+)?IN\s*\(([\x00, ]*)\)`)

// inClauseAnyPattern matches an IN-list without requiring a simple column
// reference in front of it, used only to detect the case inListPattern
// can't handle: a column expression (a function call, a bracketed or
// backtick-quoted identifier, ...) that inListPattern's column group can't
// capture.
var inClauseAnyPattern = regexp.MustCompile(`(NOT\s+)?IN\s*\(([\x00, ]*)\)`)

// splitOversizedInLists rewrites any emitted "COL IN ( PH ... )" whose
// placeholder count exceeds limit into OR-joined (AND-joined for NOT IN)
// chunks of at most limit placeholders each, per spec §4.8. When an
// oversized IN-list's column reference can't be extracted (so it can't be
// repeated across the split chunks), it raises Dialect the way
// original_source's _extract_in_clause_column does.
func splitOversizedInLists(text string, limit int) (string, error) {
	if limit <= 0 {
		return text, nil
	}
	result := inListPattern.ReplaceAllStringFunc(text, func(m string) string {
		sub := inListPattern.FindStringSubmatch(m)
		col, notKw, inner := sub[1], sub[2], sub[3]
		count := strings.Count(inner, sentinel)
		if count <= limit {
			return m
		}

		kw := "IN"
		joiner := " OR "
		if notKw != "" {
			kw = "NOT IN"
			joiner = " AND "
		}

		var groups []string
		remaining := count
		for remaining > 0 {
			n := remaining
			if n > limit {
				n = limit
			}
			parts := make([]string, n)
			for i := range parts {
				parts[i] = sentinel
			}
			groups = append(groups, fmt.Sprintf("%s %s (%s)", col, kw, strings.Join(parts, ", ")))
			remaining -= n
		}
		return "(" + strings.Join(groups, joiner) + ")"
	})

	for _, m := range inClauseAnyPattern.FindAllStringSubmatch(result, -1) {
		if strings.Count(m[2], sentinel) > limit {
			return "", newParseError(KindDialect, 0, m[0], "")
		}
	}

	return result, nil
}

// bindDialect walks the sentinel stream left to right, substituting the
// dialect's placeholder syntax and consuming bound values in order, per
// spec §4.8. It is the sole stage that knows dialect-specific syntax.
func bindDialect(text string, binds []bindEntry, d dialect.Dialect) (string, []any, map[string]any, error) {
	text, err := splitOversizedInLists(text, d.InClauseLimit())
	if err != nil {
		return "", nil, nil, err
	}

	var out strings.Builder
	positional := make([]any, 0, len(binds))
	named := make(map[string]any, len(binds))
	nameCounters := make(map[string]int)
	bi := 0

	for i := 0; i < len(text); i++ {
		if text[i] != sentinel[0] {
			out.WriteByte(text[i])
			continue
		}
		if bi >= len(binds) {
			continue
		}
		entry := binds[bi]
		bi++

		if d.Placeholder() == dialect.PlaceholderNamed {
			idx := nameCounters[entry.Name]
			nameCounters[entry.Name] = idx + 1
			key := fmt.Sprintf("%s_%d", entry.Name, idx)
			out.WriteString(":" + key)
			named[key] = entry.Value
		} else {
			out.WriteString(string(d.Placeholder()))
		}
		positional = append(positional, entry.Value)
	}

	return out.String(), positional, named, nil
}
