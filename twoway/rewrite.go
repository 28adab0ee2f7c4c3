package twoway

import (
	"regexp"
	"strings"
)

var (
	leadingAfterWhere = regexp.MustCompile(`(?i)(\bWHERE\b)(\s+)(AND|OR)\b\s*`)
	trailingSeparator = regexp.MustCompile(`(?im)[ \t]*(,|\bAND\b|\bOR\b)[ \t]*$`)
	orphanWhereClause = regexp.MustCompile(`(?is)\bWHERE\b\s*(\n\s*)*($|GROUP\s+BY\b|ORDER\s+BY\b|HAVING\b|LIMIT\b|\))`)
	emptyParens       = regexp.MustCompile(`\(\s*\)`)
	multiBlankLines   = regexp.MustCompile(`\n{3,}`)
	setOperatorOnly   = regexp.MustCompile(`(?i)^\s*(UNION\s+ALL|UNION|EXCEPT|INTERSECT)\s*$`)
)

// rewriteSQL assembles the final text from the surviving units in original
// order and applies the bounded cleanup of spec §4.7. units must already be
// post-evaluation and post-propagation.
//
// Collapsing an empty paren pair can expose a now-dangling trailing AND/OR
// that the paren collapse didn't remove (it sat just outside the paren), so
// the two cleanups run together to a fixed point rather than as one pass
// each.
func rewriteSQL(units []*LogicalLine) string {
	var lines []string
	for _, u := range units {
		if u.Removed {
			continue
		}
		lines = append(lines, u.Content)
	}
	lines = removeOrphanSetOperators(lines)
	lines = removeOrphanClosingParens(lines)

	text := strings.Join(lines, "\n")
	text = leadingAfterWhere.ReplaceAllString(text, "$1 ")

	for {
		next := emptyParens.ReplaceAllString(text, "")
		next = trailingSeparator.ReplaceAllString(next, "")
		if next == text {
			break
		}
		text = next
	}

	for {
		stripped := orphanWhereClause.ReplaceAllString(text, "$2")
		if stripped == text {
			break
		}
		text = stripped
	}

	text = multiBlankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimRight(text, " \t\n")
}

// removeOrphanSetOperators drops a UNION/UNION ALL/EXCEPT/INTERSECT line
// that lacks a valid query line on both sides, then collapses a run of
// consecutive set-operator lines to the first, per original_source's
// twoway parser cleanup pass (distilled spec §4.7 only lists the other four
// cleanup rules; this one is carried over because the engine can otherwise
// emit a dangling UNION when both branches of an IF around it are struck).
func removeOrphanSetOperators(lines []string) []string {
	for {
		changed := false
		var kept []string
		for i, line := range lines {
			if !setOperatorOnly.MatchString(line) {
				kept = append(kept, line)
				continue
			}
			if hasValidQueryLine(lines, i, -1) && hasValidQueryLine(lines, i, 1) {
				kept = append(kept, line)
			} else {
				changed = true
			}
		}
		lines = kept
		if !changed {
			break
		}
	}

	var result []string
	prevWasSetOp := false
	for _, line := range lines {
		if setOperatorOnly.MatchString(line) {
			if !prevWasSetOp {
				result = append(result, line)
				prevWasSetOp = true
			}
			continue
		}
		result = append(result, line)
		if strings.TrimSpace(line) != "" {
			prevWasSetOp = false
		}
	}
	return result
}

// removeOrphanClosingParens drops a line whose entire content is a closing
// paren with no matching opener among the surviving lines, which happens
// when propagation removed the opener's line but left a leaf ")" line
// behind. A line consisting only of text ending in "(" with more opens
// than closes pushes one opener onto the stack.
func removeOrphanClosingParens(lines []string) []string {
	var openers []int
	drop := make(map[int]bool)
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == ")":
			if len(openers) > 0 {
				openers = openers[:len(openers)-1]
			} else {
				drop[i] = true
			}
		case strings.HasSuffix(trimmed, "(") && strings.Count(trimmed, "(") > strings.Count(trimmed, ")"):
			openers = append(openers, i)
		}
	}
	var kept []string
	for i, line := range lines {
		if !drop[i] {
			kept = append(kept, line)
		}
	}
	return kept
}

// hasValidQueryLine scans from idx in direction dir (-1 or +1) for a
// non-blank line that is not itself a set operator.
func hasValidQueryLine(lines []string, idx, dir int) bool {
	for j := idx + dir; j >= 0 && j < len(lines); j += dir {
		trimmed := strings.TrimSpace(lines[j])
		if trimmed != "" && !setOperatorOnly.MatchString(lines[j]) {
			return true
		}
	}
	return false
}
