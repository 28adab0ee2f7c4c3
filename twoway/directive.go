package twoway

import (
	"regexp"
	"strings"
)

// blockDirectivePattern recognizes the physical-line comment forms of §4.4:
// "-- %IF name", "-- %ELSEIF name", "-- %ELSE", "-- %END".
var blockDirectivePattern = regexp.MustCompile(`(?i)^--\s*%(IF|ELSEIF|ELSE|END)\b\s*(.*)$`)

// inlineDirectivePattern finds one /*%if|%elseif|%else|%end ...*/ marker.
var inlineDirectivePattern = regexp.MustCompile(`/\*\s*%(if|elseif|else|end)\b([^*]*?)\*/`)

// processBlockDirectives resolves -- %IF/-- %ELSE/-- %END blocks against
// bindings, per spec §4.4. Directive marker lines are always removed; lines
// in a branch that was not selected are marked removed; lines in the
// selected branch are left untouched for the parameter evaluator.
func processBlockDirectives(units []*LogicalLine, bindings Bindings) error {
	i := 0
	for i < len(units) {
		u := units[i]
		if u.IsEmpty() {
			i++
			continue
		}
		m := blockDirectivePattern.FindStringSubmatch(strings.TrimSpace(u.Content))
		if m == nil {
			i++
			continue
		}
		kw := strings.ToUpper(m[1])
		if kw != "IF" {
			return newParseError(KindDirective, u.LineNumber, u.Content, "")
		}

		end, err := resolveIfBlock(units, i, bindings)
		if err != nil {
			return err
		}
		i = end + 1
	}
	return nil
}

type ifBranch struct {
	condition  string // empty for ELSE
	hasCond    bool
	start, end int // [start,end) indices into units, body only
}

// resolveIfBlock consumes one -- %IF ... -- %END region starting at idx,
// marks directive marker lines, selects one branch, strikes the rest.
func resolveIfBlock(units []*LogicalLine, idx int, bindings Bindings) (int, error) {
	ifLine := units[idx]
	ifLine.Kind = FragmentDirective
	ifLine.Removed = true

	m := blockDirectivePattern.FindStringSubmatch(strings.TrimSpace(ifLine.Content))
	branches := []ifBranch{{condition: m[2], hasCond: true, start: idx + 1}}
	sawElse := false
	endIdx := -1

	j := idx + 1
	for j < len(units) {
		u := units[j]
		if u.IsEmpty() {
			j++
			continue
		}
		bm := blockDirectivePattern.FindStringSubmatch(strings.TrimSpace(u.Content))
		if bm == nil {
			j++
			continue
		}
		kw := strings.ToUpper(bm[1])
		switch kw {
		case "IF":
			return -1, newParseError(KindDirective, u.LineNumber, u.Content, "")
		case "ELSEIF":
			if sawElse {
				return -1, newParseError(KindDirective, u.LineNumber, u.Content, "")
			}
			branches[len(branches)-1].end = j
			branches = append(branches, ifBranch{condition: bm[2], hasCond: true, start: j + 1})
			u.Kind = FragmentDirective
			u.Removed = true
			j++
		case "ELSE":
			if sawElse {
				return -1, newParseError(KindDirective, u.LineNumber, u.Content, "")
			}
			sawElse = true
			branches[len(branches)-1].end = j
			branches = append(branches, ifBranch{hasCond: false, start: j + 1})
			u.Kind = FragmentDirective
			u.Removed = true
			j++
		case "END":
			branches[len(branches)-1].end = j
			u.Kind = FragmentDirective
			u.Removed = true
			endIdx = j
		}
		if endIdx >= 0 {
			break
		}
	}

	if endIdx < 0 {
		// -- %END is optional at EOF for a well-formed single-branch block.
		if sawElse {
			return -1, newParseError(KindDirective, ifLine.LineNumber, ifLine.Content, "")
		}
		branches[len(branches)-1].end = len(units)
		endIdx = len(units) - 1
	}

	selected := -1
	for bi, br := range branches {
		truth := true
		if br.hasCond {
			var err error
			truth, err = evalCondition(br.condition, bindings)
			if err != nil {
				return -1, newParseError(KindDirective, ifLine.LineNumber, ifLine.Content, "")
			}
		}
		if truth {
			selected = bi
			break
		}
	}

	for bi, br := range branches {
		if bi == selected {
			continue
		}
		for k := br.start; k < br.end && k < len(units); k++ {
			units[k].Removed = true
		}
	}

	return endIdx, nil
}

// applyInlineDirectives resolves /*%if*/.../*%elseif*/.../*%else*/.../*%end*/
// textual selections within a single line's content, per spec §4.4. It must
// run before parameter-comment tokenizing so a discarded branch never
// contributes a ParamSite.
func applyInlineDirectives(content string, bindings Bindings) (string, error) {
	for {
		loc := inlineDirectivePattern.FindStringSubmatchIndex(content)
		if loc == nil {
			return content, nil
		}
		kw := content[loc[2]:loc[3]]
		if strings.ToLower(kw) != "if" {
			// stray %elseif/%else/%end with no opening %if on this line
			return content, newParseError(KindDirective, 0, content, "")
		}

		var segments []inlineSegment
		cursor := loc[1]
		curCond := content[loc[4]:loc[5]]
		curHasCond := true
		bodyLo := cursor
		closed := false

		for !closed {
			m := inlineDirectivePattern.FindStringSubmatchIndex(content[cursor:])
			if m == nil {
				return content, newParseError(KindDirective, 0, content, "")
			}
			absStart, absEnd := cursor+m[0], cursor+m[1]
			mk := strings.ToLower(content[cursor+m[2] : cursor+m[3]])
			segments = append(segments, inlineSegment{cond: curCond, hasCond: curHasCond, bodyLo: bodyLo, bodyHi: absStart})

			switch mk {
			case "elseif":
				curCond = content[cursor+m[4] : cursor+m[5]]
				curHasCond = true
				bodyLo = absEnd
				cursor = absEnd
			case "else":
				curCond = ""
				curHasCond = false
				bodyLo = absEnd
				cursor = absEnd
			case "end":
				closed = true
				cursor = absEnd
			default:
				return content, newParseError(KindDirective, 0, content, "")
			}
		}

		selected := -1
		for si, sg := range segments {
			truth := true
			if sg.hasCond {
				var err error
				truth, err = evalCondition(sg.cond, bindings)
				if err != nil {
					return content, newParseError(KindDirective, 0, content, "")
				}
			}
			if truth {
				selected = si
				break
			}
		}

		replacement := ""
		if selected >= 0 {
			replacement = content[segments[selected].bodyLo:segments[selected].bodyHi]
		}
		content = content[:loc[0]] + replacement + content[cursor:]
	}
}

// inlineSegment is one %if/%elseif/%else branch of an inline directive, with
// the byte range of its body text within the enclosing line's content.
type inlineSegment struct {
	cond    string
	hasCond bool // false for the %else branch, which has no condition to test
	bodyLo  int
	bodyHi  int
}

// evalCondition evaluates a directive condition expression: identifiers
// referencing bindings, NOT/AND/OR, and parenthesized grouping, with
// precedence NOT > AND > OR, per original_source's _evaluate_condition.
func evalCondition(expr string, bindings Bindings) (bool, error) {
	return parseOrExpr(strings.TrimSpace(expr), bindings)
}

func parseOrExpr(expr string, bindings Bindings) (bool, error) {
	parts := splitByOperator(expr, "OR")
	for _, p := range parts {
		v, err := parseAndExpr(strings.TrimSpace(p), bindings)
		if err != nil {
			return false, err
		}
		if v {
			return true, nil
		}
	}
	return false, nil
}

func parseAndExpr(expr string, bindings Bindings) (bool, error) {
	parts := splitByOperator(expr, "AND")
	for _, p := range parts {
		v, err := parseNotExpr(strings.TrimSpace(p), bindings)
		if err != nil {
			return false, err
		}
		if !v {
			return false, nil
		}
	}
	return true, nil
}

func parseNotExpr(expr string, bindings Bindings) (bool, error) {
	expr = strings.TrimSpace(expr)
	if len(expr) >= 4 && strings.EqualFold(expr[:4], "NOT ") {
		v, err := parsePrimaryExpr(strings.TrimSpace(expr[4:]), bindings)
		return !v, err
	}
	return parsePrimaryExpr(expr, bindings)
}

func parsePrimaryExpr(expr string, bindings Bindings) (bool, error) {
	expr = strings.TrimSpace(expr)
	if strings.HasPrefix(expr, "(") && strings.HasSuffix(expr, ")") {
		return parseOrExpr(strings.TrimSpace(expr[1:len(expr)-1]), bindings)
	}
	return !IsNegative(bindings.get(expr)), nil
}

// splitByOperator splits expr on a whole-word operator at paren depth 0.
func splitByOperator(expr string, op string) []string {
	var parts []string
	var cur strings.Builder
	depth := 0
	upperOp := strings.ToUpper(op)
	i := 0
	for i < len(expr) {
		ch := expr[i]
		switch ch {
		case '(':
			depth++
			cur.WriteByte(ch)
			i++
		case ')':
			depth--
			cur.WriteByte(ch)
			i++
		default:
			if depth == 0 && i+len(op) <= len(expr) && strings.EqualFold(expr[i:i+len(op)], upperOp) {
				beforeOK := i == 0 || isSpaceByte(expr[i-1])
				afterOK := i+len(op) >= len(expr) || isSpaceByte(expr[i+len(op)])
				if beforeOK && afterOK {
					parts = append(parts, cur.String())
					cur.Reset()
					i += len(op)
					continue
				}
			}
			cur.WriteByte(ch)
			i++
		}
	}
	if cur.Len() > 0 || len(parts) == 0 {
		parts = append(parts, cur.String())
	}
	return parts
}
