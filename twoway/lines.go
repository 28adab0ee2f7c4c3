package twoway

import (
	"regexp"
	"strings"
)

const tabWidth = 4

var separatorOnlyPattern = regexp.MustCompile(`(?i)^(AND|OR|UNION\s+ALL|UNION|INTERSECT|EXCEPT|,)\s*$`)

// assembleLines groups the raw template into LogicalLines per spec §4.2: a
// physical line containing only a separator keyword is glued to the next
// non-empty physical line (adopting its indent, prepending the separator
// text), and a string literal spanning multiple physical lines becomes part
// of a single logical line.
func assembleLines(template string) ([]*LogicalLine, error) {
	raw := strings.Split(template, "\n")
	var units []*LogicalLine

	i := 0
	for i < len(raw) {
		startLineNo := i + 1
		physical := []string{raw[i]}
		combined := raw[i]

		for !isStringClosed(combined) && i+1 < len(raw) {
			i++
			physical = append(physical, raw[i])
			combined = combined + "\n" + raw[i]
		}
		if !isStringClosed(combined) {
			return nil, newParseError(KindUnterminated, startLineNo, combined, "")
		}
		i++

		stripped := strings.TrimLeft(physical[0], " \t")
		indent := -1
		if stripped != "" {
			indent = expandedIndent(physical[0])
		}

		var content string
		if len(physical) > 1 {
			content = stripped + "\n" + strings.Join(physical[1:], "\n")
		} else {
			content = stripped
		}

		kind := FragmentNormal
		if indent < 0 {
			kind = FragmentBlank
		}
		units = append(units, &LogicalLine{
			LineNumber: startLineNo,
			Original:   strings.Join(physical, "\n"),
			Indent:     indent,
			Content:    content,
			Kind:       kind,
		})
	}

	return glueSeparators(units), nil
}

// expandedIndent counts leading whitespace on a physical line, expanding
// tabs to tabWidth columns, per spec §3.
func expandedIndent(line string) int {
	col := 0
	for _, ch := range line {
		switch ch {
		case ' ':
			col++
		case '\t':
			col += tabWidth - (col % tabWidth)
		default:
			return col
		}
	}
	return col
}

// isStringClosed reports whether every single/double-quoted string literal
// opened in s is also closed in s, honouring doubled-quote escaping.
func isStringClosed(s string) bool {
	inSingle, inDouble := false, false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\'':
			if inDouble {
				continue
			}
			if i+1 < len(s) && s[i+1] == '\'' {
				i++
				continue
			}
			inSingle = !inSingle
		case '"':
			if inSingle {
				continue
			}
			if i+1 < len(s) && s[i+1] == '"' {
				i++
				continue
			}
			inDouble = !inDouble
		}
	}
	return !inSingle && !inDouble
}

// glueSeparators merges a separator-only line into the following non-empty
// line, per spec §4.2.
func glueSeparators(units []*LogicalLine) []*LogicalLine {
	var result []*LogicalLine
	for i := 0; i < len(units); i++ {
		u := units[i]
		if u.Indent < 0 || !separatorOnlyPattern.MatchString(strings.TrimSpace(u.Content)) {
			result = append(result, u)
			continue
		}
		// find next non-blank unit to glue onto, preserving any blank lines
		// between the separator and its target.
		j := i + 1
		for j < len(units) && units[j].Indent < 0 {
			result = append(result, units[j])
			j++
		}
		if j >= len(units) {
			result = append(result, u)
			i = j - 1
			continue
		}
		next := units[j]
		sep := strings.TrimSpace(u.Content)
		next.Content = sep + " " + next.Content
		next.Original = u.Original + "\n" + next.Original
		next.LineNumber = u.LineNumber
		i = j - 1
	}
	return result
}
