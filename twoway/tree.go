package twoway

// buildTree computes the parent/child tree per spec §4.3: nearest prior line
// of strictly smaller indent is the parent (a classic increasing-indent
// stack), except that a line inside a parenthesized group opened on an
// earlier line attaches to that opening line regardless of indentation.
func buildTree(units []*LogicalLine) {
	var indentStack []*LogicalLine
	var parenOwners []*LogicalLine // one entry per currently-unmatched '(' , LIFO

	for _, u := range units {
		if u.IsEmpty() {
			continue
		}

		var parent *LogicalLine
		if len(parenOwners) > 0 {
			parent = parenOwners[len(parenOwners)-1]
		} else {
			for len(indentStack) > 0 && indentStack[len(indentStack)-1].Indent >= u.Indent {
				indentStack = indentStack[:len(indentStack)-1]
			}
			if len(indentStack) > 0 {
				parent = indentStack[len(indentStack)-1]
			}
		}

		if parent != nil {
			u.Parent = parent
			parent.Children = append(parent.Children, u)
		}
		indentStack = append(indentStack, u)

		opens, closes := netParens(u.Content)
		for n := 0; n < opens; n++ {
			parenOwners = append(parenOwners, u)
		}
		for n := 0; n < closes && len(parenOwners) > 0; n++ {
			parenOwners = parenOwners[:len(parenOwners)-1]
		}
	}
}

// netParens counts unmatched '(' and ')' occurrences in s, outside of string
// literals, returning (netOpens, netCloses) after internally-balanced pairs
// cancel out.
func netParens(s string) (opens, closes int) {
	depth := 0
	inSingle, inDouble := false, false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\'':
			if !inDouble {
				if i+1 < len(s) && s[i+1] == '\'' {
					i++
					continue
				}
				inSingle = !inSingle
			}
		case '"':
			if !inSingle {
				if i+1 < len(s) && s[i+1] == '"' {
					i++
					continue
				}
				inDouble = !inDouble
			}
		case '(':
			if !inSingle && !inDouble {
				depth++
			}
		case ')':
			if !inSingle && !inDouble {
				if depth > 0 {
					depth--
				} else {
					closes++
				}
			}
		}
	}
	return depth, closes
}
