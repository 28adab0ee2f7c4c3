package twoway

import "strings"

// commentSpan is a /* ... */ block comment found outside any string literal,
// with Inner the text strictly between the delimiters.
type commentSpan struct {
	Start, End int // End is one past the closing '/'
	Inner      string
}

// scanBlockComments finds every non-nesting block comment in content, never
// descending into a single- or double-quoted string literal. A "/*" with no
// matching "*/" before the end of content is malformed input, per spec §4.1.
func scanBlockComments(content string) ([]commentSpan, error) {
	var spans []commentSpan
	inSingle, inDouble := false, false
	for i := 0; i < len(content); i++ {
		switch content[i] {
		case '\'':
			if !inDouble {
				if i+1 < len(content) && content[i+1] == '\'' {
					i++
					continue
				}
				inSingle = !inSingle
			}
		case '"':
			if !inSingle {
				if i+1 < len(content) && content[i+1] == '"' {
					i++
					continue
				}
				inDouble = !inDouble
			}
		case '/':
			if inSingle || inDouble {
				continue
			}
			if i+1 < len(content) && content[i+1] == '*' {
				end := strings.Index(content[i+2:], "*/")
				if end < 0 {
					return nil, newParseError(KindUnterminated, 0, content[i:], "")
				}
				innerStart := i + 2
				innerEnd := i + 2 + end
				spans = append(spans, commentSpan{
					Start: i,
					End:   innerEnd + 2,
					Inner: content[innerStart:innerEnd],
				})
				i = innerEnd + 1
			}
		}
	}
	return spans, nil
}

var operatorWords = []struct {
	text string
	ctx  OperatorContext
}{
	{"NOT LIKE", OpNotLike},
	{"NOT IN", OpNotEqual}, // NOT IN behaves like <> for list/null purposes
	{"LIKE", OpLike},
	{"IN", OpInList},
	{"<>", OpNotEqual},
	{"!=", OpNotEqual},
	{"=", OpEqual},
}

// extractPrecedingInKeyword reports whether s ends, ignoring trailing
// whitespace, with a bare IN or NOT IN keyword — the canonical
// "COL IN /* $list */(1,2,3)" form where the keyword and its column sit in
// preText and only the default list follows the comment. "NOT IN" is left
// untouched in the surviving SQL either way, so both map to OpInList.
func extractPrecedingInKeyword(s string) (ctx OperatorContext, found bool) {
	trimmed := strings.TrimRight(s, " \t")
	for _, kw := range []string{"NOT IN", "IN"} {
		if len(trimmed) < len(kw) {
			continue
		}
		tail := trimmed[len(trimmed)-len(kw):]
		if !strings.EqualFold(tail, kw) {
			continue
		}
		before := trimmed[:len(trimmed)-len(kw)]
		if before == "" || !isSpaceByte(before[len(before)-1]) {
			continue
		}
		return OpInList, true
	}
	return OpNone, false
}

// extractLeadingOperator reports an operator token at the start of s (after
// leading whitespace), and what remains after it.
func extractLeadingOperator(s string) (rest string, ctx OperatorContext, found bool) {
	trimmed := strings.TrimLeft(s, " \t")
	for _, ow := range operatorWords {
		if len(trimmed) < len(ow.text) {
			continue
		}
		head := trimmed[:len(ow.text)]
		if !strings.EqualFold(head, ow.text) {
			continue
		}
		after := trimmed[len(ow.text):]
		isWordOp := ow.text[0] >= 'A' && ow.text[0] <= 'Z'
		if isWordOp && len(after) > 0 && !isSpaceByte(after[0]) {
			continue
		}
		return strings.TrimLeft(after, " \t"), ow.ctx, true
	}
	return s, OpNone, false
}

// columnExpression scans backward from the end of s for the contiguous
// non-whitespace token that names the column, per spec §4.5 step 4: the text
// between the preceding boundary (line start, comma, open paren) and the
// site.
func columnExpression(s string) (col string, colStart int) {
	end := len(strings.TrimRight(s, " \t"))
	start := end
	for start > 0 {
		c := s[start-1]
		if isSpaceByte(c) || c == ',' || c == '(' {
			break
		}
		start--
	}
	return s[start:end], start
}

// leadingLiteral captures the single literal token at the start of s, after
// skipping leading whitespace: a parenthesized group, a quoted string, or a
// bare run of characters up to the next space, comma, or closing paren.
func leadingLiteral(s string) (literal string, rest string) {
	trimmed := strings.TrimLeft(s, " \t")
	skipped := len(s) - len(trimmed)
	if len(trimmed) == 0 {
		return "", s
	}
	switch trimmed[0] {
	case '(':
		depth := 0
		for i := 0; i < len(trimmed); i++ {
			if trimmed[i] == '(' {
				depth++
			} else if trimmed[i] == ')' {
				depth--
				if depth == 0 {
					return trimmed[:i+1], s[skipped+i+1:]
				}
			}
		}
		return trimmed, ""
	case '\'', '"':
		q := trimmed[0]
		for i := 1; i < len(trimmed); i++ {
			if trimmed[i] == q {
				if i+1 < len(trimmed) && trimmed[i+1] == q {
					i++
					continue
				}
				return trimmed[:i+1], s[skipped+i+1:]
			}
		}
		return trimmed, ""
	default:
		i := 0
		for i < len(trimmed) && !isSpaceByte(trimmed[i]) && trimmed[i] != ',' && trimmed[i] != ')' {
			i++
		}
		return trimmed[:i], s[skipped+i:]
	}
}

// auxKeyword identifies the aux-function name at the start of a parameter
// comment's inner text, if inner begins with '%'.
func auxKeyword(inner string) (kw string, rest string, ok bool) {
	if !strings.HasPrefix(inner, "%") {
		return "", inner, false
	}
	body := inner[1:]
	i := 0
	for i < len(body) && (isAlnum(body[i]) || body[i] == '_') {
		i++
	}
	return body[:i], strings.TrimSpace(body[i:]), true
}

func isAlnum(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// splitArgs splits an aux-function argument list on top-level commas,
// honouring parens and quotes, for "%concat(a, 'x', b)" style calls.
func splitArgs(s string) []string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "(")
	s = strings.TrimSuffix(s, ")")
	var args []string
	var cur strings.Builder
	depth := 0
	inSingle, inDouble := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\'' && !inDouble:
			inSingle = !inSingle
			cur.WriteByte(c)
		case c == '"' && !inSingle:
			inDouble = !inDouble
			cur.WriteByte(c)
		case c == '(' && !inSingle && !inDouble:
			depth++
			cur.WriteByte(c)
		case c == ')' && !inSingle && !inDouble:
			depth--
			cur.WriteByte(c)
		case c == ',' && depth == 0 && !inSingle && !inDouble:
			args = append(args, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	if strings.TrimSpace(cur.String()) != "" || len(args) > 0 {
		args = append(args, strings.TrimSpace(cur.String()))
	}
	return args
}

// splitWords splits "%C 'x' a 'y'" style shorthand argument lists on
// whitespace, honouring quoted string literals as single words.
func splitWords(s string) []string {
	var words []string
	i := 0
	for i < len(s) {
		for i < len(s) && isSpaceByte(s[i]) {
			i++
		}
		if i >= len(s) {
			break
		}
		start := i
		if s[i] == '\'' || s[i] == '"' {
			q := s[i]
			i++
			for i < len(s) {
				if s[i] == q {
					if i+1 < len(s) && s[i+1] == q {
						i += 2
						continue
					}
					i++
					break
				}
				i++
			}
		} else {
			for i < len(s) && !isSpaceByte(s[i]) {
				i++
			}
		}
		words = append(words, s[start:i])
	}
	return words
}

// extractParamSites parses every parameter comment in a line's content into
// a ParamSite, per spec §3 and §4.5 steps 1/4/5/6.
func extractParamSites(content string) ([]ParamSite, error) {
	spans, err := scanBlockComments(content)
	if err != nil {
		return nil, err
	}
	var sites []ParamSite

	for i, sp := range spans {
		inner := strings.TrimSpace(sp.Inner)
		if inner == "" || !looksLikeParamComment(inner) {
			continue
		}

		preBoundary := 0
		if i > 0 {
			preBoundary = spans[i-1].End
		}
		postBoundary := len(content)
		if i+1 < len(spans) {
			postBoundary = spans[i+1].Start
		}
		preText := content[preBoundary:sp.Start]
		postText := content[sp.End:postBoundary]

		site := ParamSite{Start: sp.Start, End: sp.End}

		if kw, argsText, ok := auxKeyword(inner); ok {
			if err := fillAuxSite(&site, kw, argsText); err != nil {
				return nil, err
			}
			lit, remainder := leadingLiteral(postText)
			site.Default = lit
			site.DefaultEnd = sp.End + (len(postText) - len(remainder))
			sites = append(sites, site)
			continue
		}

		mods, names, err := parseBindSpec(inner)
		if err != nil {
			return nil, err
		}
		site.Modifiers = mods
		if len(names) == 1 {
			site.Name = names[0]
		}
		site.Names = names

		if ctx, ok := extractPrecedingInKeyword(preText); ok {
			site.Operator = ctx
			lit, remainder := leadingLiteral(postText)
			site.Default = lit
			site.DefaultEnd = sp.End + (len(postText) - len(remainder))
		} else if rest, ctx, ok := extractLeadingOperator(postText); ok {
			site.Operator = ctx
			col, colStart := columnExpression(preText)
			site.ColStart = preBoundary + colStart
			site.ColEnd = preBoundary + colStart + len(col)
			lit, remainder := leadingLiteral(rest)
			site.Default = lit
			site.DefaultEnd = sp.End + (len(postText) - len(remainder))
		} else {
			lit, remainder := leadingLiteral(postText)
			site.Default = lit
			site.DefaultEnd = sp.End + (len(postText) - len(remainder))
		}

		sites = append(sites, site)
	}

	return sites, nil
}

// looksLikeParamComment matches spec §4.1's parameter-comment grammar:
// ^\s*[$&@?!]*[A-Za-z_%][\w%]*
func looksLikeParamComment(inner string) bool {
	i := 0
	for i < len(inner) && strings.ContainsRune("$&@?!", rune(inner[i])) {
		i++
	}
	if i >= len(inner) {
		return false
	}
	c := inner[i]
	return c == '%' || c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// parseBindSpec parses the modifier+name grammar of a plain bind comment,
// including "?" fallback chains, per spec §4.5 step 1.
func parseBindSpec(inner string) (Modifier, []string, error) {
	tokens := strings.Fields(inner)
	if len(tokens) == 0 {
		return ModNone, nil, newParseError(KindModifier, 0, inner, "")
	}

	var mods Modifier
	var names []string

	firstMods, firstName, err := splitModifierPrefix(tokens[0])
	if err != nil {
		return ModNone, nil, err
	}
	mods = firstMods
	names = append(names, firstName)

	if len(tokens) > 1 {
		if !mods.has(ModFallback) {
			return ModNone, nil, newParseError(KindModifier, 0, inner, firstName)
		}
		for _, t := range tokens[1:] {
			m, name, err := splitModifierPrefix(t)
			if err != nil {
				return ModNone, nil, err
			}
			if !m.has(ModFallback) {
				return ModNone, nil, newParseError(KindModifier, 0, inner, name)
			}
			names = append(names, name)
		}
	}

	return mods, names, nil
}

// splitModifierPrefix peels {$,&,@,?,!} off the front of one token and
// validates the legal multisets of spec §4.5 step 1.
func splitModifierPrefix(tok string) (Modifier, string, error) {
	i := 0
	var mods Modifier
	for i < len(tok) && strings.ContainsRune("$&@?!", rune(tok[i])) {
		switch tok[i] {
		case '$':
			mods |= ModRemovable
		case '&':
			mods |= ModBindless
		case '@':
			mods |= ModRequired
		case '?':
			mods |= ModFallback
		case '!':
			mods |= ModNegated
		}
		i++
	}
	name := tok[i:]
	if name == "" {
		return ModNone, "", newParseError(KindModifier, 0, tok, "")
	}

	exclusive := 0
	for _, f := range []Modifier{ModRemovable, ModBindless, ModRequired, ModFallback} {
		if mods.has(f) {
			exclusive++
		}
	}
	if exclusive > 1 {
		return ModNone, "", newParseError(KindModifier, 0, tok, name)
	}

	return mods, name, nil
}

// fillAuxSite parses one auxiliary-function comment body into site, per
// spec §4.5 step 6.
func fillAuxSite(site *ParamSite, kw, argsText string) error {
	switch kw {
	case "concat":
		site.Kind = SiteAuxConcat
		site.Names = splitArgs(argsText)
	case "C":
		site.Kind = SiteAuxConcat
		site.Names = splitWords(argsText)
	case "L":
		site.Kind = SiteAuxLike
		site.Names = splitWords(argsText)
	case "STR":
		site.Kind = SiteAuxStr
		site.Names = splitArgs(argsText)
	case "SQL":
		site.Kind = SiteAuxSQL
		site.Names = splitArgs(argsText)
	case "include":
		site.Kind = SiteAuxInclude
		path := strings.TrimSpace(argsText)
		path = strings.Trim(path, `"'`)
		site.Name = path
	default:
		return newParseError(KindDirective, 0, kw, "")
	}
	return nil
}
