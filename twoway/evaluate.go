package twoway

import (
	"fmt"
	"strings"

	"github.com/shibukawa/sqlyway/dialect"
)

// evalContext carries the state the parameter evaluator needs beyond a
// single site: the bindings, the active dialect (for LIKE escaping), and
// the diagnostics sink for %STR/%SQL splices, per spec §4.5/§7.
type evalContext struct {
	bindings Bindings
	dialect  dialect.Dialect
	diags    *[]string
}

// evaluateLine resolves every ParamSite on a surviving, non-directive line,
// splicing replacement text into its Content and marking it Removed when a
// $- or &-site resolves negative, per spec §4.5.
func evaluateLine(line *LogicalLine, ctx evalContext) error {
	if line.IsEmpty() || line.Kind == FragmentDirective {
		return nil
	}

	sites, err := extractParamSites(line.Content)
	if err != nil {
		return withLine(err, line.LineNumber)
	}
	line.Sites = sites
	if len(sites) == 0 {
		return nil
	}

	hasEscape := strings.Contains(strings.ToUpper(line.Content), "ESCAPE")

	// Process right-to-left so earlier byte offsets stay valid as later
	// spans are spliced.
	content := line.Content
	var binds []bindEntry
	for i := len(sites) - 1; i >= 0; i-- {
		site := sites[i]
		colText := ""
		if site.Operator == OpLike || site.Operator == OpNotLike {
			if site.ColStart >= 0 && site.ColEnd <= len(content) && site.ColStart <= site.ColEnd {
				colText = content[site.ColStart:site.ColEnd]
			}
		}
		replacement, siteBinds, remove, err := evaluateSite(&site, ctx, hasEscape, colText)
		if err != nil {
			return withLine(err, line.LineNumber)
		}
		if remove {
			line.Removed = true
		}

		replaceFrom := site.Start
		replaceTo := consumedEnd(site)
		if site.Operator != OpNone && site.Operator != OpInList {
			replaceFrom = site.ColEnd
		}
		if replaceFrom > len(content) || replaceTo > len(content) || replaceFrom > replaceTo {
			replaceFrom, replaceTo = site.Start, consumedEnd(site)
		}
		content = content[:replaceFrom] + replacement + content[replaceTo:]
		binds = append(siteBinds, binds...)
	}
	line.Content = content
	line.Binds = binds
	return nil
}

// consumedEnd is the byte offset one past everything the site's evaluation
// consumes: the comment itself plus any trailing operator/default text.
func consumedEnd(site ParamSite) int {
	if site.DefaultEnd > site.End {
		return site.DefaultEnd
	}
	return site.End
}

func withLine(err error, line int) error {
	if pe, ok := err.(*ParseError); ok && pe.Line == 0 {
		pe.Line = line
	}
	return err
}

// evaluateSite resolves one ParamSite's value and produces the text that
// replaces its span, the values it binds (in order), and whether its line
// must be removed.
func evaluateSite(site *ParamSite, ctx evalContext, hasEscape bool, colText string) (string, []bindEntry, bool, error) {
	switch site.Kind {
	case SiteAuxConcat:
		return evaluateConcat(site, ctx)
	case SiteAuxLike:
		return evaluateLike(site, ctx, hasEscape)
	case SiteAuxStr, SiteAuxSQL:
		return evaluateSplice(site, ctx)
	case SiteAuxInclude:
		return "", nil, false, newParseError(KindDirective, 0, site.Name, site.Name)
	default:
		return evaluateBind(site, ctx, colText)
	}
}

func evaluateBind(site *ParamSite, ctx evalContext, colText string) (string, []bindEntry, bool, error) {
	value, name, hasValue, err := resolveSiteValue(site, ctx.bindings)
	if err != nil {
		return "", nil, false, err
	}

	negative := IsNegative(value)
	if site.Modifiers.has(ModNegated) {
		negative = !negative
	}
	// An IN-context site never removes its line on an empty/negative list:
	// it survives as IN (NULL), per emitInList below.
	remove := (site.Modifiers.has(ModRemovable) || site.Modifiers.has(ModBindless)) && negative && site.Operator != OpInList

	if remove {
		return "", nil, true, nil
	}
	if site.Modifiers.has(ModBindless) {
		return "", nil, false, nil
	}
	if !hasValue {
		value = nil
	}

	switch site.Operator {
	case OpEqual, OpNotEqual:
		text, binds := emitComparison(site.Operator, value, name)
		return text, binds, false, nil
	case OpLike, OpNotLike:
		text, binds := emitLike(site.Operator, value, name, colText)
		return text, binds, false, nil
	case OpInList:
		lst, _ := asSlice(value)
		if !isListLike(value) {
			if value == nil {
				lst = nil
			} else {
				lst = []any{value}
			}
		}
		text, binds := emitInList(lst, name)
		return text, binds, false, nil
	default:
		return sentinel, []bindEntry{{Name: name, Value: value}}, false, nil
	}
}

func isListLike(v any) bool {
	_, ok := asSlice(v)
	return ok
}

func resolveSiteValue(site *ParamSite, bindings Bindings) (value any, name string, hasValue bool, err error) {
	switch {
	case site.Modifiers.has(ModFallback):
		for _, n := range site.Names {
			v := bindings.get(n)
			neg := IsNegative(v)
			if site.Modifiers.has(ModNegated) {
				neg = !neg
			}
			if !neg {
				return v, n, true, nil
			}
		}
		last := ""
		if len(site.Names) > 0 {
			last = site.Names[len(site.Names)-1]
		}
		return nil, last, false, nil
	case site.Modifiers.has(ModRequired):
		v := bindings.get(site.Name)
		neg := IsNegative(v)
		if site.Modifiers.has(ModNegated) {
			neg = !neg
		}
		if neg {
			return nil, site.Name, false, newParseError(KindRequired, 0, "", site.Name)
		}
		return v, site.Name, true, nil
	default:
		return bindings.get(site.Name), site.Name, true, nil
	}
}

func emitComparison(ctx OperatorContext, value any, name string) (string, []bindEntry) {
	if lst, ok := asSlice(value); ok {
		switch len(lst) {
		case 0:
			if ctx == OpEqual {
				return " IS NULL", nil
			}
			return " IS NOT NULL", nil
		case 1:
			op := "="
			if ctx == OpNotEqual {
				op = "<>"
			}
			return " " + op + " " + sentinel, []bindEntry{{Name: name, Value: lst[0]}}
		default:
			kw := "IN"
			if ctx == OpNotEqual {
				kw = "NOT IN"
			}
			parts := make([]string, len(lst))
			binds := make([]bindEntry, len(lst))
			for i, v := range lst {
				parts[i] = sentinel
				binds[i] = bindEntry{Name: name, Value: v}
			}
			return " " + kw + " (" + strings.Join(parts, ", ") + ")", binds
		}
	}

	if IsNegative(value) {
		if ctx == OpEqual {
			return " IS NULL", nil
		}
		return " IS NOT NULL", nil
	}
	op := "="
	if ctx == OpNotEqual {
		op = "<>"
	}
	return " " + op + " " + sentinel, []bindEntry{{Name: name, Value: value}}
}

func emitLike(ctx OperatorContext, value any, name string, col string) (string, []bindEntry) {
	kw := "LIKE"
	joinWord := " OR "
	if ctx == OpNotLike {
		kw = "NOT LIKE"
		joinWord = " AND "
	}

	lst, isList := asSlice(value)
	if !isList {
		if IsNegative(value) {
			if ctx == OpLike {
				return " IS NULL", nil
			}
			return " IS NOT NULL", nil
		}
		return " " + kw + " " + sentinel, []bindEntry{{Name: name, Value: value}}
	}
	if len(lst) == 0 {
		if ctx == OpLike {
			return " IS NULL", nil
		}
		return " IS NOT NULL", nil
	}

	var sb strings.Builder
	var binds []bindEntry
	for i, v := range lst {
		if i > 0 {
			sb.WriteString(joinWord)
			sb.WriteString(col)
		}
		sb.WriteString(" ")
		sb.WriteString(kw)
		sb.WriteString(" ")
		sb.WriteString(sentinel)
		binds = append(binds, bindEntry{Name: name, Value: v})
	}
	return sb.String(), binds
}

func emitInList(lst []any, name string) (string, []bindEntry) {
	if len(lst) == 0 {
		return "(NULL)", nil
	}
	parts := make([]string, len(lst))
	binds := make([]bindEntry, len(lst))
	for i, v := range lst {
		parts[i] = sentinel
		binds[i] = bindEntry{Name: name, Value: v}
	}
	return "(" + strings.Join(parts, ", ") + ")", binds
}

// evaluateConcat resolves a %concat/%C call into a single bound string
// value, per spec §4.5 step 6.
func evaluateConcat(site *ParamSite, ctx evalContext) (string, []bindEntry, bool, error) {
	s, err := concatArgs(site.Names, ctx.bindings)
	if err != nil {
		return "", nil, false, err
	}
	return sentinel, []bindEntry{{Name: "%concat", Value: s}}, false, nil
}

// evaluateLike resolves a %L call: concatenate its arguments, escaping only
// the resolved value of each bare (name) argument with '#' and leaving
// quoted-literal arguments (typically the '%' wildcards) untouched, per
// original_source's escape_utils.escape_like, then append "ESCAPE '#'"
// unless the line already carries one.
func evaluateLike(site *ParamSite, ctx evalContext, hasEscape bool) (string, []bindEntry, bool, error) {
	escaped := concatArgsEscapingNames(site.Names, ctx.bindings, ctx.dialect.LikeEscapeChars())
	text := sentinel
	if !hasEscape {
		text += " ESCAPE '#'"
	}
	return text, []bindEntry{{Name: "%L", Value: escaped}}, false, nil
}

func escapeLike(s string, chars []rune) string {
	set := make(map[rune]bool, len(chars))
	for _, c := range chars {
		set[c] = true
	}
	var sb strings.Builder
	for _, r := range s {
		if set[r] {
			sb.WriteRune('#')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// concatArgs resolves a %concat/%C/%L argument list: a quoted token is a
// literal, a bare token is a binding name.
func concatArgs(args []string, bindings Bindings) (string, error) {
	var sb strings.Builder
	for _, a := range args {
		if len(a) >= 2 && (a[0] == '\'' || a[0] == '"') && a[len(a)-1] == a[0] {
			sb.WriteString(unquoteLiteral(a))
			continue
		}
		v := bindings.get(a)
		if v != nil {
			sb.WriteString(fmt.Sprint(v))
		}
	}
	return sb.String(), nil
}

// concatArgsEscapingNames is concatArgs's %L variant: a quoted token is
// emitted verbatim (the caller's literal wildcards), a bare token is
// resolved against bindings and LIKE-escaped before being appended.
func concatArgsEscapingNames(args []string, bindings Bindings, escapeChars []rune) string {
	var sb strings.Builder
	for _, a := range args {
		if len(a) >= 2 && (a[0] == '\'' || a[0] == '"') && a[len(a)-1] == a[0] {
			sb.WriteString(unquoteLiteral(a))
			continue
		}
		v := bindings.get(a)
		if v != nil {
			sb.WriteString(escapeLike(fmt.Sprint(v), escapeChars))
		}
	}
	return sb.String()
}

func unquoteLiteral(s string) string {
	q := s[0]
	inner := s[1 : len(s)-1]
	return strings.ReplaceAll(inner, string(q)+string(q), string(q))
}

// evaluateSplice resolves a %STR/%SQL call: the value is spliced into the
// SQL verbatim, with no placeholder and no escaping.
func evaluateSplice(site *ParamSite, ctx evalContext) (string, []bindEntry, bool, error) {
	if len(site.Names) == 0 {
		return "", nil, false, newParseError(KindDirective, 0, "", "")
	}
	v := ctx.bindings.get(site.Names[0])
	text := fmt.Sprint(v)
	if ctx.diags != nil {
		*ctx.diags = append(*ctx.diags, fmt.Sprintf("unescaped splice of %q -> %q", site.Names[0], text))
	}
	return text, nil, false, nil
}
