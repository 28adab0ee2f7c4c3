package twoway

// FragmentKind tags what a LogicalLine structurally is, per spec §3.
type FragmentKind int

const (
	FragmentNormal FragmentKind = iota
	FragmentSeparatorOnly
	FragmentDirective
	FragmentCTEHeader
	FragmentBlank
)

// Modifier is a bitmask over the parameter-comment modifier alphabet
// {$, &, @, ?, !}, per spec §3 and §4.5.
type Modifier uint8

const (
	ModNone     Modifier = 0
	ModRemovable Modifier = 1 << iota
	ModBindless
	ModRequired
	ModFallback
	ModNegated
)

func (m Modifier) has(flag Modifier) bool { return m&flag != 0 }

// OperatorContext captures the token adjacent to a ParamSite that changes how
// it expands, per spec §4.5 step 4/5.
type OperatorContext int

const (
	OpNone OperatorContext = iota
	OpEqual
	OpNotEqual
	OpLike
	OpNotLike
	OpInList // site is the default list inside an explicit IN ( ... )
)

// ParamSiteKind distinguishes a plain bind from an auxiliary function call or
// an inline directive condition, per spec §3.
type ParamSiteKind int

const (
	SiteBind ParamSiteKind = iota
	SiteAuxConcat
	SiteAuxLike
	SiteAuxStr
	SiteAuxSQL
	SiteAuxInclude
)

// ParamSite is a single parameter or auxiliary occurrence inside a line, per
// spec §3.
type ParamSite struct {
	Start, End int // byte range of the /* ... */ comment within Line.Content (DefaultEnd covers what follows)
	Kind       ParamSiteKind
	Modifiers  Modifier
	Name       string
	Names      []string // fallback chain (?a ?b ?c) or %concat/%L argument list
	Operator   OperatorContext
	ColStart   int // start offset of the column expression, for operator-context rewriting
	ColEnd     int

	Default    string // raw literal text following the comment, for standalone-SQL execution
	DefaultEnd int    // absolute offset one past everything consumed after the comment (operator + Default)
}

// LogicalLine is one line unit of the template after assembly, the atom of
// removal, per spec §3.
type LogicalLine struct {
	LineNumber int
	Original   string // raw source text for this unit, newline-joined if multi-physical-line
	Indent     int    // -1 for a blank/empty line
	Content    string // Original with leading indentation stripped
	Kind       FragmentKind

	Parent   *LogicalLine
	Children []*LogicalLine

	Removed bool
	Sites   []ParamSite
	Binds   []bindEntry
}

// IsEmpty reports whether this line carries no content and so never holds
// ParamSites or participates in removal propagation's "own a surviving
// site" test, per spec §3.
func (l *LogicalLine) IsEmpty() bool {
	return l.Indent < 0 || trimSpace(l.Content) == ""
}

func trimSpace(s string) string {
	i, j := 0, len(s)
	for i < j && isSpaceByte(s[i]) {
		i++
	}
	for j > i && isSpaceByte(s[j-1]) {
		j--
	}
	return s[i:j]
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}
