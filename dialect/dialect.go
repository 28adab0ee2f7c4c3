// Package dialect describes the RDBMS-specific knobs the two-way SQL engine
// needs: placeholder syntax, IN-list split threshold, LIKE escape set, and
// whether backslash acts as a string-literal escape.
package dialect

// ID is a stable dialect identifier, per spec §6.
type ID string

const (
	SQLite     ID = "sqlite"
	PostgreSQL ID = "postgresql"
	MySQL      ID = "mysql"
	Oracle     ID = "oracle"
)

// Placeholder is the wire form the dialect binder emits for a bound value.
type Placeholder string

const (
	// PlaceholderQuestion emits "?" for every bound value, positional.
	PlaceholderQuestion Placeholder = "?"
	// PlaceholderPercentS emits "%s" for every bound value, positional.
	PlaceholderPercentS Placeholder = "%s"
	// PlaceholderNamed emits ":NAME_INDEX" per value, named.
	PlaceholderNamed Placeholder = ":name"
)

// Dialect is the value object of spec §3: placeholder style, IN-list limit,
// LIKE escape set, and string-literal escaping rules.
type Dialect struct {
	id                ID
	placeholder       Placeholder
	inClauseLimit     int // 0 means unlimited
	likeEscapeChars   []rune
	backslashIsEscape bool
}

// ID returns the dialect's stable identifier.
func (d Dialect) ID() ID { return d.id }

// Placeholder returns the wire placeholder style for this dialect.
func (d Dialect) Placeholder() Placeholder { return d.placeholder }

// InClauseLimit returns the maximum number of elements permitted in a single
// IN (...) list, or 0 if the dialect imposes no limit.
func (d Dialect) InClauseLimit() int { return d.inClauseLimit }

// LikeEscapeChars returns the set of characters that must be escaped before
// being used as the operand of a LIKE/NOT LIKE comparison.
func (d Dialect) LikeEscapeChars() []rune { return d.likeEscapeChars }

// BackslashIsEscape reports whether a backslash introduces an escape sequence
// inside a string literal for this dialect.
func (d Dialect) BackslashIsEscape() bool { return d.backslashIsEscape }

var (
	sqliteLike     = []rune{'#', '%', '_'}
	oracleLike     = []rune{'#', '%', '_', '％', '＿'}
	standardLikeFn = func() []rune { return append([]rune(nil), sqliteLike...) }
)

// New builds a Dialect by its stable identifier, defaulting to SQLite's rules
// for an unrecognized id (no placeholder limit, '?' placeholder).
func New(id ID) Dialect {
	switch id {
	case PostgreSQL:
		return Dialect{id: PostgreSQL, placeholder: PlaceholderPercentS, likeEscapeChars: standardLikeFn(), backslashIsEscape: true}
	case MySQL:
		return Dialect{id: MySQL, placeholder: PlaceholderQuestion, likeEscapeChars: standardLikeFn(), backslashIsEscape: true}
	case Oracle:
		return Dialect{id: Oracle, placeholder: PlaceholderNamed, inClauseLimit: 1000, likeEscapeChars: oracleLike, backslashIsEscape: false}
	default:
		return Dialect{id: SQLite, placeholder: PlaceholderQuestion, likeEscapeChars: standardLikeFn(), backslashIsEscape: false}
	}
}

// Default is the engine's default dialect when none is configured.
var Default = New(SQLite)

// ParseID maps a stable string (as read from config) to a Dialect, falling
// back to Default when the string is unrecognized.
func ParseID(s string) Dialect {
	switch ID(s) {
	case PostgreSQL, MySQL, Oracle, SQLite:
		return New(ID(s))
	default:
		return Default
	}
}
