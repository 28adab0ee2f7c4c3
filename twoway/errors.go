package twoway

import (
	"errors"
	"fmt"
)

// Kind enumerates the ParseError kinds of spec §7.
type Kind int

const (
	KindUnterminated Kind = iota
	KindModifier
	KindRequired
	KindDirective
	KindDialect
	KindIncludeCycle
	KindSqlFileNotFound
)

func (k Kind) String() string {
	switch k {
	case KindUnterminated:
		return "Unterminated"
	case KindModifier:
		return "Modifier"
	case KindRequired:
		return "Required"
	case KindDirective:
		return "Directive"
	case KindDialect:
		return "Dialect"
	case KindIncludeCycle:
		return "IncludeCycle"
	case KindSqlFileNotFound:
		return "SqlFileNotFound"
	default:
		return "Unknown"
	}
}

// Sentinel errors, one per Kind, so callers can errors.Is against a stable
// value in addition to switching on Kind.
var (
	ErrUnterminated    = errors.New("unterminated string or block comment")
	ErrModifier        = errors.New("illegal parameter modifier combination")
	ErrRequired        = errors.New("required parameter missing or negative")
	ErrDirective       = errors.New("unbalanced or unknown directive")
	ErrDialect         = errors.New("could not resolve column expression for IN-list split")
	ErrIncludeCycle    = errors.New("include cycle detected")
	ErrSqlFileNotFound = errors.New("sql file not found")
)

func sentinelFor(k Kind) error {
	switch k {
	case KindUnterminated:
		return ErrUnterminated
	case KindModifier:
		return ErrModifier
	case KindRequired:
		return ErrRequired
	case KindDirective:
		return ErrDirective
	case KindDialect:
		return ErrDialect
	case KindIncludeCycle:
		return ErrIncludeCycle
	case KindSqlFileNotFound:
		return ErrSqlFileNotFound
	default:
		return errors.New("parse error")
	}
}

// ParseError is the single error type the engine returns, per spec §7.
type ParseError struct {
	Kind    Kind
	Line    int
	Snippet string
	Name    string
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("%s: line=%d", e.Kind, e.Line)
	if e.Name != "" {
		msg = fmt.Sprintf("%s param=%q", msg, e.Name)
	}
	if e.Snippet != "" {
		msg = fmt.Sprintf("%s sql=%q", msg, e.Snippet)
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return sentinelFor(e.Kind)
}

func newParseError(kind Kind, line int, snippet string, name string) *ParseError {
	return &ParseError{Kind: kind, Line: line, Snippet: snippet, Name: name}
}

// NewSqlFileNotFoundError builds the ParseError a loader collaborator
// returns for an unresolvable template path, per spec §6.
func NewSqlFileNotFoundError(path string) *ParseError {
	return newParseError(KindSqlFileNotFound, 0, "", path)
}
