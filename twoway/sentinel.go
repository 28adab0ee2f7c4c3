package twoway

// sentinel is the internal placeholder marker the rewriter emits in place of
// a bound value. It is never a byte that can occur in SQL source text, so
// the dialect binder can scan for it unambiguously, per spec §4.8 and the
// design note that keeps placeholder emission dialect-agnostic until bind
// time.
const sentinel = "\x00"

// bindEntry is one resolved value in left-to-right, top-to-bottom order,
// carrying the originating parameter name for the `:name` dialect.
type bindEntry struct {
	Name  string
	Value any
}
