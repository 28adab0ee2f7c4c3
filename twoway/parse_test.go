package twoway

import (
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/shibukawa/sqlyway/dialect"
)

func TestParse_RemovedNegativeParam(t *testing.T) {
	sql := "SELECT * FROM t\nWHERE a = /* $a */1\nAND b = /* $b */2"
	res, err := Parse(sql, Bindings{"a": 10, "b": nil}, Options{})
	assert.NoError(t, err)
	assert.Equal(t, "SELECT * FROM t\nWHERE a = ?", res.SQL)
	assert.Equal(t, []any{10}, res.Params)
}

func TestParse_ListExpandsToInClause(t *testing.T) {
	sql := "WHERE id IN /* $ids */(1,2,3)"
	res, err := Parse(sql, Bindings{"ids": []any{7, 8}}, Options{Dialect: dialect.New(dialect.PostgreSQL)})
	assert.NoError(t, err)
	assert.Equal(t, "WHERE id IN (%s, %s)", res.SQL)
	assert.Equal(t, []any{7, 8}, res.Params)
}

func TestParse_EmptyListBindsNullLiteral(t *testing.T) {
	sql := "WHERE id IN /* $ids */(1,2,3)"
	res, err := Parse(sql, Bindings{"ids": []any{}}, Options{})
	assert.NoError(t, err)
	assert.Equal(t, "WHERE id IN (NULL)", res.SQL)
	assert.Equal(t, 0, len(res.Params))
}

func TestParse_OperatorAfterCommentRewritesToInOrIsNull(t *testing.T) {
	sql := "FIELD1 /* p */= 100"

	res, err := Parse(sql, Bindings{"p": []any{5, 6, 7}}, Options{})
	assert.NoError(t, err)
	assert.Equal(t, "FIELD1 IN (?, ?, ?)", res.SQL)
	assert.Equal(t, []any{5, 6, 7}, res.Params)

	res, err = Parse(sql, Bindings{"p": nil}, Options{})
	assert.NoError(t, err)
	assert.Equal(t, "FIELD1 IS NULL", res.SQL)
	assert.Equal(t, 0, len(res.Params))
}

func TestParse_TrailingAndStrippedAfterRemoval(t *testing.T) {
	sql := "WHERE x >= /* $a */1\nAND x <= /* $b */2"
	res, err := Parse(sql, Bindings{"a": 10, "b": nil}, Options{})
	assert.NoError(t, err)
	assert.Equal(t, "WHERE x >= ?", res.SQL)
	assert.Equal(t, []any{10}, res.Params)
}

func TestParse_EmptyParensCollapsed(t *testing.T) {
	sql := "WHERE a = /* $a */1\nAND (\n    s = /* $s1 */'p'\n    OR s = /* $s2 */'q'\n)"
	res, err := Parse(sql, Bindings{"a": 1, "s1": nil, "s2": nil}, Options{})
	assert.NoError(t, err)
	assert.Equal(t, "WHERE a = ?", res.SQL)
	assert.Equal(t, []any{1}, res.Params)
}

func TestParse_OracleInListSplitsAtLimit(t *testing.T) {
	ids := make([]any, 1500)
	for i := range ids {
		ids[i] = i
	}
	sql := "SELECT * FROM t WHERE id IN /* $ids */(1)"
	res, err := Parse(sql, Bindings{"ids": ids}, Options{Dialect: dialect.New(dialect.Oracle)})
	assert.NoError(t, err)
	assert.Equal(t, 1500, len(res.NamedParams))
	assert.True(t, len(res.Params) == 1500)
}

func TestParse_LikeEscapesAndAppendsEscapeClause(t *testing.T) {
	sql := "WHERE name LIKE /*%L '%' k '%' */'%x%'"
	res, err := Parse(sql, Bindings{"k": "10%病気"}, Options{})
	assert.NoError(t, err)
	assert.Equal(t, "%10#%病気%", res.Params[0])
	assert.True(t, containsSubstring(res.SQL, "ESCAPE '#'"))
}

func TestParse_RequiredMissingParamErrors(t *testing.T) {
	sql := "WHERE a = /* @a */1"
	_, err := Parse(sql, Bindings{}, Options{})
	assert.Error(t, err)
	assert.True(t, errorHasKind(err, KindRequired))
}

func TestParse_FallbackChainTakesFirstPositive(t *testing.T) {
	sql := "WHERE a = /* ?x ?y */1"
	res, err := Parse(sql, Bindings{"x": nil, "y": 42}, Options{})
	assert.NoError(t, err)
	assert.Equal(t, []any{42}, res.Params)
}

func TestParse_NoPrefixBindsNullWithoutRemoval(t *testing.T) {
	sql := "WHERE a = /* a */1"
	res, err := Parse(sql, Bindings{}, Options{})
	assert.NoError(t, err)
	assert.Equal(t, "WHERE a = ?", res.SQL)
	assert.Equal(t, []any{nil}, res.Params)
}

func TestParse_InlineDirectiveSelectsBranch(t *testing.T) {
	sql := "SELECT /*%if verbose*/a, b, c/*%else*/a/*%end*/ FROM t"
	res, err := Parse(sql, Bindings{"verbose": true}, Options{})
	assert.NoError(t, err)
	assert.Equal(t, "SELECT a, b, c FROM t", res.SQL)

	res, err = Parse(sql, Bindings{"verbose": false}, Options{})
	assert.NoError(t, err)
	assert.Equal(t, "SELECT a FROM t", res.SQL)
}

func TestParse_BlockDirectiveStrikesUnselectedBranch(t *testing.T) {
	sql := "SELECT * FROM t\nWHERE 1 = 1\n-- %IF extra\nAND x = /* $x */1\n-- %END\n"
	res, err := Parse(sql, Bindings{"extra": false, "x": 5}, Options{})
	assert.NoError(t, err)
	assert.True(t, !containsSubstring(res.SQL, "x ="))

	res, err = Parse(sql, Bindings{"extra": true, "x": 5}, Options{})
	assert.NoError(t, err)
	assert.True(t, containsSubstring(res.SQL, "AND x = ?"))
}

func containsSubstring(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}

func errorHasKind(err error, k Kind) bool {
	pe, ok := err.(*ParseError)
	return ok && pe.Kind == k
}
