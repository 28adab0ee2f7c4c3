package dialect

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestNew_SQLiteDefaults(t *testing.T) {
	d := New(SQLite)
	assert.Equal(t, PlaceholderQuestion, d.Placeholder())
	assert.Equal(t, 0, d.InClauseLimit())
	assert.False(t, d.BackslashIsEscape())
}

func TestNew_PostgreSQLUsesPercentS(t *testing.T) {
	d := New(PostgreSQL)
	assert.Equal(t, PlaceholderPercentS, d.Placeholder())
	assert.True(t, d.BackslashIsEscape())
}

func TestNew_MySQLUsesQuestionPlaceholder(t *testing.T) {
	d := New(MySQL)
	assert.Equal(t, PlaceholderQuestion, d.Placeholder())
}

func TestNew_OracleUsesNamedPlaceholderWithLimit(t *testing.T) {
	d := New(Oracle)
	assert.Equal(t, PlaceholderNamed, d.Placeholder())
	assert.Equal(t, 1000, d.InClauseLimit())
	assert.Equal(t, []rune{'#', '%', '_', '％', '＿'}, d.LikeEscapeChars())
}

func TestNew_UnknownIDFallsBackToSQLite(t *testing.T) {
	d := New(ID("unknown"))
	assert.Equal(t, SQLite, d.ID())
}

func TestParseID_RoundTripsKnownIDs(t *testing.T) {
	for _, id := range []ID{SQLite, PostgreSQL, MySQL, Oracle} {
		assert.Equal(t, id, ParseID(string(id)).ID())
	}
}

func TestParseID_UnknownStringFallsBackToDefault(t *testing.T) {
	assert.Equal(t, Default.ID(), ParseID("not-a-dialect").ID())
}
