package mapper

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type plainUser struct {
	ID   int64
	Name string
}

func TestMapRow_FieldNameVerbatim(t *testing.T) {
	row := map[string]any{"ID": int64(7), "Name": "Ada"}
	u, err := MapRow[plainUser](row)
	require.NoError(t, err)
	require.Equal(t, plainUser{ID: 7, Name: "Ada"}, u)
}

type taggedUser struct {
	ID        int64  `sqlyway:"user_id"`
	FullName  string `sqlyway:"full_name"`
	Unmapped  string `sqlyway:"-"`
}

func TestMapRow_StructTagTakesPrecedence(t *testing.T) {
	row := map[string]any{"user_id": int64(1), "full_name": "Grace Hopper", "Unmapped": "ignored"}
	u, err := MapRow[taggedUser](row)
	require.NoError(t, err)
	require.Equal(t, int64(1), u.ID)
	require.Equal(t, "Grace Hopper", u.FullName)
	require.Equal(t, "", u.Unmapped)
}

type snakeUser struct {
	UserID   int64
	FullName string
}

func TestMapRow_SnakeToCamelNaming(t *testing.T) {
	row := map[string]any{"user_id": int64(3), "full_name": "Margaret Hamilton"}
	u, err := MapRow[snakeUser](row, WithNaming(SnakeToCamel))
	require.NoError(t, err)
	require.Equal(t, snakeUser{UserID: 3, FullName: "Margaret Hamilton"}, u)
}

type mappedUser struct {
	Identifier string
}

func TestMapRow_ExplicitColumnMap(t *testing.T) {
	id := uuid.New().String()
	row := map[string]any{"uid": id}
	u, err := MapRow[mappedUser](row, WithColumnMap(map[string]string{"Identifier": "uid"}))
	require.NoError(t, err)
	require.Equal(t, id, u.Identifier)
}

type priced struct {
	Amount decimal.Decimal
}

func TestMapRow_DecimalColumnFromString(t *testing.T) {
	row := map[string]any{"Amount": "19.99"}
	p, err := MapRow[priced](row)
	require.NoError(t, err)
	require.True(t, p.Amount.Equal(decimal.RequireFromString("19.99")))
}

func TestMapRow_DecimalColumnFromFloat(t *testing.T) {
	row := map[string]any{"Amount": 19.5}
	p, err := MapRow[priced](row)
	require.NoError(t, err)
	require.True(t, p.Amount.Equal(decimal.NewFromFloat(19.5)))
}

type withOptionalField struct {
	Nickname *string
}

func TestMapRow_PointerFieldLeftNilWhenColumnMissing(t *testing.T) {
	u, err := MapRow[withOptionalField](map[string]any{})
	require.NoError(t, err)
	require.Nil(t, u.Nickname)
}

func TestMapRows_PreservesOrder(t *testing.T) {
	rows := []map[string]any{
		{"ID": int64(1), "Name": "a"},
		{"ID": int64(2), "Name": "b"},
	}
	users, err := MapRows[plainUser](rows)
	require.NoError(t, err)
	require.Len(t, users, 2)
	require.Equal(t, int64(1), users[0].ID)
	require.Equal(t, int64(2), users[1].ID)
}
