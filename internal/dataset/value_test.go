package dataset

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueString(t *testing.T) {
	tests := []struct {
		in   Value
		want string
	}{
		{Null(), ""},
		{Str("  hi "), "  hi "},
		{Num(1), "1"},
		{Num(-42), "-42"},
		{Num(1.5), "1.5"},
		{Num(1e21), "1e+21"},
		{Num(45292), "45292"},
		{Bool(true), "true"},
		{Bool(false), "false"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.in.String(), "String() of %#v", tt.in)
	}
}

func TestValueEqual(t *testing.T) {
	assert.True(t, Num(1).Equal(Num(1)))
	assert.False(t, Num(1).Equal(Str("1")), "kinds differ")
	assert.True(t, Null().Equal(Value{}))
	assert.False(t, Bool(true).Equal(Bool(false)))
}

func TestValueJSON(t *testing.T) {
	row := map[string]Value{
		"a": Str("x"),
		"b": Num(3),
		"c": Bool(false),
		"d": Null(),
	}

	data, err := json.Marshal(row)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"x","b":3,"c":false,"d":null}`, string(data))

	var back map[string]Value
	require.NoError(t, json.Unmarshal(data, &back))
	for k, v := range row {
		assert.True(t, v.Equal(back[k]), "key %s: got %#v, want %#v", k, back[k], v)
	}
}

func TestValueUnmarshal_RejectsNested(t *testing.T) {
	var v Value
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &v))
	assert.Error(t, json.Unmarshal([]byte(`{"a":1}`), &v))
}

func TestNew_FillsMissingCells(t *testing.T) {
	ds := New([]string{"A", "B"}, []Row{{"A": Num(1)}})

	require.NoError(t, ds.Validate())
	assert.Equal(t, "", ds.Cell(0, "B").String())
	assert.Equal(t, KindString, ds.Cell(0, "B").Kind())
}

func TestValidate(t *testing.T) {
	ok := Dataset{Headers: []string{"A"}, Rows: []Row{{"A": Str("x")}}}
	assert.NoError(t, ok.Validate())

	dup := Dataset{Headers: []string{"A", "A"}}
	assert.ErrorIs(t, dup.Validate(), ErrInvalidDataset)

	missing := Dataset{Headers: []string{"A", "B"}, Rows: []Row{{"A": Str("x"), "C": Str("y")}}}
	assert.ErrorIs(t, missing.Validate(), ErrInvalidDataset)
}
