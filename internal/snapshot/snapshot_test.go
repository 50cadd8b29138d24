package snapshot

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_KeepsNumbersExact(t *testing.T) {
	snap, err := Parse([]byte(`{
		"settings": {"devt": 1700000123, "loc": "Boston"},
		"options": {"fwv": 219},
		"junk": [1, 2, 3]
	}`))
	require.NoError(t, err)

	v, ok := snap.Lookup("settings", "devt")
	require.True(t, ok)
	assert.Equal(t, json.Number("1700000123"), v)

	v, ok = snap.Lookup("settings", "loc")
	require.True(t, ok)
	assert.Equal(t, "Boston", v)

	_, ok = snap.Lookup("junk", "anything")
	assert.False(t, ok, "non-object sections are dropped")

	_, ok = snap.Lookup("status", "sn")
	assert.False(t, ok)
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse([]byte(`{"settings": `))
	assert.Error(t, err)

	_, err = Parse([]byte(`{"settings": {"en": }}`))
	assert.Error(t, err)
}

func TestInt(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    int
		wantErr bool
	}{
		{"json int", json.Number("42"), 42, false},
		{"json integral float", json.Number("3.0"), 3, false},
		{"json fraction", json.Number("3.5"), 0, true},
		{"float64", 7.0, 7, false},
		{"int", 9, 9, false},
		{"string", "9", 0, true},
		{"bool", true, 0, true},
		{"nil", nil, 0, true},
		{"array", []any{}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Int(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBool(t *testing.T) {
	assert.True(t, Bool(json.Number("1")))
	assert.False(t, Bool(json.Number("0")))
	assert.True(t, Bool(true))
	assert.False(t, Bool(nil))
	assert.False(t, Bool(""))
	assert.True(t, Bool("x"))
	assert.False(t, Bool([]any{}))
	assert.True(t, Bool(map[string]any{"a": 1}))
}

func TestIntsAndStrings(t *testing.T) {
	ints, err := Ints([]any{json.Number("1"), json.Number("0"), 2.0})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0, 2}, ints)

	_, err = Ints([]any{json.Number("1"), "two"})
	assert.ErrorContains(t, err, "element 1")

	_, err = Ints("nope")
	assert.Error(t, err)

	names, err := Strings([]any{"Front", "Back"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Front", "Back"}, names)

	_, err = Strings([]any{"Front", json.Number("2")})
	assert.Error(t, err)
}
