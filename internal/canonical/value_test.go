package canonical

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseJSONPreservesNestedKeyOrder(t *testing.T) {
	v, err := ParseJSON([]byte(`{"z":1,"a":{"second":2,"first":1},"m":[1,{"y":2,"x":1}]}`))
	require.NoError(t, err)

	obj, ok := v.(*Object)
	require.True(t, ok)
	require.Equal(t, []string{"z", "a", "m"}, keysOf(obj))

	nested, ok := obj.Get("a")
	require.True(t, ok)
	nestedObj, ok := nested.(*Object)
	require.True(t, ok)
	require.Equal(t, []string{"second", "first"}, keysOf(nestedObj))
}

func keysOf(o *Object) []string {
	var out []string
	for _, p := range o.Pairs() {
		out = append(out, p.Key)
	}
	return out
}

func TestMarshalObjectDoesNotResort(t *testing.T) {
	obj := NewObject([]Pair{{Key: "b", Value: "2"}, {Key: "a", Value: "1"}})
	data, err := Marshal(obj)
	require.NoError(t, err)
	require.Equal(t, `{"b":"2","a":"1"}`, string(data))
}

func TestMarshalPlainMapSortsKeys(t *testing.T) {
	data, err := Marshal(map[string]interface{}{"b": 2, "a": 1})
	require.NoError(t, err)
	require.Equal(t, `{"a":1,"b":2}`, string(data))
}

func TestMarshalRoundTripsParsedNumbers(t *testing.T) {
	v, err := ParseJSON([]byte(`{"n":1.50}`))
	require.NoError(t, err)
	data, err := Marshal(v)
	require.NoError(t, err)
	require.Equal(t, `{"n":1.50}`, string(data))
}

func TestMarshalStringEscaping(t *testing.T) {
	data, err := Marshal(map[string]interface{}{"s": "a\"b\\c\nd"})
	require.NoError(t, err)
	require.Equal(t, `{"s":"a\"b\\c\nd"}`, string(data))
}

func TestIsEmpty(t *testing.T) {
	cases := []struct {
		name string
		v    interface{}
		want bool
	}{
		{"nil", nil, true},
		{"empty string", "", true},
		{"non-empty string", "x", false},
		{"empty slice", []interface{}{}, true},
		{"non-empty slice", []interface{}{1}, false},
		{"empty object", NewObject(nil), true},
		{"non-empty object", NewObject([]Pair{{Key: "a", Value: 1}}), false},
		{"zero int", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, IsEmpty(tc.v))
		})
	}
}
