package document

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_PreservesKeyOrder(t *testing.T) {
	t.Parallel()
	v, err := Parse([]byte(`{"zeta":1,"alpha":{"y":true,"x":null},"mid":[1,"two"]}`))
	require.NoError(t, err)

	m, ok := v.AsMapping()
	require.True(t, ok)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, m.Keys())

	alpha, _ := m.Get("alpha")
	inner, ok := alpha.AsMapping()
	require.True(t, ok)
	assert.Equal(t, []string{"y", "x"}, inner.Keys())

	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"zeta":1,"alpha":{"y":true,"x":null},"mid":[1,"two"]}`, string(out))
	assert.Equal(t, `{"zeta":1,"alpha":{"y":true,"x":null},"mid":[1,"two"]}`, string(out))
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()
	for _, in := range []string{``, `{`, `[1,]`, `{"a":1} {"b":2}`, `nope`} {
		_, err := Parse([]byte(in))
		assert.Error(t, err, "input %q", in)
	}
}

func TestEqual(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{name: "same scalar", a: `"x"`, b: `"x"`, want: true},
		{name: "string vs number", a: `"1"`, b: `1`, want: false},
		{name: "int vs float", a: `1`, b: `1.0`, want: false},
		{name: "float spellings", a: `1.50`, b: `1.5`, want: true},
		{name: "exponent float", a: `1e2`, b: `100.0`, want: true},
		{name: "null vs false", a: `null`, b: `false`, want: false},
		{name: "key order ignored", a: `{"a":1,"b":2}`, b: `{"b":2,"a":1}`, want: true},
		{name: "missing key", a: `{"a":1}`, b: `{"a":1,"b":2}`, want: false},
		{name: "sequence order matters", a: `[1,2]`, b: `[2,1]`, want: false},
		{name: "nested", a: `{"a":[{"b":null}]}`, b: `{"a":[{"b":null}]}`, want: true},
		{name: "mapping vs sequence", a: `{}`, b: `[]`, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Equal(MustParse(tt.a), MustParse(tt.b)))
		})
	}
}

func TestDeepCopy_Isolated(t *testing.T) {
	t.Parallel()
	orig := MustParse(`{"a":{"b":[1,{"c":"d"}]}}`)
	cp := orig.DeepCopy()
	require.True(t, Equal(orig, cp))

	m, _ := cp.AsMapping()
	a, _ := m.Get("a")
	am, _ := a.AsMapping()
	am.Set("new", String("x"))
	b, _ := am.Get("b")
	items, _ := b.AsSequence()
	inner, _ := items[1].AsMapping()
	inner.Delete("c")

	assert.JSONEq(t, `{"a":{"b":[1,{"c":"d"}]}}`, mustJSON(t, orig))
	assert.False(t, Equal(orig, cp))
}

func TestMapping_SetKeepsPosition(t *testing.T) {
	t.Parallel()
	m := NewMapping().Set("a", Int(1)).Set("b", Int(2)).Set("a", Int(3))
	assert.Equal(t, []string{"a", "b"}, m.Keys())
	v, _ := m.Get("a")
	assert.True(t, Equal(Int(3), v))

	assert.True(t, m.Delete("a"))
	assert.False(t, m.Delete("a"))
	assert.Equal(t, []string{"b"}, m.Keys())
}

func TestText(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "", Null().Text())
	assert.Equal(t, "true", Bool(true).Text())
	assert.Equal(t, "42", Int(42).Text())
	assert.Equal(t, "2.5", Float(2.5).Text())
	assert.Equal(t, "1.0", Float(1).Text())
	assert.Equal(t, "plain", String("plain").Text())
	assert.Equal(t, `{"k":[1]}`, MustParse(`{"k":[1]}`).Text())
}

func TestUnmarshalJSON_AsField(t *testing.T) {
	t.Parallel()
	var body struct {
		Expected Value `json:"expected"`
		Missing  Value `json:"missing"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"expected":[{"y":1,"x":2}]}`), &body))

	items, ok := body.Expected.AsSequence()
	require.True(t, ok)
	require.Len(t, items, 1)
	m, _ := items[0].AsMapping()
	assert.Equal(t, []string{"y", "x"}, m.Keys())
	assert.True(t, body.Missing.IsNull())
}

func mustJSON(t *testing.T, v Value) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}
