package encoding

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeMapKeyOrderInvariance(t *testing.T) {
	a := Map(map[string]Value{"b": Int(2), "a": Int(1)})
	b := Map(map[string]Value{"a": Int(1), "b": Int(2)})

	encA, err := Encode(a)
	require.NoError(t, err)
	encB, err := Encode(b)
	require.NoError(t, err)

	assert.Equal(t, string(encA), string(encB))
	assert.Equal(t, `{"a":1,"b":2}`, string(encA))
}

func TestEncodeSetSortsMembers(t *testing.T) {
	s1 := Set(String("z"), String("a"), String("m"))
	s2 := Set(String("m"), String("z"), String("a"))

	enc1, err := Encode(s1)
	require.NoError(t, err)
	enc2, err := Encode(s2)
	require.NoError(t, err)
	assert.Equal(t, string(enc1), string(enc2))
}

func TestEncodeSeqPreservesOrder(t *testing.T) {
	enc, err := Encode(Seq(Int(3), Int(1), Int(2)))
	require.NoError(t, err)
	assert.Equal(t, "[3,1,2]", string(enc))
}

func TestEncodeRealRoundsToFixedPrecision(t *testing.T) {
	enc, err := Encode(Real(1.0 / 3.0))
	require.NoError(t, err)
	assert.Equal(t, "0.3333333333", string(enc))
}

func TestEncodeComplexTaggedForm(t *testing.T) {
	enc, err := Encode(Complex(1.23, 4.56))
	require.NoError(t, err)
	assert.Equal(t, `{"im":4.5600000000,"re":1.2300000000}`, string(enc))

	// stable across runs
	enc2, err := Encode(Complex(1.23, 4.56))
	require.NoError(t, err)
	assert.Equal(t, string(enc), string(enc2))
}

func TestEncodeRejectsNaNAndInf(t *testing.T) {
	_, err := Encode(Real(math.NaN()))
	assert.Error(t, err)

	_, err = Encode(Real(math.Inf(1)))
	assert.Error(t, err)

	_, err = Encode(Complex(math.Inf(-1), 0))
	assert.Error(t, err)
}

func TestEncodeNestedStructuresReorderInvariant(t *testing.T) {
	build := func(order []string) Value {
		m := map[string]Value{}
		for _, k := range order {
			switch k {
			case "name":
				m["name"] = String("L1")
			case "nodes":
				m["nodes"] = Seq(String("A"), String("B"))
			case "tags":
				m["tags"] = Set(String("mv"), String("line"))
			}
		}
		return Map(m)
	}

	v1 := build([]string{"name", "nodes", "tags"})
	v2 := build([]string{"tags", "name", "nodes"})

	enc1, err := Encode(v1)
	require.NoError(t, err)
	enc2, err := Encode(v2)
	require.NoError(t, err)
	assert.Equal(t, string(enc1), string(enc2))
}

func TestContentHashDeterministic(t *testing.T) {
	v := Map(map[string]Value{"a": Int(1), "b": String("x")})
	h1, err := ContentHash(v)
	require.NoError(t, err)
	h2, err := ContentHash(v)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
}

func TestContentHashPropagatesEncodeError(t *testing.T) {
	_, err := ContentHash(Real(math.NaN()))
	assert.Error(t, err)
}

func TestEncodeStringEscaping(t *testing.T) {
	enc, err := Encode(String("line1\nline2\t\"quoted\"\\"))
	require.NoError(t, err)
	assert.Equal(t, `"line1\nline2\t\"quoted\"\\"`, string(enc))
}
