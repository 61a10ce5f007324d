package correction

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/jaskrrish/Go-QEC/internal/qec/quantum"
)

func TestSyndromeBits(t *testing.T) {
	s := NewSyndrome(4)
	assert.True(t, s.IsZero())
	assert.Equal(t, "0000", s.String())

	s.Set(1, true)
	s.Set(3, true)
	s.Set(9, true) // ignored

	assert.True(t, s.Bit(1))
	assert.False(t, s.Bit(2))
	assert.False(t, s.Bit(9))
	assert.Equal(t, 2, s.Weight())
	assert.Equal(t, []bool{false, true, false, true}, s.Bools())
	assert.Equal(t, "0101", s.String())

	s.Set(1, false)
	assert.Equal(t, "0001", s.String())
}

func TestSyndromeZeroValue(t *testing.T) {
	var s Syndrome
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 0, s.Weight())
	assert.Equal(t, "", s.String())
	assert.True(t, s.Equal(NewSyndrome(0)))
}

func TestParseSyndrome(t *testing.T) {
	s, err := ParseSyndrome("1010")
	require.NoError(t, err)
	assert.True(t, s.Equal(SyndromeFromBools([]bool{true, false, true, false})))

	_, err = ParseSyndrome("10x0")
	assert.ErrorIs(t, err, quantum.ErrInvalidEncoding)
}

func TestSyndromeEqual(t *testing.T) {
	a := SyndromeFromBools([]bool{true, false})
	assert.True(t, a.Equal(SyndromeFromBools([]bool{true, false})))
	assert.False(t, a.Equal(SyndromeFromBools([]bool{true, true})))
	assert.False(t, a.Equal(SyndromeFromBools([]bool{true, false, false})))
}

func TestSyndromeBinaryLayout(t *testing.T) {
	s := SyndromeFromBools([]bool{true, false, true, false})
	data, err := s.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, []byte{quantum.EncodingVersion, 0, 0, 0, 4, 0xA0}, data)

	var bad Syndrome
	assert.ErrorIs(t, bad.UnmarshalBinary(data[:5]), quantum.ErrInvalidEncoding)
	assert.ErrorIs(t, bad.UnmarshalBinary([]byte{9, 0, 0, 0, 0}), quantum.ErrInvalidEncoding)
}

func TestSyndromeEncodingRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		bits := rapid.SliceOfN(rapid.Bool(), 0, 40).Draw(t, "bits")
		s := SyndromeFromBools(bits)

		data, err := s.MarshalBinary()
		require.NoError(t, err)
		var decoded Syndrome
		require.NoError(t, decoded.UnmarshalBinary(data))
		require.True(t, s.Equal(decoded), "%s != %s", s, decoded)
	})
}

func TestSyndromeJSON(t *testing.T) {
	s := SyndromeFromBools([]bool{false, true})
	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `[false, true]`, string(data))

	var decoded Syndrome
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, s.Equal(decoded))
}
