package quantum

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateEncoding(t *testing.T) {
	s := New(2)
	require.NoError(t, s.ApplyGates(H(0), CNOT(0, 1), Phase(1, 0.7)))

	data, err := s.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, data, 5+16*4)
	assert.Equal(t, EncodingVersion, data[0])
	assert.Equal(t, uint32(2), binary.BigEndian.Uint32(data[1:5]))

	var decoded State
	require.NoError(t, decoded.UnmarshalBinary(data))
	assert.Equal(t, s.Amplitudes(), decoded.Amplitudes())
	assert.Equal(t, 2, decoded.NumQubits())

	// decoded state is usable
	require.NoError(t, decoded.ApplyGate(X(0)))
}

func TestStateDecodingErrors(t *testing.T) {
	valid, err := New(1).MarshalBinary()
	require.NoError(t, err)

	badVersion := append([]byte{}, valid...)
	badVersion[0] = 9

	unnormalized := append([]byte{}, valid...)
	// real part of amplitude 1 becomes 1.0
	binary.BigEndian.PutUint64(unnormalized[5+16:], 0x3FF0000000000000)

	tests := []struct {
		name string
		data []byte
		err  error
	}{
		{"Empty", nil, ErrInvalidEncoding},
		{"Bad version", badVersion, ErrInvalidEncoding},
		{"Truncated", valid[:len(valid)-1], ErrInvalidEncoding},
		{"Unnormalized", unnormalized, ErrNormDrift},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s State
			assert.ErrorIs(t, s.UnmarshalBinary(tt.data), tt.err)
		})
	}
}

func TestPauliErrorEncoding(t *testing.T) {
	e := NewPauliError(PauliTerm{6, PauliZ}, PauliTerm{1, PauliX})
	data, err := e.MarshalBinary()
	require.NoError(t, err)

	expected := []byte{
		EncodingVersion,
		0, 0, 0, 2,
		0, 0, 0, 1, byte(PauliX),
		0, 0, 0, 6, byte(PauliZ),
	}
	assert.Equal(t, expected, data)

	var decoded PauliError
	require.NoError(t, decoded.UnmarshalBinary(data))
	assert.True(t, e.Equal(decoded))

	data[len(data)-1] = 7
	assert.ErrorIs(t, decoded.UnmarshalBinary(data), ErrInvalidEncoding)
}

func TestStabilizerEncodingKeepsOrder(t *testing.T) {
	st := NewStabilizer(PauliTerm{4, PauliX}, PauliTerm{0, PauliX})
	data, err := st.MarshalBinary()
	require.NoError(t, err)

	var decoded Stabilizer
	require.NoError(t, decoded.UnmarshalBinary(data))
	assert.Equal(t, st.Terms(), decoded.Terms())
}
