package quantum

import (
	"encoding/binary"
	"fmt"
	"math"
)

// EncodingVersion prefixes every binary payload produced by this package.
// Field order is fixed; external transcripts hash these bytes directly.
const EncodingVersion byte = 1

// MarshalBinary encodes the state as
//
//	version(1) | numQubits(uint32 BE) | (real, imag float64 BE) × 2^numQubits
//
// Amplitudes are written in index order. The measurement history is not part
// of the encoding.
func (s *State) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 0, 5+16*len(s.amplitudes))
	buf = append(buf, EncodingVersion)
	buf = binary.BigEndian.AppendUint32(buf, uint32(s.numQubits))
	for _, a := range s.amplitudes {
		buf = binary.BigEndian.AppendUint64(buf, math.Float64bits(real(a)))
		buf = binary.BigEndian.AppendUint64(buf, math.Float64bits(imag(a)))
	}
	return buf, nil
}

// UnmarshalBinary replaces s with a decoded state. The decoded vector must be
// normalized within NormTolerance.
func (s *State) UnmarshalBinary(data []byte) error {
	if len(data) < 5 {
		return fmt.Errorf("%w: %d bytes is too short", ErrInvalidEncoding, len(data))
	}
	if data[0] != EncodingVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrInvalidEncoding, data[0])
	}

	numQubits := int(binary.BigEndian.Uint32(data[1:5]))
	if numQubits > MaxQubits {
		return fmt.Errorf("%w: %d qubits exceeds %d", ErrInvalidEncoding, numQubits, MaxQubits)
	}
	dim := 1 << numQubits
	body := data[5:]
	if len(body) != 16*dim {
		return fmt.Errorf("%w: expected %d amplitude bytes, got %d", ErrInvalidEncoding, 16*dim, len(body))
	}

	amplitudes := make([]complex128, dim)
	for i := range amplitudes {
		re := math.Float64frombits(binary.BigEndian.Uint64(body[16*i:]))
		im := math.Float64frombits(binary.BigEndian.Uint64(body[16*i+8:]))
		amplitudes[i] = complex(re, im)
	}

	decoded, err := FromAmplitudes(amplitudes)
	if err != nil {
		return err
	}
	*s = *decoded
	return nil
}

// appendTerms writes count(uint32 BE) | (qubit uint32 BE, pauli byte) × count
func appendTerms(buf []byte, terms []PauliTerm) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(terms)))
	for _, t := range terms {
		buf = binary.BigEndian.AppendUint32(buf, uint32(t.Qubit))
		buf = append(buf, byte(t.Op))
	}
	return buf
}

func decodeTerms(data []byte) ([]PauliTerm, error) {
	if len(data) < 5 {
		return nil, fmt.Errorf("%w: %d bytes is too short", ErrInvalidEncoding, len(data))
	}
	if data[0] != EncodingVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidEncoding, data[0])
	}
	count := int(binary.BigEndian.Uint32(data[1:5]))
	body := data[5:]
	if len(body) != 5*count {
		return nil, fmt.Errorf("%w: expected %d term bytes, got %d", ErrInvalidEncoding, 5*count, len(body))
	}

	terms := make([]PauliTerm, count)
	for i := range terms {
		op := PauliOperator(body[5*i+4])
		if op > PauliZ {
			return nil, fmt.Errorf("%w: pauli tag %d", ErrInvalidEncoding, op)
		}
		terms[i] = PauliTerm{
			Qubit: int(binary.BigEndian.Uint32(body[5*i:])),
			Op:    op,
		}
	}
	return terms, nil
}

// MarshalBinary encodes the error as version | count | (qubit, pauli)… in
// ascending qubit order
func (e PauliError) MarshalBinary() ([]byte, error) {
	return appendTerms([]byte{EncodingVersion}, e.Terms()), nil
}

// UnmarshalBinary decodes an error written by MarshalBinary
func (e *PauliError) UnmarshalBinary(data []byte) error {
	terms, err := decodeTerms(data)
	if err != nil {
		return err
	}
	*e = NewPauliError(terms...)
	return nil
}

// MarshalBinary encodes the stabilizer's terms in declaration order using the
// same layout as PauliError
func (s Stabilizer) MarshalBinary() ([]byte, error) {
	return appendTerms([]byte{EncodingVersion}, s.terms), nil
}

// UnmarshalBinary decodes a stabilizer written by MarshalBinary
func (s *Stabilizer) UnmarshalBinary(data []byte) error {
	terms, err := decodeTerms(data)
	if err != nil {
		return err
	}
	*s = NewStabilizer(terms...)
	return nil
}
