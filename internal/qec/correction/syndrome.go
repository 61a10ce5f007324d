package correction

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bits-and-blooms/bitset"

	"github.com/jaskrrish/Go-QEC/internal/qec/quantum"
)

// Syndrome is the ordered bit pattern of stabilizer outcomes. Bit k belongs
// to the code's k-th stabilizer; true means odd parity.
type Syndrome struct {
	bits   *bitset.BitSet
	length int
}

// NewSyndrome returns an all-zero syndrome of the given length
func NewSyndrome(length int) Syndrome {
	return Syndrome{bits: bitset.New(uint(length)), length: length}
}

// SyndromeFromBools builds a syndrome from bits in stabilizer order
func SyndromeFromBools(bits []bool) Syndrome {
	s := NewSyndrome(len(bits))
	for i, b := range bits {
		s.Set(i, b)
	}
	return s
}

// ParseSyndrome reads the String form, e.g. "0010"
func ParseSyndrome(str string) (Syndrome, error) {
	s := NewSyndrome(len(str))
	for i, c := range str {
		switch c {
		case '0':
		case '1':
			s.Set(i, true)
		default:
			return Syndrome{}, fmt.Errorf("%w: %q is not a bit string", quantum.ErrInvalidEncoding, str)
		}
	}
	return s, nil
}

// Len returns the number of bits
func (s Syndrome) Len() int {
	return s.length
}

// Set sets bit i. Indices outside the syndrome are ignored.
func (s Syndrome) Set(i int, v bool) {
	if i < 0 || i >= s.length {
		return
	}
	s.bits.SetTo(uint(i), v)
}

// Bit reports bit i; out-of-range bits read as false
func (s Syndrome) Bit(i int) bool {
	if i < 0 || i >= s.length {
		return false
	}
	return s.bits.Test(uint(i))
}

// Bools returns the bits in stabilizer order
func (s Syndrome) Bools() []bool {
	out := make([]bool, s.length)
	for i := range out {
		out[i] = s.Bit(i)
	}
	return out
}

// Weight returns the number of set bits
func (s Syndrome) Weight() int {
	if s.bits == nil {
		return 0
	}
	return int(s.bits.Count())
}

// IsZero reports whether every stabilizer had even parity
func (s Syndrome) IsZero() bool {
	return s.Weight() == 0
}

// Equal compares length and bits
func (s Syndrome) Equal(other Syndrome) bool {
	if s.length != other.length {
		return false
	}
	for i := 0; i < s.length; i++ {
		if s.Bit(i) != other.Bit(i) {
			return false
		}
	}
	return true
}

// String renders the bits as '0'/'1' in stabilizer order
func (s Syndrome) String() string {
	var sb strings.Builder
	sb.Grow(s.length)
	for i := 0; i < s.length; i++ {
		if s.Bit(i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// MarshalBinary encodes the syndrome as
//
//	version(1) | length(uint32 BE) | bits packed MSB-first
func (s Syndrome) MarshalBinary() ([]byte, error) {
	bits := make([]quantum.Bit, s.length)
	for i := range bits {
		if s.Bit(i) {
			bits[i] = quantum.One
		}
	}

	buf := []byte{quantum.EncodingVersion}
	buf = binary.BigEndian.AppendUint32(buf, uint32(s.length))
	return append(buf, quantum.BitsToBytes(bits)...), nil
}

// UnmarshalBinary decodes a syndrome written by MarshalBinary
func (s *Syndrome) UnmarshalBinary(data []byte) error {
	if len(data) < 5 {
		return fmt.Errorf("%w: %d bytes is too short", quantum.ErrInvalidEncoding, len(data))
	}
	if data[0] != quantum.EncodingVersion {
		return fmt.Errorf("%w: unsupported version %d", quantum.ErrInvalidEncoding, data[0])
	}
	length := int(binary.BigEndian.Uint32(data[1:5]))
	body := data[5:]
	if len(body) != (length+7)/8 {
		return fmt.Errorf("%w: %d bits need %d bytes, got %d", quantum.ErrInvalidEncoding, length, (length+7)/8, len(body))
	}

	decoded := NewSyndrome(length)
	for i, b := range quantum.BytesToBits(body, length) {
		decoded.Set(i, b == quantum.One)
	}
	*s = decoded
	return nil
}

// MarshalJSON encodes the syndrome as an array of booleans
func (s Syndrome) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Bools())
}

// UnmarshalJSON decodes an array of booleans
func (s *Syndrome) UnmarshalJSON(data []byte) error {
	var bits []bool
	if err := json.Unmarshal(data, &bits); err != nil {
		return err
	}
	*s = SyndromeFromBools(bits)
	return nil
}
