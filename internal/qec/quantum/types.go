package quantum

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidQubitIndex is returned when a qubit index is outside the register
	ErrInvalidQubitIndex = errors.New("invalid qubit index")
	// ErrDimensionMismatch is returned when two states of different sizes are compared
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrNormDrift is returned when the amplitude norm leaves its tolerance.
	// It indicates a bug in gate or noise application and is never patched silently.
	ErrNormDrift = errors.New("amplitude norm drifted outside tolerance")
	// ErrUnknownGate is returned for gate kinds the simulator does not implement
	ErrUnknownGate = errors.New("unknown gate")
	// ErrUnknownBasis is returned for measurement bases the simulator does not implement
	ErrUnknownBasis = errors.New("unknown measurement basis")
	// ErrInvalidEncoding is returned when a binary payload cannot be decoded
	ErrInvalidEncoding = errors.New("invalid binary encoding")
)

// PauliOperator is a single-qubit Pauli tag. The zero value is the identity.
type PauliOperator uint8

const (
	PauliI PauliOperator = iota
	PauliX
	PauliY
	PauliZ
)

// AllPaulis lists the non-identity Paulis in enumeration order
var AllPaulis = []PauliOperator{PauliX, PauliY, PauliZ}

func (p PauliOperator) String() string {
	switch p {
	case PauliI:
		return "I"
	case PauliX:
		return "X"
	case PauliY:
		return "Y"
	case PauliZ:
		return "Z"
	default:
		return "Unknown"
	}
}

// ParsePauli converts "I", "X", "Y" or "Z" (any case) into a PauliOperator
func ParsePauli(s string) (PauliOperator, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "I":
		return PauliI, nil
	case "X":
		return PauliX, nil
	case "Y":
		return PauliY, nil
	case "Z":
		return PauliZ, nil
	default:
		return PauliI, fmt.Errorf("unknown pauli operator %q", s)
	}
}

// MarshalText encodes the Pauli as its letter
func (p PauliOperator) MarshalText() ([]byte, error) {
	if p > PauliZ {
		return nil, fmt.Errorf("unknown pauli operator %d", p)
	}
	return []byte(p.String()), nil
}

// UnmarshalText parses a Pauli letter
func (p *PauliOperator) UnmarshalText(text []byte) error {
	op, err := ParsePauli(string(text))
	if err != nil {
		return err
	}
	*p = op
	return nil
}

// Commutes reports whether two single-qubit Paulis commute.
// Distinct non-identity Paulis anticommute; everything else commutes.
func Commutes(a, b PauliOperator) bool {
	return a == PauliI || b == PauliI || a == b
}

// Mul returns the product p·q up to a global phase
func (p PauliOperator) Mul(q PauliOperator) PauliOperator {
	switch {
	case p == PauliI:
		return q
	case q == PauliI:
		return p
	case p == q:
		return PauliI
	default:
		// X=1, Y=2, Z=3: the product of two distinct Paulis is the third one
		return 6 - p - q
	}
}

// MeasurementBasis selects how Measure projects the register
type MeasurementBasis int

const (
	// ComputationalBasis measures every qubit in the Z eigenbasis
	ComputationalBasis MeasurementBasis = iota
	// BellBasis measures qubits 0 and 1 in the Bell basis
	BellBasis
	// MagicBasis measures qubit 0 in the T·H rotated (non-stabilizer) basis
	MagicBasis
)

func (b MeasurementBasis) String() string {
	switch b {
	case ComputationalBasis:
		return "Computational"
	case BellBasis:
		return "Bell"
	case MagicBasis:
		return "Magic"
	default:
		return "Unknown"
	}
}

// Bell measurement outcomes
const (
	BellPhiPlus  = 0
	BellPsiPlus  = 1
	BellPhiMinus = 2
	BellPsiMinus = 3
)

// Bit represents a classical bit (0 or 1)
type Bit int

const (
	Zero Bit = 0
	One  Bit = 1
)

// Measurement is one entry of a state's measurement history
type Measurement struct {
	// Basis is the basis the register was projected onto
	Basis MeasurementBasis
	// Qubits lists the measured qubits; bit k of Outcome belongs to Qubits[k]
	// except for Bell outcomes, which use the Bell* constants
	Qubits []int
	// Outcome is the observed index
	Outcome int
	// Probability is the Born probability of Outcome before collapse
	Probability float64
}

// Bits returns the outcome as one Bit per measured qubit, in Qubits order
func (m Measurement) Bits() []Bit {
	bits := make([]Bit, len(m.Qubits))
	for k := range m.Qubits {
		if m.Outcome&(1<<k) != 0 {
			bits[k] = One
		}
	}
	return bits
}

// BitsToBytes converts a slice of Bits to a byte array
func BitsToBytes(bits []Bit) []byte {
	numBytes := (len(bits) + 7) / 8
	bytes := make([]byte, numBytes)

	for i, bit := range bits {
		if bit == One {
			byteIndex := i / 8
			bitIndex := uint(7 - (i % 8))
			bytes[byteIndex] |= (1 << bitIndex)
		}
	}

	return bytes
}

// BytesToBits converts a byte array to a slice of Bits
func BytesToBits(bytes []byte, bitLength int) []Bit {
	bits := make([]Bit, bitLength)

	for i := 0; i < bitLength; i++ {
		byteIndex := i / 8
		bitIndex := uint(7 - (i % 8))
		if bytes[byteIndex]&(1<<bitIndex) != 0 {
			bits[i] = One
		} else {
			bits[i] = Zero
		}
	}

	return bits
}
