package correction

import (
	"errors"
	"fmt"

	"github.com/jaskrrish/Go-QEC/internal/qec/quantum"
)

var (
	// ErrUnknownSyndrome is returned when no enumerated error produces the
	// syndrome. Decoding never guesses.
	ErrUnknownSyndrome = errors.New("unknown syndrome")
	// ErrSyndromeLength is returned when a syndrome does not have one bit per
	// stabilizer
	ErrSyndromeLength = errors.New("syndrome length does not match stabilizer count")
	// ErrSyndromeMismatch is returned when a state does not produce the
	// syndrome it was presented with
	ErrSyndromeMismatch = errors.New("state is inconsistent with syndrome")
	// ErrInvalidCode is returned for code descriptions that cannot be built
	ErrInvalidCode = errors.New("invalid stabilizer code")
)

// Code is an immutable stabilizer code together with its recovery table.
// The table is filled once by NewCode; a Code may be shared freely.
type Code struct {
	name        string
	numQubits   int
	distance    int
	stabilizers []quantum.Stabilizer
	logicals    []quantum.LogicalOperator
	table       map[string]quantum.PauliError
}

// NewCode validates the description and precomputes the minimum-weight
// recovery for every syndrome reachable by an error of weight below distance
func NewCode(name string, numQubits, distance int, stabilizers []quantum.Stabilizer, logicals []quantum.LogicalOperator) (*Code, error) {
	if numQubits <= 0 || numQubits > quantum.MaxQubits {
		return nil, fmt.Errorf("%w: %d qubits", ErrInvalidCode, numQubits)
	}
	if distance < 1 {
		return nil, fmt.Errorf("%w: distance %d", ErrInvalidCode, distance)
	}
	if len(stabilizers) == 0 {
		return nil, fmt.Errorf("%w: no stabilizers", ErrInvalidCode)
	}
	for i, st := range stabilizers {
		if err := checkOperator(st, numQubits); err != nil {
			return nil, fmt.Errorf("%w: stabilizer %d: %w", ErrInvalidCode, i, err)
		}
	}
	for i, l := range logicals {
		if err := checkOperator(l.Stabilizer, numQubits); err != nil {
			return nil, fmt.Errorf("%w: logical operator %d: %w", ErrInvalidCode, i, err)
		}
	}

	c := &Code{
		name:        name,
		numQubits:   numQubits,
		distance:    distance,
		stabilizers: append([]quantum.Stabilizer(nil), stabilizers...),
		logicals:    append([]quantum.LogicalOperator(nil), logicals...),
		table:       make(map[string]quantum.PauliError),
	}
	c.precompute()
	return c, nil
}

func checkOperator(st quantum.Stabilizer, numQubits int) error {
	if hi := st.MaxQubit(); hi >= numQubits {
		return fmt.Errorf("%w: qubit %d, register has %d", quantum.ErrInvalidQubitIndex, hi, numQubits)
	}
	for _, t := range st.Terms() {
		if t.Qubit < 0 {
			return fmt.Errorf("%w: qubit %d", quantum.ErrInvalidQubitIndex, t.Qubit)
		}
		if t.Op > quantum.PauliZ {
			return fmt.Errorf("%w: %s on qubit %d", quantum.ErrUnknownGate, t.Op, t.Qubit)
		}
	}
	return nil
}

// NewSteaneCode returns the 7-qubit code with X and Z checks on the qubit
// sets {0,2,4,6} and {1,3,5,6}, logical X and Z on qubits 0-3, distance 3
func NewSteaneCode() *Code {
	check := func(op quantum.PauliOperator, qubits ...int) []quantum.PauliTerm {
		terms := make([]quantum.PauliTerm, len(qubits))
		for i, q := range qubits {
			terms[i] = quantum.PauliTerm{Qubit: q, Op: op}
		}
		return terms
	}

	stabilizers := []quantum.Stabilizer{
		quantum.NewStabilizer(check(quantum.PauliX, 0, 2, 4, 6)...),
		quantum.NewStabilizer(check(quantum.PauliX, 1, 3, 5, 6)...),
		quantum.NewStabilizer(check(quantum.PauliZ, 0, 2, 4, 6)...),
		quantum.NewStabilizer(check(quantum.PauliZ, 1, 3, 5, 6)...),
	}
	logicals := []quantum.LogicalOperator{
		quantum.NewLogicalOperator(quantum.LogicalX, check(quantum.PauliX, 0, 1, 2, 3)...),
		quantum.NewLogicalOperator(quantum.LogicalZ, check(quantum.PauliZ, 0, 1, 2, 3)...),
	}

	c, err := NewCode("steane", 7, 3, stabilizers, logicals)
	if err != nil {
		panic(err)
	}
	return c
}

// Name returns the code's label
func (c *Code) Name() string { return c.name }

// NumQubits returns the number of physical qubits
func (c *Code) NumQubits() int { return c.numQubits }

// Distance returns the code distance
func (c *Code) Distance() int { return c.distance }

// CorrectableWeight returns ⌊(distance-1)/2⌋
func (c *Code) CorrectableWeight() int { return (c.distance - 1) / 2 }

// Stabilizers returns the generators in declaration order
func (c *Code) Stabilizers() []quantum.Stabilizer {
	return append([]quantum.Stabilizer(nil), c.stabilizers...)
}

// LogicalOperators returns the encoded-qubit operators
func (c *Code) LogicalOperators() []quantum.LogicalOperator {
	return append([]quantum.LogicalOperator(nil), c.logicals...)
}

// TableSize returns the number of syndromes with a recovery
func (c *Code) TableSize() int {
	return len(c.table)
}

// SyndromeOf computes the syndrome an error would produce: bit k is the
// parity of the qubits where stabilizer k and the error anticommute
func (c *Code) SyndromeOf(e quantum.PauliError) Syndrome {
	s := NewSyndrome(len(c.stabilizers))
	for k, st := range c.stabilizers {
		odd := false
		for _, q := range e.Qubits() {
			if !quantum.Commutes(st.At(q), e.At(q)) {
				odd = !odd
			}
		}
		s.Set(k, odd)
	}
	return s
}

// Decode returns the recovery recorded for the syndrome
func (c *Code) Decode(s Syndrome) (quantum.PauliError, error) {
	if s.Len() != len(c.stabilizers) {
		return quantum.PauliError{}, fmt.Errorf("%w: got %d bits, code has %d stabilizers", ErrSyndromeLength, s.Len(), len(c.stabilizers))
	}
	recovery, ok := c.table[s.String()]
	if !ok {
		return quantum.PauliError{}, fmt.Errorf("%w: %s", ErrUnknownSyndrome, s)
	}
	return recovery, nil
}

// Recoveries returns the recovery table keyed by syndrome string
func (c *Code) Recoveries() map[string]quantum.PauliError {
	out := make(map[string]quantum.PauliError, len(c.table))
	for k, v := range c.table {
		out[k] = v
	}
	return out
}

func (c *Code) precompute() {
	for _, e := range Enumerate(c.numQubits, c.distance-1) {
		key := c.SyndromeOf(e).String()
		if _, seen := c.table[key]; !seen {
			c.table[key] = e
		}
	}
}
