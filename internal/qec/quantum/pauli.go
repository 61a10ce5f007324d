package quantum

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// PauliTerm places a Pauli operator on one qubit
type PauliTerm struct {
	Qubit int           `json:"qubit"`
	Op    PauliOperator `json:"op"`
}

func (t PauliTerm) String() string {
	return fmt.Sprintf("%s%d", t.Op, t.Qubit)
}

// Stabilizer is an ordered multi-qubit check operator. Measuring it yields
// one syndrome bit.
type Stabilizer struct {
	terms []PauliTerm
}

// NewStabilizer builds a stabilizer from its terms in declaration order
func NewStabilizer(terms ...PauliTerm) Stabilizer {
	cp := make([]PauliTerm, len(terms))
	copy(cp, terms)
	return Stabilizer{terms: cp}
}

// Terms returns a copy of the stabilizer's terms in declaration order
func (s Stabilizer) Terms() []PauliTerm {
	cp := make([]PauliTerm, len(s.terms))
	copy(cp, s.terms)
	return cp
}

// Len returns the number of terms
func (s Stabilizer) Len() int {
	return len(s.terms)
}

// At returns the operator the stabilizer places on qubit, or PauliI
func (s Stabilizer) At(qubit int) PauliOperator {
	for _, t := range s.terms {
		if t.Qubit == qubit {
			return t.Op
		}
	}
	return PauliI
}

// MaxQubit returns the highest qubit index named by the stabilizer, or -1
func (s Stabilizer) MaxQubit() int {
	highest := -1
	for _, t := range s.terms {
		if t.Qubit > highest {
			highest = t.Qubit
		}
	}
	return highest
}

func (s Stabilizer) String() string {
	parts := make([]string, len(s.terms))
	for i, t := range s.terms {
		parts[i] = t.String()
	}
	return strings.Join(parts, " ")
}

// OperatorType tags a logical operator
type OperatorType int

const (
	LogicalX OperatorType = iota
	LogicalZ
)

func (o OperatorType) String() string {
	switch o {
	case LogicalX:
		return "X"
	case LogicalZ:
		return "Z"
	default:
		return "Unknown"
	}
}

// LogicalOperator is an encoded-qubit operator. It has the same shape as a
// Stabilizer and is part of a code's public description only.
type LogicalOperator struct {
	Stabilizer
	Type OperatorType
}

// NewLogicalOperator builds a logical operator of the given type
func NewLogicalOperator(typ OperatorType, terms ...PauliTerm) LogicalOperator {
	return LogicalOperator{Stabilizer: NewStabilizer(terms...), Type: typ}
}

// MarshalJSON encodes the operator as its type and terms
func (l LogicalOperator) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type  string      `json:"type"`
		Terms []PauliTerm `json:"terms"`
	}{l.Type.String(), l.terms})
}

// PauliError is a hypothesised physical error: a Pauli per qubit, identity
// wherever no entry exists.
type PauliError struct {
	ops map[int]PauliOperator
}

// NewPauliError builds an error from terms. Identity terms are dropped and a
// later term on the same qubit replaces an earlier one.
func NewPauliError(terms ...PauliTerm) PauliError {
	e := PauliError{ops: make(map[int]PauliOperator, len(terms))}
	for _, t := range terms {
		e.set(t.Qubit, t.Op)
	}
	return e
}

// Identity returns the weight-0 error
func Identity() PauliError {
	return PauliError{ops: map[int]PauliOperator{}}
}

func (e *PauliError) set(qubit int, op PauliOperator) {
	if e.ops == nil {
		e.ops = make(map[int]PauliOperator)
	}
	if op == PauliI {
		delete(e.ops, qubit)
		return
	}
	e.ops[qubit] = op
}

// With returns a copy of e with op placed on qubit
func (e PauliError) With(qubit int, op PauliOperator) PauliError {
	cp := e.clone()
	cp.set(qubit, op)
	return cp
}

func (e PauliError) clone() PauliError {
	cp := PauliError{ops: make(map[int]PauliOperator, len(e.ops))}
	for q, op := range e.ops {
		cp.ops[q] = op
	}
	return cp
}

// At returns the Pauli on qubit, PauliI when absent
func (e PauliError) At(qubit int) PauliOperator {
	return e.ops[qubit]
}

// Weight is the number of non-identity entries
func (e PauliError) Weight() int {
	return len(e.ops)
}

// IsIdentity reports whether the error is weight 0
func (e PauliError) IsIdentity() bool {
	return len(e.ops) == 0
}

// Qubits returns the affected qubits in ascending order
func (e PauliError) Qubits() []int {
	qubits := make([]int, 0, len(e.ops))
	for q := range e.ops {
		qubits = append(qubits, q)
	}
	sort.Ints(qubits)
	return qubits
}

// Terms returns the error as terms in ascending qubit order
func (e PauliError) Terms() []PauliTerm {
	qubits := e.Qubits()
	terms := make([]PauliTerm, len(qubits))
	for i, q := range qubits {
		terms[i] = PauliTerm{Qubit: q, Op: e.ops[q]}
	}
	return terms
}

// Compose returns the qubit-wise product e·other, ignoring global phase
func (e PauliError) Compose(other PauliError) PauliError {
	out := e.clone()
	for q, op := range other.ops {
		out.set(q, out.At(q).Mul(op))
	}
	return out
}

// Equal reports whether two errors place the same Pauli on every qubit
func (e PauliError) Equal(other PauliError) bool {
	if len(e.ops) != len(other.ops) {
		return false
	}
	for q, op := range e.ops {
		if other.ops[q] != op {
			return false
		}
	}
	return true
}

// Apply applies every Pauli of e onto s in ascending qubit order
func (e PauliError) Apply(s *State) error {
	for _, t := range e.Terms() {
		if err := s.ApplyPauli(t.Op, t.Qubit); err != nil {
			return err
		}
	}
	return nil
}

// MarshalJSON encodes the error as its terms in ascending qubit order
func (e PauliError) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Terms())
}

// UnmarshalJSON decodes a list of terms
func (e *PauliError) UnmarshalJSON(data []byte) error {
	var terms []PauliTerm
	if err := json.Unmarshal(data, &terms); err != nil {
		return err
	}
	*e = NewPauliError(terms...)
	return nil
}

// MarshalJSON encodes the stabilizer as its terms in declaration order
func (s Stabilizer) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.terms)
}

func (e PauliError) String() string {
	if e.IsIdentity() {
		return "I"
	}
	terms := e.Terms()
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = t.String()
	}
	return strings.Join(parts, " ")
}
