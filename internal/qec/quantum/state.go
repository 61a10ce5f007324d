package quantum

import (
	"fmt"
	"math"
	"math/cmplx"
)

const (
	// MaxQubits bounds the register; memory grows as 2^numQubits
	MaxQubits = 24
	// NormTolerance is the allowed deviation of Σ|a_i|² from 1 at any
	// externally observable point
	NormTolerance = 1e-9
	// DriftTolerance is the largest accumulated rounding drift the periodic
	// guard rescales. Anything beyond it is reported as ErrNormDrift.
	DriftTolerance = 1e-6
	// DefaultRenormalizeInterval is the number of gates between drift checks
	DefaultRenormalizeInterval = 64
)

// State is a dense amplitude vector over numQubits qubits. Index i is the
// computational basis state whose bit k is the value of qubit k.
type State struct {
	numQubits  int
	amplitudes []complex128
	history    []Measurement

	gateCount           int
	renormalizeInterval int
}

// New creates a register in the all-zero basis state. It panics when
// numQubits is negative or above MaxQubits.
func New(numQubits int) *State {
	if numQubits < 0 || numQubits > MaxQubits {
		panic(fmt.Sprintf("quantum: qubit count %d outside [0, %d]", numQubits, MaxQubits))
	}

	amplitudes := make([]complex128, 1<<numQubits)
	amplitudes[0] = 1

	return &State{
		numQubits:           numQubits,
		amplitudes:          amplitudes,
		renormalizeInterval: DefaultRenormalizeInterval,
	}
}

// FromAmplitudes builds a state from an explicit amplitude vector. The length
// must be a power of two and the vector must be normalized.
func FromAmplitudes(amplitudes []complex128) (*State, error) {
	n := len(amplitudes)
	if n == 0 || n&(n-1) != 0 {
		return nil, fmt.Errorf("%w: %d amplitudes is not a power of two", ErrDimensionMismatch, n)
	}

	numQubits := 0
	for 1<<numQubits < n {
		numQubits++
	}
	if numQubits > MaxQubits {
		return nil, fmt.Errorf("%w: %d qubits exceeds %d", ErrInvalidQubitIndex, numQubits, MaxQubits)
	}

	s := &State{
		numQubits:           numQubits,
		amplitudes:          make([]complex128, n),
		renormalizeInterval: DefaultRenormalizeInterval,
	}
	copy(s.amplitudes, amplitudes)

	if err := s.CheckNorm(NormTolerance); err != nil {
		return nil, err
	}
	return s, nil
}

// NumQubits returns the register size
func (s *State) NumQubits() int {
	return s.numQubits
}

// Dimension returns 2^numQubits
func (s *State) Dimension() int {
	return len(s.amplitudes)
}

// Amplitudes returns a copy of the amplitude vector
func (s *State) Amplitudes() []complex128 {
	cp := make([]complex128, len(s.amplitudes))
	copy(cp, s.amplitudes)
	return cp
}

// Amplitude returns the amplitude of basis state i
func (s *State) Amplitude(i int) complex128 {
	return s.amplitudes[i]
}

// MeasurementHistory returns a copy of the append-only measurement log
func (s *State) MeasurementHistory() []Measurement {
	cp := make([]Measurement, len(s.history))
	copy(cp, s.history)
	return cp
}

// SetRenormalizeInterval sets how many gates run between drift checks.
// Zero disables the periodic check.
func (s *State) SetRenormalizeInterval(n int) {
	if n < 0 {
		n = 0
	}
	s.renormalizeInterval = n
}

// Clone returns an independent copy: amplitudes and history are not shared
func (s *State) Clone() *State {
	cp := &State{
		numQubits:           s.numQubits,
		amplitudes:          make([]complex128, len(s.amplitudes)),
		history:             make([]Measurement, len(s.history)),
		gateCount:           s.gateCount,
		renormalizeInterval: s.renormalizeInterval,
	}
	copy(cp.amplitudes, s.amplitudes)
	copy(cp.history, s.history)
	return cp
}

func (s *State) checkQubit(q int) error {
	if q < 0 || q >= s.numQubits {
		return fmt.Errorf("%w: qubit %d, register has %d", ErrInvalidQubitIndex, q, s.numQubits)
	}
	return nil
}

// ApplyGate applies g to the full register
func (s *State) ApplyGate(g Gate) error {
	if err := s.checkQubit(g.Target); err != nil {
		return err
	}

	switch g.Kind {
	case Hadamard:
		s.hadamard(g.Target)
	case GatePauliX:
		s.pauliX(g.Target)
	case GatePauliY:
		s.pauliY(g.Target)
	case GatePauliZ:
		s.pauliZ(g.Target)
	case GatePhase:
		s.phase(g.Target, g.Theta)
	case GateCNOT:
		if err := s.checkQubit(g.Control); err != nil {
			return err
		}
		if g.Control == g.Target {
			return fmt.Errorf("%w: control and target are both %d", ErrInvalidQubitIndex, g.Target)
		}
		s.cnot(g.Control, g.Target)
	default:
		return fmt.Errorf("%w: %d", ErrUnknownGate, g.Kind)
	}

	s.gateCount++
	if s.renormalizeInterval > 0 && s.gateCount%s.renormalizeInterval == 0 {
		return s.guardDrift()
	}
	return nil
}

// ApplyGates applies gates in order and stops at the first failure
func (s *State) ApplyGates(gates ...Gate) error {
	for i, g := range gates {
		if err := s.ApplyGate(g); err != nil {
			return fmt.Errorf("gate %d (%s): %w", i, g, err)
		}
	}
	return nil
}

// ApplyPauli applies a single Pauli tag; the identity is a no-op
func (s *State) ApplyPauli(p PauliOperator, q int) error {
	if p > PauliZ {
		return fmt.Errorf("%w: Pauli tag %d", ErrUnknownGate, p)
	}
	g, ok := PauliGate(p, q)
	if !ok {
		return s.checkQubit(q)
	}
	return s.ApplyGate(g)
}

// Single-qubit kernels pair every index i with bit q clear with i|bit and
// apply the 2x2 matrix to (a_i, a_{i|bit}).

func (s *State) hadamard(q int) {
	bit := 1 << q
	f := complex(1/math.Sqrt2, 0)
	for i := range s.amplitudes {
		if i&bit == 0 {
			j := i | bit
			a, b := s.amplitudes[i], s.amplitudes[j]
			s.amplitudes[i] = f * (a + b)
			s.amplitudes[j] = f * (a - b)
		}
	}
}

func (s *State) pauliX(q int) {
	bit := 1 << q
	for i := range s.amplitudes {
		if i&bit == 0 {
			j := i | bit
			s.amplitudes[i], s.amplitudes[j] = s.amplitudes[j], s.amplitudes[i]
		}
	}
}

func (s *State) pauliY(q int) {
	bit := 1 << q
	for i := range s.amplitudes {
		if i&bit == 0 {
			j := i | bit
			a, b := s.amplitudes[i], s.amplitudes[j]
			s.amplitudes[i] = -1i * b
			s.amplitudes[j] = 1i * a
		}
	}
}

func (s *State) pauliZ(q int) {
	bit := 1 << q
	for i := range s.amplitudes {
		if i&bit != 0 {
			s.amplitudes[i] = -s.amplitudes[i]
		}
	}
}

func (s *State) phase(q int, theta float64) {
	bit := 1 << q
	factor := cmplx.Exp(complex(0, theta))
	for i := range s.amplitudes {
		if i&bit != 0 {
			s.amplitudes[i] *= factor
		}
	}
}

func (s *State) cnot(control, target int) {
	cbit := 1 << control
	tbit := 1 << target
	for i := range s.amplitudes {
		if i&cbit != 0 && i&tbit == 0 {
			j := i | tbit
			s.amplitudes[i], s.amplitudes[j] = s.amplitudes[j], s.amplitudes[i]
		}
	}
}

// NormSquared returns Σ|a_i|²
func (s *State) NormSquared() float64 {
	var sum float64
	for _, a := range s.amplitudes {
		sum += real(a)*real(a) + imag(a)*imag(a)
	}
	return sum
}

// CheckNorm returns ErrNormDrift when Σ|a_i|² deviates from 1 by more than tol
func (s *State) CheckNorm(tol float64) error {
	n2 := s.NormSquared()
	if math.IsNaN(n2) || math.Abs(n2-1) > tol {
		return fmt.Errorf("%w: Σ|a|² = %.15g", ErrNormDrift, n2)
	}
	return nil
}

// Renormalize divides every amplitude by the Euclidean norm. A zero or
// non-finite norm cannot be repaired and returns ErrNormDrift.
func (s *State) Renormalize() error {
	norm := math.Sqrt(s.NormSquared())
	if norm == 0 || math.IsNaN(norm) || math.IsInf(norm, 0) {
		return fmt.Errorf("%w: cannot renormalize norm %g", ErrNormDrift, norm)
	}
	inv := complex(1/norm, 0)
	for i := range s.amplitudes {
		s.amplitudes[i] *= inv
	}
	return nil
}

func (s *State) guardDrift() error {
	if err := s.CheckNorm(DriftTolerance); err != nil {
		return fmt.Errorf("after %d gates: %w", s.gateCount, err)
	}
	return s.Renormalize()
}

// Perturb adds delta() to every amplitude in index order and renormalizes.
// The perturbed vector is built in a scratch copy and only replaces the
// amplitudes once it is back at unit norm; on error s is unchanged.
func (s *State) Perturb(delta func() complex128) error {
	scratch := &State{numQubits: s.numQubits, amplitudes: make([]complex128, len(s.amplitudes))}
	for i, a := range s.amplitudes {
		scratch.amplitudes[i] = a + delta()
	}
	if err := scratch.Renormalize(); err != nil {
		return err
	}
	if err := scratch.CheckNorm(NormTolerance); err != nil {
		return err
	}
	s.amplitudes = scratch.amplitudes
	return nil
}

// ComputeOverlap returns ⟨s|other⟩ = Σ conj(s_i)·other_i
func (s *State) ComputeOverlap(other *State) (complex128, error) {
	if s.numQubits != other.numQubits {
		return 0, fmt.Errorf("%w: %d vs %d qubits", ErrDimensionMismatch, s.numQubits, other.numQubits)
	}

	var overlap complex128
	for i, a := range s.amplitudes {
		overlap += cmplx.Conj(a) * other.amplitudes[i]
	}
	return overlap, nil
}

// Fidelity returns |⟨s|other⟩|², which is 1 when the states agree up to a
// global phase
func (s *State) Fidelity(other *State) (float64, error) {
	overlap, err := s.ComputeOverlap(other)
	if err != nil {
		return 0, err
	}
	abs := cmplx.Abs(overlap)
	return abs * abs, nil
}

// MeasureStabilizer probes a stabilizer without touching s: the Paulis are
// applied to a scratch clone and the clone's overlap with s decides the bit.
// A negative real part is odd parity (true).
func (s *State) MeasureStabilizer(st Stabilizer) (bool, error) {
	scratch := s.Clone()
	scratch.renormalizeInterval = 0
	for _, t := range st.terms {
		if err := scratch.ApplyPauli(t.Op, t.Qubit); err != nil {
			return false, err
		}
	}

	overlap, err := scratch.ComputeOverlap(s)
	if err != nil {
		return false, err
	}
	return real(overlap) < 0, nil
}
