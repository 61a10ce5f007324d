package quantum

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// Source is the randomness every stochastic operation draws from. It is
// always passed explicitly; nothing in this module reads a global generator.
type Source interface {
	// Float64 returns a uniform value in [0, 1)
	Float64() float64
	// NormFloat64 returns a standard normal value
	NormFloat64() float64
}

// NewSource returns a deterministic PCG-backed Source for seed
func NewSource(seed uint64) Source {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Measure collapses the register according to Born-rule probabilities in the
// requested basis and appends the result to the measurement history.
func (s *State) Measure(basis MeasurementBasis, src Source) (Measurement, error) {
	var (
		m   Measurement
		err error
	)

	switch basis {
	case ComputationalBasis:
		m = s.measureComputational(src)
	case BellBasis:
		m, err = s.measureBell(src)
	case MagicBasis:
		m, err = s.measureMagic(src)
	default:
		return Measurement{}, fmt.Errorf("%w: %d", ErrUnknownBasis, basis)
	}
	if err != nil {
		return Measurement{}, err
	}

	s.history = append(s.history, m)
	return m, nil
}

func probability(a complex128) float64 {
	return real(a)*real(a) + imag(a)*imag(a)
}

// measureComputational samples a full basis index and collapses onto it,
// keeping the amplitude's phase
func (s *State) measureComputational(src Source) Measurement {
	qubits := make([]int, s.numQubits)
	for q := range qubits {
		qubits[q] = q
	}

	r := src.Float64()
	outcome := -1
	var cumulative float64
	for i, a := range s.amplitudes {
		p := probability(a)
		if p == 0 {
			continue
		}
		outcome = i
		cumulative += p
		if r < cumulative {
			break
		}
	}
	// r can exceed the accumulated total by rounding; outcome then stays on
	// the last index with non-zero probability
	if outcome < 0 {
		outcome = 0
	}

	a := s.amplitudes[outcome]
	p := probability(a)
	collapsed := complex(1, 0)
	if p > 0 {
		collapsed = a / complex(math.Sqrt(p), 0)
	}
	for i := range s.amplitudes {
		s.amplitudes[i] = 0
	}
	s.amplitudes[outcome] = collapsed

	return Measurement{
		Basis:       ComputationalBasis,
		Qubits:      qubits,
		Outcome:     outcome,
		Probability: p,
	}
}

// measureQubits projectively measures a subset of qubits in the
// computational basis. Bit k of the returned outcome is qubits[k].
func (s *State) measureQubits(qubits []int, src Source) (int, float64) {
	outcomeOf := func(i int) int {
		o := 0
		for k, q := range qubits {
			if i&(1<<q) != 0 {
				o |= 1 << k
			}
		}
		return o
	}

	probs := make([]float64, 1<<len(qubits))
	for i, a := range s.amplitudes {
		probs[outcomeOf(i)] += probability(a)
	}

	r := src.Float64()
	outcome := -1
	var cumulative float64
	for o, p := range probs {
		if p == 0 {
			continue
		}
		outcome = o
		cumulative += p
		if r < cumulative {
			break
		}
	}
	if outcome < 0 {
		outcome = 0
	}

	p := probs[outcome]
	scale := complex(0, 0)
	if p > 0 {
		scale = complex(1/math.Sqrt(p), 0)
	}
	for i := range s.amplitudes {
		if outcomeOf(i) == outcome {
			s.amplitudes[i] *= scale
		} else {
			s.amplitudes[i] = 0
		}
	}
	return outcome, p
}

// measureBell rotates the Bell basis of qubits (0, 1) onto the computational
// basis, measures, and rotates back so the post-measurement state is the
// observed Bell state
func (s *State) measureBell(src Source) (Measurement, error) {
	if s.numQubits < 2 {
		return Measurement{}, fmt.Errorf("%w: Bell measurement needs 2 qubits, register has %d", ErrInvalidQubitIndex, s.numQubits)
	}

	s.cnot(0, 1)
	s.hadamard(0)
	raw, p := s.measureQubits([]int{0, 1}, src)
	s.hadamard(0)
	s.cnot(0, 1)

	q0 := raw & 1
	q1 := (raw >> 1) & 1
	return Measurement{
		Basis:       BellBasis,
		Qubits:      []int{0, 1},
		Outcome:     q0<<1 | q1,
		Probability: p,
	}, nil
}

// measureMagic measures qubit 0 in the basis {T·H|0⟩, T·H|1⟩}
func (s *State) measureMagic(src Source) (Measurement, error) {
	if s.numQubits < 1 {
		return Measurement{}, fmt.Errorf("%w: magic measurement needs 1 qubit", ErrInvalidQubitIndex)
	}

	s.phase(0, -math.Pi/4)
	s.hadamard(0)
	outcome, p := s.measureQubits([]int{0}, src)
	s.hadamard(0)
	s.phase(0, math.Pi/4)

	return Measurement{
		Basis:       MagicBasis,
		Qubits:      []int{0},
		Outcome:     outcome,
		Probability: p,
	}, nil
}
