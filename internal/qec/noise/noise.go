package noise

import (
	"fmt"
	"math"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/jaskrrish/Go-QEC/internal/qec/quantum"
)

// Register is the part of a state the gate-level channels act on
type Register interface {
	NumQubits() int
	ApplyGate(g quantum.Gate) error
}

type pair struct {
	lo, hi int
}

func orderedPair(i, j int) pair {
	if i > j {
		i, j = j, i
	}
	return pair{lo: i, hi: j}
}

// Model is an immutable noise configuration plus the precomputed spatial
// correlation coefficient of every qubit pair of its register size. A Model
// never mutates after NewModel returns and may be shared across goroutines.
type Model struct {
	cfg          Config
	numQubits    int
	targets      mapset.Set[int]
	correlations map[pair]float64
}

// NewModel validates cfg and precomputes the correlation table for a register
// of numQubits qubits
func NewModel(cfg Config, numQubits int) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if numQubits < 0 || numQubits > quantum.MaxQubits {
		return nil, fmt.Errorf("%w: %d qubits", quantum.ErrInvalidQubitIndex, numQubits)
	}

	var targets mapset.Set[int]
	if len(cfg.Qubits) > 0 {
		targets = mapset.NewSet(cfg.Qubits...)
		for _, q := range cfg.Qubits {
			if q >= numQubits {
				return nil, fmt.Errorf("%w: noise target %d, register has %d", quantum.ErrInvalidQubitIndex, q, numQubits)
			}
		}
	}

	m := &Model{
		cfg:          cfg,
		numQubits:    numQubits,
		targets:      targets,
		correlations: make(map[pair]float64, numQubits*(numQubits-1)/2),
	}
	for i := 0; i < numQubits; i++ {
		for j := i + 1; j < numQubits; j++ {
			m.correlations[pair{i, j}] = m.coefficient(i, j)
		}
	}
	return m, nil
}

// Config returns the model's parameters
func (m *Model) Config() Config {
	return m.cfg
}

// NumQubits returns the register size the correlation table was built for
func (m *Model) NumQubits() int {
	return m.numQubits
}

func (m *Model) coefficient(i, j int) float64 {
	if m.cfg.CorrelationLength <= 0 {
		return 0
	}
	d := math.Abs(float64(i - j))
	return math.Exp(-d / m.cfg.CorrelationLength)
}

// Correlation returns exp(-|i-j|/correlation_length) for the unordered pair.
// Pairs outside the precomputed register are computed on every call and not
// stored.
func (m *Model) Correlation(i, j int) float64 {
	if c, ok := m.correlations[orderedPair(i, j)]; ok {
		return c
	}
	return m.coefficient(i, j)
}

// Targets returns the qubits of an n-qubit register the channels act on, in
// ascending order
func (m *Model) Targets(n int) []int {
	qubits := make([]int, 0, n)
	for q := 0; q < n; q++ {
		if m.targets == nil || m.targets.Contains(q) {
			qubits = append(qubits, q)
		}
	}
	return qubits
}

// Apply runs decoherence, depolarization, thermal noise and correlated noise
// in that order. The state is normalized when Apply returns without error.
func (m *Model) Apply(state *quantum.State, src quantum.Source) error {
	if err := m.ApplyDecoherence(state, src); err != nil {
		return fmt.Errorf("decoherence: %w", err)
	}
	if err := m.ApplyDepolarizing(state, src); err != nil {
		return fmt.Errorf("depolarizing: %w", err)
	}
	if err := m.ApplyThermal(state, src); err != nil {
		return fmt.Errorf("thermal: %w", err)
	}
	if err := m.ApplyCorrelated(state, src); err != nil {
		return fmt.Errorf("correlated: %w", err)
	}
	return state.CheckNorm(quantum.NormTolerance)
}

// ApplyDecoherence draws once per target qubit and applies Z when the draw
// falls below the decoherence rate
func (m *Model) ApplyDecoherence(reg Register, src quantum.Source) error {
	for _, q := range m.Targets(reg.NumQubits()) {
		if src.Float64() < m.cfg.DecoherenceRate {
			if err := reg.ApplyGate(quantum.Z(q)); err != nil {
				return err
			}
		}
	}
	return nil
}

// ApplyDepolarizing draws once per target qubit. Below the depolarizing
// probability a second draw picks X, Y or Z in equal thirds.
func (m *Model) ApplyDepolarizing(reg Register, src quantum.Source) error {
	for _, q := range m.Targets(reg.NumQubits()) {
		if src.Float64() >= m.cfg.DepolarizingProbability {
			continue
		}
		op := quantum.AllPaulis[pick(src.Float64(), len(quantum.AllPaulis))]
		g, _ := quantum.PauliGate(op, q)
		if err := reg.ApplyGate(g); err != nil {
			return err
		}
	}
	return nil
}

// ApplyThermal adds complex Gaussian noise to every amplitude and
// renormalizes. Zero strength leaves the state and the source untouched.
func (m *Model) ApplyThermal(state *quantum.State, src quantum.Source) error {
	sigma := m.cfg.ThermalNoiseStrength
	if sigma == 0 {
		return nil
	}
	return state.Perturb(func() complex128 {
		re := src.NormFloat64() * sigma
		im := src.NormFloat64() * sigma
		return complex(re, im)
	})
}

// ApplyCorrelated walks every unordered target pair (i < j) in lexicographic
// order. Each pair draws once against its correlation coefficient; a hit
// draws again to pick XX or ZZ.
func (m *Model) ApplyCorrelated(reg Register, src quantum.Source) error {
	targets := m.Targets(reg.NumQubits())
	for a := 0; a < len(targets); a++ {
		for b := a + 1; b < len(targets); b++ {
			i, j := targets[a], targets[b]
			if src.Float64() >= m.Correlation(i, j) {
				continue
			}
			g1, g2 := quantum.X(i), quantum.X(j)
			if pick(src.Float64(), 2) == 1 {
				g1, g2 = quantum.Z(i), quantum.Z(j)
			}
			if err := reg.ApplyGate(g1); err != nil {
				return err
			}
			if err := reg.ApplyGate(g2); err != nil {
				return err
			}
		}
	}
	return nil
}

// pick maps a uniform draw in [0, 1) to one of n equally likely choices
func pick(r float64, n int) int {
	k := int(r * float64(n))
	if k >= n {
		k = n - 1
	}
	if k < 0 {
		k = 0
	}
	return k
}
