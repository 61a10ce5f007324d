package quantum

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

const eps = 1e-12

func assertAmplitudes(t *testing.T, expected []complex128, s *State) {
	t.Helper()
	require.Equal(t, len(expected), s.Dimension())
	for i, want := range expected {
		got := s.Amplitude(i)
		assert.InDelta(t, real(want), real(got), eps, "real part of amplitude %d", i)
		assert.InDelta(t, imag(want), imag(got), eps, "imaginary part of amplitude %d", i)
	}
}

func TestNew(t *testing.T) {
	s := New(3)
	assert.Equal(t, 3, s.NumQubits())
	assert.Equal(t, 8, s.Dimension())
	assert.Equal(t, complex(1, 0), s.Amplitude(0))
	assert.Empty(t, s.MeasurementHistory())
	assert.NoError(t, s.CheckNorm(NormTolerance))

	assert.Panics(t, func() { New(-1) })
	assert.Panics(t, func() { New(MaxQubits + 1) })
}

func TestFromAmplitudes(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		s, err := FromAmplitudes([]complex128{complex(1/math.Sqrt2, 0), 0, 0, complex(0, 1/math.Sqrt2)})
		require.NoError(t, err)
		assert.Equal(t, 2, s.NumQubits())
	})

	t.Run("Not a power of two", func(t *testing.T) {
		_, err := FromAmplitudes([]complex128{1, 0, 0})
		assert.ErrorIs(t, err, ErrDimensionMismatch)
	})

	t.Run("Unnormalized", func(t *testing.T) {
		_, err := FromAmplitudes([]complex128{1, 1})
		assert.ErrorIs(t, err, ErrNormDrift)
	})

	t.Run("Input is copied", func(t *testing.T) {
		amps := []complex128{0, 1}
		s, err := FromAmplitudes(amps)
		require.NoError(t, err)
		amps[1] = 5
		assert.Equal(t, complex(1, 0), s.Amplitude(1))
	})
}

func TestSingleQubitGates(t *testing.T) {
	h := 1 / math.Sqrt2
	tests := []struct {
		name     string
		prep     []Gate
		gate     Gate
		expected []complex128
	}{
		{"H|0>", nil, H(0), []complex128{complex(h, 0), complex(h, 0)}},
		{"H|1>", []Gate{X(0)}, H(0), []complex128{complex(h, 0), complex(-h, 0)}},
		{"X|0>", nil, X(0), []complex128{0, 1}},
		{"Y|0>", nil, Y(0), []complex128{0, 1i}},
		{"Y|1>", []Gate{X(0)}, Y(0), []complex128{-1i, 0}},
		{"Z|1>", []Gate{X(0)}, Z(0), []complex128{0, -1}},
		{"Z|0>", nil, Z(0), []complex128{1, 0}},
		{"Phase(pi/2)|1>", []Gate{X(0)}, Phase(0, math.Pi/2), []complex128{0, 1i}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(1)
			require.NoError(t, s.ApplyGates(tt.prep...))
			require.NoError(t, s.ApplyGate(tt.gate))
			assertAmplitudes(t, tt.expected, s)
		})
	}
}

func TestGateActsOnTargetQubitOnly(t *testing.T) {
	// X on qubit 1 of |000> is index 0b010
	s := New(3)
	require.NoError(t, s.ApplyGate(X(1)))
	assert.Equal(t, complex(1, 0), s.Amplitude(2))
	assert.Equal(t, complex(0, 0), s.Amplitude(0))
}

func TestCNOT(t *testing.T) {
	t.Run("Bell state", func(t *testing.T) {
		s := New(2)
		require.NoError(t, s.ApplyGates(H(0), CNOT(0, 1)))
		h := complex(1/math.Sqrt2, 0)
		assertAmplitudes(t, []complex128{h, 0, 0, h}, s)
	})

	t.Run("Control clear leaves target", func(t *testing.T) {
		s := New(2)
		require.NoError(t, s.ApplyGate(CNOT(0, 1)))
		assertAmplitudes(t, []complex128{1, 0, 0, 0}, s)
	})

	t.Run("Control set flips target", func(t *testing.T) {
		s := New(2)
		require.NoError(t, s.ApplyGates(X(1), CNOT(1, 0)))
		assertAmplitudes(t, []complex128{0, 0, 0, 1}, s)
	})
}

func TestInvalidGates(t *testing.T) {
	tests := []struct {
		name string
		gate Gate
		err  error
	}{
		{"Target out of range", X(3), ErrInvalidQubitIndex},
		{"Negative target", H(-1), ErrInvalidQubitIndex},
		{"Control out of range", CNOT(5, 0), ErrInvalidQubitIndex},
		{"Control equals target", CNOT(1, 1), ErrInvalidQubitIndex},
		{"Unknown kind", Gate{Kind: GateKind(99)}, ErrUnknownGate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(3)
			before := s.Amplitudes()
			err := s.ApplyGate(tt.gate)
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, before, s.Amplitudes())
		})
	}
}

func TestApplyPauli(t *testing.T) {
	s := New(2)
	require.NoError(t, s.ApplyPauli(PauliI, 1))
	assert.Equal(t, complex(1, 0), s.Amplitude(0))
	assert.ErrorIs(t, s.ApplyPauli(PauliI, 2), ErrInvalidQubitIndex)

	require.NoError(t, s.ApplyPauli(PauliX, 1))
	assert.Equal(t, complex(1, 0), s.Amplitude(2))

	before := s.Amplitudes()
	assert.ErrorIs(t, s.ApplyPauli(PauliOperator(7), 0), ErrUnknownGate)
	assert.Equal(t, before, s.Amplitudes())

	// a recovery carrying a bad tag fails instead of acting as the identity
	e := NewPauliError(PauliTerm{Qubit: 0, Op: PauliOperator(4)})
	assert.ErrorIs(t, e.Apply(s), ErrUnknownGate)
}

func TestClone(t *testing.T) {
	s := New(2)
	require.NoError(t, s.ApplyGate(H(0)))
	_, err := s.Measure(ComputationalBasis, NewSource(1))
	require.NoError(t, err)

	c := s.Clone()
	require.NoError(t, c.ApplyGate(X(1)))
	_, err = c.Measure(ComputationalBasis, NewSource(2))
	require.NoError(t, err)

	assert.Len(t, s.MeasurementHistory(), 1)
	assert.Len(t, c.MeasurementHistory(), 2)
	assert.NotEqual(t, s.Amplitudes(), c.Amplitudes())
}

func TestOverlapAndFidelity(t *testing.T) {
	a := New(1)
	b := New(1)
	require.NoError(t, b.ApplyGate(H(0)))

	overlap, err := a.ComputeOverlap(b)
	require.NoError(t, err)
	assert.InDelta(t, 1/math.Sqrt2, real(overlap), eps)

	f, err := a.Fidelity(b)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, f, eps)

	// global phase does not change fidelity
	c := New(1)
	require.NoError(t, c.ApplyGates(X(0), Y(0)))
	f, err = a.Fidelity(c)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, f, eps)

	_, err = a.ComputeOverlap(New(2))
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestMeasureStabilizer(t *testing.T) {
	zz := NewStabilizer(PauliTerm{0, PauliZ}, PauliTerm{1, PauliZ})
	xx := NewStabilizer(PauliTerm{0, PauliX}, PauliTerm{1, PauliX})

	tests := []struct {
		name     string
		prep     []Gate
		st       Stabilizer
		expected bool
	}{
		{"ZZ on |00>", nil, zz, false},
		{"ZZ on |01>", []Gate{X(0)}, zz, true},
		{"ZZ on |11>", []Gate{X(0), X(1)}, zz, false},
		{"XX on Phi+", []Gate{H(0), CNOT(0, 1)}, xx, false},
		{"XX on Phi-", []Gate{H(0), CNOT(0, 1), Z(0)}, xx, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(2)
			require.NoError(t, s.ApplyGates(tt.prep...))
			got, err := s.MeasureStabilizer(tt.st)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	t.Run("Out of range qubit", func(t *testing.T) {
		_, err := New(2).MeasureStabilizer(NewStabilizer(PauliTerm{4, PauliZ}))
		assert.ErrorIs(t, err, ErrInvalidQubitIndex)
	})
}

func TestMeasureStabilizerDoesNotMutate(t *testing.T) {
	s := New(3)
	require.NoError(t, s.ApplyGates(H(0), CNOT(0, 1), Phase(2, 0.3), H(2)))
	before, err := s.MarshalBinary()
	require.NoError(t, err)

	_, err = s.MeasureStabilizer(NewStabilizer(PauliTerm{0, PauliX}, PauliTerm{1, PauliY}, PauliTerm{2, PauliZ}))
	require.NoError(t, err)

	after, err := s.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Empty(t, s.MeasurementHistory())
}

func TestDriftGuard(t *testing.T) {
	t.Run("Small drift is rescaled", func(t *testing.T) {
		s := New(1)
		s.SetRenormalizeInterval(2)
		s.amplitudes[0] = complex(1+1e-8, 0)
		require.NoError(t, s.ApplyGates(X(0), X(0)))
		assert.InDelta(t, 1.0, s.NormSquared(), 1e-15)
	})

	t.Run("Large drift is reported", func(t *testing.T) {
		s := New(1)
		s.SetRenormalizeInterval(2)
		s.amplitudes[0] = 2
		require.NoError(t, s.ApplyGate(X(0)))
		err := s.ApplyGate(X(0))
		assert.True(t, errors.Is(err, ErrNormDrift))
	})

	t.Run("Disabled", func(t *testing.T) {
		s := New(1)
		s.SetRenormalizeInterval(0)
		s.amplitudes[0] = 2
		for i := 0; i < 2*DefaultRenormalizeInterval; i++ {
			require.NoError(t, s.ApplyGate(X(0)))
		}
	})
}

func TestPerturb(t *testing.T) {
	s := New(2)
	deltas := []complex128{0.1, 0.2i, -0.1, 0.05}
	i := 0
	err := s.Perturb(func() complex128 {
		d := deltas[i]
		i++
		return d
	})
	require.NoError(t, err)
	assert.Equal(t, 4, i, "one draw per amplitude")
	assert.NoError(t, s.CheckNorm(NormTolerance))
	assert.Greater(t, cmplx.Abs(s.Amplitude(1)), 0.0)

	// a perturbation that cancels the vector cannot be renormalized
	z := New(1)
	err = z.Perturb(func() complex128 {
		if i%2 == 0 {
			i++
			return -1
		}
		i++
		return 0
	})
	assert.ErrorIs(t, err, ErrNormDrift)
	assert.Equal(t, []complex128{1, 0}, z.Amplitudes(), "failed perturbation leaves the state untouched")
	assert.NoError(t, z.CheckNorm(NormTolerance))
}

func gateGen(numQubits int) *rapid.Generator[Gate] {
	return rapid.Custom(func(t *rapid.T) Gate {
		kind := GateKind(rapid.IntRange(int(Hadamard), int(GateCNOT)).Draw(t, "kind"))
		target := rapid.IntRange(0, numQubits-1).Draw(t, "target")
		switch kind {
		case GatePhase:
			return Phase(target, rapid.Float64Range(-2*math.Pi, 2*math.Pi).Draw(t, "theta"))
		case GateCNOT:
			control := (target + rapid.IntRange(1, numQubits-1).Draw(t, "offset")) % numQubits
			return CNOT(control, target)
		default:
			return Gate{Kind: kind, Target: target}
		}
	})
}

// TestGateSequencesPreserveNorm applies random gate sequences, including
// sequences long enough to cross several drift checks
func TestGateSequencesPreserveNorm(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(2, 5).Draw(t, "qubits")
		gates := rapid.SliceOfN(gateGen(n), 0, 200).Draw(t, "gates")

		s := New(n)
		require.NoError(t, s.ApplyGates(gates...))
		require.NoError(t, s.CheckNorm(NormTolerance))
	})
}
