package correction

import (
	"fmt"

	"github.com/jaskrrish/Go-QEC/internal/qec/quantum"
)

// MeasureSyndrome probes every stabilizer of code against state in
// declaration order. The state is not modified.
func MeasureSyndrome(state *quantum.State, code *Code) (Syndrome, error) {
	s := NewSyndrome(len(code.stabilizers))
	for k, st := range code.stabilizers {
		odd, err := state.MeasureStabilizer(st)
		if err != nil {
			return Syndrome{}, fmt.Errorf("stabilizer %d (%s): %w", k, st, err)
		}
		s.Set(k, odd)
	}
	return s, nil
}

// Recover decodes s and applies the recovery to state in place
func Recover(state *quantum.State, code *Code, s Syndrome) (quantum.PauliError, error) {
	recovery, err := code.Decode(s)
	if err != nil {
		return quantum.PauliError{}, err
	}
	if err := recovery.Apply(state); err != nil {
		return quantum.PauliError{}, fmt.Errorf("apply recovery %s: %w", recovery, err)
	}
	return recovery, nil
}

// Correct measures the syndrome of state, decodes it and applies the
// recovery. It returns the applied recovery.
func Correct(state *quantum.State, code *Code) (quantum.PauliError, error) {
	s, err := MeasureSyndrome(state, code)
	if err != nil {
		return quantum.PauliError{}, err
	}
	return Recover(state, code, s)
}

// Verify checks that claimed is a decodable syndrome of code and that state
// actually produces it. It returns the recovery the syndrome maps to and
// never modifies state.
func Verify(state *quantum.State, code *Code, claimed Syndrome) (quantum.PauliError, error) {
	recovery, err := code.Decode(claimed)
	if err != nil {
		return quantum.PauliError{}, err
	}

	observed, err := MeasureSyndrome(state, code)
	if err != nil {
		return quantum.PauliError{}, err
	}
	if !observed.Equal(claimed) {
		return quantum.PauliError{}, fmt.Errorf("%w: claimed %s, measured %s", ErrSyndromeMismatch, claimed, observed)
	}
	return recovery, nil
}
