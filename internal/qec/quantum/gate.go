package quantum

import "fmt"

// GateKind identifies a supported unitary
type GateKind int

const (
	Hadamard GateKind = iota
	GatePauliX
	GatePauliY
	GatePauliZ
	// GatePhase multiplies the |1⟩ component by e^{iθ}
	GatePhase
	// GateCNOT flips Target when Control is set
	GateCNOT
)

func (k GateKind) String() string {
	switch k {
	case Hadamard:
		return "H"
	case GatePauliX:
		return "X"
	case GatePauliY:
		return "Y"
	case GatePauliZ:
		return "Z"
	case GatePhase:
		return "P"
	case GateCNOT:
		return "CNOT"
	default:
		return "Unknown"
	}
}

// Gate is a single gate application. Control is only read for GateCNOT and
// Theta only for GatePhase.
type Gate struct {
	Kind    GateKind
	Target  int
	Control int
	Theta   float64
}

// H returns a Hadamard on qubit q
func H(q int) Gate { return Gate{Kind: Hadamard, Target: q} }

// X returns a Pauli-X on qubit q
func X(q int) Gate { return Gate{Kind: GatePauliX, Target: q} }

// Y returns a Pauli-Y on qubit q
func Y(q int) Gate { return Gate{Kind: GatePauliY, Target: q} }

// Z returns a Pauli-Z on qubit q
func Z(q int) Gate { return Gate{Kind: GatePauliZ, Target: q} }

// Phase returns a phase rotation by theta on qubit q
func Phase(q int, theta float64) Gate { return Gate{Kind: GatePhase, Target: q, Theta: theta} }

// CNOT returns a controlled-NOT
func CNOT(control, target int) Gate { return Gate{Kind: GateCNOT, Target: target, Control: control} }

// PauliGate maps a Pauli tag onto its gate. The identity has no gate and
// reports false.
func PauliGate(p PauliOperator, q int) (Gate, bool) {
	switch p {
	case PauliX:
		return X(q), true
	case PauliY:
		return Y(q), true
	case PauliZ:
		return Z(q), true
	default:
		return Gate{}, false
	}
}

// Qubits returns every qubit the gate touches
func (g Gate) Qubits() []int {
	if g.Kind == GateCNOT {
		return []int{g.Control, g.Target}
	}
	return []int{g.Target}
}

func (g Gate) String() string {
	switch g.Kind {
	case GateCNOT:
		return fmt.Sprintf("CNOT(%d->%d)", g.Control, g.Target)
	case GatePhase:
		return fmt.Sprintf("P(%g)[%d]", g.Theta, g.Target)
	default:
		return fmt.Sprintf("%s[%d]", g.Kind, g.Target)
	}
}
