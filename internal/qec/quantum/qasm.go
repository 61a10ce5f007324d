package quantum

import (
	"fmt"
	"strings"
)

// QASMBuilder builds OpenQASM 2.0 circuits
type QASMBuilder struct {
	version      string
	includeStmt  string
	registers    []string
	gates        []string
	measurements []string
}

// NewQASMBuilder creates a new OpenQASM circuit builder
func NewQASMBuilder(numQubits int, numClassical int) *QASMBuilder {
	builder := &QASMBuilder{
		version:      "OPENQASM 2.0;",
		includeStmt:  "include \"qelib1.inc\";",
		registers:    make([]string, 0),
		gates:        make([]string, 0),
		measurements: make([]string, 0),
	}

	builder.registers = append(builder.registers, fmt.Sprintf("qreg q[%d];", numQubits))
	if numClassical > 0 {
		builder.registers = append(builder.registers, fmt.Sprintf("creg c[%d];", numClassical))
	}

	return builder
}

// AddGate adds a raw gate statement
func (b *QASMBuilder) AddGate(gate string) {
	b.gates = append(b.gates, gate)
}

// AddOp translates a simulator gate into its qelib1 statement
func (b *QASMBuilder) AddOp(g Gate) error {
	switch g.Kind {
	case Hadamard:
		b.AddGate(fmt.Sprintf("h q[%d];", g.Target))
	case GatePauliX:
		b.AddGate(fmt.Sprintf("x q[%d];", g.Target))
	case GatePauliY:
		b.AddGate(fmt.Sprintf("y q[%d];", g.Target))
	case GatePauliZ:
		b.AddGate(fmt.Sprintf("z q[%d];", g.Target))
	case GatePhase:
		b.AddGate(fmt.Sprintf("u1(%.17g) q[%d];", g.Theta, g.Target))
	case GateCNOT:
		b.AddGate(fmt.Sprintf("cx q[%d],q[%d];", g.Control, g.Target))
	default:
		return fmt.Errorf("%w: %d", ErrUnknownGate, g.Kind)
	}
	return nil
}

// AddMeasurement adds a measurement operation
func (b *QASMBuilder) AddMeasurement(qubit int, classical int) {
	b.measurements = append(b.measurements,
		fmt.Sprintf("measure q[%d] -> c[%d];", qubit, classical))
}

// Build generates the complete QASM circuit string
func (b *QASMBuilder) Build() string {
	var circuit strings.Builder

	circuit.WriteString(b.version + "\n")
	circuit.WriteString(b.includeStmt + "\n")
	circuit.WriteString("\n")

	for _, reg := range b.registers {
		circuit.WriteString(reg + "\n")
	}

	if len(b.gates) > 0 {
		circuit.WriteString("\n")
		for _, gate := range b.gates {
			circuit.WriteString(gate + "\n")
		}
	}

	if len(b.measurements) > 0 {
		circuit.WriteString("\n")
		for _, meas := range b.measurements {
			circuit.WriteString(meas + "\n")
		}
	}

	return circuit.String()
}

// BuildCircuit exports a gate list, optionally followed by measuring every qubit
func BuildCircuit(numQubits int, gates []Gate, measure bool) (string, error) {
	classical := 0
	if measure {
		classical = numQubits
	}
	builder := NewQASMBuilder(numQubits, classical)

	for _, g := range gates {
		for _, q := range g.Qubits() {
			if q < 0 || q >= numQubits {
				return "", fmt.Errorf("%w: gate %s on %d qubits", ErrInvalidQubitIndex, g, numQubits)
			}
		}
		if err := builder.AddOp(g); err != nil {
			return "", err
		}
	}

	if measure {
		for i := 0; i < numQubits; i++ {
			builder.AddMeasurement(i, i)
		}
	}

	return builder.Build(), nil
}

// BuildRecoveryCircuit exports the Pauli gates of a recovery operation
func BuildRecoveryCircuit(numQubits int, recovery PauliError) (string, error) {
	gates := make([]Gate, 0, recovery.Weight())
	for _, t := range recovery.Terms() {
		if g, ok := PauliGate(t.Op, t.Qubit); ok {
			gates = append(gates, g)
		}
	}
	return BuildCircuit(numQubits, gates, false)
}
