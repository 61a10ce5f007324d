package quantum

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQASMBuilder(t *testing.T) {
	builder := NewQASMBuilder(2, 2)
	builder.AddGate("h q[0];")
	builder.AddMeasurement(0, 0)

	circuit := builder.Build()

	assert.True(t, strings.HasPrefix(circuit, "OPENQASM 2.0;\ninclude \"qelib1.inc\";\n"))
	assert.Contains(t, circuit, "qreg q[2];")
	assert.Contains(t, circuit, "creg c[2];")
	assert.Contains(t, circuit, "h q[0];")
	assert.Contains(t, circuit, "measure q[0] -> c[0];")
}

func TestBuildCircuit(t *testing.T) {
	gates := []Gate{H(0), CNOT(0, 1), Y(2), Phase(1, 0.5), Z(0), X(2)}
	circuit, err := BuildCircuit(3, gates, true)
	require.NoError(t, err)

	for _, want := range []string{
		"h q[0];",
		"cx q[0],q[1];",
		"y q[2];",
		"u1(0.5) q[1];",
		"z q[0];",
		"x q[2];",
		"measure q[2] -> c[2];",
	} {
		assert.Contains(t, circuit, want)
	}
	assert.Less(t, strings.Index(circuit, "h q[0];"), strings.Index(circuit, "cx q[0],q[1];"))

	_, err = BuildCircuit(2, []Gate{X(2)}, false)
	assert.ErrorIs(t, err, ErrInvalidQubitIndex)

	_, err = BuildCircuit(2, []Gate{{Kind: GateKind(42)}}, false)
	assert.ErrorIs(t, err, ErrUnknownGate)
}

func TestBuildRecoveryCircuit(t *testing.T) {
	recovery := NewPauliError(PauliTerm{3, PauliZ}, PauliTerm{0, PauliX})
	circuit, err := BuildRecoveryCircuit(7, recovery)
	require.NoError(t, err)

	assert.Contains(t, circuit, "qreg q[7];")
	assert.NotContains(t, circuit, "creg")
	assert.Less(t, strings.Index(circuit, "x q[0];"), strings.Index(circuit, "z q[3];"))
}
