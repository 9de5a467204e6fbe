package observable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qweave/qweave/circuit"
)

func TestQubitOperatorString(t *testing.T) {
	wires := mustWires(t, "0", "1")

	tests := []struct {
		name string
		obs  *Observable
		want string
	}{
		{"pauli z", PauliZ("0"), "1 [Z0]"},
		{"identity", Identity("0"), "1 []"},
		{"hadamard", Hadamard("0"), "0.7071067811865475 [X0] + 0.7071067811865475 [Z0]"},
		{"tensor", Tensor(PauliZ("0"), PauliZ("1")), "1 [Z0 Z1]"},
		{
			"hamiltonian",
			Hamiltonian([]float64{0.5, 0.3}, []*Observable{PauliX("0"), PauliZ("1")}),
			"0.5 [X0] + 0.3 [Z1]",
		},
		{
			"cancellation",
			Hamiltonian([]float64{1, -1}, []*Observable{PauliZ("0"), PauliZ("0")}),
			"0",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := QubitOperatorString(tc.obs, wires)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestIsingOperatorString(t *testing.T) {
	wires := mustWires(t, "0", "1")

	tests := []struct {
		name string
		obs  *Observable
		want string
	}{
		{"pauli z", PauliZ("0"), "[Z0]"},
		{"pauli x second wire", PauliX("1"), "[Z1]"},
		{"identity", Identity("0"), "[]"},
		{"tensor", Tensor(PauliZ("0"), PauliZ("1")), "[Z0 Z1]"},
		{"tensor with identity", Tensor(PauliZ("1"), Identity("0")), "[Z1]"},
		{"hadamard", Hadamard("0"), "[Z0]"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := IsingOperatorString(tc.obs, wires)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestIsingOperatorStringRejectsHamiltonian(t *testing.T) {
	h := Hamiltonian([]float64{1}, []*Observable{PauliZ("0")})
	_, err := IsingOperatorString(h, mustWires(t, "0"))
	require.Error(t, err)
	assert.True(t, circuit.IsUnsupportedOperation(err))
}

func TestIsingOperatorStringRejectsHermitian(t *testing.T) {
	m := [][]complex128{
		{0, 1},
		{1, 0},
	}
	obs := Tensor(PauliZ("1"), Hermitian(m, "0"))

	_, err := IsingOperatorString(obs, mustWires(t, "0", "1"))
	require.Error(t, err)
	assert.True(t, circuit.IsUnsupportedOperation(err))
}

func TestSerializeSelectsFormat(t *testing.T) {
	wires := mustWires(t, "0")

	analytic, err := Serialize(PauliZ("0"), wires, true)
	require.NoError(t, err)
	assert.Equal(t, "1 [Z0]", analytic)

	sampled, err := Serialize(PauliZ("0"), wires, false)
	require.NoError(t, err)
	assert.Equal(t, "[Z0]", sampled)
}
