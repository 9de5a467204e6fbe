package observable

import (
	"math"

	"github.com/qweave/qweave/circuit"
)

// Diagonalize returns the gate sequence that rotates the observable's
// eigenbasis onto the computational basis. In sampled mode these
// rotations are appended to the circuit so the Ising Z-string measures
// the right quantity.
//
// PauliZ and Identity need no rotation. Hermitian matrices and
// Hamiltonians have no fixed single-basis rotation and are rejected.
func Diagonalize(o *Observable) ([]circuit.Operation, error) {
	switch o.Name {
	case "PauliZ", "Identity":
		return nil, nil

	case "PauliX":
		w := o.Wires[0]
		return []circuit.Operation{
			{Name: "Hadamard", Wires: []string{w}},
		}, nil

	case "PauliY":
		w := o.Wires[0]
		return []circuit.Operation{
			{Name: "PauliZ", Wires: []string{w}},
			{Name: "S", Wires: []string{w}},
			{Name: "Hadamard", Wires: []string{w}},
		}, nil

	case "Hadamard":
		w := o.Wires[0]
		return []circuit.Operation{
			{Name: "RY", Wires: []string{w}, Params: []float64{-math.Pi / 4}},
		}, nil

	case "Hermitian":
		return nil, &circuit.UnsupportedOperationError{
			Name:   "Hermitian",
			Reason: "matrix observables cannot be sampled without an eigenbasis rotation",
		}

	case "Tensor":
		var ops []circuit.Operation
		for _, f := range o.Factors {
			sub, err := Diagonalize(f)
			if err != nil {
				return nil, err
			}
			ops = append(ops, sub...)
		}
		return ops, nil

	case "Hamiltonian":
		return nil, &circuit.UnsupportedOperationError{
			Name:   "Hamiltonian",
			Reason: "sampled-mode measurement requires commuting-term grouping",
		}

	default:
		return nil, &circuit.UnsupportedOperationError{Name: o.Name, Reason: "unknown observable"}
	}
}
