package observable

import (
	"strconv"
	"strings"

	"github.com/qweave/qweave/circuit"
)

// Serialize renders the observable as the operator string carried on the
// wire format. Analytic mode uses the weighted Pauli-sum form; sampled
// mode uses the Ising Z-string form, which pairs with the diagonalizing
// rotations compiled into the circuit.
func Serialize(o *Observable, wires *circuit.WireMap, analytic bool) (string, error) {
	if analytic {
		return QubitOperatorString(o, wires)
	}
	return IsingOperatorString(o, wires)
}

// QubitOperatorString renders the exact Pauli decomposition, one term per
// Pauli string:
//
//	1 [Z0]
//	0.7071067811865475 [X0] + 0.7071067811865475 [Z0]
//
// Identity terms render with an empty bracket. A vanished operator
// renders as "0".
func QubitOperatorString(o *Observable, wires *circuit.WireMap) (string, error) {
	terms, err := Decompose(o, wires)
	if err != nil {
		return "", err
	}
	if len(terms) == 0 {
		return "0", nil
	}

	parts := make([]string, len(terms))
	for i, t := range terms {
		var b strings.Builder
		b.WriteString(strconv.FormatFloat(t.Coeff, 'g', -1, 64))
		b.WriteString(" [")
		for j, f := range t.Factors {
			if j > 0 {
				b.WriteByte(' ')
			}
			b.WriteByte(byte(f.Axis))
			b.WriteString(strconv.Itoa(f.Wire))
		}
		b.WriteByte(']')
		parts[i] = b.String()
	}

	return strings.Join(parts, " + "), nil
}

// IsingOperatorString renders the sampled-mode operator: a single
// Z-string over the observed wires, e.g. "[Z0 Z1]". The circuit is
// expected to carry the observable's diagonalizing rotations, so the
// engine measures in the computational basis.
//
// Hamiltonians are rejected: a weighted sum generally mixes measurement
// bases and needs term grouping before it can be sampled.
func IsingOperatorString(o *Observable, wires *circuit.WireMap) (string, error) {
	if err := sampleable(o); err != nil {
		return "", err
	}

	labels := o.ObservedWires()
	if len(labels) == 0 {
		return "[]", nil
	}

	idx, err := wires.Indices(labels)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteByte('[')
	for i, w := range idx {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteByte('Z')
		b.WriteString(strconv.Itoa(w))
	}
	b.WriteByte(']')
	return b.String(), nil
}

// sampleable checks that the observable has a single-basis sampled form.
func sampleable(o *Observable) error {
	switch o.Name {
	case "Hamiltonian":
		return &circuit.UnsupportedOperationError{
			Name:   "Hamiltonian",
			Reason: "sampled-mode measurement requires commuting-term grouping",
		}
	case "Hermitian":
		return &circuit.UnsupportedOperationError{
			Name:   "Hermitian",
			Reason: "matrix observables cannot be sampled without an eigenbasis rotation",
		}
	case "Tensor":
		for _, f := range o.Factors {
			if err := sampleable(f); err != nil {
				return err
			}
		}
	}
	return nil
}
